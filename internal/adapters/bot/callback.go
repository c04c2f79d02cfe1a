package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"tg-poem-bot/internal/usecase/submission"
)

// ErrUnknownCommand возвращается для нераспознанного callback-токена.
var ErrUnknownCommand = errors.New("неизвестная команда")

// Command — закрытое множество callback-команд. Диспетчеризация идёт
// switch-ом по варианту, а не сопоставлением строк в обработчиках.
type Command interface{ isCommand() }

// SendPoemCmd — начать диалог отправки.
type SendPoemCmd struct{}

// CancelCmd — прервать текущий диалог.
type CancelCmd struct{}

// ApproveCmd — одобрить стихотворение.
type ApproveCmd struct{ PoemID int64 }

// DeleteCmd — удалить стихотворение.
type DeleteCmd struct{ PoemID int64 }

// EditMenuCmd — показать меню выбора редактируемого поля.
type EditMenuCmd struct{ PoemID int64 }

// EditCmd — начать редактирование поля.
type EditCmd struct {
	PoemID int64
	Field  submission.Field
}

// PoemCategoryCmd — выбор категории в диалоге (адресат хранится в сессии).
type PoemCategoryCmd struct{ Label string }

// ChannelCategoryCmd — добавить категорию каналу.
type ChannelCategoryCmd struct {
	ChannelID int64
	Label     string
}

// ChannelAllCmd — включить каналу все категории.
type ChannelAllCmd struct{ ChannelID int64 }

// ChannelDoneCmd — завершить настройку категорий канала.
type ChannelDoneCmd struct{ ChannelID int64 }

// WindowCmd — задать каналу временное окно.
type WindowCmd struct {
	ChannelID int64
	Start     int
	End       int
}

// PageCmd — страница очереди модерации с необязательными фильтрами.
type PageCmd struct {
	Page     int
	Category string
	Poet     string
}

func (SendPoemCmd) isCommand()        {}
func (CancelCmd) isCommand()          {}
func (ApproveCmd) isCommand()         {}
func (DeleteCmd) isCommand()          {}
func (EditMenuCmd) isCommand()        {}
func (EditCmd) isCommand()            {}
func (PoemCategoryCmd) isCommand()    {}
func (ChannelCategoryCmd) isCommand() {}
func (ChannelAllCmd) isCommand()      {}
func (ChannelDoneCmd) isCommand()     {}
func (WindowCmd) isCommand()          {}
func (PageCmd) isCommand()            {}

const (
	categoryAll  = "همه"
	categoryDone = "تمام"
)

// ParseCallback разбирает callback-токен в один из вариантов Command.
func ParseCallback(data string) (Command, error) {
	switch data {
	case "send_poem":
		return SendPoemCmd{}, nil
	case "cancel":
		return CancelCmd{}, nil
	}
	parts := strings.Split(data, "_")
	switch parts[0] {
	case "approve":
		if len(parts) != 2 {
			return nil, ErrUnknownCommand
		}
		id, err := parseID(parts[1])
		if err != nil {
			return nil, err
		}
		return ApproveCmd{PoemID: id}, nil
	case "delete":
		if len(parts) != 2 {
			return nil, ErrUnknownCommand
		}
		id, err := parseID(parts[1])
		if err != nil {
			return nil, err
		}
		return DeleteCmd{PoemID: id}, nil
	case "editmenu":
		if len(parts) != 2 {
			return nil, ErrUnknownCommand
		}
		id, err := parseID(parts[1])
		if err != nil {
			return nil, err
		}
		return EditMenuCmd{PoemID: id}, nil
	case "edit":
		if len(parts) != 3 {
			return nil, ErrUnknownCommand
		}
		id, err := parseID(parts[1])
		if err != nil {
			return nil, err
		}
		field, ok := map[string]submission.Field{
			"text": submission.FieldBody,
			"poet": submission.FieldAuthor,
			"cat":  submission.FieldCategory,
		}[parts[2]]
		if !ok {
			return nil, ErrUnknownCommand
		}
		return EditCmd{PoemID: id, Field: field}, nil
	case "cat":
		if len(parts) != 3 {
			return nil, ErrUnknownCommand
		}
		label := parts[1]
		target := parts[2]
		if target == "new" {
			return PoemCategoryCmd{Label: label}, nil
		}
		if !strings.HasPrefix(target, "ch") {
			return nil, ErrUnknownCommand
		}
		channelID, err := parseID(strings.TrimPrefix(target, "ch"))
		if err != nil {
			return nil, err
		}
		switch label {
		case categoryAll:
			return ChannelAllCmd{ChannelID: channelID}, nil
		case categoryDone:
			return ChannelDoneCmd{ChannelID: channelID}, nil
		}
		return ChannelCategoryCmd{ChannelID: channelID, Label: label}, nil
	case "win":
		if len(parts) != 4 || !strings.HasPrefix(parts[3], "ch") {
			return nil, ErrUnknownCommand
		}
		start, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, ErrUnknownCommand
		}
		end, err := strconv.Atoi(parts[2])
		if err != nil {
			return nil, ErrUnknownCommand
		}
		if start < 0 || start > 23 || end < 0 || end > 24 {
			return nil, ErrUnknownCommand
		}
		channelID, err := parseID(strings.TrimPrefix(parts[3], "ch"))
		if err != nil {
			return nil, err
		}
		return WindowCmd{ChannelID: channelID, Start: start, End: end}, nil
	case "page":
		if len(parts) != 2 && len(parts) != 4 {
			return nil, ErrUnknownCommand
		}
		page, err := strconv.Atoi(parts[1])
		if err != nil || page < 0 {
			return nil, ErrUnknownCommand
		}
		cmd := PageCmd{Page: page}
		if len(parts) == 4 {
			cmd.Category = parts[2]
			cmd.Poet = parts[3]
		}
		return cmd, nil
	}
	return nil, ErrUnknownCommand
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, ErrUnknownCommand
	}
	return id, nil
}

func approveToken(poemID int64) string  { return fmt.Sprintf("approve_%d", poemID) }
func deleteToken(poemID int64) string   { return fmt.Sprintf("delete_%d", poemID) }
func editMenuToken(poemID int64) string { return fmt.Sprintf("editmenu_%d", poemID) }
func editToken(poemID int64, field string) string {
	return fmt.Sprintf("edit_%d_%s", poemID, field)
}
func poemCategoryToken(label string) string { return fmt.Sprintf("cat_%s_new", label) }
func channelCategoryToken(label string, channelID int64) string {
	return fmt.Sprintf("cat_%s_ch%d", label, channelID)
}
func windowToken(start, end int, channelID int64) string {
	return fmt.Sprintf("win_%d_%d_ch%d", start, end, channelID)
}
func pageToken(page int, category, poet string) string {
	if category == "" && poet == "" {
		return fmt.Sprintf("page_%d", page)
	}
	return fmt.Sprintf("page_%d_%s_%s", page, category, poet)
}
