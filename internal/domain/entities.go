package domain

import (
	"strings"
	"time"
)

// Poem описывает присланное стихотворение.
type Poem struct {
	ID        int64
	TGUserID  int64
	Username  string
	FirstName string
	LastName  string
	Text      string
	Poet      string
	Category  string
	Approved  bool
	Published bool
	SentTo    []int64
	CreatedAt time.Time
}

// WasSentTo сообщает, отправлялось ли стихотворение в указанный канал.
func (p Poem) WasSentTo(tgChannelID int64) bool {
	for _, id := range p.SentTo {
		if id == tgChannelID {
			return true
		}
	}
	return false
}

// OwnerName возвращает отображаемое имя автора отправки.
func (p Poem) OwnerName() string {
	if p.Username != "" {
		return "@" + p.Username
	}
	name := strings.TrimSpace(p.FirstName + " " + p.LastName)
	if name != "" {
		return name
	}
	return "ناشناس"
}

// PoetLabel возвращает имя поэта для публикации.
func (p Poem) PoetLabel() string {
	if strings.TrimSpace(p.Poet) == "" {
		return "نامشخص"
	}
	return p.Poet
}

// Channel описывает канал-получатель рассылки.
type Channel struct {
	ID            int64
	TGChannelID   int64
	AdminTGID     int64
	Title         string
	StartHour     int
	EndHour       int
	Categories    []string
	AllCategories bool
	CreatedAt     time.Time
}

// PoemFilter задаёт условия выборки стихотворений.
type PoemFilter struct {
	Approved   *bool
	Category   string
	Categories []string
	Poet       string
	NotSentTo  int64
}

// PoemPatch описывает частичное обновление записи. Нулевой указатель
// оставляет поле без изменений.
type PoemPatch struct {
	Text      *string
	Poet      *string
	Category  *string
	Approved  *bool
	Published *bool
}
