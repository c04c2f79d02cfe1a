package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"tg-poem-bot/internal/domain"
	"tg-poem-bot/internal/infra/metrics"
	"tg-poem-bot/internal/usecase/moderation"
	"tg-poem-bot/internal/usecase/submission"
)

// Replier объединяет отправку сообщений и ответы на callback-и.
type Replier interface {
	domain.Sender
	AnswerCallback(callbackID string)
}

// Handler обслуживает вебхук бота: диалог отправки, модерацию и
// подключение каналов.
type Handler struct {
	sender         Replier
	log            zerolog.Logger
	dialog         *submission.Service
	moderation     *moderation.Service
	channels       domain.ChannelRepo
	poems          domain.PoemRepo
	notify         domain.NotifyQueue
	moderationChat int64
}

// NewHandler создаёт обработчик.
func NewHandler(sender Replier, log zerolog.Logger, dialog *submission.Service, moderationUC *moderation.Service, channelRepo domain.ChannelRepo, poemRepo domain.PoemRepo, notify domain.NotifyQueue, moderationChat int64) *Handler {
	return &Handler{
		sender:         sender,
		log:            log,
		dialog:         dialog,
		moderation:     moderationUC,
		channels:       channelRepo,
		poems:          poemRepo,
		notify:         notify,
		moderationChat: moderationChat,
	}
}

// HandleUpdate обрабатывает входящий апдейт.
func (h *Handler) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	switch {
	case upd.Message != nil:
		h.handleMessage(ctx, upd.Message)
	case upd.CallbackQuery != nil:
		h.handleCallback(ctx, upd.CallbackQuery)
	case upd.MyChatMember != nil:
		h.handleMyChatMember(ctx, upd.MyChatMember)
	}
}

func (h *Handler) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}
	if !strings.HasPrefix(text, "/") && h.dialog.InDialog(msg.From.ID) {
		h.handleDialogText(ctx, msg)
		return
	}
	if msg.Chat == nil {
		return
	}
	// команды принимаются в личке и в чате модерации
	isPrivate := msg.Chat.IsPrivate()
	if !isPrivate && msg.Chat.ID != h.moderationChat {
		return
	}
	switch {
	case strings.HasPrefix(text, "/start"):
		h.reply(ctx, msg.Chat.ID, "سلام 🌹\nاینجا می‌توانید شعرهای فارسی خود را بفرستید تا بعد از تایید در کانال‌ها منتشر شوند.", startKeyboard())
	case strings.HasPrefix(text, "/poems"):
		h.sendPendingPage(ctx, msg.Chat.ID, msg.From.ID, 0, "", "")
	case strings.HasPrefix(text, "/cat"):
		category := strings.TrimSpace(strings.TrimPrefix(text, "/cat"))
		if category == "" {
			h.reply(ctx, msg.Chat.ID, "مثال: ‎/cat عاشقانه", nil)
			return
		}
		h.sendPendingPage(ctx, msg.Chat.ID, msg.From.ID, 0, category, "")
	case strings.HasPrefix(text, "/poet"):
		poet := strings.TrimSpace(strings.TrimPrefix(text, "/poet"))
		if poet == "" {
			h.reply(ctx, msg.Chat.ID, "مثال: ‎/poet حافظ", nil)
			return
		}
		h.sendPendingPage(ctx, msg.Chat.ID, msg.From.ID, 0, "", poet)
	default:
		if isPrivate {
			h.reply(ctx, msg.Chat.ID, "برای ارسال شعر روی دکمه «ارسال شعر» بزنید یا /start را بفرستید.", startKeyboard())
		}
	}
}

// handleDialogText проводит текст через машину состояний диалога.
func (h *Handler) handleDialogText(ctx context.Context, msg *tgbotapi.Message) {
	actor := actorFrom(msg.From)
	result, err := h.dialog.HandleText(ctx, actor, strings.TrimSpace(msg.Text))
	if err != nil {
		switch {
		case errors.Is(err, submission.ErrInvalidBody):
			metrics.PoemsRejectedTotal.WithLabelValues("body").Inc()
			h.reply(ctx, msg.Chat.ID, "شعر باید دو یا چهار مصراع باشد و فقط از حروف فارسی تشکیل شود. دوباره تلاش کنید 🙏", nil)
		case errors.Is(err, submission.ErrDuplicate):
			metrics.PoemsRejectedTotal.WithLabelValues("duplicate").Inc()
			h.reply(ctx, msg.Chat.ID, "این شعر قبلاً ارسال شده است 🙈", nil)
		case errors.Is(err, submission.ErrInvalidLabel):
			metrics.PoemsRejectedTotal.WithLabelValues("label").Inc()
			h.reply(ctx, msg.Chat.ID, "نام شاعر فقط می‌تواند حروف فارسی باشد. دوباره بنویسید 🖋", nil)
		case errors.Is(err, submission.ErrNotInDialog):
			// сессия истекла между проверкой и обработкой
		default:
			h.log.Error().Err(err).Int64("actor", actor.ID).Msg("ошибка шага диалога")
			h.reply(ctx, msg.Chat.ID, "خطایی پیش آمد،لطفاً دوباره تلاش کنید.", nil)
		}
		return
	}
	switch result.Outcome {
	case submission.OutcomeAskAuthor:
		h.reply(ctx, msg.Chat.ID, "قشنگ بود! حالا نام شاعر را بنویسید 🖋", nil)
	case submission.OutcomeAskCategory:
		h.reply(ctx, msg.Chat.ID, "دسته‌بندی شعر را انتخاب کنید:", poemCategoryKeyboard())
	case submission.OutcomeSaved:
		h.reply(ctx, msg.Chat.ID, "ویرایش ذخیره شد ✅", nil)
	}
}

func (h *Handler) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	defer h.sender.AnswerCallback(cb.ID)
	if cb.From == nil {
		return
	}
	chatID := cb.From.ID
	if cb.Message != nil && cb.Message.Chat != nil {
		chatID = cb.Message.Chat.ID
	}

	cmd, err := ParseCallback(cb.Data)
	if err != nil {
		h.log.Warn().Str("data", cb.Data).Msg("неизвестный callback")
		return
	}

	switch c := cmd.(type) {
	case SendPoemCmd:
		h.startDialog(ctx, chatID, cb.From.ID)
	case CancelCmd:
		h.dialog.Cancel(cb.From.ID)
		h.reply(ctx, chatID, "باشه، لغو شد.", nil)
	case ApproveCmd:
		h.approve(ctx, chatID, cb.From.ID, c.PoemID)
	case DeleteCmd:
		h.delete(ctx, chatID, cb.From.ID, c.PoemID)
	case EditMenuCmd:
		h.reply(ctx, chatID, "کدام بخش ویرایش شود؟", editFieldKeyboard(c.PoemID))
	case EditCmd:
		h.beginEdit(ctx, chatID, cb.From.ID, c)
	case PoemCategoryCmd:
		h.chooseCategory(ctx, chatID, actorFrom(cb.From), c.Label)
	case ChannelCategoryCmd:
		if err := h.channels.AddCategory(ctx, c.ChannelID, c.Label); err != nil {
			h.replyRepoErr(ctx, chatID, err)
			return
		}
		h.reply(ctx, chatID, fmt.Sprintf("دسته «%s» اضافه شد ➕", c.Label), nil)
	case ChannelAllCmd:
		if err := h.channels.SetAllCategories(ctx, c.ChannelID, true); err != nil {
			h.replyRepoErr(ctx, chatID, err)
			return
		}
		h.reply(ctx, chatID, "همه دسته‌ها برای کانال فعال شد ✨", nil)
	case ChannelDoneCmd:
		h.reply(ctx, chatID, "تنظیمات کانال کامل شد ✅ شعرها در بازه انتخابی ارسال می‌شوند.", nil)
	case WindowCmd:
		if err := h.channels.SetWindow(ctx, c.ChannelID, c.Start, c.End); err != nil {
			h.replyRepoErr(ctx, chatID, err)
			return
		}
		h.reply(ctx, chatID, "بازه زمانی ذخیره شد. حالا دسته‌های شعر کانال را انتخاب کنید:", channelCategoryKeyboard(c.ChannelID))
	case PageCmd:
		h.sendPendingPage(ctx, chatID, cb.From.ID, c.Page, c.Category, c.Poet)
	}
}

func (h *Handler) startDialog(ctx context.Context, chatID, actorID int64) {
	if err := h.dialog.Start(ctx, actorID); err != nil {
		var banned *submission.BannedError
		if errors.As(err, &banned) {
			minutes := int(banned.Remaining.Round(time.Minute) / time.Minute)
			if minutes < 1 {
				minutes = 1
			}
			h.reply(ctx, chatID, fmt.Sprintf("شما بیش از حد شعر فرستاده‌اید. لطفاً %d دقیقه دیگر دوباره تلاش کنید ⏳", minutes), nil)
			return
		}
		h.log.Error().Err(err).Int64("actor", actorID).Msg("не удалось начать диалог")
		return
	}
	h.reply(ctx, chatID, "شعر خود را در دو یا چهار مصراع بفرستید، هر مصراع در یک خط جدا 🌹", nil)
}

func (h *Handler) approve(ctx context.Context, chatID, actorID, poemID int64) {
	poem, err := h.moderation.Approve(ctx, actorID, poemID)
	if err != nil {
		h.replyModerationErr(ctx, chatID, err)
		return
	}
	metrics.ModerationActionsTotal.WithLabelValues("approve").Inc()
	h.reply(ctx, chatID, fmt.Sprintf("شعر شماره %d تایید شد ✅", poem.ID), nil)
	h.enqueueNotify(ctx, poem.TGUserID, "شعر شما تایید شد و به زودی در کانال‌ها منتشر می‌شود 🎉", nil)
}

func (h *Handler) delete(ctx context.Context, chatID, actorID, poemID int64) {
	poem, err := h.moderation.Delete(ctx, actorID, poemID)
	if err != nil {
		h.replyModerationErr(ctx, chatID, err)
		return
	}
	metrics.ModerationActionsTotal.WithLabelValues("delete").Inc()
	h.reply(ctx, chatID, fmt.Sprintf("شعر شماره %d حذف شد 🗑", poemID), nil)
	h.enqueueNotify(ctx, poem.TGUserID, "متاسفانه شعر شما تایید نشد 😔 می‌توانید شعر دیگری بفرستید.", nil)
}

func (h *Handler) beginEdit(ctx context.Context, chatID, actorID int64, cmd EditCmd) {
	if err := h.moderation.BeginEdit(ctx, actorID, cmd.PoemID, cmd.Field); err != nil {
		h.replyModerationErr(ctx, chatID, err)
		return
	}
	metrics.ModerationActionsTotal.WithLabelValues("edit").Inc()
	switch cmd.Field {
	case submission.FieldBody:
		h.reply(ctx, chatID, "متن جدید شعر را بفرستید:", nil)
	case submission.FieldAuthor:
		h.reply(ctx, chatID, "نام جدید شاعر را بفرستید:", nil)
	case submission.FieldCategory:
		h.reply(ctx, chatID, "دسته جدید را انتخاب کنید:", poemCategoryKeyboard())
	}
}

// chooseCategory завершает и новый диалог, и редактирование категории:
// адресат определяется сессией.
func (h *Handler) chooseCategory(ctx context.Context, chatID int64, actor submission.Actor, label string) {
	poem, created, err := h.dialog.ChooseCategory(ctx, actor, label)
	if err != nil {
		switch {
		case errors.Is(err, submission.ErrNotInDialog), errors.Is(err, submission.ErrBadStep):
			h.reply(ctx, chatID, "دیالوگ فعالی وجود ندارد. برای شروع /start را بفرستید.", nil)
		case errors.Is(err, submission.ErrBadCategory):
			h.reply(ctx, chatID, "این دسته را نمی‌شناسم، از دکمه‌ها انتخاب کنید.", nil)
		default:
			h.log.Error().Err(err).Int64("actor", actor.ID).Msg("ошибка выбора категории")
			h.reply(ctx, chatID, "خطایی پیش آمد، لطفاً دوباره تلاش کنید.", nil)
		}
		return
	}
	if !created {
		h.reply(ctx, chatID, "ویرایش ذخیره شد ✅", nil)
		return
	}
	metrics.PoemsSubmittedTotal.Inc()
	h.reply(ctx, chatID, "شعر زیبای شما ارسال شد قشنگم ^^", nil)
	h.enqueueNotify(ctx, h.moderationChat, "✉️ شعر جدید\n\n"+formatPoem(poem), poemActionKeyboard(poem.ID))
}

func (h *Handler) sendPendingPage(ctx context.Context, chatID, actorID int64, page int, category, poet string) {
	pending, err := h.moderation.ListPending(ctx, actorID, page, category, poet)
	if err != nil {
		h.replyModerationErr(ctx, chatID, err)
		return
	}
	if len(pending.Poems) == 0 {
		h.reply(ctx, chatID, "شعری در انتظار تایید نیست 🌙", nil)
		return
	}
	for _, poem := range pending.Poems {
		h.reply(ctx, chatID, formatPoem(poem), poemActionKeyboard(poem.ID))
	}
	if nav := pageNavKeyboard(pending); nav != nil {
		h.reply(ctx, chatID, fmt.Sprintf("صفحه %d", pending.Page+1), nav)
	}
}

// handleMyChatMember реагирует на добавление и удаление бота из каналов.
func (h *Handler) handleMyChatMember(ctx context.Context, upd *tgbotapi.ChatMemberUpdated) {
	if !upd.Chat.IsChannel() {
		return
	}
	switch upd.NewChatMember.Status {
	case "administrator":
		channel, err := h.channels.Upsert(ctx, domain.Channel{
			TGChannelID: upd.Chat.ID,
			AdminTGID:   upd.From.ID,
			Title:       upd.Chat.Title,
			StartHour:   9,
			EndHour:     18,
		})
		if err != nil {
			h.log.Error().Err(err).Int64("channel", upd.Chat.ID).Msg("не удалось сохранить канал")
			return
		}
		h.log.Info().Int64("channel", channel.TGChannelID).Str("title", channel.Title).Msg("бот подключён к каналу")
		h.reply(ctx, upd.From.ID, fmt.Sprintf("ربات به کانال «%s» اضافه شد 🎉\nبازه زمانی ارسال شعر را انتخاب کنید:", upd.Chat.Title), windowKeyboard(upd.Chat.ID))
	case "left", "kicked":
		if err := h.poems.StripChannel(ctx, upd.Chat.ID); err != nil {
			h.log.Error().Err(err).Int64("channel", upd.Chat.ID).Msg("не удалось очистить отметки отправки")
		}
		if err := h.channels.Delete(ctx, upd.Chat.ID); err != nil && !errors.Is(err, domain.ErrChannelNotFound) {
			h.log.Error().Err(err).Int64("channel", upd.Chat.ID).Msg("не удалось удалить канал")
			return
		}
		h.log.Info().Int64("channel", upd.Chat.ID).Msg("бот отключён от канала")
	}
}

func (h *Handler) replyModerationErr(ctx context.Context, chatID int64, err error) {
	switch {
	case errors.Is(err, moderation.ErrUnauthorized):
		h.reply(ctx, chatID, "شما اجازه این کار را ندارید 🚫", nil)
	case errors.Is(err, domain.ErrPoemNotFound):
		h.reply(ctx, chatID, "این شعر دیگر وجود ندارد.", nil)
	default:
		h.log.Error().Err(err).Msg("ошибка модерации")
		h.reply(ctx, chatID, "خطایی پیش آمد، لطفاً دوباره تلاش کنید.", nil)
	}
}

func (h *Handler) replyRepoErr(ctx context.Context, chatID int64, err error) {
	if errors.Is(err, domain.ErrChannelNotFound) {
		h.reply(ctx, chatID, "این کانال دیگر ثبت نیست.", nil)
		return
	}
	h.log.Error().Err(err).Msg("ошибка настройки канала")
	h.reply(ctx, chatID, "خطایی پیش آمد، لطفاً دوباره تلاش کنید.", nil)
}

func (h *Handler) reply(ctx context.Context, chatID int64, text string, buttons [][]domain.Button) {
	if err := h.sender.Send(ctx, chatID, text, buttons); err != nil {
		h.log.Error().Err(err).Int64("chat", chatID).Msg("не удалось отправить ответ")
	}
}

// enqueueNotify кладёт уведомление в очередь; доставкой занимается воркер.
func (h *Handler) enqueueNotify(ctx context.Context, chatID int64, text string, buttons [][]domain.Button) {
	job := domain.NotifyJob{
		ID:      uuid.NewString(),
		ChatID:  chatID,
		Text:    text,
		Buttons: buttons,
	}
	if err := h.notify.Enqueue(ctx, job); err != nil {
		h.log.Error().Err(err).Int64("chat", chatID).Msg("не удалось поставить уведомление в очередь")
	}
}

func formatPoem(p domain.Poem) string {
	category := p.Category
	if category == "" {
		category = "—"
	}
	return fmt.Sprintf("📜 %s\n\n🖋 %s\n🏷 %s\n👤 %s", p.Text, p.PoetLabel(), category, p.OwnerName())
}

func actorFrom(user *tgbotapi.User) submission.Actor {
	return submission.Actor{
		ID:        user.ID,
		Username:  user.UserName,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}
}
