package bot

import (
	"tg-poem-bot/internal/domain"
	"tg-poem-bot/internal/usecase/moderation"
)

// Надписи кнопок категорий. Порядок совпадает с domain.Categories.
var categoryLabels = []string{
	"💘 عاشقانه",
	"💔 غمگین",
	"😄 طنز",
	"🕊️ عرفانی",
	"🧠 فلسفی",
	"🇮🇷 حماسی",
	"📖 مذهبی",
	"🌿 طبیعت",
	"💭 اجتماعی",
	"🧸 کودکانه",
	"🎭 انتقادی",
	"🎉 مناسبتی",
}

// poemCategoryKeyboard — выбор категории в личном диалоге, по две кнопки в ряд.
func poemCategoryKeyboard() [][]domain.Button {
	return categoryRows(func(label string) string { return poemCategoryToken(label) })
}

// channelCategoryKeyboard — выбор категорий при настройке канала,
// с дополнительными кнопками «все» и «достаточно».
func channelCategoryKeyboard(channelID int64) [][]domain.Button {
	rows := categoryRows(func(label string) string {
		return channelCategoryToken(label, channelID)
	})
	rows = append(rows,
		[]domain.Button{
			{Label: "✨ همه", Token: channelCategoryToken(categoryAll, channelID)},
		},
		[]domain.Button{
			{Label: "✅ کافیه", Token: channelCategoryToken(categoryDone, channelID)},
		},
	)
	return rows
}

func categoryRows(token func(label string) string) [][]domain.Button {
	rows := make([][]domain.Button, 0, len(domain.Categories)/2)
	for i := 0; i+1 < len(domain.Categories); i += 2 {
		rows = append(rows, []domain.Button{
			{Label: categoryLabels[i], Token: token(domain.Categories[i])},
			{Label: categoryLabels[i+1], Token: token(domain.Categories[i+1])},
		})
	}
	return rows
}

// windowKeyboard — выбор временного окна публикаций канала.
func windowKeyboard(channelID int64) [][]domain.Button {
	return [][]domain.Button{
		{
			{Label: "🌞 ۹ تا ۱۸", Token: windowToken(9, 18, channelID)},
			{Label: "🌆 ۱۷ تا ۲۴", Token: windowToken(17, 24, channelID)},
		},
		{
			{Label: "🌙 ۱۸ تا ۲۴", Token: windowToken(18, 24, channelID)},
		},
	}
}

// startKeyboard — единственная кнопка начала диалога.
func startKeyboard() [][]domain.Button {
	return [][]domain.Button{
		{{Label: "📝 ارسال شعر", Token: "send_poem"}},
	}
}

// poemActionKeyboard — действия модератора над стихотворением.
func poemActionKeyboard(poemID int64) [][]domain.Button {
	return [][]domain.Button{
		{
			{Label: "✅ تایید", Token: approveToken(poemID)},
			{Label: "🗑 حذف", Token: deleteToken(poemID)},
		},
		{
			{Label: "✏️ ویرایش", Token: editMenuToken(poemID)},
		},
	}
}

// editFieldKeyboard — выбор редактируемого поля.
func editFieldKeyboard(poemID int64) [][]domain.Button {
	return [][]domain.Button{
		{
			{Label: "📜 متن", Token: editToken(poemID, "text")},
			{Label: "🖋 شاعر", Token: editToken(poemID, "poet")},
			{Label: "🏷 دسته", Token: editToken(poemID, "cat")},
		},
	}
}

// pageNavKeyboard — навигация по страницам очереди модерации.
func pageNavKeyboard(page moderation.PendingPage) [][]domain.Button {
	var row []domain.Button
	if page.HasPrev {
		row = append(row, domain.Button{
			Label: "⬅️ قبلی",
			Token: pageToken(page.Page-1, page.Category, page.Poet),
		})
	}
	if page.HasNext {
		row = append(row, domain.Button{
			Label: "➡️ بعدی",
			Token: pageToken(page.Page+1, page.Category, page.Poet),
		})
	}
	if len(row) == 0 {
		return nil
	}
	return [][]domain.Button{row}
}
