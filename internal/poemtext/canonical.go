package poemtext

import (
	"strings"
	"unicode"
)

// Canonicalize приводит текст к канонической форме для сравнения на
// дубликаты: унификация арабских вариантов букв, удаление цифр, огласовок
// и всего, что не является буквой, приведение к нижнему регистру.
func Canonicalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch r {
		case 'ي':
			r = 'ی'
		case 'ك':
			r = 'ک'
		case 'ۀ':
			r = 'ه'
		}
		if isDigit(r) {
			continue
		}
		if r >= 0x064B && r <= 0x0652 { // огласовки
			continue
		}
		if !unicode.IsLetter(r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.ToLower(b.String())
}

// IsDuplicate сообщает, совпадает ли каноническая форма кандидата с одной
// из уже сохранённых. Линейный проход достаточен при ожидаемых объёмах.
func IsDuplicate(candidate string, existing []string) bool {
	canon := Canonicalize(candidate)
	if canon == "" {
		return false
	}
	for _, body := range existing {
		if Canonicalize(body) == canon {
			return true
		}
	}
	return false
}
