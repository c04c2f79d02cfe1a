// Package poemtext содержит проверки и нормализацию персидского текста.
package poemtext

import "strings"

// Допустимые блоки: арабское письмо и его расширения.
func inScript(r rune) bool {
	switch {
	case r >= 0x0600 && r <= 0x06FF:
		return true
	case r >= 0x0750 && r <= 0x077F:
		return true
	case r >= 0x08A0 && r <= 0x08FF:
		return true
	}
	return false
}

func isDigit(r rune) bool {
	switch {
	case r >= '0' && r <= '9':
		return true
	case r >= 0x06F0 && r <= 0x06F9: // ۰-۹
		return true
	case r >= 0x0660 && r <= 0x0669: // ٠-٩
		return true
	}
	return false
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r':
		return true
	}
	return false
}

func bodyRune(r rune) bool {
	if inScript(r) || isSpace(r) {
		return true
	}
	switch r {
	case '.', ',', '،':
		return true
	}
	return false
}

func labelRune(r rune) bool {
	if inScript(r) || isSpace(r) {
		return true
	}
	// полусоединители внутри составных имён
	return r == 0x200C || r == 0x200D
}

// Lines разбивает текст на строки, обрезает их и отбрасывает пустые.
func Lines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		lines = append(lines, trimmed)
	}
	return lines
}

// ValidBody проверяет текст стихотворения: без цифр, только допустимое
// письмо и пунктуация, ровно два или четыре непустых стиха.
func ValidBody(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false
	}
	lines := Lines(trimmed)
	if len(lines) != 2 && len(lines) != 4 {
		return false
	}
	for _, line := range lines {
		for _, r := range line {
			if isDigit(r) || !bodyRune(r) {
				return false
			}
		}
	}
	return true
}

// ValidLabel проверяет короткую подпись: имя поэта или название категории.
func ValidLabel(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false
	}
	for _, r := range trimmed {
		if isDigit(r) || !labelRune(r) {
			return false
		}
	}
	return true
}
