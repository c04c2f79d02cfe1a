package telegram

import "strings"

// Лимит Telegram на длину одного сообщения.
const messageLimit = 4096

// SplitMessage режет текст на части, укладывающиеся в лимит Telegram.
// Предпочитает границы пустых строк, чтобы не разрывать бейты, затем
// обычные переводы строк.
func SplitMessage(text string) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	if len([]rune(trimmed)) <= messageLimit {
		return []string{trimmed}
	}

	var parts []string
	rest := trimmed
	for rest != "" {
		runes := []rune(rest)
		if len(runes) <= messageLimit {
			parts = append(parts, rest)
			break
		}
		window := string(runes[:messageLimit])
		cut := strings.LastIndex(window, "\n\n")
		if cut <= 0 {
			cut = strings.LastIndexByte(window, '\n')
		}
		if cut <= 0 {
			cut = len(window)
		}
		chunk := strings.TrimSpace(window[:cut])
		if chunk != "" {
			parts = append(parts, chunk)
		}
		rest = strings.TrimLeft(rest[cut:], "\n ")
	}
	return parts
}
