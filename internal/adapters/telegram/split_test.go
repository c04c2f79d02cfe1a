package telegram

import (
	"strings"
	"testing"
)

func TestSplitMessagePrefersStanzaBoundary(t *testing.T) {
	var b strings.Builder
	b.WriteString(strings.Repeat("و", 2500))
	b.WriteString("\n\n")
	b.WriteString(strings.Repeat("د", 2500))

	parts := SplitMessage(b.String())
	if len(parts) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(parts))
	}
	if parts[0] != strings.Repeat("و", 2500) {
		t.Fatalf("first part should end at the blank line")
	}
	if parts[1] != strings.Repeat("د", 2500) {
		t.Fatalf("second part should start after the blank line")
	}
}

func TestSplitMessageFallsBackToNewline(t *testing.T) {
	text := strings.Repeat("a", 3000) + "\n" + strings.Repeat("b", 3000)
	parts := SplitMessage(text)
	if len(parts) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(parts))
	}
	for i, part := range parts {
		if n := len([]rune(part)); n > messageLimit {
			t.Fatalf("part %d exceeds limit: %d", i, n)
		}
	}
}

func TestSplitMessageHardCut(t *testing.T) {
	text := strings.Repeat("x", 10000)
	parts := SplitMessage(text)
	if len(parts) != 3 {
		t.Fatalf("expected 3 parts, got %d", len(parts))
	}
	total := 0
	for i, part := range parts {
		if n := len([]rune(part)); n > messageLimit {
			t.Fatalf("part %d exceeds limit: %d", i, n)
		}
		total += len(part)
	}
	if total != len(text) {
		t.Fatalf("hard cut lost characters: %d != %d", total, len(text))
	}
}

func TestSplitMessageShortAndEmpty(t *testing.T) {
	if parts := SplitMessage("بشنو از نی"); len(parts) != 1 || parts[0] != "بشنو از نی" {
		t.Fatalf("short text should come back as a single part: %#v", parts)
	}
	if parts := SplitMessage(" \n\t"); parts != nil {
		t.Fatalf("expected nil for blank input, got %#v", parts)
	}
}
