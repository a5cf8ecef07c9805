package discord

import "testing"

func TestSplitMessageUnderLimitIsSingleChunk(t *testing.T) {
	chunks := splitMessage("hello", 2000)
	if len(chunks) != 1 || chunks[0] != "hello" {
		t.Fatalf("got %v", chunks)
	}
}

func TestSplitMessageOverLimitSplitsAtLimit(t *testing.T) {
	text := make([]byte, 2500)
	for i := range text {
		text[i] = 'a'
	}
	chunks := splitMessage(string(text), 2000)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if len(chunks[0]) != 2000 || len(chunks[1]) != 500 {
		t.Fatalf("unexpected chunk sizes: %d, %d", len(chunks[0]), len(chunks[1]))
	}
}
