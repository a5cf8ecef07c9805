package prompt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestBuildMessagesSystemFirstUserLast(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "AGENT.md"), []byte("be helpful"), 0o644); err != nil {
		t.Fatal(err)
	}
	chatID := int64(5)
	p := Params{
		WorkspaceRoot: dir,
		Timezone:      time.UTC,
		UserMessage:   "hello",
		ChatID:        &chatID,
		SkillsSummary: "- **weather** — desc. Read skills/weather/SKILL.md to use.",
		ToolSummaries: []string{"read_file - reads a file"},
		Summary:       "previously discussed the weather",
	}

	messages := BuildMessages(p)
	if len(messages) != 2 {
		t.Fatalf("expected system+user with empty history, got %d messages", len(messages))
	}
	if messages[0].Role != "system" {
		t.Fatalf("expected first message to be system, got %s", messages[0].Role)
	}
	if messages[len(messages)-1].Role != "user" || messages[len(messages)-1].Content != "hello" {
		t.Fatalf("expected last message to be the user turn, got %+v", messages[len(messages)-1])
	}
	if !strings.Contains(messages[0].Content, "AGENT.md") {
		t.Fatalf("expected bootstrap section present, got %q", messages[0].Content)
	}
	if !strings.Contains(messages[0].Content, "weather") {
		t.Fatalf("expected skills summary present, got %q", messages[0].Content)
	}
	if !strings.Contains(messages[0].Content, "Current chat id: 5") {
		t.Fatalf("expected chat id section present, got %q", messages[0].Content)
	}
}

func TestBuildMessagesSkipsEmptySections(t *testing.T) {
	dir := t.TempDir()
	p := Params{WorkspaceRoot: dir, Timezone: time.UTC, UserMessage: "hi"}
	messages := BuildMessages(p)
	if strings.Contains(messages[0].Content, "\n\n\n") {
		t.Fatalf("expected no doubled blank sections, got %q", messages[0].Content)
	}
}
