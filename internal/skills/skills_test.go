package skills

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExtractDescriptionEmpty(t *testing.T) {
	if got := ExtractDescription(""); got != "(no description)" {
		t.Fatalf("got %q", got)
	}
}

func TestExtractDescriptionPrefixLowercase(t *testing.T) {
	if got := ExtractDescription("description: Get the weather."); got != "Get the weather." {
		t.Fatalf("got %q", got)
	}
}

func TestExtractDescriptionPrefixCaseInsensitive(t *testing.T) {
	if got := ExtractDescription("Description: Get the weather."); got != "Get the weather." {
		t.Fatalf("got %q", got)
	}
}

func TestExtractDescriptionFirstParagraph(t *testing.T) {
	if got := ExtractDescription("\nGet current weather.\n\nMore text"); got != "Get current weather." {
		t.Fatalf("got %q", got)
	}
}

func TestExtractDescriptionFirstParagraphSingleLine(t *testing.T) {
	if got := ExtractDescription("# Weather\n\nGet current weather.\n"); got != "# Weather" {
		t.Fatalf("got %q", got)
	}
}

func TestExtractDescriptionTruncate(t *testing.T) {
	long := strings.Repeat("a", 300)
	got := ExtractDescription("description: " + long)
	if len(got) > maxDescLen+3 {
		t.Fatalf("expected truncation, got length %d", len(got))
	}
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("expected ... suffix, got %q", got)
	}
}

func TestListSkillsNoDir(t *testing.T) {
	dir := t.TempDir()
	list, err := List(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty list, got %v", list)
	}
}

func TestListSkillsSortedAndSkipsMissingSkillMD(t *testing.T) {
	dir := t.TempDir()
	mustMkSkill(t, dir, "weather", "description: Get weather.")
	mustMkSkill(t, dir, "alpha", "description: First.")
	if err := os.MkdirAll(filepath.Join(dir, "skills", "no_skill_md"), 0o755); err != nil {
		t.Fatal(err)
	}

	list, err := List(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 skills, got %d: %+v", len(list), list)
	}
	if list[0].Name != "alpha" || list[1].Name != "weather" {
		t.Fatalf("expected sorted order, got %+v", list)
	}
}

func TestBuildSummaryFormatsLines(t *testing.T) {
	dir := t.TempDir()
	mustMkSkill(t, dir, "weather", "description: Get the weather")

	summary, err := BuildSummary(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "- **weather** — Get the weather. Read skills/weather/SKILL.md to use."
	if summary != want {
		t.Fatalf("got %q want %q", summary, want)
	}
}

func TestBuildSummaryEmptyWhenNoSkills(t *testing.T) {
	dir := t.TempDir()
	summary, err := BuildSummary(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary != "" {
		t.Fatalf("expected empty summary, got %q", summary)
	}
}

func mustMkSkill(t *testing.T, workspaceRoot, name, content string) {
	t.Helper()
	dir := filepath.Join(workspaceRoot, "skills", name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "SKILL.md"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
