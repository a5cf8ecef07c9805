// Package skills discovers workspace skill directories and builds the
// one-line-per-skill summary injected into the system prompt (SPEC_FULL.md
// §4.5, grounded on original_source/src/skills.rs).
package skills

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Snehal-Reddy/iCrab/internal/workspace"
)

const (
	maxDescLen        = 200
	descriptionPrefix = "description:"
)

// Info is one discovered skill.
type Info struct {
	Name         string
	RelativePath string
	Description  string
}

func truncateDesc(s string) string {
	if len(s) <= maxDescLen {
		return s
	}
	return s[:maxDescLen] + "..."
}

// ExtractDescription parses a SKILL.md body: returns the text of a line
// starting with "description:" (case-insensitive) if one appears before the
// first paragraph ends, else the first non-empty paragraph. Lines after the
// first paragraph are not searched.
func ExtractDescription(content string) string {
	var paragraph []string
	inParagraph := false

	for _, line := range strings.Split(content, "\n") {
		t := strings.TrimSpace(line)
		if len(t) >= len(descriptionPrefix) && strings.EqualFold(t[:len(descriptionPrefix)], descriptionPrefix) {
			rest := strings.TrimSpace(t[len(descriptionPrefix):])
			if rest != "" {
				return truncateDesc(rest)
			}
		}
		if t == "" {
			if inParagraph {
				break
			}
			continue
		}
		if !inParagraph {
			inParagraph = true
			paragraph = nil
		}
		paragraph = append(paragraph, t)
	}

	joined := strings.TrimSpace(strings.Join(paragraph, " "))
	if joined == "" {
		return "(no description)"
	}
	return truncateDesc(joined)
}

// List discovers skills under workspace/skills: each subdirectory containing
// a SKILL.md, sorted by name. A missing skills directory returns an empty
// slice, not an error.
func List(workspaceRoot string) ([]Info, error) {
	root := workspace.SkillsDir(workspaceRoot)
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("skills: %w", err)
	}

	var out []Info
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		name := e.Name()
		skillMD := filepath.Join(root, name, "SKILL.md")
		info, statErr := os.Stat(skillMD)
		if statErr != nil || info.IsDir() {
			continue
		}
		content, err := os.ReadFile(skillMD)
		if err != nil {
			return nil, fmt.Errorf("skills: %w", err)
		}
		out = append(out, Info{
			Name:         name,
			RelativePath: filepath.Join("skills", name, "SKILL.md"),
			Description:  ExtractDescription(string(content)),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func descriptionSuffix(desc string) string {
	trimmed := strings.TrimRight(desc, " ")
	if trimmed != "" {
		last := trimmed[len(trimmed)-1]
		if last == '.' || last == '!' || last == '?' {
			return " "
		}
	}
	return ". "
}

// BuildSummary renders the skills summary block for the system prompt, one
// line per skill. An empty skill set returns "".
func BuildSummary(workspaceRoot string) (string, error) {
	list, err := List(workspaceRoot)
	if err != nil {
		return "", err
	}
	lines := make([]string, 0, len(list))
	for _, s := range list {
		lines = append(lines, fmt.Sprintf("- **%s** — %s%sRead %s to use.", s.Name, s.Description, descriptionSuffix(s.Description), s.RelativePath))
	}
	return strings.Join(lines, "\n"), nil
}
