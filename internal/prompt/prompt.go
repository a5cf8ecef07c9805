// Package prompt assembles the fixed-section system prompt (SPEC_FULL.md
// §4.5). The six-section content and order come directly from spec §4.5;
// build_messages's call signature is reconstructed from its call sites in
// original_source/src/agent.rs (the function body itself was not present in
// the retrieval pack — only a doc comment in agent/context.rs). The internal
// layering style (ordered priority/content pairs, skip-empty assembly) is
// grounded in the teacher's pkg/goclaw/copilot/prompt_layers.go, scaled down
// to these six fixed sections.
package prompt

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Snehal-Reddy/iCrab/internal/llmclient"
	"github.com/Snehal-Reddy/iCrab/internal/workspace"
)

// layer mirrors the teacher's layerEntry{layer, content}: an ordered slot
// that is simply skipped when empty.
type layer struct {
	priority int
	content  string
}

const (
	layerIdentity = iota
	layerBootstrap
	layerMemory
	layerSkills
	layerTools
	layerChat
)

const (
	memorySnippetMaxChars  = 4000
	dailyLogMaxChars       = 2000
	dailyLogCount          = 3
	bootstrapFilesOrdered  = "AGENT.md,USER.md,IDENTITY.md"
)

// Params carries everything BuildMessages needs beyond the conversation
// history and new user turn.
type Params struct {
	WorkspaceRoot  string
	Timezone       *time.Location
	History        []llmclient.Message
	Summary        string
	UserMessage    string
	ChatID         *int64
	SkillsSummary  string
	ToolSummaries  []string
	Today          string // YYYYMMDD; not read by BuildMessages, which dates daily logs from time.Now in Timezone
}

func truncateChars(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func identityLayer(p Params) layer {
	loc := p.Timezone
	if loc == nil {
		loc = time.UTC
	}
	now := time.Now().In(loc)
	content := fmt.Sprintf(
		"You are a personal AI assistant operating against the workspace at %s. The current time is %s (%s).",
		p.WorkspaceRoot, now.Format(time.RFC1123), loc.String(),
	)
	return layer{priority: layerIdentity, content: content}
}

func bootstrapLayer(p Params) layer {
	var b strings.Builder
	for _, name := range strings.Split(bootstrapFilesOrdered, ",") {
		path := workspace.BootstrapPath(p.WorkspaceRoot, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		fmt.Fprintf(&b, "--- %s ---\n%s\n\n", name, string(data))
	}
	return layer{priority: layerBootstrap, content: strings.TrimRight(b.String(), "\n")}
}

func memoryLayer(p Params) layer {
	var b strings.Builder

	memPath := workspace.MemoryFilePath(p.WorkspaceRoot)
	if data, err := os.ReadFile(memPath); err == nil {
		b.WriteString(truncateChars(string(data), memorySnippetMaxChars))
	}

	loc := p.Timezone
	if loc == nil {
		loc = time.UTC
	}
	day := time.Now().In(loc)
	for i := 0; i < dailyLogCount; i++ {
		logPath := workspace.DailyLogPath(p.WorkspaceRoot, day)
		if data, err := os.ReadFile(logPath); err == nil {
			if b.Len() > 0 {
				b.WriteString("\n\n")
			}
			b.WriteString(truncateChars(string(data), dailyLogMaxChars))
		}
		day = day.AddDate(0, 0, -1)
	}

	return layer{priority: layerMemory, content: b.String()}
}

func skillsLayer(p Params) layer {
	return layer{priority: layerSkills, content: p.SkillsSummary}
}

func toolsLayer(p Params) layer {
	return layer{priority: layerTools, content: strings.Join(p.ToolSummaries, "\n")}
}

func chatLayer(p Params) layer {
	var parts []string
	if p.ChatID != nil {
		parts = append(parts, fmt.Sprintf("Current chat id: %d.", *p.ChatID))
	}
	if p.Summary != "" {
		parts = append(parts, "Conversation summary so far:\n"+p.Summary)
	}
	return layer{priority: layerChat, content: strings.Join(parts, "\n")}
}

func assembleLayers(layers []layer) string {
	sections := make([]string, 0, len(layers))
	for _, l := range layers {
		if strings.TrimSpace(l.content) != "" {
			sections = append(sections, l.content)
		}
	}
	return strings.Join(sections, "\n\n")
}

// BuildMessages assembles the final [system, ...history, user] message list
// for one agent turn.
func BuildMessages(p Params) []llmclient.Message {
	layers := []layer{
		identityLayer(p),
		bootstrapLayer(p),
		memoryLayer(p),
		skillsLayer(p),
		toolsLayer(p),
		chatLayer(p),
	}
	system := assembleLayers(layers)

	messages := make([]llmclient.Message, 0, len(p.History)+2)
	messages = append(messages, llmclient.Message{Role: llmclient.RoleSystem, Content: system})
	messages = append(messages, p.History...)
	messages = append(messages, llmclient.Message{Role: llmclient.RoleUser, Content: p.UserMessage})
	return messages
}
