package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Snehal-Reddy/iCrab/internal/llmclient"
	"github.com/Snehal-Reddy/iCrab/internal/prompt"
	"github.com/Snehal-Reddy/iCrab/internal/session"
	"github.com/Snehal-Reddy/iCrab/internal/skills"
	"github.com/Snehal-Reddy/iCrab/internal/toolkit"
	"github.com/Snehal-Reddy/iCrab/internal/workspace"
)

// Deps bundles the collaborators every process entry point needs, grounded in
// original_source/src/agent.rs's process_message/process_heartbeat_message
// parameter lists.
type Deps struct {
	LLM                 LLM
	Registry            *toolkit.Registry
	WorkspaceRoot       string
	RestrictToWorkspace bool
	Model               string
	Timezone            *time.Location
	Summarizer          *Summarizer
	Logger              *slog.Logger
}

func (d Deps) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

// ProcessMessage is the stateful entry point (SPEC_FULL.md §4.6/§4.8): load
// the session, summarize if needed, build the prompt, run the loop, persist.
func ProcessMessage(ctx context.Context, d Deps, store *session.Store, chatID int64, userMessage string, tctx toolkit.Ctx) (string, error) {
	sess, err := store.Load(ctx, chatID)
	if err != nil {
		return "", fmt.Errorf("agent-error.session: %w", err)
	}

	if ShouldSummarize(len(sess.History)) && d.Summarizer != nil {
		newSummary, truncated, err := d.Summarizer.Summarize(ctx, sess.History, sess.Summary)
		if err != nil {
			d.logger().Warn("summarization failed, continuing with unabridged history", "error", err)
		} else {
			sess.SetSummary(newSummary)
			sess.History = truncated
		}
	}

	skillsSummary, err := skills.BuildSummary(d.WorkspaceRoot)
	if err != nil {
		return "", fmt.Errorf("agent-error.tool: %w", err)
	}
	toolSummaries := d.Registry.Summaries()
	today := workspace.TodayYYYYMMDD(d.Timezone)

	cid := chatID
	messages := prompt.BuildMessages(prompt.Params{
		WorkspaceRoot: d.WorkspaceRoot,
		Timezone:      d.Timezone,
		History:       sess.History,
		Summary:       sess.Summary,
		UserMessage:   userMessage,
		ChatID:        &cid,
		SkillsSummary: skillsSummary,
		ToolSummaries: toolSummaries,
		Today:         today,
	})
	sess.AddUser(userMessage)

	loopMessages, reply, err := RunLoop(ctx, d.LLM, d.Registry, messages, tctx, d.Model, MaxIterations, d.logger())
	if err != nil {
		return "", err
	}

	for _, m := range loopMessages[len(messages):] {
		switch m.Role {
		case llmclient.RoleAssistant:
			sess.AddAssistant(m.Content, m.ToolCalls)
		case llmclient.RoleTool:
			sess.AddTool(m.ToolCallID, m.Content)
		}
	}
	sess.AddAssistant(reply, nil)
	if err := store.Save(ctx, sess); err != nil {
		return "", fmt.Errorf("agent-error.session: %w", err)
	}
	return reply, nil
}

// ProcessHeartbeatMessage is the stateless entry point: same prompt shape as
// ProcessMessage but with empty history/summary, and no session I/O at all.
func ProcessHeartbeatMessage(ctx context.Context, d Deps, chatID int64, userMessage string, tctx toolkit.Ctx) (string, error) {
	skillsSummary, err := skills.BuildSummary(d.WorkspaceRoot)
	if err != nil {
		return "", fmt.Errorf("agent-error.tool: %w", err)
	}
	toolSummaries := d.Registry.Summaries()
	today := workspace.TodayYYYYMMDD(d.Timezone)

	var cidPtr *int64
	if chatID != 0 {
		cid := chatID
		cidPtr = &cid
	}
	messages := prompt.BuildMessages(prompt.Params{
		WorkspaceRoot: d.WorkspaceRoot,
		Timezone:      d.Timezone,
		History:       nil,
		Summary:       "",
		UserMessage:   userMessage,
		ChatID:        cidPtr,
		SkillsSummary: skillsSummary,
		ToolSummaries: toolSummaries,
		Today:         today,
	})

	_, reply, err := RunLoop(ctx, d.LLM, d.Registry, messages, tctx, d.Model, MaxIterations, d.logger())
	if err != nil {
		return "", err
	}
	return reply, nil
}
