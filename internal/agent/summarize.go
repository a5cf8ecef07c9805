package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Snehal-Reddy/iCrab/internal/llmclient"
)

// Constants grounded in original_source/src/agent/summarize.rs.
const (
	KeepRecentMessages     = 4
	SummarizeThreshold     = 20
	MultiPassThreshold     = 10
	SummaryMaxTokens       = 1024
	SummaryTemperature     = 0.2
	DefaultContextWindow   = 128_000
	MaxMessageTokensRatio  = 0.5
	tokensPerCharEstimate  = 3
	oversizeOmittedNoticeF = "\n\n(%d earlier message(s) were too large to summarize and were omitted.)"
)

// ShouldSummarize reports whether the dispatcher should invoke Summarize
// before building the next prompt.
func ShouldSummarize(historyLen int) bool {
	return historyLen > SummarizeThreshold
}

func estimateTokens(content string) int {
	return len(content) / tokensPerCharEstimate
}

// filterValidMessages keeps only User/Assistant messages under the per-message
// token budget, reporting how many were skipped as oversize. Tool and System
// messages are never summarized directly (their content belongs to a specific
// tool-call exchange, not the narrative).
func filterValidMessages(messages []llmclient.Message, contextWindow int) (valid []llmclient.Message, omitted int) {
	limit := int(float64(contextWindow) * MaxMessageTokensRatio)
	for _, m := range messages {
		if m.Role != llmclient.RoleUser && m.Role != llmclient.RoleAssistant {
			continue
		}
		if estimateTokens(m.Content) > limit {
			omitted++
			continue
		}
		valid = append(valid, m)
	}
	return valid, omitted
}

func formatMessagesForSummary(messages []llmclient.Message) string {
	var b strings.Builder
	for _, m := range messages {
		role := "User"
		if m.Role == llmclient.RoleAssistant {
			role = "Assistant"
		}
		fmt.Fprintf(&b, "%s: %s\n", role, strings.TrimSpace(m.Content))
	}
	return strings.TrimRight(b.String(), "\n")
}

// Summarizer compresses older history into the session summary via the LLM,
// grounded in original_source/src/agent/summarize.rs's summarize_if_needed.
type Summarizer struct {
	LLM           LLM
	Model         string
	ContextWindow int
	Logger        *slog.Logger
}

func (s *Summarizer) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func (s *Summarizer) contextWindow() int {
	if s.ContextWindow > 0 {
		return s.ContextWindow
	}
	return DefaultContextWindow
}

// Summarize runs the full algorithm (SPEC_FULL.md §4.7) and returns the new
// summary text plus the history truncated to the last KeepRecentMessages
// (when no prefix message is eligible for summarizing, the summary is left
// unchanged and the history is truncated to the last KeepRecentMessages+10).
// Errors are logged and swallowed by the caller's convention — Summarize
// itself returns an error so the caller can decide to keep the unabridged
// history, per the §4.7 Failure clause.
func (s *Summarizer) Summarize(ctx context.Context, history []llmclient.Message, existingSummary string) (newSummary string, truncated []llmclient.Message, err error) {
	if len(history) <= KeepRecentMessages {
		return existingSummary, history, nil
	}
	prefix := history[:len(history)-KeepRecentMessages]
	recent := history[len(history)-KeepRecentMessages:]

	valid, omitted := filterValidMessages(prefix, s.contextWindow())
	if len(valid) == 0 {
		keepN := KeepRecentMessages + 10
		if keepN > len(history) {
			keepN = len(history)
		}
		return existingSummary, history[len(history)-keepN:], nil
	}

	var produced string
	if len(valid) > MultiPassThreshold {
		produced, err = s.multiPassSummarize(ctx, valid)
	} else {
		produced, err = s.singlePassSummarize(ctx, valid, existingSummary)
	}
	if err != nil {
		return "", nil, fmt.Errorf("summarizer: %w", err)
	}

	if omitted > 0 {
		produced += fmt.Sprintf(oversizeOmittedNoticeF, omitted)
	}

	merged := produced
	if existingSummary != "" {
		merged = existingSummary + "\n\n" + produced
	}
	return merged, recent, nil
}

func (s *Summarizer) singlePassSummarize(ctx context.Context, valid []llmclient.Message, existingSummary string) (string, error) {
	prompt := formatMessagesForSummary(valid)
	sys := "Summarize the following conversation concisely, preserving important facts, decisions, and open threads."
	if existingSummary != "" {
		sys += "\n\nExisting summary so far:\n" + existingSummary
	}
	return s.callSummaryModel(ctx, sys, prompt)
}

func (s *Summarizer) multiPassSummarize(ctx context.Context, valid []llmclient.Message) (string, error) {
	mid := len(valid) / 2
	first, err := s.callSummaryModel(ctx, "Summarize the following conversation excerpt concisely.", formatMessagesForSummary(valid[:mid]))
	if err != nil {
		return "", err
	}
	second, err := s.callSummaryModel(ctx, "Summarize the following conversation excerpt concisely.", formatMessagesForSummary(valid[mid:]))
	if err != nil {
		return "", err
	}
	merged, err := s.callSummaryModel(ctx, "Merge these two partial summaries of the same conversation into one coherent summary.", first+"\n\n"+second)
	if err != nil {
		s.logger().Warn("summary merge failed, concatenating", "error", err)
		return first + "\n\n" + second, nil
	}
	return merged, nil
}

func (s *Summarizer) callSummaryModel(ctx context.Context, systemPrompt, userContent string) (string, error) {
	messages := []llmclient.Message{
		{Role: llmclient.RoleSystem, Content: systemPrompt},
		{Role: llmclient.RoleUser, Content: userContent},
	}
	temp := SummaryTemperature
	maxTok := SummaryMaxTokens
	resp, err := s.LLM.ChatWithParams(ctx, messages, nil, s.Model, &temp, &maxTok)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Content), nil
}
