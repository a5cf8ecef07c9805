// Package agent implements the LLM/tool iteration loop (SPEC_FULL.md §4.6)
// and the history summarizer (§4.7), grounded in original_source/src/agent.rs
// and original_source/src/agent/summarize.rs.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Snehal-Reddy/iCrab/internal/llmclient"
	"github.com/Snehal-Reddy/iCrab/internal/toolkit"
)

// MaxIterations is the main agent's iteration cap (M=20).
const MaxIterations = 20

// SubagentMaxIterations is the subagent iteration cap (M=10).
const SubagentMaxIterations = 10

// DefaultMaxCompactionAttempts bounds context-overflow compaction retries,
// grounded in the teacher's pkg/goclaw/copilot/agent.go retry wrapper.
const DefaultMaxCompactionAttempts = 3

var (
	// ErrMaxIterations is never returned to callers as an error — the loop
	// reports the cap via the sentinel reply text instead — and nothing in this
	// package references it; it mirrors AgentError::MaxIterations.
	ErrMaxIterations = errors.New("agent: max iterations reached")
)

// LLM is the subset of llmclient.Provider the loop needs; an interface so
// tests can substitute a stub without a real HTTP round trip.
type LLM interface {
	ChatWithParams(ctx context.Context, messages []llmclient.Message, tools []llmclient.ToolDef, model string, temperature *float64, maxTokens *int) (llmclient.Response, error)
}

const noResponseText = "(No response)"
const maxIterationsText = "Max iterations reached."

// RunLoop is the pure LLM↔tool iteration loop: call the model, execute any
// requested tools in order, append results, repeat until a tool-free reply or
// the iteration cap. It never mutates session storage — callers own that.
func RunLoop(ctx context.Context, llm LLM, registry *toolkit.Registry, messages []llmclient.Message, tctx toolkit.Ctx, model string, maxIterations int, logger *slog.Logger) ([]llmclient.Message, string, error) {
	if logger == nil {
		logger = slog.Default()
	}
	tools := registry.ToolDefs()

	for i := 0; i < maxIterations; i++ {
		resp, err := chatWithCompaction(ctx, llm, messages, tools, model, logger)
		if err != nil {
			return messages, "", fmt.Errorf("agent-error.llm: %w", err)
		}

		if len(resp.ToolCalls) == 0 {
			reply := strings.TrimSpace(resp.Content)
			if reply == "" {
				reply = noResponseText
			}
			return messages, reply, nil
		}

		messages = append(messages, llmclient.Message{
			Role:      llmclient.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		for _, call := range resp.ToolCalls {
			var args json.RawMessage
			if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
				messages = append(messages, llmclient.Message{
					Role:       llmclient.RoleTool,
					ToolCallID: call.ID,
					Content:    fmt.Sprintf("Invalid JSON arguments: %v", err),
				})
				continue
			}

			result := registry.Execute(ctx, tctx, call.Function.Name, args)
			if result.ForUser != nil && !result.Silent {
				if tctx.Outbound != nil && tctx.ChatID != nil {
					channel := ""
					if tctx.Channel != nil {
						channel = *tctx.Channel
					}
					if !tctx.Outbound.TrySend(toolkit.OutboundMsg{ChatID: *tctx.ChatID, Text: *result.ForUser, Channel: channel}) {
						logger.Warn("outbound queue full, dropping tool reply", "tool", call.Function.Name)
					}
				}
			}
			messages = append(messages, llmclient.Message{
				Role:       llmclient.RoleTool,
				ToolCallID: call.ID,
				Content:    result.ForLLM,
			})
		}

		if err := ctx.Err(); err != nil {
			return messages, "", err
		}
	}

	return messages, maxIterationsText, nil
}

// chatWithCompaction wraps a single chat call with the context-overflow
// compaction retry: on a context-length error, drop the oldest half of the
// non-system history (keeping the last KeepRecentMessages) and retry, up to
// DefaultMaxCompactionAttempts times. This never consumes one of the loop's M
// iterations.
func chatWithCompaction(ctx context.Context, llm LLM, messages []llmclient.Message, tools []llmclient.ToolDef, model string, logger *slog.Logger) (llmclient.Response, error) {
	attempt := 0
	current := messages
	for {
		resp, err := llm.ChatWithParams(ctx, current, tools, model, nil, nil)
		if err == nil {
			return resp, nil
		}
		if !llmclient.IsContextOverflow(err) || attempt >= DefaultMaxCompactionAttempts {
			return llmclient.Response{}, err
		}
		attempt++
		compacted := compactOldestHalf(current)
		if len(compacted) == len(current) {
			return llmclient.Response{}, err
		}
		logger.Warn("context overflow, compacting history", "attempt", attempt)
		current = compacted
	}
}

func compactOldestHalf(messages []llmclient.Message) []llmclient.Message {
	var systemMsgs, rest []llmclient.Message
	for _, m := range messages {
		if m.Role == llmclient.RoleSystem {
			systemMsgs = append(systemMsgs, m)
		} else {
			rest = append(rest, m)
		}
	}
	if len(rest) <= KeepRecentMessages {
		return messages
	}
	droppable := rest[:len(rest)-KeepRecentMessages]
	keep := rest[len(rest)-KeepRecentMessages:]
	if len(droppable) == 0 {
		return messages
	}
	half := len(droppable) / 2
	trimmed := droppable[half:]
	out := make([]llmclient.Message, 0, len(systemMsgs)+len(trimmed)+len(keep))
	out = append(out, systemMsgs...)
	out = append(out, trimmed...)
	out = append(out, keep...)
	return out
}
