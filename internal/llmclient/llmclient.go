// Package llmclient implements the external LLM provider interface (SPEC_FULL.md §6):
// a single OpenAI-compatible HTTP provider, no streaming, minimal types. Grounded on
// original_source/src/llm.rs, translated idiom-for-idiom — the teacher's own llm.go
// follows the same raw net/http shape rather than an SDK, so no LLM SDK is imported.
package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Role is a chat message role.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCallFunction is the function portion of a tool call.
type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolCall is one tool invocation requested by the model.
type ToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function ToolCallFunction `json:"function"`
}

// Message is a single chat message (system/user/assistant, or a tool result).
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
}

// ToolFunctionDef is the inner function definition of a tool descriptor.
type ToolFunctionDef struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  interface{} `json:"parameters"`
}

// ToolDef is an OpenAI-style function tool descriptor.
type ToolDef struct {
	Type     string          `json:"type"`
	Function ToolFunctionDef `json:"function"`
}

// NewFunctionDef builds a function-type tool descriptor.
func NewFunctionDef(name, description string, parameters interface{}) ToolDef {
	return ToolDef{
		Type: "function",
		Function: ToolFunctionDef{
			Name:        name,
			Description: description,
			Parameters:  parameters,
		},
	}
}

// UsageInfo carries token usage for logging.
type UsageInfo struct {
	PromptTokens     *uint64 `json:"prompt_tokens,omitempty"`
	CompletionTokens *uint64 `json:"completion_tokens,omitempty"`
	TotalTokens      *uint64 `json:"total_tokens,omitempty"`
}

// Response is the provider's normalized reply.
type Response struct {
	Content      string
	ToolCalls    []ToolCall
	FinishReason string
	Usage        *UsageInfo
}

// Error distinguishes config, transport, and parse failures.
type Error struct {
	Kind string // "config", "http", "parse"
	Msg  string
}

func (e *Error) Error() string { return fmt.Sprintf("llm %s: %s", e.Kind, e.Msg) }

// IsContextOverflow reports whether err looks like a provider context-length error,
// used by the agent loop's compaction retry (SPEC_FULL.md §4.6).
func IsContextOverflow(err error) bool {
	if err == nil {
		return false
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "context_length") ||
		strings.Contains(s, "maximum context length") ||
		strings.Contains(s, "too many tokens")
}

const (
	defaultAPIBase      = "https://openrouter.ai/api/v1"
	requestTimeout      = 120 * time.Second
)

// Provider is an HTTP-based LLM client (OpenRouter, OpenAI, Groq, or any
// OpenAI-compatible /chat/completions endpoint).
type Provider struct {
	apiBase string
	apiKey  string
	client  *http.Client
}

// Config is the minimal set of fields Provider needs; callers adapt their own
// config.Config into this.
type Config struct {
	APIBase string
	APIKey  string
}

// NewProvider builds a provider from config, defaulting APIBase to OpenRouter.
func NewProvider(cfg Config) (*Provider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, &Error{Kind: "config", Msg: "api_key required"}
	}
	base := strings.TrimSpace(cfg.APIBase)
	if base == "" {
		base = defaultAPIBase
	}
	base = strings.TrimRight(base, "/")
	return &Provider{
		apiBase: base,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: requestTimeout},
	}, nil
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Tools       []ToolDef `json:"tools,omitempty"`
	ToolChoice  string    `json:"tool_choice,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
	MaxTokens   *int      `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []choice   `json:"choices"`
	Usage   *UsageInfo `json:"usage"`
}

type choice struct {
	Message      *choiceMessage `json:"message"`
	FinishReason string         `json:"finish_reason"`
}

type choiceMessage struct {
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"tool_calls"`
}

// Chat sends a chat request and returns the normalized response. Empty choices
// yield empty content and no tool calls (never an error).
func (p *Provider) Chat(ctx context.Context, messages []Message, tools []ToolDef, model string) (Response, error) {
	return p.ChatWithParams(ctx, messages, tools, model, nil, nil)
}

// ChatWithParams is Chat with optional temperature/max-tokens overrides, used by
// the summarizer (SPEC_FULL.md §4.7).
func (p *Provider) ChatWithParams(ctx context.Context, messages []Message, tools []ToolDef, model string, temperature *float64, maxTokens *int) (Response, error) {
	body := chatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}
	if len(tools) > 0 {
		body.Tools = tools
		body.ToolChoice = "auto"
	}

	buf, err := json.Marshal(body)
	if err != nil {
		return Response{}, &Error{Kind: "parse", Msg: err.Error()}
	}

	url := p.apiBase + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		return Response{}, &Error{Kind: "http", Msg: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	res, err := p.client.Do(req)
	if err != nil {
		return Response{}, &Error{Kind: "http", Msg: err.Error()}
	}
	defer res.Body.Close()

	text, err := io.ReadAll(res.Body)
	if err != nil {
		return Response{}, &Error{Kind: "http", Msg: err.Error()}
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return Response{}, &Error{Kind: "http", Msg: fmt.Sprintf("%d %s", res.StatusCode, string(text))}
	}

	var parsed chatResponse
	if err := json.Unmarshal(text, &parsed); err != nil {
		return Response{}, &Error{Kind: "parse", Msg: err.Error()}
	}

	if len(parsed.Choices) == 0 || parsed.Choices[0].Message == nil {
		return Response{Usage: parsed.Usage}, nil
	}
	c := parsed.Choices[0]
	return Response{
		Content:      c.Message.Content,
		ToolCalls:    c.Message.ToolCalls,
		FinishReason: c.FinishReason,
		Usage:        parsed.Usage,
	}, nil
}
