package toolkit

import (
	"context"
	"encoding/json"
	"fmt"
)

// MessageTool lets a subagent push text directly to the user. It is registered
// only on subagent registries, never the main agent's — offering it to the main
// agent would let the model send duplicate replies on top of its own final text
// (SPEC_FULL.md §4.2, grounded on original_source/src/tools/registry.rs's comment
// on why MessageTool is subagent-only).
type MessageTool struct{}

func (MessageTool) Name() string        { return "message" }
func (MessageTool) Description() string { return "Send a message to the user immediately." }
func (MessageTool) Parameters() interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"text": map[string]interface{}{"type": "string"},
		},
		"required": []string{"text"},
	}
}

func (MessageTool) Execute(_ context.Context, tctx Ctx, args json.RawMessage) Result {
	var a struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(args, &a); err != nil {
		return Error(fmt.Sprintf("invalid args: %v", err))
	}
	if tctx.Outbound != nil && tctx.ChatID != nil {
		channel := "unknown"
		if tctx.Channel != nil {
			channel = *tctx.Channel
		}
		tctx.Outbound.TrySend(OutboundMsg{ChatID: *tctx.ChatID, Text: a.Text, Channel: channel})
	}
	tctx.MarkDelivered()
	return Ok("message sent")
}
