package toolkit

import (
	"sync/atomic"
)

// OutboundMsg is one reply destined for the chat transport (SPEC_FULL.md §6).
type OutboundMsg struct {
	ChatID  int64
	Text    string
	Channel string
}

// OutboundSender is the narrow interface tools need to push a reply to the
// user. Its implementations (the dispatcher's outbound adapter and the CLI's
// stdout sender) deliver synchronously and always report true; there is no
// bounded queue and nothing is dropped on overflow.
type OutboundSender interface {
	TrySend(OutboundMsg) bool
}

// Ctx is the execution context passed into every tool call (SPEC_FULL.md §4.2).
type Ctx struct {
	Workspace           string
	RestrictToWorkspace bool
	ChatID              *int64
	Channel             *string
	Outbound            OutboundSender
	// Delivered is shared across a turn so any tool setting it suppresses the
	// dispatcher's own final-reply send. Subagent runs get a fresh flag of
	// their own (subagent.Manager.run); the dispatcher's Outbound sender, which
	// subagents inherit, sets the turn's flag on every send.
	Delivered *atomic.Bool
}

// WithChat returns a copy of ctx scoped to a specific chat/channel, sharing the
// same Delivered flag.
func (c Ctx) WithChat(chatID int64, channel string) Ctx {
	cp := c
	cp.ChatID = &chatID
	cp.Channel = &channel
	return cp
}

// MarkDelivered sets the shared delivered flag, called by tools (e.g. "message")
// that push text to the user directly.
func (c Ctx) MarkDelivered() {
	if c.Delivered != nil {
		c.Delivered.Store(true)
	}
}
