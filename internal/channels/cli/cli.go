// Package cli implements a local, single-user chat transport binding that
// writes straight to stdout, used by `icrab chat`'s REPL, grounded in
// cmd/copilot/commands/chat.go's executeChat — the CLI calls the agent
// directly rather than going through the dispatcher queue, since there is
// only ever one local caller and one conversation per process.
package cli

import (
	"fmt"

	"github.com/Snehal-Reddy/iCrab/internal/toolkit"
)

// ChatID is the single session id a CLI REPL addresses.
const ChatID int64 = 1

// OutboundSender prints tool-pushed replies (e.g. from the "message" tool
// used inside subagents) straight to stdout.
type OutboundSender struct{}

// TrySend implements toolkit.OutboundSender.
func (OutboundSender) TrySend(msg toolkit.OutboundMsg) bool {
	fmt.Println(msg.Text)
	return true
}
