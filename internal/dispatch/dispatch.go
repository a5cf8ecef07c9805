// Package dispatch implements the message dispatcher (C8): a single bounded
// queue multiplexing chat transports, the cron engine, and the heartbeat
// runner onto one serving loop, grounded in original_source/src/main.rs's
// inbound/outbound mpsc-channel wiring and its `while let Some(msg) =
// inbound_rx.recv().await` serving loop.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/Snehal-Reddy/iCrab/internal/agent"
	"github.com/Snehal-Reddy/iCrab/internal/session"
	"github.com/Snehal-Reddy/iCrab/internal/toolkit"
)

// QueueCapacity is the inbound queue's fixed buffer size.
const QueueCapacity = 64

// ChannelHeartbeat and ChannelCron name the two non-chat-transport sources
// the dispatcher branches on.
const (
	ChannelHeartbeat = "heartbeat"
	ChannelCron      = "cron"
)

// Inbound is one item pulled off the dispatcher's queue.
type Inbound struct {
	ChatID  int64
	UserID  int64
	Text    string
	Channel string
}

// Outbound is one reply destined for a chat transport.
type Outbound struct {
	ChatID  int64
	Text    string
	Channel string
}

// OutboundSink is the narrow interface chat transports implement to receive
// dispatcher replies.
type OutboundSink interface {
	Send(Outbound)
}

// Dispatcher owns the single bounded inbound queue and the serving loop.
type Dispatcher struct {
	inbound     chan Inbound
	outbound    OutboundSink
	deps        agent.Deps
	store       *session.Store
	lastChatID  atomic.Int64
	logger      *slog.Logger
}

// Config bundles the dispatcher's collaborators.
type Config struct {
	Outbound OutboundSink
	Deps     agent.Deps
	Store    *session.Store
	Logger   *slog.Logger
}

// New builds a Dispatcher with a QueueCapacity-sized inbound queue.
func New(cfg Config) *Dispatcher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		inbound:  make(chan Inbound, QueueCapacity),
		outbound: cfg.Outbound,
		deps:     cfg.Deps,
		store:    cfg.Store,
		logger:   logger,
	}
}

// TrySend enqueues an inbound message without blocking; returns false (and
// logs) if the queue is full. Chat transports reach it through
// RateLimitedSink; the cron engine and heartbeat runner reach it through
// adapters at the cmd/icrab wiring site.
func (d *Dispatcher) TrySend(msg Inbound) bool {
	select {
	case d.inbound <- msg:
		return true
	default:
		d.logger.Warn("dispatcher queue full, dropping inbound message", "channel", msg.Channel)
		return false
	}
}

// SendDirect delivers o straight to the outbound sink, bypassing the inbound
// queue and the agent loop entirely — used for cron jobs whose action is
// Direct rather than RunAgent (SPEC_FULL.md §4.4).
func (d *Dispatcher) SendDirect(o Outbound) {
	d.outbound.Send(o)
}

// LastChatID returns the most recently seen non-heartbeat chat id, used to
// target heartbeat-originated replies at a real chat.
func (d *Dispatcher) LastChatID() int64 {
	return d.lastChatID.Load()
}

// Run drains the inbound queue until ctx is cancelled or the queue is
// closed, processing one message per iteration (turns are strictly
// serialised — SPEC_FULL.md §5's concurrency note).
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-d.inbound:
			if !ok {
				return
			}
			d.handle(ctx, msg)
		}
	}
}

func (d *Dispatcher) handle(ctx context.Context, msg Inbound) {
	if msg.Channel != ChannelHeartbeat {
		d.lastChatID.Store(msg.ChatID)
	}

	delivered := new(atomic.Bool)
	channel := msg.Channel
	tctx := toolkit.Ctx{
		Workspace:           d.deps.WorkspaceRoot,
		RestrictToWorkspace: d.deps.RestrictToWorkspace,
		ChatID:              &msg.ChatID,
		Channel:             &channel,
		Outbound:            outboundAdapter{d: d, delivered: delivered},
		Delivered:           delivered,
	}

	var reply string
	var err error
	if msg.Channel == ChannelHeartbeat {
		reply, err = agent.ProcessHeartbeatMessage(ctx, d.deps, msg.ChatID, msg.Text, tctx)
	} else {
		reply, err = agent.ProcessMessage(ctx, d.deps, d.store, msg.ChatID, msg.Text, tctx)
	}
	if err != nil {
		d.logger.Error("agent turn failed", "channel", msg.Channel, "error", err)
		reply = fmt.Sprintf("Error: %s.", err)
	}

	// A heartbeat tick with no known chat yet has nowhere to send a reply.
	if msg.Channel == ChannelHeartbeat && msg.ChatID == 0 {
		return
	}

	if delivered.Load() {
		return
	}

	d.outbound.Send(Outbound{ChatID: msg.ChatID, Text: reply, Channel: msg.Channel})
}

// outboundAdapter lets tools (via toolkit.Ctx.Outbound) push a reply straight
// to the chat transport and mark Delivered, without depending on this
// package's Dispatcher type directly.
type outboundAdapter struct {
	d         *Dispatcher
	delivered *atomic.Bool
}

func (a outboundAdapter) TrySend(msg toolkit.OutboundMsg) bool {
	a.d.outbound.Send(Outbound{ChatID: msg.ChatID, Text: msg.Text, Channel: msg.Channel})
	if a.delivered != nil {
		a.delivered.Store(true)
	}
	return true
}
