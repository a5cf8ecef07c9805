package cronengine

import (
	"context"
	"log/slog"
	"time"
)

// DispatchMessage is the shape the runner emits onto the dispatcher queue;
// kept local (not importing internal/dispatch) to avoid a cycle — dispatch
// converts it at the boundary.
type DispatchMessage struct {
	ChatID  int64
	Text    string
	Channel string
	// Direct is true when the job action is "direct" (send straight to the
	// outbound chat channel) rather than "agent" (run the agent loop).
	Direct bool
}

// Sink is satisfied by the dispatcher's inbound queue.
type Sink interface {
	TrySend(DispatchMessage) bool
}

// TickInterval is the default engine tick period (SPEC_FULL.md §4.4).
const TickInterval = 60 * time.Second

// TickOnce finds due jobs, emits one dispatcher message per job, and marks
// each fired. A full queue drops the job for this tick (it remains due, so
// the next tick retries) rather than blocking.
func TickOnce(store *Store, sink Sink, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	now := time.Now().Unix()
	for _, job := range store.FindDue(now) {
		msg := DispatchMessage{
			ChatID:  job.ChatID,
			Text:    job.Message,
			Channel: "cron",
			Direct:  job.Action == ActionDirect,
		}
		if !sink.TrySend(msg) {
			logger.Warn("dispatcher queue full, dropping cron job for this tick", "job_id", job.ID)
			continue
		}
		store.MarkFired(job.ID, now)
	}
}

// TickLoop runs TickOnce on a fixed interval until ctx is cancelled.
func TickLoop(ctx context.Context, store *Store, sink Sink, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		interval = TickInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			TickOnce(store, sink, logger)
		}
	}
}
