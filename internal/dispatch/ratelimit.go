package dispatch

import (
	"sync"

	"golang.org/x/time/rate"
)

// InboundLimiter enforces a per-chat messages/minute budget before a chat
// transport message is allowed onto the dispatcher queue (SPEC_FULL.md §4.8's
// "Inbound rate limiting" addition). Rejections never reach the queue and
// are invisible to the dispatcher — they do not affect FIFO ordering.
type InboundLimiter struct {
	mu           sync.Mutex
	perChat      map[int64]*rate.Limiter
	ratePerMin   float64
	burst        int
}

// NewInboundLimiter builds a limiter allowing ratePerMinute messages per
// chat-id, replenished continuously, with a burst of the same size. A
// ratePerMinute <= 0 disables limiting (Allow always returns true).
func NewInboundLimiter(ratePerMinute int) *InboundLimiter {
	return &InboundLimiter{
		perChat:    make(map[int64]*rate.Limiter),
		ratePerMin: float64(ratePerMinute),
		burst:      ratePerMinute,
	}
}

// Allow reports whether a message from chatID may proceed, consuming one
// token from that chat's bucket if so.
func (l *InboundLimiter) Allow(chatID int64) bool {
	if l == nil || l.ratePerMin <= 0 {
		return true
	}

	l.mu.Lock()
	lim, ok := l.perChat[chatID]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(l.ratePerMin/60.0), l.burst)
		l.perChat[chatID] = lim
	}
	l.mu.Unlock()

	return lim.Allow()
}

// RateLimitedSink bundles a Dispatcher with an InboundLimiter, the shape
// every chat-transport adapter dials into: rate-limit, then enqueue.
type RateLimitedSink struct {
	Dispatcher *Dispatcher
	Limiter    *InboundLimiter
}

// Allow reports whether chatID may still enqueue a message this tick.
func (s RateLimitedSink) Allow(chatID int64) bool { return s.Limiter.Allow(chatID) }

// TrySend enqueues msg onto the dispatcher without blocking.
func (s RateLimitedSink) TrySend(msg Inbound) bool { return s.Dispatcher.TrySend(msg) }
