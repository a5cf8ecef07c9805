package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/Snehal-Reddy/iCrab/internal/agent"
	"github.com/Snehal-Reddy/iCrab/internal/llmclient"
	"github.com/Snehal-Reddy/iCrab/internal/session"
	"github.com/Snehal-Reddy/iCrab/internal/toolkit"
	"github.com/Snehal-Reddy/iCrab/internal/vault"
)

type stubLLM struct{ reply string }

func (s stubLLM) ChatWithParams(_ context.Context, _ []llmclient.Message, _ []llmclient.ToolDef, _ string, _ *float64, _ *int) (llmclient.Response, error) {
	return llmclient.Response{Content: s.reply}, nil
}

type recordingSink struct {
	sent []Outbound
}

func (s *recordingSink) Send(o Outbound) {
	s.sent = append(s.sent, o)
}

func newTestDeps(reply string) agent.Deps {
	return agent.Deps{
		LLM:           stubLLM{reply: reply},
		Registry:      toolkit.NewRegistry(),
		WorkspaceRoot: "/tmp",
		Model:         "test-model",
	}
}

func openTestStore(t *testing.T) *session.Store {
	t.Helper()
	db, err := vault.OpenDB(t.TempDir())
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	store, err := session.Open(context.Background(), db)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return store
}

func TestHandleStatefulMessageSendsReplyAndPersists(t *testing.T) {
	store := openTestStore(t)
	sink := &recordingSink{}
	d := New(Config{Outbound: sink, Deps: newTestDeps("hi there"), Store: store})

	d.handle(context.Background(), Inbound{ChatID: 1, Text: "hello", Channel: "telegram"})

	if len(sink.sent) != 1 || sink.sent[0].Text != "hi there" || sink.sent[0].ChatID != 1 {
		t.Fatalf("unexpected sink state: %+v", sink.sent)
	}
	if d.LastChatID() != 1 {
		t.Fatalf("expected last chat id tracked, got %d", d.LastChatID())
	}
}

func TestHandleHeartbeatDoesNotUpdateLastChatID(t *testing.T) {
	store := openTestStore(t)
	sink := &recordingSink{}
	d := New(Config{Outbound: sink, Deps: newTestDeps("tick"), Store: store})
	d.lastChatID.Store(42)

	d.handle(context.Background(), Inbound{ChatID: 0, Text: "[Heartbeat Task] x", Channel: ChannelHeartbeat})

	if d.LastChatID() != 42 {
		t.Fatalf("expected last chat id unchanged, got %d", d.LastChatID())
	}
	if len(sink.sent) != 0 {
		t.Fatalf("expected no reply for heartbeat with chat_id=0, got %+v", sink.sent)
	}
}

func TestRunDrainsQueueUntilCancelled(t *testing.T) {
	store := openTestStore(t)
	sink := &recordingSink{}
	d := New(Config{Outbound: sink, Deps: newTestDeps("ok"), Store: store})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()

	if !d.TrySend(Inbound{ChatID: 7, Text: "ping", Channel: "telegram"}) {
		t.Fatalf("expected enqueue to succeed")
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && len(sink.sent) == 0 {
		time.Sleep(5 * time.Millisecond)
	}
	if len(sink.sent) != 1 {
		t.Fatalf("expected one reply, got %+v", sink.sent)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not exit after context cancellation")
	}
}

func TestTrySendDropsWhenQueueFull(t *testing.T) {
	store := openTestStore(t)
	sink := &recordingSink{}
	d := New(Config{Outbound: sink, Deps: newTestDeps("ok"), Store: store})

	for i := 0; i < QueueCapacity; i++ {
		if !d.TrySend(Inbound{ChatID: int64(i), Text: "x", Channel: "telegram"}) {
			t.Fatalf("expected queue to accept up to capacity, failed at %d", i)
		}
	}
	if d.TrySend(Inbound{ChatID: 999, Text: "overflow", Channel: "telegram"}) {
		t.Fatalf("expected TrySend to drop once queue is full")
	}
}
