package session

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "brain.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	store, err := Open(context.Background(), db)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return store
}

func TestLoadCreatesFreshSessionID(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	sess, err := store.Load(ctx, 42)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if sess.SessionID == "" {
		t.Fatalf("expected a generated session id")
	}
	if len(sess.History) != 0 {
		t.Fatalf("expected empty history for fresh chat")
	}
}

func TestSessionIDStableAcrossReopens(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	first, err := store.Load(ctx, 1)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	first.AddUser("hi")
	if err := store.Save(ctx, first); err != nil {
		t.Fatalf("save: %v", err)
	}

	second, err := store.Load(ctx, 1)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if second.SessionID != first.SessionID {
		t.Fatalf("expected stable session id, got %q vs %q", first.SessionID, second.SessionID)
	}
}

func TestPendingInsertsSurviveBeyondInMemoryCap(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	sess, err := store.Load(ctx, 7)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	for i := 0; i < 55; i++ {
		sess.AddUser("message")
	}
	if len(sess.History) != MaxHistory {
		t.Fatalf("expected in-memory history capped at %d, got %d", MaxHistory, len(sess.History))
	}
	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("save: %v", err)
	}

	var count int
	if err := store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chat_history WHERE chat_id = ?`, int64(7)).Scan(&count); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if count != 55 {
		t.Fatalf("expected 55 stored rows, got %d", count)
	}

	reloaded, err := store.Load(ctx, 7)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(reloaded.History) != MaxHistory {
		t.Fatalf("expected reload to cap at %d, got %d", MaxHistory, len(reloaded.History))
	}
}

func TestSaveIsNoOpWhenNothingPending(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	sess, err := store.Load(ctx, 9)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("save: %v", err)
	}
	var count int
	if err := store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chat_summary WHERE chat_id = ?`, int64(9)).Scan(&count); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no-op save to write no summary row, got %d", count)
	}
}

func TestTruncateHistoryDoesNotDeleteStoredRows(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	sess, err := store.Load(ctx, 3)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	sess.AddUser("one")
	sess.AddAssistant("two", nil)
	sess.AddTool("call-1", "three")
	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("save: %v", err)
	}
	sess.TruncateHistory(1)
	if len(sess.History) != 1 {
		t.Fatalf("expected in-memory history trimmed to 1, got %d", len(sess.History))
	}

	var count int
	if err := store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chat_history WHERE chat_id = ?`, int64(3)).Scan(&count); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected stored rows untouched by truncate, got %d", count)
	}
}
