// Package session implements the append-only per-chat history and summary
// store (SPEC_FULL.md §4.1), grounded in original_source/src/memory/db.rs's
// table shapes, adapted to insert-only semantics per spec §3's append-only
// invariant (the one deliberate divergence from that file's replace-all
// save_session, and from the teacher's equivalent db.go).
package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/Snehal-Reddy/iCrab/internal/llmclient"
)

// MaxHistory is the most-recent-N cap on the in-memory history view (N=50).
const MaxHistory = 50

// Session is a single chat's mutable conversation state: a bounded in-memory
// history view, an unbounded pending-inserts buffer, a summary, and a stable
// session id.
type Session struct {
	ChatID    int64
	SessionID string
	History   []llmclient.Message
	Summary   string

	pending []storedMessage
}

type storedMessage struct {
	msg llmclient.Message
}

func push(history []llmclient.Message, m llmclient.Message) []llmclient.Message {
	history = append(history, m)
	if len(history) > MaxHistory {
		history = history[len(history)-MaxHistory:]
	}
	return history
}

// AddUser appends a user turn to both the in-memory history and the
// pending-inserts buffer.
func (s *Session) AddUser(content string) {
	m := llmclient.Message{Role: llmclient.RoleUser, Content: content}
	s.History = push(s.History, m)
	s.pending = append(s.pending, storedMessage{msg: m})
}

// AddAssistant appends an assistant turn, optionally carrying tool calls.
func (s *Session) AddAssistant(content string, toolCalls []llmclient.ToolCall) {
	m := llmclient.Message{Role: llmclient.RoleAssistant, Content: content, ToolCalls: toolCalls}
	s.History = push(s.History, m)
	s.pending = append(s.pending, storedMessage{msg: m})
}

// AddTool appends a tool-result turn tied to the call that produced it.
func (s *Session) AddTool(toolCallID, content string) {
	m := llmclient.Message{Role: llmclient.RoleTool, Content: content, ToolCallID: toolCallID}
	s.History = push(s.History, m)
	s.pending = append(s.pending, storedMessage{msg: m})
}

// TruncateHistory trims the in-memory view to the k most recent messages. It
// never touches stored rows — only the in-memory view shrinks.
func (s *Session) TruncateHistory(k int) {
	if k < 0 {
		k = 0
	}
	if len(s.History) > k {
		s.History = s.History[len(s.History)-k:]
	}
}

// SetSummary replaces the session's summary; it is flushed on the next Save.
func (s *Session) SetSummary(summary string) {
	s.Summary = summary
}

// HasPending reports whether Save would do any work.
func (s *Session) HasPending() bool {
	return len(s.pending) > 0
}

// Store is the SQLite-backed session store. One *sql.DB is shared with the
// vault indexer (SPEC_FULL.md §6); writes are serialised under mu, matching
// the "single database handle, serialising writes under a mutex" ownership
// rule (SPEC_FULL.md §3 Ownership).
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open wraps an already-opened *sql.DB (see vault.OpenDB for the shared-handle
// construction site) and ensures the session tables exist.
func Open(ctx context.Context, db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		return nil, fmt.Errorf("session-error.db: %w", err)
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS chat_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			chat_id INTEGER NOT NULL,
			session_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			tool_call_id TEXT,
			tool_calls TEXT,
			timestamp INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chat_history_chat_id ON chat_history (chat_id, id)`,
		`CREATE TABLE IF NOT EXISTS chat_summary (
			chat_id INTEGER PRIMARY KEY,
			session_id TEXT NOT NULL,
			summary TEXT NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Load returns the session for chatID, creating a fresh session-id on first
// access. History is capped to MaxHistory most-recent rows as a read-time
// safety net; older rows remain in storage untouched.
func (s *Store) Load(ctx context.Context, chatID int64) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessionID, summary, err := s.loadSummaryRow(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("session-error.db: %w", err)
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT role, content, tool_call_id, tool_calls
		FROM chat_history
		WHERE chat_id = ?
		ORDER BY id DESC
		LIMIT ?`, chatID, MaxHistory)
	if err != nil {
		return nil, fmt.Errorf("session-error.db: %w", err)
	}
	defer rows.Close()

	var reversed []llmclient.Message
	for rows.Next() {
		var role, content string
		var toolCallID, toolCallsJSON sql.NullString
		if err := rows.Scan(&role, &content, &toolCallID, &toolCallsJSON); err != nil {
			return nil, fmt.Errorf("session-error.db: %w", err)
		}
		m := llmclient.Message{Role: llmclient.Role(role), Content: content}
		if toolCallID.Valid {
			m.ToolCallID = toolCallID.String
		}
		if toolCallsJSON.Valid && toolCallsJSON.String != "" {
			var calls []llmclient.ToolCall
			if err := json.Unmarshal([]byte(toolCallsJSON.String), &calls); err != nil {
				return nil, fmt.Errorf("session-error.serialize: %w", err)
			}
			m.ToolCalls = calls
		}
		reversed = append(reversed, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("session-error.db: %w", err)
	}

	history := make([]llmclient.Message, len(reversed))
	for i, m := range reversed {
		history[len(reversed)-1-i] = m
	}

	return &Session{
		ChatID:    chatID,
		SessionID: sessionID,
		History:   history,
		Summary:   summary,
	}, nil
}

func (s *Store) loadSummaryRow(ctx context.Context, chatID int64) (sessionID, summary string, err error) {
	row := s.db.QueryRowContext(ctx, `SELECT session_id, summary FROM chat_summary WHERE chat_id = ?`, chatID)
	err = row.Scan(&sessionID, &summary)
	if err == sql.ErrNoRows {
		return "", "", nil
	}
	if err != nil {
		return "", "", err
	}
	return sessionID, summary, nil
}

// Save atomically flushes pending inserts and upserts the summary in one
// transaction. A no-op when there is nothing pending and the summary is
// unchanged from storage would require a read; per the contract, Save is a
// no-op only when pending is empty AND summary is empty, matching §4.1.
func (s *Store) Save(ctx context.Context, sess *Session) error {
	if len(sess.pending) == 0 && sess.Summary == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("session-error.db: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chat_history (chat_id, session_id, role, content, tool_call_id, tool_calls, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, strftime('%s','now'))`)
	if err != nil {
		return fmt.Errorf("session-error.db: %w", err)
	}
	defer stmt.Close()

	for _, p := range sess.pending {
		var toolCallID sql.NullString
		if p.msg.ToolCallID != "" {
			toolCallID = sql.NullString{String: p.msg.ToolCallID, Valid: true}
		}
		var toolCallsJSON sql.NullString
		if len(p.msg.ToolCalls) > 0 {
			raw, err := json.Marshal(p.msg.ToolCalls)
			if err != nil {
				return fmt.Errorf("session-error.serialize: %w", err)
			}
			toolCallsJSON = sql.NullString{String: string(raw), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, sess.ChatID, sess.SessionID, string(p.msg.Role), p.msg.Content, toolCallID, toolCallsJSON); err != nil {
			return fmt.Errorf("session-error.db: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO chat_summary (chat_id, session_id, summary) VALUES (?, ?, ?)
		ON CONFLICT(chat_id) DO UPDATE SET summary = excluded.summary, session_id = excluded.session_id`,
		sess.ChatID, sess.SessionID, sess.Summary); err != nil {
		return fmt.Errorf("session-error.db: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("session-error.db: %w", err)
	}
	sess.pending = nil
	return nil
}
