// Package vault implements the note-vault indexer (SPEC_FULL.md §4.10): an
// embedded FTS5 mirror of the Markdown notes under the workspace, kept in
// sync by a background scan. Grounded in original_source/src/memory/db.rs's
// vault_index/vault_fts schema and original_source/src/memory/indexer.rs's
// scan_vault walker — adapted from that file's SQL triggers to explicit
// two-statement Go transactions, since there is no Go equivalent of
// rusqlite's AFTER INSERT/UPDATE/DELETE trigger wiring worth reproducing by
// hand; the indexer itself keeps vault_fts in sync on every write.
package vault

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Snehal-Reddy/iCrab/internal/workspace"
)

// OpenDB opens (creating if necessary) the shared brain.db handle used by
// both the session store and this package, with the same iSH-friendly
// PRAGMAs the original applied: WAL journaling, NORMAL sync, a small mmap
// window, and in-memory temp tables.
func OpenDB(workspaceRoot string) (*sql.DB, error) {
	path := workspace.BrainDBPath(workspaceRoot)
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("vault: open %s: %w", path, err)
	}
	if _, err := db.Exec(`
		PRAGMA journal_mode = WAL;
		PRAGMA synchronous  = NORMAL;
		PRAGMA mmap_size    = 8388608;
		PRAGMA temp_store   = MEMORY;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("vault: pragma: %w", err)
	}
	return db, nil
}

// Store is the SQLite-backed vault index, sharing its *sql.DB handle with
// the session store (SPEC_FULL.md §3's "single database handle, serialising
// writes under a mutex" ownership rule).
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open wraps an already-opened *sql.DB and ensures the vault tables exist.
func Open(ctx context.Context, db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		return nil, fmt.Errorf("vault: migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS vault_index (
			filepath      TEXT PRIMARY KEY,
			content       TEXT,
			last_modified INTEGER
		)`,
		`CREATE VIRTUAL TABLE IF NOT EXISTS vault_fts USING fts5(filepath, content)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// UpsertEntry inserts or replaces a vault file's content and modification
// time, and keeps vault_fts in sync by deleting any stale shadow row before
// inserting the fresh one — both writes share one transaction in place of
// the original's AFTER INSERT/UPDATE triggers.
func (s *Store) UpsertEntry(ctx context.Context, filepath, content string, lastModified int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("vault: upsert: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO vault_index (filepath, content, last_modified) VALUES (?, ?, ?)
		ON CONFLICT(filepath) DO UPDATE SET content = excluded.content, last_modified = excluded.last_modified`,
		filepath, content, lastModified); err != nil {
		return fmt.Errorf("vault: upsert: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM vault_fts WHERE filepath = ?`, filepath); err != nil {
		return fmt.Errorf("vault: upsert: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO vault_fts (filepath, content) VALUES (?, ?)`, filepath, content); err != nil {
		return fmt.Errorf("vault: upsert: %w", err)
	}
	return tx.Commit()
}

// LastModified returns the stored modification time for filepath, or
// (0, false) if it has not been indexed yet.
func (s *Store) LastModified(ctx context.Context, filepath string) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var mtime int64
	err := s.db.QueryRowContext(ctx, `SELECT last_modified FROM vault_index WHERE filepath = ?`, filepath).Scan(&mtime)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("vault: last_modified: %w", err)
	}
	return mtime, true, nil
}

// DeleteStale removes every vault_index (and shadow vault_fts) row whose
// filepath is not in knownPaths, inside one transaction. Returns the count
// removed.
func (s *Store) DeleteStale(ctx context.Context, knownPaths map[string]struct{}) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `SELECT filepath FROM vault_index`)
	if err != nil {
		return 0, fmt.Errorf("vault: delete_stale: %w", err)
	}
	var stored []string
	for rows.Next() {
		var fp string
		if err := rows.Scan(&fp); err != nil {
			rows.Close()
			return 0, fmt.Errorf("vault: delete_stale: %w", err)
		}
		stored = append(stored, fp)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, fmt.Errorf("vault: delete_stale: %w", err)
	}
	rows.Close()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("vault: delete_stale: %w", err)
	}
	defer tx.Rollback()

	removed := 0
	for _, fp := range stored {
		if _, ok := knownPaths[fp]; ok {
			continue
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM vault_index WHERE filepath = ?`, fp); err != nil {
			return 0, fmt.Errorf("vault: delete_stale: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM vault_fts WHERE filepath = ?`, fp); err != nil {
			return 0, fmt.Errorf("vault: delete_stale: %w", err)
		}
		removed++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("vault: delete_stale: %w", err)
	}
	return removed, nil
}

// ListPaths returns every indexed filepath, sorted ascending.
func (s *Store) ListPaths(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `SELECT filepath FROM vault_index ORDER BY filepath ASC`)
	if err != nil {
		return nil, fmt.Errorf("vault: list_paths: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var fp string
		if err := rows.Scan(&fp); err != nil {
			return nil, fmt.Errorf("vault: list_paths: %w", err)
		}
		paths = append(paths, fp)
	}
	return paths, rows.Err()
}

// Content returns the stored content of filepath, or (\"\", false) if not
// indexed.
func (s *Store) Content(ctx context.Context, filepath string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var content string
	err := s.db.QueryRowContext(ctx, `SELECT content FROM vault_index WHERE filepath = ?`, filepath).Scan(&content)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("vault: content: %w", err)
	}
	return content, true, nil
}

// Count reports how many vault_fts rows match ftsQuery (FTS5 MATCH syntax).
func (s *Store) Count(ctx context.Context, ftsQuery string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM vault_fts WHERE vault_fts MATCH ?`, ftsQuery).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("vault: count: %w", err)
	}
	return n, nil
}

// Hit is one BM25-ranked search result.
type Hit struct {
	Filepath string
	Snippet  string
}

// Search runs a BM25-ranked FTS5 MATCH query, returning at most limit hits
// with a `**term**`-highlighted, 10-token snippet per hit.
func (s *Store) Search(ctx context.Context, ftsQuery string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT filepath, snippet(vault_fts, -1, '**', '**', '...', 10) AS snip
		FROM vault_fts
		WHERE vault_fts MATCH ?
		ORDER BY bm25(vault_fts)
		LIMIT ?`, ftsQuery, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var h Hit
		if err := rows.Scan(&h.Filepath, &h.Snippet); err != nil {
			return nil, fmt.Errorf("vault: search: %w", err)
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}
