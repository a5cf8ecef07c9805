package vault

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := OpenDB(t.TempDir())
	if err != nil {
		t.Fatalf("opendb: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	store, err := Open(context.Background(), db)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return store
}

func TestUpsertAndListPaths(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.UpsertEntry(ctx, "a.md", "alpha content", 100); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := s.UpsertEntry(ctx, "b.md", "beta content", 200); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	paths, err := s.ListPaths(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(paths) != 2 || paths[0] != "a.md" || paths[1] != "b.md" {
		t.Fatalf("unexpected paths: %v", paths)
	}
}

func TestUpsertOverwritesContentAndMtime(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.UpsertEntry(ctx, "a.md", "v1", 1); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := s.UpsertEntry(ctx, "a.md", "v2", 2); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	content, ok, err := s.Content(ctx, "a.md")
	if err != nil || !ok {
		t.Fatalf("content: %v ok=%v", err, ok)
	}
	if content != "v2" {
		t.Fatalf("expected v2, got %q", content)
	}
	mtime, ok, err := s.LastModified(ctx, "a.md")
	if err != nil || !ok || mtime != 2 {
		t.Fatalf("expected mtime 2, got %d ok=%v err=%v", mtime, ok, err)
	}
}

func TestDeleteStaleRemovesUnknownAndFtsShadow(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.UpsertEntry(ctx, "keep.md", "keeper text", 1); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := s.UpsertEntry(ctx, "gone.md", "unique_ghost_term_zyx", 1); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	n, err := s.Count(ctx, `"unique_ghost_term_zyx"`)
	if err != nil || n != 1 {
		t.Fatalf("expected indexed before delete, n=%d err=%v", n, err)
	}

	removed, err := s.DeleteStale(ctx, map[string]struct{}{"keep.md": {}})
	if err != nil {
		t.Fatalf("delete_stale: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}

	paths, _ := s.ListPaths(ctx)
	if len(paths) != 1 || paths[0] != "keep.md" {
		t.Fatalf("unexpected remaining paths: %v", paths)
	}

	n, err = s.Count(ctx, `"unique_ghost_term_zyx"`)
	if err != nil || n != 0 {
		t.Fatalf("expected fts shadow row gone, n=%d err=%v", n, err)
	}
}

func TestSearchFindsAllMatchingNotes(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}
	must(s.UpsertEntry(ctx, "Daily log/2026-02-20.md", "Did squat and bench press today.", 1))
	must(s.UpsertEntry(ctx, "Workouts/Program.md", "Monday: squat 5x5 at 80kg", 2))
	must(s.UpsertEntry(ctx, "Ideas.md", "Build an AI assistant for the iPhone.", 3))

	n, err := s.Count(ctx, `"squat"`)
	if err != nil || n != 2 {
		t.Fatalf("expected 2 squat hits, got %d err=%v", n, err)
	}

	hits, err := s.Search(ctx, `"squat"`, 5)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %v", hits)
	}
}

func TestScanIndexesMdFilesAndSkipsOthers(t *testing.T) {
	s := openTestStore(t)
	ws := t.TempDir()
	writeFile(t, ws, "note.md", "hello vault")
	writeFile(t, ws, "script.sh", "#!/bin/sh")
	writeFile(t, ws, ".git/COMMIT_EDITMSG.md", "git internal")
	writeFile(t, ws, "skills/readme.md", "skill doc")
	writeFile(t, ws, "cron/state.md", "cron state")

	stats, err := Scan(context.Background(), ws, s)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if stats.Indexed != 1 {
		t.Fatalf("expected only note.md indexed, got %+v", stats)
	}

	paths, _ := s.ListPaths(context.Background())
	if len(paths) != 1 || paths[0] != "note.md" {
		t.Fatalf("unexpected paths: %v", paths)
	}
}

func TestScanSecondPassSkipsUnchangedAndPrunesDeleted(t *testing.T) {
	s := openTestStore(t)
	ws := t.TempDir()
	writeFile(t, ws, "a.md", "content a")
	writeFile(t, ws, "b.md", "content b")

	ctx := context.Background()
	s1, err := Scan(ctx, ws, s)
	if err != nil {
		t.Fatalf("scan1: %v", err)
	}
	if s1.Indexed != 2 {
		t.Fatalf("expected 2 indexed, got %+v", s1)
	}

	s2, err := Scan(ctx, ws, s)
	if err != nil {
		t.Fatalf("scan2: %v", err)
	}
	if s2.Indexed != 0 || s2.Skipped != 2 {
		t.Fatalf("expected unchanged files skipped, got %+v", s2)
	}

	removeFile(t, ws, "b.md")
	s3, err := Scan(ctx, ws, s)
	if err != nil {
		t.Fatalf("scan3: %v", err)
	}
	if s3.Removed != 1 {
		t.Fatalf("expected 1 removed after deletion, got %+v", s3)
	}
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func removeFile(t *testing.T, root, rel string) {
	t.Helper()
	if err := os.Remove(filepath.Join(root, rel)); err != nil {
		t.Fatalf("remove: %v", err)
	}
}
