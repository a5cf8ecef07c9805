package vault

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// skipDirs names directories the walker never descends into: VCS/runtime
// state, Obsidian's own config, and the two directories the kernel manages
// as structured state rather than free-form notes (skills/, cron/).
var skipDirs = map[string]bool{
	".git":      true,
	".icrab":    true,
	".obsidian": true,
	"skills":    true,
	"cron":      true,
}

// Stats summarizes one completed scan.
type Stats struct {
	Indexed int
	Skipped int
	Removed int
}

func (s Stats) String() string {
	return fmt.Sprintf("%d indexed, %d up-to-date, %d removed", s.Indexed, s.Skipped, s.Removed)
}

// Scan walks workspaceRoot for *.md files, upserting any that are new or
// whose on-disk mtime differs from the stored value, then prunes
// vault_index rows for files no longer on disk.
func Scan(ctx context.Context, workspaceRoot string, store *Store) (Stats, error) {
	var stats Stats
	live := make(map[string]struct{})

	if err := walkDir(ctx, workspaceRoot, workspaceRoot, live, store, &stats); err != nil {
		return stats, err
	}

	removed, err := store.DeleteStale(ctx, live)
	if err != nil {
		return stats, err
	}
	stats.Removed = removed
	return stats, nil
}

func walkDir(ctx context.Context, dir, root string, live map[string]struct{}, store *Store, stats *Stats) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		// A single unreadable directory does not abort the whole scan.
		return nil
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())

		if entry.IsDir() {
			if skipDirs[entry.Name()] {
				continue
			}
			if err := walkDir(ctx, path, root, live, store, stats); err != nil {
				return err
			}
			continue
		}

		if !strings.EqualFold(filepath.Ext(entry.Name()), ".md") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			continue
		}
		rel = filepath.ToSlash(rel)
		live[rel] = struct{}{}

		mtime := info.ModTime().Unix()

		stored, ok, err := store.LastModified(ctx, rel)
		if err != nil {
			return err
		}
		if ok && stored == mtime {
			stats.Skipped++
			continue
		}

		content, err := os.ReadFile(path)
		if err != nil {
			// Unreadable: keep it live (don't prune), skip upsert.
			continue
		}
		if err := store.UpsertEntry(ctx, rel, string(content), mtime); err != nil {
			return err
		}
		stats.Indexed++
	}
	return nil
}
