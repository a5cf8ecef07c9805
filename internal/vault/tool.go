package vault

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Snehal-Reddy/iCrab/internal/toolkit"
)

// defaultLimit is the vault_search result cap absent an explicit 'limit' arg.
const defaultLimit = 5

// maxLimit is the hard ceiling on 'limit', regardless of what the model asks for.
const maxLimit = 20

// SearchTool is the `vault_search` front door (SPEC_FULL.md §4.2/§4.10),
// grounded on original_source/src/tools/search.rs's SearchVaultTool.
type SearchTool struct {
	Store *Store
}

func (SearchTool) Name() string { return "vault_search" }
func (SearchTool) Description() string {
	return "Search the indexed note vault for a keyword query. Returns BM25-ranked file paths and matching context snippets. Use this to find relevant notes before reading them in full with read_file."
}
func (SearchTool) Parameters() interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"query": map[string]interface{}{
				"type":        "string",
				"description": "Keywords to search for. Supports multi-word queries, prefix wildcards ('squat*'), phrases (\"bench press\"), and boolean operators (OR, NOT).",
			},
			"limit": map[string]interface{}{
				"type":        "integer",
				"description": "Max results to return (default 5, max 20).",
				"minimum":     1,
				"maximum":     maxLimit,
			},
		},
		"required": []string{"query"},
	}
}

func (t SearchTool) Execute(ctx context.Context, _ toolkit.Ctx, args json.RawMessage) toolkit.Result {
	var a struct {
		Query string `json:"query"`
		Limit *int   `json:"limit"`
	}
	if err := json.Unmarshal(args, &a); err != nil {
		return toolkit.Error(fmt.Sprintf("invalid args: %v", err))
	}
	query := strings.TrimSpace(a.Query)
	if query == "" {
		return toolkit.Error("'query' must not be empty")
	}

	limit := defaultLimit
	if a.Limit != nil {
		limit = clampInt(*a.Limit, 1, maxLimit)
	}

	hits, err := searchWithFallback(ctx, t.Store, query, limit)
	if err != nil {
		return toolkit.Error(fmt.Sprintf("search failed: %v", err))
	}
	return toolkit.Ok(formatHits(hits))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// searchWithFallback tries the raw query as FTS5 MATCH syntax first. If FTS5
// rejects it (invalid operator/phrase syntax), it falls back to quoting each
// whitespace-separated word and OR-ing them together, which is always valid.
func searchWithFallback(ctx context.Context, store *Store, query string, limit int) ([]Hit, error) {
	hits, err := store.Search(ctx, query, limit)
	if err == nil {
		return hits, nil
	}

	var words []string
	for _, w := range strings.Fields(query) {
		w = strings.ReplaceAll(w, `"`, "")
		if w == "" {
			continue
		}
		words = append(words, fmt.Sprintf("%q", w))
	}
	if len(words) == 0 {
		return nil, nil
	}
	return store.Search(ctx, strings.Join(words, " OR "), limit)
}

func formatHits(hits []Hit) string {
	if len(hits) == 0 {
		return "No matching notes found in the vault."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d result(s):\n", len(hits))
	for i, h := range hits {
		fmt.Fprintf(&b, "\n%d. %s\n   %s\n", i+1, h.Filepath, h.Snippet)
	}
	return b.String()
}
