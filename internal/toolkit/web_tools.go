package toolkit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// WebSearchProvider selects which backend WebSearchTool queries — DuckDuckGo by
// default, or Brave when an API key is configured (SPEC_FULL.md §4.2, grounded on
// original_source/src/tools/registry.rs's build_core_registry selection logic).
type WebSearchProvider struct {
	Brave      bool
	APIKey     string
	MaxResults int
}

// WebSearchTool performs a web search via the configured provider. Plain HTTP+JSON,
// no SDK — neither DuckDuckGo's nor Brave's client exists anywhere in the pack, so
// this is a justified stdlib-only leaf (see DESIGN.md).
type WebSearchTool struct {
	Provider WebSearchProvider
	Client   *http.Client
}

func (WebSearchTool) Name() string { return "web_search" }
func (WebSearchTool) Description() string {
	return "Search the web and return the search provider's raw JSON response."
}
func (WebSearchTool) Parameters() interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"query": map[string]interface{}{"type": "string"},
		},
		"required": []string{"query"},
	}
}

func (t WebSearchTool) Execute(ctx context.Context, _ Ctx, args json.RawMessage) Result {
	var a struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal(args, &a); err != nil {
		return Error(fmt.Sprintf("invalid args: %v", err))
	}
	if strings.TrimSpace(a.Query) == "" {
		return Error("query must not be empty")
	}

	client := t.Client
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}

	var (
		reqURL string
		header http.Header
	)
	if t.Provider.Brave && t.Provider.APIKey != "" {
		reqURL = "https://api.search.brave.com/res/v1/web/search?q=" + url.QueryEscape(a.Query)
		if t.Provider.MaxResults > 0 {
			reqURL += fmt.Sprintf("&count=%d", t.Provider.MaxResults)
		}
		header = http.Header{"X-Subscription-Token": []string{t.Provider.APIKey}}
	} else {
		reqURL = "https://api.duckduckgo.com/?format=json&no_html=1&q=" + url.QueryEscape(a.Query)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return Error(err.Error())
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	res, err := client.Do(req)
	if err != nil {
		return Error(err.Error())
	}
	defer res.Body.Close()
	body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return Error(err.Error())
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return Error(fmt.Sprintf("search provider returned %d", res.StatusCode))
	}
	return Ok(string(body))
}

// WebFetchTool fetches a URL's body, truncated to MaxChars.
type WebFetchTool struct {
	Client   *http.Client
	MaxChars int
}

func (WebFetchTool) Name() string        { return "web_fetch" }
func (WebFetchTool) Description() string { return "Fetch the text content of a URL." }
func (WebFetchTool) Parameters() interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"url": map[string]interface{}{"type": "string"},
		},
		"required": []string{"url"},
	}
}

func (t WebFetchTool) Execute(ctx context.Context, _ Ctx, args json.RawMessage) Result {
	var a struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(args, &a); err != nil {
		return Error(fmt.Sprintf("invalid args: %v", err))
	}
	client := t.Client
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	maxChars := t.MaxChars
	if maxChars <= 0 {
		maxChars = 50_000
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.URL, nil)
	if err != nil {
		return Error(err.Error())
	}
	res, err := client.Do(req)
	if err != nil {
		return Error(err.Error())
	}
	defer res.Body.Close()
	body, err := io.ReadAll(io.LimitReader(res.Body, int64(maxChars)+1))
	if err != nil {
		return Error(err.Error())
	}
	text := string(body)
	if len(text) > maxChars {
		text = text[:maxChars]
	}
	return Ok(text)
}
