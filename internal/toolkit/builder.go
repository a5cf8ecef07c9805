package toolkit

import "net/http"

// CoreRegistryConfig carries the subset of config the core (file + web) tool set
// needs, mirroring original_source/src/tools/registry.rs's build_core_registry.
type CoreRegistryConfig struct {
	BraveAPIKey      string
	BraveMaxResults  int
	WebFetchMaxChars int
}

const (
	defaultBraveMaxResults  = 5
	defaultWebFetchMaxChars = 50_000
)

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// BuildCoreRegistry builds the tool set shared by the main agent and every
// subagent: file tools + web tools. MessageTool is deliberately NOT included
// here; callers add it only to subagent registries (see MessageTool's doc).
func BuildCoreRegistry(cfg CoreRegistryConfig) *Registry {
	reg := NewRegistry()
	reg.Register(ReadFileTool{})
	reg.Register(WriteFileTool{})
	reg.Register(ListDirTool{})
	reg.Register(EditFileTool{})
	reg.Register(AppendFileTool{})

	maxResults := cfg.BraveMaxResults
	if maxResults == 0 {
		maxResults = defaultBraveMaxResults
	}
	maxResults = clamp(maxResults, 1, 10)
	maxChars := cfg.WebFetchMaxChars
	if maxChars == 0 {
		maxChars = defaultWebFetchMaxChars
	}

	client := &http.Client{}
	provider := WebSearchProvider{MaxResults: maxResults}
	if cfg.BraveAPIKey != "" {
		provider.Brave = true
		provider.APIKey = cfg.BraveAPIKey
	}
	reg.Register(WebSearchTool{Provider: provider, Client: client})
	reg.Register(WebFetchTool{Client: client, MaxChars: maxChars})

	return reg
}
