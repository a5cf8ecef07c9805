package toolkit

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/Snehal-Reddy/iCrab/internal/llmclient"
)

// Tool is a single capability: name, description, JSON-schema parameters, and
// an async Execute. Dynamic dispatch over this narrow interface replaces the
// impractical "one sum type per tool" approach (SPEC_FULL.md §9).
type Tool interface {
	Name() string
	Description() string
	Parameters() interface{} // JSON schema object
	Execute(ctx context.Context, tctx Ctx, args json.RawMessage) Result
}

// ToDef converts a Tool into its LLM-facing function descriptor.
func ToDef(t Tool) llmclient.ToolDef {
	return llmclient.NewFunctionDef(t.Name(), t.Description(), t.Parameters())
}

// Registry is a thread-safe name-indexed map of tools.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds or overwrites a tool by name (last-write wins).
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Name()] = t
}

// Execute looks up and invokes a tool by name. An unknown name returns an error
// result; Execute never panics on behalf of a missing tool.
func (r *Registry) Execute(ctx context.Context, tctx Ctx, name string, args json.RawMessage) Result {
	r.mu.RLock()
	t, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return Error(fmt.Sprintf("tool '%s' not found", name))
	}
	return t.Execute(ctx, tctx, args)
}

// ToolDefs returns the LLM-facing catalog for every registered tool.
func (r *Registry) ToolDefs() []llmclient.ToolDef {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]llmclient.ToolDef, 0, len(r.tools))
	for _, t := range r.tools {
		defs = append(defs, ToDef(t))
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Function.Name < defs[j].Function.Name })
	return defs
}

// List returns sorted tool names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for n := range r.tools {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Clone returns a new Registry carrying a snapshot of r's tools, letting a
// caller branch off a variant (e.g. the subagent registry's extra MessageTool)
// without mutating r.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	clone := NewRegistry()
	for name, t := range r.tools {
		clone.tools[name] = t
	}
	return clone
}

// Summaries returns "name - description" lines, sorted by name.
func (r *Registry) Summaries() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	type pair struct{ name, desc string }
	pairs := make([]pair, 0, len(r.tools))
	for n, t := range r.tools {
		pairs = append(pairs, pair{n, t.Description()})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].name < pairs[j].name })
	out := make([]string, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, fmt.Sprintf("%s - %s", p.name, p.desc))
	}
	return out
}
