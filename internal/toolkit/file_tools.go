package toolkit

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// resolvePath joins workspace+path and, when restrict is set, rejects any
// result that escapes the workspace root (mirrors the "restrict_to_workspace"
// flag in ToolCtx, SPEC_FULL.md §4.2).
func resolvePath(workspace, path string, restrict bool) (string, error) {
	full := filepath.Join(workspace, path)
	if !restrict {
		return full, nil
	}
	cleanRoot, err := filepath.Abs(workspace)
	if err != nil {
		return "", err
	}
	cleanFull, err := filepath.Abs(full)
	if err != nil {
		return "", err
	}
	if cleanFull != cleanRoot && !strings.HasPrefix(cleanFull, cleanRoot+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes workspace: %s", path)
	}
	return cleanFull, nil
}

func pathSchema(extra map[string]interface{}) map[string]interface{} {
	props := map[string]interface{}{
		"path": map[string]interface{}{"type": "string", "description": "workspace-relative path"},
	}
	for k, v := range extra {
		props[k] = v
	}
	required := []string{"path"}
	for k := range extra {
		required = append(required, k)
	}
	sort.Strings(required)
	return map[string]interface{}{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

// ReadFileTool reads a file under the workspace.
type ReadFileTool struct{}

func (ReadFileTool) Name() string        { return "read_file" }
func (ReadFileTool) Description() string { return "Read the contents of a file in the workspace." }
func (ReadFileTool) Parameters() interface{} {
	return pathSchema(nil)
}
func (ReadFileTool) Execute(_ context.Context, tctx Ctx, args json.RawMessage) Result {
	var a struct {
		Path string `json:"path"`
	}
	if err := json.Unmarshal(args, &a); err != nil {
		return Error(fmt.Sprintf("invalid args: %v", err))
	}
	full, err := resolvePath(tctx.Workspace, a.Path, tctx.RestrictToWorkspace)
	if err != nil {
		return Error(err.Error())
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return Error(err.Error())
	}
	return Ok(string(data))
}

// WriteFileTool overwrites (or creates) a file under the workspace.
type WriteFileTool struct{}

func (WriteFileTool) Name() string        { return "write_file" }
func (WriteFileTool) Description() string { return "Write (overwrite) a file in the workspace." }
func (WriteFileTool) Parameters() interface{} {
	return pathSchema(map[string]interface{}{
		"content": map[string]interface{}{"type": "string"},
	})
}
func (WriteFileTool) Execute(_ context.Context, tctx Ctx, args json.RawMessage) Result {
	var a struct {
		Path    string `json:"path"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal(args, &a); err != nil {
		return Error(fmt.Sprintf("invalid args: %v", err))
	}
	full, err := resolvePath(tctx.Workspace, a.Path, tctx.RestrictToWorkspace)
	if err != nil {
		return Error(err.Error())
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return Error(err.Error())
	}
	if err := os.WriteFile(full, []byte(a.Content), 0o644); err != nil {
		return Error(err.Error())
	}
	return Ok(fmt.Sprintf("wrote %d bytes to %s", len(a.Content), a.Path))
}

// AppendFileTool appends to (creating if absent) a file under the workspace.
type AppendFileTool struct{}

func (AppendFileTool) Name() string        { return "append_file" }
func (AppendFileTool) Description() string { return "Append text to a file in the workspace, creating it if missing." }
func (AppendFileTool) Parameters() interface{} {
	return pathSchema(map[string]interface{}{
		"content": map[string]interface{}{"type": "string"},
	})
}
func (AppendFileTool) Execute(_ context.Context, tctx Ctx, args json.RawMessage) Result {
	var a struct {
		Path    string `json:"path"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal(args, &a); err != nil {
		return Error(fmt.Sprintf("invalid args: %v", err))
	}
	full, err := resolvePath(tctx.Workspace, a.Path, tctx.RestrictToWorkspace)
	if err != nil {
		return Error(err.Error())
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return Error(err.Error())
	}
	f, err := os.OpenFile(full, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return Error(err.Error())
	}
	defer f.Close()
	if _, err := f.WriteString(a.Content); err != nil {
		return Error(err.Error())
	}
	return Ok(fmt.Sprintf("appended %d bytes to %s", len(a.Content), a.Path))
}

// EditFileTool replaces the first occurrence of `find` with `replace`.
type EditFileTool struct{}

func (EditFileTool) Name() string        { return "edit_file" }
func (EditFileTool) Description() string { return "Replace the first occurrence of a string in a file." }
func (EditFileTool) Parameters() interface{} {
	return pathSchema(map[string]interface{}{
		"find":    map[string]interface{}{"type": "string"},
		"replace": map[string]interface{}{"type": "string"},
	})
}
func (EditFileTool) Execute(_ context.Context, tctx Ctx, args json.RawMessage) Result {
	var a struct {
		Path    string `json:"path"`
		Find    string `json:"find"`
		Replace string `json:"replace"`
	}
	if err := json.Unmarshal(args, &a); err != nil {
		return Error(fmt.Sprintf("invalid args: %v", err))
	}
	full, err := resolvePath(tctx.Workspace, a.Path, tctx.RestrictToWorkspace)
	if err != nil {
		return Error(err.Error())
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return Error(err.Error())
	}
	if !strings.Contains(string(data), a.Find) {
		return Error("find string not present in file")
	}
	updated := strings.Replace(string(data), a.Find, a.Replace, 1)
	if err := os.WriteFile(full, []byte(updated), 0o644); err != nil {
		return Error(err.Error())
	}
	return Ok("edited " + a.Path)
}

// ListDirTool lists entries in a workspace directory.
type ListDirTool struct{}

func (ListDirTool) Name() string        { return "list_dir" }
func (ListDirTool) Description() string { return "List entries in a workspace directory." }
func (ListDirTool) Parameters() interface{} {
	return pathSchema(nil)
}
func (ListDirTool) Execute(_ context.Context, tctx Ctx, args json.RawMessage) Result {
	var a struct {
		Path string `json:"path"`
	}
	if err := json.Unmarshal(args, &a); err != nil {
		return Error(fmt.Sprintf("invalid args: %v", err))
	}
	full, err := resolvePath(tctx.Workspace, a.Path, tctx.RestrictToWorkspace)
	if err != nil {
		return Error(err.Error())
	}
	entries, err := os.ReadDir(full)
	if err != nil {
		return Error(err.Error())
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name()+"/")
		} else {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return Ok(strings.Join(names, "\n"))
}
