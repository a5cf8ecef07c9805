package subagent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Snehal-Reddy/iCrab/internal/toolkit"
)

// SpawnTool is the tool-facing front door to Manager.Spawn (SPEC_FULL.md
// §4.2's "spawn/subagent (C3 front door)"). It lives here rather than in
// toolkit to avoid toolkit depending on the agent loop it would need to
// launch subagents with.
type SpawnTool struct {
	Manager *Manager
}

func (SpawnTool) Name() string { return "spawn" }
func (SpawnTool) Description() string {
	return "Spawn a background subagent to work on a task independently. Returns a task id immediately."
}
func (SpawnTool) Parameters() interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"task":  map[string]interface{}{"type": "string"},
			"label": map[string]interface{}{"type": "string"},
		},
		"required": []string{"task"},
	}
}

func (t SpawnTool) Execute(ctx context.Context, tctx toolkit.Ctx, args json.RawMessage) toolkit.Result {
	var a struct {
		Task  string `json:"task"`
		Label string `json:"label"`
	}
	if err := json.Unmarshal(args, &a); err != nil {
		return toolkit.Error(fmt.Sprintf("invalid args: %v", err))
	}
	var chatID int64
	if tctx.ChatID != nil {
		chatID = *tctx.ChatID
	}
	channel := ""
	if tctx.Channel != nil {
		channel = *tctx.Channel
	}
	taskID := t.Manager.Spawn(ctx, a.Task, a.Label, chatID, tctx.Outbound, channel)
	return toolkit.Ok(fmt.Sprintf("spawned %s", taskID))
}

// SubagentTool is the tool-facing front door to Get/List/Cancel, exposed as a
// single tool with an "action" discriminator to keep the catalog small.
type SubagentTool struct {
	Manager *Manager
}

func (SubagentTool) Name() string { return "subagent" }
func (SubagentTool) Description() string {
	return "Inspect or cancel background subagent tasks (action: status, list, cancel)."
}
func (SubagentTool) Parameters() interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"action":  map[string]interface{}{"type": "string", "enum": []string{"status", "list", "cancel"}},
			"task_id": map[string]interface{}{"type": "string"},
		},
		"required": []string{"action"},
	}
}

func (t SubagentTool) Execute(_ context.Context, _ toolkit.Ctx, args json.RawMessage) toolkit.Result {
	var a struct {
		Action string `json:"action"`
		TaskID string `json:"task_id"`
	}
	if err := json.Unmarshal(args, &a); err != nil {
		return toolkit.Error(fmt.Sprintf("invalid args: %v", err))
	}
	switch a.Action {
	case "status":
		task, ok := t.Manager.Get(a.TaskID)
		if !ok {
			return toolkit.Error(fmt.Sprintf("unknown task %q", a.TaskID))
		}
		return toolkit.Ok(formatTask(task))
	case "list":
		tasks := t.Manager.List()
		out := ""
		for _, task := range tasks {
			out += formatTask(task) + "\n"
		}
		return toolkit.Ok(out)
	case "cancel":
		if t.Manager.Cancel(a.TaskID) {
			return toolkit.Ok(fmt.Sprintf("cancelled %s", a.TaskID))
		}
		return toolkit.Error(fmt.Sprintf("task %q not running or not found", a.TaskID))
	default:
		return toolkit.Error(fmt.Sprintf("unknown action %q", a.Action))
	}
}

func formatTask(t Task) string {
	return fmt.Sprintf("%s [%s] %s", t.ID, t.Status, t.Result)
}
