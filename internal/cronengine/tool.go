package cronengine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Snehal-Reddy/iCrab/internal/toolkit"
)

// Tool is the tool-facing front door onto Store (SPEC_FULL.md §4.2's "cron
// (C4 front door)"), grounded on original_source/src/tools/cron.rs's CronTool.
// It lives in this package, not toolkit, to keep toolkit free of a dependency
// on the engine package.
type Tool struct {
	Store *Store
}

func (Tool) Name() string { return "cron" }
func (Tool) Description() string {
	return "Manage scheduled jobs: add, list, remove, enable, disable. Jobs fire on schedule, either running the agent with a message or sending directly to chat. When both day-of-month and day-of-week are restricted, the job fires only when both match (AND semantics)."
}
func (Tool) Parameters() interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"action":         map[string]interface{}{"type": "string", "enum": []string{"add", "list", "remove", "enable", "disable"}},
			"id":             map[string]interface{}{"type": "string"},
			"message":        map[string]interface{}{"type": "string"},
			"schedule_type":  map[string]interface{}{"type": "string", "enum": []string{"once", "interval", "cron"}},
			"at_unix":        map[string]interface{}{"type": "integer"},
			"delay":          map[string]interface{}{"type": "string"},
			"every_seconds":  map[string]interface{}{"type": "integer"},
			"cron_expr":      map[string]interface{}{"type": "string"},
			"job_action":     map[string]interface{}{"type": "string", "enum": []string{"agent", "direct"}},
			"label":          map[string]interface{}{"type": "string"},
		},
		"required": []string{"action"},
	}
}

type cronToolArgs struct {
	Action       string `json:"action"`
	ID           string `json:"id"`
	Message      string `json:"message"`
	ScheduleType string `json:"schedule_type"`
	AtUnix       *int64 `json:"at_unix"`
	Delay        string `json:"delay"`
	EverySeconds *int64 `json:"every_seconds"`
	CronExpr     string `json:"cron_expr"`
	JobAction    string `json:"job_action"`
	Label        string `json:"label"`
}

func (t Tool) Execute(_ context.Context, tctx toolkit.Ctx, args json.RawMessage) toolkit.Result {
	var a cronToolArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return toolkit.Error(fmt.Sprintf("invalid args: %v", err))
	}
	switch a.Action {
	case "add":
		return t.add(a, tctx)
	case "list":
		return t.list()
	case "remove":
		if a.ID == "" {
			return toolkit.Error("remove requires 'id'")
		}
		if t.Store.Remove(a.ID) {
			return toolkit.Ok(fmt.Sprintf("removed %s", a.ID))
		}
		return toolkit.Error(fmt.Sprintf("job %q not found", a.ID))
	case "enable":
		if a.ID == "" {
			return toolkit.Error("enable requires 'id'")
		}
		if t.Store.Enable(a.ID) {
			return toolkit.Ok(fmt.Sprintf("enabled %s", a.ID))
		}
		return toolkit.Error(fmt.Sprintf("job %q not found", a.ID))
	case "disable":
		if a.ID == "" {
			return toolkit.Error("disable requires 'id'")
		}
		if t.Store.Disable(a.ID) {
			return toolkit.Ok(fmt.Sprintf("disabled %s", a.ID))
		}
		return toolkit.Error(fmt.Sprintf("job %q not found", a.ID))
	default:
		return toolkit.Error("missing or unknown 'action' argument")
	}
}

func (t Tool) add(a cronToolArgs, tctx toolkit.Ctx) toolkit.Result {
	if strings.TrimSpace(a.Message) == "" {
		return toolkit.Error("add requires non-empty 'message'")
	}

	var schedule Schedule
	switch a.ScheduleType {
	case "once":
		switch {
		case a.AtUnix != nil && a.Delay != "":
			return toolkit.Error("once accepts either 'at_unix' or 'delay', not both")
		case a.AtUnix != nil:
			schedule = Schedule{Kind: ScheduleOnce, AtUnix: *a.AtUnix}
		case a.Delay != "":
			secs, err := ParseDelay(a.Delay)
			if err != nil {
				return toolkit.Error(err.Error())
			}
			schedule = Schedule{Kind: ScheduleOnce, AtUnix: unixNow() + secs}
		default:
			return toolkit.Error("once requires either 'at_unix' or 'delay' (e.g. '30m', '2h')")
		}
	case "interval":
		if a.EverySeconds == nil {
			return toolkit.Error("interval requires 'every_seconds'")
		}
		schedule = Schedule{Kind: ScheduleInterval, EverySeconds: *a.EverySeconds}
	case "cron":
		if strings.TrimSpace(a.CronExpr) == "" {
			return toolkit.Error("cron requires 'cron_expr'")
		}
		if _, err := ParseExpr(a.CronExpr); err != nil {
			return toolkit.Error(err.Error())
		}
		schedule = Schedule{Kind: ScheduleCron, Expr: a.CronExpr}
	default:
		return toolkit.Error("add requires 'schedule_type' (once, interval, or cron)")
	}

	jobAction := ActionDirect
	if a.JobAction == "agent" {
		jobAction = ActionRunAgent
	}

	var chatID int64
	if tctx.ChatID != nil {
		chatID = *tctx.ChatID
	}

	job, err := t.Store.Add(a.Label, a.Message, jobAction, schedule, chatID)
	if err != nil {
		return toolkit.Error(err.Error())
	}
	return toolkit.Ok(fmt.Sprintf("added %s", job.ID))
}

func (t Tool) list() toolkit.Result {
	jobs := t.Store.List()
	var b strings.Builder
	for _, j := range jobs {
		fmt.Fprintf(&b, "%s [%s] %s enabled=%v\n", j.ID, j.Action, j.Message, j.Enabled)
	}
	return toolkit.Ok(b.String())
}
