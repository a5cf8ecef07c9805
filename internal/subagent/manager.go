// Package subagent implements the background subagent scheduler (SPEC_FULL.md
// §4.3), grounded nearly 1:1 on
// original_source/src/agent/subagent_manager.rs and its run_subagent runner in
// original_source/src/agent.rs.
package subagent

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Snehal-Reddy/iCrab/internal/agent"
	"github.com/Snehal-Reddy/iCrab/internal/llmclient"
	"github.com/Snehal-Reddy/iCrab/internal/skills"
	"github.com/Snehal-Reddy/iCrab/internal/toolkit"
)

// MaxCompletedTasks bounds the non-Running retention (K=50).
const MaxCompletedTasks = 50

// Status is a subagent task's lifecycle state.
type Status int

const (
	StatusRunning Status = iota
	StatusCompleted
	StatusFailed
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Task is a public snapshot of a subagent task (no cancel handle).
type Task struct {
	ID        string
	Label     string
	Task      string
	Status    Status
	Result    string
	CreatedAt time.Time
}

type taskEntry struct {
	info   Task
	cancel context.CancelFunc
}

// Manager owns subagent config and the task map. Safe for concurrent use; one
// Manager is shared between the spawn tool and every background goroutine it
// launches.
type Manager struct {
	llm           agent.LLM
	registry      *toolkit.Registry
	model         string
	workspaceRoot string
	restrict      bool
	maxIterations int
	logger        *slog.Logger

	nextID atomic.Uint64
	mu     sync.RWMutex
	tasks  map[string]*taskEntry
}

// Config bundles Manager's construction-time dependencies.
type Config struct {
	LLM                 agent.LLM
	Registry            *toolkit.Registry
	Model               string
	WorkspaceRoot       string
	RestrictToWorkspace bool
	MaxIterations       int
	Logger              *slog.Logger
}

// NewManager builds a Manager with an empty task map.
func NewManager(cfg Config) *Manager {
	maxIter := cfg.MaxIterations
	if maxIter <= 0 {
		maxIter = agent.SubagentMaxIterations
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		llm:           cfg.LLM,
		registry:      cfg.Registry,
		model:         cfg.Model,
		workspaceRoot: cfg.WorkspaceRoot,
		restrict:      cfg.RestrictToWorkspace,
		maxIterations: maxIter,
		logger:        logger,
		tasks:         make(map[string]*taskEntry),
	}
}

// Spawn inserts a Running entry and launches a background goroutine running
// the agent loop with a subagent system prompt. Returns the task id
// immediately; never blocks.
func (m *Manager) Spawn(ctx context.Context, task, label string, chatID int64, outbound toolkit.OutboundSender, channel string) string {
	id := m.nextID.Add(1)
	taskID := fmt.Sprintf("subagent-%d", id)

	runCtx, cancel := context.WithCancel(ctx)

	entry := &taskEntry{
		info: Task{
			ID:        taskID,
			Label:     label,
			Task:      task,
			Status:    StatusRunning,
			CreatedAt: time.Now(),
		},
		cancel: cancel,
	}

	m.mu.Lock()
	m.tasks[taskID] = entry
	m.mu.Unlock()

	go m.run(runCtx, taskID, task, chatID, outbound, channel)

	return taskID
}

func (m *Manager) run(ctx context.Context, taskID, task string, chatID int64, outbound toolkit.OutboundSender, channel string) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("subagent panicked", "task_id", taskID, "recover", r)
			m.Complete(taskID, StatusFailed, fmt.Sprintf("panic: %v", r))
		}
	}()

	system := buildSubagentSystemPrompt(m.workspaceRoot, m.registry, m.logger, taskID)
	messages := []llmclient.Message{
		{Role: llmclient.RoleSystem, Content: system},
		{Role: llmclient.RoleUser, Content: task},
	}

	cid := chatID
	ch := channel
	tctx := toolkit.Ctx{
		Workspace:           m.workspaceRoot,
		RestrictToWorkspace: m.restrict,
		ChatID:              &cid,
		Channel:             &ch,
		Outbound:            outbound,
		Delivered:           new(atomic.Bool),
	}

	_, reply, err := agent.RunLoop(ctx, m.llm, m.registry, messages, tctx, m.model, m.maxIterations, m.logger)
	if err != nil {
		m.logger.Error("subagent failed", "task_id", taskID, "error", err)
		m.Complete(taskID, StatusFailed, err.Error())
		return
	}
	m.Complete(taskID, StatusCompleted, reply)
}

func buildSubagentSystemPrompt(workspaceRoot string, registry *toolkit.Registry, logger *slog.Logger, taskID string) string {
	system := "You are a subagent. Complete the given task independently and report the result.\n" +
		"You have access to tools - use them as needed to complete your task.\n" +
		"After completing the task, provide a clear summary of what was done.\n" +
		"Send your result to the user with the message tool.\n"

	if s, err := skills.BuildSummary(workspaceRoot); err != nil {
		logger.Warn("subagent skills summary failed", "task_id", taskID, "error", err)
	} else if s != "" {
		system += "\n--- Skills ---\n" + s + "\n"
	}

	summaries := registry.Summaries()
	if len(summaries) > 0 {
		system += "\n--- Tools ---\n"
		for _, line := range summaries {
			system += line + "\n"
		}
	}
	return system
}

// Complete marks a task terminal. Idempotent: a no-op if already terminal.
func (m *Manager) Complete(taskID string, status Status, result string) {
	m.mu.Lock()
	entry, ok := m.tasks[taskID]
	if ok {
		if entry.info.Status != StatusRunning {
			m.mu.Unlock()
			return
		}
		entry.info.Status = status
		entry.info.Result = result
		entry.cancel = nil
	}
	m.pruneLocked()
	m.mu.Unlock()
}

// Cancel aborts a Running task, marking it Cancelled. Returns true only if
// the task was Running.
func (m *Manager) Cancel(taskID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.tasks[taskID]
	if !ok || entry.info.Status != StatusRunning {
		return false
	}
	if entry.cancel != nil {
		entry.cancel()
		entry.cancel = nil
	}
	entry.info.Status = StatusCancelled
	entry.info.Result = "Cancelled"
	return true
}

// Get returns a snapshot of one task.
func (m *Manager) Get(taskID string) (Task, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.tasks[taskID]
	if !ok {
		return Task{}, false
	}
	return entry.info, true
}

// List returns snapshots of every tracked task.
func (m *Manager) List() []Task {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Task, 0, len(m.tasks))
	for _, e := range m.tasks {
		out = append(out, e.info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// pruneLocked drops the oldest non-Running entries once their count exceeds
// MaxCompletedTasks. Running entries are never evicted. Caller must hold mu.
func (m *Manager) pruneLocked() {
	type idTime struct {
		id string
		at time.Time
	}
	var nonRunning []idTime
	for id, e := range m.tasks {
		if e.info.Status != StatusRunning {
			nonRunning = append(nonRunning, idTime{id, e.info.CreatedAt})
		}
	}
	if len(nonRunning) <= MaxCompletedTasks {
		return
	}
	sort.Slice(nonRunning, func(i, j int) bool { return nonRunning[i].at.Before(nonRunning[j].at) })
	toRemove := len(nonRunning) - MaxCompletedTasks
	for _, it := range nonRunning[:toRemove] {
		delete(m.tasks, it.id)
	}
}
