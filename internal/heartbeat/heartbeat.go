// Package heartbeat implements the heartbeat runner (C9): a tick loop that
// reads a markdown task list and pushes one dispatcher message per bullet,
// grounded in original_source/src/heartbeat.rs.
package heartbeat

import (
	"context"
	"os"
	"strings"
	"time"
)

// bulletPrefix marks a heartbeat task line.
const bulletPrefix = "- "

// ParseTasks extracts bullet-list tasks: lines whose trimmed form starts with
// "- ", with the remainder trimmed and blank remainders dropped.
func ParseTasks(content string) []string {
	var tasks []string
	for _, line := range strings.Split(content, "\n") {
		rest, ok := strings.CutPrefix(strings.TrimSpace(line), bulletPrefix)
		if !ok {
			continue
		}
		task := strings.TrimSpace(rest)
		if task == "" {
			continue
		}
		tasks = append(tasks, task)
	}
	return tasks
}

// ReadTasks reads and parses path's heartbeat task file. A missing file
// yields an empty slice rather than an error — heartbeat ticks tolerate an
// unconfigured task list.
func ReadTasks(path string) []string {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	return ParseTasks(string(content))
}

// Sink is the subset of dispatch.Dispatcher the runner needs: enqueue a
// message and learn the last-known active chat.
type Sink interface {
	TrySend(msg SinkMessage) bool
	LastChatID() int64
}

// SinkMessage mirrors dispatch.Inbound's shape without importing that
// package, matching the cycle-avoidance pattern internal/cronengine uses.
type SinkMessage struct {
	ChatID  int64
	UserID  int64
	Text    string
	Channel string
}

const channelHeartbeat = "heartbeat"

// Tick reads path's tasks and pushes one SinkMessage per task, targeted at
// sink's last-known active chat. A tick with no tasks is a no-op.
func Tick(path string, sink Sink) {
	tasks := ReadTasks(path)
	if len(tasks) == 0 {
		return
	}
	chatID := sink.LastChatID()
	for _, task := range tasks {
		sink.TrySend(SinkMessage{
			ChatID:  chatID,
			UserID:  0,
			Text:    "[Heartbeat Task] " + task,
			Channel: channelHeartbeat,
		})
	}
}

// Run fires Tick every interval until ctx is cancelled. The first tick after
// startup is skipped so the first real tick lands one full interval out,
// matching the original's tokio::interval + an initial discarded tick.
func Run(ctx context.Context, path string, interval time.Duration, sink Sink) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			Tick(path, sink)
		}
	}
}
