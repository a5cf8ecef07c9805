// Package workspace resolves the fixed paths the kernel reads and writes under
// the configured workspace root.
package workspace

import (
	"path/filepath"
	"time"
)

// BrainDBPath returns the path to the embedded session/vault database.
func BrainDBPath(root string) string {
	return filepath.Join(root, ".icrab", "brain.db")
}

// CronJobsPath returns the path to the cron job store.
func CronJobsPath(root string) string {
	return filepath.Join(root, "cron", "jobs.json")
}

// HeartbeatPath returns the path to the heartbeat task file.
func HeartbeatPath(root string) string {
	return filepath.Join(root, "HEARTBEAT.md")
}

// BootstrapPath returns the path to one of the named bootstrap files
// (AGENT.md, USER.md, IDENTITY.md).
func BootstrapPath(root, name string) string {
	return filepath.Join(root, name)
}

// MemoryFilePath returns the path to MEMORY.md.
func MemoryFilePath(root string) string {
	return filepath.Join(root, "memory", "MEMORY.md")
}

// DailyLogPath returns the path to a YYYYMMDD.md daily log note under memory/YYYYMM/.
func DailyLogPath(root string, day time.Time) string {
	return filepath.Join(root, "memory", day.Format("200601"), day.Format("20060102")+".md")
}

// SkillsDir returns the skills root directory.
func SkillsDir(root string) string {
	return filepath.Join(root, "skills")
}

// ConfigPath returns the daemon's own configuration file path.
func ConfigPath(root string) string {
	return filepath.Join(root, "config.yaml")
}

// TodayYYYYMMDD renders the current date for the given location, falling
// back to UTC when loc is nil.
func TodayYYYYMMDD(loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return time.Now().In(loc).Format("20060102")
}
