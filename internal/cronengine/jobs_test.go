package cronengine

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Snehal-Reddy/iCrab/internal/workspace"
)

func TestAddRejectsShortInterval(t *testing.T) {
	store, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	_, err = store.Add("", "ping", ActionDirect, Schedule{Kind: ScheduleInterval, EverySeconds: 30}, 1)
	if err == nil {
		t.Fatalf("expected rejection of interval < 60s")
	}
}

func TestAddRejectsPastOnce(t *testing.T) {
	store, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	_, err = store.Add("", "ping", ActionDirect, Schedule{Kind: ScheduleOnce, AtUnix: 1}, 1)
	if err == nil {
		t.Fatalf("expected rejection of a past Once time")
	}
}

func TestAddPersistsAtomically(t *testing.T) {
	dir := t.TempDir()
	store, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	job, err := store.Add("label", "ping", ActionDirect, Schedule{Kind: ScheduleInterval, EverySeconds: 120}, 7)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if job.ID != "job-1" {
		t.Fatalf("expected first job id job-1, got %s", job.ID)
	}

	data, err := os.ReadFile(workspace.CronJobsPath(dir))
	if err != nil {
		t.Fatalf("read jobs file: %v", err)
	}
	var onDisk []Job
	if err := json.Unmarshal(data, &onDisk); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(onDisk) != 1 || onDisk[0].ID != "job-1" {
		t.Fatalf("unexpected on-disk jobs: %+v", onDisk)
	}
	if _, err := os.Stat(filepath.Join(dir, "cron", "jobs.json.tmp")); !os.IsNotExist(err) {
		t.Fatalf("expected tmp file to be renamed away, stat err: %v", err)
	}
}

func TestFindDueAndMarkFiredOnceDisables(t *testing.T) {
	dir := t.TempDir()
	store, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	future := time.Now().Add(2 * time.Hour).Unix()
	job, err := store.Add("", "ping", ActionDirect, Schedule{Kind: ScheduleOnce, AtUnix: future}, 1)
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	// Not due yet.
	if due := store.FindDue(time.Now().Unix()); len(due) != 0 {
		t.Fatalf("expected no due jobs yet, got %v", due)
	}

	// Simulate time passing past the fire time.
	store.MarkFired(job.ID, future+1)
	got, ok := store.Get(job.ID)
	if !ok {
		t.Fatalf("expected job to still exist")
	}
	if got.Enabled {
		t.Fatalf("expected Once job to be disabled after firing")
	}
	if got.NextRun != nil {
		t.Fatalf("expected nil next_run after Once fires, got %v", *got.NextRun)
	}
}

func TestEnableDisableRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	job, err := store.Add("", "ping", ActionDirect, Schedule{Kind: ScheduleInterval, EverySeconds: 120}, 1)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !store.Disable(job.ID) {
		t.Fatalf("expected disable to succeed")
	}
	got, _ := store.Get(job.ID)
	if got.Enabled || got.NextRun != nil {
		t.Fatalf("expected disabled job to have nil next_run, got %+v", got)
	}
	if !store.Enable(job.ID) {
		t.Fatalf("expected enable to succeed")
	}
	got, _ = store.Get(job.ID)
	if !got.Enabled || got.NextRun == nil {
		t.Fatalf("expected enabled job to have a next_run, got %+v", got)
	}
}

func TestLoadResumesIDCounterFromExistingFile(t *testing.T) {
	dir := t.TempDir()
	store, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := store.Add("", "a", ActionDirect, Schedule{Kind: ScheduleInterval, EverySeconds: 60}, 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := store.Add("", "b", ActionDirect, Schedule{Kind: ScheduleInterval, EverySeconds: 60}, 1); err != nil {
		t.Fatalf("add: %v", err)
	}

	reloaded, err := Load(dir)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	job, err := reloaded.Add("", "c", ActionDirect, Schedule{Kind: ScheduleInterval, EverySeconds: 60}, 1)
	if err != nil {
		t.Fatalf("add after reload: %v", err)
	}
	if job.ID != "job-3" {
		t.Fatalf("expected id counter to resume at job-3, got %s", job.ID)
	}
}
