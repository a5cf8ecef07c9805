package cronengine

import (
	"testing"
	"time"
)

type recordingSink struct {
	messages []DispatchMessage
	reject   bool
}

func (s *recordingSink) TrySend(m DispatchMessage) bool {
	if s.reject {
		return false
	}
	s.messages = append(s.messages, m)
	return true
}

func TestTickOnceFiresDueJobAndMarksFired(t *testing.T) {
	dir := t.TempDir()
	store, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	job, err := store.Add("", "hello", ActionDirect, Schedule{Kind: ScheduleInterval, EverySeconds: 60}, 42)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	// Force due by rewinding next_run into the past via a prior fire.
	store.MarkFired(job.ID, time.Now().Add(-2*time.Minute).Unix())

	sink := &recordingSink{}
	TickOnce(store, sink, nil)

	if len(sink.messages) != 1 {
		t.Fatalf("expected exactly one dispatched message, got %v", sink.messages)
	}
	if sink.messages[0].ChatID != 42 || sink.messages[0].Text != "hello" || sink.messages[0].Channel != "cron" {
		t.Fatalf("unexpected dispatched message: %+v", sink.messages[0])
	}

	if len(store.FindDue(time.Now().Unix())) != 0 {
		t.Fatalf("expected job to no longer be due immediately after firing")
	}
}

func TestTickOnceDropsOnFullSinkWithoutClearingDueState(t *testing.T) {
	dir := t.TempDir()
	store, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	job, err := store.Add("", "hello", ActionDirect, Schedule{Kind: ScheduleInterval, EverySeconds: 60}, 1)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	store.MarkFired(job.ID, time.Now().Add(-2*time.Minute).Unix())
	before, _ := store.Get(job.ID)

	sink := &recordingSink{reject: true}
	TickOnce(store, sink, nil)

	after, _ := store.Get(job.ID)
	if *after.NextRun != *before.NextRun {
		t.Fatalf("expected next_run unchanged when sink rejects, before=%d after=%d", *before.NextRun, *after.NextRun)
	}
}
