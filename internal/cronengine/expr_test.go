package cronengine

import (
	"testing"
	"time"
)

func TestParseFieldStar(t *testing.T) {
	expr, err := ParseExpr("* * * * *")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(expr.Minutes) != 60 || len(expr.Hours) != 24 || len(expr.Doms) != 31 || len(expr.Months) != 12 || len(expr.Dows) != 7 {
		t.Fatalf("unexpected field sizes: %+v", expr)
	}
}

func TestParseExprRejectsWrongFieldCount(t *testing.T) {
	if _, err := ParseExpr("* * * *"); err == nil {
		t.Fatalf("expected error for 4-field expression")
	}
}

func TestParseFieldStep(t *testing.T) {
	expr, err := ParseExpr("*/15 * * * *")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int{0, 15, 30, 45}
	if len(expr.Minutes) != len(want) {
		t.Fatalf("got %v want %v", expr.Minutes, want)
	}
	for i, v := range want {
		if expr.Minutes[i] != v {
			t.Fatalf("got %v want %v", expr.Minutes, want)
		}
	}
}

func TestNextMatchBasicDailyTime(t *testing.T) {
	expr, err := ParseExpr("30 9 * * *")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	after := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Unix()
	got, ok := NextMatch(expr, after)
	if !ok {
		t.Fatalf("expected a match")
	}
	want := time.Date(2026, 1, 1, 9, 30, 0, 0, time.UTC).Unix()
	if got != want {
		t.Fatalf("got %d want %d", got, want)
	}
}

func TestNextMatchAndSemanticsBetweenDomAndDow(t *testing.T) {
	// Day 15 of any month AND must be a Monday — AND semantics, not OR.
	expr, err := ParseExpr("0 0 15 * 1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	after := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Unix()
	got, ok := NextMatch(expr, after)
	if !ok {
		t.Fatalf("expected eventual match within horizon")
	}
	matchTime := time.Unix(got, 0).UTC()
	if matchTime.Day() != 15 || matchTime.Weekday() != time.Monday {
		t.Fatalf("expected day 15 AND Monday, got %v (weekday %v)", matchTime, matchTime.Weekday())
	}
}

func TestNextMatchNoMatchWithinHorizonReturnsFalse(t *testing.T) {
	// Feb 30th never exists.
	expr, err := ParseExpr("0 0 30 2 *")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	after := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Unix()
	if _, ok := NextMatch(expr, after); ok {
		t.Fatalf("expected no match for an impossible date")
	}
}

func TestScheduleNextFireAfterOnce(t *testing.T) {
	s := Schedule{Kind: ScheduleOnce, AtUnix: 1000}
	if v, ok := s.NextFireAfter(500); !ok || v != 1000 {
		t.Fatalf("expected 1000,true got %d,%v", v, ok)
	}
	if _, ok := s.NextFireAfter(1000); ok {
		t.Fatalf("expected no further fire once past at_unix")
	}
}

func TestScheduleNextFireAfterInterval(t *testing.T) {
	s := Schedule{Kind: ScheduleInterval, EverySeconds: 60}
	v, ok := s.NextFireAfter(1000)
	if !ok || v != 1060 {
		t.Fatalf("expected 1060,true got %d,%v", v, ok)
	}
}

func TestParseDelayUnits(t *testing.T) {
	cases := map[string]int64{
		"30s": 30,
		"5m":  300,
		"2h":  7200,
		"1d":  86400,
		"1w":  604800,
		"10":  600, // bare number defaults to minutes
	}
	for in, want := range cases {
		got, err := ParseDelay(in)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", in, err)
		}
		if got != want {
			t.Fatalf("%s: got %d want %d", in, got, want)
		}
	}
}
