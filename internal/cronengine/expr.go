// Package cronengine implements schedule parsing, next-fire computation, and
// the persistent job list for scheduled jobs (SPEC_FULL.md §4.4), ported
// directly from original_source/src/tools/cron.rs's parse_field/
// parse_cron_expr/next_match/next_matching_month/next_hour_in_expr — deliberately
// not github.com/robfig/cron/v3, which only supports traditional OR semantics
// between day-of-month and day-of-week (see DESIGN.md).
package cronengine

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// LimitYears bounds the next-match search horizon.
const LimitYears = 4

// Expr is a parsed 5-field cron expression.
type Expr struct {
	Minutes []int
	Hours   []int
	Doms    []int
	Months  []int
	Dows    []int
}

func contains(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

func parseField(token string, min, max int) ([]int, error) {
	var out []int
	for _, part := range strings.Split(token, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if part == "*" {
			for v := min; v <= max; v++ {
				out = append(out, v)
			}
			continue
		}
		if rest, ok := strings.CutPrefix(part, "*/"); ok {
			step, err := strconv.Atoi(rest)
			if err != nil {
				return nil, fmt.Errorf("invalid step")
			}
			if step <= 0 {
				return nil, fmt.Errorf("step must be positive")
			}
			for v := min; v <= max; v += step {
				out = append(out, v)
			}
			continue
		}
		if strings.Contains(part, "-") {
			rangeParts := strings.SplitN(part, "-", 2)
			start, err := strconv.Atoi(strings.TrimSpace(rangeParts[0]))
			if err != nil {
				return nil, fmt.Errorf("invalid range start")
			}
			endField := strings.TrimSpace(rangeParts[1])
			step := 1
			endStr := endField
			if idx := strings.Index(endField, "/"); idx >= 0 {
				endStr = endField[:idx]
				s, err := strconv.Atoi(endField[idx+1:])
				if err != nil {
					return nil, fmt.Errorf("invalid step")
				}
				step = s
			}
			end, err := strconv.Atoi(endStr)
			if err != nil {
				return nil, fmt.Errorf("invalid range end")
			}
			if start > end {
				return nil, fmt.Errorf("range start > end")
			}
			if start < min || end > max {
				return nil, fmt.Errorf("range out of bounds")
			}
			for v := start; v <= end; v += step {
				out = append(out, v)
			}
			continue
		}
		single, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid number")
		}
		if single < min || single > max {
			return nil, fmt.Errorf("value out of range")
		}
		out = append(out, single)
	}
	sort.Ints(out)
	out = dedup(out)
	if len(out) == 0 {
		return nil, fmt.Errorf("empty field")
	}
	return out, nil
}

func dedup(xs []int) []int {
	out := xs[:0]
	var last int
	first := true
	for _, x := range xs {
		if first || x != last {
			out = append(out, x)
			last = x
			first = false
		}
	}
	return out
}

// ParseExpr parses a 5-field "minute hour dom month dow" expression.
func ParseExpr(expr string) (*Expr, error) {
	tokens := strings.Fields(expr)
	if len(tokens) != 5 {
		return nil, fmt.Errorf("cron expression must have exactly 5 fields (minute hour dom month dow)")
	}
	minutes, err := parseField(tokens[0], 0, 59)
	if err != nil {
		return nil, err
	}
	hours, err := parseField(tokens[1], 0, 23)
	if err != nil {
		return nil, err
	}
	doms, err := parseField(tokens[2], 1, 31)
	if err != nil {
		return nil, err
	}
	months, err := parseField(tokens[3], 1, 12)
	if err != nil {
		return nil, err
	}
	dows, err := parseField(tokens[4], 0, 6)
	if err != nil {
		return nil, err
	}
	return &Expr{Minutes: minutes, Hours: hours, Doms: doms, Months: months, Dows: dows}, nil
}

// NextMatch finds the next unix timestamp strictly after afterUnix that
// matches expr, within LimitYears. Both day-of-month and day-of-week must
// match (AND semantics, not the traditional cron OR).
func NextMatch(expr *Expr, afterUnix int64) (int64, bool) {
	startSecs := (afterUnix/60 + 1) * 60
	dt := time.Unix(startSecs, 0).UTC()
	limit := dt.Year() + LimitYears

	for dt.Year() <= limit {
		month := int(dt.Month())
		if !contains(expr.Months, month) {
			next, ok := nextMatchingMonth(dt, expr)
			if !ok {
				return 0, false
			}
			dt = next
			continue
		}
		dom := dt.Day()
		dow := int(dt.Weekday())
		if !contains(expr.Doms, dom) || !contains(expr.Dows, dow) {
			dt = time.Date(dt.Year(), dt.Month(), dt.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
			continue
		}
		hour := dt.Hour()
		if !contains(expr.Hours, hour) {
			if h, ok := firstAtLeast(expr.Hours, hour); ok {
				dt = time.Date(dt.Year(), dt.Month(), dt.Day(), h, 0, 0, 0, time.UTC)
			} else {
				dt = time.Date(dt.Year(), dt.Month(), dt.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
			}
			continue
		}
		minute := dt.Minute()
		if !contains(expr.Minutes, minute) {
			if m, ok := firstAtLeast(expr.Minutes, minute); ok {
				dt = time.Date(dt.Year(), dt.Month(), dt.Day(), hour, m, 0, 0, time.UTC)
			} else {
				nextDate, nextHour := nextHourInExpr(dt, expr)
				dt = time.Date(nextDate.Year(), nextDate.Month(), nextDate.Day(), nextHour, expr.Minutes[0], 0, 0, time.UTC)
			}
			continue
		}
		return dt.Unix(), true
	}
	return 0, false
}

func firstAtLeast(xs []int, v int) (int, bool) {
	for _, x := range xs {
		if x >= v {
			return x, true
		}
	}
	return 0, false
}

func nextMatchingMonth(dt time.Time, expr *Expr) (time.Time, bool) {
	y, m := dt.Year(), int(dt.Month())
	for i := 0; i < 24; i++ {
		if contains(expr.Months, m) {
			return time.Date(y, time.Month(m), 1, 0, 0, 0, 0, time.UTC), true
		}
		m++
		if m > 12 {
			m = 1
			y++
		}
	}
	return time.Time{}, false
}

func nextHourInExpr(dt time.Time, expr *Expr) (time.Time, int) {
	date := time.Date(dt.Year(), dt.Month(), dt.Day(), 0, 0, 0, 0, time.UTC)
	hour := dt.Hour()
	for {
		if h, ok := firstGreater(expr.Hours, hour); ok {
			return date, h
		}
		date = date.AddDate(0, 0, 1)
		hour = 0
		if len(expr.Hours) > 0 {
			return date, expr.Hours[0]
		}
	}
}

func firstGreater(xs []int, v int) (int, bool) {
	for _, x := range xs {
		if x > v {
			return x, true
		}
	}
	return 0, false
}
