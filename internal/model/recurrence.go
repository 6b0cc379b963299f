package model

import (
	"sort"
	"time"
)

type RuleType string

const (
	RuleDaily  RuleType = "daily"
	RuleWeekly RuleType = "weekly"
)

// RecurrenceRule is a declarative repeat pattern. Interval defaults to 1
// when zero or negative. Weekdays are 0 (Sunday) through 6 (Saturday) and
// only apply to weekly rules.
type RecurrenceRule struct {
	Type     RuleType
	Interval int
	Weekdays []int
}

func (r *RecurrenceRule) clone() *RecurrenceRule {
	if r == nil {
		return nil
	}
	out := *r
	out.Weekdays = append([]int(nil), r.Weekdays...)
	return &out
}

func (r RecurrenceRule) interval() int {
	if r.Interval > 0 {
		return r.Interval
	}
	return 1
}

// NextOccurrence computes the occurrence strictly after from, preserving
// from's time-of-day. It never returns from itself. An unrecognized rule
// type yields ok=false: no further occurrences.
func NextOccurrence(r RecurrenceRule, from time.Time) (time.Time, bool) {
	n := r.interval()
	switch r.Type {
	case RuleDaily:
		return from.AddDate(0, 0, n), true
	case RuleWeekly:
		days := validWeekdays(r.Weekdays)
		if len(days) == 0 {
			return from.AddDate(0, 0, 7*n), true
		}
		wd := int(from.Weekday())
		for _, d := range days {
			if d > wd {
				return from.AddDate(0, 0, d-wd), true
			}
		}
		// No later weekday this week: wrap to the smallest allowed
		// weekday, n full weeks out from from's weekday.
		return from.AddDate(0, 0, 7*n-wd+days[0]), true
	default:
		return time.Time{}, false
	}
}

func validWeekdays(days []int) []int {
	out := make([]int, 0, len(days))
	seen := make(map[int]bool, len(days))
	for _, d := range days {
		if d < 0 || d > 6 || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	sort.Ints(out)
	return out
}
