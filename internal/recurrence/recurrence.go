// Package recurrence implements the RRULE subset used by calendar events
// and chores: FREQ, INTERVAL, BYDAY, COUNT, UNTIL.
package recurrence

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Freq int

const (
	Daily Freq = iota
	Weekly
	Monthly
	Yearly
)

var freqFromName = map[string]Freq{
	"DAILY":   Daily,
	"WEEKLY":  Weekly,
	"MONTHLY": Monthly,
	"YEARLY":  Yearly,
}

var dayFromName = map[string]time.Weekday{
	"SU": time.Sunday,
	"MO": time.Monday,
	"TU": time.Tuesday,
	"WE": time.Wednesday,
	"TH": time.Thursday,
	"FR": time.Friday,
	"SA": time.Saturday,
}

type Rule struct {
	Freq     Freq
	Interval int            // default 1; 2 = every other period
	ByDay    []time.Weekday // WEEKLY only: which days (empty = start's weekday)
	Count    int            // max occurrences (0 = unlimited)
	Until    *time.Time     // stop after this date (nil = no limit)
}

// Parse parses an RRULE string such as "FREQ=WEEKLY;INTERVAL=2;BYDAY=MO,TH".
func Parse(s string) (Rule, error) {
	rule := Rule{Interval: 1}
	if s == "" {
		return rule, fmt.Errorf("empty rule")
	}

	seenFreq := false
	for _, part := range strings.Split(s, ";") {
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			return rule, fmt.Errorf("malformed part %q", part)
		}
		switch strings.ToUpper(key) {
		case "FREQ":
			f, ok := freqFromName[strings.ToUpper(value)]
			if !ok {
				return rule, fmt.Errorf("unknown frequency %q", value)
			}
			rule.Freq = f
			seenFreq = true
		case "INTERVAL":
			n, err := strconv.Atoi(value)
			if err != nil || n < 1 {
				return rule, fmt.Errorf("invalid interval %q", value)
			}
			rule.Interval = n
		case "BYDAY":
			for _, d := range strings.Split(value, ",") {
				wd, ok := dayFromName[strings.ToUpper(strings.TrimSpace(d))]
				if !ok {
					return rule, fmt.Errorf("unknown day %q", d)
				}
				rule.ByDay = append(rule.ByDay, wd)
			}
		case "COUNT":
			n, err := strconv.Atoi(value)
			if err != nil || n < 1 {
				return rule, fmt.Errorf("invalid count %q", value)
			}
			rule.Count = n
		case "UNTIL":
			t, err := time.Parse("20060102", value)
			if err != nil {
				return rule, fmt.Errorf("invalid until %q", value)
			}
			end := t.Add(24*time.Hour - time.Second)
			rule.Until = &end
		default:
			// Unknown parts are ignored for forward compatibility.
		}
	}
	if !seenFreq {
		return rule, fmt.Errorf("missing FREQ")
	}
	return rule, nil
}

// Expand returns the occurrence start times of the rule anchored at start
// that fall within [from, to). Expansion is capped at 1000 occurrences.
func Expand(rule Rule, start, from, to time.Time) []time.Time {
	const maxOccurrences = 1000

	var out []time.Time
	produced := 0

	emit := func(t time.Time) bool {
		produced++
		if rule.Count > 0 && produced > rule.Count {
			return false
		}
		if rule.Until != nil && t.After(*rule.Until) {
			return false
		}
		if !t.Before(from) && t.Before(to) {
			out = append(out, t)
		}
		return produced < maxOccurrences && t.Before(to)
	}

	switch rule.Freq {
	case Daily:
		for t := start; ; t = t.AddDate(0, 0, rule.Interval) {
			if !emit(t) {
				break
			}
		}
	case Weekly:
		days := rule.ByDay
		if len(days) == 0 {
			days = []time.Weekday{start.Weekday()}
		}
		// Walk week by week from the start of the anchor's week.
		weekStart := start.AddDate(0, 0, -int(start.Weekday()))
		for w := weekStart; ; w = w.AddDate(0, 0, 7*rule.Interval) {
			done := false
			for d := 0; d < 7; d++ {
				t := w.AddDate(0, 0, d)
				if t.Before(start) {
					continue
				}
				if !containsWeekday(days, t.Weekday()) {
					continue
				}
				if !emit(t) {
					done = true
					break
				}
			}
			if done {
				break
			}
		}
	case Monthly:
		for i := 0; ; i += rule.Interval {
			if !emit(addMonthsClamped(start, i)) {
				break
			}
		}
	case Yearly:
		for t := start; ; t = t.AddDate(rule.Interval, 0, 0) {
			if !emit(t) {
				break
			}
		}
	}
	return out
}

func containsWeekday(days []time.Weekday, d time.Weekday) bool {
	for _, day := range days {
		if day == d {
			return true
		}
	}
	return false
}

// addMonthsClamped adds months to start, clamping the day of month so
// Jan 31 + 1 month yields Feb 28/29 rather than Mar 2/3.
func addMonthsClamped(start time.Time, months int) time.Time {
	y, m, d := start.Date()
	first := time.Date(y, m+time.Month(months), 1, start.Hour(), start.Minute(), start.Second(), 0, start.Location())
	lastDay := first.AddDate(0, 1, -1).Day()
	if d > lastDay {
		d = lastDay
	}
	return time.Date(first.Year(), first.Month(), d, start.Hour(), start.Minute(), start.Second(), 0, start.Location())
}
