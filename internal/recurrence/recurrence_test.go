package recurrence

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 9, 0, 0, 0, time.UTC)
}

func TestParse(t *testing.T) {
	rule, err := Parse("FREQ=WEEKLY;INTERVAL=2;BYDAY=MO,TH")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if rule.Freq != Weekly {
		t.Errorf("freq = %v, want Weekly", rule.Freq)
	}
	if rule.Interval != 2 {
		t.Errorf("interval = %d, want 2", rule.Interval)
	}
	if len(rule.ByDay) != 2 || rule.ByDay[0] != time.Monday || rule.ByDay[1] != time.Thursday {
		t.Errorf("byday = %v, want [Monday Thursday]", rule.ByDay)
	}
}

func TestParseDefaults(t *testing.T) {
	rule, err := Parse("FREQ=DAILY")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if rule.Interval != 1 {
		t.Errorf("interval = %d, want default 1", rule.Interval)
	}
	if rule.Count != 0 || rule.Until != nil {
		t.Errorf("expected unbounded rule, got count=%d until=%v", rule.Count, rule.Until)
	}
}

func TestParseUntilIsEndOfDay(t *testing.T) {
	rule, err := Parse("FREQ=DAILY;UNTIL=20260831")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if rule.Until == nil {
		t.Fatal("until not set")
	}
	if rule.Until.Day() != 31 || rule.Until.Hour() != 23 {
		t.Errorf("until = %v, want end of Aug 31", rule.Until)
	}
}

func TestParseIgnoresUnknownParts(t *testing.T) {
	if _, err := Parse("FREQ=DAILY;WKST=MO"); err != nil {
		t.Fatalf("unknown parts should be ignored, got %v", err)
	}
}

func TestParseErrors(t *testing.T) {
	for _, s := range []string{
		"",
		"INTERVAL=2",          // missing FREQ
		"FREQ=FORTNIGHTLY",    // unknown frequency
		"FREQ=DAILY;INTERVAL=0",
		"FREQ=WEEKLY;BYDAY=XX",
		"FREQ=DAILY;COUNT=0",
		"FREQ=DAILY;UNTIL=tomorrow",
		"FREQ",
	} {
		if _, err := Parse(s); err == nil {
			t.Errorf("Parse(%q) should fail", s)
		}
	}
}

func TestExpandDaily(t *testing.T) {
	rule, _ := Parse("FREQ=DAILY;INTERVAL=2")
	start := date(2026, 8, 1)

	got := Expand(rule, start, date(2026, 8, 1), date(2026, 8, 8))
	want := []time.Time{date(2026, 8, 1), date(2026, 8, 3), date(2026, 8, 5), date(2026, 8, 7)}
	if len(got) != len(want) {
		t.Fatalf("got %d occurrences, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("occurrence %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestExpandWeeklyByDay(t *testing.T) {
	rule, _ := Parse("FREQ=WEEKLY;BYDAY=MO,FR")
	// Saturday Aug 1 2026; first matching days are Mon Aug 3 and Fri Aug 7.
	start := date(2026, 8, 1)

	got := Expand(rule, start, date(2026, 8, 1), date(2026, 8, 11))
	want := []time.Time{date(2026, 8, 3), date(2026, 8, 7), date(2026, 8, 10)}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("occurrence %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestExpandWeeklyDefaultsToStartWeekday(t *testing.T) {
	rule, _ := Parse("FREQ=WEEKLY")
	start := date(2026, 8, 5) // Wednesday

	got := Expand(rule, start, date(2026, 8, 1), date(2026, 8, 20))
	if len(got) != 3 {
		t.Fatalf("got %d occurrences, want 3: %v", len(got), got)
	}
	for _, occ := range got {
		if occ.Weekday() != time.Wednesday {
			t.Errorf("occurrence %v is not a Wednesday", occ)
		}
	}
}

func TestExpandCount(t *testing.T) {
	rule, _ := Parse("FREQ=DAILY;COUNT=3")
	start := date(2026, 8, 1)

	got := Expand(rule, start, date(2026, 8, 1), date(2026, 9, 1))
	if len(got) != 3 {
		t.Fatalf("got %d occurrences, want COUNT=3: %v", len(got), got)
	}
}

func TestExpandUntil(t *testing.T) {
	rule, _ := Parse("FREQ=DAILY;UNTIL=20260803")
	start := date(2026, 8, 1)

	got := Expand(rule, start, date(2026, 8, 1), date(2026, 9, 1))
	if len(got) != 3 {
		t.Fatalf("got %d occurrences, want 3 through Aug 3: %v", len(got), got)
	}
}

func TestExpandMonthlyClampsDay(t *testing.T) {
	rule, _ := Parse("FREQ=MONTHLY")
	start := date(2026, 1, 31)

	got := Expand(rule, start, date(2026, 1, 1), date(2026, 4, 1))
	want := []time.Time{date(2026, 1, 31), date(2026, 2, 28), date(2026, 3, 31)}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("occurrence %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestExpandYearly(t *testing.T) {
	rule, _ := Parse("FREQ=YEARLY")
	start := date(2026, 8, 24)

	got := Expand(rule, start, date(2027, 1, 1), date(2029, 1, 1))
	if len(got) != 2 {
		t.Fatalf("got %d occurrences, want 2: %v", len(got), got)
	}
	if got[0].Year() != 2027 || got[1].Year() != 2028 {
		t.Errorf("years = %d, %d, want 2027, 2028", got[0].Year(), got[1].Year())
	}
}

func TestExpandWindowBeforeStart(t *testing.T) {
	rule, _ := Parse("FREQ=DAILY")
	start := date(2026, 8, 10)

	got := Expand(rule, start, date(2026, 8, 1), date(2026, 8, 5))
	if len(got) != 0 {
		t.Fatalf("got %v, want none before the anchor", got)
	}
}
