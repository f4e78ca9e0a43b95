package mailparse

import (
	"testing"
	"time"
)

var parseNow = time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)

func TestParseBulletedItems(t *testing.T) {
	body := "Hi!\n\nPlease grab:\n- milk\n* 2 lbs chicken\n• eggs\n1. bread\n2) 3 x apples\n- 3 grapes\n\nThanks"
	res := Parse("Groceries", body, parseNow)

	if len(res.Items) != 6 {
		t.Fatalf("got %d items, want 6: %+v", len(res.Items), res.Items)
	}

	if res.Items[0].Name != "milk" || res.Items[0].Quantity != "" {
		t.Errorf("item 0 = %+v, want bare milk", res.Items[0])
	}
	if res.Items[1].Name != "chicken" || res.Items[1].Quantity != "2" || res.Items[1].Unit != "lbs" {
		t.Errorf("item 1 = %+v, want 2 lbs chicken", res.Items[1])
	}
	// "x" is a multiplier, not a unit, and not part of the name.
	if res.Items[4].Name != "apples" || res.Items[4].Quantity != "3" || res.Items[4].Unit != "" {
		t.Errorf("item 4 = %+v, want 3 apples", res.Items[4])
	}
	// A name starting with a unit letter keeps its first character.
	if res.Items[5].Name != "grapes" || res.Items[5].Quantity != "3" || res.Items[5].Unit != "" {
		t.Errorf("item 5 = %+v, want 3 grapes", res.Items[5])
	}
}

func TestParseIgnoresProse(t *testing.T) {
	body := "Just checking in about the weekend.\nNothing to add here."
	res := Parse("Hello", body, parseNow)

	if len(res.Items) != 0 || len(res.Events) != 0 {
		t.Fatalf("prose produced %d items, %d events", len(res.Items), len(res.Events))
	}
}

func TestParseSlashDateEvent(t *testing.T) {
	res := Parse("Fwd: school", "Parent-teacher conference 9/15 at 3:30pm", parseNow)

	if len(res.Events) != 1 {
		t.Fatalf("got %d events, want 1: %+v", len(res.Events), res.Events)
	}
	ev := res.Events[0]
	if ev.Title != "Parent-teacher conference" {
		t.Errorf("title = %q", ev.Title)
	}
	want := time.Date(2026, 9, 15, 15, 30, 0, 0, time.UTC)
	if !ev.Start.Equal(want) {
		t.Errorf("start = %v, want %v", ev.Start, want)
	}
	if !ev.End.Equal(want.Add(time.Hour)) {
		t.Errorf("end = %v, want start+1h", ev.End)
	}
}

func TestParseMonthNameDate(t *testing.T) {
	res := Parse("Fwd: dentist", "Dentist appointment Sep 3 at 10am", parseNow)

	if len(res.Events) != 1 {
		t.Fatalf("got %d events, want 1", len(res.Events))
	}
	want := time.Date(2026, 9, 3, 10, 0, 0, 0, time.UTC)
	if !res.Events[0].Start.Equal(want) {
		t.Errorf("start = %v, want %v", res.Events[0].Start, want)
	}
}

// A date with no year that has already passed lands in the next year.
func TestParsePastDateRollsForward(t *testing.T) {
	res := Parse("Fwd: party", "Birthday party 1/14 at 2pm", parseNow)

	if len(res.Events) != 1 {
		t.Fatalf("got %d events, want 1", len(res.Events))
	}
	if y := res.Events[0].Start.Year(); y != 2027 {
		t.Errorf("year = %d, want 2027", y)
	}
}

func TestParseExplicitYear(t *testing.T) {
	res := Parse("Fwd: reunion", "Family reunion 1/14/2026", parseNow)

	if len(res.Events) != 1 {
		t.Fatalf("got %d events, want 1", len(res.Events))
	}
	want := time.Date(2026, 1, 14, 9, 0, 0, 0, time.UTC)
	if !res.Events[0].Start.Equal(want) {
		t.Errorf("start = %v, want explicit 2026 at default 9am", res.Events[0].Start)
	}
}

// When stripping the date leaves nothing, the subject becomes the title.
func TestParseTitleFallsBackToSubject(t *testing.T) {
	res := Parse("Soccer practice", "9/20 @ 5pm", parseNow)

	if len(res.Events) != 1 {
		t.Fatalf("got %d events, want 1", len(res.Events))
	}
	if res.Events[0].Title != "Soccer practice" {
		t.Errorf("title = %q, want subject fallback", res.Events[0].Title)
	}
}

func TestParseMixedBody(t *testing.T) {
	body := "Soccer game 9/12 at 1pm\n- juice boxes\n- orange slices"
	res := Parse("Fwd: team snacks", body, parseNow)

	if len(res.Events) != 1 {
		t.Fatalf("got %d events, want 1", len(res.Events))
	}
	if len(res.Items) != 2 {
		t.Fatalf("got %d items, want 2", len(res.Items))
	}
}

func TestParseInvalidDatesSkipped(t *testing.T) {
	res := Parse("Fwd: stats", "The score was 13/45 last night", parseNow)

	if len(res.Events) != 0 {
		t.Fatalf("invalid date produced events: %+v", res.Events)
	}
}
