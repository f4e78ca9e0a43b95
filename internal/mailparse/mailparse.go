// Package mailparse extracts shopping items and calendar events from
// forwarded email text. Extraction is rule-based: bulleted or line-item
// text becomes shopping items, lines with a recognizable date become
// events.
package mailparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Item is a shopping item candidate extracted from the email body.
type Item struct {
	Name     string
	Quantity string
	Unit     string
}

// Event is a calendar event candidate extracted from the email body.
type Event struct {
	Title string
	Start time.Time
	End   time.Time
}

// Result holds everything extracted from one email.
type Result struct {
	Items  []Item
	Events []Event
}

var (
	bulletRe = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s+(.+)$`)
	// "2 lbs chicken", "3 x milk", "12 eggs"
	quantityRe = regexp.MustCompile(`(?i)^(\d+(?:\.\d+)?)\s*(x|lbs?|oz|kg|g|l|ml|dozen|pack|cans?|bottles?|boxes?)?\s+(.+)$`)
	// "1/14", "1/14/2026", "Jan 14", "January 14"
	slashDateRe = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})(?:/(\d{2,4}))?\b`)
	monthDateRe = regexp.MustCompile(`(?i)\b(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+(\d{1,2})\b`)
	timeRe      = regexp.MustCompile(`(?i)\b(\d{1,2})(?::(\d{2}))?\s*(am|pm)\b`)
)

var monthFromAbbrev = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// Parse scans the email body line by line. now anchors relative dates:
// a date without a year is placed in the current year, or the next one
// if it has already passed.
func Parse(subject, body string, now time.Time) Result {
	var res Result

	for _, raw := range strings.Split(body, "\n") {
		line := strings.TrimRight(raw, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		if start, ok := parseDate(line, now); ok {
			title := eventTitle(line, subject)
			if title != "" {
				res.Events = append(res.Events, Event{
					Title: title,
					Start: start,
					End:   start.Add(time.Hour),
				})
				continue
			}
		}

		if m := bulletRe.FindStringSubmatch(line); m != nil {
			res.Items = append(res.Items, parseItem(m[1]))
		}
	}

	return res
}

func parseItem(text string) Item {
	text = strings.TrimSpace(text)
	if m := quantityRe.FindStringSubmatch(text); m != nil {
		unit := strings.ToLower(m[2])
		// "3 x apples" is a multiplier, not a unit.
		if unit == "x" {
			unit = ""
		}
		return Item{
			Name:     strings.TrimSpace(m[3]),
			Quantity: m[1],
			Unit:     unit,
		}
	}
	return Item{Name: text}
}

// parseDate finds the first date in the line and combines it with a time
// of day if present (defaulting to 09:00).
func parseDate(line string, now time.Time) (time.Time, bool) {
	var month time.Month
	var day, year int

	if m := slashDateRe.FindStringSubmatch(line); m != nil {
		mm, _ := strconv.Atoi(m[1])
		dd, _ := strconv.Atoi(m[2])
		if mm < 1 || mm > 12 || dd < 1 || dd > 31 {
			return time.Time{}, false
		}
		month, day = time.Month(mm), dd
		if m[3] != "" {
			year, _ = strconv.Atoi(m[3])
			if year < 100 {
				year += 2000
			}
		}
	} else if m := monthDateRe.FindStringSubmatch(line); m != nil {
		month = monthFromAbbrev[strings.ToLower(m[1])]
		day, _ = strconv.Atoi(m[2])
		if day < 1 || day > 31 {
			return time.Time{}, false
		}
	} else {
		return time.Time{}, false
	}

	if year == 0 {
		year = now.Year()
		candidate := time.Date(year, month, day, 0, 0, 0, 0, now.Location())
		if candidate.Before(now.AddDate(0, 0, -1)) {
			year++
		}
	}

	hour, minute := 9, 0
	if m := timeRe.FindStringSubmatch(line); m != nil {
		hour, _ = strconv.Atoi(m[1])
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		if strings.EqualFold(m[3], "pm") && hour < 12 {
			hour += 12
		}
		if strings.EqualFold(m[3], "am") && hour == 12 {
			hour = 0
		}
	}

	return time.Date(year, month, day, hour, minute, 0, 0, now.Location()), true
}

// eventTitle strips the date and time portions from the line; if nothing
// meaningful remains, the email subject is used.
func eventTitle(line, subject string) string {
	title := slashDateRe.ReplaceAllString(line, "")
	title = monthDateRe.ReplaceAllString(title, "")
	title = timeRe.ReplaceAllString(title, "")
	title = strings.Trim(title, " \t-–:,.@")
	for _, conn := range []string{" at", " on", " from"} {
		title = strings.TrimSpace(strings.TrimSuffix(title, conn))
	}
	if m := bulletRe.FindStringSubmatch(title); m != nil {
		title = strings.TrimSpace(m[1])
	}
	if len(title) < 3 {
		title = strings.TrimSpace(subject)
	}
	return title
}
