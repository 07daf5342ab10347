package chat

import (
	"fmt"
	"strings"
	"time"
)

// All date reasoning runs in the restaurant's local timezone, not the
// server's.
const DefaultTimezone = "Asia/Kolkata"

// LoadLocation resolves the configured timezone, falling back to UTC when the
// zone database lookup fails.
func LoadLocation(name string) *time.Location {
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ResolveDateKeyword maps "today"/"tomorrow" to concrete YYYY-MM-DD strings
// and normalizes free-form dates. Unrecognized input is returned unchanged so
// the model can re-ask.
func ResolveDateKeyword(dateStr string, now time.Time) string {
	s := strings.ToLower(strings.TrimSpace(dateStr))
	if s == "" {
		return dateStr
	}

	today := now
	switch s {
	case "today", "aaj":
		return today.Format("2006-01-02")
	case "tomorrow", "kal":
		return today.AddDate(0, 0, 1).Format("2006-01-02")
	}

	if t, err := time.ParseInLocation("2006-01-02", s, now.Location()); err == nil {
		return t.Format("2006-01-02")
	}

	if t, err := ParseDateString(s, now); err == nil {
		return t.Format("2006-01-02")
	}
	return dateStr
}

// dayMonthLayouts omit the year; parseable values get anchored to the
// current year and rolled forward when already past.
var dayMonthLayouts = []string{
	"2 January",
	"2 Jan",
	"January 2",
	"Jan 2",
	"2/1",
	"02-01",
}

var fullDateLayouts = []string{
	"2006-01-02",
	"2 January 2006",
	"2 Jan 2006",
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"02/01/2006",
}

// ParseDateString turns a natural-language date into a concrete date. Values
// without a year are anchored to the current year; a day/month combination
// earlier than today rolls over to the next year so reservations are always
// future dated. An explicit year is never rewritten.
func ParseDateString(dateStr string, now time.Time) (time.Time, error) {
	s := normalizeDateInput(dateStr)
	loc := now.Location()

	for _, layout := range fullDateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}

	for _, layout := range dayMonthLayouts {
		t, err := time.ParseInLocation(layout, s, loc)
		if err != nil {
			continue
		}
		t = time.Date(now.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
		if t.Before(today) {
			t = t.AddDate(1, 0, 0)
		}
		return t, nil
	}

	return time.Time{}, fmt.Errorf("could not understand the date %q", dateStr)
}

// normalizeDateInput strips ordinal suffixes ("19th July" -> "19 July") and
// squeezes whitespace so the fixed layouts match.
func normalizeDateInput(s string) string {
	s = strings.TrimSpace(s)
	fields := strings.Fields(s)
	for i, f := range fields {
		trimmed := strings.TrimRight(strings.TrimRight(f, ","), ".")
		lower := strings.ToLower(trimmed)
		for _, suffix := range []string{"st", "nd", "rd", "th"} {
			bare := strings.TrimSuffix(lower, suffix)
			if bare != lower && bare != "" && isDigits(bare) {
				trimmed = bare
				break
			}
		}
		if strings.HasSuffix(f, ",") {
			trimmed += ","
		}
		fields[i] = trimmed
	}
	joined := strings.Join(fields, " ")
	// title-case month words so time.Parse layouts match
	return titleWords(joined)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

func titleWords(s string) string {
	fields := strings.Fields(s)
	for i, f := range fields {
		if len(f) > 0 && f[0] >= 'a' && f[0] <= 'z' {
			fields[i] = strings.ToUpper(f[:1]) + f[1:]
		}
	}
	return strings.Join(fields, " ")
}

// FormatSlot renders a 24h "HH:MM" slot as "1:30 PM". "ASAP" and anything
// unparseable pass through untouched.
func FormatSlot(slot string) string {
	t, err := time.Parse("15:04", slot)
	if err != nil {
		return slot
	}
	return strings.TrimPrefix(t.Format("3:04 PM"), "0")
}

// FriendlyDate renders a date as "19th July, 2025"
func FriendlyDate(t time.Time) string {
	day := t.Day()
	suffix := "th"
	if day < 11 || day > 13 {
		switch day % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s %s", day, suffix, t.Format("January, 2006"))
}
