package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedNow is 2026-08-31 14:10 IST, a Monday
func fixedNow(t *testing.T) time.Time {
	t.Helper()
	loc := LoadLocation("Asia/Kolkata")
	return time.Date(2026, 8, 31, 14, 10, 0, 0, loc)
}

func TestResolveDateKeyword(t *testing.T) {
	now := fixedNow(t)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"today", "today", "2026-08-31"},
		{"aaj", "Aaj", "2026-08-31"},
		{"tomorrow", "tomorrow", "2026-09-01"},
		{"kal", "kal", "2026-09-01"},
		{"iso passthrough", "2026-12-25", "2026-12-25"},
		{"day month", "5 September", "2026-09-05"},
		{"ordinal", "19th July", "2027-07-19"},
		{"unparseable returned unchanged", "next shaadi season", "next shaadi season"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveDateKeyword(tt.input, now))
		})
	}
}

func TestParseDateString(t *testing.T) {
	now := fixedNow(t)

	t.Run("future day-month stays in current year", func(t *testing.T) {
		got, err := ParseDateString("25 December", now)
		require.NoError(t, err)
		assert.Equal(t, "2026-12-25", got.Format("2006-01-02"))
	})

	t.Run("past day-month rolls to next year", func(t *testing.T) {
		got, err := ParseDateString("14 February", now)
		require.NoError(t, err)
		assert.Equal(t, "2027-02-14", got.Format("2006-01-02"))
	})

	t.Run("today does not roll", func(t *testing.T) {
		got, err := ParseDateString("31 August", now)
		require.NoError(t, err)
		assert.Equal(t, "2026-08-31", got.Format("2006-01-02"))
	})

	t.Run("explicit year is never rewritten", func(t *testing.T) {
		got, err := ParseDateString("14 February 2025", now)
		require.NoError(t, err)
		assert.Equal(t, "2025-02-14", got.Format("2006-01-02"))
	})

	t.Run("ordinal suffixes are stripped", func(t *testing.T) {
		got, err := ParseDateString("1st September", now)
		require.NoError(t, err)
		assert.Equal(t, "2026-09-01", got.Format("2006-01-02"))
	})

	t.Run("lowercase month parses", func(t *testing.T) {
		got, err := ParseDateString("5 september", now)
		require.NoError(t, err)
		assert.Equal(t, "2026-09-05", got.Format("2006-01-02"))
	})

	t.Run("gibberish errors", func(t *testing.T) {
		_, err := ParseDateString("whenever", now)
		assert.Error(t, err)
	})
}

func TestFormatSlot(t *testing.T) {
	assert.Equal(t, "1:30 PM", FormatSlot("13:30"))
	assert.Equal(t, "11:00 AM", FormatSlot("11:00"))
	assert.Equal(t, "8:00 PM", FormatSlot("20:00"))
	assert.Equal(t, "ASAP", FormatSlot("ASAP"))
}

func TestFriendlyDate(t *testing.T) {
	loc := LoadLocation("Asia/Kolkata")
	assert.Equal(t, "19th July, 2025", FriendlyDate(time.Date(2025, 7, 19, 0, 0, 0, 0, loc)))
	assert.Equal(t, "1st September, 2026", FriendlyDate(time.Date(2026, 9, 1, 0, 0, 0, 0, loc)))
	assert.Equal(t, "2nd September, 2026", FriendlyDate(time.Date(2026, 9, 2, 0, 0, 0, 0, loc)))
	assert.Equal(t, "3rd September, 2026", FriendlyDate(time.Date(2026, 9, 3, 0, 0, 0, 0, loc)))
	assert.Equal(t, "11th September, 2026", FriendlyDate(time.Date(2026, 9, 11, 0, 0, 0, 0, loc)))
}

func TestLoadLocation(t *testing.T) {
	assert.Equal(t, "Asia/Kolkata", LoadLocation("").String())
	assert.Equal(t, time.UTC, LoadLocation("Not/AZone"))
}
