package textnorm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
)

var ref = time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

func TestParseDateEquivalentForms(t *testing.T) {
	want := time.Date(2025, time.May, 31, 0, 0, 0, 0, time.UTC)

	for _, raw := range []string{
		"31st May, 2025",
		"31/05/2025",
		"2025-05-31",
		"2025-5-31",
		"20250531",
		"May 31 2025",
		"31 may 2025",
		"31-May-2025",
		"2025 may 31",
		"05/31/2025",
		"31 05 2025",
		"31-05-25",
	} {
		t.Run(raw, func(t *testing.T) {
			got, ok := ParseDateAt(raw, ref)
			require.True(t, ok)
			assert.True(t, want.Equal(got), "got %s", got)
		})
	}
}

func TestParseDateDefaultsToCurrentYear(t *testing.T) {
	for _, raw := range []string{"31may", "31 May", "May 31", "may31", "31st may"} {
		t.Run(raw, func(t *testing.T) {
			got, ok := ParseDateAt(raw, ref)
			require.True(t, ok)
			assert.Equal(t, 2026, got.Year())
			assert.Equal(t, time.May, got.Month())
			assert.Equal(t, 31, got.Day())
		})
	}
}

func TestParseDateYearOnly(t *testing.T) {
	got, ok := ParseDateAt("2025", ref)
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC), got)
}

func TestParseDateUsesCurrentYearByDefault(t *testing.T) {
	got, ok := ParseDate("31may")
	require.True(t, ok)
	assert.Equal(t, time.Now().Year(), got.Year())
}

func TestParseDateRejects(t *testing.T) {
	for _, raw := range []string{"", "   ", "tomorrow-ish", "31 june 2025", "45/13/2025", "may 2025", "ma 3"} {
		t.Run(raw, func(t *testing.T) {
			_, ok := ParseDateAt(raw, ref)
			assert.False(t, ok)
		})
	}
}

func TestParseTimeOfDay(t *testing.T) {
	cases := map[string]TimeOfDay{
		"2":        {2, 0},
		"2pm":      {14, 0},
		"2 PM":     {14, 0},
		"2.30":     {2, 30},
		"2.30pm":   {14, 30},
		"2:30 PM":  {14, 30},
		"14:30":    {14, 30},
		"14:00":    {14, 0},
		"12am":     {0, 0},
		"12pm":     {12, 0},
		"9:05 a.m": {9, 5},
		"08:30:00": {8, 30},
	}
	for raw, want := range cases {
		t.Run(raw, func(t *testing.T) {
			got, err := ParseTimeOfDay(raw)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestParseTimeOfDayEquivalence(t *testing.T) {
	a, err := ParseTimeOfDay("2.30pm")
	require.NoError(t, err)
	b, err := ParseTimeOfDay("2:30 PM")
	require.NoError(t, err)
	c, err := ParseTimeOfDay("14:30")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, b, c)
}

func TestParseTimeOfDayInvalid(t *testing.T) {
	for _, raw := range []string{"", "noon", "25:00", "2:75", "0pm", "2.3.4"} {
		t.Run(raw, func(t *testing.T) {
			_, err := ParseTimeOfDay(raw)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidTimeFormat)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
			assert.Contains(t, err.Error(), "2.30pm")
		})
	}
}

func TestTimeOfDayFormatting(t *testing.T) {
	assert.Equal(t, "02:30 PM", NewTimeOfDay(14, 30).Format12h())
	assert.Equal(t, "12:00 AM", NewTimeOfDay(0, 0).Format12h())
	assert.Equal(t, "12:15 PM", NewTimeOfDay(12, 15).Format12h())
	assert.Equal(t, "09:00", NewTimeOfDay(9, 0).String())

	tod := NewTimeOfDay(9, 30)
	assert.Equal(t, tod, TimeOfDayFromMicros(tod.Micros()))
	assert.Equal(t, NewTimeOfDay(10, 0), tod.Add(30*time.Minute))
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "", NormalizePhone(""))
	assert.Equal(t, "", NormalizePhone("not-a-number"))
	assert.Equal(t, "", NormalizePhone("12345"))
	assert.Equal(t, "+919876543210", NormalizePhone("+91 98765 43210"))
	assert.Equal(t, "+919876543210", NormalizePhone("098765-43210"))
	assert.Equal(t, "+919876543210", NormalizePhone("(98765) 43210"))
}

func TestNormalizeName(t *testing.T) {
	cases := map[string]string{
		"Dr. John Smith":   "johnsmith",
		"doctor jon smith": "jonsmith",
		"Prof. A. Rao":     "arao",
		"Mrs O'Neil":       "oneil",
		"Drake Ramoray":    "drakeramoray",
		"D. R.":            "",
		"  ":               "",
	}
	for raw, want := range cases {
		t.Run(raw, func(t *testing.T) {
			assert.Equal(t, want, NormalizeName(raw))
		})
	}
}

func TestNormalizeNameIdempotent(t *testing.T) {
	for _, raw := range []string{
		"Dr. John Smith", "MISS Priya-Nair", "D. R.", "Dr Dr Who", "prof. ms. mr", "Anne-Marie O'Brien", "m.r.s",
	} {
		once := NormalizeName(raw)
		assert.Equal(t, once, NormalizeName(once), raw)
	}
}
