// Package textnorm turns the free text callers send (phone numbers, times,
// dates, doctor names) into canonical values. Nothing here touches I/O.
package textnorm

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
)

var (
	ErrInvalidTimeFormat = apperr.New(apperr.KindValidation, "invalid_time_format",
		"invalid time format. Use something like '2', '2pm', '2.30', '2.30pm', '14:00'")
	ErrInvalidDateFormat = apperr.New(apperr.KindValidation, "invalid_date_format",
		"invalid date format. Use something like '2025-05-31', '31/05/2025', '31st May, 2025' or 'May 31'")
)

// TimeOfDay is a wall-clock time with minute granularity, stored 24-hour.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay{Hour: hour, Minute: minute}
}

// TimeOfDayFromMicros converts microseconds since midnight (the Postgres TIME
// representation) into a TimeOfDay. Seconds are dropped.
func TimeOfDayFromMicros(us int64) TimeOfDay {
	mins := us / int64(time.Minute/time.Microsecond)
	return TimeOfDay{Hour: int(mins/60) % 24, Minute: int(mins % 60)}
}

func TimeOfDayOf(t time.Time) TimeOfDay {
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}
}

func (t TimeOfDay) Micros() int64 {
	return int64(t.Minutes()) * int64(time.Minute/time.Microsecond)
}

func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

func (t TimeOfDay) Before(o TimeOfDay) bool {
	return t.Minutes() < o.Minutes()
}

func (t TimeOfDay) Add(d time.Duration) TimeOfDay {
	total := (t.Minutes() + int(d/time.Minute)) % (24 * 60)
	if total < 0 {
		total += 24 * 60
	}
	return TimeOfDay{Hour: total / 60, Minute: total % 60}
}

// On combines the calendar date of day with t in day's location.
func (t TimeOfDay) On(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour, t.Minute, 0, 0, day.Location())
}

// String renders the 24-hour storage form, "14:30".
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Format12h renders the display form, "02:30 PM".
func (t TimeOfDay) Format12h() string {
	suffix := "AM"
	h := t.Hour
	if h >= 12 {
		suffix = "PM"
	}
	h %= 12
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%02d:%02d %s", h, t.Minute, suffix)
}

var (
	meridiemSuffix = regexp.MustCompile(`^(.+?)\s*([ap])\.?m\.?$`)
	bareHour       = regexp.MustCompile(`^\d{1,2}$`)
	clockTime      = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?::(\d{2}))?$`)
)

// ParseTimeOfDay accepts "2", "2pm", "2.30", "2.30pm", "2:30 PM" and "14:00".
func ParseTimeOfDay(raw string) (TimeOfDay, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return TimeOfDay{}, ErrInvalidTimeFormat
	}

	suffix := ""
	if m := meridiemSuffix.FindStringSubmatch(s); m != nil {
		s, suffix = strings.TrimSpace(m[1]), m[2]+"m"
	}

	s = strings.ReplaceAll(s, ".", ":")
	if bareHour.MatchString(s) {
		s += ":00"
	}

	m := clockTime.FindStringSubmatch(s)
	if m == nil {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, raw)
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if minute > 59 {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, raw)
	}

	switch suffix {
	case "":
		if hour > 23 {
			return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, raw)
		}
	default:
		// "14pm" is tolerated as 14:00, anything past 23 is not.
		if hour > 23 || hour == 0 && suffix == "pm" {
			return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, raw)
		}
		if hour <= 12 {
			if suffix == "am" && hour == 12 {
				hour = 0
			} else if suffix == "pm" && hour != 12 {
				hour += 12
			}
		}
	}

	return TimeOfDay{Hour: hour, Minute: minute}, nil
}
