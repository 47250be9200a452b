// Package availability models the recurring weekly template of open and
// closed slots per doctor and projects it onto calendar dates.
package availability

import (
	"fmt"
	"strings"
	"time"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
	"github.com/hackgods/clinic-scheduling/internal/textnorm"
)

// SlotDuration is the length of one bookable slot.
const SlotDuration = 30 * time.Minute

var (
	ErrSlotUnavailable = apperr.New(apperr.KindConflict, "slot_unavailable", "the requested time slot is not available")
	ErrNoCapacity      = apperr.New(apperr.KindConflict, "no_capacity", "the doctor has no remaining capacity")
	ErrSlotNotFound    = apperr.New(apperr.KindNotFound, "slot_not_found", "no such slot in the weekly template")
	ErrInvalidWindow   = apperr.New(apperr.KindValidation, "invalid_window", "working window must look like '09:00 AM - 05:00 PM'")
)

// Slot is one row of the weekly template.
type Slot struct {
	DoctorID int64
	Day      time.Weekday
	Time     textnorm.TimeOfDay
	Open     bool
}

var dayAbbrevs = [...]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// DayAbbrev returns the stored day_of_week value, "Mon" through "Sun".
func DayAbbrev(d time.Weekday) string {
	return dayAbbrevs[d]
}

func ParseDayAbbrev(s string) (time.Weekday, error) {
	for i, a := range dayAbbrevs {
		if strings.EqualFold(a, strings.TrimSpace(s)) {
			return time.Weekday(i), nil
		}
	}
	return 0, fmt.Errorf("unknown day of week %q", s)
}

// FormatSlots renders times in the 12-hour display form.
func FormatSlots(times []textnorm.TimeOfDay) []string {
	out := make([]string, len(times))
	for i, t := range times {
		out[i] = t.Format12h()
	}
	return out
}
