package availability

import (
	"fmt"
	"strings"
	"time"

	"github.com/hackgods/clinic-scheduling/internal/textnorm"
)

// ExpandWindow splits a working window such as "09:00 AM - 05:00 PM" into
// slot start times step apart. The end time itself is not a slot.
func ExpandWindow(window string, step time.Duration) ([]textnorm.TimeOfDay, error) {
	if step < time.Minute {
		step = SlotDuration
	}

	parts := strings.Split(window, "-")
	if len(parts) != 2 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidWindow, window)
	}

	start, err := textnorm.ParseTimeOfDay(parts[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidWindow, window)
	}
	end, err := textnorm.ParseTimeOfDay(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidWindow, window)
	}
	if !start.Before(end) {
		return nil, fmt.Errorf("%w: %q ends before it starts", ErrInvalidWindow, window)
	}

	stepMins := int(step / time.Minute)
	var slots []textnorm.TimeOfDay
	for m := start.Minutes(); m < end.Minutes(); m += stepMins {
		slots = append(slots, textnorm.NewTimeOfDay(m/60, m%60))
	}
	return slots, nil
}
