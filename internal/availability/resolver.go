package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hackgods/clinic-scheduling/internal/textnorm"
)

const (
	// OpenDaysHorizon is the window used when listing bookable dates.
	OpenDaysHorizon = 7
	// AlternativesHorizon is the window searched for alternatives to a full date.
	AlternativesHorizon = 14
)

// Resolver answers availability questions from the weekly template. It never
// caches; every call reads the store.
type Resolver struct {
	store Store
	loc   *time.Location
	now   func() time.Time
}

type ResolverOption func(*Resolver)

// WithClock overrides time.Now, mostly for tests.
func WithClock(now func() time.Time) ResolverOption {
	return func(r *Resolver) { r.now = now }
}

func NewResolver(store Store, loc *time.Location, opts ...ResolverOption) *Resolver {
	if loc == nil {
		loc = time.Local
	}
	r := &Resolver{store: store, loc: loc, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Today is the current date at midnight in the clinic location.
func (r *Resolver) Today() time.Time {
	n := r.now().In(r.loc)
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, r.loc)
}

// IsOpen reports whether the template marks the slot open. A slot missing
// from the template is closed.
func (r *Resolver) IsOpen(ctx context.Context, doctorID int64, day time.Weekday, at textnorm.TimeOfDay) (bool, error) {
	s, err := r.store.GetSlot(ctx, doctorID, day, at)
	if err != nil {
		if errors.Is(err, ErrSlotNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("get slot: %w", err)
	}
	return s.Open, nil
}

// ListOpenSlots returns the open times for the weekday in ascending order.
func (r *Resolver) ListOpenSlots(ctx context.Context, doctorID int64, day time.Weekday) ([]textnorm.TimeOfDay, error) {
	slots, err := r.store.ListDay(ctx, doctorID, day)
	if err != nil {
		return nil, fmt.Errorf("list day: %w", err)
	}

	var open []textnorm.TimeOfDay
	for _, s := range slots {
		if s.Open {
			open = append(open, s.Time)
		}
	}
	return open, nil
}

// ListOpenDays projects the template onto the next n calendar days, today
// excluded, and returns the dates whose weekday has an open slot.
func (r *Resolver) ListOpenDays(ctx context.Context, doctorID int64, n int) ([]time.Time, error) {
	openDays, err := r.openWeekdays(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	return project(r.Today(), n, openDays, time.Time{}), nil
}

// DateCheck is the answer to "can this doctor see me on that date".
type DateCheck struct {
	Date         time.Time
	Slots        []textnorm.TimeOfDay
	Alternatives []time.Time
}

func (c DateCheck) Available() bool {
	return len(c.Slots) > 0
}

// CheckDate lists the open slots on date. When there are none it offers the
// dates within AlternativesHorizon days, excluding today and date itself,
// whose weekday has an open slot.
func (r *Resolver) CheckDate(ctx context.Context, doctorID int64, date time.Time) (DateCheck, error) {
	check := DateCheck{Date: date}

	slots, err := r.ListOpenSlots(ctx, doctorID, date.Weekday())
	if err != nil {
		return check, err
	}
	check.Slots = slots
	if len(slots) > 0 {
		return check, nil
	}

	openDays, err := r.openWeekdays(ctx, doctorID)
	if err != nil {
		return check, err
	}
	check.Alternatives = project(r.Today(), AlternativesHorizon, openDays, date)
	return check, nil
}

func (r *Resolver) openWeekdays(ctx context.Context, doctorID int64) (map[time.Weekday]bool, error) {
	template, err := r.store.ListTemplate(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("list template: %w", err)
	}

	open := make(map[time.Weekday]bool, 7)
	for _, s := range template {
		if s.Open {
			open[s.Day] = true
		}
	}
	return open, nil
}

func project(today time.Time, n int, open map[time.Weekday]bool, skip time.Time) []time.Time {
	var days []time.Time
	for i := 1; i <= n; i++ {
		d := today.AddDate(0, 0, i)
		if !open[d.Weekday()] || sameDate(d, skip) {
			continue
		}
		days = append(days, d)
	}
	return days
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
