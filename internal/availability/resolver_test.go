package availability

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-scheduling/internal/textnorm"
)

type memStore struct {
	slots []Slot
}

func (m *memStore) ListTemplate(ctx context.Context, doctorID int64) ([]Slot, error) {
	var out []Slot
	for _, s := range m.slots {
		if s.DoctorID == doctorID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStore) ListDay(ctx context.Context, doctorID int64, day time.Weekday) ([]Slot, error) {
	var out []Slot
	for _, s := range m.slots {
		if s.DoctorID == doctorID && s.Day == day {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out, nil
}

func (m *memStore) GetSlot(ctx context.Context, doctorID int64, day time.Weekday, at textnorm.TimeOfDay) (*Slot, error) {
	for _, s := range m.slots {
		if s.DoctorID == doctorID && s.Day == day && s.Time == at {
			s := s
			return &s, nil
		}
	}
	return nil, ErrSlotNotFound
}

func tod(h, m int) textnorm.TimeOfDay { return textnorm.NewTimeOfDay(h, m) }

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Wednesday 2025-05-28, mid-morning.
func newTestResolver() *Resolver {
	store := &memStore{slots: []Slot{
		{DoctorID: 1, Day: time.Monday, Time: tod(9, 30), Open: true},
		{DoctorID: 1, Day: time.Monday, Time: tod(9, 0), Open: true},
		{DoctorID: 1, Day: time.Monday, Time: tod(10, 0), Open: false},
		{DoctorID: 1, Day: time.Wednesday, Time: tod(10, 0), Open: false},
		{DoctorID: 1, Day: time.Friday, Time: tod(14, 0), Open: true},
		{DoctorID: 2, Day: time.Thursday, Time: tod(11, 0), Open: true},
	}}
	clock := func() time.Time { return time.Date(2025, 5, 28, 10, 15, 0, 0, time.UTC) }
	return NewResolver(store, time.UTC, WithClock(clock))
}

func TestIsOpen(t *testing.T) {
	r := newTestResolver()
	ctx := context.Background()

	open, err := r.IsOpen(ctx, 1, time.Monday, tod(9, 0))
	require.NoError(t, err)
	assert.True(t, open)

	open, err = r.IsOpen(ctx, 1, time.Monday, tod(10, 0))
	require.NoError(t, err)
	assert.False(t, open)

	open, err = r.IsOpen(ctx, 1, time.Tuesday, tod(9, 0))
	require.NoError(t, err)
	assert.False(t, open, "missing row counts as closed")
}

func TestListOpenSlotsAscending(t *testing.T) {
	r := newTestResolver()

	slots, err := r.ListOpenSlots(context.Background(), 1, time.Monday)
	require.NoError(t, err)
	assert.Equal(t, []textnorm.TimeOfDay{tod(9, 0), tod(9, 30)}, slots)
	assert.Equal(t, []string{"09:00 AM", "09:30 AM"}, FormatSlots(slots))
}

func TestListOpenDaysExcludesToday(t *testing.T) {
	r := newTestResolver()

	days, err := r.ListOpenDays(context.Background(), 1, OpenDaysHorizon)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{date(2025, 5, 30), date(2025, 6, 2)}, days)

	days, err = r.ListOpenDays(context.Background(), 2, OpenDaysHorizon)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{date(2025, 5, 29)}, days)
}

func TestCheckDateWithSlots(t *testing.T) {
	r := newTestResolver()

	check, err := r.CheckDate(context.Background(), 1, date(2025, 6, 2))
	require.NoError(t, err)
	assert.True(t, check.Available())
	assert.Equal(t, []textnorm.TimeOfDay{tod(9, 0), tod(9, 30)}, check.Slots)
	assert.Empty(t, check.Alternatives)
}

func TestCheckDateOffersAlternatives(t *testing.T) {
	r := newTestResolver()

	check, err := r.CheckDate(context.Background(), 1, date(2025, 6, 4))
	require.NoError(t, err)
	assert.False(t, check.Available())
	assert.Equal(t, []time.Time{
		date(2025, 5, 30),
		date(2025, 6, 2),
		date(2025, 6, 6),
		date(2025, 6, 9),
	}, check.Alternatives)
}

func TestCheckDateWeekdayWithoutTemplate(t *testing.T) {
	store := &memStore{slots: []Slot{
		{DoctorID: 3, Day: time.Friday, Time: tod(9, 0), Open: false},
		{DoctorID: 3, Day: time.Friday, Time: tod(9, 30), Open: true},
	}}
	r := NewResolver(store, time.UTC, WithClock(func() time.Time {
		return time.Date(2025, 5, 28, 8, 0, 0, 0, time.UTC)
	}))

	check, err := r.CheckDate(context.Background(), 3, date(2025, 5, 31))
	require.NoError(t, err)
	assert.Equal(t, []time.Time{date(2025, 5, 30), date(2025, 6, 6)}, check.Alternatives)
}

func TestDayAbbrev(t *testing.T) {
	assert.Equal(t, "Mon", DayAbbrev(time.Monday))
	assert.Equal(t, "Sun", DayAbbrev(time.Sunday))

	d, err := ParseDayAbbrev("thu")
	require.NoError(t, err)
	assert.Equal(t, time.Thursday, d)

	_, err = ParseDayAbbrev("Thursday")
	assert.Error(t, err)
}
