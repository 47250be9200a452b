package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandWindow(t *testing.T) {
	slots, err := ExpandWindow("09:00 AM - 11:00 AM", SlotDuration)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00 AM", "09:30 AM", "10:00 AM", "10:30 AM"}, FormatSlots(slots))

	slots, err = ExpandWindow("11:30 AM - 01:00 PM", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"11:30 AM", "12:00 PM", "12:30 PM"}, FormatSlots(slots))

	slots, err = ExpandWindow("09:00 AM - 05:00 PM", time.Hour)
	require.NoError(t, err)
	assert.Len(t, slots, 8)
}

func TestExpandWindowRejects(t *testing.T) {
	for _, w := range []string{"", "09:00 AM", "05:00 PM - 09:00 AM", "nine - five", "09:00 AM - 09:00 AM"} {
		_, err := ExpandWindow(w, SlotDuration)
		assert.ErrorIs(t, err, ErrInvalidWindow, w)
	}
}
