package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// TestTimeSlotOrdering verifies the strict morning < afternoon < evening order.
func TestTimeSlotOrdering(t *testing.T) {
	assert.Equal(t, 0, SlotMorning.Rank())
	assert.Equal(t, 1, SlotAfternoon.Rank())
	assert.Equal(t, 2, SlotEvening.Rank())

	assert.True(t, SlotMorning.Before(SlotAfternoon))
	assert.True(t, SlotAfternoon.Before(SlotEvening))
	assert.True(t, SlotMorning.Before(SlotEvening))
	assert.False(t, SlotEvening.Before(SlotMorning))
	assert.False(t, SlotMorning.Before(SlotMorning))
}

func TestParseTimeSlot(t *testing.T) {
	t.Run("accepts known slots ignoring case and padding", func(t *testing.T) {
		for in, want := range map[string]TimeSlot{
			"morning":    SlotMorning,
			" Afternoon": SlotAfternoon,
			"EVENING ":   SlotEvening,
		} {
			got, err := ParseTimeSlot(in)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}
	})

	t.Run("rejects unknown slots", func(t *testing.T) {
		for _, in := range []string{"", "noon", "night", "mornings"} {
			_, err := ParseTimeSlot(in)
			require.Error(t, err)
		}
	})
}

// TestSlotTimeCompare verifies the compound order: date first, then slot.
func TestSlotTimeCompare(t *testing.T) {
	jan10 := date(2025, time.January, 10)
	jan11 := date(2025, time.January, 11)

	t.Run("date dominates slot", func(t *testing.T) {
		earlier := NewSlotTime(jan10, SlotEvening)
		later := NewSlotTime(jan11, SlotMorning)
		assert.Equal(t, -1, earlier.Compare(later))
		assert.Equal(t, 1, later.Compare(earlier))
		assert.True(t, earlier.Before(later))
		assert.True(t, later.After(earlier))
	})

	t.Run("same date falls back to slot rank", func(t *testing.T) {
		m := NewSlotTime(jan10, SlotMorning)
		e := NewSlotTime(jan10, SlotEvening)
		assert.Equal(t, -1, m.Compare(e))
		assert.Equal(t, 1, e.Compare(m))
	})

	t.Run("identical points are equal", func(t *testing.T) {
		a := NewSlotTime(jan10, SlotAfternoon)
		b := NewSlotTime(jan10, SlotAfternoon)
		assert.Equal(t, 0, a.Compare(b))
		assert.True(t, a.Equal(b))
	})
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2025-01-10")
	require.NoError(t, err)
	assert.Equal(t, date(2025, time.January, 10), got)

	_, err = ParseDate("10/01/2025")
	require.Error(t, err)
}

// TestDateOnly verifies time-of-day and zone are stripped before dates are
// compared or stored.
func TestDateOnly(t *testing.T) {
	zone := time.FixedZone("UTC+2", 2*60*60)
	in := time.Date(2025, time.March, 5, 23, 30, 0, 0, zone)
	assert.Equal(t, date(2025, time.March, 5), DateOnly(in))
}
