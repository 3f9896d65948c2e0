package model

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"camrental/internal/errs"
)

func span(startDay int, startSlot TimeSlot, endDay int, endSlot TimeSlot) Interval {
	base := date(2025, time.January, 1)
	return Interval{
		Start: NewSlotTime(base.AddDate(0, 0, startDay), startSlot),
		End:   NewSlotTime(base.AddDate(0, 0, endDay), endSlot),
	}
}

func TestIntervalValidate(t *testing.T) {
	t.Run("accepts multi-day spans", func(t *testing.T) {
		require.NoError(t, span(0, SlotMorning, 2, SlotAfternoon).Validate())
	})

	t.Run("accepts same-day span with a later slot", func(t *testing.T) {
		require.NoError(t, span(0, SlotMorning, 0, SlotEvening).Validate())
	})

	t.Run("rejects end equal to start", func(t *testing.T) {
		err := span(0, SlotMorning, 0, SlotMorning).Validate()
		var ve *errs.ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, "end", ve.Field)
	})

	t.Run("rejects end before start", func(t *testing.T) {
		require.Error(t, span(0, SlotEvening, 0, SlotMorning).Validate())
		require.Error(t, span(3, SlotMorning, 1, SlotEvening).Validate())
	})

	t.Run("rejects unknown slots", func(t *testing.T) {
		iv := span(0, SlotMorning, 1, SlotMorning)
		iv.Start.Slot = "noon"
		var ve *errs.ValidationError
		require.True(t, errors.As(iv.Validate(), &ve))
		assert.Equal(t, "start_slot", ve.Field)
	})
}

func TestIntervalOverlaps(t *testing.T) {
	t.Run("same-day turnover does not overlap", func(t *testing.T) {
		// Return slot afternoon, next pickup evening of the same day.
		existing := span(9, SlotMorning, 11, SlotAfternoon)
		candidate := span(11, SlotEvening, 13, SlotMorning)
		assert.False(t, candidate.Overlaps(existing))
		assert.False(t, existing.Overlaps(candidate))
	})

	t.Run("interior overlap", func(t *testing.T) {
		existing := span(9, SlotMorning, 11, SlotAfternoon)
		candidate := span(10, SlotMorning, 12, SlotMorning)
		assert.True(t, candidate.Overlaps(existing))
		assert.True(t, existing.Overlaps(candidate))
	})

	t.Run("containment overlaps", func(t *testing.T) {
		outer := span(0, SlotMorning, 5, SlotEvening)
		inner := span(2, SlotAfternoon, 3, SlotMorning)
		assert.True(t, outer.Overlaps(inner))
		assert.True(t, inner.Overlaps(outer))
	})

	t.Run("identical spans overlap", func(t *testing.T) {
		a := span(1, SlotMorning, 2, SlotEvening)
		assert.True(t, a.Overlaps(a))
	})

	t.Run("disjoint dates do not overlap", func(t *testing.T) {
		a := span(0, SlotMorning, 1, SlotEvening)
		b := span(3, SlotMorning, 4, SlotEvening)
		assert.False(t, a.Overlaps(b))
		assert.False(t, b.Overlaps(a))
	})
}

// TestIntervalOverlapsProperty cross-checks Overlaps against the boundary
// definition over randomly generated valid spans.
func TestIntervalOverlapsProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	slots := []TimeSlot{SlotMorning, SlotAfternoon, SlotEvening}

	randomSpan := func() Interval {
		for {
			iv := span(rng.Intn(6), slots[rng.Intn(3)], rng.Intn(6), slots[rng.Intn(3)])
			if iv.Validate() == nil {
				return iv
			}
		}
	}

	for i := 0; i < 500; i++ {
		a, b := randomSpan(), randomSpan()
		want := !(a.End.Compare(b.Start) <= 0 || a.Start.Compare(b.End) >= 0)
		assert.Equal(t, want, a.Overlaps(b), "a=%+v b=%+v", a, b)
		assert.Equal(t, a.Overlaps(b), b.Overlaps(a), "overlap must be symmetric")
	}
}

func TestConflictingBookings(t *testing.T) {
	unit := UnitRef{Model: "X100", Serial: "#7"}
	existing := Booking{
		ID:    "a",
		Unit:  unit,
		Start: NewSlotTime(date(2025, time.January, 10), SlotMorning),
		End:   NewSlotTime(date(2025, time.January, 12), SlotAfternoon),
	}

	t.Run("same unit overlapping window conflicts", func(t *testing.T) {
		candidate := Booking{
			ID:    "b",
			Unit:  unit,
			Start: NewSlotTime(date(2025, time.January, 11), SlotMorning),
			End:   NewSlotTime(date(2025, time.January, 13), SlotMorning),
		}
		got := ConflictingBookings(candidate, []Booking{existing})
		require.Len(t, got, 1)
		assert.Equal(t, "a", got[0].ID)
	})

	t.Run("same unit back to back is free", func(t *testing.T) {
		candidate := Booking{
			ID:    "b",
			Unit:  unit,
			Start: NewSlotTime(date(2025, time.January, 12), SlotEvening),
			End:   NewSlotTime(date(2025, time.January, 14), SlotMorning),
		}
		assert.Empty(t, ConflictingBookings(candidate, []Booking{existing}))
	})

	t.Run("another serial of the same model never conflicts", func(t *testing.T) {
		candidate := Booking{
			ID:    "b",
			Unit:  UnitRef{Model: "X100", Serial: "#8"},
			Start: existing.Start,
			End:   existing.End,
		}
		assert.Empty(t, ConflictingBookings(candidate, []Booking{existing}))
	})

	t.Run("candidate is excluded from its own conflicts", func(t *testing.T) {
		moved := existing
		moved.End = NewSlotTime(date(2025, time.January, 13), SlotMorning)
		assert.Empty(t, ConflictingBookings(moved, []Booking{existing}))
	})
}

func TestBookingValidate(t *testing.T) {
	valid := Booking{
		Unit:       UnitRef{Model: "X100", Serial: "#7"},
		Start:      NewSlotTime(date(2025, time.January, 10), SlotMorning),
		End:        NewSlotTime(date(2025, time.January, 12), SlotAfternoon),
		RenterName: "Dana Flores",
	}
	require.NoError(t, valid.Validate())

	for field, mutate := range map[string]func(*Booking){
		"unit_model":  func(b *Booking) { b.Unit.Model = " " },
		"unit_serial": func(b *Booking) { b.Unit.Serial = "" },
		"renter_name": func(b *Booking) { b.RenterName = "" },
	} {
		b := valid
		mutate(&b)
		err := b.Validate()
		var ve *errs.ValidationError
		require.True(t, errors.As(err, &ve), "field %s", field)
		assert.Equal(t, field, ve.Field)
	}
}
