package model

import (
	"strings"
	"time"

	"camrental/internal/errs"
)

// Interval is a half-open (date, slot) span: Start is the first slot the
// unit is out, End is the slot it is free again. An interval may start
// exactly where another ends, which is how same-day turnover works.
type Interval struct {
	Start SlotTime `json:"start"`
	End   SlotTime `json:"end"`
}

// Validate rejects intervals whose end does not come strictly after the
// start under the (date, slot) order.
func (iv Interval) Validate() error {
	if !iv.Start.Slot.Valid() {
		return &errs.ValidationError{Field: "start_slot", Reason: "unknown time slot"}
	}
	if !iv.End.Slot.Valid() {
		return &errs.ValidationError{Field: "end_slot", Reason: "unknown time slot"}
	}
	if iv.End.Compare(iv.Start) <= 0 {
		return &errs.ValidationError{Field: "end", Reason: "end must come after start (same-day returns need a later slot)"}
	}
	return nil
}

// Overlaps reports whether two spans share at least one slot. Boundary
// touches do not overlap.
func (iv Interval) Overlaps(o Interval) bool {
	return iv.Start.Compare(o.End) < 0 && iv.End.Compare(o.Start) > 0
}

// Booking is one rental order for one physical unit.
type Booking struct {
	ID            string    `json:"id"`
	Unit          UnitRef   `json:"unit"`
	Start         SlotTime  `json:"start"`
	End           SlotTime  `json:"end"`
	RenterName    string    `json:"renter_name"`
	RenterEmail   string    `json:"renter_email,omitempty"`
	RenterPhone   string    `json:"renter_phone,omitempty"`
	PickupHandler string    `json:"pickup_handler,omitempty"`
	ReturnHandler string    `json:"return_handler,omitempty"`
	DepositStatus string    `json:"deposit_status,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Interval returns the booked (date, slot) span.
func (b Booking) Interval() Interval {
	return Interval{Start: b.Start, End: b.End}
}

// Validate checks the fields every booking needs before it is persisted.
// ID and CreatedAt are assigned by the service, not validated here.
func (b Booking) Validate() error {
	if strings.TrimSpace(b.Unit.Model) == "" {
		return &errs.ValidationError{Field: "unit_model", Reason: "required"}
	}
	if strings.TrimSpace(b.Unit.Serial) == "" {
		return &errs.ValidationError{Field: "unit_serial", Reason: "required"}
	}
	if strings.TrimSpace(b.RenterName) == "" {
		return &errs.ValidationError{Field: "renter_name", Reason: "required"}
	}
	return b.Interval().Validate()
}

// ConflictingBookings returns the bookings whose spans overlap the candidate
// on the same physical unit. The candidate's own ID is skipped so updates do
// not conflict with themselves; bookings on other units never conflict.
func ConflictingBookings(candidate Booking, existing []Booking) []Booking {
	var out []Booking
	iv := candidate.Interval()
	for _, b := range existing {
		if b.ID == candidate.ID || b.Unit != candidate.Unit {
			continue
		}
		if iv.Overlaps(b.Interval()) {
			out = append(out, b)
		}
	}
	return out
}
