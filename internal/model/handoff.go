package model

import "time"

// HandoffState is the derived position in the pickup/return lifecycle.
type HandoffState string

const (
	StateNotPickedUp HandoffState = "not_picked_up"
	StatePickedUp    HandoffState = "picked_up"
	StateReturned    HandoffState = "returned"
)

// Confirmation tracks the two handoff flags for one booking. It is stored
// apart from the booking so toggling a flag never rewrites the booking
// record. A missing confirmation means both flags are false.
type Confirmation struct {
	BookingID       string    `json:"booking_id"`
	PickupConfirmed bool      `json:"pickup_confirmed"`
	ReturnConfirmed bool      `json:"return_confirmed"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// State derives the lifecycle position from the two flags. ReturnConfirmed
// implies PickupConfirmed, which the handoff service enforces on write.
func (c Confirmation) State() HandoffState {
	switch {
	case c.ReturnConfirmed:
		return StateReturned
	case c.PickupConfirmed:
		return StatePickedUp
	default:
		return StateNotPickedUp
	}
}

// Snapshot is a full copy of every dataset the store manages. It is the unit
// of exchange for cache persistence, remote fetches and reconciliation.
type Snapshot struct {
	Bookings      []Booking      `json:"bookings"`
	Confirmations []Confirmation `json:"confirmations"`
	Units         []Unit         `json:"units"`
}
