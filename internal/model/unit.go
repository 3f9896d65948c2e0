package model

import "time"

// UnitRef identifies one physical camera: the model name plus the serial
// number that tells copies of the same model apart. Matching is exact and
// case-sensitive on both parts.
type UnitRef struct {
	Model  string `json:"model"`
	Serial string `json:"serial"`
}

func (u UnitRef) String() string { return u.Model + "/" + u.Serial }

// Unit is a registry record for a physical camera. The registry is
// informational: bookings carry their own UnitRef and do not require a
// registered unit.
type Unit struct {
	UnitRef
	Notes   string    `json:"notes,omitempty"`
	AddedAt time.Time `json:"added_at"`
}
