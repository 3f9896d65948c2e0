package entities

import "camrental/internal/model"

// ScheduleEntry is one row of a pending-pickups or pending-returns view.
// OverdueDays is only set on pending-returns rows.
type ScheduleEntry struct {
	BookingID   string             `json:"booking_id"`
	Unit        model.UnitRef      `json:"unit"`
	Start       model.SlotTime     `json:"start"`
	End         model.SlotTime     `json:"end"`
	RenterName  string             `json:"renter_name"`
	RenterEmail string             `json:"renter_email,omitempty"`
	RenterPhone string             `json:"renter_phone,omitempty"`
	State       model.HandoffState `json:"state"`
	OverdueDays int                `json:"overdue_days,omitempty"`
}

func NewScheduleEntry(b model.Booking, c model.Confirmation, overdueDays int) ScheduleEntry {
	return ScheduleEntry{
		BookingID:   b.ID,
		Unit:        b.Unit,
		Start:       b.Start,
		End:         b.End,
		RenterName:  b.RenterName,
		RenterEmail: b.RenterEmail,
		RenterPhone: b.RenterPhone,
		State:       c.State(),
		OverdueDays: overdueDays,
	}
}
