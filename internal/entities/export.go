package entities

import (
	"time"

	"camrental/internal/model"
)

// ExportRecord is one flat row of the export feed: scalar fields only, so
// calendar and reporting consumers never parse nested structures. How the
// rows are rendered downstream is the consumer's business.
type ExportRecord struct {
	BookingID       string `json:"booking_id"`
	UnitModel       string `json:"unit_model"`
	UnitSerial      string `json:"unit_serial"`
	StartDate       string `json:"start_date"`
	StartSlot       string `json:"start_slot"`
	EndDate         string `json:"end_date"`
	EndSlot         string `json:"end_slot"`
	RenterName      string `json:"renter_name"`
	RenterEmail     string `json:"renter_email"`
	RenterPhone     string `json:"renter_phone"`
	PickupHandler   string `json:"pickup_handler"`
	ReturnHandler   string `json:"return_handler"`
	DepositStatus   string `json:"deposit_status"`
	Notes           string `json:"notes"`
	PickupConfirmed bool   `json:"pickup_confirmed"`
	ReturnConfirmed bool   `json:"return_confirmed"`
	CreatedAt       string `json:"created_at"`
}

func NewExportRecord(b model.Booking, c model.Confirmation) ExportRecord {
	return ExportRecord{
		BookingID:       b.ID,
		UnitModel:       b.Unit.Model,
		UnitSerial:      b.Unit.Serial,
		StartDate:       b.Start.Date.Format(model.DateLayout),
		StartSlot:       string(b.Start.Slot),
		EndDate:         b.End.Date.Format(model.DateLayout),
		EndSlot:         string(b.End.Slot),
		RenterName:      b.RenterName,
		RenterEmail:     b.RenterEmail,
		RenterPhone:     b.RenterPhone,
		PickupHandler:   b.PickupHandler,
		ReturnHandler:   b.ReturnHandler,
		DepositStatus:   b.DepositStatus,
		Notes:           b.Notes,
		PickupConfirmed: c.PickupConfirmed,
		ReturnConfirmed: c.ReturnConfirmed,
		CreatedAt:       b.CreatedAt.UTC().Format(time.RFC3339),
	}
}
