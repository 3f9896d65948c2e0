package entities

import (
	"strings"
	"time"

	"camrental/internal/errs"
	"camrental/internal/model"
)

// BookingRequest is the wire form of a booking create or update. Dates are
// YYYY-MM-DD strings, slots are morning/afternoon/evening.
type BookingRequest struct {
	UnitModel     string `json:"unit_model"`
	UnitSerial    string `json:"unit_serial"`
	StartDate     string `json:"start_date"`
	StartSlot     string `json:"start_slot"`
	EndDate       string `json:"end_date"`
	EndSlot       string `json:"end_slot"`
	RenterName    string `json:"renter_name"`
	RenterEmail   string `json:"renter_email"`
	RenterPhone   string `json:"renter_phone"`
	PickupHandler string `json:"pickup_handler"`
	ReturnHandler string `json:"return_handler"`
	DepositStatus string `json:"deposit_status"`
	Notes         string `json:"notes"`
}

// ToModel converts the wire form into a domain booking. Parse failures come
// back as field-level ValidationErrors.
func (r BookingRequest) ToModel() (model.Booking, error) {
	start, err := parseSlotTime(r.StartDate, r.StartSlot, "start")
	if err != nil {
		return model.Booking{}, err
	}
	end, err := parseSlotTime(r.EndDate, r.EndSlot, "end")
	if err != nil {
		return model.Booking{}, err
	}
	return model.Booking{
		Unit: model.UnitRef{
			Model:  strings.TrimSpace(r.UnitModel),
			Serial: strings.TrimSpace(r.UnitSerial),
		},
		Start:         start,
		End:           end,
		RenterName:    strings.TrimSpace(r.RenterName),
		RenterEmail:   strings.TrimSpace(r.RenterEmail),
		RenterPhone:   strings.TrimSpace(r.RenterPhone),
		PickupHandler: strings.TrimSpace(r.PickupHandler),
		ReturnHandler: strings.TrimSpace(r.ReturnHandler),
		DepositStatus: strings.TrimSpace(r.DepositStatus),
		Notes:         r.Notes,
	}, nil
}

func parseSlotTime(dateStr, slotStr, side string) (model.SlotTime, error) {
	date, err := model.ParseDate(dateStr)
	if err != nil {
		return model.SlotTime{}, &errs.ValidationError{Field: side + "_date", Reason: err.Error()}
	}
	slot, err := model.ParseTimeSlot(slotStr)
	if err != nil {
		return model.SlotTime{}, &errs.ValidationError{Field: side + "_slot", Reason: err.Error()}
	}
	return model.NewSlotTime(date, slot), nil
}

// BookingResponse decorates a booking with its confirmation flags, the
// derived handoff state, and the degradation warning when the write only
// landed locally.
type BookingResponse struct {
	model.Booking
	PickupConfirmed bool               `json:"pickup_confirmed"`
	ReturnConfirmed bool               `json:"return_confirmed"`
	State           model.HandoffState `json:"state"`
	Warning         string             `json:"warning,omitempty"`
}

func NewBookingResponse(b model.Booking, c model.Confirmation, warn *errs.Warning) BookingResponse {
	resp := BookingResponse{
		Booking:         b,
		PickupConfirmed: c.PickupConfirmed,
		ReturnConfirmed: c.ReturnConfirmed,
		State:           c.State(),
	}
	if warn != nil {
		resp.Warning = warn.Error()
	}
	return resp
}

// ConfirmationResponse reports the handoff flags after a pickup or return
// toggle.
type ConfirmationResponse struct {
	BookingID       string             `json:"booking_id"`
	PickupConfirmed bool               `json:"pickup_confirmed"`
	ReturnConfirmed bool               `json:"return_confirmed"`
	State           model.HandoffState `json:"state"`
	UpdatedAt       time.Time          `json:"updated_at"`
	Warning         string             `json:"warning,omitempty"`
}

func NewConfirmationResponse(c model.Confirmation, warn *errs.Warning) ConfirmationResponse {
	resp := ConfirmationResponse{
		BookingID:       c.BookingID,
		PickupConfirmed: c.PickupConfirmed,
		ReturnConfirmed: c.ReturnConfirmed,
		State:           c.State(),
		UpdatedAt:       c.UpdatedAt,
	}
	if warn != nil {
		resp.Warning = warn.Error()
	}
	return resp
}

// AvailabilityRequest asks whether one unit is free for a candidate window.
type AvailabilityRequest struct {
	UnitModel  string `json:"unit_model"`
	UnitSerial string `json:"unit_serial"`
	StartDate  string `json:"start_date"`
	StartSlot  string `json:"start_slot"`
	EndDate    string `json:"end_date"`
	EndSlot    string `json:"end_slot"`
}

func (r AvailabilityRequest) ToModel() (model.Booking, error) {
	req := BookingRequest{
		UnitModel:  r.UnitModel,
		UnitSerial: r.UnitSerial,
		StartDate:  r.StartDate,
		StartSlot:  r.StartSlot,
		EndDate:    r.EndDate,
		EndSlot:    r.EndSlot,
	}
	return req.ToModel()
}

type AvailabilityResponse struct {
	Available bool             `json:"available"`
	Conflicts []BookingSummary `json:"conflicts,omitempty"`
}

// BookingSummary is the short booking form used in conflict listings.
type BookingSummary struct {
	ID    string         `json:"id"`
	Start model.SlotTime `json:"start"`
	End   model.SlotTime `json:"end"`
}

func NewAvailabilityResponse(conflicts []model.Booking) AvailabilityResponse {
	resp := AvailabilityResponse{Available: len(conflicts) == 0}
	for _, b := range conflicts {
		resp.Conflicts = append(resp.Conflicts, BookingSummary{ID: b.ID, Start: b.Start, End: b.End})
	}
	return resp
}
