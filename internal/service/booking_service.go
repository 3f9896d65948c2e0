package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"

	"camrental/internal/entities"
	"camrental/internal/errs"
	"camrental/internal/model"
	"camrental/internal/queue"
	"camrental/internal/repository"
)

// BookingService owns the booking lifecycle: proposals, edits, deletions,
// availability checks and the flat export view.
type BookingService struct {
	store  *repository.Store
	events *queue.Publisher
}

func NewBookingService(store *repository.Store, events *queue.Publisher) *BookingService {
	return &BookingService{store: store, events: events}
}

// ProposeBooking validates the candidate, checks it against every booking on
// the same unit and persists it. A returned warning means the booking is
// durable locally but the remote write needs a later reconcile.
func (s *BookingService) ProposeBooking(ctx context.Context, b model.Booking) (model.Booking, *errs.Warning, error) {
	if err := b.Validate(); err != nil {
		return model.Booking{}, nil, err
	}
	b.ID = uuid.NewString()
	b.CreatedAt = time.Now().UTC()

	// Serialize the check-then-insert section per unit so two concurrent
	// proposals cannot both pass the conflict check.
	unlock := s.store.LockUnit(b.Unit)
	defer unlock()

	if conflicts := model.ConflictingBookings(b, s.store.BookingsForUnit(b.Unit)); len(conflicts) > 0 {
		return model.Booking{}, nil, conflictError(b.Unit, conflicts)
	}
	warn, err := s.store.CreateBooking(ctx, b)
	if err != nil {
		return model.Booking{}, warn, err
	}
	s.emit(queue.EventBookingCreated, b)
	s.sendBookingEmail(b, "confirmed")
	return b, warn, nil
}

// UpdateBooking replaces the stored fields of one booking. ID and CreatedAt
// always survive from the original; the new interval is re-validated and
// re-checked for conflicts, excluding the booking itself.
func (s *BookingService) UpdateBooking(ctx context.Context, id string, b model.Booking) (model.Booking, *errs.Warning, error) {
	existing, ok := s.store.Booking(id)
	if !ok {
		return model.Booking{}, nil, &errs.NotFoundError{Kind: "booking", Key: id}
	}
	b.ID = existing.ID
	b.CreatedAt = existing.CreatedAt
	if err := b.Validate(); err != nil {
		return model.Booking{}, nil, err
	}

	unlock := s.store.LockUnit(b.Unit)
	defer unlock()

	if conflicts := model.ConflictingBookings(b, s.store.BookingsForUnit(b.Unit)); len(conflicts) > 0 {
		return model.Booking{}, nil, conflictError(b.Unit, conflicts)
	}
	warn, err := s.store.UpdateBooking(ctx, b)
	if err != nil {
		return model.Booking{}, warn, err
	}
	s.emit(queue.EventBookingUpdated, b)
	return b, warn, nil
}

// DeleteBooking removes a booking together with its confirmation entry.
func (s *BookingService) DeleteBooking(ctx context.Context, id string) (*errs.Warning, error) {
	b, ok := s.store.Booking(id)
	if !ok {
		return nil, &errs.NotFoundError{Kind: "booking", Key: id}
	}
	warn, err := s.store.DeleteBooking(ctx, id)
	if err != nil {
		return warn, err
	}
	s.emit(queue.EventBookingDeleted, b)
	s.sendBookingEmail(b, "cancelled")
	return warn, nil
}

// GetBooking returns one booking with its confirmation flags.
func (s *BookingService) GetBooking(id string) (model.Booking, model.Confirmation, error) {
	b, ok := s.store.Booking(id)
	if !ok {
		return model.Booking{}, model.Confirmation{}, &errs.NotFoundError{Kind: "booking", Key: id}
	}
	return b, s.store.Confirmation(id), nil
}

// BookingFilter narrows ListBookings results. Zero values mean "any". A
// booking matches the date range when its span intersects [From, To] at date
// granularity.
type BookingFilter struct {
	Model  string
	Serial string
	From   time.Time
	To     time.Time
}

// ListBookings returns bookings ordered by start, then unit, then id.
func (s *BookingService) ListBookings(f BookingFilter) []model.Booking {
	all := s.store.Bookings()
	out := make([]model.Booking, 0, len(all))
	for _, b := range all {
		if f.Model != "" && b.Unit.Model != f.Model {
			continue
		}
		if f.Serial != "" && b.Unit.Serial != f.Serial {
			continue
		}
		if !f.From.IsZero() && b.End.Date.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && b.Start.Date.After(f.To) {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Start.Compare(out[j].Start); c != 0 {
			return c < 0
		}
		if out[i].Unit != out[j].Unit {
			if out[i].Unit.Model != out[j].Unit.Model {
				return out[i].Unit.Model < out[j].Unit.Model
			}
			return out[i].Unit.Serial < out[j].Unit.Serial
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// CheckAvailability reports the bookings a candidate window would collide
// with, without persisting anything.
func (s *BookingService) CheckAvailability(b model.Booking) ([]model.Booking, error) {
	if b.Unit.Model == "" || b.Unit.Serial == "" {
		return nil, &errs.ValidationError{Field: "unit", Reason: "model and serial required"}
	}
	if err := b.Interval().Validate(); err != nil {
		return nil, err
	}
	return model.ConflictingBookings(b, s.store.BookingsForUnit(b.Unit)), nil
}

// ExportRecords flattens every booking plus its confirmation flags into the
// stable export row format, ordered like ListBookings.
func (s *BookingService) ExportRecords() []entities.ExportRecord {
	bookings := s.ListBookings(BookingFilter{})
	out := make([]entities.ExportRecord, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, entities.NewExportRecord(b, s.store.Confirmation(b.ID)))
	}
	return out
}

// sendBookingEmail tells the renter their booking was confirmed or
// cancelled. Delivery runs in the background and failures are only logged.
func (s *BookingService) sendBookingEmail(b model.Booking, status string) {
	if b.RenterEmail == "" {
		return
	}
	data := entities.BookingEmailData{
		RenterName:     b.RenterName,
		BookingID:      b.ID,
		UnitModel:      b.Unit.Model,
		UnitSerial:     b.Unit.Serial,
		StartFormatted: b.Start.String(),
		EndFormatted:   b.End.String(),
	}
	subject := fmt.Sprintf("Your camera booking is %s - %s/%s", status, data.UnitModel, data.UnitSerial)
	body := fmt.Sprintf(
		"Hello %s,\n\nYour camera booking is %s.\n\n"+
			"Booking details:\n"+
			"Booking ID: %s\n"+
			"Camera: %s (serial %s)\n"+
			"Pickup: %s\n"+
			"Return: %s\n\n"+
			"Thank you for renting with us.",
		data.RenterName, status, data.BookingID, data.UnitModel, data.UnitSerial,
		data.StartFormatted, data.EndFormatted)

	go func(toEmail, toName string) {
		if err := SendEmailWithSendGrid(toEmail, toName, subject, body, ""); err != nil {
			log.Printf("Booking %s: %s email failed: %v", data.BookingID, status, err)
		}
	}(b.RenterEmail, b.RenterName)
}

func (s *BookingService) emit(evType string, b model.Booking) {
	if s.events == nil {
		return
	}
	ev := queue.Event{
		Type:       evType,
		BookingID:  b.ID,
		Unit:       b.Unit.String(),
		OccurredAt: time.Now().UTC(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.events.Publish(ctx, ev)
	}()
}

func conflictError(unit model.UnitRef, conflicts []model.Booking) *errs.ConflictError {
	ids := make([]string, 0, len(conflicts))
	for _, c := range conflicts {
		ids = append(ids, c.ID)
	}
	return &errs.ConflictError{Unit: unit.String(), BookingIDs: ids}
}
