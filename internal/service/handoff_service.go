package service

import (
	"context"
	"time"

	"camrental/internal/errs"
	"camrental/internal/model"
	"camrental/internal/queue"
	"camrental/internal/repository"
)

// HandoffService drives the pickup/return lifecycle. Both operations are
// toggles so a mistaken tap can always be backed out; the only hard rule is
// that a return can never be confirmed before pickup.
type HandoffService struct {
	store  *repository.Store
	events *queue.Publisher
}

func NewHandoffService(store *repository.Store, events *queue.Publisher) *HandoffService {
	return &HandoffService{store: store, events: events}
}

// ConfirmPickup toggles the pickup flag. Toggling pickup off while the
// return flag is set clears the return flag in the same write, so the pair
// can never read "returned but not picked up".
func (s *HandoffService) ConfirmPickup(ctx context.Context, id string) (model.Confirmation, *errs.Warning, error) {
	unlock := s.store.LockHandoff(id)
	defer unlock()

	b, ok := s.store.Booking(id)
	if !ok {
		return model.Confirmation{}, nil, &errs.NotFoundError{Kind: "booking", Key: id}
	}
	c := s.store.Confirmation(id)
	c.PickupConfirmed = !c.PickupConfirmed
	if !c.PickupConfirmed && c.ReturnConfirmed {
		c.ReturnConfirmed = false
	}
	c.UpdatedAt = time.Now().UTC()

	warn, err := s.store.SaveConfirmation(ctx, c)
	if err != nil {
		return model.Confirmation{}, warn, err
	}
	s.emit(queue.EventPickupToggled, b)
	return c, warn, nil
}

// ConfirmReturn toggles the return flag. A return on a booking whose pickup
// was never confirmed is rejected with a TransitionError and no state change.
func (s *HandoffService) ConfirmReturn(ctx context.Context, id string) (model.Confirmation, *errs.Warning, error) {
	unlock := s.store.LockHandoff(id)
	defer unlock()

	b, ok := s.store.Booking(id)
	if !ok {
		return model.Confirmation{}, nil, &errs.NotFoundError{Kind: "booking", Key: id}
	}
	c := s.store.Confirmation(id)
	if !c.PickupConfirmed {
		return model.Confirmation{}, nil, &errs.TransitionError{
			BookingID: id,
			Reason:    "cannot confirm return before pickup",
		}
	}
	c.ReturnConfirmed = !c.ReturnConfirmed
	c.UpdatedAt = time.Now().UTC()

	warn, err := s.store.SaveConfirmation(ctx, c)
	if err != nil {
		return model.Confirmation{}, warn, err
	}
	s.emit(queue.EventReturnToggled, b)
	return c, warn, nil
}

func (s *HandoffService) emit(evType string, b model.Booking) {
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
