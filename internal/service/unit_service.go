package service

import (
	"context"
	"time"

	"camrental/internal/errs"
	"camrental/internal/model"
	"camrental/internal/repository"
)

// UnitService manages the camera registry. The registry is informational:
// bookings reference units by (model, serial) whether or not the unit was
// registered first.
type UnitService struct {
	store *repository.Store
}

func NewUnitService(store *repository.Store) *UnitService {
	return &UnitService{store: store}
}

func (s *UnitService) ListUnits() []model.Unit {
	return s.store.Units()
}

func (s *UnitService) RegisterUnit(ctx context.Context, u model.Unit) (model.Unit, *errs.Warning, error) {
	u.AddedAt = time.Now().UTC()
	warn, err := s.store.CreateUnit(ctx, u)
	if err != nil {
		return model.Unit{}, warn, err
	}
	return u, warn, nil
}

func (s *UnitService) UpdateUnit(ctx context.Context, u model.Unit) (model.Unit, *errs.Warning, error) {
	warn, err := s.store.UpdateUnit(ctx, u)
	if err != nil {
		return model.Unit{}, warn, err
	}
	got, _ := s.store.Unit(u.UnitRef)
	return got, warn, nil
}

func (s *UnitService) RemoveUnit(ctx context.Context, ref model.UnitRef) (*errs.Warning, error) {
	return s.store.DeleteUnit(ctx, ref)
}
