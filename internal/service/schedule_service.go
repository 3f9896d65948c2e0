package service

import (
	"sort"
	"strings"
	"time"

	"camrental/internal/entities"
	"camrental/internal/errs"
	"camrental/internal/model"
	"camrental/internal/repository"
)

// SortKey selects the primary order of a schedule view.
type SortKey string

const (
	SortByDate   SortKey = "date"
	SortByUnit   SortKey = "unit"
	SortByRenter SortKey = "renter"
)

// ParseSortKey normalizes a sort query parameter. Empty means date order.
func ParseSortKey(s string) (SortKey, error) {
	switch SortKey(strings.ToLower(strings.TrimSpace(s))) {
	case "", SortByDate:
		return SortByDate, nil
	case SortByUnit:
		return SortByUnit, nil
	case SortByRenter:
		return SortByRenter, nil
	}
	return "", &errs.ValidationError{Field: "sort", Reason: "want date, unit or renter"}
}

// ScheduleQuery selects the reference date and row order for a schedule
// view. A zero Date means today in UTC.
type ScheduleQuery struct {
	Date       time.Time
	Sort       SortKey
	Descending bool
}

// ScheduleService recomputes the pending and overdue projections from the
// live booking set on every call. Nothing is cached, so the views can never
// go stale against the store.
type ScheduleService struct {
	store *repository.Store
}

func NewScheduleService(store *repository.Store) *ScheduleService {
	return &ScheduleService{store: store}
}

// PendingPickups lists bookings whose window covers the reference date and
// whose pickup has not been confirmed.
func (s *ScheduleService) PendingPickups(q ScheduleQuery) []entities.ScheduleEntry {
	ref := q.refDate()
	var out []entities.ScheduleEntry
	for _, b := range s.store.Bookings() {
		c := s.store.Confirmation(b.ID)
		if c.PickupConfirmed {
			continue
		}
		if b.Start.Date.After(ref) || b.End.Date.Before(ref) {
			continue
		}
		out = append(out, entities.NewScheduleEntry(b, c, 0))
	}
	sortEntries(out, q)
	return out
}

// PendingReturns lists bookings whose end date has passed without a return
// confirmation, annotated with how many days overdue each one is.
func (s *ScheduleService) PendingReturns(q ScheduleQuery) []entities.ScheduleEntry {
	ref := q.refDate()
	var out []entities.ScheduleEntry
	for _, b := range s.store.Bookings() {
		c := s.store.Confirmation(b.ID)
		if c.ReturnConfirmed {
			continue
		}
		if !b.End.Date.Before(ref) {
			continue
		}
		out = append(out, entities.NewScheduleEntry(b, c, overdueDays(b.End.Date, ref)))
	}
	sortEntries(out, q)
	return out
}

func (q ScheduleQuery) refDate() time.Time {
	if q.Date.IsZero() {
		return model.DateOnly(time.Now())
	}
	return model.DateOnly(q.Date)
}

// overdueDays counts whole calendar days from the end date to the reference
// date. Both are UTC midnights, so the division is exact.
func overdueDays(end, ref time.Time) int {
	return int(ref.Sub(end).Hours() / 24)
}

// sortEntries orders a view by the requested key. Every key falls back
// through a fixed tie-break chain so equal-key rows always come out in the
// same order.
func sortEntries(entries []entities.ScheduleEntry, q ScheduleQuery) {
	cmp := func(a, b entities.ScheduleEntry) int {
		switch q.Sort {
		case SortByUnit:
			return firstNonZero(
				strings.Compare(a.Unit.Model, b.Unit.Model),
				strings.Compare(a.Unit.Serial, b.Unit.Serial),
				a.Start.Compare(b.Start),
				strings.Compare(a.BookingID, b.BookingID),
			)
		case SortByRenter:
			return firstNonZero(
				strings.Compare(a.RenterName, b.RenterName),
				a.Start.Compare(b.Start),
				strings.Compare(a.BookingID, b.BookingID),
			)
		default:
			return firstNonZero(
				a.Start.Compare(b.Start),
				strings.Compare(a.Unit.Model, b.Unit.Model),
				strings.Compare(a.Unit.Serial, b.Unit.Serial),
				strings.Compare(a.BookingID, b.BookingID),
			)
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if q.Descending {
			return cmp(entries[j], entries[i]) < 0
		}
		return cmp(entries[i], entries[j]) < 0
	})
}

func firstNonZero(values ...int) int {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}
