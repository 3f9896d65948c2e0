package repository

import (
	"context"
	"fmt"
	"sort"

	"camrental/internal/errs"
	"camrental/internal/model"
)

// MergeStats describes one dataset's reconciliation outcome. LocalOnly ids
// were missing remotely and got uploaded; RemoteOnly ids were missing locally
// and got adopted into the cache.
type MergeStats struct {
	Total      int      `json:"total"`
	LocalOnly  []string `json:"local_only,omitempty"`
	RemoteOnly []string `json:"remote_only,omitempty"`
}

// ReconcileReport summarizes one reconciliation pass. Upload failures are
// recoverable (the next pass retries them), so they ride along as strings
// instead of failing the pass.
type ReconcileReport struct {
	Bookings      MergeStats `json:"bookings"`
	Confirmations MergeStats `json:"confirmations"`
	Units         MergeStats `json:"units"`
	UploadErrors  []string   `json:"upload_errors,omitempty"`
}

// MergeSnapshots combines the local and remote views of every dataset. For
// ids present on both sides the remote copy wins; ids present on one side
// only are kept as-is. Nothing is ever dropped. Merging the same inputs twice
// yields the same result.
func MergeSnapshots(local, remote model.Snapshot) (model.Snapshot, ReconcileReport) {
	var merged model.Snapshot
	var report ReconcileReport
	merged.Bookings, report.Bookings = mergeBookings(local.Bookings, remote.Bookings)
	merged.Confirmations, report.Confirmations = mergeConfirmations(local.Confirmations, remote.Confirmations)
	merged.Units, report.Units = mergeUnits(local.Units, remote.Units)
	return merged, report
}

func mergeBookings(local, remote []model.Booking) ([]model.Booking, MergeStats) {
	merged := make(map[string]model.Booking, len(local)+len(remote))
	for _, b := range local {
		merged[b.ID] = b
	}
	var stats MergeStats
	remoteSeen := make(map[string]bool, len(remote))
	for _, b := range remote {
		remoteSeen[b.ID] = true
		if _, ok := merged[b.ID]; !ok {
			stats.RemoteOnly = append(stats.RemoteOnly, b.ID)
		}
		merged[b.ID] = b
	}
	for _, b := range local {
		if !remoteSeen[b.ID] {
			stats.LocalOnly = append(stats.LocalOnly, b.ID)
		}
	}
	out := make([]model.Booking, 0, len(merged))
	for _, b := range merged {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	sort.Strings(stats.LocalOnly)
	sort.Strings(stats.RemoteOnly)
	stats.Total = len(out)
	return out, stats
}

func mergeConfirmations(local, remote []model.Confirmation) ([]model.Confirmation, MergeStats) {
	merged := make(map[string]model.Confirmation, len(local)+len(remote))
	for _, c := range local {
		merged[c.BookingID] = c
	}
	var stats MergeStats
	remoteSeen := make(map[string]bool, len(remote))
	for _, c := range remote {
		remoteSeen[c.BookingID] = true
		if _, ok := merged[c.BookingID]; !ok {
			stats.RemoteOnly = append(stats.RemoteOnly, c.BookingID)
		}
		merged[c.BookingID] = c
	}
	for _, c := range local {
		if !remoteSeen[c.BookingID] {
			stats.LocalOnly = append(stats.LocalOnly, c.BookingID)
		}
	}
	out := make([]model.Confirmation, 0, len(merged))
	for _, c := range merged {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BookingID < out[j].BookingID })
	sort.Strings(stats.LocalOnly)
	sort.Strings(stats.RemoteOnly)
	stats.Total = len(out)
	return out, stats
}

func mergeUnits(local, remote []model.Unit) ([]model.Unit, MergeStats) {
	merged := make(map[model.UnitRef]model.Unit, len(local)+len(remote))
	for _, u := range local {
		merged[u.UnitRef] = u
	}
	var stats MergeStats
	remoteSeen := make(map[model.UnitRef]bool, len(remote))
	for _, u := range remote {
		remoteSeen[u.UnitRef] = true
		if _, ok := merged[u.UnitRef]; !ok {
			stats.RemoteOnly = append(stats.RemoteOnly, u.UnitRef.String())
		}
		merged[u.UnitRef] = u
	}
	for _, u := range local {
		if !remoteSeen[u.UnitRef] {
			stats.LocalOnly = append(stats.LocalOnly, u.UnitRef.String())
		}
	}
	out := make([]model.Unit, 0, len(merged))
	for _, u := range merged {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Model != out[j].Model {
			return out[i].Model < out[j].Model
		}
		return out[i].Serial < out[j].Serial
	})
	sort.Strings(stats.LocalOnly)
	sort.Strings(stats.RemoteOnly)
	stats.Total = len(out)
	return out, stats
}

// Reconcile runs the manual merge against the remote store: fetch everything
// remote, merge with the local view, persist the merged view locally, then
// upload whatever the remote side was missing. It never runs on its own; the
// caller triggers it explicitly. A second pass with no intervening writes is
// a no-op with an identical merged set.
func (s *Store) Reconcile(ctx context.Context) (ReconcileReport, error) {
	if s.remote == nil {
		return ReconcileReport{}, fmt.Errorf("%w: no remote store configured", errs.ErrRemoteUnavailable)
	}

	fctx, cancel := context.WithTimeout(ctx, s.timeout)
	remoteSnap, err := s.remote.FetchAll(fctx)
	cancel()
	if err != nil {
		return ReconcileReport{}, remoteErr(err)
	}
	// A successful fetch proves the remote is reachable again.
	s.remoteUp.Store(true)

	// Swap the working set under one write lock so readers never observe a
	// half-merged view.
	s.mu.Lock()
	merged, report := MergeSnapshots(s.snapshotLocked(), remoteSnap)
	s.bookings = make(map[string]model.Booking, len(merged.Bookings))
	for _, b := range merged.Bookings {
		s.bookings[b.ID] = b
	}
	s.confirms = make(map[string]model.Confirmation, len(merged.Confirmations))
	for _, c := range merged.Confirmations {
		s.confirms[c.BookingID] = c
	}
	s.units = make(map[model.UnitRef]model.Unit, len(merged.Units))
	for _, u := range merged.Units {
		s.units[u.UnitRef] = u
	}
	s.mu.Unlock()

	if err := s.persistSnapshot(); err != nil {
		return report, err
	}

	s.uploadMissing(ctx, merged, &report)
	return report, nil
}

// uploadMissing pushes entities the remote side lacked. Each failure is
// recorded and skipped; the next reconciliation retries them.
func (s *Store) uploadMissing(ctx context.Context, merged model.Snapshot, report *ReconcileReport) {
	push := func(op string, fn func(context.Context) error) {
		uctx, cancel := context.WithTimeout(ctx, s.timeout)
		err := fn(uctx)
		cancel()
		if err != nil {
			report.UploadErrors = append(report.UploadErrors, fmt.Sprintf("%s: %v", op, err))
		}
	}

	bookingsByID := make(map[string]model.Booking, len(merged.Bookings))
	for _, b := range merged.Bookings {
		bookingsByID[b.ID] = b
	}
	for _, id := range report.Bookings.LocalOnly {
		b := bookingsByID[id]
		push("upload booking "+id, func(rctx context.Context) error {
			return s.remote.InsertBooking(rctx, b)
		})
	}

	confirmationsByID := make(map[string]model.Confirmation, len(merged.Confirmations))
	for _, c := range merged.Confirmations {
		confirmationsByID[c.BookingID] = c
	}
	for _, id := range report.Confirmations.LocalOnly {
		c := confirmationsByID[id]
		push("upload confirmation "+id, func(rctx context.Context) error {
			return s.remote.UpsertConfirmation(rctx, c)
		})
	}

	unitsByRef := make(map[string]model.Unit, len(merged.Units))
	for _, u := range merged.Units {
		unitsByRef[u.UnitRef.String()] = u
	}
	for _, key := range report.Units.LocalOnly {
		u := unitsByRef[key]
		push("upload unit "+key, func(rctx context.Context) error {
			return s.remote.InsertUnit(rctx, u)
		})
	}
}
