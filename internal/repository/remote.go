package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"camrental/internal/model"
)

// RemoteStore is the remote store of record. The store treats it as optional:
// every call is bounded by the caller's context and a timeout counts as a
// plain transport failure. Implementations must be safe for concurrent use.
type RemoteStore interface {
	Ping(ctx context.Context) error
	FetchAll(ctx context.Context) (model.Snapshot, error)

	InsertBooking(ctx context.Context, b model.Booking) error
	UpdateBooking(ctx context.Context, b model.Booking) error
	DeleteBooking(ctx context.Context, id string) error

	// UpsertConfirmation covers both insert and update: confirmation rows
	// are created implicitly by the first handoff toggle.
	UpsertConfirmation(ctx context.Context, c model.Confirmation) error

	InsertUnit(ctx context.Context, u model.Unit) error
	UpdateUnit(ctx context.Context, u model.Unit) error
	DeleteUnit(ctx context.Context, ref model.UnitRef) error
}

// PostgresStore implements RemoteStore on a plain *sql.DB.
type PostgresStore struct {
	DB *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{DB: db}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

// EnsureSchema creates the remote tables when they do not exist yet.
// Confirmations cascade on booking delete so the remote side never keeps an
// orphaned confirmation row.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	for _, query := range []string{createBookingsTable, createConfirmationsTable, createUnitsTable} {
		if _, err := s.DB.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("error ensuring remote schema: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) FetchAll(ctx context.Context) (model.Snapshot, error) {
	var snap model.Snapshot
	var err error
	if snap.Bookings, err = s.fetchBookings(ctx); err != nil {
		return model.Snapshot{}, err
	}
	if snap.Confirmations, err = s.fetchConfirmations(ctx); err != nil {
		return model.Snapshot{}, err
	}
	if snap.Units, err = s.fetchUnits(ctx); err != nil {
		return model.Snapshot{}, err
	}
	return snap, nil
}

func (s *PostgresStore) fetchBookings(ctx context.Context) ([]model.Booking, error) {
	query := `
		SELECT id, unit_model, unit_serial, start_date, start_slot, end_date, end_slot,
		       renter_name, renter_email, renter_phone, pickup_handler, return_handler,
		       deposit_status, notes, created_at
		FROM bookings`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying bookings: %w", err)
	}
	defer rows.Close()

	var out []model.Booking
	for rows.Next() {
		var b model.Booking
		var startDate, endDate time.Time
		var startSlot, endSlot string
		if err := rows.Scan(&b.ID, &b.Unit.Model, &b.Unit.Serial, &startDate, &startSlot,
			&endDate, &endSlot, &b.RenterName, &b.RenterEmail, &b.RenterPhone,
			&b.PickupHandler, &b.ReturnHandler, &b.DepositStatus, &b.Notes, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning booking: %w", err)
		}
		b.Start = model.NewSlotTime(startDate, model.TimeSlot(startSlot))
		b.End = model.NewSlotTime(endDate, model.TimeSlot(endSlot))
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *PostgresStore) fetchConfirmations(ctx context.Context) ([]model.Confirmation, error) {
	query := `
		SELECT booking_id, pickup_confirmed, return_confirmed, updated_at
		FROM booking_confirmations`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying confirmations: %w", err)
	}
	defer rows.Close()

	var out []model.Confirmation
	for rows.Next() {
		var c model.Confirmation
		if err := rows.Scan(&c.BookingID, &c.PickupConfirmed, &c.ReturnConfirmed, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("error scanning confirmation: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) fetchUnits(ctx context.Context) ([]model.Unit, error) {
	query := `SELECT model, serial, notes, added_at FROM units`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying units: %w", err)
	}
	defer rows.Close()

	var out []model.Unit
	for rows.Next() {
		var u model.Unit
		if err := rows.Scan(&u.Model, &u.Serial, &u.Notes, &u.AddedAt); err != nil {
			return nil, fmt.Errorf("error scanning unit: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// InsertBooking is a no-op when the id already exists remotely, which keeps
// reconciliation uploads from clobbering the authoritative remote copy.
func (s *PostgresStore) InsertBooking(ctx context.Context, b model.Booking) error {
	query := `
		INSERT INTO bookings (id, unit_model, unit_serial, start_date, start_slot,
			end_date, end_slot, renter_name, renter_email, renter_phone,
			pickup_handler, return_handler, deposit_status, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO NOTHING`
	_, err := s.DB.ExecContext(ctx, query,
		b.ID, b.Unit.Model, b.Unit.Serial, b.Start.Date, string(b.Start.Slot),
		b.End.Date, string(b.End.Slot), b.RenterName, b.RenterEmail, b.RenterPhone,
		b.PickupHandler, b.ReturnHandler, b.DepositStatus, b.Notes, b.CreatedAt)
	if err != nil {
		return fmt.Errorf("error inserting booking: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateBooking(ctx context.Context, b model.Booking) error {
	query := `
		UPDATE bookings
		SET unit_model = $2, unit_serial = $3, start_date = $4, start_slot = $5,
		    end_date = $6, end_slot = $7, renter_name = $8, renter_email = $9,
		    renter_phone = $10, pickup_handler = $11, return_handler = $12,
		    deposit_status = $13, notes = $14
		WHERE id = $1`
	_, err := s.DB.ExecContext(ctx, query,
		b.ID, b.Unit.Model, b.Unit.Serial, b.Start.Date, string(b.Start.Slot),
		b.End.Date, string(b.End.Slot), b.RenterName, b.RenterEmail, b.RenterPhone,
		b.PickupHandler, b.ReturnHandler, b.DepositStatus, b.Notes)
	if err != nil {
		return fmt.Errorf("error updating booking: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteBooking(ctx context.Context, id string) error {
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM bookings WHERE id = $1`, id); err != nil {
		return fmt.Errorf("error deleting booking: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpsertConfirmation(ctx context.Context, c model.Confirmation) error {
	query := `
		INSERT INTO booking_confirmations (booking_id, pickup_confirmed, return_confirmed, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (booking_id) DO UPDATE
		SET pickup_confirmed = EXCLUDED.pickup_confirmed,
		    return_confirmed = EXCLUDED.return_confirmed,
		    updated_at = EXCLUDED.updated_at`
	_, err := s.DB.ExecContext(ctx, query, c.BookingID, c.PickupConfirmed, c.ReturnConfirmed, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error upserting confirmation: %w", err)
	}
	return nil
}

func (s *PostgresStore) InsertUnit(ctx context.Context, u model.Unit) error {
	query := `
		INSERT INTO units (model, serial, notes, added_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (model, serial) DO NOTHING`
	if _, err := s.DB.ExecContext(ctx, query, u.Model, u.Serial, u.Notes, u.AddedAt); err != nil {
		return fmt.Errorf("error inserting unit: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateUnit(ctx context.Context, u model.Unit) error {
	query := `UPDATE units SET notes = $3 WHERE model = $1 AND serial = $2`
	if _, err := s.DB.ExecContext(ctx, query, u.Model, u.Serial, u.Notes); err != nil {
		return fmt.Errorf("error updating unit: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteUnit(ctx context.Context, ref model.UnitRef) error {
	query := `DELETE FROM units WHERE model = $1 AND serial = $2`
	if _, err := s.DB.ExecContext(ctx, query, ref.Model, ref.Serial); err != nil {
		return fmt.Errorf("error deleting unit: %w", err)
	}
	return nil
}

const createBookingsTable = `
	CREATE TABLE IF NOT EXISTS bookings (
		id             TEXT PRIMARY KEY,
		unit_model     TEXT NOT NULL,
		unit_serial    TEXT NOT NULL,
		start_date     DATE NOT NULL,
		start_slot     TEXT NOT NULL,
		end_date       DATE NOT NULL,
		end_slot       TEXT NOT NULL,
		renter_name    TEXT NOT NULL,
		renter_email   TEXT NOT NULL DEFAULT '',
		renter_phone   TEXT NOT NULL DEFAULT '',
		pickup_handler TEXT NOT NULL DEFAULT '',
		return_handler TEXT NOT NULL DEFAULT '',
		deposit_status TEXT NOT NULL DEFAULT '',
		notes          TEXT NOT NULL DEFAULT '',
		created_at     TIMESTAMPTZ NOT NULL
	)`

const createConfirmationsTable = `
	CREATE TABLE IF NOT EXISTS booking_confirmations (
		booking_id       TEXT PRIMARY KEY REFERENCES bookings(id) ON DELETE CASCADE,
		pickup_confirmed BOOLEAN NOT NULL DEFAULT FALSE,
		return_confirmed BOOLEAN NOT NULL DEFAULT FALSE,
		updated_at       TIMESTAMPTZ NOT NULL
	)`

const createUnitsTable = `
	CREATE TABLE IF NOT EXISTS units (
		model    TEXT NOT NULL,
		serial   TEXT NOT NULL,
		notes    TEXT NOT NULL DEFAULT '',
		added_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (model, serial)
	)`
