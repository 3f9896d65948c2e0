package repository

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"camrental/internal/errs"
	"camrental/internal/model"
)

// Store coordinates the two persistence sides: the optional remote store of
// record and the always-on local cache. Reads are served from memory, loaded
// from the local cache at startup. Every mutation follows the same contract:
// try the remote first when it is configured and marked reachable, then apply
// locally no matter what. A remote failure degrades the call to local-only
// and comes back as a warning next to the result, never as an error.
type Store struct {
	local   *LocalCache
	remote  RemoteStore
	timeout time.Duration

	remoteUp atomic.Bool

	mu       sync.RWMutex
	bookings map[string]model.Booking
	confirms map[string]model.Confirmation
	units    map[model.UnitRef]model.Unit

	// saveMu orders the snapshot-then-write pairs that persist the working
	// set: two mutations under different entity locks must not land their
	// dataset lists in the cache in the opposite order from their map updates,
	// or the stale list erases the newer entity from disk.
	saveMu sync.Mutex

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// Open loads the working set from the local cache and, when a remote store is
// configured, pings it once to decide the initial reachability mark. Cache
// recovery events (backup restores, degraded datasets) are returned as
// warnings for the caller to log; only real cache I/O failures are errors.
func Open(local *LocalCache, remote RemoteStore, timeout time.Duration) (*Store, []*errs.Warning, error) {
	s := &Store{
		local:    local,
		remote:   remote,
		timeout:  timeout,
		bookings: make(map[string]model.Booking),
		confirms: make(map[string]model.Confirmation),
		units:    make(map[model.UnitRef]model.Unit),
		locks:    make(map[string]*sync.Mutex),
	}

	var warnings []*errs.Warning
	bookings, warn, err := local.LoadBookings()
	if err != nil {
		return nil, nil, err
	}
	if warn != nil {
		warnings = append(warnings, warn)
	}
	confirmations, warn, err := local.LoadConfirmations()
	if err != nil {
		return nil, nil, err
	}
	if warn != nil {
		warnings = append(warnings, warn)
	}
	units, warn, err := local.LoadUnits()
	if err != nil {
		return nil, nil, err
	}
	if warn != nil {
		warnings = append(warnings, warn)
	}
	for _, b := range bookings {
		s.bookings[b.ID] = b
	}
	for _, c := range confirmations {
		s.confirms[c.BookingID] = c
	}
	for _, u := range units {
		s.units[u.UnitRef] = u
	}

	if remote != nil {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		err := remote.Ping(ctx)
		cancel()
		if err != nil {
			warnings = append(warnings, errs.NewWarning("remote ping", remoteErr(err)))
		} else {
			s.remoteUp.Store(true)
		}
	}
	return s, warnings, nil
}

func (s *Store) Close() error { return s.local.Close() }

// RemoteConfigured reports whether a remote adapter was supplied at all.
func (s *Store) RemoteConfigured() bool { return s.remote != nil }

// RemoteReachable reports the current reachability mark. Individual write
// failures do not clear it; only a failed startup ping leaves it unset, and a
// successful Reconcile sets it again.
func (s *Store) RemoteReachable() bool { return s.remoteUp.Load() }

// --- bookings ---

func (s *Store) Booking(id string) (model.Booking, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[id]
	return b, ok
}

func (s *Store) Bookings() []model.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bookingsLocked()
}

// BookingsForUnit returns every booking held by one physical unit.
func (s *Store) BookingsForUnit(ref model.UnitRef) []model.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Booking
	for _, b := range s.bookings {
		if b.Unit == ref {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// LockUnit serializes the check-then-write section of a booking proposal for
// one physical unit, so two concurrent proposals cannot both pass the
// conflict check. The returned func releases the lock.
func (s *Store) LockUnit(ref model.UnitRef) func() {
	mu := s.entityLock("unit/" + ref.String())
	mu.Lock()
	return mu.Unlock
}

// LockHandoff serializes read-modify-write toggles on one booking's
// confirmation so concurrent toggles never base on the same read. It is a
// separate key from the booking write lock that SaveConfirmation takes
// internally.
func (s *Store) LockHandoff(id string) func() {
	mu := s.entityLock("handoff/" + id)
	mu.Lock()
	return mu.Unlock
}

// CreateBooking persists a new booking remote-first and mirrors it into the
// cache. The caller owns validation and conflict checking.
func (s *Store) CreateBooking(ctx context.Context, b model.Booking) (*errs.Warning, error) {
	mu := s.entityLock("booking/" + b.ID)
	mu.Lock()
	defer mu.Unlock()

	warn := s.pushRemote(ctx, "create booking "+b.ID, func(rctx context.Context) error {
		return s.remote.InsertBooking(rctx, b)
	})

	s.mu.Lock()
	s.bookings[b.ID] = b
	s.mu.Unlock()

	return warn, s.persistBookings()
}

// UpdateBooking replaces every field of an existing booking except ID and
// CreatedAt, which the caller preserves.
func (s *Store) UpdateBooking(ctx context.Context, b model.Booking) (*errs.Warning, error) {
	mu := s.entityLock("booking/" + b.ID)
	mu.Lock()
	defer mu.Unlock()

	s.mu.RLock()
	_, ok := s.bookings[b.ID]
	s.mu.RUnlock()
	if !ok {
		return nil, &errs.NotFoundError{Kind: "booking", Key: b.ID}
	}

	warn := s.pushRemote(ctx, "update booking "+b.ID, func(rctx context.Context) error {
		return s.remote.UpdateBooking(rctx, b)
	})

	s.mu.Lock()
	s.bookings[b.ID] = b
	s.mu.Unlock()

	return warn, s.persistBookings()
}

// DeleteBooking removes a booking and its confirmation entry. The remote side
// cascades the confirmation through its schema; locally both datasets are
// rewritten together.
func (s *Store) DeleteBooking(ctx context.Context, id string) (*errs.Warning, error) {
	mu := s.entityLock("booking/" + id)
	mu.Lock()
	defer mu.Unlock()

	s.mu.RLock()
	_, ok := s.bookings[id]
	s.mu.RUnlock()
	if !ok {
		return nil, &errs.NotFoundError{Kind: "booking", Key: id}
	}

	warn := s.pushRemote(ctx, "delete booking "+id, func(rctx context.Context) error {
		return s.remote.DeleteBooking(rctx, id)
	})

	s.mu.Lock()
	delete(s.bookings, id)
	delete(s.confirms, id)
	s.mu.Unlock()

	return warn, s.persistBookingsAndConfirmations()
}

// --- confirmations ---

// Confirmation returns the handoff flags for a booking. A booking that was
// never toggled has no entry, which reads as both flags false.
func (s *Store) Confirmation(id string) model.Confirmation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.confirms[id]; ok {
		return c
	}
	return model.Confirmation{BookingID: id}
}

func (s *Store) Confirmations() []model.Confirmation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.confirmationsLocked()
}

// SaveConfirmation upserts the handoff flags for an existing booking. It
// shares the booking's entity lock so a concurrent delete cannot interleave.
func (s *Store) SaveConfirmation(ctx context.Context, c model.Confirmation) (*errs.Warning, error) {
	mu := s.entityLock("booking/" + c.BookingID)
	mu.Lock()
	defer mu.Unlock()

	s.mu.RLock()
	_, ok := s.bookings[c.BookingID]
	s.mu.RUnlock()
	if !ok {
		return nil, &errs.NotFoundError{Kind: "booking", Key: c.BookingID}
	}

	warn := s.pushRemote(ctx, "save confirmation "+c.BookingID, func(rctx context.Context) error {
		return s.remote.UpsertConfirmation(rctx, c)
	})

	s.mu.Lock()
	s.confirms[c.BookingID] = c
	s.mu.Unlock()

	return warn, s.persistConfirmations()
}

// --- units ---

func (s *Store) Unit(ref model.UnitRef) (model.Unit, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.units[ref]
	return u, ok
}

func (s *Store) Units() []model.Unit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unitsLocked()
}

// CreateUnit registers a physical unit. Registering the same (model, serial)
// twice is rejected.
func (s *Store) CreateUnit(ctx context.Context, u model.Unit) (*errs.Warning, error) {
	mu := s.entityLock("unit/" + u.UnitRef.String())
	mu.Lock()
	defer mu.Unlock()

	s.mu.RLock()
	_, exists := s.units[u.UnitRef]
	s.mu.RUnlock()
	if exists {
		return nil, &errs.ConflictError{Unit: u.UnitRef.String()}
	}

	warn := s.pushRemote(ctx, "create unit "+u.UnitRef.String(), func(rctx context.Context) error {
		return s.remote.InsertUnit(rctx, u)
	})

	s.mu.Lock()
	s.units[u.UnitRef] = u
	s.mu.Unlock()

	return warn, s.persistUnits()
}

func (s *Store) UpdateUnit(ctx context.Context, u model.Unit) (*errs.Warning, error) {
	mu := s.entityLock("unit/" + u.UnitRef.String())
	mu.Lock()
	defer mu.Unlock()

	s.mu.RLock()
	existing, ok := s.units[u.UnitRef]
	s.mu.RUnlock()
	if !ok {
		return nil, &errs.NotFoundError{Kind: "unit", Key: u.UnitRef.String()}
	}
	u.AddedAt = existing.AddedAt

	warn := s.pushRemote(ctx, "update unit "+u.UnitRef.String(), func(rctx context.Context) error {
		return s.remote.UpdateUnit(rctx, u)
	})

	s.mu.Lock()
	s.units[u.UnitRef] = u
	s.mu.Unlock()

	return warn, s.persistUnits()
}

func (s *Store) DeleteUnit(ctx context.Context, ref model.UnitRef) (*errs.Warning, error) {
	mu := s.entityLock("unit/" + ref.String())
	mu.Lock()
	defer mu.Unlock()

	s.mu.RLock()
	_, ok := s.units[ref]
	s.mu.RUnlock()
	if !ok {
		return nil, &errs.NotFoundError{Kind: "unit", Key: ref.String()}
	}

	warn := s.pushRemote(ctx, "delete unit "+ref.String(), func(rctx context.Context) error {
		return s.remote.DeleteUnit(rctx, ref)
	})

	s.mu.Lock()
	delete(s.units, ref)
	s.mu.Unlock()

	return warn, s.persistUnits()
}

// --- shared plumbing ---

// Snapshot copies the full working set.
func (s *Store) Snapshot() model.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Counts reports dataset sizes for the health endpoint.
func (s *Store) Counts() (bookings, confirmations, units int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.bookings), len(s.confirms), len(s.units)
}

// pushRemote runs one remote write under the store timeout. A nil remote or
// an unreachable mark skips the call entirely. Failures never abort the local
// write: they are logged, returned as a warning, and the next mutation simply
// tries again.
func (s *Store) pushRemote(ctx context.Context, op string, fn func(context.Context) error) *errs.Warning {
	if s.remote == nil || !s.remoteUp.Load() {
		return nil
	}
	rctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := fn(rctx); err != nil {
		log.Printf("remote write failed (%s): %v", op, err)
		return errs.NewWarning(op, remoteErr(err))
	}
	return nil
}

// persistBookings writes the current bookings dataset to the local cache.
// Like every persist helper it snapshots the working set and writes it under
// saveMu, so the write order always matches the map update order.
func (s *Store) persistBookings() error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	s.mu.RLock()
	list := s.bookingsLocked()
	s.mu.RUnlock()
	return s.local.SaveBookings(list)
}

func (s *Store) persistConfirmations() error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	s.mu.RLock()
	list := s.confirmationsLocked()
	s.mu.RUnlock()
	return s.local.SaveConfirmations(list)
}

func (s *Store) persistUnits() error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	s.mu.RLock()
	list := s.unitsLocked()
	s.mu.RUnlock()
	return s.local.SaveUnits(list)
}

// persistBookingsAndConfirmations rewrites both datasets in one cache
// transaction for the delete cascade, so the cache either holds the booking
// with its confirmation or neither.
func (s *Store) persistBookingsAndConfirmations() error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	s.mu.RLock()
	bookings := s.bookingsLocked()
	confirmations := s.confirmationsLocked()
	s.mu.RUnlock()
	return s.local.SaveBookingsAndConfirmations(bookings, confirmations)
}

func (s *Store) persistSnapshot() error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	return s.local.SaveSnapshot(s.Snapshot())
}

// entityLock returns the serialization mutex for one entity key. Entries stay
// for the store's lifetime: dropping a mutex while a goroutine still holds it
// would let a later caller mint a second lock for the same key.
func (s *Store) entityLock(key string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	mu, ok := s.locks[key]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[key] = mu
	}
	return mu
}

func (s *Store) bookingsLocked() []model.Booking {
	out := make([]model.Booking, 0, len(s.bookings))
	for _, b := range s.bookings {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) confirmationsLocked() []model.Confirmation {
	out := make([]model.Confirmation, 0, len(s.confirms))
	for _, c := range s.confirms {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BookingID < out[j].BookingID })
	return out
}

func (s *Store) unitsLocked() []model.Unit {
	out := make([]model.Unit, 0, len(s.units))
	for _, u := range s.units {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Model != out[j].Model {
			return out[i].Model < out[j].Model
		}
		return out[i].Serial < out[j].Serial
	})
	return out
}

func (s *Store) snapshotLocked() model.Snapshot {
	return model.Snapshot{
		Bookings:      s.bookingsLocked(),
		Confirmations: s.confirmationsLocked(),
		Units:         s.unitsLocked(),
	}
}

func remoteErr(err error) error {
	return fmt.Errorf("%w: %v", errs.ErrRemoteUnavailable, err)
}
