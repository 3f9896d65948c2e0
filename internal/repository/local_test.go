package repository

import (
	"errors"
	"testing"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"camrental/internal/errs"
	"camrental/internal/model"
)

func testCache(t *testing.T) *LocalCache {
	t.Helper()
	cache, err := OpenInMemoryCache()
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })
	return cache
}

func cacheBooking(id string) model.Booking {
	return model.Booking{
		ID:         id,
		Unit:       model.UnitRef{Model: "X100", Serial: "#7"},
		Start:      model.NewSlotTime(time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC), model.SlotMorning),
		End:        model.NewSlotTime(time.Date(2025, time.January, 12, 0, 0, 0, 0, time.UTC), model.SlotAfternoon),
		RenterName: "Dana Flores",
		CreatedAt:  time.Date(2025, time.January, 2, 9, 30, 0, 0, time.UTC),
	}
}

func TestCacheRoundTrip(t *testing.T) {
	cache := testCache(t)

	bookings := []model.Booking{cacheBooking("a"), cacheBooking("b")}
	require.NoError(t, cache.SaveBookings(bookings))
	got, warn, err := cache.LoadBookings()
	require.NoError(t, err)
	assert.Nil(t, warn)
	assert.Equal(t, bookings, got)

	confirmations := []model.Confirmation{{
		BookingID:       "a",
		PickupConfirmed: true,
		UpdatedAt:       time.Date(2025, time.January, 10, 8, 0, 0, 0, time.UTC),
	}}
	require.NoError(t, cache.SaveConfirmations(confirmations))
	gotC, warn, err := cache.LoadConfirmations()
	require.NoError(t, err)
	assert.Nil(t, warn)
	assert.Equal(t, confirmations, gotC)

	units := []model.Unit{{
		UnitRef: model.UnitRef{Model: "X100", Serial: "#7"},
		AddedAt: time.Date(2024, time.December, 1, 0, 0, 0, 0, time.UTC),
	}}
	require.NoError(t, cache.SaveUnits(units))
	gotU, warn, err := cache.LoadUnits()
	require.NoError(t, err)
	assert.Nil(t, warn)
	assert.Equal(t, units, gotU)
}

// TestCacheFreshStart verifies an empty cache loads as empty datasets with no
// corruption warning.
func TestCacheFreshStart(t *testing.T) {
	cache := testCache(t)
	got, warn, err := cache.LoadBookings()
	require.NoError(t, err)
	assert.Nil(t, warn)
	assert.Empty(t, got)
}

// TestCacheBackupRestore corrupts the primary slot and verifies the dataset
// comes back from the backup slot, and that the primary is re-persisted so
// the next load is clean again.
func TestCacheBackupRestore(t *testing.T) {
	cache := testCache(t)
	bookings := []model.Booking{cacheBooking("a")}
	require.NoError(t, cache.SaveBookings(bookings))

	require.NoError(t, cache.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyBookings), []byte("{not json"))
	}))

	got, warn, err := cache.LoadBookings()
	require.NoError(t, err)
	require.NotNil(t, warn)
	assert.True(t, errors.Is(warn.Err, errs.ErrCorruptState))
	assert.Equal(t, bookings, got)

	// The restore re-persisted the primary slot.
	got, warn, err = cache.LoadBookings()
	require.NoError(t, err)
	assert.Nil(t, warn)
	assert.Equal(t, bookings, got)
}

// TestCachePrimaryDeleted covers the missing-primary case: the backup slot
// alone is enough to recover the dataset.
func TestCachePrimaryDeleted(t *testing.T) {
	cache := testCache(t)
	bookings := []model.Booking{cacheBooking("a"), cacheBooking("b")}
	require.NoError(t, cache.SaveBookings(bookings))

	require.NoError(t, cache.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(keyBookings))
	}))

	got, warn, err := cache.LoadBookings()
	require.NoError(t, err)
	require.NotNil(t, warn)
	assert.Equal(t, bookings, got)
}

// TestCacheBothSlotsCorrupt verifies the degrade-to-empty contract: no crash,
// no error, empty dataset plus a warning.
func TestCacheBothSlotsCorrupt(t *testing.T) {
	cache := testCache(t)
	require.NoError(t, cache.SaveBookings([]model.Booking{cacheBooking("a")}))

	require.NoError(t, cache.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(keyBookings), []byte("{not json")); err != nil {
			return err
		}
		return txn.Set([]byte(keyBookings+backupSuffix), []byte("also broken"))
	}))

	got, warn, err := cache.LoadBookings()
	require.NoError(t, err)
	require.NotNil(t, warn)
	assert.True(t, errors.Is(warn.Err, errs.ErrCorruptState))
	assert.Empty(t, got)
}
