package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"camrental/internal/errs"
	"camrental/internal/model"
)

func TestMergeSnapshots(t *testing.T) {
	shared := cacheBooking("shared")
	localCopy := shared
	localCopy.RenterName = "Local Edit"
	localOnly := cacheBooking("local-only")
	remoteOnly := cacheBooking("remote-only")

	local := model.Snapshot{Bookings: []model.Booking{localCopy, localOnly}}
	remote := model.Snapshot{Bookings: []model.Booking{shared, remoteOnly}}

	merged, report := MergeSnapshots(local, remote)

	t.Run("remote wins for ids on both sides", func(t *testing.T) {
		var got model.Booking
		for _, b := range merged.Bookings {
			if b.ID == "shared" {
				got = b
			}
		}
		assert.Equal(t, shared.RenterName, got.RenterName)
	})

	t.Run("union keeps one-sided entities", func(t *testing.T) {
		require.Len(t, merged.Bookings, 3)
		assert.Equal(t, []string{"local-only"}, report.Bookings.LocalOnly)
		assert.Equal(t, []string{"remote-only"}, report.Bookings.RemoteOnly)
		assert.Equal(t, 3, report.Bookings.Total)
	})

	t.Run("merge is deterministic", func(t *testing.T) {
		again, _ := MergeSnapshots(local, remote)
		assert.Equal(t, merged, again)
	})

	t.Run("re-merging the merged view changes nothing", func(t *testing.T) {
		again, rep := MergeSnapshots(merged, remote)
		assert.Equal(t, merged.Bookings, again.Bookings)
		assert.Empty(t, rep.Bookings.RemoteOnly)
	})
}

// TestReconcile drives a full divergence-and-heal cycle: the store writes
// while the remote is down, the remote accumulates its own rows, and one
// manual reconcile brings both sides to the same superset.
func TestReconcile(t *testing.T) {
	remote := newFakeRemote()
	store := openTestStore(t, remote)
	ctx := context.Background()

	// A booking written while the remote rejects writes stays local-only.
	remote.mu.Lock()
	remote.writeFail = true
	remote.mu.Unlock()
	warn, err := store.CreateBooking(ctx, cacheBooking("local-only"))
	require.NoError(t, err)
	require.NotNil(t, warn)

	// Meanwhile the remote gained a row this store never saw.
	remote.mu.Lock()
	remote.writeFail = false
	remote.bookings["remote-only"] = cacheBooking("remote-only")
	remote.mu.Unlock()

	report, err := store.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"local-only"}, report.Bookings.LocalOnly)
	assert.Equal(t, []string{"remote-only"}, report.Bookings.RemoteOnly)
	assert.Empty(t, report.UploadErrors)

	// Both sides now hold the superset.
	_, ok := store.Booking("remote-only")
	assert.True(t, ok)
	remote.mu.Lock()
	_, ok = remote.bookings["local-only"]
	remote.mu.Unlock()
	assert.True(t, ok)

	t.Run("second pass is a no-op", func(t *testing.T) {
		again, err := store.Reconcile(ctx)
		require.NoError(t, err)
		assert.Empty(t, again.Bookings.LocalOnly)
		assert.Empty(t, again.Bookings.RemoteOnly)
		assert.Equal(t, report.Bookings.Total, again.Bookings.Total)
	})
}

// TestReconcileRemoteDown: a failed fetch aborts the pass with a remote
// error and leaves the local view untouched.
func TestReconcileRemoteDown(t *testing.T) {
	remote := newFakeRemote()
	store := openTestStore(t, remote)
	ctx := context.Background()

	_, err := store.CreateBooking(ctx, cacheBooking("a"))
	require.NoError(t, err)

	remote.mu.Lock()
	remote.fetchFail = true
	remote.mu.Unlock()

	_, err = store.Reconcile(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrRemoteUnavailable))

	_, ok := store.Booking("a")
	assert.True(t, ok)
}

// TestReconcileWithoutRemote: reconciliation needs a configured remote.
func TestReconcileWithoutRemote(t *testing.T) {
	store := openTestStore(t, nil)
	_, err := store.Reconcile(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrRemoteUnavailable))
}

// TestReconcileRestoresReachability: a store that started in local-only mode
// resumes remote-first writes after one successful reconcile.
func TestReconcileRestoresReachability(t *testing.T) {
	remote := newFakeRemote()
	remote.pingFail = true

	cache := testCache(t)
	store, _, err := Open(cache, remote, time.Second)
	require.NoError(t, err)
	require.False(t, store.RemoteReachable())

	// Local-only mode: the remote never sees this write.
	_, err = store.CreateBooking(context.Background(), cacheBooking("offline"))
	require.NoError(t, err)
	assert.Zero(t, remote.callCount("InsertBooking"))

	report, err := store.Reconcile(context.Background())
	require.NoError(t, err)
	assert.True(t, store.RemoteReachable())
	assert.Equal(t, []string{"offline"}, report.Bookings.LocalOnly)
	assert.Equal(t, 1, remote.callCount("InsertBooking"))

	// Remote-first writes are back.
	_, err = store.CreateBooking(context.Background(), cacheBooking("online"))
	require.NoError(t, err)
	assert.Equal(t, 2, remote.callCount("InsertBooking"))
}
