package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	badger "github.com/dgraph-io/badger/v4"

	"camrental/internal/errs"
	"camrental/internal/model"
)

// Dataset slots in the local cache. Each dataset is one JSON value stored
// twice: the primary key and a backup key refreshed on every write.
const (
	keyBookings      = "bookings"
	keyConfirmations = "confirmations"
	keyUnits         = "units"
	backupSuffix     = ".backup"
)

// LocalCache is the durable local side of the store pair. It must always be
// usable: a corrupt primary slot is restored from its backup, and when both
// slots are gone the dataset degrades to empty with a warning instead of
// failing startup.
type LocalCache struct {
	db *badger.DB
}

// OpenLocalCache opens (creating if needed) the cache under dir.
func OpenLocalCache(dir string) (*LocalCache, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("error creating cache dir: %w", err)
	}
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("error opening local cache: %w", err)
	}
	return &LocalCache{db: db}, nil
}

// OpenInMemoryCache opens a throwaway cache, used in tests.
func OpenInMemoryCache() (*LocalCache, error) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("error opening in-memory cache: %w", err)
	}
	return &LocalCache{db: db}, nil
}

func (c *LocalCache) Close() error { return c.db.Close() }

func (c *LocalCache) SaveBookings(bs []model.Booking) error {
	return c.saveSlot(keyBookings, bs)
}

func (c *LocalCache) LoadBookings() ([]model.Booking, *errs.Warning, error) {
	var bs []model.Booking
	warn, err := c.loadSlot(keyBookings, &bs)
	return bs, warn, err
}

func (c *LocalCache) SaveConfirmations(cs []model.Confirmation) error {
	return c.saveSlot(keyConfirmations, cs)
}

func (c *LocalCache) LoadConfirmations() ([]model.Confirmation, *errs.Warning, error) {
	var cs []model.Confirmation
	warn, err := c.loadSlot(keyConfirmations, &cs)
	return cs, warn, err
}

func (c *LocalCache) SaveUnits(us []model.Unit) error {
	return c.saveSlot(keyUnits, us)
}

func (c *LocalCache) LoadUnits() ([]model.Unit, *errs.Warning, error) {
	var us []model.Unit
	warn, err := c.loadSlot(keyUnits, &us)
	return us, warn, err
}

// SaveBookingsAndConfirmations rewrites both datasets in one transaction,
// used by the delete cascade so the cache can never hold a confirmation for a
// booking it no longer holds.
func (c *LocalCache) SaveBookingsAndConfirmations(bs []model.Booking, cs []model.Confirmation) error {
	bookings, err := encodeSlot(keyBookings, bs)
	if err != nil {
		return err
	}
	confirmations, err := encodeSlot(keyConfirmations, cs)
	if err != nil {
		return err
	}
	return c.writeSlots(bookings, confirmations)
}

// SaveSnapshot replaces all three datasets in one transaction.
func (c *LocalCache) SaveSnapshot(snap model.Snapshot) error {
	bookings, err := encodeSlot(keyBookings, snap.Bookings)
	if err != nil {
		return err
	}
	confirmations, err := encodeSlot(keyConfirmations, snap.Confirmations)
	if err != nil {
		return err
	}
	units, err := encodeSlot(keyUnits, snap.Units)
	if err != nil {
		return err
	}
	return c.writeSlots(bookings, confirmations, units)
}

// saveSlot writes v to the primary key and its backup in one transaction, so
// the two slots never diverge on a clean write.
func (c *LocalCache) saveSlot(key string, v any) error {
	w, err := encodeSlot(key, v)
	if err != nil {
		return err
	}
	return c.writeSlots(w)
}

type slotWrite struct {
	key  string
	data []byte
}

func encodeSlot(key string, v any) (slotWrite, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return slotWrite{}, fmt.Errorf("error encoding %s: %w", key, err)
	}
	return slotWrite{key: key, data: data}, nil
}

func (c *LocalCache) writeSlots(writes ...slotWrite) error {
	err := c.db.Update(func(txn *badger.Txn) error {
		for _, w := range writes {
			if err := txn.Set([]byte(w.key), w.data); err != nil {
				return err
			}
			if err := txn.Set([]byte(w.key+backupSuffix), w.data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("error writing local cache: %w", err)
	}
	return nil
}

// loadSlot reads the primary slot into v. A missing or unparsable primary is
// restored from the backup slot and re-persisted. When both slots are absent
// the dataset simply starts empty; when both are corrupt, v stays at its zero
// value and the corruption comes back as a warning, never an error.
func (c *LocalCache) loadSlot(key string, v any) (*errs.Warning, error) {
	data, err := c.get(key)
	switch {
	case err == nil:
		if json.Unmarshal(data, v) == nil {
			return nil, nil
		}
	case errors.Is(err, badger.ErrKeyNotFound):
		// fall through to the backup slot
	default:
		return nil, fmt.Errorf("error reading %s: %w", key, err)
	}
	primaryMissing := errors.Is(err, badger.ErrKeyNotFound)

	backup, berr := c.get(key + backupSuffix)
	switch {
	case berr == nil:
		if json.Unmarshal(backup, v) == nil {
			if rerr := c.restorePrimary(key, backup); rerr != nil {
				return nil, rerr
			}
			return errs.NewWarning("load "+key,
				fmt.Errorf("%w: primary slot restored from backup", errs.ErrCorruptState)), nil
		}
	case errors.Is(berr, badger.ErrKeyNotFound):
		if primaryMissing {
			// Fresh store, nothing to recover.
			return nil, nil
		}
	default:
		return nil, fmt.Errorf("error reading %s backup: %w", key, berr)
	}

	// A failed decode can leave partial elements behind; reset to empty.
	_ = json.Unmarshal([]byte("null"), v)
	return errs.NewWarning("load "+key,
		fmt.Errorf("%w: both slots unreadable, starting empty", errs.ErrCorruptState)), nil
}

func (c *LocalCache) restorePrimary(key string, data []byte) error {
	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
	if err != nil {
		return fmt.Errorf("error restoring %s from backup: %w", key, err)
	}
	return nil
}

func (c *LocalCache) get(key string) ([]byte, error) {
	var out []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	return out, err
}
