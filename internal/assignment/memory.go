package assignment

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jaivikpatel2001/sendme/internal/routing"
	"github.com/jaivikpatel2001/sendme/pkg/models"
)

// MemoryDirectory is an in-memory DriverDirectory used in tests and
// local setups
type MemoryDirectory struct {
	mu      sync.RWMutex
	drivers map[uuid.UUID]Driver
	busy    map[uuid.UUID]bool
}

// NewMemoryDirectory creates an empty in-memory driver directory
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		drivers: make(map[uuid.UUID]Driver),
		busy:    make(map[uuid.UUID]bool),
	}
}

// Put registers or updates a driver
func (d *MemoryDirectory) Put(driver Driver) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.drivers[driver.ID] = driver
}

// SetBusy marks a driver unavailable for new jobs
func (d *MemoryDirectory) SetBusy(driverID uuid.UUID, busy bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.busy[driverID] = busy
}

// ListOnlineCandidates returns online drivers ordered by proximity
func (d *MemoryDirectory) ListOnlineCandidates(_ context.Context, near models.Location, limit int) ([]Driver, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]Driver, 0, len(d.drivers))
	for _, drv := range d.drivers {
		if drv.IsOnline {
			out = append(out, drv)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		di := routing.HaversineKm(near.Latitude, near.Longitude, out[i].Latitude, out[i].Longitude)
		dj := routing.HaversineKm(near.Latitude, near.Longitude, out[j].Latitude, out[j].Longitude)
		return di < dj
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// IsDriverFree reports whether the driver can take a new job
func (d *MemoryDirectory) IsDriverFree(_ context.Context, driverID uuid.UUID) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	drv, ok := d.drivers[driverID]
	if !ok || !drv.IsOnline {
		return false, nil
	}
	return !d.busy[driverID], nil
}

// MemoryOfferLock is an in-process OfferLock for tests and single-node
// deployments. TTLs are honored by expiry timestamps, not a reaper.
type MemoryOfferLock struct {
	mu    sync.Mutex
	locks map[uuid.UUID]time.Time
}

// NewMemoryOfferLock creates an empty in-memory offer lock
func NewMemoryOfferLock() *MemoryOfferLock {
	return &MemoryOfferLock{locks: make(map[uuid.UUID]time.Time)}
}

// AcquireDriverLock attempts to acquire the lock for the given driver
func (l *MemoryOfferLock) AcquireDriverLock(_ context.Context, driverID uuid.UUID, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if exp, held := l.locks[driverID]; held && time.Now().Before(exp) {
		return false, nil
	}
	l.locks[driverID] = time.Now().Add(ttl)
	return true, nil
}

// ReleaseDriverLock releases the lock for the given driver
func (l *MemoryOfferLock) ReleaseDriverLock(_ context.Context, driverID uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.locks, driverID)
	return nil
}
