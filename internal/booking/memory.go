package booking

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jaivikpatel2001/sendme/pkg/common"
	"github.com/jaivikpatel2001/sendme/pkg/models"
)

// MemoryStore is an in-memory booking store with the same optimistic
// concurrency semantics as the PostgreSQL store. Used in tests and
// local setups.
type MemoryStore struct {
	mu       sync.RWMutex
	bookings map[uuid.UUID]*models.Booking
}

// NewMemoryStore creates an empty in-memory booking store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{bookings: make(map[uuid.UUID]*models.Booking)}
}

// Create stores a new booking, enforcing identifier uniqueness
func (s *MemoryStore) Create(_ context.Context, b *models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.bookings[b.ID]; exists {
		return common.NewInternalError("booking already exists", fmt.Errorf("duplicate id %s", b.ID))
	}

	b.Version = 1
	s.bookings[b.ID] = cloneBooking(b)
	return nil
}

// Update persists a booking if its version still matches the stored
// one, then bumps the version. Returns ConcurrencyConflict on mismatch.
func (s *MemoryStore) Update(_ context.Context, b *models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.bookings[b.ID]
	if !exists {
		return common.NewNotFoundError("booking")
	}
	if current.Version != b.Version {
		return common.NewConcurrencyConflictError(
			fmt.Errorf("version %d does not match stored %d", b.Version, current.Version))
	}

	b.Version++
	s.bookings[b.ID] = cloneBooking(b)
	return nil
}

// GetByID retrieves a booking by ID
func (s *MemoryStore) GetByID(_ context.Context, id uuid.UUID) (*models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, exists := s.bookings[id]
	if !exists {
		return nil, common.NewNotFoundError("booking")
	}
	return cloneBooking(b), nil
}

// ActiveByDriver returns the driver's current non-terminal booking, if any
func (s *MemoryStore) ActiveByDriver(_ context.Context, driverID uuid.UUID) (*models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, b := range s.bookings {
		if b.DriverID != nil && *b.DriverID == driverID && !b.Status.IsTerminal() {
			return cloneBooking(b), nil
		}
	}
	return nil, nil
}

// CompletedCountByCustomer counts a customer's completed bookings
func (s *MemoryStore) CompletedCountByCustomer(_ context.Context, customerID uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, b := range s.bookings {
		if b.CustomerID == customerID && b.Status == models.StatusCompleted {
			n++
		}
	}
	return n, nil
}

// cloneBooking deep-copies via JSON so callers never share history slices
func cloneBooking(b *models.Booking) *models.Booking {
	raw, _ := json.Marshal(b)
	var cp models.Booking
	_ = json.Unmarshal(raw, &cp)
	return &cp
}

// MemoryEarningsLedger records driver earnings in memory
type MemoryEarningsLedger struct {
	mu      sync.Mutex
	entries []EarningsEntry
}

// EarningsEntry is one credited driver earning
type EarningsEntry struct {
	DriverID   uuid.UUID
	BookingID  uuid.UUID
	Gross      float64
	Commission float64
	Net        float64
}

// NewMemoryEarningsLedger creates an empty in-memory earnings ledger
func NewMemoryEarningsLedger() *MemoryEarningsLedger {
	return &MemoryEarningsLedger{}
}

// Credit records a driver earning, at most once per booking, matching
// the unique constraint on the SQL ledger
func (l *MemoryEarningsLedger) Credit(_ context.Context, driverID, bookingID uuid.UUID, gross, commission, net float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, e := range l.entries {
		if e.BookingID == bookingID {
			return nil
		}
	}

	l.entries = append(l.entries, EarningsEntry{
		DriverID:   driverID,
		BookingID:  bookingID,
		Gross:      gross,
		Commission: commission,
		Net:        net,
	})
	return nil
}

// Entries returns a snapshot of recorded earnings
func (l *MemoryEarningsLedger) Entries() []EarningsEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]EarningsEntry, len(l.entries))
	copy(out, l.entries)
	return out
}
