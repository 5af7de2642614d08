package assignment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jaivikpatel2001/sendme/pkg/models"
)

// Driver is a courier as seen by the assignment broker
type Driver struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	IsOnline  bool      `json:"is_online"`
}

// DriverDirectory exposes the driver roster to the broker
type DriverDirectory interface {
	// ListOnlineCandidates returns online drivers ordered by proximity
	// to the given location
	ListOnlineCandidates(ctx context.Context, near models.Location, limit int) ([]Driver, error)
	// IsDriverFree reports whether the driver is available for a new job
	IsDriverFree(ctx context.Context, driverID uuid.UUID) (bool, error)
}

// OfferLock fences the accept critical section per driver so a driver
// cannot win two bookings at once across service instances
type OfferLock interface {
	AcquireDriverLock(ctx context.Context, driverID uuid.UUID, ttl time.Duration) (bool, error)
	ReleaseDriverLock(ctx context.Context, driverID uuid.UUID) error
}
