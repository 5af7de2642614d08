package booking

import (
	"context"

	"github.com/google/uuid"
	"github.com/jaivikpatel2001/sendme/pkg/models"
)

// Store persists bookings. Create enforces identifier uniqueness;
// Update enforces an optimistic version check and returns
// ConcurrencyConflict on a lost race.
type Store interface {
	Create(ctx context.Context, b *models.Booking) error
	Update(ctx context.Context, b *models.Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	// ActiveByDriver returns the driver's current non-terminal booking, if any
	ActiveByDriver(ctx context.Context, driverID uuid.UUID) (*models.Booking, error)
	// CompletedCountByCustomer counts a customer's completed bookings
	CompletedCountByCustomer(ctx context.Context, customerID uuid.UUID) (int, error)
}

// EarningsLedger credits driver earnings on booking completion
type EarningsLedger interface {
	Credit(ctx context.Context, driverID, bookingID uuid.UUID, gross, commission, net float64) error
}
