package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jaivikpatel2001/sendme/pkg/common"
	"github.com/jaivikpatel2001/sendme/pkg/models"
)

// Repository is the PostgreSQL-backed booking store. Stops, fare and
// status history are JSONB columns; Update carries an optimistic
// version check in its WHERE clause.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new booking repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const bookingColumns = `
	id, customer_id, driver_id, vehicle_profile_id, service_type,
	pickup, drop_off, stops, distance_km, estimated_duration_min, actual_duration_min,
	fare, payment_method, payment_status, promo_code, promo_discount,
	status, status_history, scheduled_at,
	confirmed_at, assigned_at, en_route_at, arrived_pickup_at, pickup_completed_at,
	in_transit_at, arrived_delivery_at, delivered_at, completed_at, cancelled_at,
	cancellation_fee, cancellation_reason,
	platform_commission_pct, platform_commission, driver_earnings,
	version, created_at, updated_at`

// Create inserts a new booking at version 1
func (r *Repository) Create(ctx context.Context, b *models.Booking) error {
	enc, err := encodeBookingJSON(b)
	if err != nil {
		return err
	}

	b.Version = 1

	query := `
		INSERT INTO bookings (` + bookingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
		        $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30,
		        $31, $32, $33, $34, $35, $36, $37)
	`

	_, err = r.db.Exec(ctx, query,
		b.ID, b.CustomerID, b.DriverID, b.VehicleProfileID, b.ServiceType,
		enc.pickup, enc.drop, enc.stops, b.DistanceKm, b.EstimatedDurationMin, b.ActualDurationMin,
		enc.fare, b.PaymentMethod, b.PaymentStatus, b.PromoCode, b.PromoDiscount,
		b.Status, enc.history, b.ScheduledAt,
		b.ConfirmedAt, b.AssignedAt, b.EnRouteAt, b.ArrivedPickupAt, b.PickupCompletedAt,
		b.InTransitAt, b.ArrivedDeliveryAt, b.DeliveredAt, b.CompletedAt, b.CancelledAt,
		b.CancellationFee, b.CancellationReason,
		b.PlatformCommissionPct, b.PlatformCommission, b.DriverEarnings,
		b.Version, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return common.NewInternalError("failed to create booking", err)
	}

	return nil
}

// Update writes a booking back if the stored version still matches,
// bumping the version in the same statement. A zero rows-affected
// result means another writer got there first.
func (r *Repository) Update(ctx context.Context, b *models.Booking) error {
	enc, err := encodeBookingJSON(b)
	if err != nil {
		return err
	}

	query := `
		UPDATE bookings SET
			driver_id = $3, distance_km = $4, actual_duration_min = $5,
			fare = $6, payment_status = $7, promo_code = $8, promo_discount = $9,
			status = $10, status_history = $11,
			confirmed_at = $12, assigned_at = $13, en_route_at = $14,
			arrived_pickup_at = $15, pickup_completed_at = $16, in_transit_at = $17,
			arrived_delivery_at = $18, delivered_at = $19, completed_at = $20, cancelled_at = $21,
			cancellation_fee = $22, cancellation_reason = $23,
			platform_commission = $24, driver_earnings = $25,
			version = version + 1, updated_at = $26
		WHERE id = $1 AND version = $2
	`

	tag, err := r.db.Exec(ctx, query,
		b.ID, b.Version,
		b.DriverID, b.DistanceKm, b.ActualDurationMin,
		enc.fare, b.PaymentStatus, b.PromoCode, b.PromoDiscount,
		b.Status, enc.history,
		b.ConfirmedAt, b.AssignedAt, b.EnRouteAt,
		b.ArrivedPickupAt, b.PickupCompletedAt, b.InTransitAt,
		b.ArrivedDeliveryAt, b.DeliveredAt, b.CompletedAt, b.CancelledAt,
		b.CancellationFee, b.CancellationReason,
		b.PlatformCommission, b.DriverEarnings,
		b.UpdatedAt,
	)
	if err != nil {
		return common.NewInternalError("failed to update booking", err)
	}
	if tag.RowsAffected() == 0 {
		return common.NewConcurrencyConflictError(
			fmt.Errorf("booking %s version %d is stale", b.ID, b.Version))
	}

	b.Version++
	return nil
}

// GetByID retrieves a booking by ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	return r.scanBooking(r.db.QueryRow(ctx, query, id))
}

// ActiveByDriver returns the driver's current non-terminal booking, if any
func (r *Repository) ActiveByDriver(ctx context.Context, driverID uuid.UUID) (*models.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE driver_id = $1 AND status NOT IN ('completed', 'cancelled', 'failed')
		LIMIT 1
	`
	b, err := r.scanBooking(r.db.QueryRow(ctx, query, driverID))
	if err != nil {
		if common.IsCode(err, common.CodeNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return b, nil
}

// CompletedCountByCustomer counts a customer's completed bookings
func (r *Repository) CompletedCountByCustomer(ctx context.Context, customerID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM bookings WHERE customer_id = $1 AND status = 'completed'`,
		customerID,
	).Scan(&count)
	if err != nil {
		return 0, common.NewInternalError("failed to count completed bookings", err)
	}
	return count, nil
}

func (r *Repository) scanBooking(row pgx.Row) (*models.Booking, error) {
	b := &models.Booking{}
	var pickupJSON, dropJSON, stopsJSON, fareJSON, historyJSON []byte

	err := row.Scan(
		&b.ID, &b.CustomerID, &b.DriverID, &b.VehicleProfileID, &b.ServiceType,
		&pickupJSON, &dropJSON, &stopsJSON, &b.DistanceKm, &b.EstimatedDurationMin, &b.ActualDurationMin,
		&fareJSON, &b.PaymentMethod, &b.PaymentStatus, &b.PromoCode, &b.PromoDiscount,
		&b.Status, &historyJSON, &b.ScheduledAt,
		&b.ConfirmedAt, &b.AssignedAt, &b.EnRouteAt, &b.ArrivedPickupAt, &b.PickupCompletedAt,
		&b.InTransitAt, &b.ArrivedDeliveryAt, &b.DeliveredAt, &b.CompletedAt, &b.CancelledAt,
		&b.CancellationFee, &b.CancellationReason,
		&b.PlatformCommissionPct, &b.PlatformCommission, &b.DriverEarnings,
		&b.Version, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NewNotFoundError("booking")
		}
		return nil, common.NewInternalError("failed to get booking", err)
	}

	if err := json.Unmarshal(pickupJSON, &b.Pickup); err != nil {
		return nil, common.NewInternalError("failed to parse booking pickup", err)
	}
	if err := json.Unmarshal(dropJSON, &b.Drop); err != nil {
		return nil, common.NewInternalError("failed to parse booking drop", err)
	}
	if len(stopsJSON) > 0 {
		if err := json.Unmarshal(stopsJSON, &b.Stops); err != nil {
			return nil, common.NewInternalError("failed to parse booking stops", err)
		}
	}
	if err := json.Unmarshal(fareJSON, &b.Fare); err != nil {
		return nil, common.NewInternalError("failed to parse booking fare", err)
	}
	if len(historyJSON) > 0 {
		if err := json.Unmarshal(historyJSON, &b.StatusHistory); err != nil {
			return nil, common.NewInternalError("failed to parse booking status history", err)
		}
	}

	return b, nil
}

type encodedBooking struct {
	pickup, drop, stops, fare, history []byte
}

func encodeBookingJSON(b *models.Booking) (*encodedBooking, error) {
	enc := &encodedBooking{}
	var err error

	if enc.pickup, err = json.Marshal(b.Pickup); err != nil {
		return nil, common.NewInternalError("failed to encode booking pickup", err)
	}
	if enc.drop, err = json.Marshal(b.Drop); err != nil {
		return nil, common.NewInternalError("failed to encode booking drop", err)
	}
	if enc.stops, err = json.Marshal(b.Stops); err != nil {
		return nil, common.NewInternalError("failed to encode booking stops", err)
	}
	if enc.fare, err = json.Marshal(b.Fare); err != nil {
		return nil, common.NewInternalError("failed to encode booking fare", err)
	}
	if enc.history, err = json.Marshal(b.StatusHistory); err != nil {
		return nil, common.NewInternalError("failed to encode booking status history", err)
	}

	return enc, nil
}

// EarningsRepository records driver earnings rows on completion
type EarningsRepository struct {
	db *pgxpool.Pool
}

// NewEarningsRepository creates a new earnings repository
func NewEarningsRepository(db *pgxpool.Pool) *EarningsRepository {
	return &EarningsRepository{db: db}
}

// Credit inserts one immutable earnings row for a completed booking.
// The booking_id unique constraint makes double settlement impossible.
func (r *EarningsRepository) Credit(ctx context.Context, driverID, bookingID uuid.UUID, gross, commission, net float64) error {
	query := `
		INSERT INTO driver_earnings (id, driver_id, booking_id, gross_amount, commission_amount, net_amount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (booking_id) DO NOTHING
	`

	_, err := r.db.Exec(ctx, query, uuid.New(), driverID, bookingID, gross, commission, net)
	if err != nil {
		return common.NewInternalError("failed to credit driver earnings", err)
	}
	return nil
}
