package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jaivikpatel2001/sendme/internal/catalog"
	"github.com/jaivikpatel2001/sendme/internal/fare"
	"github.com/jaivikpatel2001/sendme/internal/promo"
	"github.com/jaivikpatel2001/sendme/internal/routing"
	"github.com/jaivikpatel2001/sendme/pkg/common"
	"github.com/jaivikpatel2001/sendme/pkg/config"
	"github.com/jaivikpatel2001/sendme/pkg/logger"
	"github.com/jaivikpatel2001/sendme/pkg/models"
	"github.com/jaivikpatel2001/sendme/pkg/validation"
	"go.uber.org/zap"
)

// QuoteRequest describes a fare quote or booking creation request
type QuoteRequest struct {
	CustomerID       uuid.UUID          `json:"customer_id" binding:"required"`
	VehicleProfileID uuid.UUID          `json:"vehicle_profile_id" binding:"required"`
	ServiceType      models.ServiceType `json:"service_type" binding:"required,service_type"`
	Pickup           models.Location    `json:"pickup" binding:"required"`
	Drop             models.Location    `json:"drop" binding:"required"`
	Stops            []models.Location  `json:"stops,omitempty"`
	PromoCode        string             `json:"promo_code,omitempty"`
	ScheduledAt      *time.Time         `json:"scheduled_at,omitempty"`
}

// CreateRequest is a quote request committed to a booking
type CreateRequest struct {
	QuoteRequest
	PaymentMethod string `json:"payment_method" binding:"required,payment_method"`
}

// TransitionRequest advances a booking to a new status
type TransitionRequest struct {
	To       models.BookingStatus `json:"to" binding:"required,booking_status"`
	Actor    models.Actor         `json:"actor" binding:"required"`
	Location *models.Location     `json:"location,omitempty"`
	Note     string               `json:"note,omitempty"`
}

// CancelRequest cancels a booking
type CancelRequest struct {
	Actor  models.Actor `json:"actor" binding:"required"`
	Reason string       `json:"reason,omitempty"`
}

// Quote is the priced result of a quote request
type Quote struct {
	Route         routing.RouteEstimate `json:"route"`
	Fare          models.FareBreakdown  `json:"fare"`
	PromoDiscount *promo.Discount       `json:"promo_discount,omitempty"`
}

// Service drives the booking lifecycle. All mutating operations take
// the per-booking lock and go through the store's optimistic version
// check, with one automatic retry on a lost race.
type Service struct {
	store    Store
	catalog  catalog.Catalog
	routes   routing.Estimator
	fares    *fare.Calculator
	promos   *promo.Engine
	earnings EarningsLedger
	locks    *LockTable
	cfg      config.BookingConfig

	now func() time.Time
}

// NewService creates a booking service
func NewService(
	store Store,
	cat catalog.Catalog,
	routes routing.Estimator,
	fares *fare.Calculator,
	promos *promo.Engine,
	earnings EarningsLedger,
	cfg config.BookingConfig,
) *Service {
	return &Service{
		store:    store,
		catalog:  cat,
		routes:   routes,
		fares:    fares,
		promos:   promos,
		earnings: earnings,
		locks:    NewLockTable(),
		cfg:      cfg,
		now:      time.Now,
	}
}

// GetBooking retrieves a booking by ID
func (s *Service) GetBooking(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	return s.store.GetByID(ctx, id)
}

// Quote prices a request without creating anything. Safe to call
// repeatedly; the promo check here is read-only.
func (s *Service) Quote(ctx context.Context, req QuoteRequest) (*Quote, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, common.NewValidationError(err.Error())
	}

	_, route, breakdown, err := s.price(ctx, req)
	if err != nil {
		return nil, err
	}

	q := &Quote{Route: route, Fare: *breakdown}

	if req.PromoCode != "" {
		ectx, err := s.eligibilityContext(ctx, req, breakdown.Subtotal)
		if err != nil {
			return nil, err
		}
		d, err := s.promos.CheckEligibility(ctx, req.PromoCode, ectx)
		if err != nil {
			return nil, err
		}
		q.PromoDiscount = d
		q.Fare.Discount = d.DiscountAmount
		q.Fare.RecalculateTotal()
	}

	return q, nil
}

// CreateBooking prices the request, redeems the promo code if present
// and persists a Pending booking. A failed persist after a successful
// promo apply triggers the compensating rollback so usage counters
// never drift.
func (s *Service) CreateBooking(ctx context.Context, req CreateRequest) (*models.Booking, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, common.NewValidationError(err.Error())
	}

	profile, route, breakdown, err := s.price(ctx, req.QuoteRequest)
	if err != nil {
		return nil, err
	}

	now := s.now()
	bookingID := uuid.New()

	var promoCode *string
	var promoDiscount float64

	if req.PromoCode != "" {
		ectx, err := s.eligibilityContext(ctx, req.QuoteRequest, breakdown.Subtotal)
		if err != nil {
			return nil, err
		}
		d, err := s.promos.Apply(ctx, req.PromoCode, bookingID, ectx)
		if err != nil {
			return nil, err
		}
		promoCode = &d.Code
		promoDiscount = d.DiscountAmount
		breakdown.Discount = d.DiscountAmount
		breakdown.RecalculateTotal()
	}

	b := &models.Booking{
		ID:                    bookingID,
		CustomerID:            req.CustomerID,
		VehicleProfileID:      req.VehicleProfileID,
		ServiceType:           req.ServiceType,
		Pickup:                req.Pickup,
		Drop:                  req.Drop,
		Stops:                 req.Stops,
		DistanceKm:            route.DistanceKm,
		EstimatedDurationMin:  route.DurationMin,
		Fare:                  *breakdown,
		PaymentMethod:         req.PaymentMethod,
		PaymentStatus:         "pending",
		PromoCode:             promoCode,
		PromoDiscount:         promoDiscount,
		ScheduledAt:           req.ScheduledAt,
		PlatformCommissionPct: profile.PlatformCommissionPct,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	b.AppendStatus(models.StatusHistoryEntry{
		Status:    models.StatusPending,
		Timestamp: now,
		ActorID:   req.CustomerID,
		ActorRole: models.RoleCustomer,
	})

	if err := s.store.Create(ctx, b); err != nil {
		if promoCode != nil {
			if rbErr := s.promos.Rollback(ctx, *promoCode, bookingID); rbErr != nil {
				logger.Error("promo rollback failed after create failure",
					zap.String("booking_id", bookingID.String()),
					zap.String("code", *promoCode),
					zap.Error(rbErr),
				)
			}
		}
		return nil, err
	}

	logger.Info("booking created",
		zap.String("booking_id", b.ID.String()),
		zap.String("customer_id", b.CustomerID.String()),
		zap.Float64("total", b.Fare.Total),
	)
	return b, nil
}

// Transition advances a booking along the state machine. The target
// timestamp is stamped exactly once; confirming Delivered settles the
// booking by auto-advancing it to Completed.
func (s *Service) Transition(ctx context.Context, id uuid.UUID, req TransitionRequest) (*models.Booking, error) {
	s.locks.Lock(id)
	defer s.locks.Unlock(id)

	settled := false
	b, err := s.mutate(ctx, id, func(b *models.Booking) error {
		if !CanTransition(b.Status, req.To) {
			return common.NewInvalidTransitionError(string(b.Status), string(req.To))
		}

		now := s.now()
		b.AppendStatus(models.StatusHistoryEntry{
			Status:    req.To,
			Timestamp: now,
			ActorID:   req.Actor.ID,
			ActorRole: req.Actor.Role,
			Location:  req.Location,
			Note:      req.Note,
		})
		stampOnce(b, req.To, now)

		if req.To == models.StatusDelivered {
			b.AppendStatus(models.StatusHistoryEntry{
				Status:    models.StatusCompleted,
				Timestamp: now,
				ActorID:   req.Actor.ID,
				ActorRole: models.RoleSystem,
				Note:      "settled on delivery confirmation",
			})
			stampOnce(b, models.StatusCompleted, now)
			applyCommissionSplit(b)
			settled = true
		}
		if req.To == models.StatusCompleted {
			applyCommissionSplit(b)
			settled = true
		}

		return nil
	})
	if err != nil {
		return nil, err
	}
	if settled {
		s.creditEarnings(ctx, b)
	}
	return b, nil
}

// Cancel cancels a booking if its state still allows it. The fee is a
// percentage of the frozen fare total, charged only when a driver was
// already assigned and the grace period since creation has elapsed.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, req CancelRequest) (*models.Booking, error) {
	s.locks.Lock(id)
	defer s.locks.Unlock(id)

	return s.mutate(ctx, id, func(b *models.Booking) error {
		if b.Status.IsTerminal() {
			return common.NewInvalidTransitionError(string(b.Status), string(models.StatusCancelled))
		}
		if !IsCancellable(b.Status) {
			return common.NewNonCancellableStateError(string(b.Status))
		}

		now := s.now()
		if b.DriverID != nil && now.Sub(b.CreatedAt) > s.cfg.CancellationGracePeriod {
			b.CancellationFee = models.Round2(b.Fare.Total * s.cfg.CancellationFeePct / 100)
		}
		b.CancellationReason = req.Reason

		b.AppendStatus(models.StatusHistoryEntry{
			Status:    models.StatusCancelled,
			Timestamp: now,
			ActorID:   req.Actor.ID,
			ActorRole: req.Actor.Role,
			Note:      req.Reason,
		})
		stampOnce(b, models.StatusCancelled, now)

		logger.Info("booking cancelled",
			zap.String("booking_id", b.ID.String()),
			zap.String("by", req.Actor.Role),
			zap.Float64("fee", b.CancellationFee),
		)
		return nil
	})
}

// AssignDriver claims a booking for a driver. Exactly one driver wins;
// later claims see the assigned driver and fail with AlreadyAssigned,
// and claims against a cancelled booking fail on the transition check.
func (s *Service) AssignDriver(ctx context.Context, id, driverID uuid.UUID) (*models.Booking, error) {
	s.locks.Lock(id)
	defer s.locks.Unlock(id)

	b, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if b.DriverID != nil {
		return nil, common.NewAlreadyAssignedError()
	}
	if !CanTransition(b.Status, models.StatusDriverAssigned) {
		return nil, common.NewInvalidTransitionError(string(b.Status), string(models.StatusDriverAssigned))
	}

	now := s.now()
	b.DriverID = &driverID
	b.AppendStatus(models.StatusHistoryEntry{
		Status:    models.StatusDriverAssigned,
		Timestamp: now,
		ActorID:   driverID,
		ActorRole: models.RoleDriver,
	})
	stampOnce(b, models.StatusDriverAssigned, now)

	if err := s.store.Update(ctx, b); err != nil {
		// A lost version race here means another claim landed first
		if common.IsCode(err, common.CodeConcurrencyConflict) {
			return nil, common.NewAlreadyAssignedError()
		}
		return nil, err
	}

	logger.Info("driver assigned",
		zap.String("booking_id", b.ID.String()),
		zap.String("driver_id", driverID.String()),
	)
	return b, nil
}

// mutate loads, applies and persists a booking change, retrying once
// when the optimistic version check fails under an external writer.
func (s *Service) mutate(ctx context.Context, id uuid.UUID, apply func(*models.Booking) error) (*models.Booking, error) {
	for attempt := 0; ; attempt++ {
		b, err := s.store.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := apply(b); err != nil {
			return nil, err
		}

		err = s.store.Update(ctx, b)
		if err == nil {
			return b, nil
		}
		if !common.IsCode(err, common.CodeConcurrencyConflict) || attempt >= 1 {
			return nil, err
		}
	}
}

// applyCommissionSplit computes the commission split from the frozen
// fare and pct. Runs inside the mutation so the split persists with the
// completed status.
func applyCommissionSplit(b *models.Booking) {
	b.PlatformCommission = models.Round2(b.Fare.Total * b.PlatformCommissionPct / 100)
	b.DriverEarnings = models.Round2(b.Fare.Total - b.PlatformCommission)
}

// creditEarnings credits the driver's ledger. Called only after the
// completed transition has persisted, so a failed update never leaves a
// credited entry behind. Idempotent at the ledger.
func (s *Service) creditEarnings(ctx context.Context, b *models.Booking) {
	if b.DriverID == nil || s.earnings == nil {
		return
	}
	if err := s.earnings.Credit(ctx, *b.DriverID, b.ID,
		b.Fare.Total, b.PlatformCommission, b.DriverEarnings); err != nil {
		logger.Error("failed to credit driver earnings",
			zap.String("booking_id", b.ID.String()),
			zap.Error(err),
		)
	}
}

// price resolves the profile, estimates the route and computes the
// pre-discount fare with tax and platform fee applied.
func (s *Service) price(ctx context.Context, req QuoteRequest) (*catalog.VehicleProfile, routing.RouteEstimate, *models.FareBreakdown, error) {
	profile, err := s.catalog.GetVehicleProfile(ctx, req.VehicleProfileID)
	if err != nil {
		return nil, routing.RouteEstimate{}, nil, err
	}

	route, err := s.routes.Estimate(ctx, req.Pickup, req.Drop, req.Stops)
	if err != nil {
		return nil, routing.RouteEstimate{}, nil, common.NewInternalError("failed to estimate route", err)
	}

	at := s.now()
	if req.ServiceType == models.ServiceScheduled && req.ScheduledAt != nil {
		at = *req.ScheduledAt
	}

	breakdown, err := s.fares.Calculate(fare.Input{
		Profile:     profile,
		DistanceKm:  route.DistanceKm,
		DurationMin: route.DurationMin,
		ServiceType: req.ServiceType,
		At:          at,
		ExtraStops:  len(req.Stops),
	})
	if err != nil {
		return nil, routing.RouteEstimate{}, nil, err
	}

	breakdown.Tax = models.Round2(breakdown.Subtotal * s.cfg.TaxRatePct / 100)
	breakdown.PlatformFee = s.cfg.PlatformFee
	breakdown.RecalculateTotal()

	return profile, route, &breakdown, nil
}

func (s *Service) eligibilityContext(ctx context.Context, req QuoteRequest, orderValue float64) (promo.EligibilityContext, error) {
	completed, err := s.store.CompletedCountByCustomer(ctx, req.CustomerID)
	if err != nil {
		return promo.EligibilityContext{}, err
	}
	return promo.EligibilityContext{
		UserID:            req.CustomerID,
		UserRole:          models.RoleCustomer,
		OrderValue:        orderValue,
		CompletedBookings: completed,
		Now:               s.now(),
	}, nil
}

// stampOnce records the typed timestamp for a status the first time the
// booking reaches it
func stampOnce(b *models.Booking, status models.BookingStatus, at time.Time) {
	set := func(field **time.Time) {
		if *field == nil {
			t := at
			*field = &t
		}
	}

	switch status {
	case models.StatusConfirmed:
		set(&b.ConfirmedAt)
	case models.StatusDriverAssigned:
		set(&b.AssignedAt)
	case models.StatusDriverEnRoute:
		set(&b.EnRouteAt)
	case models.StatusArrivedPickup:
		set(&b.ArrivedPickupAt)
	case models.StatusPickupCompleted:
		set(&b.PickupCompletedAt)
	case models.StatusInTransit:
		set(&b.InTransitAt)
	case models.StatusArrivedDelivery:
		set(&b.ArrivedDeliveryAt)
	case models.StatusDelivered:
		set(&b.DeliveredAt)
	case models.StatusCompleted:
		set(&b.CompletedAt)
	case models.StatusCancelled:
		set(&b.CancelledAt)
	}
}
