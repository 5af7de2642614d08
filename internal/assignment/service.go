package assignment

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jaivikpatel2001/sendme/internal/booking"
	"github.com/jaivikpatel2001/sendme/internal/routing"
	"github.com/jaivikpatel2001/sendme/pkg/common"
	"github.com/jaivikpatel2001/sendme/pkg/logger"
	"github.com/jaivikpatel2001/sendme/pkg/models"
	"go.uber.org/zap"
)

const defaultCandidateLimit = 10

// Candidate is a driver offered a booking, with the pickup distance
type Candidate struct {
	Driver     Driver  `json:"driver"`
	DistanceKm float64 `json:"distance_km"`
}

// Service brokers bookings to drivers. Accept is an at-most-one-winner
// race: the booking service's per-booking lock plus the store's version
// check guarantee a single assignment no matter how many drivers race.
type Service struct {
	bookings  *booking.Service
	store     booking.Store
	directory DriverDirectory
	locks     OfferLock
	offerTTL  time.Duration

	mu        sync.Mutex
	rejectors map[uuid.UUID]map[uuid.UUID]struct{}
}

// NewService creates an assignment broker
func NewService(bookings *booking.Service, store booking.Store, directory DriverDirectory, locks OfferLock, offerTTL time.Duration) *Service {
	return &Service{
		bookings:  bookings,
		store:     store,
		directory: directory,
		locks:     locks,
		offerTTL:  offerTTL,
		rejectors: make(map[uuid.UUID]map[uuid.UUID]struct{}),
	}
}

// Offer lists online drivers eligible for a booking, nearest first,
// excluding drivers who already rejected it. The directory is asked for
// enough extras that rejected drivers never consume candidate slots.
func (s *Service) Offer(ctx context.Context, bookingID uuid.UUID) ([]Candidate, error) {
	b, err := s.store.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.DriverID != nil {
		return nil, common.NewAlreadyAssignedError()
	}
	if !booking.CanTransition(b.Status, models.StatusDriverAssigned) {
		s.forget(bookingID)
		return nil, common.NewInvalidTransitionError(string(b.Status), string(models.StatusDriverAssigned))
	}

	drivers, err := s.directory.ListOnlineCandidates(ctx, b.Pickup, defaultCandidateLimit+s.rejectorCount(bookingID))
	if err != nil {
		return nil, common.NewInternalError("failed to list candidate drivers", err)
	}

	candidates := make([]Candidate, 0, len(drivers))
	for _, d := range drivers {
		if s.hasRejected(bookingID, d.ID) {
			continue
		}
		candidates = append(candidates, Candidate{
			Driver:     d,
			DistanceKm: routing.HaversineKm(b.Pickup.Latitude, b.Pickup.Longitude, d.Latitude, d.Longitude),
		})
	}
	if len(candidates) > defaultCandidateLimit {
		candidates = candidates[:defaultCandidateLimit]
	}

	return candidates, nil
}

// Accept claims a booking for a driver. Exactly one driver wins;
// everyone else gets AlreadyAssigned, and an accept against a booking
// the customer cancelled in the meantime fails on the status check.
func (s *Service) Accept(ctx context.Context, bookingID, driverID uuid.UUID) (*models.Booking, error) {
	ok, err := s.locks.AcquireDriverLock(ctx, driverID, s.offerTTL)
	if err != nil {
		return nil, common.NewInternalError("failed to acquire driver lock", err)
	}
	if !ok {
		return nil, common.NewValidationError("driver is already accepting another booking")
	}
	defer func() {
		if err := s.locks.ReleaseDriverLock(ctx, driverID); err != nil {
			logger.Warn("failed to release driver lock",
				zap.String("driver_id", driverID.String()), zap.Error(err))
		}
	}()

	free, err := s.directory.IsDriverFree(ctx, driverID)
	if err != nil {
		return nil, common.NewInternalError("failed to check driver availability", err)
	}
	if !free {
		return nil, common.NewValidationError("driver is not available for new bookings")
	}

	active, err := s.store.ActiveByDriver(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, common.NewValidationError("driver already has an active booking")
	}

	b, err := s.bookings.AssignDriver(ctx, bookingID, driverID)
	if err != nil {
		return nil, err
	}
	s.forget(bookingID)

	logger.Info("booking accepted",
		zap.String("booking_id", bookingID.String()),
		zap.String("driver_id", driverID.String()),
	)
	return b, nil
}

// Reject records that a driver declined a booking. The booking state is
// untouched; the driver is just excluded from subsequent offers.
func (s *Service) Reject(ctx context.Context, bookingID, driverID uuid.UUID) error {
	b, err := s.store.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if b.Status.IsTerminal() {
		s.forget(bookingID)
		return nil
	}

	s.mu.Lock()
	if s.rejectors[bookingID] == nil {
		s.rejectors[bookingID] = make(map[uuid.UUID]struct{})
	}
	s.rejectors[bookingID][driverID] = struct{}{}
	s.mu.Unlock()

	logger.Info("booking rejected by driver",
		zap.String("booking_id", bookingID.String()),
		zap.String("driver_id", driverID.String()),
	)
	return nil
}

func (s *Service) hasRejected(bookingID, driverID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.rejectors[bookingID][driverID]
	return ok
}

func (s *Service) rejectorCount(bookingID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.rejectors[bookingID])
}

// forget drops rejection state once a booking no longer takes offers
func (s *Service) forget(bookingID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.rejectors, bookingID)
}
