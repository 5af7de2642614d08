package integration

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaivikpatel2001/sendme/internal/assignment"
	"github.com/jaivikpatel2001/sendme/internal/booking"
	"github.com/jaivikpatel2001/sendme/internal/catalog"
	"github.com/jaivikpatel2001/sendme/internal/fare"
	"github.com/jaivikpatel2001/sendme/internal/promo"
	"github.com/jaivikpatel2001/sendme/internal/routing"
	"github.com/jaivikpatel2001/sendme/pkg/common"
	"github.com/jaivikpatel2001/sendme/pkg/config"
	"github.com/jaivikpatel2001/sendme/pkg/models"
	"github.com/jaivikpatel2001/sendme/test/helpers"
)

// stack wires the whole service graph on in-memory implementations
type stack struct {
	bookings   *booking.Service
	broker     *assignment.Service
	directory  *assignment.MemoryDirectory
	promoStore *promo.MemoryStore
	earnings   *booking.MemoryEarningsLedger
	profile    *catalog.VehicleProfile
}

func newStack(t *testing.T) *stack {
	t.Helper()

	profile := helpers.CreateTestProfile()
	cat := catalog.NewMemoryCatalog()
	cat.Put(profile)

	cfg := config.BookingConfig{
		CancellationGracePeriod: time.Hour,
		CancellationFeePct:      10,
		PerStopSurcharge:        1.50,
		OfferTTL:                90 * time.Second,
	}

	store := booking.NewMemoryStore()
	promoStore := promo.NewMemoryStore()
	earnings := booking.NewMemoryEarningsLedger()

	routes := routing.NewServiceWithProvider(nil, config.RoutingConfig{
		RoadFactor:       1.25,
		FallbackSpeedKmh: 30,
	})

	bookings := booking.NewService(
		store, cat, routes,
		fare.NewCalculator(cfg.PerStopSurcharge),
		promo.NewEngine(promoStore),
		earnings,
		cfg,
	)

	directory := assignment.NewMemoryDirectory()
	broker := assignment.NewService(bookings, store, directory, assignment.NewMemoryOfferLock(), cfg.OfferTTL)

	return &stack{
		bookings:   bookings,
		broker:     broker,
		directory:  directory,
		promoStore: promoStore,
		earnings:   earnings,
		profile:    profile,
	}
}

func TestBookingFlow_EndToEnd(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	customerID := uuid.New()

	require.NoError(t, s.promoStore.Persist(ctx, helpers.CreateTestPromo("FLOW3", 3)))

	req := booking.CreateRequest{
		QuoteRequest: booking.QuoteRequest{
			CustomerID:       customerID,
			VehicleProfileID: s.profile.ID,
			ServiceType:      models.ServiceDelivery,
			Pickup:           helpers.TestPickup(),
			Drop:             helpers.TestDrop(),
			PromoCode:        "FLOW3",
		},
		PaymentMethod: "card",
	}

	// Quote first, then create: the quoted fare must match the frozen one
	quote, err := s.bookings.Quote(ctx, req.QuoteRequest)
	require.NoError(t, err)
	helpers.AssertFareConsistent(t, quote.Fare)

	b, err := s.bookings.CreateBooking(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, quote.Fare.Total, b.Fare.Total)
	assert.Equal(t, 3.0, b.PromoDiscount)
	helpers.AssertHistoryConsistent(t, b)

	// Driver discovery and acceptance
	driverID := uuid.New()
	s.directory.Put(assignment.Driver{
		ID: driverID, Name: "courier",
		Latitude: helpers.TestPickup().Latitude, Longitude: helpers.TestPickup().Longitude,
		IsOnline: true,
	})

	candidates, err := s.broker.Offer(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	b, err = s.broker.Accept(ctx, b.ID, driverID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDriverAssigned, b.Status)

	// Drive the delivery to completion
	actor := models.Actor{ID: driverID, Role: models.RoleDriver}
	for _, next := range []models.BookingStatus{
		models.StatusDriverEnRoute,
		models.StatusArrivedPickup,
		models.StatusPickupCompleted,
		models.StatusInTransit,
		models.StatusArrivedDelivery,
		models.StatusDelivered,
	} {
		b, err = s.bookings.Transition(ctx, b.ID, booking.TransitionRequest{To: next, Actor: actor})
		require.NoError(t, err)
		helpers.AssertHistoryConsistent(t, b)
	}

	// Delivered confirmation settled the booking
	assert.Equal(t, models.StatusCompleted, b.Status)
	assert.Equal(t, models.Round2(b.Fare.Total*0.20), b.PlatformCommission)
	assert.Equal(t, models.Round2(b.Fare.Total-b.PlatformCommission), b.DriverEarnings)

	entries := s.earnings.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, driverID, entries[0].DriverID)
	assert.Equal(t, b.DriverEarnings, entries[0].Net)

	// Promo usage stayed committed through completion
	stored, err := s.promoStore.FindByCode(ctx, "FLOW3")
	require.NoError(t, err)
	assert.Equal(t, 1, stored.TotalUsed)
}

func TestBookingFlow_CancelAfterAcceptKeepsPromoUsage(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	require.NoError(t, s.promoStore.Persist(ctx, helpers.CreateTestPromo("FLOW3", 3)))

	b, err := s.bookings.CreateBooking(ctx, booking.CreateRequest{
		QuoteRequest: booking.QuoteRequest{
			CustomerID:       uuid.New(),
			VehicleProfileID: s.profile.ID,
			ServiceType:      models.ServiceDelivery,
			Pickup:           helpers.TestPickup(),
			Drop:             helpers.TestDrop(),
			PromoCode:        "FLOW3",
		},
		PaymentMethod: "cash",
	})
	require.NoError(t, err)

	driverID := uuid.New()
	s.directory.Put(assignment.Driver{
		ID: driverID, Latitude: 37.77, Longitude: -122.41, IsOnline: true,
	})
	_, err = s.broker.Accept(ctx, b.ID, driverID)
	require.NoError(t, err)

	got, err := s.bookings.Cancel(ctx, b.ID, booking.CancelRequest{
		Actor:  models.Actor{ID: b.CustomerID, Role: models.RoleCustomer},
		Reason: "no longer needed",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, got.Status)
	assert.Equal(t, 0.0, got.CancellationFee, "within grace period")
	helpers.AssertHistoryConsistent(t, got)

	// Cancellation is terminal, not a delete; the promo redemption stands
	stored, err := s.promoStore.FindByCode(ctx, "FLOW3")
	require.NoError(t, err)
	assert.Equal(t, 1, stored.TotalUsed)

	// And the driver is free again for new work
	second, err := s.bookings.CreateBooking(ctx, booking.CreateRequest{
		QuoteRequest: booking.QuoteRequest{
			CustomerID:       uuid.New(),
			VehicleProfileID: s.profile.ID,
			ServiceType:      models.ServiceDelivery,
			Pickup:           helpers.TestPickup(),
			Drop:             helpers.TestDrop(),
		},
		PaymentMethod: "cash",
	})
	require.NoError(t, err)
	_, err = s.broker.Accept(ctx, second.ID, driverID)
	require.NoError(t, err)
}

func TestBookingFlow_DistanceOutOfRangeRejectsQuote(t *testing.T) {
	s := newStack(t)

	// Short-range profile: the SF -> Oakland trip exceeds it
	shortRange := helpers.CreateTestProfile()
	shortRange.MaxDistanceKm = 5

	cat := catalog.NewMemoryCatalog()
	cat.Put(shortRange)

	bookings := booking.NewService(
		booking.NewMemoryStore(), cat,
		routing.NewServiceWithProvider(nil, config.RoutingConfig{RoadFactor: 1.25, FallbackSpeedKmh: 30}),
		fare.NewCalculator(1.50),
		promo.NewEngine(s.promoStore),
		booking.NewMemoryEarningsLedger(),
		config.BookingConfig{},
	)

	_, err := bookings.Quote(context.Background(), booking.QuoteRequest{
		CustomerID:       uuid.New(),
		VehicleProfileID: shortRange.ID,
		ServiceType:      models.ServiceDelivery,
		Pickup:           helpers.TestPickup(),
		Drop:             helpers.TestDrop(),
	})
	helpers.AssertAppErrorCode(t, err, common.CodeDistanceOutOfRange)
}
