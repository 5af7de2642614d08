package helpers

import (
	"time"

	"github.com/google/uuid"
	"github.com/jaivikpatel2001/sendme/internal/catalog"
	"github.com/jaivikpatel2001/sendme/internal/promo"
	"github.com/jaivikpatel2001/sendme/pkg/models"
)

// FixedNow is the reference instant shared by fixtures; a Tuesday noon UTC
var FixedNow = time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)

// CreateTestProfile creates a vehicle profile with sane delivery defaults
func CreateTestProfile() *catalog.VehicleProfile {
	return &catalog.VehicleProfile{
		ID:                    uuid.New(),
		Name:                  "standard",
		BaseFare:              3.00,
		PerKmRate:             0.50,
		PerMinuteRate:         0,
		MinimumFare:           5.00,
		PeakMultiplier:        1.5,
		MinDistanceKm:         0,
		MaxDistanceKm:         100,
		PlatformCommissionPct: 20,
		DriverCommissionPct:   80,
		Currency:              "USD",
		IsActive:              true,
		CreatedAt:             FixedNow,
		UpdatedAt:             FixedNow,
	}
}

// CreateTestPromo creates an active fixed-amount promo code. The
// validity window brackets the wall clock because full-stack tests
// evaluate eligibility with real time.
func CreateTestPromo(code string, amount float64) *promo.PromoCode {
	now := time.Now().UTC()
	return &promo.PromoCode{
		ID:            uuid.New(),
		Code:          code,
		DiscountType:  promo.DiscountFixed,
		DiscountValue: amount,
		ValidFrom:     now.Add(-24 * time.Hour),
		ValidUntil:    now.Add(24 * time.Hour),
		Status:        "active",
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// TestPickup is a pickup location fixture in San Francisco
func TestPickup() models.Location {
	return models.Location{Latitude: 37.7749, Longitude: -122.4194, Address: "Market St"}
}

// TestDrop is a drop location fixture in Oakland
func TestDrop() models.Location {
	return models.Location{Latitude: 37.8044, Longitude: -122.2712, Address: "Broadway"}
}
