package fare

import (
	"math"
	"time"

	"github.com/jaivikpatel2001/sendme/internal/catalog"
	"github.com/jaivikpatel2001/sendme/pkg/common"
	"github.com/jaivikpatel2001/sendme/pkg/models"
)

// Service-type multipliers applied to the full subtotal
var serviceMultipliers = map[models.ServiceType]float64{
	models.ServiceDelivery:  1.0,
	models.ServicePickup:    1.0,
	models.ServiceMoving:    1.2,
	models.ServiceExpress:   1.5,
	models.ServiceScheduled: 0.9,
}

// Input describes a single fare computation
type Input struct {
	Profile     *catalog.VehicleProfile
	DistanceKm  float64
	DurationMin int
	ServiceType models.ServiceType
	// At is the scheduled time for scheduled bookings, otherwise the
	// request time. Peak windows are evaluated against it in UTC.
	At         time.Time
	ExtraStops int
}

// Calculator computes fare breakdowns. Pure: no side effects beyond
// reading the vehicle profile.
type Calculator struct {
	perStopSurcharge float64
}

// NewCalculator creates a fare calculator with a fixed per-stop surcharge
func NewCalculator(perStopSurcharge float64) *Calculator {
	return &Calculator{perStopSurcharge: perStopSurcharge}
}

// Calculate produces an itemized fare breakdown for the given input.
// Multipliers are multiplicative over the whole subtotal; per-stop
// surcharges are added after the multipliers; the minimum fare is a
// floor via max, not an additive adjustment. Each line item is rounded
// to 2 decimals independently, intermediate sums are not rounded.
func (c *Calculator) Calculate(in Input) (models.FareBreakdown, error) {
	p := in.Profile

	if in.DistanceKm < p.MinDistanceKm || (p.MaxDistanceKm > 0 && in.DistanceKm > p.MaxDistanceKm) {
		return models.FareBreakdown{}, common.NewDistanceOutOfRangeError(in.DistanceKm, p.MinDistanceKm, p.MaxDistanceKm)
	}

	base := p.BaseFare
	distanceCharge := in.DistanceKm * p.PerKmRate
	timeCharge := 0.0
	if p.PerMinuteRate > 0 {
		timeCharge = float64(in.DurationMin) * p.PerMinuteRate
	}

	subtotal := base + distanceCharge + timeCharge

	serviceMult, ok := serviceMultipliers[in.ServiceType]
	if !ok {
		return models.FareBreakdown{}, common.NewValidationError("unknown service type: " + string(in.ServiceType))
	}
	subtotal *= serviceMult

	peakMult := 1.0
	if p.IsPeakTime(in.At) {
		peakMult = p.PeakMultiplier
		subtotal *= peakMult
	}

	// Surcharges are not subject to peak/service multipliers
	stopSurcharge := float64(in.ExtraStops) * c.perStopSurcharge
	subtotal += stopSurcharge

	subtotal = math.Max(subtotal, p.MinimumFare)

	breakdown := models.FareBreakdown{
		BaseFare:          models.Round2(base),
		DistanceCharge:    models.Round2(distanceCharge),
		TimeCharge:        models.Round2(timeCharge),
		ServiceMultiplier: serviceMult,
		PeakMultiplier:    peakMult,
		StopSurcharge:     models.Round2(stopSurcharge),
		Subtotal:          models.Round2(subtotal),
		Currency:          p.Currency,
	}
	breakdown.RecalculateTotal()

	return breakdown, nil
}
