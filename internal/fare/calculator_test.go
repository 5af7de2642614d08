package fare

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaivikpatel2001/sendme/internal/catalog"
	"github.com/jaivikpatel2001/sendme/pkg/common"
	"github.com/jaivikpatel2001/sendme/pkg/models"
)

func testProfile() *catalog.VehicleProfile {
	return &catalog.VehicleProfile{
		ID:                    uuid.New(),
		Name:                  "bike",
		BaseFare:              3.00,
		PerKmRate:             0.50,
		PerMinuteRate:         0,
		MinimumFare:           5.00,
		PeakMultiplier:        1.5,
		MinDistanceKm:         0.5,
		MaxDistanceKm:         50,
		PlatformCommissionPct: 20,
		DriverCommissionPct:   80,
		Currency:              "USD",
		IsActive:              true,
	}
}

// Tuesday 10:00 UTC, outside any peak window used in these tests
var offPeak = time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)

func TestCalculate_MinimumFareFloor(t *testing.T) {
	calc := NewCalculator(1.50)

	// base=3.00 + 2km*0.50 = 4.00, floored to minimum fare 5.00
	breakdown, err := calc.Calculate(Input{
		Profile:     testProfile(),
		DistanceKm:  2,
		ServiceType: models.ServiceDelivery,
		At:          offPeak,
	})
	require.NoError(t, err)

	assert.Equal(t, 5.00, breakdown.Subtotal)
	assert.Equal(t, 5.00, breakdown.Total)
	assert.Equal(t, 3.00, breakdown.BaseFare)
	assert.Equal(t, 1.00, breakdown.DistanceCharge)
	assert.Equal(t, "USD", breakdown.Currency)
}

func TestCalculate_DistanceOutOfRange(t *testing.T) {
	calc := NewCalculator(1.50)

	tests := []struct {
		name       string
		distanceKm float64
	}{
		{"below minimum", 0.2},
		{"above maximum", 51},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := calc.Calculate(Input{
				Profile:     testProfile(),
				DistanceKm:  tt.distanceKm,
				ServiceType: models.ServiceDelivery,
				At:          offPeak,
			})
			require.Error(t, err)
			assert.True(t, common.IsCode(err, common.CodeDistanceOutOfRange))
		})
	}
}

func TestCalculate_ServiceMultipliers(t *testing.T) {
	calc := NewCalculator(0)
	p := testProfile()
	p.MinimumFare = 0

	// base=3.00 + 10km*0.50 = 8.00 before multiplier
	tests := []struct {
		service models.ServiceType
		want    float64
	}{
		{models.ServiceDelivery, 8.00},
		{models.ServicePickup, 8.00},
		{models.ServiceMoving, 9.60},
		{models.ServiceExpress, 12.00},
		{models.ServiceScheduled, 7.20},
	}

	for _, tt := range tests {
		t.Run(string(tt.service), func(t *testing.T) {
			breakdown, err := calc.Calculate(Input{
				Profile:     p,
				DistanceKm:  10,
				ServiceType: tt.service,
				At:          offPeak,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, breakdown.Subtotal)
			assert.Equal(t, tt.want, breakdown.Total)
		})
	}
}

func TestCalculate_UnknownServiceType(t *testing.T) {
	calc := NewCalculator(0)

	_, err := calc.Calculate(Input{
		Profile:     testProfile(),
		DistanceKm:  5,
		ServiceType: models.ServiceType("teleport"),
		At:          offPeak,
	})
	require.Error(t, err)
	assert.True(t, common.IsCode(err, common.CodeValidation))
}

func TestCalculate_PeakMultiplierUTC(t *testing.T) {
	calc := NewCalculator(0)
	p := testProfile()
	p.MinimumFare = 0
	p.PeakWindows = []catalog.PeakWindow{
		{Days: []int{2}, StartTime: "17:00", EndTime: "19:00"}, // Tuesday evening UTC
	}

	peak := time.Date(2024, 3, 5, 18, 0, 0, 0, time.UTC) // Tuesday 18:00 UTC

	breakdown, err := calc.Calculate(Input{
		Profile:     p,
		DistanceKm:  10,
		ServiceType: models.ServiceDelivery,
		At:          peak,
	})
	require.NoError(t, err)

	// (3.00 + 5.00) * 1.5 = 12.00
	assert.Equal(t, 12.00, breakdown.Subtotal)
	assert.Equal(t, 1.5, breakdown.PeakMultiplier)

	// Same wall-clock in a non-UTC zone must evaluate as UTC.
	// 18:00+05:00 is 13:00 UTC, outside the window.
	shifted := time.Date(2024, 3, 5, 18, 0, 0, 0, time.FixedZone("UTC+5", 5*3600))
	breakdown, err = calc.Calculate(Input{
		Profile:     p,
		DistanceKm:  10,
		ServiceType: models.ServiceDelivery,
		At:          shifted,
	})
	require.NoError(t, err)
	assert.Equal(t, 8.00, breakdown.Subtotal)
	assert.Equal(t, 1.0, breakdown.PeakMultiplier)
}

func TestCalculate_OvernightPeakWindow(t *testing.T) {
	calc := NewCalculator(0)
	p := testProfile()
	p.MinimumFare = 0
	p.PeakWindows = []catalog.PeakWindow{
		{Days: []int{5}, StartTime: "22:00", EndTime: "02:00"}, // Friday night wrap
	}

	late := time.Date(2024, 3, 8, 23, 30, 0, 0, time.UTC) // Friday 23:30 UTC

	breakdown, err := calc.Calculate(Input{
		Profile:     p,
		DistanceKm:  10,
		ServiceType: models.ServiceDelivery,
		At:          late,
	})
	require.NoError(t, err)
	assert.Equal(t, 1.5, breakdown.PeakMultiplier)
}

func TestCalculate_StopSurchargeAfterMultipliers(t *testing.T) {
	calc := NewCalculator(1.50)
	p := testProfile()
	p.MinimumFare = 0
	p.PeakWindows = []catalog.PeakWindow{
		{Days: []int{2}, StartTime: "17:00", EndTime: "19:00"},
	}

	peak := time.Date(2024, 3, 5, 18, 0, 0, 0, time.UTC)

	breakdown, err := calc.Calculate(Input{
		Profile:     p,
		DistanceKm:  10,
		ServiceType: models.ServiceExpress,
		At:          peak,
		ExtraStops:  2,
	})
	require.NoError(t, err)

	// (3.00 + 5.00) * 1.5 (express) * 1.5 (peak) = 18.00, surcharges
	// added afterwards and not multiplied: 18.00 + 3.00 = 21.00
	assert.Equal(t, 3.00, breakdown.StopSurcharge)
	assert.Equal(t, 21.00, breakdown.Subtotal)
}

func TestCalculate_TimeCharge(t *testing.T) {
	calc := NewCalculator(0)
	p := testProfile()
	p.MinimumFare = 0
	p.PerMinuteRate = 0.25

	breakdown, err := calc.Calculate(Input{
		Profile:     p,
		DistanceKm:  10,
		DurationMin: 20,
		ServiceType: models.ServiceDelivery,
		At:          offPeak,
	})
	require.NoError(t, err)

	assert.Equal(t, 5.00, breakdown.TimeCharge)
	assert.Equal(t, 13.00, breakdown.Subtotal) // 3.00 + 5.00 + 5.00
}

func TestCalculate_Deterministic(t *testing.T) {
	calc := NewCalculator(1.50)

	in := Input{
		Profile:     testProfile(),
		DistanceKm:  7.77,
		DurationMin: 13,
		ServiceType: models.ServiceMoving,
		At:          offPeak,
		ExtraStops:  1,
	}

	first, err := calc.Calculate(in)
	require.NoError(t, err)
	second, err := calc.Calculate(in)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
