package catalog

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// VehicleProfile is the static pricing/capability configuration for a
// vehicle class. Read-only during fare computation.
type VehicleProfile struct {
	ID   uuid.UUID `json:"id" db:"id"`
	Name string    `json:"name" db:"name"`

	BaseFare      float64 `json:"base_fare" db:"base_fare"`
	PerKmRate     float64 `json:"per_km_rate" db:"per_km_rate"`
	PerMinuteRate float64 `json:"per_minute_rate" db:"per_minute_rate"`
	MinimumFare   float64 `json:"minimum_fare" db:"minimum_fare"`

	PeakMultiplier float64      `json:"peak_multiplier" db:"peak_multiplier"`
	PeakWindows    []PeakWindow `json:"peak_windows" db:"peak_windows"`

	MinDistanceKm float64 `json:"min_distance_km" db:"min_distance_km"`
	MaxDistanceKm float64 `json:"max_distance_km" db:"max_distance_km"`

	// Commission split; the two percentages must sum to 100
	PlatformCommissionPct float64 `json:"platform_commission_pct" db:"platform_commission_pct"`
	DriverCommissionPct   float64 `json:"driver_commission_pct" db:"driver_commission_pct"`

	Currency  string    `json:"currency" db:"currency"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// PeakWindow defines a recurring peak-pricing window. All times are UTC.
type PeakWindow struct {
	Days      []int  `json:"days"`       // 0=Sunday, 6=Saturday
	StartTime string `json:"start_time"` // HH:MM
	EndTime   string `json:"end_time"`   // HH:MM
}

// Validate checks profile invariants before it is used for pricing
func (p *VehicleProfile) Validate() error {
	if p.BaseFare < 0 || p.PerKmRate < 0 || p.PerMinuteRate < 0 || p.MinimumFare < 0 {
		return fmt.Errorf("vehicle profile %s has negative rates", p.ID)
	}
	if p.MaxDistanceKm > 0 && p.MinDistanceKm > p.MaxDistanceKm {
		return fmt.Errorf("vehicle profile %s has min distance above max distance", p.ID)
	}
	if sum := p.PlatformCommissionPct + p.DriverCommissionPct; sum != 100 {
		return fmt.Errorf("vehicle profile %s commission split sums to %.2f, want 100", p.ID, sum)
	}
	return nil
}

// IsPeakTime reports whether t falls inside any configured peak window.
// The check is done in UTC. Windows spanning midnight (start > end)
// wrap: the late side belongs to the window's day and the early side to
// the morning after it.
func (p *VehicleProfile) IsPeakTime(t time.Time) bool {
	if p.PeakMultiplier <= 1 || len(p.PeakWindows) == 0 {
		return false
	}

	utc := t.UTC()
	day := int(utc.Weekday())
	prevDay := (day + 6) % 7
	clock := utc.Format("15:04")

	for _, w := range p.PeakWindows {
		if w.StartTime <= w.EndTime {
			if containsDay(w.Days, day) && clock >= w.StartTime && clock <= w.EndTime {
				return true
			}
			continue
		}
		// Overnight window, e.g. Fri 22:00-02:00 covers Sat 01:00
		if containsDay(w.Days, day) && clock >= w.StartTime {
			return true
		}
		if containsDay(w.Days, prevDay) && clock <= w.EndTime {
			return true
		}
	}
	return false
}

func containsDay(days []int, day int) bool {
	for _, d := range days {
		if d == day {
			return true
		}
	}
	return false
}
