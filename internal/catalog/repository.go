package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jaivikpatel2001/sendme/pkg/common"
)

// Repository is the PostgreSQL-backed vehicle profile catalog
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new catalog repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// GetVehicleProfile retrieves an active vehicle profile by ID
func (r *Repository) GetVehicleProfile(ctx context.Context, id uuid.UUID) (*VehicleProfile, error) {
	query := `
		SELECT id, name, base_fare, per_km_rate, per_minute_rate, minimum_fare,
		       peak_multiplier, peak_windows, min_distance_km, max_distance_km,
		       platform_commission_pct, driver_commission_pct,
		       currency, is_active, created_at, updated_at
		FROM vehicle_profiles
		WHERE id = $1 AND is_active = true
	`

	p := &VehicleProfile{}
	var peakWindowsJSON []byte

	err := r.db.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.BaseFare, &p.PerKmRate, &p.PerMinuteRate, &p.MinimumFare,
		&p.PeakMultiplier, &peakWindowsJSON, &p.MinDistanceKm, &p.MaxDistanceKm,
		&p.PlatformCommissionPct, &p.DriverCommissionPct,
		&p.Currency, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NewNotFoundError("vehicle profile")
		}
		return nil, common.NewInternalError("failed to get vehicle profile", err)
	}

	if len(peakWindowsJSON) > 0 {
		if err := json.Unmarshal(peakWindowsJSON, &p.PeakWindows); err != nil {
			return nil, common.NewInternalError("failed to parse peak windows", fmt.Errorf("profile %s: %w", id, err))
		}
	}

	if err := p.Validate(); err != nil {
		return nil, common.NewInternalError("invalid vehicle profile", err)
	}

	return p, nil
}
