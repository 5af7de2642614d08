package assignment

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jaivikpatel2001/sendme/pkg/common"
	"github.com/jaivikpatel2001/sendme/pkg/models"
)

// Repository is the PostgreSQL-backed driver directory
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new driver directory repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// ListOnlineCandidates returns online drivers ordered by proximity to
// the given location. Ordering uses the planar approximation; exact
// distances are recomputed by the caller.
func (r *Repository) ListOnlineCandidates(ctx context.Context, near models.Location, limit int) ([]Driver, error) {
	if limit <= 0 {
		limit = defaultCandidateLimit
	}

	query := `
		SELECT id, name, latitude, longitude, is_online
		FROM drivers
		WHERE is_online = true
		ORDER BY (latitude - $1) * (latitude - $1) + (longitude - $2) * (longitude - $2)
		LIMIT $3
	`

	rows, err := r.db.Query(ctx, query, near.Latitude, near.Longitude, limit)
	if err != nil {
		return nil, common.NewInternalError("failed to list online drivers", err)
	}
	defer rows.Close()

	var drivers []Driver
	for rows.Next() {
		var d Driver
		if err := rows.Scan(&d.ID, &d.Name, &d.Latitude, &d.Longitude, &d.IsOnline); err != nil {
			return nil, common.NewInternalError("failed to scan driver", err)
		}
		drivers = append(drivers, d)
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewInternalError("failed to read drivers", err)
	}

	return drivers, nil
}

// IsDriverFree reports whether the driver is online and marked available
func (r *Repository) IsDriverFree(ctx context.Context, driverID uuid.UUID) (bool, error) {
	var free bool
	err := r.db.QueryRow(ctx,
		`SELECT is_online AND is_available FROM drivers WHERE id = $1`,
		driverID,
	).Scan(&free)
	if err != nil {
		return false, common.NewInternalError("failed to check driver availability", err)
	}
	return free, nil
}
