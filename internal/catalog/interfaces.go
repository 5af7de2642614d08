package catalog

import (
	"context"

	"github.com/google/uuid"
)

// Catalog provides read access to vehicle profiles. Owned by an
// external catalog service; the core only reads from it.
type Catalog interface {
	GetVehicleProfile(ctx context.Context, id uuid.UUID) (*VehicleProfile, error)
}
