package catalog

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/jaivikpatel2001/sendme/pkg/common"
)

// MemoryCatalog is an in-memory Catalog used in tests and local setups
type MemoryCatalog struct {
	mu       sync.RWMutex
	profiles map[uuid.UUID]*VehicleProfile
}

// NewMemoryCatalog creates an empty in-memory catalog
func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{profiles: make(map[uuid.UUID]*VehicleProfile)}
}

// Put stores a profile in the catalog
func (c *MemoryCatalog) Put(p *VehicleProfile) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.profiles[p.ID] = p
}

// GetVehicleProfile retrieves a profile by ID
func (c *MemoryCatalog) GetVehicleProfile(_ context.Context, id uuid.UUID) (*VehicleProfile, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.profiles[id]
	if !ok || !p.IsActive {
		return nil, common.NewNotFoundError("vehicle profile")
	}
	cp := *p
	return &cp, nil
}
