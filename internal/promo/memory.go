package promo

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/jaivikpatel2001/sendme/pkg/common"
)

// MemoryStore is an in-memory promo store used in tests and local setups
type MemoryStore struct {
	mu     sync.RWMutex
	promos map[string]*PromoCode
}

// NewMemoryStore creates an empty in-memory promo store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{promos: make(map[string]*PromoCode)}
}

// FindByCode retrieves a promo code record
func (s *MemoryStore) FindByCode(_ context.Context, code string) (*PromoCode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.promos[code]
	if !ok {
		return nil, common.NewNotFoundError("promo code")
	}
	return clonePromo(p), nil
}

// Persist stores a promo code record
func (s *MemoryStore) Persist(_ context.Context, promo *PromoCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.promos[promo.Code] = clonePromo(promo)
	return nil
}

// clonePromo deep-copies via JSON so callers never share ledger slices
func clonePromo(p *PromoCode) *PromoCode {
	raw, _ := json.Marshal(p)
	var cp PromoCode
	_ = json.Unmarshal(raw, &cp)
	return &cp
}
