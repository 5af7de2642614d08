package promo

import (
	"context"
)

// Store is the external promo-code record store
type Store interface {
	FindByCode(ctx context.Context, code string) (*PromoCode, error)
	Persist(ctx context.Context, promo *PromoCode) error
}
