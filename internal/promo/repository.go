package promo

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jaivikpatel2001/sendme/pkg/common"
)

// Repository is the PostgreSQL-backed promo store. The usage ledger is
// stored as a JSONB column alongside the derived counters.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new promo repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// FindByCode retrieves a promo code record by its code
func (r *Repository) FindByCode(ctx context.Context, code string) (*PromoCode, error) {
	query := `
		SELECT id, code, description, discount_type, discount_value, max_discount,
		       min_order_value, valid_from, valid_until, total_limit, per_user_limit,
		       audience_roles, new_users_only, allowed_users, denied_users, allowed_days,
		       status, usage_ledger, total_used, total_savings, unique_users,
		       created_at, updated_at
		FROM promo_codes
		WHERE code = $1
	`

	p := &PromoCode{}
	var ledgerJSON, allowedJSON, deniedJSON []byte

	err := r.db.QueryRow(ctx, query, code).Scan(
		&p.ID, &p.Code, &p.Description, &p.DiscountType, &p.DiscountValue, &p.MaxDiscount,
		&p.MinOrderValue, &p.ValidFrom, &p.ValidUntil, &p.TotalLimit, &p.PerUserLimit,
		&p.AudienceRoles, &p.NewUsersOnly, &allowedJSON, &deniedJSON, &p.AllowedDays,
		&p.Status, &ledgerJSON, &p.TotalUsed, &p.TotalSavings, &p.UniqueUsers,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NewNotFoundError("promo code")
		}
		return nil, common.NewInternalError("failed to get promo code", err)
	}

	if len(ledgerJSON) > 0 {
		if err := json.Unmarshal(ledgerJSON, &p.UsageLedger); err != nil {
			return nil, common.NewInternalError("failed to parse promo usage ledger", err)
		}
	}
	if len(allowedJSON) > 0 {
		if err := json.Unmarshal(allowedJSON, &p.AllowedUsers); err != nil {
			return nil, common.NewInternalError("failed to parse promo allow list", err)
		}
	}
	if len(deniedJSON) > 0 {
		if err := json.Unmarshal(deniedJSON, &p.DeniedUsers); err != nil {
			return nil, common.NewInternalError("failed to parse promo deny list", err)
		}
	}

	return p, nil
}

// Persist writes a promo code record back, including its ledger and
// derived counters, in a single statement.
func (r *Repository) Persist(ctx context.Context, p *PromoCode) error {
	ledgerJSON, err := json.Marshal(p.UsageLedger)
	if err != nil {
		return common.NewInternalError("failed to encode promo usage ledger", err)
	}
	allowedJSON, err := json.Marshal(p.AllowedUsers)
	if err != nil {
		return common.NewInternalError("failed to encode promo allow list", err)
	}
	deniedJSON, err := json.Marshal(p.DeniedUsers)
	if err != nil {
		return common.NewInternalError("failed to encode promo deny list", err)
	}

	query := `
		INSERT INTO promo_codes (
			id, code, description, discount_type, discount_value, max_discount,
			min_order_value, valid_from, valid_until, total_limit, per_user_limit,
			audience_roles, new_users_only, allowed_users, denied_users, allowed_days,
			status, usage_ledger, total_used, total_savings, unique_users,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)
		ON CONFLICT (code) DO UPDATE SET
			description = EXCLUDED.description,
			discount_type = EXCLUDED.discount_type,
			discount_value = EXCLUDED.discount_value,
			max_discount = EXCLUDED.max_discount,
			min_order_value = EXCLUDED.min_order_value,
			valid_from = EXCLUDED.valid_from,
			valid_until = EXCLUDED.valid_until,
			total_limit = EXCLUDED.total_limit,
			per_user_limit = EXCLUDED.per_user_limit,
			audience_roles = EXCLUDED.audience_roles,
			new_users_only = EXCLUDED.new_users_only,
			allowed_users = EXCLUDED.allowed_users,
			denied_users = EXCLUDED.denied_users,
			allowed_days = EXCLUDED.allowed_days,
			status = EXCLUDED.status,
			usage_ledger = EXCLUDED.usage_ledger,
			total_used = EXCLUDED.total_used,
			total_savings = EXCLUDED.total_savings,
			unique_users = EXCLUDED.unique_users,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.Exec(ctx, query,
		p.ID, p.Code, p.Description, p.DiscountType, p.DiscountValue, p.MaxDiscount,
		p.MinOrderValue, p.ValidFrom, p.ValidUntil, p.TotalLimit, p.PerUserLimit,
		p.AudienceRoles, p.NewUsersOnly, allowedJSON, deniedJSON, p.AllowedDays,
		p.Status, ledgerJSON, p.TotalUsed, p.TotalSavings, p.UniqueUsers,
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return common.NewInternalError("failed to persist promo code", err)
	}

	return nil
}
