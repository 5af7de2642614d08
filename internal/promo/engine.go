package promo

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jaivikpatel2001/sendme/pkg/common"
	"github.com/jaivikpatel2001/sendme/pkg/logger"
	"github.com/jaivikpatel2001/sendme/pkg/models"
	"go.uber.org/zap"
)

// Engine validates promo codes and computes discounts. Eligibility
// checks are read-only and may observe slightly stale usage counters;
// Apply is strictly serialized per code.
type Engine struct {
	store Store

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewEngine creates a promo engine backed by the given store
func NewEngine(store Store) *Engine {
	return &Engine{
		store: store,
		locks: make(map[string]*sync.Mutex),
	}
}

// codeLock returns the per-code mutex, creating it on first use
func (e *Engine) codeLock(code string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()

	l, ok := e.locks[code]
	if !ok {
		l = &sync.Mutex{}
		e.locks[code] = l
	}
	return l
}

// CheckEligibility runs the full eligibility chain for a code without
// side effects. Safe to call repeatedly for quoting.
func (e *Engine) CheckEligibility(ctx context.Context, code string, ectx EligibilityContext) (*Discount, error) {
	promo, err := e.store.FindByCode(ctx, normalizeCode(code))
	if err != nil {
		if common.IsCode(err, common.CodeNotFound) {
			return nil, common.NewPromoIneligibleError(ReasonNotFound, "promo code does not exist")
		}
		return nil, err
	}

	if err := checkEligibility(promo, ectx); err != nil {
		return nil, err
	}

	amount := computeDiscount(promo, ectx.OrderValue)
	return &Discount{
		Code:           promo.Code,
		DiscountAmount: amount,
		FinalAmount:    models.Round2(ectx.OrderValue - amount),
	}, nil
}

// Apply redeems a code for a booking: re-runs the eligibility check to
// close the quote-to-creation race, appends one ledger entry, updates
// the derived counters and persists. Applying twice for the same
// booking is rejected, not double-counted.
func (e *Engine) Apply(ctx context.Context, code string, bookingID uuid.UUID, ectx EligibilityContext) (*Discount, error) {
	code = normalizeCode(code)

	lock := e.codeLock(code)
	lock.Lock()
	defer lock.Unlock()

	promo, err := e.store.FindByCode(ctx, code)
	if err != nil {
		if common.IsCode(err, common.CodeNotFound) {
			return nil, common.NewPromoIneligibleError(ReasonNotFound, "promo code does not exist")
		}
		return nil, err
	}

	if promo.usageForBooking(bookingID) >= 0 {
		return nil, common.NewPromoIneligibleError(ReasonAlreadyApplied, "promo code already applied to this booking")
	}

	if err := checkEligibility(promo, ectx); err != nil {
		return nil, err
	}

	amount := computeDiscount(promo, ectx.OrderValue)

	promo.UsageLedger = append(promo.UsageLedger, UsageEntry{
		UserID:         ectx.UserID,
		BookingID:      bookingID,
		DiscountAmount: amount,
		OrderValue:     models.Round2(ectx.OrderValue),
		UsedAt:         ectx.Now,
	})
	promo.recountDerived()
	promo.UpdatedAt = ectx.Now

	if err := e.store.Persist(ctx, promo); err != nil {
		return nil, common.NewInternalError("failed to persist promo usage", err)
	}

	logger.Info("promo code applied",
		zap.String("code", promo.Code),
		zap.String("booking_id", bookingID.String()),
		zap.Float64("discount", amount),
	)

	return &Discount{
		Code:           promo.Code,
		DiscountAmount: amount,
		FinalAmount:    models.Round2(ectx.OrderValue - amount),
	}, nil
}

// Rollback is the compensating action for a failed booking creation: it
// removes the ledger entry recorded for the booking and re-derives the
// counters. A no-op when the booking never redeemed the code.
func (e *Engine) Rollback(ctx context.Context, code string, bookingID uuid.UUID) error {
	code = normalizeCode(code)

	lock := e.codeLock(code)
	lock.Lock()
	defer lock.Unlock()

	promo, err := e.store.FindByCode(ctx, code)
	if err != nil {
		if common.IsCode(err, common.CodeNotFound) {
			return nil
		}
		return err
	}

	idx := promo.usageForBooking(bookingID)
	if idx < 0 {
		return nil
	}

	promo.UsageLedger = append(promo.UsageLedger[:idx], promo.UsageLedger[idx+1:]...)
	promo.recountDerived()
	promo.UpdatedAt = time.Now()

	if err := e.store.Persist(ctx, promo); err != nil {
		return common.NewInternalError("failed to roll back promo usage", err)
	}

	logger.Warn("promo usage rolled back",
		zap.String("code", promo.Code),
		zap.String("booking_id", bookingID.String()),
	)
	return nil
}

// checkEligibility runs the ordered eligibility chain, short-circuiting
// on the first failure. Validity window and caps are evaluated from the
// record itself, never from the cached Status field.
func checkEligibility(p *PromoCode, ectx EligibilityContext) error {
	now := ectx.Now

	if now.Before(p.ValidFrom) {
		return common.NewPromoIneligibleError(ReasonNotStarted, "promo code is not active yet")
	}
	if now.After(p.ValidUntil) {
		return common.NewPromoIneligibleError(ReasonExpired, "promo code has expired")
	}

	if p.TotalLimit > 0 && len(p.UsageLedger) >= p.TotalLimit {
		return common.NewPromoIneligibleError(ReasonUsageExhausted, "promo code usage limit reached")
	}

	if ectx.OrderValue < p.MinOrderValue {
		return common.NewPromoIneligibleError(ReasonMinimumOrder, "order value below the promo minimum")
	}

	if !roleAllowed(p.AudienceRoles, ectx.UserRole) {
		return common.NewPromoIneligibleError(ReasonRoleNotAllowed, "promo code is not available for this account type")
	}

	if p.NewUsersOnly && ectx.CompletedBookings > 0 {
		return common.NewPromoIneligibleError(ReasonNewUsersOnly, "promo code is for new users only")
	}

	if containsUser(p.DeniedUsers, ectx.UserID) {
		return common.NewPromoIneligibleError(ReasonUserNotAllowed, "promo code is not available for this user")
	}
	if len(p.AllowedUsers) > 0 && !containsUser(p.AllowedUsers, ectx.UserID) {
		return common.NewPromoIneligibleError(ReasonUserNotAllowed, "promo code is not available for this user")
	}

	if p.PerUserLimit > 0 && p.UserUsageCount(ectx.UserID) >= p.PerUserLimit {
		return common.NewPromoIneligibleError(ReasonUserLimitReached, "promo code already used the maximum number of times")
	}

	if len(p.AllowedDays) > 0 && !containsDay(p.AllowedDays, int(now.UTC().Weekday())) {
		return common.NewPromoIneligibleError(ReasonDayNotAllowed, "promo code is not valid today")
	}

	return nil
}

// computeDiscount computes the discount amount for an order value. The
// result is capped at the order value and rounded to 2 decimals; once
// applied to a booking it is frozen and never re-derived.
func computeDiscount(p *PromoCode, orderValue float64) float64 {
	var amount float64

	switch p.DiscountType {
	case DiscountPercentage:
		amount = orderValue * p.DiscountValue / 100
		if p.MaxDiscount != nil && amount > *p.MaxDiscount {
			amount = *p.MaxDiscount
		}
	case DiscountFixed:
		amount = p.DiscountValue
	}

	if amount > orderValue {
		amount = orderValue
	}
	if amount < 0 {
		amount = 0
	}

	return models.Round2(amount)
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func roleAllowed(roles []string, role string) bool {
	if len(roles) == 0 {
		return true
	}
	for _, r := range roles {
		if r == "all" || strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}

func containsUser(users []uuid.UUID, id uuid.UUID) bool {
	for _, u := range users {
		if u == id {
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
