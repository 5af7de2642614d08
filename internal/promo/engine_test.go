package promo

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaivikpatel2001/sendme/pkg/common"
	"github.com/jaivikpatel2001/sendme/pkg/models"
)

var promoNow = time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC) // Tuesday

func floatPtr(v float64) *float64 { return &v }

func newTestEngine(t *testing.T, promos ...*PromoCode) (*Engine, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	for _, p := range promos {
		require.NoError(t, store.Persist(context.Background(), p))
	}
	return NewEngine(store), store
}

func activePromo(code string) *PromoCode {
	return &PromoCode{
		ID:            uuid.New(),
		Code:          code,
		DiscountType:  DiscountFixed,
		DiscountValue: 5,
		ValidFrom:     promoNow.Add(-7 * 24 * time.Hour),
		ValidUntil:    promoNow.Add(7 * 24 * time.Hour),
		Status:        "active",
	}
}

func eligCtx(orderValue float64) EligibilityContext {
	return EligibilityContext{
		UserID:     uuid.New(),
		UserRole:   models.RoleCustomer,
		OrderValue: orderValue,
		Now:        promoNow,
	}
}

func assertIneligible(t *testing.T, err error, reason string) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := common.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, common.CodePromoIneligible, appErr.Code)
	assert.Equal(t, reason, appErr.Reason)
}

func TestCheckEligibility_UnknownCode(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.CheckEligibility(context.Background(), "NOPE", eligCtx(50))
	assertIneligible(t, err, ReasonNotFound)
}

func TestCheckEligibility_ValidityWindow(t *testing.T) {
	notStarted := activePromo("SOON")
	notStarted.ValidFrom = promoNow.Add(time.Hour)

	expired := activePromo("LATE")
	expired.ValidUntil = promoNow.Add(-time.Hour)
	expired.Status = "active" // stale cached hint must be ignored

	engine, _ := newTestEngine(t, notStarted, expired)

	_, err := engine.CheckEligibility(context.Background(), "SOON", eligCtx(50))
	assertIneligible(t, err, ReasonNotStarted)

	_, err = engine.CheckEligibility(context.Background(), "LATE", eligCtx(50))
	assertIneligible(t, err, ReasonExpired)
}

func TestCheckEligibility_MinimumOrder(t *testing.T) {
	p := activePromo("SAVE5")
	p.MinOrderValue = 25

	engine, _ := newTestEngine(t, p)

	_, err := engine.CheckEligibility(context.Background(), "SAVE5", eligCtx(20))
	assertIneligible(t, err, ReasonMinimumOrder)

	d, err := engine.CheckEligibility(context.Background(), "SAVE5", eligCtx(25))
	require.NoError(t, err)
	assert.Equal(t, 5.0, d.DiscountAmount)
	assert.Equal(t, 20.0, d.FinalAmount)
}

func TestCheckEligibility_RoleAudience(t *testing.T) {
	p := activePromo("DRIVERS")
	p.AudienceRoles = []string{models.RoleDriver}

	engine, _ := newTestEngine(t, p)

	ctx := eligCtx(50)
	_, err := engine.CheckEligibility(context.Background(), "DRIVERS", ctx)
	assertIneligible(t, err, ReasonRoleNotAllowed)

	ctx.UserRole = models.RoleDriver
	_, err = engine.CheckEligibility(context.Background(), "DRIVERS", ctx)
	require.NoError(t, err)
}

func TestCheckEligibility_NewUsersOnly(t *testing.T) {
	p := activePromo("WELCOME")
	p.NewUsersOnly = true

	engine, _ := newTestEngine(t, p)

	ctx := eligCtx(50)
	ctx.CompletedBookings = 3
	_, err := engine.CheckEligibility(context.Background(), "WELCOME", ctx)
	assertIneligible(t, err, ReasonNewUsersOnly)

	ctx.CompletedBookings = 0
	_, err = engine.CheckEligibility(context.Background(), "WELCOME", ctx)
	require.NoError(t, err)
}

func TestCheckEligibility_AllowDenyLists(t *testing.T) {
	denied := uuid.New()
	allowed := uuid.New()

	p := activePromo("VIP")
	p.AllowedUsers = []uuid.UUID{allowed}
	p.DeniedUsers = []uuid.UUID{denied}

	engine, _ := newTestEngine(t, p)

	ctx := eligCtx(50)
	ctx.UserID = denied
	_, err := engine.CheckEligibility(context.Background(), "VIP", ctx)
	assertIneligible(t, err, ReasonUserNotAllowed)

	ctx.UserID = uuid.New() // not on the allow list
	_, err = engine.CheckEligibility(context.Background(), "VIP", ctx)
	assertIneligible(t, err, ReasonUserNotAllowed)

	ctx.UserID = allowed
	_, err = engine.CheckEligibility(context.Background(), "VIP", ctx)
	require.NoError(t, err)
}

func TestCheckEligibility_DayOfWeek(t *testing.T) {
	p := activePromo("WEEKEND")
	p.AllowedDays = []int{0, 6}

	engine, _ := newTestEngine(t, p)

	_, err := engine.CheckEligibility(context.Background(), "WEEKEND", eligCtx(50)) // Tuesday
	assertIneligible(t, err, ReasonDayNotAllowed)

	ctx := eligCtx(50)
	ctx.Now = time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC) // Saturday
	_, err = engine.CheckEligibility(context.Background(), "WEEKEND", ctx)
	require.NoError(t, err)
}

func TestComputeDiscount_PercentageCapped(t *testing.T) {
	p := activePromo("PCT25")
	p.DiscountType = DiscountPercentage
	p.DiscountValue = 25
	p.MaxDiscount = floatPtr(10)

	engine, _ := newTestEngine(t, p)

	// 25% of 100 = 25, capped at 10
	d, err := engine.CheckEligibility(context.Background(), "PCT25", eligCtx(100))
	require.NoError(t, err)
	assert.Equal(t, 10.0, d.DiscountAmount)

	// 25% of 20 = 5, below the cap
	d, err = engine.CheckEligibility(context.Background(), "PCT25", eligCtx(20))
	require.NoError(t, err)
	assert.Equal(t, 5.0, d.DiscountAmount)
}

func TestComputeDiscount_NeverExceedsOrderValue(t *testing.T) {
	p := activePromo("BIG50")
	p.DiscountValue = 50

	engine, _ := newTestEngine(t, p)

	d, err := engine.CheckEligibility(context.Background(), "BIG50", eligCtx(30))
	require.NoError(t, err)
	assert.Equal(t, 30.0, d.DiscountAmount)
	assert.Equal(t, 0.0, d.FinalAmount)
}

func TestApply_TotalLimitExhausted(t *testing.T) {
	p := activePromo("ONCE")
	p.TotalLimit = 1

	engine, store := newTestEngine(t, p)
	ctx := context.Background()

	_, err := engine.Apply(ctx, "ONCE", uuid.New(), eligCtx(50))
	require.NoError(t, err)

	_, err = engine.Apply(ctx, "ONCE", uuid.New(), eligCtx(50))
	assertIneligible(t, err, ReasonUsageExhausted)

	stored, err := store.FindByCode(ctx, "ONCE")
	require.NoError(t, err)
	assert.Equal(t, 1, stored.TotalUsed)
	assert.Len(t, stored.UsageLedger, 1)
}

func TestApply_PerUserLimit(t *testing.T) {
	p := activePromo("TWICE")
	p.PerUserLimit = 2

	engine, _ := newTestEngine(t, p)
	ctx := context.Background()

	ectx := eligCtx(50)
	_, err := engine.Apply(ctx, "TWICE", uuid.New(), ectx)
	require.NoError(t, err)
	_, err = engine.Apply(ctx, "TWICE", uuid.New(), ectx)
	require.NoError(t, err)

	_, err = engine.Apply(ctx, "TWICE", uuid.New(), ectx)
	assertIneligible(t, err, ReasonUserLimitReached)

	// A different user is unaffected
	_, err = engine.Apply(ctx, "TWICE", uuid.New(), eligCtx(50))
	require.NoError(t, err)
}

func TestApply_SameBookingRejected(t *testing.T) {
	p := activePromo("DOUBLE")

	engine, store := newTestEngine(t, p)
	ctx := context.Background()
	bookingID := uuid.New()

	_, err := engine.Apply(ctx, "DOUBLE", bookingID, eligCtx(50))
	require.NoError(t, err)

	_, err = engine.Apply(ctx, "DOUBLE", bookingID, eligCtx(50))
	assertIneligible(t, err, ReasonAlreadyApplied)

	stored, err := store.FindByCode(ctx, "DOUBLE")
	require.NoError(t, err)
	assert.Equal(t, 1, stored.TotalUsed)
}

func TestApply_DerivedCounters(t *testing.T) {
	p := activePromo("COUNT")
	engine, store := newTestEngine(t, p)
	ctx := context.Background()

	repeat := eligCtx(50)
	_, err := engine.Apply(ctx, "COUNT", uuid.New(), repeat)
	require.NoError(t, err)
	_, err = engine.Apply(ctx, "COUNT", uuid.New(), repeat)
	require.NoError(t, err)
	_, err = engine.Apply(ctx, "COUNT", uuid.New(), eligCtx(50))
	require.NoError(t, err)

	stored, err := store.FindByCode(ctx, "COUNT")
	require.NoError(t, err)
	assert.Equal(t, 3, stored.TotalUsed)
	assert.Equal(t, len(stored.UsageLedger), stored.TotalUsed)
	assert.Equal(t, 2, stored.UniqueUsers)
	assert.Equal(t, 15.0, stored.TotalSavings)
}

func TestRollback_RemovesUsage(t *testing.T) {
	p := activePromo("UNDO")
	engine, store := newTestEngine(t, p)
	ctx := context.Background()
	bookingID := uuid.New()

	_, err := engine.Apply(ctx, "UNDO", bookingID, eligCtx(50))
	require.NoError(t, err)

	require.NoError(t, engine.Rollback(ctx, "UNDO", bookingID))

	stored, err := store.FindByCode(ctx, "UNDO")
	require.NoError(t, err)
	assert.Equal(t, 0, stored.TotalUsed)
	assert.Empty(t, stored.UsageLedger)
	assert.Equal(t, 0.0, stored.TotalSavings)
	assert.Equal(t, 0, stored.UniqueUsers)

	// Rolling back again is a no-op
	require.NoError(t, engine.Rollback(ctx, "UNDO", bookingID))
}

func TestApply_CodeNormalization(t *testing.T) {
	p := activePromo("SAVE5")
	engine, _ := newTestEngine(t, p)

	d, err := engine.CheckEligibility(context.Background(), "  save5 ", eligCtx(50))
	require.NoError(t, err)
	assert.Equal(t, "SAVE5", d.Code)
}
