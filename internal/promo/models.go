package promo

import (
	"time"

	"github.com/google/uuid"
	"github.com/jaivikpatel2001/sendme/pkg/models"
)

// DiscountType is how a promo discount is computed
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// Eligibility failure reason codes, surfaced inside PromoIneligible errors
const (
	ReasonNotFound          = "not_found"
	ReasonNotStarted        = "not_started"
	ReasonExpired           = "expired"
	ReasonUsageExhausted    = "usage_exhausted"
	ReasonMinimumOrder      = "minimum_order_not_met"
	ReasonRoleNotAllowed    = "role_not_allowed"
	ReasonNewUsersOnly      = "new_users_only"
	ReasonUserNotAllowed    = "user_not_allowed"
	ReasonUserLimitReached  = "user_limit_reached"
	ReasonDayNotAllowed     = "day_not_allowed"
	ReasonAlreadyApplied    = "already_applied"
)

// UsageEntry is one append-only record of a promo redemption
type UsageEntry struct {
	UserID         uuid.UUID `json:"user_id"`
	BookingID      uuid.UUID `json:"booking_id"`
	DiscountAmount float64   `json:"discount_amount"`
	OrderValue     float64   `json:"order_value"`
	UsedAt         time.Time `json:"used_at"`
}

// PromoCode is a discount instrument with eligibility constraints and a
// usage ledger. The aggregate counters are derived from the ledger; the
// Status field is a cached hint, never the source of truth.
type PromoCode struct {
	ID          uuid.UUID `json:"id"`
	Code        string    `json:"code"`
	Description string    `json:"description,omitempty"`

	DiscountType  DiscountType `json:"discount_type"`
	DiscountValue float64      `json:"discount_value"`
	// MaxDiscount caps percentage discounts; required for that type
	MaxDiscount   *float64 `json:"max_discount,omitempty"`
	MinOrderValue float64  `json:"min_order_value"`

	ValidFrom  time.Time `json:"valid_from"`
	ValidUntil time.Time `json:"valid_until"`

	TotalLimit   int `json:"total_limit"`    // 0 = unlimited
	PerUserLimit int `json:"per_user_limit"` // 0 = unlimited

	AudienceRoles []string    `json:"audience_roles,omitempty"` // empty or "all" = everyone
	NewUsersOnly  bool        `json:"new_users_only"`
	AllowedUsers  []uuid.UUID `json:"allowed_users,omitempty"`
	DeniedUsers   []uuid.UUID `json:"denied_users,omitempty"`
	AllowedDays   []int       `json:"allowed_days,omitempty"` // UTC weekdays, 0=Sunday

	Status string `json:"status"`

	UsageLedger  []UsageEntry `json:"usage_ledger"`
	TotalUsed    int          `json:"total_used"`
	TotalSavings float64      `json:"total_savings"`
	UniqueUsers  int          `json:"unique_users"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserUsageCount counts ledger entries for one user
func (p *PromoCode) UserUsageCount(userID uuid.UUID) int {
	n := 0
	for _, e := range p.UsageLedger {
		if e.UserID == userID {
			n++
		}
	}
	return n
}

// usageForBooking returns the ledger entry index for a booking, or -1
func (p *PromoCode) usageForBooking(bookingID uuid.UUID) int {
	for i, e := range p.UsageLedger {
		if e.BookingID == bookingID {
			return i
		}
	}
	return -1
}

// recountDerived recomputes the aggregate counters from the ledger so
// they can never drift from it.
func (p *PromoCode) recountDerived() {
	p.TotalUsed = len(p.UsageLedger)
	p.TotalSavings = 0
	users := make(map[uuid.UUID]struct{}, len(p.UsageLedger))
	for _, e := range p.UsageLedger {
		p.TotalSavings += e.DiscountAmount
		users[e.UserID] = struct{}{}
	}
	p.TotalSavings = models.Round2(p.TotalSavings)
	p.UniqueUsers = len(users)
}

// EligibilityContext describes the user/order a code is checked against
type EligibilityContext struct {
	UserID            uuid.UUID
	UserRole          string
	OrderValue        float64
	CompletedBookings int
	Now               time.Time
}

// Discount is the result of a successful eligibility check or apply
type Discount struct {
	Code           string  `json:"code"`
	DiscountAmount float64 `json:"discount_amount"`
	FinalAmount    float64 `json:"final_amount"`
}
