package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaivikpatel2001/sendme/pkg/common"
	"github.com/jaivikpatel2001/sendme/pkg/models"
)

// AssertAppErrorCode asserts that err is an AppError with the given code
func AssertAppErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := common.AsAppError(err)
	require.True(t, ok, "expected *common.AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

// AssertFareConsistent asserts the fare breakdown's internal arithmetic:
// the total equals the independently rounded components summed.
func AssertFareConsistent(t *testing.T, f models.FareBreakdown) {
	t.Helper()
	assert.Equal(t, models.Round2(f.Subtotal), f.Subtotal, "subtotal must be rounded")
	assert.Equal(t, models.Round2(f.Discount), f.Discount, "discount must be rounded")
	expected := f.Subtotal - f.Discount + f.Tax + f.PlatformFee
	assert.Equal(t, expected, f.Total)
}

// AssertHistoryConsistent asserts the booking status invariant: the
// current status always equals the last history entry and timestamps
// never go backwards.
func AssertHistoryConsistent(t *testing.T, b *models.Booking) {
	t.Helper()
	require.NotEmpty(t, b.StatusHistory)
	assert.Equal(t, b.Status, b.StatusHistory[len(b.StatusHistory)-1].Status)

	for i := 1; i < len(b.StatusHistory); i++ {
		assert.False(t, b.StatusHistory[i].Timestamp.Before(b.StatusHistory[i-1].Timestamp),
			"history timestamps must be non-decreasing")
	}
}
