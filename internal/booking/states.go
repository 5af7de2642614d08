package booking

import (
	"github.com/jaivikpatel2001/sendme/pkg/models"
)

// allowedTransitions is the booking state machine. Forward progress is
// one step at a time along the main chain; Cancelled and Failed are
// side exits; terminal states allow nothing.
var allowedTransitions = map[models.BookingStatus][]models.BookingStatus{
	models.StatusPending: {
		models.StatusConfirmed,
		models.StatusDriverAssigned,
		models.StatusCancelled,
		models.StatusFailed,
	},
	models.StatusConfirmed: {
		models.StatusDriverAssigned,
		models.StatusCancelled,
		models.StatusFailed,
	},
	models.StatusDriverAssigned: {
		models.StatusDriverEnRoute,
		models.StatusCancelled,
		models.StatusFailed,
	},
	models.StatusDriverEnRoute: {
		models.StatusArrivedPickup,
		models.StatusCancelled,
		models.StatusFailed,
	},
	models.StatusArrivedPickup: {
		models.StatusPickupCompleted,
		models.StatusCancelled,
		models.StatusFailed,
	},
	models.StatusPickupCompleted: {
		models.StatusInTransit,
		models.StatusCancelled,
		models.StatusFailed,
	},
	models.StatusInTransit: {
		models.StatusArrivedDelivery,
		models.StatusFailed,
	},
	models.StatusArrivedDelivery: {
		models.StatusDelivered,
		models.StatusFailed,
	},
	models.StatusDelivered: {
		models.StatusCompleted,
		models.StatusFailed,
	},
	models.StatusCompleted: nil,
	models.StatusCancelled: nil,
	models.StatusFailed:    nil,
}

// CanTransition reports whether from -> to is a legal transition
func CanTransition(from, to models.BookingStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsCancellable reports whether a booking in the given status may still
// be cancelled. Once the goods are in the driver's custody (InTransit
// and later) cancellation is no longer possible.
func IsCancellable(status models.BookingStatus) bool {
	switch status {
	case models.StatusPending, models.StatusConfirmed, models.StatusDriverAssigned,
		models.StatusDriverEnRoute, models.StatusArrivedPickup, models.StatusPickupCompleted:
		return true
	}
	return false
}
