package models

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// BookingStatus represents the lifecycle state of a booking
type BookingStatus string

const (
	StatusPending         BookingStatus = "pending"
	StatusConfirmed       BookingStatus = "confirmed"
	StatusDriverAssigned  BookingStatus = "driver_assigned"
	StatusDriverEnRoute   BookingStatus = "driver_en_route"
	StatusArrivedPickup   BookingStatus = "arrived_pickup"
	StatusPickupCompleted BookingStatus = "pickup_completed"
	StatusInTransit       BookingStatus = "in_transit"
	StatusArrivedDelivery BookingStatus = "arrived_delivery"
	StatusDelivered       BookingStatus = "delivered"
	StatusCompleted       BookingStatus = "completed"
	StatusCancelled       BookingStatus = "cancelled"
	StatusFailed          BookingStatus = "failed"
)

// IsTerminal reports whether the status is a terminal state
func (s BookingStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusFailed
}

// ServiceType represents the kind of service requested
type ServiceType string

const (
	ServiceDelivery  ServiceType = "delivery"
	ServicePickup    ServiceType = "pickup"
	ServiceMoving    ServiceType = "moving"
	ServiceExpress   ServiceType = "express"
	ServiceScheduled ServiceType = "scheduled"
)

// Actor roles for status transitions
const (
	RoleCustomer = "customer"
	RoleDriver   = "driver"
	RoleAdmin    = "admin"
	RoleSystem   = "system"
)

// Actor identifies who performed a transition
type Actor struct {
	ID   uuid.UUID `json:"id"`
	Role string    `json:"role"`
}

// Location is a geographic point with a free-text address
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address,omitempty"`
}

// StatusHistoryEntry is one append-only audit record of a status change
type StatusHistoryEntry struct {
	Status    BookingStatus `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
	ActorID   uuid.UUID     `json:"actor_id"`
	ActorRole string        `json:"actor_role"`
	Location  *Location     `json:"location,omitempty"`
	Note      string        `json:"note,omitempty"`
}

// FareBreakdown is the itemized pricing result for a booking. Every
// line item is rounded to 2 decimals independently; Total is the sum
// of already-rounded components and is not re-rounded.
type FareBreakdown struct {
	BaseFare          float64 `json:"base_fare"`
	DistanceCharge    float64 `json:"distance_charge"`
	TimeCharge        float64 `json:"time_charge"`
	ServiceMultiplier float64 `json:"service_multiplier"`
	PeakMultiplier    float64 `json:"peak_multiplier"`
	StopSurcharge     float64 `json:"stop_surcharge"`
	Subtotal          float64 `json:"subtotal"`
	Discount          float64 `json:"discount"`
	Tax               float64 `json:"tax"`
	PlatformFee       float64 `json:"platform_fee"`
	Total             float64 `json:"total"`
	Currency          string  `json:"currency"`
}

// Round2 rounds a monetary amount to 2 decimal places
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// RecalculateTotal recomputes Total from independently rounded
// components. The ordering (round each part first, sum after) is
// load-bearing for reproducibility and must not change.
func (f *FareBreakdown) RecalculateTotal() {
	f.Subtotal = Round2(f.Subtotal)
	f.Discount = Round2(f.Discount)
	f.Tax = Round2(f.Tax)
	f.PlatformFee = Round2(f.PlatformFee)
	f.Total = f.Subtotal - f.Discount + f.Tax + f.PlatformFee
}

// Booking is the central aggregate. It is mutated only through
// lifecycle operations; cancellation is a terminal status, never a delete.
type Booking struct {
	ID         uuid.UUID  `json:"id"`
	CustomerID uuid.UUID  `json:"customer_id"`
	DriverID   *uuid.UUID `json:"driver_id,omitempty"`

	VehicleProfileID uuid.UUID   `json:"vehicle_profile_id"`
	ServiceType      ServiceType `json:"service_type"`

	Pickup Location   `json:"pickup"`
	Drop   Location   `json:"drop"`
	Stops  []Location `json:"stops,omitempty"`

	DistanceKm           float64 `json:"distance_km"`
	EstimatedDurationMin int     `json:"estimated_duration_min"`
	ActualDurationMin    *int    `json:"actual_duration_min,omitempty"`

	Fare          FareBreakdown `json:"fare"`
	PaymentMethod string        `json:"payment_method"`
	PaymentStatus string        `json:"payment_status"`

	// Promo linkage frozen at creation time; never recomputed on replay
	PromoCode     *string `json:"promo_code,omitempty"`
	PromoDiscount float64 `json:"promo_discount"`

	Status        BookingStatus        `json:"status"`
	StatusHistory []StatusHistoryEntry `json:"status_history"`

	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`

	// Typed timestamps, each stamped exactly once
	ConfirmedAt       *time.Time `json:"confirmed_at,omitempty"`
	AssignedAt        *time.Time `json:"assigned_at,omitempty"`
	EnRouteAt         *time.Time `json:"en_route_at,omitempty"`
	ArrivedPickupAt   *time.Time `json:"arrived_pickup_at,omitempty"`
	PickupCompletedAt *time.Time `json:"pickup_completed_at,omitempty"`
	InTransitAt       *time.Time `json:"in_transit_at,omitempty"`
	ArrivedDeliveryAt *time.Time `json:"arrived_delivery_at,omitempty"`
	DeliveredAt       *time.Time `json:"delivered_at,omitempty"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
	CancelledAt       *time.Time `json:"cancelled_at,omitempty"`

	CancellationFee    float64 `json:"cancellation_fee"`
	CancellationReason string  `json:"cancellation_reason,omitempty"`

	// Commission split frozen from the vehicle profile at creation;
	// settlement amounts are computed from it on completion
	PlatformCommissionPct float64 `json:"platform_commission_pct"`
	PlatformCommission    float64 `json:"platform_commission"`
	DriverEarnings        float64 `json:"driver_earnings"`

	// Version supports optimistic concurrency in the booking store
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AppendStatus appends a history entry and advances the current status.
// All status changes must go through here so Status always equals the
// last history entry.
func (b *Booking) AppendStatus(entry StatusHistoryEntry) {
	b.StatusHistory = append(b.StatusHistory, entry)
	b.Status = entry.Status
	b.UpdatedAt = entry.Timestamp
}

// LastStatusEntry returns the most recent history entry, or nil for a
// booking with no recorded transitions yet.
func (b *Booking) LastStatusEntry() *StatusHistoryEntry {
	if len(b.StatusHistory) == 0 {
		return nil
	}
	return &b.StatusHistory[len(b.StatusHistory)-1]
}
