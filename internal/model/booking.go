package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Booking records a confirmed service appointment created from one cart
// item at checkout.  There is no intermediate PENDING state: a booking
// is CONFIRMED the moment it exists and can only move to CANCELLED.
//
// Fields:
//  ID              – primary key (UUID string).
//  UserID          – customer who booked the service.
//  ProviderID      – assigned provider; nil when none was selected in the cart.
//  ServiceType     – service category copied from the cart item.
//  ScheduledAt     – start of the appointment, UTC.
//  DurationMinutes – appointment duration.
//  Status          – CONFIRMED or CANCELLED.
//  TotalAmount     – service price before platform commission.
//  CreatedAt       – creation timestamp.
//  UpdatedAt       – last update timestamp.
type Booking struct {
	ID              string          // bookings.id
	UserID          uint64          // bookings.user_id
	ProviderID      *uint64         // bookings.provider_id (nullable)
	ServiceType     string          // bookings.service_type
	ScheduledAt     time.Time       // bookings.scheduled_at
	DurationMinutes uint32          // bookings.duration_minutes
	Status          string          // bookings.status
	TotalAmount     decimal.Decimal // bookings.total_amount
	CreatedAt       time.Time       // bookings.created_at
	UpdatedAt       time.Time       // bookings.updated_at
}

// Booking status values.
const (
	BookingStatusConfirmed = "CONFIRMED"
	BookingStatusCancelled = "CANCELLED"
)
