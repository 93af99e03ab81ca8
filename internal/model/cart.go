package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cart groups the service line items a caller intends to book.  A cart
// belongs either to a registered user (UserID set) or to an anonymous
// browser session (SessionToken set); the two owners are mutually
// exclusive.  Carts are created lazily on first read and are never
// deleted: after checkout the status flips to checked_out, and when an
// anonymous cart is folded into a user cart at login time the status
// becomes merged.
//
// Fields:
//  ID           – primary key (UUID string).
//  UserID       – owning user, nil for anonymous carts.
//  SessionToken – owning browser session, nil for user carts.
//  Status       – active | checked_out | merged.
//  Version      – optimistic-concurrency counter bumped on every mutation.
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last update timestamp.
type Cart struct {
	ID           string     // carts.id
	UserID       *uint64    // carts.user_id (nullable)
	SessionToken *string    // carts.session_token (nullable)
	Status       string     // carts.status
	Version      uint32     // carts.version
	CreatedAt    time.Time  // carts.created_at
	UpdatedAt    time.Time  // carts.updated_at
}

// Cart status values.
const (
	CartStatusActive     = "active"
	CartStatusCheckedOut = "checked_out"
	CartStatusMerged     = "merged"
)

// CartItem is a single service draft inside a cart: which service, with
// which provider (optional), when, for how long and at what price.
//
// Fields:
//  ID              – primary key (UUID string).
//  CartID          – owning cart.
//  ServiceType     – service category, e.g. "cleaning" or "plumbing".
//  ProviderID      – chosen provider, nil when the customer left the choice open.
//  ScheduledAt     – requested start of the service, UTC.
//  DurationMinutes – requested duration.
//  Subtotal        – price for this item before platform commission.
//  Comments        – free-text instructions for the provider.
//  CreatedAt       – creation timestamp.
type CartItem struct {
	ID              string          // cart_items.id
	CartID          string          // cart_items.cart_id
	ServiceType     string          // cart_items.service_type
	ProviderID      *uint64         // cart_items.provider_id (nullable)
	ScheduledAt     time.Time       // cart_items.scheduled_at
	DurationMinutes uint32          // cart_items.duration_minutes
	Subtotal        decimal.Decimal // cart_items.subtotal
	Comments        string          // cart_items.comments
	CreatedAt       time.Time       // cart_items.created_at
}
