package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment is the money side of a booking, written in the same
// transaction as the booking itself.  The platform commission is
// computed exactly once at checkout and stored here; read paths must
// return the stored value instead of re-deriving it.  There is no
// payment-gateway integration, so Status is always COMPLETED.
//
// Fields:
//  ID                 – primary key (UUID string).
//  BookingID          – booking this payment settles (one-to-one).
//  Amount             – total charged to the customer (subtotal + commission).
//  PlatformCommission – 15% of the booking subtotal, rounded to 2 decimals.
//  ProviderPayout     – amount owed to the provider (the subtotal).
//  Method             – payment method chosen at checkout, e.g. "card".
//  Status             – always COMPLETED.
//  TransactionID      – opaque reference (UUID string).
//  CreatedAt          – creation timestamp.
type Payment struct {
	ID                 string          // payments.id
	BookingID          string          // payments.booking_id
	Amount             decimal.Decimal // payments.amount
	PlatformCommission decimal.Decimal // payments.platform_commission
	ProviderPayout     decimal.Decimal // payments.provider_payout
	Method             string          // payments.method
	Status             string          // payments.status
	TransactionID      string          // payments.transaction_id
	CreatedAt          time.Time       // payments.created_at
}

// PaymentStatusCompleted is the only payment status the platform
// currently produces.
const PaymentStatusCompleted = "COMPLETED"
