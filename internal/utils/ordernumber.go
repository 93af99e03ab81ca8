package utils

import (
	"fmt"
	"strings"
	"time"
)

// OrderNumber derives the customer-facing order number from a booking
// id and its creation time: "BE-<year>-<last 6 chars of id>", with the
// id tail upper-cased.  The derivation is pure, so the list and
// single-order read paths always agree for the same booking.
func OrderNumber(bookingID string, createdAt time.Time) string {
	tail := bookingID
	if len(tail) > 6 {
		tail = tail[len(tail)-6:]
	}
	return fmt.Sprintf("BE-%d-%s", createdAt.UTC().Year(), strings.ToUpper(tail))
}
