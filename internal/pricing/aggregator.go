// Package pricing implements the price aggregation used before
// checkout.  It is a pure, deterministic transform over service
// drafts: no I/O, no clock, no randomness.  All amounts are
// decimal.Decimal and results are rounded to 2 decimal places only
// where a rounded figure is stored or displayed.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// commissionRate is the platform's cut: 15% of the amount.
var commissionRate = decimal.New(15, -2)

// Commission returns the platform commission for the given amount,
// rounded half-up to 2 decimal places.  Checkout stores this value on
// the payment row; order reads return the stored value, so every part
// of the system that needs the fee goes through this single function.
func Commission(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(commissionRate).Round(2)
}

// ServiceDraft is one in-progress service configuration as assembled
// by the booking flow.  Total is pre-computed upstream and must equal
// BasePrice + AddOnPrice - (the three discount components); Aggregate
// rejects drafts that break this invariant instead of silently
// trusting them.
type ServiceDraft struct {
	ServiceType      string          `json:"service_type"`
	BasePrice        decimal.Decimal `json:"base_price"`
	AddOnPrice       decimal.Decimal `json:"add_on_price"`
	SeasonalDiscount decimal.Decimal `json:"seasonal_discount"`
	LoyaltyDiscount  decimal.Decimal `json:"loyalty_discount"`
	PromoDiscount    decimal.Decimal `json:"promo_discount"`
	Total            decimal.Decimal `json:"total"`
}

// Discounts returns the sum of the draft's three discount components.
func (d ServiceDraft) Discounts() decimal.Decimal {
	return d.SeasonalDiscount.Add(d.LoyaltyDiscount).Add(d.PromoDiscount)
}

// Consistent reports whether the draft's pre-computed Total matches
// BasePrice + AddOnPrice - Discounts.
func (d ServiceDraft) Consistent() bool {
	return d.Total.Equal(d.BasePrice.Add(d.AddOnPrice).Sub(d.Discounts()))
}

// LineItem is the per-service breakdown included in a Summary.
type LineItem struct {
	ServiceType string          `json:"service_type"`
	BasePrice   decimal.Decimal `json:"base_price"`
	AddOns      decimal.Decimal `json:"add_ons"`
	Discounts   decimal.Decimal `json:"discounts"`
	Total       decimal.Decimal `json:"total"`
}

// Summary is the aggregated price view over all drafts.  GrandTotal
// always equals Subtotal + TotalAddOns - TotalDiscounts because every
// draft is checked for internal consistency before being summed.
type Summary struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	TotalAddOns    decimal.Decimal `json:"total_add_ons"`
	TotalDiscounts decimal.Decimal `json:"total_discounts"`
	GrandTotal     decimal.Decimal `json:"grand_total"`
	Commission     decimal.Decimal `json:"commission"`
	Lines          []LineItem      `json:"lines"`
}

// Aggregate combines the drafts into a single Summary.  It returns an
// error naming the first draft whose pre-computed total does not match
// its components; callers should surface that as a client error.
func Aggregate(drafts []ServiceDraft) (Summary, error) {
	sum := Summary{
		Subtotal:       decimal.Zero,
		TotalAddOns:    decimal.Zero,
		TotalDiscounts: decimal.Zero,
		GrandTotal:     decimal.Zero,
		Commission:     decimal.Zero,
		Lines:          make([]LineItem, 0, len(drafts)),
	}
	for i, d := range drafts {
		if !d.Consistent() {
			return Summary{}, fmt.Errorf("draft %d (%s): total %s does not match base %s + add-ons %s - discounts %s",
				i, d.ServiceType, d.Total, d.BasePrice, d.AddOnPrice, d.Discounts())
		}
		sum.Subtotal = sum.Subtotal.Add(d.BasePrice)
		sum.TotalAddOns = sum.TotalAddOns.Add(d.AddOnPrice)
		sum.TotalDiscounts = sum.TotalDiscounts.Add(d.Discounts())
		sum.GrandTotal = sum.GrandTotal.Add(d.Total)
		sum.Lines = append(sum.Lines, LineItem{
			ServiceType: d.ServiceType,
			BasePrice:   d.BasePrice,
			AddOns:      d.AddOnPrice,
			Discounts:   d.Discounts(),
			Total:       d.Total,
		})
	}
	sum.Commission = Commission(sum.GrandTotal)
	return sum, nil
}
