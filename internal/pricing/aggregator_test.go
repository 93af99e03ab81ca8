package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func draft(service, base, addOns, seasonal, loyalty, promo string) ServiceDraft {
	d := ServiceDraft{
		ServiceType:      service,
		BasePrice:        dec(base),
		AddOnPrice:       dec(addOns),
		SeasonalDiscount: dec(seasonal),
		LoyaltyDiscount:  dec(loyalty),
		PromoDiscount:    dec(promo),
	}
	d.Total = d.BasePrice.Add(d.AddOnPrice).Sub(d.Discounts())
	return d
}

func TestCommission(t *testing.T) {
	require.True(t, dec("30.00").Equal(Commission(dec("200.00"))))
	require.True(t, dec("0.15").Equal(Commission(dec("1.00"))))
	// half-up rounding at the third decimal
	require.True(t, dec("0.02").Equal(Commission(dec("0.10"))))
	require.True(t, decimal.Zero.Equal(Commission(decimal.Zero)))
}

func TestAggregate_SingleDraft(t *testing.T) {
	sum, err := Aggregate([]ServiceDraft{
		draft("cleaning", "200.00", "0", "0", "0", "0"),
	})
	require.NoError(t, err)
	require.True(t, dec("200.00").Equal(sum.Subtotal))
	require.True(t, dec("200.00").Equal(sum.GrandTotal))
	require.True(t, dec("30.00").Equal(sum.Commission))
	require.Len(t, sum.Lines, 1)
}

func TestAggregate_CombinesComponents(t *testing.T) {
	drafts := []ServiceDraft{
		draft("cleaning", "120.00", "35.50", "10.00", "5.00", "0"),
		draft("gardening", "80.00", "0", "0", "0", "8.00"),
		draft("plumbing", "150.25", "20.00", "0", "12.25", "0"),
	}
	sum, err := Aggregate(drafts)
	require.NoError(t, err)

	require.True(t, dec("350.25").Equal(sum.Subtotal))
	require.True(t, dec("55.50").Equal(sum.TotalAddOns))
	require.True(t, dec("35.25").Equal(sum.TotalDiscounts))
	// grand total must equal subtotal + add-ons - discounts
	require.True(t, sum.GrandTotal.Equal(sum.Subtotal.Add(sum.TotalAddOns).Sub(sum.TotalDiscounts)))
	require.True(t, Commission(sum.GrandTotal).Equal(sum.Commission))
	require.Len(t, sum.Lines, 3)
	require.Equal(t, "gardening", sum.Lines[1].ServiceType)
	require.True(t, dec("72.00").Equal(sum.Lines[1].Total))
}

func TestAggregate_Deterministic(t *testing.T) {
	drafts := []ServiceDraft{
		draft("cleaning", "99.99", "10.01", "5.00", "0", "0"),
		draft("electrical", "240.00", "0", "0", "24.00", "0"),
	}
	first, err := Aggregate(drafts)
	require.NoError(t, err)
	second, err := Aggregate(drafts)
	require.NoError(t, err)
	require.True(t, first.GrandTotal.Equal(second.GrandTotal))
	require.True(t, first.Commission.Equal(second.Commission))
	require.Equal(t, len(first.Lines), len(second.Lines))
}

func TestAggregate_RejectsInconsistentDraft(t *testing.T) {
	bad := draft("cleaning", "100.00", "0", "0", "0", "0")
	bad.Total = dec("90.00") // tampered upstream total

	_, err := Aggregate([]ServiceDraft{bad})
	require.Error(t, err)
	require.Contains(t, err.Error(), "draft 0")
}

func TestAggregate_Empty(t *testing.T) {
	sum, err := Aggregate(nil)
	require.NoError(t, err)
	require.True(t, sum.GrandTotal.IsZero())
	require.True(t, sum.Commission.IsZero())
	require.Empty(t, sum.Lines)
}
