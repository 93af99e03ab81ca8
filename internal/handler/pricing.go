package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bookease/bookease/internal/pricing"
)

// PricingHandler exposes the payment aggregator to the SPA so the
// booking flow can show one price summary across several in-progress
// service drafts.  The aggregation is pure: same drafts in, same
// summary out.
type PricingHandler struct{}

// NewPricingHandler constructs a PricingHandler.
func NewPricingHandler() *PricingHandler { return &PricingHandler{} }

type quoteReq struct {
	Drafts []pricing.ServiceDraft `json:"drafts"`
}

type quoteLineResp struct {
	ServiceType string `json:"service_type"`
	BasePrice   string `json:"base_price"`
	AddOns      string `json:"add_ons"`
	Discounts   string `json:"discounts"`
	Total       string `json:"total"`
}

type quoteResp struct {
	Subtotal       string          `json:"subtotal"`
	TotalAddOns    string          `json:"total_add_ons"`
	TotalDiscounts string          `json:"total_discounts"`
	GrandTotal     string          `json:"grand_total"`
	Commission     string          `json:"commission"`
	Lines          []quoteLineResp `json:"lines"`
}

// Quote handles POST /api/pricing/quote.  Drafts whose pre-computed
// total does not match their components are rejected with 400 rather
// than silently summed.
func (h *PricingHandler) Quote(c echo.Context) error {
	var req quoteReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	sum, err := pricing.Aggregate(req.Drafts)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	resp := quoteResp{
		Subtotal:       sum.Subtotal.StringFixed(2),
		TotalAddOns:    sum.TotalAddOns.StringFixed(2),
		TotalDiscounts: sum.TotalDiscounts.StringFixed(2),
		GrandTotal:     sum.GrandTotal.StringFixed(2),
		Commission:     sum.Commission.StringFixed(2),
		Lines:          make([]quoteLineResp, 0, len(sum.Lines)),
	}
	for _, l := range sum.Lines {
		resp.Lines = append(resp.Lines, quoteLineResp{
			ServiceType: l.ServiceType,
			BasePrice:   l.BasePrice.StringFixed(2),
			AddOns:      l.AddOns.StringFixed(2),
			Discounts:   l.Discounts.StringFixed(2),
			Total:       l.Total.StringFixed(2),
		})
	}
	return c.JSON(http.StatusOK, resp)
}
