package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func postQuote(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/pricing/quote", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := NewPricingHandler()
	require.NoError(t, h.Quote(c))
	return rec
}

func TestQuote_SingleDraft(t *testing.T) {
	body := `{"drafts":[{
		"service_type":"plumbing",
		"base_price":"180.00",
		"add_on_price":"40.00",
		"seasonal_discount":"10.00",
		"loyalty_discount":"5.00",
		"promo_discount":"5.00",
		"total":"200.00"
	}]}`
	rec := postQuote(t, body)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Subtotal       string `json:"subtotal"`
		TotalAddOns    string `json:"total_add_ons"`
		TotalDiscounts string `json:"total_discounts"`
		GrandTotal     string `json:"grand_total"`
		Commission     string `json:"commission"`
		Lines          []struct {
			ServiceType string `json:"service_type"`
			Total       string `json:"total"`
		} `json:"lines"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "180.00", resp.Subtotal)
	require.Equal(t, "40.00", resp.TotalAddOns)
	require.Equal(t, "20.00", resp.TotalDiscounts)
	require.Equal(t, "200.00", resp.GrandTotal)
	require.Equal(t, "30.00", resp.Commission)
	require.Len(t, resp.Lines, 1)
	require.Equal(t, "plumbing", resp.Lines[0].ServiceType)
	require.Equal(t, "200.00", resp.Lines[0].Total)
}

func TestQuote_InconsistentDraftRejected(t *testing.T) {
	body := `{"drafts":[{
		"service_type":"cleaning",
		"base_price":"100.00",
		"add_on_price":"0",
		"seasonal_discount":"0",
		"loyalty_discount":"0",
		"promo_discount":"0",
		"total":"90.00"
	}]}`
	rec := postQuote(t, body)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Contains(t, resp["error"], "cleaning")
}

func TestQuote_EmptyDraftsYieldZeroSummary(t *testing.T) {
	rec := postQuote(t, `{"drafts":[]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "0.00", resp["grand_total"])
	require.Equal(t, "0.00", resp["commission"])
}

func TestQuote_MalformedBody(t *testing.T) {
	rec := postQuote(t, `{"drafts":`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
