package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/bookease/bookease/internal/model"
	"github.com/bookease/bookease/internal/pricing"
	"github.com/bookease/bookease/internal/queue"
	"github.com/bookease/bookease/internal/repository"
	queue_publisher "github.com/bookease/bookease/internal/service"
)

// IdempotencyHeader carries the client-supplied key that makes a
// retried checkout safe.
const IdempotencyHeader = "Idempotency-Key"

// CheckoutHandler converts the caller's cart into bookings and
// payments.  Everything happens inside a single database transaction:
// one booking and one payment per cart item, the idempotency record,
// the cart status flip and the item deletion all commit together or
// not at all, so a cart with N items yields exactly N confirmations
// or none.
type CheckoutHandler struct {
	Carts     *repository.CartRepo
	Bookings  *repository.BookingRepo
	Payments  *repository.PaymentRepo
	Checkouts *repository.CheckoutRepo
}

// NewCheckoutHandler constructs a CheckoutHandler with the provided
// repositories.  All dependencies must be non-nil.
func NewCheckoutHandler(carts *repository.CartRepo, bookings *repository.BookingRepo, payments *repository.PaymentRepo, checkouts *repository.CheckoutRepo) *CheckoutHandler {
	if carts == nil || bookings == nil || payments == nil || checkouts == nil {
		panic("nil repository passed to NewCheckoutHandler")
	}
	return &CheckoutHandler{Carts: carts, Bookings: bookings, Payments: payments, Checkouts: checkouts}
}

type checkoutReq struct {
	PaymentMethod string `json:"payment_method"`
}

type checkoutConfirmation struct {
	BookingID   string `json:"booking_id"`
	PaymentID   string `json:"payment_id"`
	ServiceType string `json:"service_type"`
	Subtotal    string `json:"subtotal"`
	PlatformFee string `json:"platform_fee"`
	Total       string `json:"total"`
}

type checkoutResp struct {
	CartID        string                 `json:"cart_id"`
	Confirmations []checkoutConfirmation `json:"confirmations"`
}

// Checkout handles POST /api/cart/checkout.  The caller must be
// authenticated and own an active cart with at least one item.  The
// platform commission (15% of each item subtotal) is computed here,
// once, and stored on the payment row; order reads return the stored
// value.  When the request carries an Idempotency-Key header, a retry
// with the same key replays the original confirmations with 200
// instead of booking again.
func (h *CheckoutHandler) Checkout(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req checkoutReq
	_ = c.Bind(&req) // an empty body means the default method
	method := strings.TrimSpace(req.PaymentMethod)
	if method == "" {
		method = "card"
	}
	key := strings.TrimSpace(c.Request().Header.Get(IdempotencyHeader))

	ctx := c.Request().Context()
	if key != "" {
		raw, ferr := h.Checkouts.FindByKey(ctx, userID, key)
		if ferr == nil {
			return c.JSONBlob(http.StatusOK, raw)
		}
		if !errors.Is(ferr, sql.ErrNoRows) {
			c.Logger().Errorf("checkout: idempotency lookup failed: %v", ferr)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "checkout failed"})
		}
	}

	tx, err := h.Carts.DB().BeginTx(ctx, nil)
	if err != nil {
		c.Logger().Errorf("checkout: begin tx failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "checkout failed"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// locking the cart row makes this request the single writer for
	// the cart until commit
	cart, err := h.Carts.LockActiveByUserTx(ctx, tx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "cart is empty"})
		}
		c.Logger().Errorf("checkout: lock cart failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "checkout failed"})
	}
	items, err := h.Carts.ListItemsTx(ctx, tx, cart.ID)
	if err != nil {
		c.Logger().Errorf("checkout: load items failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "checkout failed"})
	}
	if len(items) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cart is empty"})
	}

	now := time.Now().UTC()
	resp := checkoutResp{CartID: cart.ID, Confirmations: make([]checkoutConfirmation, 0, len(items))}
	eventLines := make([]queue.OrderLine, 0, len(items))
	for _, it := range items {
		booking := model.Booking{
			ID:              uuid.NewString(),
			UserID:          userID,
			ProviderID:      it.ProviderID,
			ServiceType:     it.ServiceType,
			ScheduledAt:     it.ScheduledAt,
			DurationMinutes: it.DurationMinutes,
			Status:          model.BookingStatusConfirmed,
			TotalAmount:     it.Subtotal,
		}
		if err := h.Bookings.CreateTx(ctx, tx, &booking); err != nil {
			c.Logger().Errorf("checkout: create booking failed: %v", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "checkout failed"})
		}
		fee := pricing.Commission(it.Subtotal)
		payment := model.Payment{
			ID:                 uuid.NewString(),
			BookingID:          booking.ID,
			Amount:             it.Subtotal.Add(fee),
			PlatformCommission: fee,
			ProviderPayout:     it.Subtotal,
			Method:             method,
			Status:             model.PaymentStatusCompleted,
			TransactionID:      uuid.NewString(),
		}
		if err := h.Payments.CreateTx(ctx, tx, &payment); err != nil {
			c.Logger().Errorf("checkout: create payment failed: %v", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "checkout failed"})
		}
		resp.Confirmations = append(resp.Confirmations, checkoutConfirmation{
			BookingID:   booking.ID,
			PaymentID:   payment.ID,
			ServiceType: it.ServiceType,
			Subtotal:    it.Subtotal.StringFixed(2),
			PlatformFee: fee.StringFixed(2),
			Total:       payment.Amount.StringFixed(2),
		})
		eventLines = append(eventLines, queue.OrderLine{
			BookingID:   booking.ID,
			ServiceType: it.ServiceType,
			ScheduledAt: it.ScheduledAt.UTC().Format(time.RFC3339),
			Total:       payment.Amount.StringFixed(2),
		})
	}

	if key != "" {
		raw, merr := json.Marshal(resp)
		if merr != nil {
			c.Logger().Errorf("checkout: marshal response failed: %v", merr)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "checkout failed"})
		}
		if err := h.Checkouts.InsertTx(ctx, tx, userID, key, cart.ID, raw); err != nil {
			// a concurrent request with the same key won the race
			return c.JSON(http.StatusConflict, echo.Map{"error": "checkout already in progress"})
		}
	}
	if err := h.Carts.MarkCheckedOutTx(ctx, tx, cart.ID, cart.Version); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "cart was modified concurrently"})
		}
		c.Logger().Errorf("checkout: mark checked out failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "checkout failed"})
	}
	if err := h.Carts.ClearItemsTx(ctx, tx, cart.ID); err != nil {
		c.Logger().Errorf("checkout: clear items failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "checkout failed"})
	}
	if err := tx.Commit(); err != nil {
		c.Logger().Errorf("checkout: commit failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "checkout failed"})
	}
	committed = true

	// notification fan-out is best effort; the checkout already
	// committed, so a broker outage must not fail the request
	if err := queue_publisher.PublishOrderPlaced(ctx, queue.OrderPlacedEvent{
		UserID:   userID,
		CartID:   cart.ID,
		Lines:    eventLines,
		PlacedAt: now.Format(time.RFC3339),
	}); err != nil {
		c.Logger().Errorf("checkout: publish order event failed (user=%d cart=%s): %v", userID, cart.ID, err)
	}

	return c.JSON(http.StatusCreated, resp)
}
