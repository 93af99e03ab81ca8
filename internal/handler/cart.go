package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/bookease/bookease/internal/config"
	"github.com/bookease/bookease/internal/model"
	"github.com/bookease/bookease/internal/repository"
)

// CartHandler serves the cart endpoints.  A cart belongs to the
// authenticated user when a valid bearer token is present, otherwise
// to the anonymous session cookie.  The precedence rule is explicit:
// an authenticated identity always wins, and a session cart left over
// from before login is merged into the user cart on the next read.
type CartHandler struct {
	Cfg   config.Config
	Carts *repository.CartRepo
}

// NewCartHandler constructs a CartHandler.  The repository must be non-nil.
func NewCartHandler(cfg config.Config, carts *repository.CartRepo) *CartHandler {
	if carts == nil {
		panic("nil repository passed to NewCartHandler")
	}
	return &CartHandler{Cfg: cfg, Carts: carts}
}

// sessionToken reads the cart session cookie.  A missing or malformed
// cookie is treated as absent; the cart flow never fails on a bad
// cookie, it just issues a fresh session.
func (h *CartHandler) sessionToken(c echo.Context) string {
	ck, err := c.Cookie(h.Cfg.SessionCookie)
	if err != nil || ck.Value == "" {
		return ""
	}
	if _, err := uuid.Parse(ck.Value); err != nil {
		return ""
	}
	return ck.Value
}

func (h *CartHandler) setSessionCookie(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     h.Cfg.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int((30 * 24 * time.Hour).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// resolveCart finds or lazily creates the caller's active cart.
// Authenticated callers get their user cart (created on demand), with
// any live session-cookie cart merged in first.  Anonymous callers
// get the session cart, minting a session token and cookie when none
// exists yet.
func (h *CartHandler) resolveCart(c echo.Context) (*model.Cart, error) {
	ctx := c.Request().Context()
	token := h.sessionToken(c)

	if userID, err := getUserID(c); err == nil {
		cart, err := h.Carts.GetActiveByUser(ctx, userID)
		if errors.Is(err, sql.ErrNoRows) {
			cart, err = h.Carts.CreateForUser(ctx, userID)
		}
		if err != nil {
			return nil, err
		}
		if token != "" {
			sess, serr := h.Carts.GetActiveBySession(ctx, token)
			switch {
			case serr == nil && sess.ID != cart.ID:
				if merr := h.Carts.MergeSessionIntoUser(ctx, sess.ID, cart.ID); merr != nil {
					return nil, merr
				}
			case serr != nil && !errors.Is(serr, sql.ErrNoRows):
				// the merge is opportunistic, but a real DB failure
				// must not masquerade as "no session cart"
				c.Logger().Errorf("cart: session cart lookup failed: %v", serr)
			}
		}
		return cart, nil
	}

	if token != "" {
		cart, err := h.Carts.GetActiveBySession(ctx, token)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
	} else {
		token = uuid.NewString()
	}
	cart, err := h.Carts.CreateForSession(ctx, token)
	if err != nil {
		return nil, err
	}
	h.setSessionCookie(c, token)
	return cart, nil
}

// ----- DTOs -----

type cartItemReq struct {
	ServiceType     string  `json:"service_type"`
	ProviderID      *uint64 `json:"provider_id"`
	ScheduledAt     string  `json:"scheduled_at"` // RFC3339
	DurationMinutes uint32  `json:"duration_minutes"`
	Subtotal        string  `json:"subtotal"` // decimal as string, e.g. "200.00"
	Comments        string  `json:"comments"`
}

type cartItemResp struct {
	ID              string  `json:"id"`
	ServiceType     string  `json:"service_type"`
	ProviderID      *uint64 `json:"provider_id,omitempty"`
	ScheduledAt     string  `json:"scheduled_at"`
	DurationMinutes uint32  `json:"duration_minutes"`
	Subtotal        string  `json:"subtotal"`
	Comments        string  `json:"comments,omitempty"`
}

type cartResp struct {
	ID     string         `json:"id"`
	Status string         `json:"status"`
	Items  []cartItemResp `json:"items"`
}

func toCartItemResp(it model.CartItem) cartItemResp {
	return cartItemResp{
		ID:              it.ID,
		ServiceType:     it.ServiceType,
		ProviderID:      it.ProviderID,
		ScheduledAt:     it.ScheduledAt.UTC().Format(time.RFC3339),
		DurationMinutes: it.DurationMinutes,
		Subtotal:        it.Subtotal.StringFixed(2),
		Comments:        it.Comments,
	}
}

// GetCart handles GET /api/cart.  Repeated reads with no mutation in
// between return the same cart id and item set.
func (h *CartHandler) GetCart(c echo.Context) error {
	cart, err := h.resolveCart(c)
	if err != nil {
		c.Logger().Errorf("cart: resolve failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load cart"})
	}
	items, err := h.Carts.ListItems(c.Request().Context(), cart.ID)
	if err != nil {
		c.Logger().Errorf("cart: list items failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load cart"})
	}
	resp := cartResp{ID: cart.ID, Status: cart.Status, Items: make([]cartItemResp, 0, len(items))}
	for _, it := range items {
		resp.Items = append(resp.Items, toCartItemResp(it))
	}
	return c.JSON(http.StatusOK, resp)
}

// AddItem handles POST /api/cart/items.
func (h *CartHandler) AddItem(c echo.Context) error {
	var req cartItemReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.ServiceType == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "service_type is required"})
	}
	scheduledAt, err := time.Parse(time.RFC3339, req.ScheduledAt)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "scheduled_at must be RFC3339"})
	}
	if req.DurationMinutes == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "duration_minutes must be positive"})
	}
	subtotal, err := parseMoney(req.Subtotal)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid subtotal"})
	}

	cart, err := h.resolveCart(c)
	if err != nil {
		c.Logger().Errorf("cart: resolve failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load cart"})
	}
	item := model.CartItem{
		CartID:          cart.ID,
		ServiceType:     req.ServiceType,
		ProviderID:      req.ProviderID,
		ScheduledAt:     scheduledAt,
		DurationMinutes: req.DurationMinutes,
		Subtotal:        subtotal,
		Comments:        req.Comments,
	}
	if err := h.Carts.AddItem(c.Request().Context(), &item); err != nil {
		c.Logger().Errorf("cart: add item failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to add item"})
	}
	return c.JSON(http.StatusCreated, toCartItemResp(item))
}

// DeleteItem handles DELETE /api/cart/items/:id.  Only items in the
// caller's own cart can be removed; unknown ids return 404.
func (h *CartHandler) DeleteItem(c echo.Context) error {
	itemID := c.Param("id")
	if itemID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "item id is required"})
	}
	cart, err := h.resolveCart(c)
	if err != nil {
		c.Logger().Errorf("cart: resolve failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load cart"})
	}
	deleted, err := h.Carts.DeleteItem(c.Request().Context(), cart.ID, itemID)
	if err != nil {
		c.Logger().Errorf("cart: delete item failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete item"})
	}
	if !deleted {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "item not found"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ClearCart handles DELETE /api/cart.  Clearing an already-empty cart
// succeeds trivially; the cart row itself persists.
func (h *CartHandler) ClearCart(c echo.Context) error {
	cart, err := h.resolveCart(c)
	if err != nil {
		c.Logger().Errorf("cart: resolve failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load cart"})
	}
	if err := h.Carts.ClearItems(c.Request().Context(), cart.ID); err != nil {
		c.Logger().Errorf("cart: clear failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to clear cart"})
	}
	return c.JSON(http.StatusOK, echo.Map{"cleared": true, "cart_id": cart.ID})
}
