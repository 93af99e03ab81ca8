package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/bookease/bookease/internal/model"
	"github.com/bookease/bookease/internal/repository"
)

// CatalogHandler serves the public provider/service catalog customers
// browse before filling a cart, plus provider onboarding.
type CatalogHandler struct {
	Providers *repository.ProviderRepo
}

// NewCatalogHandler constructs a CatalogHandler.  The repository must
// be non-nil.
func NewCatalogHandler(providers *repository.ProviderRepo) *CatalogHandler {
	if providers == nil {
		panic("nil repository passed to NewCatalogHandler")
	}
	return &CatalogHandler{Providers: providers}
}

type providerResp struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	ServiceType string `json:"service_type"`
	HourlyRate  string `json:"hourly_rate"`
	Active      bool   `json:"active"`
}

func toProviderResp(p model.Provider) providerResp {
	return providerResp{
		ID:          p.ID,
		Name:        p.Name,
		ServiceType: p.ServiceType,
		HourlyRate:  p.HourlyRate.StringFixed(2),
		Active:      p.Active,
	}
}

// ListServices handles GET /api/services.
func (h *CatalogHandler) ListServices(c echo.Context) error {
	services, err := h.Providers.ListServices(c.Request().Context())
	if err != nil {
		c.Logger().Errorf("catalog: list services failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load services"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": services})
}

// ListProviders handles GET /api/providers.  The optional ?service=
// query parameter filters by service type.
func (h *CatalogHandler) ListProviders(c echo.Context) error {
	service := strings.TrimSpace(c.QueryParam("service"))
	providers, err := h.Providers.ListActive(c.Request().Context(), service)
	if err != nil {
		c.Logger().Errorf("catalog: list providers failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load providers"})
	}
	items := make([]providerResp, 0, len(providers))
	for _, p := range providers {
		items = append(items, toProviderResp(p))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetProvider handles GET /api/providers/:id.
func (h *CatalogHandler) GetProvider(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid provider id"})
	}
	p, err := h.Providers.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "provider not found"})
		}
		c.Logger().Errorf("catalog: fetch provider failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch provider"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": toProviderResp(*p)})
}

type onboardReq struct {
	Name        string `json:"name"`
	ServiceType string `json:"service_type"`
	HourlyRate  string `json:"hourly_rate"` // decimal as string
}

// Onboard handles POST /api/providers.  The caller must hold the
// PROVIDER role; one catalog profile per account.
func (h *CatalogHandler) Onboard(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req onboardReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.ServiceType = strings.TrimSpace(req.ServiceType)
	if req.Name == "" || req.ServiceType == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and service_type are required"})
	}
	rate, err := parseMoney(req.HourlyRate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid hourly_rate"})
	}
	id, err := h.Providers.Create(c.Request().Context(), userID, req.Name, req.ServiceType, rate)
	if err != nil {
		if errors.Is(err, repository.ErrProviderExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "provider profile already exists"})
		}
		c.Logger().Errorf("catalog: onboard failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create provider"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}
