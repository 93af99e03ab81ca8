package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // Echo web framework used for routing

	"github.com/bookease/bookease/internal/config"
	"github.com/bookease/bookease/internal/handler"
	"github.com/bookease/bookease/internal/middleware"
	"github.com/bookease/bookease/internal/model"
)

// RegisterRoutes registers routes that do not require authentication
// on the provided Echo instance.  Currently it exposes only a health
// check, used by load balancers to verify the service is up.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes and their
// middleware.  Unauthenticated operations live under /api/auth, while
// the protected identity endpoint lives under /api.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/api/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// refresh rotates the refresh token; refresh-access only issues a
	// new access token
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-access", a.RefreshAccess)
	// logout accepts either a bearer token (all sessions) or a
	// refresh_token body (single session), so no JWT middleware here
	g.POST("/logout", a.Logout)

	auth := e.Group("/api")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole(model.RoleCustomer, model.RoleProvider))
	auth.GET("/me", a.Me)
}

// RegisterCart registers the cart and checkout endpoints.  Cart reads
// and item mutations serve both guests (session cookie) and
// authenticated users, so they use the optional JWT middleware;
// checkout requires a real identity.
func RegisterCart(e *echo.Echo, cart *handler.CartHandler, checkout *handler.CheckoutHandler, cfg config.Config) {
	g := e.Group("/api/cart")
	g.Use(middleware.OptionalJWTAuth(cfg.JWTSecret))
	g.GET("", cart.GetCart)
	g.DELETE("", cart.ClearCart)
	g.POST("/items", cart.AddItem)
	g.DELETE("/items/:id", cart.DeleteItem)

	co := e.Group("/api/cart/checkout")
	co.Use(middleware.JWTAuth(cfg.JWTSecret))
	co.POST("", checkout.Checkout)
}

// RegisterOrders registers the order read model and cancellation.
// Every order route requires a valid bearer token; there is no
// anonymous order lookup.
func RegisterOrders(e *echo.Echo, o *handler.OrderHandler, jwtSecret string) {
	g := e.Group("/api/orders")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.GET("", o.ListOrders)
	g.GET("/:id", o.GetOrder)
	g.DELETE("/:id", o.CancelOrder)
}

// RegisterCatalog registers the public service/provider browse
// endpoints plus provider onboarding.  Browse routes are guest-facing
// and get the Redis response cache and rate limiter when a Redis
// client is available; onboarding requires the PROVIDER role.
func RegisterCatalog(e *echo.Echo, cat *handler.CatalogHandler, jwtSecret string, mw ...echo.MiddlewareFunc) {
	g := e.Group("/api")
	g.Use(mw...)
	g.GET("/services", cat.ListServices)
	g.GET("/providers", cat.ListProviders)
	g.GET("/providers/:id", cat.GetProvider)

	onboard := e.Group("/api/providers")
	onboard.Use(middleware.JWTAuth(jwtSecret))
	onboard.Use(middleware.RequireRole(model.RoleProvider))
	onboard.POST("", cat.Onboard)
}

// RegisterPricing registers the public quote endpoint consumed by the
// SPA booking flow.
func RegisterPricing(e *echo.Echo, p *handler.PricingHandler) {
	e.POST("/api/pricing/quote", p.Quote)
}
