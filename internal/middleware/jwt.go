package middleware // middleware contains reusable HTTP middleware functions

import (
	"log"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5" // JWT library for parsing and validating tokens
	"github.com/labstack/echo/v4"  // Echo framework used for defining middleware and handlers
)

// parseBearer validates a Bearer access token from the Authorization
// header and returns its claims.  The second return value reports
// whether a syntactically present token was supplied at all, so
// callers can distinguish "no credential" from "bad credential".
func parseBearer(c echo.Context, secret string) (jwt.MapClaims, bool, error) {
	auth := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return nil, false, echo.ErrUnauthorized
	}
	raw := strings.TrimPrefix(auth, "Bearer ")

	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, echo.ErrUnauthorized
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return nil, true, echo.ErrUnauthorized
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, true, echo.ErrUnauthorized
	}
	return claims, true, nil
}

// JWTAuth returns an Echo middleware that validates a Bearer access
// token and injects the token's subject and role claims into the
// request context.  The provided secret must match the one used when
// issuing tokens.  Protected handlers read the authenticated identity
// via c.Get("user_id") and c.Get("role").
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, present, err := parseBearer(c, secret)
			if err != nil {
				if !present {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
				}
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			c.Set("user_id", claims["sub"])
			c.Set("role", claims["role"])
			return next(c)
		}
	}
}

// OptionalJWTAuth is JWTAuth for routes that also serve guests, such
// as the cart read path.  A valid token injects the identity; a
// missing token leaves the request anonymous.  An invalid token is
// also treated as anonymous so a stale SPA session degrades to the
// cookie cart instead of failing, but it is logged rather than
// swallowed so a misconfigured secret remains visible.
func OptionalJWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, present, err := parseBearer(c, secret)
			if err != nil {
				if present {
					log.Printf("auth: ignoring invalid bearer token on %s %s", c.Request().Method, c.Path())
				}
				return next(c)
			}
			c.Set("user_id", claims["sub"])
			c.Set("role", claims["role"])
			return next(c)
		}
	}
}
