package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/storefront/storefront-api/internal/api/middleware"
	"github.com/storefront/storefront-api/internal/core/policy"
)

// ctxPrincipal returns the principal and ability attached by the gate. A
// missing principal means the route was registered without a requirement.
func ctxPrincipal(c echo.Context) (middleware.Principal, policy.Ability, error) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok || p.ID == "" {
		return middleware.Principal{}, policy.Ability{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	ability, _ := middleware.AbilityFrom(c)
	return p, ability, nil
}

// bindValid binds the request body into req and validates it.
func bindValid(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	return c.Validate(req)
}
