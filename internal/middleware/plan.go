package middleware

import (
	"tafaseel/internal/apperr"
	"tafaseel/internal/service"

	"github.com/labstack/echo/v4"
)

// PlanLimits rejects the request once the user's plan has no prompts left.
// It must run after Authenticate.
func PlanLimits(planService service.PlanService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := CurrentUser(c)
			if user == nil {
				return apperr.Unauthenticated("Authentication credentials were not provided.")
			}

			if err := planService.CheckLimit(c.Request().Context(), user); err != nil {
				return err
			}
			return next(c)
		}
	}
}
