package middleware

import (
	"net/http"
	"tafaseel/internal/apperr"
	"tafaseel/internal/auth"
	"tafaseel/internal/model"
	"tafaseel/internal/service"

	"github.com/labstack/echo/v4"
)

const (
	userKey    = "user"
	accountKey = "account"
)

// Authenticate resolves the public token from the auth cookie or the
// Authorization header into the user and account. API routes answer 401;
// page routes clear the cookie and redirect to the home page.
func Authenticate(cookies *auth.CookieManager, authService service.AuthService, redirect bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			token, err := cookies.Token(c.Request())
			if err != nil {
				return reject(c, cookies, redirect, apperr.Unauthenticated("Authentication credentials were not provided."))
			}

			user, account, err := authService.Authenticate(ctx, token)
			if err != nil {
				return reject(c, cookies, redirect, err)
			}

			c.Set(userKey, user)
			c.Set(accountKey, account)
			return next(c)
		}
	}
}

func reject(c echo.Context, cookies *auth.CookieManager, redirect bool, err error) error {
	if !redirect {
		return err
	}
	cookies.Clear(c.Response())
	return c.Redirect(http.StatusFound, "/")
}

func CurrentUser(c echo.Context) *model.SallaUser {
	user, _ := c.Get(userKey).(*model.SallaUser)
	return user
}

func CurrentAccount(c echo.Context) *model.Account {
	account, _ := c.Get(accountKey).(*model.Account)
	return account
}
