package handler

import (
	"net/http"
	"tafaseel/internal/auth"
	"tafaseel/internal/dto"
	"tafaseel/internal/service"

	"github.com/labstack/echo/v4"
)

type AuthHandler struct {
	authService service.AuthService
	cookies     *auth.CookieManager
}

func NewAuthHandler(authService service.AuthService, cookies *auth.CookieManager) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cookies:     cookies,
	}
}

func (h *AuthHandler) Install(c echo.Context) error {
	return c.Redirect(http.StatusFound, h.authService.InstallationURL())
}

// Callback finishes the OAuth install and logs the merchant in.
func (h *AuthHandler) Callback(c echo.Context) error {
	ctx := c.Request().Context()

	account, err := h.authService.HandleCallback(ctx, c.QueryParam("code"))
	if err != nil {
		return err
	}

	if err := h.cookies.SetToken(c.Response(), account.PublicToken); err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, "/")
}

func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.LoginRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	account, err := h.authService.Login(ctx, req.Email, req.Password)
	if err != nil {
		return err
	}

	if err := h.cookies.SetToken(c.Response(), account.PublicToken); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{
		"token": account.PublicToken,
	})
}

func (h *AuthHandler) Logout(c echo.Context) error {
	h.cookies.Clear(c.Response())
	return c.Redirect(http.StatusFound, "/")
}
