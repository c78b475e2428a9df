package handler

import (
	"io"
	"net/http"
	"tafaseel/internal/dto"
	"tafaseel/internal/service"

	"github.com/labstack/echo/v4"
)

const signatureHeader = "X-Salla-Signature"

type WebhookHandler struct {
	webhookService  service.WebhookService
	settingsService service.SettingsService
}

func NewWebhookHandler(webhookService service.WebhookService, settingsService service.SettingsService) *WebhookHandler {
	return &WebhookHandler{
		webhookService:  webhookService,
		settingsService: settingsService,
	}
}

func (h *WebhookHandler) Receive(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return err
	}

	requestID := c.Response().Header().Get(echo.HeaderXRequestID)
	if err := h.webhookService.VerifySignature(body, c.Request().Header.Get(signatureHeader)); err != nil {
		h.webhookService.Reject(ctx, requestID, body, err)
		return err
	}

	response, status := h.webhookService.Process(ctx, requestID, body)
	return c.JSON(status, response)
}

// ValidateSettings answers Salla's settings validation call before the
// merchant's app settings are saved.
func (h *WebhookHandler) ValidateSettings(c echo.Context) error {
	var req dto.SettingsValidationRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	settings := req.Data
	if nested, ok := req.Data["settings"].(map[string]any); ok {
		settings = nested
	}

	fields := h.settingsService.Validate(settings)
	if len(fields) > 0 {
		return c.JSON(http.StatusUnprocessableEntity, map[string]any{
			"status": "error",
			"fields": fields,
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "success",
	})
}
