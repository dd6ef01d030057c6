package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"portal-billing/internal/model"
	"portal-billing/internal/service"
)

type WebhookHandler struct {
	webhookService service.WebhookService
	webhookToken   string
	log            *zap.Logger
}

func NewWebhookHandler(webhookService service.WebhookService, webhookToken string, log *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		webhookService: webhookService,
		webhookToken:   webhookToken,
		log:            log,
	}
}

// AsaasWebhook receives gateway payment events. Asaas authenticates webhooks
// with a shared token header.
func (h *WebhookHandler) AsaasWebhook(c echo.Context) error {
	ctx := c.Request().Context()

	if h.webhookToken != "" && c.Request().Header.Get("asaas-access-token") != h.webhookToken {
		return c.NoContent(http.StatusUnauthorized)
	}

	var event model.AsaasWebhookEvent
	if err := c.Bind(&event); err != nil {
		return c.NoContent(http.StatusBadRequest)
	}

	if err := h.webhookService.HandleAsaasEvent(ctx, &event); err != nil {
		h.log.Error("handle asaas webhook", zap.Error(err))
		// Non-2xx makes Asaas retry the delivery later.
		return c.NoContent(http.StatusInternalServerError)
	}

	return c.NoContent(http.StatusOK)
}
