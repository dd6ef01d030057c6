package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"portal-billing/internal/middleware"
	"portal-billing/internal/service"
)

type SubscriptionHandler struct {
	checkoutService service.CheckoutService
}

func NewSubscriptionHandler(checkoutService service.CheckoutService) *SubscriptionHandler {
	return &SubscriptionHandler{
		checkoutService: checkoutService,
	}
}

// Get returns the caller's current subscription for the dashboard.
func (h *SubscriptionHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := middleware.UserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing authenticated user")
	}

	info, err := h.checkoutService.GetSubscription(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "no subscription")
		}
		return err
	}

	return c.JSON(http.StatusOK, info)
}
