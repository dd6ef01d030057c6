package handler

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"portal-billing/internal/checkout"
	"portal-billing/internal/dto"
	"portal-billing/internal/middleware"
)

type CheckoutHandler struct {
	manager  *checkout.Manager
	validate *validator.Validate
}

func NewCheckoutHandler(manager *checkout.Manager) *CheckoutHandler {
	return &CheckoutHandler{
		manager:  manager,
		validate: validator.New(),
	}
}

// Start runs the checkout flow for the authenticated session. Unauthenticated
// callers are diverted to the auth step instead of entering the flow.
func (h *CheckoutHandler) Start(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusOK, dto.CheckoutResponse{Redirect: "/auth"})
	}

	var req dto.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.CheckoutResponse{Error: "invalid request body"})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.CheckoutResponse{Error: err.Error()})
	}

	initiator := h.manager.ForSession(userID)
	outcome := initiator.Start(ctx, checkout.SessionRequest{
		PlanID:       req.PlanID,
		UserID:       userID,
		Name:         req.Name,
		Email:        req.Email,
		Amount:       decimal.NewFromFloat(req.Amount),
		Installments: req.Installments,
		PaymentType:  req.PaymentType,
	})

	resp := dto.CheckoutResponse{
		Notice:    outcome.Notice,
		Recovered: outcome.Recovered,
		ID:        outcome.PaymentID,
	}
	switch outcome.State {
	case checkout.StateRedirecting:
		resp.Success = true
		// In-app routes and external gateway links are mutually exclusive.
		if len(outcome.RedirectTo) > 0 && outcome.RedirectTo[0] == '/' {
			resp.Redirect = outcome.RedirectTo
		} else {
			resp.URL = outcome.RedirectTo
		}
	case checkout.StateError:
		resp.Error = outcome.Notice.Title
	}
	return c.JSON(http.StatusOK, resp)
}
