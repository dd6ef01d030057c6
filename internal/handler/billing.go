package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"portal-billing/internal/dto"
	"portal-billing/internal/middleware"
	"portal-billing/internal/service"
)

// BillingHandler proxies the legacy Stripe billing integration. Unlike the
// Asaas proxy every error kind carries its own HTTP status.
type BillingHandler struct {
	billingService service.BillingService
}

func NewBillingHandler(billingService service.BillingService) *BillingHandler {
	return &BillingHandler{
		billingService: billingService,
	}
}

func (h *BillingHandler) Dispatch(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, dto.ProxyResponse{Error: "missing authenticated user"})
	}
	email, _ := middleware.UserEmail(c)

	var req dto.ProxyRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ProxyResponse{Error: "invalid request body"})
	}

	var (
		data interface{}
		err  error
	)
	switch req.Action {
	case "create-checkout-session":
		var d service.CreateCheckoutSessionData
		decodeData(req.Data, &d)
		data, err = h.billingService.CreateCheckoutSession(ctx, userID, email, d)

	case "get-subscription":
		data, err = h.billingService.GetSubscription(ctx, userID)

	case "cancel-subscription":
		err = h.billingService.CancelSubscription(ctx, userID)

	case "get-invoices":
		data, err = h.billingService.GetInvoices(ctx, userID)

	case "get-invoice":
		var d struct {
			InvoiceID string `json:"invoiceId"`
		}
		decodeData(req.Data, &d)
		data, err = h.billingService.GetInvoice(ctx, userID, d.InvoiceID)

	case "update-contract-acceptance":
		err = h.billingService.UpdateContractAcceptance(ctx, userID)

	case "request-receipt":
		var d struct {
			InvoiceID string `json:"invoiceId"`
		}
		decodeData(req.Data, &d)
		var receiptURL string
		receiptURL, err = h.billingService.RequestReceipt(ctx, userID, d.InvoiceID)
		data = map[string]string{"receiptUrl": receiptURL}

	default:
		return c.JSON(http.StatusBadRequest, dto.ProxyResponse{Error: "Unknown action: " + req.Action})
	}

	if err != nil {
		return c.JSON(statusFor(err), dto.ProxyResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, dto.ProxyResponse{Success: true, Data: data})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
