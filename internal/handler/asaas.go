package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"portal-billing/internal/client"
	"portal-billing/internal/dto"
)

// AsaasHandler is the generic gateway proxy: parse {action, data}, dispatch,
// and answer {success, data} or {success:false, error}. Upstream failures
// surface as structured errors, never as a bare 500.
type AsaasHandler struct {
	asaasClient client.AsaasClient
}

func NewAsaasHandler(asaasClient client.AsaasClient) *AsaasHandler {
	return &AsaasHandler{
		asaasClient: asaasClient,
	}
}

func (h *AsaasHandler) Dispatch(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.ProxyRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ProxyResponse{Error: "invalid request body"})
	}

	data, err := h.dispatch(ctx, req.Action, req.Data)
	if err != nil {
		return c.JSON(http.StatusOK, dto.ProxyResponse{Error: err.Error()})
	}

	return c.JSON(http.StatusOK, dto.ProxyResponse{Success: true, Data: data})
}

func (h *AsaasHandler) dispatch(ctx context.Context, action string, raw json.RawMessage) (interface{}, error) {
	switch action {
	case "get-customers":
		var d struct {
			Email             string `json:"email"`
			ExternalReference string `json:"externalReference"`
		}
		decodeData(raw, &d)
		query := url.Values{}
		if d.Email != "" {
			query.Set("email", d.Email)
		}
		if d.ExternalReference != "" {
			query.Set("externalReference", d.ExternalReference)
		}
		return h.asaasClient.GetCustomers(ctx, query)

	case "get-customer":
		var d struct {
			ID string `json:"id"`
		}
		decodeData(raw, &d)
		return h.asaasClient.GetCustomer(ctx, d.ID)

	case "create-customer":
		payload := map[string]interface{}{}
		decodeData(raw, &payload)
		return h.asaasClient.CreateCustomer(ctx, payload)

	case "update-customer":
		var d struct {
			ID string `json:"id"`
		}
		decodeData(raw, &d)
		payload := map[string]interface{}{}
		decodeData(raw, &payload)
		delete(payload, "id")
		return h.asaasClient.UpdateCustomer(ctx, d.ID, payload)

	case "delete-customer":
		var d struct {
			ID string `json:"id"`
		}
		decodeData(raw, &d)
		return nil, h.asaasClient.DeleteCustomer(ctx, d.ID)

	case "check-existing-payments":
		var d struct {
			CustomerID string `json:"customerId"`
		}
		decodeData(raw, &d)
		return h.asaasClient.PendingPayments(ctx, d.CustomerID)

	case "create-payment":
		payload := map[string]interface{}{}
		decodeData(raw, &payload)
		return h.asaasClient.CreatePayment(ctx, payload)

	case "get-payments":
		var d struct {
			CustomerID string `json:"customerId"`
			Status     string `json:"status"`
		}
		decodeData(raw, &d)
		query := url.Values{}
		if d.CustomerID != "" {
			query.Set("customer", d.CustomerID)
		}
		if d.Status != "" {
			query.Set("status", d.Status)
		}
		return h.asaasClient.GetPayments(ctx, query)

	case "get-payment":
		var d struct {
			ID string `json:"id"`
		}
		decodeData(raw, &d)
		return h.asaasClient.GetPayment(ctx, d.ID)

	case "get-payment-by-reference":
		var d struct {
			Reference string `json:"reference"`
		}
		decodeData(raw, &d)
		return h.asaasClient.GetPaymentByReference(ctx, d.Reference)

	case "cancel-subscription":
		var d struct {
			ID string `json:"id"`
		}
		decodeData(raw, &d)
		return nil, h.asaasClient.CancelSubscription(ctx, d.ID)

	case "get-payment-link":
		var d struct {
			ID string `json:"id"`
		}
		decodeData(raw, &d)
		return h.asaasClient.GetPaymentLink(ctx, d.ID)

	default:
		return nil, &unknownActionError{action: action}
	}
}

type unknownActionError struct {
	action string
}

func (e *unknownActionError) Error() string {
	return "Unknown action: " + e.action
}

// decodeData is tolerant: a missing or malformed data object leaves the
// target untouched instead of failing the whole request.
func decodeData(raw json.RawMessage, v interface{}) {
	if len(raw) == 0 {
		return
	}
	_ = json.Unmarshal(raw, v)
}
