package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"portal-billing/internal/config"
	"portal-billing/internal/model"
)

const (
	asaasProductionURL = "https://api.asaas.com/v3"
	asaasSandboxURL    = "https://api-sandbox.asaas.com/v3"
)

type AsaasClient interface {
	GetCustomers(ctx context.Context, query url.Values) (*model.AsaasList[model.AsaasCustomer], error)
	GetCustomer(ctx context.Context, customerID string) (*model.AsaasCustomer, error)
	CreateCustomer(ctx context.Context, payload map[string]interface{}) (*model.AsaasCustomer, error)
	UpdateCustomer(ctx context.Context, customerID string, payload map[string]interface{}) (*model.AsaasCustomer, error)
	DeleteCustomer(ctx context.Context, customerID string) error

	CreatePayment(ctx context.Context, payload map[string]interface{}) (*model.AsaasPayment, error)
	GetPayments(ctx context.Context, query url.Values) (*model.AsaasList[model.AsaasPayment], error)
	GetPayment(ctx context.Context, paymentID string) (*model.AsaasPayment, error)
	GetPaymentByReference(ctx context.Context, reference string) (*model.AsaasPayment, error)
	PendingPayments(ctx context.Context, customerID string) ([]model.AsaasPayment, error)

	CancelSubscription(ctx context.Context, subscriptionID string) error
	GetPaymentLink(ctx context.Context, linkID string) (*model.AsaasPaymentLink, error)
}

type asaasClientImpl struct {
	httpClient *http.Client
	baseApiURL string
	apiKey     string
}

func NewAsaasClient(cfg *config.Asaas) AsaasClient {
	baseURL := asaasProductionURL
	if cfg.Sandbox {
		baseURL = asaasSandboxURL
	}
	return &asaasClientImpl{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseApiURL: baseURL,
		apiKey:     cfg.APIKey,
	}
}

func (c *asaasClientImpl) do(ctx context.Context, method, path string, payload interface{}, out interface{}) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal req payload: %w", err)
		}
		body = bytes.NewBuffer(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseApiURL+path, body)
	if err != nil {
		return fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("access_token", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		var errResp model.AsaasErrorResponse
		if json.Unmarshal(raw, &errResp) == nil && len(errResp.Errors) > 0 {
			return fmt.Errorf("asaas error %d: %s", resp.StatusCode, errResp.Errors[0].Description)
		}
		return fmt.Errorf("asaas error %d: %s", resp.StatusCode, string(raw))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode asaas response: %w", err)
	}
	return nil
}

func (c *asaasClientImpl) GetCustomers(ctx context.Context, query url.Values) (*model.AsaasList[model.AsaasCustomer], error) {
	path := "/customers"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	var list model.AsaasList[model.AsaasCustomer]
	if err := c.do(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

func (c *asaasClientImpl) GetCustomer(ctx context.Context, customerID string) (*model.AsaasCustomer, error) {
	var customer model.AsaasCustomer
	if err := c.do(ctx, http.MethodGet, "/customers/"+customerID, nil, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

func (c *asaasClientImpl) CreateCustomer(ctx context.Context, payload map[string]interface{}) (*model.AsaasCustomer, error) {
	var customer model.AsaasCustomer
	if err := c.do(ctx, http.MethodPost, "/customers", payload, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

func (c *asaasClientImpl) UpdateCustomer(ctx context.Context, customerID string, payload map[string]interface{}) (*model.AsaasCustomer, error) {
	var customer model.AsaasCustomer
	if err := c.do(ctx, http.MethodPut, "/customers/"+customerID, payload, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

func (c *asaasClientImpl) DeleteCustomer(ctx context.Context, customerID string) error {
	return c.do(ctx, http.MethodDelete, "/customers/"+customerID, nil, nil)
}

func (c *asaasClientImpl) CreatePayment(ctx context.Context, payload map[string]interface{}) (*model.AsaasPayment, error) {
	var payment model.AsaasPayment
	if err := c.do(ctx, http.MethodPost, "/payments", payload, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

func (c *asaasClientImpl) GetPayments(ctx context.Context, query url.Values) (*model.AsaasList[model.AsaasPayment], error) {
	path := "/payments"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	var list model.AsaasList[model.AsaasPayment]
	if err := c.do(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

func (c *asaasClientImpl) GetPayment(ctx context.Context, paymentID string) (*model.AsaasPayment, error) {
	var payment model.AsaasPayment
	if err := c.do(ctx, http.MethodGet, "/payments/"+paymentID, nil, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

func (c *asaasClientImpl) GetPaymentByReference(ctx context.Context, reference string) (*model.AsaasPayment, error) {
	query := url.Values{}
	query.Set("externalReference", reference)

	list, err := c.GetPayments(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(list.Data) == 0 {
		return nil, fmt.Errorf("no payment found for reference %s", reference)
	}
	return &list.Data[0], nil
}

// PendingPayments is the best-effort lookup behind check-existing-payments:
// open charges for a customer so checkout can reuse a link instead of
// creating a duplicate.
func (c *asaasClientImpl) PendingPayments(ctx context.Context, customerID string) ([]model.AsaasPayment, error) {
	query := url.Values{}
	query.Set("customer", customerID)
	query.Set("status", "PENDING")

	list, err := c.GetPayments(ctx, query)
	if err != nil {
		return nil, err
	}
	return list.Data, nil
}

func (c *asaasClientImpl) CancelSubscription(ctx context.Context, subscriptionID string) error {
	return c.do(ctx, http.MethodDelete, "/subscriptions/"+subscriptionID, nil, nil)
}

func (c *asaasClientImpl) GetPaymentLink(ctx context.Context, linkID string) (*model.AsaasPaymentLink, error) {
	var link model.AsaasPaymentLink
	if err := c.do(ctx, http.MethodGet, "/paymentLinks/"+linkID, nil, &link); err != nil {
		return nil, err
	}
	return &link, nil
}
