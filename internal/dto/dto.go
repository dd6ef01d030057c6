package dto

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"portal-billing/internal/checkout"
)

// CheckoutRequest starts a payment session for a plan.
type CheckoutRequest struct {
	PlanID       string  `json:"planId" validate:"required"`
	UserID       string  `json:"userId"`
	Amount       float64 `json:"amount" validate:"gte=0"`
	Name         string  `json:"name"`
	Email        string  `json:"email" validate:"omitempty,email"`
	Installments int     `json:"installments" validate:"gte=0,lte=12"`
	PaymentType  string  `json:"paymentType" validate:"omitempty,oneof=card boleto pix"`
}

// CheckoutResponse carries either an in-app route (redirect) or an external
// gateway link (url), never both.
type CheckoutResponse struct {
	Success   bool             `json:"success"`
	Error     string           `json:"error,omitempty"`
	Redirect  string           `json:"redirect,omitempty"`
	URL       string           `json:"url,omitempty"`
	ID        string           `json:"id,omitempty"`
	Recovered bool             `json:"recovered,omitempty"`
	Notice    *checkout.Notice `json:"notice,omitempty"`
}

// ProxyRequest is the generic action envelope both gateway proxies accept.
type ProxyRequest struct {
	Action string          `json:"action" validate:"required"`
	Data   json.RawMessage `json:"data"`
}

// ProxyResponse is the matching envelope: success with data, or a structured
// error string. Upstream failures never escape as raw exceptions.
type ProxyResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ProfileRequest upserts the caller's billing profile.
type ProfileRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"omitempty,email"`
	Document string `json:"document" validate:"required"`
	Phone    string `json:"phone" validate:"required"`
}

type ProfileResponse struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Document string `json:"document"`
	Phone    string `json:"phone"`
}

// PaymentInfo is one gateway charge as shown on the dashboard.
type PaymentInfo struct {
	ID          string          `json:"id"`
	Status      string          `json:"status"`
	Amount      decimal.Decimal `json:"amount"`
	BillingType string          `json:"billingType,omitempty"`
	InvoiceURL  string          `json:"invoiceUrl,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// SubscriptionInfo is the dashboard's read view of the caller's subscription.
type SubscriptionInfo struct {
	PlanID             string     `json:"planId"`
	Status             string     `json:"status"`
	PeriodEnd          *time.Time `json:"periodEnd,omitempty"`
	ContractAccepted   bool       `json:"contractAccepted"`
	ContractAcceptedAt *time.Time `json:"contractAcceptedAt,omitempty"`

	Payments []PaymentInfo `json:"payments,omitempty"`
}
