package client

import (
	stripe "github.com/stripe/stripe-go"
	"github.com/stripe/stripe-go/checkout/session"
	"github.com/stripe/stripe-go/invoice"
	"github.com/stripe/stripe-go/sub"
)

// SetStripeKey configures the Stripe SDK key once during bootstrap.
func SetStripeKey(key string) { stripe.Key = key }

// StripeClient wraps the slice of the Stripe SDK the legacy billing proxy
// needs, so services can be tested against a fake.
type StripeClient interface {
	CreateCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	GetSubscription(id string) (*stripe.Subscription, error)
	CancelSubscription(id string) (*stripe.Subscription, error)
	ListInvoices(customerID string, limit int64) ([]*stripe.Invoice, error)
	GetInvoice(id string) (*stripe.Invoice, error)
}

type stripeClientImpl struct{}

// NewStripeClient returns a StripeClient backed by the official SDK.
func NewStripeClient() StripeClient { return stripeClientImpl{} }

func (stripeClientImpl) CreateCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	return session.New(params)
}

func (stripeClientImpl) GetSubscription(id string) (*stripe.Subscription, error) {
	return sub.Get(id, nil)
}

func (stripeClientImpl) CancelSubscription(id string) (*stripe.Subscription, error) {
	return sub.Cancel(id, nil)
}

func (stripeClientImpl) ListInvoices(customerID string, limit int64) ([]*stripe.Invoice, error) {
	params := &stripe.InvoiceListParams{Customer: stripe.String(customerID)}
	if limit > 0 {
		params.Limit = stripe.Int64(limit)
	}

	var invoices []*stripe.Invoice
	it := invoice.List(params)
	for it.Next() {
		invoices = append(invoices, it.Invoice())
	}
	return invoices, it.Err()
}

func (stripeClientImpl) GetInvoice(id string) (*stripe.Invoice, error) {
	return invoice.Get(id, nil)
}
