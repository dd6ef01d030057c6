package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	stripe "github.com/stripe/stripe-go"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"portal-billing/internal/client"
	"portal-billing/internal/repository"
)

// Typed errors so the transport layer can map each kind to its own HTTP
// status without inspecting Stripe SDK errors.
var (
	ErrBadRequest = errors.New("bad request")
	ErrForbidden  = errors.New("forbidden")
	ErrNotFound   = errors.New("not found")
	ErrUpstream   = errors.New("upstream gateway error")
)

// CreateCheckoutSessionData is the payload for create-checkout-session.
type CreateCheckoutSessionData struct {
	PlanID     string `json:"planId"`
	SuccessURL string `json:"successUrl"`
	CancelURL  string `json:"cancelUrl"`
}

type BillingService interface {
	CreateCheckoutSession(ctx context.Context, userID, email string, data CreateCheckoutSessionData) (*stripe.CheckoutSession, error)
	GetSubscription(ctx context.Context, userID string) (*stripe.Subscription, error)
	CancelSubscription(ctx context.Context, userID string) error
	GetInvoices(ctx context.Context, userID string) ([]*stripe.Invoice, error)
	GetInvoice(ctx context.Context, userID, invoiceID string) (*stripe.Invoice, error)
	UpdateContractAcceptance(ctx context.Context, userID string) error
	RequestReceipt(ctx context.Context, userID, invoiceID string) (string, error)
}

type billingServiceImpl struct {
	stripeClient client.StripeClient
	subRepo      repository.SubscriptionRepository
	log          *zap.Logger
}

func NewBillingService(
	stripeClient client.StripeClient,
	subRepo repository.SubscriptionRepository,
	log *zap.Logger,
) BillingService {
	return &billingServiceImpl{
		stripeClient: stripeClient,
		subRepo:      subRepo,
		log:          log,
	}
}

func (s *billingServiceImpl) CreateCheckoutSession(ctx context.Context, userID, email string, data CreateCheckoutSessionData) (*stripe.CheckoutSession, error) {
	if data.PlanID == "" || data.SuccessURL == "" || data.CancelURL == "" {
		return nil, fmt.Errorf("%w: planId, successUrl and cancelUrl are required", ErrBadRequest)
	}

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		SuccessURL:         stripe.String(data.SuccessURL),
		CancelURL:          stripe.String(data.CancelURL),
		ClientReferenceID:  stripe.String(userID),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Items: []*stripe.CheckoutSessionSubscriptionDataItemsParams{
				{Plan: stripe.String(data.PlanID), Quantity: stripe.Int64(1)},
			},
		},
	}
	if email != "" {
		params.CustomerEmail = stripe.String(email)
	}

	session, err := s.stripeClient.CreateCheckoutSession(params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return session, nil
}

func (s *billingServiceImpl) GetSubscription(ctx context.Context, userID string) (*stripe.Subscription, error) {
	subID, err := s.stripeSubscriptionID(ctx, userID)
	if err != nil {
		return nil, err
	}

	subscription, err := s.stripeClient.GetSubscription(subID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return subscription, nil
}

func (s *billingServiceImpl) CancelSubscription(ctx context.Context, userID string) error {
	subID, err := s.stripeSubscriptionID(ctx, userID)
	if err != nil {
		return err
	}

	if _, err := s.stripeClient.CancelSubscription(subID); err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	s.log.Info("stripe subscription canceled",
		zap.String("user_id", userID),
		zap.String("subscription_id", subID))
	return nil
}

func (s *billingServiceImpl) GetInvoices(ctx context.Context, userID string) ([]*stripe.Invoice, error) {
	customerID, err := s.stripeCustomerID(ctx, userID)
	if err != nil {
		return nil, err
	}

	invoices, err := s.stripeClient.ListInvoices(customerID, 24)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return invoices, nil
}

func (s *billingServiceImpl) GetInvoice(ctx context.Context, userID, invoiceID string) (*stripe.Invoice, error) {
	if invoiceID == "" {
		return nil, fmt.Errorf("%w: invoiceId is required", ErrBadRequest)
	}

	customerID, err := s.stripeCustomerID(ctx, userID)
	if err != nil {
		return nil, err
	}

	inv, err := s.stripeClient.GetInvoice(invoiceID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if inv.Customer == nil || inv.Customer.ID != customerID {
		return nil, fmt.Errorf("%w: invoice belongs to another customer", ErrForbidden)
	}
	return inv, nil
}

func (s *billingServiceImpl) UpdateContractAcceptance(ctx context.Context, userID string) error {
	err := s.subRepo.SetContractAccepted(ctx, userID, time.Now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: no subscription for user", ErrNotFound)
		}
		return fmt.Errorf("update contract acceptance: %w", err)
	}
	return nil
}

// RequestReceipt returns the hosted receipt URL for a paid invoice.
func (s *billingServiceImpl) RequestReceipt(ctx context.Context, userID, invoiceID string) (string, error) {
	inv, err := s.GetInvoice(ctx, userID, invoiceID)
	if err != nil {
		return "", err
	}
	if !inv.Paid {
		return "", fmt.Errorf("%w: invoice is not paid yet", ErrBadRequest)
	}
	if inv.InvoicePDF != "" {
		return inv.InvoicePDF, nil
	}
	if inv.HostedInvoiceURL != "" {
		return inv.HostedInvoiceURL, nil
	}
	return "", fmt.Errorf("%w: no receipt available for invoice", ErrNotFound)
}

func (s *billingServiceImpl) stripeSubscriptionID(ctx context.Context, userID string) (string, error) {
	sub, err := s.subRepo.GetByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("%w: no subscription for user", ErrNotFound)
		}
		return "", fmt.Errorf("load subscription: %w", err)
	}
	if sub.StripeSubscriptionID == "" {
		return "", fmt.Errorf("%w: user has no legacy billing subscription", ErrNotFound)
	}
	return sub.StripeSubscriptionID, nil
}

func (s *billingServiceImpl) stripeCustomerID(ctx context.Context, userID string) (string, error) {
	subID, err := s.stripeSubscriptionID(ctx, userID)
	if err != nil {
		return "", err
	}

	subscription, err := s.stripeClient.GetSubscription(subID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if subscription.Customer == nil || subscription.Customer.ID == "" {
		return "", fmt.Errorf("%w: subscription has no customer", ErrNotFound)
	}
	return subscription.Customer.ID, nil
}
