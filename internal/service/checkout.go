package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"portal-billing/internal/checkout"
	"portal-billing/internal/client"
	"portal-billing/internal/dto"
	"portal-billing/internal/model"
	"portal-billing/internal/repository"
)

// billingTypes maps the portal's payment types onto Asaas billing types.
var billingTypes = map[string]string{
	"card":   "CREDIT_CARD",
	"boleto": "BOLETO",
	"pix":    "PIX",
}

type CheckoutService interface {
	checkout.SessionCreator
	GetSubscription(ctx context.Context, userID string) (*dto.SubscriptionInfo, error)
}

type checkoutServiceImpl struct {
	tx          txRunner
	asaasClient client.AsaasClient
	planRepo    repository.PlanRepository
	profileRepo repository.ProfileRepository
	subRepo     repository.SubscriptionRepository
	paymentRepo repository.PaymentRepository
	log         *zap.Logger
}

func NewCheckoutService(
	db *gorm.DB,
	asaasClient client.AsaasClient,
	planRepo repository.PlanRepository,
	profileRepo repository.ProfileRepository,
	subRepo repository.SubscriptionRepository,
	paymentRepo repository.PaymentRepository,
	log *zap.Logger,
) CheckoutService {
	return &checkoutServiceImpl{
		tx:          gormTx(db),
		asaasClient: asaasClient,
		planRepo:    planRepo,
		profileRepo: profileRepo,
		subRepo:     subRepo,
		paymentRepo: paymentRepo,
		log:         log,
	}
}

// CreateSession validates the caller's profile, reuses a pending charge when
// one exists for the same user/plan, and otherwise creates a new Asaas
// payment, persisting the subscription and payment rows in one transaction.
func (s *checkoutServiceImpl) CreateSession(ctx context.Context, req checkout.SessionRequest) (checkout.SessionResult, error) {
	profile, err := s.profileRepo.Get(ctx, req.UserID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return checkout.SessionResult{}, fmt.Errorf("load profile: %w", err)
	}
	if missing := missingProfileFields(profile); len(missing) > 0 {
		return checkout.SessionResult{
			Kind:  checkout.KindMissingProfile,
			Error: "missing required profile fields: " + strings.Join(missing, ", "),
		}, nil
	}

	plan, err := s.planRepo.FindByID(ctx, req.PlanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return checkout.SessionResult{Error: "plan not found: " + req.PlanID}, nil
		}
		return checkout.SessionResult{}, fmt.Errorf("load plan: %w", err)
	}
	if !plan.Active {
		return checkout.SessionResult{Error: "plan not available: " + req.PlanID}, nil
	}
	if req.Installments > plan.MaxInstallments {
		return checkout.SessionResult{
			Kind:  checkout.KindInstallments,
			Error: fmt.Sprintf("no payments were created: plan allows at most %d installments", plan.MaxInstallments),
		}, nil
	}

	amount := req.Amount
	if amount.IsZero() {
		amount = plan.MonthlyPrice
	}

	// Best-effort: an existing pending subscription for the same user/plan
	// means a charge may already be open with the gateway; reuse its link
	// instead of creating a duplicate.
	if pending, err := s.subRepo.FindPendingByUserPlan(ctx, req.UserID, req.PlanID); err == nil {
		if link, paymentID := s.pendingPaymentLink(ctx, pending); link != "" {
			s.log.Info("reusing pending payment for checkout",
				zap.String("user_id", req.UserID),
				zap.String("plan_id", req.PlanID),
				zap.String("payment_id", paymentID))
			return checkout.SessionResult{Success: true, URL: link, ID: paymentID, CustomerID: pending.AsaasCustomerID}, nil
		}
	}

	customerID, err := s.ensureCustomer(ctx, req.UserID, profile)
	if err != nil {
		return checkout.SessionResult{Error: err.Error()}, nil
	}

	payload := map[string]interface{}{
		"customer":          customerID,
		"billingType":       billingTypeFor(req.PaymentType),
		"value":             amount.InexactFloat64(),
		"dueDate":           time.Now().AddDate(0, 0, 3).Format("2006-01-02"),
		"externalReference": req.ProcessID,
		"description":       plan.Name,
	}
	if req.Installments > 1 {
		per := amount.Div(decimal.NewFromInt(int64(req.Installments))).Round(2)
		payload["installmentCount"] = req.Installments
		payload["installmentValue"] = per.InexactFloat64()
	}

	payment, err := s.asaasClient.CreatePayment(ctx, payload)
	if err != nil {
		return checkout.SessionResult{Error: err.Error()}, nil
	}
	if payment.ID == "" {
		return checkout.SessionResult{
			Kind:  checkout.KindInstallments,
			Error: "no payments were created",
		}, nil
	}

	sub := &model.Subscription{
		ID:                  req.ProcessID,
		UserID:              req.UserID,
		PlanID:              req.PlanID,
		Status:              model.SubscriptionPending,
		AsaasCustomerID:     customerID,
		AsaasSubscriptionID: payment.Subscription,
	}

	err = s.tx(ctx, func(tx *gorm.DB) error {
		if err := s.subRepo.Create(ctx, tx, sub); err != nil {
			return fmt.Errorf("store subscription: %w", err)
		}
		if err := s.paymentRepo.Create(ctx, tx, &model.Payment{
			ID:             payment.ID,
			SubscriptionID: sub.ID,
			Reference:      req.ProcessID,
			Status:         payment.Status,
			Amount:         amount,
			Installments:   max(req.Installments, 1),
			BillingType:    payment.BillingType,
			InvoiceURL:     payment.InvoiceUrl,
		}); err != nil {
			return fmt.Errorf("store payment: %w", err)
		}
		return nil
	})
	if err != nil {
		return checkout.SessionResult{}, err
	}

	if payment.InvoiceUrl == "" {
		return checkout.SessionResult{
			Kind:  checkout.KindNoLink,
			Error: "no checkout link returned",
			ID:    payment.ID,
		}, nil
	}

	return checkout.SessionResult{Success: true, URL: payment.InvoiceUrl, ID: payment.ID, CustomerID: customerID}, nil
}

func (s *checkoutServiceImpl) GetSubscription(ctx context.Context, userID string) (*dto.SubscriptionInfo, error) {
	sub, err := s.subRepo.GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load subscription: %w", err)
	}

	info := &dto.SubscriptionInfo{
		PlanID:             sub.PlanID,
		Status:             string(sub.Status),
		PeriodEnd:          sub.PeriodEnd,
		ContractAccepted:   sub.ContractAccepted,
		ContractAcceptedAt: sub.ContractAcceptedAt,
	}

	payments, err := s.paymentRepo.ListBySubscription(ctx, sub.ID)
	if err != nil {
		return nil, fmt.Errorf("load payments: %w", err)
	}
	for _, p := range payments {
		info.Payments = append(info.Payments, dto.PaymentInfo{
			ID:          p.ID,
			Status:      p.Status,
			Amount:      p.Amount,
			BillingType: p.BillingType,
			InvoiceURL:  p.InvoiceURL,
			CreatedAt:   p.CreatedAt,
		})
	}
	return info, nil
}

// pendingPaymentLink asks the gateway for open charges on a pending
// subscription's customer. Failures are swallowed; the caller falls through
// to creating a fresh payment.
func (s *checkoutServiceImpl) pendingPaymentLink(ctx context.Context, sub *model.Subscription) (link, paymentID string) {
	if sub.AsaasCustomerID == "" {
		return "", ""
	}
	pending, err := s.asaasClient.PendingPayments(ctx, sub.AsaasCustomerID)
	if err != nil {
		s.log.Warn("pending payment lookup failed", zap.Error(err))
		return "", ""
	}
	for _, p := range pending {
		if p.InvoiceUrl != "" {
			return p.InvoiceUrl, p.ID
		}
	}
	return "", ""
}

func (s *checkoutServiceImpl) ensureCustomer(ctx context.Context, userID string, profile *model.Profile) (string, error) {
	if sub, err := s.subRepo.GetByUser(ctx, userID); err == nil && sub.AsaasCustomerID != "" {
		return sub.AsaasCustomerID, nil
	}

	customer, err := s.asaasClient.CreateCustomer(ctx, map[string]interface{}{
		"name":              profile.Name,
		"email":             profile.Email,
		"cpfCnpj":           profile.Document,
		"phone":             profile.Phone,
		"externalReference": userID,
	})
	if err != nil {
		return "", fmt.Errorf("create gateway customer: %w", err)
	}
	return customer.ID, nil
}

func missingProfileFields(profile *model.Profile) []string {
	if profile == nil {
		return []string{"name", "document", "phone"}
	}
	var missing []string
	if profile.Name == "" {
		missing = append(missing, "name")
	}
	if profile.Document == "" {
		missing = append(missing, "document")
	}
	if profile.Phone == "" {
		missing = append(missing, "phone")
	}
	return missing
}

func billingTypeFor(paymentType string) string {
	if bt, ok := billingTypes[paymentType]; ok {
		return bt
	}
	return "UNDEFINED"
}
