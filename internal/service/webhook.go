package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"portal-billing/internal/model"
	"portal-billing/internal/repository"
)

type WebhookService interface {
	HandleAsaasEvent(ctx context.Context, event *model.AsaasWebhookEvent) error
}

type webhookServiceImpl struct {
	tx               txRunner
	subRepo          repository.SubscriptionRepository
	paymentRepo      repository.PaymentRepository
	webhookEventRepo repository.WebhookEventRepository
	log              *zap.Logger
}

func NewWebhookService(
	db *gorm.DB,
	subRepo repository.SubscriptionRepository,
	paymentRepo repository.PaymentRepository,
	webhookEventRepo repository.WebhookEventRepository,
	log *zap.Logger,
) WebhookService {
	return &webhookServiceImpl{
		tx:               gormTx(db),
		subRepo:          subRepo,
		paymentRepo:      paymentRepo,
		webhookEventRepo: webhookEventRepo,
		log:              log,
	}
}

// HandleAsaasEvent applies one gateway event to the billing records. Events
// are idempotent: a replayed event id is acknowledged without reprocessing.
// Subscription status is only ever mutated here.
func (s *webhookServiceImpl) HandleAsaasEvent(ctx context.Context, event *model.AsaasWebhookEvent) error {
	if event.ID == "" || event.Event == "" {
		return fmt.Errorf("webhook event missing id or type")
	}

	seen, err := s.webhookEventRepo.Exists(event.ID)
	if err != nil {
		return fmt.Errorf("check webhook event: %w", err)
	}
	if seen {
		s.log.Debug("webhook event replayed, skipping", zap.String("event_id", event.ID))
		return nil
	}

	switch event.Event {
	case "PAYMENT_CONFIRMED", "PAYMENT_RECEIVED":
		err = s.applyPaymentStatus(ctx, event, model.SubscriptionActive)
	case "PAYMENT_OVERDUE":
		err = s.applyPaymentStatus(ctx, event, model.SubscriptionPastDue)
	case "PAYMENT_REFUNDED", "PAYMENT_DELETED":
		err = s.applyPaymentStatus(ctx, event, model.SubscriptionCanceled)
	case "SUBSCRIPTION_DELETED":
		err = s.cancelSubscription(ctx, event)
	default:
		s.log.Info("ignoring webhook event", zap.String("event", event.Event))
	}
	if err != nil {
		return err
	}

	return s.webhookEventRepo.MarkProcessed(event.ID, event.Event)
}

func (s *webhookServiceImpl) cancelSubscription(ctx context.Context, event *model.AsaasWebhookEvent) error {
	asaasSubID := event.Subscription.ID
	if asaasSubID == "" {
		return fmt.Errorf("could not find subscription id in webhook payload")
	}

	sub, err := s.subRepo.FindByAsaasSubscription(ctx, asaasSubID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("load subscription: %w", err)
		}
		s.log.Warn("webhook for unknown subscription", zap.String("asaas_subscription_id", asaasSubID))
		return nil
	}

	return s.tx(ctx, func(tx *gorm.DB) error {
		if err := s.subRepo.UpdateStatus(ctx, tx, sub.ID, model.SubscriptionCanceled, nil); err != nil {
			return fmt.Errorf("update subscription status: %w", err)
		}
		s.log.Info("subscription canceled by gateway", zap.String("subscription_id", sub.ID))
		return nil
	})
}

func (s *webhookServiceImpl) applyPaymentStatus(ctx context.Context, event *model.AsaasWebhookEvent, status model.SubscriptionStatus) error {
	paymentID := event.Payment.ID
	if paymentID == "" {
		return fmt.Errorf("could not find payment id in webhook payload")
	}

	return s.tx(ctx, func(tx *gorm.DB) error {
		payment, err := s.paymentRepo.GetByID(ctx, paymentID)
		if errors.Is(err, gorm.ErrRecordNotFound) && event.Payment.ExternalReference != "" {
			// Older deliveries carry our reference instead of the gateway id.
			payment, err = s.paymentRepo.GetByReference(ctx, event.Payment.ExternalReference)
		}
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("load payment: %w", err)
			}
			// Gateway can deliver the event before checkout persisted the
			// rows; record what we know and let reconciliation catch up.
			s.log.Warn("webhook for unknown payment", zap.String("payment_id", paymentID))
			return nil
		}

		if err := s.paymentRepo.UpdateStatus(ctx, tx, payment.ID, event.Payment.Status); err != nil {
			return fmt.Errorf("update payment status: %w", err)
		}

		var periodEnd *time.Time
		if status == model.SubscriptionActive {
			end := time.Now().AddDate(0, 1, 0)
			periodEnd = &end
		}
		if err := s.subRepo.UpdateStatus(ctx, tx, payment.SubscriptionID, status, periodEnd); err != nil {
			return fmt.Errorf("update subscription status: %w", err)
		}

		s.log.Info("webhook applied",
			zap.String("event", event.Event),
			zap.String("payment_id", paymentID),
			zap.String("subscription_id", payment.SubscriptionID),
			zap.String("status", string(status)))
		return nil
	})
}
