package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"portal-billing/internal/model"
)

type fakeWebhookEventRepo struct {
	processed map[string]string // event id -> event type
}

func (f *fakeWebhookEventRepo) Exists(eventID string) (bool, error) {
	_, ok := f.processed[eventID]
	return ok, nil
}

func (f *fakeWebhookEventRepo) MarkProcessed(eventID, eventType string) error {
	f.processed[eventID] = eventType
	return nil
}

type webhookFixture struct {
	svc      *webhookServiceImpl
	subs     *fakeSubRepo
	payments *fakePaymentRepo
	events   *fakeWebhookEventRepo
}

func newWebhookFixture() *webhookFixture {
	subs := &fakeSubRepo{subs: map[string]*model.Subscription{
		"sub-1": {ID: "sub-1", UserID: "user-1", PlanID: "consultoria_pro", Status: model.SubscriptionPending},
	}}
	payments := &fakePaymentRepo{payments: map[string]*model.Payment{
		"pay_1": {ID: "pay_1", SubscriptionID: "sub-1", Status: "PENDING"},
	}}
	events := &fakeWebhookEventRepo{processed: map[string]string{}}

	svc := &webhookServiceImpl{
		tx:               func(_ context.Context, fn func(tx *gorm.DB) error) error { return fn(nil) },
		subRepo:          subs,
		paymentRepo:      payments,
		webhookEventRepo: events,
		log:              zap.NewNop(),
	}
	return &webhookFixture{svc: svc, subs: subs, payments: payments, events: events}
}

func confirmedEvent(id, paymentID string) *model.AsaasWebhookEvent {
	return &model.AsaasWebhookEvent{
		ID:      id,
		Event:   "PAYMENT_CONFIRMED",
		Payment: model.AsaasPayment{ID: paymentID, Status: "CONFIRMED"},
	}
}

func TestHandleAsaasEventActivatesSubscription(t *testing.T) {
	f := newWebhookFixture()

	err := f.svc.HandleAsaasEvent(context.Background(), confirmedEvent("evt_1", "pay_1"))
	require.NoError(t, err)

	assert.Equal(t, "CONFIRMED", f.payments.payments["pay_1"].Status)
	sub := f.subs.subs["sub-1"]
	assert.Equal(t, model.SubscriptionActive, sub.Status)
	require.NotNil(t, sub.PeriodEnd, "an activated subscription gets a new period end")
	assert.Equal(t, "PAYMENT_CONFIRMED", f.events.processed["evt_1"])
}

func TestHandleAsaasEventOverdueAndRefund(t *testing.T) {
	f := newWebhookFixture()

	overdue := confirmedEvent("evt_2", "pay_1")
	overdue.Event = "PAYMENT_OVERDUE"
	overdue.Payment.Status = "OVERDUE"
	require.NoError(t, f.svc.HandleAsaasEvent(context.Background(), overdue))
	assert.Equal(t, model.SubscriptionPastDue, f.subs.subs["sub-1"].Status)
	assert.Nil(t, f.subs.subs["sub-1"].PeriodEnd)

	refund := confirmedEvent("evt_3", "pay_1")
	refund.Event = "PAYMENT_REFUNDED"
	refund.Payment.Status = "REFUNDED"
	require.NoError(t, f.svc.HandleAsaasEvent(context.Background(), refund))
	assert.Equal(t, model.SubscriptionCanceled, f.subs.subs["sub-1"].Status)
}

func TestHandleAsaasEventReplayIsSkipped(t *testing.T) {
	f := newWebhookFixture()

	require.NoError(t, f.svc.HandleAsaasEvent(context.Background(), confirmedEvent("evt_1", "pay_1")))

	// Flip the stored status back so a second apply would be visible.
	f.payments.payments["pay_1"].Status = "PENDING"
	f.subs.subs["sub-1"].Status = model.SubscriptionPending

	require.NoError(t, f.svc.HandleAsaasEvent(context.Background(), confirmedEvent("evt_1", "pay_1")))
	assert.Equal(t, "PENDING", f.payments.payments["pay_1"].Status)
	assert.Equal(t, model.SubscriptionPending, f.subs.subs["sub-1"].Status)
}

func TestHandleAsaasEventFallsBackToReference(t *testing.T) {
	f := newWebhookFixture()
	f.payments.payments["pay_1"].Reference = "proc-1"

	evt := confirmedEvent("evt_6", "pay_gateway_alias")
	evt.Payment.ExternalReference = "proc-1"
	require.NoError(t, f.svc.HandleAsaasEvent(context.Background(), evt))
	assert.Equal(t, "CONFIRMED", f.payments.payments["pay_1"].Status)
	assert.Equal(t, model.SubscriptionActive, f.subs.subs["sub-1"].Status)
}

func TestHandleAsaasEventUnknownPayment(t *testing.T) {
	f := newWebhookFixture()

	err := f.svc.HandleAsaasEvent(context.Background(), confirmedEvent("evt_9", "pay_missing"))
	require.NoError(t, err, "events for payments we have not stored yet are acknowledged")
	assert.Equal(t, "PAYMENT_CONFIRMED", f.events.processed["evt_9"])
	assert.Equal(t, model.SubscriptionPending, f.subs.subs["sub-1"].Status)
}

func TestHandleAsaasEventIgnoresUnrelatedTypes(t *testing.T) {
	f := newWebhookFixture()

	evt := confirmedEvent("evt_5", "pay_1")
	evt.Event = "PAYMENT_CREATED"
	require.NoError(t, f.svc.HandleAsaasEvent(context.Background(), evt))
	assert.Equal(t, "PENDING", f.payments.payments["pay_1"].Status)
	assert.Equal(t, "PAYMENT_CREATED", f.events.processed["evt_5"])
}

func TestHandleAsaasEventSubscriptionDeleted(t *testing.T) {
	f := newWebhookFixture()
	f.subs.subs["sub-1"].AsaasSubscriptionID = "asaas_sub_1"

	evt := &model.AsaasWebhookEvent{ID: "evt_7", Event: "SUBSCRIPTION_DELETED"}
	evt.Subscription.ID = "asaas_sub_1"
	require.NoError(t, f.svc.HandleAsaasEvent(context.Background(), evt))
	assert.Equal(t, model.SubscriptionCanceled, f.subs.subs["sub-1"].Status)

	// Unknown subscriptions are acknowledged without failing the delivery.
	evt2 := &model.AsaasWebhookEvent{ID: "evt_8", Event: "SUBSCRIPTION_DELETED"}
	evt2.Subscription.ID = "asaas_sub_unknown"
	require.NoError(t, f.svc.HandleAsaasEvent(context.Background(), evt2))
	assert.Equal(t, "SUBSCRIPTION_DELETED", f.events.processed["evt_8"])
}

func TestHandleAsaasEventRejectsMalformedEnvelope(t *testing.T) {
	f := newWebhookFixture()

	err := f.svc.HandleAsaasEvent(context.Background(), &model.AsaasWebhookEvent{Event: "PAYMENT_CONFIRMED"})
	assert.Error(t, err)

	err = f.svc.HandleAsaasEvent(context.Background(), &model.AsaasWebhookEvent{ID: "evt_x"})
	assert.Error(t, err)
}
