package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeCreator struct {
	calls   int
	result  SessionResult
	err     error
	block   chan struct{} // when set, CreateSession waits until closed
	started chan struct{}
}

func (f *fakeCreator) CreateSession(ctx context.Context, req SessionRequest) (SessionResult, error) {
	f.calls++
	if f.started != nil {
		close(f.started)
	}
	if f.block != nil {
		<-f.block
	}
	return f.result, f.err
}

func newTestInitiator(sess *Session, creator SessionCreator) *Initiator {
	guard := NewGuard(5*time.Minute, 15*time.Second, 3)
	resolver := NewResolver(30 * time.Minute)
	i := NewInitiator(sess, guard, resolver, creator, zap.NewNop())
	i.InitDelay = 0
	i.RedirectDelay = 0
	i.ErrorReset = 0
	i.Sleep = func(context.Context, time.Duration) {}
	return i
}

func req(plan string) SessionRequest {
	return SessionRequest{PlanID: plan, UserID: "user-1", Installments: 1, PaymentType: "pix"}
}

func TestInitiatorSuccessRedirectsToGatewayURL(t *testing.T) {
	sess := NewSession(NewMemoryStore())
	creator := &fakeCreator{result: SessionResult{Success: true, URL: "https://pay/new", ID: "pay_1", CustomerID: "cus_1"}}
	i := newTestInitiator(sess, creator)

	out := i.Start(context.Background(), req("plan-x"))
	assert.Equal(t, StateRedirecting, out.State)
	assert.Equal(t, "https://pay/new", out.RedirectTo)
	assert.Equal(t, "pay_1", out.PaymentID)

	// The link must be resumable on a later attempt.
	p, ok := sess.Recovery()
	require.True(t, ok)
	assert.Equal(t, "https://pay/new", p.PaymentLink)
	assert.Equal(t, "https://pay/new", sess.LastPaymentURL())
	assert.Equal(t, "cus_1", sess.CustomerID())
}

func TestInitiatorPrefersInAppRoute(t *testing.T) {
	sess := NewSession(NewMemoryStore())
	creator := &fakeCreator{result: SessionResult{Success: true, Redirect: "/obrigado", URL: "https://pay/new"}}
	i := newTestInitiator(sess, creator)

	out := i.Start(context.Background(), req("plan-x"))
	assert.Equal(t, StateRedirecting, out.State)
	assert.Equal(t, "/obrigado", out.RedirectTo)
}

func TestInitiatorMapsNoPaymentsCreated(t *testing.T) {
	sess := NewSession(NewMemoryStore())
	creator := &fakeCreator{result: SessionResult{Success: false, Error: "no payments were created"}}
	i := newTestInitiator(sess, creator)

	out := i.Start(context.Background(), req("plan-x"))
	assert.Equal(t, StateError, out.State)
	require.NotNil(t, out.Notice)
	assert.Equal(t, "Erro ao processar parcelas", out.Notice.Title)
	assert.Equal(t, StateIdle, i.State(), "error resets to idle")
}

func TestInitiatorMapsTransportFailure(t *testing.T) {
	sess := NewSession(NewMemoryStore())
	creator := &fakeCreator{err: errors.New("connection refused")}
	i := newTestInitiator(sess, creator)

	out := i.Start(context.Background(), req("plan-x"))
	assert.Equal(t, StateError, out.State)
	require.NotNil(t, out.Notice)
	assert.Equal(t, KindTransport, out.Notice.Kind)
}

func TestInitiatorMapsMissingLink(t *testing.T) {
	sess := NewSession(NewMemoryStore())
	creator := &fakeCreator{result: SessionResult{Success: true}}
	i := newTestInitiator(sess, creator)

	out := i.Start(context.Background(), req("plan-x"))
	assert.Equal(t, StateError, out.State)
	require.NotNil(t, out.Notice)
	assert.Equal(t, KindNoLink, out.Notice.Kind)
}

func TestInitiatorRecoversWithoutCallingGateway(t *testing.T) {
	sess := NewSession(NewMemoryStore())
	sess.SetRecovery(RecoveryPayload{
		PlanID:      "X",
		Timestamp:   time.Now().Add(-10 * time.Minute).UnixMilli(),
		ProcessID:   "proc-old",
		PaymentLink: "https://pay/abc",
	})
	creator := &fakeCreator{result: SessionResult{Success: true, URL: "https://pay/should-not-happen"}}
	i := newTestInitiator(sess, creator)

	out := i.Start(context.Background(), req("X"))
	assert.Equal(t, StateRedirecting, out.State)
	assert.True(t, out.Recovered)
	assert.Equal(t, "https://pay/abc", out.RedirectTo)
	assert.Equal(t, 0, creator.calls, "recovered checkout must not create a new session")
}

func TestInitiatorIgnoresStaleRecovery(t *testing.T) {
	sess := NewSession(NewMemoryStore())
	sess.SetRecovery(RecoveryPayload{
		PlanID:      "X",
		Timestamp:   time.Now().Add(-40 * time.Minute).UnixMilli(),
		ProcessID:   "proc-old",
		PaymentLink: "https://pay/abc",
	})
	creator := &fakeCreator{result: SessionResult{Success: true, URL: "https://pay/new"}}
	i := newTestInitiator(sess, creator)

	out := i.Start(context.Background(), req("X"))
	assert.Equal(t, StateRedirecting, out.State)
	assert.False(t, out.Recovered)
	assert.Equal(t, "https://pay/new", out.RedirectTo)
	assert.Equal(t, 1, creator.calls)
}

func TestInitiatorDeniesRapidSecondAttempt(t *testing.T) {
	store := NewMemoryStore()
	sess := NewSession(store)
	creator := &fakeCreator{result: SessionResult{Success: true, URL: "https://pay/new"}}
	i := newTestInitiator(sess, creator)

	first := i.Start(context.Background(), req("plan-x"))
	require.Equal(t, StateRedirecting, first.State)

	// The success recovery payload would short-circuit; drop it so we see
	// the guard's verdict.
	store.Delete(KeyRecoveryState)

	second := i.Start(context.Background(), req("plan-x"))
	assert.Equal(t, StateIdle, second.State)
	require.NotNil(t, second.Notice)
	assert.Equal(t, KindWait, second.Notice.Kind)
	assert.Equal(t, 1, creator.calls)
}

func TestInitiatorSecondTriggerWhileInFlightIsNoOp(t *testing.T) {
	sess := NewSession(NewMemoryStore())
	creator := &fakeCreator{
		result:  SessionResult{Success: true, URL: "https://pay/new"},
		block:   make(chan struct{}),
		started: make(chan struct{}),
	}
	i := newTestInitiator(sess, creator)

	done := make(chan Outcome, 1)
	go func() {
		done <- i.Start(context.Background(), req("plan-x"))
	}()
	<-creator.started

	out := i.Start(context.Background(), req("plan-x"))
	require.NotNil(t, out.Notice)
	assert.Equal(t, KindWait, out.Notice.Kind)
	assert.Equal(t, 1, creator.calls)

	close(creator.block)
	first := <-done
	assert.Equal(t, StateRedirecting, first.State)
}
