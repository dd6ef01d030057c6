package checkout

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// State is the initiator's visible phase.
type State string

const (
	StateIdle         State = "idle"
	StateInitializing State = "initializing"
	StateProcessing   State = "processing"
	StateSuccess      State = "success"
	StateError        State = "error"
	StateRedirecting  State = "redirecting"
)

// SessionRequest is one user-initiated request to create a payment session.
type SessionRequest struct {
	PlanID       string
	UserID       string
	Name         string
	Email        string
	Amount       decimal.Decimal
	Installments int
	PaymentType  string
	ProcessID    string
}

// SessionResult is the session-creation response. Redirect (in-app route) and
// URL (external gateway link) are mutually exclusive follow-ups. Kind, when
// set, overrides message classification.
type SessionResult struct {
	Success    bool
	Error      string
	Kind       Kind
	Redirect   string
	URL        string
	ID         string
	CustomerID string
}

// SessionCreator creates a payment session with the gateway. A returned error
// means the call itself failed (transport); business failures come back as
// Success=false.
type SessionCreator interface {
	CreateSession(ctx context.Context, req SessionRequest) (SessionResult, error)
}

// Outcome is what one Start call produced.
type Outcome struct {
	State      State
	Notice     *Notice
	RedirectTo string
	Recovered  bool
	PaymentID  string
}

// Initiator drives a single session's checkout flow:
// idle -> initializing -> processing -> success -> redirecting, or error.
// At most one flow runs per initiator; a second trigger while one is in
// flight is a no-op with an informational notice.
type Initiator struct {
	sess     *Session
	guard    *Guard
	resolver *Resolver
	creator  SessionCreator
	log      *zap.Logger

	// UX pacing. Tests set these to zero.
	InitDelay     time.Duration
	RedirectDelay time.Duration
	ErrorReset    time.Duration

	Now   func() time.Time
	Sleep func(context.Context, time.Duration)

	mu       sync.Mutex
	state    State
	inFlight bool
}

func NewInitiator(sess *Session, guard *Guard, resolver *Resolver, creator SessionCreator, log *zap.Logger) *Initiator {
	return &Initiator{
		sess:          sess,
		guard:         guard,
		resolver:      resolver,
		creator:       creator,
		log:           log,
		InitDelay:     500 * time.Millisecond,
		RedirectDelay: 1500 * time.Millisecond,
		ErrorReset:    3 * time.Second,
		Now:           time.Now,
		Sleep:         sleepCtx,
		state:         StateIdle,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// State reports the current phase.
func (i *Initiator) State() State {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}

func (i *Initiator) setState(s State) {
	i.mu.Lock()
	i.state = s
	i.mu.Unlock()
}

// Start runs the checkout flow once. It blocks until the flow reaches a
// terminal phase and returns what the caller should show or do next.
func (i *Initiator) Start(ctx context.Context, req SessionRequest) Outcome {
	i.mu.Lock()
	if i.inFlight {
		i.mu.Unlock()
		n := Notice{Kind: KindWait, Title: "Pagamento em andamento", Message: "Seu pagamento já está sendo processado."}
		return Outcome{State: StateProcessing, Notice: &n}
	}
	i.inFlight = true
	i.mu.Unlock()
	defer func() {
		i.mu.Lock()
		i.inFlight = false
		i.mu.Unlock()
	}()

	if d := i.guard.Check(i.sess, req.PlanID, req.Installments, req.PaymentType); !d.Allowed {
		n := NoticeFor(d.Kind)
		return Outcome{State: StateIdle, Notice: &n}
	}

	if res := i.resolver.Resolve(i.sess, req.PlanID); res.Recovered {
		i.log.Info("checkout recovered from previous session",
			zap.String("plan_id", req.PlanID),
			zap.String("payment_link", res.PaymentLink))
		i.setState(StateRedirecting)
		i.Sleep(ctx, i.RedirectDelay)
		return Outcome{State: StateRedirecting, RedirectTo: res.PaymentLink, Recovered: true}
	}

	i.setState(StateInitializing)
	if req.ProcessID == "" {
		req.ProcessID = uuid.NewString()
	}
	i.sess.SetRecovery(RecoveryPayload{
		PlanID:       req.PlanID,
		Installments: req.Installments,
		PaymentType:  req.PaymentType,
		Timestamp:    i.Now().UnixMilli(),
		ProcessID:    req.ProcessID,
	})
	i.Sleep(ctx, i.InitDelay)

	i.setState(StateProcessing)
	result, err := i.creator.CreateSession(ctx, req)
	if err != nil {
		return i.fail(ctx, req, KindTransport, err.Error())
	}
	if !result.Success {
		kind := result.Kind
		if kind == KindNone {
			kind = ClassifyMessage(result.Error)
		}
		return i.fail(ctx, req, kind, result.Error)
	}

	target := result.Redirect
	if target == "" {
		target = result.URL
	}
	if target == "" {
		return i.fail(ctx, req, KindNoLink, "no checkout link returned")
	}

	if result.URL != "" {
		// Enrich the recovery slot so a reload can resume this link.
		i.sess.SetRecovery(RecoveryPayload{
			PlanID:       req.PlanID,
			Installments: req.Installments,
			PaymentType:  req.PaymentType,
			Timestamp:    i.Now().UnixMilli(),
			ProcessID:    req.ProcessID,
			PaymentLink:  result.URL,
		})
		i.sess.SetLastPaymentURL(result.URL)
	}
	if result.CustomerID != "" {
		i.sess.SetCustomerID(result.CustomerID)
	}

	i.setState(StateSuccess)
	i.Sleep(ctx, i.RedirectDelay)
	i.setState(StateRedirecting)
	return Outcome{State: StateRedirecting, RedirectTo: target, PaymentID: result.ID}
}

func (i *Initiator) fail(ctx context.Context, req SessionRequest, kind Kind, raw string) Outcome {
	i.log.Warn("checkout failed",
		zap.String("plan_id", req.PlanID),
		zap.String("user_id", req.UserID),
		zap.String("kind", string(kind)),
		zap.String("error", raw))
	i.setState(StateError)
	i.Sleep(ctx, i.ErrorReset)
	i.setState(StateIdle)
	n := NoticeFor(kind)
	return Outcome{State: StateError, Notice: &n}
}
