package checkout

import "time"

// Resolver decides whether a checkout request can resume a previously created
// payment link instead of opening a new gateway session.
type Resolver struct {
	// Window is how long a recovery payload stays eligible.
	Window time.Duration

	Now func() time.Time
}

func NewResolver(window time.Duration) *Resolver {
	return &Resolver{Window: window, Now: time.Now}
}

// Resolution reports the outcome of a recovery check.
type Resolution struct {
	Recovered   bool
	PaymentLink string
	// Claimed is false when a concurrent caller won the claim; the link is
	// still returned but side effects were skipped.
	Claimed bool
}

// Resolve inspects the session's recovery payload. The payload is eligible
// only when its plan matches the request and it is younger than the window.
// An eligible payload with a payment link short-circuits the checkout: the
// link is persisted as the last payment URL and the caller must redirect
// instead of creating a new session. The claim over the slot is a
// compare-and-swap, so two racing callers produce one set of side effects.
func (r *Resolver) Resolve(sess *Session, planID string) Resolution {
	p, ok := sess.Recovery()
	if !ok {
		return Resolution{}
	}
	if p.PlanID != planID {
		return Resolution{}
	}
	if r.Now().Sub(time.UnixMilli(p.Timestamp)) >= r.Window {
		return Resolution{}
	}
	if p.PaymentLink == "" {
		return Resolution{}
	}

	claimed, ok := r.claim(sess)
	if !ok {
		return Resolution{}
	}
	if claimed {
		sess.SetLastPaymentURL(p.PaymentLink)
	}
	return Resolution{Recovered: true, PaymentLink: p.PaymentLink, Claimed: claimed}
}

func (r *Resolver) claim(sess *Session) (claimed, ok bool) {
	_, claimed, ok = sess.ClaimRecovery()
	return claimed, ok
}
