package checkout

import "time"

// Guard is the throttle over repeated checkout attempts. It is pure over the
// session's stored timestamp and counter; the only side effect is writing the
// updated record back before an allow.
type Guard struct {
	// Window resets the counter once this much time passed since the last
	// allowed attempt.
	Window time.Duration
	// MinInterval denies attempts closer together than this.
	MinInterval time.Duration
	// MaxAttempts caps allowed attempts inside a window.
	MaxAttempts int

	Now func() time.Time
}

func NewGuard(window, minInterval time.Duration, maxAttempts int) *Guard {
	return &Guard{
		Window:      window,
		MinInterval: minInterval,
		MaxAttempts: maxAttempts,
		Now:         time.Now,
	}
}

// Decision is the guard's verdict. Kind is set only on deny.
type Decision struct {
	Allowed bool
	Kind    Kind
}

// Check decides whether a new attempt for the request may proceed. Malformed
// or missing stored state reads as "no prior attempt" and is allowed.
// Denials do not touch the stored timestamp, so the window is anchored at the
// last allowed attempt.
func (g *Guard) Check(sess *Session, planID string, installments int, paymentType string) Decision {
	now := g.Now()

	prev, ok := sess.Attempt()
	if !ok || now.Sub(prev.Timestamp) > g.Window {
		sess.SetAttempt(Attempt{
			PlanID:       planID,
			Installments: installments,
			PaymentType:  paymentType,
			Timestamp:    now,
			Count:        1,
		})
		return Decision{Allowed: true}
	}

	if prev.Count >= g.MaxAttempts {
		return Decision{Kind: KindThrottled}
	}

	if now.Sub(prev.Timestamp) < g.MinInterval {
		return Decision{Kind: KindWait}
	}

	sess.SetAttempt(Attempt{
		PlanID:       planID,
		Installments: installments,
		PaymentType:  paymentType,
		Timestamp:    now,
		Count:        prev.Count + 1,
	})
	return Decision{Allowed: true}
}
