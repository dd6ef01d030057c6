package checkout

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResolver(now time.Time) *Resolver {
	r := NewResolver(30 * time.Minute)
	r.Now = func() time.Time { return now }
	return r
}

func seedRecovery(sess *Session, planID string, age time.Duration, link string, now time.Time) {
	sess.SetRecovery(RecoveryPayload{
		PlanID:      planID,
		Timestamp:   now.Add(-age).UnixMilli(),
		ProcessID:   "proc-1",
		PaymentLink: link,
	})
}

func TestResolveRecoversFreshPayload(t *testing.T) {
	now := time.Now()
	r := newTestResolver(now)
	sess := NewSession(NewMemoryStore())
	seedRecovery(sess, "X", 10*time.Minute, "https://pay/abc", now)

	res := r.Resolve(sess, "X")
	require.True(t, res.Recovered)
	assert.Equal(t, "https://pay/abc", res.PaymentLink)
	assert.True(t, res.Claimed)
	assert.Equal(t, "https://pay/abc", sess.LastPaymentURL())
}

func TestResolveIgnoresExpiredPayload(t *testing.T) {
	now := time.Now()
	r := newTestResolver(now)
	sess := NewSession(NewMemoryStore())
	seedRecovery(sess, "X", 40*time.Minute, "https://pay/abc", now)

	res := r.Resolve(sess, "X")
	assert.False(t, res.Recovered)
	assert.Empty(t, sess.LastPaymentURL())
}

func TestResolveIgnoresOtherPlan(t *testing.T) {
	now := time.Now()
	r := newTestResolver(now)
	sess := NewSession(NewMemoryStore())
	seedRecovery(sess, "X", 5*time.Minute, "https://pay/abc", now)

	res := r.Resolve(sess, "Y")
	assert.False(t, res.Recovered)
}

func TestResolveIgnoresPayloadWithoutLink(t *testing.T) {
	now := time.Now()
	r := newTestResolver(now)
	sess := NewSession(NewMemoryStore())
	seedRecovery(sess, "X", 5*time.Minute, "", now)

	res := r.Resolve(sess, "X")
	assert.False(t, res.Recovered)
}

func TestResolveSecondCallerLosesClaimButStillRedirects(t *testing.T) {
	now := time.Now()
	r := newTestResolver(now)
	sess := NewSession(NewMemoryStore())
	seedRecovery(sess, "X", 5*time.Minute, "https://pay/abc", now)

	first := r.Resolve(sess, "X")
	require.True(t, first.Recovered)
	require.True(t, first.Claimed)

	second := r.Resolve(sess, "X")
	assert.True(t, second.Recovered, "racing caller still redirects")
	assert.False(t, second.Claimed, "but produces no side effects")
	assert.Equal(t, first.PaymentLink, second.PaymentLink)
}
