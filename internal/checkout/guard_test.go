package checkout

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGuard(now *time.Time) *Guard {
	g := NewGuard(5*time.Minute, 15*time.Second, 3)
	g.Now = func() time.Time { return *now }
	return g
}

func TestGuardAllowsFirstAttempt(t *testing.T) {
	now := time.Now()
	g := newTestGuard(&now)
	sess := NewSession(NewMemoryStore())

	d := g.Check(sess, "plan-x", 1, "pix")
	assert.True(t, d.Allowed)

	a, ok := sess.Attempt()
	require.True(t, ok)
	assert.Equal(t, 1, a.Count)
	assert.Equal(t, "plan-x", a.PlanID)
}

func TestGuardDeniesWithinMinInterval(t *testing.T) {
	now := time.Now()
	g := newTestGuard(&now)
	sess := NewSession(NewMemoryStore())

	require.True(t, g.Check(sess, "plan-x", 1, "pix").Allowed)

	now = now.Add(5 * time.Second)
	d := g.Check(sess, "plan-x", 1, "pix")
	assert.False(t, d.Allowed)
	assert.Equal(t, KindWait, d.Kind)

	// The denial must not advance the throttle anchor: 16s after the
	// allowed attempt the next one goes through.
	now = now.Add(11 * time.Second)
	assert.True(t, g.Check(sess, "plan-x", 1, "pix").Allowed)
}

func TestGuardDeniesFourthAttemptInWindow(t *testing.T) {
	now := time.Now()
	g := newTestGuard(&now)
	sess := NewSession(NewMemoryStore())

	for i := 0; i < 3; i++ {
		require.True(t, g.Check(sess, "plan-x", 1, "pix").Allowed, "attempt %d", i+1)
		now = now.Add(20 * time.Second)
	}

	d := g.Check(sess, "plan-x", 1, "pix")
	assert.False(t, d.Allowed)
	assert.Equal(t, KindThrottled, d.Kind)

	// Still denied regardless of spacing until the window clears.
	now = now.Add(2 * time.Minute)
	d = g.Check(sess, "plan-x", 1, "pix")
	assert.False(t, d.Allowed)
	assert.Equal(t, KindThrottled, d.Kind)
}

func TestGuardResetsAfterWindow(t *testing.T) {
	now := time.Now()
	g := newTestGuard(&now)
	sess := NewSession(NewMemoryStore())

	for i := 0; i < 3; i++ {
		require.True(t, g.Check(sess, "plan-x", 1, "pix").Allowed)
		now = now.Add(20 * time.Second)
	}
	require.False(t, g.Check(sess, "plan-x", 1, "pix").Allowed)

	now = now.Add(5*time.Minute + time.Second)
	d := g.Check(sess, "plan-x", 1, "pix")
	assert.True(t, d.Allowed)

	a, _ := sess.Attempt()
	assert.Equal(t, 1, a.Count, "window expiry resets the counter")
}

func TestGuardFailsOpenOnMalformedState(t *testing.T) {
	now := time.Now()
	g := newTestGuard(&now)

	store := NewMemoryStore()
	store.Set(KeyTimestamp, "not-a-number")
	store.Set(KeyAttempts, "99")
	sess := NewSession(store)

	d := g.Check(sess, "plan-x", 1, "pix")
	assert.True(t, d.Allowed, "garbage state reads as no prior attempt")
}
