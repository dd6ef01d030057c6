package checkout

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRecoveryRoundTrip(t *testing.T) {
	sess := NewSession(NewMemoryStore())

	in := RecoveryPayload{
		PlanID:       "consultoria_pro",
		Installments: 6,
		PaymentType:  "card",
		Timestamp:    time.Now().UnixMilli(),
		ProcessID:    "proc-123",
		PaymentLink:  "https://pay/abc",
	}
	sess.SetRecovery(in)

	out, ok := sess.Recovery()
	require.True(t, ok)
	assert.Equal(t, in.PlanID, out.PlanID)
	assert.Equal(t, in.Installments, out.Installments)
	assert.Equal(t, in.PaymentType, out.PaymentType)
	assert.Equal(t, in.PaymentLink, out.PaymentLink)
}

func TestSessionRecoveryMalformedJSONReadsAsAbsent(t *testing.T) {
	store := NewMemoryStore()
	store.Set(KeyRecoveryState, "{not json")

	sess := NewSession(store)
	_, ok := sess.Recovery()
	assert.False(t, ok)
}

func TestSessionAttemptMalformedTimestampReadsAsAbsent(t *testing.T) {
	store := NewMemoryStore()
	store.Set(KeyTimestamp, "yesterday")
	store.Set(KeyAttempts, "2")

	sess := NewSession(store)
	_, ok := sess.Attempt()
	assert.False(t, ok)
}

func TestSessionAttemptMalformedCounterDefaultsToOne(t *testing.T) {
	store := NewMemoryStore()
	store.Set(KeyTimestamp, "1700000000000")
	store.Set(KeyAttempts, "many")

	sess := NewSession(store)
	a, ok := sess.Attempt()
	require.True(t, ok)
	assert.Equal(t, 1, a.Count)
}

func TestSessionSnapshot(t *testing.T) {
	sess := NewSession(NewMemoryStore())
	sess.SetAttempt(Attempt{PlanID: "consultoria_pro", Installments: 6, PaymentType: "card", Timestamp: time.Now(), Count: 2})
	sess.SetRecovery(RecoveryPayload{PlanID: "consultoria_pro", Timestamp: time.Now().UnixMilli(), ProcessID: "proc-1"})
	sess.SetLastPaymentURL("https://pay/abc")
	sess.SetCustomerID("cus_1")

	snap := sess.Snapshot()
	require.True(t, snap.HasAttempt)
	require.True(t, snap.HasRecovery)
	assert.Equal(t, 2, snap.Attempt.Count)
	assert.Equal(t, "proc-1", snap.Recovery.ProcessID)
	assert.Equal(t, "https://pay/abc", snap.LastPaymentURL)
	assert.Equal(t, "cus_1", snap.CustomerID)
}

func TestClaimRecoverySingleWinner(t *testing.T) {
	sess := NewSession(NewMemoryStore())
	sess.SetRecovery(RecoveryPayload{
		PlanID:    "consultoria_pro",
		Timestamp: time.Now().UnixMilli(),
		ProcessID: "proc-1",
	})

	_, claimed, ok := sess.ClaimRecovery()
	require.True(t, ok)
	assert.True(t, claimed)

	_, claimed, ok = sess.ClaimRecovery()
	require.True(t, ok)
	assert.False(t, claimed, "second claim must lose the CAS")
}

func TestSetRecoveryResetsClaim(t *testing.T) {
	sess := NewSession(NewMemoryStore())
	sess.SetRecovery(RecoveryPayload{PlanID: "p", Timestamp: time.Now().UnixMilli(), ProcessID: "a"})
	_, claimed, _ := sess.ClaimRecovery()
	require.True(t, claimed)

	// A fresh payload opens a fresh claim slot.
	sess.SetRecovery(RecoveryPayload{PlanID: "p", Timestamp: time.Now().UnixMilli(), ProcessID: "b"})
	_, claimed, ok := sess.ClaimRecovery()
	require.True(t, ok)
	assert.True(t, claimed)
}
