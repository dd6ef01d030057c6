package checkout

import (
	"encoding/json"
	"strconv"
	"sync"
	"time"
)

// Store keys. Values are always strings; JSON-valued keys must survive a
// parse failure by reading as absent.
const (
	KeyPlanID            = "checkoutPlanId"
	KeyInstallments      = "checkoutInstallments"
	KeyPaymentType       = "checkoutPaymentType"
	KeyTimestamp         = "checkoutTimestamp"
	KeyAttempts          = "checkoutAttempts"
	KeyRecoveryState     = "checkoutRecoveryState"
	KeyLastPaymentURL    = "lastPaymentUrl"
	KeyCustomerID        = "checkoutNetcredId"
	KeyRecoveryAttempted = "checkoutRecoveryAttempted"
)

// Store is a per-session key/value store for checkout state. Implementations
// must make CompareAndSwap atomic with respect to concurrent callers; an
// absent key compares equal to "".
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Delete(key string)
	CompareAndSwap(key, old, new string) bool
	Clear()
}

// MemoryStore is the in-process Store used for live sessions.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (s *MemoryStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok
}

func (s *MemoryStore) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
}

func (s *MemoryStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
}

func (s *MemoryStore) CompareAndSwap(key, old, new string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data[key] != old {
		return false
	}
	s.data[key] = new
	return true
}

func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string]string)
}

// Attempt is the throttle record for the most recent allowed checkout.
type Attempt struct {
	PlanID       string
	Installments int
	PaymentType  string
	Timestamp    time.Time
	Count        int
}

// RecoveryPayload lets a later request resume an already-created payment
// link instead of creating a duplicate session.
type RecoveryPayload struct {
	PlanID       string `json:"planId"`
	Installments int    `json:"installments"`
	PaymentType  string `json:"paymentType"`
	Timestamp    int64  `json:"timestamp"` // unix milliseconds
	ProcessID    string `json:"processId"`
	PaymentLink  string `json:"paymentLink,omitempty"`
}

// Session is the typed view over a Store. Malformed stored values read as
// absent rather than erroring.
type Session struct {
	store Store
}

func NewSession(store Store) *Session {
	return &Session{store: store}
}

func (s *Session) Attempt() (Attempt, bool) {
	ts, ok := s.store.Get(KeyTimestamp)
	if !ok {
		return Attempt{}, false
	}
	ms, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return Attempt{}, false
	}

	a := Attempt{Timestamp: time.UnixMilli(ms), Count: 1}
	if v, ok := s.store.Get(KeyAttempts); ok {
		if n, err := strconv.Atoi(v); err == nil {
			a.Count = n
		}
	}
	a.PlanID, _ = s.store.Get(KeyPlanID)
	a.PaymentType, _ = s.store.Get(KeyPaymentType)
	if v, ok := s.store.Get(KeyInstallments); ok {
		a.Installments, _ = strconv.Atoi(v)
	}
	return a, true
}

func (s *Session) SetAttempt(a Attempt) {
	s.store.Set(KeyPlanID, a.PlanID)
	s.store.Set(KeyInstallments, strconv.Itoa(a.Installments))
	s.store.Set(KeyPaymentType, a.PaymentType)
	s.store.Set(KeyTimestamp, strconv.FormatInt(a.Timestamp.UnixMilli(), 10))
	s.store.Set(KeyAttempts, strconv.Itoa(a.Count))
}

func (s *Session) Recovery() (RecoveryPayload, bool) {
	raw, ok := s.store.Get(KeyRecoveryState)
	if !ok || raw == "" {
		return RecoveryPayload{}, false
	}
	var p RecoveryPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return RecoveryPayload{}, false
	}
	if p.PlanID == "" {
		return RecoveryPayload{}, false
	}
	return p, true
}

func (s *Session) SetRecovery(p RecoveryPayload) {
	raw, err := json.Marshal(p)
	if err != nil {
		return
	}
	s.store.Set(KeyRecoveryState, string(raw))
	s.store.Delete(KeyRecoveryAttempted)
}

// ClaimRecovery atomically marks the current recovery slot as attempted.
// Only the first claimant for a given payload sees claimed=true; a racing
// second reader still gets the payload but must skip side effects.
func (s *Session) ClaimRecovery() (payload RecoveryPayload, claimed bool, ok bool) {
	p, ok := s.Recovery()
	if !ok {
		return RecoveryPayload{}, false, false
	}
	claimed = s.store.CompareAndSwap(KeyRecoveryAttempted, "", p.ProcessID)
	return p, claimed, true
}

func (s *Session) LastPaymentURL() string {
	v, _ := s.store.Get(KeyLastPaymentURL)
	return v
}

func (s *Session) SetLastPaymentURL(url string) {
	s.store.Set(KeyLastPaymentURL, url)
}

func (s *Session) CustomerID() string {
	v, _ := s.store.Get(KeyCustomerID)
	return v
}

func (s *Session) SetCustomerID(id string) {
	s.store.Set(KeyCustomerID, id)
}

func (s *Session) Clear() {
	s.store.Clear()
}

// Snapshot is a point-in-time typed view of everything the session stores,
// for diagnostics and support tooling.
type Snapshot struct {
	Attempt        Attempt
	HasAttempt     bool
	Recovery       RecoveryPayload
	HasRecovery    bool
	LastPaymentURL string
	CustomerID     string
}

func (s *Session) Snapshot() Snapshot {
	var snap Snapshot
	snap.Attempt, snap.HasAttempt = s.Attempt()
	snap.Recovery, snap.HasRecovery = s.Recovery()
	snap.LastPaymentURL = s.LastPaymentURL()
	snap.CustomerID = s.CustomerID()
	return snap
}
