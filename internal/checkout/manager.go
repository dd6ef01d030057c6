package checkout

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Options collects the tunables the manager hands every initiator.
type Options struct {
	ThrottleWindow time.Duration
	MinInterval    time.Duration
	MaxAttempts    int
	RecoveryWindow time.Duration
	RedirectDelay  time.Duration
}

// StoreFactory opens the Store backing one session.
type StoreFactory func(sessionID string) Store

// Manager owns one Initiator per session, so the at-most-one-in-flight
// contract is keyed by session rather than per HTTP request.
type Manager struct {
	mu         sync.Mutex
	initiators map[string]*Initiator

	opts    Options
	stores  StoreFactory
	creator SessionCreator
	log     *zap.Logger
}

func NewManager(opts Options, stores StoreFactory, creator SessionCreator, log *zap.Logger) *Manager {
	return &Manager{
		initiators: make(map[string]*Initiator),
		opts:       opts,
		stores:     stores,
		creator:    creator,
		log:        log,
	}
}

// ForSession returns the session's initiator, creating it on first use.
func (m *Manager) ForSession(sessionID string) *Initiator {
	m.mu.Lock()
	defer m.mu.Unlock()

	if init, ok := m.initiators[sessionID]; ok {
		return init
	}

	sess := NewSession(m.stores(sessionID))
	guard := NewGuard(m.opts.ThrottleWindow, m.opts.MinInterval, m.opts.MaxAttempts)
	resolver := NewResolver(m.opts.RecoveryWindow)

	init := NewInitiator(sess, guard, resolver, m.creator, m.log.With(zap.String("session_id", sessionID)))
	if m.opts.RedirectDelay > 0 {
		init.RedirectDelay = m.opts.RedirectDelay
	}
	m.initiators[sessionID] = init
	return init
}
