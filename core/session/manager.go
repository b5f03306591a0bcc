package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/adalundhe/llcguide/core/conversation"
	"github.com/adalundhe/llcguide/core/transcript"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Recorder persists a finished turn
type Recorder interface {
	Record(ctx context.Context, turn transcript.Turn) error
}

const (
	DefaultMaxSessions = 1024
	DefaultIdleTimeout = 30 * time.Minute
)

// =============================================================================
// Session Manager
// =============================================================================

// ManagerConfig configures the session manager
type ManagerConfig struct {
	// Engine runs turns (required)
	Engine TurnProcessor

	// MaxSessions bounds live sessions; the least recently used one is
	// evicted when a new session would exceed it (default: 1024)
	MaxSessions int

	// IdleTimeout expires sessions left untouched this long (default: 30m).
	// A negative value disables expiry.
	IdleTimeout time.Duration

	// Recorder receives every turn (optional)
	Recorder Recorder

	Logger *slog.Logger     // Optional, uses slog.Default() if nil
	Clock  func() time.Time // Optional, uses time.Now if nil
}

// Manager manages the lifecycle of conversation sessions
type Manager struct {
	cache *lru.Cache[string, *Session]

	engine      TurnProcessor
	idleTimeout time.Duration
	recorder    Recorder
	logger      *slog.Logger
	now         func() time.Time

	handlersMu sync.RWMutex
	handlers   []EventHandler

	closed atomic.Bool
}

// NewManager creates a session manager
func NewManager(cfg ManagerConfig) (*Manager, error) {
	if cfg.Engine == nil {
		return nil, errors.New("session manager: engine is required")
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = DefaultMaxSessions
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	m := &Manager{
		engine:      cfg.Engine,
		idleTimeout: cfg.IdleTimeout,
		recorder:    cfg.Recorder,
		logger:      cfg.Logger.With("component", "session"),
		now:         cfg.Clock,
	}

	cache, err := lru.NewWithEvict(cfg.MaxSessions, m.onEvict)
	if err != nil {
		return nil, fmt.Errorf("session manager: %w", err)
	}
	m.cache = cache
	return m, nil
}

// onEvict fires for every removal from the cache, explicit or not. Sessions
// without an end reason were pushed out by capacity.
func (m *Manager) onEvict(id string, s *Session) {
	s.markEnded(EventEvicted)
	reason, _ := s.ended()
	if reason == EventEvicted {
		m.logger.Info("session evicted", "session_id", id)
	}
	m.emitEvent(&Event{Type: reason, SessionID: id, Timestamp: m.now()})
}

// Create starts a new session at the initial stage
func (m *Manager) Create() (*Session, error) {
	if m.closed.Load() {
		return nil, ErrManagerClosed
	}

	s := newSession(uuid.NewString(), m.now())
	m.cache.Add(s.id, s)

	m.logger.Debug("session created", "session_id", s.id)
	m.emitEvent(&Event{Type: EventCreated, SessionID: s.id, Timestamp: s.createdAt})
	return s, nil
}

// Get returns a live session. A session idle past the timeout is dropped
// and reported as expired.
func (m *Manager) Get(id string) (*Session, error) {
	if m.closed.Load() {
		return nil, ErrManagerClosed
	}

	s, ok := m.cache.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	now := m.now()
	if m.expired(s, now) {
		m.drop(s, EventExpired)
		return nil, ErrSessionExpired
	}
	s.touch(now)
	return s, nil
}

// Send runs one turn in a session. The session lock is held for the whole
// turn so a session never processes two inputs at once.
func (m *Manager) Send(ctx context.Context, id, input string, extra conversation.Info) (*conversation.Response, error) {
	s, err := m.Get(id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// the session may have ended while this call waited for the lock
	if reason, ended := s.ended(); ended {
		if reason == EventExpired {
			return nil, ErrSessionExpired
		}
		return nil, ErrSessionNotFound
	}

	before := s.state.Stage()
	resp, err := m.engine.ProcessInput(ctx, s.state, input, extra)
	now := m.now()
	s.touch(now)
	if err == nil {
		s.turns++
	}

	m.record(ctx, s, transcriptTurn(s, input, before, resp, err, now))

	if err != nil {
		m.logger.Warn("turn failed",
			"session_id", s.id,
			"stage", before.String(),
			"error", err,
		)
		return nil, err
	}
	return resp, nil
}

func transcriptTurn(s *Session, input string, before conversation.Stage, resp *conversation.Response, err error, now time.Time) transcript.Turn {
	turn := transcript.Turn{
		SessionID:   s.id,
		Input:       input,
		StageBefore: before.String(),
		StageAfter:  s.state.Stage().String(),
		Agent:       s.state.CurrentAgent(),
		Time:        now,
	}
	if resp != nil {
		turn.Reply = resp.Message
	}
	if err != nil {
		turn.Error = err.Error()
	}
	return turn
}

// record hands a turn to the recorder. A recorder failure never fails the
// turn.
func (m *Manager) record(ctx context.Context, s *Session, turn transcript.Turn) {
	if m.recorder == nil {
		return
	}
	if err := m.recorder.Record(context.WithoutCancel(ctx), turn); err != nil {
		m.logger.Warn("failed to record turn", "session_id", s.id, "error", err)
	}
}

// Close ends a session
func (m *Manager) Close(id string) error {
	if m.closed.Load() {
		return ErrManagerClosed
	}

	s, ok := m.cache.Peek(id)
	if !ok {
		return ErrSessionNotFound
	}
	if !m.drop(s, EventClosed) {
		return ErrSessionNotFound
	}
	return nil
}

// drop removes s from the cache with the given reason. It reports whether
// the session was still present.
func (m *Manager) drop(s *Session, reason EventType) bool {
	s.markEnded(reason)
	return m.cache.Remove(s.id)
}

// Len returns the number of live sessions
func (m *Manager) Len() int {
	return m.cache.Len()
}

// =============================================================================
// Expiry
// =============================================================================

func (m *Manager) expired(s *Session, now time.Time) bool {
	return m.idleTimeout > 0 && s.idleSince(now) > m.idleTimeout
}

// ExpireIdle drops every session idle past the timeout and returns how many
// were dropped.
func (m *Manager) ExpireIdle() int {
	if m.closed.Load() {
		return 0
	}

	now := m.now()
	dropped := 0
	for _, id := range m.cache.Keys() {
		s, ok := m.cache.Peek(id)
		if !ok || !m.expired(s, now) {
			continue
		}
		if m.drop(s, EventExpired) {
			dropped++
		}
	}
	if dropped > 0 {
		m.logger.Info("expired idle sessions", "count", dropped)
	}
	return dropped
}

// StartJanitor runs ExpireIdle every interval until ctx is done
func (m *Manager) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.ExpireIdle()
			}
		}
	}()
}

// Shutdown closes every session and rejects further calls
func (m *Manager) Shutdown() {
	if !m.closed.CompareAndSwap(false, true) {
		return
	}
	for _, id := range m.cache.Keys() {
		if s, ok := m.cache.Peek(id); ok {
			s.markEnded(EventClosed)
		}
	}
	m.cache.Purge()
}

// =============================================================================
// Event Handling
// =============================================================================

// Subscribe registers an event handler and returns its unsubscribe func
func (m *Manager) Subscribe(handler EventHandler) func() {
	m.handlersMu.Lock()
	m.handlers = append(m.handlers, handler)
	index := len(m.handlers) - 1
	m.handlersMu.Unlock()

	return func() {
		m.handlersMu.Lock()
		defer m.handlersMu.Unlock()
		if index < len(m.handlers) {
			m.handlers[index] = nil
		}
	}
}

// emitEvent emits an event to all handlers
func (m *Manager) emitEvent(event *Event) {
	m.handlersMu.RLock()
	handlers := make([]EventHandler, len(m.handlers))
	copy(handlers, m.handlers)
	m.handlersMu.RUnlock()

	for _, handler := range handlers {
		if handler != nil {
			go handler(event)
		}
	}
}
