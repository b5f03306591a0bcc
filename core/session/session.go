package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/adalundhe/llcguide/core/conversation"
)

// =============================================================================
// Session
// =============================================================================

// Session owns one conversation state. Turns against it are serialised by
// the session mutex; nothing else ever touches the state.
type Session struct {
	mu sync.Mutex

	id        string
	createdAt time.Time
	state     *conversation.State
	turns     int

	lastActive atomic.Int64 // unix nanoseconds
	endReason  atomic.Int32 // EventType+1 once the manager drops the session
}

func newSession(id string, now time.Time) *Session {
	s := &Session{
		id:        id,
		createdAt: now,
		state:     conversation.NewState(),
	}
	s.touch(now)
	return s
}

// ID returns the session identifier
func (s *Session) ID() string {
	return s.id
}

// CreatedAt returns when the session was created
func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

// LastActive returns the time of the last turn or lookup
func (s *Session) LastActive() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

func (s *Session) touch(now time.Time) {
	s.lastActive.Store(now.UnixNano())
}

func (s *Session) idleSince(now time.Time) time.Duration {
	return now.Sub(s.LastActive())
}

// markEnded records why the session left the manager. Only the first reason
// sticks.
func (s *Session) markEnded(reason EventType) {
	s.endReason.CompareAndSwap(0, int32(reason)+1)
}

func (s *Session) ended() (EventType, bool) {
	v := s.endReason.Load()
	if v == 0 {
		return 0, false
	}
	return EventType(v - 1), true
}

// Snapshot is a serialisable view of a session
type Snapshot struct {
	ID         string    `json:"session_id"`
	CreatedAt  time.Time `json:"created_at"`
	LastActive time.Time `json:"last_active"`
	Turns      int       `json:"turns"`
	conversation.Snapshot
}

// Snapshot copies the session under its lock, so it never observes a
// half-applied turn.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		ID:         s.id,
		CreatedAt:  s.createdAt,
		LastActive: s.LastActive(),
		Turns:      s.turns,
		Snapshot:   s.state.Snapshot(),
	}
}

// TurnProcessor runs one conversation turn against a state
type TurnProcessor interface {
	ProcessInput(ctx context.Context, st *conversation.State, input string, extra conversation.Info) (*conversation.Response, error)
}
