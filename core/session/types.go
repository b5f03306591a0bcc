package session

import (
	"errors"
	"time"
)

// =============================================================================
// Events
// =============================================================================

// EventType represents the type of session event
type EventType int

const (
	EventCreated EventType = iota
	EventClosed
	EventEvicted
	EventExpired
)

// String returns the string representation of an event type
func (e EventType) String() string {
	return eventTypeStrings().name(e)
}

type eventTypeStringMap map[EventType]string

func eventTypeStrings() eventTypeStringMap {
	return eventTypeStringMap{
		EventCreated: "created",
		EventClosed:  "closed",
		EventEvicted: "evicted",
		EventExpired: "expired",
	}
}

func (m eventTypeStringMap) name(event EventType) string {
	if name, ok := m[event]; ok {
		return name
	}
	return "unknown"
}

// Event represents a session lifecycle event
type Event struct {
	Type      EventType
	SessionID string
	Timestamp time.Time
}

// EventHandler is a callback for session events. Handlers run on their own
// goroutine.
type EventHandler func(event *Event)

// =============================================================================
// Errors
// =============================================================================

var (
	// ErrSessionNotFound indicates the session was not found
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionExpired indicates the session sat idle past the idle timeout
	ErrSessionExpired = errors.New("session expired")

	// ErrManagerClosed indicates the session manager is closed
	ErrManagerClosed = errors.New("session manager is closed")
)
