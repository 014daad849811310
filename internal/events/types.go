// Package events provides the in-process event bus used for scan progress
// broadcasts and other system notifications.
package events

import (
	"time"
)

// EventType represents the type of event.
type EventType string

const (
	// Scan events
	EventScanStatus    EventType = "scan.status"
	EventScanStarted   EventType = "scan.started"
	EventScanCompleted EventType = "scan.completed"
	EventScanFailed    EventType = "scan.failed"
	EventScanTimedOut  EventType = "scan.timed_out"

	// System events
	EventSystemStarted EventType = "system.started"
	EventSystemStopped EventType = "system.stopped"

	// General events
	EventError   EventType = "error"
	EventWarning EventType = "warning"
	EventInfo    EventType = "info"
)

// Event represents a system event.
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Source    string                 `json:"source"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// NewSystemEvent creates an event originating from the system itself.
func NewSystemEvent(eventType EventType, title, message string) Event {
	return Event{
		Type:      eventType,
		Source:    "system",
		Title:     title,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// EventHandler is a function invoked for each matching event.
type EventHandler func(event Event)

// Subscription represents an active event subscription.
type Subscription struct {
	ID      string      `json:"id"`
	Types   []EventType `json:"types,omitempty"` // empty matches all
	Handler EventHandler
	Created time.Time `json:"created"`
}

func (s *Subscription) matches(event Event) bool {
	if len(s.Types) == 0 {
		return true
	}
	for _, t := range s.Types {
		if t == event.Type {
			return true
		}
	}
	return false
}
