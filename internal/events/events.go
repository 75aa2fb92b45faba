// Package events provides an event stream for run progress notifications.
package events

import "time"

// EventType represents the type of event
type EventType string

const (
	// EventPhaseStart is emitted when a load-test phase begins
	EventPhaseStart EventType = "phase_start"
	// EventPhaseComplete is emitted when a load-test phase finishes
	EventPhaseComplete EventType = "phase_complete"
	// EventProgress is emitted periodically while a batch is running
	EventProgress EventType = "progress"
	// EventInterrupted is emitted when the run is cancelled mid-flight
	EventInterrupted EventType = "interrupted"
)

// Event represents a progress notification from the runner
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Phase     string    `json:"phase"`
	Data      EventData `json:"data,omitempty"`
}

// EventData contains event-specific data
type EventData struct {
	Completed int     `json:"completed,omitempty"`
	Total     int     `json:"total,omitempty"`
	Rate      float64 `json:"rate,omitempty"`
	Message   string  `json:"message,omitempty"`
}

// NewPhaseStartEvent creates a phase start event
func NewPhaseStartEvent(phase string, total int) Event {
	return Event{
		Type:      EventPhaseStart,
		Timestamp: time.Now(),
		Phase:     phase,
		Data: EventData{
			Total: total,
		},
	}
}

// NewPhaseCompleteEvent creates a phase complete event
func NewPhaseCompleteEvent(phase string, completed int) Event {
	return Event{
		Type:      EventPhaseComplete,
		Timestamp: time.Now(),
		Phase:     phase,
		Data: EventData{
			Completed: completed,
		},
	}
}

// NewProgressEvent creates a progress event with the current throughput
func NewProgressEvent(phase string, completed, total int, rate float64) Event {
	return Event{
		Type:      EventProgress,
		Timestamp: time.Now(),
		Phase:     phase,
		Data: EventData{
			Completed: completed,
			Total:     total,
			Rate:      rate,
		},
	}
}

// NewInterruptedEvent creates an interruption event
func NewInterruptedEvent(phase string, message string) Event {
	return Event{
		Type:      EventInterrupted,
		Timestamp: time.Now(),
		Phase:     phase,
		Data: EventData{
			Message: message,
		},
	}
}
