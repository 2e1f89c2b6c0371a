package events

import (
	"time"

	"github.com/spec-kit/ticket-autopilot/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventRunStarted    EventType = "run_started"
	EventNodeCompleted EventType = "node_completed"
	EventRunCompleted  EventType = "run_completed"
	EventRunFailed     EventType = "run_failed"
)

// Event represents an automation event emitted while processing a ticket.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	RunID     string      `json:"run_id"`
	TicketID  int64       `json:"ticket_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// RunStartedPayload payload.
type RunStartedPayload struct {
	Graph string `json:"graph"`
	Title string `json:"title"`
}

// NodeCompletedPayload payload.
type NodeCompletedPayload struct {
	Node       string `json:"node"`
	Next       string `json:"next"`
	Step       int    `json:"step"`
	DurationMS int64  `json:"duration_ms"`
}

// RunCompletedPayload payload.
type RunCompletedPayload struct {
	FinalStatus domain.FinalStatus `json:"final_status"`
	Summary     string             `json:"summary,omitempty"`
}

// RunFailedPayload payload.
type RunFailedPayload struct {
	Node  string `json:"node,omitempty"`
	Error string `json:"error"`
}
