package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen              TicketStatus = "OPEN"
	TicketStatusInProgress        TicketStatus = "IN_PROGRESS"
	TicketStatusResolved          TicketStatus = "RESOLVED"
	TicketStatusEscalated         TicketStatus = "ESCALATED"
	TicketStatusEscalatedAutoFail TicketStatus = "ESCALATED_AUTOMATION_ERROR"
	TicketStatusClosed            TicketStatus = "CLOSED"
)

// Ticket is the support request record handed to the automation pipeline.
// The store owns the original; the pipeline works on a copy.
type Ticket struct {
	ID            int64
	Title         string
	Description   string
	Requester     string
	RequesterName string
	Manager       string
	Status        TicketStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// HasManager reports whether a manager is on record for the requester.
func (t Ticket) HasManager() bool {
	return t.Manager != ""
}
