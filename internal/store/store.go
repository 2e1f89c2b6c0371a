// Package store persists tickets, their comments, and the automation
// action log. Postgres backs production; an in-memory implementation backs
// tests and the offline runner.
package store

import (
	"context"
	"time"

	"github.com/spec-kit/ticket-autopilot/internal/domain"
)

// Comment is one note appended to a ticket.
type Comment struct {
	ID        int64
	TicketID  int64
	Body      string
	CreatedAt time.Time
}

// ActionLogEntry records one automation action taken on a ticket.
type ActionLogEntry struct {
	ID        int64
	TicketID  int64
	Action    string
	Details   map[string]any
	CreatedAt time.Time
}

// Store encapsulates ticket persistence. It is a superset of the slice the
// pipeline nodes write through.
type Store interface {
	GetTicket(ctx context.Context, id int64) (domain.Ticket, error)
	ListOpenTickets(ctx context.Context) ([]domain.Ticket, error)
	CreateTicket(ctx context.Context, t *domain.Ticket) error
	AppendComment(ctx context.Context, ticketID int64, body string) error
	SetStatus(ctx context.Context, ticketID int64, status domain.TicketStatus) error
	AppendActionLog(ctx context.Context, ticketID int64, action string, details map[string]any) error
}
