package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/spec-kit/ticket-autopilot/internal/domain"
	"github.com/spec-kit/ticket-autopilot/pkg/util"
)

// MemoryStore keeps tickets in process memory. It backs the offline
// runner and the test suites; semantics match the Postgres store.
type MemoryStore struct {
	mu       sync.Mutex
	nextID   int64
	tickets  map[int64]domain.Ticket
	comments map[int64][]Comment
	actions  map[int64][]ActionLogEntry
}

// NewMemory returns an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		nextID:   1,
		tickets:  make(map[int64]domain.Ticket),
		comments: make(map[int64][]Comment),
		actions:  make(map[int64][]ActionLogEntry),
	}
}

type seedTicket struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Requester     string `json:"requester"`
	RequesterName string `json:"requester_name"`
	Manager       string `json:"manager"`
	Status        string `json:"status"`
}

// LoadSeed reads a JSON ticket fixture file and inserts its tickets.
// Missing statuses default to OPEN.
func (m *MemoryStore) LoadSeed(path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read seed file: %w", err)
	}
	var seeds []seedTicket
	if err := json.Unmarshal(raw, &seeds); err != nil {
		return 0, fmt.Errorf("parse seed file: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	for _, s := range seeds {
		id := s.ID
		if id == 0 {
			id = m.nextID
		}
		if id >= m.nextID {
			m.nextID = id + 1
		}
		status := domain.TicketStatus(s.Status)
		if status == "" {
			status = domain.TicketStatusOpen
		}
		m.tickets[id] = domain.Ticket{
			ID:            id,
			Title:         s.Title,
			Description:   s.Description,
			Requester:     s.Requester,
			RequesterName: s.RequesterName,
			Manager:       s.Manager,
			Status:        status,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
	}
	return len(seeds), nil
}

func (m *MemoryStore) GetTicket(_ context.Context, id int64) (domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tickets[id]
	if !ok {
		return domain.Ticket{}, util.NewNotFound(fmt.Sprintf("ticket %d", id), nil)
	}
	return t, nil
}

func (m *MemoryStore) ListOpenTickets(_ context.Context) ([]domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var open []domain.Ticket
	for _, t := range m.tickets {
		if t.Status == domain.TicketStatusOpen {
			open = append(open, t)
		}
	}
	sort.Slice(open, func(i, j int) bool { return open[i].ID < open[j].ID })
	return open, nil
}

func (m *MemoryStore) CreateTicket(_ context.Context, t *domain.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.ID = m.nextID
	m.nextID++
	if t.Status == "" {
		t.Status = domain.TicketStatusOpen
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	m.tickets[t.ID] = *t
	return nil
}

func (m *MemoryStore) AppendComment(_ context.Context, ticketID int64, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tickets[ticketID]; !ok {
		return util.NewNotFound(fmt.Sprintf("ticket %d", ticketID), nil)
	}
	m.comments[ticketID] = append(m.comments[ticketID], Comment{
		ID:        int64(len(m.comments[ticketID]) + 1),
		TicketID:  ticketID,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	})
	return nil
}

func (m *MemoryStore) SetStatus(_ context.Context, ticketID int64, status domain.TicketStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tickets[ticketID]
	if !ok {
		return util.NewNotFound(fmt.Sprintf("ticket %d", ticketID), nil)
	}
	t.Status = status
	t.UpdatedAt = time.Now().UTC()
	m.tickets[ticketID] = t
	return nil
}

func (m *MemoryStore) AppendActionLog(_ context.Context, ticketID int64, action string, details map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tickets[ticketID]; !ok {
		return util.NewNotFound(fmt.Sprintf("ticket %d", ticketID), nil)
	}
	m.actions[ticketID] = append(m.actions[ticketID], ActionLogEntry{
		ID:        int64(len(m.actions[ticketID]) + 1),
		TicketID:  ticketID,
		Action:    action,
		Details:   details,
		CreatedAt: time.Now().UTC(),
	})
	return nil
}

// CommentsFor returns a copy of the comments on a ticket.
func (m *MemoryStore) CommentsFor(ticketID int64) []Comment {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Comment, len(m.comments[ticketID]))
	copy(out, m.comments[ticketID])
	return out
}

// ActionsFor returns a copy of the action log of a ticket.
func (m *MemoryStore) ActionsFor(ticketID int64) []ActionLogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ActionLogEntry, len(m.actions[ticketID]))
	copy(out, m.actions[ticketID])
	return out
}

// StatusOf returns the current status of a ticket, or the empty string.
func (m *MemoryStore) StatusOf(ticketID int64) domain.TicketStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tickets[ticketID].Status
}
