package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-autopilot/internal/domain"
	"github.com/spec-kit/ticket-autopilot/pkg/util"
)

type postgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgres instantiates the Postgres-backed ticket store.
func NewPostgres(pool *pgxpool.Pool) Store {
	return &postgresStore{pool: pool}
}

func (s *postgresStore) GetTicket(ctx context.Context, id int64) (domain.Ticket, error) {
	const query = `
        SELECT id, title, description, requester, requester_name, manager, status, created_at, updated_at
        FROM tickets WHERE id=$1`
	var t domain.Ticket
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&t.ID,
		&t.Title,
		&t.Description,
		&t.Requester,
		&t.RequesterName,
		&t.Manager,
		&t.Status,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Ticket{}, util.NewNotFound(fmt.Sprintf("ticket %d", id), nil)
	}
	if err != nil {
		return domain.Ticket{}, util.NewFault("ticket_store", "get_ticket", err)
	}
	return t, nil
}

func (s *postgresStore) ListOpenTickets(ctx context.Context) ([]domain.Ticket, error) {
	const query = `
        SELECT id, title, description, requester, requester_name, manager, status, created_at, updated_at
        FROM tickets WHERE status=$1 ORDER BY id`
	rows, err := s.pool.Query(ctx, query, domain.TicketStatusOpen)
	if err != nil {
		return nil, util.NewFault("ticket_store", "list_open", err)
	}
	defer rows.Close()

	var tickets []domain.Ticket
	for rows.Next() {
		var t domain.Ticket
		if err := rows.Scan(
			&t.ID,
			&t.Title,
			&t.Description,
			&t.Requester,
			&t.RequesterName,
			&t.Manager,
			&t.Status,
			&t.CreatedAt,
			&t.UpdatedAt,
		); err != nil {
			return nil, util.NewFault("ticket_store", "list_open", err)
		}
		tickets = append(tickets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, util.NewFault("ticket_store", "list_open", err)
	}
	return tickets, nil
}

func (s *postgresStore) CreateTicket(ctx context.Context, t *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (title, description, requester, requester_name, manager, status)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	if t.Status == "" {
		t.Status = domain.TicketStatusOpen
	}
	err := s.pool.QueryRow(ctx, query,
		t.Title,
		t.Description,
		t.Requester,
		t.RequesterName,
		t.Manager,
		t.Status,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return util.NewFault("ticket_store", "create_ticket", err)
	}
	return nil
}

func (s *postgresStore) AppendComment(ctx context.Context, ticketID int64, body string) error {
	const query = `INSERT INTO ticket_comments (ticket_id, body) VALUES ($1,$2)`
	if _, err := s.pool.Exec(ctx, query, ticketID, body); err != nil {
		return util.NewFault("ticket_store", "append_comment", err)
	}
	return nil
}

func (s *postgresStore) SetStatus(ctx context.Context, ticketID int64, status domain.TicketStatus) error {
	const query = `UPDATE tickets SET status=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := s.pool.Exec(ctx, query, status, ticketID)
	if err != nil {
		return util.NewFault("ticket_store", "set_status", err)
	}
	if cmd.RowsAffected() == 0 {
		return util.NewNotFound(fmt.Sprintf("ticket %d", ticketID), nil)
	}
	return nil
}

func (s *postgresStore) AppendActionLog(ctx context.Context, ticketID int64, action string, details map[string]any) error {
	payload, err := json.Marshal(details)
	if err != nil {
		return util.NewFault("ticket_store", "append_action_log", err)
	}
	const query = `INSERT INTO ticket_action_log (ticket_id, action, details) VALUES ($1,$2,$3)`
	if _, err := s.pool.Exec(ctx, query, ticketID, action, payload); err != nil {
		return util.NewFault("ticket_store", "append_action_log", err)
	}
	return nil
}
