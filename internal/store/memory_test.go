package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-autopilot/internal/domain"
	"github.com/spec-kit/ticket-autopilot/pkg/util"
)

func TestMemoryStoreTicketLifecycle(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	tk := &domain.Ticket{Title: "Locked out", Requester: "jdoe@company.example"}
	require.NoError(t, m.CreateTicket(ctx, tk))
	assert.Equal(t, int64(1), tk.ID)
	assert.Equal(t, domain.TicketStatusOpen, tk.Status)

	got, err := m.GetTicket(ctx, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, "Locked out", got.Title)

	require.NoError(t, m.SetStatus(ctx, tk.ID, domain.TicketStatusResolved))
	assert.Equal(t, domain.TicketStatusResolved, m.StatusOf(tk.ID))

	require.NoError(t, m.AppendComment(ctx, tk.ID, "resolved automatically"))
	comments := m.CommentsFor(tk.ID)
	require.Len(t, comments, 1)
	assert.Equal(t, "resolved automatically", comments[0].Body)

	require.NoError(t, m.AppendActionLog(ctx, tk.ID, "automatic_resolution", map[string]any{"actions": 2}))
	actions := m.ActionsFor(tk.ID)
	require.Len(t, actions, 1)
	assert.Equal(t, "automatic_resolution", actions[0].Action)
}

func TestMemoryStoreUnknownTicket(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_, err := m.GetTicket(ctx, 99)
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", util.ToDomainError(err).Code)

	require.Error(t, m.SetStatus(ctx, 99, domain.TicketStatusResolved))
	require.Error(t, m.AppendComment(ctx, 99, "ghost"))
	require.Error(t, m.AppendActionLog(ctx, 99, "x", nil))
}

func TestListOpenTicketsFiltersAndSorts(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	for _, title := range []string{"b", "a", "c"} {
		require.NoError(t, m.CreateTicket(ctx, &domain.Ticket{Title: title, Requester: "x@y"}))
	}
	require.NoError(t, m.SetStatus(ctx, 2, domain.TicketStatusResolved))

	open, err := m.ListOpenTickets(ctx)
	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.Equal(t, int64(1), open[0].ID)
	assert.Equal(t, int64(3), open[1].ID)
}

func TestLoadSeed(t *testing.T) {
	seed := `[
  {"id": 10, "title": "Cannot log in", "description": "locked", "requester": "jdoe@company.example", "requester_name": "J Doe", "manager": "boss@company.example"},
  {"title": "VPN down", "requester": "maria@company.example", "status": "RESOLVED"}
]`
	path := filepath.Join(t.TempDir(), "tickets.json")
	require.NoError(t, os.WriteFile(path, []byte(seed), 0o600))

	m := NewMemory()
	n, err := m.LoadSeed(path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	first, err := m.GetTicket(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, "Cannot log in", first.Title)
	assert.Equal(t, domain.TicketStatusOpen, first.Status)

	second, err := m.GetTicket(context.Background(), 11)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusResolved, second.Status)

	// New tickets never reuse seeded IDs.
	tk := &domain.Ticket{Title: "fresh", Requester: "x@y"}
	require.NoError(t, m.CreateTicket(context.Background(), tk))
	assert.Equal(t, int64(12), tk.ID)
}

func TestLoadSeedRejectsBadFile(t *testing.T) {
	m := NewMemory()
	_, err := m.LoadSeed(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	_, err = m.LoadSeed(path)
	require.Error(t, err)
}
