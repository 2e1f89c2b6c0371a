package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-autopilot/internal/domain"
)

type captureMailer struct {
	sent []Message
	err  error
}

func (m *captureMailer) Send(_ context.Context, msg Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

type stubComposer struct {
	subject, body string
	err           error
}

func (s stubComposer) ComposeNotification(_ context.Context, _ domain.RecipientKind, _ domain.Ticket, _ domain.NoticeContext) (string, string, error) {
	return s.subject, s.body, s.err
}

func ticket() domain.Ticket {
	return domain.Ticket{
		ID:            42,
		Title:         "Locked out of Windows",
		Requester:     "jdoe@company.example",
		RequesterName: "J Doe",
		Manager:       "boss@company.example",
	}
}

func TestResolutionToUserUsesComposer(t *testing.T) {
	mailer := &captureMailer{}
	svc := NewService(mailer, stubComposer{subject: "all done", body: "resolved for you"}, "", nil)

	err := svc.ResolutionToUser(context.Background(), ticket(), domain.NoticeContext{})
	require.NoError(t, err)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "jdoe@company.example", mailer.sent[0].To)
	assert.Equal(t, "all done", mailer.sent[0].Subject)
}

func TestComposerFailureFallsBackToTemplate(t *testing.T) {
	mailer := &captureMailer{}
	svc := NewService(mailer, stubComposer{err: errors.New("model offline")}, "", nil)

	err := svc.ResolutionToUser(context.Background(), ticket(), domain.NoticeContext{TempCredential: "Xy12!abc"})
	require.NoError(t, err)
	require.Len(t, mailer.sent, 1)
	assert.Contains(t, mailer.sent[0].Subject, "#42")
	assert.Contains(t, mailer.sent[0].Body, "Xy12!abc")
}

func TestNilComposerUsesTemplates(t *testing.T) {
	mailer := &captureMailer{}
	svc := NewService(mailer, nil, "", nil)

	err := svc.EscalationToUser(context.Background(), ticket(), domain.NoticeContext{Reason: "needs a human"})
	require.NoError(t, err)
	require.Len(t, mailer.sent, 1)
	assert.Contains(t, mailer.sent[0].Body, "needs a human")
}

func TestEscalationToTeamTargetsTeamInbox(t *testing.T) {
	mailer := &captureMailer{}
	svc := NewService(mailer, nil, "l2@company.example", nil)

	err := svc.EscalationToTeam(context.Background(), ticket(), "vpn analysis required")
	require.NoError(t, err)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "l2@company.example", mailer.sent[0].To)
	assert.Contains(t, mailer.sent[0].Body, "vpn analysis required")
}

func TestManagerNoticeFailsWithoutAddress(t *testing.T) {
	mailer := &captureMailer{}
	svc := NewService(mailer, nil, "", nil)

	tk := ticket()
	tk.Manager = ""
	err := svc.ResolutionToManager(context.Background(), tk, domain.NoticeContext{})
	require.Error(t, err)
	assert.Empty(t, mailer.sent)
}

func TestDeliveryFailureSurfacesAsError(t *testing.T) {
	mailer := &captureMailer{err: errors.New("smtp down")}
	svc := NewService(mailer, nil, "", nil)

	err := svc.ResolutionToUser(context.Background(), ticket(), domain.NoticeContext{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp down")
}

func TestComposeTemplatesCoverEveryRecipient(t *testing.T) {
	nctx := domain.NoticeContext{
		Status:         "resolved",
		ActionsSummary: "- account unlocked",
		Team:           "l2@company.example",
	}
	for _, kind := range []domain.RecipientKind{
		domain.RecipientUser, domain.RecipientManager, domain.RecipientTeam,
	} {
		subject, body := Compose(kind, ticket(), nctx)
		assert.NotEmpty(t, subject, "kind %s", kind)
		assert.NotEmpty(t, body, "kind %s", kind)
		assert.Contains(t, subject, "#42")
	}
}
