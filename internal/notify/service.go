// Package notify delivers ticket outcome notices to requesters, managers,
// and the support team. Message text comes from a pluggable composer with
// deterministic template fallbacks.
package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-autopilot/internal/domain"
	"github.com/spec-kit/ticket-autopilot/pkg/util"
)

// Message is one outbound notice.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer is the delivery transport. Implementations return a collaborator
// fault when the notice could not be handed off.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer writes notices to the log instead of delivering them. Default
// transport for development and the demo runner.
type LogMailer struct {
	Logger *zap.Logger
}

func (m LogMailer) Send(_ context.Context, msg Message) error {
	logger := m.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("notification delivered",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("body_bytes", len(msg.Body)))
	return nil
}

// Composer produces the subject and body of a notice. The classifier
// satisfies this; a nil composer means plain templates.
type Composer interface {
	ComposeNotification(ctx context.Context, kind domain.RecipientKind, t domain.Ticket, nctx domain.NoticeContext) (subject, body string, err error)
}

// Service sends the pipeline's resolution and escalation notices. A failed
// composition falls back to the static templates; only a failed delivery
// surfaces as an error.
type Service struct {
	mailer    Mailer
	composer  Composer
	teamInbox string
	logger    *zap.Logger
}

// NewService builds a notifier over the given transport. composer may be
// nil; teamInbox is where team escalations land.
func NewService(mailer Mailer, composer Composer, teamInbox string, logger *zap.Logger) *Service {
	if teamInbox == "" {
		teamInbox = "support-team@company.example"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{mailer: mailer, composer: composer, teamInbox: teamInbox, logger: logger}
}

func (s *Service) ResolutionToUser(ctx context.Context, t domain.Ticket, nctx domain.NoticeContext) error {
	nctx.Status = "resolved"
	return s.send(ctx, domain.RecipientUser, t.Requester, t, nctx)
}

func (s *Service) ResolutionToManager(ctx context.Context, t domain.Ticket, nctx domain.NoticeContext) error {
	nctx.Status = "resolved"
	return s.send(ctx, domain.RecipientManager, t.Manager, t, nctx)
}

func (s *Service) EscalationToUser(ctx context.Context, t domain.Ticket, nctx domain.NoticeContext) error {
	nctx.Status = "escalated"
	return s.send(ctx, domain.RecipientUser, t.Requester, t, nctx)
}

func (s *Service) EscalationToManager(ctx context.Context, t domain.Ticket, nctx domain.NoticeContext) error {
	nctx.Status = "escalated"
	return s.send(ctx, domain.RecipientManager, t.Manager, t, nctx)
}

func (s *Service) EscalationToTeam(ctx context.Context, t domain.Ticket, reason string) error {
	nctx := domain.NoticeContext{Status: "escalated", Reason: reason, Team: s.teamInbox}
	return s.send(ctx, domain.RecipientTeam, s.teamInbox, t, nctx)
}

func (s *Service) send(ctx context.Context, kind domain.RecipientKind, to string, t domain.Ticket, nctx domain.NoticeContext) error {
	if to == "" {
		return util.NewFault("notifier", "send", fmt.Errorf("no %s address on ticket %d", kind, t.ID))
	}

	subject, body := s.compose(ctx, kind, t, nctx)
	if err := s.mailer.Send(ctx, Message{To: to, Subject: subject, Body: body}); err != nil {
		return util.NewFault("notifier", "send", err)
	}
	return nil
}

func (s *Service) compose(ctx context.Context, kind domain.RecipientKind, t domain.Ticket, nctx domain.NoticeContext) (string, string) {
	if s.composer != nil {
		subject, body, err := s.composer.ComposeNotification(ctx, kind, t, nctx)
		if err == nil && subject != "" && body != "" {
			return subject, body
		}
		if err != nil {
			s.logger.Warn("notice composition failed, using template",
				zap.Int64("ticket_id", t.ID),
				zap.String("recipient_kind", string(kind)),
				zap.Error(err))
		}
	}
	return Compose(kind, t, nctx)
}
