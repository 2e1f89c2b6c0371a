package workflow

import (
	"context"

	"github.com/spec-kit/ticket-autopilot/internal/domain"
)

// Classifier is the natural-language analysis collaborator. Implementations
// return a collaborator fault on unavailability; the node calling each
// method owns the documented default applied on fault.
type Classifier interface {
	ClassifyIntent(ctx context.Context, title, description string) (domain.Intent, string, error)
	ExtractSystem(ctx context.Context, title, description string) (domain.SystemKind, error)
	AssessPriority(ctx context.Context, t domain.Ticket) (domain.Triage, error)
	AssessAutomation(ctx context.Context, t domain.Ticket, intent domain.Intent) (domain.Eligibility, error)
	Diagnose(ctx context.Context, t domain.Ticket, system domain.SystemKind, user *domain.UserInfo) (domain.Diagnosis, error)
	ComposeNotification(ctx context.Context, kind domain.RecipientKind, t domain.Ticket, nctx domain.NoticeContext) (subject, body string, err error)
}

// Directory is the identity collaborator handling account lookups and
// credential operations.
type Directory interface {
	GetUser(ctx context.Context, identifier string) (domain.UserInfo, error)
	IsLocked(ctx context.Context, userID string) (bool, error)
	Unlock(ctx context.Context, userID string, system domain.SystemKind) (domain.ActionResult, error)
	ResetPassword(ctx context.Context, userID string, system domain.SystemKind) (domain.ActionResult, string, error)
	VerifyUnlocked(ctx context.Context, userID string, system domain.SystemKind) (bool, error)
	GrantAccess(ctx context.Context, userID string, system domain.SystemKind) (domain.ActionResult, error)
}

// Notifier delivers resolution and escalation notices. Delivery failures
// during terminal nodes are non-fatal by contract: nodes log them to the
// ticket store and keep the final status they already decided on.
type Notifier interface {
	ResolutionToUser(ctx context.Context, t domain.Ticket, nctx domain.NoticeContext) error
	ResolutionToManager(ctx context.Context, t domain.Ticket, nctx domain.NoticeContext) error
	EscalationToUser(ctx context.Context, t domain.Ticket, nctx domain.NoticeContext) error
	EscalationToManager(ctx context.Context, t domain.Ticket, nctx domain.NoticeContext) error
	EscalationToTeam(ctx context.Context, t domain.Ticket, reason string) error
}

// TicketStore is the slice of the ticket store the pipeline nodes write to.
type TicketStore interface {
	AppendComment(ctx context.Context, ticketID int64, body string) error
	SetStatus(ctx context.Context, ticketID int64, status domain.TicketStatus) error
	AppendActionLog(ctx context.Context, ticketID int64, action string, details map[string]any) error
}
