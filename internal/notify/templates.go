package notify

import (
	"fmt"

	"github.com/spec-kit/ticket-autopilot/internal/domain"
)

// Compose renders the static notification templates used when no smarter
// composer is available. Deterministic: same inputs, same message.
func Compose(kind domain.RecipientKind, t domain.Ticket, nctx domain.NoticeContext) (subject, body string) {
	switch kind {
	case domain.RecipientUser:
		return composeForUser(t, nctx)
	case domain.RecipientManager:
		return composeForManager(t, nctx)
	case domain.RecipientTeam:
		return composeForTeam(t, nctx)
	default:
		return fmt.Sprintf("Ticket #%d - update", t.ID), fmt.Sprintf("Your ticket %q has been updated.", t.Title)
	}
}

func composeForUser(t domain.Ticket, nctx domain.NoticeContext) (string, string) {
	if nctx.Status == "resolved" {
		subject := fmt.Sprintf("Ticket #%d - issue resolved", t.ID)
		body := fmt.Sprintf(`Hello,

Your support ticket was resolved automatically.

TICKET DETAILS:
- ID: #%d
- Status: resolved

ACTIONS PERFORMED:
%s
`, t.ID, orDefault(nctx.ActionsSummary, "Resolution actions completed successfully."))
		if nctx.TempCredential != "" {
			body += fmt.Sprintf("\nTemporary credential: %s\nPlease change it at first login.\n", nctx.TempCredential)
		}
		body += "\nIf you are still having trouble, please open a new ticket.\n\nRegards,\nAutomated Support"
		return subject, body
	}

	subject := fmt.Sprintf("Ticket #%d - escalated for review", t.ID)
	body := fmt.Sprintf(`Hello,

Your support ticket was analyzed and needs specialist attention.

TICKET DETAILS:
- ID: #%d
- Status: escalated to the support team

INFORMATION:
%s

The support team will contact you shortly.

Regards,
Automated Support`, t.ID, orDefault(nctx.Reason, "Your ticket is being reviewed by the support team."))
	return subject, body
}

func composeForManager(t domain.Ticket, nctx domain.NoticeContext) (string, string) {
	requester := t.RequesterName
	if requester == "" {
		requester = t.Requester
	}
	if nctx.Status == "resolved" {
		subject := fmt.Sprintf("Notification: ticket #%d resolved for %s", t.ID, requester)
		body := fmt.Sprintf(`Hello,

The support ticket opened by %s was resolved automatically.

DETAILS:
- Ticket ID: #%d
- Requester: %s
- Status: resolved automatically

ACTIONS PERFORMED:
%s

This message is informational; no action is required.

Regards,
Automated Support`, requester, t.ID, requester, orDefault(nctx.ActionsSummary, "Resolution actions completed."))
		return subject, body
	}

	subject := fmt.Sprintf("Notification: ticket #%d escalated - %s", t.ID, requester)
	body := fmt.Sprintf(`Hello,

The support ticket opened by %s was escalated for manual analysis.

DETAILS:
- Ticket ID: #%d
- Requester: %s
- Status: escalated to the support team

INFORMATION:
%s

The support team is aware and will take the necessary action.
This message is informational; no action is required.

Regards,
Automated Support`, requester, t.ID, requester, orDefault(nctx.Reason, "Escalated for specialist analysis.")) //nolint:lll
	return subject, body
}

func composeForTeam(t domain.Ticket, nctx domain.NoticeContext) (string, string) {
	team := orDefault(nctx.Team, "support team")
	subject := fmt.Sprintf("Ticket #%d - escalated to %s", t.ID, team)
	body := fmt.Sprintf(`TICKET ESCALATION

Ticket ID: #%d
Escalated to: %s

ESCALATION REASON:
%s

Please review and take appropriate action.

Automated Support`, t.ID, team, orDefault(nctx.Reason, "No reason recorded."))
	return subject, body
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
