package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-autopilot/internal/domain"
)

// notifyAndUpdate closes out an automated run: it records the outcome on
// the ticket, notifies the requester (and manager, when on record), and
// stamps the terminal status. Notification delivery failures are non-fatal:
// they are logged as a ticket comment and never change the final status.
// Ticket store failures fault the run: an outcome that cannot be
// recorded is not an outcome.
func (p *pipeline) notifyAndUpdate(ctx context.Context, s State) (State, error) {
	if s.PlaybookResult == nil {
		return s, errors.New("playbook result missing from state")
	}
	if s.PlaybookResult.OK {
		return p.closeResolved(ctx, s)
	}
	return p.closeAutomationError(ctx, s)
}

func (p *pipeline) closeResolved(ctx context.Context, s State) (State, error) {
	summary := bulletList(s.ActionsPerformed)
	if s.PlaybookResult.TempCredential != "" {
		summary += fmt.Sprintf("\n\nTemporary credential: %s\nPlease change it at first login.", s.PlaybookResult.TempCredential)
	}

	comment := fmt.Sprintf("Ticket resolved automatically.\n\nACTIONS PERFORMED:\n%s", summary)
	if err := p.deps.Store.AppendComment(ctx, s.Ticket.ID, comment); err != nil {
		return s, fmt.Errorf("record resolution comment: %w", err)
	}
	if err := p.deps.Store.SetStatus(ctx, s.Ticket.ID, domain.TicketStatusResolved); err != nil {
		return s, fmt.Errorf("set resolved status: %w", err)
	}

	nctx := domain.NoticeContext{
		Status:         "resolved",
		ActionsSummary: summary,
		TempCredential: s.PlaybookResult.TempCredential,
	}
	if err := p.deps.Notifier.ResolutionToUser(ctx, s.Ticket, nctx); err != nil {
		p.noteDeliveryFailure(ctx, s.Ticket, s.Ticket.Requester, err)
	}
	if s.Ticket.HasManager() {
		if err := p.deps.Notifier.ResolutionToManager(ctx, s.Ticket, nctx); err != nil {
			p.noteDeliveryFailure(ctx, s.Ticket, s.Ticket.Manager, err)
		}
	}

	p.appendActionLog(ctx, s.Ticket.ID, "automatic_resolution", map[string]any{
		"actions":                s.ActionsPerformed,
		"temp_credential_issued": s.PlaybookResult.TempCredential != "",
	})

	s.FinalStatus = domain.FinalResolved
	s.ResolutionSummary = summary
	return s, nil
}

func (p *pipeline) closeAutomationError(ctx context.Context, s State) (State, error) {
	errMsg := s.PlaybookResult.Error
	if errMsg == "" {
		errMsg = "unknown playbook error"
	}

	comment := fmt.Sprintf("Automated resolution attempt failed.\n\nERROR: %s\n\nThe ticket was escalated for manual analysis.", errMsg)
	if err := p.deps.Store.AppendComment(ctx, s.Ticket.ID, comment); err != nil {
		return s, fmt.Errorf("record failure comment: %w", err)
	}
	if err := p.deps.Store.SetStatus(ctx, s.Ticket.ID, domain.TicketStatusEscalatedAutoFail); err != nil {
		return s, fmt.Errorf("set escalated status: %w", err)
	}

	nctx := domain.NoticeContext{
		Status: "escalated",
		Reason: fmt.Sprintf("automation attempt failed: %s", errMsg),
	}
	if err := p.deps.Notifier.EscalationToUser(ctx, s.Ticket, nctx); err != nil {
		p.noteDeliveryFailure(ctx, s.Ticket, s.Ticket.Requester, err)
	}
	if s.Ticket.HasManager() {
		if err := p.deps.Notifier.EscalationToManager(ctx, s.Ticket, nctx); err != nil {
			p.noteDeliveryFailure(ctx, s.Ticket, s.Ticket.Manager, err)
		}
	}
	if err := p.deps.Notifier.EscalationToTeam(ctx, s.Ticket, nctx.Reason); err != nil {
		p.log().Warn("team escalation notice failed",
			zap.Int64("ticket_id", s.Ticket.ID), zap.Error(err))
	}

	s.FinalStatus = domain.FinalEscalatedAutomationError
	s.ErrorMessage = errMsg
	return s, nil
}

// escalate hands a non-automatable ticket to humans, documenting why and
// what to look at next. Same notification policy as notifyAndUpdate.
func (p *pipeline) escalate(ctx context.Context, s State) (State, error) {
	if s.Classification == nil {
		return s, errors.New("classification missing from state")
	}
	reason := "reason not recorded"
	if s.Eligibility != nil && s.Eligibility.Reason != "" {
		reason = s.Eligibility.Reason
	}
	intent := s.Classification.Intent

	details := fmt.Sprintf(
		"Ticket is not automatable and needs manual attention.\n\nANALYSIS:\n- identified intent: %s\n- reason: %s\n\nRECOMMENDATIONS:\n%s",
		intent, reason, escalationRecommendations(intent))

	if err := p.deps.Store.AppendComment(ctx, s.Ticket.ID, details); err != nil {
		return s, fmt.Errorf("record escalation comment: %w", err)
	}
	if err := p.deps.Store.SetStatus(ctx, s.Ticket.ID, domain.TicketStatusEscalated); err != nil {
		return s, fmt.Errorf("set escalated status: %w", err)
	}

	nctx := domain.NoticeContext{Status: "escalated", Reason: reason}
	if err := p.deps.Notifier.EscalationToUser(ctx, s.Ticket, nctx); err != nil {
		p.noteDeliveryFailure(ctx, s.Ticket, s.Ticket.Requester, err)
	}
	if s.Ticket.HasManager() {
		if err := p.deps.Notifier.EscalationToManager(ctx, s.Ticket, nctx); err != nil {
			p.noteDeliveryFailure(ctx, s.Ticket, s.Ticket.Manager, err)
		}
	}
	if err := p.deps.Notifier.EscalationToTeam(ctx, s.Ticket, details); err != nil {
		p.log().Warn("team escalation notice failed",
			zap.Int64("ticket_id", s.Ticket.ID), zap.Error(err))
	}

	p.appendActionLog(ctx, s.Ticket.ID, "automatic_escalation", map[string]any{
		"intent": string(intent),
		"reason": reason,
	})

	s.FinalStatus = domain.FinalEscalatedNotAutomatable
	s.ResolutionSummary = details
	return s, nil
}

func escalationRecommendations(intent domain.Intent) string {
	switch intent {
	case domain.IntentVPNAccess:
		return "- check VPN configuration\n- validate network connectivity\n- review connection logs"
	case domain.IntentSystemAccess:
		return "- validate required permissions\n- obtain manager approval\n- configure the specific access"
	default:
		return "- detailed analysis required\n- may need specialist intervention"
	}
}

// noteDeliveryFailure logs a failed notice and leaves a trace on the
// ticket. The comment itself is best-effort.
func (p *pipeline) noteDeliveryFailure(ctx context.Context, t domain.Ticket, recipient string, cause error) {
	p.log().Warn("notification delivery failed",
		zap.Int64("ticket_id", t.ID),
		zap.String("recipient", recipient),
		zap.Error(cause))
	warning := fmt.Sprintf("WARNING: could not deliver notification to %s", recipient)
	if err := p.deps.Store.AppendComment(ctx, t.ID, warning); err != nil {
		p.log().Warn("could not record delivery warning",
			zap.Int64("ticket_id", t.ID), zap.Error(err))
	}
}

func (p *pipeline) appendActionLog(ctx context.Context, ticketID int64, action string, details map[string]any) {
	if err := p.deps.Store.AppendActionLog(ctx, ticketID, action, details); err != nil {
		p.log().Warn("could not append action log",
			zap.Int64("ticket_id", ticketID),
			zap.String("action", action),
			zap.Error(err))
	}
}

func bulletList(items []string) string {
	if len(items) == 0 {
		return "- no actions recorded"
	}
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = "- " + item
	}
	return strings.Join(lines, "\n")
}
