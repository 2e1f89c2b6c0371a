package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-autopilot/internal/domain"
)

// Deps bundles the collaborators the pipeline nodes call out to.
type Deps struct {
	Classifier Classifier
	Directory  Directory
	Notifier   Notifier
	Store      TicketStore
	Logger     *zap.Logger

	// CallTimeout bounds each collaborator call. Zero disables the bound.
	CallTimeout time.Duration

	// MaxSteps overrides the executor's iteration cap. Zero keeps the
	// engine default.
	MaxSteps int
}

// pipeline holds the node implementations. One pipeline value backs a
// compiled graph; it carries no per-run data.
type pipeline struct {
	deps Deps
}

func (p *pipeline) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.deps.CallTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, p.deps.CallTimeout)
}

func (p *pipeline) log() *zap.Logger {
	if p.deps.Logger == nil {
		return zap.NewNop()
	}
	return p.deps.Logger
}

// classifyIntent infers what the requester is asking for. On classifier
// fault the intent defaults to out_of_scope with the fault text preserved
// as detail, and the run continues.
func (p *pipeline) classifyIntent(ctx context.Context, s State) (State, error) {
	cctx, cancel := p.callCtx(ctx)
	defer cancel()

	intent, details, err := p.deps.Classifier.ClassifyIntent(cctx, s.Ticket.Title, s.Ticket.Description)
	if err != nil {
		p.log().Warn("intent classification unavailable, defaulting to out_of_scope",
			zap.Int64("ticket_id", s.Ticket.ID), zap.Error(err))
		s.Classification = &domain.Classification{Intent: domain.IntentOutOfScope, Details: err.Error()}
		return s, nil
	}
	s.Classification = &domain.Classification{Intent: intent, Details: details}
	return s, nil
}

// extractSystem identifies the affected system, defaulting to Unknown on
// classifier fault.
func (p *pipeline) extractSystem(ctx context.Context, s State) (State, error) {
	cctx, cancel := p.callCtx(ctx)
	defer cancel()

	system, err := p.deps.Classifier.ExtractSystem(cctx, s.Ticket.Title, s.Ticket.Description)
	if err != nil {
		p.log().Warn("system extraction unavailable, defaulting to Unknown",
			zap.Int64("ticket_id", s.Ticket.ID), zap.Error(err))
		s.System = domain.SystemUnknown
		return s, nil
	}
	s.System = system
	return s, nil
}

// analyzePriority grades business impact and resolution difficulty,
// defaulting to medium/moderate on classifier fault.
func (p *pipeline) analyzePriority(ctx context.Context, s State) (State, error) {
	cctx, cancel := p.callCtx(ctx)
	defer cancel()

	triage, err := p.deps.Classifier.AssessPriority(cctx, s.Ticket)
	if err != nil {
		p.log().Warn("priority assessment unavailable, defaulting to medium/moderate",
			zap.Int64("ticket_id", s.Ticket.ID), zap.Error(err))
		s.Triage = &domain.Triage{
			Priority:      domain.PriorityMedium,
			Complexity:    domain.ComplexityModerate,
			Justification: "automatic triage unavailable",
		}
		return s, nil
	}
	s.Triage = &triage
	return s, nil
}

// automatableIntents is the deterministic eligibility table applied when
// the classifier cannot judge automation capability. The playbook covers
// unlocks and credential resets; everything else needs a human.
var automatableIntents = map[domain.Intent]bool{
	domain.IntentLoginEmail:    true,
	domain.IntentLoginAzure:    true,
	domain.IntentLoginWindows:  true,
	domain.IntentAccountLocked: true,
	domain.IntentPasswordReset: true,
}

// fallbackEligibility is the local policy table keyed by intent.
func fallbackEligibility(intent domain.Intent) domain.Eligibility {
	if automatableIntents[intent] {
		return domain.Eligibility{
			CanAutomate: true,
			Reason:      "account unlock and credential reset are covered by the playbook",
		}
	}
	return domain.Eligibility{
		CanAutomate: false,
		Reason:      "requires manual analysis",
	}
}

// checkEligibility decides whether the playbook may handle the ticket,
// falling back to the deterministic intent table when the classifier is
// unavailable.
func (p *pipeline) checkEligibility(ctx context.Context, s State) (State, error) {
	if s.Classification == nil {
		return s, errors.New("classification missing from state")
	}

	cctx, cancel := p.callCtx(ctx)
	defer cancel()

	eligibility, err := p.deps.Classifier.AssessAutomation(cctx, s.Ticket, s.Classification.Intent)
	if err != nil {
		p.log().Warn("automation assessment unavailable, using intent policy table",
			zap.Int64("ticket_id", s.Ticket.ID), zap.Error(err))
		fallback := fallbackEligibility(s.Classification.Intent)
		s.Eligibility = &fallback
		return s, nil
	}
	s.Eligibility = &eligibility
	return s, nil
}

// getUserInfo resolves the requester's directory profile. There is no safe
// default for a missing identity, so a directory fault fails the run.
func (p *pipeline) getUserInfo(ctx context.Context, s State) (State, error) {
	cctx, cancel := p.callCtx(ctx)
	defer cancel()

	user, err := p.deps.Directory.GetUser(cctx, s.Ticket.Requester)
	if err != nil {
		return s, fmt.Errorf("resolve requester %q: %w", s.Ticket.Requester, err)
	}
	s.UserInfo = &user
	return s, nil
}

// diagnose analyses symptoms against the resolved identity, defaulting to a
// low-confidence generic diagnosis on classifier fault.
func (p *pipeline) diagnose(ctx context.Context, s State) (State, error) {
	if s.UserInfo == nil {
		return s, errors.New("user info missing from state")
	}

	cctx, cancel := p.callCtx(ctx)
	defer cancel()

	diagnosis, err := p.deps.Classifier.Diagnose(cctx, s.Ticket, s.System, s.UserInfo)
	if err != nil {
		p.log().Warn("diagnosis unavailable, recording low-confidence default",
			zap.Int64("ticket_id", s.Ticket.ID), zap.Error(err))
		s.Diagnosis = &domain.Diagnosis{
			Summary:          "automatic diagnosis unavailable",
			SuggestedActions: []string{"forward to manual analysis"},
			Confidence:       domain.ConfidenceLow,
		}
		return s, nil
	}
	s.Diagnosis = &diagnosis
	return s, nil
}
