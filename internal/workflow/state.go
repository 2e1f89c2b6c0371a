// Package workflow defines the ticket automation pipeline: the state record
// threaded through it, the collaborator contracts it calls out to, the nine
// pipeline nodes, and the graph definition that wires them together.
package workflow

import "github.com/spec-kit/ticket-autopilot/internal/domain"

// State is the per-run record threaded through the pipeline. It starts with
// just the ticket and accumulates one sub-record per stage. Evolution is
// append-only: a node sets the fields of its own stage and never clears a
// field written by an earlier node. Pointer fields double as presence
// markers for node preconditions.
type State struct {
	Ticket domain.Ticket

	Classification *domain.Classification
	System         domain.SystemKind
	Triage         *domain.Triage
	Eligibility    *domain.Eligibility
	UserInfo       *domain.UserInfo
	Diagnosis      *domain.Diagnosis

	ActionsPerformed []string
	PlaybookResult   *domain.PlaybookResult

	FinalStatus       domain.FinalStatus
	ResolutionSummary string
	ErrorMessage      string
}

// NewState seeds a fresh run record for one ticket.
func NewState(t domain.Ticket) State {
	return State{Ticket: t}
}

// Clone returns an independent copy so each node operates on an isolated
// value. Sub-records are copied, not shared.
func (s State) Clone() State {
	out := s
	if s.Classification != nil {
		c := *s.Classification
		out.Classification = &c
	}
	if s.Triage != nil {
		t := *s.Triage
		out.Triage = &t
	}
	if s.Eligibility != nil {
		e := *s.Eligibility
		out.Eligibility = &e
	}
	if s.UserInfo != nil {
		u := *s.UserInfo
		out.UserInfo = &u
	}
	if s.Diagnosis != nil {
		d := *s.Diagnosis
		d.SuggestedActions = append([]string(nil), s.Diagnosis.SuggestedActions...)
		out.Diagnosis = &d
	}
	if s.ActionsPerformed != nil {
		out.ActionsPerformed = append([]string(nil), s.ActionsPerformed...)
	}
	if s.PlaybookResult != nil {
		p := *s.PlaybookResult
		p.Actions = append([]domain.ActionResult(nil), s.PlaybookResult.Actions...)
		out.PlaybookResult = &p
	}
	return out
}
