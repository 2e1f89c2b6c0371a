// Package service orchestrates automation runs over stored tickets.
package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-autopilot/internal/domain"
	"github.com/spec-kit/ticket-autopilot/internal/engine"
	"github.com/spec-kit/ticket-autopilot/internal/events"
	"github.com/spec-kit/ticket-autopilot/internal/observability"
	"github.com/spec-kit/ticket-autopilot/internal/store"
	"github.com/spec-kit/ticket-autopilot/internal/workflow"
)

// Deps bundles the automation service collaborators.
type Deps struct {
	Store      store.Store
	Executor   *engine.Executor[workflow.State]
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	Workers    int
}

// RunReport summarizes one automation run for callers.
type RunReport struct {
	TicketID    int64
	FinalStatus domain.FinalStatus
	Summary     string
	Error       string
	Duration    time.Duration
}

// AutomationService runs the ticket pipeline against stored tickets,
// one run per ticket, and fans batches out over a bounded worker pool.
type AutomationService struct {
	deps Deps
}

// NewAutomationService constructs the service.
func NewAutomationService(deps Deps) *AutomationService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Workers <= 0 {
		deps.Workers = 4
	}
	return &AutomationService{deps: deps}
}

// ProcessTicket loads one ticket and runs the pipeline over it. An engine
// fault is reported, not returned: the error return is reserved for the
// ticket being unloadable.
func (s *AutomationService) ProcessTicket(ctx context.Context, ticketID int64) (RunReport, error) {
	t, err := s.deps.Store.GetTicket(ctx, ticketID)
	if err != nil {
		return RunReport{}, err
	}
	return s.run(ctx, t), nil
}

// ProcessOpenTickets runs the pipeline over every OPEN ticket. One ticket
// faulting never stops the batch; reports come back ordered by ticket ID.
func (s *AutomationService) ProcessOpenTickets(ctx context.Context) ([]RunReport, error) {
	tickets, err := s.deps.Store.ListOpenTickets(ctx)
	if err != nil {
		return nil, err
	}
	if len(tickets) == 0 {
		return nil, nil
	}

	s.deps.Logger.Info("processing open tickets",
		zap.Int("count", len(tickets)),
		zap.Int("workers", s.deps.Workers))

	jobs := make(chan domain.Ticket)
	results := make(chan RunReport, len(tickets))

	var wg sync.WaitGroup
	for i := 0; i < s.deps.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range jobs {
				results <- s.run(ctx, t)
			}
		}()
	}

	for _, t := range tickets {
		jobs <- t
	}
	close(jobs)
	wg.Wait()
	close(results)

	reports := make([]RunReport, 0, len(tickets))
	for r := range results {
		reports = append(reports, r)
	}
	sort.Slice(reports, func(i, j int) bool { return reports[i].TicketID < reports[j].TicketID })
	return reports, nil
}

func (s *AutomationService) run(ctx context.Context, t domain.Ticket) RunReport {
	runID := uuid.NewString()
	s.publish(ctx, events.EventRunStarted, runID, t.ID, events.RunStartedPayload{
		Graph: s.deps.Executor.Name(),
		Title: t.Title,
	})

	started := time.Now()
	final, err := s.deps.Executor.Run(ctx, workflow.NewState(t))
	report := RunReport{TicketID: t.ID, Duration: time.Since(started)}

	if err != nil {
		report.Error = err.Error()
		s.deps.Metrics.RecordRun("engine_fault")
		s.deps.Logger.Error("automation run faulted",
			zap.Int64("ticket_id", t.ID), zap.Error(err))
		s.publish(ctx, events.EventRunFailed, runID, t.ID, events.RunFailedPayload{
			Node:  faultNode(err),
			Error: err.Error(),
		})
		return report
	}

	report.FinalStatus = final.FinalStatus
	report.Summary = final.ResolutionSummary
	if final.FinalStatus == domain.FinalEscalatedAutomationError {
		report.Error = final.ErrorMessage
	}
	s.deps.Metrics.RecordRun(string(final.FinalStatus))
	s.deps.Logger.Info("automation run completed",
		zap.Int64("ticket_id", t.ID),
		zap.String("final_status", string(final.FinalStatus)),
		zap.Duration("duration", report.Duration))
	s.publish(ctx, events.EventRunCompleted, runID, t.ID, events.RunCompletedPayload{
		FinalStatus: final.FinalStatus,
		Summary:     final.ResolutionSummary,
	})
	return report
}

func (s *AutomationService) publish(ctx context.Context, typ events.EventType, runID string, ticketID int64, payload any) {
	if s.deps.Dispatcher == nil {
		return
	}
	_ = s.deps.Dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      typ,
		RunID:     runID,
		TicketID:  ticketID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	})
}

func faultNode(err error) string {
	var nf *engine.NodeFaultError
	if errors.As(err, &nf) {
		return nf.Node
	}
	return ""
}
