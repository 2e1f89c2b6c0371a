package observability

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-autopilot/internal/engine"
	"github.com/spec-kit/ticket-autopilot/internal/events"
)

// Recorder observes pipeline transitions, feeding the log, the node
// metrics, and the event bus. It holds no per-run state and is safe for
// concurrent runs.
type Recorder struct {
	logger     *zap.Logger
	metrics    *Metrics
	dispatcher events.Dispatcher
}

// NewRecorder builds a transition observer. metrics and dispatcher may be
// nil when the deployment does not carry them.
func NewRecorder(logger *zap.Logger, metrics *Metrics, dispatcher events.Dispatcher) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{logger: logger, metrics: metrics, dispatcher: dispatcher}
}

// ObserveTransition implements engine.Observer.
func (r *Recorder) ObserveTransition(tr engine.Transition) {
	fields := []zap.Field{
		zap.String("run_id", tr.RunID),
		zap.String("graph", tr.Graph),
		zap.String("node", tr.Node),
		zap.String("next", tr.Next),
		zap.Int("step", tr.Step),
		zap.Duration("duration", tr.Duration),
	}
	if tr.Err != nil {
		r.logger.Error("node faulted", append(fields, zap.Error(tr.Err))...)
	} else {
		r.logger.Info("node completed", fields...)
	}

	r.metrics.RecordNode(tr.Node, tr.Duration, tr.Err != nil)

	if r.dispatcher != nil && tr.Err == nil {
		_ = r.dispatcher.Publish(context.Background(), events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventNodeCompleted,
			RunID:     tr.RunID,
			Timestamp: time.Now().UTC(),
			Payload: events.NodeCompletedPayload{
				Node:       tr.Node,
				Next:       tr.Next,
				Step:       tr.Step,
				DurationMS: tr.Duration.Milliseconds(),
			},
		})
	}
}
