package workflow

import "github.com/spec-kit/ticket-autopilot/internal/engine"

// GraphName identifies the compiled ticket pipeline in transition records
// and DOT exports.
const GraphName = "ticket_automation"

// Node names as they appear in transition records and faults.
const (
	NodeClassifyIntent   = "classify_intent"
	NodeExtractSystem    = "extract_system"
	NodeAnalyzePriority  = "analyze_priority"
	NodeCheckEligibility = "check_eligibility"
	NodeGetUserInfo      = "get_user_info"
	NodeDiagnose         = "diagnose"
	NodeExecutePlaybook  = "execute_playbook"
	NodeNotifyAndUpdate  = "notify_and_update"
	NodeEscalate         = "escalate"
)

// Definition compiles the ticket automation pipeline:
//
//	classify_intent -> extract_system -> analyze_priority -> check_eligibility
//	  proceed:  get_user_info -> diagnose -> execute_playbook -> notify_and_update -> end
//	  escalate: escalate -> end
//
// The returned executor holds no per-run data and may process many tickets
// concurrently; the collaborators in deps must be safe for concurrent use.
func Definition(deps Deps, observers ...engine.Observer) (*engine.Executor[State], error) {
	p := &pipeline{deps: deps}

	b := engine.NewBuilder[State](GraphName).
		AddNode(NodeClassifyIntent, engine.NodeFunc[State](p.classifyIntent)).
		AddNode(NodeExtractSystem, engine.NodeFunc[State](p.extractSystem)).
		AddNode(NodeAnalyzePriority, engine.NodeFunc[State](p.analyzePriority)).
		AddNode(NodeCheckEligibility, engine.NodeFunc[State](p.checkEligibility)).
		AddNode(NodeGetUserInfo, engine.NodeFunc[State](p.getUserInfo)).
		AddNode(NodeDiagnose, engine.NodeFunc[State](p.diagnose)).
		AddNode(NodeExecutePlaybook, engine.NodeFunc[State](p.executePlaybook)).
		AddNode(NodeNotifyAndUpdate, engine.NodeFunc[State](p.notifyAndUpdate)).
		AddNode(NodeEscalate, engine.NodeFunc[State](p.escalate)).
		SetEntry(NodeClassifyIntent).
		AddEdge(NodeClassifyIntent, NodeExtractSystem).
		AddEdge(NodeExtractSystem, NodeAnalyzePriority).
		AddEdge(NodeAnalyzePriority, NodeCheckEligibility).
		AddConditionalEdge(NodeCheckEligibility, routeAfterEligibility, map[engine.Route]string{
			RouteProceed:  NodeGetUserInfo,
			RouteEscalate: NodeEscalate,
		}).
		AddEdge(NodeGetUserInfo, NodeDiagnose).
		AddEdge(NodeDiagnose, NodeExecutePlaybook).
		AddEdge(NodeExecutePlaybook, NodeNotifyAndUpdate).
		AddEdge(NodeNotifyAndUpdate, engine.End).
		AddEdge(NodeEscalate, engine.End)

	if deps.MaxSteps > 0 {
		b.WithMaxSteps(deps.MaxSteps)
	}
	for _, o := range observers {
		b.WithObserver(o)
	}
	return b.Compile()
}
