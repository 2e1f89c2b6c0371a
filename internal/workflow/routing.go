package workflow

import "github.com/spec-kit/ticket-autopilot/internal/engine"

// Routes out of check_eligibility, the pipeline's only branch point.
const (
	RouteProceed  engine.Route = "proceed"
	RouteEscalate engine.Route = "escalate"
)

// routeAfterEligibility sends automatable tickets into the remediation
// branch and everything else straight to escalation.
func routeAfterEligibility(s State) engine.Route {
	if s.Eligibility != nil && s.Eligibility.CanAutomate {
		return RouteProceed
	}
	return RouteEscalate
}
