// Package classify provides the natural-language analysis collaborator in
// two flavors: a chat-completion client for deployments with a language
// model endpoint, and a deterministic keyword heuristic for offline and
// test use. A Redis decorator caches the content-addressed calls.
package classify

import (
	"context"
	"fmt"
	"strings"

	"github.com/spec-kit/ticket-autopilot/internal/domain"
	"github.com/spec-kit/ticket-autopilot/internal/notify"
)

// Heuristic classifies tickets with keyword rules only. It never returns an
// error, which makes it the collaborator of choice when no model endpoint
// is configured.
type Heuristic struct{}

// NewHeuristic returns a rule-based classifier.
func NewHeuristic() *Heuristic { return &Heuristic{} }

func (h *Heuristic) ClassifyIntent(_ context.Context, title, description string) (domain.Intent, string, error) {
	text := strings.ToLower(title + " " + description)

	switch {
	case containsAny(text, "vpn"):
		return domain.IntentVPNAccess, "matched keyword: vpn", nil
	case containsAny(text, "locked", "lockout", "blocked account", "account blocked"):
		return domain.IntentAccountLocked, "matched keyword: locked account", nil
	case strings.Contains(text, "password") && containsAny(text, "reset", "forgot", "expired", "change"):
		return domain.IntentPasswordReset, "matched keywords: password reset", nil
	case mentionsLogin(text) && containsAny(text, "email", "e-mail", "outlook", "webmail"):
		return domain.IntentLoginEmail, "matched keywords: login problem with email", nil
	case mentionsLogin(text) && containsAny(text, "azure", "portal", "cloud"):
		return domain.IntentLoginAzure, "matched keywords: login problem with azure", nil
	case mentionsLogin(text) && containsAny(text, "windows", "notebook", "laptop", "workstation", "computer", "pc"):
		return domain.IntentLoginWindows, "matched keywords: login problem with windows", nil
	case containsAny(text, "access to", "permission", "authorization", "grant"):
		return domain.IntentSystemAccess, "matched keywords: access request", nil
	case mentionsLogin(text):
		return domain.IntentLoginWindows, "matched keywords: generic login problem", nil
	default:
		return domain.IntentOutOfScope, "no rule matched", nil
	}
}

func (h *Heuristic) ExtractSystem(_ context.Context, title, description string) (domain.SystemKind, error) {
	text := strings.ToLower(title + " " + description)

	switch {
	case containsAny(text, "email", "e-mail", "outlook", "webmail", "exchange"):
		return domain.SystemEmail, nil
	case containsAny(text, "azure", "active directory", "entra", " ad "):
		return domain.SystemDirectory, nil
	case containsAny(text, "windows", "notebook", "laptop", "workstation", "computer", "pc"):
		return domain.SystemWindows, nil
	default:
		return domain.SystemUnknown, nil
	}
}

func (h *Heuristic) AssessPriority(_ context.Context, t domain.Ticket) (domain.Triage, error) {
	text := strings.ToLower(t.Title + " " + t.Description)

	priority := domain.PriorityMedium
	switch {
	case containsAny(text, "outage", "everyone", "whole team", "all users", "critical"):
		priority = domain.PriorityCritical
	case containsAny(text, "urgent", "asap", "cannot work", "can't work", "blocked", "deadline"):
		priority = domain.PriorityHigh
	}

	intent, _, _ := h.ClassifyIntent(context.Background(), t.Title, t.Description)
	complexity := domain.ComplexityModerate
	if _, ok := playbookEligibility[intent]; ok {
		complexity = domain.ComplexitySimple
	}
	if intent == domain.IntentOutOfScope {
		complexity = domain.ComplexityComplex
	}

	return domain.Triage{
		Priority:      priority,
		Complexity:    complexity,
		Justification: fmt.Sprintf("rule-based triage for intent %s", intent),
	}, nil
}

// playbookEligibility lists the intents the credential playbook handles.
var playbookEligibility = map[domain.Intent]string{
	domain.IntentLoginEmail:    "login problems are handled by unlock and password reset",
	domain.IntentLoginAzure:    "login problems are handled by unlock and password reset",
	domain.IntentLoginWindows:  "login problems are handled by unlock and password reset",
	domain.IntentAccountLocked: "locked accounts are unlocked automatically",
	domain.IntentPasswordReset: "password resets are fully automated",
}

func (h *Heuristic) AssessAutomation(_ context.Context, _ domain.Ticket, intent domain.Intent) (domain.Eligibility, error) {
	if reason, ok := playbookEligibility[intent]; ok {
		return domain.Eligibility{CanAutomate: true, Reason: reason}, nil
	}
	switch intent {
	case domain.IntentVPNAccess:
		return domain.Eligibility{Reason: "VPN issues need network-side analysis"}, nil
	case domain.IntentSystemAccess:
		return domain.Eligibility{Reason: "access requests need manager approval"}, nil
	default:
		return domain.Eligibility{Reason: "request is outside the automation scope"}, nil
	}
}

func (h *Heuristic) Diagnose(_ context.Context, t domain.Ticket, system domain.SystemKind, user *domain.UserInfo) (domain.Diagnosis, error) {
	target := string(system)
	if system == domain.SystemUnknown || system == "" {
		target = "the affected system"
	}
	summary := fmt.Sprintf("Probable credential problem on %s; the account state will be checked and corrected.", target)
	if user != nil && user.Status != "" && user.Status != "active" {
		summary = fmt.Sprintf("Account %s is in state %q; remediation will restore access on %s.", user.UserID, user.Status, target)
	}
	return domain.Diagnosis{
		Summary: summary,
		SuggestedActions: []string{
			"check whether the account is locked",
			"reset the credential if needed",
			"verify access after remediation",
		},
		Confidence: domain.ConfidenceMedium,
	}, nil
}

func (h *Heuristic) ComposeNotification(_ context.Context, kind domain.RecipientKind, t domain.Ticket, nctx domain.NoticeContext) (string, string, error) {
	subject, body := notify.Compose(kind, t, nctx)
	return subject, body, nil
}

func containsAny(text string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}

func mentionsLogin(text string) bool {
	return containsAny(text, "login", "log in", "logon", "sign in", "signin", "cannot access", "can't access", "authentication")
}
