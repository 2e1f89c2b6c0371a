package classify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-autopilot/internal/domain"
)

func TestHeuristicClassifyIntent(t *testing.T) {
	tests := []struct {
		title, description string
		want               domain.Intent
	}{
		{"Cannot sign in to Outlook", "my email login keeps failing", domain.IntentLoginEmail},
		{"Azure portal login broken", "cannot log in to the cloud portal", domain.IntentLoginAzure},
		{"Windows login fails", "my laptop rejects my credentials at logon", domain.IntentLoginWindows},
		{"Account locked", "I got a lockout message this morning", domain.IntentAccountLocked},
		{"Password expired", "I need a password reset please", domain.IntentPasswordReset},
		{"VPN will not connect", "the vpn client times out", domain.IntentVPNAccess},
		{"Need access to the billing system", "please grant me permission", domain.IntentSystemAccess},
		{"Printer on fire", "smoke is coming out of it", domain.IntentOutOfScope},
	}

	h := NewHeuristic()
	for _, tc := range tests {
		intent, details, err := h.ClassifyIntent(context.Background(), tc.title, tc.description)
		require.NoError(t, err)
		assert.Equal(t, tc.want, intent, "title %q", tc.title)
		assert.NotEmpty(t, details)
	}
}

func TestHeuristicExtractSystem(t *testing.T) {
	h := NewHeuristic()
	tests := []struct {
		text string
		want domain.SystemKind
	}{
		{"outlook webmail is down", domain.SystemEmail},
		{"azure signin loop", domain.SystemDirectory},
		{"my workstation rejects me", domain.SystemWindows},
		{"something is broken", domain.SystemUnknown},
	}
	for _, tc := range tests {
		system, err := h.ExtractSystem(context.Background(), tc.text, "")
		require.NoError(t, err)
		assert.Equal(t, tc.want, system, "text %q", tc.text)
	}
}

func TestHeuristicAssessPriority(t *testing.T) {
	h := NewHeuristic()

	triage, err := h.AssessPriority(context.Background(), domain.Ticket{
		Title:       "Password reset needed urgent, cannot work",
		Description: "blocked since this morning",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PriorityHigh, triage.Priority)
	assert.Equal(t, domain.ComplexitySimple, triage.Complexity)

	triage, err = h.AssessPriority(context.Background(), domain.Ticket{
		Title:       "Email outage for the whole team",
		Description: "nobody can send mail",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PriorityCritical, triage.Priority)
}

func TestHeuristicAssessAutomation(t *testing.T) {
	h := NewHeuristic()

	e, err := h.AssessAutomation(context.Background(), domain.Ticket{}, domain.IntentAccountLocked)
	require.NoError(t, err)
	assert.True(t, e.CanAutomate)

	e, err = h.AssessAutomation(context.Background(), domain.Ticket{}, domain.IntentSystemAccess)
	require.NoError(t, err)
	assert.False(t, e.CanAutomate)
	assert.Contains(t, e.Reason, "approval")
}

func TestHeuristicIsDeterministic(t *testing.T) {
	h := NewHeuristic()
	first, _, err := h.ClassifyIntent(context.Background(), "Account locked", "lockout")
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, _, err := h.ClassifyIntent(context.Background(), "Account locked", "lockout")
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestHeuristicComposeNotification(t *testing.T) {
	h := NewHeuristic()
	subject, body, err := h.ComposeNotification(context.Background(), domain.RecipientUser,
		domain.Ticket{ID: 7, Title: "Locked out"},
		domain.NoticeContext{Status: "resolved", TempCredential: "Xy12!abc"})
	require.NoError(t, err)
	assert.Contains(t, subject, "#7")
	assert.Contains(t, body, "Xy12!abc")
}
