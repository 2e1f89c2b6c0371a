package classify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-autopilot/internal/domain"
	"github.com/spec-kit/ticket-autopilot/pkg/util"
)

func completionServer(t *testing.T, reply string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotEmpty(t, req.Messages)

		w.Header().Set("Content-Type", "application/json")
		payload := map[string]any{
			"choices": []any{
				map[string]any{"message": map[string]string{"role": "assistant", "content": reply}},
			},
		}
		require.NoError(t, json.NewEncoder(w).Encode(payload))
	}))
}

func newTestClient(baseURL string) *Client {
	return NewClient(ClientConfig{BaseURL: baseURL, APIKey: "test-key"})
}

func TestClientClassifyIntent(t *testing.T) {
	srv := completionServer(t, "CATEGORY: account_locked\nDETAILS: the requester mentions a lockout")
	defer srv.Close()

	intent, details, err := newTestClient(srv.URL).ClassifyIntent(context.Background(), "Locked out", "lockout since 9am")
	require.NoError(t, err)
	assert.Equal(t, domain.IntentAccountLocked, intent)
	assert.Equal(t, "the requester mentions a lockout", details)
}

func TestClientClassifyIntentUnknownLabelDefaultsOutOfScope(t *testing.T) {
	srv := completionServer(t, "CATEGORY: coffee_machine\nDETAILS: no idea")
	defer srv.Close()

	intent, _, err := newTestClient(srv.URL).ClassifyIntent(context.Background(), "x", "y")
	require.NoError(t, err)
	assert.Equal(t, domain.IntentOutOfScope, intent)
}

func TestClientAssessPriority(t *testing.T) {
	srv := completionServer(t, "PRIORITY: high\nCOMPLEXITY: simple\nJUSTIFICATION: user fully blocked")
	defer srv.Close()

	triage, err := newTestClient(srv.URL).AssessPriority(context.Background(), domain.Ticket{Title: "t"})
	require.NoError(t, err)
	assert.Equal(t, domain.PriorityHigh, triage.Priority)
	assert.Equal(t, domain.ComplexitySimple, triage.Complexity)
	assert.Equal(t, "user fully blocked", triage.Justification)
}

func TestClientAssessPriorityInvalidLabelsFallBack(t *testing.T) {
	srv := completionServer(t, "PRIORITY: mega\nCOMPLEXITY: trivial\nJUSTIFICATION: x")
	defer srv.Close()

	triage, err := newTestClient(srv.URL).AssessPriority(context.Background(), domain.Ticket{})
	require.NoError(t, err)
	assert.Equal(t, domain.PriorityMedium, triage.Priority)
	assert.Equal(t, domain.ComplexityModerate, triage.Complexity)
}

func TestClientAssessAutomation(t *testing.T) {
	srv := completionServer(t, "CAN_AUTOMATE: YES\nREASON: unlock is covered")
	defer srv.Close()

	e, err := newTestClient(srv.URL).AssessAutomation(context.Background(), domain.Ticket{}, domain.IntentAccountLocked)
	require.NoError(t, err)
	assert.True(t, e.CanAutomate)
	assert.Equal(t, "unlock is covered", e.Reason)
}

func TestClientDiagnose(t *testing.T) {
	srv := completionServer(t, "DIAGNOSIS: account lockout after password expiry\nACTIONS:\n- unlock the account\n- reset the password\nCONFIDENCE: high")
	defer srv.Close()

	diag, err := newTestClient(srv.URL).Diagnose(context.Background(), domain.Ticket{}, domain.SystemWindows, nil)
	require.NoError(t, err)
	assert.Equal(t, "account lockout after password expiry", diag.Summary)
	assert.Equal(t, []string{"unlock the account", "reset the password"}, diag.SuggestedActions)
	assert.Equal(t, domain.ConfidenceHigh, diag.Confidence)
}

func TestClientComposeNotification(t *testing.T) {
	srv := completionServer(t, "SUBJECT: Your ticket is resolved\nBODY:\nHello,\n\nAll fixed.")
	defer srv.Close()

	subject, body, err := newTestClient(srv.URL).ComposeNotification(context.Background(),
		domain.RecipientUser, domain.Ticket{ID: 1}, domain.NoticeContext{Status: "resolved"})
	require.NoError(t, err)
	assert.Equal(t, "Your ticket is resolved", subject)
	assert.Equal(t, "Hello,\n\nAll fixed.", body)
}

func TestClientEndpointErrorIsFault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, _, err := newTestClient(srv.URL).ClassifyIntent(context.Background(), "x", "y")
	require.Error(t, err)
	assert.True(t, util.IsFault(err))
	assert.Contains(t, err.Error(), "429")
}

func TestClientUnreachableEndpointIsFault(t *testing.T) {
	c := newTestClient("http://127.0.0.1:1")
	_, err := c.ExtractSystem(context.Background(), "x", "y")
	require.Error(t, err)
	assert.True(t, util.IsFault(err))
}

func TestParseFields(t *testing.T) {
	fields := parseFields("CATEGORY: a\nnot a field\nDETAILS: b: with colon\nCATEGORY: ignored duplicate")
	assert.Equal(t, "a", fields["CATEGORY"])
	assert.Equal(t, "b: with colon", fields["DETAILS"])
}
