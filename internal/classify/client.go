package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spec-kit/ticket-autopilot/internal/domain"
	"github.com/spec-kit/ticket-autopilot/internal/notify"
	"github.com/spec-kit/ticket-autopilot/pkg/util"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"
	defaultTimeout = 30 * time.Second
)

// ClientConfig configures the chat-completion classifier. Any
// OpenAI-compatible endpoint works.
type ClientConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Client implements the analysis collaborator against a chat-completion
// endpoint. Every failure surfaces as a collaborator fault so the calling
// node can apply its documented default.
type Client struct {
	cfg  ClientConfig
	http *http.Client
}

// NewClient builds a classifier over a chat-completion endpoint.
func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *Client) complete(ctx context.Context, op, prompt string, maxTokens int) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model:       c.cfg.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: 0,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", util.NewFault("classifier", op, err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", util.NewFault("classifier", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", util.NewFault("classifier", op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", util.NewFault("classifier", op, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", util.NewFault("classifier", op,
			fmt.Errorf("endpoint returned %d: %s", resp.StatusCode, truncate(string(body), 200)))
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", util.NewFault("classifier", op, err)
	}
	if len(parsed.Choices) == 0 {
		return "", util.NewFault("classifier", op, fmt.Errorf("response carried no choices"))
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

func (c *Client) ClassifyIntent(ctx context.Context, title, description string) (domain.Intent, string, error) {
	labels := make([]string, 0, len(domain.Intents()))
	for _, intent := range domain.Intents() {
		labels = append(labels, string(intent))
	}
	prompt := fmt.Sprintf(`Classify the IT support ticket below into exactly one category.

Categories: %s

Ticket title: %s
Ticket description: %s

Answer with two lines:
CATEGORY: <one category>
DETAILS: <one sentence explaining the choice>`,
		strings.Join(labels, ", "), title, description)

	out, err := c.complete(ctx, "classify_intent", prompt, 150)
	if err != nil {
		return "", "", err
	}
	fields := parseFields(out)
	intent := domain.ParseIntent(strings.ToLower(fields["CATEGORY"]))
	return intent, fields["DETAILS"], nil
}

func (c *Client) ExtractSystem(ctx context.Context, title, description string) (domain.SystemKind, error) {
	prompt := fmt.Sprintf(`Identify the system affected by the IT support ticket below.

Possible systems: Email, AD, Windows, Unknown

Ticket title: %s
Ticket description: %s

Answer with a single line:
SYSTEM: <one system>`, title, description)

	out, err := c.complete(ctx, "extract_system", prompt, 50)
	if err != nil {
		return "", err
	}
	return domain.ParseSystem(parseFields(out)["SYSTEM"]), nil
}

func (c *Client) AssessPriority(ctx context.Context, t domain.Ticket) (domain.Triage, error) {
	prompt := fmt.Sprintf(`Triage the IT support ticket below.

Ticket title: %s
Ticket description: %s

Answer with three lines:
PRIORITY: low | medium | high | critical
COMPLEXITY: simple | moderate | complex
JUSTIFICATION: <one sentence>`, t.Title, t.Description)

	out, err := c.complete(ctx, "assess_priority", prompt, 150)
	if err != nil {
		return domain.Triage{}, err
	}
	fields := parseFields(out)

	triage := domain.Triage{
		Priority:      domain.PriorityMedium,
		Complexity:    domain.ComplexityModerate,
		Justification: fields["JUSTIFICATION"],
	}
	if p := strings.ToLower(fields["PRIORITY"]); domain.ValidPriority(p) {
		triage.Priority = domain.Priority(p)
	}
	if cx := strings.ToLower(fields["COMPLEXITY"]); domain.ValidComplexity(cx) {
		triage.Complexity = domain.Complexity(cx)
	}
	return triage, nil
}

func (c *Client) AssessAutomation(ctx context.Context, t domain.Ticket, intent domain.Intent) (domain.Eligibility, error) {
	prompt := fmt.Sprintf(`An automation playbook can unlock accounts and reset passwords.
It cannot grant new access, fix VPN issues, or handle anything else.

Ticket title: %s
Ticket description: %s
Identified intent: %s

Can the playbook fully resolve this ticket? Answer with two lines:
CAN_AUTOMATE: YES | NO
REASON: <one sentence>`, t.Title, t.Description, intent)

	out, err := c.complete(ctx, "assess_automation", prompt, 100)
	if err != nil {
		return domain.Eligibility{}, err
	}
	fields := parseFields(out)
	return domain.Eligibility{
		CanAutomate: strings.EqualFold(fields["CAN_AUTOMATE"], "YES"),
		Reason:      fields["REASON"],
	}, nil
}

func (c *Client) Diagnose(ctx context.Context, t domain.Ticket, system domain.SystemKind, user *domain.UserInfo) (domain.Diagnosis, error) {
	accountState := "unknown"
	if user != nil && user.Status != "" {
		accountState = user.Status
	}
	prompt := fmt.Sprintf(`Diagnose the IT support ticket below.

Ticket title: %s
Ticket description: %s
Affected system: %s
Account state: %s

Answer with:
DIAGNOSIS: <one or two sentences>
ACTIONS:
- <suggested action>
- <suggested action>
CONFIDENCE: low | medium | high`, t.Title, t.Description, system, accountState)

	out, err := c.complete(ctx, "diagnose", prompt, 300)
	if err != nil {
		return domain.Diagnosis{}, err
	}
	fields := parseFields(out)

	diag := domain.Diagnosis{
		Summary:          fields["DIAGNOSIS"],
		SuggestedActions: parseBullets(out),
		Confidence:       domain.ConfidenceLow,
	}
	if cf := strings.ToLower(fields["CONFIDENCE"]); domain.ValidConfidence(cf) {
		diag.Confidence = domain.Confidence(cf)
	}
	if diag.Summary == "" {
		diag.Summary = "no diagnosis produced"
	}
	return diag, nil
}

func (c *Client) ComposeNotification(ctx context.Context, kind domain.RecipientKind, t domain.Ticket, nctx domain.NoticeContext) (string, string, error) {
	fallbackSubject, fallbackBody := notify.Compose(kind, t, nctx)
	prompt := fmt.Sprintf(`Rewrite the IT support notification below in a clear, friendly tone.
Keep every factual detail, including any temporary credential, exactly as given.

Recipient: %s
Subject: %s

%s

Answer with:
SUBJECT: <subject line>
BODY:
<message body>`, kind, fallbackSubject, fallbackBody)

	out, err := c.complete(ctx, "compose_notification", prompt, 600)
	if err != nil {
		return "", "", err
	}
	subject := parseFields(out)["SUBJECT"]
	body := parseBody(out)
	if subject == "" || body == "" {
		return fallbackSubject, fallbackBody, nil
	}
	return subject, body, nil
}

// parseFields pulls "KEY: value" lines out of a completion. Keys are
// matched case-sensitively on the canonical upper-case form.
func parseFields(out string) map[string]string {
	fields := map[string]string{}
	for _, line := range strings.Split(out, "\n") {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" || key != strings.ToUpper(key) {
			continue
		}
		if _, seen := fields[key]; !seen {
			fields[key] = strings.TrimSpace(value)
		}
	}
	return fields
}

func parseBullets(out string) []string {
	var items []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "- ") {
			items = append(items, strings.TrimSpace(line[2:]))
		}
	}
	return items
}

// parseBody returns everything after the "BODY:" marker line.
func parseBody(out string) string {
	_, body, found := strings.Cut(out, "BODY:")
	if !found {
		return ""
	}
	return strings.TrimSpace(body)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
