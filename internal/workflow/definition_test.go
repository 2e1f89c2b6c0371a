package workflow

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-autopilot/internal/domain"
	"github.com/spec-kit/ticket-autopilot/internal/engine"
)

type fakeClassifier struct {
	intent      domain.Intent
	details     string
	system      domain.SystemKind
	triage      domain.Triage
	eligibility domain.Eligibility
	diagnosis   domain.Diagnosis

	errs map[string]error
}

func (f *fakeClassifier) fail(op string) error {
	if f.errs == nil {
		return nil
	}
	return f.errs[op]
}

func (f *fakeClassifier) ClassifyIntent(_ context.Context, _, _ string) (domain.Intent, string, error) {
	if err := f.fail("intent"); err != nil {
		return "", "", err
	}
	return f.intent, f.details, nil
}

func (f *fakeClassifier) ExtractSystem(_ context.Context, _, _ string) (domain.SystemKind, error) {
	if err := f.fail("system"); err != nil {
		return "", err
	}
	return f.system, nil
}

func (f *fakeClassifier) AssessPriority(_ context.Context, _ domain.Ticket) (domain.Triage, error) {
	if err := f.fail("priority"); err != nil {
		return domain.Triage{}, err
	}
	return f.triage, nil
}

func (f *fakeClassifier) AssessAutomation(_ context.Context, _ domain.Ticket, _ domain.Intent) (domain.Eligibility, error) {
	if err := f.fail("automation"); err != nil {
		return domain.Eligibility{}, err
	}
	return f.eligibility, nil
}

func (f *fakeClassifier) Diagnose(_ context.Context, _ domain.Ticket, _ domain.SystemKind, _ *domain.UserInfo) (domain.Diagnosis, error) {
	if err := f.fail("diagnose"); err != nil {
		return domain.Diagnosis{}, err
	}
	return f.diagnosis, nil
}

func (f *fakeClassifier) ComposeNotification(_ context.Context, _ domain.RecipientKind, t domain.Ticket, _ domain.NoticeContext) (string, string, error) {
	return "subject", "body", nil
}

type fakeDirectory struct {
	mu          sync.Mutex
	user        domain.UserInfo
	locked      bool
	stillLocked bool
	temp        string

	userErr   error
	lockErr   error
	unlockErr error
	resetErr  error
	verifyErr error

	unlockCalls int
	resetCalls  int
}

func (f *fakeDirectory) GetUser(_ context.Context, _ string) (domain.UserInfo, error) {
	if f.userErr != nil {
		return domain.UserInfo{}, f.userErr
	}
	return f.user, nil
}

func (f *fakeDirectory) IsLocked(_ context.Context, _ string) (bool, error) {
	if f.lockErr != nil {
		return false, f.lockErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.locked, nil
}

func (f *fakeDirectory) Unlock(_ context.Context, userID string, system domain.SystemKind) (domain.ActionResult, error) {
	if f.unlockErr != nil {
		return domain.ActionResult{}, f.unlockErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unlockCalls++
	f.locked = false
	return domain.ActionResult{OK: true, UserID: userID, System: system, Action: "unlock"}, nil
}

func (f *fakeDirectory) ResetPassword(_ context.Context, userID string, system domain.SystemKind) (domain.ActionResult, string, error) {
	if f.resetErr != nil {
		return domain.ActionResult{}, "", f.resetErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetCalls++
	return domain.ActionResult{OK: true, UserID: userID, System: system, Action: "reset_password"}, f.temp, nil
}

func (f *fakeDirectory) VerifyUnlocked(_ context.Context, _ string, _ domain.SystemKind) (bool, error) {
	if f.verifyErr != nil {
		return false, f.verifyErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.locked && !f.stillLocked, nil
}

func (f *fakeDirectory) GrantAccess(_ context.Context, userID string, system domain.SystemKind) (domain.ActionResult, error) {
	return domain.ActionResult{OK: true, UserID: userID, System: system, Action: "grant_access"}, nil
}

type fakeNotifier struct {
	mu sync.Mutex

	userResolutions    int
	managerResolutions int
	userEscalations    int
	managerEscalations int
	teamEscalations    int

	userErr error
}

func (f *fakeNotifier) ResolutionToUser(_ context.Context, _ domain.Ticket, _ domain.NoticeContext) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.userErr != nil {
		return f.userErr
	}
	f.userResolutions++
	return nil
}

func (f *fakeNotifier) ResolutionToManager(_ context.Context, _ domain.Ticket, _ domain.NoticeContext) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.managerResolutions++
	return nil
}

func (f *fakeNotifier) EscalationToUser(_ context.Context, _ domain.Ticket, _ domain.NoticeContext) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.userErr != nil {
		return f.userErr
	}
	f.userEscalations++
	return nil
}

func (f *fakeNotifier) EscalationToManager(_ context.Context, _ domain.Ticket, _ domain.NoticeContext) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.managerEscalations++
	return nil
}

func (f *fakeNotifier) EscalationToTeam(_ context.Context, _ domain.Ticket, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.teamEscalations++
	return nil
}

type fakeStore struct {
	mu       sync.Mutex
	comments []string
	statuses []domain.TicketStatus
	actions  []string

	commentErr error
	statusErr  error
}

func (f *fakeStore) AppendComment(_ context.Context, _ int64, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.commentErr != nil {
		return f.commentErr
	}
	f.comments = append(f.comments, body)
	return nil
}

func (f *fakeStore) SetStatus(_ context.Context, _ int64, status domain.TicketStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statusErr != nil {
		return f.statusErr
	}
	f.statuses = append(f.statuses, status)
	return nil
}

func (f *fakeStore) AppendActionLog(_ context.Context, _ int64, action string, _ map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, action)
	return nil
}

func (f *fakeStore) lastStatus() domain.TicketStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.statuses) == 0 {
		return ""
	}
	return f.statuses[len(f.statuses)-1]
}

type fixture struct {
	classifier *fakeClassifier
	directory  *fakeDirectory
	notifier   *fakeNotifier
	store      *fakeStore
}

func newFixture() *fixture {
	return &fixture{
		classifier: &fakeClassifier{
			intent:      domain.IntentAccountLocked,
			details:     "account locked wording",
			system:      domain.SystemWindows,
			triage:      domain.Triage{Priority: domain.PriorityHigh, Complexity: domain.ComplexitySimple},
			eligibility: domain.Eligibility{CanAutomate: true, Reason: "playbook covers unlocks"},
			diagnosis:   domain.Diagnosis{Summary: "account lockout", Confidence: domain.ConfidenceHigh},
		},
		directory: &fakeDirectory{
			user:   domain.UserInfo{UserID: "jdoe", Email: "jdoe@company.example", DisplayName: "J Doe", Status: "locked"},
			locked: true,
			temp:   "Tmp12345!",
		},
		notifier: &fakeNotifier{},
		store:    &fakeStore{},
	}
}

func (f *fixture) compile(t *testing.T, observers ...engine.Observer) *engine.Executor[State] {
	t.Helper()
	exec, err := Definition(Deps{
		Classifier: f.classifier,
		Directory:  f.directory,
		Notifier:   f.notifier,
		Store:      f.store,
	}, observers...)
	require.NoError(t, err)
	return exec
}

func sampleTicket() domain.Ticket {
	return domain.Ticket{
		ID:            101,
		Title:         "Cannot log into my Windows notebook",
		Description:   "My account seems to be locked since this morning.",
		Requester:     "jdoe@company.example",
		RequesterName: "J Doe",
		Manager:       "boss@company.example",
		Status:        domain.TicketStatusOpen,
	}
}

func TestRunResolvesLockedAccount(t *testing.T) {
	f := newFixture()
	exec := f.compile(t)

	out, err := exec.Run(context.Background(), NewState(sampleTicket()))
	require.NoError(t, err)

	assert.Equal(t, domain.FinalResolved, out.FinalStatus)
	assert.Equal(t, domain.TicketStatusResolved, f.store.lastStatus())
	assert.Equal(t, 1, f.directory.unlockCalls)
	assert.Equal(t, 1, f.notifier.userResolutions)
	assert.Equal(t, 1, f.notifier.managerResolutions, "manager on record gets a copy")
	assert.Contains(t, out.ActionsPerformed, "lock check: account locked")
	assert.Contains(t, out.ActionsPerformed, "final verification: account unlocked")
	assert.Contains(t, f.store.actions, "automatic_resolution")
	require.NotNil(t, out.PlaybookResult)
	assert.True(t, out.PlaybookResult.OK)

	// Every upstream stage survives to termination.
	assert.NotNil(t, out.Classification)
	assert.NotNil(t, out.Triage)
	assert.NotNil(t, out.Eligibility)
	assert.NotNil(t, out.UserInfo)
	assert.NotNil(t, out.Diagnosis)
}

func TestRunEscalatesNonAutomatableTicket(t *testing.T) {
	f := newFixture()
	f.classifier.intent = domain.IntentVPNAccess
	f.classifier.eligibility = domain.Eligibility{CanAutomate: false, Reason: "VPN issues need network-side analysis"}
	exec := f.compile(t)

	out, err := exec.Run(context.Background(), NewState(sampleTicket()))
	require.NoError(t, err)

	assert.Equal(t, domain.FinalEscalatedNotAutomatable, out.FinalStatus)
	assert.Equal(t, domain.TicketStatusEscalated, f.store.lastStatus())
	assert.Equal(t, 1, f.notifier.userEscalations)
	assert.Equal(t, 1, f.notifier.teamEscalations)
	assert.Zero(t, f.directory.unlockCalls, "remediation branch never runs")
	assert.Nil(t, out.UserInfo)
	assert.Empty(t, out.ActionsPerformed)
	assert.Contains(t, out.ResolutionSummary, "vpn_access")
	assert.Contains(t, out.ResolutionSummary, "VPN configuration")
	assert.Contains(t, f.store.actions, "automatic_escalation")
}

func TestRunRecordsPlaybookFailure(t *testing.T) {
	f := newFixture()
	f.classifier.intent = domain.IntentPasswordReset
	f.directory.locked = false
	f.directory.resetErr = errors.New("directory timeout")
	exec := f.compile(t)

	out, err := exec.Run(context.Background(), NewState(sampleTicket()))
	require.NoError(t, err, "a failed playbook is an outcome, not an engine fault")

	assert.Equal(t, domain.FinalEscalatedAutomationError, out.FinalStatus)
	assert.Equal(t, domain.TicketStatusEscalatedAutoFail, f.store.lastStatus())
	assert.Contains(t, out.ErrorMessage, "directory timeout")
	require.NotNil(t, out.PlaybookResult)
	assert.False(t, out.PlaybookResult.OK)

	var errorEntries int
	for _, a := range out.ActionsPerformed {
		if strings.HasPrefix(a, "ERROR:") {
			errorEntries++
		}
	}
	assert.Equal(t, 1, errorEntries)
	assert.Equal(t, 1, f.notifier.teamEscalations)
}

func TestRunDegradesGracefullyWithoutClassifier(t *testing.T) {
	f := newFixture()
	offline := errors.New("classifier offline")
	f.classifier.errs = map[string]error{
		"intent":     offline,
		"system":     offline,
		"priority":   offline,
		"automation": offline,
		"diagnose":   offline,
	}
	exec := f.compile(t)

	out, err := exec.Run(context.Background(), NewState(sampleTicket()))
	require.NoError(t, err)

	require.NotNil(t, out.Classification)
	assert.Equal(t, domain.IntentOutOfScope, out.Classification.Intent)
	assert.Equal(t, domain.SystemUnknown, out.System)
	require.NotNil(t, out.Triage)
	assert.Equal(t, domain.PriorityMedium, out.Triage.Priority)
	require.NotNil(t, out.Eligibility)
	assert.False(t, out.Eligibility.CanAutomate)
	assert.Equal(t, domain.FinalEscalatedNotAutomatable, out.FinalStatus)
	assert.Equal(t, domain.TicketStatusEscalated, f.store.lastStatus())
}

func TestRunDirectoryFaultFailsRun(t *testing.T) {
	f := newFixture()
	f.directory.userErr = errors.New("ldap unreachable")
	exec := f.compile(t)

	out, err := exec.Run(context.Background(), NewState(sampleTicket()))
	var fault *engine.NodeFaultError
	require.ErrorAs(t, err, &fault)
	assert.Equal(t, NodeGetUserInfo, fault.Node)
	assert.Contains(t, fault.Error(), "ldap unreachable")

	assert.NotNil(t, out.Eligibility, "stages before the fault survive in the returned state")
	assert.Empty(t, out.FinalStatus)
	assert.Empty(t, f.store.statuses, "a faulted run must not touch the ticket status")
}

func TestRunNotificationFailureIsNonFatal(t *testing.T) {
	f := newFixture()
	f.notifier.userErr = errors.New("smtp down")
	exec := f.compile(t)

	out, err := exec.Run(context.Background(), NewState(sampleTicket()))
	require.NoError(t, err)

	assert.Equal(t, domain.FinalResolved, out.FinalStatus)
	assert.Equal(t, domain.TicketStatusResolved, f.store.lastStatus())

	var warned bool
	for _, c := range f.store.comments {
		if strings.Contains(c, "could not deliver notification") {
			warned = true
		}
	}
	assert.True(t, warned, "delivery failure leaves a trace on the ticket")
}

func TestRunStoreFailureFaultsTerminalNode(t *testing.T) {
	f := newFixture()
	f.store.statusErr = errors.New("db read-only")
	exec := f.compile(t)

	_, err := exec.Run(context.Background(), NewState(sampleTicket()))
	var fault *engine.NodeFaultError
	require.ErrorAs(t, err, &fault)
	assert.Equal(t, NodeNotifyAndUpdate, fault.Node)
}

func TestRunSkipsManagerNoticesWithoutManager(t *testing.T) {
	f := newFixture()
	exec := f.compile(t)

	ticket := sampleTicket()
	ticket.Manager = ""
	_, err := exec.Run(context.Background(), NewState(ticket))
	require.NoError(t, err)
	assert.Zero(t, f.notifier.managerResolutions)
}

func TestRunEmitsOneTransitionPerNode(t *testing.T) {
	var mu sync.Mutex
	var nodes []string
	observer := engine.ObserverFunc(func(tr engine.Transition) {
		mu.Lock()
		nodes = append(nodes, tr.Node)
		mu.Unlock()
	})

	f := newFixture()
	exec := f.compile(t, observer)

	_, err := exec.Run(context.Background(), NewState(sampleTicket()))
	require.NoError(t, err)

	assert.Equal(t, []string{
		NodeClassifyIntent,
		NodeExtractSystem,
		NodeAnalyzePriority,
		NodeCheckEligibility,
		NodeGetUserInfo,
		NodeDiagnose,
		NodeExecutePlaybook,
		NodeNotifyAndUpdate,
	}, nodes)
}

func TestRouteAfterEligibility(t *testing.T) {
	assert.Equal(t, RouteEscalate, routeAfterEligibility(State{}))
	assert.Equal(t, RouteEscalate, routeAfterEligibility(State{
		Eligibility: &domain.Eligibility{CanAutomate: false},
	}))
	assert.Equal(t, RouteProceed, routeAfterEligibility(State{
		Eligibility: &domain.Eligibility{CanAutomate: true},
	}))
}

func TestDefinitionHonorsStepLimit(t *testing.T) {
	f := newFixture()
	exec, err := Definition(Deps{
		Classifier: f.classifier,
		Directory:  f.directory,
		Notifier:   f.notifier,
		Store:      f.store,
		MaxSteps:   2,
	})
	require.NoError(t, err)

	_, err = exec.Run(context.Background(), NewState(sampleTicket()))
	var limit *engine.ExecutionLimitError
	require.ErrorAs(t, err, &limit)
	assert.Equal(t, 2, limit.Limit)
	assert.Equal(t, GraphName, limit.Graph)
}

func TestDefinitionGraphExportsAllNodes(t *testing.T) {
	f := newFixture()
	exec := f.compile(t)

	out, err := exec.DOT()
	require.NoError(t, err)
	for _, node := range []string{
		NodeClassifyIntent, NodeExtractSystem, NodeAnalyzePriority,
		NodeCheckEligibility, NodeGetUserInfo, NodeDiagnose,
		NodeExecutePlaybook, NodeNotifyAndUpdate, NodeEscalate,
	} {
		assert.Contains(t, out, node)
	}
	assert.Contains(t, out, string(RouteProceed))
	assert.Contains(t, out, string(RouteEscalate))
}
