package domain

// Classification is the intent-detection stage output.
type Classification struct {
	Intent  Intent
	Details string
}

// Triage is the priority/complexity assessment stage output.
type Triage struct {
	Priority      Priority
	Complexity    Complexity
	Justification string
}

// Eligibility records whether the automation playbook may handle a ticket.
type Eligibility struct {
	CanAutomate bool
	Reason      string
}

// UserInfo is the directory profile of a ticket requester.
type UserInfo struct {
	UserID      string
	Email       string
	DisplayName string
	Status      string
}

// Diagnosis is the symptom-analysis stage output.
type Diagnosis struct {
	Summary          string
	SuggestedActions []string
	Confidence       Confidence
}

// ActionResult describes one directory operation performed by the playbook.
type ActionResult struct {
	OK      bool
	UserID  string
	System  SystemKind
	Action  string
	Message string
}

// PlaybookResult aggregates the outcome of the remediation playbook.
// Actions holds the structured payload of every sub-step that completed,
// even when a later sub-step failed.
type PlaybookResult struct {
	OK             bool
	Error          string
	UserID         string
	Actions        []ActionResult
	TempCredential string
}

// FinalStatus is the terminal outcome of one automation run.
type FinalStatus string

const (
	FinalResolved                 FinalStatus = "RESOLVED"
	FinalEscalatedNotAutomatable  FinalStatus = "ESCALATED_NOT_AUTOMATABLE"
	FinalEscalatedAutomationError FinalStatus = "ESCALATED_AUTOMATION_ERROR"
)

// RecipientKind selects the audience of a composed notification.
type RecipientKind string

const (
	RecipientUser    RecipientKind = "user"
	RecipientManager RecipientKind = "manager"
	RecipientTeam    RecipientKind = "team"
)

// NoticeContext carries the variable parts of a notification message.
type NoticeContext struct {
	Status         string
	ActionsSummary string
	TempCredential string
	Reason         string
	Team           string
}
