package domain

// Intent is the closed category set produced by ticket classification.
type Intent string

const (
	IntentLoginEmail    Intent = "login_email"
	IntentLoginAzure    Intent = "login_azure"
	IntentLoginWindows  Intent = "login_windows"
	IntentAccountLocked Intent = "account_locked"
	IntentPasswordReset Intent = "password_reset"
	IntentVPNAccess     Intent = "vpn_access"
	IntentSystemAccess  Intent = "system_access"
	IntentOutOfScope    Intent = "out_of_scope"
)

// Intents lists every valid intent label in classification order.
func Intents() []Intent {
	return []Intent{
		IntentLoginEmail,
		IntentLoginAzure,
		IntentLoginWindows,
		IntentAccountLocked,
		IntentPasswordReset,
		IntentVPNAccess,
		IntentSystemAccess,
		IntentOutOfScope,
	}
}

// ParseIntent maps a raw classifier label onto the closed intent set,
// defaulting to IntentOutOfScope for anything unrecognized.
func ParseIntent(raw string) Intent {
	candidate := Intent(raw)
	for _, intent := range Intents() {
		if candidate == intent {
			return intent
		}
	}
	return IntentOutOfScope
}

// SystemKind identifies the affected system named in a ticket.
type SystemKind string

const (
	SystemEmail     SystemKind = "Email"
	SystemDirectory SystemKind = "AD"
	SystemWindows   SystemKind = "Windows"
	SystemUnknown   SystemKind = "Unknown"
)

// ParseSystem maps a raw label onto the system enum, defaulting to Unknown.
func ParseSystem(raw string) SystemKind {
	switch SystemKind(raw) {
	case SystemEmail, SystemDirectory, SystemWindows:
		return SystemKind(raw)
	default:
		return SystemUnknown
	}
}

// Priority ranks business impact and urgency.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// ValidPriority reports whether the label belongs to the priority enum.
func ValidPriority(raw string) bool {
	switch Priority(raw) {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// Complexity ranks expected resolution difficulty.
type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
)

// ValidComplexity reports whether the label belongs to the complexity enum.
func ValidComplexity(raw string) bool {
	switch Complexity(raw) {
	case ComplexitySimple, ComplexityModerate, ComplexityComplex:
		return true
	}
	return false
}

// Confidence grades how much trust a diagnosis deserves.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// ValidConfidence reports whether the label belongs to the confidence enum.
func ValidConfidence(raw string) bool {
	switch Confidence(raw) {
	case ConfidenceLow, ConfidenceMedium, ConfidenceHigh:
		return true
	}
	return false
}
