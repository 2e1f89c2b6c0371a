package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-autopilot/internal/domain"
)

// executePlaybook runs the credential remediation playbook: lock check and
// unlock for login/lock intents, password reset for credential intents, and
// a final verification. A collaborator fault aborts the remaining sub-steps
// and marks the result failed, but the actions already performed stay in
// the log. The node itself never faults the run.
func (p *pipeline) executePlaybook(ctx context.Context, s State) (State, error) {
	if s.UserInfo == nil {
		return s, errors.New("user info missing from state")
	}
	if s.Classification == nil {
		return s, errors.New("classification missing from state")
	}

	intent := s.Classification.Intent
	system := s.System
	if system == "" || system == domain.SystemUnknown {
		// Directory operations need a concrete target; AD is the default
		// credential authority.
		system = domain.SystemDirectory
	}
	userID := s.UserInfo.UserID
	if userID == "" {
		userID = localPart(s.Ticket.Requester)
	}

	result := &domain.PlaybookResult{OK: true, UserID: userID}
	actions := []string{}

	err := p.runPlaybookSteps(ctx, intent, userID, system, result, &actions)
	if err != nil {
		p.log().Error("playbook aborted",
			zap.Int64("ticket_id", s.Ticket.ID),
			zap.String("user_id", userID),
			zap.Error(err))
		result.OK = false
		result.Error = err.Error()
		actions = append(actions, fmt.Sprintf("ERROR: %v", err))
	}

	s.ActionsPerformed = actions
	s.PlaybookResult = result
	return s, nil
}

func (p *pipeline) runPlaybookSteps(ctx context.Context, intent domain.Intent, userID string, system domain.SystemKind, result *domain.PlaybookResult, actions *[]string) error {
	if intentWantsUnlock(intent) {
		cctx, cancel := p.callCtx(ctx)
		locked, err := p.deps.Directory.IsLocked(cctx, userID)
		cancel()
		if err != nil {
			return fmt.Errorf("lock check: %w", err)
		}
		if locked {
			*actions = append(*actions, "lock check: account locked")
			cctx, cancel = p.callCtx(ctx)
			unlock, err := p.deps.Directory.Unlock(cctx, userID, system)
			cancel()
			if err != nil {
				return fmt.Errorf("unlock: %w", err)
			}
			*actions = append(*actions, fmt.Sprintf("account unlocked on %s", system))
			result.Actions = append(result.Actions, unlock)
		} else {
			*actions = append(*actions, "lock check: account not locked")
		}
	}

	if intentWantsReset(intent) {
		cctx, cancel := p.callCtx(ctx)
		reset, temp, err := p.deps.Directory.ResetPassword(cctx, userID, system)
		cancel()
		if err != nil {
			return fmt.Errorf("password reset: %w", err)
		}
		*actions = append(*actions, fmt.Sprintf("password reset on %s", system))
		result.Actions = append(result.Actions, reset)
		result.TempCredential = temp
	}

	cctx, cancel := p.callCtx(ctx)
	unlocked, err := p.deps.Directory.VerifyUnlocked(cctx, userID, system)
	cancel()
	if err != nil {
		return fmt.Errorf("final verification: %w", err)
	}
	if !unlocked {
		return fmt.Errorf("final verification: account %s still locked on %s", userID, system)
	}
	*actions = append(*actions, "final verification: account unlocked")
	result.Actions = append(result.Actions, domain.ActionResult{
		OK:      true,
		UserID:  userID,
		System:  system,
		Action:  "verify_unlocked",
		Message: fmt.Sprintf("account %s is unlocked on %s", userID, system),
	})
	return nil
}

func intentWantsUnlock(intent domain.Intent) bool {
	switch intent {
	case domain.IntentAccountLocked, domain.IntentLoginEmail, domain.IntentLoginAzure, domain.IntentLoginWindows:
		return true
	}
	return false
}

func intentWantsReset(intent domain.Intent) bool {
	switch intent {
	case domain.IntentPasswordReset, domain.IntentLoginEmail, domain.IntentLoginAzure, domain.IntentLoginWindows:
		return true
	}
	return false
}

func localPart(address string) string {
	if at := strings.Index(address, "@"); at > 0 {
		return address[:at]
	}
	return address
}
