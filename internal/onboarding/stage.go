package onboarding

import (
	"fmt"
	"time"

	"github.com/locvowork/hr_onboarding_portal/internal/domain"
)

var stageOrder = map[domain.Stage]int{
	domain.StageBasicInfo:          1,
	domain.StagePreJoining:         2,
	domain.StagePreJoiningVerified: 3,
	domain.StagePostJoining:        4,
	domain.StageOnboarded:          5,
}

// StageRank is the position of a stage in the forward order, 0 for Not_joined or unknown.
func StageRank(s domain.Stage) int {
	return stageOrder[s.Canonical()]
}

// Advance validates a move from current to target. Only strictly forward moves between
// the five ordered stages are legal.
func Advance(current, target domain.Stage) (domain.Stage, error) {
	from, to := StageRank(current), StageRank(target)
	if from == 0 || to == 0 || to <= from {
		return current, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidStageTransition, current, target)
	}
	return target, nil
}

// Deactivate marks the employee as not joining. The stage before deactivation is
// remembered so Activate can restore it.
func Deactivate(e *domain.Employee) {
	if e.OnboardingStage != domain.StageNotJoined {
		e.PreviousStage = e.OnboardingStage
	}
	e.OnboardingStage = domain.StageNotJoined
	e.AccountStatus = domain.AccountInactive
}

// Activate restores a deactivated employee. Login timestamps are left untouched.
func Activate(e *domain.Employee) {
	if e.HasLoggedIn() {
		e.AccountStatus = domain.AccountActive
	} else {
		e.AccountStatus = domain.AccountInvited
	}
	if e.OnboardingStage != domain.StageNotJoined {
		return
	}
	if StageRank(e.PreviousStage) > 0 {
		e.OnboardingStage = e.PreviousStage
	} else {
		e.OnboardingStage = domain.StageBasicInfo
	}
	e.PreviousStage = ""
}

// VerifyBasicInfo applies an HR decision to the basic-info sub-record. Verification
// opens the pre-joining section for an employee still at BASIC_INFO.
func VerifyBasicInfo(e *domain.Employee, decision domain.FormStatus, reason, verifier string, now time.Time) error {
	action, err := ReviewAction(decision)
	if err != nil {
		return err
	}
	next, err := NextFormStatus(e.BasicInfo.Status, action, reason)
	if err != nil {
		return err
	}

	e.BasicInfo.Status = next
	e.BasicInfo.VerifiedByName = verifier
	if next == domain.FormVerified {
		e.BasicInfo.RejectionReason = ""
		e.BasicInfo.VerifiedAt = &now
		if e.OnboardingStage == domain.StageBasicInfo {
			e.OnboardingStage = domain.StagePreJoining
		}
		return nil
	}
	e.BasicInfo.RejectionReason = reason
	return nil
}
