// Package onboarding derives what the portal shows for an employee: the status label, its badge
// color, roster filtering and ordering, which form pages are reachable, and the legal stage and
// form transitions. Every function here is pure; callers pass records fetched from the store.
package onboarding

import (
	"time"

	"github.com/locvowork/hr_onboarding_portal/internal/domain"
)

// Status is the single human readable label shown for an employee.
type Status string

const (
	StatusNotJoined          Status = "Not Joined"
	StatusLoginPending       Status = "Login Pending"
	StatusProfilePending     Status = "Profile Pending"
	StatusInProgress         Status = "In Progress"
	StatusReadyToJoin        Status = "Ready to Join"
	StatusJoiningFormalities Status = "Joining Formalities"
	StatusCompleted          Status = "Completed"

	// StatusUnknown is returned for a stored stage outside the declared set.
	StatusUnknown Status = "Unknown"
)

var allStatuses = []Status{
	StatusNotJoined,
	StatusLoginPending,
	StatusProfilePending,
	StatusInProgress,
	StatusReadyToJoin,
	StatusJoiningFormalities,
	StatusCompleted,
}

// AllStatuses returns the seven labels DeriveStatus produces for known stages.
func AllStatuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// ParseStatus matches a filter value against the label set.
func ParseStatus(raw string) (Status, bool) {
	for _, s := range allStatuses {
		if string(s) == raw {
			return s, true
		}
	}
	return "", false
}

// DeriveStatus computes the label. First match wins:
// Not_joined, then never logged in, then the stage map.
func DeriveStatus(stage domain.Stage, firstLoginAt, lastLoginAt *time.Time) Status {
	stage = stage.Canonical()
	if stage == domain.StageNotJoined {
		return StatusNotJoined
	}
	if firstLoginAt == nil && lastLoginAt == nil {
		return StatusLoginPending
	}
	switch stage {
	case domain.StageBasicInfo:
		return StatusProfilePending
	case domain.StagePreJoining:
		return StatusInProgress
	case domain.StagePreJoiningVerified:
		return StatusReadyToJoin
	case domain.StagePostJoining:
		return StatusJoiningFormalities
	case domain.StageOnboarded:
		return StatusCompleted
	default:
		return StatusUnknown
	}
}

// StatusOf is DeriveStatus applied to a stored employee.
func StatusOf(e *domain.Employee) Status {
	return DeriveStatus(e.OnboardingStage, e.FirstLoginAt, e.LastLoginAt)
}
