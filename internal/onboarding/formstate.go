package onboarding

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/locvowork/hr_onboarding_portal/internal/domain"
)

// MinRejectionReasonLen is the shortest accepted rejection reason, counted after trimming.
const MinRejectionReasonLen = 10

// FormAction is an operation on a form or basic-info sub-record.
type FormAction string

const (
	ActionSaveDraft FormAction = "draft"
	ActionSubmit    FormAction = "submit"
	ActionVerify    FormAction = "verify"
	ActionReject    FormAction = "reject"
)

// ReviewAction maps an HR decision status onto the matching action.
func ReviewAction(status domain.FormStatus) (FormAction, error) {
	switch status {
	case domain.FormVerified:
		return ActionVerify, nil
	case domain.FormRejected:
		return ActionReject, nil
	}
	return "", fmt.Errorf("%w: review status must be VERIFIED or REJECTED, got %q", domain.ErrInvalidFormStatus, status)
}

// ValidateRejectionReason trims reason and checks its length.
func ValidateRejectionReason(reason string) (string, error) {
	trimmed := strings.TrimSpace(reason)
	if utf8.RuneCountInString(trimmed) < MinRejectionReasonLen {
		return "", domain.ErrRejectionReasonTooShort
	}
	return trimmed, nil
}

// NextFormStatus returns the status after action. VERIFIED is terminal and a submitted
// form can only be reviewed, never re-submitted or edited.
func NextFormStatus(current domain.FormStatus, action FormAction, reason string) (domain.FormStatus, error) {
	if current == "" {
		current = domain.FormPending
	}
	switch action {
	case ActionSaveDraft:
		if current == domain.FormPending || current == domain.FormRejected {
			return current, nil
		}
	case ActionSubmit:
		if current == domain.FormPending || current == domain.FormRejected {
			return domain.FormSubmitted, nil
		}
	case ActionVerify:
		if current == domain.FormSubmitted {
			return domain.FormVerified, nil
		}
	case ActionReject:
		if current == domain.FormSubmitted {
			if _, err := ValidateRejectionReason(reason); err != nil {
				return "", err
			}
			return domain.FormRejected, nil
		}
	default:
		return "", fmt.Errorf("%w: unknown action %q", domain.ErrInvalidFormTransition, action)
	}
	return "", fmt.Errorf("%w: cannot %s a %s form", domain.ErrInvalidFormTransition, action, current)
}

// Editable reports whether the employee may still change the record.
func Editable(status domain.FormStatus) bool {
	return status == "" || status == domain.FormPending || status == domain.FormRejected
}
