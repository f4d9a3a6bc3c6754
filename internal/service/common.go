package service

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/locvowork/hr_onboarding_portal/internal/domain"
	"github.com/locvowork/hr_onboarding_portal/internal/logger"
	"github.com/locvowork/hr_onboarding_portal/internal/onboarding"
	"github.com/locvowork/hr_onboarding_portal/internal/session"
)

// DateLayout is the wire format of every date field.
const DateLayout = "2006-01-02"

var (
	emailPattern   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern   = regexp.MustCompile(`^\d{10}$`)
	pincodePattern = regexp.MustCompile(`^\d{6}$`)

	// strict strips every tag from free text before it is stored
	strict = bluemonday.StrictPolicy()
)

// sanitize strips markup and trims. Values are stored as plain text, so the entities the
// policy emits are decoded again.
func sanitize(s string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// sanitizeData strips markup from every string inside a form payload.
func sanitizeData(in map[string]interface{}) map[string]interface{} {
	if in == nil {
		return nil
	}
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = sanitizeValue(v)
	}
	return out
}

func sanitizeValue(v interface{}) interface{} {
	switch t := v.(type) {
	case string:
		return sanitize(t)
	case map[string]interface{}:
		return sanitizeData(t)
	case []interface{}:
		out := make([]interface{}, len(t))
		for i := range t {
			out[i] = sanitizeValue(t[i])
		}
		return out
	}
	return v
}

// ValidateEmail checks the address shape and lowercases it.
func ValidateEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailPattern.MatchString(email) {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidEmail, email)
	}
	return email, nil
}

// ValidatePhone requires exactly 10 digits.
func ValidatePhone(phone string) error {
	if !phonePattern.MatchString(strings.TrimSpace(phone)) {
		return domain.ErrInvalidPhone
	}
	return nil
}

// ValidatePincode requires exactly 6 digits.
func ValidatePincode(pin string) error {
	if !pincodePattern.MatchString(strings.TrimSpace(pin)) {
		return domain.ErrInvalidPincode
	}
	return nil
}

// ParseDate parses YYYY-MM-DD. An empty string yields nil.
func ParseDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidDate, raw)
	}
	return &t, nil
}

// Validated payload keys shared by basic info and the HR forms.
var (
	emailKeys   = []string{"email", "personalEmail"}
	phoneKeys   = []string{"phone", "mobile", "mobileNumber", "emergencyContactNumber"}
	pincodeKeys = []string{"pincode", "pinCode"}
	dateKeys    = []string{"dateOfBirth", "dob", "dateOfJoining"}
)

// validatePayload checks the well known keys of a form payload when present and non-empty.
func validatePayload(data map[string]interface{}) error {
	str := func(k string) (string, bool) {
		s, ok := data[k].(string)
		return s, ok && strings.TrimSpace(s) != ""
	}
	for _, k := range emailKeys {
		if s, ok := str(k); ok {
			if _, err := ValidateEmail(s); err != nil {
				return fmt.Errorf("%s: %w", k, err)
			}
		}
	}
	for _, k := range phoneKeys {
		if s, ok := str(k); ok {
			if err := ValidatePhone(s); err != nil {
				return fmt.Errorf("%s: %w", k, err)
			}
		}
	}
	for _, k := range pincodeKeys {
		if s, ok := str(k); ok {
			if err := ValidatePincode(s); err != nil {
				return fmt.Errorf("%s: %w", k, err)
			}
		}
	}
	for _, k := range dateKeys {
		if s, ok := str(k); ok {
			if _, err := ParseDate(s); err != nil {
				return fmt.Errorf("%s: %w", k, err)
			}
		}
	}
	return nil
}

// auditor records HR actions. A failing audit store never fails the action itself.
type auditor struct {
	log domain.AuditLog
	now func() time.Time
}

func (a auditor) record(ctx context.Context, actor session.Principal, employeeID, action, detail string) {
	if a.log == nil {
		return
	}
	ev := domain.AuditEvent{
		ID:         uuid.NewString(),
		EmployeeID: employeeID,
		ActorID:    actor.ID,
		ActorName:  actor.Name,
		Action:     action,
		Detail:     detail,
		CreatedAt:  a.now().UTC(),
	}
	if err := a.log.Record(ctx, ev); err != nil {
		logger.WarnLog(ctx, "failed to record audit %s for %s: %v", action, employeeID, err)
	}
}

// indexer keeps the search directory in step with writes. Nil directory disables it.
type indexer struct {
	dir domain.Directory
}

func (ix indexer) index(ctx context.Context, e *domain.Employee) {
	if ix.dir == nil {
		return
	}
	if err := ix.dir.Index(ctx, DirectoryEntry(e)); err != nil {
		logger.WarnLog(ctx, "failed to index employee %s: %v", e.ID, err)
	}
}

// DirectoryEntry projects an employee for the search index.
func DirectoryEntry(e *domain.Employee) domain.DirectoryEntry {
	return domain.DirectoryEntry{
		ID:         e.ID,
		FirstName:  e.FirstName,
		LastName:   e.LastName,
		Email:      e.Email,
		Department: e.Department,
		JobTitle:   e.JobTitle,
		Location:   e.Location,
		Role:       string(e.Role),
		Status:     string(onboarding.StatusOf(e)),
	}
}

// toEntry wraps one employee with its derived label.
func toEntry(e *domain.Employee) onboarding.RosterEntry {
	return onboarding.Project([]domain.Employee{*e})[0]
}
