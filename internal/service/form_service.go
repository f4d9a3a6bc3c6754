package service

import (
	"context"
	"errors"
	"path"
	"time"

	"github.com/locvowork/hr_onboarding_portal/internal/domain"
	"github.com/locvowork/hr_onboarding_portal/internal/logger"
	"github.com/locvowork/hr_onboarding_portal/internal/onboarding"
	"github.com/locvowork/hr_onboarding_portal/internal/policy"
	"github.com/locvowork/hr_onboarding_portal/internal/session"
)

// MaxSignatureSize is the largest accepted signature image.
const MaxSignatureSize = 200 * 1024

// Upload is a file received from a multipart request.
type Upload struct {
	FileName    string
	ContentType string
	Data        []byte
}

// FormService handles the eight HR forms.
type FormService struct {
	employees domain.EmployeeRepository
	forms     domain.FormRepository
	files     domain.FileStore
	audit     auditor
	now       func() time.Time
}

// NewFormService creates a FormService.
func NewFormService(employees domain.EmployeeRepository, forms domain.FormRepository, files domain.FileStore, audit domain.AuditLog) *FormService {
	return &FormService{
		employees: employees,
		forms:     forms,
		files:     files,
		audit:     auditor{log: audit, now: time.Now},
		now:       time.Now,
	}
}

func (s *FormService) load(ctx context.Context, employeeID string, key domain.FormKey) (*domain.FormRecord, error) {
	f, err := s.forms.Get(ctx, employeeID, key)
	if errors.Is(err, domain.ErrFormNotFound) {
		return domain.NewPendingForm(employeeID, key), nil
	}
	return f, err
}

// Save stores the caller's form as a draft or submits it. The section gate and the per-form
// HR toggle are checked first, so a blocked form answers ErrFormNotReachable.
func (s *FormService) Save(ctx context.Context, p session.Principal, formName string, data map[string]interface{}, submit bool, signature *Upload) (*domain.FormRecord, error) {
	key, err := domain.ParseFormKey(formName)
	if err != nil {
		return nil, err
	}
	e, err := s.employees.GetByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	f, err := s.load(ctx, e.ID, key)
	if err != nil {
		return nil, err
	}
	if !onboarding.CanReachForm(e.OnboardingStage, key, f.Disabled) {
		return nil, domain.ErrFormNotReachable
	}

	action := onboarding.ActionSaveDraft
	if submit {
		action = onboarding.ActionSubmit
	}
	next, err := onboarding.NextFormStatus(f.Status, action, "")
	if err != nil {
		return nil, err
	}
	if signature != nil && len(signature.Data) > MaxSignatureSize {
		return nil, domain.ErrSignatureTooLarge
	}
	data = sanitizeData(data)
	if err := validatePayload(data); err != nil {
		return nil, err
	}

	if signature != nil && len(signature.Data) > 0 {
		stored, err := s.files.Save(ctx, path.Join("signatures", e.ID), string(key)+"_"+signature.FileName, signature.Data)
		if err != nil {
			return nil, err
		}
		if f.SignaturePath != "" {
			if err := s.files.Remove(ctx, f.SignaturePath); err != nil {
				logger.WarnLog(ctx, "failed to remove old signature %s: %v", f.SignaturePath, err)
			}
		}
		f.SignaturePath = stored
	}

	now := s.now().UTC()
	if data != nil {
		f.Data = data
	}
	f.Status = next
	if submit {
		f.SubmittedAt = &now
		f.RejectionReason = ""
	}
	f.UpdatedAt = now
	if err := s.forms.Upsert(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// Get returns the caller's own form, PENDING when never touched.
func (s *FormService) Get(ctx context.Context, p session.Principal, formName string) (*domain.FormRecord, error) {
	key, err := domain.ParseFormKey(formName)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, p.ID, key)
}

// ListForEmployee returns all eight forms of an employee, untouched ones as PENDING.
func (s *FormService) ListForEmployee(ctx context.Context, actor session.Principal, employeeID string) ([]domain.FormRecord, error) {
	e, err := s.employees.GetByID(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if err := policy.CanView(actor.Actor(), e); err != nil {
		return nil, err
	}
	stored, err := s.forms.ListByEmployee(ctx, e.ID)
	if err != nil {
		return nil, err
	}
	byKey := make(map[domain.FormKey]domain.FormRecord, len(stored))
	for _, f := range stored {
		byKey[f.FormKey] = f
	}
	out := make([]domain.FormRecord, 0, len(domain.AllFormKeys()))
	for _, k := range domain.AllFormKeys() {
		if f, ok := byKey[k]; ok {
			out = append(out, f)
			continue
		}
		out = append(out, *domain.NewPendingForm(e.ID, k))
	}
	return out, nil
}

// Verify records an HR decision on a submitted form.
func (s *FormService) Verify(ctx context.Context, actor session.Principal, formName, employeeID, status, remarks string) (*domain.FormRecord, error) {
	key, err := domain.ParseFormKey(formName)
	if err != nil {
		return nil, err
	}
	e, err := s.employees.GetByID(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if err := policy.CanManage(actor.Actor(), e); err != nil {
		return nil, err
	}
	decision, err := domain.ParseFormStatus(status)
	if err != nil {
		return nil, err
	}
	action, err := onboarding.ReviewAction(decision)
	if err != nil {
		return nil, err
	}
	f, err := s.load(ctx, e.ID, key)
	if err != nil {
		return nil, err
	}
	remarks = sanitize(remarks)
	next, err := onboarding.NextFormStatus(f.Status, action, remarks)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	f.Status = next
	f.VerifiedByName = actor.Name
	if next == domain.FormVerified {
		f.VerifiedAt = &now
		f.RejectionReason = ""
	} else {
		f.RejectionReason = remarks
	}
	f.UpdatedAt = now
	if err := s.forms.Upsert(ctx, f); err != nil {
		return nil, err
	}

	auditAction := domain.AuditFormVerified
	if next == domain.FormRejected {
		auditAction = domain.AuditFormRejected
	}
	s.audit.record(ctx, actor, e.ID, auditAction, string(key)+": "+remarks)
	return f, nil
}

// FormSummary is the review state of one form without its answers.
type FormSummary struct {
	Status          domain.FormStatus `json:"status"`
	Disabled        bool              `json:"disabled"`
	VerifiedByName  string            `json:"verifiedByName,omitempty"`
	RejectionReason string            `json:"rejectionReason,omitempty"`
	SubmittedAt     *time.Time        `json:"submittedAt,omitempty"`
	VerifiedAt      *time.Time        `json:"verifiedAt,omitempty"`
}

// AutoFillResult is the prefill payload plus the state of every form.
type AutoFillResult struct {
	Data      map[string]interface{}         `json:"data"`
	BasicInfo domain.BasicInfo               `json:"basicInfo"`
	Forms     map[domain.FormKey]FormSummary `json:"forms"`
}

// AutoFill merges profile fields, basic info and earlier form answers into one map used to
// prefill the next form, and reports the status of all eight forms. Profile fields win over
// form answers.
func (s *FormService) AutoFill(ctx context.Context, actor session.Principal, employeeID string) (*AutoFillResult, error) {
	forms, err := s.ListForEmployee(ctx, actor, employeeID)
	if err != nil {
		return nil, err
	}
	e, err := s.employees.GetByID(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	out := make(map[string]interface{})
	merge := func(m map[string]interface{}) {
		for k, v := range m {
			if _, ok := out[k]; !ok {
				out[k] = v
			}
		}
	}

	profile := map[string]interface{}{
		"firstName":  e.FirstName,
		"lastName":   e.LastName,
		"fullName":   e.FullName(),
		"email":      e.Email,
		"department": e.Department,
		"jobTitle":   e.JobTitle,
		"location":   e.Location,
	}
	if e.PersonalEmail != "" {
		profile["personalEmail"] = e.PersonalEmail
	}
	if e.Phone != "" {
		profile["phone"] = e.Phone
	}
	if e.DateOfJoining != nil {
		profile["dateOfJoining"] = e.DateOfJoining.Format(DateLayout)
	}
	merge(profile)
	merge(e.BasicInfo.Data)

	summaries := make(map[domain.FormKey]FormSummary, len(forms))
	for _, f := range forms {
		merge(f.Data)
		summaries[f.FormKey] = FormSummary{
			Status:          f.Status,
			Disabled:        f.Disabled,
			VerifiedByName:  f.VerifiedByName,
			RejectionReason: f.RejectionReason,
			SubmittedAt:     f.SubmittedAt,
			VerifiedAt:      f.VerifiedAt,
		}
	}

	basic := e.BasicInfo
	basic.Data = nil
	return &AutoFillResult{Data: out, BasicInfo: basic, Forms: summaries}, nil
}
