package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/locvowork/hr_onboarding_portal/internal/domain"
	"github.com/locvowork/hr_onboarding_portal/internal/logger"
	"github.com/locvowork/hr_onboarding_portal/internal/onboarding"
	"github.com/locvowork/hr_onboarding_portal/internal/policy"
	"github.com/locvowork/hr_onboarding_portal/internal/session"
)

// DefaultSearchLimit caps directory search results.
const DefaultSearchLimit = 20

// EmployeeService serves roster, profile and stage operations.
type EmployeeService struct {
	employees domain.EmployeeRepository
	forms     domain.FormRepository
	dir       domain.Directory
	auditLog  domain.AuditLog
	audit     auditor
	index     indexer
	now       func() time.Time
}

// NewEmployeeService creates an EmployeeService. dir and audit may be nil.
func NewEmployeeService(employees domain.EmployeeRepository, forms domain.FormRepository, dir domain.Directory, audit domain.AuditLog) *EmployeeService {
	return &EmployeeService{
		employees: employees,
		forms:     forms,
		dir:       dir,
		auditLog:  audit,
		audit:     auditor{log: audit, now: time.Now},
		index:     indexer{dir: dir},
		now:       time.Now,
	}
}

// ==================== HR lists ====================

// List returns every account with its derived status, unfiltered by role.
func (s *EmployeeService) List(ctx context.Context, actor session.Principal) ([]onboarding.RosterEntry, error) {
	if err := policy.RequireHR(actor.Actor()); err != nil {
		return nil, err
	}
	emps, err := s.employees.List(ctx, domain.EmployeeFilter{})
	if err != nil {
		return nil, err
	}
	return onboarding.Project(emps), nil
}

func (s *EmployeeService) listJoiners(ctx context.Context) ([]domain.Employee, error) {
	emps, err := s.employees.List(ctx, domain.EmployeeFilter{Roles: []domain.Role{domain.RoleEmployee}})
	if err != nil {
		return nil, err
	}
	for i := range emps {
		if onboarding.StatusOf(&emps[i]) == onboarding.StatusUnknown {
			logger.WarnLog(ctx, "employee %s has unknown onboarding stage %q", emps[i].ID, emps[i].OnboardingStage)
		}
	}
	return emps, nil
}

// Roster returns one page of the filtered, sorted employee roster.
func (s *EmployeeService) Roster(ctx context.Context, actor session.Principal, q onboarding.RosterQuery) (onboarding.RosterPage, error) {
	if err := policy.RequireHR(actor.Actor()); err != nil {
		return onboarding.RosterPage{}, err
	}
	emps, err := s.listJoiners(ctx)
	if err != nil {
		return onboarding.RosterPage{}, err
	}
	return onboarding.ApplyRoster(emps, q), nil
}

// RosterRows returns every roster entry matching f in display order, for exports.
func (s *EmployeeService) RosterRows(ctx context.Context, actor session.Principal, f onboarding.RosterFilter, key onboarding.SortKey) ([]onboarding.RosterEntry, error) {
	if err := policy.RequireHR(actor.Actor()); err != nil {
		return nil, err
	}
	emps, err := s.listJoiners(ctx)
	if err != nil {
		return nil, err
	}
	return onboarding.SelectRoster(emps, f, key), nil
}

// Search queries the directory index and falls back to the roster text search when the
// index is not configured or fails.
func (s *EmployeeService) Search(ctx context.Context, actor session.Principal, q string, limit int) ([]onboarding.RosterEntry, error) {
	if err := policy.RequireHR(actor.Actor()); err != nil {
		return nil, err
	}
	q = strings.TrimSpace(q)
	if q == "" {
		return []onboarding.RosterEntry{}, nil
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	if s.dir != nil {
		ids, err := s.dir.Search(ctx, q, limit)
		if err == nil {
			return s.resolve(ctx, ids)
		}
		logger.WarnLog(ctx, "directory search failed, using roster search: %v", err)
	}

	emps, err := s.listJoiners(ctx)
	if err != nil {
		return nil, err
	}
	out := onboarding.SelectRoster(emps, onboarding.RosterFilter{Search: q}, onboarding.SortNone)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// resolve loads ids in order, skipping stale index hits.
func (s *EmployeeService) resolve(ctx context.Context, ids []string) ([]onboarding.RosterEntry, error) {
	out := make([]onboarding.RosterEntry, 0, len(ids))
	for _, id := range ids {
		e, err := s.employees.GetByID(ctx, id)
		if errors.Is(err, domain.ErrEmployeeNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, toEntry(e))
	}
	return out, nil
}

// DashboardStats summarises the portal for the HR landing page.
type DashboardStats struct {
	TotalEmployees       int                       `json:"totalEmployees"`
	ByStatus             map[onboarding.Status]int `json:"byStatus"`
	ByRole               map[domain.Role]int       `json:"byRole"`
	Unassigned           int                       `json:"unassigned"`
	PendingBasicInfo     int                       `json:"pendingBasicInfo"`
	PendingForms         int                       `json:"pendingForms"`
	PendingVerifications int                       `json:"pendingVerifications"`
}

// DashboardStats counts joiners per derived status and the review backlog.
func (s *EmployeeService) DashboardStats(ctx context.Context, actor session.Principal) (*DashboardStats, error) {
	if err := policy.RequireHR(actor.Actor()); err != nil {
		return nil, err
	}
	emps, err := s.employees.List(ctx, domain.EmployeeFilter{})
	if err != nil {
		return nil, err
	}

	stats := &DashboardStats{
		ByStatus: make(map[onboarding.Status]int),
		ByRole:   make(map[domain.Role]int),
	}
	for _, st := range onboarding.AllStatuses() {
		stats.ByStatus[st] = 0
	}
	for i := range emps {
		e := &emps[i]
		stats.ByRole[e.Role]++
		if e.Role != domain.RoleEmployee {
			continue
		}
		stats.TotalEmployees++
		stats.ByStatus[onboarding.StatusOf(e)]++
		if e.OnboardingHRID == nil {
			stats.Unassigned++
		}
		if e.BasicInfo.Status == domain.FormSubmitted {
			stats.PendingBasicInfo++
		}
	}
	if stats.PendingForms, err = s.forms.CountByStatus(ctx, domain.FormSubmitted); err != nil {
		return nil, err
	}
	stats.PendingVerifications = stats.PendingBasicInfo + stats.PendingForms
	return stats, nil
}

// ==================== Self service ====================

// Me returns the caller's own record with its derived status.
func (s *EmployeeService) Me(ctx context.Context, p session.Principal) (onboarding.RosterEntry, error) {
	e, err := s.employees.GetByID(ctx, p.ID)
	if err != nil {
		return onboarding.RosterEntry{}, err
	}
	return toEntry(e), nil
}

func (s *EmployeeService) disabledForms(ctx context.Context, employeeID string) (map[domain.FormKey]bool, error) {
	forms, err := s.forms.ListByEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	disabled := make(map[domain.FormKey]bool)
	for _, f := range forms {
		if f.Disabled {
			disabled[f.FormKey] = true
		}
	}
	return disabled, nil
}

// Navigation returns the caller's reachable sections, forms and sidebar.
func (s *EmployeeService) Navigation(ctx context.Context, p session.Principal) (onboarding.Navigation, error) {
	e, err := s.employees.GetByID(ctx, p.ID)
	if err != nil {
		return onboarding.Navigation{}, err
	}
	disabled, err := s.disabledForms(ctx, e.ID)
	if err != nil {
		return onboarding.Navigation{}, err
	}
	return onboarding.Navigate(e.OnboardingStage, disabled), nil
}

// Guard decides whether the caller may open an employee page.
func (s *EmployeeService) Guard(ctx context.Context, p session.Principal, path string) (onboarding.Guard, error) {
	e, err := s.employees.GetByID(ctx, p.ID)
	if err != nil {
		return onboarding.Guard{}, err
	}
	disabled, err := s.disabledForms(ctx, e.ID)
	if err != nil {
		return onboarding.Guard{}, err
	}
	return onboarding.GuardRoute(path, e.OnboardingStage, disabled), nil
}

// SaveBasicInfo stores the caller's profile capture as a draft or submits it for review.
// Name and contact keys are mirrored onto the account.
func (s *EmployeeService) SaveBasicInfo(ctx context.Context, p session.Principal, data map[string]interface{}, submit bool) (*domain.Employee, error) {
	e, err := s.employees.GetByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	action := onboarding.ActionSaveDraft
	if submit {
		action = onboarding.ActionSubmit
	}
	next, err := onboarding.NextFormStatus(e.BasicInfo.Status, action, "")
	if err != nil {
		return nil, err
	}
	data = sanitizeData(data)
	if err := validatePayload(data); err != nil {
		return nil, err
	}

	if v, ok := data["firstName"].(string); ok && v != "" {
		e.FirstName = v
	}
	if v, ok := data["lastName"].(string); ok {
		e.LastName = v
	}
	if v, ok := data["phone"].(string); ok && v != "" {
		e.Phone = v
	}
	if v, ok := data["personalEmail"].(string); ok && v != "" {
		e.PersonalEmail = strings.ToLower(v)
	}

	now := s.now().UTC()
	e.BasicInfo.Data = data
	e.BasicInfo.Status = next
	if submit {
		e.BasicInfo.SubmittedAt = &now
		e.BasicInfo.RejectionReason = ""
	}
	e.UpdatedAt = now
	if err := s.employees.Update(ctx, e); err != nil {
		return nil, err
	}
	s.index.index(ctx, e)
	return e, nil
}

// MyHR returns the caller's onboarding HR contact.
func (s *EmployeeService) MyHR(ctx context.Context, p session.Principal) (*domain.Employee, error) {
	e, err := s.employees.GetByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if e.OnboardingHRID == nil {
		return nil, fmt.Errorf("%w: no onboarding HR assigned", domain.ErrEmployeeNotFound)
	}
	return s.employees.GetByID(ctx, *e.OnboardingHRID)
}

// ==================== HR record management ====================

// Get returns one record. Employees may only read their own.
func (s *EmployeeService) Get(ctx context.Context, actor session.Principal, id string) (onboarding.RosterEntry, error) {
	e, err := s.employees.GetByID(ctx, id)
	if err != nil {
		return onboarding.RosterEntry{}, err
	}
	if err := policy.CanView(actor.Actor(), e); err != nil {
		return onboarding.RosterEntry{}, err
	}
	return toEntry(e), nil
}

// UpdateInput is a partial HR edit. Nil fields are left untouched; an empty
// DateOfJoining or OnboardingHRID clears the value.
type UpdateInput struct {
	FirstName      *string `json:"firstName"`
	LastName       *string `json:"lastName"`
	Phone          *string `json:"phone"`
	PersonalEmail  *string `json:"personalEmail"`
	Department     *string `json:"department"`
	JobTitle       *string `json:"jobTitle"`
	Location       *string `json:"location"`
	DateOfJoining  *string `json:"dateOfJoining"`
	OnboardingHRID *string `json:"onboardingHrId"`
	AccountStatus  *string `json:"accountStatus"`
}

// Update applies an HR edit and returns the stored record.
func (s *EmployeeService) Update(ctx context.Context, actor session.Principal, id string, in UpdateInput) (onboarding.RosterEntry, error) {
	e, err := s.loadManaged(ctx, actor, id)
	if err != nil {
		return onboarding.RosterEntry{}, err
	}

	var changed []string
	setText := func(name string, dst *string, v *string) {
		if v != nil {
			*dst = sanitize(*v)
			changed = append(changed, name)
		}
	}
	if in.FirstName != nil && sanitize(*in.FirstName) == "" {
		return onboarding.RosterEntry{}, domain.ErrInvalidName
	}
	setText("firstName", &e.FirstName, in.FirstName)
	setText("lastName", &e.LastName, in.LastName)
	setText("department", &e.Department, in.Department)
	setText("jobTitle", &e.JobTitle, in.JobTitle)
	setText("location", &e.Location, in.Location)

	if in.Phone != nil {
		if *in.Phone != "" {
			if err := ValidatePhone(*in.Phone); err != nil {
				return onboarding.RosterEntry{}, err
			}
		}
		e.Phone = strings.TrimSpace(*in.Phone)
		changed = append(changed, "phone")
	}
	if in.PersonalEmail != nil {
		e.PersonalEmail = ""
		if *in.PersonalEmail != "" {
			if e.PersonalEmail, err = ValidateEmail(*in.PersonalEmail); err != nil {
				return onboarding.RosterEntry{}, err
			}
		}
		changed = append(changed, "personalEmail")
	}
	if in.DateOfJoining != nil {
		if e.DateOfJoining, err = ParseDate(*in.DateOfJoining); err != nil {
			return onboarding.RosterEntry{}, err
		}
		changed = append(changed, "dateOfJoining")
	}
	if in.OnboardingHRID != nil {
		if err := s.assignHR(ctx, e, strings.TrimSpace(*in.OnboardingHRID)); err != nil {
			return onboarding.RosterEntry{}, err
		}
		changed = append(changed, "onboardingHrId")
	}
	if in.AccountStatus != nil {
		st, err := domain.ParseAccountStatus(*in.AccountStatus)
		if err != nil {
			return onboarding.RosterEntry{}, err
		}
		e.AccountStatus = st
		changed = append(changed, "accountStatus")
	}

	if err := s.save(ctx, e); err != nil {
		return onboarding.RosterEntry{}, err
	}
	s.audit.record(ctx, actor, e.ID, domain.AuditProfileUpdated, strings.Join(changed, ","))
	return toEntry(e), nil
}

func (s *EmployeeService) assignHR(ctx context.Context, e *domain.Employee, hrID string) error {
	if hrID == "" {
		e.OnboardingHRID = nil
		e.OnboardingHRName = ""
		return nil
	}
	hr, err := s.employees.GetByID(ctx, hrID)
	if err != nil && !errors.Is(err, domain.ErrEmployeeNotFound) {
		return err
	}
	if err := policy.CanAssignHR(hr); err != nil {
		return err
	}
	e.OnboardingHRID = &hr.ID
	e.OnboardingHRName = hr.FullName()
	return nil
}

// Deactivate soft deletes: the employee becomes Not_joined and Inactive.
func (s *EmployeeService) Deactivate(ctx context.Context, actor session.Principal, id string) (onboarding.RosterEntry, error) {
	e, err := s.employees.GetByID(ctx, id)
	if err != nil {
		return onboarding.RosterEntry{}, err
	}
	if err := policy.CanDeactivate(actor.Actor(), e); err != nil {
		return onboarding.RosterEntry{}, err
	}
	from := e.OnboardingStage
	onboarding.Deactivate(e)
	if err := s.save(ctx, e); err != nil {
		return onboarding.RosterEntry{}, err
	}
	s.audit.record(ctx, actor, e.ID, domain.AuditEmployeeDeactivate, string(from))
	return toEntry(e), nil
}

// Activate restores a deactivated employee to the stage it had.
func (s *EmployeeService) Activate(ctx context.Context, actor session.Principal, id string) (onboarding.RosterEntry, error) {
	e, err := s.loadManaged(ctx, actor, id)
	if err != nil {
		return onboarding.RosterEntry{}, err
	}
	onboarding.Activate(e)
	if err := s.save(ctx, e); err != nil {
		return onboarding.RosterEntry{}, err
	}
	s.audit.record(ctx, actor, e.ID, domain.AuditEmployeeActivate, string(e.OnboardingStage))
	return toEntry(e), nil
}

// VerifyBasicInfo records the HR decision on the profile capture.
func (s *EmployeeService) VerifyBasicInfo(ctx context.Context, actor session.Principal, id, status, reason string) (onboarding.RosterEntry, error) {
	e, err := s.loadManaged(ctx, actor, id)
	if err != nil {
		return onboarding.RosterEntry{}, err
	}
	decision, err := domain.ParseFormStatus(status)
	if err != nil {
		return onboarding.RosterEntry{}, err
	}
	reason = sanitize(reason)
	if err := onboarding.VerifyBasicInfo(e, decision, reason, actor.Name, s.now().UTC()); err != nil {
		return onboarding.RosterEntry{}, err
	}
	if err := s.save(ctx, e); err != nil {
		return onboarding.RosterEntry{}, err
	}
	action := domain.AuditBasicInfoVerified
	if decision == domain.FormRejected {
		action = domain.AuditBasicInfoRejected
	}
	s.audit.record(ctx, actor, e.ID, action, reason)
	return toEntry(e), nil
}

// AdvanceStage moves the employee strictly forward.
func (s *EmployeeService) AdvanceStage(ctx context.Context, actor session.Principal, id, target string) (onboarding.RosterEntry, error) {
	e, err := s.loadManaged(ctx, actor, id)
	if err != nil {
		return onboarding.RosterEntry{}, err
	}
	to, err := domain.ParseStage(target)
	if err != nil {
		return onboarding.RosterEntry{}, err
	}
	from := e.OnboardingStage
	if e.OnboardingStage, err = onboarding.Advance(from, to); err != nil {
		return onboarding.RosterEntry{}, err
	}
	if err := s.save(ctx, e); err != nil {
		return onboarding.RosterEntry{}, err
	}
	s.audit.record(ctx, actor, e.ID, domain.AuditStageAdvanced, fmt.Sprintf("%s -> %s", from, to))
	return toEntry(e), nil
}

// SetFormAccess toggles whether the employee may open one form.
func (s *EmployeeService) SetFormAccess(ctx context.Context, actor session.Principal, id, form string, disabled bool) (*domain.FormRecord, error) {
	e, err := s.loadManaged(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	key, err := domain.ParseFormKey(form)
	if err != nil {
		return nil, err
	}
	f, err := s.forms.Get(ctx, e.ID, key)
	if errors.Is(err, domain.ErrFormNotFound) {
		f, err = domain.NewPendingForm(e.ID, key), nil
	}
	if err != nil {
		return nil, err
	}
	f.Disabled = disabled
	f.UpdatedAt = s.now().UTC()
	if err := s.forms.Upsert(ctx, f); err != nil {
		return nil, err
	}
	s.audit.record(ctx, actor, e.ID, domain.AuditFormAccessToggled, fmt.Sprintf("%s disabled=%t", key, disabled))
	return f, nil
}

// Audit lists the newest HR actions on one employee.
func (s *EmployeeService) Audit(ctx context.Context, actor session.Principal, id string, limit int) ([]domain.AuditEvent, error) {
	if err := policy.RequireHR(actor.Actor()); err != nil {
		return nil, err
	}
	if _, err := s.employees.GetByID(ctx, id); err != nil {
		return nil, err
	}
	if s.auditLog == nil {
		return []domain.AuditEvent{}, nil
	}
	return s.auditLog.ListByEmployee(ctx, id, limit)
}

func (s *EmployeeService) loadManaged(ctx context.Context, actor session.Principal, id string) (*domain.Employee, error) {
	e, err := s.employees.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.CanManage(actor.Actor(), e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *EmployeeService) save(ctx context.Context, e *domain.Employee) error {
	e.UpdatedAt = s.now().UTC()
	if err := s.employees.Update(ctx, e); err != nil {
		return err
	}
	s.index.index(ctx, e)
	return nil
}
