// Package memory implements the repository interfaces on in-process maps. It backs
// STORE_DRIVER=memory and the service tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/locvowork/hr_onboarding_portal/internal/domain"
)

type formID struct {
	employeeID string
	key        domain.FormKey
}

// Store holds every record behind one lock.
type Store struct {
	mu        sync.RWMutex
	employees map[string]domain.Employee
	byEmail   map[string]string
	forms     map[formID]domain.FormRecord
	documents map[string]domain.DocumentRecord
	audit     []domain.AuditEvent
}

// New returns an empty store.
func New() *Store {
	return &Store{
		employees: make(map[string]domain.Employee),
		byEmail:   make(map[string]string),
		forms:     make(map[formID]domain.FormRecord),
		documents: make(map[string]domain.DocumentRecord),
	}
}

// Employees returns the employee repository view.
func (s *Store) Employees() domain.EmployeeRepository { return employeeRepo{s} }

// Forms returns the form repository view.
func (s *Store) Forms() domain.FormRepository { return formRepo{s} }

// Documents returns the document repository view.
func (s *Store) Documents() domain.DocumentRepository { return documentRepo{s} }

// AuditLog returns an audit log kept in memory.
func (s *Store) AuditLog() domain.AuditLog { return auditLog{s} }

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func copyData(in map[string]interface{}) map[string]interface{} {
	if in == nil {
		return nil
	}
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// ==================== EMPLOYEES ====================

type employeeRepo struct{ s *Store }

func (r employeeRepo) Create(_ context.Context, e *domain.Employee) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	email := normalizeEmail(e.Email)
	if _, taken := r.s.byEmail[email]; taken {
		return domain.ErrEmailAlreadyExists
	}
	stored := *e
	stored.Email = email
	stored.OnboardingHRName = ""
	stored.BasicInfo.Data = copyData(e.BasicInfo.Data)
	r.s.employees[e.ID] = stored
	r.s.byEmail[email] = e.ID
	return nil
}

func (r employeeRepo) GetByID(_ context.Context, id string) (*domain.Employee, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.loadEmployee(id)
}

func (r employeeRepo) GetByEmail(_ context.Context, email string) (*domain.Employee, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	id, ok := r.s.byEmail[normalizeEmail(email)]
	if !ok {
		return nil, domain.ErrEmployeeNotFound
	}
	return r.s.loadEmployee(id)
}

// loadEmployee copies a record and resolves its HR name. Caller holds the lock.
func (s *Store) loadEmployee(id string) (*domain.Employee, error) {
	e, ok := s.employees[id]
	if !ok {
		return nil, domain.ErrEmployeeNotFound
	}
	e.BasicInfo.Data = copyData(e.BasicInfo.Data)
	e.OnboardingStage = e.OnboardingStage.Canonical()
	if e.OnboardingHRID != nil {
		if hr, ok := s.employees[*e.OnboardingHRID]; ok {
			e.OnboardingHRName = hr.FullName()
		}
	}
	return &e, nil
}

func (r employeeRepo) Update(_ context.Context, e *domain.Employee) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	prev, ok := r.s.employees[e.ID]
	if !ok {
		return domain.ErrEmployeeNotFound
	}
	email := normalizeEmail(e.Email)
	if owner, taken := r.s.byEmail[email]; taken && owner != e.ID {
		return domain.ErrEmailAlreadyExists
	}
	delete(r.s.byEmail, prev.Email)

	stored := *e
	stored.Email = email
	stored.OnboardingHRName = ""
	stored.BasicInfo.Data = copyData(e.BasicInfo.Data)
	r.s.employees[e.ID] = stored
	r.s.byEmail[email] = e.ID
	return nil
}

func (r employeeRepo) List(_ context.Context, filter domain.EmployeeFilter) ([]domain.Employee, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	roles := make(map[domain.Role]bool, len(filter.Roles))
	for _, role := range filter.Roles {
		roles[role] = true
	}

	out := make([]domain.Employee, 0, len(r.s.employees))
	for id, e := range r.s.employees {
		if len(roles) > 0 && !roles[e.Role] {
			continue
		}
		if filter.OnboardingHRID != "" && (e.OnboardingHRID == nil || *e.OnboardingHRID != filter.OnboardingHRID) {
			continue
		}
		loaded, _ := r.s.loadEmployee(id)
		out = append(out, *loaded)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return []domain.Employee{}, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

// ==================== FORMS ====================

type formRepo struct{ s *Store }

func (r formRepo) Get(_ context.Context, employeeID string, key domain.FormKey) (*domain.FormRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	f, ok := r.s.forms[formID{employeeID, key}]
	if !ok {
		return nil, domain.ErrFormNotFound
	}
	f.Data = copyData(f.Data)
	return &f, nil
}

func (r formRepo) ListByEmployee(_ context.Context, employeeID string) ([]domain.FormRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []domain.FormRecord
	for id, f := range r.s.forms {
		if id.employeeID == employeeID {
			f.Data = copyData(f.Data)
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FormKey < out[j].FormKey })
	return out, nil
}

func (r formRepo) CountByStatus(_ context.Context, status domain.FormStatus) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n := 0
	for _, f := range r.s.forms {
		if f.Status == status {
			n++
		}
	}
	return n, nil
}

func (r formRepo) Upsert(_ context.Context, f *domain.FormRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored := *f
	stored.Data = copyData(f.Data)
	r.s.forms[formID{f.EmployeeID, f.FormKey}] = stored
	return nil
}

// ==================== DOCUMENTS ====================

type documentRepo struct{ s *Store }

func (r documentRepo) Create(_ context.Context, d *domain.DocumentRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.documents[d.ID] = *d
	return nil
}

func (r documentRepo) GetByID(_ context.Context, id string) (*domain.DocumentRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	d, ok := r.s.documents[id]
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}
	return &d, nil
}

func (r documentRepo) ListByEmployee(_ context.Context, employeeID string) ([]domain.DocumentRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []domain.DocumentRecord
	for _, d := range r.s.documents {
		if d.EmployeeID == employeeID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UploadedAt.Equal(out[j].UploadedAt) {
			return out[i].UploadedAt.Before(out[j].UploadedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r documentRepo) Update(_ context.Context, d *domain.DocumentRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.documents[d.ID]; !ok {
		return domain.ErrDocumentNotFound
	}
	r.s.documents[d.ID] = *d
	return nil
}

func (r documentRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.documents[id]; !ok {
		return domain.ErrDocumentNotFound
	}
	delete(r.s.documents, id)
	return nil
}

// ==================== AUDIT ====================

type auditLog struct{ s *Store }

func (a auditLog) Record(_ context.Context, ev domain.AuditEvent) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	a.s.audit = append(a.s.audit, ev)
	return nil
}

// ListByEmployee returns the newest events first.
func (a auditLog) ListByEmployee(_ context.Context, employeeID string, limit int) ([]domain.AuditEvent, error) {
	a.s.mu.RLock()
	defer a.s.mu.RUnlock()
	var out []domain.AuditEvent
	for i := len(a.s.audit) - 1; i >= 0; i-- {
		if a.s.audit[i].EmployeeID != employeeID {
			continue
		}
		out = append(out, a.s.audit[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
