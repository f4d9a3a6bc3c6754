package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/locvowork/hr_onboarding_portal/internal/domain"
	"github.com/locvowork/hr_onboarding_portal/internal/mailer"
	"github.com/locvowork/hr_onboarding_portal/internal/repository/memory"
	"github.com/locvowork/hr_onboarding_portal/internal/session"
)

const testPassword = "Welcome@123"

var testNow = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

// memFiles is an in-memory FileStore.
type memFiles struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newMemFiles() *memFiles { return &memFiles{files: make(map[string][]byte)} }

func (m *memFiles) Save(_ context.Context, dir, name string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := dir + "/" + uuid.NewString() + "_" + name
	m.files[p] = data
	return p, nil
}

func (m *memFiles) Remove(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, path)
	return nil
}

func (m *memFiles) Read(_ context.Context, path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[path]
	if !ok {
		return nil, fmt.Errorf("no file %s", path)
	}
	return data, nil
}

func (m *memFiles) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.files)
}

// fakeDirectory is a substring-matching Directory.
type fakeDirectory struct {
	mu         sync.Mutex
	entries    map[string]domain.DirectoryEntry
	searchErr  error
	bulkFails  int
	bulkCalls  int
	deletedIDs []string
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{entries: make(map[string]domain.DirectoryEntry)}
}

func (d *fakeDirectory) Index(_ context.Context, e domain.DirectoryEntry) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries[e.ID] = e
	return nil
}

func (d *fakeDirectory) BulkIndex(_ context.Context, entries []domain.DirectoryEntry) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.bulkCalls++
	if d.bulkFails > 0 {
		d.bulkFails--
		return errors.New("bulk rejected")
	}
	for _, e := range entries {
		d.entries[e.ID] = e
	}
	return nil
}

func (d *fakeDirectory) Search(_ context.Context, q string, limit int) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.searchErr != nil {
		return nil, d.searchErr
	}
	var ids []string
	q = strings.ToLower(q)
	for id, e := range d.entries {
		if strings.Contains(strings.ToLower(e.FirstName+" "+e.LastName+" "+e.Email+" "+e.Department), q) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (d *fakeDirectory) IDs(_ context.Context) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	ids := make([]string, 0, len(d.entries))
	for id := range d.entries {
		ids = append(ids, id)
	}
	return ids, nil
}

func (d *fakeDirectory) Delete(_ context.Context, ids []string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, id := range ids {
		delete(d.entries, id)
	}
	d.deletedIDs = append(d.deletedIDs, ids...)
	return nil
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu   sync.Mutex
	keys []string
}

func (p *recordingPublisher) Publish(_ context.Context, key string, _ interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, key)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type fixture struct {
	store  *memory.Store
	files  *memFiles
	dir    *fakeDirectory
	pub    *recordingPublisher
	tokens *session.Manager

	auth     *AuthService
	emps     *EmployeeService
	forms    *FormService
	docs     *DocumentService
	email    *EmailService
	export   *ExportService
	reindex  *ReindexService
	super    *domain.Employee
	hr       *domain.Employee
	hashOnce string
	seq      int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fx := &fixture{
		store:  memory.New(),
		files:  newMemFiles(),
		dir:    newFakeDirectory(),
		pub:    &recordingPublisher{},
		tokens: session.NewManager("test-secret", time.Hour),
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	fx.hashOnce = string(hash)

	audit := fx.store.AuditLog()
	fx.auth = NewAuthService(fx.store.Employees(), fx.tokens, audit, fx.dir)
	fx.auth.now = fixedNow
	fx.emps = NewEmployeeService(fx.store.Employees(), fx.store.Forms(), fx.dir, audit)
	fx.emps.now = fixedNow
	fx.forms = NewFormService(fx.store.Employees(), fx.store.Forms(), fx.files, audit)
	fx.forms.now = fixedNow
	fx.docs = NewDocumentService(fx.store.Employees(), fx.store.Documents(), fx.files, audit)
	fx.docs.now = fixedNow
	fx.email = NewEmailService(fx.store.Employees(), mailer.New(fx.pub, "Portal", "https://portal.test"), audit)
	fx.export = NewExportService(fx.emps)
	fx.export.now = fixedNow
	fx.reindex = NewReindexService(fx.store.Employees(), fx.dir)
	fx.reindex.backoff = func(int) time.Duration { return time.Millisecond }

	fx.super = fx.add(t, domain.RoleHRSuperAdmin, domain.StageOnboarded, true)
	fx.hr = fx.add(t, domain.RoleHRAdmin, domain.StageOnboarded, true)
	return fx
}

// add stores an account directly, bypassing Register.
func (fx *fixture) add(t *testing.T, role domain.Role, stage domain.Stage, loggedIn bool, mods ...func(*domain.Employee)) *domain.Employee {
	t.Helper()
	fx.seq++
	e := &domain.Employee{
		ID:              uuid.NewString(),
		Email:           fmt.Sprintf("user%02d@corp.test", fx.seq),
		PasswordHash:    fx.hashOnce,
		Role:            role,
		FirstName:       fmt.Sprintf("User%02d", fx.seq),
		LastName:        "Test",
		Department:      "Engineering",
		OnboardingStage: stage,
		AccountStatus:   domain.AccountInvited,
		BasicInfo:       domain.BasicInfo{Status: domain.FormPending},
		CreatedAt:       testNow.Add(time.Duration(fx.seq) * time.Minute),
		UpdatedAt:       testNow,
	}
	if loggedIn {
		ts := testNow.Add(-time.Hour)
		e.FirstLoginAt, e.LastLoginAt = &ts, &ts
		e.AccountStatus = domain.AccountActive
	}
	if stage != domain.StageBasicInfo {
		e.BasicInfo.Status = domain.FormVerified
	}
	for _, m := range mods {
		m(e)
	}
	require.NoError(t, fx.store.Employees().Create(context.Background(), e))
	return e
}

func as(e *domain.Employee) session.Principal {
	return session.Principal{ID: e.ID, Email: e.Email, Name: e.FullName(), Role: e.Role}
}
