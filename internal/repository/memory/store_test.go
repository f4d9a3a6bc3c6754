package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locvowork/hr_onboarding_portal/internal/domain"
)

func TestEmployeeRepo(t *testing.T) {
	ctx := context.Background()
	repo := New().Employees()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	hrID := "hr-1"

	require.NoError(t, repo.Create(ctx, &domain.Employee{ID: hrID, Email: "hr@acme.io", Role: domain.RoleHRAdmin,
		FirstName: "Meera", LastName: "Iyer", CreatedAt: base}))
	require.NoError(t, repo.Create(ctx, &domain.Employee{ID: "e1", Email: "E1@Acme.io", Role: domain.RoleEmployee,
		OnboardingHRID: &hrID, CreatedAt: base.Add(time.Hour)}))
	require.NoError(t, repo.Create(ctx, &domain.Employee{ID: "e2", Email: "e2@acme.io", Role: domain.RoleEmployee,
		CreatedAt: base.Add(2 * time.Hour)}))

	t.Run("duplicate email", func(t *testing.T) {
		err := repo.Create(ctx, &domain.Employee{ID: "e3", Email: " e1@acme.io"})
		assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)
	})

	t.Run("lookup by email resolves hr name", func(t *testing.T) {
		e, err := repo.GetByEmail(ctx, "e1@ACME.io")
		require.NoError(t, err)
		assert.Equal(t, "e1", e.ID)
		assert.Equal(t, "Meera Iyer", e.OnboardingHRName)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := repo.GetByID(ctx, "ghost")
		assert.ErrorIs(t, err, domain.ErrEmployeeNotFound)
		assert.ErrorIs(t, repo.Update(ctx, &domain.Employee{ID: "ghost"}), domain.ErrEmployeeNotFound)
	})

	t.Run("list filters and orders", func(t *testing.T) {
		all, err := repo.List(ctx, domain.EmployeeFilter{})
		require.NoError(t, err)
		assert.Len(t, all, 3)
		assert.Equal(t, hrID, all[0].ID)

		emps, err := repo.List(ctx, domain.EmployeeFilter{Roles: []domain.Role{domain.RoleEmployee}})
		require.NoError(t, err)
		assert.Len(t, emps, 2)

		mine, err := repo.List(ctx, domain.EmployeeFilter{OnboardingHRID: hrID})
		require.NoError(t, err)
		require.Len(t, mine, 1)
		assert.Equal(t, "e1", mine[0].ID)

		page, err := repo.List(ctx, domain.EmployeeFilter{Offset: 1, Limit: 1})
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, "e1", page[0].ID)
	})

	t.Run("update changes email index", func(t *testing.T) {
		e, err := repo.GetByID(ctx, "e2")
		require.NoError(t, err)
		e.Email = "renamed@acme.io"
		require.NoError(t, repo.Update(ctx, e))

		_, err = repo.GetByEmail(ctx, "e2@acme.io")
		assert.ErrorIs(t, err, domain.ErrEmployeeNotFound)
		got, err := repo.GetByEmail(ctx, "renamed@acme.io")
		require.NoError(t, err)
		assert.Equal(t, "e2", got.ID)

		e.Email = "e1@acme.io"
		assert.ErrorIs(t, repo.Update(ctx, e), domain.ErrEmailAlreadyExists)
	})

	t.Run("returned records are copies", func(t *testing.T) {
		e, err := repo.GetByID(ctx, "e1")
		require.NoError(t, err)
		e.Department = "Mutated"
		again, err := repo.GetByID(ctx, "e1")
		require.NoError(t, err)
		assert.Empty(t, again.Department)
	})
}

func TestEmployeeRepoCanonicalStage(t *testing.T) {
	ctx := context.Background()
	repo := New().Employees()
	require.NoError(t, repo.Create(ctx, &domain.Employee{ID: "legacy", Email: "legacy@acme.io", Role: domain.RoleEmployee,
		OnboardingStage: domain.Stage("ACTIVE")}))

	e, err := repo.GetByID(ctx, "legacy")
	require.NoError(t, err)
	assert.Equal(t, domain.StageOnboarded, e.OnboardingStage)

	all, err := repo.List(ctx, domain.EmployeeFilter{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, domain.StageOnboarded, all[0].OnboardingStage)
}

func TestFormRepo(t *testing.T) {
	ctx := context.Background()
	repo := New().Forms()

	_, err := repo.Get(ctx, "e1", domain.FormNDA)
	assert.ErrorIs(t, err, domain.ErrFormNotFound)

	require.NoError(t, repo.Upsert(ctx, &domain.FormRecord{EmployeeID: "e1", FormKey: domain.FormNDA, Status: domain.FormSubmitted}))
	require.NoError(t, repo.Upsert(ctx, &domain.FormRecord{EmployeeID: "e1", FormKey: domain.FormEPF, Status: domain.FormPending}))
	require.NoError(t, repo.Upsert(ctx, &domain.FormRecord{EmployeeID: "e2", FormKey: domain.FormNDA, Status: domain.FormSubmitted}))
	require.NoError(t, repo.Upsert(ctx, &domain.FormRecord{EmployeeID: "e1", FormKey: domain.FormEPF, Status: domain.FormSubmitted}))

	forms, err := repo.ListByEmployee(ctx, "e1")
	require.NoError(t, err)
	require.Len(t, forms, 2)
	assert.Equal(t, domain.FormEPF, forms[0].FormKey)

	n, err := repo.CountByStatus(ctx, domain.FormSubmitted)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestDocumentRepo(t *testing.T) {
	ctx := context.Background()
	repo := New().Documents()
	now := time.Now()

	require.NoError(t, repo.Create(ctx, &domain.DocumentRecord{ID: "d2", EmployeeID: "e1", UploadedAt: now.Add(time.Minute)}))
	require.NoError(t, repo.Create(ctx, &domain.DocumentRecord{ID: "d1", EmployeeID: "e1", UploadedAt: now}))

	docs, err := repo.ListByEmployee(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "d1", docs[0].ID)

	docs[0].Status = domain.FormVerified
	require.NoError(t, repo.Update(ctx, &docs[0]))
	got, err := repo.GetByID(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, domain.FormVerified, got.Status)

	require.NoError(t, repo.Delete(ctx, "d1"))
	assert.ErrorIs(t, repo.Delete(ctx, "d1"), domain.ErrDocumentNotFound)
}

func TestAuditLogNewestFirst(t *testing.T) {
	ctx := context.Background()
	log := New().AuditLog()
	for i := 0; i < 4; i++ {
		require.NoError(t, log.Record(ctx, domain.AuditEvent{ID: fmt.Sprint(i), EmployeeID: "e1"}))
	}
	require.NoError(t, log.Record(ctx, domain.AuditEvent{ID: "x", EmployeeID: "e2"}))

	events, err := log.ListByEmployee(ctx, "e1", 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "3", events[0].ID)
	assert.Equal(t, "2", events[1].ID)
}

func TestConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("e%d", i)
			_ = s.Employees().Create(ctx, &domain.Employee{ID: id, Email: id + "@acme.io"})
			_, _ = s.Employees().List(ctx, domain.EmployeeFilter{})
			_ = s.Forms().Upsert(ctx, &domain.FormRecord{EmployeeID: id, FormKey: domain.FormTDS})
		}(i)
	}
	wg.Wait()

	all, err := s.Employees().List(ctx, domain.EmployeeFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 20)
}
