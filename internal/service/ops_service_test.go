package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/locvowork/hr_onboarding_portal/internal/domain"
	"github.com/locvowork/hr_onboarding_portal/internal/mailer"
	"github.com/locvowork/hr_onboarding_portal/internal/onboarding"
	"github.com/locvowork/hr_onboarding_portal/internal/session"
)

func TestEmailService(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	e := fx.add(t, domain.RoleEmployee, domain.StageBasicInfo, false)

	email, err := fx.email.SendWelcome(ctx, as(fx.hr), e.ID, "Temp@12345")
	require.NoError(t, err)
	assert.Equal(t, e.Email, email.To)
	assert.Equal(t, mailer.TemplateWelcome, email.Template)
	assert.Contains(t, email.TextBody, "Temp@12345")
	assert.Equal(t, []string{e.Email}, fx.pub.keys)

	_, err = fx.email.SendAdminWelcome(ctx, as(fx.super), e.ID, "Temp@12345")
	assert.ErrorIs(t, err, domain.ErrInvalidRole)

	email, err = fx.email.SendAdminWelcome(ctx, as(fx.super), fx.hr.ID, "Temp@12345")
	require.NoError(t, err)
	assert.Equal(t, mailer.TemplateAdminWelcome, email.Template)

	_, err = fx.email.SendAdminWelcome(ctx, as(fx.hr), fx.super.ID, "Temp@12345")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = fx.email.SendWelcome(ctx, as(fx.hr), "missing", "x")
	assert.ErrorIs(t, err, domain.ErrEmployeeNotFound)

	events, err := fx.emps.Audit(ctx, as(fx.hr), e.ID, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, domain.AuditWelcomeEmailSent, events[0].Action)
}

func TestExportService(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	doj := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	fx.add(t, domain.RoleEmployee, domain.StagePreJoining, true, func(e *domain.Employee) {
		e.Email = "asha@corp.test"
		e.DateOfJoining = &doj
		e.OnboardingHRID = &fx.hr.ID
	})
	fx.add(t, domain.RoleEmployee, domain.StageBasicInfo, false, func(e *domain.Employee) {
		e.Email = "ravi@corp.test"
		e.Department = "Sales"
	})

	t.Run("csv", func(t *testing.T) {
		file, err := fx.export.ExportRoster(ctx, as(fx.hr), onboarding.RosterFilter{}, onboarding.SortNone, "CSV")
		require.NoError(t, err)
		assert.Equal(t, "roster_20250601_090000.csv", file.FileName)
		assert.Equal(t, "text/csv", file.ContentType)

		rows, err := csv.NewReader(bytes.NewReader(file.Data)).ReadAll()
		require.NoError(t, err)
		require.Len(t, rows, 4)
		assert.Equal(t, "Onboarding Roster", rows[0][0])
		assert.Equal(t, "Email", rows[1][2])

		byEmail := map[string][]string{}
		for _, r := range rows[2:] {
			byEmail[r[2]] = r
		}
		asha := byEmail["asha@corp.test"]
		require.NotNil(t, asha)
		assert.Equal(t, "2025-07-01", asha[6])
		assert.Equal(t, fx.hr.FullName(), asha[7])
		assert.Equal(t, string(onboarding.StatusInProgress), asha[8])

		ravi := byEmail["ravi@corp.test"]
		require.NotNil(t, ravi)
		assert.Equal(t, "", ravi[6])
		assert.Equal(t, onboarding.NotAssigned, ravi[7])
		assert.False(t, strings.Contains(string(file.Data), "exportedBy"))
	})

	t.Run("xlsx honors filters", func(t *testing.T) {
		file, err := fx.export.ExportRoster(ctx, as(fx.hr), onboarding.RosterFilter{Department: "sales"}, onboarding.SortNone, "")
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(file.FileName, ".xlsx"))

		wb, err := excelize.OpenReader(bytes.NewReader(file.Data))
		require.NoError(t, err)
		defer wb.Close()
		rows, err := wb.GetRows("Roster")
		require.NoError(t, err)

		var emails []string
		for _, r := range rows {
			if len(r) > 2 && strings.HasSuffix(r[2], "@corp.test") {
				emails = append(emails, r[2])
			}
		}
		assert.Equal(t, []string{"ravi@corp.test"}, emails)
	})

	t.Run("rejects unknown formats and employees", func(t *testing.T) {
		_, err := fx.export.ExportRoster(ctx, as(fx.hr), onboarding.RosterFilter{}, onboarding.SortNone, "pdf")
		assert.Error(t, err)

		emp := fx.add(t, domain.RoleEmployee, domain.StagePreJoining, true)
		_, err = fx.export.ExportRoster(ctx, as(emp), onboarding.RosterFilter{}, onboarding.SortNone, "csv")
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})
}

func TestReindexService(t *testing.T) {
	ctx := context.Background()

	t.Run("indexes every account and prunes stale entries", func(t *testing.T) {
		fx := newFixture(t)
		for i := 0; i < 5; i++ {
			fx.add(t, domain.RoleEmployee, domain.StagePreJoining, true)
		}
		require.NoError(t, fx.dir.Index(ctx, domain.DirectoryEntry{ID: "stale-1"}))
		fx.dir.bulkFails = 1

		res, err := fx.reindex.ReindexAs(ctx, as(fx.super))
		require.NoError(t, err)
		assert.Equal(t, 7, res.Indexed)
		assert.Equal(t, 1, res.Removed)
		assert.Equal(t, []string{"stale-1"}, fx.dir.deletedIDs)
		assert.Len(t, fx.dir.entries, 7)
		assert.Equal(t, 2, fx.dir.bulkCalls)
	})

	t.Run("persistent failures fail the run", func(t *testing.T) {
		fx := newFixture(t)
		fx.dir.bulkFails = 100
		_, err := fx.reindex.Reindex(ctx)
		assert.Error(t, err)
	})

	t.Run("super admin only", func(t *testing.T) {
		fx := newFixture(t)
		_, err := fx.reindex.ReindexAs(ctx, as(fx.hr))
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("no directory configured", func(t *testing.T) {
		fx := newFixture(t)
		svc := NewReindexService(fx.store.Employees(), nil)
		_, err := svc.ReindexAs(ctx, session.Principal{ID: fx.super.ID, Role: domain.RoleHRSuperAdmin})
		assert.ErrorIs(t, err, ErrDirectoryDisabled)
	})
}
