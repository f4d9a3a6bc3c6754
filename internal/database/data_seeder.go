package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/locvowork/hr_onboarding_portal/internal/domain"
	"github.com/locvowork/hr_onboarding_portal/internal/logger"
	"github.com/locvowork/hr_onboarding_portal/internal/onboarding"
)

// SuperAdminEmail is the account every seed run makes sure exists.
const SuperAdminEmail = "superadmin@portal.local"

var (
	firstNames  = []string{"Asha", "Bilal", "Chen", "Divya", "Ehsan", "Farah", "Gaurav", "Hina", "Ishaan", "Jaya", "Karan", "Leela"}
	lastNames   = []string{"Rao", "Khan", "Li", "Nair", "Shah", "Iyer", "Menon", "Das", "Kapoor", "Pillai", "Sen", "Gupta"}
	departments = []string{"Engineering", "Finance", "Sales", "Operations", "People", "Marketing"}
	jobTitles   = []string{"Developer", "Analyst", "Executive", "Manager", "Designer", "Tester"}
	locations   = []string{"Pune", "Mumbai", "Bengaluru", "Chennai", "Delhi", "Hyderabad"}
	seedStages  = []domain.Stage{
		domain.StageBasicInfo, domain.StagePreJoining, domain.StagePreJoiningVerified,
		domain.StagePostJoining, domain.StageOnboarded, domain.StageNotJoined,
	}
)

// DataSeeder fills a store with demo accounts at every onboarding stage.
type DataSeeder struct {
	employees domain.EmployeeRepository
	forms     domain.FormRepository
	password  string
	rnd       *rand.Rand
	now       func() time.Time
}

// NewDataSeeder creates a seeder whose accounts all share password.
func NewDataSeeder(employees domain.EmployeeRepository, forms domain.FormRepository, password string) *DataSeeder {
	return &DataSeeder{
		employees: employees,
		forms:     forms,
		password:  password,
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
		now:       time.Now,
	}
}

// SeedResult counts what a run created.
type SeedResult struct {
	HR        int
	Employees int
	ByStage   map[domain.Stage]int
}

// SeedData creates numHR HR admins and perStage employees for each stage.
func (ds *DataSeeder) SeedData(ctx context.Context, numHR, perStage int) (*SeedResult, error) {
	start := ds.now()
	hash, err := bcrypt.GenerateFromPassword([]byte(ds.password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash seed password: %w", err)
	}

	if err := ds.ensureSuperAdmin(ctx, string(hash)); err != nil {
		return nil, err
	}

	result := &SeedResult{ByStage: make(map[domain.Stage]int)}
	hrIDs := make([]string, 0, numHR)
	for i := 0; i < numHR; i++ {
		hr := ds.newEmployee(string(hash), domain.RoleHRAdmin, fmt.Sprintf("hr%02d", i+1))
		ds.login(hr)
		created, err := ds.create(ctx, hr)
		if err != nil {
			return nil, err
		}
		if !created {
			continue
		}
		hrIDs = append(hrIDs, hr.ID)
		result.HR++
	}

	n := 0
	for _, stage := range seedStages {
		for i := 0; i < perStage; i++ {
			n++
			e := ds.newEmployee(string(hash), domain.RoleEmployee, fmt.Sprintf("emp%04d", n))
			if len(hrIDs) > 0 && ds.rnd.Intn(5) > 0 {
				id := hrIDs[ds.rnd.Intn(len(hrIDs))]
				e.OnboardingHRID = &id
			}
			ds.placeAtStage(e, stage, i)
			created, err := ds.create(ctx, e)
			if err != nil {
				return nil, err
			}
			if !created {
				continue
			}
			if err := ds.seedForms(ctx, e); err != nil {
				return nil, err
			}
			result.Employees++
			result.ByStage[stage]++
		}
	}

	logger.InfoLog(ctx, "seeded %d HR and %d employees in %v", result.HR, result.Employees, ds.now().Sub(start))
	return result, nil
}

func (ds *DataSeeder) ensureSuperAdmin(ctx context.Context, hash string) error {
	_, err := ds.employees.GetByEmail(ctx, SuperAdminEmail)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrEmployeeNotFound) {
		return fmt.Errorf("failed to look up super admin: %w", err)
	}
	admin := ds.newEmployee(hash, domain.RoleHRSuperAdmin, "superadmin")
	admin.Email = SuperAdminEmail
	admin.FirstName, admin.LastName = "Portal", "Admin"
	ds.login(admin)
	_, err = ds.create(ctx, admin)
	return err
}

// create reports false when the account already exists.
func (ds *DataSeeder) create(ctx context.Context, e *domain.Employee) (bool, error) {
	if err := ds.employees.Create(ctx, e); err != nil {
		if errors.Is(err, domain.ErrEmailAlreadyExists) {
			logger.WarnLog(ctx, "skipping existing seed account %s", e.Email)
			return false, nil
		}
		return false, fmt.Errorf("failed to create %s: %w", e.Email, err)
	}
	return true, nil
}

func (ds *DataSeeder) newEmployee(hash string, role domain.Role, handle string) *domain.Employee {
	now := ds.now().UTC()
	return &domain.Employee{
		ID:              uuid.NewString(),
		Email:           handle + "@portal.local",
		PasswordHash:    hash,
		Role:            role,
		FirstName:       pick(ds.rnd, firstNames),
		LastName:        pick(ds.rnd, lastNames),
		Phone:           fmt.Sprintf("9%09d", ds.rnd.Intn(1_000_000_000)),
		Department:      pick(ds.rnd, departments),
		JobTitle:        pick(ds.rnd, jobTitles),
		Location:        pick(ds.rnd, locations),
		OnboardingStage: domain.StageBasicInfo,
		AccountStatus:   domain.AccountInvited,
		BasicInfo:       domain.BasicInfo{Status: domain.FormPending},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func (ds *DataSeeder) login(e *domain.Employee) {
	t := ds.now().UTC().Add(-time.Duration(ds.rnd.Intn(72)) * time.Hour)
	e.FirstLoginAt = &t
	e.LastLoginAt = &t
	e.AccountStatus = domain.AccountActive
}

// placeAtStage makes the record consistent with stage: login timestamps, basic-info status,
// joining date. Every other BASIC_INFO employee has never logged in.
func (ds *DataSeeder) placeAtStage(e *domain.Employee, stage domain.Stage, i int) {
	joining := ds.now().UTC().AddDate(0, 0, ds.rnd.Intn(120)-60).Truncate(24 * time.Hour)
	e.DateOfJoining = &joining
	e.OnboardingStage = stage

	switch stage {
	case domain.StageBasicInfo:
		if i%2 == 1 {
			ds.login(e)
			e.BasicInfo.Status = domain.FormSubmitted
		}
		if i%3 == 2 {
			e.DateOfJoining = nil
		}
	case domain.StageNotJoined:
		ds.login(e)
		e.PreviousStage = seedStages[ds.rnd.Intn(len(seedStages)-1)]
		e.AccountStatus = domain.AccountInactive
		e.BasicInfo.Status = domain.FormVerified
	default:
		ds.login(e)
		e.BasicInfo.Status = domain.FormVerified
	}
}

func (ds *DataSeeder) seedForms(ctx context.Context, e *domain.Employee) error {
	stage := e.OnboardingStage
	if stage == domain.StageNotJoined {
		stage = e.PreviousStage
	}
	now := ds.now().UTC()

	statusFor := func(post bool) domain.FormStatus {
		switch {
		case !post && stage == domain.StagePreJoining:
			return domain.FormSubmitted
		case !post && (stage == domain.StagePreJoiningVerified || stage == domain.StagePostJoining || stage == domain.StageOnboarded):
			return domain.FormVerified
		case post && stage == domain.StagePostJoining:
			return domain.FormSubmitted
		case post && stage == domain.StageOnboarded:
			return domain.FormVerified
		}
		return ""
	}

	for _, key := range domain.AllFormKeys() {
		section, _ := onboarding.FormSection(key)
		post := section == onboarding.SectionPostJoining
		status := statusFor(post)
		if status == "" {
			continue
		}
		f := domain.NewPendingForm(e.ID, key)
		f.Status = status
		f.Data = map[string]interface{}{"fullName": e.FullName(), "email": e.Email}
		f.SubmittedAt = &now
		f.UpdatedAt = now
		if status == domain.FormVerified {
			f.VerifiedAt = &now
			f.VerifiedByName = "Portal Admin"
		}
		if err := ds.forms.Upsert(ctx, f); err != nil {
			return fmt.Errorf("failed to seed form %s for %s: %w", key, e.Email, err)
		}
	}
	return nil
}

// ClearData removes every portal record from Postgres.
func ClearData(ctx context.Context, db *sql.DB) error {
	for _, table := range []string{"documents", "employee_forms", "employees"} {
		if _, err := db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

// SeedPreset names a seeding size.
type SeedPreset string

const (
	PresetSmall  SeedPreset = "small"
	PresetMedium SeedPreset = "medium"
	PresetLarge  SeedPreset = "large"
	PresetXLarge SeedPreset = "xlarge"
)

// GetPresetConfig returns the HR count and employees per stage of a preset.
func GetPresetConfig(preset SeedPreset) (numHR, perStage int) {
	switch SeedPreset(strings.ToLower(string(preset))) {
	case PresetSmall:
		return 2, 2
	case PresetMedium:
		return 5, 10
	case PresetLarge:
		return 10, 50
	case PresetXLarge:
		return 20, 200
	default:
		return 5, 10
	}
}

func pick(rnd *rand.Rand, items []string) string {
	return items[rnd.Intn(len(items))]
}
