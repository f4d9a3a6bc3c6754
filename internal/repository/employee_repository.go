package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/locvowork/hr_onboarding_portal/internal/domain"
	"github.com/locvowork/hr_onboarding_portal/internal/logger"
	"github.com/locvowork/hr_onboarding_portal/internal/repository/builder"
)

// employeeColumns is the projection shared by every employee read. The assigned HR name
// comes from a self join so lists never need a second lookup.
var employeeColumns = []string{
	"e.id", "e.email", "e.password_hash", "e.role", "e.first_name", "e.last_name",
	"e.personal_email", "e.phone", "e.department", "e.job_title", "e.location",
	"e.date_of_joining", "e.onboarding_hr_id",
	"COALESCE(TRIM(hr.first_name || ' ' || hr.last_name), '')",
	"e.onboarding_stage", "e.previous_stage", "e.account_status",
	"e.first_login_at", "e.last_login_at", "e.basic_info", "e.created_at", "e.updated_at",
}

type employeeRepository struct {
	db *sql.DB
}

// NewEmployeeRepository creates a new instance of EmployeeRepository
func NewEmployeeRepository(db *sql.DB) domain.EmployeeRepository {
	return &employeeRepository{db: db}
}

func selectEmployees() *builder.SQLBuilder {
	return builder.NewSQLBuilder().
		Select(employeeColumns...).
		From("employees e").
		Join("LEFT", "employees hr", "hr.id = e.onboarding_hr_id")
}

func (r *employeeRepository) Create(ctx context.Context, e *domain.Employee) error {
	basicInfo, err := json.Marshal(e.BasicInfo)
	if err != nil {
		return fmt.Errorf("failed to encode basic info: %w", err)
	}

	query, args := builder.NewSQLBuilder().
		Insert("employees",
			"id", "email", "password_hash", "role", "first_name", "last_name",
			"personal_email", "phone", "department", "job_title", "location",
			"date_of_joining", "onboarding_hr_id", "onboarding_stage", "previous_stage",
			"account_status", "first_login_at", "last_login_at", "basic_info",
			"created_at", "updated_at").
		Values(e.ID, strings.ToLower(e.Email), e.PasswordHash, e.Role, e.FirstName, e.LastName,
			e.PersonalEmail, e.Phone, e.Department, e.JobTitle, e.Location,
			e.DateOfJoining, e.OnboardingHRID, e.OnboardingStage, e.PreviousStage,
			e.AccountStatus, e.FirstLoginAt, e.LastLoginAt, basicInfo,
			e.CreatedAt, e.UpdatedAt).
		Build()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEmailAlreadyExists
		}
		return fmt.Errorf("failed to insert employee: %w", err)
	}
	return nil
}

func (r *employeeRepository) GetByID(ctx context.Context, id string) (*domain.Employee, error) {
	query, args := selectEmployees().Where("e.id = ?", id).Build()
	return r.getOne(ctx, query, args)
}

func (r *employeeRepository) GetByEmail(ctx context.Context, email string) (*domain.Employee, error) {
	query, args := selectEmployees().Where("e.email = ?", strings.ToLower(strings.TrimSpace(email))).Build()
	return r.getOne(ctx, query, args)
}

func (r *employeeRepository) getOne(ctx context.Context, query string, args []interface{}) (*domain.Employee, error) {
	e, err := scanEmployee(ctx, r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrEmployeeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load employee: %w", err)
	}
	return e, nil
}

func (r *employeeRepository) Update(ctx context.Context, e *domain.Employee) error {
	basicInfo, err := json.Marshal(e.BasicInfo)
	if err != nil {
		return fmt.Errorf("failed to encode basic info: %w", err)
	}

	query, args := builder.NewSQLBuilder().Update("employees").
		Set("email", strings.ToLower(e.Email)).
		Set("password_hash", e.PasswordHash).
		Set("role", e.Role).
		Set("first_name", e.FirstName).
		Set("last_name", e.LastName).
		Set("personal_email", e.PersonalEmail).
		Set("phone", e.Phone).
		Set("department", e.Department).
		Set("job_title", e.JobTitle).
		Set("location", e.Location).
		Set("date_of_joining", e.DateOfJoining).
		Set("onboarding_hr_id", e.OnboardingHRID).
		Set("onboarding_stage", e.OnboardingStage).
		Set("previous_stage", e.PreviousStage).
		Set("account_status", e.AccountStatus).
		Set("first_login_at", e.FirstLoginAt).
		Set("last_login_at", e.LastLoginAt).
		Set("basic_info", basicInfo).
		Set("updated_at", e.UpdatedAt).
		Where("id = ?", e.ID).
		Build()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEmailAlreadyExists
		}
		return fmt.Errorf("failed to update employee %s: %w", e.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrEmployeeNotFound
	}
	return nil
}

func (r *employeeRepository) List(ctx context.Context, filter domain.EmployeeFilter) ([]domain.Employee, error) {
	b := selectEmployees()
	if len(filter.Roles) > 0 {
		roles := make([]interface{}, len(filter.Roles))
		for i, role := range filter.Roles {
			roles[i] = role
		}
		b.WhereIn("e.role", roles...)
	}
	if filter.OnboardingHRID != "" {
		b.Where("e.onboarding_hr_id = ?", filter.OnboardingHRID)
	}
	b.OrderBy("e.created_at ASC").OrderBy("e.id ASC")
	if filter.Limit > 0 {
		b.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		b.Offset(filter.Offset)
	}

	query, args := b.Build()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	var employees []domain.Employee
	for rows.Next() {
		e, err := scanEmployee(ctx, rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, *e)
	}
	return employees, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEmployee(ctx context.Context, row rowScanner) (*domain.Employee, error) {
	var (
		e             domain.Employee
		dateOfJoining sql.NullTime
		hrID          sql.NullString
		firstLogin    sql.NullTime
		lastLogin     sql.NullTime
		basicInfo     []byte
	)
	err := row.Scan(
		&e.ID, &e.Email, &e.PasswordHash, &e.Role, &e.FirstName, &e.LastName,
		&e.PersonalEmail, &e.Phone, &e.Department, &e.JobTitle, &e.Location,
		&dateOfJoining, &hrID, &e.OnboardingHRName,
		&e.OnboardingStage, &e.PreviousStage, &e.AccountStatus,
		&firstLogin, &lastLogin, &basicInfo, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	e.DateOfJoining = nullTime(dateOfJoining)
	e.FirstLoginAt = nullTime(firstLogin)
	e.LastLoginAt = nullTime(lastLogin)
	if hrID.Valid {
		e.OnboardingHRID = &hrID.String
	}
	if len(basicInfo) > 0 {
		if err := json.Unmarshal(basicInfo, &e.BasicInfo); err != nil {
			return nil, fmt.Errorf("failed to decode basic info of %s: %w", e.ID, err)
		}
	}
	e.OnboardingStage = e.OnboardingStage.Canonical()
	if e.PreviousStage != "" {
		e.PreviousStage = e.PreviousStage.Canonical()
	}
	if !e.OnboardingStage.Known() {
		logger.WarnLog(ctx, "employee %s has unknown onboarding stage %q", e.ID, e.OnboardingStage)
	}
	return &e, nil
}
