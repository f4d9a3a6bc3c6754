package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/locvowork/hr_onboarding_portal/internal/domain"
	"github.com/locvowork/hr_onboarding_portal/internal/logger"
	"github.com/locvowork/hr_onboarding_portal/internal/policy"
	"github.com/locvowork/hr_onboarding_portal/internal/session"
)

// MinPasswordLen is the shortest accepted password.
const MinPasswordLen = 8

// RegisterInput is what HR supplies when creating an account.
type RegisterInput struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Role           string `json:"role"`
	PersonalEmail  string `json:"personalEmail"`
	Phone          string `json:"phone"`
	Department     string `json:"department"`
	JobTitle       string `json:"jobTitle"`
	Location       string `json:"location"`
	DateOfJoining  string `json:"dateOfJoining"`
	OnboardingHRID string `json:"onboardingHrId"`
}

// RegisterResult carries the generated temporary password when none was supplied.
type RegisterResult struct {
	Employee          *domain.Employee `json:"employee"`
	TemporaryPassword string           `json:"temporaryPassword,omitempty"`
}

// AuthService handles account creation, login and password changes.
type AuthService struct {
	employees domain.EmployeeRepository
	tokens    *session.Manager
	audit     auditor
	index     indexer
	now       func() time.Time
}

// NewAuthService creates an AuthService. audit and dir may be nil.
func NewAuthService(employees domain.EmployeeRepository, tokens *session.Manager, audit domain.AuditLog, dir domain.Directory) *AuthService {
	return &AuthService{
		employees: employees,
		tokens:    tokens,
		audit:     auditor{log: audit, now: time.Now},
		index:     indexer{dir: dir},
		now:       time.Now,
	}
}

// Register creates an INVITED account at BASIC_INFO.
func (s *AuthService) Register(ctx context.Context, actor session.Principal, in RegisterInput) (*RegisterResult, error) {
	role := domain.RoleEmployee
	if strings.TrimSpace(in.Role) != "" {
		r, err := domain.ParseRole(in.Role)
		if err != nil {
			return nil, err
		}
		role = r
	}
	if err := policy.CanCreateAccount(actor.Actor(), role); err != nil {
		return nil, err
	}

	email, err := ValidateEmail(in.Email)
	if err != nil {
		return nil, err
	}
	first := sanitize(in.FirstName)
	if first == "" {
		return nil, domain.ErrInvalidName
	}
	if in.Phone != "" {
		if err := ValidatePhone(in.Phone); err != nil {
			return nil, err
		}
	}
	personal := ""
	if in.PersonalEmail != "" {
		if personal, err = ValidateEmail(in.PersonalEmail); err != nil {
			return nil, err
		}
	}
	doj, err := ParseDate(in.DateOfJoining)
	if err != nil {
		return nil, err
	}

	password := in.Password
	generated := ""
	if password == "" {
		if generated, err = TemporaryPassword(); err != nil {
			return nil, err
		}
		password = generated
	}
	if len(password) < MinPasswordLen {
		return nil, domain.ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now().UTC()
	e := &domain.Employee{
		ID:              uuid.NewString(),
		Email:           email,
		PasswordHash:    string(hash),
		Role:            role,
		FirstName:       first,
		LastName:        sanitize(in.LastName),
		PersonalEmail:   personal,
		Phone:           strings.TrimSpace(in.Phone),
		Department:      sanitize(in.Department),
		JobTitle:        sanitize(in.JobTitle),
		Location:        sanitize(in.Location),
		DateOfJoining:   doj,
		OnboardingStage: domain.StageBasicInfo,
		AccountStatus:   domain.AccountInvited,
		BasicInfo:       domain.BasicInfo{Status: domain.FormPending},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if hrID := strings.TrimSpace(in.OnboardingHRID); hrID != "" {
		hr, err := s.employees.GetByID(ctx, hrID)
		if err != nil && !errors.Is(err, domain.ErrEmployeeNotFound) {
			return nil, err
		}
		if err := policy.CanAssignHR(hr); err != nil {
			return nil, err
		}
		e.OnboardingHRID = &hr.ID
		e.OnboardingHRName = hr.FullName()
	}

	if err := s.employees.Create(ctx, e); err != nil {
		return nil, err
	}
	logger.InfoLog(ctx, "account %s created for %s with role %s", e.ID, e.Email, e.Role)
	s.audit.record(ctx, actor, e.ID, domain.AuditAccountCreated, string(role))
	s.index.index(ctx, e)
	return &RegisterResult{Employee: e, TemporaryPassword: generated}, nil
}

// Login verifies credentials and stamps login times. Deactivated accounts are refused.
func (s *AuthService) Login(ctx context.Context, email, password string) (*session.Token, error) {
	e, err := s.employees.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, domain.ErrEmployeeNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(e.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if e.OnboardingStage == domain.StageNotJoined || e.AccountStatus == domain.AccountInactive {
		return nil, domain.ErrAccountDeactivated
	}

	now := s.now().UTC()
	if e.FirstLoginAt == nil {
		e.FirstLoginAt = &now
	}
	e.LastLoginAt = &now
	if e.AccountStatus == domain.AccountInvited {
		e.AccountStatus = domain.AccountActive
	}
	e.UpdatedAt = now
	if err := s.employees.Update(ctx, e); err != nil {
		return nil, err
	}
	s.index.index(ctx, e)

	return s.tokens.Issue(e)
}

// ResetPassword replaces the password after checking the current one.
func (s *AuthService) ResetPassword(ctx context.Context, email, current, next string) error {
	e, err := s.employees.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, domain.ErrEmployeeNotFound) {
			return domain.ErrInvalidCredentials
		}
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(e.PasswordHash), []byte(current)) != nil {
		return domain.ErrInvalidCredentials
	}
	if len(next) < MinPasswordLen {
		return domain.ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	e.PasswordHash = string(hash)
	e.UpdatedAt = s.now().UTC()
	return s.employees.Update(ctx, e)
}

const passwordAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789@#$%"

// TemporaryPassword returns a random 12 character password.
func TemporaryPassword() (string, error) {
	b := make([]byte, 12)
	max := big.NewInt(int64(len(passwordAlphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate password: %w", err)
		}
		b[i] = passwordAlphabet[n.Int64()]
	}
	return string(b), nil
}
