package service

import (
	"context"
	"fmt"
	"time"

	"github.com/locvowork/hr_onboarding_portal/internal/domain"
	"github.com/locvowork/hr_onboarding_portal/internal/mailer"
	"github.com/locvowork/hr_onboarding_portal/internal/policy"
	"github.com/locvowork/hr_onboarding_portal/internal/session"
)

// EmailService sends welcome emails for accounts HR created.
type EmailService struct {
	employees domain.EmployeeRepository
	mail      *mailer.Mailer
	audit     auditor
}

// NewEmailService creates an EmailService.
func NewEmailService(employees domain.EmployeeRepository, mail *mailer.Mailer, audit domain.AuditLog) *EmailService {
	return &EmailService{
		employees: employees,
		mail:      mail,
		audit:     auditor{log: audit, now: time.Now},
	}
}

// SendWelcome emails login details to a new joiner.
func (s *EmailService) SendWelcome(ctx context.Context, actor session.Principal, employeeID, tempPassword string) (*mailer.Email, error) {
	e, err := s.employees.GetByID(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if err := policy.CanManage(actor.Actor(), e); err != nil {
		return nil, err
	}
	email, err := s.mail.SendWelcome(ctx, e, tempPassword)
	if err != nil {
		return nil, err
	}
	s.audit.record(ctx, actor, e.ID, domain.AuditWelcomeEmailSent, email.Template)
	return &email, nil
}

// SendAdminWelcome emails login details to a new HR or admin account.
func (s *EmailService) SendAdminWelcome(ctx context.Context, actor session.Principal, employeeID, tempPassword string) (*mailer.Email, error) {
	e, err := s.employees.GetByID(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if err := policy.CanManage(actor.Actor(), e); err != nil {
		return nil, err
	}
	if !e.Role.IsHR() {
		return nil, fmt.Errorf("%w: %s is not an admin account", domain.ErrInvalidRole, e.Email)
	}
	email, err := s.mail.SendAdminWelcome(ctx, e, tempPassword)
	if err != nil {
		return nil, err
	}
	s.audit.record(ctx, actor, e.ID, domain.AuditWelcomeEmailSent, email.Template)
	return &email, nil
}
