package mailer

import (
	"context"
	"fmt"

	"github.com/locvowork/hr_onboarding_portal/internal/domain"
	"github.com/locvowork/hr_onboarding_portal/internal/logger"
)

// DefaultPortalName is used when no name is configured.
const DefaultPortalName = "HR Onboarding Portal"

// Mailer renders welcome emails and publishes them keyed by recipient.
type Mailer struct {
	pub        domain.Publisher
	portalName string
	loginURL   string
}

// New creates a Mailer. loginURL is the portal address put in every email.
func New(pub domain.Publisher, portalName, loginURL string) *Mailer {
	if portalName == "" {
		portalName = DefaultPortalName
	}
	return &Mailer{pub: pub, portalName: portalName, loginURL: loginURL}
}

// SendWelcome sends the new-joiner invitation.
func (m *Mailer) SendWelcome(ctx context.Context, e *domain.Employee, tempPassword string) (Email, error) {
	email, err := BuildWelcomeEmail(m.data(e, tempPassword))
	if err != nil {
		return Email{}, err
	}
	return email, m.send(ctx, email)
}

// SendAdminWelcome sends the invitation for HR and admin accounts.
func (m *Mailer) SendAdminWelcome(ctx context.Context, e *domain.Employee, tempPassword string) (Email, error) {
	email, err := BuildAdminWelcomeEmail(m.data(e, tempPassword))
	if err != nil {
		return Email{}, err
	}
	return email, m.send(ctx, email)
}

func (m *Mailer) data(e *domain.Employee, tempPassword string) WelcomeData {
	return WelcomeData{
		PortalName:        m.portalName,
		Name:              e.FullName(),
		Email:             e.Email,
		TemporaryPassword: tempPassword,
		LoginURL:          m.loginURL,
		HRName:            e.OnboardingHRName,
		Role:              string(e.Role),
	}
}

func (m *Mailer) send(ctx context.Context, email Email) error {
	if err := m.pub.Publish(ctx, email.To, email); err != nil {
		return fmt.Errorf("failed to send %s email to %s: %w", email.Template, email.To, err)
	}
	logger.InfoLog(ctx, "queued %s email for %s", email.Template, email.To)
	return nil
}
