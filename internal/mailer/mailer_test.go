package mailer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locvowork/hr_onboarding_portal/internal/domain"
)

type recordingPublisher struct {
	keys   []string
	values []interface{}
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, key string, value interface{}) error {
	if p.err != nil {
		return p.err
	}
	p.keys = append(p.keys, key)
	p.values = append(p.values, value)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func TestBuildWelcomeEmail(t *testing.T) {
	email, err := BuildWelcomeEmail(WelcomeData{
		PortalName:        "Portal",
		Name:              "Asha Rao",
		Email:             "asha@corp.test",
		TemporaryPassword: "Tmp#1234",
		LoginURL:          "https://portal.test/login",
		HRName:            "Hina Das",
	})
	require.NoError(t, err)
	assert.Equal(t, "asha@corp.test", email.To)
	assert.Equal(t, "Welcome to Portal", email.Subject)
	assert.Contains(t, email.TextBody, "Tmp#1234")
	assert.Contains(t, email.TextBody, "Hina Das")
	assert.Contains(t, email.HTMLBody, "https://portal.test/login")
}

func TestBuildWelcomeEmailEscapesHTML(t *testing.T) {
	email, err := BuildWelcomeEmail(WelcomeData{Name: "<script>x</script>"})
	require.NoError(t, err)
	assert.NotContains(t, email.HTMLBody, "<script>")
	assert.Contains(t, email.HTMLBody, "&lt;script&gt;")
}

func TestMailerSendWelcome(t *testing.T) {
	pub := &recordingPublisher{}
	m := New(pub, "", "https://portal.test")
	e := &domain.Employee{Email: "new@corp.test", FirstName: "New", LastName: "Joiner", Role: domain.RoleEmployee}

	email, err := m.SendWelcome(context.Background(), e, "Tmp#1234")
	require.NoError(t, err)
	assert.Equal(t, TemplateWelcome, email.Template)
	assert.Contains(t, email.Subject, DefaultPortalName)
	require.Len(t, pub.keys, 1)
	assert.Equal(t, "new@corp.test", pub.keys[0])
}

func TestMailerSendAdminWelcome(t *testing.T) {
	pub := &recordingPublisher{}
	m := New(pub, "Portal", "https://portal.test")
	e := &domain.Employee{Email: "hr@corp.test", FirstName: "Hina", Role: domain.RoleHRAdmin}

	email, err := m.SendAdminWelcome(context.Background(), e, "Tmp#1234")
	require.NoError(t, err)
	assert.Equal(t, TemplateAdminWelcome, email.Template)
	assert.Contains(t, email.TextBody, "HR_ADMIN")
}

func TestMailerPublishError(t *testing.T) {
	m := New(&recordingPublisher{err: errors.New("down")}, "", "")
	_, err := m.SendWelcome(context.Background(), &domain.Employee{Email: "x@corp.test"}, "p")
	assert.ErrorContains(t, err, "down")
}
