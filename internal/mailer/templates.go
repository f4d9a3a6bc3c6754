// Package mailer renders portal emails and hands them to the event publisher for delivery.
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

// Email is a rendered message. Delivery happens downstream of the publisher.
type Email struct {
	To       string `json:"to"`
	Subject  string `json:"subject"`
	Template string `json:"template"`
	TextBody string `json:"textBody"`
	HTMLBody string `json:"htmlBody"`
}

// Template names carried on published emails.
const (
	TemplateWelcome      = "welcome"
	TemplateAdminWelcome = "admin_welcome"
)

// WelcomeData holds the fields of both welcome templates.
type WelcomeData struct {
	PortalName        string
	Name              string
	Email             string
	TemporaryPassword string
	LoginURL          string
	HRName            string
	Role              string
}

var (
	welcomeHTML      = template.Must(template.New("welcome").Parse(welcomeHTMLTemplate))
	adminWelcomeHTML = template.Must(template.New("admin_welcome").Parse(adminWelcomeHTMLTemplate))
)

// BuildWelcomeEmail renders the new-joiner invitation with login credentials.
func BuildWelcomeEmail(data WelcomeData) (Email, error) {
	html, err := render(welcomeHTML, data)
	if err != nil {
		return Email{}, err
	}
	return Email{
		To:       data.Email,
		Subject:  fmt.Sprintf("Welcome to %s", data.PortalName),
		Template: TemplateWelcome,
		TextBody: buildWelcomeText(data),
		HTMLBody: html,
	}, nil
}

// BuildAdminWelcomeEmail renders the invitation sent to new HR and admin accounts.
func BuildAdminWelcomeEmail(data WelcomeData) (Email, error) {
	html, err := render(adminWelcomeHTML, data)
	if err != nil {
		return Email{}, err
	}
	return Email{
		To:       data.Email,
		Subject:  fmt.Sprintf("Your %s administrator account", data.PortalName),
		Template: TemplateAdminWelcome,
		TextBody: buildAdminWelcomeText(data),
		HTMLBody: html,
	}, nil
}

func render(t *template.Template, data WelcomeData) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s email: %w", t.Name(), err)
	}
	return buf.String(), nil
}

func buildWelcomeText(data WelcomeData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", data.Name)
	fmt.Fprintf(&b, "Welcome aboard! Your %s account is ready.\n\n", data.PortalName)
	fmt.Fprintf(&b, "Login email: %s\n", data.Email)
	fmt.Fprintf(&b, "Temporary password: %s\n\n", data.TemporaryPassword)
	fmt.Fprintf(&b, "Sign in at %s and complete your basic information to start onboarding.\n", data.LoginURL)
	b.WriteString("Please change your password after the first login.\n")
	if data.HRName != "" {
		fmt.Fprintf(&b, "\nYour onboarding contact is %s.\n", data.HRName)
	}
	return b.String()
}

func buildAdminWelcomeText(data WelcomeData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", data.Name)
	fmt.Fprintf(&b, "An %s account with the %s role has been created for you.\n\n", data.PortalName, data.Role)
	fmt.Fprintf(&b, "Login email: %s\n", data.Email)
	fmt.Fprintf(&b, "Temporary password: %s\n\n", data.TemporaryPassword)
	fmt.Fprintf(&b, "Sign in at %s and change your password.\n", data.LoginURL)
	return b.String()
}

const welcomeHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>Welcome</title>
</head>
<body style="margin: 0; padding: 0; font-family: Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 520px; background-color: #ffffff; border-radius: 8px;">
          <tr>
            <td style="padding: 32px; border-bottom: 1px solid #e5e7eb;">
              <h1 style="margin: 0; font-size: 22px; color: #4f46e5;">{{.PortalName}}</h1>
            </td>
          </tr>
          <tr>
            <td style="padding: 32px; color: #374151; font-size: 15px; line-height: 1.5;">
              <p>Hi {{.Name}},</p>
              <p>Welcome aboard! Your onboarding account is ready.</p>
              <p>Login email: <strong>{{.Email}}</strong><br>
                 Temporary password: <strong style="font-family: 'Courier New', monospace;">{{.TemporaryPassword}}</strong></p>
              <p style="text-align: center;">
                <a href="{{.LoginURL}}" style="display: inline-block; padding: 12px 28px; background-color: #4f46e5; color: #ffffff; text-decoration: none; border-radius: 6px;">Start onboarding</a>
              </p>
              <p>Please change your password after the first login.</p>
              {{if .HRName}}<p>Your onboarding contact is {{.HRName}}.</p>{{end}}
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`

const adminWelcomeHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>Administrator account</title>
</head>
<body style="margin: 0; padding: 0; font-family: Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 520px; background-color: #ffffff; border-radius: 8px;">
          <tr>
            <td style="padding: 32px; border-bottom: 1px solid #e5e7eb;">
              <h1 style="margin: 0; font-size: 22px; color: #4f46e5;">{{.PortalName}}</h1>
            </td>
          </tr>
          <tr>
            <td style="padding: 32px; color: #374151; font-size: 15px; line-height: 1.5;">
              <p>Hi {{.Name}},</p>
              <p>An account with the <strong>{{.Role}}</strong> role has been created for you.</p>
              <p>Login email: <strong>{{.Email}}</strong><br>
                 Temporary password: <strong style="font-family: 'Courier New', monospace;">{{.TemporaryPassword}}</strong></p>
              <p style="text-align: center;">
                <a href="{{.LoginURL}}" style="display: inline-block; padding: 12px 28px; background-color: #4f46e5; color: #ffffff; text-decoration: none; border-radius: 6px;">Sign in</a>
              </p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`
