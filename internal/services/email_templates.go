package services

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/ultimatefaloe/59Minutes-Backend/domain"
)

const emailTimeLayout = "Jan 2, 2006 3:04:05 PM MST"

var emailTemplates = template.Must(template.New("email").Parse(`
{{define "welcome"}}<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2>Welcome, {{.Name}}!</h2>
  <p>Your {{.RoleName}} account was created on {{.Time}}{{if .IP}} from {{.IP}}{{end}}.</p>
  <p>If this wasn't you, please contact support.</p>
</div>{{end}}
{{define "login"}}<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2>New sign-in to your account</h2>
  <p>Hi {{.Name}}, your {{.RoleName}} account was signed in on {{.Time}}{{if .IP}} from {{.IP}}{{end}}.</p>
  <p>If this wasn't you, reset your password immediately.</p>
</div>{{end}}
{{define "reset"}}<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2>Password Reset Request</h2>
  <p>Your password reset verification code is:</p>
  <div style="background-color: #f0f0f0; padding: 20px; border-radius: 5px; text-align: center;">
    <span style="font-size: 24px; font-weight: bold; color: #333;">{{.Code}}</span>
  </div>
  <p><strong>This code will expire at:</strong> {{.Time}}</p>
  <p><em>{{.Disclaimer}}</em></p>
</div>{{end}}
{{define "deactivated"}}<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2>Account deactivated</h2>
  <p>Hi {{.Name}}, your account was deactivated on {{.Time}}.</p>
  <p>Contact support if you want it restored.</p>
</div>{{end}}
`))

type emailData struct {
	Name       string
	RoleName   string
	Time       string
	IP         string
	Code       string
	Disclaimer string
}

func renderEmail(name string, data emailData) (string, error) {
	var buf bytes.Buffer
	if err := emailTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s email: %w", name, err)
	}
	return buf.String(), nil
}

// subjectPrefix mirrors the wording each role's mails have always used.
func subjectPrefix(role domain.Role) string {
	switch role {
	case domain.RoleAdmin:
		return "Admin "
	case domain.RoleDeliveryAgent:
		return "Delivery Agent "
	}
	return ""
}

func welcomeEmail(p *domain.Principal, ip string, at time.Time) (*domain.EmailMessage, error) {
	desc, _ := domain.DescriptorFor(p.Role)
	html, err := renderEmail("welcome", emailData{
		Name:     displayName(p),
		RoleName: desc.DisplayName,
		Time:     at.Format(emailTimeLayout),
		IP:       ip,
	})
	if err != nil {
		return nil, err
	}
	subject := "Welcome to Our Platform - " + at.Format(emailTimeLayout)
	if prefix := subjectPrefix(p.Role); prefix != "" {
		subject = prefix + "Account Created - " + at.Format(emailTimeLayout)
	}
	return &domain.EmailMessage{To: []string{p.LoginIdentifier}, Subject: subject, HTML: html}, nil
}

func loginAlertEmail(p *domain.Principal, ip string, at time.Time) (*domain.EmailMessage, error) {
	desc, _ := domain.DescriptorFor(p.Role)
	html, err := renderEmail("login", emailData{
		Name:     displayName(p),
		RoleName: desc.DisplayName,
		Time:     at.Format(emailTimeLayout),
		IP:       ip,
	})
	if err != nil {
		return nil, err
	}
	return &domain.EmailMessage{
		To:      []string{p.LoginIdentifier},
		Subject: subjectPrefix(p.Role) + "Login Alert - " + at.Format(emailTimeLayout),
		HTML:    html,
	}, nil
}

func resetCodeEmail(p *domain.Principal, code *domain.ResetCode) (*domain.EmailMessage, error) {
	desc, _ := domain.DescriptorFor(p.Role)
	html, err := renderEmail("reset", emailData{
		Code:       code.Raw,
		Time:       code.ExpiresAt.Format(emailTimeLayout),
		Disclaimer: desc.ResetDisclaimer,
	})
	if err != nil {
		return nil, err
	}
	subject := "Password Reset Verification Code"
	if p.Role == domain.RoleAdmin {
		subject = "Admin " + subject
	}
	return &domain.EmailMessage{
		To:      []string{p.LoginIdentifier},
		Subject: subject,
		HTML:    html,
		Text:    fmt.Sprintf("Your password reset code is %s. It expires at %s.", code.Raw, code.ExpiresAt.Format(emailTimeLayout)),
	}, nil
}

func deactivationEmail(p *domain.Principal, at time.Time) (*domain.EmailMessage, error) {
	html, err := renderEmail("deactivated", emailData{
		Name: displayName(p),
		Time: at.Format(emailTimeLayout),
	})
	if err != nil {
		return nil, err
	}
	return &domain.EmailMessage{
		To:      []string{p.LoginIdentifier},
		Subject: "Account Deactivation Confirmation",
		HTML:    html,
	}, nil
}

func displayName(p *domain.Principal) string {
	if p.Profile != nil {
		if name := p.Profile.DisplayName(); name != "" {
			return name
		}
	}
	return p.LoginIdentifier
}
