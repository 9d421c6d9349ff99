package services

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"

	"github.com/rs/zerolog"

	"portfolio-backend/internal/logger"
)

type EmailService struct {
	host        string
	port        string
	user        string
	pass        string
	from        string
	frontendURL string
	devMode     bool
	log         zerolog.Logger
}

func NewEmailService(host, port, user, pass, from, frontendURL string) *EmailService {
	devMode := host == "" || user == ""
	log := logger.Component("email")
	if devMode {
		log.Warn().Msg("⚠ Email service running in DEV MODE (logging to console)")
	}
	return &EmailService{
		host:        host,
		port:        port,
		user:        user,
		pass:        pass,
		from:        from,
		frontendURL: frontendURL,
		devMode:     devMode,
		log:         log,
	}
}

var contactEmailTemplate = template.Must(template.New("contact").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family: 'Segoe UI', Arial, sans-serif; margin: 0; padding: 0; background-color: #f8fafc;">
  <div style="max-width: 560px; margin: 40px auto; background: white; border-radius: 12px; box-shadow: 0 4px 24px rgba(0,0,0,0.08); overflow: hidden;">
    <div style="background: linear-gradient(135deg, #6366f1 0%, #8b5cf6 100%); padding: 24px 32px;">
      <h1 style="color: white; margin: 0; font-size: 20px; font-weight: 700;">New portfolio message</h1>
    </div>
    <div style="padding: 32px;">
      <p style="color: #64748b; font-size: 14px; margin: 0 0 8px;"><strong>From:</strong> {{.Name}} &lt;{{.Email}}&gt;</p>
      <p style="color: #64748b; font-size: 14px; margin: 0 0 24px;"><strong>Subject:</strong> {{.Subject}}</p>
      <div style="color: #1e293b; font-size: 14px; line-height: 1.6; white-space: pre-wrap;">{{.Message}}</div>
      <a href="{{.DashboardURL}}" style="display: inline-block; margin-top: 24px; background: #6366f1; color: white; text-decoration: none; padding: 12px 32px; border-radius: 8px; font-weight: 600; font-size: 14px;">
        Open dashboard
      </a>
    </div>
  </div>
</body>
</html>`))

// SendContactNotification tells the site owner about a new contact submission.
// Replies go straight to the visitor.
func (s *EmailService) SendContactNotification(to string, n ContactNotification) error {
	subject, body, err := s.renderContactEmail(n)
	if err != nil {
		return err
	}
	return s.sendHTML(to, subject, body, n.Email)
}

func (s *EmailService) renderContactEmail(n ContactNotification) (string, string, error) {
	var buf bytes.Buffer
	err := contactEmailTemplate.Execute(&buf, struct {
		ContactNotification
		DashboardURL string
	}{n, s.frontendURL + "/admin"})
	if err != nil {
		return "", "", fmt.Errorf("failed to render contact email: %w", err)
	}
	subject := headerSafe(fmt.Sprintf("[Portfolio] %s (from %s)", n.Subject, n.Name))
	return subject, buf.String(), nil
}

// headerSafe strips line breaks so user text cannot add mail headers.
func headerSafe(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}

func (s *EmailService) sendHTML(to, subject, htmlBody, replyTo string) error {
	if s.devMode {
		s.log.Info().Str("to", to).Str("subject", subject).Msg("📧 [DEV EMAIL]")
		s.log.Debug().Msg(htmlBody)
		return nil
	}

	headers := []string{
		fmt.Sprintf("From: %s", s.from),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=UTF-8",
	}
	if replyTo != "" {
		headers = append(headers, fmt.Sprintf("Reply-To: %s", headerSafe(replyTo)))
	}

	message := strings.Join(headers, "\r\n") + "\r\n\r\n" + htmlBody

	auth := smtp.PlainAuth("", s.user, s.pass, s.host)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)

	if err := smtp.SendMail(addr, auth, s.from, []string{to}, []byte(message)); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}

	s.log.Info().Str("to", to).Str("subject", subject).Msg("📧 Email sent")
	return nil
}
