package service

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"

	"tabi-backend/internal/config"
)

const mailAppName = "Tabi"

// MailService sends transactional mail (verification and password reset)
// over SMTP.
type MailService struct {
	host     string
	server   string
	from     string
	fromName string
	auth     smtp.Auth
}

func NewMailService(cfg *config.Config) *MailService {
	return &MailService{
		host:     cfg.SMTPHost,
		server:   cfg.SMTPHost + ":" + cfg.SMTPPort,
		from:     cfg.MailFrom,
		fromName: cfg.MailFromName,
		auth:     smtp.PlainAuth("", cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPHost),
	}
}

// IsConfigured reports whether outgoing mail can be sent at all.
func (s *MailService) IsConfigured() bool {
	return s.host != "" && s.from != ""
}

// SendVerificationEmail mails the email-verification link to a new account.
func (s *MailService) SendVerificationEmail(to, userName, verificationURL string) error {
	html, err := renderMailTemplate(verificationEmailTemplate, mailTemplateData{
		AppName:  mailAppName,
		UserName: userName,
		LinkURL:  verificationURL,
	})
	if err != nil {
		return fmt.Errorf("render verification template: %w", err)
	}
	return s.sendHTML([]string{to}, "Verify your Tabi account", html)
}

// SendPasswordResetEmail mails the password reset link.
func (s *MailService) SendPasswordResetEmail(to, userName, resetURL string) error {
	html, err := renderMailTemplate(passwordResetEmailTemplate, mailTemplateData{
		AppName:  mailAppName,
		UserName: userName,
		LinkURL:  resetURL,
	})
	if err != nil {
		return fmt.Errorf("render password reset template: %w", err)
	}
	return s.sendHTML([]string{to}, "Reset your Tabi password", html)
}

// sendHTML sends a multipart/alternative message with a plain-text fallback.
func (s *MailService) sendHTML(to []string, subject, htmlBody string) error {
	if !s.IsConfigured() {
		return fmt.Errorf("mail not configured")
	}

	from := s.from
	if s.fromName != "" {
		from = fmt.Sprintf("%s <%s>", s.fromName, s.from)
	}

	boundary := "boundary-tabi"

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	fmt.Fprintf(&msg, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/alternative; boundary=\"%s\"\r\n", boundary)
	fmt.Fprintf(&msg, "\r\n")

	fmt.Fprintf(&msg, "--%s\r\n", boundary)
	fmt.Fprintf(&msg, "Content-Type: text/plain; charset=UTF-8\r\n")
	fmt.Fprintf(&msg, "\r\n")
	fmt.Fprintf(&msg, "Please view this email in an HTML-capable email client.\r\n")
	fmt.Fprintf(&msg, "\r\n")

	fmt.Fprintf(&msg, "--%s\r\n", boundary)
	fmt.Fprintf(&msg, "Content-Type: text/html; charset=UTF-8\r\n")
	fmt.Fprintf(&msg, "\r\n")
	fmt.Fprintf(&msg, "%s\r\n", htmlBody)
	fmt.Fprintf(&msg, "\r\n")
	fmt.Fprintf(&msg, "--%s--\r\n", boundary)

	return smtp.SendMail(s.server, s.auth, s.from, to, msg.Bytes())
}

type mailTemplateData struct {
	AppName  string
	UserName string
	LinkURL  string
}

func renderMailTemplate(tmpl string, data mailTemplateData) (string, error) {
	t := template.Must(template.New("email").Parse(tmpl))
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const verificationEmailTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Verify your {{.AppName}} account</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .button { display: inline-block; padding: 12px 24px; background: #e8590c; color: white; text-decoration: none; border-radius: 4px; margin: 20px 0; }
        .link { word-break: break-all; color: #e8590c; }
        .footer { margin-top: 30px; padding-top: 20px; border-top: 1px solid #eee; font-size: 12px; color: #666; }
    </style>
</head>
<body>
    <h1>{{.AppName}}</h1>

    <h2>Welcome, {{.UserName}}!</h2>

    <p>Thanks for signing up. Please verify your email address to activate your account.</p>

    <p><a href="{{.LinkURL}}" class="button">Verify Email Address</a></p>

    <p>Or copy and paste this link into your browser:</p>
    <p class="link">{{.LinkURL}}</p>

    <p>This verification link will expire in 24 hours.</p>

    <div class="footer">
        <p>If you didn't create an account with {{.AppName}}, you can safely ignore this email.</p>
    </div>
</body>
</html>`

const passwordResetEmailTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Reset your {{.AppName}} password</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .button { display: inline-block; padding: 12px 24px; background: #e8590c; color: white; text-decoration: none; border-radius: 4px; margin: 20px 0; }
        .link { word-break: break-all; color: #e8590c; }
        .footer { margin-top: 30px; padding-top: 20px; border-top: 1px solid #eee; font-size: 12px; color: #666; }
    </style>
</head>
<body>
    <h1>{{.AppName}}</h1>

    <h2>Password Reset Request</h2>

    <p>Hi {{.UserName}},</p>

    <p>We received a request to reset your password. Click the button below to choose a new one:</p>

    <p><a href="{{.LinkURL}}" class="button">Reset Password</a></p>

    <p>Or copy and paste this link into your browser:</p>
    <p class="link">{{.LinkURL}}</p>

    <p>This reset link will expire in 15 minutes.</p>

    <div class="footer">
        <p>If you didn't request a password reset, you can safely ignore this email. Your password will remain unchanged.</p>
    </div>
</body>
</html>`
