package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"net/url"
	"strings"

	"github.com/inkpress/apiserver/config"
)

// SMTPMailer delivers email directly over SMTP.
type SMTPMailer struct {
	cfg config.SMTPConfig
}

// NewSMTPMailer constructs an SMTPMailer from config.
func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

// SendVerificationEmail sends the account verification link.
func (m *SMTPMailer) SendVerificationEmail(_ context.Context, to, code string) error {
	link := m.link("/api/users/verify-account", code)
	body := fmt.Sprintf(
		"<h1>Hello %s</h1><p>Please verify your email by clicking on the link below</p><a href=%q>Verify</a>",
		to, link,
	)
	return m.send(to, "Inkpress - Verification Code", body)
}

// SendPasswordResetEmail sends the password reset link.
func (m *SMTPMailer) SendPasswordResetEmail(_ context.Context, to, code string) error {
	link := m.link("/api/users/forgot-password-request", code)
	body := fmt.Sprintf(
		"<h1>Hello %s</h1><p>Click the link below to reset your password</p><a href=%q>Reset password</a>",
		to, link,
	)
	return m.send(to, "Inkpress - Password Reset", body)
}

func (m *SMTPMailer) link(path, code string) string {
	base := strings.TrimRight(m.cfg.BaseURL, "/")
	return base + path + "?token=" + url.QueryEscape(code)
}

func (m *SMTPMailer) send(to, subject, htmlBody string) error {
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)

	return smtp.SendMail(addr, auth, m.cfg.From, []string{to}, []byte(msg.String()))
}
