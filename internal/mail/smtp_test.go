package mail

import (
	"strings"
	"testing"

	"github.com/inkpress/apiserver/config"
)

func TestVerificationLink(t *testing.T) {
	mailer := NewSMTPMailer(config.SMTPConfig{BaseURL: "https://blog.example.com/"})

	link := mailer.link("/api/users/verify-account", "abc 123")
	if link != "https://blog.example.com/api/users/verify-account?token=abc+123" {
		t.Fatalf("unexpected link: %q", link)
	}
	if strings.Contains(link, "//api") {
		t.Fatalf("trailing base slash not trimmed: %q", link)
	}
}

func TestResetLink(t *testing.T) {
	mailer := NewSMTPMailer(config.SMTPConfig{BaseURL: "http://localhost:8080"})

	link := mailer.link("/api/users/forgot-password-request", "c0de")
	if link != "http://localhost:8080/api/users/forgot-password-request?token=c0de" {
		t.Fatalf("unexpected link: %q", link)
	}
}
