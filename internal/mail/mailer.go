// Package mail sends the post-registration credentials email over SMTP.
package mail

import (
	"fmt"
	"net/smtp"

	"pdfchat/internal/config"
)

// Sender delivers account-related mail. The SMTP implementation below is the
// production one; tests substitute their own.
type Sender interface {
	SendCredentials(toEmail, username, password string) error
}

type SMTPMailer struct {
	cfg config.MailConfig
}

func NewSMTPMailer(cfg config.MailConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) SendCredentials(toEmail, username, password string) error {
	if m.cfg.Host == "" || m.cfg.Username == "" || m.cfg.Password == "" {
		return fmt.Errorf("mail config incomplete (host, username, password required)")
	}
	from := m.cfg.From
	if from == "" {
		from = m.cfg.Username
	}

	subject := "Welcome to PDF Chat - Your Login Credentials"
	body := fmt.Sprintf(
		"Hello,\n\nYour account has been created successfully.\n\nUsername: %s\nPassword: %s\n\nYou can now log in and start chatting with your PDFs.\n",
		username, password,
	)

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s",
		from, toEmail, subject, body)

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	if err := smtp.SendMail(addr, auth, from, []string{toEmail}, []byte(msg)); err != nil {
		return fmt.Errorf("send credentials mail failed: %w", err)
	}
	return nil
}
