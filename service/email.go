// file: service/email.go

package service

import (
	"fmt"
	"go-auth-api/logger"
	"net/smtp"
)

// Mailer delivers password reset instructions. Delivery is best-effort: the
// orchestrator logs failures but never surfaces them to the requester.
type Mailer interface {
	SendPasswordResetEmail(to, username, token string) error
}

// SMTPMailer sends mail through a plain SMTP relay.
type SMTPMailer struct {
	Addr         string // host:port of the relay
	From         string
	ResetBaseURL string
}

func NewSMTPMailer(addr, from, resetBaseURL string) *SMTPMailer {
	return &SMTPMailer{Addr: addr, From: from, ResetBaseURL: resetBaseURL}
}

func (m *SMTPMailer) SendPasswordResetEmail(to, username, token string) error {
	resetLink := fmt.Sprintf("%s/%s", m.ResetBaseURL, token)

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: Password Reset Request\r\n\r\n"+
		"Hello %s,\r\n\r\n"+
		"We received a request to reset your password. Follow the link below to choose a new one:\r\n\r\n"+
		"%s\r\n\r\n"+
		"If you did not request a password reset, you can safely ignore this email.\r\n",
		m.From, to, username, resetLink)

	if err := smtp.SendMail(m.Addr, nil, m.From, []string{to}, []byte(msg)); err != nil {
		logger.Log.WithError(err).WithField("recipient", to).Error("Failed to send password reset email")
		return err
	}

	logger.Log.WithField("recipient", to).Info("Password reset email dispatched")
	return nil
}
