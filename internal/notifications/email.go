package notifications

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/resend/resend-go/v2"

	"github.com/pitchside/pitchside/internal/models"
)

// UserDirectory resolves a user's email address.
type UserDirectory interface {
	EmailForUser(ctx context.Context, userID uuid.UUID) (string, error)
}

// EmailSender delivers notifications through Resend.
type EmailSender struct {
	client    *resend.Client
	from      string
	directory UserDirectory
}

func NewEmailSender(apiKey, from string, directory UserDirectory) *EmailSender {
	return &EmailSender{
		client:    resend.NewClient(apiKey),
		from:      from,
		directory: directory,
	}
}

func (s *EmailSender) Send(ctx context.Context, n models.Notification) error {
	to, err := s.directory.EmailForUser(ctx, n.UserID)
	if err != nil {
		return fmt.Errorf("resolve recipient: %w", err)
	}

	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: n.Title,
		Html:    renderEmailHTML(n),
	}

	if _, err := s.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

func renderEmailHTML(n models.Notification) string {
	return fmt.Sprintf(
		`<h2>%s</h2><p>%s</p><p style="color:#888;font-size:12px">You get this email because you follow a team in this match.</p>`,
		n.Title, n.Body)
}
