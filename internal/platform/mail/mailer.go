package mail

import (
	"context"
	"fmt"
	"log"

	"gopkg.in/gomail.v2"
)

// Mailer delivers invitation messages. Delivery is best-effort: callers treat
// a failure as reportable, not as a reason to roll back the invitation.
type Mailer interface {
	SendInvitation(ctx context.Context, recipientEmail, inviterName, projectName, link string) error
}

type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(host string, port int, user, password, from string) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(host, port, user, password),
		from:   from,
	}
}

func (m *SMTPMailer) SendInvitation(_ context.Context, recipientEmail, inviterName, projectName, link string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", recipientEmail)
	msg.SetHeader("Subject", fmt.Sprintf("Invitation to collaborate on %s", projectName))
	msg.SetBody("text/html", invitationBody(inviterName, projectName, link))

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("mail: send invitation to %s: %w", recipientEmail, err)
	}
	log.Printf("Invitation email sent to %s", recipientEmail)
	return nil
}

func invitationBody(inviterName, projectName, link string) string {
	return fmt.Sprintf(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2>Collaboration Invitation</h2>
  <p>Hello!</p>
  <p>%s has invited you to collaborate on the project <strong>%s</strong>.</p>
  <p>Click the link below to accept the invitation:</p>
  <a href="%s"
     style="display: inline-block; padding: 12px 24px; background-color: #667eea; color: white; text-decoration: none; border-radius: 4px;">
    Accept Invitation
  </a>
  <p>This invitation will expire in 7 days.</p>
  <hr>
  <p style="color: #666; font-size: 12px;">
    If you didn't request this invitation, please ignore this email.
  </p>
</div>`, inviterName, projectName, link)
}
