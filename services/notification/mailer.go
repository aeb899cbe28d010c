package notification

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"medislot/models"

	"github.com/go-gomail/gomail"
)

var reminderTemplate = template.Must(template.New("reminder").Parse(`<div style="font-family: Arial, sans-serif; color: #1f2937;">
  <h2>Appointment reminder</h2>
  <p>Hello {{.PatientName}},</p>
  <p>This is a reminder that your appointment with <strong>Dr. {{.DoctorName}}</strong> is in {{.Lead}}.</p>
  <p><strong>When:</strong> {{.When}}</p>
  <p>Please arrive a few minutes early. If you can no longer attend, cancel from the app so the slot can go to someone else.</p>
</div>`))

// MailDialer is satisfied by *gomail.Dialer.
type MailDialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// Mailer sends reminder emails over SMTP.
type Mailer struct {
	dialer MailDialer
	from   string
}

func NewSMTPMailer(host string, port int, username, password, from string) *Mailer {
	return &Mailer{dialer: gomail.NewDialer(host, port, username, password), from: from}
}

// NewMailer wraps any dialer; tests pass a fake.
func NewMailer(dialer MailDialer, from string) *Mailer {
	return &Mailer{dialer: dialer, from: from}
}

// ReminderSubject returns the subject line for a reminder with the given lead time.
func ReminderSubject(p models.ReminderPayload) string {
	if p.LeadHours == 1 {
		return "Your appointment is in 1 hour"
	}
	return fmt.Sprintf("Your appointment is in %d hours", p.LeadHours)
}

// RenderReminder renders the HTML body of a reminder email.
func RenderReminder(p models.ReminderPayload) (string, error) {
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil || p.Timezone == "" {
		loc = time.UTC
	}
	lead := "1 hour"
	if p.LeadHours != 1 {
		lead = fmt.Sprintf("%d hours", p.LeadHours)
	}

	var buf bytes.Buffer
	err = reminderTemplate.Execute(&buf, map[string]string{
		"PatientName": p.PatientName,
		"DoctorName":  p.DoctorName,
		"Lead":        lead,
		"When":        p.AppointmentTime.In(loc).Format("Monday, 02 Jan 2006 at 15:04 MST"),
	})
	if err != nil {
		return "", fmt.Errorf("render reminder: %w", err)
	}
	return buf.String(), nil
}

// SendReminder delivers one reminder. It returns once the SMTP server has accepted
// the message or ctx is done.
func (m *Mailer) SendReminder(ctx context.Context, p models.ReminderPayload) error {
	if p.PatientContact == "" {
		return fmt.Errorf("appointment %s has no patient contact", p.AppointmentID)
	}
	body, err := RenderReminder(p)
	if err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", p.PatientContact)
	msg.SetHeader("Subject", ReminderSubject(p))
	msg.SetBody("text/html", body)

	errCh := make(chan error, 1)
	go func() { errCh <- m.dialer.DialAndSend(msg) }()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("smtp send to %s: %w", p.PatientContact, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
