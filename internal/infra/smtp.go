package infra

import (
	"bytes"
	"fmt"
	"net/smtp"

	"posengine/internal/config"

	"github.com/jordan-wright/email"
)

// Mailer sends shift reports over SMTP with the PDF attached.
type Mailer struct {
	host     string
	user     string
	password string
	from     string
	addr     string
}

func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{
		host:     cfg.SMTPHost,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		from:     cfg.MailSender(),
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
	}
}

// SendShiftReport mails body to every recipient with pdf attached as filename.
func (m *Mailer) SendShiftReport(to []string, subject, body string, pdf []byte, filename string) error {
	e, err := shiftReportEmail(m.from, to, subject, body, pdf, filename)
	if err != nil {
		return err
	}
	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.password, m.host)
	}
	if err := e.Send(m.addr, auth); err != nil {
		return fmt.Errorf("mailer: send to %v: %w", to, err)
	}
	return nil
}

func shiftReportEmail(from string, to []string, subject, body string, pdf []byte, filename string) (*email.Email, error) {
	if len(to) == 0 {
		return nil, fmt.Errorf("mailer: no recipients")
	}
	e := email.NewEmail()
	e.From = from
	e.To = to
	e.Subject = subject
	e.Text = []byte(body)
	if len(pdf) > 0 {
		if _, err := e.Attach(bytes.NewReader(pdf), filename, "application/pdf"); err != nil {
			return nil, fmt.Errorf("mailer: attach PDF: %w", err)
		}
	}
	return e, nil
}
