package worker

// email_worker.go
// Mails the PDF report of a shift that closed outside the variance threshold
// to the configured recipients.

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const JobShiftReportEmail = "shift_report_email"

type ShiftReportEmail struct {
	ShiftID  string          `json:"shift_id"`
	UserName string          `json:"user_name"`
	Variance decimal.Decimal `json:"variance"`
}

// ShiftReporter renders the PDF report of a closed shift.
type ShiftReporter interface {
	WriteReport(ctx context.Context, shiftID uuid.UUID, w io.Writer) error
}

// ReportMailer delivers a rendered report.
type ReportMailer interface {
	SendShiftReport(to []string, subject, body string, pdf []byte, filename string) error
}

type EmailWorker struct {
	reports    ShiftReporter
	mailer     ReportMailer
	recipients []string
}

func NewEmailWorker(reports ShiftReporter, mailer ReportMailer, recipients []string) *EmailWorker {
	return &EmailWorker{reports: reports, mailer: mailer, recipients: recipients}
}

func (w *EmailWorker) Handle(ctx context.Context, job Job) error {
	if job.Type != JobShiftReportEmail {
		return ErrUnknownJobType
	}
	var p ShiftReportEmail
	if err := json.Unmarshal(job.Payload, &p); err != nil {
		return fmt.Errorf("shift report payload: %w", err)
	}
	shiftID, err := uuid.Parse(p.ShiftID)
	if err != nil {
		return fmt.Errorf("shift report payload: %w", err)
	}
	if len(w.recipients) == 0 {
		log.Warn().Str("shift_id", p.ShiftID).Msg("email_worker: no recipients, skipping")
		return nil
	}

	var buf bytes.Buffer
	if err := w.reports.WriteReport(ctx, shiftID, &buf); err != nil {
		return fmt.Errorf("render shift report: %w", err)
	}
	subject := fmt.Sprintf("Shift of %s awaiting approval", p.UserName)
	body := fmt.Sprintf("The shift %s of %s closed with a cash variance of %s and needs a manager's approval.\nThe shift report is attached.",
		p.ShiftID, p.UserName, p.Variance.StringFixed(2))
	if err := w.mailer.SendShiftReport(w.recipients, subject, body, buf.Bytes(), "shift-"+p.ShiftID+".pdf"); err != nil {
		return err
	}
	log.Info().Str("shift_id", p.ShiftID).Int("recipients", len(w.recipients)).Msg("email_worker: shift report sent")
	return nil
}

// Handlers routes jobs from the shared queue to the worker that owns them.
// With no EmailWorker, report emails are dropped.
type Handlers struct {
	Alerts *AlertWorker
	Email  *EmailWorker
}

func (h *Handlers) Handle(ctx context.Context, job Job) error {
	if job.Type == JobShiftReportEmail {
		if h.Email == nil {
			log.Warn().Str("type", job.Type).Msg("worker: email is not configured, dropping job")
			return nil
		}
		return h.Email.Handle(ctx, job)
	}
	return h.Alerts.Handle(ctx, job)
}
