package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReporter struct {
	rendered []uuid.UUID
	err      error
}

func (r *fakeReporter) WriteReport(_ context.Context, shiftID uuid.UUID, w io.Writer) error {
	if r.err != nil {
		return r.err
	}
	r.rendered = append(r.rendered, shiftID)
	_, err := w.Write([]byte("%PDF " + shiftID.String()))
	return err
}

type sentMail struct {
	to       []string
	subject  string
	body     string
	pdf      []byte
	filename string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (m *fakeMailer) SendShiftReport(to []string, subject, body string, pdf []byte, filename string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body, pdf: pdf, filename: filename})
	return nil
}

func reportJob(t *testing.T, shiftID string) Job {
	t.Helper()
	payload, err := json.Marshal(ShiftReportEmail{ShiftID: shiftID, UserName: "Ana", Variance: decimal.RequireFromString("-25")})
	require.NoError(t, err)
	return Job{Type: JobShiftReportEmail, Payload: payload}
}

func TestEmailWorker_SendsRenderedReport(t *testing.T) {
	reports := &fakeReporter{}
	mailer := &fakeMailer{}
	w := NewEmailWorker(reports, mailer, []string{"owner@example.com"})
	shiftID := uuid.New()

	require.NoError(t, w.Handle(context.Background(), reportJob(t, shiftID.String())))

	assert.Equal(t, []uuid.UUID{shiftID}, reports.rendered)
	require.Len(t, mailer.sent, 1)
	m := mailer.sent[0]
	assert.Equal(t, []string{"owner@example.com"}, m.to)
	assert.Contains(t, m.subject, "Ana")
	assert.Contains(t, m.body, "-25.00")
	assert.Equal(t, "%PDF "+shiftID.String(), string(m.pdf))
	assert.Equal(t, "shift-"+shiftID.String()+".pdf", m.filename)
}

func TestEmailWorker_Failures(t *testing.T) {
	ctx := context.Background()
	shiftID := uuid.NewString()

	w := NewEmailWorker(&fakeReporter{err: errors.New("shift still active")}, &fakeMailer{}, []string{"owner@example.com"})
	assert.Error(t, w.Handle(ctx, reportJob(t, shiftID)))

	w = NewEmailWorker(&fakeReporter{}, &fakeMailer{err: errors.New("connection refused")}, []string{"owner@example.com"})
	assert.Error(t, w.Handle(ctx, reportJob(t, shiftID)), "a send failure is retried by the pool")

	assert.Error(t, w.Handle(ctx, reportJob(t, "not-a-uuid")))
	assert.ErrorIs(t, w.Handle(ctx, Job{Type: JobLowStock}), ErrUnknownJobType)

	mailer := &fakeMailer{}
	w = NewEmailWorker(&fakeReporter{}, mailer, nil)
	assert.NoError(t, w.Handle(ctx, reportJob(t, shiftID)))
	assert.Empty(t, mailer.sent)
}

func TestHandlers_RouteReportEmails(t *testing.T) {
	ctx := context.Background()
	mailer := &fakeMailer{}
	h := &Handlers{Email: NewEmailWorker(&fakeReporter{}, mailer, []string{"owner@example.com"})}

	require.NoError(t, h.Handle(ctx, reportJob(t, uuid.NewString())))
	assert.Len(t, mailer.sent, 1)

	assert.NoError(t, (&Handlers{}).Handle(ctx, reportJob(t, uuid.NewString())), "dropped without a mailer")
}
