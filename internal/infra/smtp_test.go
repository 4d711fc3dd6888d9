package infra

import (
	"testing"

	"posengine/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShiftReportEmail(t *testing.T) {
	pdf := []byte("%PDF-1.3 report")
	e, err := shiftReportEmail("pos@example.com", []string{"owner@example.com"}, "Shift report", "Variance -25.00", pdf, "shift.pdf")
	require.NoError(t, err)

	assert.Equal(t, "pos@example.com", e.From)
	assert.Equal(t, []string{"owner@example.com"}, e.To)
	assert.Equal(t, "Shift report", e.Subject)
	assert.Equal(t, "Variance -25.00", string(e.Text))
	require.Len(t, e.Attachments, 1)
	assert.Equal(t, "shift.pdf", e.Attachments[0].Filename)
	assert.Equal(t, pdf, e.Attachments[0].Content)

	raw, err := e.Bytes()
	require.NoError(t, err)
	assert.Contains(t, string(raw), "application/pdf")

	_, err = shiftReportEmail("pos@example.com", nil, "s", "b", pdf, "shift.pdf")
	assert.Error(t, err)
}

func TestNewMailer_UsesConfiguredSender(t *testing.T) {
	m := NewMailer(&config.Config{SMTPHost: "smtp.example.com", SMTPPort: 2525, SMTPUser: "user", SMTPFrom: "noreply@example.com"})
	assert.Equal(t, "smtp.example.com:2525", m.addr)
	assert.Equal(t, "noreply@example.com", m.from)
}
