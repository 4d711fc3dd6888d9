package config

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 5, cfg.LowStockThreshold)
	assert.Equal(t, "all_lines", cfg.BundlePricingMode)

	th, err := cfg.VarianceThreshold()
	require.NoError(t, err)
	assert.True(t, th.Equal(decimal.NewFromInt(10)))
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SHIFT_VARIANCE_THRESHOLD", "2.50")
	t.Setenv("LOW_STOCK_THRESHOLD", "3")
	t.Setenv("BUNDLE_PRICING_MODE", "consumed_units")

	cfg, err := Load()
	require.NoError(t, err)

	th, err := cfg.VarianceThreshold()
	require.NoError(t, err)
	assert.Equal(t, "2.5", th.String())
	assert.Equal(t, 3, cfg.LowStockThreshold)
	assert.Equal(t, "consumed_units", cfg.BundlePricingMode)
}

func TestValidate_Rejects(t *testing.T) {
	base := Config{DBDriver: "postgres", ShiftVarianceThreshold: "10", BundlePricingMode: "all_lines"}

	bad := base
	bad.DBDriver = "oracle"
	assert.Error(t, bad.Validate())

	bad = base
	bad.ShiftVarianceThreshold = "ten"
	assert.Error(t, bad.Validate())

	bad = base
	bad.ShiftVarianceThreshold = "-1"
	assert.Error(t, bad.Validate())

	bad = base
	bad.BundlePricingMode = "greedy"
	assert.Error(t, bad.Validate())

	bad = base
	bad.Env = "production"
	assert.Error(t, bad.Validate())

	assert.NoError(t, base.Validate())
}

func TestAllowedOrigins(t *testing.T) {
	cfg := Config{CORSOrigins: " https://pos.example.com, ,https://admin.example.com "}
	assert.Equal(t, []string{"https://pos.example.com", "https://admin.example.com"}, cfg.AllowedOrigins())
	assert.Empty(t, (&Config{}).AllowedOrigins())
}

func TestMailSettings(t *testing.T) {
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_USER", "pos@example.com")
	t.Setenv("SHIFT_REPORT_RECIPIENTS", "owner@example.com, ,audit@example.com")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 587, cfg.SMTPPort)
	assert.Equal(t, []string{"owner@example.com", "audit@example.com"}, cfg.ReportRecipients())
	assert.True(t, cfg.MailEnabled())
	assert.Equal(t, "pos@example.com", cfg.MailSender())

	cfg.SMTPFrom = "Shop <noreply@example.com>"
	assert.Equal(t, "Shop <noreply@example.com>", cfg.MailSender())

	assert.False(t, (&Config{SMTPHost: "smtp.example.com"}).MailEnabled(), "no recipients")
	assert.False(t, (&Config{ShiftReportRecipients: "owner@example.com"}).MailEnabled(), "no host")

	bad := Config{DBDriver: "sqlite", ShiftVarianceThreshold: "10", BundlePricingMode: "all_lines", SMTPHost: "smtp.example.com"}
	assert.Error(t, bad.Validate(), "port 0 with a host")
}
