package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/wochennachweis/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Minute, cfg.Session.IdleTimeout)
	assert.Equal(t, "NW", cfg.Holidays.Region)
	assert.True(t, cfg.Holidays.RemoteEnabled)
	assert.True(t, cfg.Holidays.IncludeCustomary)
	assert.Equal(t, 10*time.Second, cfg.Holidays.Timeout)
	assert.Equal(t, "Umschulung", cfg.Report.DefaultCategory)
	assert.Equal(t, 2, cfg.Report.PadWeekNumber)

	style, err := cfg.Template.Style()
	require.NoError(t, err)
	assert.Equal(t, "Arial", style.FontName)
	assert.Equal(t, "20", style.HalfPoints())

	hours, err := cfg.Report.Hours()
	require.NoError(t, err)
	assert.True(t, hours.Equal(decimal.NewFromInt(8)))
}

func TestLoad_FileThenEnvironment(t *testing.T) {
	// GIVEN: a config file and an environment override
	path := writeConfig(t, `
server:
  port: 9090
holidays:
  region: BY
  remote_enabled: false
template:
  font_size: "11.5"
  bold: true
`)
	t.Setenv("WN_SERVER_PORT", "7070")
	t.Setenv("WN_GENERATE_WORKERS", "8")

	// WHEN
	cfg, err := config.Load(path)
	require.NoError(t, err)

	// THEN: env beats file, file beats defaults
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, 8, cfg.Generate.Workers)
	assert.Equal(t, "BY", cfg.Holidays.Region)
	assert.False(t, cfg.Holidays.RemoteEnabled)

	style, err := cfg.Template.Style()
	require.NoError(t, err)
	assert.True(t, style.Bold)
	assert.Equal(t, "23", style.HalfPoints())
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	path := writeConfig(t, `
holidays:
  region: XX
report:
  default_category: Urlaub
  daily_hours: viel
`)

	_, err := config.Load(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "holidays.region")
	assert.Contains(t, err.Error(), "report.default_category")
	assert.Contains(t, err.Error(), "report.daily_hours")
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
