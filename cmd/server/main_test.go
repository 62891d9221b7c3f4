package main

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/wochennachweis/bundle"
	"github.com/warp/wochennachweis/docx"
	"github.com/warp/wochennachweis/docx/docxtest"
	"github.com/warp/wochennachweis/generic"
	"github.com/warp/wochennachweis/holiday"
	"github.com/warp/wochennachweis/report"
)

const planJSON = `{
  "nachname": "Muster",
  "vorname": "Max",
  "klasse": "FIAE 23",
  "region": "NW",
  "umschulungsbeginn": "18.03.2024",
  "zeitraeume": [
    {"kategorie": "Umschulung", "start": "2024-03-18", "ende": "2024-03-29", "beschreibung": "Theorie"}
  ]
}`

func TestReadPlan(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.json")
	require.NoError(t, os.WriteFile(path, []byte(planJSON), 0o644))

	fromFile, err := readPlan(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "Muster", fromFile.Person.Nachname)
	assert.Equal(t, "2024-03-18", fromFile.Person.Start.String())
	require.Len(t, fromFile.Zeitraeume, 1)
	assert.Equal(t, generic.CategoryUmschulung, fromFile.Zeitraeume[0].Kategorie)

	fromStdin, err := readPlan("-", strings.NewReader(planJSON))
	require.NoError(t, err)
	assert.Equal(t, fromFile, fromStdin)

	_, err = readPlan("-", strings.NewReader(`{"umschulungsbeginn": "gestern"}`))
	assert.ErrorIs(t, err, generic.ErrInvalidDate)
}

func TestGenerate_WritesArchive(t *testing.T) {
	calc := holiday.NewCalculator()
	svc := &bundle.Service{
		Calendar:     calc,
		Reconciler:   report.NewReconciler(calc, ""),
		Fields:       report.FieldBuilder{PadWeek: 2},
		Style:        docx.DefaultStyle(),
		TemplatePath: docxtest.WriteFile(t, "vorlage.docx", docxtest.Wochennachweis()),
		DailyHours:   decimal.NewFromInt(8),
	}
	plan, err := readPlan("-", strings.NewReader(planJSON))
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "sub", "nachweise.zip")
	written, err := generate(context.Background(), svc, plan, out)
	require.NoError(t, err)
	assert.Equal(t, out, written)

	zr, err := zip.OpenReader(out)
	require.NoError(t, err)
	defer zr.Close()

	var docs int
	for _, f := range zr.File {
		if strings.HasSuffix(f.Name, ".docx") {
			docs++
		}
	}
	assert.Equal(t, 2, docs)
}

func TestPrintHolidays(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, printHolidays(&buf, holiday.Static(2024, "NW", false)))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "Feiertage 2024 NW (static)\n"))
	assert.Regexp(t, `29\.03\.2024 +Freitag +Karfreitag`, out)
	assert.Regexp(t, `01\.11\.2024 +Freitag +Allerheiligen`, out)
}

func TestHolidaysCommand(t *testing.T) {
	t.Setenv("WN_HOLIDAYS_REMOTE_ENABLED", "false")
	t.Setenv("WN_LOG_LEVEL", "error")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"holidays", "--year", "2025", "--region", "DE-BY", "--db", ":memory:"})

	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "Feiertage 2025 BY (static)")
	assert.Contains(t, out.String(), "Heilige Drei Könige")
}

func TestHolidaysCommand_RejectsYear(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"holidays", "--year", "1800"})

	assert.Error(t, cmd.Execute())
}

func TestLoadConfig_FlagsOverride(t *testing.T) {
	t.Setenv("WN_SERVER_PORT", "9000")

	cmd := newServeCmd(&globalFlags{})
	cmd.Flags().String("db", "", "")
	require.NoError(t, cmd.Flags().Parse([]string{"--port", "3000", "--db", "test.db"}))

	g := &globalFlags{dbPath: "test.db"}
	cfg, err := loadConfig(cmd, g)
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "test.db", cfg.Database.Path)
	assert.Equal(t, 30*time.Minute, cfg.Session.IdleTimeout)
}
