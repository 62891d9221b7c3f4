package bundle

import (
	"bytes"
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/wochennachweis/docx"
	"github.com/warp/wochennachweis/generic"
	"github.com/warp/wochennachweis/holiday"
	"github.com/warp/wochennachweis/report"
)

// Plan is one generation request: a person and their ranges.
type Plan struct {
	Person     generic.Person
	Zeitraeume []generic.Zeitraum
}

// Prepared is a validated plan with its weeks and template fields.
type Prepared struct {
	Plan     Plan
	Weeks    []report.WeekRecord
	Fields   []report.FieldMap // parallel to Weeks
	Warnings []string
}

// Archive is a finished ZIP.
type Archive struct {
	Name   string
	Data   []byte
	Result *Result
}

// Service runs validate -> reconcile -> render -> archive.
type Service struct {
	Calendar     *holiday.Calculator
	Reconciler   *report.Reconciler
	Fields       report.FieldBuilder
	Style        docx.TextStyle
	TemplatePath string
	Workers      int
	DailyHours   decimal.Decimal
	Logger       *zap.Logger
}

// Prepare validates the plan and builds its weeks. requireRanges rejects
// plans without Zeitraeume; otherwise the person's own span is used.
func (s *Service) Prepare(ctx context.Context, plan Plan, requireRanges bool) (*Prepared, error) {
	if err := report.Validate(plan.Person, plan.Zeitraeume, requireRanges); err != nil {
		return nil, err
	}

	weeks := s.Reconciler.Reconcile(ctx, plan.Person, plan.Zeitraeume)
	if len(weeks) == 0 {
		return nil, generic.ErrNoWeeks
	}

	fields := make([]report.FieldMap, len(weeks))
	for i, w := range weeks {
		fields[i] = s.Fields.Build(w, plan.Person)
	}

	return &Prepared{
		Plan:     plan,
		Weeks:    weeks,
		Fields:   fields,
		Warnings: report.Warnings(plan.Zeitraeume),
	}, nil
}

// LoadTemplate reads the configured template.
func (s *Service) LoadTemplate() (*docx.Template, error) {
	return docx.LoadTemplate(s.TemplatePath)
}

// Build renders every prepared week and packs the ZIP in memory, so a
// failure never leaves a half-written download.
func (s *Service) Build(ctx context.Context, prep *Prepared) (*Archive, error) {
	tpl, err := s.LoadTemplate()
	if err != nil {
		return nil, err
	}

	gen := NewGenerator(tpl, s.Style, s.Fields, s.Workers, s.logger())
	res, err := gen.Generate(ctx, prep.Plan.Person, prep.Weeks)
	if err != nil {
		return nil, err
	}

	meta := Meta{DailyHours: s.DailyHours, Warnings: prep.Warnings}
	if s.Calendar != nil {
		meta.Holidays = CollectHolidays(ctx, s.Calendar, prep.Plan.Person.Region, prep.Weeks)
	}

	var buf bytes.Buffer
	if err := WriteZip(&buf, res, meta); err != nil {
		return nil, fmt.Errorf("write archive: %w", err)
	}

	return &Archive{Name: res.ArchiveName(), Data: buf.Bytes(), Result: res}, nil
}

func (s *Service) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}
