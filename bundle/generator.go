/*
Package bundle renders report weeks into Word documents and packs them.

PURPOSE:
  One .docx per WeekRecord, rendered from a shared template. Rendering is
  CPU-bound XML work, so weeks are rendered in parallel with a bounded
  errgroup; the result keeps calendar order regardless of which worker
  finished first.

FLOW:
  report.Reconciler -> []WeekRecord
  Generator.Generate -> Result{Documents (week order)}
  WriteZip -> <Kategorie>/<FileName>.docx + LIESMICH.txt + Uebersicht.xlsx

SEE ALSO:
  - archive.go: ZIP layout, manifest and spreadsheet
  - docx/template.go: The template renderer
*/
package bundle

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/warp/wochennachweis/docx"
	"github.com/warp/wochennachweis/generic"
	"github.com/warp/wochennachweis/report"
)

// Document is one rendered week.
type Document struct {
	Week    report.WeekRecord
	Fields  report.FieldMap
	Folder  string
	Name    string
	Content []byte
}

// Path is the document's location inside the archive.
func (d Document) Path() string {
	return d.Folder + "/" + d.Name
}

// Result is the output of one generation run.
type Result struct {
	Person      generic.Person
	Documents   []Document // week order
	GeneratedAt time.Time
}

// ArchiveName is the download name of the result's ZIP.
func (r *Result) ArchiveName() string {
	return report.ArchiveName(r.Person, generic.DateOf(r.GeneratedAt))
}

// CountByCategory returns the number of documents per category.
func (r *Result) CountByCategory() map[generic.Category]int {
	counts := make(map[generic.Category]int)
	for _, d := range r.Documents {
		counts[d.Week.Kategorie]++
	}
	return counts
}

// =============================================================================
// GENERATOR
// =============================================================================

type Generator struct {
	Template *docx.Template
	Style    docx.TextStyle
	Fields   report.FieldBuilder
	Workers  int // <= 0 renders sequentially
	Logger   *zap.Logger
	Now      func() time.Time
}

func NewGenerator(tpl *docx.Template, style docx.TextStyle, fields report.FieldBuilder, workers int, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{Template: tpl, Style: style, Fields: fields, Workers: workers, Logger: logger, Now: time.Now}
}

// Generate renders every week. It fails with generic.ErrNoWeeks when there
// is nothing to render and stops at the first render error.
func (g *Generator) Generate(ctx context.Context, p generic.Person, weeks []report.WeekRecord) (*Result, error) {
	if len(weeks) == 0 {
		return nil, generic.ErrNoWeeks
	}
	if g.Template == nil {
		return nil, generic.ErrTemplateNotFound
	}

	start := time.Now()
	docs := make([]Document, len(weeks))

	eg, egCtx := errgroup.WithContext(ctx)
	workers := g.Workers
	if workers <= 0 {
		workers = 1
	}
	eg.SetLimit(workers)

	for i, w := range weeks {
		i, w := i, w
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			fields := g.Fields.Build(w, p)
			content, err := g.Template.RenderBytes(docx.Fields(fields), g.Style)
			if err != nil {
				return fmt.Errorf("render week %d: %w", w.Nummer, err)
			}
			docs[i] = Document{
				Week:    w,
				Fields:  fields,
				Folder:  report.FolderName(w.Kategorie),
				Name:    report.FileName(w),
				Content: content,
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	g.logger().Info("documents generated",
		zap.String("nachname", p.Nachname),
		zap.Int("weeks", len(docs)),
		zap.Int("workers", workers),
		zap.Duration("duration", time.Since(start)),
	)
	return &Result{Person: p, Documents: docs, GeneratedAt: now()}, nil
}

func (g *Generator) logger() *zap.Logger {
	if g.Logger == nil {
		return zap.NewNop()
	}
	return g.Logger
}
