package bundle

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/warp/wochennachweis/generic"
	"github.com/warp/wochennachweis/holiday"
	"github.com/warp/wochennachweis/report"
)

const (
	ManifestName  = "LIESMICH.txt"
	OverviewName  = "Uebersicht.xlsx"
	overviewSheet = "Übersicht"
)

// Meta is the extra information written next to the documents.
type Meta struct {
	Holidays   []holiday.HolidaySet // every year the weeks touch
	DailyHours decimal.Decimal      // hours per working day; zero leaves Stunden empty
	Warnings   []string
}

// HolidaySource is the part of holiday.Calculator the archive needs.
type HolidaySource interface {
	GetHolidays(ctx context.Context, year int, region string) holiday.HolidaySet
}

// CollectHolidays loads the holiday sets of every year covered by weeks.
func CollectHolidays(ctx context.Context, src HolidaySource, region string, weeks []report.WeekRecord) []holiday.HolidaySet {
	seen := make(map[int]bool)
	var sets []holiday.HolidaySet
	for _, w := range weeks {
		for _, y := range []int{w.Montag.Year(), w.Samstag.Year()} {
			if seen[y] {
				continue
			}
			seen[y] = true
			sets = append(sets, src.GetHolidays(ctx, y, region))
		}
	}
	return sets
}

// WriteZip writes the archive: one folder per category holding its
// documents, the manifest and the spreadsheet overview.
func WriteZip(w io.Writer, res *Result, meta Meta) error {
	zw := zip.NewWriter(w)

	folders := make(map[string]bool)
	for _, d := range res.Documents {
		if !folders[d.Folder] {
			folders[d.Folder] = true
			if _, err := zw.Create(d.Folder + "/"); err != nil {
				return fmt.Errorf("create folder %s: %w", d.Folder, err)
			}
		}
		if err := writeEntry(zw, d.Path(), d.Content); err != nil {
			return err
		}
	}

	if err := writeEntry(zw, ManifestName, []byte(Manifest(res, meta))); err != nil {
		return err
	}

	fw, err := zw.CreateHeader(&zip.FileHeader{Name: OverviewName, Method: zip.Deflate, Modified: res.GeneratedAt})
	if err != nil {
		return fmt.Errorf("create %s: %w", OverviewName, err)
	}
	if err := WriteOverview(fw, res, meta); err != nil {
		return err
	}

	return zw.Close()
}

func writeEntry(zw *zip.Writer, name string, data []byte) error {
	fw, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := fw.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// =============================================================================
// MANIFEST
// =============================================================================

// Manifest is the plain-text summary stored as LIESMICH.txt.
func Manifest(res *Result, meta Meta) string {
	var b strings.Builder
	p := res.Person

	fmt.Fprintf(&b, "Wochennachweise für %s %s\n", p.Vorname, p.Nachname)
	if p.Klasse != "" {
		fmt.Fprintf(&b, "Klasse: %s\n", p.Klasse)
	}
	fmt.Fprintf(&b, "Erstellt am: %s\n", res.GeneratedAt.Format("02.01.2006 15:04"))

	if n := len(res.Documents); n > 0 {
		first, last := res.Documents[0].Week, res.Documents[n-1].Week
		fmt.Fprintf(&b, "Zeitraum: %s - %s\n", first.Montag.German(), last.Samstag.German())
	}
	fmt.Fprintf(&b, "Wochen: %d\n", len(res.Documents))

	counts := res.CountByCategory()
	cats := make([]string, 0, len(counts))
	for c := range counts {
		cats = append(cats, string(c))
	}
	sort.Strings(cats)
	for _, c := range cats {
		fmt.Fprintf(&b, "  %s: %d\n", c, counts[generic.Category(c)])
	}

	if len(meta.Warnings) > 0 {
		b.WriteString("\nHinweise:\n")
		for _, warning := range meta.Warnings {
			fmt.Fprintf(&b, "  - %s\n", warning)
		}
	}
	return b.String()
}

// =============================================================================
// OVERVIEW SPREADSHEET
// =============================================================================

// OverviewRow is one line of the overview.
type OverviewRow struct {
	Nummer      int
	KW          int
	Zeitraum    string
	Kategorie   generic.Category
	Arbeitstage int
	Stunden     generic.Amount
	Datei       string
}

// OverviewRows counts the working days of each document's covered days,
// skipping weekends and every holiday in meta.
func OverviewRows(res *Result, meta Meta) []OverviewRow {
	bc := holiday.BusinessCalendar(meta.Holidays...)

	rows := make([]OverviewRow, 0, len(res.Documents))
	for _, d := range res.Documents {
		var covered []generic.TimePoint
		for _, day := range d.Week.Tage {
			if day.Kind != report.DayFree {
				covered = append(covered, day.Datum)
			}
		}
		days := generic.NewAmountFromInt(holiday.WorkingDays(bc, covered), generic.UnitDays)

		rows = append(rows, OverviewRow{
			Nummer:      d.Week.Nummer,
			KW:          d.Week.KW(),
			Zeitraum:    d.Week.Period().German(),
			Kategorie:   d.Week.Kategorie,
			Arbeitstage: int(days.Value.IntPart()),
			Stunden:     days.Hours(meta.DailyHours),
			Datei:       d.Path(),
		})
	}
	return rows
}

var overviewHeader = []string{"Nr.", "KW", "Zeitraum", "Kategorie", "Arbeitstage", "Stunden", "Datei"}

// WriteOverview writes Uebersicht.xlsx to w.
func WriteOverview(w io.Writer, res *Result, meta Meta) error {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(overviewSheet)
	if err != nil {
		return fmt.Errorf("overview sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(overviewSheet, "A", "B", 6)
	f.SetColWidth(overviewSheet, "C", "C", 26)
	f.SetColWidth(overviewSheet, "D", "D", 14)
	f.SetColWidth(overviewSheet, "E", "F", 12)
	f.SetColWidth(overviewSheet, "G", "G", 60)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	for i, title := range overviewHeader {
		f.SetCellValue(overviewSheet, cell(i+1, 1), title)
	}
	f.SetCellStyle(overviewSheet, cell(1, 1), cell(len(overviewHeader), 1), headerStyle)

	totalDays := 0
	totalHours := generic.NewAmountFromInt(0, generic.UnitHours)
	row := 2
	for _, r := range OverviewRows(res, meta) {
		f.SetCellValue(overviewSheet, cell(1, row), r.Nummer)
		f.SetCellValue(overviewSheet, cell(2, row), r.KW)
		f.SetCellValue(overviewSheet, cell(3, row), r.Zeitraum)
		f.SetCellValue(overviewSheet, cell(4, row), string(r.Kategorie))
		f.SetCellValue(overviewSheet, cell(5, row), r.Arbeitstage)
		if meta.DailyHours.IsPositive() {
			f.SetCellValue(overviewSheet, cell(6, row), r.Stunden.Value.InexactFloat64())
		}
		f.SetCellValue(overviewSheet, cell(7, row), r.Datei)

		totalDays += r.Arbeitstage
		totalHours = totalHours.Add(r.Stunden)
		row++
	}

	f.SetCellValue(overviewSheet, cell(1, row), "Summe")
	f.SetCellValue(overviewSheet, cell(5, row), totalDays)
	if meta.DailyHours.IsPositive() {
		f.SetCellValue(overviewSheet, cell(6, row), totalHours.Value.InexactFloat64())
	}
	sumStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	f.SetCellStyle(overviewSheet, cell(1, row), cell(len(overviewHeader), row), sumStyle)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write %s: %w", OverviewName, err)
	}
	return nil
}

func cell(col, row int) string {
	ref, _ := excelize.CoordinatesToCellName(col, row)
	return ref
}
