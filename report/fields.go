package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/warp/wochennachweis/generic"
)

// FieldMap maps placeholder names (without braces) to their values.
type FieldMap map[string]string

// Placeholder names understood by the template.
const (
	FieldWoche     = "WOCHE"
	FieldDatum     = "DATUM"
	FieldNachname  = "NACHNAME"
	FieldVorname   = "VORNAME"
	FieldKlasse    = "KLASSE"
	FieldAJ        = "AJ"
	FieldUDatum    = "UDATUM"
	FieldKategorie = "KATEGORIE"
	FieldJahr      = "JAHR"
	FieldKW        = "KW"
	FieldMonat     = "MONAT"
	FieldTag       = "TAG"     // TAG1..TAG6: date of the day
	FieldEintrag   = "EINTRAG" // EINTRAG1..EINTRAG6: activity text of the day
)

// FieldKeys lists every key Build produces, in a stable order.
var FieldKeys = func() []string {
	keys := []string{
		FieldWoche, FieldDatum, FieldNachname, FieldVorname, FieldKlasse,
		FieldAJ, FieldUDatum, FieldKategorie, FieldJahr, FieldKW, FieldMonat,
	}
	for i := 1; i <= DaysPerWeek; i++ {
		keys = append(keys, DayField(FieldTag, i), DayField(FieldEintrag, i))
	}
	return keys
}()

// DayField returns e.g. "EINTRAG3" for the third weekday.
func DayField(prefix string, n int) string {
	return prefix + strconv.Itoa(n)
}

// FieldBuilder turns a week into template fields.
type FieldBuilder struct {
	// PadWeek zero-pads WOCHE to this many digits; 0 leaves it plain.
	PadWeek int
}

// Build derives the complete FieldMap of one week.
func (b FieldBuilder) Build(w WeekRecord, p generic.Person) FieldMap {
	f := FieldMap{
		FieldWoche:     b.weekNumber(w.Nummer),
		FieldDatum:     w.Period().German(),
		FieldNachname:  p.Nachname,
		FieldVorname:   p.Vorname,
		FieldKlasse:    p.Klasse,
		FieldAJ:        strconv.Itoa(w.Ausbildungsjahr),
		FieldUDatum:    w.Samstag.German(),
		FieldKategorie: string(w.Kategorie),
		FieldJahr:      strconv.Itoa(w.Jahr),
		FieldKW:        strconv.Itoa(w.KW()),
		FieldMonat:     MonthName(w.Montag.Month()),
	}
	for i, d := range w.Tage {
		f[DayField(FieldTag, i+1)] = d.Datum.German()
		f[DayField(FieldEintrag, i+1)] = d.Label
	}
	return f
}

func (b FieldBuilder) weekNumber(n int) string {
	if b.PadWeek <= 0 {
		return strconv.Itoa(n)
	}
	return fmt.Sprintf("%0*d", b.PadWeek, n)
}

// =============================================================================
// NAMES
// =============================================================================

var monthNames = [...]string{
	"Januar", "Februar", "März", "April", "Mai", "Juni",
	"Juli", "August", "September", "Oktober", "November", "Dezember",
}

// MonthName returns the German month name.
func MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return monthNames[m-1]
}

var weekdayNames = [...]string{
	"Sonntag", "Montag", "Dienstag", "Mittwoch", "Donnerstag", "Freitag", "Samstag",
}

// WeekdayName returns the German weekday name.
func WeekdayName(d time.Weekday) string {
	if d < time.Sunday || d > time.Saturday {
		return ""
	}
	return weekdayNames[d]
}

// FileName is the document name of a week inside the archive folder.
func FileName(w WeekRecord) string {
	return fmt.Sprintf("Wochennachweis_Woche_%02d_%s_%s.docx",
		w.Nummer, MonthName(w.Montag.Month()), safeName(string(w.Kategorie)))
}

// ArchiveName is the download name of the ZIP for person, generated on day.
func ArchiveName(p generic.Person, day generic.TimePoint) string {
	name := safeName(p.Nachname)
	if name == "" {
		name = "Unbekannt"
	}
	return fmt.Sprintf("Wochennachweise_%s_%s.zip", name, day.Compact())
}

// FolderName is the archive folder holding the documents of category c.
func FolderName(c generic.Category) string {
	if name := safeName(string(c)); name != "" {
		return name
	}
	return string(generic.CategoryUmschulung)
}

func safeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case strings.ContainsRune("äöüÄÖÜß-", r):
			return r
		case r == ' ' || r == '_':
			return '_'
		default:
			return -1
		}
	}, strings.TrimSpace(s))
}
