/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Field names follow
  the German form the browser client posts (nachname, zeitraeume, ...).
  Dates travel as "2006-01-02" strings; "02.01.2006" is accepted too.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

VALIDATION:
  DTOs only convert. Field validation happens in report.Validate so the
  API and the CLI reject the same plans.

SEE ALSO:
  - handlers.go: Uses these types
  - report/validate.go: Validation rules
*/
package api

import (
	"fmt"

	"github.com/warp/wochennachweis/bundle"
	"github.com/warp/wochennachweis/generic"
	"github.com/warp/wochennachweis/holiday"
	"github.com/warp/wochennachweis/report"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// PersonDTO is the person part of the form.
type PersonDTO struct {
	Nachname          string `json:"nachname"`
	Vorname           string `json:"vorname"`
	Klasse            string `json:"klasse"`
	Region            string `json:"region,omitempty"`
	Umschulungsbeginn string `json:"umschulungsbeginn"`
	Umschulungsende   string `json:"umschulungsende,omitempty"`
}

// ZeitraumDTO is one date range.
type ZeitraumDTO struct {
	Kategorie    string `json:"kategorie"`
	Start        string `json:"start"`
	Ende         string `json:"ende"`
	Beschreibung string `json:"beschreibung"`
}

// GenerateRequest is a complete plan posted by the client.
type GenerateRequest struct {
	PersonDTO
	Zeitraeume []ZeitraumDTO `json:"zeitraeume"`
}

// SessionDTO is the form state held for a browser.
type SessionDTO struct {
	Person     PersonDTO     `json:"person"`
	Zeitraeume []ZeitraumDTO `json:"zeitraeume"`
	Warnings   []string      `json:"warnings"`
}

// DayDTO is one resolved report day.
type DayDTO struct {
	Datum    string `json:"datum"`
	Eintrag  string `json:"eintrag"`
	Art      string `json:"art"`
	Feiertag string `json:"feiertag,omitempty"`
}

// WeekDTO is one report week with the values for its template.
type WeekDTO struct {
	Nummer          int               `json:"nummer"`
	KW              int               `json:"kw"`
	Kategorie       string            `json:"kategorie"`
	Montag          string            `json:"montag"`
	Samstag         string            `json:"samstag"`
	Jahr            int               `json:"jahr"`
	Ausbildungsjahr int               `json:"ausbildungsjahr"`
	Beschreibungen  []string          `json:"beschreibungen"`
	Tage            []DayDTO          `json:"tage"`
	Datei           string            `json:"datei"`
	TemplateData    map[string]string `json:"templateData"`
}

// GenerateDataResponse carries everything a client needs to render itself.
type GenerateDataResponse struct {
	Nachname string    `json:"nachname"`
	Vorname  string    `json:"vorname"`
	Klasse   string    `json:"klasse"`
	Wochen   []WeekDTO `json:"wochen"`
	Warnings []string  `json:"warnings"`
}

// HolidayEntryDTO is one public holiday.
type HolidayEntryDTO struct {
	Datum string `json:"datum"`
	Name  string `json:"name"`
}

// HolidayListResponse is the holiday set of one year and region.
type HolidayListResponse struct {
	Year      int               `json:"year"`
	Region    string            `json:"region"`
	Source    string            `json:"source"`
	Feiertage []HolidayEntryDTO `json:"feiertage"`
}

// CustomHolidayDTO is an extra non-working day maintained by an admin.
type CustomHolidayDTO struct {
	ID        string `json:"id"`
	Region    string `json:"region"`
	Date      string `json:"date"`
	Name      string `json:"name"`
	Recurring bool   `json:"recurring"`
}

// CreateHolidayRequest adds a custom holiday.
type CreateHolidayRequest struct {
	Region    string `json:"region"`
	Date      string `json:"date"`
	Name      string `json:"name"`
	Recurring bool   `json:"recurring"`
}

// HealthResponse reports readiness.
type HealthResponse struct {
	Status         string `json:"status"`
	TemplateExists bool   `json:"templateExists"`
	TemplatePath   string `json:"templatePath"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

// parseOptionalDate returns the zero TimePoint for "".
func parseOptionalDate(field, s string) (generic.TimePoint, error) {
	if s == "" {
		return generic.TimePoint{}, nil
	}
	tp, err := generic.ParseDate(s)
	if err != nil {
		return generic.TimePoint{}, fmt.Errorf("%s: %w", field, err)
	}
	return tp, nil
}

func (d PersonDTO) toPerson() (generic.Person, error) {
	start, err := parseOptionalDate("umschulungsbeginn", d.Umschulungsbeginn)
	if err != nil {
		return generic.Person{}, err
	}
	end, err := parseOptionalDate("umschulungsende", d.Umschulungsende)
	if err != nil {
		return generic.Person{}, err
	}
	return generic.Person{
		Nachname: d.Nachname,
		Vorname:  d.Vorname,
		Klasse:   d.Klasse,
		Region:   d.Region,
		Start:    start,
		End:      end,
	}, nil
}

func (d ZeitraumDTO) toZeitraum() (generic.Zeitraum, error) {
	start, err := parseOptionalDate("start", d.Start)
	if err != nil {
		return generic.Zeitraum{}, err
	}
	end, err := parseOptionalDate("ende", d.Ende)
	if err != nil {
		return generic.Zeitraum{}, err
	}
	category := generic.Category(d.Kategorie)
	if category == "" {
		category = generic.CategoryUmschulung
	}
	return generic.Zeitraum{
		Kategorie:    category,
		Period:       generic.Period{Start: start, End: end},
		Beschreibung: d.Beschreibung,
	}, nil
}

// Plan converts the request into a bundle.Plan. Dates may be ISO or German.
func (r GenerateRequest) Plan() (bundle.Plan, error) {
	p, err := r.PersonDTO.toPerson()
	if err != nil {
		return bundle.Plan{}, err
	}
	plan := bundle.Plan{Person: p}
	for i, z := range r.Zeitraeume {
		zr, err := z.toZeitraum()
		if err != nil {
			return bundle.Plan{}, fmt.Errorf("zeitraum %d: %w", i+1, err)
		}
		plan.Zeitraeume = append(plan.Zeitraeume, zr)
	}
	return plan, nil
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func formatOptionalDate(tp generic.TimePoint) string {
	if tp.IsZero() {
		return ""
	}
	return tp.String()
}

func toPersonDTO(p generic.Person) PersonDTO {
	return PersonDTO{
		Nachname:          p.Nachname,
		Vorname:           p.Vorname,
		Klasse:            p.Klasse,
		Region:            p.Region,
		Umschulungsbeginn: formatOptionalDate(p.Start),
		Umschulungsende:   formatOptionalDate(p.End),
	}
}

func toZeitraumDTOs(ranges []generic.Zeitraum) []ZeitraumDTO {
	dtos := make([]ZeitraumDTO, len(ranges))
	for i, z := range ranges {
		dtos[i] = ZeitraumDTO{
			Kategorie:    string(z.Kategorie),
			Start:        formatOptionalDate(z.Start),
			Ende:         formatOptionalDate(z.End),
			Beschreibung: z.Beschreibung,
		}
	}
	return dtos
}

func toGenerateDataResponse(prep *bundle.Prepared) GenerateDataResponse {
	p := prep.Plan.Person
	resp := GenerateDataResponse{
		Nachname: p.Nachname,
		Vorname:  p.Vorname,
		Klasse:   p.Klasse,
		Wochen:   make([]WeekDTO, len(prep.Weeks)),
		Warnings: orEmpty(prep.Warnings),
	}

	for i, w := range prep.Weeks {
		days := make([]DayDTO, len(w.Tage))
		for j, d := range w.Tage {
			days[j] = DayDTO{Datum: d.Datum.String(), Eintrag: d.Label, Art: string(d.Kind), Feiertag: d.Feiertag}
		}
		resp.Wochen[i] = WeekDTO{
			Nummer:          w.Nummer,
			KW:              w.KW(),
			Kategorie:       string(w.Kategorie),
			Montag:          w.Montag.String(),
			Samstag:         w.Samstag.String(),
			Jahr:            w.Jahr,
			Ausbildungsjahr: w.Ausbildungsjahr,
			Beschreibungen:  w.Labels(),
			Tage:            days,
			Datei:           report.FolderName(w.Kategorie) + "/" + report.FileName(w),
			TemplateData:    prep.Fields[i],
		}
	}
	return resp
}

func toHolidayListResponse(set holiday.HolidaySet) HolidayListResponse {
	entries := set.List()
	resp := HolidayListResponse{
		Year:      set.Year,
		Region:    set.Region,
		Source:    string(set.Source),
		Feiertage: make([]HolidayEntryDTO, len(entries)),
	}
	for i, e := range entries {
		resp.Feiertage[i] = HolidayEntryDTO{Datum: e.Date.String(), Name: e.Name}
	}
	return resp
}

func toCustomHolidayDTOs(holidays []generic.Holiday) []CustomHolidayDTO {
	dtos := make([]CustomHolidayDTO, len(holidays))
	for i, h := range holidays {
		dtos[i] = CustomHolidayDTO{
			ID:        h.ID,
			Region:    h.Region,
			Date:      h.Date.String(),
			Name:      h.Name,
			Recurring: h.Recurring,
		}
	}
	return dtos
}
