/*
handlers.go - HTTP API handlers for the Wochennachweis generator

PURPOSE:
  Exposes the report pipeline via REST API. Handles HTTP request/response
  and JSON serialization, and delegates to bundle.Service.

ENDPOINTS:
  Session (cookie-bound form state):
    GET    /api/session                      Person + Zeitraeume + warnings
    PUT    /api/session/person               Replace person data
    POST   /api/session/zeitraeume           Add a Zeitraum
    DELETE /api/session/zeitraeume/{index}   Remove a Zeitraum
    DELETE /api/session                      Forget everything

  Wochennachweis:
    POST   /api/wochennachweis/generate-data         Week data for a posted plan
    GET    /api/wochennachweis/generate-from-session Week data for the session
    POST   /api/wochennachweis/generate              ZIP for a posted plan
    GET    /api/wochennachweis/download              ZIP for the session
    GET    /api/wochennachweis/template              The .docx template

  Holidays:
    GET    /api/feiertage/{year}?region=NW   Public holidays of a year
    POST   /api/feiertage/cache/clear        Drop cached holiday sets
    GET    /api/holidays?region=NW           Custom holidays
    POST   /api/holidays                     Add a custom holiday
    DELETE /api/holidays/{id}                Delete a custom holiday

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input (details list every problem)
  - 404: Unknown session, holiday or template
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - session.go: Cookie handling
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/warp/wochennachweis/bundle"
	"github.com/warp/wochennachweis/generic"
	"github.com/warp/wochennachweis/holiday"
	"github.com/warp/wochennachweis/report"
)

const (
	docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Sessions   generic.SessionStore
	Holidays   generic.HolidayStore
	Calendar   *holiday.Calculator
	Service    *bundle.Service
	CookieName string
	Logger     *zap.Logger
}

// NewHandler creates a new handler.
func NewHandler(sessions generic.SessionStore, holidays generic.HolidayStore, calendar *holiday.Calculator, service *bundle.Service, cookieName string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Sessions:   sessions,
		Holidays:   holidays,
		Calendar:   calendar,
		Service:    service,
		CookieName: cookieName,
		Logger:     logger,
	}
}

// =============================================================================
// HEALTH
// =============================================================================

// Health reports readiness and whether the template is in place.
// GET /api/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	_, err := os.Stat(h.Service.TemplatePath)
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:         "ok",
		TemplateExists: err == nil,
		TemplatePath:   h.Service.TemplatePath,
	})
}

// =============================================================================
// SESSION ENDPOINTS
// =============================================================================

// GetSession returns the form state, starting a session if there is none.
// GET /api/session
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.currentSession(r.Context(), w, r, true)
	if err != nil {
		h.handleError(w, "Session konnte nicht geladen werden", err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionDTO(sess))
}

// UpdatePerson replaces the person data of the session.
// PUT /api/session/person
func (h *Handler) UpdatePerson(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req PersonDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Ungültiger Request-Body", err)
		return
	}

	p, err := req.toPerson()
	if err != nil {
		h.handleError(w, "Ungültiges Datum", err)
		return
	}
	if problems := report.ValidatePerson(p); len(problems) > 0 {
		h.handleError(w, "Ungültige Angaben", &generic.ValidationError{Problems: problems})
		return
	}

	sess, err := h.currentSession(ctx, w, r, true)
	if err != nil {
		h.handleError(w, "Session konnte nicht geladen werden", err)
		return
	}
	if err := h.Sessions.SavePerson(ctx, sess.ID, p); err != nil {
		h.handleError(w, "Speichern fehlgeschlagen", err)
		return
	}

	h.respondSession(w, r, sess.ID, http.StatusOK)
}

// AddZeitraum appends a range to the session.
// POST /api/session/zeitraeume
func (h *Handler) AddZeitraum(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ZeitraumDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Ungültiger Request-Body", err)
		return
	}

	z, err := req.toZeitraum()
	if err != nil {
		h.handleError(w, "Ungültiges Datum", err)
		return
	}
	if problems := report.ValidateZeitraum(z); len(problems) > 0 {
		h.handleError(w, "Ungültiger Zeitraum", &generic.ValidationError{Problems: problems})
		return
	}

	sess, err := h.currentSession(ctx, w, r, true)
	if err != nil {
		h.handleError(w, "Session konnte nicht geladen werden", err)
		return
	}
	if err := h.Sessions.AddZeitraum(ctx, sess.ID, z); err != nil {
		h.handleError(w, "Speichern fehlgeschlagen", err)
		return
	}

	h.respondSession(w, r, sess.ID, http.StatusCreated)
}

// DeleteZeitraum removes the range at index of the start-sorted list.
// DELETE /api/session/zeitraeume/{index}
func (h *Handler) DeleteZeitraum(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Ungültiger Index", err)
		return
	}

	sess, err := h.currentSession(ctx, w, r, false)
	if err != nil {
		h.handleError(w, "Keine Session gefunden", err)
		return
	}
	if err := h.Sessions.DeleteZeitraum(ctx, sess.ID, index); err != nil {
		h.handleError(w, "Zeitraum konnte nicht gelöscht werden", err)
		return
	}

	h.respondSession(w, r, sess.ID, http.StatusOK)
}

// ClearSession forgets the form state and expires the cookie.
// DELETE /api/session
func (h *Handler) ClearSession(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(h.CookieName); err == nil && c.Value != "" {
		err := h.Sessions.ClearSession(r.Context(), c.Value)
		if err != nil && !errors.Is(err, generic.ErrSessionNotFound) {
			h.handleError(w, "Session konnte nicht gelöscht werden", err)
			return
		}
	}
	h.expireCookie(w)
	writeJSON(w, http.StatusOK, map[string]any{"status": "cleared"})
}

func (h *Handler) respondSession(w http.ResponseWriter, r *http.Request, id string, status int) {
	sess, err := h.Sessions.GetSession(r.Context(), id)
	if err != nil {
		h.handleError(w, "Session konnte nicht geladen werden", err)
		return
	}
	writeJSON(w, status, toSessionDTO(sess))
}

// =============================================================================
// WOCHENNACHWEIS ENDPOINTS
// =============================================================================

// GenerateData returns the weeks and template values of a posted plan.
// POST /api/wochennachweis/generate-data
func (h *Handler) GenerateData(w http.ResponseWriter, r *http.Request) {
	prep, ok := h.preparePosted(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toGenerateDataResponse(prep))
}

// GenerateFromSession returns the weeks and template values of the session.
// GET /api/wochennachweis/generate-from-session
func (h *Handler) GenerateFromSession(w http.ResponseWriter, r *http.Request) {
	prep, ok := h.prepareSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toGenerateDataResponse(prep))
}

// Generate renders a posted plan into a ZIP download.
// POST /api/wochennachweis/generate
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	prep, ok := h.preparePosted(w, r)
	if !ok {
		return
	}
	h.writeArchive(w, r, prep)
}

// Download renders the session plan into a ZIP download.
// GET /api/wochennachweis/download
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	prep, ok := h.prepareSession(w, r)
	if !ok {
		return
	}
	h.writeArchive(w, r, prep)
}

// Template serves the configured .docx template.
// GET /api/wochennachweis/template
func (h *Handler) Template(w http.ResponseWriter, r *http.Request) {
	tpl, err := h.Service.LoadTemplate()
	if errors.Is(err, generic.ErrTemplateNotFound) {
		fullPath, absErr := filepath.Abs(h.Service.TemplatePath)
		if absErr != nil {
			fullPath = h.Service.TemplatePath
		}
		writeJSON(w, http.StatusNotFound, ErrorResponse{
			Error: "Template nicht gefunden",
			Code:  "template_not_found",
			Details: map[string]string{
				"path":     h.Service.TemplatePath,
				"fullPath": fullPath,
			},
		})
		return
	}
	if err != nil {
		h.handleError(w, "Template unbrauchbar", err)
		return
	}

	w.Header().Set("Content-Type", docxContentType)
	w.Header().Set("Content-Disposition", attachment(filepath.Base(tpl.Path())))
	w.Header().Set("Content-Length", strconv.Itoa(tpl.Size()))
	w.WriteHeader(http.StatusOK)
	w.Write(tpl.Raw())
}

func (h *Handler) preparePosted(w http.ResponseWriter, r *http.Request) (*bundle.Prepared, bool) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Ungültiger Request-Body", err)
		return nil, false
	}

	plan, err := req.Plan()
	if err != nil {
		h.handleError(w, "Ungültiges Datum", err)
		return nil, false
	}

	prep, err := h.Service.Prepare(r.Context(), plan, true)
	if err != nil {
		h.handleError(w, "Wochennachweise konnten nicht erstellt werden", err)
		return nil, false
	}
	return prep, true
}

func (h *Handler) prepareSession(w http.ResponseWriter, r *http.Request) (*bundle.Prepared, bool) {
	sess, err := h.currentSession(r.Context(), w, r, false)
	if errors.Is(err, generic.ErrSessionNotFound) || (err == nil && sess.Person.Nachname == "") {
		writeError(w, http.StatusBadRequest, "Keine Konfiguration in der Session gefunden. Bitte zuerst die Personendaten speichern.", nil)
		return nil, false
	}
	if err != nil {
		h.handleError(w, "Session konnte nicht geladen werden", err)
		return nil, false
	}
	if len(sess.Zeitraeume) == 0 {
		writeError(w, http.StatusBadRequest, "Keine Zeiträume definiert. Bitte mindestens einen Zeitraum hinzufügen.", nil)
		return nil, false
	}

	prep, err := h.Service.Prepare(r.Context(), bundle.Plan{Person: sess.Person, Zeitraeume: sess.Zeitraeume}, true)
	if err != nil {
		h.handleError(w, "Wochennachweise konnten nicht erstellt werden", err)
		return nil, false
	}
	return prep, true
}

func (h *Handler) writeArchive(w http.ResponseWriter, r *http.Request, prep *bundle.Prepared) {
	archive, err := h.Service.Build(r.Context(), prep)
	if err != nil {
		h.handleError(w, "Wochennachweise konnten nicht erstellt werden", err)
		return
	}

	h.Logger.Info("archive built",
		zap.String("archive", archive.Name),
		zap.Int("documents", len(archive.Result.Documents)),
		zap.Int("bytes", len(archive.Data)))

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", attachment(archive.Name))
	w.Header().Set("Content-Length", strconv.Itoa(len(archive.Data)))
	w.WriteHeader(http.StatusOK)
	w.Write(archive.Data)
}

// =============================================================================
// HOLIDAY ENDPOINTS
// =============================================================================

// GetFeiertage returns the public holidays of a year.
// GET /api/feiertage/{year}?region=NW
func (h *Handler) GetFeiertage(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil || year < report.MinYear || year > report.MaxYear {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Jahr muss zwischen %d und %d liegen", report.MinYear, report.MaxYear), err)
		return
	}

	set := h.Calendar.GetHolidays(r.Context(), year, r.URL.Query().Get("region"))
	writeJSON(w, http.StatusOK, toHolidayListResponse(set))
}

// ClearHolidayCache drops every cached holiday set.
// POST /api/feiertage/cache/clear
func (h *Handler) ClearHolidayCache(w http.ResponseWriter, r *http.Request) {
	if err := h.Calendar.ClearCache(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Cache konnte nicht geleert werden", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "cleared"})
}

// ListHolidays returns the custom holidays of a region.
// GET /api/holidays?region=NW
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	region := r.URL.Query().Get("region")
	if region != "" {
		region = holiday.NormalizeRegion(region)
	}

	holidays, err := h.Holidays.ListHolidays(r.Context(), region)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get holidays", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"holidays": toCustomHolidayDTOs(holidays)})
}

// CreateHoliday adds a custom holiday. Region "" applies everywhere.
// POST /api/holidays
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateHolidayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if req.Date == "" || strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "Date and name are required", nil)
		return
	}

	date, err := generic.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	region := ""
	if req.Region != "" {
		region = holiday.NormalizeRegion(req.Region)
	}

	hol := generic.Holiday{
		ID:        uuid.NewString(),
		Region:    region,
		Date:      date,
		Name:      strings.TrimSpace(req.Name),
		Recurring: req.Recurring,
	}

	if err := h.Holidays.SaveHoliday(ctx, hol); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create holiday", err)
		return
	}
	h.clearHolidayCache(r)

	writeJSON(w, http.StatusCreated, map[string]any{
		"status":  "created",
		"holiday": hol.ID,
	})
}

// DeleteHoliday deletes a custom holiday.
// DELETE /api/holidays/{id}
func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	if err := h.Holidays.DeleteHoliday(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.handleError(w, "Failed to delete holiday", err)
		return
	}
	h.clearHolidayCache(r)

	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}

// Cached sets already contain the old custom holidays.
func (h *Handler) clearHolidayCache(r *http.Request) {
	if err := h.Calendar.ClearCache(r.Context()); err != nil {
		h.Logger.Warn("holiday cache not cleared", zap.Error(err))
	}
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// handleError maps domain errors to status codes. Validation errors carry
// their problem list as details.
func (h *Handler) handleError(w http.ResponseWriter, message string, err error) {
	var verr *generic.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: message, Code: "validation", Details: verr.Problems})
	case generic.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	case generic.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	default:
		h.Logger.Error(message, zap.Error(err))
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

// attachment builds a Content-Disposition value; non-ASCII names are sent
// as RFC 2231 filename*.
func attachment(name string) string {
	return mime.FormatMediaType("attachment", map[string]string{"filename": name})
}
