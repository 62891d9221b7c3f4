/*
errors.go - Centralized error types for the report generator

PURPOSE:
  All error types in one place for consistency and discoverability.
  Packages wrap these errors with additional context.

ERROR CATEGORIES:
  1. Validation errors - Bad input rejected at the boundary
  2. Template errors - Missing or unreadable .docx template
  3. Store errors - Unknown sessions, out-of-range indexes

USAGE:
  if errors.Is(err, generic.ErrTemplateNotFound) {
      // 404 with the attempted path
  }

SEE ALSO:
  - report/validate.go: Builds ValidationError
  - docx/template.go: Builds TemplateError
  - api/handlers.go: Maps errors to HTTP status codes
*/
package generic

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidPeriod is returned when a period is malformed (end before start).
	ErrInvalidPeriod = errors.New("invalid period: end before start")

	// ErrInvalidDate is returned when a date string cannot be parsed.
	ErrInvalidDate = errors.New("invalid date")

	// ErrValidation wraps every input validation failure.
	ErrValidation = errors.New("validation failed")

	// ErrNoWeeks is returned when a plan produces no report weeks at all.
	ErrNoWeeks = errors.New("no report weeks in the given ranges")

	// ErrSessionNotFound is returned for unknown or expired sessions.
	ErrSessionNotFound = errors.New("session not found")

	// ErrZeitraumIndex is returned when deleting a range index that does not exist.
	ErrZeitraumIndex = errors.New("zeitraum index out of range")

	// ErrHolidayNotFound is returned when deleting an unknown custom holiday.
	ErrHolidayNotFound = errors.New("holiday not found")

	// ErrTemplateNotFound is returned when the template file does not exist.
	ErrTemplateNotFound = errors.New("template not found")

	// ErrTemplateCorrupt is returned when the template is not a usable .docx package.
	ErrTemplateCorrupt = errors.New("template corrupt")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError collects every problem found in one input.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// TemplateError names the template path that could not be used.
type TemplateError struct {
	Path string
	Err  error
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("%v: %s", e.Err, e.Path)
}

func (e *TemplateError) Unwrap() error {
	return e.Err
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrNoWeeks) ||
		errors.Is(err, ErrZeitraumIndex)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrHolidayNotFound) ||
		errors.Is(err, ErrTemplateNotFound)
}
