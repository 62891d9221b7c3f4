/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Persists form sessions and custom holidays so a server restart does not
  lose what a trainee already entered.

INTERFACES IMPLEMENTED:
  generic.SessionStore: Session lifecycle, person data, Zeitraeume
  generic.HolidayStore: Custom non-working days per region

KEY TABLES:
  sessions:   One row per browser session (person data inline)
  zeitraeume: Ranges of a session, deleted with it (ON DELETE CASCADE)
  holidays:   Custom holidays, region '' = everywhere

IDLE TIMEOUT:
  Every read or write of a session refreshes updated_at. A session idle
  longer than the configured timeout is deleted on its next access and
  reported as generic.ErrSessionNotFound. PurgeExpired removes the rest.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. ":memory:" databases are limited to
  one connection, otherwise every connection would see its own database.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time

MIGRATION:
  Versioned SQL files in migrations/ are embedded and applied on New()
  with golang-migrate.

SEE ALSO:
  - generic/store.go: Interface definitions
  - generic/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/warp/wochennachweis/generic"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	dateLayout      = "2006-01-02"
	timestampLayout = "2006-01-02 15:04:05.000000"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db          *sql.DB
	mu          sync.RWMutex
	idleTimeout time.Duration
	now         func() time.Time
	logger      *zap.Logger
}

type Option func(*Store)

// WithIdleTimeout expires sessions idle longer than d. Zero disables expiry.
func WithIdleTimeout(d time.Duration) Option { return func(s *Store) { s.idleTimeout = d } }

func WithLogger(l *zap.Logger) Option { return func(s *Store) { s.logger = l } }

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db, now: time.Now, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(store)
	}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SetClock replaces the time source. Tests only.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) migrate() error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	driver, err := migratesqlite.WithInstance(s.db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}

	// m.Close would close s.db as well
	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, dirty, _ := m.Version()
	if dirty {
		s.logger.Warn("database migration is dirty", zap.Uint("version", version))
	} else {
		s.logger.Debug("database migrated", zap.Uint("version", version))
	}
	return nil
}

// =============================================================================
// SESSION STORE IMPLEMENTATION
// =============================================================================

func (s *Store) CreateSession(ctx context.Context) (*generic.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	sess := &generic.Session{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, created_at, updated_at) VALUES (?, ?, ?)`,
		sess.ID, formatTimestamp(now), formatTimestamp(now))
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return sess, nil
}

func (s *Store) GetSession(ctx context.Context, id string) (*generic.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.liveLocked(ctx, id)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT kategorie, start_date, end_date, beschreibung
		FROM zeitraeume
		WHERE session_id = ?
		ORDER BY start_date ASC, id ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("load zeitraeume: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var z generic.Zeitraum
		var kategorie, start, end string
		if err := rows.Scan(&kategorie, &start, &end, &z.Beschreibung); err != nil {
			return nil, err
		}
		z.Kategorie = generic.Category(kategorie)
		z.Start = parseDay(start)
		z.End = parseDay(end)
		sess.Zeitraeume = append(sess.Zeitraeume, z)
	}
	return sess, rows.Err()
}

func (s *Store) SavePerson(ctx context.Context, id string, p generic.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.liveLocked(ctx, id); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		UPDATE sessions
		SET nachname = ?, vorname = ?, klasse = ?, region = ?, start_date = ?, end_date = ?
		WHERE id = ?
	`, p.Nachname, p.Vorname, p.Klasse, p.Region, formatDay(p.Start), formatDay(p.End), id)
	return err
}

func (s *Store) AddZeitraum(ctx context.Context, id string, z generic.Zeitraum) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.liveLocked(ctx, id); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO zeitraeume (session_id, kategorie, start_date, end_date, beschreibung)
		VALUES (?, ?, ?, ?, ?)
	`, id, string(z.Kategorie), formatDay(z.Start), formatDay(z.End), z.Beschreibung)
	return err
}

func (s *Store) DeleteZeitraum(ctx context.Context, id string, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.liveLocked(ctx, id); err != nil {
		return err
	}
	if index < 0 {
		return generic.ErrZeitraumIndex
	}

	var rowID int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM zeitraeume
		WHERE session_id = ?
		ORDER BY start_date ASC, id ASC
		LIMIT 1 OFFSET ?
	`, id, index).Scan(&rowID)
	if errors.Is(err, sql.ErrNoRows) {
		return generic.ErrZeitraumIndex
	}
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `DELETE FROM zeitraeume WHERE id = ?`, rowID)
	return err
}

func (s *Store) ClearSession(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	return err
}

func (s *Store) PurgeExpired(ctx context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE updated_at < ?`, formatTimestamp(cutoff))
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// liveLocked loads the session row and refreshes its idle timer.
// Zeitraeume are not loaded.
func (s *Store) liveLocked(ctx context.Context, id string) (*generic.Session, error) {
	sess := &generic.Session{ID: id}
	var start, end, created, updated string

	err := s.db.QueryRowContext(ctx, `
		SELECT nachname, vorname, klasse, region, start_date, end_date, created_at, updated_at
		FROM sessions WHERE id = ?
	`, id).Scan(&sess.Person.Nachname, &sess.Person.Vorname, &sess.Person.Klasse, &sess.Person.Region,
		&start, &end, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, generic.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	sess.Person.Start = parseDay(start)
	sess.Person.End = parseDay(end)
	sess.CreatedAt = parseTimestamp(created)
	sess.UpdatedAt = parseTimestamp(updated)

	now := s.now().UTC()
	if s.idleTimeout > 0 && now.Sub(sess.UpdatedAt) > s.idleTimeout {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
			return nil, err
		}
		s.logger.Debug("session expired", zap.String("session_id", id))
		return nil, generic.ErrSessionNotFound
	}

	if _, err := s.db.ExecContext(ctx, `UPDATE sessions SET updated_at = ? WHERE id = ?`, formatTimestamp(now), id); err != nil {
		return nil, err
	}
	sess.UpdatedAt = now
	return sess, nil
}

// =============================================================================
// HOLIDAY STORE IMPLEMENTATION
// =============================================================================

// SaveHoliday inserts or replaces a holiday by ID.
func (s *Store) SaveHoliday(ctx context.Context, h generic.Holiday) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if h.ID == "" {
		h.ID = uuid.NewString()
	}

	query := `
		INSERT INTO holidays (id, region, date, name, recurring, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			region = excluded.region,
			date = excluded.date,
			name = excluded.name,
			recurring = excluded.recurring
	`

	_, err := s.db.ExecContext(ctx, query,
		h.ID,
		h.Region,
		formatDay(h.Date),
		h.Name,
		h.Recurring,
		formatTimestamp(s.now()),
	)
	return err
}

// DeleteHoliday deletes a holiday by ID.
func (s *Store) DeleteHoliday(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM holidays WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return generic.ErrHolidayNotFound
	}
	return nil
}

// ListHolidays returns the holidays of region and the global ones (for admin UI).
func (s *Store) ListHolidays(ctx context.Context, region string) ([]generic.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryHolidays(ctx, `
		SELECT id, region, date, name, recurring
		FROM holidays
		WHERE region = ? OR region = ''
		ORDER BY date ASC, id ASC
	`, region)
}

// HolidaysForYear returns the holidays of region in year, recurring ones
// moved onto that year.
func (s *Store) HolidaysForYear(ctx context.Context, year int, region string) ([]generic.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	holidays, err := s.queryHolidays(ctx, `
		SELECT id, region, date, name, recurring
		FROM holidays
		WHERE (region = ? OR region = '')
		  AND (recurring = 1 OR substr(date, 1, 4) = ?)
		ORDER BY date ASC, id ASC
	`, region, strconv.Itoa(year))
	if err != nil {
		return nil, err
	}

	holidays = generic.ProjectHolidays(holidays, year)
	sort.SliceStable(holidays, func(i, j int) bool {
		return holidays[i].Date.Before(holidays[j].Date)
	})
	return holidays, nil
}

func (s *Store) queryHolidays(ctx context.Context, query string, args ...any) ([]generic.Holiday, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holidays []generic.Holiday
	for rows.Next() {
		var h generic.Holiday
		var dateStr string
		if err := rows.Scan(&h.ID, &h.Region, &dateStr, &h.Name, &h.Recurring); err != nil {
			return nil, err
		}
		h.Date = parseDay(dateStr)
		holidays = append(holidays, h)
	}

	return holidays, rows.Err()
}

// =============================================================================
// ENCODING
// =============================================================================

func formatDay(tp generic.TimePoint) string {
	if tp.IsZero() {
		return ""
	}
	return tp.Time.Format(dateLayout)
}

func parseDay(s string) generic.TimePoint {
	if s == "" {
		return generic.TimePoint{}
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return generic.TimePoint{}
	}
	return generic.DateOf(t)
}

// Fixed-width UTC timestamps compare correctly as strings.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTimestamp(s string) time.Time {
	t, _ := time.Parse(timestampLayout, s)
	return t
}
