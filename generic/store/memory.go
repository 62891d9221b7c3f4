// Package store provides in-memory Store implementations.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/warp/wochennachweis/generic"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu          sync.RWMutex
	sessions    map[string]*generic.Session
	holidays    map[string]generic.Holiday
	idleTimeout time.Duration
	now         func() time.Time
}

func NewMemory(idleTimeout time.Duration) *Memory {
	return &Memory{
		sessions:    make(map[string]*generic.Session),
		holidays:    make(map[string]generic.Holiday),
		idleTimeout: idleTimeout,
		now:         time.Now,
	}
}

// SetClock replaces the time source. Tests only.
func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

func (m *Memory) CreateSession(_ context.Context) (*generic.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	s := &generic.Session{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now}
	m.sessions[s.ID] = s
	return copySession(s), nil
}

func (m *Memory) GetSession(_ context.Context, id string) (*generic.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.liveLocked(id)
	if err != nil {
		return nil, err
	}
	return copySession(s), nil
}

func (m *Memory) SavePerson(_ context.Context, id string, p generic.Person) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.liveLocked(id)
	if err != nil {
		return err
	}
	s.Person = p
	return nil
}

func (m *Memory) AddZeitraum(_ context.Context, id string, z generic.Zeitraum) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.liveLocked(id)
	if err != nil {
		return err
	}
	s.Zeitraeume = generic.SortZeitraeume(append(s.Zeitraeume, z))
	return nil
}

func (m *Memory) DeleteZeitraum(_ context.Context, id string, index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.liveLocked(id)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(s.Zeitraeume) {
		return generic.ErrZeitraumIndex
	}

	// Replace the slice wholesale so earlier copies stay intact
	next := make([]generic.Zeitraum, 0, len(s.Zeitraeume)-1)
	next = append(next, s.Zeitraeume[:index]...)
	next = append(next, s.Zeitraeume[index+1:]...)
	s.Zeitraeume = next
	return nil
}

func (m *Memory) ClearSession(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, id)
	return nil
}

func (m *Memory) PurgeExpired(_ context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	purged := 0
	for id, s := range m.sessions {
		if s.UpdatedAt.Before(cutoff) {
			delete(m.sessions, id)
			purged++
		}
	}
	return purged, nil
}

// liveLocked returns the session and refreshes its idle timer.
func (m *Memory) liveLocked(id string) (*generic.Session, error) {
	s, ok := m.sessions[id]
	if !ok {
		return nil, generic.ErrSessionNotFound
	}
	now := m.now()
	if m.idleTimeout > 0 && now.Sub(s.UpdatedAt) > m.idleTimeout {
		delete(m.sessions, id)
		return nil, generic.ErrSessionNotFound
	}
	s.UpdatedAt = now
	return s, nil
}

func copySession(s *generic.Session) *generic.Session {
	c := *s
	c.Zeitraeume = append([]generic.Zeitraum(nil), s.Zeitraeume...)
	return &c
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func (m *Memory) SaveHoliday(_ context.Context, h generic.Holiday) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	m.holidays[h.ID] = h
	return nil
}

func (m *Memory) DeleteHoliday(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.holidays[id]; !ok {
		return generic.ErrHolidayNotFound
	}
	delete(m.holidays, id)
	return nil
}

func (m *Memory) ListHolidays(_ context.Context, region string) ([]generic.Holiday, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []generic.Holiday
	for _, h := range m.holidays {
		if h.Region == "" || h.Region == region {
			result = append(result, h)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})
	return result, nil
}

func (m *Memory) HolidaysForYear(ctx context.Context, year int, region string) ([]generic.Holiday, error) {
	list, err := m.ListHolidays(ctx, region)
	if err != nil {
		return nil, err
	}
	return generic.ProjectHolidays(list, year), nil
}
