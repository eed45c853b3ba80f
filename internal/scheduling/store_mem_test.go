package scheduling

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memStore implements every store interface in memory, including the unique
// index over non-cancelled slot keys, so service-level races can be tested
// without Postgres.
type memStore struct {
	mu           sync.Mutex
	windows      []AvailabilityWindow
	exceptions   map[uuid.UUID]ScheduleException
	holidays     []Holiday
	appointments map[uuid.UUID]Appointment

	failWindows      error // injected read errors
	failExceptions   error
	failAppointments error
}

func newMemStore() *memStore {
	return &memStore{
		exceptions:   make(map[uuid.UUID]ScheduleException),
		appointments: make(map[uuid.UUID]Appointment),
	}
}

func (m *memStore) WindowsForWeekday(_ context.Context, clinicID, practitionerID uuid.UUID, weekday time.Weekday) ([]AvailabilityWindow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWindows != nil {
		return nil, m.failWindows
	}
	var result []AvailabilityWindow
	for _, w := range m.windows {
		if w.ClinicID == clinicID && w.PractitionerID == practitionerID && w.Weekday == weekday {
			result = append(result, w)
		}
	}
	return result, nil
}

func (m *memStore) HasAnyWindows(_ context.Context, clinicID, practitionerID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWindows != nil {
		return false, m.failWindows
	}
	for _, w := range m.windows {
		if w.ClinicID == clinicID && w.PractitionerID == practitionerID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) CreateWindow(_ context.Context, w AvailabilityWindow) (*AvailabilityWindow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	m.windows = append(m.windows, w)
	return &w, nil
}

func (m *memStore) ExceptionsInRange(_ context.Context, clinicID uuid.UUID, from, to string) ([]ScheduleException, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failExceptions != nil {
		return nil, m.failExceptions
	}
	var result []ScheduleException
	for _, e := range m.exceptions {
		if e.ClinicID == clinicID && e.Date >= from && e.Date <= to {
			result = append(result, e)
		}
	}
	return result, nil
}

func (m *memStore) CreateException(_ context.Context, e ScheduleException) (*ScheduleException, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	e.CreatedAt = time.Now()
	m.exceptions[e.ID] = e
	return &e, nil
}

func (m *memStore) DeleteException(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.exceptions[id]; !ok {
		return ErrExceptionNotFound
	}
	delete(m.exceptions, id)
	return nil
}

func (m *memStore) HolidaysInRange(_ context.Context, clinicID uuid.UUID, from, to string) ([]Holiday, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failExceptions != nil {
		return nil, m.failExceptions
	}
	var result []Holiday
	for _, h := range m.holidays {
		if h.ClinicID != nil && *h.ClinicID != clinicID {
			continue
		}
		if h.Date >= from && h.Date <= to {
			result = append(result, h)
		}
	}
	return result, nil
}

func (m *memStore) ImportHolidays(_ context.Context, hs []Holiday) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inserted := 0
	for _, h := range hs {
		exists := false
		for _, have := range m.holidays {
			if have.Date == h.Date && sameScope(have.ClinicID, h.ClinicID) {
				exists = true
				break
			}
		}
		if exists {
			continue
		}
		if h.ID == uuid.Nil {
			h.ID = uuid.New()
		}
		m.holidays = append(m.holidays, h)
		inserted++
	}
	return inserted, nil
}

func sameScope(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (m *memStore) GetAppointment(_ context.Context, id uuid.UUID) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	return &a, nil
}

func (m *memStore) BlockAppointments(_ context.Context, clinicID, practitionerID uuid.UUID, date, startTime string) ([]Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAppointments != nil {
		return nil, m.failAppointments
	}
	var result []Appointment
	for _, a := range m.appointments {
		if a.Status == StatusCancelled {
			continue
		}
		if a.ClinicID == clinicID && a.PractitionerID == practitionerID && a.Date == date && a.StartTime == startTime {
			result = append(result, a)
		}
	}
	return result, nil
}

func (m *memStore) DayAppointments(_ context.Context, clinicID, practitionerID uuid.UUID, date string) ([]Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []Appointment
	for _, a := range m.appointments {
		if a.Status == StatusCancelled {
			continue
		}
		if a.ClinicID == clinicID && a.PractitionerID == practitionerID && a.Date == date {
			result = append(result, a)
		}
	}
	return result, nil
}

func (m *memStore) CreateAppointment(_ context.Context, a Appointment) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.slotOccupiedLocked(a.SlotKey, a.ID) {
		return nil, ErrSlotTakenConcurrently
	}
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	m.appointments[a.ID] = a
	return &a, nil
}

func (m *memStore) MoveAppointment(_ context.Context, id uuid.UUID, key SlotKey) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	if a.Status != StatusScheduled {
		return nil, ErrInvalidStatusTransition
	}
	if m.slotOccupiedLocked(key, id) {
		return nil, ErrSlotTakenConcurrently
	}
	a.SlotKey = key
	a.UpdatedAt = time.Now()
	m.appointments[id] = a
	return &a, nil
}

func (m *memStore) UpdateAppointmentStatus(_ context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	if a.Status != from {
		return nil, ErrInvalidStatusTransition
	}
	a.Status = to
	a.UpdatedAt = time.Now()
	m.appointments[id] = a
	return &a, nil
}

func (m *memStore) MarkNoShowsBefore(_ context.Context, date string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAppointments != nil {
		return 0, m.failAppointments
	}
	var n int64
	for id, a := range m.appointments {
		if a.Status == StatusScheduled && a.Date < date {
			a.Status = StatusNoShow
			m.appointments[id] = a
			n++
		}
	}
	return n, nil
}

func (m *memStore) slotOccupiedLocked(key SlotKey, excludeID uuid.UUID) bool {
	for _, a := range m.appointments {
		if a.ID == excludeID || a.Status == StatusCancelled {
			continue
		}
		if a.SlotKey == key {
			return true
		}
	}
	return false
}

var errStoreDown = errors.New("store unavailable")
