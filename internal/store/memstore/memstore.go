// Package memstore keeps appointments and admins in process memory.
// Used for local runs (STORE_DRIVER=memory) and tests.
package memstore

import (
	"context"
	"sync"
	"time"

	"appointment-booking-api/internal/model"
	"appointment-booking-api/internal/store"
)

type Store struct {
	mu     sync.RWMutex
	appts  []model.Appointment
	admins map[string]model.Admin
	now    func() time.Time
}

func New() *Store {
	return &Store{admins: make(map[string]model.Admin), now: time.Now}
}

func (s *Store) CreateAppointment(_ context.Context, a *model.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.appts {
		if s.appts[i].ID == a.ID {
			return store.ErrConflict
		}
	}
	a.CreatedAt = s.now().UTC()
	s.appts = append(s.appts, *a)
	return nil
}

func (s *Store) ListAppointments(context.Context) ([]model.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Appointment, len(s.appts))
	copy(out, s.appts)
	return out, nil
}

func (s *Store) UpdateAppointmentStatus(_ context.Context, id string, st model.Status) (*model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.appts {
		if s.appts[i].ID == id {
			s.appts[i].Status = st
			a := s.appts[i]
			return &a, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) DeleteAppointment(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.appts {
		if s.appts[i].ID == id {
			s.appts = append(s.appts[:i], s.appts[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *Store) CreateAdmin(_ context.Context, a *model.Admin) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.admins[a.Username]; ok {
		return store.ErrConflict
	}
	a.CreatedAt = s.now().UTC()
	s.admins[a.Username] = *a
	return nil
}

// CreateFirstAdmin stores the admin only if no admin exists yet.
func (s *Store) CreateFirstAdmin(_ context.Context, a *model.Admin) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.admins) > 0 {
		return store.ErrAdminsExist
	}
	a.CreatedAt = s.now().UTC()
	s.admins[a.Username] = *a
	return nil
}

func (s *Store) AdminByUsername(_ context.Context, username string) (*model.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.admins[username]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &a, nil
}

func (s *Store) CountAdmins(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.admins), nil
}

func (s *Store) Close() {}
