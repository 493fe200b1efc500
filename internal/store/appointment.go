package store

import (
	"context"

	"github.com/google/uuid"

	"appointment-booking-api/internal/model"
)

const appointmentCols = `id, name, email, phone, service, date, time, status, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanAppointment(row scanner, a *model.Appointment) error {
	return row.Scan(&a.ID, &a.Name, &a.Email, &a.Phone, &a.Service,
		&a.Date, &a.Time, &a.Status, &a.CreatedAt)
}

func (s *Store) CreateAppointment(ctx context.Context, a *model.Appointment) error {
	return s.pool.QueryRow(ctx,
		`INSERT INTO appointments (id, name, email, phone, service, date, time, status)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		 RETURNING created_at`,
		a.ID, a.Name, a.Email, a.Phone, a.Service, a.Date, a.Time, a.Status,
	).Scan(&a.CreatedAt)
}

func (s *Store) ListAppointments(ctx context.Context) ([]model.Appointment, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+appointmentCols+` FROM appointments ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Appointment{}
	for rows.Next() {
		var a model.Appointment
		if err := scanAppointment(rows, &a); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) UpdateAppointmentStatus(ctx context.Context, id string, st model.Status) (*model.Appointment, error) {
	// ids are uuids; anything else cannot exist
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	a := &model.Appointment{}
	err := scanAppointment(s.pool.QueryRow(ctx,
		`UPDATE appointments SET status = $1 WHERE id = $2
		 RETURNING `+appointmentCols, st, id), a)
	if err != nil {
		return nil, notFound(err)
	}
	return a, nil
}

func (s *Store) DeleteAppointment(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	return err
}
