package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"appointment-booking-api/internal/model"
	"appointment-booking-api/internal/notify"
	"appointment-booking-api/internal/store"
)

type BookingRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Service string `json:"service"`
	Date    string `json:"date"`
	Time    string `json:"time"`
}

type Appointments struct {
	store    AppointmentStore
	notifier Notifier
	log      *logrus.Entry
	newID    func() (uuid.UUID, error)
}

func NewAppointments(st AppointmentStore, n Notifier, log *logrus.Logger) *Appointments {
	return &Appointments{
		store:    st,
		notifier: n,
		log:      log.WithField("component", "appointments"),
		newID:    uuid.NewV7,
	}
}

// Create stores a Pending appointment and queues the confirmation email.
// No field is required.
func (s *Appointments) Create(ctx context.Context, in BookingRequest) (*model.Appointment, error) {
	id, err := s.newID()
	if err != nil {
		return nil, fmt.Errorf("new id: %w", err)
	}
	a := &model.Appointment{
		ID:      id.String(),
		Name:    in.Name,
		Email:   in.Email,
		Phone:   in.Phone,
		Service: in.Service,
		Date:    in.Date,
		Time:    in.Time,
		Status:  model.StatusPending,
	}
	if err := s.store.CreateAppointment(ctx, a); err != nil {
		return nil, fmt.Errorf("create appointment: %w", err)
	}
	s.log.WithField("id", a.ID).Info("appointment booked")

	s.notifier.Notify(confirmationEmail(a))
	return a, nil
}

func (s *Appointments) List(ctx context.Context) ([]model.Appointment, error) {
	out, err := s.store.ListAppointments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return out, nil
}

// UpdateStatus overwrites only the status. Approved and Rejected queue a
// decision email; Pending does not.
func (s *Appointments) UpdateStatus(ctx context.Context, id, status string) (*model.Appointment, error) {
	st, err := model.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	a, err := s.store.UpdateAppointmentStatus(ctx, id, st)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update appointment: %w", err)
	}
	s.log.WithFields(logrus.Fields{"id": id, "status": st}).Info("appointment status changed")

	if st.Decided() {
		s.notifier.Notify(decisionEmail(a))
	}
	return a, nil
}

// Delete succeeds whether or not id exists.
func (s *Appointments) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteAppointment(ctx, id); err != nil {
		return fmt.Errorf("delete appointment: %w", err)
	}
	s.log.WithField("id", id).Info("appointment deleted")
	return nil
}

func confirmationEmail(a *model.Appointment) notify.Message {
	return notify.Message{
		To:      a.Email,
		Subject: "Appointment Confirmation",
		Body: fmt.Sprintf("Hello %s,\n\nYour appointment for %s on %s at %s is received. We will confirm soon.\n\nThank you!",
			a.Name, a.Service, a.Date, a.Time),
	}
}

func decisionEmail(a *model.Appointment) notify.Message {
	return notify.Message{
		To:      a.Email,
		Subject: fmt.Sprintf("Appointment %s", a.Status),
		Body: fmt.Sprintf("Hello %s,\n\nYour appointment for %s on %s at %s has been %s.\n\nThank you!",
			a.Name, a.Service, a.Date, a.Time, a.Status),
	}
}
