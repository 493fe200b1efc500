// Package service holds the booking and admin operations shared by the REST
// and gRPC surfaces. Transports translate the errors declared here.
package service

import (
	"context"
	"errors"

	"appointment-booking-api/internal/model"
	"appointment-booking-api/internal/notify"
)

var (
	ErrNotFound           = errors.New("appointment not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrSignupClosed       = errors.New("admin token required")
	ErrMissingField       = errors.New("username and password required")
)

type AppointmentStore interface {
	CreateAppointment(ctx context.Context, a *model.Appointment) error
	ListAppointments(ctx context.Context) ([]model.Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id string, st model.Status) (*model.Appointment, error)
	DeleteAppointment(ctx context.Context, id string) error
}

type AdminStore interface {
	CreateAdmin(ctx context.Context, a *model.Admin) error
	AdminByUsername(ctx context.Context, username string) (*model.Admin, error)
	CountAdmins(ctx context.Context) (int, error)
	CreateFirstAdmin(ctx context.Context, a *model.Admin) error
}

// Notifier accepts a message and returns without waiting for delivery.
type Notifier interface {
	Notify(m notify.Message)
}

type ctxKey struct{}

// WithAdmin marks ctx as carrying a verified admin identity.
func WithAdmin(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, ctxKey{}, username)
}

// AdminFrom returns the verified admin username, or "".
func AdminFrom(ctx context.Context) string {
	u, _ := ctx.Value(ctxKey{}).(string)
	return u
}
