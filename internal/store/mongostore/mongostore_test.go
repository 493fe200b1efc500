package mongostore_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"appointment-booking-api/internal/model"
	"appointment-booking-api/internal/store"
	"appointment-booking-api/internal/store/mongostore"
)

func setup(t *testing.T) *mongostore.Store {
	t.Helper()
	_ = godotenv.Load("../../../.env")
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}
	st, err := mongostore.Open(context.Background(), uri, "booking_test")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { st.Close(context.Background()) })
	return st
}

func TestMongoAppointmentLifecycle(t *testing.T) {
	st := setup(t)
	ctx := context.Background()

	first := &model.Appointment{ID: uuid.Must(uuid.NewV7()).String(), Name: "first", Status: model.StatusPending}
	second := &model.Appointment{ID: uuid.Must(uuid.NewV7()).String(), Name: "second", Status: model.StatusPending}
	for _, a := range []*model.Appointment{first, second} {
		if err := st.CreateAppointment(ctx, a); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	list, err := st.ListAppointments(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	pos := map[string]int{}
	for i, a := range list {
		pos[a.ID] = i
	}
	if pos[first.ID] > pos[second.ID] {
		t.Error("list is not in insertion order")
	}

	up, err := st.UpdateAppointmentStatus(ctx, first.ID, model.StatusApproved)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if up.Status != model.StatusApproved || up.Name != "first" {
		t.Errorf("unexpected: %+v", up)
	}
	if _, err := st.UpdateAppointmentStatus(ctx, uuid.NewString(), model.StatusApproved); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	for _, a := range []*model.Appointment{first, second} {
		if err := st.DeleteAppointment(ctx, a.ID); err != nil {
			t.Fatalf("delete: %v", err)
		}
	}
}

func TestMongoCreateFirstAdminClosedOnceAdminsExist(t *testing.T) {
	st := setup(t)
	ctx := context.Background()

	if err := st.CreateAdmin(ctx, &model.Admin{Username: "admin-" + uuid.NewString()[:8], PasswordHash: "x"}); err != nil {
		t.Fatalf("create admin: %v", err)
	}
	late := "late-" + uuid.NewString()[:8]
	if err := st.CreateFirstAdmin(ctx, &model.Admin{Username: late, PasswordHash: "y"}); !errors.Is(err, store.ErrAdminsExist) {
		t.Fatalf("expected ErrAdminsExist, got %v", err)
	}
	if _, err := st.AdminByUsername(ctx, late); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("late admin was stored: %v", err)
	}
}

func TestMongoAdminUnique(t *testing.T) {
	st := setup(t)
	ctx := context.Background()

	name := "admin-" + uuid.NewString()[:8]
	if err := st.CreateAdmin(ctx, &model.Admin{Username: name, PasswordHash: "x"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := st.CreateAdmin(ctx, &model.Admin{Username: name, PasswordHash: "y"}); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	a, err := st.AdminByUsername(ctx, name)
	if err != nil || a.PasswordHash != "x" {
		t.Fatalf("lookup: %+v, %v", a, err)
	}
}
