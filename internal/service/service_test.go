package service_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"appointment-booking-api/internal/auth"
	"appointment-booking-api/internal/logging"
	"appointment-booking-api/internal/model"
	"appointment-booking-api/internal/notify"
	"appointment-booking-api/internal/service"
	"appointment-booking-api/internal/store/memstore"
)

type recorder struct {
	mu   sync.Mutex
	msgs []notify.Message
}

func (r *recorder) Notify(m notify.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, m)
}

func (r *recorder) all() []notify.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Message(nil), r.msgs...)
}

func newAppointments(t *testing.T) (*service.Appointments, *recorder) {
	t.Helper()
	rec := &recorder{}
	return service.NewAppointments(memstore.New(), rec, logging.Discard()), rec
}

func book(t *testing.T, svc *service.Appointments) *model.Appointment {
	t.Helper()
	a, err := svc.Create(context.Background(), service.BookingRequest{
		Name: "A", Email: "a@x.com", Service: "Haircut", Date: "2024-01-01", Time: "10:00",
	})
	require.NoError(t, err)
	return a
}

func TestCreatePendingWithUniqueIDs(t *testing.T) {
	svc, rec := newAppointments(t)
	ctx := context.Background()

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		a := book(t, svc)
		assert.Equal(t, model.StatusPending, a.Status)
		assert.NotEmpty(t, a.ID)
		assert.False(t, seen[a.ID], "duplicate id %s", a.ID)
		seen[a.ID] = true
	}

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 20)
	for _, a := range list {
		assert.Equal(t, model.StatusPending, a.Status)
	}
	assert.Len(t, rec.all(), 20, "one confirmation per booking")
}

func TestCreateToleratesEmptyFields(t *testing.T) {
	svc, _ := newAppointments(t)

	a, err := svc.Create(context.Background(), service.BookingRequest{})
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, a.Status)
}

func TestConfirmationEmail(t *testing.T) {
	svc, rec := newAppointments(t)
	book(t, svc)

	msgs := rec.all()
	require.Len(t, msgs, 1)
	assert.Equal(t, "a@x.com", msgs[0].To)
	assert.Equal(t, "Appointment Confirmation", msgs[0].Subject)
	assert.Contains(t, msgs[0].Body, "Hello A,")
	assert.Contains(t, msgs[0].Body, "Haircut on 2024-01-01 at 10:00")
}

func TestUpdateStatusDecisionNotifiesOnce(t *testing.T) {
	for _, status := range []string{"Approved", "Rejected"} {
		t.Run(status, func(t *testing.T) {
			svc, rec := newAppointments(t)
			orig := book(t, svc)

			up, err := svc.UpdateStatus(context.Background(), orig.ID, status)
			require.NoError(t, err)

			want := *orig
			want.Status = model.Status(status)
			assert.Equal(t, want, *up, "only status changes")

			msgs := rec.all()
			require.Len(t, msgs, 2, "confirmation + decision")
			m := msgs[1]
			assert.Equal(t, "Appointment "+status, m.Subject)
			assert.True(t, strings.Contains(m.Body, "Haircut") &&
				strings.Contains(m.Body, "2024-01-01") &&
				strings.Contains(m.Body, "10:00"), m.Body)
			assert.Contains(t, m.Body, "has been "+status)
		})
	}
}

func TestUpdateStatusPendingDoesNotNotify(t *testing.T) {
	svc, rec := newAppointments(t)
	a := book(t, svc)

	_, err := svc.UpdateStatus(context.Background(), a.ID, "Pending")
	require.NoError(t, err)
	assert.Len(t, rec.all(), 1, "only the booking confirmation")
}

func TestUpdateStatusRejectsUnknownValues(t *testing.T) {
	svc, rec := newAppointments(t)
	a := book(t, svc)

	for _, s := range []string{"Done", "approved", ""} {
		_, err := svc.UpdateStatus(context.Background(), a.ID, s)
		assert.ErrorIs(t, err, model.ErrInvalidStatus, s)
	}
	list, _ := svc.List(context.Background())
	assert.Equal(t, model.StatusPending, list[0].Status)
	assert.Len(t, rec.all(), 1)
}

func TestUpdateStatusUnknownID(t *testing.T) {
	svc, rec := newAppointments(t)

	_, err := svc.UpdateStatus(context.Background(), "missing", "Approved")
	assert.ErrorIs(t, err, service.ErrNotFound)
	assert.Empty(t, rec.all())
}

func TestDeleteIsIdempotent(t *testing.T) {
	svc, rec := newAppointments(t)
	ctx := context.Background()
	a := book(t, svc)
	keep := book(t, svc)

	require.NoError(t, svc.Delete(ctx, a.ID))
	require.NoError(t, svc.Delete(ctx, a.ID))
	require.NoError(t, svc.Delete(ctx, "never-existed"))

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, keep.ID, list[0].ID)
	assert.Len(t, rec.all(), 2, "deletion sends nothing")
}

type brokenStore struct{ memstore.Store }

func (*brokenStore) ListAppointments(context.Context) ([]model.Appointment, error) {
	return nil, errors.New("connection refused")
}

func TestListStorageFailure(t *testing.T) {
	svc := service.NewAppointments(&brokenStore{}, &recorder{}, logging.Discard())
	_, err := svc.List(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

// ----- credentials -----

func newCredentials(t *testing.T) (*service.Credentials, *auth.Issuer) {
	t.Helper()
	iss := auth.NewIssuer("test-secret", time.Hour)
	return service.NewCredentials(memstore.New(), iss, logging.Discard()), iss
}

func TestRegisterThenLogin(t *testing.T) {
	creds, iss := newCredentials(t)
	ctx := context.Background()

	require.NoError(t, creds.Register(ctx, "root", "s3cret!"))

	tok, err := creds.Login(ctx, "root", "s3cret!")
	require.NoError(t, err)

	claims, err := iss.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "root", claims.Username)
	assert.Equal(t, time.Hour, claims.ExpiresAt.Sub(claims.IssuedAt.Time))

	user, err := creds.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "root", user)
}

func TestRegisterStoresHashOnly(t *testing.T) {
	st := memstore.New()
	creds := service.NewCredentials(st, auth.NewIssuer("x", 0), logging.Discard())
	require.NoError(t, creds.Register(context.Background(), "root", "plaintext-pw"))

	a, err := st.AdminByUsername(context.Background(), "root")
	require.NoError(t, err)
	assert.NotEqual(t, "plaintext-pw", a.PasswordHash)
	assert.True(t, auth.CheckPassword(a.PasswordHash, "plaintext-pw"))
}

func TestLoginFailuresAreIdentical(t *testing.T) {
	creds, _ := newCredentials(t)
	ctx := context.Background()
	require.NoError(t, creds.Register(ctx, "root", "s3cret!"))

	_, wrongPw := creds.Login(ctx, "root", "nope")
	_, noUser := creds.Login(ctx, "ghost", "s3cret!")
	assert.ErrorIs(t, wrongPw, service.ErrInvalidCredentials)
	assert.ErrorIs(t, noUser, service.ErrInvalidCredentials)
	assert.Equal(t, wrongPw.Error(), noUser.Error())
}

func TestRegisterBootstrapAndUniqueness(t *testing.T) {
	creds, _ := newCredentials(t)
	ctx := context.Background()

	require.NoError(t, creds.Register(ctx, "root", "pw"))

	// anonymous signup is closed once an admin exists
	assert.ErrorIs(t, creds.Register(ctx, "second", "pw"), service.ErrSignupClosed)

	admin := service.WithAdmin(ctx, "root")
	require.NoError(t, creds.Register(admin, "second", "pw"))
	assert.ErrorIs(t, creds.Register(admin, "second", "other"), service.ErrUsernameTaken)
}

func TestRegisterBootstrapConcurrent(t *testing.T) {
	st := memstore.New()
	creds := service.NewCredentials(st, auth.NewIssuer("test-secret", time.Hour), logging.Discard())
	ctx := context.Background()

	const n = 10
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- creds.Register(ctx, fmt.Sprintf("anon%d", i), "pw")
		}(i)
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, service.ErrSignupClosed)
	}
	assert.Equal(t, 1, ok, "exactly one anonymous signup wins")

	count, err := st.CountAdmins(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

// racingStore reports no admins to the early check so Register always
// reaches the atomic insert.
type racingStore struct{ *memstore.Store }

func (racingStore) CountAdmins(context.Context) (int, error) { return 0, nil }

func TestRegisterBootstrapRecheckedOnInsert(t *testing.T) {
	st := racingStore{memstore.New()}
	creds := service.NewCredentials(st, auth.NewIssuer("test-secret", time.Hour), logging.Discard())
	ctx := context.Background()

	require.NoError(t, creds.Register(ctx, "root", "pw"))
	assert.ErrorIs(t, creds.Register(ctx, "late", "pw"), service.ErrSignupClosed)

	_, err := st.AdminByUsername(ctx, "late")
	assert.Error(t, err, "late bootstrap must not be stored")
}

func TestRegisterPresence(t *testing.T) {
	creds, _ := newCredentials(t)
	ctx := context.Background()

	assert.ErrorIs(t, creds.Register(ctx, "", "pw"), service.ErrMissingField)
	assert.ErrorIs(t, creds.Register(ctx, "root", ""), service.ErrMissingField)
	_, err := creds.Login(ctx, "", "")
	assert.ErrorIs(t, err, service.ErrMissingField)
}
