package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"appointment-booking-api/internal/auth"
	"appointment-booking-api/internal/model"
	"appointment-booking-api/internal/store"
)

// compared against when the username is unknown so both failure paths pay for bcrypt
var dummyHash = mustHash("appointment-booking-api")

func mustHash(pw string) string {
	h, err := auth.HashPassword(pw)
	if err != nil {
		panic("hash dummy password: " + err.Error())
	}
	return h
}

type Credentials struct {
	store  AdminStore
	tokens *auth.Issuer
	log    *logrus.Entry
}

func NewCredentials(st AdminStore, tokens *auth.Issuer, log *logrus.Logger) *Credentials {
	return &Credentials{store: st, tokens: tokens, log: log.WithField("component", "credentials")}
}

// Register creates an admin. The first admin may sign up anonymously; after
// that ctx must carry a verified admin.
func (s *Credentials) Register(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return ErrMissingField
	}
	bootstrap := AdminFrom(ctx) == ""
	if bootstrap {
		// cheap early exit; the store re-checks atomically below
		n, err := s.store.CountAdmins(ctx)
		if err != nil {
			return fmt.Errorf("count admins: %w", err)
		}
		if n > 0 {
			return ErrSignupClosed
		}
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	a := &model.Admin{Username: username, PasswordHash: hash}
	if bootstrap {
		err = s.store.CreateFirstAdmin(ctx, a)
	} else {
		err = s.store.CreateAdmin(ctx, a)
	}
	switch {
	case errors.Is(err, store.ErrAdminsExist):
		return ErrSignupClosed
	case errors.Is(err, store.ErrConflict):
		return ErrUsernameTaken
	case err != nil:
		return fmt.Errorf("create admin: %w", err)
	}
	s.log.WithField("username", username).Info("admin registered")
	return nil
}

// Login returns a signed session token. Unknown user and wrong password are
// indistinguishable to the caller.
func (s *Credentials) Login(ctx context.Context, username, password string) (string, error) {
	if username == "" || password == "" {
		return "", ErrMissingField
	}
	a, err := s.store.AdminByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		auth.CheckPassword(dummyHash, password)
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("lookup admin: %w", err)
	}
	if !auth.CheckPassword(a.PasswordHash, password) {
		return "", ErrInvalidCredentials
	}

	tok, err := s.tokens.Issue(a.Username)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return tok, nil
}

// Verify checks signature and expiry and returns the admin username.
func (s *Credentials) Verify(raw string) (string, error) {
	c, err := s.tokens.Parse(raw)
	if err != nil {
		return "", err
	}
	return c.Username, nil
}
