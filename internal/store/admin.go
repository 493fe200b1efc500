package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"appointment-booking-api/internal/model"
)

func (s *Store) CreateAdmin(ctx context.Context, a *model.Admin) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO admins (username, password_hash) VALUES ($1,$2)
		 RETURNING created_at`,
		a.Username, a.PasswordHash,
	).Scan(&a.CreatedAt)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

// CreateFirstAdmin inserts the admin only while the admins table is empty. The table
// lock serialises concurrent callers and plain CreateAdmin inserts.
func (s *Store) CreateFirstAdmin(ctx context.Context, a *model.Admin) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `LOCK TABLE admins IN SHARE ROW EXCLUSIVE MODE`); err != nil {
		return err
	}
	err = tx.QueryRow(ctx,
		`INSERT INTO admins (username, password_hash)
		 SELECT $1, $2 WHERE NOT EXISTS (SELECT 1 FROM admins)
		 RETURNING created_at`,
		a.Username, a.PasswordHash,
	).Scan(&a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrAdminsExist
	}
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) AdminByUsername(ctx context.Context, username string) (*model.Admin, error) {
	a := &model.Admin{}
	err := s.pool.QueryRow(ctx,
		`SELECT username, password_hash, created_at FROM admins WHERE username = $1`, username,
	).Scan(&a.Username, &a.PasswordHash, &a.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return a, nil
}

func (s *Store) CountAdmins(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM admins`).Scan(&n)
	return n, err
}
