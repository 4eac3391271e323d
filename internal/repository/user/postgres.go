package user

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"storefront-api/internal/db"
	"storefront-api/internal/domain"
	"storefront-api/internal/logging"
)

type postgresRepo struct {
	db     db.DBTX
	logger *zap.Logger
}

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(q db.DBTX, logger *zap.Logger) Repository {
	return &postgresRepo{db: q, logger: logging.OrNop(logger)}
}

func (r *postgresRepo) Create(ctx context.Context, u domain.User) (*domain.User, error) {
	role := u.Role
	if role == "" {
		role = domain.RoleUser
	}
	const q = `
INSERT INTO users (email, password_hash, role)
VALUES ($1, $2, $3)
RETURNING id, email, password_hash, role, created_at, deleted_at
`
	created, err := r.scanUser(r.db.QueryRow(ctx, q, strings.ToLower(u.Email), u.PasswordHash, role))
	if err != nil {
		return nil, err
	}
	r.logger.Info("user repo: created", zap.Int64("user_id", int64(created.ID)), zap.String("role", created.Role))
	return created, nil
}

func (r *postgresRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const q = `
SELECT id, email, password_hash, role, created_at, deleted_at
FROM users
WHERE lower(email) = lower($1) AND deleted_at IS NULL
LIMIT 1
`
	return r.scanUser(r.db.QueryRow(ctx, q, email))
}

func (r *postgresRepo) GetByID(ctx context.Context, id domain.ID) (*domain.User, error) {
	const q = `
SELECT id, email, password_hash, role, created_at, deleted_at
FROM users
WHERE id = $1 AND deleted_at IS NULL
`
	u, err := r.scanUser(r.db.QueryRow(ctx, q, id))
	if err != nil {
		return nil, err
	}

	p, err := scanProfile(r.db.QueryRow(ctx, `
SELECT id, user_id, fullname, COALESCE(phone, ''), address, image
FROM profiles
WHERE user_id = $1
`, id))
	switch {
	case err == nil:
		u.Profile = p
	case !errors.Is(err, pgx.ErrNoRows):
		r.logger.Error("user repo: load profile", zap.Int64("user_id", int64(id)), zap.Error(err))
		return nil, err
	}
	return u, nil
}

func (r *postgresRepo) PhoneTaken(ctx context.Context, phone string, exceptUserID domain.ID) (bool, error) {
	var taken bool
	err := r.db.QueryRow(ctx, `
SELECT EXISTS (SELECT 1 FROM profiles WHERE phone = $1 AND user_id <> $2)
`, phone, exceptUserID).Scan(&taken)
	return taken, err
}

func (r *postgresRepo) UpsertProfile(ctx context.Context, userID domain.ID, in ProfileUpdate) (*domain.Profile, error) {
	const q = `
INSERT INTO profiles (user_id, fullname, phone, address)
VALUES ($1, COALESCE($2, ''), NULLIF($3, ''), COALESCE($4, ''))
ON CONFLICT (user_id) DO UPDATE SET
    fullname = COALESCE($2, profiles.fullname),
    phone = CASE WHEN $3::text IS NULL THEN profiles.phone ELSE NULLIF($3, '') END,
    address = COALESCE($4, profiles.address),
    updated_at = now()
RETURNING id, user_id, fullname, COALESCE(phone, ''), address, image
`
	p, err := scanProfile(r.db.QueryRow(ctx, q, userID, in.FullName, in.Phone, in.Address))
	if err != nil {
		r.logger.Warn("user repo: upsert profile", zap.Int64("user_id", int64(userID)), zap.Error(err))
		return nil, db.MapError(err)
	}
	return p, nil
}

func (r *postgresRepo) scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.DeletedAt)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			r.logger.Warn("user repo: scan", zap.Error(err))
		}
		return nil, db.MapError(err)
	}
	return &u, nil
}

func scanProfile(row pgx.Row) (*domain.Profile, error) {
	var p domain.Profile
	if err := row.Scan(&p.ID, &p.UserID, &p.FullName, &p.Phone, &p.Address, &p.Image); err != nil {
		return nil, err
	}
	return &p, nil
}
