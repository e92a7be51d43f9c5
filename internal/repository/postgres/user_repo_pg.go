package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cwrk-planet/kcd-platform/internal/domain"
	"github.com/cwrk-planet/kcd-platform/internal/repository"
	"github.com/cwrk-planet/kcd-platform/internal/repository/queries"

	"github.com/jackc/pgx/v5"
)

type UserRepo struct {
	q querier
}

// NewUserRepo - конструктор от пула (*pgxpool.Pool) или транзакции
func NewUserRepo(q querier) *UserRepo {
	return &UserRepo{q: q}
}

func (r *UserRepo) Create(ctx context.Context, u *domain.User) (domain.UserID, error) {
	var id int64
	err := r.q.QueryRow(
		ctx,
		queries.QueryCreateUser,
		u.Email,
		u.HashedPassword,
		toNullStringPtr(u.FullName),
		u.Role,
		u.IsActive,
		u.IsVerified,
		u.SubscriptionTier,
		toNullStringPtr(u.AvatarURL),
		toNullStringPtr(u.Bio),
		u.CreatedAt,
		u.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return 0, mapPgError(err)
	}

	return domain.UserID(id), nil
}

func (r *UserRepo) GetByID(ctx context.Context, id domain.UserID) (*domain.User, error) {
	return r.getOne(ctx, queries.QueryGetUserByID, int64(id))
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, queries.QueryGetUserByEmail, domain.NormalizeEmail(email))
}

func (r *UserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var one int
	err := r.q.QueryRow(ctx, queries.QueryExistsUserByEmail, domain.NormalizeEmail(email)).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, mapPgError(err)
	}

	return true, nil
}

func (r *UserRepo) TouchLastLogin(ctx context.Context, id domain.UserID, now time.Time) error {
	tag, err := r.q.Exec(ctx, queries.QueryTouchLastLogin, int64(id), now)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *UserRepo) getOne(ctx context.Context, sql string, arg any) (*domain.User, error) {
	var (
		u  domain.User
		id int64
	)
	err := r.q.QueryRow(ctx, sql, arg).Scan(
		&id,
		&u.Email,
		&u.HashedPassword,
		&u.FullName,
		&u.Role,
		&u.IsActive,
		&u.IsVerified,
		&u.SubscriptionTier,
		&u.AvatarURL,
		&u.Bio,
		&u.CreatedAt,
		&u.UpdatedAt,
		&u.LastLogin,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, mapPgError(err)
	}
	u.ID = domain.UserID(id)
	u.Email = strings.TrimSpace(u.Email)

	return &u, nil
}
