package postgres

import (
	"context"
	"strings"

	"github.com/polimarket/market-service/internal/domain"
	"github.com/polimarket/market-service/internal/postgres/queries"
	"github.com/polimarket/market-service/internal/repository"

	"github.com/jackc/pgx/v5"
)

type UserRepo struct {
	q querier
}

func NewUserRepo(q querier) *UserRepo {
	return &UserRepo{q: q}
}

// NewUserRepoFromTx binds the repository to an open transaction.
func NewUserRepoFromTx(tx pgx.Tx) *UserRepo {
	return &UserRepo{q: tx}
}

func (r *UserRepo) Create(ctx context.Context, u *domain.User) (int64, error) {
	var id int64
	err := r.q.QueryRow(
		ctx,
		queries.QueryCreateUser,
		strings.TrimSpace(u.Name),
		u.Email,
		u.PasswordHash,
		nullIfBlank(u.ProfileImage),
		u.IsDelivery,
		u.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, mapPgError(err)
	}

	return id, nil
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.getOne(ctx, queries.QueryGetUserByID, id)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, queries.QueryGetUserByEmail, strings.TrimSpace(email))
}

func (r *UserRepo) List(ctx context.Context) ([]domain.User, error) {
	rows, err := r.q.Query(ctx, queries.QueryListUsers)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	out := make([]domain.User, 0, 16)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}

	return out, rows.Err()
}

func (r *UserRepo) SetDelivery(ctx context.Context, id int64, isDelivery bool) error {
	tag, err := r.q.Exec(ctx, queries.QuerySetUserDelivery, id, isDelivery)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *UserRepo) getOne(ctx context.Context, sql string, arg any) (*domain.User, error) {
	u, err := scanUser(r.q.QueryRow(ctx, sql, arg))
	if err != nil {
		return nil, mapPgError(err)
	}

	return u, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.ProfileImage,
		&u.IsDelivery,
		&u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &u, nil
}
