package persistence

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/opdesk-io/opdesk/modules/core/domain/entities/user"
	"github.com/opdesk-io/opdesk/modules/core/infrastructure/persistence/models"
	"github.com/opdesk-io/opdesk/pkg/composables"
)

const (
	selectUserQuery = `
		SELECT
			u.id,
			u.email,
			u.name,
			u.api_token,
			u.created_at
		FROM users u`

	insertUserQuery = `
		INSERT INTO users (id, email, name, api_token, created_at)
		VALUES ($1, $2, $3, $4, $5)`
)

type PgUserRepository struct{}

func NewUserRepository() user.Repository {
	return &PgUserRepository{}
}

func (r *PgUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	users, err := r.query(ctx, selectUserQuery+` WHERE u.id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, user.ErrNotFound
	}
	return users[0], nil
}

func (r *PgUserRepository) GetByAPIToken(ctx context.Context, token string) (*user.User, error) {
	users, err := r.query(ctx, selectUserQuery+` WHERE u.api_token = $1`, token)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, user.ErrNotFound
	}
	return users[0], nil
}

func (r *PgUserRepository) Create(ctx context.Context, data *user.User) (*user.User, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(
		ctx,
		insertUserQuery,
		data.ID(),
		data.Email(),
		data.Name(),
		data.APIToken(),
		data.CreatedAt(),
	); err != nil {
		return nil, errors.Wrap(err, "failed to insert user")
	}
	return r.GetByID(ctx, data.ID())
}

func (r *PgUserRepository) query(ctx context.Context, query string, args ...interface{}) ([]*user.User, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query users")
	}
	defer rows.Close()

	users := make([]*user.User, 0)
	for rows.Next() {
		var u models.User
		if err := rows.Scan(
			&u.ID,
			&u.Email,
			&u.Name,
			&u.APIToken,
			&u.CreatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan user")
		}
		entity, err := toDomainUser(&u)
		if err != nil {
			return nil, errors.Wrap(err, "failed to map user")
		}
		users = append(users, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate users")
	}
	return users, nil
}
