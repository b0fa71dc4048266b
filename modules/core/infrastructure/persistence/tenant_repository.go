package persistence

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/opdesk-io/opdesk/modules/core/domain/entities/tenant"
	"github.com/opdesk-io/opdesk/modules/core/infrastructure/persistence/models"
	"github.com/opdesk-io/opdesk/pkg/composables"
)

const (
	selectTenantQuery = `
		SELECT
			t.id,
			t.name,
			t.key,
			t.webhook_secret,
			t.bot_token,
			t.owner_id,
			t.default_timeout_minutes,
			t.created_at,
			t.updated_at
		FROM tenants t`

	insertTenantQuery = `
		INSERT INTO tenants (
			id,
			name,
			key,
			webhook_secret,
			bot_token,
			owner_id,
			default_timeout_minutes,
			created_at,
			updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
)

type PgTenantRepository struct{}

func NewTenantRepository() tenant.Repository {
	return &PgTenantRepository{}
}

func (r *PgTenantRepository) GetByID(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	tenants, err := r.query(ctx, selectTenantQuery+` WHERE t.id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(tenants) == 0 {
		return nil, tenant.ErrNotFound
	}
	return tenants[0], nil
}

func (r *PgTenantRepository) GetByKey(ctx context.Context, key string) (*tenant.Tenant, error) {
	tenants, err := r.query(ctx, selectTenantQuery+` WHERE t.key = $1`, key)
	if err != nil {
		return nil, err
	}
	if len(tenants) == 0 {
		return nil, tenant.ErrNotFound
	}
	return tenants[0], nil
}

func (r *PgTenantRepository) List(ctx context.Context) ([]*tenant.Tenant, error) {
	return r.query(ctx, selectTenantQuery+` ORDER BY t.created_at`)
}

func (r *PgTenantRepository) Create(ctx context.Context, data *tenant.Tenant) (*tenant.Tenant, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	var timeoutMinutes *int32
	if v := data.DefaultTimeoutMinutes(); v != nil {
		m := int32(*v)
		timeoutMinutes = &m
	}

	if _, err := tx.Exec(
		ctx,
		insertTenantQuery,
		data.ID(),
		data.Name(),
		data.Key(),
		data.WebhookSecret(),
		data.BotToken(),
		data.OwnerID(),
		timeoutMinutes,
		data.CreatedAt(),
		data.UpdatedAt(),
	); err != nil {
		return nil, errors.Wrap(err, "failed to insert tenant")
	}
	return r.GetByID(ctx, data.ID())
}

func (r *PgTenantRepository) query(ctx context.Context, query string, args ...interface{}) ([]*tenant.Tenant, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query tenants")
	}
	defer rows.Close()

	tenants := make([]*tenant.Tenant, 0)
	for rows.Next() {
		var t models.Tenant
		if err := rows.Scan(
			&t.ID,
			&t.Name,
			&t.Key,
			&t.WebhookSecret,
			&t.BotToken,
			&t.OwnerID,
			&t.DefaultTimeoutMinutes,
			&t.CreatedAt,
			&t.UpdatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan tenant")
		}
		entity, err := toDomainTenant(&t)
		if err != nil {
			return nil, errors.Wrap(err, "failed to map tenant")
		}
		tenants = append(tenants, entity)
	}
	if err := rows.Err(); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, errors.Wrap(err, "failed to iterate tenants")
	}
	return tenants, nil
}
