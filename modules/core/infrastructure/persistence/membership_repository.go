package persistence

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/opdesk-io/opdesk/modules/core/domain/entities/membership"
	"github.com/opdesk-io/opdesk/modules/core/infrastructure/persistence/models"
	"github.com/opdesk-io/opdesk/pkg/composables"
)

const (
	selectMembershipQuery = `
		SELECT
			m.id,
			m.tenant_id,
			m.user_id,
			m.role,
			m.can_respond_to_clients,
			m.created_at
		FROM memberships m`

	insertMembershipQuery = `
		INSERT INTO memberships (id, tenant_id, user_id, role, can_respond_to_clients, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
)

type PgMembershipRepository struct{}

func NewMembershipRepository() membership.Repository {
	return &PgMembershipRepository{}
}

func (r *PgMembershipRepository) GetByTenantAndUser(ctx context.Context, tenantID, userID uuid.UUID) (*membership.Membership, error) {
	memberships, err := r.query(
		ctx,
		selectMembershipQuery+` WHERE m.tenant_id = $1 AND m.user_id = $2`,
		tenantID,
		userID,
	)
	if err != nil {
		return nil, err
	}
	if len(memberships) == 0 {
		return nil, membership.ErrNotFound
	}
	return memberships[0], nil
}

func (r *PgMembershipRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*membership.Membership, error) {
	return r.query(ctx, selectMembershipQuery+` WHERE m.tenant_id = $1 ORDER BY m.created_at`, tenantID)
}

func (r *PgMembershipRepository) Create(ctx context.Context, data *membership.Membership) (*membership.Membership, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(
		ctx,
		insertMembershipQuery,
		data.ID(),
		data.TenantID(),
		data.UserID(),
		string(data.Role()),
		data.CanRespondToClients(),
		data.CreatedAt(),
	); err != nil {
		return nil, errors.Wrap(err, "failed to insert membership")
	}
	return r.GetByTenantAndUser(ctx, data.TenantID(), data.UserID())
}

func (r *PgMembershipRepository) query(ctx context.Context, query string, args ...interface{}) ([]*membership.Membership, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query memberships")
	}
	defer rows.Close()

	memberships := make([]*membership.Membership, 0)
	for rows.Next() {
		var m models.Membership
		if err := rows.Scan(
			&m.ID,
			&m.TenantID,
			&m.UserID,
			&m.Role,
			&m.CanRespondToClients,
			&m.CreatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan membership")
		}
		entity, err := toDomainMembership(&m)
		if err != nil {
			return nil, errors.Wrap(err, "failed to map membership")
		}
		memberships = append(memberships, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate memberships")
	}
	return memberships, nil
}
