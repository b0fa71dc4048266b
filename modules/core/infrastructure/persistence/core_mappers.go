package persistence

import (
	"github.com/google/uuid"

	"github.com/opdesk-io/opdesk/modules/core/domain/entities/membership"
	"github.com/opdesk-io/opdesk/modules/core/domain/entities/tenant"
	"github.com/opdesk-io/opdesk/modules/core/domain/entities/user"
	"github.com/opdesk-io/opdesk/modules/core/infrastructure/persistence/models"
)

func toDomainTenant(t *models.Tenant) (*tenant.Tenant, error) {
	id, err := uuid.Parse(t.ID)
	if err != nil {
		return nil, err
	}
	ownerID, err := uuid.Parse(t.OwnerID)
	if err != nil {
		return nil, err
	}

	var timeoutMinutes *int
	if t.DefaultTimeoutMinutes.Valid {
		v := int(t.DefaultTimeoutMinutes.Int32)
		timeoutMinutes = &v
	}

	return tenant.New(
		t.Name,
		t.Key,
		tenant.WithID(id),
		tenant.WithWebhookSecret(t.WebhookSecret),
		tenant.WithBotToken(t.BotToken),
		tenant.WithOwnerID(ownerID),
		tenant.WithDefaultTimeoutMinutes(timeoutMinutes),
		tenant.WithCreatedAt(t.CreatedAt),
		tenant.WithUpdatedAt(t.UpdatedAt),
	), nil
}

func toDomainUser(u *models.User) (*user.User, error) {
	id, err := uuid.Parse(u.ID)
	if err != nil {
		return nil, err
	}

	return user.New(
		u.Email,
		user.WithID(id),
		user.WithName(u.Name.String),
		user.WithAPIToken(u.APIToken.String),
		user.WithCreatedAt(u.CreatedAt),
	), nil
}

func toDomainMembership(m *models.Membership) (*membership.Membership, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, err
	}
	tenantID, err := uuid.Parse(m.TenantID)
	if err != nil {
		return nil, err
	}
	userID, err := uuid.Parse(m.UserID)
	if err != nil {
		return nil, err
	}

	return membership.New(
		tenantID,
		userID,
		membership.Role(m.Role),
		membership.WithID(id),
		membership.WithCanRespondToClients(m.CanRespondToClients),
		membership.WithCreatedAt(m.CreatedAt),
	), nil
}
