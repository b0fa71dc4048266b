package services

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/opdesk-io/opdesk/modules/core/domain/access"
	"github.com/opdesk-io/opdesk/modules/core/domain/entities/membership"
	"github.com/opdesk-io/opdesk/modules/core/domain/entities/tenant"
)

// AccessService resolves a user's grant within a tenant. Ownership is read
// off the tenant itself; everything else comes from the membership table.
type AccessService struct {
	memberships membership.Repository
}

func NewAccessService(memberships membership.Repository) *AccessService {
	return &AccessService{memberships: memberships}
}

func (s *AccessService) GrantFor(ctx context.Context, t *tenant.Tenant, userID uuid.UUID) (access.Grant, error) {
	if t.OwnerID() == userID {
		return access.Owner(), nil
	}
	m, err := s.memberships.GetByTenantAndUser(ctx, t.ID(), userID)
	if err != nil {
		if errors.Is(err, membership.ErrNotFound) {
			return access.None(), nil
		}
		return access.None(), err
	}
	return access.Member(m), nil
}

// RequireView gates read access to tenant chat data.
func (s *AccessService) RequireView(ctx context.Context, t *tenant.Tenant, userID uuid.UUID) (access.Grant, error) {
	g, err := s.GrantFor(ctx, t, userID)
	if err != nil {
		return g, err
	}
	if !access.CanView(g) {
		return g, access.ErrForbidden
	}
	return g, nil
}

// RequireOperator gates takeover, release and manager posting.
func (s *AccessService) RequireOperator(ctx context.Context, t *tenant.Tenant, userID uuid.UUID) (access.Grant, error) {
	g, err := s.GrantFor(ctx, t, userID)
	if err != nil {
		return g, err
	}
	if !access.CanOperate(g) {
		return g, access.ErrForbidden
	}
	return g, nil
}
