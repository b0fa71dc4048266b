package services

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"

	"github.com/google/uuid"

	"github.com/opdesk-io/opdesk/modules/core/domain/entities/tenant"
	"github.com/opdesk-io/opdesk/pkg/serrors"
)

var (
	ErrBadWebhookSecret = serrors.NewError("UNAUTHORIZED", "invalid webhook secret", "")
)

type TenantService struct {
	repo tenant.Repository
}

func NewTenantService(repo tenant.Repository) *TenantService {
	return &TenantService{repo: repo}
}

func (s *TenantService) GetByID(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	return s.repo.GetByID(ctx, id)
}

// ResolveByKey maps a webhook path key to its tenant. Unknown keys surface as
// tenant.ErrNotFound before any secret comparison happens.
func (s *TenantService) ResolveByKey(ctx context.Context, key string) (*tenant.Tenant, error) {
	return s.repo.GetByKey(ctx, key)
}

// VerifySecret compares the presented webhook secret against the tenant's in
// constant time. Hashing both sides first keeps the comparison length
// independent of the secrets themselves.
func (s *TenantService) VerifySecret(t *tenant.Tenant, presented string) error {
	want := sha256.Sum256([]byte(t.WebhookSecret()))
	got := sha256.Sum256([]byte(presented))
	if subtle.ConstantTimeCompare(want[:], got[:]) != 1 {
		return ErrBadWebhookSecret
	}
	return nil
}

func (s *TenantService) Create(ctx context.Context, t *tenant.Tenant) (*tenant.Tenant, error) {
	return s.repo.Create(ctx, t)
}

func (s *TenantService) List(ctx context.Context) ([]*tenant.Tenant, error) {
	return s.repo.List(ctx)
}
