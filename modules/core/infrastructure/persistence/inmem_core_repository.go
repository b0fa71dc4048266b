package persistence

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/opdesk-io/opdesk/modules/core/domain/entities/membership"
	"github.com/opdesk-io/opdesk/modules/core/domain/entities/tenant"
	"github.com/opdesk-io/opdesk/modules/core/domain/entities/user"
)

// In-memory repositories backing service tests. They hold domain entities
// directly, so there is no row mapping involved, only the same lookup
// semantics the SQL repositories provide.

type InMemTenantRepository struct {
	mu      sync.RWMutex
	tenants map[uuid.UUID]*tenant.Tenant
}

func NewInMemTenantRepository() *InMemTenantRepository {
	return &InMemTenantRepository{
		tenants: make(map[uuid.UUID]*tenant.Tenant),
	}
}

func (r *InMemTenantRepository) GetByID(_ context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tenants[id]
	if !ok {
		return nil, tenant.ErrNotFound
	}
	return t, nil
}

func (r *InMemTenantRepository) GetByKey(_ context.Context, key string) (*tenant.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.tenants {
		if t.Key() == key {
			return t, nil
		}
	}
	return nil, tenant.ErrNotFound
}

func (r *InMemTenantRepository) List(_ context.Context) ([]*tenant.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*tenant.Tenant, 0, len(r.tenants))
	for _, t := range r.tenants {
		out = append(out, t)
	}
	return out, nil
}

func (r *InMemTenantRepository) Create(_ context.Context, t *tenant.Tenant) (*tenant.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tenants[t.ID()] = t
	return t, nil
}

type InMemUserRepository struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*user.User
}

func NewInMemUserRepository() *InMemUserRepository {
	return &InMemUserRepository{
		users: make(map[uuid.UUID]*user.User),
	}
}

func (r *InMemUserRepository) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func (r *InMemUserRepository) GetByAPIToken(_ context.Context, token string) (*user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if token == "" {
		return nil, user.ErrNotFound
	}
	for _, u := range r.users {
		if u.APIToken() == token {
			return u, nil
		}
	}
	return nil, user.ErrNotFound
}

func (r *InMemUserRepository) Create(_ context.Context, u *user.User) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID()] = u
	return u, nil
}

type InMemMembershipRepository struct {
	mu          sync.RWMutex
	memberships map[uuid.UUID]*membership.Membership
}

func NewInMemMembershipRepository() *InMemMembershipRepository {
	return &InMemMembershipRepository{
		memberships: make(map[uuid.UUID]*membership.Membership),
	}
}

func (r *InMemMembershipRepository) GetByTenantAndUser(_ context.Context, tenantID, userID uuid.UUID) (*membership.Membership, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.memberships {
		if m.TenantID() == tenantID && m.UserID() == userID {
			return m, nil
		}
	}
	return nil, membership.ErrNotFound
}

func (r *InMemMembershipRepository) ListByTenant(_ context.Context, tenantID uuid.UUID) ([]*membership.Membership, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*membership.Membership, 0)
	for _, m := range r.memberships {
		if m.TenantID() == tenantID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *InMemMembershipRepository) Create(_ context.Context, m *membership.Membership) (*membership.Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.memberships[m.ID()] = m
	return m, nil
}
