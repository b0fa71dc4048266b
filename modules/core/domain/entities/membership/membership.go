package membership

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/opdesk-io/opdesk/pkg/serrors"
)

var (
	ErrNotFound = serrors.NewError("NOT_FOUND", "membership not found", "")
)

type Role string

const (
	RoleOperator Role = "operator"
	RoleAdmin    Role = "admin"
)

type Repository interface {
	GetByTenantAndUser(ctx context.Context, tenantID, userID uuid.UUID) (*Membership, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*Membership, error)
	Create(ctx context.Context, m *Membership) (*Membership, error)
}

// Membership ties a user to a tenant with a role and the capability flag
// controlling whether they may respond to clients. The tenant owner is a
// column on the tenant, not a membership row.
type Membership struct {
	id                  uuid.UUID
	tenantID            uuid.UUID
	userID              uuid.UUID
	role                Role
	canRespondToClients bool
	createdAt           time.Time
}

type Option func(*Membership)

func WithID(id uuid.UUID) Option {
	return func(m *Membership) {
		m.id = id
	}
}

func WithCanRespondToClients(v bool) Option {
	return func(m *Membership) {
		m.canRespondToClients = v
	}
}

func WithCreatedAt(createdAt time.Time) Option {
	return func(m *Membership) {
		m.createdAt = createdAt
	}
}

func New(tenantID, userID uuid.UUID, role Role, opts ...Option) *Membership {
	m := &Membership{
		id:        uuid.New(),
		tenantID:  tenantID,
		userID:    userID,
		role:      role,
		createdAt: time.Now(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Membership) ID() uuid.UUID {
	return m.id
}

func (m *Membership) TenantID() uuid.UUID {
	return m.tenantID
}

func (m *Membership) UserID() uuid.UUID {
	return m.userID
}

func (m *Membership) Role() Role {
	return m.role
}

func (m *Membership) CanRespondToClients() bool {
	return m.canRespondToClients
}

func (m *Membership) CreatedAt() time.Time {
	return m.createdAt
}
