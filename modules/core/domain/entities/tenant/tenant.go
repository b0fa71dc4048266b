package tenant

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/opdesk-io/opdesk/pkg/serrors"
)

var (
	ErrNotFound = serrors.NewError("NOT_FOUND", "tenant not found", "")
)

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
	GetByKey(ctx context.Context, key string) (*Tenant, error)
	Create(ctx context.Context, t *Tenant) (*Tenant, error)
	List(ctx context.Context) ([]*Tenant, error)
}

// Tenant is an isolated customer account. Key routes inbound webhooks,
// WebhookSecret authenticates them and BotToken is the tenant's own send
// credential on the messaging transport — there is no shared default.
type Tenant struct {
	id                    uuid.UUID
	name                  string
	key                   string
	webhookSecret         string
	botToken              string
	ownerID               uuid.UUID
	defaultTimeoutMinutes *int
	createdAt             time.Time
	updatedAt             time.Time
}

type Option func(*Tenant)

func WithID(id uuid.UUID) Option {
	return func(t *Tenant) {
		t.id = id
	}
}

func WithWebhookSecret(secret string) Option {
	return func(t *Tenant) {
		t.webhookSecret = secret
	}
}

func WithBotToken(token string) Option {
	return func(t *Tenant) {
		t.botToken = token
	}
}

func WithOwnerID(ownerID uuid.UUID) Option {
	return func(t *Tenant) {
		t.ownerID = ownerID
	}
}

func WithDefaultTimeoutMinutes(minutes *int) Option {
	return func(t *Tenant) {
		t.defaultTimeoutMinutes = minutes
	}
}

func WithCreatedAt(createdAt time.Time) Option {
	return func(t *Tenant) {
		t.createdAt = createdAt
	}
}

func WithUpdatedAt(updatedAt time.Time) Option {
	return func(t *Tenant) {
		t.updatedAt = updatedAt
	}
}

func New(name, key string, opts ...Option) *Tenant {
	t := &Tenant{
		id:        uuid.New(),
		name:      name,
		key:       key,
		createdAt: time.Now(),
		updatedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tenant) ID() uuid.UUID {
	return t.id
}

func (t *Tenant) Name() string {
	return t.name
}

func (t *Tenant) Key() string {
	return t.key
}

func (t *Tenant) WebhookSecret() string {
	return t.webhookSecret
}

func (t *Tenant) BotToken() string {
	return t.botToken
}

func (t *Tenant) OwnerID() uuid.UUID {
	return t.ownerID
}

func (t *Tenant) DefaultTimeoutMinutes() *int {
	return t.defaultTimeoutMinutes
}

func (t *Tenant) CreatedAt() time.Time {
	return t.createdAt
}

func (t *Tenant) UpdatedAt() time.Time {
	return t.updatedAt
}
