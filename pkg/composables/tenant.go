package composables

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/opdesk-io/opdesk/pkg/constants"
)

var (
	ErrNoTenant = errors.New("no tenant found in context")
	ErrNoUser   = errors.New("no user found in context")
)

// Tenant is the request-scoped tenant identity established after webhook
// authentication or operator authorization. It is carried on the request
// context only, never on a process-wide value, so it cannot leak into an
// unrelated request handled by a reused worker.
type Tenant struct {
	ID   uuid.UUID
	Key  string
	Name string
}

func WithTenant(ctx context.Context, t *Tenant) context.Context {
	return context.WithValue(ctx, constants.TenantKey, t)
}

func UseTenant(ctx context.Context) (*Tenant, error) {
	t, ok := ctx.Value(constants.TenantKey).(*Tenant)
	if !ok || t == nil {
		return nil, ErrNoTenant
	}
	return t, nil
}

func UseTenantID(ctx context.Context) (uuid.UUID, error) {
	t, err := UseTenant(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	return t.ID, nil
}

// WithUserID attaches the authenticated operator to the context.
func WithUserID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, constants.UserIDKey, id)
}

func UseUserID(ctx context.Context) (uuid.UUID, error) {
	id, ok := ctx.Value(constants.UserIDKey).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, ErrNoUser
	}
	return id, nil
}
