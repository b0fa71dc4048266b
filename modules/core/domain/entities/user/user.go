package user

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/opdesk-io/opdesk/pkg/serrors"
)

var (
	ErrNotFound = serrors.NewError("NOT_FOUND", "user not found", "")
)

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByAPIToken(ctx context.Context, token string) (*User, error)
	Create(ctx context.Context, u *User) (*User, error)
}

// User is an operator identity on the control surface. APIToken
// authenticates it against the operator API.
type User struct {
	id        uuid.UUID
	email     string
	name      string
	apiToken  string
	createdAt time.Time
}

type Option func(*User)

func WithID(id uuid.UUID) Option {
	return func(u *User) {
		u.id = id
	}
}

func WithName(name string) Option {
	return func(u *User) {
		u.name = name
	}
}

func WithAPIToken(token string) Option {
	return func(u *User) {
		u.apiToken = token
	}
}

func WithCreatedAt(createdAt time.Time) Option {
	return func(u *User) {
		u.createdAt = createdAt
	}
}

func New(email string, opts ...Option) *User {
	u := &User{
		id:        uuid.New(),
		email:     email,
		createdAt: time.Now(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

func (u *User) ID() uuid.UUID {
	return u.id
}

func (u *User) Email() string {
	return u.email
}

func (u *User) Name() string {
	return u.name
}

func (u *User) APIToken() string {
	return u.apiToken
}

func (u *User) CreatedAt() time.Time {
	return u.createdAt
}
