// Package chatsession models one conversation between an external client and
// a tenant's bot, including the takeover state that routes its messages to a
// human operator instead.
package chatsession

import (
	"time"

	"github.com/google/uuid"
)

// Mode is the closed routing state of a session.
type Mode string

const (
	// ModeBot routes inbound client messages to the automated engine.
	ModeBot Mode = "bot"
	// ModeManager suppresses the engine; a human operator owns the session.
	ModeManager Mode = "manager"
)

// ChatSession is the takeover aggregate. ManagerUserID, TakenOverAt,
// TimeoutMinutes and TakeoverEpoch are set together on takeover and cleared
// together on release; Version increases on every state transition.
type ChatSession struct {
	id             uuid.UUID
	tenantID       uuid.UUID
	externalChatID int64
	mode           Mode
	managerUserID  *uuid.UUID
	takenOverAt    *time.Time
	timeoutMinutes *int
	takeoverEpoch  *uuid.UUID
	version        int64
	createdAt      time.Time
	updatedAt      time.Time
}

type Option func(*ChatSession)

func WithID(id uuid.UUID) Option {
	return func(s *ChatSession) {
		s.id = id
	}
}

func WithMode(mode Mode) Option {
	return func(s *ChatSession) {
		s.mode = mode
	}
}

func WithManagerUserID(id *uuid.UUID) Option {
	return func(s *ChatSession) {
		s.managerUserID = id
	}
}

func WithTakenOverAt(at *time.Time) Option {
	return func(s *ChatSession) {
		s.takenOverAt = at
	}
}

func WithTimeoutMinutes(minutes *int) Option {
	return func(s *ChatSession) {
		s.timeoutMinutes = minutes
	}
}

func WithTakeoverEpoch(epoch *uuid.UUID) Option {
	return func(s *ChatSession) {
		s.takeoverEpoch = epoch
	}
}

func WithVersion(version int64) Option {
	return func(s *ChatSession) {
		s.version = version
	}
}

func WithCreatedAt(createdAt time.Time) Option {
	return func(s *ChatSession) {
		s.createdAt = createdAt
	}
}

func WithUpdatedAt(updatedAt time.Time) Option {
	return func(s *ChatSession) {
		s.updatedAt = updatedAt
	}
}

func New(tenantID uuid.UUID, externalChatID int64, opts ...Option) *ChatSession {
	s := &ChatSession{
		id:             uuid.New(),
		tenantID:       tenantID,
		externalChatID: externalChatID,
		mode:           ModeBot,
		createdAt:      time.Now(),
		updatedAt:      time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *ChatSession) ID() uuid.UUID {
	return s.id
}

func (s *ChatSession) TenantID() uuid.UUID {
	return s.tenantID
}

func (s *ChatSession) ExternalChatID() int64 {
	return s.externalChatID
}

func (s *ChatSession) Mode() Mode {
	return s.mode
}

func (s *ChatSession) ManagerUserID() *uuid.UUID {
	return s.managerUserID
}

func (s *ChatSession) TakenOverAt() *time.Time {
	return s.takenOverAt
}

func (s *ChatSession) TimeoutMinutes() *int {
	return s.timeoutMinutes
}

func (s *ChatSession) TakeoverEpoch() *uuid.UUID {
	return s.takeoverEpoch
}

func (s *ChatSession) Version() int64 {
	return s.version
}

func (s *ChatSession) CreatedAt() time.Time {
	return s.createdAt
}

func (s *ChatSession) UpdatedAt() time.Time {
	return s.updatedAt
}

func (s *ChatSession) IsTakenOver() bool {
	return s.mode == ModeManager
}
