package chatsession

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/opdesk-io/opdesk/pkg/serrors"
)

var (
	ErrEmptyMessage = serrors.NewError("VALIDATION_EMPTY_MESSAGE", "message body must not be empty", "")
)

// Sender identifies who produced a transcript entry.
type Sender string

const (
	SenderClient  Sender = "client"
	SenderBot     Sender = "bot"
	SenderManager Sender = "manager"
	// SenderSystem marks platform-generated notices, e.g. takeover banners.
	SenderSystem Sender = "system"
)

type Message struct {
	id        uuid.UUID
	sessionID uuid.UUID
	sender    Sender
	body      string
	createdAt time.Time
}

type MessageOption func(*Message)

func WithMessageID(id uuid.UUID) MessageOption {
	return func(m *Message) {
		m.id = id
	}
}

func WithMessageCreatedAt(createdAt time.Time) MessageOption {
	return func(m *Message) {
		m.createdAt = createdAt
	}
}

// NewMessage validates the body: whitespace-only messages are rejected so
// empty operator sends never reach the client transport.
func NewMessage(sessionID uuid.UUID, sender Sender, body string, opts ...MessageOption) (*Message, error) {
	if strings.TrimSpace(body) == "" {
		return nil, ErrEmptyMessage
	}
	m := &Message{
		id:        uuid.New(),
		sessionID: sessionID,
		sender:    sender,
		body:      body,
		createdAt: time.Now(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

func (m *Message) ID() uuid.UUID {
	return m.id
}

func (m *Message) SessionID() uuid.UUID {
	return m.sessionID
}

func (m *Message) Sender() Sender {
	return m.sender
}

func (m *Message) Body() string {
	return m.body
}

func (m *Message) CreatedAt() time.Time {
	return m.createdAt
}
