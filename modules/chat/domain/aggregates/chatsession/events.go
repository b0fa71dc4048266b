package chatsession

import (
	"time"

	"github.com/google/uuid"
)

// ReleaseCause distinguishes operator-initiated releases from scheduler ones.
type ReleaseCause string

const (
	ReleaseCauseManual  ReleaseCause = "manual"
	ReleaseCauseTimeout ReleaseCause = "timeout"
)

type TakenOverEvent struct {
	SessionID     uuid.UUID
	TenantID      uuid.UUID
	ManagerUserID uuid.UUID
	Epoch         uuid.UUID
	Timestamp     time.Time
}

type ReleasedEvent struct {
	SessionID uuid.UUID
	TenantID  uuid.UUID
	Cause     ReleaseCause
	// ManagerUserID is the operator who held the session before release.
	ManagerUserID uuid.UUID
	// DurationMinutes is the takeover length rounded half-up to minutes.
	DurationMinutes int
	Timestamp       time.Time
}

type DispatchedEvent struct {
	SessionID uuid.UUID
	TenantID  uuid.UUID
	Mode      Mode
	Sender    Sender
	Timestamp time.Time
}
