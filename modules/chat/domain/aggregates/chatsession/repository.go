package chatsession

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/opdesk-io/opdesk/pkg/serrors"
)

var (
	ErrSessionNotFound = serrors.NewError("NOT_FOUND", "chat session not found", "")
	ErrAlreadyTaken    = serrors.NewError("CONFLICT_ALREADY_TAKEN", "session is already taken over", "")
	ErrNotTaken        = serrors.NewError("CONFLICT_NOT_TAKEN", "session is not taken over", "")
	// ErrStaleEpoch means the release referenced a takeover that has since
	// ended; callers treat it as already-done, not as a failure.
	ErrStaleEpoch = serrors.NewError("CONFLICT_STALE_EPOCH", "takeover epoch does not match", "")
)

type TakeoverParams struct {
	ManagerUserID uuid.UUID
	TakenOverAt   time.Time
	// TimeoutMinutes nil means no scheduled auto-release.
	TimeoutMinutes *int
	Epoch          uuid.UUID
}

// ReleaseOutcome captures the pre-release state alongside the updated
// session, so callers can compute takeover duration after the row was
// already reset.
type ReleaseOutcome struct {
	Session       *ChatSession
	ManagerUserID uuid.UUID
	TakenOverAt   time.Time
	Epoch         uuid.UUID
}

// Repository is the storage port for sessions and transcripts. TakeOver and
// Release are compare-and-swap operations: each succeeds at most once per
// state transition regardless of how many processes race on it.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*ChatSession, error)
	// GetOrCreate returns the session for (tenant, external chat), creating
	// it in bot mode if absent. Concurrent calls converge on one row.
	GetOrCreate(ctx context.Context, tenantID uuid.UUID, externalChatID int64) (*ChatSession, error)

	// TakeOver transitions bot -> manager only if the session is currently
	// in bot mode. Returns ErrAlreadyTaken when another operator won the
	// race, ErrSessionNotFound when the id is unknown.
	TakeOver(ctx context.Context, id uuid.UUID, params TakeoverParams) (*ChatSession, error)

	// Release transitions manager -> bot. A nil epoch releases whatever
	// takeover is active (manual path); a non-nil epoch releases only the
	// matching takeover (scheduler path). Returns ErrNotTaken when the
	// session is in bot mode and ErrStaleEpoch on an epoch mismatch.
	Release(ctx context.Context, id uuid.UUID, epoch *uuid.UUID) (*ReleaseOutcome, error)

	AddMessage(ctx context.Context, m *Message) error
	ListMessages(ctx context.Context, sessionID uuid.UUID, limit int) ([]*Message, error)
}
