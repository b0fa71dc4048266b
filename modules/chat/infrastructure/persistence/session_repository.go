package persistence

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/opdesk-io/opdesk/modules/chat/domain/aggregates/chatsession"
	"github.com/opdesk-io/opdesk/modules/chat/infrastructure/persistence/models"
	"github.com/opdesk-io/opdesk/pkg/composables"
)

const (
	selectSessionQuery = `
		SELECT
			s.id,
			s.tenant_id,
			s.external_chat_id,
			s.mode,
			s.manager_user_id,
			s.taken_over_at,
			s.timeout_minutes,
			s.takeover_epoch,
			s.version,
			s.created_at,
			s.updated_at
		FROM chat_sessions s`

	insertSessionQuery = `
		INSERT INTO chat_sessions (id, tenant_id, external_chat_id, mode, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 0, $5, $5)
		ON CONFLICT (tenant_id, external_chat_id) DO NOTHING`

	// Guarded transition: succeeds only while the row is still in bot mode,
	// so concurrent takeovers resolve to exactly one winner inside Postgres.
	takeOverQuery = `
		UPDATE chat_sessions
		SET mode = 'manager',
			manager_user_id = $2,
			taken_over_at = $3,
			timeout_minutes = $4,
			takeover_epoch = $5,
			version = version + 1,
			updated_at = $3
		WHERE id = $1 AND mode = 'bot'
		RETURNING id, tenant_id, external_chat_id, mode, manager_user_id,
			taken_over_at, timeout_minutes, takeover_epoch, version, created_at, updated_at`

	// Clears the takeover while returning the pre-release fields. The inner
	// select pins the row so prev reflects the exact state being replaced.
	// $3 NULL releases unconditionally; otherwise only the matching epoch.
	releaseQuery = `
		UPDATE chat_sessions s
		SET mode = 'bot',
			manager_user_id = NULL,
			taken_over_at = NULL,
			timeout_minutes = NULL,
			takeover_epoch = NULL,
			version = s.version + 1,
			updated_at = $2
		FROM (
			SELECT id, manager_user_id, taken_over_at, takeover_epoch
			FROM chat_sessions
			WHERE id = $1 AND mode = 'manager'
			FOR UPDATE
		) prev
		WHERE s.id = prev.id AND ($3::uuid IS NULL OR prev.takeover_epoch = $3::uuid)
		RETURNING prev.manager_user_id, prev.taken_over_at, prev.takeover_epoch,
			s.id, s.tenant_id, s.external_chat_id, s.mode, s.manager_user_id,
			s.taken_over_at, s.timeout_minutes, s.takeover_epoch, s.version,
			s.created_at, s.updated_at`

	insertMessageQuery = `
		INSERT INTO chat_messages (id, session_id, sender, body, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	selectMessagesQuery = `
		SELECT m.id, m.session_id, m.sender, m.body, m.created_at
		FROM chat_messages m
		WHERE m.session_id = $1
		ORDER BY m.created_at DESC, m.id DESC
		LIMIT $2`
)

type PgSessionRepository struct{}

func NewSessionRepository() chatsession.Repository {
	return &PgSessionRepository{}
}

func (r *PgSessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*chatsession.ChatSession, error) {
	sessions, err := r.query(ctx, selectSessionQuery+` WHERE s.id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, chatsession.ErrSessionNotFound
	}
	return sessions[0], nil
}

func (r *PgSessionRepository) GetOrCreate(ctx context.Context, tenantID uuid.UUID, externalChatID int64) (*chatsession.ChatSession, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	// Insert-or-skip, then read back. Losing the insert race is fine: the
	// winner's row is the one everyone converges on.
	if _, err := tx.Exec(
		ctx,
		insertSessionQuery,
		uuid.New(),
		tenantID,
		externalChatID,
		string(chatsession.ModeBot),
		time.Now(),
	); err != nil {
		return nil, errors.Wrap(err, "failed to insert chat session")
	}

	sessions, err := r.query(
		ctx,
		selectSessionQuery+` WHERE s.tenant_id = $1 AND s.external_chat_id = $2`,
		tenantID,
		externalChatID,
	)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, chatsession.ErrSessionNotFound
	}
	return sessions[0], nil
}

func (r *PgSessionRepository) TakeOver(ctx context.Context, id uuid.UUID, params chatsession.TakeoverParams) (*chatsession.ChatSession, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	var timeoutMinutes *int32
	if params.TimeoutMinutes != nil {
		v := int32(*params.TimeoutMinutes)
		timeoutMinutes = &v
	}

	rows, err := tx.Query(
		ctx,
		takeOverQuery,
		id,
		params.ManagerUserID,
		params.TakenOverAt,
		timeoutMinutes,
		params.Epoch,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to take over chat session")
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, errors.Wrap(err, "failed to take over chat session")
		}
		rows.Close()
		// Zero rows: either the session does not exist or it is already in
		// manager mode. Re-read outside the guard to tell the two apart.
		current, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if current.Mode() == chatsession.ModeManager {
			return nil, chatsession.ErrAlreadyTaken
		}
		return nil, errors.New("take over matched no rows on a bot-mode session")
	}

	var s models.ChatSession
	if err := rows.Scan(
		&s.ID,
		&s.TenantID,
		&s.ExternalChatID,
		&s.Mode,
		&s.ManagerUserID,
		&s.TakenOverAt,
		&s.TimeoutMinutes,
		&s.TakeoverEpoch,
		&s.Version,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		return nil, errors.Wrap(err, "failed to scan taken over session")
	}
	return toDomainSession(&s)
}

func (r *PgSessionRepository) Release(ctx context.Context, id uuid.UUID, epoch *uuid.UUID) (*chatsession.ReleaseOutcome, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, releaseQuery, id, time.Now(), pgUUID(epoch))
	if err != nil {
		return nil, errors.Wrap(err, "failed to release chat session")
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, errors.Wrap(err, "failed to release chat session")
		}
		rows.Close()
		current, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if current.Mode() == chatsession.ModeBot {
			return nil, chatsession.ErrNotTaken
		}
		// Still in manager mode, so the guard that failed was the epoch.
		return nil, chatsession.ErrStaleEpoch
	}

	var prev models.ChatSession
	var s models.ChatSession
	if err := rows.Scan(
		&prev.ManagerUserID,
		&prev.TakenOverAt,
		&prev.TakeoverEpoch,
		&s.ID,
		&s.TenantID,
		&s.ExternalChatID,
		&s.Mode,
		&s.ManagerUserID,
		&s.TakenOverAt,
		&s.TimeoutMinutes,
		&s.TakeoverEpoch,
		&s.Version,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		return nil, errors.Wrap(err, "failed to scan released session")
	}

	session, err := toDomainSession(&s)
	if err != nil {
		return nil, err
	}
	return &chatsession.ReleaseOutcome{
		Session:       session,
		ManagerUserID: uuid.UUID(prev.ManagerUserID.Bytes),
		TakenOverAt:   prev.TakenOverAt.Time,
		Epoch:         uuid.UUID(prev.TakeoverEpoch.Bytes),
	}, nil
}

func (r *PgSessionRepository) AddMessage(ctx context.Context, m *chatsession.Message) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(
		ctx,
		insertMessageQuery,
		m.ID(),
		m.SessionID(),
		string(m.Sender()),
		m.Body(),
		m.CreatedAt(),
	); err != nil {
		return errors.Wrap(err, "failed to insert chat message")
	}
	return nil
}

func (r *PgSessionRepository) ListMessages(ctx context.Context, sessionID uuid.UUID, limit int) ([]*chatsession.Message, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, selectMessagesQuery, sessionID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query chat messages")
	}
	defer rows.Close()

	messages := make([]*chatsession.Message, 0)
	for rows.Next() {
		var m models.ChatMessage
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Sender, &m.Body, &m.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan chat message")
		}
		entity, err := toDomainMessage(&m)
		if err != nil {
			return nil, errors.Wrap(err, "failed to map chat message")
		}
		messages = append(messages, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate chat messages")
	}

	// Newest-first from the query; hand transcripts back oldest-first.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (r *PgSessionRepository) query(ctx context.Context, query string, args ...interface{}) ([]*chatsession.ChatSession, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query chat sessions")
	}
	defer rows.Close()

	sessions := make([]*chatsession.ChatSession, 0)
	for rows.Next() {
		var s models.ChatSession
		if err := rows.Scan(
			&s.ID,
			&s.TenantID,
			&s.ExternalChatID,
			&s.Mode,
			&s.ManagerUserID,
			&s.TakenOverAt,
			&s.TimeoutMinutes,
			&s.TakeoverEpoch,
			&s.Version,
			&s.CreatedAt,
			&s.UpdatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan chat session")
		}
		entity, err := toDomainSession(&s)
		if err != nil {
			return nil, errors.Wrap(err, "failed to map chat session")
		}
		sessions = append(sessions, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate chat sessions")
	}
	return sessions, nil
}
