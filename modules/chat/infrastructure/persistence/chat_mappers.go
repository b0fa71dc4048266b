package persistence

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/opdesk-io/opdesk/modules/chat/domain/aggregates/chatsession"
	"github.com/opdesk-io/opdesk/modules/chat/infrastructure/persistence/models"
)

func toDomainSession(s *models.ChatSession) (*chatsession.ChatSession, error) {
	id, err := uuid.Parse(s.ID)
	if err != nil {
		return nil, err
	}
	tenantID, err := uuid.Parse(s.TenantID)
	if err != nil {
		return nil, err
	}

	var managerUserID *uuid.UUID
	if s.ManagerUserID.Valid {
		v := uuid.UUID(s.ManagerUserID.Bytes)
		managerUserID = &v
	}
	var takenOverAt *time.Time
	if s.TakenOverAt.Valid {
		v := s.TakenOverAt.Time
		takenOverAt = &v
	}
	var timeoutMinutes *int
	if s.TimeoutMinutes.Valid {
		v := int(s.TimeoutMinutes.Int32)
		timeoutMinutes = &v
	}
	var epoch *uuid.UUID
	if s.TakeoverEpoch.Valid {
		v := uuid.UUID(s.TakeoverEpoch.Bytes)
		epoch = &v
	}

	return chatsession.New(
		tenantID,
		s.ExternalChatID,
		chatsession.WithID(id),
		chatsession.WithMode(chatsession.Mode(s.Mode)),
		chatsession.WithManagerUserID(managerUserID),
		chatsession.WithTakenOverAt(takenOverAt),
		chatsession.WithTimeoutMinutes(timeoutMinutes),
		chatsession.WithTakeoverEpoch(epoch),
		chatsession.WithVersion(s.Version),
		chatsession.WithCreatedAt(s.CreatedAt),
		chatsession.WithUpdatedAt(s.UpdatedAt),
	), nil
}

func toDomainMessage(m *models.ChatMessage) (*chatsession.Message, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, err
	}
	sessionID, err := uuid.Parse(m.SessionID)
	if err != nil {
		return nil, err
	}
	return chatsession.NewMessage(
		sessionID,
		chatsession.Sender(m.Sender),
		m.Body,
		chatsession.WithMessageID(id),
		chatsession.WithMessageCreatedAt(m.CreatedAt),
	)
}

func pgUUID(id *uuid.UUID) pgtype.UUID {
	if id == nil {
		return pgtype.UUID{}
	}
	return pgtype.UUID{Bytes: *id, Valid: true}
}
