package models

import (
	"database/sql"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

type ChatSession struct {
	ID             string
	TenantID       string
	ExternalChatID int64
	Mode           string
	ManagerUserID  pgtype.UUID
	TakenOverAt    sql.NullTime
	TimeoutMinutes sql.NullInt32
	TakeoverEpoch  pgtype.UUID
	Version        int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type ChatMessage struct {
	ID        string
	SessionID string
	Sender    string
	Body      string
	CreatedAt time.Time
}
