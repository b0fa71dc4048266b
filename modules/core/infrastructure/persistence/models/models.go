package models

import (
	"database/sql"
	"time"
)

type Tenant struct {
	ID                    string
	Name                  string
	Key                   string
	WebhookSecret         string
	BotToken              string
	OwnerID               string
	DefaultTimeoutMinutes sql.NullInt32
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

type User struct {
	ID        string
	Email     string
	Name      sql.NullString
	APIToken  sql.NullString
	CreatedAt time.Time
}

type Membership struct {
	ID                  string
	TenantID            string
	UserID              string
	Role                string
	CanRespondToClients bool
	CreatedAt           time.Time
}
