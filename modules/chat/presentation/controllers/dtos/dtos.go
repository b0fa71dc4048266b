package dtos

import (
	"time"

	"github.com/google/uuid"

	"github.com/opdesk-io/opdesk/modules/chat/domain/aggregates/chatsession"
)

type TakeoverRequest struct {
	// TimeoutMinutes overrides the tenant default; omitted falls through,
	// zero or negative disables the auto-release for this takeover.
	TimeoutMinutes *int `json:"timeout_minutes"`
	// NotifyClient suppresses the system notice to the client when false.
	// Omitted means true.
	NotifyClient *bool `json:"notify_client"`
}

type ReleaseRequest struct {
	NotifyClient *bool `json:"notify_client"`
}

type PostMessageRequest struct {
	Content string `json:"content"`
}

type SessionResponse struct {
	ID             uuid.UUID  `json:"id"`
	TenantID       uuid.UUID  `json:"tenant_id"`
	ExternalChatID int64      `json:"external_chat_id"`
	Mode           string     `json:"mode"`
	ManagerUserID  *uuid.UUID `json:"manager_user_id,omitempty"`
	TakenOverAt    *time.Time `json:"taken_over_at,omitempty"`
	TimeoutMinutes *int       `json:"timeout_minutes,omitempty"`
	Version        int64      `json:"version"`
}

type MessageResponse struct {
	ID        uuid.UUID `json:"id"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type SessionDetailResponse struct {
	Session  SessionResponse   `json:"session"`
	Messages []MessageResponse `json:"messages"`
}

func ToSessionResponse(s *chatsession.ChatSession) SessionResponse {
	return SessionResponse{
		ID:             s.ID(),
		TenantID:       s.TenantID(),
		ExternalChatID: s.ExternalChatID(),
		Mode:           string(s.Mode()),
		ManagerUserID:  s.ManagerUserID(),
		TakenOverAt:    s.TakenOverAt(),
		TimeoutMinutes: s.TimeoutMinutes(),
		Version:        s.Version(),
	}
}

func ToMessageResponses(messages []*chatsession.Message) []MessageResponse {
	out := make([]MessageResponse, 0, len(messages))
	for _, m := range messages {
		out = append(out, MessageResponse{
			ID:        m.ID(),
			Sender:    string(m.Sender()),
			Content:   m.Body(),
			CreatedAt: m.CreatedAt(),
		})
	}
	return out
}
