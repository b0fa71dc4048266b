package persistence

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/opdesk-io/opdesk/modules/chat/domain/aggregates/chatsession"
)

// InMemSessionRepository mirrors the SQL repository's compare-and-swap
// contract under a single mutex. Service tests exercise the takeover race
// against it with plain goroutines.
type InMemSessionRepository struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*chatsession.ChatSession
	messages map[uuid.UUID][]*chatsession.Message
}

func NewInMemSessionRepository() *InMemSessionRepository {
	return &InMemSessionRepository{
		sessions: make(map[uuid.UUID]*chatsession.ChatSession),
		messages: make(map[uuid.UUID][]*chatsession.Message),
	}
}

func (r *InMemSessionRepository) GetByID(_ context.Context, id uuid.UUID) (*chatsession.ChatSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, chatsession.ErrSessionNotFound
	}
	return s, nil
}

func (r *InMemSessionRepository) GetOrCreate(_ context.Context, tenantID uuid.UUID, externalChatID int64) (*chatsession.ChatSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.TenantID() == tenantID && s.ExternalChatID() == externalChatID {
			return s, nil
		}
	}
	s := chatsession.New(tenantID, externalChatID)
	r.sessions[s.ID()] = s
	return s, nil
}

func (r *InMemSessionRepository) TakeOver(_ context.Context, id uuid.UUID, params chatsession.TakeoverParams) (*chatsession.ChatSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.sessions[id]
	if !ok {
		return nil, chatsession.ErrSessionNotFound
	}
	if current.Mode() == chatsession.ModeManager {
		return nil, chatsession.ErrAlreadyTaken
	}

	managerID := params.ManagerUserID
	takenOverAt := params.TakenOverAt
	epoch := params.Epoch
	updated := chatsession.New(
		current.TenantID(),
		current.ExternalChatID(),
		chatsession.WithID(current.ID()),
		chatsession.WithMode(chatsession.ModeManager),
		chatsession.WithManagerUserID(&managerID),
		chatsession.WithTakenOverAt(&takenOverAt),
		chatsession.WithTimeoutMinutes(params.TimeoutMinutes),
		chatsession.WithTakeoverEpoch(&epoch),
		chatsession.WithVersion(current.Version()+1),
		chatsession.WithCreatedAt(current.CreatedAt()),
		chatsession.WithUpdatedAt(takenOverAt),
	)
	r.sessions[id] = updated
	return updated, nil
}

func (r *InMemSessionRepository) Release(_ context.Context, id uuid.UUID, epoch *uuid.UUID) (*chatsession.ReleaseOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.sessions[id]
	if !ok {
		return nil, chatsession.ErrSessionNotFound
	}
	if current.Mode() == chatsession.ModeBot {
		return nil, chatsession.ErrNotTaken
	}
	if epoch != nil && (current.TakeoverEpoch() == nil || *current.TakeoverEpoch() != *epoch) {
		return nil, chatsession.ErrStaleEpoch
	}

	prevManager := *current.ManagerUserID()
	prevTakenOverAt := *current.TakenOverAt()
	prevEpoch := *current.TakeoverEpoch()

	updated := chatsession.New(
		current.TenantID(),
		current.ExternalChatID(),
		chatsession.WithID(current.ID()),
		chatsession.WithMode(chatsession.ModeBot),
		chatsession.WithVersion(current.Version()+1),
		chatsession.WithCreatedAt(current.CreatedAt()),
		chatsession.WithUpdatedAt(time.Now()),
	)
	r.sessions[id] = updated
	return &chatsession.ReleaseOutcome{
		Session:       updated,
		ManagerUserID: prevManager,
		TakenOverAt:   prevTakenOverAt,
		Epoch:         prevEpoch,
	}, nil
}

func (r *InMemSessionRepository) AddMessage(_ context.Context, m *chatsession.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages[m.SessionID()] = append(r.messages[m.SessionID()], m)
	return nil
}

func (r *InMemSessionRepository) ListMessages(_ context.Context, sessionID uuid.UUID, limit int) ([]*chatsession.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.messages[sessionID]
	out := make([]*chatsession.Message, len(all))
	copy(out, all)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt().Before(out[j].CreatedAt())
	})
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}
