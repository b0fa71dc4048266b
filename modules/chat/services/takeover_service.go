package services

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/opdesk-io/opdesk/modules/chat/domain/aggregates/chatsession"
	"github.com/opdesk-io/opdesk/modules/core/domain/access"
	"github.com/opdesk-io/opdesk/modules/core/domain/entities/tenant"
	coreservices "github.com/opdesk-io/opdesk/modules/core/services"
	"github.com/opdesk-io/opdesk/pkg/composables"
	"github.com/opdesk-io/opdesk/pkg/eventbus"
)

// Sender delivers text to the external chat. Implemented by the Bot API
// client; tests swap in fakes.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// SenderFactory builds a Sender for a tenant's own bot token.
type SenderFactory func(token string) Sender

// ReleaseScheduler enqueues a deferred auto-release for one takeover epoch.
type ReleaseScheduler interface {
	Schedule(ctx context.Context, sessionID, epoch uuid.UUID, fireAt time.Time) error
}

// PostingPolicy controls who may post while a session is taken over.
type PostingPolicy string

const (
	// PostingAnyOperator lets every operator-capable user of the tenant
	// post during a takeover, regardless of who took it over.
	PostingAnyOperator PostingPolicy = "any_operator"
	// PostingAssignedOnly restricts posting to the operator holding the
	// takeover.
	PostingAssignedOnly PostingPolicy = "assigned_only"
)

const (
	takeoverNotice = "You are now chatting with a human operator."
	releaseNotice  = "You are now back with our automated assistant."
)

type TakeoverServiceConfig struct {
	Sessions  chatsession.Repository
	Tenants   *coreservices.TenantService
	Access    *coreservices.AccessService
	Scheduler ReleaseScheduler
	Senders   SenderFactory
	EventBus  eventbus.EventBus
	// Clock defaults to time.Now; tests inject a fixed one.
	Clock func() time.Time
	// PostingPolicy defaults to PostingAnyOperator.
	PostingPolicy PostingPolicy
	// DefaultTimeoutMinutes applies when neither the request nor the tenant
	// sets one. Zero means takeovers do not expire.
	DefaultTimeoutMinutes int
}

// TakeoverService owns the bot/manager state machine. Every transition is a
// storage-level compare-and-swap, so two processes racing on the same
// session cannot both win.
type TakeoverService struct {
	sessions              chatsession.Repository
	tenants               *coreservices.TenantService
	access                *coreservices.AccessService
	scheduler             ReleaseScheduler
	senders               SenderFactory
	eventBus              eventbus.EventBus
	clock                 func() time.Time
	postingPolicy         PostingPolicy
	defaultTimeoutMinutes int
}

func NewTakeoverService(config TakeoverServiceConfig) *TakeoverService {
	s := &TakeoverService{
		sessions:              config.Sessions,
		tenants:               config.Tenants,
		access:                config.Access,
		scheduler:             config.Scheduler,
		senders:               config.Senders,
		eventBus:              config.EventBus,
		clock:                 config.Clock,
		postingPolicy:         config.PostingPolicy,
		defaultTimeoutMinutes: config.DefaultTimeoutMinutes,
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if s.postingPolicy == "" {
		s.postingPolicy = PostingAnyOperator
	}
	return s
}

// TakeoverOptions tunes one takeover. TimeoutMinutes overrides the tenant
// default; nil falls through to the tenant, then to the service-wide
// default. NotifyClient defaults to true.
type TakeoverOptions struct {
	TimeoutMinutes *int
	NotifyClient   *bool
}

type ReleaseOptions struct {
	NotifyClient *bool
}

func notifyWanted(flag *bool) bool {
	return flag == nil || *flag
}

// Takeover moves a session to manager mode for the calling operator.
func (s *TakeoverService) Takeover(ctx context.Context, sessionID, userID uuid.UUID, opts TakeoverOptions) (*chatsession.ChatSession, error) {
	_, t, err := s.sessionTenant(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if _, err := s.access.RequireOperator(ctx, t, userID); err != nil {
		return nil, err
	}

	timeout := s.resolveTimeout(opts.TimeoutMinutes, t)
	now := s.clock()
	epoch := uuid.New()

	updated, err := s.sessions.TakeOver(ctx, sessionID, chatsession.TakeoverParams{
		ManagerUserID:  userID,
		TakenOverAt:    now,
		TimeoutMinutes: timeout,
		Epoch:          epoch,
	})
	if err != nil {
		return nil, err
	}

	logger := composables.UseLogger(ctx)

	if timeout != nil {
		fireAt := now.Add(time.Duration(*timeout) * time.Minute)
		if err := s.scheduler.Schedule(ctx, sessionID, epoch, fireAt); err != nil {
			// The takeover stands; a manual release still works without the
			// scheduled fallback.
			logger.WithFields(logrus.Fields{
				"session_id": sessionID,
				"epoch":      epoch,
			}).WithError(err).Error("failed to schedule auto release")
		}
	}

	if notifyWanted(opts.NotifyClient) {
		s.notifyClient(ctx, t, updated, takeoverNotice)
	}

	s.eventBus.Publish(&chatsession.TakenOverEvent{
		SessionID:     sessionID,
		TenantID:      t.ID(),
		ManagerUserID: userID,
		Epoch:         epoch,
		Timestamp:     now,
	})

	logger.WithFields(logrus.Fields{
		"session_id": sessionID,
		"manager_id": userID,
		"epoch":      epoch,
	}).Info("session taken over")
	return updated, nil
}

// Release ends the active takeover, whoever holds it.
func (s *TakeoverService) Release(ctx context.Context, sessionID, userID uuid.UUID, opts ReleaseOptions) (*chatsession.ChatSession, error) {
	_, t, err := s.sessionTenant(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if _, err := s.access.RequireOperator(ctx, t, userID); err != nil {
		return nil, err
	}

	outcome, err := s.sessions.Release(ctx, sessionID, nil)
	if err != nil {
		return nil, err
	}

	s.finishRelease(ctx, t, outcome, chatsession.ReleaseCauseManual, notifyWanted(opts.NotifyClient))
	return outcome.Session, nil
}

// AutoRelease is the scheduler entrypoint. It releases only the takeover
// matching epoch; anything else, including a session already back in bot
// mode or re-taken under a newer epoch, is a clean no-op. Duplicate
// deliveries of the same task land here harmlessly.
func (s *TakeoverService) AutoRelease(ctx context.Context, sessionID, epoch uuid.UUID) error {
	logger := composables.UseLogger(ctx)

	outcome, err := s.sessions.Release(ctx, sessionID, &epoch)
	if err != nil {
		if errors.Is(err, chatsession.ErrNotTaken) ||
			errors.Is(err, chatsession.ErrStaleEpoch) ||
			errors.Is(err, chatsession.ErrSessionNotFound) {
			logger.WithFields(logrus.Fields{
				"session_id": sessionID,
				"epoch":      epoch,
			}).Debug("auto release no-op")
			return nil
		}
		return err
	}

	t, err := s.tenants.GetByID(ctx, outcome.Session.TenantID())
	if err != nil {
		return err
	}
	s.finishRelease(ctx, t, outcome, chatsession.ReleaseCauseTimeout, true)
	return nil
}

// PostManagerMessage persists and delivers an operator message. The session
// must be taken over; in assigned-only mode only its holder may post.
func (s *TakeoverService) PostManagerMessage(ctx context.Context, sessionID, userID uuid.UUID, body string) (*chatsession.Message, error) {
	session, t, err := s.sessionTenant(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if _, err := s.access.RequireOperator(ctx, t, userID); err != nil {
		return nil, err
	}
	if session.Mode() != chatsession.ModeManager {
		return nil, chatsession.ErrNotTaken
	}
	if s.postingPolicy == PostingAssignedOnly {
		holder := session.ManagerUserID()
		if holder == nil || *holder != userID {
			return nil, access.ErrForbidden
		}
	}

	msg, err := chatsession.NewMessage(sessionID, chatsession.SenderManager, body)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.AddMessage(ctx, msg); err != nil {
		return nil, err
	}

	sender := s.senders(t.BotToken())
	if err := sender.SendMessage(ctx, session.ExternalChatID(), body); err != nil {
		// Persisted but undelivered; the caller sees the transport failure.
		return nil, errors.Wrap(err, "failed to deliver manager message")
	}

	s.eventBus.Publish(&chatsession.DispatchedEvent{
		SessionID: sessionID,
		TenantID:  t.ID(),
		Mode:      chatsession.ModeManager,
		Sender:    chatsession.SenderManager,
		Timestamp: s.clock(),
	})
	return msg, nil
}

// GetSession returns a session and its recent transcript for any member of
// the tenant.
func (s *TakeoverService) GetSession(ctx context.Context, sessionID, userID uuid.UUID, limit int) (*chatsession.ChatSession, []*chatsession.Message, error) {
	session, t, err := s.sessionTenant(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if _, err := s.access.RequireView(ctx, t, userID); err != nil {
		return nil, nil, err
	}
	messages, err := s.sessions.ListMessages(ctx, sessionID, limit)
	if err != nil {
		return nil, nil, err
	}
	return session, messages, nil
}

func (s *TakeoverService) sessionTenant(ctx context.Context, sessionID uuid.UUID) (*chatsession.ChatSession, *tenant.Tenant, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	t, err := s.tenants.GetByID(ctx, session.TenantID())
	if err != nil {
		return nil, nil, err
	}
	return session, t, nil
}

func (s *TakeoverService) resolveTimeout(requested *int, t *tenant.Tenant) *int {
	if requested != nil {
		if *requested <= 0 {
			return nil
		}
		return requested
	}
	if v := t.DefaultTimeoutMinutes(); v != nil {
		return v
	}
	if s.defaultTimeoutMinutes > 0 {
		v := s.defaultTimeoutMinutes
		return &v
	}
	return nil
}

func (s *TakeoverService) finishRelease(ctx context.Context, t *tenant.Tenant, outcome *chatsession.ReleaseOutcome, cause chatsession.ReleaseCause, notify bool) {
	now := s.clock()
	if notify {
		s.notifyClient(ctx, t, outcome.Session, releaseNotice)
	}

	s.eventBus.Publish(&chatsession.ReleasedEvent{
		SessionID:       outcome.Session.ID(),
		TenantID:        t.ID(),
		Cause:           cause,
		ManagerUserID:   outcome.ManagerUserID,
		DurationMinutes: roundMinutes(now.Sub(outcome.TakenOverAt)),
		Timestamp:       now,
	})

	composables.UseLogger(ctx).WithFields(logrus.Fields{
		"session_id": outcome.Session.ID(),
		"cause":      cause,
		"duration":   now.Sub(outcome.TakenOverAt),
	}).Info("session released")
}

// notifyClient records a system notice in the transcript and pushes it to
// the client. Neither failure rolls the transition back.
func (s *TakeoverService) notifyClient(ctx context.Context, t *tenant.Tenant, session *chatsession.ChatSession, text string) {
	logger := composables.UseLogger(ctx)

	msg, err := chatsession.NewMessage(session.ID(), chatsession.SenderSystem, text)
	if err == nil {
		if err := s.sessions.AddMessage(ctx, msg); err != nil {
			logger.WithError(err).Error("failed to record system notice")
		}
	}

	sender := s.senders(t.BotToken())
	if err := sender.SendMessage(ctx, session.ExternalChatID(), text); err != nil {
		logger.WithError(err).Error("failed to deliver system notice")
	}
}

// roundMinutes rounds half-up on seconds: 29s -> 0, 30s -> 1, 90s -> 2.
func roundMinutes(d time.Duration) int {
	if d < 0 {
		return 0
	}
	return int((d + 30*time.Second) / time.Minute)
}
