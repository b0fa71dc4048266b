package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/opdesk-io/opdesk/modules/chat/domain/aggregates/chatsession"
	"github.com/opdesk-io/opdesk/modules/chat/infrastructure/engine"
	"github.com/opdesk-io/opdesk/modules/core/domain/entities/tenant"
	"github.com/opdesk-io/opdesk/pkg/composables"
	"github.com/opdesk-io/opdesk/pkg/eventbus"
	"github.com/opdesk-io/opdesk/pkg/metrics"
)

const (
	engineFailureApology = "Sorry, something went wrong on our side. Please try again in a moment."

	defaultTranscriptLimit = 50
)

type DispatchServiceConfig struct {
	Sessions  chatsession.Repository
	Responder engine.Responder
	Senders   SenderFactory
	EventBus  eventbus.EventBus
	// TranscriptLimit bounds the history handed to the engine.
	TranscriptLimit int
}

// DispatchService routes inbound client messages. Bot mode consults the
// engine and answers; manager mode only persists, the engine never sees the
// message.
type DispatchService struct {
	sessions        chatsession.Repository
	responder       engine.Responder
	senders         SenderFactory
	eventBus        eventbus.EventBus
	transcriptLimit int
}

func NewDispatchService(config DispatchServiceConfig) *DispatchService {
	s := &DispatchService{
		sessions:        config.Sessions,
		responder:       config.Responder,
		senders:         config.Senders,
		eventBus:        config.EventBus,
		transcriptLimit: config.TranscriptLimit,
	}
	if s.transcriptLimit <= 0 {
		s.transcriptLimit = defaultTranscriptLimit
	}
	return s
}

// HandleInbound processes one client message for an already-authenticated
// tenant. Engine trouble degrades to an apology; the webhook itself still
// succeeds so the upstream does not redeliver.
func (s *DispatchService) HandleInbound(ctx context.Context, t *tenant.Tenant, externalChatID int64, text string) error {
	logger := composables.UseLogger(ctx)

	session, err := s.sessions.GetOrCreate(ctx, t.ID(), externalChatID)
	if err != nil {
		return err
	}

	msg, err := chatsession.NewMessage(session.ID(), chatsession.SenderClient, text)
	if err != nil {
		return err
	}
	if err := s.sessions.AddMessage(ctx, msg); err != nil {
		return err
	}

	s.eventBus.Publish(&chatsession.DispatchedEvent{
		SessionID: session.ID(),
		TenantID:  t.ID(),
		Mode:      session.Mode(),
		Sender:    chatsession.SenderClient,
		Timestamp: time.Now(),
	})

	if session.Mode() == chatsession.ModeManager {
		// A human owns this conversation. Persist and stop.
		logger.WithFields(logrus.Fields{
			"session_id": session.ID(),
		}).Debug("session taken over, skipping engine")
		return nil
	}

	history, err := s.sessions.ListMessages(ctx, session.ID(), s.transcriptLimit)
	if err != nil {
		return err
	}

	reply, err := s.responder.Reply(ctx, history)
	if err != nil {
		metrics.EngineFailures.Inc()
		logger.WithFields(logrus.Fields{
			"session_id": session.ID(),
		}).WithError(err).Error("engine failed, sending apology")
		return s.respond(ctx, t, session, chatsession.SenderSystem, engineFailureApology)
	}

	return s.respond(ctx, t, session, chatsession.SenderBot, reply)
}

func (s *DispatchService) respond(ctx context.Context, t *tenant.Tenant, session *chatsession.ChatSession, sender chatsession.Sender, text string) error {
	msg, err := chatsession.NewMessage(session.ID(), sender, text)
	if err != nil {
		return err
	}
	if err := s.sessions.AddMessage(ctx, msg); err != nil {
		return err
	}
	return s.senders(t.BotToken()).SendMessage(ctx, session.ExternalChatID(), text)
}
