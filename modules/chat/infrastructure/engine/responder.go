// Package engine hosts the automated responder behind bot-mode routing and
// its caching decorator.
package engine

import (
	"context"

	"github.com/opdesk-io/opdesk/modules/chat/domain/aggregates/chatsession"
	"github.com/opdesk-io/opdesk/pkg/serrors"
)

var (
	ErrNoReply = serrors.NewError("ENGINE_NO_REPLY", "engine returned no reply", "")
)

// Responder produces the bot reply for a transcript. The history already
// contains the incoming client message as its last entry.
type Responder interface {
	Reply(ctx context.Context, history []*chatsession.Message) (string, error)
}
