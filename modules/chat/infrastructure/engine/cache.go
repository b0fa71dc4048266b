package engine

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/opdesk-io/opdesk/modules/chat/domain/aggregates/chatsession"
	"github.com/opdesk-io/opdesk/pkg/composables"
)

type CachedResponderConfig struct {
	Client *redis.Client
	Prefix string
	TTL    time.Duration
}

// CachedResponder memoizes engine replies in Redis keyed by a transcript
// hash. Identical conversations, common for greeting flows, skip the
// upstream call entirely.
type CachedResponder struct {
	next   Responder
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewCachedResponder(next Responder, config CachedResponderConfig) *CachedResponder {
	return &CachedResponder{
		next:   next,
		client: config.Client,
		prefix: config.Prefix,
		ttl:    config.TTL,
	}
}

func (r *CachedResponder) Reply(ctx context.Context, history []*chatsession.Message) (string, error) {
	logger := composables.UseLogger(ctx)
	key := r.cacheKey(history)

	cached, err := r.client.Get(ctx, key).Result()
	if err == nil && cached != "" {
		logger.WithFields(logrus.Fields{
			"cache_key": key,
		}).Info("replying with cached engine response")
		return cached, nil
	}
	if err != nil && !errors.Is(err, redis.Nil) {
		// Cache trouble never blocks a reply.
		logger.WithError(err).Warn("engine reply cache read failed")
	}

	reply, err := r.next.Reply(ctx, history)
	if err != nil {
		return "", err
	}

	if err := r.client.Set(ctx, key, reply, r.ttl).Err(); err != nil {
		logger.WithError(err).Warn("engine reply cache write failed")
	}
	return reply, nil
}

func (r *CachedResponder) cacheKey(history []*chatsession.Message) string {
	var buf bytes.Buffer
	for _, m := range history {
		buf.WriteString(string(m.Sender()))
		buf.WriteByte(0)
		buf.WriteString(m.Body())
		buf.WriteByte(0)
	}
	hash := md5.Sum(buf.Bytes())
	return r.prefix + ":" + hex.EncodeToString(hash[:])
}
