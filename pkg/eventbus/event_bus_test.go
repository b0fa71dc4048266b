package eventbus_test

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opdesk-io/opdesk/pkg/eventbus"
)

type sessionEvent struct {
	name string
}

type otherEvent struct{}

func newBus() eventbus.EventBus {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return eventbus.NewEventPublisher(logger)
}

func TestPublish_DeliversToMatchingSubscribers(t *testing.T) {
	t.Parallel()
	sut := newBus()

	var got []string
	sut.Subscribe(func(e *sessionEvent) {
		got = append(got, e.name)
	})
	sut.Subscribe(func(e *otherEvent) {
		t.Error("wrong subscriber invoked")
	})

	sut.Publish(&sessionEvent{name: "taken-over"})
	sut.Publish(&sessionEvent{name: "released"})

	assert.Equal(t, []string{"taken-over", "released"}, got)
}

func TestPublish_SurvivesPanickingSubscriber(t *testing.T) {
	t.Parallel()
	sut := newBus()

	delivered := false
	sut.Subscribe(func(e *sessionEvent) {
		panic("boom")
	})
	sut.Subscribe(func(e *sessionEvent) {
		delivered = true
	})

	require.NotPanics(t, func() {
		sut.Publish(&sessionEvent{name: "x"})
	})
	assert.True(t, delivered)
}

func TestUnsubscribe(t *testing.T) {
	t.Parallel()
	sut := newBus()

	calls := 0
	handler := func(e *sessionEvent) { calls++ }
	sut.Subscribe(handler)
	require.Equal(t, 1, sut.SubscribersCount())

	sut.Publish(&sessionEvent{})
	sut.Unsubscribe(handler)
	sut.Publish(&sessionEvent{})

	assert.Equal(t, 1, calls)
	assert.Zero(t, sut.SubscribersCount())
}

func TestMatchSignature(t *testing.T) {
	t.Parallel()

	handler := func(e *sessionEvent) {}
	assert.True(t, eventbus.MatchSignature(handler, []interface{}{&sessionEvent{}}))
	assert.False(t, eventbus.MatchSignature(handler, []interface{}{&otherEvent{}}))
	assert.False(t, eventbus.MatchSignature(handler, []interface{}{&sessionEvent{}, &sessionEvent{}}))
	assert.False(t, eventbus.MatchSignature("not a func", []interface{}{&sessionEvent{}}))
}
