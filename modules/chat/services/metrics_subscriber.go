package services

import (
	"github.com/opdesk-io/opdesk/modules/chat/domain/aggregates/chatsession"
	"github.com/opdesk-io/opdesk/pkg/eventbus"
	"github.com/opdesk-io/opdesk/pkg/metrics"
)

// RegisterMetricsSubscribers wires lifecycle events into the Prometheus
// counters. Counting off the bus keeps the services free of metrics calls
// for state transitions.
func RegisterMetricsSubscribers(bus eventbus.EventBus) {
	bus.Subscribe(func(e *chatsession.TakenOverEvent) {
		metrics.Takeovers.WithLabelValues("success").Inc()
	})
	bus.Subscribe(func(e *chatsession.ReleasedEvent) {
		metrics.Releases.WithLabelValues(string(e.Cause)).Inc()
	})
	bus.Subscribe(func(e *chatsession.DispatchedEvent) {
		if e.Sender == chatsession.SenderManager {
			metrics.ManagerMessages.Inc()
		}
	})
}
