package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WebhookRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "opdesk_webhook_requests_total",
		Help: "Inbound webhook requests by outcome.",
	}, []string{"outcome"})

	Takeovers = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "opdesk_takeovers_total",
		Help: "Session takeover attempts by outcome.",
	}, []string{"outcome"})

	Releases = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "opdesk_releases_total",
		Help: "Session releases by cause.",
	}, []string{"cause"})

	ManagerMessages = promauto.NewCounter(prometheus.CounterOpts{
		Name: "opdesk_manager_messages_total",
		Help: "Messages posted by operators during takeovers.",
	})

	EngineFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "opdesk_engine_failures_total",
		Help: "Reply engine failures answered with the apology fallback.",
	})
)
