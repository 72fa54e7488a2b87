package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	NotificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "notification",
		Name:      "sent_total",
		Help:      "Notifications delivered to a provider, by channel and event type.",
	}, []string{"channel", "event_type"})

	NotificationsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "notification",
		Name:      "failed_total",
		Help:      "Notifications the provider rejected, by channel and event type.",
	}, []string{"channel", "event_type"})

	EventsConsumed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "notification",
		Name:      "events_consumed_total",
		Help:      "Kafka events read, by topic and outcome.",
	}, []string{"topic", "outcome"})
)
