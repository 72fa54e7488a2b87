// Package metrics holds the practice-service Prometheus collectors. They are
// registered on the default registry served by the ops mux at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "practice"

var (
	BookingsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "appointments_created_total",
		Help:      "Appointments created, by the actor that created them.",
	}, []string{"created_by"})

	SlotConflicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "slot_conflicts_total",
		Help:      "Writes rejected because the slot was taken or no longer offered.",
	}, []string{"operation"})

	AvailabilityRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "availability_requests_total",
		Help:      "Availability computations, by outcome.",
	}, []string{"outcome"})

	AvailabilitySlots = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "availability_slots",
		Help:      "Number of slots offered per availability request.",
		Buckets:   []float64{0, 1, 2, 4, 8, 12, 16, 24, 32},
	})

	OutboxPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "outbox_events_published_total",
		Help:      "Outbox events written to Kafka, by event type.",
	}, []string{"event_type"})
)
