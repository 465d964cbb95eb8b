package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	reservationCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "glowcrm",
			Name:      "reservations_created_total",
			Help:      "Count of reservations created by service type.",
		},
		[]string{"service_type"},
	)

	reservationCancelled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "glowcrm",
			Name:      "reservations_cancelled_total",
			Help:      "Count of reservations cancelled.",
		},
	)

	schedulingConflict = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "glowcrm",
			Name:      "scheduling_conflicts_total",
			Help:      "Count of booking attempts rejected for overlapping an existing reservation.",
		},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(reservationCreated, reservationCancelled, schedulingConflict)
	})
}

func IncReservationCreated(serviceType string) {
	reservationCreated.WithLabelValues(serviceType).Inc()
}

func IncReservationCancelled() {
	reservationCancelled.Inc()
}

func IncSchedulingConflict() {
	schedulingConflict.Inc()
}
