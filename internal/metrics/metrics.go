package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "viona"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	bookingsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_created_total",
			Help:      "Bookings persisted by room category.",
		},
		[]string{"category"},
	)

	availabilityQueries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "availability_queries_total",
			Help:      "Category availability computations.",
		},
	)

	overbooked = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "overbooked_rooms",
			Help:      "Overlapping bookings beyond inventory seen by the last availability report, per category.",
		},
		[]string{"category"},
	)

	notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Confirmation deliveries by result.",
		},
		[]string{"result"},
	)

	flowTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_flow_transitions_total",
			Help:      "Booking flow step transitions.",
		},
		[]string{"step"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, bookingsCreated, availabilityQueries, overbooked, notifications, flowTransitions)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

func IncBookingCreated(category string) {
	bookingsCreated.WithLabelValues(category).Inc()
}

func IncAvailabilityQuery() {
	availabilityQueries.Inc()
}

func SetOverbooked(category string, n int) {
	overbooked.WithLabelValues(category).Set(float64(n))
}

func IncNotification(result string) {
	notifications.WithLabelValues(result).Inc()
}

func IncFlowTransition(step string) {
	flowTransitions.WithLabelValues(step).Inc()
}
