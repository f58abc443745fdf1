package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hostelbook",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	bookingAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hostelbook",
			Name:      "booking_attempts_total",
			Help:      "Booking attempts by result (created, conflict, rejected, error).",
		},
		[]string{"result"},
	)

	cancellations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hostelbook",
			Name:      "cancellations_total",
			Help:      "Cancellations by outcome.",
		},
		[]string{"outcome"},
	)

	waitlistJoins = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hostelbook",
			Name:      "waitlist_joins_total",
			Help:      "Waitlist joins by result (joined, duplicate, error).",
		},
		[]string{"result"},
	)

	bookingDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "hostelbook",
			Name:      "booking_transaction_seconds",
			Help:      "Time spent inside the locked booking section.",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests)
		prometheus.MustRegister(bookingAttempts)
		prometheus.MustRegister(cancellations)
		prometheus.MustRegister(waitlistJoins)
		prometheus.MustRegister(bookingDuration)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// IncBooking counts one booking attempt with its result.
func IncBooking(result string) {
	bookingAttempts.WithLabelValues(result).Inc()
}

// IncCancellation counts one cancellation with its outcome.
func IncCancellation(outcome string) {
	cancellations.WithLabelValues(outcome).Inc()
}

// IncWaitlist counts one waitlist join with its result.
func IncWaitlist(result string) {
	waitlistJoins.WithLabelValues(result).Inc()
}

// ObserveBookingDuration records the locked-section latency.
func ObserveBookingDuration(d time.Duration) {
	bookingDuration.Observe(d.Seconds())
}
