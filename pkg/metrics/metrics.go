package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ticket_booking"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern, method and status.",
		},
		[]string{"route", "method", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	gridsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "seat_grids_created_total",
			Help:      "Seat grids materialized on first access.",
		},
	)

	availabilityConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "availability_conflicts_total",
			Help:      "Pre-checkout re-checks that found a selected seat booked.",
		},
	)

	seatClaims = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "seat_claims_total",
			Help:      "Seat claim transactions by result.",
		},
		[]string{"result"},
	)

	bookingsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_created_total",
			Help:      "Pending bookings created, by item category.",
		},
		[]string{"category"},
	)
)

// Claim results.
const (
	ClaimCommitted = "committed"
	ClaimConflict  = "conflict"
	ClaimAborted   = "aborted"
	ClaimError     = "error"
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			httpDuration,
			gridsCreated,
			availabilityConflicts,
			seatClaims,
			bookingsCreated,
		)
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

func ObserveHTTP(route, method string, status int, elapsed time.Duration) {
	httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

func IncGridCreated() {
	gridsCreated.Inc()
}

func IncAvailabilityConflict() {
	availabilityConflicts.Inc()
}

func IncSeatClaim(result string) {
	seatClaims.WithLabelValues(result).Inc()
}

func IncBookingCreated(category string) {
	bookingsCreated.WithLabelValues(category).Inc()
}
