package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	BetsPlaced = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bets_placed_total",
			Help: "Total wagers accepted",
		},
	)

	PointsWagered = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "points_wagered_total",
			Help: "Total points debited for accepted wagers",
		},
	)

	EventsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "events_created_total",
			Help: "Total events created",
		},
	)

	EventsResolved = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "events_resolved_total",
			Help: "Total events resolved",
		},
	)

	PointsPaidOut = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "points_paid_out_total",
			Help: "Total points credited to winning wagers",
		},
	)
)

// Init registers all collectors with the default registry.
func Init() {
	prometheus.MustRegister(
		HTTPRequests,
		BetsPlaced,
		PointsWagered,
		EventsCreated,
		EventsResolved,
		PointsPaidOut,
	)
}

// HealthFunc probes a dependency; non-nil means unhealthy.
type HealthFunc func(ctx context.Context) error

// NewServer builds the metrics HTTP server serving /metrics and
// /healthz on its own port. The caller owns ListenAndServe/Shutdown.
func NewServer(port int, healthFn HealthFunc) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()

		if healthFn != nil {
			if err := healthFn(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				fmt.Fprintf(w, "unhealthy: %v", err)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}
}
