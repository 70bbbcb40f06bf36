// Package metrics exposes the controller's car-registry size, per-car
// queue depth, and dispatch counts on a Prometheus /metrics endpoint. This
// is ambient observability (SPEC_FULL.md's DOMAIN STACK), not a spec
// feature: it never gates correctness and the controller runs fine with
// this listener disabled or unreachable.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mngv7/elevator-control-system/internal/logging"
)

// Metrics holds the counters and gauges the controller updates as it
// registers cars, enqueues calls, and dispatches stops.
type Metrics struct {
	RegisteredCars prometheus.Gauge
	QueueDepth     *prometheus.GaugeVec
	Dispatches     *prometheus.CounterVec
	CallsAccepted  prometheus.Counter
	CallsRejected  prometheus.Counter
}

// New registers every metric against its own registry (not the global
// default) so multiple Server instances in tests don't collide.
func New() (*Metrics, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{
		RegisteredCars: factory.NewGauge(prometheus.GaugeOpts{
			Name: "elevator_controller_registered_cars",
			Help: "Number of cars currently registered with the controller.",
		}),
		QueueDepth: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "elevator_controller_queue_depth",
			Help: "Pending stops in a car's SCAN queue.",
		}, []string{"car"}),
		Dispatches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "elevator_controller_dispatches_total",
			Help: "FLOOR dispatches sent to a car.",
		}, []string{"car"}),
		CallsAccepted: factory.NewCounter(prometheus.CounterOpts{
			Name: "elevator_controller_calls_accepted_total",
			Help: "CALL requests assigned to a car.",
		}),
		CallsRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "elevator_controller_calls_rejected_total",
			Help: "CALL requests rejected as UNAVAILABLE.",
		}),
	}
	return m, reg
}

// Serve runs an HTTP server exposing /metrics until ctx is cancelled.
// Failures here are logged, never fatal to the controller.
func Serve(ctx context.Context, addr string, reg http.Handler, log *logging.Logger) {
	srv := &http.Server{Addr: addr, Handler: reg}
	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Warn("metrics server stopped", logging.Err(err))
	}
}

// Handler builds the promhttp handler for reg.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
