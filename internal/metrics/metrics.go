// Package metrics exposes Prometheus counters for harvest runs.
package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Metrics holds the counters a pipeline run increments.
type Metrics struct {
	FetchesTotal *prometheus.CounterVec
	LeadsSaved   prometheus.Counter
	URLsSkipped  prometheus.Counter
}

// New registers the harvester metrics on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FetchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadharvest",
			Name:      "fetches_total",
			Help:      "Fetch attempts by terminal outcome.",
		}, []string{"outcome"}),
		LeadsSaved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "leadharvest",
			Name:      "leads_saved_total",
			Help:      "Lead records handed to the persistence sink.",
		}),
		URLsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "leadharvest",
			Name:      "urls_skipped_total",
			Help:      "Seed URLs skipped after fetch or extraction failure.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.FetchesTotal, m.LeadsSaved, m.URLsSkipped)
	}
	return m
}

// NewNop returns metrics that are counted but never registered,
// convenient for tests.
func NewNop() *Metrics {
	return New(nil)
}

// Server exposes a Prometheus registry over HTTP for the duration of a
// run, so a scrape or a final curl can read the counters before the
// process exits.
type Server struct {
	listener net.Listener
	srv      *http.Server
}

// Serve starts listening on addr and serves the gatherer at /metrics.
func Serve(addr string, gatherer prometheus.Gatherer, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux}
	go func() {
		if serveErr := srv.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			logger.Warn("Metrics server stopped", zap.Error(serveErr))
		}
	}()

	logger.Info("Serving metrics", zap.String("addr", listener.Addr().String()))
	return &Server{listener: listener, srv: srv}, nil
}

// Addr reports the bound address, which differs from the requested one
// when the port was 0.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Shutdown stops the listener and drains in-flight scrapes.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
