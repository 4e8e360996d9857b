// Package metrics exposes prometheus instrumentation for the analyzer and
// the scenario executor.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "appscout"

// Metrics groups every collector on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	FilesScanned       prometheus.Counter
	FragmentsExtracted *prometheus.CounterVec
	ExtractErrors      prometheus.Counter
	ModelsSynthesized  prometheus.Gauge
	FeaturesDetected   *prometheus.GaugeVec
	Scenarios          *prometheus.CounterVec
	StepDuration       *prometheus.HistogramVec
	ReadinessAttempts  prometheus.Histogram
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		FilesScanned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_scanned_total",
			Help:      "Files shortlisted by the source scanner.",
		}),
		FragmentsExtracted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fragments_extracted_total",
			Help:      "Structural fragments extracted, by kind.",
		}, []string{"kind"}),
		ExtractErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extract_errors_total",
			Help:      "Files skipped because extraction failed.",
		}),
		ModelsSynthesized: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "models",
			Help:      "Models in the last synthesized set.",
		}),
		FeaturesDetected: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "features",
			Help:      "Features detected in the last analysis, by type.",
		}, []string{"type"}),
		Scenarios: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scenarios_total",
			Help:      "Executed scenarios, by outcome.",
		}, []string{"status"}),
		StepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "step_duration_seconds",
			Help:      "Scenario step duration, by action.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"action"}),
		ReadinessAttempts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "readiness_attempts",
			Help:      "Polls needed before the application became ready.",
			Buckets:   prometheus.LinearBuckets(1, 5, 8),
		}),
	}

	m.Registry.MustRegister(
		m.FilesScanned,
		m.FragmentsExtracted,
		m.ExtractErrors,
		m.ModelsSynthesized,
		m.FeaturesDetected,
		m.Scenarios,
		m.StepDuration,
		m.ReadinessAttempts,
	)
	return m
}

// Handler returns an http.Handler exposing the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
