// Package metrics exposes the simulation's prometheus collectors.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const namespace = "heartbeat"

// Metrics groups every collector. A nil *Metrics is valid and records nothing,
// so components can take one unconditionally.
type Metrics struct {
	Frames        prometheus.Counter
	Beats         prometheus.Counter
	Scheduled     prometheus.Counter
	Dropped       prometheus.Counter
	Disposed      prometheus.Counter
	InFlight      prometheus.Gauge
	KineticEnergy prometheus.Gauge
	StepSeconds   prometheus.Histogram

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them on reg. Passing a fresh
// prometheus.NewRegistry keeps tests isolated from the default registry.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		Frames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_total",
			Help:      "Frames simulated",
		}),
		Beats: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "beats_total",
			Help:      "Beat trigger edges",
		}),
		Scheduled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "grains_scheduled_total",
			Help:      "Grains queued for the audio thread",
		}),
		Dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "grains_dropped_total",
			Help:      "Grains dropped because the schedule queue was full",
		}),
		Disposed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "grains_disposed_total",
			Help:      "Grains torn down after their stop time",
		}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "grains_in_flight",
			Help:      "Grains scheduled and not yet disposed",
		}),
		KineticEnergy: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "kinetic_energy",
			Help:      "Sum of squared particle velocities after the last frame",
		}),
		StepSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "step_duration_seconds",
			Help:      "Time spent integrating one frame",
			Buckets:   prometheus.ExponentialBuckets(1e-5, 2, 14),
		}),
		gatherer: reg,
	}
	reg.MustRegister(
		m.Frames, m.Beats,
		m.Scheduled, m.Dropped, m.Disposed,
		m.InFlight, m.KineticEnergy, m.StepSeconds,
	)
	return m
}

func (m *Metrics) Frame(step time.Duration, kinetic float64) {
	if m == nil {
		return
	}
	m.Frames.Inc()
	m.StepSeconds.Observe(step.Seconds())
	m.KineticEnergy.Set(kinetic)
}

func (m *Metrics) Beat() {
	if m == nil {
		return
	}
	m.Beats.Inc()
}

// GrainsScheduled, GrainsDropped and GrainsDisposed make *Metrics a
// synth.Observer. GrainsDisposed is called from the audio thread.

func (m *Metrics) GrainsScheduled(n int) {
	if m == nil {
		return
	}
	m.Scheduled.Add(float64(n))
	m.InFlight.Add(float64(n))
}

func (m *Metrics) GrainsDropped(n int) {
	if m == nil {
		return
	}
	m.Dropped.Add(float64(n))
}

func (m *Metrics) GrainsDisposed(n int) {
	if m == nil {
		return
	}
	m.Disposed.Add(float64(n))
	m.InFlight.Sub(float64(n))
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Serve runs the /metrics endpoint on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string, log *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("metrics endpoint listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
