// Package metrics provides Prometheus metrics for the terminal and patch engine.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	commandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vterm_commands_total",
			Help: "Total number of shell commands executed",
		},
		[]string{"command", "outcome"},
	)

	patchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vterm_patches_total",
			Help: "Total number of patches resolved, by outcome",
		},
		[]string{"outcome"},
	)

	patchApplyDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vterm_patch_apply_duration_seconds",
			Help:    "Time to type and persist one patch",
			Buckets: prometheus.DefBuckets,
		},
	)

	syncsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vterm_syncs_total",
			Help: "Total number of project mirror rebuilds",
		},
		[]string{"outcome"},
	)

	aiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vterm_ai_requests_total",
			Help: "Total number of completion requests",
		},
		[]string{"provider", "outcome"},
	)
)

// ObserveCommand records one executed command.
func ObserveCommand(command, outcome string) {
	commandsTotal.WithLabelValues(command, outcome).Inc()
}

// ObservePatch records a patch leaving the pending set. Duration is only
// recorded for applied patches.
func ObservePatch(outcome string, d time.Duration) {
	patchesTotal.WithLabelValues(outcome).Inc()
	if outcome == "applied" {
		patchApplyDuration.Observe(d.Seconds())
	}
}

// ObserveSync records a project mirror rebuild.
func ObserveSync(ok bool) {
	syncsTotal.WithLabelValues(status(ok)).Inc()
}

// ObserveAIRequest records a completion request.
func ObserveAIRequest(provider string, ok bool) {
	aiRequestsTotal.WithLabelValues(provider, status(ok)).Inc()
}

func status(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
