package main

import (
	"errors"
	"log/slog"
	"net/http"

	pmet "github.com/IvanBrykalov/sizecache/metrics/prom"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// newMetrics registers a cache metrics adapter on a fresh registry.
// metrics.subsystem overrides the command's default subsystem.
func newMetrics(defaultSub string, labels prometheus.Labels) (*prometheus.Registry, *pmet.Adapter) {
	sub := cfg.Metrics.Subsystem
	if sub == "" {
		sub = defaultSub
	}
	reg := prometheus.NewRegistry()
	return reg, pmet.New(reg, cfg.Metrics.Namespace, sub, labels)
}

// serveMetrics exposes reg at addr/metrics. An empty addr serves nothing.
// The returned func shuts the server down.
func serveMetrics(reg *prometheus.Registry, addr string, log *slog.Logger) (stop func()) {
	if addr == "" {
		return func() {}
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		log.Info("metrics: serving", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn("metrics server stopped", "err", err)
		}
	}()
	return func() { _ = srv.Close() }
}
