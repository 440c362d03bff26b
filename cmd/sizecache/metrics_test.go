package main

import (
	"context"
	"log/slog"
	"testing"

	"github.com/IvanBrykalov/sizecache/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// metricValue sums every series of the named metric family.
func metricValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		var sum float64
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				sum += m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				sum += m.GetGauge().GetValue()
			}
		}
		return sum
	}
	t.Fatalf("metric %q not registered", name)
	return 0
}

func TestNewMetrics_Subsystem(t *testing.T) {
	path := writeConfig(t, "cache:\n  max_size: 10\n")

	var err error
	cfg, err = config.Load(path)
	require.NoError(t, err)
	reg, m := newMetrics("bench", nil)
	m.Hit()
	assert.Equal(t, 1.0, metricValue(t, reg, "sizecache_bench_hits_total"))

	t.Setenv("SIZECACHE_METRICS_SUBSYSTEM", "thumbs")
	cfg, err = config.Load(path)
	require.NoError(t, err)
	reg, m = newMetrics("bench", nil)
	m.Miss()
	assert.Equal(t, 1.0, metricValue(t, reg, "sizecache_thumbs_misses_total"))
}

func TestScanStore_ExportsMetrics(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, fsys.MkdirAll("/d", 0o755))
	for _, p := range []string{"/d/a", "/d/b", "/d/c"} {
		require.NoError(t, afero.WriteFile(fsys, p, []byte("x"), 0o644))
	}
	cfg = &config.Config{
		Cache:   config.CacheConfig{MaxSize: 2, Shards: 1, UnitsPerEntry: 1, Strict: true},
		Metrics: config.MetricsConfig{Namespace: "sizecache"},
	}
	reg, m := newMetrics("scan", nil)
	store := newScanStore(fsys, m, slog.New(slog.DiscardHandler))
	defer store.Close()

	// Four paths cycled through two slots: every lookup misses.
	for i := 0; i < 2; i++ {
		_, err := store.Scan(context.Background(), "/d")
		require.NoError(t, err)
	}
	assert.Equal(t, 0.0, metricValue(t, reg, "sizecache_scan_hits_total"))
	assert.Equal(t, 8.0, metricValue(t, reg, "sizecache_scan_misses_total"))
	assert.Equal(t, 6.0, metricValue(t, reg, "sizecache_scan_evictions_total"))
	assert.Equal(t, 2.0, metricValue(t, reg, "sizecache_scan_size_units"))
}
