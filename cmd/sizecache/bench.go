package main

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof/* on DefaultServeMux
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/IvanBrykalov/sizecache/cache"
	"github.com/IvanBrykalov/sizecache/internal/config"
	"github.com/IvanBrykalov/sizecache/internal/logging"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var benchFlags struct {
	workers     int
	duration    time.Duration
	readPct     int
	keys        int
	zipfS       float64
	zipfV       float64
	seed        int64
	preload     int
	maxItemSize int64
	pprofAddr   string
	metricsAddr string
}

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Run a synthetic Zipf workload against the cache",
	Long: `Run a mixed read/write workload with Zipf-distributed keys against a
sharded cache. Writes carry random weights in [1, max-item-size], so the cache
is bounded by size units rather than entry count. Optional pprof and
Prometheus /metrics endpoints are served while the run lasts.`,
	RunE: runBench,
}

type benchResult struct {
	ops, reads, writes, hits, misses, rejects atomic.Uint64
}

func runBench(cmd *cobra.Command, args []string) error {
	bc := cfg.Bench
	applyBenchFlags(cmd, &bc)
	if err := (&config.Config{Cache: cfg.Cache, Log: cfg.Log, Bench: bc}).Validate(); err != nil {
		return err
	}
	if bc.Workers <= 0 {
		bc.Workers = 2 * runtime.GOMAXPROCS(0)
	}
	if bc.Seed == 0 {
		bc.Seed = time.Now().UnixNano()
	}

	runID := uuid.NewString()
	log := logging.WithModule("bench").With("run_id", runID)

	reg, metrics := newMetrics("bench", prometheus.Labels{"run_id": runID})

	if bc.PprofAddr != "" {
		go func() {
			log.Info("pprof: serving", "addr", bc.PprofAddr)
			if err := http.ListenAndServe(bc.PprofAddr, nil); err != nil {
				log.Warn("pprof server stopped", "err", err)
			}
		}()
	}
	stop := serveMetrics(reg, metricsAddr(), log)
	defer stop()

	c := cache.NewSharded(cache.Options[string, string]{
		MaxSize: cfg.Cache.MaxSize,
		Shards:  cfg.Cache.Shards,
		Metrics: metrics,
		Logger:  log,
		Strict:  cfg.Cache.Strict,
	})
	defer func() { _ = c.Close() }()

	// Preload half the capacity to get a realistic hit-rate.
	pl := bc.Preload
	if pl == 0 {
		pl = int(cfg.Cache.MaxSize / 2)
	}
	for i := 0; i < pl; i++ {
		c.Put("k:"+strconv.Itoa(i), "v"+strconv.Itoa(i))
	}

	log.Info("bench started",
		"max_size", cfg.Cache.MaxSize, "shards", c.Shards(), "workers", bc.Workers,
		"keys", bc.Keys, "duration", bc.Duration, "seed", bc.Seed)

	ctx, cancel := context.WithTimeout(cmd.Context(), bc.Duration)
	defer cancel()

	var res benchResult
	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < bc.Workers; w++ {
		id := w
		g.Go(func() error {
			runWorker(gctx, c, bc, id, &res)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	elapsed := time.Since(start)

	printBenchReport(cmd, c, bc, elapsed, &res)
	return nil
}

// runWorker issues operations until ctx is done. Each worker owns its RNG
// and Zipf source; rand.Rand is not goroutine-safe.
func runWorker(ctx context.Context, c *cache.Sharded[string, string], bc config.BenchConfig, id int, res *benchResult) {
	r := rand.New(rand.NewSource(bc.Seed + int64(id)*9973))
	zipf := rand.NewZipf(r, bc.ZipfS, bc.ZipfV, uint64(bc.Keys-1))
	key := func() string { return "k:" + strconv.FormatUint(zipf.Uint64(), 10) }

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res.ops.Add(1)
		if int(r.Int31n(100)) < bc.ReadPct {
			res.reads.Add(1)
			if _, ok := c.Get(key()); ok {
				res.hits.Add(1)
			} else {
				res.misses.Add(1)
			}
			continue
		}
		res.writes.Add(1)
		size := 1 + r.Int63n(bc.MaxItemSize)
		if !c.PutSized(key(), "v"+strconv.Itoa(r.Int()), size) {
			res.rejects.Add(1)
		}
	}
}

func printBenchReport(cmd *cobra.Command, c *cache.Sharded[string, string], bc config.BenchConfig, elapsed time.Duration, res *benchResult) {
	ops := res.ops.Load()
	reads := res.reads.Load()
	hits := res.hits.Load()

	hitRate := 0.0
	if reads > 0 {
		hitRate = float64(hits) / float64(reads) * 100
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "max_size=%d shards=%d workers=%d keys=%d dur=%v seed=%d\n",
		cfg.Cache.MaxSize, c.Shards(), bc.Workers, bc.Keys, elapsed.Round(time.Millisecond), bc.Seed)
	fmt.Fprintf(out, "ops=%s (%s ops/s)  reads=%s  writes=%s  rejects=%s\n",
		humanize.Comma(int64(ops)),
		humanize.Comma(int64(float64(ops)/elapsed.Seconds())),
		humanize.Comma(int64(reads)),
		humanize.Comma(int64(res.writes.Load())),
		humanize.Comma(int64(res.rejects.Load())),
	)
	fmt.Fprintf(out, "hits=%s  misses=%s  hit-rate=%.2f%%\n",
		humanize.Comma(int64(hits)), humanize.Comma(int64(res.misses.Load())), hitRate)
	st := c.Stats()
	fmt.Fprintf(out, "Len()=%d  Size()=%d  evictions=%s\n", c.Len(), c.Size(), humanize.Comma(st.Evictions))
}

// applyBenchFlags overrides config values with flags set on the command line.
func applyBenchFlags(cmd *cobra.Command, bc *config.BenchConfig) {
	f := cmd.Flags()
	if f.Changed("workers") {
		bc.Workers = benchFlags.workers
	}
	if f.Changed("duration") {
		bc.Duration = benchFlags.duration
	}
	if f.Changed("reads") {
		bc.ReadPct = benchFlags.readPct
	}
	if f.Changed("keys") {
		bc.Keys = benchFlags.keys
	}
	if f.Changed("zipf-s") {
		bc.ZipfS = benchFlags.zipfS
	}
	if f.Changed("zipf-v") {
		bc.ZipfV = benchFlags.zipfV
	}
	if f.Changed("seed") {
		bc.Seed = benchFlags.seed
	}
	if f.Changed("preload") {
		bc.Preload = benchFlags.preload
	}
	if f.Changed("max-item-size") {
		bc.MaxItemSize = benchFlags.maxItemSize
	}
	if f.Changed("pprof") {
		bc.PprofAddr = benchFlags.pprofAddr
	}
}

func metricsAddr() string {
	if benchFlags.metricsAddr != "" {
		return benchFlags.metricsAddr
	}
	return cfg.Metrics.Addr
}

func init() {
	f := benchCmd.Flags()
	f.IntVar(&benchFlags.workers, "workers", 0, "number of worker goroutines (0 = 2*GOMAXPROCS)")
	f.DurationVar(&benchFlags.duration, "duration", 10*time.Second, "benchmark duration")
	f.IntVar(&benchFlags.readPct, "reads", 80, "read percentage [0..100]")
	f.IntVar(&benchFlags.keys, "keys", 1_000_000, "keyspace size")
	f.Float64Var(&benchFlags.zipfS, "zipf-s", 1.1, "Zipf s > 1 (skew)")
	f.Float64Var(&benchFlags.zipfV, "zipf-v", 1.0, "Zipf v")
	f.Int64Var(&benchFlags.seed, "seed", 0, "random seed (0 = time based)")
	f.IntVar(&benchFlags.preload, "preload", 0, "preload entries (0 = max-size/2)")
	f.Int64Var(&benchFlags.maxItemSize, "max-item-size", 1, "maximum weight of a written entry")
	f.StringVar(&benchFlags.pprofAddr, "pprof", "", "serve pprof at addr (e.g. :6060); empty = disabled")
	f.StringVar(&benchFlags.metricsAddr, "http", "", "serve Prometheus metrics at addr; overrides metrics.addr")
	RootCmd.AddCommand(benchCmd)
}
