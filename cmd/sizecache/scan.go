package main

import (
	"fmt"
	"log/slog"

	"github.com/IvanBrykalov/sizecache/cache"
	"github.com/IvanBrykalov/sizecache/internal/fsmeta"
	"github.com/IvanBrykalov/sizecache/internal/logging"
	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var scanPasses int

var scanCmd = &cobra.Command{
	Use:   "scan <dir>",
	Short: "Walk a directory through the metadata cache",
	Long: `Walk a directory several times, stat'ing every path through the file
metadata cache, and report how many lookups the cache served. With a cache
smaller than the tree, later passes show LRU eviction at work.`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	if scanPasses < 1 {
		return fmt.Errorf("--passes must be >= 1: %d", scanPasses)
	}
	log := logging.WithModule("fsmeta")
	reg, metrics := newMetrics("scan", nil)
	stop := serveMetrics(reg, cfg.Metrics.Addr, log)
	defer stop()

	store := newScanStore(afero.NewReadOnlyFs(afero.NewOsFs()), metrics, log)
	defer store.Close()

	out := cmd.OutOrStdout()
	for pass := 1; pass <= scanPasses; pass++ {
		rep, err := store.Scan(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "pass %d: files=%s dirs=%s bytes=%s hits=%s misses=%s hit-rate=%.2f%%\n",
			pass,
			humanize.Comma(int64(rep.Files)),
			humanize.Comma(int64(rep.Dirs)),
			humanize.Bytes(uint64(rep.Bytes)),
			humanize.Comma(int64(rep.Hits)),
			humanize.Comma(int64(rep.Misses)),
			rep.HitRate()*100,
		)
	}
	c := store.Cache()
	fmt.Fprintf(out, "cache: entries=%s size=%s/%s units\n",
		humanize.Comma(int64(c.Len())),
		humanize.Comma(c.Size()),
		humanize.Comma(c.MaxSize()),
	)
	return nil
}

func newScanStore(fsys afero.Fs, m cache.Metrics, log *slog.Logger) *fsmeta.Store {
	return fsmeta.New(fsys, fsmeta.Options{
		MaxSize:       cfg.Cache.MaxSize,
		Shards:        cfg.Cache.Shards,
		UnitsPerEntry: cfg.Cache.UnitsPerEntry,
		Metrics:       m,
		Logger:        log,
		Strict:        cfg.Cache.Strict,
	})
}

func init() {
	scanCmd.Flags().IntVar(&scanPasses, "passes", 2, "number of walks over the directory")
	RootCmd.AddCommand(scanCmd)
}
