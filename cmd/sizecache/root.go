package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/IvanBrykalov/sizecache/internal/config"
	"github.com/IvanBrykalov/sizecache/internal/logging"
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string
	cfg      *config.Config
)

var RootCmd = &cobra.Command{
	Use:   "sizecache",
	Short: "Size-bounded LRU cache toolkit",
	Long: `sizecache exercises a size-bounded least-recently-used cache of the kind a
file manager keeps for file metadata and thumbnails. Capacity is measured in
abstract size units; every entry carries a weight.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if logLevel != "" {
			cfg.Log.Level = logLevel
		}
		lvl, err := logging.ParseLevel(cfg.Log.Level)
		if err != nil {
			return err
		}
		logging.SetLevel(lvl)
		if cfg.File != "" {
			logging.Debug("configuration loaded", "file", cfg.File)
		}
		return nil
	},
}

// Execute runs the root command; SIGINT cancels the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return RootCmd.ExecuteContext(ctx)
}

func init() {
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "configuration file path (default: ./sizecache.yaml or ~/.sizecache/sizecache.yaml)")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
}
