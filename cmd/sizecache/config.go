package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to encode configuration: %w", err)
		}
		if cfg.File != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "# source: %s\n", cfg.File)
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

func init() {
	RootCmd.AddCommand(configCmd)
}
