package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/geoatlas/poifetch/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "poifetch",
	Short: "Fetch and cache points of interest from the Overpass API",
	Long:  "Queries the Overpass API for points of interest across geographic regions, splitting each region into subareas, retrying transient failures, and caching results per calendar day.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
