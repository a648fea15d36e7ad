package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/doormap/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "doormap",
	Short: "Door-number coverage maps from a municipal address registry",
	Long:  "Scrapes a municipal address registry, prepares batch geocoding jobs, validates the geocoded doors and renders colored GeoJSON maps of meeting-point areas.",
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
