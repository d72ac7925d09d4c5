package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pthm-cable/terrarium/config"
)

func validateConfigCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "validate-config",
		Short: "Load and validate a config YAML file without starting the engine",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if err := config.Validate(cfg); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			fmt.Printf("config valid: tick_ms=%d seed=%d tick_duration=%.3fs\n",
				cfg.TickMs, cfg.Seed, cfg.Derived.TickDuration)
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "config YAML file (empty = embedded defaults)")
	return cmd
}
