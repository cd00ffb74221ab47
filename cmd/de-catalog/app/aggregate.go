package app

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/quartus-community/de-catalog/internal/aggregate"
	"github.com/quartus-community/de-catalog/internal/config"
)

// runAggregate loads the configuration, applies flag overrides and executes
// one aggregation run. Any error yields a non-zero exit code.
func runAggregate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	slog.Info("Starting design example aggregation",
		"output", cfg.Output,
		"sources_file", cfg.SourcesFile)

	manager := aggregate.NewDefaultManager(cfg)
	result, err := manager.Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("aggregation failed: %w", err)
	}

	slog.Info("Total consolidated design examples",
		"count", result.Items,
		"issues", len(result.Issues))
	return nil
}

// loadConfig loads the YAML configuration and applies flag overrides. An
// explicitly passed --config must exist; the default path is optional.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath := viper.GetString("config")

	opt := config.WithConfigPath(configPath)
	if cmd.Flags().Changed("config") {
		opt = config.WithRequiredConfigPath(configPath)
	}

	cfg, err := config.LoadConfig(opt)
	if err != nil {
		return nil, err
	}

	if v := viper.GetString("output"); v != "" {
		cfg.Output = v
	}
	if v := viper.GetString("controller"); v != "" {
		cfg.Controller = v
	}
	if v := viper.GetString("sources"); v != "" {
		cfg.SourcesFile = v
	}
	return cfg, nil
}
