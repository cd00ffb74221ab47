// Package app provides the command surface of the catalog aggregator.
package app

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/quartus-community/de-catalog/internal/versions"
)

var rootCmd = &cobra.Command{
	Use:               "de-catalog",
	Version:           versions.Version,
	DisableAutoGenTag: true,
	Short:             "Aggregate published design examples into one catalog",
	Long: `de-catalog consolidates design example metadata published across GitHub
repository releases and legacy JSON endpoints into a single catalog file,
rewriting download and image references and merging manual controller
overrides. The catalog is only rewritten when its content changed.`,
	SilenceUsage: true,
	RunE:         runAggregate,
}

// NewRootCmd creates the root command for the aggregator.
func NewRootCmd() *cobra.Command {
	flags := rootCmd.Flags()
	flags.String("config", "de-catalog.yaml", "Path to the YAML configuration file")
	flags.String("output", "", "Override the catalog output path")
	flags.String("controller", "", "Override the controller file path")
	flags.String("sources", "", "Override the predefined source URL file path")

	for _, name := range []string{"config", "output", "controller", "sources"} {
		if err := viper.BindPFlag(name, flags.Lookup(name)); err != nil {
			slog.Error("Error binding flag", "flag", name, "error", err)
		}
	}

	rootCmd.AddCommand(versionCmd)

	return rootCmd
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		info := versions.GetVersionInfo()
		format, err := cmd.Flags().GetString("format")
		if err != nil {
			slog.Error("Error retrieving format flag", "error", err)
			return
		}

		if format == "json" {
			output, err := json.MarshalIndent(info, "", "  ")
			if err != nil {
				slog.Error("Error formatting version info as JSON", "error", err)
				return
			}
			fmt.Println(string(output))
		} else {
			slog.Info("de-catalog version",
				"version", info.Version,
				"commit", info.Commit,
				"built", info.BuildDate,
				"go", info.GoVersion,
				"platform", info.Platform)
		}
	},
}

func init() {
	versionCmd.Flags().String("format", "", "Output format (json)")
}
