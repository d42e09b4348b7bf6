package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/aretw0/abacus/internal/cli"
	"github.com/aretw0/abacus/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "abacus",
	Short: "Abacus is a keystroke-driven scientific calculator",
	Long: `Abacus turns key presses into expressions, evaluates them and formats the result
for a narrow display. Run it as an interactive calculator, a REST API with
authentication and history, or an MCP server for AI agents.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		// Failed calculations are already printed.
		if !errors.Is(err, cli.ErrCalculationFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", os.Getenv("ABACUS_CONFIG"), "Path to a YAML or JSON config file")
	rootCmd.PersistentFlags().String("env", "", "Environment: development, test or production")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: text or json")
}

// globalFlags maps the persistent flags to config keys.
var globalFlags = map[string]string{
	"env":        "env",
	"log-level":  "log.level",
	"log-format": "log.format",
}

// loadConfig merges defaults, the config file, the environment and every
// flag the user set explicitly. flags maps command flags to config keys.
func loadConfig(cmd *cobra.Command, flags map[string]string) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	overrides := map[string]any{}
	for _, m := range []map[string]string{globalFlags, flags} {
		for name, key := range m {
			if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
				overrides[key] = f.Value.String()
			}
		}
	}
	return config.Loader{Path: path, Overrides: overrides}.Load()
}
