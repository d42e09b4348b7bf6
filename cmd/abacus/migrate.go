package main

import (
	"fmt"

	"github.com/aretw0/abacus/internal/cli"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or upgrade the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, map[string]string{"db": "database.path"})
		if err != nil {
			return err
		}
		version, err := cli.Migrate(cmd.Context(), cfg.Database.Path)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Database %s ready (schema version %d)\n", cfg.Database.Path, version)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().String("db", "abacus.db", "SQLite database path")
}
