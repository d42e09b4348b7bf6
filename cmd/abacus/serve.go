package main

import (
	"github.com/aretw0/abacus/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Starts the calculator API: authentication, operation history and calculator
sessions over HTTP, with server-sent events for live session views.
Sessions and rate limits are kept in Redis when --redis-url is set.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, map[string]string{
			"host":      "server.host",
			"port":      "server.port",
			"db":        "database.path",
			"redis-url": "redis.url",
		})
		if err != nil {
			return err
		}
		logger, err := cli.NewLogger(cfg.Log)
		if err != nil {
			return err
		}

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		return cli.Serve(sigCtx, cfg, logger)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("host", "", "Interface to listen on")
	serveCmd.Flags().IntP("port", "p", 3001, "Port to listen on")
	serveCmd.Flags().String("db", "abacus.db", "SQLite database path")
	serveCmd.Flags().String("redis-url", "", "Redis URL for sessions and rate limits (redis://host:port/db)")
}
