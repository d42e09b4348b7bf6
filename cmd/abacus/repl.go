package main

import (
	"os"

	"github.com/aretw0/abacus/internal/cli"
	"github.com/aretw0/abacus/internal/config"
	"github.com/aretw0/abacus/internal/logging"
	"github.com/spf13/cobra"
)

// replCmd represents the repl command
var replCmd = &cobra.Command{
	Use:     "repl",
	Aliases: []string{"run"},
	Short:   "Run the interactive calculator",
	Long: `Starts the calculator in the terminal. Type keys separated by spaces
("12+3 =", "90 sin", "mr"); type help for the full key list.
With --session the calculator is saved after every line and resumed on the next run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, _ := cmd.Flags().GetString("session")
		fresh, _ := cmd.Flags().GetBool("fresh")
		jsonMode, _ := cmd.Flags().GetBool("json")
		debug, _ := cmd.Flags().GetBool("debug")

		cfg, err := loadConfig(cmd, map[string]string{"dir": "session.dir"})
		if err != nil {
			return err
		}

		// Logs would interleave with the calculator on the terminal.
		logger := logging.NewNop()
		if debug {
			if logger, err = cli.NewLogger(config.LogConfig{Level: "debug", Format: cfg.Log.Format}); err != nil {
				return err
			}
		}

		return cli.RunREPL(cmd.Context(), cli.REPLOptions{
			SessionID:  sessionID,
			SessionDir: cfg.Session.Dir,
			Fresh:      fresh,
			JSON:       jsonMode,
			Encryption: cfg.Session.Encryption,
		}, logger, os.Stdin, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(replCmd)

	replCmd.Flags().StringP("session", "s", "", "Session ID to resume and save")
	replCmd.Flags().Bool("fresh", false, "Discard the stored session before starting")
	replCmd.Flags().Bool("json", false, "Run in JSON mode (JSON Lines input/output)")
	replCmd.Flags().Bool("debug", false, "Log engine events to stderr")
	replCmd.Flags().String("dir", "", "Directory of saved sessions")

	// The calculator is the default when no command is provided.
	rootCmd.RunE = replCmd.RunE
}
