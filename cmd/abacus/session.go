package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/abacus/internal/adapters/file"
	"github.com/aretw0/abacus/internal/cli"
	"github.com/aretw0/abacus/pkg/domain"
	"github.com/aretw0/abacus/pkg/ports"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage saved calculator sessions",
	Long:  `List, inspect, and remove the sessions saved by "abacus repl --session".`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List saved sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := getStore(cmd)
		if err != nil {
			return err
		}
		sessions, err := store.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("error listing sessions: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(sessions) == 0 {
			fmt.Fprintln(out, "No saved sessions found.")
			return nil
		}

		fmt.Fprintln(out, "Saved Sessions:")
		for _, s := range sessions {
			fmt.Fprintln(out, "- "+s)
		}
		return nil
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Inspect the state of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID := args[0]
		store, err := getStore(cmd)
		if err != nil {
			return err
		}

		state, err := store.Load(cmd.Context(), sessionID)
		if err != nil {
			return fmt.Errorf("error loading session '%s': %w", sessionID, err)
		}

		// Pretty print the state and what the display would show
		data, err := json.MarshalIndent(struct {
			State *domain.State `json:"state"`
			View  domain.View   `json:"view"`
		}{state, domain.Render(state)}, "", "  ")
		if err != nil {
			return fmt.Errorf("error marshaling state: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm [session-id...]",
	Short: "Remove one or more sessions",
	Args: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		if all != (len(args) == 0) {
			return errors.New("give session IDs or --all, not both")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := getStore(cmd)
		if err != nil {
			return err
		}
		if all, _ := cmd.Flags().GetBool("all"); all {
			if args, err = store.List(cmd.Context()); err != nil {
				return fmt.Errorf("error listing sessions: %w", err)
			}
		}

		out := cmd.OutOrStdout()
		var errs []error
		for _, sessionID := range args {
			if err := store.Delete(cmd.Context(), sessionID); err != nil {
				errs = append(errs, fmt.Errorf("error removing '%s': %w", sessionID, err))
				continue
			}
			fmt.Fprintf(out, "Removed session '%s'\n", sessionID)
		}
		return errors.Join(errs...)
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionInspectCmd)
	sessionCmd.AddCommand(sessionRmCmd)

	sessionCmd.PersistentFlags().String("dir", "", "Directory of saved sessions")
	sessionRmCmd.Flags().Bool("all", false, "Remove every saved session")
}

func getStore(cmd *cobra.Command) (ports.StateStore, error) {
	cfg, err := loadConfig(cmd, map[string]string{"dir": "session.dir"})
	if err != nil {
		return nil, err
	}
	return cli.SealStore(file.New(cfg.Session.Dir), cfg.Session.Encryption), nil
}
