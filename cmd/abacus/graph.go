package main

import (
	"fmt"

	"github.com/aretw0/abacus"
	"github.com/aretw0/abacus/internal/presentation/graph"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Draw the input state machine as a Mermaid diagram",
	Long: `Probes the calculator with one key of every kind from each input mode and
prints the observed transitions as a Mermaid state diagram.
With --session the mode of a saved session is highlighted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transitions, err := graph.Explore(cmd.Context(), abacus.New())
		if err != nil {
			return err
		}

		var overlay *graph.GraphOverlay
		if sessionID, _ := cmd.Flags().GetString("session"); sessionID != "" {
			store, err := getStore(cmd)
			if err != nil {
				return err
			}
			state, err := store.Load(cmd.Context(), sessionID)
			if err != nil {
				return fmt.Errorf("error loading session '%s': %w", sessionID, err)
			}
			overlay = &graph.GraphOverlay{CurrentMode: state.Mode()}
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(transitions, overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)

	graphCmd.Flags().StringP("session", "s", "", "Highlight the mode of a saved session")
	graphCmd.Flags().String("dir", "", "Directory of saved sessions")
}
