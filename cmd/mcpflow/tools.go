package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mcpflow/mcpflow"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the discovered tool catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		flow, err := mcpflow.New(cfg, func(o *mcpflow.Options) {
			o.Logger = logger
		})
		if err != nil {
			return err
		}
		defer flow.Close()

		if err := flow.Init(cmd.Context()); err != nil {
			return fmt.Errorf("initialization failed: %w", err)
		}

		snapshot := flow.Orchestrator().Catalog().Current()
		entries := snapshot.Entries()
		if len(entries) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No tools discovered.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SERVER\tTOOL\tAVAILABLE\tDESCRIPTION")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", e.Server, e.Name, e.Available, e.Description)
		}
		return w.Flush()
	},
}
