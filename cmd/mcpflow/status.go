package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mcpflow/mcpflow"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show per-server connection health",
	RunE: func(cmd *cobra.Command, args []string) error {
		flow, err := mcpflow.New(cfg, func(o *mcpflow.Options) {
			o.Logger = logger
		})
		if err != nil {
			return err
		}
		defer flow.Close()

		ctx := cmd.Context()
		if err := flow.Init(ctx); err != nil {
			return fmt.Errorf("initialization failed: %w", err)
		}

		pool := flow.Orchestrator().Pool()
		if pool.Len() == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No servers connected.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SERVER\tURL\tCONNECTED\tHEALTHY")
		for _, c := range pool.Clients() {
			fmt.Fprintf(w, "%s\t%s\t%t\t%t\n",
				c.Name(), c.Config().URL, c.Connected(), c.Healthy(ctx))
		}
		return w.Flush()
	},
}
