package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mcpflow/mcpflow"
)

var multiAgent bool

var runCmd = &cobra.Command{
	Use:   "run [query]",
	Short: "Run a query through the agent workflow",
	Long: `Run a query through the agent workflow. With a query argument the workflow
executes once and prints the result; without one, an interactive prompt loop
starts. Pass --multi to drive the full multi-agent conversation instead of
the single-agent form.`,
	Args: cobra.ArbitraryArgs,
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

		if len(args) > 0 {
			query := strings.Join(args, " ")
			return runOnce(cmd, flow, query)
		}
		return runInteractive(cmd, flow)
	},
}

func runOnce(cmd *cobra.Command, flow *mcpflow.Flow, query string) error {
	ctx := cmd.Context()
	if multiAgent {
		printResult(cmd.OutOrStdout(), flow.RunMulti(ctx, query))
		return nil
	}
	printResult(cmd.OutOrStdout(), flow.Run(ctx, query))
	return nil
}

func runInteractive(cmd *cobra.Command, flow *mcpflow.Flow) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "mcpflow interactive mode. Type a query, or \"exit\" to leave.")

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, "mcpflow> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "exit", "quit":
			return nil
		}
		if err := runOnce(cmd, flow, line); err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
		}
	}
}

func init() {
	runCmd.Flags().BoolVar(&multiAgent, "multi", false, "run the multi-agent conversation")
}
