package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mcpflow/mcpflow/config"
	"github.com/mcpflow/mcpflow/logging"
)

var (
	cfgFile string
	verbose bool
	cfg     *config.Config
	logger  logging.Logger
	version = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "mcpflow",
	Short: "mcpflow - multi-server MCP tool orchestration",
	Long: `mcpflow coordinates conversational agents that call tools exposed by one or
more remote MCP servers, merges the results back into a running conversation,
and decides when the conversation is finished.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Commands that create or print static data run without a config file.
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		level := logging.ParseLevel(cfg.Logging.Level)
		if verbose {
			level = logging.LogLevelDebug
		}
		logger = logging.NewSlogLogger(level, cfg.Logging.Format, false)
		return nil
	},
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "mcpflow version %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "configuration file path (default: ./mcpflow.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging output")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(toolsCmd)
	rootCmd.AddCommand(configCmd)
}
