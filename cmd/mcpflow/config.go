package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mcpflow/mcpflow/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or create configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration with secrets masked",
	RunE: func(cmd *cobra.Command, args []string) error {
		masked := *cfg
		masked.LLM.APIKey = maskSecret(masked.LLM.APIKey)

		// Copy the slice so masking never touches the loaded config.
		masked.MCP.Servers = append(masked.MCP.Servers[:0:0], masked.MCP.Servers...)
		for i := range masked.MCP.Servers {
			masked.MCP.Servers[i].APIKey = maskSecret(masked.MCP.Servers[i].APIKey)
		}

		out, err := yaml.Marshal(&masked)
		if err != nil {
			return fmt.Errorf("render configuration: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), string(out))
		return nil
	},
}

var configInitPath string

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.WriteStarter(configInitPath); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote starter configuration to %s\n", configInitPath)
		return nil
	},
}

func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	return "********"
}

func init() {
	configInitCmd.Flags().StringVarP(&configInitPath, "output", "o", "mcpflow.yaml", "path for the starter file")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}
