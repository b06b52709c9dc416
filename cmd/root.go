// Package cmd contains the CLI commands for the agent gateway.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "agentgate",
	Short: "agentgate - HTTP gateway for AI chat and search agents",
	Long: `agentgate exposes chat and web-search AI agents over a JSON HTTP API,
with bearer-token authentication and persisted conversation history.

Run "agentgate serve" to start the HTTP server.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
