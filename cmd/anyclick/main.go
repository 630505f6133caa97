package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "anyclick",
	Short: "Right-click feedback capture for web apps",
	Long: `Anyclick runs a local server that instrumented pages talk to:
right-click feedback is captured with element context and screenshots,
then routed to the configured destinations (GitHub, Jira, webhooks,
Cursor agents) or straight into a local cursor-agent session.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the anyclick version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("anyclick v%s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
