package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Send a toast notification to all connected pages",
	Long: `Send a toast notification displayed on every page connected to the
local anyclick server.

This is typically called by hook scripts to surface build or agent
status in the browser.`,
	Run: runNotify,
}

var (
	notifyType    string
	notifyTitle   string
	notifyMessage string
	notifyPort    int
)

func init() {
	notifyCmd.Flags().StringVar(&notifyType, "type", "info", "Notification type (success, error, warning, info)")
	notifyCmd.Flags().StringVar(&notifyTitle, "title", "", "Notification title")
	notifyCmd.Flags().StringVar(&notifyMessage, "message", "", "Notification message")
	notifyCmd.Flags().IntVarP(&notifyPort, "port", "p", 3284, "Local server port")

	rootCmd.AddCommand(notifyCmd)
}

func runNotify(cmd *cobra.Command, args []string) {
	if notifyMessage == "" {
		fmt.Fprintln(os.Stderr, "Error: --message required")
		os.Exit(1)
	}

	body, _ := json.Marshal(map[string]string{
		"type":    notifyType,
		"title":   notifyTitle,
		"message": notifyMessage,
	})

	url := fmt.Sprintf("http://localhost:%d/api/anyclick/notify", notifyPort)
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		// Server not running - silently exit (don't block hooks)
		os.Exit(0)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "notify failed: %s\n", resp.Status)
		os.Exit(1)
	}
}
