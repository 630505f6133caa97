package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/anyclick/anyclick/internal/config"
	"github.com/anyclick/anyclick/internal/payload"
)

var submitCmd = &cobra.Command{
	Use:   "submit <feedback.json>",
	Short: "Submit a feedback payload file through the configured adapters",
	Args:  cobra.ExactArgs(1),
	RunE:  runSubmit,
}

var submitCwd string

func init() {
	submitCmd.Flags().StringVarP(&submitCwd, "cwd", "d", ".", "Project directory")
	rootCmd.AddCommand(submitCmd)
}

func runSubmit(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read payload file: %w", err)
	}

	var fb payload.Feedback
	if err := json.Unmarshal(data, &fb); err != nil {
		return fmt.Errorf("invalid payload file: %w", err)
	}
	if err := fb.Validate(); err != nil {
		return err
	}

	cfg := config.LoadConfig(submitCwd)
	ad := buildAdapter(cfg)
	if ad == nil {
		return fmt.Errorf("no adapters configured in %s", config.ConfigFileName)
	}

	res := ad.Submit(cmd.Context(), &fb)
	if !res.Success {
		return fmt.Errorf("submission failed: %s", res.Error)
	}

	fmt.Printf("submitted: id=%s", res.ID)
	if res.URL != "" {
		fmt.Printf(" url=%s", res.URL)
	}
	fmt.Println()
	return nil
}
