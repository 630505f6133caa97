package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/anyclick/anyclick/internal/adapter"
	"github.com/anyclick/anyclick/internal/archive"
	"github.com/anyclick/anyclick/internal/config"
	"github.com/anyclick/anyclick/internal/debug"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived feedback submissions, newest first",
	RunE:  runList,
}

var resendCmd = &cobra.Command{
	Use:   "resend <id>",
	Short: "Re-submit an archived feedback record through the configured adapters",
	Args:  cobra.ExactArgs(1),
	RunE:  runResend,
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete archived feedback records older than a cutoff",
	RunE:  runPrune,
}

var (
	listCwd   string
	listLimit int

	resendCwd string

	pruneCwd       string
	pruneOlderThan time.Duration
)

func init() {
	listCmd.Flags().StringVarP(&listCwd, "cwd", "d", ".", "Project directory")
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 20, "Max records to show (0 for all)")

	resendCmd.Flags().StringVarP(&resendCwd, "cwd", "d", ".", "Project directory")

	pruneCmd.Flags().StringVarP(&pruneCwd, "cwd", "d", ".", "Project directory")
	pruneCmd.Flags().DurationVar(&pruneOlderThan, "older-than", 30*24*time.Hour, "Delete records older than this")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(resendCmd)
	rootCmd.AddCommand(pruneCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	arch := archive.New(listCwd)
	recs, err := arch.List(listLimit)
	if err != nil {
		return fmt.Errorf("failed to list archive: %w", err)
	}
	if len(recs) == 0 {
		fmt.Println("no archived feedback")
		return nil
	}
	for _, rec := range recs {
		fmt.Println(formatRecord(rec))
	}
	return nil
}

// formatRecord renders one archive line: id, time, type, outcome,
// target selector.
func formatRecord(rec *archive.Record) string {
	status := "ok"
	if !rec.Result.Success {
		status = "failed"
	}
	return fmt.Sprintf("%s  %s  %-7s  %-6s  %s",
		rec.Feedback.ID,
		rec.ArchivedAt.Format("2006-01-02 15:04"),
		rec.Feedback.Type,
		status,
		rec.Feedback.Element.Selector)
}

func runResend(cmd *cobra.Command, args []string) error {
	cfg := config.LoadConfig(resendCwd)
	ad := buildAdapter(cfg)
	if ad == nil {
		return fmt.Errorf("no adapters configured in %s", config.ConfigFileName)
	}

	res, err := resendRecord(cmd.Context(), archive.New(resendCwd), ad, args[0])
	if err != nil {
		return err
	}
	if !res.Success {
		return fmt.Errorf("resend failed: %s", res.Error)
	}

	fmt.Printf("resent: id=%s", res.ID)
	if res.URL != "" {
		fmt.Printf(" url=%s", res.URL)
	}
	fmt.Println()
	return nil
}

// resendRecord loads an archived record, submits it again, and archives
// the new outcome alongside the old one.
func resendRecord(ctx context.Context, arch *archive.Archive, ad adapter.Adapter, id string) (adapter.Result, error) {
	rec, err := arch.Get(id)
	if err != nil {
		return adapter.Result{}, err
	}

	res := ad.Submit(ctx, rec.Feedback)
	if res.Success {
		if err := arch.Save(rec.Feedback, res); err != nil {
			debug.Warn("archive", "failed to archive resend of %s: %v", id, err)
		}
	}
	return res, nil
}

func runPrune(cmd *cobra.Command, args []string) error {
	arch := archive.New(pruneCwd)
	removed, err := arch.Prune(time.Now().Add(-pruneOlderThan))
	if err != nil {
		return fmt.Errorf("failed to prune archive: %w", err)
	}
	fmt.Printf("removed %d record(s)\n", removed)
	return nil
}
