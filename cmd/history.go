package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/veriscope/veriscope/pkg/storage"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent analyses (default 50)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		username, _ := cmd.Flags().GetString("user")
		verdict, _ := cmd.Flags().GetString("verdict")
		since, _ := cmd.Flags().GetString("since")

		opts := storage.ListOptions{Username: username, Verdict: verdict, Limit: limit}
		if since != "" {
			ts, err := time.Parse(time.RFC3339, since)
			if err != nil {
				return fmt.Errorf("invalid --since timestamp (want RFC3339): %w", err)
			}
			opts.Since = ts
		}

		db, err := requireStore(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		analyses, err := db.ListAnalyses(context.Background(), opts)
		if err != nil {
			return err
		}

		for _, a := range analyses {
			ts := a.CreatedAt.Format("2006-01-02 15:04:05")
			user := a.Username
			if user == "" {
				user = "-"
			}
			graded := ""
			if a.Discrepancy != nil {
				graded = fmt.Sprintf("  off_by=%d", *a.Discrepancy)
			}
			fmt.Printf("%s  %-8s  %3d/100  %-7s  %s  %s%s\n", ts, a.Verdict, a.Aggregate, a.ContentType, user, a.Excerpt, graded)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().String("dbpath", "", "Path to SQLite DB file (default: veriscope.sqlite in CWD)")
	historyCmd.Flags().Int("limit", 50, "Number of recent analyses to show")
	historyCmd.Flags().StringP("user", "u", "", "Only show analyses recorded by this user")
	historyCmd.Flags().String("verdict", "", "Only show analyses with this verdict (credible, suspect)")
	historyCmd.Flags().String("since", "", "Only show analyses since this RFC3339 timestamp")
}
