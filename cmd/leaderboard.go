package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Show the top users ranked by XP",
	RunE: func(cmd *cobra.Command, _ []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		db, err := requireStore(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		entries, err := db.Leaderboard(context.Background(), limit)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No users in the database yet.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight)
		fmt.Fprintln(w, "RANK\tUSER\tLEVEL\tXP\tANALYSES\tACCURACY\t")
		for _, e := range entries {
			fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%d\t%.1f%%\t\n", e.Rank, e.Username, e.Level, e.XP, e.TotalAnalyses, e.AvgAccuracy)
		}
		w.Flush()

		return nil
	},
}

func init() {
	rootCmd.AddCommand(leaderboardCmd)
	leaderboardCmd.Flags().Int("limit", 10, "Number of users to show")
	leaderboardCmd.Flags().String("dbpath", "", "Path to SQLite DB file (default: veriscope.sqlite in CWD)")
}
