package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Prints statistics about the analyses and news in the database.",
	Long:  "Prints statistics about the analyses and news in the database.",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := requireStore(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats(context.Background())
		if err != nil {
			return err
		}

		if stats.TotalAnalyses == 0 && stats.TotalNews == 0 {
			fmt.Println("No data in the database to generate stats.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight)
		fmt.Fprintln(w, "METRIC\tVALUE\t")
		fmt.Fprintf(w, "Analyses\t%d\t\n", stats.TotalAnalyses)
		fmt.Fprintf(w, "Graded\t%d\t\n", stats.GradedAnalyses)
		fmt.Fprintf(w, "Degraded\t%d\t\n", stats.DegradedAnalyses)
		fmt.Fprintf(w, "Users\t%d\t\n", stats.TotalUsers)
		fmt.Fprintf(w, "News items\t%d\t\n", stats.TotalNews)
		if stats.TotalAnalyses > 0 {
			fmt.Fprintf(w, "Avg. aggregate\t%.1f\t\n", stats.AvgAggregate)
		}
		if stats.GradedAnalyses > 0 {
			fmt.Fprintf(w, "Avg. discrepancy\t%.1f\t\n", stats.AvgDiscrepancy)
		}
		w.Flush()

		if len(stats.VerdictCounts) > 0 {
			verdicts := make([]string, 0, len(stats.VerdictCounts))
			for v := range stats.VerdictCounts {
				verdicts = append(verdicts, v)
			}
			sort.Strings(verdicts)

			fmt.Println()
			w = tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight)
			fmt.Fprintln(w, "VERDICT\tCOUNT\t")
			for _, v := range verdicts {
				fmt.Fprintf(w, "%s\t%d\t\n", v, stats.VerdictCounts[v])
			}
			w.Flush()
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().String("dbpath", "", "Path to SQLite DB file (default: veriscope.sqlite in CWD)")
}
