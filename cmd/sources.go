package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/veriscope/veriscope/pkg/sources"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Summarize the evidence sources cited by recent analyses",
	RunE: func(cmd *cobra.Command, _ []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		db, err := requireStore(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		evidence, err := db.ListEvidence(context.Background(), limit)
		if err != nil {
			return err
		}

		summary := sources.Collect(evidence)
		if len(summary.Publishers) == 0 && len(summary.Domains) == 0 {
			fmt.Println("No evidence sources recorded yet. Analyses verified against live fact checks populate this.")
			return nil
		}

		if len(summary.Publishers) > 0 {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight)
			fmt.Fprintln(w, "PUBLISHER\tREFERENCES\t")
			for _, t := range summary.Publishers {
				fmt.Fprintf(w, "%s\t%d\t\n", t.Name, t.Count)
			}
			w.Flush()
		}

		if len(summary.Domains) > 0 {
			fmt.Println()
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight)
			fmt.Fprintln(w, "DOMAIN\tREFERENCES\t")
			for _, t := range summary.Domains {
				fmt.Fprintf(w, "%s\t%d\t\n", t.Name, t.Count)
			}
			w.Flush()
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
	sourcesCmd.Flags().Int("limit", 200, "Number of recent analyses to scan for evidence")
	sourcesCmd.Flags().String("dbpath", "", "Path to SQLite DB file (default: veriscope.sqlite in CWD)")
}
