package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/veriscope/veriscope/pkg/evaluation"
	"github.com/veriscope/veriscope/pkg/progression"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [content]",
	Short: "Run content through the three-stage credibility pipeline",
	Long: `Run a piece of text, a URL, or a single claim through preliminary
screening, fact-check verification, and context analysis, then print the
aggregated credibility verdict.

Pass --estimate with your own 0-100 credibility guess to have it graded, and
--user to record the analysis and earn XP for accurate estimates.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		contentType, _ := cmd.Flags().GetString("type")
		estimate, _ := cmd.Flags().GetInt("estimate")
		username, _ := cmd.Flags().GetString("user")
		asJSON, _ := cmd.Flags().GetBool("json")

		payload := args[0]
		if contentType == "auto" {
			contentType = "text"
			if strings.HasPrefix(payload, "http://") || strings.HasPrefix(payload, "https://") {
				contentType = "url"
			}
		}

		var estimatePtr *int
		if cmd.Flags().Changed("estimate") {
			estimatePtr = &estimate
		}

		runner, err := buildRunner(cmd)
		if err != nil {
			return err
		}

		item := evaluation.ContentItem{Type: evaluation.ContentType(contentType), Payload: payload}
		eval, err := runner.Run(cmd.Context(), item, estimatePtr)
		if err != nil {
			return err
		}

		var advance *progression.Result
		if username != "" {
			db, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.InsertAnalysis(cmd.Context(), username, *eval); err != nil {
				return err
			}
			res, err := db.ApplyAdvance(cmd.Context(), username, eval.Discrepancy)
			if err != nil {
				return err
			}
			advance = &res
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if advance != nil {
				return enc.Encode(struct {
					Evaluation  *evaluation.FinalEvaluation `json:"evaluation"`
					Progression *progression.Result         `json:"progression"`
				}{eval, advance})
			}
			return enc.Encode(eval)
		}

		printEvaluation(eval)
		if advance != nil {
			printAdvance(username, *advance)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringP("type", "t", "auto", "Content type: text, url, claim, or auto (treat http(s) input as url)")
	analyzeCmd.Flags().IntP("estimate", "e", 0, "Your credibility estimate (0-100), graded against the verdict")
	analyzeCmd.Flags().StringP("user", "u", "", "Record the analysis under this username and award XP")
	analyzeCmd.Flags().Bool("json", false, "Print the full evaluation as JSON")
	analyzeCmd.Flags().String("dbpath", "", "Path to SQLite DB file (default: veriscope.sqlite in CWD)")
}

func printEvaluation(eval *evaluation.FinalEvaluation) {
	marker := "✅"
	if eval.Verdict != evaluation.VerdictCredible {
		marker = "🚨"
	}
	fmt.Printf("%s %s  %d/100  (%s)\n", marker, eval.Verdict, eval.Aggregate, eval.ID)
	if eval.Excerpt != "" {
		fmt.Printf("Analyzed: %s\n", eval.Excerpt)
	}
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "STAGE\tSCORE\tSUMMARY\t")
	for _, r := range eval.Results {
		summary := r.Summary
		if r.Simulated {
			summary = strings.TrimSpace(summary + " [simulated]")
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t\n", r.Stage, r.Confidence, summary)
	}
	w.Flush()

	var seen bool
	for _, r := range eval.Results {
		for _, ev := range r.Evidence {
			if ev.URL == "" {
				continue
			}
			if !seen {
				fmt.Println("\nSources:")
				seen = true
			}
			title := ev.Title
			if title == "" {
				title = ev.Publisher
			}
			fmt.Printf("  %s  %s\n", title, ev.URL)
		}
	}

	if eval.UserEstimate != nil && eval.Discrepancy != nil {
		band := evaluation.DiscrepancyBand(*eval.Discrepancy)
		fmt.Printf("\nYour estimate: %d  (off by %d, %s discrepancy)\n", *eval.UserEstimate, *eval.Discrepancy, band)
	}
	if eval.Feedback != "" {
		fmt.Println(eval.Feedback)
	}
	if len(eval.Degraded) > 0 {
		fmt.Printf("⚠️  Simulated fallback used for: %s\n", strings.Join(eval.Degraded, ", "))
	}
}

func printAdvance(username string, res progression.Result) {
	fmt.Println()
	if res.Awarded > 0 {
		bonus := ""
		if res.Bonus > 0 {
			bonus = fmt.Sprintf(" (includes +%d accuracy bonus)", res.Bonus)
		}
		fmt.Printf("+%d XP for %s%s\n", res.Awarded, username, bonus)
	} else {
		fmt.Printf("No XP awarded: analysis was not graded against an estimate.\n")
	}
	if res.LevelUp {
		fmt.Printf("🎉 Level up! %s is now level %d.\n", username, res.Profile.Level)
	}
	if res.Progress.Needed > 0 {
		fmt.Printf("Level %d  %d/%d XP toward level %d\n", res.Profile.Level, res.Progress.Current, res.Progress.Needed, res.Profile.Level+1)
	} else {
		fmt.Printf("Level %d (max)  %d XP total\n", res.Profile.Level, res.Profile.XP)
	}
}
