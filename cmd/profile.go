package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/veriscope/veriscope/pkg/progression"
	"github.com/veriscope/veriscope/pkg/storage"
)

var profileCmd = &cobra.Command{
	Use:   "profile [username]",
	Short: "Show a user's level, XP, and estimate accuracy",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := requireStore(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		p, err := db.GetProfile(context.Background(), args[0])
		if err != nil {
			if errors.Is(err, storage.ErrProfileNotFound) {
				return fmt.Errorf("no profile for %q yet. Run 'veriscope analyze --user %s' first", args[0], args[0])
			}
			return err
		}

		progress := progression.ProgressAt(p.XP)
		fmt.Printf("User:           %s\n", p.Username)
		fmt.Printf("Level:          %d of %d\n", p.Level, progression.MaxLevel)
		fmt.Printf("XP:             %d\n", p.XP)
		if progress.Needed > 0 {
			fmt.Printf("Next level:     %d/%d XP\n", progress.Current, progress.Needed)
		} else {
			fmt.Printf("Next level:     max level reached\n")
		}
		fmt.Printf("Analyses:       %d\n", p.TotalAnalyses)
		fmt.Printf("Avg. accuracy:  %.1f%%\n", p.AvgAccuracy)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.Flags().String("dbpath", "", "Path to SQLite DB file (default: veriscope.sqlite in CWD)")
}
