package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/veriscope/veriscope/internal/utils"
	"github.com/veriscope/veriscope/pkg/news"
	"github.com/veriscope/veriscope/pkg/storage"
)

var newsCmd = &cobra.Command{
	Use:   "news",
	Short: "List cached fact-checked news items (default 50)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		verdict, _ := cmd.Flags().GetString("verdict")
		language, _ := cmd.Flags().GetString("language")
		search, _ := cmd.Flags().GetString("search")
		limit, _ := cmd.Flags().GetInt("limit")

		db, err := requireStore(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		items, err := db.ListNews(context.Background(), storage.NewsOptions{
			Verdict:  verdict,
			Language: language,
			Search:   search,
			Limit:    limit,
		})
		if err != nil {
			return err
		}

		for _, it := range items {
			ts := it.FetchedAt.Format("2006-01-02 15:04")
			fmt.Printf("%s  %-10s  [%s]  %s: %s\n", ts, it.Verdict, it.Language, it.Publisher, it.Title)
			fmt.Printf("    %s\n", it.URL)
		}
		return nil
	},
}

var newsRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Fetch fresh fact-checked items from all configured sources",
	RunE: func(cmd *cobra.Command, _ []string) error {
		sources, err := buildNewsSources(cmd)
		if err != nil {
			return err
		}
		if len(sources) == 0 {
			utils.Log.Info("No news sources configured. Set factcheck.api_key or news.feeds in ~/.veriscope.yaml")
			return nil
		}

		dbPath, _ := cmd.Flags().GetString("dbpath")
		lock, err := utils.NewDBLock(dbPath)
		if err != nil {
			return err
		}
		if err := lock.Lock(); err != nil {
			return err
		}
		defer lock.Unlock()

		db, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		added, err := news.Refresh(cmd.Context(), db, sources)
		if err != nil {
			return err
		}
		fmt.Printf("🆕 %d new items cached.\n", added)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(newsCmd)
	newsCmd.AddCommand(newsRefreshCmd)

	newsCmd.PersistentFlags().String("dbpath", "", "Path to SQLite DB file (default: veriscope.sqlite in CWD)")
	newsCmd.Flags().String("verdict", "", "Only show items with this verdict (true, false, partial, unverified)")
	newsCmd.Flags().String("language", "", "Only show items in this language code")
	newsCmd.Flags().String("search", "", "Only show items whose title or summary contains this text")
	newsCmd.Flags().Int("limit", 50, "Number of items to show")
}
