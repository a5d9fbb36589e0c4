package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/veriscope/veriscope/internal/utils"
	"github.com/veriscope/veriscope/pkg/news"
	"github.com/veriscope/veriscope/pkg/pipeline"
	"github.com/veriscope/veriscope/pkg/providers"
	"github.com/veriscope/veriscope/pkg/providers/anthropic"
	"github.com/veriscope/veriscope/pkg/providers/factcheck"
	"github.com/veriscope/veriscope/pkg/providers/openai"
	"github.com/veriscope/veriscope/pkg/providers/simulated"
	"github.com/veriscope/veriscope/pkg/storage"
	"github.com/veriscope/veriscope/pkg/webfetch"
)

const defaultDBPath = "veriscope.sqlite"

// openStore opens the SQLite database named by the command's --dbpath flag,
// creating it when it does not exist yet.
func openStore(cmd *cobra.Command) (*storage.DB, error) {
	dbPath, _ := cmd.Flags().GetString("dbpath")
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	return storage.Open(dbPath)
}

// requireStore is openStore for read-only commands: a missing database file
// is an error instead of a silently created empty database.
func requireStore(cmd *cobra.Command) (*storage.DB, error) {
	dbPath, _ := cmd.Flags().GetString("dbpath")
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("database not found: %s", dbPath)
	}
	return storage.Open(dbPath)
}

// fetchClient builds the shared HTTP client, honoring the global --proxy flag.
func fetchClient(cmd *cobra.Command) (*webfetch.Client, error) {
	proxy, _ := cmd.Flags().GetString("proxy")
	return webfetch.NewClient(proxy)
}

// pageFetcher adapts a webfetch client to the pipeline's fetcher port.
type pageFetcher struct {
	client *webfetch.Client
}

func (f pageFetcher) FetchPage(ctx context.Context, pageURL string) (*pipeline.Page, error) {
	page, err := f.client.FetchPage(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return &pipeline.Page{Title: page.Title, Site: page.Site, Excerpt: page.Excerpt}, nil
}

// buildAnalyzer picks the content analyzer from config. The default "auto"
// prefers whichever LLM has an API key and falls back to simulated signals.
func buildAnalyzer() (providers.Analyzer, error) {
	provider := strings.ToLower(strings.TrimSpace(viper.GetString("analysis.provider")))

	openaiCfg := providers.Config{
		APIKey:   viper.GetString("openai.api_key"),
		Model:    viper.GetString("openai.model"),
		Endpoint: viper.GetString("openai.endpoint"),
	}
	anthropicCfg := providers.Config{
		APIKey: viper.GetString("anthropic.api_key"),
		Model:  viper.GetString("anthropic.model"),
	}

	switch provider {
	case "openai":
		return openai.New(openaiCfg)
	case "anthropic":
		return anthropic.New(anthropicCfg)
	case "simulated":
		return &simulated.Analyzer{}, nil
	case "", "auto":
		if strings.TrimSpace(openaiCfg.APIKey) != "" {
			return openai.New(openaiCfg)
		}
		if strings.TrimSpace(anthropicCfg.APIKey) != "" {
			return anthropic.New(anthropicCfg)
		}
		utils.Log.Info("Skipping LLM analysis: no API key found in config. Using simulated signals.")
		return &simulated.Analyzer{}, nil
	default:
		return nil, fmt.Errorf("unknown analysis.provider %q (want openai, anthropic, simulated, or auto)", provider)
	}
}

// buildVerifier picks the claim verifier: Google Fact Check Tools when a key
// is configured, the simulated verifier otherwise.
func buildVerifier(client *webfetch.Client) (providers.Verifier, error) {
	apiKey := viper.GetString("factcheck.api_key")
	if strings.TrimSpace(apiKey) == "" {
		utils.Log.Info("Skipping fact-check verification: factcheck.api_key not found in config. Using simulated sources.")
		return &simulated.Verifier{}, nil
	}
	return factcheck.New(providers.Config{
		APIKey:   apiKey,
		Language: viper.GetString("factcheck.language"),
	}, client)
}

// buildRunner assembles the full evaluation pipeline from config.
func buildRunner(cmd *cobra.Command) (*pipeline.Runner, error) {
	client, err := fetchClient(cmd)
	if err != nil {
		return nil, err
	}
	analyzer, err := buildAnalyzer()
	if err != nil {
		return nil, err
	}
	verifier, err := buildVerifier(client)
	if err != nil {
		return nil, err
	}

	return pipeline.New(pipeline.Config{
		Analyzer:     analyzer,
		Verifier:     verifier,
		Fetcher:      pageFetcher{client: client},
		StageTimeout: viper.GetDuration("analysis.stage_timeout"),
		Log:          utils.Log,
	})
}

// feedConfig and scraperConfig mirror the news section of the config file:
//
//	news:
//	  languages: ["en", "pt"]
//	  feeds:
//	    - name: aosfatos
//	      url: https://www.aosfatos.org/noticias/feed/
//	      language: pt
//	  scrapers:
//	    - name: snopes
//	      language: en
//	      pages:
//	        - https://www.snopes.com/fact-check/
type feedConfig struct {
	Name     string `mapstructure:"name"`
	URL      string `mapstructure:"url"`
	Language string `mapstructure:"language"`
}

type scraperConfig struct {
	Name     string   `mapstructure:"name"`
	Language string   `mapstructure:"language"`
	Pages    []string `mapstructure:"pages"`
}

// buildNewsSources assembles every configured news source. A source without
// credentials or URLs is skipped with a log line, never an error.
func buildNewsSources(cmd *cobra.Command) ([]news.Source, error) {
	client, err := fetchClient(cmd)
	if err != nil {
		return nil, err
	}

	var sources []news.Source

	if apiKey := viper.GetString("factcheck.api_key"); strings.TrimSpace(apiKey) != "" {
		sources = append(sources, news.NewGoogleSource(apiKey, viper.GetStringSlice("news.languages"), client))
	} else {
		utils.Log.Info("Skipping Google Fact Check news: factcheck.api_key not found in config.")
	}

	var feeds []feedConfig
	if err := viper.UnmarshalKey("news.feeds", &feeds); err != nil {
		return nil, fmt.Errorf("invalid news.feeds config: %w", err)
	}
	for _, f := range feeds {
		if f.URL == "" {
			utils.Log.Warnf("Skipping feed %q: no url configured.", f.Name)
			continue
		}
		name := f.Name
		if name == "" {
			name = f.URL
		}
		sources = append(sources, news.NewFeedSource(name, f.URL, f.Language, client))
	}

	var scrapers []scraperConfig
	if err := viper.UnmarshalKey("news.scrapers", &scrapers); err != nil {
		return nil, fmt.Errorf("invalid news.scrapers config: %w", err)
	}
	for _, s := range scrapers {
		if s.Name == "" || len(s.Pages) == 0 {
			utils.Log.Warnf("Skipping scraper %q: name and pages are both required.", s.Name)
			continue
		}
		sources = append(sources, news.NewScraperSource(s.Name, s.Pages, s.Language, client))
	}

	return sources, nil
}
