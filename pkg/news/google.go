package news

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/tidwall/gjson"

	"github.com/veriscope/veriscope/internal/utils"
	"github.com/veriscope/veriscope/pkg/storage"
	"github.com/veriscope/veriscope/pkg/webfetch"
)

const (
	googleSourceName     = "google-factcheck"
	googleSearchEndpoint = "https://factchecktools.googleapis.com/v1alpha1/claims:search"
	googleSearchQuery    = "fact check"
	googlePageSize       = 20
	googleMaxAgeDays     = 60
)

// GoogleSource pulls recently reviewed claims from the Google Fact Check
// Tools API, once per configured language.
type GoogleSource struct {
	apiKey    string
	endpoint  string
	languages []string
	client    *webfetch.Client
}

// NewGoogleSource builds the source. Languages defaults to English.
func NewGoogleSource(apiKey string, languages []string, client *webfetch.Client) *GoogleSource {
	if len(languages) == 0 {
		languages = []string{"en"}
	}
	if client == nil {
		client, _ = webfetch.NewClient("")
	}
	return &GoogleSource{
		apiKey:    apiKey,
		endpoint:  googleSearchEndpoint,
		languages: languages,
		client:    client,
	}
}

func (s *GoogleSource) Name() string { return googleSourceName }

func (s *GoogleSource) Fetch(ctx context.Context) ([]storage.NewsItem, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("google fact check source requires an API key")
	}

	var items []storage.NewsItem
	for _, lang := range s.languages {
		langItems, err := s.fetchLanguage(ctx, lang)
		if err != nil {
			utils.Log.Warnf("[news] google fact check fetch for %s failed: %v", lang, err)
			continue
		}
		items = append(items, langItems...)
	}
	return items, nil
}

func (s *GoogleSource) fetchLanguage(ctx context.Context, lang string) ([]storage.NewsItem, error) {
	params := url.Values{}
	params.Set("key", s.apiKey)
	params.Set("query", googleSearchQuery)
	params.Set("languageCode", lang)
	params.Set("pageSize", strconv.Itoa(googlePageSize))
	params.Set("maxAgeDays", strconv.Itoa(googleMaxAgeDays))

	resp, err := s.client.Get(ctx, s.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != 200 {
		if msg := gjson.Get(resp.Body, "error.message").Str; msg != "" {
			return nil, fmt.Errorf("claims search: %s", msg)
		}
		return nil, fmt.Errorf("claims search failed with HTTP %d", resp.StatusCode)
	}

	var items []storage.NewsItem
	gjson.Get(resp.Body, "claims").ForEach(func(_, claim gjson.Result) bool {
		claimText := claim.Get("text").Str
		review := claim.Get("claimReview.0")
		reviewURL := review.Get("url").Str
		if reviewURL == "" {
			return true
		}

		title := review.Get("title").Str
		if title == "" {
			title = utils.FirstRunes(claimText, 100)
		}
		publisher := review.Get("publisher.name").Str
		if publisher == "" {
			publisher = "Unknown"
		}

		item := storage.NewsItem{
			URL:       reviewURL,
			Title:     title,
			Summary:   claimText,
			Source:    googleSourceName,
			Publisher: publisher,
			Verdict:   NormalizeVerdict(review.Get("textualRating").Str),
			Language:  lang,
		}
		if reviewDate := review.Get("reviewDate").Str; reviewDate != "" {
			if t, err := time.Parse(time.RFC3339, reviewDate); err == nil {
				item.PublishedAt = t
			}
		}
		items = append(items, item)
		return true
	})
	return items, nil
}
