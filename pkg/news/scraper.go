package news

import (
	"context"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"

	"github.com/veriscope/veriscope/internal/utils"
	"github.com/veriscope/veriscope/pkg/storage"
	"github.com/veriscope/veriscope/pkg/webfetch"
)

const maxScrapedArticles = 12

// ScraperSource crawls fact-checking sites that publish ClaimReview
// structured data. It reads the listing page, follows the most
// promising article links, and extracts the embedded JSON-LD review.
type ScraperSource struct {
	name     string
	pages    []string
	language string
	client   *webfetch.Client
}

// NewScraperSource builds a scraper over one or more listing pages.
func NewScraperSource(name string, pages []string, language string, client *webfetch.Client) *ScraperSource {
	if language == "" {
		language = "en"
	}
	if client == nil {
		client, _ = webfetch.NewClient("")
	}
	return &ScraperSource{name: name, pages: pages, language: language, client: client}
}

func (s *ScraperSource) Name() string { return s.name }

func (s *ScraperSource) Fetch(ctx context.Context) ([]storage.NewsItem, error) {
	var items []storage.NewsItem
	for _, page := range s.pages {
		resp, err := s.client.Get(ctx, page, nil)
		if err != nil {
			utils.Log.Warnf("[news] scraper %s: listing %s failed: %v", s.name, page, err)
			continue
		}
		if resp.StatusCode != 200 {
			utils.Log.Warnf("[news] scraper %s: listing %s returned HTTP %d", s.name, page, resp.StatusCode)
			continue
		}

		for _, link := range articleLinks(page, resp.Body) {
			if err := ctx.Err(); err != nil {
				return items, err
			}
			article, err := s.client.Get(ctx, link, nil)
			if err != nil || article.StatusCode != 200 {
				continue
			}
			if item, ok := s.parseClaimReview(article.Body, article.Title, link); ok {
				items = append(items, item)
			}
		}
	}
	return items, nil
}

// articleLinks extracts same-site links from a listing page and returns
// the most likely fact-check articles, best scored first.
func articleLinks(pageURL, body string) []string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil
	}

	seen := make(map[string]struct{})
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if len(href) < 10 || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref)
		if abs.Scheme != "http" && abs.Scheme != "https" {
			return
		}
		if !strings.EqualFold(abs.Hostname(), base.Hostname()) {
			return
		}
		seen[abs.String()] = struct{}{}
	})

	type scoredLink struct {
		score int
		url   string
	}
	scored := make([]scoredLink, 0, len(seen))
	for link := range seen {
		lower := strings.ToLower(link)
		score := 0
		if strings.Contains(lower, "fact-check") || strings.Contains(lower, "factcheck") {
			score += 5
		}
		for _, w := range []string{"verdadeiro", "falso", "enganoso", "false", "true"} {
			if strings.Contains(lower, w) {
				score += 2
				break
			}
		}
		if len(link) > 50 {
			score++
		}
		if score > 0 {
			scored = append(scored, scoredLink{score: score, url: link})
		}
	}
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].url < scored[j].url
	})

	if len(scored) > maxScrapedArticles {
		scored = scored[:maxScrapedArticles]
	}
	links := make([]string, 0, len(scored))
	for _, sl := range scored {
		links = append(links, sl.url)
	}
	return links
}

// parseClaimReview pulls the first ClaimReview object out of the page's
// JSON-LD blocks.
func (s *ScraperSource) parseClaimReview(body, pageTitle, pageURL string) (storage.NewsItem, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return storage.NewsItem{}, false
	}

	var item storage.NewsItem
	found := false
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		parsed := gjson.Parse(sel.Text())

		objects := []gjson.Result{parsed}
		if graph := parsed.Get("@graph"); graph.IsArray() {
			objects = graph.Array()
		} else if parsed.IsArray() {
			objects = parsed.Array()
		}

		for _, obj := range objects {
			if obj.Get("@type").Str != "ClaimReview" {
				continue
			}

			claim := obj.Get("itemReviewed.name").Str
			if claim == "" {
				claim = obj.Get("itemReviewed.text").Str
			}
			rating := obj.Get("reviewRating.alternateName").Str
			if rating == "" {
				rating = obj.Get("reviewRating.ratingValue").String()
			}
			publisher := obj.Get("author.name").Str
			if publisher == "" {
				publisher = s.name
			}
			title := strings.TrimSpace(pageTitle)
			if title == "" {
				title = utils.FirstRunes(claim, 100)
			}

			item = storage.NewsItem{
				URL:       pageURL,
				Title:     title,
				Summary:   utils.FirstRunes(claim, maxSummaryRunes),
				Source:    s.name,
				Publisher: publisher,
				Verdict:   NormalizeVerdict(rating),
				Language:  s.language,
			}
			if published := obj.Get("datePublished").Str; published != "" {
				if t, err := time.Parse(time.RFC3339, published); err == nil {
					item.PublishedAt = t
				}
			}
			found = true
			return false
		}
		return true
	})
	return item, found
}
