package webfetch

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/veriscope/veriscope/internal/utils"
)

// maxExcerptRunes caps how much extracted page text is kept.
const maxExcerptRunes = 2000

// Page is a fetched snapshot of a web page, reduced to what the analysis
// stages consume.
type Page struct {
	URL        string
	Title      string
	Site       string
	Excerpt    string
	StatusCode int
}

// FetchPage retrieves a URL and extracts its title, site name and readable
// text. Non-2xx responses are errors.
func (c *Client) FetchPage(ctx context.Context, pageURL string) (*Page, error) {
	res, err := c.Get(ctx, pageURL, nil)
	if err != nil {
		return nil, err
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP %d for %s", res.StatusCode, pageURL)
	}

	page := &Page{URL: pageURL, Title: res.Title, StatusCode: res.StatusCode}
	if u, err := url.Parse(pageURL); err == nil {
		page.Site = strings.TrimPrefix(u.Hostname(), "www.")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(res.Body))
	if err != nil {
		// Title from the raw scan may still be useful.
		return page, nil
	}

	if site, ok := doc.Find(`meta[property="og:site_name"]`).Attr("content"); ok && strings.TrimSpace(site) != "" {
		page.Site = strings.TrimSpace(site)
	}
	if page.Title == "" {
		page.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	doc.Find("script, style, noscript, iframe").Remove()
	body := doc.Find("body")
	text := body.Text()
	if body.Length() == 0 {
		text = doc.Text()
	}
	page.Excerpt = utils.Excerpt(text, maxExcerptRunes)

	return page, nil
}
