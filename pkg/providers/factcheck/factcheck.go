// Package factcheck verifies claims against the Google Fact Check Tools API.
package factcheck

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/veriscope/veriscope/internal/utils"
	"github.com/veriscope/veriscope/pkg/evaluation"
	"github.com/veriscope/veriscope/pkg/providers"
	"github.com/veriscope/veriscope/pkg/webfetch"
)

const (
	defaultEndpoint = "https://factchecktools.googleapis.com/v1alpha1/claims:search"
	defaultLanguage = "en"

	// queryRunes caps how much of a claim is sent as the search query.
	queryRunes = 100
	// maxClaims bounds how many claims a single verification checks.
	maxClaims = 3
	pageSize  = 10
)

// Verifier checks claims against published fact checks.
type Verifier struct {
	apiKey   string
	endpoint string
	language string
	client   *webfetch.Client
}

// New builds a fact-check verifier. A nil client gets a default one.
func New(cfg providers.Config, client *webfetch.Client) (*Verifier, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("claim verification requires an API key (set factcheck.api_key in config or FACTCHECK_API_KEY)")
	}

	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = defaultEndpoint
	}

	language := strings.TrimSpace(cfg.Language)
	if language == "" {
		language = defaultLanguage
	}

	if client == nil {
		var err error
		client, err = webfetch.NewClient("")
		if err != nil {
			return nil, err
		}
	}

	return &Verifier{apiKey: apiKey, endpoint: endpoint, language: language, client: client}, nil
}

func (v *Verifier) Name() string { return "factcheck" }

// Verify looks each claim up and derives a reliability score from how many
// published fact checks matched.
func (v *Verifier) Verify(ctx context.Context, claims []string) (providers.Verification, error) {
	if len(claims) > maxClaims {
		claims = claims[:maxClaims]
	}

	out := providers.Verification{Checked: len(claims)}
	for _, claim := range claims {
		check, evidence, err := v.verifyOne(ctx, claim)
		if err != nil {
			return providers.Verification{}, err
		}
		out.Claims = append(out.Claims, check)
		out.Evidence = append(out.Evidence, evidence...)
		out.Matches += check.Matched
	}

	if out.Matches == 0 {
		out.Confidence = 50
		out.Summary = "No published fact checks matched the claims."
		return out, nil
	}

	confidence := 60 + 10*out.Matches
	if confidence > 100 {
		confidence = 100
	}
	out.Confidence = confidence
	out.Summary = fmt.Sprintf("%d published fact check(s) matched across %d claim(s).", out.Matches, out.Checked)
	return out, nil
}

func (v *Verifier) verifyOne(ctx context.Context, claim string) (evaluation.ClaimCheck, []evaluation.Evidence, error) {
	query := utils.FirstRunes(strings.TrimSpace(claim), queryRunes)

	params := url.Values{}
	params.Set("key", v.apiKey)
	params.Set("query", query)
	params.Set("languageCode", v.language)
	params.Set("pageSize", strconv.Itoa(pageSize))

	res, err := v.client.Get(ctx, v.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return evaluation.ClaimCheck{}, nil, err
	}
	if res.StatusCode != 200 {
		if msg := gjson.Get(res.Body, "error.message").String(); msg != "" {
			return evaluation.ClaimCheck{}, nil, fmt.Errorf("fact check lookup: %s", msg)
		}
		return evaluation.ClaimCheck{}, nil, fmt.Errorf("fact check lookup failed with HTTP %d", res.StatusCode)
	}

	check := evaluation.ClaimCheck{Claim: claim}
	var evidence []evaluation.Evidence

	gjson.Get(res.Body, "claims").ForEach(func(_, matched gjson.Result) bool {
		check.Matched++
		matched.Get("claimReview").ForEach(func(_, review gjson.Result) bool {
			if check.Rating == "" {
				check.Rating = strings.ToLower(review.Get("textualRating").String())
			}
			evidence = append(evidence, evaluation.Evidence{
				Title:     review.Get("title").String(),
				URL:       review.Get("url").String(),
				Publisher: review.Get("publisher.name").String(),
			})
			return true
		})
		return true
	})

	if check.Matched == 0 {
		check.Rating = "unmatched"
	}
	return check, evidence, nil
}
