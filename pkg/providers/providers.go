package providers

import (
	"context"
	"net/http"

	"github.com/veriscope/veriscope/pkg/evaluation"
)

// Aspect selects what an Analyzer is asked to judge about an item.
type Aspect string

const (
	// AspectPreliminary requests the four-criteria credibility screening.
	AspectPreliminary Aspect = "preliminary"
	// AspectContext requests sentiment and temporal framing analysis.
	AspectContext Aspect = "context"
)

// Request carries one content item plus the analysis aspect.
type Request struct {
	Aspect Aspect
	Item   evaluation.ContentItem
}

// Analysis is what a content analyzer returns. Criteria is set for the
// preliminary aspect, Sentiment/Temporal for the context aspect.
type Analysis struct {
	Confidence int
	Summary    string
	Criteria   *evaluation.Criteria
	Sentiment  string
	Temporal   string
	Evidence   []evaluation.Evidence
	Simulated  bool
}

// Verification is what a claim verifier returns. Confidence is the
// reliability score derived from the number of matched sources.
type Verification struct {
	Confidence int
	Summary    string
	Claims     []evaluation.ClaimCheck
	Checked    int
	Matches    int
	Evidence   []evaluation.Evidence
	Simulated  bool
}

// Analyzer is the content analysis port. Implementations that can't reach
// their backend return an error; the pipeline substitutes the documented
// fallback at the stage boundary.
type Analyzer interface {
	Name() string
	Analyze(ctx context.Context, req Request) (Analysis, error)
}

// Verifier is the claim verification port.
type Verifier interface {
	Name() string
	Verify(ctx context.Context, claims []string) (Verification, error)
}

// Config carries the settings shared by the provider adapters.
type Config struct {
	APIKey     string
	Model      string
	Endpoint   string
	Language   string
	HTTPClient *http.Client
}
