package evaluation

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ErrInvalidInput marks content items or estimates the pipeline refuses to
// process. Callers check it with errors.Is.
var ErrInvalidInput = errors.New("invalid input")

// ContentType identifies what kind of payload a ContentItem carries.
type ContentType string

const (
	TypeText  ContentType = "text"
	TypeURL   ContentType = "url"
	TypeClaim ContentType = "claim"
)

// Stage identifies one of the three evaluation stages.
type Stage string

const (
	StagePreliminary  Stage = "preliminary"
	StageVerification Stage = "verification"
	StageContext      Stage = "context"
)

// Stages lists the pipeline stages in presentation order.
func Stages() []Stage {
	return []Stage{StagePreliminary, StageVerification, StageContext}
}

// Page is a fetched snapshot of a url-type item. Stages use it when present
// and fall back to the bare payload when fetching failed.
type Page struct {
	Title   string `json:"title,omitempty"`
	Site    string `json:"site,omitempty"`
	Excerpt string `json:"excerpt,omitempty"`
}

// ContentItem is a single piece of content submitted for evaluation.
type ContentItem struct {
	Type    ContentType `json:"type"`
	Payload string      `json:"payload"`
	Page    *Page       `json:"page,omitempty"`
}

// Validate checks the item before any stage runs.
func (c ContentItem) Validate() error {
	switch c.Type {
	case TypeText, TypeURL, TypeClaim:
	default:
		return fmt.Errorf("%w: unknown content type %q", ErrInvalidInput, c.Type)
	}
	payload := strings.TrimSpace(c.Payload)
	if payload == "" {
		return fmt.Errorf("%w: empty payload", ErrInvalidInput)
	}
	if c.Type == TypeURL {
		u, err := url.Parse(payload)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("%w: %q is not an absolute http(s) URL", ErrInvalidInput, payload)
		}
	}
	return nil
}

// Evidence is a reference produced by a stage to back its judgment.
type Evidence struct {
	Title     string `json:"title,omitempty"`
	URL       string `json:"url,omitempty"`
	Publisher string `json:"publisher,omitempty"`
}

// Criteria holds the four preliminary-analysis scores, each in [0,100].
type Criteria struct {
	SourceReliability  int `json:"source_reliability"`
	FactualConsistency int `json:"factual_consistency"`
	ContentQuality     int `json:"content_quality"`
	TechnicalIntegrity int `json:"technical_integrity"`
}

// Mean returns the rounded average of the four criteria scores.
func (c Criteria) Mean() int {
	sum := c.SourceReliability + c.FactualConsistency + c.ContentQuality + c.TechnicalIntegrity
	return (sum + 2) / 4
}

// ClaimCheck records the outcome of verifying a single claim against
// external fact-check sources.
type ClaimCheck struct {
	Claim   string `json:"claim"`
	Rating  string `json:"rating,omitempty"`
	Matched int    `json:"matched"`
}

// StageResult is the outcome of one stage. Degraded stages carry the
// documented fallback values with Simulated set.
type StageResult struct {
	Stage      Stage         `json:"stage"`
	Confidence int           `json:"confidence"`
	Summary    string        `json:"summary,omitempty"`
	Evidence   []Evidence    `json:"evidence,omitempty"`
	Criteria   *Criteria     `json:"criteria,omitempty"`
	Claims     []ClaimCheck  `json:"claims,omitempty"`
	Sentiment  string        `json:"sentiment,omitempty"`
	Temporal   string        `json:"temporal,omitempty"`
	Simulated  bool          `json:"simulated,omitempty"`
	Elapsed    time.Duration `json:"-"`
}

// Verdict is the binary credibility call derived from the aggregate score.
type Verdict string

const (
	VerdictCredible Verdict = "credible"
	VerdictSuspect  Verdict = "suspect"
)

// FinalEvaluation is the complete outcome of one pipeline run.
type FinalEvaluation struct {
	ID           string        `json:"id"`
	Type         ContentType   `json:"type"`
	Excerpt      string        `json:"excerpt"`
	Results      []StageResult `json:"results"`
	Aggregate    int           `json:"aggregate"`
	Verdict      Verdict       `json:"verdict"`
	UserEstimate *int          `json:"user_estimate,omitempty"`
	Discrepancy  *int          `json:"discrepancy,omitempty"`
	Feedback     string        `json:"feedback,omitempty"`
	Degraded     []string      `json:"degraded,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
}

// ResultFor returns the stage result with the given stage name, if present.
func (e *FinalEvaluation) ResultFor(stage Stage) (StageResult, bool) {
	for _, r := range e.Results {
		if r.Stage == stage {
			return r, true
		}
	}
	return StageResult{}, false
}

// ValidateEstimate checks a user credibility estimate.
func ValidateEstimate(estimate int) error {
	if estimate < 0 || estimate > 100 {
		return fmt.Errorf("%w: estimate %d outside [0,100]", ErrInvalidInput, estimate)
	}
	return nil
}
