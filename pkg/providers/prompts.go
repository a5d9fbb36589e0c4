package providers

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/veriscope/veriscope/internal/utils"
	"github.com/veriscope/veriscope/pkg/evaluation"
)

// The LLM-backed adapters share one reply contract per aspect so the
// pipeline sees identical shapes regardless of which model produced them.

const preliminaryPrompt = `You screen content for factual credibility.

You receive a JSON object with "type" (text, url or claim), "content", and
optionally "title", "site" and "page_text" when a page was fetched.

Score the content on four criteria, each 0-100:
- source_reliability: reputation signals of the apparent origin.
- factual_consistency: agreement with widely established facts.
- content_quality: writing quality, sourcing, absence of manipulation cues.
- technical_integrity: structural signals (headline/body match, dates, authorship).

Be conservative: when signals are missing score near 50, never 0 or 100
without strong evidence. Mention the strongest signal in the summary.

Return ONLY JSON following this schema:
{
  "summary": "two sentences at most",
  "criteria": {"source_reliability": 0, "factual_consistency": 0, "content_quality": 0, "technical_integrity": 0},
  "evidence": [{"title": "string", "url": "string", "publisher": "string"}]
}

The evidence array may be empty. Every criteria field is required.`

const contextPrompt = `You assess the framing of content that is being fact-checked.

You receive a JSON object with "type", "content", and optionally "title",
"site" and "page_text".

Judge:
- sentiment: overall emotional charge ("negative", "neutral" or "positive").
- temporal: whether the story is "dated", "current" or "breaking".
- confidence: 0-100, how much the framing supports taking the content at face value.
  Emotionally charged or urgency-pushing framing lowers this.

Return ONLY JSON following this schema:
{
  "summary": "one or two sentences",
  "confidence": 0,
  "sentiment": "neutral",
  "temporal": "current"
}`

// PromptFor returns the system prompt for the given aspect.
func PromptFor(aspect Aspect) string {
	if aspect == AspectContext {
		return contextPrompt
	}
	return preliminaryPrompt
}

type analysisInput struct {
	Type     string `json:"type"`
	Content  string `json:"content"`
	Title    string `json:"title,omitempty"`
	Site     string `json:"site,omitempty"`
	PageText string `json:"page_text,omitempty"`
}

// BuildPayload serializes the user message the LLM adapters send.
func BuildPayload(item evaluation.ContentItem) ([]byte, error) {
	payload := analysisInput{
		Type:    string(item.Type),
		Content: item.Payload,
	}
	if page := item.Page; page != nil {
		payload.Title = page.Title
		payload.Site = page.Site
		payload.PageText = page.Excerpt
	}
	return json.Marshal(payload)
}

type preliminaryReply struct {
	Summary  string `json:"summary"`
	Criteria struct {
		SourceReliability  int `json:"source_reliability"`
		FactualConsistency int `json:"factual_consistency"`
		ContentQuality     int `json:"content_quality"`
		TechnicalIntegrity int `json:"technical_integrity"`
	} `json:"criteria"`
	Evidence []struct {
		Title     string `json:"title"`
		URL       string `json:"url"`
		Publisher string `json:"publisher"`
	} `json:"evidence"`
}

type contextReply struct {
	Summary    string `json:"summary"`
	Confidence int    `json:"confidence"`
	Sentiment  string `json:"sentiment"`
	Temporal   string `json:"temporal"`
}

// ParseReply maps a model's JSON reply onto an Analysis for the aspect,
// clamping scores and normalizing labels.
func ParseReply(aspect Aspect, content string) (Analysis, error) {
	if aspect == AspectContext {
		return parseContextReply(content)
	}
	return parsePreliminaryReply(content)
}

func parsePreliminaryReply(content string) (Analysis, error) {
	var reply preliminaryReply
	if err := json.Unmarshal([]byte(content), &reply); err != nil {
		return Analysis{}, fmt.Errorf("unable to parse analysis response: %w", err)
	}

	criteria := &evaluation.Criteria{
		SourceReliability:  utils.ClampScore(reply.Criteria.SourceReliability),
		FactualConsistency: utils.ClampScore(reply.Criteria.FactualConsistency),
		ContentQuality:     utils.ClampScore(reply.Criteria.ContentQuality),
		TechnicalIntegrity: utils.ClampScore(reply.Criteria.TechnicalIntegrity),
	}

	var evidence []evaluation.Evidence
	for _, e := range reply.Evidence {
		if e.Title == "" && e.URL == "" {
			continue
		}
		evidence = append(evidence, evaluation.Evidence{Title: e.Title, URL: e.URL, Publisher: e.Publisher})
	}

	return Analysis{
		Confidence: criteria.Mean(),
		Summary:    strings.TrimSpace(reply.Summary),
		Criteria:   criteria,
		Evidence:   evidence,
	}, nil
}

func parseContextReply(content string) (Analysis, error) {
	var reply contextReply
	if err := json.Unmarshal([]byte(content), &reply); err != nil {
		return Analysis{}, fmt.Errorf("unable to parse context response: %w", err)
	}

	sentiment := strings.ToLower(strings.TrimSpace(reply.Sentiment))
	switch sentiment {
	case "negative", "neutral", "positive":
	default:
		sentiment = "neutral"
	}

	temporal := strings.ToLower(strings.TrimSpace(reply.Temporal))
	switch temporal {
	case "dated", "current", "breaking":
	default:
		temporal = "current"
	}

	return Analysis{
		Confidence: utils.ClampScore(reply.Confidence),
		Summary:    strings.TrimSpace(reply.Summary),
		Sentiment:  sentiment,
		Temporal:   temporal,
	}, nil
}
