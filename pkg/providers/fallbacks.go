package providers

import "github.com/veriscope/veriscope/pkg/evaluation"

// Fallback values substituted when a signal backend fails or times out.
// They lean moderately positive so a degraded run never brands content as
// fabricated on the strength of an outage.
const (
	fallbackReliability  = 75
	fallbackConsistency  = 80
	fallbackQuality      = 75
	fallbackIntegrity    = 85
	fallbackVerification = 70
	fallbackContext      = 70
)

// SimulatedAnalysis returns the documented degraded-mode analysis for the
// given aspect, flagged Simulated.
func SimulatedAnalysis(aspect Aspect) Analysis {
	if aspect == AspectContext {
		return Analysis{
			Confidence: fallbackContext,
			Summary:    "Context analysis unavailable; assuming neutral framing.",
			Sentiment:  "neutral",
			Temporal:   "current",
			Simulated:  true,
		}
	}
	criteria := &evaluation.Criteria{
		SourceReliability:  fallbackReliability,
		FactualConsistency: fallbackConsistency,
		ContentQuality:     fallbackQuality,
		TechnicalIntegrity: fallbackIntegrity,
	}
	return Analysis{
		Confidence: criteria.Mean(),
		Summary:    "Automated screening unavailable; using baseline heuristics.",
		Criteria:   criteria,
		Simulated:  true,
	}
}

// SimulatedVerification returns the documented degraded-mode verification,
// flagged Simulated.
func SimulatedVerification(claims []string) Verification {
	checks := make([]evaluation.ClaimCheck, 0, len(claims))
	for _, c := range claims {
		checks = append(checks, evaluation.ClaimCheck{Claim: c, Rating: "unverified", Matched: 2})
	}
	return Verification{
		Confidence: fallbackVerification,
		Summary:    "Fact-check lookup unavailable; using baseline reliability.",
		Claims:     checks,
		Checked:    len(claims),
		Matches:    2,
		Evidence: []evaluation.Evidence{
			{Title: "Simulated source A", Publisher: "simulated"},
			{Title: "Simulated source B", Publisher: "simulated"},
		},
		Simulated: true,
	}
}
