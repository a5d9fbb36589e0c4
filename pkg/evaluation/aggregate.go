package evaluation

import "fmt"

// Stage weights out of 100. Verification carries the most weight since its
// signal is corroborated by external sources; preliminary the least.
const (
	weightPreliminary  = 25
	weightVerification = 45
	weightContext      = 30
)

// credibleThreshold is the aggregate score above which content is called credible.
const credibleThreshold = 70

// Weights returns the fixed stage weight table (stage -> weight out of 100).
func Weights() map[Stage]int {
	return map[Stage]int{
		StagePreliminary:  weightPreliminary,
		StageVerification: weightVerification,
		StageContext:      weightContext,
	}
}

// AggregateConfidence combines the three stage confidences into a single
// score using the fixed weights, rounding half up. The input must contain
// exactly one result per stage; order does not matter.
func AggregateConfidence(results []StageResult) (int, error) {
	byStage := make(map[Stage]int, len(results))
	for _, r := range results {
		if _, dup := byStage[r.Stage]; dup {
			return 0, fmt.Errorf("duplicate result for stage %s", r.Stage)
		}
		byStage[r.Stage] = r.Confidence
	}
	for _, stage := range Stages() {
		if _, ok := byStage[stage]; !ok {
			return 0, fmt.Errorf("missing result for stage %s", stage)
		}
	}
	sum := weightPreliminary*byStage[StagePreliminary] +
		weightVerification*byStage[StageVerification] +
		weightContext*byStage[StageContext]
	return (sum + 50) / 100, nil
}

// Discrepancy returns the absolute gap between the aggregate score and the
// user's estimate.
func Discrepancy(aggregate, estimate int) int {
	d := aggregate - estimate
	if d < 0 {
		d = -d
	}
	return d
}

// VerdictFor maps an aggregate score to the binary credibility verdict.
func VerdictFor(aggregate int) Verdict {
	if aggregate > credibleThreshold {
		return VerdictCredible
	}
	return VerdictSuspect
}

// Band classifies how far a user's estimate landed from the aggregate.
type Band string

const (
	BandLow      Band = "low"
	BandModerate Band = "moderate"
	BandHigh     Band = "high"
)

// DiscrepancyBand buckets a discrepancy into low (<=10), moderate (11-25)
// or high (>25). The same boundaries drive the XP bonus tiers.
func DiscrepancyBand(d int) Band {
	switch {
	case d <= 10:
		return BandLow
	case d <= 25:
		return BandModerate
	default:
		return BandHigh
	}
}

// FeedbackFor renders the short coaching line shown next to a graded result.
func FeedbackFor(d int) string {
	switch DiscrepancyBand(d) {
	case BandLow:
		return "Sharp call: your estimate closely matches the analysis."
	case BandModerate:
		return "Decent read, but compare your reasoning against the evidence."
	default:
		return "Large gap: review the flagged evidence before trusting first impressions."
	}
}
