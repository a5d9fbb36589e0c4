package evaluation

import (
	"testing"
)

func TestAggregateConfidence(t *testing.T) {
	tests := []struct {
		name     string
		results  []StageResult
		expected int
		wantErr  bool
	}{
		{
			name: "all equal passes through",
			results: []StageResult{
				{Stage: StagePreliminary, Confidence: 80},
				{Stage: StageVerification, Confidence: 80},
				{Stage: StageContext, Confidence: 80},
			},
			expected: 80,
		},
		{
			name: "verification dominates",
			results: []StageResult{
				{Stage: StagePreliminary, Confidence: 0},
				{Stage: StageVerification, Confidence: 100},
				{Stage: StageContext, Confidence: 0},
			},
			expected: 45,
		},
		{
			name: "rounds half up",
			results: []StageResult{
				{Stage: StagePreliminary, Confidence: 79},
				{Stage: StageVerification, Confidence: 70},
				{Stage: StageContext, Confidence: 70},
			},
			// 25*79 + 45*70 + 30*70 = 7225 -> 72.25 -> 72
			expected: 72,
		},
		{
			name: "order independent",
			results: []StageResult{
				{Stage: StageContext, Confidence: 60},
				{Stage: StagePreliminary, Confidence: 90},
				{Stage: StageVerification, Confidence: 50},
			},
			// 25*90 + 45*50 + 30*60 = 6300 -> 63
			expected: 63,
		},
		{
			name: "missing stage fails",
			results: []StageResult{
				{Stage: StagePreliminary, Confidence: 80},
				{Stage: StageVerification, Confidence: 80},
			},
			wantErr: true,
		},
		{
			name: "duplicate stage fails",
			results: []StageResult{
				{Stage: StagePreliminary, Confidence: 80},
				{Stage: StagePreliminary, Confidence: 70},
				{Stage: StageVerification, Confidence: 80},
				{Stage: StageContext, Confidence: 80},
			},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got, err := AggregateConfidence(tc.results)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %d", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.expected {
				t.Fatalf("expected %d, got %d", tc.expected, got)
			}
		})
	}
}

func TestDiscrepancyBands(t *testing.T) {
	tests := []struct {
		d    int
		band Band
	}{
		{0, BandLow},
		{10, BandLow},
		{11, BandModerate},
		{25, BandModerate},
		{26, BandHigh},
		{100, BandHigh},
	}
	for _, tc := range tests {
		if got := DiscrepancyBand(tc.d); got != tc.band {
			t.Errorf("discrepancy %d: expected %s, got %s", tc.d, tc.band, got)
		}
	}
}

func TestDiscrepancy(t *testing.T) {
	if got := Discrepancy(85, 90); got != 5 {
		t.Fatalf("expected 5, got %d", got)
	}
	if got := Discrepancy(90, 85); got != 5 {
		t.Fatalf("expected 5, got %d", got)
	}
	if got := Discrepancy(70, 70); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestVerdictFor(t *testing.T) {
	if got := VerdictFor(71); got != VerdictCredible {
		t.Fatalf("71 should be credible, got %s", got)
	}
	if got := VerdictFor(70); got != VerdictSuspect {
		t.Fatalf("70 should be suspect, got %s", got)
	}
}

func TestCriteriaMean(t *testing.T) {
	c := Criteria{SourceReliability: 75, FactualConsistency: 80, ContentQuality: 75, TechnicalIntegrity: 85}
	if got := c.Mean(); got != 79 {
		t.Fatalf("expected 79, got %d", got)
	}
}
