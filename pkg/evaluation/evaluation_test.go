package evaluation

import (
	"errors"
	"testing"
)

func TestContentItemValidate(t *testing.T) {
	tests := []struct {
		name    string
		item    ContentItem
		wantErr bool
	}{
		{name: "valid text", item: ContentItem{Type: TypeText, Payload: "vaccines cause autism according to a new study"}},
		{name: "valid claim", item: ContentItem{Type: TypeClaim, Payload: "the moon landing was staged"}},
		{name: "valid url", item: ContentItem{Type: TypeURL, Payload: "https://example.com/article"}},
		{name: "empty payload", item: ContentItem{Type: TypeText, Payload: "   "}, wantErr: true},
		{name: "unknown type", item: ContentItem{Type: "video", Payload: "something"}, wantErr: true},
		{name: "relative url", item: ContentItem{Type: TypeURL, Payload: "/article/123"}, wantErr: true},
		{name: "ftp url", item: ContentItem{Type: TypeURL, Payload: "ftp://example.com/file"}, wantErr: true},
		{name: "url without host", item: ContentItem{Type: TypeURL, Payload: "https://"}, wantErr: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			err := tc.item.Validate()
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if !errors.Is(err, ErrInvalidInput) {
					t.Fatalf("expected ErrInvalidInput, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateEstimate(t *testing.T) {
	for _, ok := range []int{0, 50, 100} {
		if err := ValidateEstimate(ok); err != nil {
			t.Fatalf("estimate %d should be valid: %v", ok, err)
		}
	}
	for _, bad := range []int{-1, 101, 500} {
		if err := ValidateEstimate(bad); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("estimate %d should be rejected, got %v", bad, err)
		}
	}
}

func TestResultFor(t *testing.T) {
	e := FinalEvaluation{Results: []StageResult{
		{Stage: StagePreliminary, Confidence: 80},
		{Stage: StageVerification, Confidence: 70},
	}}
	r, ok := e.ResultFor(StageVerification)
	if !ok || r.Confidence != 70 {
		t.Fatalf("expected verification result with confidence 70, got %+v ok=%v", r, ok)
	}
	if _, ok := e.ResultFor(StageContext); ok {
		t.Fatal("context result should be absent")
	}
}
