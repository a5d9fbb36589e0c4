package factcheck

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/veriscope/veriscope/pkg/providers"
)

const sampleResponse = `{
  "claims": [
    {
      "text": "The moon landing was staged",
      "claimReview": [
        {
          "publisher": {"name": "PolitiFact", "site": "politifact.com"},
          "url": "https://politifact.com/moon",
          "title": "Moon landing conspiracy debunked",
          "textualRating": "False"
        }
      ]
    },
    {
      "text": "Moon landing footage was faked",
      "claimReview": [
        {
          "publisher": {"name": "Snopes", "site": "snopes.com"},
          "url": "https://snopes.com/moon",
          "title": "Fact check: moon landing",
          "textualRating": "False"
        }
      ]
    }
  ]
}`

func newTestVerifier(t *testing.T, handler http.HandlerFunc) (*Verifier, func()) {
	t.Helper()
	srv := httptest.NewServer(handler)
	v, err := New(providers.Config{APIKey: "k", Endpoint: srv.URL}, nil)
	if err != nil {
		srv.Close()
		t.Fatal(err)
	}
	return v, srv.Close
}

func TestVerifyCountsMatches(t *testing.T) {
	var gotQuery, gotLang string
	v, closeSrv := newTestVerifier(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("query")
		gotLang = r.URL.Query().Get("languageCode")
		_, _ = w.Write([]byte(sampleResponse))
	})
	defer closeSrv()

	res, err := v.Verify(context.Background(), []string{"the moon landing was staged"})
	if err != nil {
		t.Fatal(err)
	}
	if gotQuery != "the moon landing was staged" {
		t.Fatalf("unexpected query: %q", gotQuery)
	}
	if gotLang != "en" {
		t.Fatalf("unexpected language: %q", gotLang)
	}
	if res.Matches != 2 || res.Checked != 1 {
		t.Fatalf("unexpected counts: %+v", res)
	}
	// 60 + 10*2
	if res.Confidence != 80 {
		t.Fatalf("expected confidence 80, got %d", res.Confidence)
	}
	if len(res.Claims) != 1 || res.Claims[0].Rating != "false" || res.Claims[0].Matched != 2 {
		t.Fatalf("unexpected claim checks: %+v", res.Claims)
	}
	if len(res.Evidence) != 2 || res.Evidence[0].Publisher != "PolitiFact" {
		t.Fatalf("unexpected evidence: %+v", res.Evidence)
	}
	if res.Simulated {
		t.Fatal("live verification must not be flagged simulated")
	}
}

func TestVerifyNoMatches(t *testing.T) {
	v, closeSrv := newTestVerifier(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})
	defer closeSrv()

	res, err := v.Verify(context.Background(), []string{"nobody checked this"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Confidence != 50 || res.Matches != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Claims[0].Rating != "unmatched" {
		t.Fatalf("unexpected rating: %q", res.Claims[0].Rating)
	}
}

func TestVerifyConfidenceCap(t *testing.T) {
	v, closeSrv := newTestVerifier(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"claims":[{},{},{},{},{},{}]}`))
	})
	defer closeSrv()

	res, err := v.Verify(context.Background(), []string{"very popular claim"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Confidence != 100 {
		t.Fatalf("expected capped confidence 100, got %d", res.Confidence)
	}
}

func TestVerifySurfacesAPIError(t *testing.T) {
	v, closeSrv := newTestVerifier(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"message":"API key invalid"}}`))
	})
	defer closeSrv()

	if _, err := v.Verify(context.Background(), []string{"anything"}); err == nil {
		t.Fatal("expected error from API failure")
	}
}

func TestVerifyTruncatesLongClaims(t *testing.T) {
	long := ""
	for i := 0; i < 30; i++ {
		long += "0123456789"
	}
	var gotQuery string
	v, closeSrv := newTestVerifier(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("query")
		_, _ = w.Write([]byte(`{}`))
	})
	defer closeSrv()

	if _, err := v.Verify(context.Background(), []string{long}); err != nil {
		t.Fatal(err)
	}
	if len(gotQuery) != queryRunes {
		t.Fatalf("expected query truncated to %d, got %d", queryRunes, len(gotQuery))
	}
}

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := New(providers.Config{}, nil); err == nil {
		t.Fatal("expected error without API key")
	}
}
