package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/veriscope/veriscope/pkg/evaluation"
	"github.com/veriscope/veriscope/pkg/news"
	"github.com/veriscope/veriscope/pkg/pipeline"
	"github.com/veriscope/veriscope/pkg/providers/simulated"
	"github.com/veriscope/veriscope/pkg/storage"
)

func newTestServer(t *testing.T, sources []news.Source, user, pass string) (*httptest.Server, *storage.DB) {
	t.Helper()

	db, err := storage.Open(filepath.Join(t.TempDir(), "veriscope.sqlite"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	runner, err := pipeline.New(pipeline.Config{
		Analyzer: &simulated.Analyzer{},
		Verifier: &simulated.Verifier{},
	})
	if err != nil {
		t.Fatalf("pipeline.New: %v", err)
	}

	ts := httptest.NewServer(New(db, runner, sources, user, pass).Handler())
	t.Cleanup(ts.Close)
	return ts, db
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	buf, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(buf))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestHealthEndpoint(t *testing.T) {
	ts, _ := newTestServer(t, nil, "", "")

	resp, err := http.Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("GET health: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body map[string]string
	decodeBody(t, resp, &body)
	if body["status"] != "ok" {
		t.Fatalf("unexpected health body: %v", body)
	}
}

func TestAnalyzeEndpointPersistsAndAdvances(t *testing.T) {
	ts, _ := newTestServer(t, nil, "", "")

	estimate := 80
	resp := postJSON(t, ts.URL+"/api/analysis", AnalysisRequest{
		Type:     "text",
		Content:  "the moon landing was filmed in a studio",
		Estimate: &estimate,
		Username: "alice",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body AnalysisResponse
	decodeBody(t, resp, &body)

	// Simulated signals: 25*79 + 45*70 + 30*70 -> 72.
	if body.Evaluation == nil || body.Evaluation.Aggregate != 72 {
		t.Fatalf("unexpected evaluation: %+v", body.Evaluation)
	}
	if body.Evaluation.Discrepancy == nil || *body.Evaluation.Discrepancy != 8 {
		t.Fatalf("expected discrepancy 8, got %v", body.Evaluation.Discrepancy)
	}
	if len(body.Evaluation.Degraded) != 3 {
		t.Fatalf("simulated adapters must flag all stages, got %v", body.Evaluation.Degraded)
	}
	if body.Progression == nil || body.Progression.Awarded != 15 {
		t.Fatalf("expected 15 XP awarded, got %+v", body.Progression)
	}

	// The run must be retrievable by ID afterwards.
	got, err := http.Get(ts.URL + "/api/analysis/" + body.Evaluation.ID)
	if err != nil {
		t.Fatalf("GET analysis: %v", err)
	}
	if got.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for stored analysis, got %d", got.StatusCode)
	}
	got.Body.Close()

	// And the profile reflects the award.
	var profile ProfileResponse
	presp, err := http.Get(ts.URL + "/api/profile?username=alice")
	if err != nil {
		t.Fatalf("GET profile: %v", err)
	}
	decodeBody(t, presp, &profile)
	if profile.XP != 15 || profile.TotalAnalyses != 1 {
		t.Fatalf("unexpected profile: %+v", profile)
	}
	if profile.Progress.Needed != 100 {
		t.Fatalf("expected 100 XP window at level 1, got %+v", profile.Progress)
	}
}

func TestAnalyzeEndpointRejectsBadInput(t *testing.T) {
	ts, _ := newTestServer(t, nil, "", "")

	resp := postJSON(t, ts.URL+"/api/analysis", AnalysisRequest{Type: "video", Content: "x"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown type, got %d", resp.StatusCode)
	}

	estimate := 150
	resp = postJSON(t, ts.URL+"/api/analysis", AnalysisRequest{Type: "text", Content: "x", Estimate: &estimate})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for out-of-range estimate, got %d", resp.StatusCode)
	}
}

func TestAdvanceEndpoint(t *testing.T) {
	ts, _ := newTestServer(t, nil, "", "")

	d := 20
	resp := postJSON(t, ts.URL+"/api/profile/advance", AdvanceRequest{Username: "bob", Discrepancy: &d})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var result struct {
		Awarded int `json:"awarded"`
		Bonus   int `json:"bonus"`
	}
	decodeBody(t, resp, &result)
	if result.Awarded != 12 || result.Bonus != 2 {
		t.Fatalf("expected award 12 (bonus 2), got %+v", result)
	}

	bad := 150
	resp = postJSON(t, ts.URL+"/api/profile/advance", AdvanceRequest{Username: "bob", Discrepancy: &bad})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for discrepancy 150, got %d", resp.StatusCode)
	}

	resp = postJSON(t, ts.URL+"/api/profile/advance", AdvanceRequest{})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing username, got %d", resp.StatusCode)
	}
}

func TestProfileEndpointMissingUser(t *testing.T) {
	ts, _ := newTestServer(t, nil, "", "")

	resp, err := http.Get(ts.URL + "/api/profile?username=ghost")
	if err != nil {
		t.Fatalf("GET profile: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown user, got %d", resp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/api/profile")
	if err != nil {
		t.Fatalf("GET profile: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 without username, got %d", resp.StatusCode)
	}
}

type stubNewsSource struct {
	items []storage.NewsItem
}

func (s stubNewsSource) Name() string { return "stub" }

func (s stubNewsSource) Fetch(ctx context.Context) ([]storage.NewsItem, error) {
	return s.items, nil
}

func TestNewsEndpoints(t *testing.T) {
	src := stubNewsSource{items: []storage.NewsItem{
		{URL: "https://example.org/a", Title: "Debunked claim", Source: "stub", Verdict: "false", Language: "en"},
	}}
	ts, _ := newTestServer(t, []news.Source{src}, "", "")

	resp := postJSON(t, ts.URL+"/api/news/refresh", struct{}{})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from refresh, got %d", resp.StatusCode)
	}
	var refresh map[string]int
	decodeBody(t, resp, &refresh)
	if refresh["added"] != 1 {
		t.Fatalf("expected 1 added, got %v", refresh)
	}

	listResp, err := http.Get(ts.URL + "/api/news?verdict=false")
	if err != nil {
		t.Fatalf("GET news: %v", err)
	}
	var items []storage.NewsItem
	decodeBody(t, listResp, &items)
	if len(items) != 1 || items[0].Title != "Debunked claim" {
		t.Fatalf("unexpected news list: %+v", items)
	}
}

func TestSourcesEndpoint(t *testing.T) {
	ts, db := newTestServer(t, nil, "", "")

	eval := sampleStoredEvaluation("run-1")
	if err := db.InsertAnalysis(context.Background(), "alice", eval); err != nil {
		t.Fatalf("InsertAnalysis: %v", err)
	}

	resp, err := http.Get(ts.URL + "/api/sources")
	if err != nil {
		t.Fatalf("GET sources: %v", err)
	}
	var summary struct {
		Publishers []struct {
			Name  string `json:"name"`
			Count int    `json:"count"`
		} `json:"publishers"`
	}
	decodeBody(t, resp, &summary)
	if len(summary.Publishers) != 1 || summary.Publishers[0].Name != "Snopes" {
		t.Fatalf("unexpected sources summary: %+v", summary)
	}
}

func TestProgressionConfigEndpoint(t *testing.T) {
	ts, _ := newTestServer(t, nil, "", "")

	resp, err := http.Get(ts.URL + "/api/config/progression")
	if err != nil {
		t.Fatalf("GET config: %v", err)
	}
	var cfg ProgressionConfig
	decodeBody(t, resp, &cfg)
	if cfg.MaxLevel != 10 || cfg.BaseXP != 10 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Thresholds[2] != 100 || cfg.Thresholds[10] != 4100 {
		t.Fatalf("unexpected thresholds: %v", cfg.Thresholds)
	}
	if cfg.Bonuses["low"] != 5 || cfg.Bonuses["moderate"] != 2 || cfg.Bonuses["high"] != 0 {
		t.Fatalf("unexpected bonuses: %v", cfg.Bonuses)
	}
}

func TestBasicAuthProtectsAPI(t *testing.T) {
	ts, _ := newTestServer(t, nil, "admin", "secret")

	resp, err := http.Get(ts.URL + "/api/stats")
	if err != nil {
		t.Fatalf("GET stats: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without credentials, got %d", resp.StatusCode)
	}

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/stats", nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.SetBasicAuth("admin", "secret")
	authed, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET stats with auth: %v", err)
	}
	authed.Body.Close()
	if authed.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 with credentials, got %d", authed.StatusCode)
	}

	// Health stays open for load balancer checks.
	health, err := http.Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("GET health: %v", err)
	}
	health.Body.Close()
	if health.StatusCode != http.StatusOK {
		t.Fatalf("expected open health endpoint, got %d", health.StatusCode)
	}
}

func sampleStoredEvaluation(id string) evaluation.FinalEvaluation {
	return evaluation.FinalEvaluation{
		ID:      id,
		Type:    evaluation.TypeText,
		Excerpt: "claim",
		Results: []evaluation.StageResult{
			{Stage: evaluation.StagePreliminary, Confidence: 80},
			{
				Stage:      evaluation.StageVerification,
				Confidence: 90,
				Evidence: []evaluation.Evidence{
					{Title: "Review", URL: "https://www.snopes.com/fact-check/review", Publisher: "Snopes"},
				},
			},
			{Stage: evaluation.StageContext, Confidence: 60},
		},
		Aggregate: 79,
		Verdict:   evaluation.VerdictCredible,
		CreatedAt: time.Now().UTC(),
	}
}
