package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/veriscope/veriscope/pkg/evaluation"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "veriscope.sqlite"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestEnsureProfileCreatesFreshRow(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	p, err := db.EnsureProfile(ctx, "alice")
	if err != nil {
		t.Fatalf("EnsureProfile: %v", err)
	}
	if p.XP != 0 || p.Level != 1 || p.TotalAnalyses != 0 || p.AvgAccuracy != 0 {
		t.Fatalf("unexpected fresh profile: %+v", p)
	}
	if p.Version != 1 {
		t.Fatalf("expected version 1, got %d", p.Version)
	}

	// A second call must not reset anything.
	again, err := db.EnsureProfile(ctx, "alice")
	if err != nil {
		t.Fatalf("EnsureProfile again: %v", err)
	}
	if again.Version != p.Version {
		t.Fatalf("EnsureProfile bumped version: %d -> %d", p.Version, again.Version)
	}
}

func TestGetProfileMissing(t *testing.T) {
	db := openTestDB(t)

	_, err := db.GetProfile(context.Background(), "nobody")
	if !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}
}

func TestApplyAdvanceGraded(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	d := 5
	res, err := db.ApplyAdvance(ctx, "alice", &d)
	if err != nil {
		t.Fatalf("ApplyAdvance: %v", err)
	}
	if res.Awarded != 15 || res.Bonus != 5 {
		t.Fatalf("expected award 15 (bonus 5), got %d (%d)", res.Awarded, res.Bonus)
	}
	if res.Profile.XP != 15 || res.Profile.Level != 1 {
		t.Fatalf("unexpected profile after advance: %+v", res.Profile)
	}

	stored, err := db.GetProfile(ctx, "alice")
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if stored.XP != 15 || stored.TotalAnalyses != 1 || stored.AvgAccuracy != 95 {
		t.Fatalf("stored profile mismatch: %+v", stored)
	}
	if stored.Version != 2 {
		t.Fatalf("expected version 2 after one write, got %d", stored.Version)
	}
}

func TestApplyAdvanceUngraded(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	res, err := db.ApplyAdvance(ctx, "bob", nil)
	if err != nil {
		t.Fatalf("ApplyAdvance: %v", err)
	}
	if res.Awarded != 0 {
		t.Fatalf("ungraded run must award 0 XP, got %d", res.Awarded)
	}
	if res.Profile.TotalAnalyses != 1 {
		t.Fatalf("analysis count must still increment, got %d", res.Profile.TotalAnalyses)
	}
	if res.Profile.AvgAccuracy != 0 {
		t.Fatalf("ungraded run must not touch accuracy, got %v", res.Profile.AvgAccuracy)
	}
}

func TestSaveProfileVersionConflict(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	rec, err := db.EnsureProfile(ctx, "alice")
	if err != nil {
		t.Fatalf("EnsureProfile: %v", err)
	}

	// First writer wins and bumps the version.
	p := rec.Progression()
	p.XP = 10
	if err := db.saveProfile(ctx, p, rec.Version); err != nil {
		t.Fatalf("first save: %v", err)
	}

	// Second writer still holds the stale version and must lose.
	p.XP = 20
	err = db.saveProfile(ctx, p, rec.Version)
	if !errors.Is(err, ErrProfileConflict) {
		t.Fatalf("expected ErrProfileConflict, got %v", err)
	}
}

func TestApplyAdvanceSerializesConcurrentWriters(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	const writers = 4
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		go func() {
			d := 5
			_, err := db.ApplyAdvance(ctx, "alice", &d)
			errs <- err
		}()
	}
	for i := 0; i < writers; i++ {
		if err := <-errs; err != nil {
			t.Fatalf("ApplyAdvance: %v", err)
		}
	}

	stored, err := db.GetProfile(ctx, "alice")
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if stored.XP != writers*15 {
		t.Fatalf("expected %d XP after %d advances, got %d", writers*15, writers, stored.XP)
	}
	if stored.TotalAnalyses != writers {
		t.Fatalf("expected %d analyses, got %d", writers, stored.TotalAnalyses)
	}
}

func TestLeaderboardOrdering(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	seed := map[string]int{"alice": 300, "bob": 120, "carol": 300, "dave": 10}
	for name, xp := range seed {
		rec, err := db.EnsureProfile(ctx, name)
		if err != nil {
			t.Fatalf("EnsureProfile %s: %v", name, err)
		}
		p := rec.Progression()
		p.XP = xp
		if err := db.saveProfile(ctx, p, rec.Version); err != nil {
			t.Fatalf("saveProfile %s: %v", name, err)
		}
	}

	entries, err := db.Leaderboard(ctx, 3)
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	// Ties broken alphabetically: alice before carol at 300 XP.
	want := []string{"alice", "carol", "bob"}
	for i, name := range want {
		if entries[i].Username != name {
			t.Fatalf("rank %d: expected %s, got %s", i+1, name, entries[i].Username)
		}
		if entries[i].Rank != i+1 {
			t.Fatalf("expected rank %d, got %d", i+1, entries[i].Rank)
		}
	}
	if entries[0].Level != 3 {
		t.Fatalf("expected derived level 3 at 300 XP, got %d", entries[0].Level)
	}
}

func sampleEvaluation(id string, estimate *int) evaluation.FinalEvaluation {
	eval := evaluation.FinalEvaluation{
		ID:      id,
		Type:    evaluation.TypeText,
		Excerpt: "the moon landing was filmed in a studio",
		Results: []evaluation.StageResult{
			{Stage: evaluation.StagePreliminary, Confidence: 80, Summary: "structured claim"},
			{Stage: evaluation.StageVerification, Confidence: 90, Summary: "matched two reviews"},
			{Stage: evaluation.StageContext, Confidence: 60, Summary: "neutral tone", Sentiment: "neutral", Temporal: "dated"},
		},
		Aggregate: 79,
		Verdict:   evaluation.VerdictCredible,
		CreatedAt: time.Now().UTC(),
	}
	if estimate != nil {
		e := *estimate
		d := eval.Aggregate - e
		if d < 0 {
			d = -d
		}
		eval.UserEstimate = &e
		eval.Discrepancy = &d
	}
	return eval
}

func TestInsertAndGetAnalysis(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	estimate := 70
	eval := sampleEvaluation("run-1", &estimate)
	if err := db.InsertAnalysis(ctx, "alice", eval); err != nil {
		t.Fatalf("InsertAnalysis: %v", err)
	}

	got, err := db.GetAnalysis(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetAnalysis: %v", err)
	}
	if got.ID != eval.ID || got.Aggregate != 79 || got.Verdict != evaluation.VerdictCredible {
		t.Fatalf("roundtrip mismatch: %+v", got)
	}
	if got.Discrepancy == nil || *got.Discrepancy != 9 {
		t.Fatalf("expected discrepancy 9, got %v", got.Discrepancy)
	}
	if len(got.Results) != 3 {
		t.Fatalf("expected 3 stage results, got %d", len(got.Results))
	}

	_, err = db.GetAnalysis(ctx, "missing")
	if !errors.Is(err, ErrAnalysisNotFound) {
		t.Fatalf("expected ErrAnalysisNotFound, got %v", err)
	}
}

func TestListAnalysesFilters(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.InsertAnalysis(ctx, "alice", sampleEvaluation("run-1", nil)); err != nil {
		t.Fatalf("InsertAnalysis: %v", err)
	}
	if err := db.InsertAnalysis(ctx, "bob", sampleEvaluation("run-2", nil)); err != nil {
		t.Fatalf("InsertAnalysis: %v", err)
	}
	suspect := sampleEvaluation("run-3", nil)
	suspect.Aggregate = 40
	suspect.Verdict = evaluation.VerdictSuspect
	if err := db.InsertAnalysis(ctx, "alice", suspect); err != nil {
		t.Fatalf("InsertAnalysis: %v", err)
	}

	all, err := db.ListAnalyses(ctx, ListOptions{})
	if err != nil {
		t.Fatalf("ListAnalyses: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 analyses, got %d", len(all))
	}

	mine, err := db.ListAnalyses(ctx, ListOptions{Username: "alice"})
	if err != nil {
		t.Fatalf("ListAnalyses alice: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("expected 2 analyses for alice, got %d", len(mine))
	}

	suspects, err := db.ListAnalyses(ctx, ListOptions{Verdict: "suspect"})
	if err != nil {
		t.Fatalf("ListAnalyses suspect: %v", err)
	}
	if len(suspects) != 1 || suspects[0].ID != "run-3" {
		t.Fatalf("unexpected suspect list: %+v", suspects)
	}

	capped, err := db.ListAnalyses(ctx, ListOptions{Limit: 1})
	if err != nil {
		t.Fatalf("ListAnalyses limit: %v", err)
	}
	if len(capped) != 1 {
		t.Fatalf("expected 1 analysis with limit, got %d", len(capped))
	}
}

func TestUpsertNewsCountsNewRows(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	items := []NewsItem{
		{URL: "https://example.org/a", Title: "Claim about vaccines debunked", Source: "google-factcheck", Verdict: "false", Language: "en"},
		{URL: "https://example.org/b", Title: "Budget figures confirmed", Source: "google-factcheck", Verdict: "true", Language: "en"},
	}
	added, err := db.UpsertNews(ctx, items)
	if err != nil {
		t.Fatalf("UpsertNews: %v", err)
	}
	if added != 2 {
		t.Fatalf("expected 2 added, got %d", added)
	}

	// Re-upserting the same URL refreshes the row but is not "new".
	items[0].Title = "Claim about vaccines debunked (updated)"
	added, err = db.UpsertNews(ctx, items[:1])
	if err != nil {
		t.Fatalf("UpsertNews again: %v", err)
	}
	if added != 0 {
		t.Fatalf("expected 0 added on re-upsert, got %d", added)
	}

	list, err := db.ListNews(ctx, NewsOptions{Verdict: "false"})
	if err != nil {
		t.Fatalf("ListNews: %v", err)
	}
	if len(list) != 1 || list[0].Title != "Claim about vaccines debunked (updated)" {
		t.Fatalf("unexpected news list: %+v", list)
	}

	search, err := db.ListNews(ctx, NewsOptions{Search: "budget"})
	if err != nil {
		t.Fatalf("ListNews search: %v", err)
	}
	if len(search) != 1 || search[0].URL != "https://example.org/b" {
		t.Fatalf("unexpected search result: %+v", search)
	}
}

func TestGetStats(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	estimate := 70
	if err := db.InsertAnalysis(ctx, "alice", sampleEvaluation("run-1", &estimate)); err != nil {
		t.Fatalf("InsertAnalysis: %v", err)
	}
	degraded := sampleEvaluation("run-2", nil)
	degraded.Degraded = []string{"verification"}
	if err := db.InsertAnalysis(ctx, "", degraded); err != nil {
		t.Fatalf("InsertAnalysis: %v", err)
	}
	if _, err := db.EnsureProfile(ctx, "alice"); err != nil {
		t.Fatalf("EnsureProfile: %v", err)
	}
	if _, err := db.UpsertNews(ctx, []NewsItem{{URL: "https://example.org/a", Title: "t", Source: "s", Verdict: "false"}}); err != nil {
		t.Fatalf("UpsertNews: %v", err)
	}

	stats, err := db.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats.TotalAnalyses != 2 || stats.GradedAnalyses != 1 || stats.DegradedAnalyses != 1 {
		t.Fatalf("unexpected analysis counters: %+v", stats)
	}
	if stats.TotalUsers != 1 || stats.TotalNews != 1 {
		t.Fatalf("unexpected user/news counters: %+v", stats)
	}
	if stats.AvgAggregate != 79 {
		t.Fatalf("expected avg aggregate 79, got %v", stats.AvgAggregate)
	}
	if stats.VerdictCounts["credible"] != 2 {
		t.Fatalf("unexpected verdict counts: %+v", stats.VerdictCounts)
	}
}
