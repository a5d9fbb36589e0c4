package storage

import (
	"time"

	"github.com/veriscope/veriscope/pkg/progression"
)

// ProfileRecord is a stored user profile. Level is derived from XP on read
// and never persisted, so the two cannot drift.
type ProfileRecord struct {
	Username      string    `json:"username"`
	XP            int       `json:"xp"`
	Level         int       `json:"level"`
	TotalAnalyses int       `json:"total_analyses"`
	AvgAccuracy   float64   `json:"avg_accuracy"`
	Version       int64     `json:"-"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Progression converts the record into the engine's snapshot type.
func (p ProfileRecord) Progression() progression.Profile {
	return progression.Profile{
		Username:      p.Username,
		XP:            p.XP,
		Level:         p.Level,
		TotalAnalyses: p.TotalAnalyses,
		AvgAccuracy:   p.AvgAccuracy,
	}
}

// LeaderboardEntry is one row of the XP ranking.
type LeaderboardEntry struct {
	Rank          int     `json:"rank"`
	Username      string  `json:"username"`
	XP            int     `json:"xp"`
	Level         int     `json:"level"`
	TotalAnalyses int     `json:"total_analyses"`
	AvgAccuracy   float64 `json:"avg_accuracy"`
}

// AnalysisSummary is the queryable slice of a stored evaluation.
type AnalysisSummary struct {
	ID           string    `json:"id"`
	Username     string    `json:"username,omitempty"`
	ContentType  string    `json:"content_type"`
	Excerpt      string    `json:"excerpt"`
	Preliminary  int       `json:"preliminary"`
	Verification int       `json:"verification"`
	Context      int       `json:"context"`
	Aggregate    int       `json:"aggregate"`
	Estimate     *int      `json:"estimate,omitempty"`
	Discrepancy  *int      `json:"discrepancy,omitempty"`
	Verdict      string    `json:"verdict"`
	Degraded     []string  `json:"degraded,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewsItem is one cached fact-checked news entry, keyed by URL.
type NewsItem struct {
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Summary     string    `json:"summary,omitempty"`
	Source      string    `json:"source"`
	Publisher   string    `json:"publisher,omitempty"`
	Verdict     string    `json:"verdict"`
	Language    string    `json:"language,omitempty"`
	PublishedAt time.Time `json:"published_at,omitempty"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// Stats aggregates platform-wide counters.
type Stats struct {
	TotalAnalyses    int            `json:"total_analyses"`
	GradedAnalyses   int            `json:"graded_analyses"`
	DegradedAnalyses int            `json:"degraded_analyses"`
	TotalUsers       int            `json:"total_users"`
	TotalNews        int            `json:"total_news"`
	AvgAggregate     float64        `json:"avg_aggregate"`
	AvgDiscrepancy   float64        `json:"avg_discrepancy"`
	VerdictCounts    map[string]int `json:"verdict_counts"`
}
