package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/veriscope/veriscope/internal/metrics"
	"github.com/veriscope/veriscope/pkg/progression"
)

var (
	// ErrProfileNotFound is returned when a username has no stored profile.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrProfileConflict is returned when a versioned write lost the race.
	ErrProfileConflict = errors.New("profile version conflict")
)

// maxAdvanceRetries bounds how often ApplyAdvance re-reads after a
// version conflict before giving up.
const maxAdvanceRetries = 5

// EnsureProfile returns the profile for username, creating a fresh
// level-1 row if none exists yet.
func (d *DB) EnsureProfile(ctx context.Context, username string) (ProfileRecord, error) {
	if username == "" {
		return ProfileRecord{}, fmt.Errorf("username must not be empty")
	}
	if _, err := d.sql.ExecContext(ctx, `INSERT OR IGNORE INTO profiles(username) VALUES(?)`, username); err != nil {
		return ProfileRecord{}, err
	}
	return d.GetProfile(ctx, username)
}

// GetProfile loads a profile without creating it.
func (d *DB) GetProfile(ctx context.Context, username string) (ProfileRecord, error) {
	row := d.sql.QueryRowContext(ctx, `SELECT username, xp, total_analyses, avg_accuracy, version, created_at, updated_at FROM profiles WHERE username = ?`, username)

	var (
		p                  ProfileRecord
		createdAt, updated string
	)
	err := row.Scan(&p.Username, &p.XP, &p.TotalAnalyses, &p.AvgAccuracy, &p.Version, &createdAt, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return ProfileRecord{}, ErrProfileNotFound
	}
	if err != nil {
		return ProfileRecord{}, err
	}
	p.Level = progression.DeriveLevel(p.XP)
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updated)
	return p, nil
}

// saveProfile writes back a profile read at the given version. The update
// only lands if nobody else bumped the version in between.
func (d *DB) saveProfile(ctx context.Context, p progression.Profile, version int64) error {
	res, err := d.sql.ExecContext(ctx, `UPDATE profiles SET xp = ?, total_analyses = ?, avg_accuracy = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP WHERE username = ? AND version = ?`,
		p.XP, p.TotalAnalyses, p.AvgAccuracy, p.Username, version)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrProfileConflict
	}
	return nil
}

// ApplyAdvance runs one progression step for username and persists it.
// Concurrent advances for the same user serialize through the version
// column; a losing writer re-reads and recomputes.
func (d *DB) ApplyAdvance(ctx context.Context, username string, discrepancy *int) (progression.Result, error) {
	var lastErr error
	for attempt := 0; attempt < maxAdvanceRetries; attempt++ {
		rec, err := d.EnsureProfile(ctx, username)
		if err != nil {
			return progression.Result{}, err
		}
		res, err := progression.Advance(rec.Progression(), discrepancy)
		if err != nil {
			return progression.Result{}, err
		}
		if err := d.saveProfile(ctx, res.Profile, rec.Version); err != nil {
			if errors.Is(err, ErrProfileConflict) {
				lastErr = err
				continue
			}
			return progression.Result{}, err
		}
		if res.LevelUp {
			metrics.LevelUps.Inc()
		}
		return res, nil
	}
	return progression.Result{}, fmt.Errorf("advance for %q: %w", username, lastErr)
}

// Leaderboard returns the top profiles ordered by XP, ties broken by name.
func (d *DB) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := d.sql.QueryContext(ctx, `SELECT username, xp, total_analyses, avg_accuracy FROM profiles ORDER BY xp DESC, username ASC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []LeaderboardEntry
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.Username, &e.XP, &e.TotalAnalyses, &e.AvgAccuracy); err != nil {
			return nil, err
		}
		e.Level = progression.DeriveLevel(e.XP)
		e.Rank = len(entries) + 1
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
