package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/veriscope/veriscope/pkg/evaluation"
)

// ErrAnalysisNotFound is returned when an analysis ID is unknown.
var ErrAnalysisNotFound = errors.New("analysis not found")

// InsertAnalysis stores a finished evaluation. Username may be empty for
// anonymous runs. The full document is kept as JSON next to the indexed
// columns so GetAnalysis can return it unchanged.
func (d *DB) InsertAnalysis(ctx context.Context, username string, eval evaluation.FinalEvaluation) error {
	full, err := json.Marshal(eval)
	if err != nil {
		return err
	}

	stageScore := func(stage evaluation.Stage) int {
		if r, ok := eval.ResultFor(stage); ok {
			return r.Confidence
		}
		return 0
	}

	var estimate, discrepancy interface{}
	if eval.UserEstimate != nil {
		estimate = *eval.UserEstimate
	}
	if eval.Discrepancy != nil {
		discrepancy = *eval.Discrepancy
	}

	_, err = d.sql.ExecContext(ctx, `INSERT INTO analyses(id, username, content_type, excerpt, preliminary, verification, context_score, aggregate, estimate, discrepancy, verdict, degraded, full_json, created_at) VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		eval.ID,
		nullIfEmpty(username),
		string(eval.Type),
		eval.Excerpt,
		stageScore(evaluation.StagePreliminary),
		stageScore(evaluation.StageVerification),
		stageScore(evaluation.StageContext),
		eval.Aggregate,
		estimate,
		discrepancy,
		string(eval.Verdict),
		nullIfEmpty(strings.Join(eval.Degraded, ",")),
		string(full),
		eval.CreatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

// GetAnalysis returns the full stored evaluation for an ID.
func (d *DB) GetAnalysis(ctx context.Context, id string) (evaluation.FinalEvaluation, error) {
	row := d.sql.QueryRowContext(ctx, `SELECT full_json FROM analyses WHERE id = ?`, id)

	var full string
	err := row.Scan(&full)
	if errors.Is(err, sql.ErrNoRows) {
		return evaluation.FinalEvaluation{}, ErrAnalysisNotFound
	}
	if err != nil {
		return evaluation.FinalEvaluation{}, err
	}

	var eval evaluation.FinalEvaluation
	if err := json.Unmarshal([]byte(full), &eval); err != nil {
		return evaluation.FinalEvaluation{}, fmt.Errorf("decode analysis %s: %w", id, err)
	}
	return eval, nil
}

// ListEvidence collects evidence records from the most recent analyses.
func (d *DB) ListEvidence(ctx context.Context, limit int) ([]evaluation.Evidence, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := d.sql.QueryContext(ctx, `SELECT full_json FROM analyses ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var evidence []evaluation.Evidence
	for rows.Next() {
		var full string
		if err := rows.Scan(&full); err != nil {
			return nil, err
		}
		var eval evaluation.FinalEvaluation
		if err := json.Unmarshal([]byte(full), &eval); err != nil {
			continue
		}
		for _, r := range eval.Results {
			evidence = append(evidence, r.Evidence...)
		}
	}
	return evidence, rows.Err()
}

// ListOptions controls selection when listing analyses.
type ListOptions struct {
	Username string
	Verdict  string
	Since    time.Time
	Limit    int
}

// ListAnalyses returns summaries matching the filters, newest first.
func (d *DB) ListAnalyses(ctx context.Context, opts ListOptions) ([]AnalysisSummary, error) {
	where := "WHERE 1=1"
	args := []interface{}{}
	if opts.Username != "" {
		where += " AND username = ?"
		args = append(args, opts.Username)
	}
	if opts.Verdict != "" {
		where += " AND verdict = ?"
		args = append(args, opts.Verdict)
	}
	if !opts.Since.IsZero() {
		where += " AND created_at >= ?"
		args = append(args, opts.Since.UTC().Format(time.RFC3339))
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)

	q := "SELECT id, username, content_type, excerpt, preliminary, verification, context_score, aggregate, estimate, discrepancy, verdict, degraded, created_at FROM analyses " + where + " ORDER BY created_at DESC LIMIT ?"
	rows, err := d.sql.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := []AnalysisSummary{}
	for rows.Next() {
		var (
			s          AnalysisSummary
			userNS     sql.NullString
			estimateNI sql.NullInt64
			discrepNI  sql.NullInt64
			degradedNS sql.NullString
			createdAt  string
		)
		if err := rows.Scan(&s.ID, &userNS, &s.ContentType, &s.Excerpt, &s.Preliminary, &s.Verification, &s.Context, &s.Aggregate, &estimateNI, &discrepNI, &s.Verdict, &degradedNS, &createdAt); err != nil {
			return nil, err
		}
		if userNS.Valid {
			s.Username = userNS.String
		}
		if estimateNI.Valid {
			v := int(estimateNI.Int64)
			s.Estimate = &v
		}
		if discrepNI.Valid {
			v := int(discrepNI.Int64)
			s.Discrepancy = &v
		}
		if degradedNS.Valid && degradedNS.String != "" {
			s.Degraded = strings.Split(degradedNS.String, ",")
		}
		s.CreatedAt = parseTime(createdAt)
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}
