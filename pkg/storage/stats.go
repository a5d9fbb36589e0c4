package storage

import (
	"context"
	"database/sql"
)

// GetStats computes platform-wide counters in one pass per table.
func (d *DB) GetStats(ctx context.Context) (Stats, error) {
	stats := Stats{VerdictCounts: map[string]int{}}

	var avgAggregate, avgDiscrepancy sql.NullFloat64
	row := d.sql.QueryRowContext(ctx, `SELECT COUNT(1), COUNT(discrepancy), COUNT(degraded), AVG(aggregate), AVG(discrepancy) FROM analyses`)
	if err := row.Scan(&stats.TotalAnalyses, &stats.GradedAnalyses, &stats.DegradedAnalyses, &avgAggregate, &avgDiscrepancy); err != nil {
		return Stats{}, err
	}
	if avgAggregate.Valid {
		stats.AvgAggregate = avgAggregate.Float64
	}
	if avgDiscrepancy.Valid {
		stats.AvgDiscrepancy = avgDiscrepancy.Float64
	}

	if err := d.sql.QueryRowContext(ctx, `SELECT COUNT(1) FROM profiles`).Scan(&stats.TotalUsers); err != nil {
		return Stats{}, err
	}
	if err := d.sql.QueryRowContext(ctx, `SELECT COUNT(1) FROM news`).Scan(&stats.TotalNews); err != nil {
		return Stats{}, err
	}

	rows, err := d.sql.QueryContext(ctx, `SELECT verdict, COUNT(1) FROM analyses GROUP BY verdict`)
	if err != nil {
		return Stats{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var verdict string
		var count int
		if err := rows.Scan(&verdict, &count); err != nil {
			return Stats{}, err
		}
		stats.VerdictCounts[verdict] = count
	}
	return stats, rows.Err()
}
