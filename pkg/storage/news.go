package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// UpsertNews inserts or refreshes cached news items keyed by URL and
// returns how many were new.
func (d *DB) UpsertNews(ctx context.Context, items []NewsItem) (added int, err error) {
	if len(items) == 0 {
		return 0, nil
	}

	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, it := range items {
		if it.URL == "" || it.Title == "" {
			continue
		}
		var publishedAt interface{}
		if !it.PublishedAt.IsZero() {
			publishedAt = it.PublishedAt.UTC().Format(time.RFC3339)
		}
		var exists int
		err = tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM news WHERE url = ?`, it.URL).Scan(&exists)
		if err != nil {
			return 0, err
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO news(url, title, summary, source, publisher, verdict, language, published_at, fetched_at) VALUES(?,?,?,?,?,?,?,?,CURRENT_TIMESTAMP)
ON CONFLICT(url) DO UPDATE SET title = excluded.title, summary = excluded.summary, verdict = excluded.verdict, fetched_at = CURRENT_TIMESTAMP`,
			it.URL, it.Title, nullIfEmpty(it.Summary), it.Source, nullIfEmpty(it.Publisher), it.Verdict, nullIfEmpty(it.Language), publishedAt)
		if err != nil {
			return 0, err
		}
		if exists == 0 {
			added++
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return added, nil
}

// NewsOptions controls selection when listing cached news.
type NewsOptions struct {
	Verdict  string
	Language string
	Search   string
	Limit    int
}

// ListNews returns cached news matching the filters, most recently
// fetched first.
func (d *DB) ListNews(ctx context.Context, opts NewsOptions) ([]NewsItem, error) {
	where := "WHERE 1=1"
	args := []interface{}{}
	if opts.Verdict != "" && opts.Verdict != "all" {
		where += " AND verdict = ?"
		args = append(args, opts.Verdict)
	}
	if opts.Language != "" {
		where += " AND language = ?"
		args = append(args, opts.Language)
	}
	if opts.Search != "" {
		where += " AND (title LIKE ? OR summary LIKE ?)"
		pattern := fmt.Sprintf("%%%s%%", opts.Search)
		args = append(args, pattern, pattern)
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)

	q := "SELECT url, title, summary, source, publisher, verdict, language, published_at, fetched_at FROM news " + where + " ORDER BY fetched_at DESC LIMIT ?"
	rows, err := d.sql.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []NewsItem{}
	for rows.Next() {
		var (
			it          NewsItem
			summaryNS   sql.NullString
			publisherNS sql.NullString
			languageNS  sql.NullString
			publishedNS sql.NullString
			fetchedAt   string
		)
		if err := rows.Scan(&it.URL, &it.Title, &summaryNS, &it.Source, &publisherNS, &it.Verdict, &languageNS, &publishedNS, &fetchedAt); err != nil {
			return nil, err
		}
		if summaryNS.Valid {
			it.Summary = summaryNS.String
		}
		if publisherNS.Valid {
			it.Publisher = publisherNS.String
		}
		if languageNS.Valid {
			it.Language = languageNS.String
		}
		if publishedNS.Valid {
			it.PublishedAt = parseTime(publishedNS.String)
		}
		it.FetchedAt = parseTime(fetchedAt)
		items = append(items, it)
	}
	return items, rows.Err()
}
