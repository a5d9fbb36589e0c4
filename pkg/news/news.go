// Package news aggregates fact-checked news from external sources into
// the local cache.
package news

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/veriscope/veriscope/internal/metrics"
	"github.com/veriscope/veriscope/internal/utils"
	"github.com/veriscope/veriscope/pkg/storage"
)

// Source produces news items from one upstream.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]storage.NewsItem, error)
}

const sourceTimeout = 60 * time.Second

// Refresh runs all sources concurrently and stores what they return.
// A failing source is logged and skipped; only storage errors abort the
// refresh. Returns how many items were new.
func Refresh(ctx context.Context, store *storage.DB, sources []Source) (int, error) {
	var added atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	for _, src := range sources {
		g.Go(func() error {
			srcCtx, cancel := context.WithTimeout(ctx, sourceTimeout)
			defer cancel()

			items, err := src.Fetch(srcCtx)
			if err != nil {
				utils.Log.Warnf("[news] source %s failed: %v", src.Name(), err)
				return nil
			}
			if len(items) == 0 {
				return nil
			}

			n, err := store.UpsertNews(ctx, items)
			if err != nil {
				return err
			}
			utils.Log.Debugf("[news] source %s returned %d items (%d new)", src.Name(), len(items), n)
			metrics.NewsItems.WithLabelValues(src.Name()).Add(float64(n))
			added.Add(int64(n))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return int(added.Load()), err
	}
	return int(added.Load()), nil
}
