package pathfinder

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/wikirace/internal/crawler"
	"github.com/nao1215/wikirace/internal/model"
)

// expandStartInParallel checks the start article and then every article it
// links to for a link to finish, with up to f.workers goroutines. Any match
// wins, not necessarily the first in link order. Every expanded article
// ends up in the cache, so a sequential search afterwards starts warm.
// A direct link needs a search depth of at least 1 and a two-hop path at
// least 2, the same budget the level stack spends on them.
func (f *Finder) expandStartInParallel(ctx context.Context, session *crawler.Session, start, finish string, t *tally) (model.Path, error) {
	links, persisted, err := f.links(ctx, session, start, t)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		t.addError(err)
		return nil, nil
	}
	if f.linksTo(ctx, start, finish, links, persisted, t) {
		return model.Path{start, finish}, nil
	}
	if f.searchDepth < 2 {
		return nil, nil
	}

	var (
		found atomic.Bool
		mu    sync.Mutex
		path  model.Path
	)

	var g errgroup.Group
	g.SetLimit(f.workers)

	for _, link := range links {
		g.Go(func() error {
			if link == "" || found.Load() || ctx.Err() != nil {
				return nil
			}

			childLinks, persisted, err := f.links(ctx, session, link, t)
			if err != nil {
				if ctx.Err() == nil {
					t.addError(err)
				}
				return nil
			}

			if f.linksTo(ctx, link, finish, childLinks, persisted, t) && found.CompareAndSwap(false, true) {
				mu.Lock()
				path = model.Path{start, link, finish}
				mu.Unlock()
			}
			return nil
		})
	}

	_ = g.Wait() //nolint:errcheck // workers never return errors

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mu.Lock()
	defer mu.Unlock()
	return path, nil
}
