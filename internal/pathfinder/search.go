package pathfinder

import (
	"context"
	"fmt"
	"slices"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/nao1215/wikirace/internal/crawler"
	"github.com/nao1215/wikirace/internal/model"
)

// level is one breadth-first search toward target.
type level struct {
	target string
	depth  int

	// frontier is a FIFO queue of titles still to expand.
	frontier []string

	// expanded holds the titles already expanded in this level. Cached
	// articles are never fetched, so the session alone cannot stop a
	// cycle of cached articles from being expanded forever.
	expanded mapset.Set[string]

	session *crawler.Session

	// pending holds the links of the article that caused the current
	// descent; Backtrack enqueues them when the descent fails.
	pending []string
}

func (f *Finder) newLevel(start, target string, depth int) *level {
	return &level{
		target:   target,
		depth:    depth,
		frontier: []string{start},
		expanded: mapset.NewThreadUnsafeSet[string](),
		session:  f.spider.NewSession(),
	}
}

// search runs the level stack starting at depth.
func (f *Finder) search(ctx context.Context, start, finish string, depth int, t *tally) (model.Path, error) {
	root := f.newLevel(start, finish, depth)
	t.addLevel()

	if depth == 0 && start != finish {
		if f.verifyEndpoints {
			if err := f.resolveEndpoints(ctx, root.session, t, start, finish); err != nil {
				return nil, err
			}
		}
		if f.workers > 1 && f.searchDepth >= 1 {
			path, err := f.expandStartInParallel(ctx, root.session, start, finish, t)
			if err != nil {
				return nil, err
			}
			if path.Found() {
				return path, nil
			}
		}
	}

	return f.walk(ctx, start, []*level{root}, t)
}

// walk drives the level stack until a path is found or every level failed.
func (f *Finder) walk(ctx context.Context, start string, stack []*level, t *tally) (model.Path, error) {
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		lv := stack[len(stack)-1]

		switch {
		case lv.depth > f.searchDepth:
			// out of budget
		case lv.target == start:
			return reconstruct(stack), nil
		case lv.depth < f.searchDepth && len(lv.frontier) > 0:
			if child := f.step(ctx, start, lv, t); child != nil {
				stack = append(stack, child)
				t.addLevel()
			}
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			continue
		}

		// A level at the final depth can only succeed trivially, which
		// was ruled out above.
		f.logger.Debug("level failed",
			"target", lv.target,
			"depth", lv.depth,
			"visited", lv.session.VisitedCount(),
		)
		stack = stack[:len(stack)-1]
		if len(stack) == 0 || f.policy == FailFast {
			return model.Path{}, nil
		}

		parent := stack[len(stack)-1]
		f.logger.Debug("backtracking", "target", parent.target, "depth", parent.depth)
		parent.frontier = append(parent.frontier, parent.pending...)
		parent.pending = nil
	}

	return model.Path{}, nil
}

// step expands the next frontier title of lv. It returns the level to
// descend into when the title links to lv's target.
func (f *Finder) step(ctx context.Context, start string, lv *level, t *tally) *level {
	current := lv.frontier[0]
	lv.frontier = lv.frontier[1:]

	if current == "" || lv.expanded.Contains(current) {
		return nil
	}
	lv.expanded.Add(current)

	links, persisted, err := f.links(ctx, lv.session, current, t)
	if err != nil {
		if ctx.Err() == nil {
			t.addError(err)
		}
		return nil
	}

	if f.linksTo(ctx, current, lv.target, links, persisted, t) {
		f.logger.Debug("descending", "target", current, "depth", lv.depth+1)
		lv.pending = links
		return f.newLevel(start, current, lv.depth+1)
	}

	lv.frontier = append(lv.frontier, links...)
	return nil
}

// reconstruct builds the path from the stack: the innermost target is the
// start article and each enclosing target is one hop further.
func reconstruct(stack []*level) model.Path {
	path := make(model.Path, 0, len(stack))
	for i := len(stack) - 1; i >= 0; i-- {
		path = append(path, stack[i].target)
	}
	return path
}

// links returns the outbound links of title, from the cache when it is
// fully cached and by fetching and saving the article otherwise. persisted
// reports whether the links are known to the cache.
func (f *Finder) links(ctx context.Context, session *crawler.Session, title string, t *tally) (links []string, persisted bool, err error) {
	cached, err := f.cache.IsFullyCached(ctx, title)
	if err != nil {
		t.addError(err)
	}
	if cached {
		links, err := f.cache.OutboundTitles(ctx, title)
		if err == nil {
			t.addCacheHit()
			return links, true, nil
		}
		t.addError(err)
	}

	fetched, err := session.Links(ctx, title)
	if err != nil {
		return nil, false, err
	}
	t.addFetch()

	for i := range fetched {
		fetched[i] = f.title(fetched[i])
	}

	article, err := f.cache.Save(ctx, title, fetched)
	if err != nil {
		t.addError(err)
		return fetched, false, nil
	}
	return article.Links, true, nil
}

// linksTo reports whether title links to target, asking the cache when the
// links were persisted.
func (f *Finder) linksTo(ctx context.Context, title, target string, links []string, persisted bool, t *tally) bool {
	if persisted {
		ok, err := f.cache.LinksTo(ctx, title, target)
		if err == nil {
			return ok
		}
		t.addError(err)
	}
	return slices.Contains(links, target)
}

// resolveEndpoints makes sure every title can be fetched or is cached.
func (f *Finder) resolveEndpoints(ctx context.Context, session *crawler.Session, t *tally, titles ...string) error {
	for _, title := range titles {
		if _, _, err := f.links(ctx, session, title, t); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return fmt.Errorf("%w: cannot resolve article %q: %w", crawler.ErrResourceUnavailable, title, err)
		}
	}
	return nil
}
