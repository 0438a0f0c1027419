package crawler

import (
	"bytes"
	"context"
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
)

// Session scopes the visited-URL set to one search level.
// The same URL is fetched at most once per Session; a second request fails
// fast with ErrAlreadyVisited. Sessions are safe for concurrent use.
type Session struct {
	spider  *Spider
	visited mapset.Set[string]
}

func newSession(s *Spider) *Session {
	return &Session{
		spider:  s,
		visited: mapset.NewSet[string](),
	}
}

// Fetch retrieves pageURL unless it was already fetched in this session.
// The URL is claimed before the request, so concurrent callers never fetch
// it twice; the claim is released when the fetch fails.
func (s *Session) Fetch(ctx context.Context, pageURL string) ([]byte, error) {
	if !s.visited.Add(pageURL) {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyVisited, pageURL)
	}

	body, err := s.spider.get(ctx, pageURL)
	if err != nil {
		s.visited.Remove(pageURL)
		return nil, err
	}
	return body, nil
}

// Links fetches the article with the given title and extracts its links.
func (s *Session) Links(ctx context.Context, title string) ([]string, error) {
	pageURL := s.spider.ArticleURL(title)

	body, err := s.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	links, err := s.spider.extractor.Extract(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", pageURL, err)
	}
	return links, nil
}

// VisitedCount returns the number of URLs fetched or being fetched in this
// session.
func (s *Session) VisitedCount() int {
	return s.visited.Cardinality()
}
