package model

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Article is a single corpus page identified by its title.
// Links holds the titles of the in-corpus articles it links to, in page order.
type Article struct {
	// ID is the surrogate key assigned by the cache. Zero for in-memory values
	// that were never persisted.
	ID int64 `json:"id,omitempty"`

	// Title is the corpus-unique article title.
	Title string `json:"title"`

	// Links are the outbound link titles. The set is replaced wholesale
	// whenever the article is re-crawled.
	Links []string `json:"links,omitempty"`
}

// IsCrawled reports whether the article carries at least one outbound link.
// An article with zero links is indistinguishable from one that was never
// fetched, so both count as not crawled.
func (a *Article) IsCrawled() bool {
	return a != nil && len(a.Links) > 0
}

// Path is an ordered sequence of titles from start to finish, both inclusive.
// An empty Path means no path was found.
type Path []string

// Found reports whether the path is non-empty.
func (p Path) Found() bool {
	return len(p) > 0
}

// Hops returns the number of links followed along the path.
func (p Path) Hops() int {
	if len(p) == 0 {
		return 0
	}
	return len(p) - 1
}

// String renders the path as "A -> B -> C".
func (p Path) String() string {
	return strings.Join(p, " -> ")
}

// NormalizeTitle returns the NFC form of a title with surrounding whitespace
// removed. Titles coming from anchors and from the command line may use
// different Unicode compositions for the same diacritics.
func NormalizeTitle(title string) string {
	return norm.NFC.String(strings.TrimSpace(title))
}
