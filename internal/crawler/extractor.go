package crawler

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Extractor defaults.
const (
	// DefaultContentSelector selects the article body on MediaWiki pages.
	DefaultContentSelector = "div.mw-content-ltr"

	// DefaultCanonicalHost is the host that absolute article links may carry.
	DefaultCanonicalHost = "https://en.wikipedia.org"

	// DefaultLinksPerPage caps how many links are kept from a single page.
	DefaultLinksPerPage = 200
)

// Extractor turns an article document into the ordered titles of the
// in-corpus articles it links to.
//
// Only anchors inside the content region that carry no class attribute are
// considered. Navigation chrome, infobox decorations and red links are all
// marked with CSS classes on MediaWiki, so the class test drops them.
type Extractor struct {
	// selector locates the primary content region.
	selector string

	// canonicalHost is the optional absolute prefix of article links.
	canonicalHost string

	// linksPerPage caps the number of returned titles.
	linksPerPage int

	// articlePath matches hrefs that point at an article.
	articlePath *regexp.Regexp
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithContentSelector sets the CSS selector of the content region.
func WithContentSelector(selector string) ExtractorOption {
	return func(e *Extractor) {
		e.selector = selector
	}
}

// WithCanonicalHost sets the scheme and host that absolute article links
// may be prefixed with, e.g. "https://en.wikipedia.org".
func WithCanonicalHost(host string) ExtractorOption {
	return func(e *Extractor) {
		e.canonicalHost = strings.TrimSuffix(host, "/")
	}
}

// WithLinksPerPage sets the maximum number of titles kept per page.
func WithLinksPerPage(n int) ExtractorOption {
	return func(e *Extractor) {
		e.linksPerPage = n
	}
}

// NewExtractor creates an Extractor with MediaWiki defaults.
func NewExtractor(opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		selector:      DefaultContentSelector,
		canonicalHost: DefaultCanonicalHost,
		linksPerPage:  DefaultLinksPerPage,
	}

	for _, opt := range opts {
		opt(e)
	}

	prefix := ""
	if e.canonicalHost != "" {
		prefix = "(?:" + regexp.QuoteMeta(e.canonicalHost) + ")?"
	}
	e.articlePath = regexp.MustCompile("^" + prefix + "/wiki/")

	return e
}

// Extract parses the document and returns at most linksPerPage titles, in
// first-seen order, one per distinct link target. The title of a link is its
// title attribute; anchors without one yield an empty title that still takes
// its slot.
//
// ErrMalformedDocument is returned when the content region is missing.
func (e *Extractor) Extract(body io.Reader) ([]string, error) {
	root, err := html.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedDocument, err)
	}

	region := goquery.NewDocumentFromNode(root).Find(e.selector).First()
	if region.Length() == 0 {
		return nil, fmt.Errorf("%w: no element matches %q", ErrMalformedDocument, e.selector)
	}

	titles := make([]string, 0)
	if e.linksPerPage <= 0 {
		return titles, nil
	}

	seen := make(map[string]bool)
	region.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if _, decorated := a.Attr("class"); decorated {
			return true
		}

		href, _ := a.Attr("href")
		if !e.IsArticleLink(href) || seen[href] {
			return true
		}
		seen[href] = true

		title, _ := a.Attr("title")
		titles = append(titles, title)

		return len(titles) < e.linksPerPage
	})

	return titles, nil
}

// IsArticleLink reports whether href points at an article of the corpus:
// "/wiki/<name>", optionally prefixed by the canonical host, with no colon
// after the host. Colons mark non-article namespaces such as talk pages,
// categories, files and templates.
func (e *Extractor) IsArticleLink(href string) bool {
	if !e.articlePath.MatchString(href) {
		return false
	}
	path := href
	if e.canonicalHost != "" {
		path = strings.TrimPrefix(href, e.canonicalHost)
	}
	return !strings.Contains(path, ":")
}
