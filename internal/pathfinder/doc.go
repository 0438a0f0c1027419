// Package pathfinder finds a hyperlink path between two corpus articles.
//
// The search runs in levels. A level breadth-first searches from the start
// article for any article linking to its target; when one is found the
// search descends into a new level whose target is that article. A level
// whose target is the start article itself succeeds, and the path is the
// start followed by the targets of the enclosing levels. Every level is
// one step deeper, and levels deeper than the search depth fail.
//
// Levels are kept on an explicit stack. Each level owns a crawler.Session,
// so a page is fetched at most once per level, while the ArticleCache is
// shared by every level and every search.
package pathfinder
