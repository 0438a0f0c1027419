// Package model defines the data structures shared across wikirace.
//
// This package contains the following main types:
//   - Article: a corpus page and its outbound link titles
//   - Path: an ordered start-to-finish sequence of titles
//   - Race and RaceResult: a start/finish pair and the outcome of searching it
//
// Keeping these types in their own package lets the crawler, cache, finder
// and report packages share them without import cycles.
package model
