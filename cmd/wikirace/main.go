// Package main provides the entry point for the wikirace CLI.
//
// wikirace finds a shortest chain of article links between two Wikipedia
// articles, caching every crawled article so later searches get faster.
//
// Usage:
//
//	wikirace find <start> <finish>
//	wikirace race <races.yaml>
//	wikirace cache stats
//
// See --help for all available options.
package main

func main() {
	Execute()
}
