// Package config provides the configuration of wikirace: corpus and crawl
// settings, search settings, the article cache backend and report output.
package config
