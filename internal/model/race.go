package model

import "time"

// Race is a single start/finish pair to search a path for.
type Race struct {
	Start  string `json:"start" yaml:"start"`
	Finish string `json:"finish" yaml:"finish"`
}

// RaceResult is the outcome of one race, suitable for reporting and storage.
type RaceResult struct {
	// Race is the pair that was searched.
	Race Race `json:"race"`

	// Path is the discovered path; empty when none exists within budget.
	Path Path `json:"path"`

	// SearchDepth is the budget the search ran with.
	SearchDepth int `json:"search_depth"`

	// Levels is the number of search levels that were opened.
	Levels int `json:"levels"`

	// Fetches is the number of pages fetched from the network.
	Fetches int `json:"fetches"`

	// CacheHits is the number of frontier items served from the cache.
	CacheHits int `json:"cache_hits"`

	// Skipped holds the messages of per-page errors that were skipped.
	Skipped []string `json:"skipped,omitempty"`

	// Warnings holds other per-item errors, such as cache failures, that
	// did not stop the search.
	Warnings []string `json:"warnings,omitempty"`

	// Error is set when the race failed as a whole.
	Error string `json:"error,omitempty"`

	// StartedAt is when the search began.
	StartedAt time.Time `json:"started_at"`

	// Elapsed is the wall-clock duration of the search.
	Elapsed time.Duration `json:"elapsed"`
}

// Succeeded reports whether a path was found without a fatal error.
func (r *RaceResult) Succeeded() bool {
	return r.Error == "" && r.Path.Found()
}
