// Package pipeline runs batches of races.
//
// A BatchRunner takes a list of start/finish pairs, runs each one through
// its own Searcher with bounded concurrency and collects one
// model.RaceResult per pair in input order. A failed race is recorded in
// its result and never stops the rest of the batch.
//
// Race lists are read from YAML files with LoadRaces.
package pipeline
