package pipeline

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/nao1215/wikirace/internal/model"
	"gopkg.in/yaml.v3"
)

var (
	// ErrNoRaces is returned when a race file lists no races.
	ErrNoRaces = errors.New("race file contains no races")

	// ErrInvalidRace is returned when a race lacks a start or finish title.
	ErrInvalidRace = errors.New("race must have a start and a finish")
)

// RaceFile is the YAML layout of a batch file:
//
//	races:
//	  - start: Київ
//	    finish: Дніпро
type RaceFile struct {
	Races []model.Race `yaml:"races"`
}

// LoadRaces reads and validates a race file.
func LoadRaces(path string) ([]model.Race, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by the user
	if err != nil {
		return nil, fmt.Errorf("failed to read race file: %w", err)
	}
	return ParseRaces(data)
}

// ParseRaces decodes race file content. Titles are trimmed of surrounding
// whitespace.
func ParseRaces(data []byte) ([]model.Race, error) {
	var f RaceFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse race file: %w", err)
	}
	if len(f.Races) == 0 {
		return nil, ErrNoRaces
	}

	races := make([]model.Race, 0, len(f.Races))
	for i, r := range f.Races {
		r.Start = strings.TrimSpace(r.Start)
		r.Finish = strings.TrimSpace(r.Finish)
		if r.Start == "" || r.Finish == "" {
			return nil, fmt.Errorf("race %d: %w", i+1, ErrInvalidRace)
		}
		races = append(races, r)
	}
	return races, nil
}
