package searcher

import (
	"errors"
	"fmt"
)

// ErrUnknownCorpus is returned for a corpus name with no configured profile.
var ErrUnknownCorpus = errors.New("unknown corpus")

// CorpusProfile describes one searchable corpus. Profiles differ in which
// stored match function serves the vector leg, which document status the
// keyword leg filters on, and whether search is pinned to a fixed set of
// shared documents instead of the caller's own.
type CorpusProfile struct {
	// Name identifies the profile in requests and cache keys.
	Name string

	// MatchFunction is the stored similarity function for the vector leg.
	MatchFunction string

	// DocumentStatus filters keyword matches; empty means no status filter.
	DocumentStatus string

	// DocumentIDs pins search to a fixed document set. When set, the owner
	// scope is ignored for both legs.
	DocumentIDs []string

	// EmptyMessage is returned when a search yields no results.
	EmptyMessage string
}

// DefaultProfiles covers the user document corpus and the shared template
// corpus. The template corpus is pinned to curated documents and uses its
// own match function over the template chunk table.
func DefaultProfiles() map[string]CorpusProfile {
	return map[string]CorpusProfile{
		"documents": {
			Name:           "documents",
			MatchFunction:  "match_chunks",
			DocumentStatus: "ready",
			EmptyMessage:   "No matching documents found. Try a broader query or lower the similarity threshold.",
		},
		"templates": {
			Name:          "templates",
			MatchFunction: "match_template_chunks",
			EmptyMessage:  "No matching templates found.",
		},
	}
}

func resolveProfile(profiles map[string]CorpusProfile, name string) (CorpusProfile, error) {
	if name == "" {
		name = "documents"
	}
	p, ok := profiles[name]
	if !ok {
		return CorpusProfile{}, fmt.Errorf("%w: %q", ErrUnknownCorpus, name)
	}
	return p, nil
}
