package types

import "time"

// SearchResponse is the contract returned to all callers.
//
// Invariant: Success == false implies Results is empty. Downstream consumers
// must treat success=false and zero results identically for display but may
// log the Error distinctly.
type SearchResponse struct {
	Success    bool             `json:"success"`
	Results    []RankedDocument `json:"results"`
	Query      string           `json:"query"`
	SearchType string           `json:"search_type"`
	Message    string           `json:"message,omitempty"`
	Error      string           `json:"error,omitempty"`

	// Diagnostics.
	RequestID   string        `json:"request_id,omitempty"`
	Duration    time.Duration `json:"duration_ms,omitempty"`
	VectorHits  int           `json:"vector_hits,omitempty"`
	KeywordHits int           `json:"keyword_hits,omitempty"`
	CacheHit    bool          `json:"cache_hit,omitempty"`
}

// Validate enforces the success/results invariant.
func (r *SearchResponse) Validate() error {
	if !r.Success && len(r.Results) > 0 {
		return ErrInconsistentResponse
	}
	for i := range r.Results {
		if err := r.Results[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}
