package types

// ExpandedQuery is one query variant with its confidence inputs, both in
// [0, 1].
type ExpandedQuery struct {
	Text               string  `json:"text"`
	SemanticConfidence float64 `json:"semantic_confidence"`
	FeedbackConfidence float64 `json:"feedback_confidence"`
}

// QueryExpansion holds the ranked list of semantically related query
// variants for one original query. Queries[0] is always the unmodified
// original.
//
// If Fallback is true no usable expansion was found and callers must use
// the original query's embedding only.
type QueryExpansion struct {
	OriginalQuery string          `json:"original_query"`
	Queries       []ExpandedQuery `json:"expanded_queries"`
	Fallback      bool            `json:"fallback"`
}

// NewFallbackExpansion builds the degenerate expansion containing only the
// original query. Used whenever expansion finds no signal or fails.
func NewFallbackExpansion(query string) *QueryExpansion {
	return &QueryExpansion{
		OriginalQuery: query,
		Queries:       []ExpandedQuery{{Text: query, SemanticConfidence: 1, FeedbackConfidence: 1}},
		Fallback:      true,
	}
}

// Texts returns the expansion queries as plain strings, original first.
func (e *QueryExpansion) Texts() []string {
	out := make([]string, len(e.Queries))
	for i, q := range e.Queries {
		out[i] = q.Text
	}
	return out
}
