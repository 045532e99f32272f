package types

// SearchSource identifies which retrieval leg contributed a document.
type SearchSource string

const (
	SourceVector  SearchSource = "vector"
	SourceKeyword SearchSource = "keyword"
)

// RankedDocument aggregates all hits belonging to one document for one query.
// It exists only for the lifetime of one search call.
type RankedDocument struct {
	DocumentID string `json:"document_id"`
	Title      string `json:"title"`
	Filename   string `json:"filename,omitempty"`

	// Chunks contributing to this document, sorted by similarity descending.
	// Only the top chunks by similarity are retained for the excerpt.
	Chunks []SimilarityHit `json:"chunks,omitempty"`

	// Excerpt is the display text: the top chunk excerpts joined by a
	// visible separator, or the expanded context when requested.
	Excerpt string `json:"excerpt"`

	// Derived scores. FinalScore is always in [0, 1].
	MaxSimilarity  float64 `json:"max_similarity"`
	AvgSimilarity  float64 `json:"avg_similarity"`
	PositionScore  float64 `json:"position_score"`
	DiversityBonus float64 `json:"diversity_bonus"`
	FinalScore     float64 `json:"final_score"`

	// Hybrid fusion scores. VectorScore is the best chunk similarity from
	// the vector leg, KeywordScore the keyword leg's relevance.
	VectorScore   float64        `json:"vector_score,omitempty"`
	KeywordScore  float64        `json:"keyword_score,omitempty"`
	CombinedScore float64        `json:"combined_score,omitempty"`
	Sources       []SearchSource `json:"sources,omitempty"`

	// ExpandedChunks is populated by search_with_context only.
	ExpandedChunks []ExpandedChunk `json:"expanded_chunks,omitempty"`
}

// Validate checks the score invariants.
func (d *RankedDocument) Validate() error {
	if d.DocumentID == "" {
		return ErrMissingDocumentID
	}
	if d.FinalScore < 0 || d.FinalScore > 1 {
		return ErrInvalidScore
	}
	return nil
}

// HasSource reports whether the given retrieval leg contributed to this
// document.
func (d RankedDocument) HasSource(s SearchSource) bool {
	for _, src := range d.Sources {
		if src == s {
			return true
		}
	}
	return false
}

// ExpandedChunk is a winning chunk enlarged with neighboring and related
// chunks up to a token budget.
type ExpandedChunk struct {
	Chunk SimilarityHit `json:"chunk"`

	// Text is the rendered expanded passage. When structure preservation is
	// requested it carries section headers and match/context markers.
	Text       string `json:"text"`
	TokenCount int    `json:"token_count"`

	IncludedPrev    bool `json:"included_prev"`
	IncludedNext    bool `json:"included_next"`
	IncludedRelated int  `json:"included_related"`
}
