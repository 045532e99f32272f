package types

import (
	"errors"
	"time"
)

// RelatedChunkRef links a chunk to another chunk of the same document with a
// relation strength in [0, 1].
type RelatedChunkRef struct {
	ChunkIndex int     `json:"chunk_index"`
	Strength   float64 `json:"strength"`
}

// ChunkMetadata carries optional structural information recorded by the
// ingestion pipeline: section/chapter titles and links to neighboring or
// related chunks.
type ChunkMetadata struct {
	Section       string            `json:"section,omitempty"`
	Chapter       string            `json:"chapter,omitempty"`
	PrevChunk     *int              `json:"prev_chunk,omitempty"`
	NextChunk     *int              `json:"next_chunk,omitempty"`
	RelatedChunks []RelatedChunkRef `json:"related_chunks,omitempty"`
}

// Chunk represents a contiguous span of text from one document. Chunks are
// immutable once created; they are owned by the ingestion pipeline and only
// read here.
type Chunk struct {
	// Identification
	ID         string `json:"id"`
	DocumentID string `json:"document_id"`
	ChunkIndex int    `json:"chunk_index"` // Position within document, ascending

	// Content
	Text       string    `json:"text"`
	TokenCount int       `json:"token_count"`
	Embedding  []float32 `json:"-"` // Optional; never serialized to callers

	Metadata  *ChunkMetadata `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at,omitempty"`
}

// Validate checks basic chunk integrity.
func (c *Chunk) Validate() error {
	if c.ID == "" {
		return ErrInvalidChunkID
	}
	if c.DocumentID == "" {
		return errors.New("document ID is required")
	}
	if c.ChunkIndex < 0 {
		return errors.New("chunk index must be non-negative")
	}
	if c.Text == "" {
		return ErrEmptyContent
	}
	return nil
}

// EstimateTokens returns the chunk's token count, falling back to a
// characters/4 heuristic when the ingestion pipeline did not record one.
func (c *Chunk) EstimateTokens() int {
	if c.TokenCount > 0 {
		return c.TokenCount
	}
	return len(c.Text) / 4
}

// SimilarityHit is one row returned by a nearest-neighbor or keyword lookup.
// Ephemeral, created per query.
type SimilarityHit struct {
	Chunk

	// Similarity is a cosine-like score in [0, 1], higher is better. Keyword
	// hits carry a placeholder relevance score here since the underlying
	// text-search primitive may not expose a numeric rank.
	Similarity float64 `json:"similarity"`

	// Document metadata joined by the store.
	DocumentTitle     string    `json:"document_title"`
	DocumentFilename  string    `json:"document_filename,omitempty"`
	DocumentCreatedAt time.Time `json:"document_created_at,omitempty"`

	// Excerpt is a bounded window of the matched text, set by the keyword
	// path. Empty for vector hits until ranking builds one.
	Excerpt string `json:"excerpt,omitempty"`
}

// Validate checks that the hit carries a usable score.
func (h *SimilarityHit) Validate() error {
	if err := h.Chunk.Validate(); err != nil {
		return err
	}
	if h.Similarity < 0 || h.Similarity > 1 {
		return ErrInvalidScore
	}
	return nil
}
