package store

import (
	"context"
	"errors"
	"time"

	"github.com/gruenerator/docsearch-mcp/pkg/types"
)

// Common errors
var (
	ErrChunkNotFound = errors.New("chunk not found")
	ErrBadFunction   = errors.New("invalid match function name")
)

// VectorQuery parameterizes a filtered nearest-neighbor lookup.
type VectorQuery struct {
	Vector []float32
	// Function is the stored-procedure name executing the lookup; corpus
	// profiles select it. Empty means the default function.
	Function string
	// Owner scopes the lookup. Ignored when DocumentIDs is non-empty.
	Owner string
	// DocumentIDs restricts the lookup to a document subset.
	DocumentIDs []string
	Threshold   float64
	Limit       int
}

// VectorStore executes filtered nearest-neighbor lookups over the chunk
// table.
type VectorStore interface {
	FindSimilar(ctx context.Context, q VectorQuery) ([]types.SimilarityHit, error)
	Close() error
}

// KeywordQuery parameterizes a text lookup over the document table.
type KeywordQuery struct {
	Query string
	Owner string
	// Status filters documents by lifecycle state; corpus profiles set it.
	Status      string
	DocumentIDs []string
	Limit       int
}

// KeywordRow is a raw document row with the text body to excerpt from.
type KeywordRow struct {
	DocumentID string
	Title      string
	Filename   string
	Body       string
	CreatedAt  time.Time
}

// KeywordStore executes full-text or substring search over the document
// table, independent of embeddings.
type KeywordStore interface {
	FindKeyword(ctx context.Context, q KeywordQuery) ([]KeywordRow, error)
	Close() error
}

// ChunkStore fetches individual chunks by position for context expansion.
type ChunkStore interface {
	// GetChunkByIndex returns the chunk at the given position of a
	// document, or ErrChunkNotFound.
	GetChunkByIndex(ctx context.Context, documentID string, index int) (*types.Chunk, error)
}
