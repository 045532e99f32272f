package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Common errors
var (
	ErrEmptyText         = errors.New("text cannot be empty")
	ErrInvalidInput      = errors.New("invalid input")
	ErrProviderFailed    = errors.New("embedding provider failed")
	ErrBatchTooLarge     = errors.New("batch size exceeds limit")
	ErrNoProviderEnabled = errors.New("no embedding provider configured")
	ErrAllItemsFailed    = errors.New("all batch items failed to embed")
)

// MaxBatchSize bounds one provider round-trip.
const MaxBatchSize = 100

// Embedding is a vector embedding with provider metadata.
type Embedding struct {
	Vector    []float32
	Dimension int
	Provider  string
	Model     string
	Hash      string // Content hash for caching
}

// BatchResult carries per-item outcomes of a batch request. Embeddings is
// index-aligned with the input texts; a nil entry means that item failed and
// was dropped (partial failure is tolerated by callers).
type BatchResult struct {
	Embeddings []*Embedding
	Provider   string
	Model      string
}

// Retained returns the successfully embedded items, preserving order.
func (b *BatchResult) Retained() []*Embedding {
	out := make([]*Embedding, 0, len(b.Embeddings))
	for _, e := range b.Embeddings {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}

// Embedder converts text to fixed-length numeric vectors.
type Embedder interface {
	// EmbedQuery generates a single embedding for the given text.
	EmbedQuery(ctx context.Context, text string) (*Embedding, error)

	// EmbedBatch generates embeddings for multiple texts in one round-trip.
	// Individual items may fail without failing the batch.
	EmbedBatch(ctx context.Context, texts []string) (*BatchResult, error)

	// Dimension returns the embedding dimension for this provider.
	Dimension() int

	// Provider returns the provider name.
	Provider() string

	// Model returns the model name.
	Model() string

	// Close releases any resources held by the embedder.
	Close() error
}

// IsValid reports whether a vector is usable: non-empty, the provider's
// dimension, and free of NaN/Inf components.
func IsValid(e Embedder, vec []float32) bool {
	if len(vec) == 0 || len(vec) != e.Dimension() {
		return false
	}
	for _, v := range vec {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return false
		}
	}
	return true
}

// Cache provides in-memory LRU caching of embeddings by content hash.
type Cache struct {
	cache *lru.Cache[string, *Embedding]
}

// NewCache creates an embedding cache with LRU eviction.
func NewCache(maxLen int) *Cache {
	if maxLen <= 0 {
		maxLen = 10000
	}
	cache, err := lru.New[string, *Embedding](maxLen)
	if err != nil {
		// Only reachable with a non-positive size, which is guarded above.
		cache, _ = lru.New[string, *Embedding](10000)
	}
	return &Cache{cache: cache}
}

// Get retrieves a deep copy of an embedding so caller mutations cannot
// pollute the cache.
func (c *Cache) Get(hash string) (*Embedding, bool) {
	emb, ok := c.cache.Get(hash)
	if !ok {
		return nil, false
	}
	vec := make([]float32, len(emb.Vector))
	copy(vec, emb.Vector)
	return &Embedding{
		Vector:    vec,
		Dimension: emb.Dimension,
		Provider:  emb.Provider,
		Model:     emb.Model,
		Hash:      emb.Hash,
	}, true
}

// Set stores an embedding; LRU eviction is automatic at capacity.
func (c *Cache) Set(hash string, emb *Embedding) {
	c.cache.Add(hash, emb)
}

// Size returns the current cache size.
func (c *Cache) Size() int {
	return c.cache.Len()
}

// Clear empties the cache.
func (c *Cache) Clear() {
	c.cache.Purge()
}

// ComputeHash computes the SHA-256 content hash used as cache key.
func ComputeHash(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}

func validateBatch(texts []string) error {
	if len(texts) == 0 {
		return fmt.Errorf("%w: no texts provided", ErrInvalidInput)
	}
	if len(texts) > MaxBatchSize {
		return fmt.Errorf("%w: max %d texts allowed", ErrBatchTooLarge, MaxBatchSize)
	}
	for i, t := range texts {
		if t == "" {
			return fmt.Errorf("%w: text at index %d is empty", ErrInvalidInput, i)
		}
	}
	return nil
}
