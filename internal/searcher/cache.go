package searcher

import (
	"crypto/sha256"
	"encoding/binary"
	"sort"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/gruenerator/docsearch-mcp/pkg/types"
)

type cacheEntry struct {
	response  *types.SearchResponse
	expiresAt time.Time
}

// resultCache is an LRU over full search responses with a fixed TTL.
// Entries are deep copied on both store and load so callers can mutate
// what they get back without poisoning the cache.
type resultCache struct {
	lru *lru.Cache[[32]byte, *cacheEntry]
	ttl time.Duration
	now func() time.Time
}

func newResultCache(size int, ttl time.Duration, now func() time.Time) (*resultCache, error) {
	c, err := lru.New[[32]byte, *cacheEntry](size)
	if err != nil {
		return nil, err
	}
	if now == nil {
		now = time.Now
	}
	return &resultCache{lru: c, ttl: ttl, now: now}, nil
}

// cacheKey fingerprints everything that can change a search result,
// including the keyword fallback toggle, which changes what a vector-mode
// search returns when the vector leg comes back empty. Document ID filters
// are sorted before hashing so the same filter set always maps to the same
// key regardless of request ordering.
func cacheKey(query, corpus, owner, mode string, limit int, threshold float64, docIDs []string, keywordFallback bool) [32]byte {
	h := sha256.New()
	writeField := func(s string) {
		var n [4]byte
		binary.BigEndian.PutUint32(n[:], uint32(len(s)))
		h.Write(n[:])
		h.Write([]byte(s))
	}
	writeField(query)
	writeField(corpus)
	writeField(owner)
	writeField(mode)

	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(limit))
	h.Write(buf[:])
	binary.BigEndian.PutUint64(buf[:], uint64(int64(threshold*1e9)))
	h.Write(buf[:])
	if keywordFallback {
		h.Write([]byte{1})
	} else {
		h.Write([]byte{0})
	}

	sorted := make([]string, len(docIDs))
	copy(sorted, docIDs)
	sort.Strings(sorted)
	for _, id := range sorted {
		writeField(id)
	}

	var key [32]byte
	h.Sum(key[:0])
	return key
}

func (c *resultCache) get(key [32]byte) (*types.SearchResponse, bool) {
	entry, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expiresAt) {
		c.lru.Remove(key)
		return nil, false
	}
	resp := copyResponse(entry.response)
	resp.CacheHit = true
	return resp, true
}

func (c *resultCache) put(key [32]byte, resp *types.SearchResponse) {
	c.lru.Add(key, &cacheEntry{
		response:  copyResponse(resp),
		expiresAt: c.now().Add(c.ttl),
	})
}

func copyResponse(in *types.SearchResponse) *types.SearchResponse {
	out := *in
	out.Results = make([]types.RankedDocument, len(in.Results))
	for i, doc := range in.Results {
		out.Results[i] = copyDocument(doc)
	}
	return &out
}

func copyDocument(in types.RankedDocument) types.RankedDocument {
	out := in
	out.Sources = append([]types.SearchSource(nil), in.Sources...)
	out.Chunks = make([]types.SimilarityHit, len(in.Chunks))
	for i, hit := range in.Chunks {
		out.Chunks[i] = copyHit(hit)
	}
	if in.ExpandedChunks != nil {
		out.ExpandedChunks = make([]types.ExpandedChunk, len(in.ExpandedChunks))
		for i, ec := range in.ExpandedChunks {
			out.ExpandedChunks[i] = ec
			out.ExpandedChunks[i].Chunk = copyHit(ec.Chunk)
		}
	}
	return out
}

func copyHit(in types.SimilarityHit) types.SimilarityHit {
	out := in
	out.Embedding = append([]float32(nil), in.Embedding...)
	if in.Metadata != nil {
		meta := *in.Metadata
		if in.Metadata.PrevChunk != nil {
			prev := *in.Metadata.PrevChunk
			meta.PrevChunk = &prev
		}
		if in.Metadata.NextChunk != nil {
			next := *in.Metadata.NextChunk
			meta.NextChunk = &next
		}
		meta.RelatedChunks = append([]types.RelatedChunkRef(nil), in.Metadata.RelatedChunks...)
		out.Metadata = &meta
	}
	return out
}
