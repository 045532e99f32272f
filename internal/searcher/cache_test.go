package searcher

import (
	"testing"
	"time"

	"github.com/gruenerator/docsearch-mcp/pkg/types"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func testResponse(query string) *types.SearchResponse {
	return &types.SearchResponse{
		Success: true,
		Query:   query,
		Results: []types.RankedDocument{
			{
				DocumentID: "doc-1",
				Title:      "Titel",
				FinalScore: 0.8,
				Sources:    []types.SearchSource{types.SourceVector},
				Chunks: []types.SimilarityHit{
					hit("doc-1", 0, 0.8, "Text"),
				},
			},
		},
	}
}

func TestCacheRoundTrip(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	cache, err := newResultCache(10, 5*time.Minute, clock.Now)
	if err != nil {
		t.Fatalf("newResultCache: %v", err)
	}

	key := cacheKey("Klima", "documents", "user-1", "hybrid", 10, 0.3, nil, false)
	if _, ok := cache.get(key); ok {
		t.Fatal("empty cache returned a hit")
	}

	cache.put(key, testResponse("Klima"))

	got, ok := cache.get(key)
	if !ok {
		t.Fatal("stored key is a miss")
	}
	if !got.CacheHit {
		t.Error("cached response should be marked as cache hit")
	}
	if got.Query != "Klima" || len(got.Results) != 1 || got.Results[0].DocumentID != "doc-1" {
		t.Errorf("cached response does not match stored response: %+v", got)
	}
}

func TestCacheTTLExpiry(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	cache, err := newResultCache(10, 5*time.Minute, clock.Now)
	if err != nil {
		t.Fatalf("newResultCache: %v", err)
	}

	key := cacheKey("Klima", "documents", "user-1", "hybrid", 10, 0.3, nil, false)
	cache.put(key, testResponse("Klima"))

	clock.Advance(4 * time.Minute)
	if _, ok := cache.get(key); !ok {
		t.Error("entry expired before TTL")
	}

	clock.Advance(2 * time.Minute)
	if _, ok := cache.get(key); ok {
		t.Error("entry still served after TTL")
	}
}

// Mutating a cached response must not poison later reads.
func TestCacheDeepCopies(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	cache, err := newResultCache(10, 5*time.Minute, clock.Now)
	if err != nil {
		t.Fatalf("newResultCache: %v", err)
	}

	key := cacheKey("Klima", "documents", "user-1", "hybrid", 10, 0.3, nil, false)
	original := testResponse("Klima")
	cache.put(key, original)

	original.Results[0].Title = "geändert"

	first, _ := cache.get(key)
	first.Results[0].Title = "nochmal geändert"
	first.Results = first.Results[:0]

	second, ok := cache.get(key)
	if !ok {
		t.Fatal("key is a miss after reads")
	}
	if len(second.Results) != 1 || second.Results[0].Title != "Titel" {
		t.Errorf("cache entry was mutated through a returned copy: %+v", second.Results)
	}
}

func TestCacheLRUEviction(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	cache, err := newResultCache(2, 5*time.Minute, clock.Now)
	if err != nil {
		t.Fatalf("newResultCache: %v", err)
	}

	keyA := cacheKey("a", "documents", "", "hybrid", 10, 0.3, nil, false)
	keyB := cacheKey("b", "documents", "", "hybrid", 10, 0.3, nil, false)
	keyC := cacheKey("c", "documents", "", "hybrid", 10, 0.3, nil, false)

	cache.put(keyA, testResponse("a"))
	cache.put(keyB, testResponse("b"))
	cache.put(keyC, testResponse("c"))

	if _, ok := cache.get(keyA); ok {
		t.Error("oldest entry survived beyond capacity")
	}
	if _, ok := cache.get(keyC); !ok {
		t.Error("newest entry was evicted")
	}
}

func TestCacheKeyFingerprint(t *testing.T) {
	base := cacheKey("Klima", "documents", "user-1", "hybrid", 10, 0.3, nil, false)

	variants := [][32]byte{
		cacheKey("Klimawandel", "documents", "user-1", "hybrid", 10, 0.3, nil, false),
		cacheKey("Klima", "templates", "user-1", "hybrid", 10, 0.3, nil, false),
		cacheKey("Klima", "documents", "user-2", "hybrid", 10, 0.3, nil, false),
		cacheKey("Klima", "documents", "user-1", "vector", 10, 0.3, nil, false),
		cacheKey("Klima", "documents", "user-1", "hybrid", 20, 0.3, nil, false),
		cacheKey("Klima", "documents", "user-1", "hybrid", 10, 0.4, nil, false),
		cacheKey("Klima", "documents", "user-1", "hybrid", 10, 0.3, []string{"d1"}, false),
		cacheKey("Klima", "documents", "user-1", "hybrid", 10, 0.3, nil, true),
	}
	for i, v := range variants {
		if v == base {
			t.Errorf("variant %d collides with the base fingerprint", i)
		}
	}

	// Document ID order must not matter.
	a := cacheKey("Klima", "documents", "user-1", "hybrid", 10, 0.3, []string{"d1", "d2"}, false)
	b := cacheKey("Klima", "documents", "user-1", "hybrid", 10, 0.3, []string{"d2", "d1"}, false)
	if a != b {
		t.Error("document ID ordering changed the fingerprint")
	}
}
