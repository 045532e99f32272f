package embedder

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"
)

func TestComputeHash(t *testing.T) {
	h1 := ComputeHash("erneuerbare Energien")
	h2 := ComputeHash("erneuerbare Energien")
	h3 := ComputeHash("erneuerbare energie")

	if h1 != h2 {
		t.Error("identical text produced different hashes")
	}
	if h1 == h3 {
		t.Error("different text produced identical hashes")
	}
	if len(h1) != 64 {
		t.Errorf("hash length = %d, want 64 hex chars", len(h1))
	}
}

func TestValidateBatch(t *testing.T) {
	if err := validateBatch(nil); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("empty batch: err = %v, want ErrInvalidInput", err)
	}

	big := make([]string, MaxBatchSize+1)
	for i := range big {
		big[i] = "text"
	}
	if err := validateBatch(big); !errors.Is(err, ErrBatchTooLarge) {
		t.Errorf("oversized batch: err = %v, want ErrBatchTooLarge", err)
	}

	if err := validateBatch([]string{"ok", "", "ok"}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("empty item: err = %v, want ErrInvalidInput", err)
	}

	if err := validateBatch([]string{"eins", "zwei"}); err != nil {
		t.Errorf("valid batch rejected: %v", err)
	}
}

func TestCache(t *testing.T) {
	cache := NewCache(10)

	emb := &Embedding{
		Vector:    []float32{1, 2, 3},
		Dimension: 3,
		Provider:  "test",
		Model:     "test-model",
		Hash:      "hash-1",
	}
	cache.Set("hash-1", emb)

	got, ok := cache.Get("hash-1")
	if !ok {
		t.Fatal("stored embedding is a miss")
	}
	if got.Model != "test-model" || len(got.Vector) != 3 {
		t.Errorf("retrieved embedding does not match: %+v", got)
	}

	// Mutating the copy must not touch the cached entry.
	got.Vector[0] = 99
	again, _ := cache.Get("hash-1")
	if again.Vector[0] != 1 {
		t.Error("cache entry mutated through a returned copy")
	}

	if _, ok := cache.Get("missing"); ok {
		t.Error("unknown hash returned a hit")
	}

	cache.Clear()
	if cache.Size() != 0 {
		t.Errorf("size after clear = %d, want 0", cache.Size())
	}
}

func TestCacheEviction(t *testing.T) {
	cache := NewCache(2)
	for i := 0; i < 3; i++ {
		hash := ComputeHash(fmt.Sprintf("text-%d", i))
		cache.Set(hash, &Embedding{Vector: []float32{float32(i)}, Hash: hash})
	}
	if cache.Size() != 2 {
		t.Errorf("size = %d, want capacity 2", cache.Size())
	}
	if _, ok := cache.Get(ComputeHash("text-0")); ok {
		t.Error("oldest entry survived beyond capacity")
	}
}

func TestLocalProviderDeterministic(t *testing.T) {
	provider, err := NewLocalProvider(nil)
	if err != nil {
		t.Fatalf("NewLocalProvider: %v", err)
	}

	ctx := context.Background()
	e1, err := provider.EmbedQuery(ctx, "Klimaschutz")
	if err != nil {
		t.Fatalf("EmbedQuery: %v", err)
	}
	e2, err := provider.EmbedQuery(ctx, "Klimaschutz")
	if err != nil {
		t.Fatalf("EmbedQuery: %v", err)
	}

	if len(e1.Vector) != LocalDimension {
		t.Errorf("dimension = %d, want %d", len(e1.Vector), LocalDimension)
	}
	for i := range e1.Vector {
		if e1.Vector[i] != e2.Vector[i] {
			t.Fatalf("vectors differ at %d for identical text", i)
		}
	}

	other, _ := provider.EmbedQuery(ctx, "Verkehrswende")
	same := true
	for i := range e1.Vector {
		if e1.Vector[i] != other.Vector[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different texts produced identical vectors")
	}
}

func TestLocalProviderEmptyText(t *testing.T) {
	provider, _ := NewLocalProvider(nil)
	if _, err := provider.EmbedQuery(context.Background(), ""); !errors.Is(err, ErrEmptyText) {
		t.Errorf("err = %v, want ErrEmptyText", err)
	}
}

func TestLocalProviderBatch(t *testing.T) {
	provider, _ := NewLocalProvider(NewCache(100))

	res, err := provider.EmbedBatch(context.Background(), []string{"eins", "zwei", "drei"})
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}
	if len(res.Embeddings) != 3 {
		t.Fatalf("got %d embeddings, want 3", len(res.Embeddings))
	}
	if len(res.Retained()) != 3 {
		t.Errorf("retained %d, want 3", len(res.Retained()))
	}
	for i, e := range res.Embeddings {
		if e == nil || !IsValid(provider, e.Vector) {
			t.Errorf("embedding %d invalid", i)
		}
	}
}

func TestIsValid(t *testing.T) {
	provider, _ := NewLocalProvider(nil)

	good := make([]float32, LocalDimension)
	if !IsValid(provider, good) {
		t.Error("valid vector rejected")
	}
	if IsValid(provider, nil) {
		t.Error("nil vector accepted")
	}
	if IsValid(provider, make([]float32, 7)) {
		t.Error("wrong dimension accepted")
	}

	bad := make([]float32, LocalDimension)
	bad[5] = float32(math.NaN())
	if IsValid(provider, bad) {
		t.Error("NaN component accepted")
	}
	bad[5] = float32(math.Inf(1))
	if IsValid(provider, bad) {
		t.Error("Inf component accepted")
	}
}

func TestBatchResultRetained(t *testing.T) {
	res := &BatchResult{Embeddings: []*Embedding{
		{Hash: "a"},
		nil,
		{Hash: "c"},
	}}
	retained := res.Retained()
	if len(retained) != 2 {
		t.Fatalf("retained %d, want 2", len(retained))
	}
	if retained[0].Hash != "a" || retained[1].Hash != "c" {
		t.Error("retained order not preserved")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2}

	attempts := 0
	result, err := retryWithBackoff(context.Background(), cfg, func() (string, error) {
		attempts++
		if attempts < 3 {
			return "", errors.New("transient")
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("retryWithBackoff: %v", err)
	}
	if result != "ok" || attempts != 3 {
		t.Errorf("result = %q after %d attempts, want ok after 3", result, attempts)
	}
}

func TestRetryWithBackoffExhausted(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2}

	wantErr := errors.New("permanent")
	_, err := retryWithBackoff(context.Background(), cfg, func() (int, error) {
		return 0, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want last attempt error", err)
	}
}

func TestRetryWithBackoffCancelled(t *testing.T) {
	cfg := DefaultRetryConfig()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := retryWithBackoff(ctx, cfg, func() (int, error) {
		return 0, errors.New("transient")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
