package expansion

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gruenerator/docsearch-mcp/internal/config"
	"github.com/gruenerator/docsearch-mcp/internal/embedder"
	"github.com/gruenerator/docsearch-mcp/pkg/types"
)

// mockEmbedder serves fixed 4-dim vectors per text
type mockEmbedder struct {
	vectors    map[string][]float32
	queryErr   error
	batchErr   error
	queryCalls int
}

func (m *mockEmbedder) EmbedQuery(ctx context.Context, text string) (*embedder.Embedding, error) {
	m.queryCalls++
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	vec, ok := m.vectors[text]
	if !ok {
		return nil, errors.New("unknown text")
	}
	return &embedder.Embedding{Vector: vec, Dimension: 4, Provider: "mock", Model: "mock-model"}, nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) (*embedder.BatchResult, error) {
	if m.batchErr != nil {
		return nil, m.batchErr
	}
	out := make([]*embedder.Embedding, len(texts))
	for i, text := range texts {
		if vec, ok := m.vectors[text]; ok {
			out[i] = &embedder.Embedding{Vector: vec, Dimension: 4, Provider: "mock", Model: "mock-model"}
		}
	}
	return &embedder.BatchResult{Embeddings: out, Provider: "mock", Model: "mock-model"}, nil
}

func (m *mockEmbedder) Dimension() int   { return 4 }
func (m *mockEmbedder) Provider() string { return "mock" }
func (m *mockEmbedder) Model() string    { return "mock-model" }
func (m *mockEmbedder) Close() error     { return nil }

func expansionOf(original string, variants ...types.ExpandedQuery) *types.QueryExpansion {
	queries := append([]types.ExpandedQuery{
		{Text: original, SemanticConfidence: 1, FeedbackConfidence: 1},
	}, variants...)
	return &types.QueryExpansion{OriginalQuery: original, Queries: queries}
}

func TestBuildQueryVectorFallbackUsesOriginal(t *testing.T) {
	emb := &mockEmbedder{vectors: map[string][]float32{
		"Klima": {1, 0, 0, 0},
	}}
	f := NewFuser(emb, config.Default().Expansion, 2)

	vec, err := f.BuildQueryVector(context.Background(), types.NewFallbackExpansion("Klima"))
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0, 0, 0}, vec)
	assert.Equal(t, 1, emb.queryCalls)
}

func TestBuildQueryVectorSingleQuery(t *testing.T) {
	emb := &mockEmbedder{vectors: map[string][]float32{
		"Klima": {0, 1, 0, 0},
	}}
	f := NewFuser(emb, config.Default().Expansion, 2)

	vec, err := f.BuildQueryVector(context.Background(), expansionOf("Klima"))
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1, 0, 0}, vec)
}

func TestBuildQueryVectorWeightedAverage(t *testing.T) {
	emb := &mockEmbedder{vectors: map[string][]float32{
		"Klima":       {1, 0, 0, 0},
		"Klimawandel": {0, 1, 0, 0},
	}}
	cfg := config.Default().Expansion
	f := NewFuser(emb, cfg, 2)

	exp := expansionOf("Klima", types.ExpandedQuery{
		Text: "Klimawandel", SemanticConfidence: 1, FeedbackConfidence: 1,
	})
	vec, err := f.BuildQueryVector(context.Background(), exp)
	require.NoError(t, err)
	require.Len(t, vec, 4)

	// Original weight 1.0, variant weight 0.5 x (0.5 + 1/2) = 0.5.
	// Normalized: 2/3 and 1/3.
	assert.InDelta(t, 2.0/3.0, float64(vec[0]), 1e-6)
	assert.InDelta(t, 1.0/3.0, float64(vec[1]), 1e-6)
	assert.InDelta(t, 0, float64(vec[2]), 1e-6)
}

// Normalized weights sum to 1: averaging identical vectors returns the
// vector itself.
func TestBuildQueryVectorWeightsNormalized(t *testing.T) {
	same := []float32{0.5, 0.5, 0.5, 0.5}
	emb := &mockEmbedder{vectors: map[string][]float32{
		"Klima":       same,
		"Klimawandel": same,
		"Klimaschutz": same,
	}}
	f := NewFuser(emb, config.Default().Expansion, 2)

	exp := expansionOf("Klima",
		types.ExpandedQuery{Text: "Klimawandel", SemanticConfidence: 0.9, FeedbackConfidence: 0.4},
		types.ExpandedQuery{Text: "Klimaschutz", SemanticConfidence: 0.2, FeedbackConfidence: 0.7},
	)
	vec, err := f.BuildQueryVector(context.Background(), exp)
	require.NoError(t, err)
	for j := range vec {
		assert.InDelta(t, 0.5, float64(vec[j]), 1e-6)
	}
}

// The original query always outweighs any single expansion variant.
func TestBuildQueryVectorOriginalDominates(t *testing.T) {
	emb := &mockEmbedder{vectors: map[string][]float32{
		"Klima":       {1, 0, 0, 0},
		"Klimawandel": {0, 1, 0, 0},
	}}
	f := NewFuser(emb, config.Default().Expansion, 2)

	exp := expansionOf("Klima", types.ExpandedQuery{
		Text: "Klimawandel", SemanticConfidence: 1, FeedbackConfidence: 1,
	})
	vec, err := f.BuildQueryVector(context.Background(), exp)
	require.NoError(t, err)
	assert.Greater(t, vec[0], vec[1])
}

// A single retained embedding comes back exactly, not averaged.
func TestBuildQueryVectorSingleRetained(t *testing.T) {
	emb := &mockEmbedder{vectors: map[string][]float32{
		"Klima": {0.123, 0.456, 0.789, 0.5},
		// "Klimawandel" missing: its batch item fails.
	}}
	f := NewFuser(emb, config.Default().Expansion, 2)

	exp := expansionOf("Klima", types.ExpandedQuery{
		Text: "Klimawandel", SemanticConfidence: 1, FeedbackConfidence: 1,
	})
	vec, err := f.BuildQueryVector(context.Background(), exp)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.123, 0.456, 0.789, 0.5}, vec)
}

func TestBuildQueryVectorAllFailed(t *testing.T) {
	emb := &mockEmbedder{vectors: map[string][]float32{}}
	f := NewFuser(emb, config.Default().Expansion, 2)

	exp := expansionOf("Klima", types.ExpandedQuery{
		Text: "Klimawandel", SemanticConfidence: 1, FeedbackConfidence: 1,
	})
	_, err := f.BuildQueryVector(context.Background(), exp)
	assert.ErrorIs(t, err, ErrNoEmbeddings)
}

func TestBuildQueryVectorBatchErrorDropsItems(t *testing.T) {
	emb := &mockEmbedder{batchErr: errors.New("provider down")}
	f := NewFuser(emb, config.Default().Expansion, 2)

	exp := expansionOf("Klima", types.ExpandedQuery{
		Text: "Klimawandel", SemanticConfidence: 1, FeedbackConfidence: 1,
	})
	_, err := f.BuildQueryVector(context.Background(), exp)
	assert.ErrorIs(t, err, ErrNoEmbeddings)
}

func TestBuildQueryVectorInvalidVectorDropped(t *testing.T) {
	emb := &mockEmbedder{vectors: map[string][]float32{
		"Klima":       {float32(math.NaN()), 0, 0, 0},
		"Klimawandel": {0, 1, 0, 0},
	}}
	f := NewFuser(emb, config.Default().Expansion, 2)

	exp := expansionOf("Klima", types.ExpandedQuery{
		Text: "Klimawandel", SemanticConfidence: 1, FeedbackConfidence: 1,
	})
	vec, err := f.BuildQueryVector(context.Background(), exp)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1, 0, 0}, vec, "NaN original dropped, variant returned exactly")
}

func TestBuildQueryVectorEmptyExpansion(t *testing.T) {
	f := NewFuser(&mockEmbedder{}, config.Default().Expansion, 2)

	_, err := f.BuildQueryVector(context.Background(), nil)
	assert.Error(t, err)
}
