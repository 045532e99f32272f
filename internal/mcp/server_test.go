package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gruenerator/docsearch-mcp/internal/config"
	"github.com/gruenerator/docsearch-mcp/internal/embedder"
	"github.com/gruenerator/docsearch-mcp/internal/searcher"
	"github.com/gruenerator/docsearch-mcp/internal/store"
	"github.com/gruenerator/docsearch-mcp/pkg/types"
)

type stubVectorStore struct {
	hits []types.SimilarityHit
}

func (s *stubVectorStore) FindSimilar(ctx context.Context, q store.VectorQuery) ([]types.SimilarityHit, error) {
	return s.hits, nil
}

func (s *stubVectorStore) Close() error { return nil }

type stubKeywordStore struct {
	rows []store.KeywordRow
}

func (s *stubKeywordStore) FindKeyword(ctx context.Context, q store.KeywordQuery) ([]store.KeywordRow, error) {
	return s.rows, nil
}

func (s *stubKeywordStore) Close() error { return nil }

func setupTestServer(t *testing.T, hits []types.SimilarityHit, rows []store.KeywordRow) *Server {
	t.Helper()

	emb, err := embedder.New(config.EmbeddingConfig{Provider: "local", CacheSize: 10, BatchConcurrency: 2})
	require.NoError(t, err)

	cfg := config.Default()
	s, err := searcher.New(&stubVectorStore{hits: hits}, &stubKeywordStore{rows: rows},
		emb, cfg.Search, cfg.Scoring, cfg.Threshold, zerolog.Nop())
	require.NoError(t, err)

	return NewServer(s, zerolog.Nop())
}

func callRequest(args map[string]interface{}) mcpgo.CallToolRequest {
	var req mcpgo.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcpgo.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	switch c := result.Content[0].(type) {
	case mcpgo.TextContent:
		return c.Text
	case *mcpgo.TextContent:
		return c.Text
	default:
		t.Fatalf("unexpected content type %T", result.Content[0])
		return ""
	}
}

func TestToolDefinitions(t *testing.T) {
	search := searchDocumentsTool()
	assert.Equal(t, "search_documents", search.Name)
	assert.Equal(t, []string{"query"}, search.InputSchema.Required)
	assert.Contains(t, search.InputSchema.Properties, "mode")
	assert.Contains(t, search.InputSchema.Properties, "threshold")

	withContext := searchDocumentsWithContextTool()
	assert.Equal(t, "search_documents_with_context", withContext.Name)
	assert.Contains(t, withContext.InputSchema.Properties, "context_options")
}

func TestHandleSearchDocumentsMissingQuery(t *testing.T) {
	s := setupTestServer(t, nil, nil)

	_, err := s.handleSearchDocuments(context.Background(), callRequest(map[string]interface{}{}))
	require.Error(t, err)

	var mcpErr *MCPError
	require.True(t, errors.As(err, &mcpErr))
	assert.Equal(t, ErrorCodeEmptyQuery, mcpErr.Code)
}

func TestHandleSearchDocumentsInvalidMode(t *testing.T) {
	s := setupTestServer(t, nil, nil)

	_, err := s.handleSearchDocuments(context.Background(), callRequest(map[string]interface{}{
		"query": "Klima",
		"mode":  "fuzzy",
	}))
	require.Error(t, err)

	var mcpErr *MCPError
	require.True(t, errors.As(err, &mcpErr))
	assert.Equal(t, ErrorCodeInvalidParams, mcpErr.Code)
}

func TestHandleSearchDocumentsInvalidLimit(t *testing.T) {
	s := setupTestServer(t, nil, nil)

	_, err := s.handleSearchDocuments(context.Background(), callRequest(map[string]interface{}{
		"query": "Klima",
		"limit": float64(500),
	}))
	require.Error(t, err)

	var mcpErr *MCPError
	require.True(t, errors.As(err, &mcpErr))
	assert.Equal(t, ErrorCodeInvalidParams, mcpErr.Code)
}

func TestHandleSearchDocumentsUnknownCorpus(t *testing.T) {
	s := setupTestServer(t, nil, nil)

	_, err := s.handleSearchDocuments(context.Background(), callRequest(map[string]interface{}{
		"query":  "Klima",
		"corpus": "geheim",
	}))
	require.Error(t, err)

	var mcpErr *MCPError
	require.True(t, errors.As(err, &mcpErr))
	assert.Equal(t, ErrorCodeUnknownCorpus, mcpErr.Code)
}

func TestHandleSearchDocuments(t *testing.T) {
	hits := []types.SimilarityHit{{
		Chunk: types.Chunk{
			ID:         "c1",
			DocumentID: "d1",
			ChunkIndex: 0,
			Text:       "Der kommunale Klimaschutz braucht Förderung.",
			TokenCount: 8,
		},
		Similarity:    0.85,
		DocumentTitle: "Klimaschutz",
	}}
	s := setupTestServer(t, hits, nil)

	result, err := s.handleSearchDocuments(context.Background(), callRequest(map[string]interface{}{
		"query": "Klimaschutz",
		"owner": "alice",
	}))
	require.NoError(t, err)

	var resp types.SearchResponse
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &resp))
	assert.True(t, resp.Success)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "d1", resp.Results[0].DocumentID)
	assert.Equal(t, "hybrid", resp.SearchType)
}

func TestHandleSearchDocumentsZeroHits(t *testing.T) {
	s := setupTestServer(t, nil, nil)

	result, err := s.handleSearchDocuments(context.Background(), callRequest(map[string]interface{}{
		"query": "Quantencomputer",
	}))
	require.NoError(t, err)

	var resp types.SearchResponse
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &resp))
	assert.True(t, resp.Success)
	assert.Empty(t, resp.Results)
	assert.NotEmpty(t, resp.Message)
}

func TestHandleSearchWithContextOptions(t *testing.T) {
	hits := []types.SimilarityHit{{
		Chunk: types.Chunk{
			ID:         "c1",
			DocumentID: "d1",
			Text:       "Treffer",
			TokenCount: 2,
		},
		Similarity: 0.9,
	}}
	s := setupTestServer(t, hits, nil)

	// No chunk store is wired, so expansion is skipped but the search
	// itself must still succeed.
	result, err := s.handleSearchDocumentsWithContext(context.Background(), callRequest(map[string]interface{}{
		"query": "Treffer",
		"context_options": map[string]interface{}{
			"token_budget": float64(500),
			"include_prev": false,
		},
	}))
	require.NoError(t, err)

	var resp types.SearchResponse
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &resp))
	assert.True(t, resp.Success)
	require.Len(t, resp.Results, 1)
}

func TestMCPErrorFormat(t *testing.T) {
	err := newMCPError(ErrorCodeInvalidParams, "limit out of range", nil)
	assert.Contains(t, err.Error(), "-32602")
	assert.Contains(t, err.Error(), "limit out of range")
}
