package store

import (
	"context"
	"fmt"
	"strings"

	milvusclient "github.com/milvus-io/milvus-sdk-go/v2/client"
	milvusentity "github.com/milvus-io/milvus-sdk-go/v2/entity"
	"github.com/rs/zerolog/log"

	"github.com/gruenerator/docsearch-mcp/internal/config"
	"github.com/gruenerator/docsearch-mcp/pkg/types"
)

// Milvus implements VectorStore against a Milvus collection for
// deployments that run Milvus instead of pgvector. Keyword search and chunk
// fetches still need a relational or bleve backend.
type Milvus struct {
	cli        milvusclient.Client
	collection string
	metricType milvusentity.MetricType
	searchEf   int
}

// NewMilvus connects and verifies the collection exists.
func NewMilvus(ctx context.Context, cfg config.MilvusConfig) (*Milvus, error) {
	cli, err := milvusclient.NewClient(ctx, milvusclient.Config{Address: cfg.Address})
	if err != nil {
		return nil, fmt.Errorf("connect milvus: %w", err)
	}

	collection := cfg.Collection
	if collection == "" {
		collection = "chunks"
	}
	exists, err := cli.HasCollection(ctx, collection)
	if err != nil {
		cli.Close()
		return nil, fmt.Errorf("check collection: %w", err)
	}
	if !exists {
		cli.Close()
		return nil, fmt.Errorf("collection %q not found", collection)
	}
	if err := cli.LoadCollection(ctx, collection, false); err != nil {
		cli.Close()
		return nil, fmt.Errorf("load collection: %w", err)
	}

	ef := cfg.SearchEf
	if ef <= 0 {
		ef = 64
	}
	return &Milvus{
		cli:        cli,
		collection: collection,
		metricType: milvusentity.MetricType(cfg.MetricType),
		searchEf:   ef,
	}, nil
}

// FindSimilar runs the nearest-neighbor search with an expression filter
// built from the owner or document subset. Hits below the threshold are
// dropped here since Milvus has no server-side score cutoff.
func (m *Milvus) FindSimilar(ctx context.Context, q VectorQuery) ([]types.SimilarityHit, error) {
	searchParam, err := milvusentity.NewIndexHNSWSearchParam(m.searchEf)
	if err != nil {
		return nil, fmt.Errorf("search params: %w", err)
	}

	outputFields := []string{
		"id", "document_id", "chunk_index", "chunk_text", "token_count",
		"document_title", "document_filename",
	}

	results, err := m.cli.Search(
		ctx,
		m.collection,
		nil, // partitions
		buildExpr(q),
		outputFields,
		[]milvusentity.Vector{milvusentity.FloatVector(q.Vector)},
		"embedding",
		m.metricType,
		q.Limit,
		searchParam,
	)
	if err != nil {
		return nil, fmt.Errorf("milvus search: %w", err)
	}
	if len(results) == 0 {
		return nil, nil
	}

	rs := results[0]
	hits := make([]types.SimilarityHit, 0, rs.ResultCount)
	for i := 0; i < rs.ResultCount; i++ {
		score := float64(rs.Scores[i])
		if score < q.Threshold {
			continue
		}
		h := types.SimilarityHit{Similarity: score}

		for _, field := range rs.Fields {
			switch col := field.(type) {
			case *milvusentity.ColumnVarChar:
				v, err := col.ValueByIdx(i)
				if err != nil {
					continue
				}
				switch col.Name() {
				case "id":
					h.ID = v
				case "document_id":
					h.DocumentID = v
				case "chunk_text":
					h.Text = v
				case "document_title":
					h.DocumentTitle = v
				case "document_filename":
					h.DocumentFilename = v
				}
			case *milvusentity.ColumnInt64:
				v, err := col.ValueByIdx(i)
				if err != nil {
					continue
				}
				switch col.Name() {
				case "chunk_index":
					h.ChunkIndex = int(v)
				case "token_count":
					h.TokenCount = int(v)
				}
			}
		}
		hits = append(hits, h)
	}
	log.Debug().Int("hits", len(hits)).Int("raw", rs.ResultCount).Msg("milvus search done")
	return hits, nil
}

// Close releases the client.
func (m *Milvus) Close() error {
	return m.cli.Close()
}

// buildExpr renders the boolean filter expression. Document subsets take
// precedence over owner scoping, matching the relational adapter.
func buildExpr(q VectorQuery) string {
	if len(q.DocumentIDs) > 0 {
		quoted := make([]string, len(q.DocumentIDs))
		for i, id := range q.DocumentIDs {
			quoted[i] = fmt.Sprintf("%q", id)
		}
		return fmt.Sprintf("document_id in [%s]", strings.Join(quoted, ","))
	}
	if q.Owner != "" {
		return fmt.Sprintf("owner_id == %q", q.Owner)
	}
	return ""
}
