package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gruenerator/docsearch-mcp/pkg/types"
)

// FeedbackSource reads prior query reformulations a user accepted. It feeds
// the feedback confidence of expansion variants.
type FeedbackSource struct {
	pool  *pgxpool.Pool
	limit int
}

// NewFeedbackSource creates the feedback-backed signal source.
func NewFeedbackSource(pool *pgxpool.Pool, limit int) *FeedbackSource {
	if limit <= 0 {
		limit = 5
	}
	return &FeedbackSource{pool: pool, limit: limit}
}

func (s *FeedbackSource) Name() string { return "feedback" }

// RelatedQueries returns reformulations recorded for similar past queries,
// personalized by user when one is known.
func (s *FeedbackSource) RelatedQueries(ctx context.Context, query, userID string) ([]types.ExpandedQuery, error) {
	sql := `
	SELECT expanded_query, confidence
	FROM query_feedback
	WHERE original_query ILIKE $1 AND ($2 = '' OR user_id = $2)
	ORDER BY confidence DESC
	LIMIT $3`

	rows, err := s.pool.Query(ctx, sql, "%"+escapeLike(query)+"%", userID, s.limit)
	if err != nil {
		return nil, fmt.Errorf("feedback query: %w", err)
	}
	defer rows.Close()

	var out []types.ExpandedQuery
	for rows.Next() {
		var q types.ExpandedQuery
		if err := rows.Scan(&q.Text, &q.FeedbackConfidence); err != nil {
			return nil, fmt.Errorf("scan feedback row: %w", err)
		}
		q.SemanticConfidence = 0.5
		out = append(out, q)
	}
	return out, rows.Err()
}

// ConceptSource finds nearby concepts via trigram similarity over the
// concept lexicon. It feeds the semantic confidence of expansion variants.
type ConceptSource struct {
	pool  *pgxpool.Pool
	limit int
}

// NewConceptSource creates the concept-lexicon signal source.
func NewConceptSource(pool *pgxpool.Pool, limit int) *ConceptSource {
	if limit <= 0 {
		limit = 5
	}
	return &ConceptSource{pool: pool, limit: limit}
}

func (s *ConceptSource) Name() string { return "concepts" }

// RelatedQueries returns lexicon terms close to the query. Requires the
// pg_trgm extension.
func (s *ConceptSource) RelatedQueries(ctx context.Context, query, _ string) ([]types.ExpandedQuery, error) {
	sql := `
	SELECT term, similarity(term, $1) AS sim
	FROM concepts
	WHERE term % $1
	ORDER BY sim DESC
	LIMIT $2`

	rows, err := s.pool.Query(ctx, sql, query, s.limit)
	if err != nil {
		return nil, fmt.Errorf("concept query: %w", err)
	}
	defer rows.Close()

	var out []types.ExpandedQuery
	for rows.Next() {
		var q types.ExpandedQuery
		if err := rows.Scan(&q.Text, &q.SemanticConfidence); err != nil {
			return nil, fmt.Errorf("scan concept row: %w", err)
		}
		q.FeedbackConfidence = 0.5
		out = append(out, q)
	}
	return out, rows.Err()
}
