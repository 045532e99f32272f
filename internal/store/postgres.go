package store

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"github.com/rs/zerolog/log"

	"github.com/gruenerator/docsearch-mcp/internal/config"
	"github.com/gruenerator/docsearch-mcp/pkg/types"
)

// DefaultMatchFunction is the stored procedure used when a corpus profile
// does not override it.
const DefaultMatchFunction = "match_chunks"

// Stored function names come from configuration, never from callers, but
// they are still interpolated as identifiers, so keep them to one safe shape.
var identPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Postgres backs all three store interfaces with one pgx pool: vector
// search via a pgvector stored function, keyword search over the documents
// table, and chunk fetches for context expansion.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects the pool and verifies the connection.
func NewPostgres(ctx context.Context, cfg config.PostgresConfig) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool; used by tests and by callers
// sharing a pool across components.
func NewPostgresFromPool(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// FindSimilar executes the stored nearest-neighbor function. The function
// takes (query_embedding, owner_filter, document_ids_filter,
// similarity_threshold, match_count) and returns chunk rows joined with
// document metadata plus a similarity score.
func (p *Postgres) FindSimilar(ctx context.Context, q VectorQuery) ([]types.SimilarityHit, error) {
	fn := q.Function
	if fn == "" {
		fn = DefaultMatchFunction
	}
	if !identPattern.MatchString(fn) {
		return nil, fmt.Errorf("%w: %q", ErrBadFunction, fn)
	}

	var owner any
	if q.Owner != "" && len(q.DocumentIDs) == 0 {
		owner = q.Owner
	}
	var docIDs any
	if len(q.DocumentIDs) > 0 {
		docIDs = q.DocumentIDs
	}

	sql := fmt.Sprintf(`
	SELECT id, document_id, chunk_index, chunk_text, token_count, metadata,
	       created_at, similarity,
	       document_title, document_filename, document_created_at
	FROM %s($1, $2, $3, $4, $5)`, fn)

	rows, err := p.pool.Query(ctx, sql,
		pgvector.NewVector(q.Vector), owner, docIDs, q.Threshold, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("%s query: %w", fn, err)
	}
	defer rows.Close()

	var hits []types.SimilarityHit
	for rows.Next() {
		var h types.SimilarityHit
		var meta []byte
		if err := rows.Scan(
			&h.ID, &h.DocumentID, &h.ChunkIndex, &h.Text, &h.TokenCount, &meta,
			&h.CreatedAt, &h.Similarity,
			&h.DocumentTitle, &h.DocumentFilename, &h.DocumentCreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan match row: %w", err)
		}
		h.Metadata = parseMetadata(meta)
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("match rows: %w", err)
	}
	return hits, nil
}

// FindKeyword runs a full-text search over the documents table, scoped by
// owner, status and optional document subset. Matching combines a German
// tsvector query with a substring match on the title, because German
// compound words often escape the stemmer. Rows are ranked by ts_rank; the
// rows carry the full body and the caller builds excerpts.
func (p *Postgres) FindKeyword(ctx context.Context, q KeywordQuery) ([]KeywordRow, error) {
	sql, args := buildKeywordSQL(q)

	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("keyword query: %w", err)
	}
	defer rows.Close()

	var out []KeywordRow
	for rows.Next() {
		var r KeywordRow
		if err := rows.Scan(&r.DocumentID, &r.Title, &r.Filename, &r.Body, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan keyword row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("keyword rows: %w", err)
	}
	return out, nil
}

// buildKeywordSQL assembles the full-text query and its positional
// arguments.
func buildKeywordSQL(q KeywordQuery) (string, []any) {
	var (
		conds  []string
		args   []any
		argPos int
	)
	next := func(v any) string {
		argPos++
		args = append(args, v)
		return fmt.Sprintf("$%d", argPos)
	}

	tsq := next(q.Query)
	titlePattern := next("%" + escapeLike(q.Query) + "%")
	conds = append(conds, fmt.Sprintf(
		"(to_tsvector('german', title || ' ' || content) @@ plainto_tsquery('german', %s) OR title ILIKE %s)",
		tsq, titlePattern))

	if len(q.DocumentIDs) > 0 {
		conds = append(conds, fmt.Sprintf("id = ANY(%s)", next(q.DocumentIDs)))
	} else if q.Owner != "" {
		conds = append(conds, fmt.Sprintf("owner_id = %s", next(q.Owner)))
	}
	if q.Status != "" {
		conds = append(conds, fmt.Sprintf("status = %s", next(q.Status)))
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 10
	}

	sql := fmt.Sprintf(`
	SELECT id, title, COALESCE(filename, ''), content, created_at
	FROM documents
	WHERE %s
	ORDER BY ts_rank(to_tsvector('german', title || ' ' || content), plainto_tsquery('german', %s)) DESC,
	         created_at DESC
	LIMIT %s`, strings.Join(conds, " AND "), tsq, next(limit))

	return sql, args
}

// GetChunkByIndex fetches one chunk by document and position, including its
// structural metadata for context expansion.
func (p *Postgres) GetChunkByIndex(ctx context.Context, documentID string, index int) (*types.Chunk, error) {
	sql := `
	SELECT id, document_id, chunk_index, chunk_text, token_count, metadata, created_at
	FROM document_chunks
	WHERE document_id = $1 AND chunk_index = $2`

	var c types.Chunk
	var meta []byte
	err := p.pool.QueryRow(ctx, sql, documentID, index).Scan(
		&c.ID, &c.DocumentID, &c.ChunkIndex, &c.Text, &c.TokenCount, &meta, &c.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrChunkNotFound
		}
		return nil, fmt.Errorf("chunk query: %w", err)
	}
	c.Metadata = parseMetadata(meta)
	return &c, nil
}

// Pool exposes the underlying pool so signal sources can share it.
func (p *Postgres) Pool() *pgxpool.Pool {
	return p.pool
}

// Close releases the pool.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

// parseMetadata tolerates missing or malformed metadata; structural links
// are optional and a bad blob only disables context expansion for that
// chunk.
func parseMetadata(raw []byte) *types.ChunkMetadata {
	if len(raw) == 0 {
		return nil
	}
	var m types.ChunkMetadata
	if err := json.Unmarshal(raw, &m); err != nil {
		log.Debug().Err(err).Msg("chunk metadata unreadable, ignored")
		return nil
	}
	return &m
}

// escapeLike protects LIKE wildcards in user queries.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
