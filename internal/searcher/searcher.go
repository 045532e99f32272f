package searcher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gruenerator/docsearch-mcp/internal/config"
	"github.com/gruenerator/docsearch-mcp/internal/embedder"
	"github.com/gruenerator/docsearch-mcp/internal/expansion"
	"github.com/gruenerator/docsearch-mcp/internal/store"
	"github.com/gruenerator/docsearch-mcp/pkg/types"
)

// SearchMode defines how search is performed
type SearchMode string

const (
	SearchModeHybrid  SearchMode = "hybrid"  // Vector + keyword with weighted fusion
	SearchModeVector  SearchMode = "vector"  // Vector similarity only
	SearchModeKeyword SearchMode = "keyword" // Text search only
)

// SearchRequest contains parameters for a search operation
type SearchRequest struct {
	Query  string
	Corpus string
	Owner  string
	Mode   SearchMode
	Limit  int
	// Threshold overrides the dynamic similarity threshold when > 0.
	Threshold   float64
	DocumentIDs []string
	UseCache    bool
	// KeywordFallback retries the keyword leg when a vector-only search
	// returns nothing.
	KeywordFallback bool
}

// Searcher coordinates query expansion, both search legs, score fusion and
// the response cache.
type Searcher struct {
	vector   store.VectorStore
	keyword  store.KeywordStore
	chunks   store.ChunkStore
	embedder embedder.Embedder
	expander *expansion.Expander
	fuser    *expansion.Fuser
	cache    *resultCache
	profiles map[string]CorpusProfile
	cfg      config.SearchConfig
	scoring  config.ScoringConfig
	thresh   config.ThresholdConfig
	log      zerolog.Logger
	now      func() time.Time
}

// Option configures a Searcher.
type Option func(*Searcher)

// WithExpansion enables multi-query expansion for the vector leg.
func WithExpansion(exp *expansion.Expander, fuser *expansion.Fuser) Option {
	return func(s *Searcher) {
		s.expander = exp
		s.fuser = fuser
	}
}

// WithChunkStore enables context expansion over neighboring chunks.
func WithChunkStore(cs store.ChunkStore) Option {
	return func(s *Searcher) { s.chunks = cs }
}

// WithProfiles replaces the default corpus profiles.
func WithProfiles(profiles map[string]CorpusProfile) Option {
	return func(s *Searcher) { s.profiles = profiles }
}

// WithClock injects a time source for cache expiry tests.
func WithClock(now func() time.Time) Option {
	return func(s *Searcher) { s.now = now }
}

// New creates a Searcher over the given stores and embedder.
func New(vector store.VectorStore, keyword store.KeywordStore, emb embedder.Embedder,
	cfg config.SearchConfig, scoring config.ScoringConfig, thresh config.ThresholdConfig,
	log zerolog.Logger, opts ...Option) (*Searcher, error) {

	s := &Searcher{
		vector:   vector,
		keyword:  keyword,
		embedder: emb,
		profiles: DefaultProfiles(),
		cfg:      cfg,
		scoring:  scoring,
		thresh:   thresh,
		log:      log.With().Str("component", "searcher").Logger(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	cache, err := newResultCache(cfg.CacheSize, cfg.CacheTTL, s.now)
	if err != nil {
		return nil, fmt.Errorf("create result cache: %w", err)
	}
	s.cache = cache
	return s, nil
}

// Search performs a search based on the request parameters. It returns an
// error only for invalid requests; backend failures surface as a response
// with Success == false so callers always get the response contract.
func (s *Searcher) Search(ctx context.Context, req SearchRequest) (*types.SearchResponse, error) {
	start := s.now()

	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		return nil, fmt.Errorf("query must not be empty")
	}
	if req.Mode == "" {
		req.Mode = SearchModeHybrid
	}
	switch req.Mode {
	case SearchModeHybrid, SearchModeVector, SearchModeKeyword:
	default:
		return nil, fmt.Errorf("unsupported search mode: %s", req.Mode)
	}
	profile, err := resolveProfile(s.profiles, req.Corpus)
	if err != nil {
		return nil, err
	}
	if len(profile.DocumentIDs) > 0 {
		req.DocumentIDs = profile.DocumentIDs
		req.Owner = ""
	}
	if req.Limit == 0 {
		req.Limit = s.cfg.DefaultLimit
	}
	req.Limit = ClampLimit(req.Limit, s.cfg.MaxLimit)
	if req.Threshold <= 0 {
		req.Threshold = DynamicThreshold(req.Query, s.thresh)
	} else {
		req.Threshold = ClampThreshold(req.Threshold)
	}

	requestID := uuid.NewString()
	logger := s.log.With().Str("request_id", requestID).Str("mode", string(req.Mode)).Logger()

	key := cacheKey(req.Query, profile.Name, req.Owner, string(req.Mode),
		req.Limit, req.Threshold, req.DocumentIDs, req.KeywordFallback)
	if req.UseCache {
		if cached, ok := s.cache.get(key); ok {
			cached.RequestID = requestID
			cached.Duration = s.now().Sub(start)
			logger.Debug().Msg("cache hit")
			return cached, nil
		}
	}

	var resp *types.SearchResponse
	switch req.Mode {
	case SearchModeHybrid:
		resp = s.hybridSearch(ctx, req, profile, logger)
	case SearchModeVector:
		resp = s.vectorSearch(ctx, req, profile, logger)
	case SearchModeKeyword:
		resp = s.keywordSearch(ctx, req, profile, logger)
	}

	resp.Query = req.Query
	resp.SearchType = string(req.Mode)
	resp.RequestID = requestID
	resp.Duration = s.now().Sub(start)
	if resp.Success && len(resp.Results) == 0 && resp.Message == "" {
		resp.Message = profile.EmptyMessage
	}

	if req.UseCache && resp.Success {
		s.cache.put(key, resp)
	}
	logger.Info().
		Int("results", len(resp.Results)).
		Int("vector_hits", resp.VectorHits).
		Int("keyword_hits", resp.KeywordHits).
		Dur("duration", resp.Duration).
		Bool("success", resp.Success).
		Msg("search complete")
	return resp, nil
}

// legResult holds the outcome of one concurrent search leg.
type legResult struct {
	hits []types.SimilarityHit
	rows []store.KeywordRow
	err  error
}

// buildQueryVector expands the query into variants and fuses their
// embeddings. Expansion is best effort: when it is disabled or every
// variant embedding fails, the original query is embedded alone.
func (s *Searcher) buildQueryVector(ctx context.Context, req SearchRequest, logger zerolog.Logger) ([]float32, error) {
	if s.expander == nil || s.fuser == nil {
		emb, err := s.embedder.EmbedQuery(ctx, req.Query)
		if err != nil {
			return nil, err
		}
		return emb.Vector, nil
	}
	exp := s.expander.Expand(ctx, req.Query, req.Owner)
	vec, err := s.fuser.BuildQueryVector(ctx, exp)
	if errors.Is(err, expansion.ErrNoEmbeddings) {
		logger.Warn().Msg("all variant embeddings failed, embedding original query only")
		emb, embErr := s.embedder.EmbedQuery(ctx, req.Query)
		if embErr != nil {
			return nil, embErr
		}
		return emb.Vector, nil
	}
	return vec, err
}

func (s *Searcher) runVectorLeg(ctx context.Context, req SearchRequest, profile CorpusProfile,
	logger zerolog.Logger, out chan<- legResult) {

	var res legResult
	vec, err := s.buildQueryVector(ctx, req, logger)
	if err != nil {
		res.err = fmt.Errorf("build query vector: %w", err)
	} else {
		res.hits, res.err = s.vector.FindSimilar(ctx, store.VectorQuery{
			Vector:      vec,
			Function:    profile.MatchFunction,
			Owner:       req.Owner,
			DocumentIDs: req.DocumentIDs,
			Threshold:   req.Threshold,
			Limit:       req.Limit * 2,
		})
	}
	select {
	case out <- res:
	case <-ctx.Done():
	}
}

func (s *Searcher) runKeywordLeg(ctx context.Context, req SearchRequest, profile CorpusProfile,
	out chan<- legResult) {

	var res legResult
	res.rows, res.err = s.keyword.FindKeyword(ctx, store.KeywordQuery{
		Query:       req.Query,
		Owner:       req.Owner,
		Status:      profile.DocumentStatus,
		DocumentIDs: req.DocumentIDs,
		Limit:       req.Limit * 2,
	})
	select {
	case out <- res:
	case <-ctx.Done():
	}
}

// hybridSearch runs both legs concurrently and fuses the scores. A single
// failed leg degrades to the surviving one; both failing yields an
// unsuccessful response.
func (s *Searcher) hybridSearch(ctx context.Context, req SearchRequest, profile CorpusProfile,
	logger zerolog.Logger) *types.SearchResponse {

	legCtx := ctx
	if s.cfg.LegTimeout > 0 {
		var cancel context.CancelFunc
		legCtx, cancel = context.WithTimeout(ctx, s.cfg.LegTimeout)
		defer cancel()
	}

	vectorChan := make(chan legResult, 1)
	keywordChan := make(chan legResult, 1)
	go s.runVectorLeg(legCtx, req, profile, logger, vectorChan)
	go s.runKeywordLeg(legCtx, req, profile, keywordChan)

	var vectorRes, keywordRes legResult
	var vectorDone, keywordDone bool
	for !vectorDone || !keywordDone {
		select {
		case vectorRes = <-vectorChan:
			vectorDone = true
		case keywordRes = <-keywordChan:
			keywordDone = true
		case <-legCtx.Done():
			return &types.SearchResponse{Error: legCtx.Err().Error()}
		}
	}

	if vectorRes.err != nil && keywordRes.err != nil {
		logger.Error().
			AnErr("vector", vectorRes.err).
			AnErr("keyword", keywordRes.err).
			Msg("both search legs failed")
		return &types.SearchResponse{
			Error: fmt.Sprintf("both searches failed: vector=%v, keyword=%v", vectorRes.err, keywordRes.err),
		}
	}
	if vectorRes.err != nil {
		logger.Warn().Err(vectorRes.err).Msg("vector leg failed, serving keyword results only")
		vectorRes.hits = nil
	}
	if keywordRes.err != nil {
		logger.Warn().Err(keywordRes.err).Msg("keyword leg failed, serving vector results only")
		keywordRes.rows = nil
	}

	keywordDocs := KeywordDocuments(keywordRes.rows, req.Query,
		s.scoring.KeywordPlaceholder, s.cfg.ExcerptLength)
	results := FuseResults(vectorRes.hits, keywordDocs, s.scoring, s.cfg.TopChunks, req.Limit)

	return &types.SearchResponse{
		Success:     true,
		Results:     results,
		VectorHits:  len(vectorRes.hits),
		KeywordHits: len(keywordDocs),
	}
}

// vectorSearch performs only vector similarity search, optionally falling
// back to the keyword leg when nothing clears the threshold.
func (s *Searcher) vectorSearch(ctx context.Context, req SearchRequest, profile CorpusProfile,
	logger zerolog.Logger) *types.SearchResponse {

	vec, err := s.buildQueryVector(ctx, req, logger)
	if err != nil {
		return &types.SearchResponse{Error: fmt.Sprintf("build query vector: %v", err)}
	}
	hits, err := s.vector.FindSimilar(ctx, store.VectorQuery{
		Vector:      vec,
		Function:    profile.MatchFunction,
		Owner:       req.Owner,
		DocumentIDs: req.DocumentIDs,
		Threshold:   req.Threshold,
		Limit:       req.Limit * 2,
	})
	if err != nil {
		return &types.SearchResponse{Error: fmt.Sprintf("vector search: %v", err)}
	}

	if len(hits) == 0 && req.KeywordFallback {
		logger.Debug().Msg("no vector hits, falling back to keyword search")
		fallback := s.keywordSearch(ctx, req, profile, logger)
		if fallback.Success && len(fallback.Results) > 0 {
			fallback.Message = "No semantic matches found; showing keyword matches instead."
			return fallback
		}
	}

	results := AggregateDocuments(hits, s.scoring, s.cfg.TopChunks)
	if len(results) > req.Limit {
		results = results[:req.Limit]
	}
	return &types.SearchResponse{
		Success:    true,
		Results:    results,
		VectorHits: len(hits),
	}
}

// keywordSearch performs only text search.
func (s *Searcher) keywordSearch(ctx context.Context, req SearchRequest, profile CorpusProfile,
	logger zerolog.Logger) *types.SearchResponse {

	rows, err := s.keyword.FindKeyword(ctx, store.KeywordQuery{
		Query:       req.Query,
		Owner:       req.Owner,
		Status:      profile.DocumentStatus,
		DocumentIDs: req.DocumentIDs,
		Limit:       req.Limit,
	})
	if err != nil {
		logger.Error().Err(err).Msg("keyword search failed")
		return &types.SearchResponse{Error: fmt.Sprintf("keyword search: %v", err)}
	}
	results := KeywordDocuments(rows, req.Query, s.scoring.KeywordPlaceholder, s.cfg.ExcerptLength)
	if len(results) > req.Limit {
		results = results[:req.Limit]
	}
	return &types.SearchResponse{
		Success:     true,
		Results:     results,
		KeywordHits: len(results),
	}
}
