// Package searcher implements hybrid document search combining vector
// similarity and keyword matching.
//
// The searcher provides three search modes:
//   - Hybrid: Combines vector + keyword search with weighted score fusion (recommended)
//   - Vector: Pure semantic search using embeddings
//   - Keyword: Text search only
//
// # Basic Usage
//
//	s, err := searcher.New(vectorStore, keywordStore, emb,
//	    cfg.Search, cfg.Scoring, cfg.Threshold, logger)
//
//	resp, err := s.Search(ctx, searcher.SearchRequest{
//	    Query:    "Klimaschutz in der Kommunalpolitik",
//	    Owner:    userID,
//	    Mode:     searcher.SearchModeHybrid,
//	    Limit:    10,
//	    UseCache: true,
//	})
//
//	for _, doc := range resp.Results {
//	    fmt.Printf("%s (score: %.2f)\n", doc.Title, doc.FinalScore)
//	}
//
// # Score Fusion
//
// Hybrid mode runs both legs concurrently and merges per document:
//
//	combined = vector_score*0.7 + keyword_score*0.3
//
// where vector_score is the best chunk similarity of the document and
// keyword_score is a fixed placeholder, since the keyword backends report
// matches without a comparable relevance value. A document found by only
// one leg keeps that leg's weighted score. One failed leg degrades to the
// surviving one; both legs failing yields Success == false.
//
// # Document Ranking
//
// Within the vector leg, chunk hits aggregate into one entry per document:
//
//	final = max_sim*0.5 + avg_sim*0.3 + position*0.2 + diversity
//
// position decays with the best chunk's index (floor 0.3) and diversity
// adds 0.05 per matching chunk (cap 0.2). The final score is clamped to 1.
//
// # Dynamic Threshold
//
// When the request does not set a threshold, one is derived from query
// length: short queries (1-2 tokens) keep the base cutoff, long queries
// (5+ tokens) get a lower one, clamped to the configured band.
//
// # Caching
//
// Full responses are cached in an LRU keyed by a fingerprint of the query,
// corpus, owner, mode, limit, threshold and document filter. Entries expire
// after the configured TTL and are deep copied on both store and load.
package searcher
