package searcher

import (
	"sort"

	"github.com/gruenerator/docsearch-mcp/internal/config"
	"github.com/gruenerator/docsearch-mcp/pkg/types"
)

// FuseResults merges the vector and keyword legs per document.
//
// Vector hits are aggregated first, seeding one entry per document with
// vector_score = best chunk similarity and combined = vector_score x
// vectorWeight. Keyword documents then merge in: an existing entry gets its
// keyword score set, its combined score recomputed as v*wv + k*wk, the
// keyword source appended and the longer excerpt kept; an unseen document
// becomes a keyword-only entry with combined = k*wk. Entries are sorted by
// combined score descending (stable, so exact ties keep retrieval order)
// and truncated to limit.
//
// The merge is commutative with respect to leg ordering: the resulting set
// and scores do not depend on which leg arrived first.
func FuseResults(vectorHits []types.SimilarityHit, keywordDocs []types.RankedDocument,
	scoring config.ScoringConfig, topChunks, limit int) []types.RankedDocument {

	entries := AggregateDocuments(vectorHits, scoring, topChunks)
	index := make(map[string]int, len(entries))
	for i := range entries {
		entries[i].CombinedScore = entries[i].VectorScore * scoring.VectorWeight
		index[entries[i].DocumentID] = i
	}

	for _, kd := range keywordDocs {
		if i, ok := index[kd.DocumentID]; ok {
			e := &entries[i]
			e.KeywordScore = kd.KeywordScore
			e.CombinedScore = e.VectorScore*scoring.VectorWeight + e.KeywordScore*scoring.KeywordWeight
			e.Sources = append(e.Sources, types.SourceKeyword)
			if len(kd.Excerpt) > len(e.Excerpt) {
				e.Excerpt = kd.Excerpt
			}
			continue
		}
		kd.VectorScore = 0
		kd.CombinedScore = kd.KeywordScore * scoring.KeywordWeight
		index[kd.DocumentID] = len(entries)
		entries = append(entries, kd)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CombinedScore > entries[j].CombinedScore
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}

	// Hybrid entries are ordered and displayed by the fused score; keep the
	// final-score invariant aligned with it.
	for i := range entries {
		final := entries[i].CombinedScore
		if final > 1 {
			final = 1
		}
		entries[i].FinalScore = final
	}
	return entries
}
