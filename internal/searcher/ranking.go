package searcher

import (
	"sort"

	"github.com/gruenerator/docsearch-mcp/internal/config"
	"github.com/gruenerator/docsearch-mcp/pkg/types"
)

// ExcerptSeparator visibly joins the retained chunk excerpts of one
// document. Citation-extraction consumers split on it.
const ExcerptSeparator = "\n\n---\n\n"

// AggregateDocuments groups raw chunk hits by document and computes the
// enhanced per-document scores:
//
//	position_weight = max(floor, 1 - chunk_index*decay)
//	position_score  = mean(similarity * position_weight)
//	diversity_bonus = min(cap, chunk_count*perChunk)
//	final_score     = max*wMax + avg*wAvg + position*wPos + diversity
//
// clamped to 1. The blend balances "best single match" against broad
// document relevance; the constants are behavioral contract, not tuning
// suggestions. Only the topChunks best chunks per document are retained
// for the excerpt. Documents come back sorted by final score, descending.
func AggregateDocuments(hits []types.SimilarityHit, cfg config.ScoringConfig, topChunks int) []types.RankedDocument {
	if topChunks <= 0 {
		topChunks = 3
	}

	byDoc := make(map[string][]types.SimilarityHit)
	order := make([]string, 0)
	for _, h := range hits {
		if _, seen := byDoc[h.DocumentID]; !seen {
			order = append(order, h.DocumentID)
		}
		byDoc[h.DocumentID] = append(byDoc[h.DocumentID], h)
	}

	docs := make([]types.RankedDocument, 0, len(byDoc))
	for _, id := range order {
		chunks := byDoc[id]
		sort.SliceStable(chunks, func(i, j int) bool {
			return chunks[i].Similarity > chunks[j].Similarity
		})

		var sum, positionSum float64
		maxSim := chunks[0].Similarity
		for _, c := range chunks {
			sum += c.Similarity
			weight := 1 - float64(c.ChunkIndex)*cfg.PositionDecay
			if weight < cfg.PositionFloor {
				weight = cfg.PositionFloor
			}
			positionSum += c.Similarity * weight
		}
		n := float64(len(chunks))
		avg := sum / n
		position := positionSum / n

		diversity := n * cfg.DiversityPerChunk
		if diversity > cfg.DiversityCap {
			diversity = cfg.DiversityCap
		}

		final := maxSim*cfg.MaxWeight + avg*cfg.AvgWeight + position*cfg.PositionWeight + diversity
		if final > 1 {
			final = 1
		}

		retained := chunks
		if len(retained) > topChunks {
			retained = retained[:topChunks]
		}

		doc := types.RankedDocument{
			DocumentID:     id,
			Title:          chunks[0].DocumentTitle,
			Filename:       chunks[0].DocumentFilename,
			Chunks:         retained,
			Excerpt:        joinExcerpts(retained),
			MaxSimilarity:  maxSim,
			AvgSimilarity:  avg,
			PositionScore:  position,
			DiversityBonus: diversity,
			FinalScore:     final,
			VectorScore:    maxSim,
			Sources:        []types.SearchSource{types.SourceVector},
		}
		docs = append(docs, doc)
	}

	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].FinalScore > docs[j].FinalScore
	})
	return docs
}

func joinExcerpts(chunks []types.SimilarityHit) string {
	out := ""
	for i, c := range chunks {
		if i > 0 {
			out += ExcerptSeparator
		}
		if c.Excerpt != "" {
			out += c.Excerpt
		} else {
			out += c.Text
		}
	}
	return out
}
