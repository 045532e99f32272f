package expansion

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/gruenerator/docsearch-mcp/pkg/types"
)

// SignalSource produces candidate query variants from one external signal
// (prior feedback, related concepts). Sources are read-only; a failing
// source is skipped, never fatal.
type SignalSource interface {
	// RelatedQueries returns variants for the query, each with semantic and
	// feedback confidence in [0, 1]. userID is opaque and only personalizes
	// the lookup; it may be empty.
	RelatedQueries(ctx context.Context, query, userID string) ([]types.ExpandedQuery, error)

	// Name identifies the source in logs.
	Name() string
}

// Expander produces ranked query expansions. Expansion failure must never
// abort a search, so Expand converts every internal error into a fallback
// result.
type Expander struct {
	sources     []SignalSource
	maxVariants int
}

// NewExpander creates an expander over the given signal sources.
// maxVariants caps the expansion list, original query included.
func NewExpander(maxVariants int, sources ...SignalSource) *Expander {
	if maxVariants <= 0 {
		maxVariants = 5
	}
	return &Expander{sources: sources, maxVariants: maxVariants}
}

// Expand returns up to maxVariants query variants ordered by decreasing
// expected usefulness, the unmodified original always at index 0. When no
// source yields a usable variant the result has Fallback set and callers
// must embed the original query only.
func (e *Expander) Expand(ctx context.Context, query, userID string) *types.QueryExpansion {
	query = strings.TrimSpace(query)
	if query == "" {
		return types.NewFallbackExpansion(query)
	}

	var candidates []types.ExpandedQuery
	for _, src := range e.sources {
		found, err := src.RelatedQueries(ctx, query, userID)
		if err != nil {
			log.Warn().Err(err).Str("source", src.Name()).Msg("expansion source failed, skipped")
			continue
		}
		candidates = append(candidates, found...)
	}

	variants := e.rankAndDedupe(query, candidates)
	if len(variants) == 0 {
		return types.NewFallbackExpansion(query)
	}

	queries := make([]types.ExpandedQuery, 0, e.maxVariants)
	queries = append(queries, types.ExpandedQuery{Text: query, SemanticConfidence: 1, FeedbackConfidence: 1})
	for _, v := range variants {
		if len(queries) == e.maxVariants {
			break
		}
		queries = append(queries, v)
	}

	return &types.QueryExpansion{
		OriginalQuery: query,
		Queries:       queries,
		Fallback:      false,
	}
}

// rankAndDedupe drops empty, duplicate and original-equal candidates and
// orders the rest by mean confidence, descending. Ordering is stable so
// equally confident variants keep source order.
func (e *Expander) rankAndDedupe(original string, candidates []types.ExpandedQuery) []types.ExpandedQuery {
	seen := map[string]bool{strings.ToLower(original): true}
	out := make([]types.ExpandedQuery, 0, len(candidates))
	for _, c := range candidates {
		c.Text = strings.TrimSpace(c.Text)
		key := strings.ToLower(c.Text)
		if c.Text == "" || seen[key] {
			continue
		}
		c.SemanticConfidence = clamp01(c.SemanticConfidence)
		c.FeedbackConfidence = clamp01(c.FeedbackConfidence)
		seen[key] = true
		out = append(out, c)
	}

	// Insertion sort keeps the ordering stable for small candidate sets.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && meanConfidence(out[j]) > meanConfidence(out[j-1]); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

func meanConfidence(q types.ExpandedQuery) float64 {
	return (q.SemanticConfidence + q.FeedbackConfidence) / 2
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
