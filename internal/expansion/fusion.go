package expansion

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/gruenerator/docsearch-mcp/internal/config"
	"github.com/gruenerator/docsearch-mcp/internal/embedder"
	"github.com/gruenerator/docsearch-mcp/pkg/types"
)

// ErrNoEmbeddings means every expansion variant failed to embed. Callers
// fall back to a plain single-query embedding.
var ErrNoEmbeddings = errors.New("no expansion embeddings retained")

// Fuser combines the embeddings of all expansion variants into one
// effective query vector.
type Fuser struct {
	emb         embedder.Embedder
	cfg         config.ExpansionConfig
	concurrency int
}

// NewFuser creates a fuser. concurrency bounds parallel provider batches.
func NewFuser(emb embedder.Embedder, cfg config.ExpansionConfig, concurrency int) *Fuser {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Fuser{emb: emb, cfg: cfg, concurrency: concurrency}
}

// BuildQueryVector returns the effective query vector for an expansion.
//
// A fallback or single-query expansion delegates directly to the provider
// and returns the original query's vector unchanged. Otherwise all
// variants are batch-embedded, failed items are dropped, and the retained
// vectors are combined as a weighted average: the original query carries a
// fixed weight strictly greater than any expansion weight, each expansion
// weight is base x confidence boost, and weights are normalized to sum to 1.
func (f *Fuser) BuildQueryVector(ctx context.Context, exp *types.QueryExpansion) ([]float32, error) {
	if exp == nil || len(exp.Queries) == 0 {
		return nil, fmt.Errorf("empty expansion")
	}

	if exp.Fallback || len(exp.Queries) == 1 {
		e, err := f.emb.EmbedQuery(ctx, exp.OriginalQuery)
		if err != nil {
			return nil, err
		}
		return e.Vector, nil
	}

	embeddings, err := f.embedAll(ctx, exp.Texts())
	if err != nil {
		return nil, err
	}

	type weighted struct {
		vec    []float32
		weight float64
	}
	retained := make([]weighted, 0, len(embeddings))
	for i, e := range embeddings {
		if e == nil || !embedder.IsValid(f.emb, e.Vector) {
			log.Debug().Int("variant", i).Msg("expansion embedding dropped")
			continue
		}
		retained = append(retained, weighted{vec: e.Vector, weight: f.variantWeight(i, exp.Queries[i])})
	}
	if len(retained) == 0 {
		return nil, ErrNoEmbeddings
	}
	if len(retained) == 1 {
		return retained[0].vec, nil
	}

	var total float64
	for _, w := range retained {
		total += w.weight
	}

	dim := len(retained[0].vec)
	acc := make([]float64, dim)
	for _, w := range retained {
		norm := w.weight / total
		for j, v := range w.vec {
			acc[j] += norm * float64(v)
		}
	}

	out := make([]float32, dim)
	for j, v := range acc {
		out[j] = float32(v)
	}
	return out, nil
}

// variantWeight gives index 0 the fixed original weight; expansions get
// base x boost where boost grows from 0.5 to 1 with the mean of semantic
// and feedback confidence, keeping every expansion strictly below the
// original.
func (f *Fuser) variantWeight(index int, q types.ExpandedQuery) float64 {
	if index == 0 {
		return f.cfg.OriginalWeight
	}
	boost := 0.5 + meanConfidence(q)/2
	return f.cfg.BaseWeight * boost
}

// embedAll issues the variant texts as provider batches, bounded by the
// configured concurrency. Per-item failures surface as nil entries.
func (f *Fuser) embedAll(ctx context.Context, texts []string) ([]*embedder.Embedding, error) {
	out := make([]*embedder.Embedding, len(texts))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)

	for start := 0; start < len(texts); start += embedder.MaxBatchSize {
		end := start + embedder.MaxBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		g.Go(func() error {
			res, err := f.emb.EmbedBatch(ctx, texts[start:end])
			if err != nil {
				// A failed batch only drops its own items; sibling batches
				// may still contribute to the average.
				log.Warn().Err(err).Int("start", start).Msg("expansion batch failed, items dropped")
				return nil
			}
			copy(out[start:end], res.Embeddings)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
