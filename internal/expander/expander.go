package expander

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/gruenerator/docsearch-mcp/internal/store"
	"github.com/gruenerator/docsearch-mcp/pkg/types"
)

// Related chunks below this strength are never pulled into an expansion.
const relatedMinStrength = 0.8

// At most this many related chunks join one expansion.
const maxRelated = 2

// DefaultTokenBudget bounds an expanded passage when the caller does not
// set one.
const DefaultTokenBudget = 2000

// Options controls context expansion.
type Options struct {
	// TokenBudget is the hard upper bound on the expanded token total.
	TokenBudget int
	// IncludePrev pulls in the chunk preceding the match.
	IncludePrev bool
	// IncludeNext pulls in the chunk following the match.
	IncludeNext bool
	// IncludeRelated pulls in same-section related chunks.
	IncludeRelated bool
	// PreserveStructure renders section headers and match markers instead
	// of plain concatenation.
	PreserveStructure bool
}

// DefaultOptions expands in both directions under the default budget.
func DefaultOptions() Options {
	return Options{
		TokenBudget:       DefaultTokenBudget,
		IncludePrev:       true,
		IncludeNext:       true,
		IncludeRelated:    true,
		PreserveStructure: true,
	}
}

// Expander enlarges winning chunks with their document neighbors.
type Expander struct {
	chunks store.ChunkStore
	log    zerolog.Logger
}

func New(chunks store.ChunkStore, log zerolog.Logger) *Expander {
	return &Expander{
		chunks: chunks,
		log:    log.With().Str("component", "expander").Logger(),
	}
}

// Expand enlarges each hit independently. A neighbor that is missing or
// fails to fetch is skipped; expansion never returns an error beyond
// context cancellation, so it cannot fail the search that invoked it.
func (e *Expander) Expand(ctx context.Context, hits []types.SimilarityHit, opts Options) ([]types.ExpandedChunk, error) {
	if opts.TokenBudget <= 0 {
		opts.TokenBudget = DefaultTokenBudget
	}
	out := make([]types.ExpandedChunk, len(hits))
	for i, hit := range hits {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = e.expandOne(ctx, hit, opts)
	}
	return out, nil
}

// neighborKind orders the assembly of an expanded passage.
type neighborKind int

const (
	kindPrev neighborKind = iota
	kindMatch
	kindNext
	kindRelated
)

type part struct {
	kind    neighborKind
	chunk   *types.Chunk
	related int // ordering among related chunks
}

// expandOne greedily grows a single hit. Candidate neighbors are fetched
// concurrently, then admitted in fixed order (prev, next, related by
// strength) while the running total stays below 80% of the budget and the
// candidate itself fits. A fetched chunk that would overflow is discarded.
func (e *Expander) expandOne(ctx context.Context, hit types.SimilarityHit, opts Options) types.ExpandedChunk {
	total := hit.TokenCount
	if total == 0 {
		total = hit.EstimateTokens()
	}

	candidates := e.fetchNeighbors(ctx, hit, opts)

	expanded := types.ExpandedChunk{Chunk: hit}
	parts := []part{{kind: kindMatch}}
	fillTarget := opts.TokenBudget * 8 / 10

	admit := func(p part) bool {
		if total >= fillTarget {
			return false
		}
		tokens := p.chunk.TokenCount
		if tokens == 0 {
			tokens = p.chunk.EstimateTokens()
		}
		if total+tokens > opts.TokenBudget {
			return false
		}
		total += tokens
		parts = append(parts, p)
		return true
	}

	if candidates.prev != nil && admit(part{kind: kindPrev, chunk: candidates.prev}) {
		expanded.IncludedPrev = true
	}
	if candidates.next != nil && admit(part{kind: kindNext, chunk: candidates.next}) {
		expanded.IncludedNext = true
	}
	for i, rc := range candidates.related {
		if !admit(part{kind: kindRelated, chunk: rc, related: i}) {
			break
		}
		expanded.IncludedRelated++
	}

	sort.SliceStable(parts, func(i, j int) bool { return parts[i].kind < parts[j].kind })
	expanded.Text = e.render(hit, parts, opts)
	expanded.TokenCount = total
	return expanded
}

type neighborSet struct {
	prev    *types.Chunk
	next    *types.Chunk
	related []*types.Chunk
}

// fetchNeighbors issues all candidate lookups concurrently and collects
// whatever arrives. Failures are logged at debug and treated as absent.
func (e *Expander) fetchNeighbors(ctx context.Context, hit types.SimilarityHit, opts Options) neighborSet {
	type target struct {
		kind  neighborKind
		index int
	}

	meta := hit.Metadata
	if meta == nil {
		meta = &types.ChunkMetadata{}
	}

	var targets []target
	if opts.IncludePrev && meta.PrevChunk != nil {
		targets = append(targets, target{kind: kindPrev, index: *meta.PrevChunk})
	}
	if opts.IncludeNext && meta.NextChunk != nil {
		targets = append(targets, target{kind: kindNext, index: *meta.NextChunk})
	}
	if opts.IncludeRelated {
		for _, ref := range strongestRelated(meta.RelatedChunks) {
			targets = append(targets, target{kind: kindRelated, index: ref.ChunkIndex})
		}
	}

	results := make([]*types.Chunk, len(targets))
	var wg sync.WaitGroup
	for i, t := range targets {
		wg.Add(1)
		go func(i int, t target) {
			defer wg.Done()
			chunk, err := e.chunks.GetChunkByIndex(ctx, hit.DocumentID, t.index)
			if err != nil {
				e.log.Debug().
					Err(err).
					Str("document_id", hit.DocumentID).
					Int("chunk_index", t.index).
					Msg("neighbor chunk unavailable, skipping")
				return
			}
			results[i] = chunk
		}(i, t)
	}
	wg.Wait()

	var set neighborSet
	for i, t := range targets {
		if results[i] == nil {
			continue
		}
		switch t.kind {
		case kindPrev:
			set.prev = results[i]
		case kindNext:
			set.next = results[i]
		case kindRelated:
			set.related = append(set.related, results[i])
		}
	}
	return set
}

// strongestRelated filters to strong relations and keeps the top two by
// strength.
func strongestRelated(refs []types.RelatedChunkRef) []types.RelatedChunkRef {
	var strong []types.RelatedChunkRef
	for _, ref := range refs {
		if ref.Strength > relatedMinStrength {
			strong = append(strong, ref)
		}
	}
	sort.SliceStable(strong, func(i, j int) bool { return strong[i].Strength > strong[j].Strength })
	if len(strong) > maxRelated {
		strong = strong[:maxRelated]
	}
	return strong
}

// render assembles the final passage. Plain mode concatenates texts in
// document order. Structured mode labels each span and emits section and
// chapter headers when the metadata carries them.
func (e *Expander) render(hit types.SimilarityHit, parts []part, opts Options) string {
	if !opts.PreserveStructure {
		texts := make([]string, 0, len(parts))
		for _, p := range parts {
			if p.kind == kindMatch {
				texts = append(texts, hit.Text)
			} else {
				texts = append(texts, p.chunk.Text)
			}
		}
		return strings.Join(texts, "\n\n")
	}

	var b strings.Builder
	if hit.Metadata != nil {
		if hit.Metadata.Chapter != "" {
			fmt.Fprintf(&b, "# %s\n\n", hit.Metadata.Chapter)
		}
		if hit.Metadata.Section != "" {
			fmt.Fprintf(&b, "## %s\n\n", hit.Metadata.Section)
		}
	}
	for i, p := range parts {
		if i > 0 {
			b.WriteString("\n\n")
		}
		switch p.kind {
		case kindPrev:
			b.WriteString("[context before]\n")
			b.WriteString(p.chunk.Text)
		case kindMatch:
			b.WriteString("[match]\n")
			b.WriteString(hit.Text)
		case kindNext:
			b.WriteString("[context after]\n")
			b.WriteString(p.chunk.Text)
		case kindRelated:
			b.WriteString("[related]\n")
			b.WriteString(p.chunk.Text)
		}
	}
	return b.String()
}
