package searcher

import (
	"context"

	"github.com/gruenerator/docsearch-mcp/internal/expander"
	"github.com/gruenerator/docsearch-mcp/pkg/types"
)

// SearchWithContext runs a normal search and then enlarges every result
// chunk with its document neighbors. Expansion is best effort: a response
// that searched successfully is returned even when expansion was skipped
// because no chunk store is configured.
func (s *Searcher) SearchWithContext(ctx context.Context, req SearchRequest, opts expander.Options) (*types.SearchResponse, error) {
	resp, err := s.Search(ctx, req)
	if err != nil || !resp.Success {
		return resp, err
	}
	if s.chunks == nil {
		s.log.Debug().Msg("no chunk store configured, skipping context expansion")
		return resp, nil
	}

	exp := expander.New(s.chunks, s.log)
	for i := range resp.Results {
		expanded, expErr := exp.Expand(ctx, resp.Results[i].Chunks, opts)
		if expErr != nil {
			return nil, expErr
		}
		resp.Results[i].ExpandedChunks = expanded
	}
	return resp, nil
}
