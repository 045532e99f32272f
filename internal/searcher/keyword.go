package searcher

import (
	"github.com/gruenerator/docsearch-mcp/internal/store"
	"github.com/gruenerator/docsearch-mcp/pkg/types"
)

// KeywordDocuments shapes raw keyword rows into ranked documents. Keyword
// backends report matches without a usable relevance score, so every row
// carries the configured placeholder score and an excerpt built around the
// first occurrence of the query text.
func KeywordDocuments(rows []store.KeywordRow, query string, placeholder float64, excerptLen int) []types.RankedDocument {
	docs := make([]types.RankedDocument, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		if _, ok := seen[row.DocumentID]; ok {
			continue
		}
		seen[row.DocumentID] = struct{}{}
		docs = append(docs, types.RankedDocument{
			DocumentID:   row.DocumentID,
			Title:        row.Title,
			Filename:     row.Filename,
			Excerpt:      BuildExcerpt(row.Body, query, excerptLen),
			KeywordScore: placeholder,
			FinalScore:   placeholder,
			Sources:      []types.SearchSource{types.SourceKeyword},
		})
	}
	return docs
}
