package store

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/rs/zerolog/log"

	"github.com/gruenerator/docsearch-mcp/internal/config"
)

// bleveDoc is the indexed shape of one document.
type bleveDoc struct {
	Owner     string    `json:"owner"`
	Status    string    `json:"status"`
	Title     string    `json:"title"`
	Filename  string    `json:"filename"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// BleveKeyword implements KeywordStore over a local bleve index. It serves
// the desktop/offline profile where no Postgres full-text search is
// available.
type BleveKeyword struct {
	index bleve.Index
}

// NewBleveKeyword opens the index at cfg.Path, creating it when absent. An
// empty path yields an in-memory index.
func NewBleveKeyword(cfg config.BleveConfig) (*BleveKeyword, error) {
	if cfg.Path == "" {
		index, err := bleve.NewMemOnly(bleve.NewIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create in-memory index: %w", err)
		}
		return &BleveKeyword{index: index}, nil
	}

	index, err := bleve.Open(cfg.Path)
	if err != nil {
		if _, statErr := os.Stat(cfg.Path); os.IsNotExist(statErr) {
			index, err = bleve.New(cfg.Path, bleve.NewIndexMapping())
		}
		if err != nil {
			return nil, fmt.Errorf("open index %s: %w", cfg.Path, err)
		}
		log.Info().Str("path", cfg.Path).Msg("created keyword index")
	}
	return &BleveKeyword{index: index}, nil
}

// IndexDocument adds or replaces one document. Callers feed the index from
// whatever local document source they keep; ingestion itself stays outside
// this engine.
func (b *BleveKeyword) IndexDocument(id string, row KeywordRow, owner, status string) error {
	return b.index.Index(id, bleveDoc{
		Owner:     owner,
		Status:    status,
		Title:     row.Title,
		Filename:  row.Filename,
		Body:      row.Body,
		CreatedAt: row.CreatedAt,
	})
}

// FindKeyword runs a match query over title and body, filtered by owner,
// status and optional document subset.
func (b *BleveKeyword) FindKeyword(ctx context.Context, q KeywordQuery) ([]KeywordRow, error) {
	match := bleve.NewMatchQuery(q.Query)

	conjuncts := []query.Query{match}
	if len(q.DocumentIDs) > 0 {
		conjuncts = append(conjuncts, bleve.NewDocIDQuery(q.DocumentIDs))
	} else if q.Owner != "" {
		owner := bleve.NewTermQuery(q.Owner)
		owner.SetField("owner")
		conjuncts = append(conjuncts, owner)
	}
	if q.Status != "" {
		status := bleve.NewTermQuery(q.Status)
		status.SetField("status")
		conjuncts = append(conjuncts, status)
	}

	req := bleve.NewSearchRequest(bleve.NewConjunctionQuery(conjuncts...))
	req.Size = q.Limit
	if req.Size <= 0 {
		req.Size = 10
	}
	req.Fields = []string{"title", "filename", "body", "created_at"}

	res, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("bleve search: %w", err)
	}

	rows := make([]KeywordRow, 0, len(res.Hits))
	for _, hit := range res.Hits {
		row := KeywordRow{DocumentID: hit.ID}
		if v, ok := hit.Fields["title"].(string); ok {
			row.Title = v
		}
		if v, ok := hit.Fields["filename"].(string); ok {
			row.Filename = v
		}
		if v, ok := hit.Fields["body"].(string); ok {
			row.Body = v
		}
		if v, ok := hit.Fields["created_at"].(string); ok {
			if t, err := time.Parse(time.RFC3339, v); err == nil {
				row.CreatedAt = t
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Close releases the index.
func (b *BleveKeyword) Close() error {
	return b.index.Close()
}
