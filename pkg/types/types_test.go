package types

import (
	"errors"
	"testing"
)

func validChunk() Chunk {
	return Chunk{
		ID:         "chunk-1",
		DocumentID: "doc-1",
		ChunkIndex: 0,
		Text:       "ein Stück Text",
		TokenCount: 4,
	}
}

func TestChunkValidate(t *testing.T) {
	c := validChunk()
	if err := c.Validate(); err != nil {
		t.Errorf("valid chunk rejected: %v", err)
	}

	c = validChunk()
	c.ID = ""
	if err := c.Validate(); !errors.Is(err, ErrInvalidChunkID) {
		t.Errorf("missing ID: err = %v, want ErrInvalidChunkID", err)
	}

	c = validChunk()
	c.Text = ""
	if err := c.Validate(); !errors.Is(err, ErrEmptyContent) {
		t.Errorf("empty text: err = %v, want ErrEmptyContent", err)
	}

	c = validChunk()
	c.ChunkIndex = -1
	if err := c.Validate(); err == nil {
		t.Error("negative chunk index accepted")
	}
}

func TestChunkEstimateTokens(t *testing.T) {
	c := validChunk()
	if got := c.EstimateTokens(); got != 4 {
		t.Errorf("EstimateTokens = %d, want recorded count 4", got)
	}

	c.TokenCount = 0
	c.Text = "zwölf Zeichen tatsächlich etwas mehr als das"
	want := len(c.Text) / 4
	if got := c.EstimateTokens(); got != want {
		t.Errorf("EstimateTokens = %d, want heuristic %d", got, want)
	}
}

func TestSimilarityHitValidate(t *testing.T) {
	h := SimilarityHit{Chunk: validChunk(), Similarity: 0.8}
	if err := h.Validate(); err != nil {
		t.Errorf("valid hit rejected: %v", err)
	}

	h.Similarity = 1.2
	if err := h.Validate(); !errors.Is(err, ErrInvalidScore) {
		t.Errorf("out-of-range similarity: err = %v, want ErrInvalidScore", err)
	}
}

func TestRankedDocumentValidate(t *testing.T) {
	d := RankedDocument{DocumentID: "doc-1", FinalScore: 0.5}
	if err := d.Validate(); err != nil {
		t.Errorf("valid document rejected: %v", err)
	}

	d.DocumentID = ""
	if err := d.Validate(); !errors.Is(err, ErrMissingDocumentID) {
		t.Errorf("missing document ID: err = %v, want ErrMissingDocumentID", err)
	}

	d = RankedDocument{DocumentID: "doc-1", FinalScore: 1.5}
	if err := d.Validate(); !errors.Is(err, ErrInvalidScore) {
		t.Errorf("score above 1: err = %v, want ErrInvalidScore", err)
	}
}

func TestRankedDocumentHasSource(t *testing.T) {
	d := RankedDocument{Sources: []SearchSource{SourceVector}}
	if !d.HasSource(SourceVector) {
		t.Error("vector source not reported")
	}
	if d.HasSource(SourceKeyword) {
		t.Error("absent keyword source reported")
	}
}

func TestSearchResponseInvariant(t *testing.T) {
	r := SearchResponse{Success: true, Results: []RankedDocument{{DocumentID: "d", FinalScore: 0.5}}}
	if err := r.Validate(); err != nil {
		t.Errorf("consistent response rejected: %v", err)
	}

	r = SearchResponse{Success: false, Results: []RankedDocument{{DocumentID: "d", FinalScore: 0.5}}}
	if err := r.Validate(); !errors.Is(err, ErrInconsistentResponse) {
		t.Errorf("failure with results: err = %v, want ErrInconsistentResponse", err)
	}

	r = SearchResponse{Success: false, Error: "both legs failed"}
	if err := r.Validate(); err != nil {
		t.Errorf("failure without results rejected: %v", err)
	}
}

func TestNewFallbackExpansion(t *testing.T) {
	exp := NewFallbackExpansion("Klima")
	if !exp.Fallback {
		t.Error("Fallback not set")
	}
	if len(exp.Queries) != 1 || exp.Queries[0].Text != "Klima" {
		t.Errorf("Queries = %+v, want only the original", exp.Queries)
	}
	if got := exp.Texts(); len(got) != 1 || got[0] != "Klima" {
		t.Errorf("Texts = %v, want [Klima]", got)
	}
}
