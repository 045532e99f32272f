// Package types provides the shared data model for the docsearch retrieval
// engine.
//
// # Core Types
//
// Chunk is a stored contiguous span of a document's text with its own
// embedding. SimilarityHit wraps a chunk with the score one retrieval leg
// assigned to it. RankedDocument aggregates all hits belonging to one
// document for one query and carries the derived scores
// (max/avg/position/diversity/final).
//
// QueryExpansion holds the ranked query variants produced before embedding;
// index 0 is always the unmodified original, and Fallback means callers must
// embed the original query only.
//
// SearchResponse is the contract returned to every caller:
//
//	resp := &types.SearchResponse{
//	    Success:    true,
//	    Results:    ranked,
//	    Query:      "erneuerbare Energien",
//	    SearchType: "hybrid",
//	}
//
// # Invariants
//
// All relevance scores are normalized to [0, 1]. A response with
// Success == false never carries results. Validate methods enforce both.
package types
