// Package expander enlarges retrieved chunks with neighboring and related
// chunks from the same document, bounded by a token budget.
//
// Each winning chunk expands independently: while the running token total
// stays below 80% of the budget, the previous chunk, then the next chunk,
// then up to two strongly related chunks (relation strength > 0.8) are
// admitted, each only if it fits the budget. Neighbor fetches run
// concurrently; a missing or failed neighbor is skipped at debug level and
// never fails the search.
//
// With structure preservation enabled, the expanded passage is rendered
// with section and chapter headers and inline markers separating the
// matched span from the surrounding context.
package expander
