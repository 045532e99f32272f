// Package embedder generates vector embeddings for queries using the
// configured provider.
//
// Two providers exist: OpenAI via the official SDK, and a local
// deterministic provider for offline development and hermetic tests.
// Both sit behind the Embedder interface:
//
//	emb, err := embedder.New(cfg.Embedding)
//	if err != nil {
//	    log.Fatal().Err(err).Msg("embedder init")
//	}
//	defer emb.Close()
//
//	e, err := emb.EmbedQuery(ctx, "Klimaschutz im Verkehr")
//
// # Batching and partial failure
//
// EmbedBatch embeds many texts in one round-trip. The result is
// index-aligned with the input; a nil entry marks an item the provider
// failed to embed. Callers tolerate partial failure and drop nil entries
// (query-variant fusion does exactly that).
//
// # Caching and retries
//
// Every provider shares an LRU content-hash cache, so repeated queries skip
// the API entirely. API calls retry with exponential backoff and abort on
// context cancellation.
package embedder
