// Package store adapts the external retrieval backends behind three narrow
// interfaces: VectorStore (filtered nearest-neighbor lookup), KeywordStore
// (text search over the document table) and ChunkStore (positional chunk
// fetches for context expansion).
//
// Postgres implements all three on one pgx pool; the nearest-neighbor
// lookup is a stored function so the index structure stays a database
// concern. Milvus is an alternate VectorStore for deployments running a
// dedicated vector database, and BleveKeyword is a local KeywordStore for
// the offline desktop profile.
//
// The package also hosts the Postgres-backed expansion signal sources
// (prior feedback, concept lexicon).
package store
