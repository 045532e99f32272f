// Package mcp exposes document search over the Model Context Protocol.
//
// The server speaks MCP over stdio and registers two tools:
//
//   - search_documents: hybrid vector/keyword retrieval over a user's
//     embedded documents or the shared template corpus
//   - search_documents_with_context: the same search with each result
//     chunk enlarged by its document neighbors up to a token budget
//
// Both tools return the full search response contract as indented JSON,
// including per-document scores and diagnostics. Parameter errors map to
// MCP error codes; backend failures surface inside the response body with
// success set to false so clients always receive a well-formed result.
package mcp
