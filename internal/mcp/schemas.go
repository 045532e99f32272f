package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// searchProperties are the parameters shared by both search tools.
func searchProperties() map[string]interface{} {
	return map[string]interface{}{
		"query": map[string]interface{}{
			"type":        "string",
			"description": "Search query (natural language or keywords)",
		},
		"owner": map[string]interface{}{
			"type":        "string",
			"description": "Owner ID scoping the search to one user's documents",
		},
		"corpus": map[string]interface{}{
			"type":        "string",
			"description": "Corpus to search: user documents or shared templates",
			"enum":        []string{"documents", "templates"},
			"default":     "documents",
		},
		"mode": map[string]interface{}{
			"type":        "string",
			"description": "Search strategy: hybrid (vector + keyword), vector (semantic only), or keyword (text only)",
			"enum":        []string{"hybrid", "vector", "keyword"},
			"default":     "hybrid",
		},
		"limit": map[string]interface{}{
			"type":        "integer",
			"description": "Maximum number of documents to return (1-100)",
			"default":     10,
			"minimum":     1,
			"maximum":     100,
		},
		"threshold": map[string]interface{}{
			"type":        "number",
			"description": "Similarity threshold override (0.0-1.0); omit to derive one from query length",
			"minimum":     0.0,
			"maximum":     1.0,
		},
		"document_ids": map[string]interface{}{
			"type":        "array",
			"description": "Restrict search to these document IDs",
			"items": map[string]interface{}{
				"type": "string",
			},
		},
	}
}

// searchDocumentsTool returns the tool definition for search_documents
func searchDocumentsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_documents",
		Description: "Search embedded documents with hybrid vector and keyword retrieval",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: searchProperties(),
			Required:   []string{"query"},
		},
	}
}

// searchDocumentsWithContextTool returns the tool definition for
// search_documents_with_context
func searchDocumentsWithContextTool() mcp.Tool {
	props := searchProperties()
	props["context_options"] = map[string]interface{}{
		"type":        "object",
		"description": "Controls how each result chunk is enlarged with neighboring chunks",
		"properties": map[string]interface{}{
			"token_budget": map[string]interface{}{
				"type":        "integer",
				"description": "Upper bound on the expanded token total per chunk",
				"default":     2000,
				"minimum":     1,
			},
			"include_prev": map[string]interface{}{
				"type":        "boolean",
				"description": "Include the chunk preceding the match",
				"default":     true,
			},
			"include_next": map[string]interface{}{
				"type":        "boolean",
				"description": "Include the chunk following the match",
				"default":     true,
			},
			"include_related": map[string]interface{}{
				"type":        "boolean",
				"description": "Include up to two strongly related chunks from the same section",
				"default":     true,
			},
			"preserve_structure": map[string]interface{}{
				"type":        "boolean",
				"description": "Render section headers and match/context markers",
				"default":     true,
			},
		},
	}
	return mcp.Tool{
		Name:        "search_documents_with_context",
		Description: "Search embedded documents and enlarge each result with surrounding chunks up to a token budget",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: props,
			Required:   []string{"query"},
		},
	}
}
