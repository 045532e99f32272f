package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gruenerator/docsearch-mcp/internal/expander"
	"github.com/gruenerator/docsearch-mcp/internal/searcher"
	"github.com/gruenerator/docsearch-mcp/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams = -32602 // Invalid method parameters
	ErrorCodeInternalError = -32603 // Internal JSON-RPC error
	ErrorCodeEmptyQuery    = -32001 // Query parameter is empty
	ErrorCodeUnknownCorpus = -32002 // Corpus name not configured
)

// handleSearchDocuments handles the search_documents tool invocation
func (s *Server) handleSearchDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req, mcpErr := s.parseSearchRequest(request)
	if mcpErr != nil {
		return nil, mcpErr
	}

	resp, err := s.searcher.Search(ctx, req)
	if err != nil {
		return nil, s.classifySearchError(err)
	}
	return s.formatResponse(resp)
}

// handleSearchDocumentsWithContext handles the search_documents_with_context
// tool invocation
func (s *Server) handleSearchDocumentsWithContext(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req, mcpErr := s.parseSearchRequest(request)
	if mcpErr != nil {
		return nil, mcpErr
	}

	opts := expander.DefaultOptions()
	if args, ok := request.Params.Arguments.(map[string]interface{}); ok {
		if raw, ok := args["context_options"].(map[string]interface{}); ok {
			if budget := getIntDefault(raw, "token_budget", opts.TokenBudget); budget > 0 {
				opts.TokenBudget = budget
			}
			opts.IncludePrev = getBoolDefault(raw, "include_prev", opts.IncludePrev)
			opts.IncludeNext = getBoolDefault(raw, "include_next", opts.IncludeNext)
			opts.IncludeRelated = getBoolDefault(raw, "include_related", opts.IncludeRelated)
			opts.PreserveStructure = getBoolDefault(raw, "preserve_structure", opts.PreserveStructure)
		}
	}

	resp, err := s.searcher.SearchWithContext(ctx, req, opts)
	if err != nil {
		return nil, s.classifySearchError(err)
	}
	return s.formatResponse(resp)
}

// parseSearchRequest extracts and validates the parameters shared by both
// search tools.
func (s *Server) parseSearchRequest(request mcp.CallToolRequest) (searcher.SearchRequest, error) {
	var req searcher.SearchRequest

	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return req, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return req, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	limit := getIntDefault(args, "limit", 0)
	if limit < 0 || limit > 100 {
		return req, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 100", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	mode := getStringDefault(args, "mode", "hybrid")
	switch mode {
	case "hybrid", "vector", "keyword":
	default:
		return req, newMCPError(ErrorCodeInvalidParams, "invalid mode", map[string]interface{}{
			"param":   "mode",
			"value":   mode,
			"allowed": []string{"hybrid", "vector", "keyword"},
		})
	}

	threshold := getFloatDefault(args, "threshold", 0)
	if threshold < 0 || threshold > 1 {
		return req, newMCPError(ErrorCodeInvalidParams, "threshold must be between 0.0 and 1.0", map[string]interface{}{
			"param": "threshold",
			"value": threshold,
		})
	}

	var docIDs []string
	if raw, ok := args["document_ids"].([]interface{}); ok {
		for _, v := range raw {
			id, ok := v.(string)
			if !ok || id == "" {
				return req, newMCPError(ErrorCodeInvalidParams, "document_ids must be non-empty strings", map[string]interface{}{
					"param": "document_ids",
				})
			}
			docIDs = append(docIDs, id)
		}
	}

	req = searcher.SearchRequest{
		Query:           query,
		Corpus:          getStringDefault(args, "corpus", ""),
		Owner:           getStringDefault(args, "owner", ""),
		Mode:            searcher.SearchMode(mode),
		Limit:           limit,
		Threshold:       threshold,
		DocumentIDs:     docIDs,
		UseCache:        true,
		KeywordFallback: true,
	}
	return req, nil
}

// classifySearchError maps searcher errors to MCP error codes. The
// searcher only errors on invalid requests; backend failures come back as
// unsuccessful responses instead.
func (s *Server) classifySearchError(err error) error {
	s.log.Error().Err(err).Msg("search failed")
	switch {
	case errors.Is(err, searcher.ErrUnknownCorpus):
		return newMCPError(ErrorCodeUnknownCorpus, err.Error(), nil)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return newMCPError(ErrorCodeInternalError, "search cancelled", map[string]interface{}{
			"error": err.Error(),
		})
	default:
		return newMCPError(ErrorCodeInvalidParams, "invalid search request", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// formatResponse serializes the full response contract as the tool result.
func (s *Server) formatResponse(resp *types.SearchResponse) (*mcp.CallToolResult, error) {
	if err := resp.Validate(); err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "inconsistent search response", map[string]interface{}{
			"error": err.Error(),
		})
	}
	body, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to encode response", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return mcp.NewToolResultText(string(body)), nil
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getFloatDefault extracts a number parameter with a default value
func getFloatDefault(args map[string]interface{}, key string, defaultValue float64) float64 {
	if val, ok := args[key].(float64); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}
