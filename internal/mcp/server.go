package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/gruenerator/docsearch-mcp/internal/searcher"
)

const (
	// ServerName is the MCP server name
	ServerName = "docsearch-mcp"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp      *server.MCPServer
	searcher *searcher.Searcher
	log      zerolog.Logger
}

// NewServer creates a new MCP server over an already wired searcher.
func NewServer(s *searcher.Searcher, log zerolog.Logger) *Server {
	mcpServer := server.NewMCPServer(
		ServerName,
		ServerVersion,
	)

	srv := &Server{
		mcp:      mcpServer,
		searcher: s,
		log:      log.With().Str("component", "mcp").Logger(),
	}
	srv.registerTools()
	return srv
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(searchDocumentsTool(), s.handleSearchDocuments)
	s.mcp.AddTool(searchDocumentsWithContextTool(), s.handleSearchDocumentsWithContext)
}
