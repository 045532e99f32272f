package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gruenerator/docsearch-mcp/internal/config"
	"github.com/gruenerator/docsearch-mcp/internal/embedder"
	"github.com/gruenerator/docsearch-mcp/internal/expansion"
	"github.com/gruenerator/docsearch-mcp/internal/mcp"
	"github.com/gruenerator/docsearch-mcp/internal/searcher"
	"github.com/gruenerator/docsearch-mcp/internal/store"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		fmt.Printf("DocSearch MCP Server\n")
		fmt.Printf("Version: %s\n", version)
		fmt.Printf("Build Time: %s\n", buildTime)
		os.Exit(0)
	}

	// stdout is reserved for the MCP protocol, all logging goes to stderr
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found")
	}

	cfg, err := config.Load(os.Getenv("DOCSEARCH_CONFIG"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil && cfg.LogLevel != "" {
		zerolog.SetGlobalLevel(level)
	}

	log.Info().Str("version", version).
		Str("vector_backend", cfg.Store.VectorBackend).
		Str("keyword_backend", cfg.Store.KeywordBackend).
		Msg("DocSearch MCP server starting")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srch, cleanup, err := buildSearcher(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire search pipeline")
	}
	defer cleanup()

	server := mcp.NewServer(srch, log.Logger)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		log.Info().Msg("MCP server ready, listening on stdio")
		errChan <- server.Serve(ctx)
	}()

	select {
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
		cancel()
	case err := <-errChan:
		if err != nil {
			log.Fatal().Err(err).Msg("Server error")
		}
	}

	log.Info().Msg("Server stopped")
}

// buildSearcher wires the configured backends into a Searcher. The returned
// cleanup closes every opened store.
func buildSearcher(ctx context.Context, cfg config.Config) (*searcher.Searcher, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	// Postgres serves as vector store, keyword store, chunk store and
	// expansion signal source depending on the backend selection. Open it
	// once when any of those need it.
	var pg *store.Postgres
	needPostgres := cfg.Store.VectorBackend == "postgres" || cfg.Store.KeywordBackend == "postgres"
	if needPostgres {
		var err error
		pg, err = store.NewPostgres(ctx, cfg.Postgres)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		closers = append(closers, func() { _ = pg.Close() })
	}

	var vector store.VectorStore
	switch cfg.Store.VectorBackend {
	case "postgres":
		vector = pg
	case "milvus":
		mv, err := store.NewMilvus(ctx, cfg.Milvus)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("connect milvus: %w", err)
		}
		closers = append(closers, func() { _ = mv.Close() })
		vector = mv
	default:
		cleanup()
		return nil, nil, fmt.Errorf("unknown vector backend %q", cfg.Store.VectorBackend)
	}

	var keyword store.KeywordStore
	switch cfg.Store.KeywordBackend {
	case "postgres":
		keyword = pg
	case "bleve":
		bl, err := store.NewBleveKeyword(cfg.Bleve)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("open bleve index: %w", err)
		}
		closers = append(closers, func() { _ = bl.Close() })
		keyword = bl
	default:
		cleanup()
		return nil, nil, fmt.Errorf("unknown keyword backend %q", cfg.Store.KeywordBackend)
	}

	emb, err := embedder.New(cfg.Embedding)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("create embedder: %w", err)
	}
	closers = append(closers, func() { _ = emb.Close() })

	opts := []searcher.Option{}
	if pg != nil {
		opts = append(opts, searcher.WithChunkStore(pg))

		// Query expansion signals live in postgres; without it the vector
		// leg embeds the original query alone.
		exp := expansion.NewExpander(cfg.Expansion.MaxVariants,
			store.NewFeedbackSource(pg.Pool(), cfg.Expansion.MaxVariants),
			store.NewConceptSource(pg.Pool(), cfg.Expansion.MaxVariants),
		)
		fuser := expansion.NewFuser(emb, cfg.Expansion, cfg.Embedding.BatchConcurrency)
		opts = append(opts, searcher.WithExpansion(exp, fuser))
	}

	srch, err := searcher.New(vector, keyword, emb,
		cfg.Search, cfg.Scoring, cfg.Threshold, log.Logger, opts...)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return srch, cleanup, nil
}
