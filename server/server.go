package server

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/margin-review/margin/internal/config"
	"github.com/margin-review/margin/internal/index"
	"github.com/margin-review/margin/internal/llm"
	"github.com/margin-review/margin/internal/logger"
	"github.com/margin-review/margin/internal/operations"
	"github.com/margin-review/margin/internal/storage"
	"github.com/margin-review/margin/resources"
	"github.com/margin-review/margin/tools"
)

func CreateServer(log logger.Logger) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "margin-review", Version: "v0.1.0"}, nil)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: %v", err)
	}

	store, err := initializeStorage(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize storage: %v", err)
	}

	client := llm.NewClient(cfg.OpenAIAPIKey, cfg.CritiqueModel, cfg.MinRequestInterval, log)

	// The embedder is built lazily so a missing API key only surfaces when
	// a review actually runs.
	embeddings := index.NewProvider(func() index.Embedder {
		return index.NewOpenAIEmbedder(cfg.OpenAIAPIKey, cfg.EmbeddingModel)
	})

	deps := operations.Deps{
		Config:     cfg,
		Store:      store,
		Client:     client,
		Embeddings: embeddings,
		Log:        log,
	}

	mcp.AddTool(server, tools.DocumentReviewTool(), func(ctx context.Context, req *mcp.CallToolRequest, query tools.DocumentReviewQuery) (*mcp.CallToolResult, *tools.DocumentReviewResponse, error) {
		return tools.DocumentReviewToolHandler(ctx, req, query, deps)
	})

	mcp.AddTool(server, tools.DocumentAnnotateTool(), func(ctx context.Context, req *mcp.CallToolRequest, query tools.DocumentAnnotateQuery) (*mcp.CallToolResult, *tools.DocumentAnnotateResponse, error) {
		return tools.DocumentAnnotateToolHandler(ctx, req, query, deps)
	})

	mcp.AddTool(server, tools.ConnectionTestTool(), func(ctx context.Context, req *mcp.CallToolRequest, query tools.ConnectionTestQuery) (*mcp.CallToolResult, *tools.ConnectionTestResponse, error) {
		return tools.ConnectionTestToolHandler(ctx, req, query, client, log)
	})

	reviewResourceHandler := resources.NewReviewResourceHandler(store)

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "review://{documentId}",
		Name:        "document-review",
		Description: "Structured review of a document: critique, issues, rewrite suggestions, and section summaries",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		return reviewResourceHandler.ReadResource(ctx, req.Params.URI)
	})

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "review://{documentId}/critique",
		Name:        "document-critique",
		Description: "Raw critique text for a reviewed document",
		MIMEType:    "text/markdown",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		return reviewResourceHandler.ReadResource(ctx, req.Params.URI)
	})

	return server
}

// initializeStorage creates the review store at the configured path.
func initializeStorage(cfg config.Config, log logger.Logger) (storage.Store, error) {
	dbPath := cfg.DBPath
	if dbPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		dbDir := filepath.Join(homeDir, ".margin-review")
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dbPath = filepath.Join(dbDir, "reviews.db")
	}

	log.Info("Initializing SQLite database at: %s", dbPath)

	store, err := storage.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create SQLite store: %w", err)
	}

	return store, nil
}
