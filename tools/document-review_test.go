package tools

import (
	"context"
	"strings"
	"testing"

	"github.com/margin-review/margin/internal/config"
	"github.com/margin-review/margin/internal/logger"
	"github.com/margin-review/margin/internal/operations"
)

func reviewTestDeps() operations.Deps {
	return operations.Deps{
		Config: config.Config{
			MaxDocumentBytes: 1024 * 1024,
			MaxDocumentPages: 50,
			ChunkSize:        500,
			ChunkOverlap:     100,
			TopK:             5,
		},
		Log: logger.NewNoOpLogger(),
	}
}

func TestDocumentReviewToolHandlerRejectsUnknownMode(t *testing.T) {
	_, _, err := DocumentReviewToolHandler(context.Background(), nil, DocumentReviewQuery{
		RawData: []byte("%PDF-1.4"),
		Mode:    "peer_review",
	}, reviewTestDeps())
	if err == nil {
		t.Fatal("Expected error for unknown mode")
	}
	if !strings.Contains(err.Error(), "unknown review mode") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestDocumentReviewToolHandlerRequiresASource(t *testing.T) {
	_, _, err := DocumentReviewToolHandler(context.Background(), nil, DocumentReviewQuery{}, reviewTestDeps())
	if err == nil {
		t.Fatal("Expected error when no source is provided")
	}
}

func TestDocumentReviewToolSchema(t *testing.T) {
	tool := DocumentReviewTool()
	if tool.Name != "document-review" {
		t.Errorf("Unexpected tool name: %q", tool.Name)
	}
	if tool.InputSchema == nil {
		t.Error("Expected input schema")
	}

	annotateTool := DocumentAnnotateTool()
	if annotateTool.Name != "document-annotate" {
		t.Errorf("Unexpected tool name: %q", annotateTool.Name)
	}
}
