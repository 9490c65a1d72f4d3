package operations

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/margin-review/margin/internal/config"
	"github.com/margin-review/margin/internal/logger"
	"github.com/margin-review/margin/models"
)

func testFindings() models.Findings {
	return models.Findings{
		Issues: []models.Issue{
			{Category: models.CategoryClarity, Severity: models.SeverityMajor, Snippet: "a vague claim", Suggestion: "be specific"},
		},
	}
}

func testDeps() Deps {
	return Deps{
		Config: config.Config{
			MaxDocumentBytes: 1024,
			MaxDocumentPages: 50,
			ChunkSize:        500,
			ChunkOverlap:     100,
			TopK:             5,
		},
		Log: logger.NewNoOpLogger(),
	}
}

func TestReviewDocumentRejectsUnknownMode(t *testing.T) {
	_, err := ReviewDocument(context.Background(), testDeps(), ReviewRequest{
		RawData: []byte("%PDF-1.4"),
		Mode:    "peer_review",
	})
	if err == nil {
		t.Fatal("Expected error for unknown mode")
	}
	if !strings.Contains(err.Error(), "unknown review mode") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestReviewDocumentRequiresASource(t *testing.T) {
	_, err := ReviewDocument(context.Background(), testDeps(), ReviewRequest{})
	if err == nil {
		t.Fatal("Expected error when no source is provided")
	}
}

func TestReviewDocumentRejectsOversizedDocument(t *testing.T) {
	_, err := ReviewDocument(context.Background(), testDeps(), ReviewRequest{
		RawData: bytes.Repeat([]byte("x"), 4096),
	})
	if err == nil {
		t.Fatal("Expected error for oversized document")
	}
	if !strings.Contains(err.Error(), "file too large") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestReviewDocumentRejectsGarbage(t *testing.T) {
	deps := testDeps()
	deps.Config.MaxDocumentBytes = 10 * 1024 * 1024

	_, err := ReviewDocument(context.Background(), deps, ReviewRequest{
		RawData: []byte("not a pdf"),
	})
	if err == nil {
		t.Fatal("Expected error for unparseable document")
	}
}

func TestAnnotateDocumentRejectsGarbage(t *testing.T) {
	_, _, err := AnnotateDocument(context.Background(), testDeps(), []byte("not a pdf"), testFindings(), AnnotateOptions{})
	if err == nil {
		t.Fatal("Expected error for unparseable document")
	}
}

func TestAnnotateDocumentRejectsOversizedDocument(t *testing.T) {
	_, _, err := AnnotateDocument(context.Background(), testDeps(), bytes.Repeat([]byte("x"), 4096), testFindings(), AnnotateOptions{})
	if err == nil {
		t.Fatal("Expected error for oversized document")
	}
	if !strings.Contains(err.Error(), "file too large") {
		t.Errorf("Unexpected error: %v", err)
	}
}
