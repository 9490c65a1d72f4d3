package tools

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/margin-review/margin/internal/logger"
	"github.com/margin-review/margin/internal/operations"
	"github.com/margin-review/margin/internal/storage"
	"github.com/margin-review/margin/models"
)

const annotateTestCritique = `## Issues

1. "The methodology section lacks a clear description of sampling" - Major issue with experimental design.
   Fix: Describe the sampling procedure in full.
`

func annotateTestDeps(t *testing.T) operations.Deps {
	t.Helper()
	store, err := storage.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return operations.Deps{
		Store: store,
		Log:   logger.NewNoOpLogger(),
	}
}

func TestResolveFindingsFromStore(t *testing.T) {
	deps := annotateTestDeps(t)
	ctx := context.Background()

	record := &models.ReviewRecord{
		DocumentID: "doc_test",
		Mode:       models.ModeFullReview,
		Critique:   "stored critique text",
		Findings: models.Findings{
			Issues: []models.Issue{{Category: models.CategoryLogic, Severity: models.SeverityCritical, Snippet: "an unsupported leap", Suggestion: "add evidence"}},
		},
		CreatedAt: time.Now().UTC(),
	}
	reviewID, err := deps.Store.SaveReview(ctx, record)
	if err != nil {
		t.Fatalf("Failed to save review: %v", err)
	}

	findings, critiqueText, err := resolveFindings(ctx, deps, DocumentAnnotateQuery{ReviewID: reviewID})
	if err != nil {
		t.Fatalf("resolveFindings failed: %v", err)
	}
	if len(findings.Issues) != 1 || findings.Issues[0].Snippet != "an unsupported leap" {
		t.Errorf("Unexpected findings: %+v", findings)
	}
	if critiqueText != "stored critique text" {
		t.Errorf("Unexpected critique text: %q", critiqueText)
	}
}

func TestResolveFindingsInlineCritique(t *testing.T) {
	deps := annotateTestDeps(t)

	findings, critiqueText, err := resolveFindings(context.Background(), deps, DocumentAnnotateQuery{Critique: annotateTestCritique})
	if err != nil {
		t.Fatalf("resolveFindings failed: %v", err)
	}
	if len(findings.Issues) == 0 {
		t.Fatal("Expected issues parsed from inline critique")
	}
	if !strings.Contains(findings.Issues[0].Snippet, "methodology section") {
		t.Errorf("Unexpected snippet: %q", findings.Issues[0].Snippet)
	}
	if critiqueText != annotateTestCritique {
		t.Errorf("Expected the inline critique back, got %q", critiqueText)
	}
}

func TestResolveFindingsValidation(t *testing.T) {
	deps := annotateTestDeps(t)
	ctx := context.Background()

	if _, _, err := resolveFindings(ctx, deps, DocumentAnnotateQuery{}); err == nil {
		t.Error("Expected error when neither review_id nor critique is set")
	}
	if _, _, err := resolveFindings(ctx, deps, DocumentAnnotateQuery{ReviewID: "r", Critique: "c"}); err == nil {
		t.Error("Expected error when both review_id and critique are set")
	}
	if _, _, err := resolveFindings(ctx, deps, DocumentAnnotateQuery{ReviewID: "missing"}); err == nil {
		t.Error("Expected error for unknown review ID")
	}
}

func TestResolveFindingsWithoutStore(t *testing.T) {
	deps := operations.Deps{Log: logger.NewNoOpLogger()}

	if _, _, err := resolveFindings(context.Background(), deps, DocumentAnnotateQuery{ReviewID: "r"}); err == nil {
		t.Error("Expected error when no store is configured")
	}
}

func TestDocumentAnnotateToolHandlerRejectsGarbage(t *testing.T) {
	deps := annotateTestDeps(t)

	_, _, err := DocumentAnnotateToolHandler(context.Background(), nil, DocumentAnnotateQuery{
		RawData:  []byte("not a pdf"),
		Critique: annotateTestCritique,
	}, deps)
	if err == nil {
		t.Fatal("Expected error for unparseable document")
	}
}
