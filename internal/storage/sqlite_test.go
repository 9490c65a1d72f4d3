package storage

import (
	"context"
	"testing"
	"time"

	"github.com/margin-review/margin/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleRecord() *models.ReviewRecord {
	page := 12
	return &models.ReviewRecord{
		DocumentID: "doc_abc123",
		Mode:       models.ModeFullReview,
		Query:      "",
		Critique:   "## CRITICAL Issues\n- \"convenience sampling was used here\" (Page 12)",
		Findings: models.Findings{
			Issues: []models.Issue{{
				Category:   models.CategoryMethodology,
				Severity:   models.SeverityCritical,
				Snippet:    "convenience sampling was used here",
				Suggestion: "Justify the sampling frame.",
				PageHint:   &page,
			}},
			Rewrites: []models.RewriteSuggestion{{
				Original:    "due to the fact that",
				Suggested:   "because",
				Explanation: "Improves clarity and correctness",
			}},
			SectionSummaries: []models.SectionSummary{{
				Section:   "Methodology",
				Page:      &page,
				Issues:    []string{"sampling not justified"},
				Strengths: []string{"instruments described"},
				Score:     6,
			}},
		},
		CreatedAt: time.Now().UTC(),
	}
}

func TestSaveAndGetReview(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	reviewID, err := store.SaveReview(ctx, sampleRecord())
	if err != nil {
		t.Fatalf("SaveReview failed: %v", err)
	}
	if reviewID == "" {
		t.Fatal("expected a non-empty review ID")
	}

	got, err := store.GetReview(ctx, reviewID)
	if err != nil {
		t.Fatalf("GetReview failed: %v", err)
	}

	if got.DocumentID != "doc_abc123" {
		t.Errorf("DocumentID = %q", got.DocumentID)
	}
	if got.Mode != models.ModeFullReview {
		t.Errorf("Mode = %q", got.Mode)
	}
	if len(got.Findings.Issues) != 1 {
		t.Fatalf("expected 1 issue, got %d", len(got.Findings.Issues))
	}

	issue := got.Findings.Issues[0]
	if issue.Severity != models.SeverityCritical || issue.Category != models.CategoryMethodology {
		t.Errorf("issue classification lost: %s/%s", issue.Severity, issue.Category)
	}
	if issue.PageHint == nil || *issue.PageHint != 12 {
		t.Errorf("page hint lost: %v", issue.PageHint)
	}

	if len(got.Findings.Rewrites) != 1 {
		t.Fatalf("expected 1 rewrite, got %d", len(got.Findings.Rewrites))
	}
	if got.Findings.Rewrites[0].Page != nil {
		t.Error("rewrite without page should round-trip as nil")
	}

	if len(got.Findings.SectionSummaries) != 1 {
		t.Fatalf("expected 1 section summary, got %d", len(got.Findings.SectionSummaries))
	}
	section := got.Findings.SectionSummaries[0]
	if section.Score != 6 || len(section.Issues) != 1 || len(section.Strengths) != 1 {
		t.Errorf("section summary lost data: %+v", section)
	}

	if got.Stats.CriticalIssues != 1 {
		t.Errorf("CriticalIssues = %d, want 1", got.Stats.CriticalIssues)
	}
}

func TestGetReviewNotFound(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.GetReview(context.Background(), "missing"); err == nil {
		t.Error("expected error for missing review")
	}
}

func TestListReviews(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := sampleRecord()
	first.CreatedAt = time.Now().UTC().Add(-time.Hour)
	second := sampleRecord()
	second.Mode = models.ModeWritingQuality

	if _, err := store.SaveReview(ctx, first); err != nil {
		t.Fatalf("SaveReview failed: %v", err)
	}
	if _, err := store.SaveReview(ctx, second); err != nil {
		t.Fatalf("SaveReview failed: %v", err)
	}

	infos, err := store.ListReviews(ctx)
	if err != nil {
		t.Fatalf("ListReviews failed: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("expected 2 reviews, got %d", len(infos))
	}
	if infos[0].Mode != models.ModeWritingQuality {
		t.Errorf("expected newest review first, got %s", infos[0].Mode)
	}
	if infos[0].Stats.Issues != 1 {
		t.Errorf("listing should carry counts, got %+v", infos[0].Stats)
	}
}

func TestDeleteReview(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	reviewID, err := store.SaveReview(ctx, sampleRecord())
	if err != nil {
		t.Fatalf("SaveReview failed: %v", err)
	}

	if err := store.DeleteReview(ctx, reviewID); err != nil {
		t.Fatalf("DeleteReview failed: %v", err)
	}
	if _, err := store.GetReview(ctx, reviewID); err == nil {
		t.Error("deleted review should not be retrievable")
	}
}

func TestDocumentID(t *testing.T) {
	tests := []struct {
		name   string
		source models.SourceInfo
		prefix string
	}{
		{"zotero takes precedence", models.SourceInfo{ZoteroID: "ABC123", URL: "https://example.com/x.pdf"}, "zotero_ABC123"},
		{"url", models.SourceInfo{URL: "https://example.com/x.pdf"}, "url_"},
		{"content hash fallback", models.SourceInfo{}, "doc_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := DocumentID(tt.source, []byte("pdf bytes"))
			if len(id) < len(tt.prefix) || id[:len(tt.prefix)] != tt.prefix {
				t.Errorf("DocumentID = %q, want prefix %q", id, tt.prefix)
			}
		})
	}

	a := DocumentID(models.SourceInfo{}, []byte("same"))
	b := DocumentID(models.SourceInfo{}, []byte("same"))
	if a != b {
		t.Error("content-hash IDs must be stable")
	}
}
