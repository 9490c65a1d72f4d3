package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/margin-review/margin/internal/storage"
	"github.com/margin-review/margin/models"
)

// ReviewResourceHandler serves stored reviews as MCP resources.
type ReviewResourceHandler struct {
	store storage.Store
}

func NewReviewResourceHandler(store storage.Store) *ReviewResourceHandler {
	return &ReviewResourceHandler{store: store}
}

// ListResources returns one resource pair per stored review.
func (h *ReviewResourceHandler) ListResources(ctx context.Context) ([]mcp.Resource, error) {
	reviews, err := h.store.ListReviews(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}

	var resources []mcp.Resource
	for _, review := range reviews {
		resources = append(resources, mcp.Resource{
			URI:         fmt.Sprintf("review://%s", review.DocumentID),
			Name:        fmt.Sprintf("%s (%s review)", review.DocumentID, review.Mode),
			Description: fmt.Sprintf("Structured review findings (%d issues, %d critical)", review.Stats.Issues, review.Stats.CriticalIssues),
			MIMEType:    "application/json",
		})
		resources = append(resources, mcp.Resource{
			URI:         fmt.Sprintf("review://%s/critique", review.DocumentID),
			Name:        fmt.Sprintf("%s (critique text)", review.DocumentID),
			Description: "Raw critique text as generated by the model",
			MIMEType:    "text/markdown",
		})
	}

	return resources, nil
}

// ReadResource reads a review resource by URI. Supported forms:
// review://{documentId} and review://{documentId}/critique. The document
// ID resolves to its most recent review; a review ID is also accepted.
func (h *ReviewResourceHandler) ReadResource(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	if !strings.HasPrefix(uri, "review://") {
		return nil, fmt.Errorf("invalid URI scheme, expected review://")
	}

	path := strings.TrimPrefix(uri, "review://")
	parts := strings.Split(path, "/")
	if parts[0] == "" {
		return nil, fmt.Errorf("invalid URI, missing document ID")
	}

	record, err := h.resolveReview(ctx, parts[0])
	if err != nil {
		return nil, err
	}

	var content, mimeType string
	switch {
	case len(parts) == 1:
		data, err := json.MarshalIndent(record, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal review: %w", err)
		}
		content = string(data)
		mimeType = "application/json"
	case len(parts) == 2 && parts[1] == "critique":
		content = record.Critique
		mimeType = "text/markdown"
	default:
		return nil, fmt.Errorf("unknown review resource: %s", uri)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      uri,
				MIMEType: mimeType,
				Text:     content,
			},
		},
	}, nil
}

// resolveReview maps a document ID to its most recent review, falling back
// to treating the identifier as a review ID.
func (h *ReviewResourceHandler) resolveReview(ctx context.Context, id string) (*models.ReviewRecord, error) {
	reviews, err := h.store.ListReviews(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}

	// ListReviews is newest-first, so the first match wins.
	for _, review := range reviews {
		if review.DocumentID == id {
			return h.store.GetReview(ctx, review.ReviewID)
		}
	}

	record, err := h.store.GetReview(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("no review found for %s", id)
	}
	return record, nil
}
