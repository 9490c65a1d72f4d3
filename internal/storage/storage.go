package storage

import (
	"context"

	"github.com/margin-review/margin/models"
)

// Store defines the interface for persisting and retrieving reviews
type Store interface {
	// SaveReview stores a completed review and returns its review ID
	SaveReview(ctx context.Context, record *models.ReviewRecord) (string, error)

	// GetReview retrieves a review by ID, including all findings
	GetReview(ctx context.Context, reviewID string) (*models.ReviewRecord, error)

	// ListReviews returns all stored reviews, newest first
	ListReviews(ctx context.Context) ([]models.ReviewInfo, error)

	// DeleteReview removes a review and all associated findings
	DeleteReview(ctx context.Context, reviewID string) error

	// Close closes the database connection
	Close() error
}

// DocumentID derives a stable identifier for a document from its source,
// falling back to a content hash for uploaded bytes.
func DocumentID(source models.SourceInfo, content []byte) string {
	if source.ZoteroID != "" {
		return "zotero_" + source.ZoteroID
	}
	if source.URL != "" {
		return "url_" + hashHex([]byte(source.URL))
	}
	return "doc_" + hashHex(content)
}
