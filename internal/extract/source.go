package extract

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"

	"github.com/Epistemic-Technology/zotero/zotero"

	"github.com/margin-review/margin/models"
)

// FetchSource resolves a SourceInfo to document bytes. Zotero IDs take
// precedence over URLs.
func FetchSource(ctx context.Context, sourceInfo models.SourceInfo) ([]byte, error) {
	if sourceInfo.ZoteroID != "" {
		apiKey := os.Getenv("ZOTERO_API_KEY")
		libraryID := os.Getenv("ZOTERO_LIBRARY_ID")
		return fetchFromZotero(ctx, sourceInfo.ZoteroID, apiKey, libraryID)
	}
	if sourceInfo.URL != "" {
		return fetchFromURL(ctx, sourceInfo.URL)
	}
	return nil, errors.New("no document source provided")
}

func fetchFromURL(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

func fetchFromZotero(ctx context.Context, zoteroID, apiKey, libraryID string) ([]byte, error) {
	client := zotero.NewClient(libraryID, zotero.LibraryTypeUser, zotero.WithAPIKey(apiKey))
	data, err := client.File(ctx, zoteroID)
	if err != nil {
		return nil, err
	}
	return data, nil
}
