// Package index wraps the embedding model and its vector store behind the
// retrieval contract: build once per document, query many times.
package index

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	chromem "github.com/philippgille/chromem-go"

	"github.com/margin-review/margin/internal/llm"
	"github.com/margin-review/margin/internal/logger"
	"github.com/margin-review/margin/models"
)

var (
	// ErrEmptyIndex means Build was given no chunks, or a query hit an
	// index that holds none.
	ErrEmptyIndex = errors.New("retrieval index is empty")
	// ErrNoResults means a query produced zero hits. Callers must treat
	// this as a retrieval failure, not silently proceed.
	ErrNoResults = errors.New("retrieval returned no results")
)

// Embedder produces a fixed-length vector for a text string.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Index holds the embedded chunks of a single document.
type Index struct {
	collection *chromem.Collection
	embedder   Embedder
	size       int
}

const collectionName = "document-chunks"

// Build embeds every chunk's text once and stores the vectors keyed by
// chunk ID with page and offset metadata.
func Build(ctx context.Context, chunks []models.Chunk, embedder Embedder, log logger.Logger) (*Index, error) {
	if len(chunks) == 0 {
		return nil, ErrEmptyIndex
	}

	db := chromem.NewDB()
	collection, err := db.CreateCollection(collectionName, nil, chromem.EmbeddingFunc(embedder.Embed))
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	docs, err := llm.ParallelProcess(ctx, chunks, log, func(ctx context.Context, _ int, c models.Chunk) (chromem.Document, error) {
		embedding, err := embedder.Embed(ctx, c.Text)
		if err != nil {
			return chromem.Document{}, fmt.Errorf("embed chunk %d: %w", c.ID, err)
		}
		return chromem.Document{
			ID:        fmt.Sprintf("chunk_%d", c.ID),
			Content:   c.Text,
			Embedding: embedding,
			Metadata: map[string]string{
				"chunk_id":     strconv.Itoa(c.ID),
				"page_num":     strconv.Itoa(c.SourcePage),
				"start_offset": strconv.Itoa(c.StartOffset),
				"end_offset":   strconv.Itoa(c.EndOffset),
			},
		}, nil
	})
	if err != nil {
		return nil, err
	}

	if err := collection.AddDocuments(ctx, docs, 1); err != nil {
		return nil, fmt.Errorf("add documents: %w", err)
	}

	log.Info("Built retrieval index with %d chunks", len(chunks))
	return &Index{collection: collection, embedder: embedder, size: len(chunks)}, nil
}

// Size returns the number of indexed chunks.
func (idx *Index) Size() int { return idx.size }

// Query embeds the query text and returns the topK nearest chunks by cosine
// distance, most similar first. Ties are broken by ascending chunk ID, so
// identical queries always yield identical ordered results. Fewer than topK
// results come back only when the index holds fewer chunks.
func (idx *Index) Query(ctx context.Context, text string, topK int) ([]models.RetrievalResult, error) {
	if idx == nil || idx.size == 0 {
		return nil, ErrEmptyIndex
	}
	if topK <= 0 {
		topK = 5
	}
	if topK > idx.size {
		topK = idx.size
	}

	embedding, err := idx.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := idx.collection.QueryWithOptions(ctx, chromem.QueryOptions{
		QueryEmbedding: embedding,
		NResults:       topK,
	})
	if err != nil {
		return nil, fmt.Errorf("query collection: %w", err)
	}
	if len(hits) == 0 {
		return nil, ErrNoResults
	}

	results := make([]models.RetrievalResult, 0, len(hits))
	for _, hit := range hits {
		chunkID, _ := strconv.Atoi(hit.Metadata["chunk_id"])
		pageNum, _ := strconv.Atoi(hit.Metadata["page_num"])
		results = append(results, models.RetrievalResult{
			ChunkID:    chunkID,
			Text:       hit.Content,
			SourcePage: pageNum,
			Distance:   1 - float64(hit.Similarity),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].ChunkID < results[j].ChunkID
	})

	return results, nil
}
