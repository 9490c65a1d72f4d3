// Package operations wires the review pipeline stages together for the
// tool layer: fetch, validate, extract, chunk, index, retrieve, generate,
// parse, persist, and separately annotate.
package operations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/margin-review/margin/internal/annotate"
	"github.com/margin-review/margin/internal/chunk"
	"github.com/margin-review/margin/internal/config"
	"github.com/margin-review/margin/internal/critique"
	"github.com/margin-review/margin/internal/extract"
	"github.com/margin-review/margin/internal/index"
	"github.com/margin-review/margin/internal/logger"
	"github.com/margin-review/margin/internal/prompt"
	"github.com/margin-review/margin/internal/render"
	"github.com/margin-review/margin/internal/storage"
	"github.com/margin-review/margin/models"
)

// CritiqueGenerator produces a critique for a prompt, streaming fragments
// to the optional callback. Satisfied by llm.Client.
type CritiqueGenerator interface {
	GenerateCritique(ctx context.Context, prompt string, onFragment func(string)) (string, error)
}

// Deps carries the long-lived collaborators shared by all operations.
type Deps struct {
	Config     config.Config
	Store      storage.Store
	Client     CritiqueGenerator
	Embeddings *index.Provider
	Log        logger.Logger
}

// ReviewRequest identifies the document and the kind of review to run.
// Exactly one of ZoteroID, URL, or RawData supplies the document.
type ReviewRequest struct {
	ZoteroID    string
	URL         string
	RawData     []byte
	Mode        models.ReviewMode
	CustomQuery string
	TopK        int

	// OnFragment receives critique text as it streams. May be nil.
	OnFragment func(string)
}

// ReviewResult is the outcome of a completed review.
type ReviewResult struct {
	DocumentID string
	ReviewID   string
	Mode       models.ReviewMode
	Critique   string
	Findings   models.Findings
	Stats      models.ReviewStats
	Pages      int
	Chunks     int
	Retrieved  []models.RetrievalResult
}

// ReviewDocument runs the full review pipeline. Stages are ordered so the
// cheap local failures (validation, extraction, empty retrieval) happen
// before any generation cost is incurred.
func ReviewDocument(ctx context.Context, deps Deps, req ReviewRequest) (*ReviewResult, error) {
	if req.Mode == "" {
		req.Mode = models.ModeFullReview
	}
	if !req.Mode.Valid() {
		return nil, fmt.Errorf("unknown review mode: %s", req.Mode)
	}

	source := models.SourceInfo{ZoteroID: req.ZoteroID, URL: req.URL}
	data := req.RawData
	if data == nil {
		fetched, err := extract.FetchSource(ctx, source)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch document: %w", err)
		}
		data = fetched
	}

	limits := extract.Limits{
		MaxBytes: deps.Config.MaxDocumentBytes,
		MaxPages: deps.Config.MaxDocumentPages,
	}
	if err := extract.Validate(data, limits); err != nil {
		return nil, err
	}

	pages, stats, err := extract.Extract(data)
	if err != nil {
		return nil, fmt.Errorf("failed to extract text: %w", err)
	}
	deps.Log.Info("Extracted %d pages, %d characters", stats.TotalPages, stats.TotalChars)

	chunks := chunk.Split(pages, chunk.Config{Size: deps.Config.ChunkSize, Overlap: deps.Config.ChunkOverlap})
	if len(chunks) == 0 {
		return nil, errors.New("document contains no extractable text")
	}

	idx, err := index.Build(ctx, chunks, deps.Embeddings.Get(), deps.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to build retrieval index: %w", err)
	}

	topK := req.TopK
	if topK <= 0 {
		topK = deps.Config.TopK
	}
	seed := prompt.SeedQuery(req.Mode, req.CustomQuery)
	retrieved, err := idx.Query(ctx, seed, topK)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve relevant sections: %w", err)
	}

	critiqueText, err := deps.Client.GenerateCritique(ctx, prompt.Build(req.Mode, retrieved, req.CustomQuery), req.OnFragment)
	if err != nil {
		return nil, err
	}

	findings := critique.Parse(critiqueText)

	result := &ReviewResult{
		DocumentID: storage.DocumentID(source, data),
		Mode:       req.Mode,
		Critique:   critiqueText,
		Findings:   findings,
		Stats:      findings.Stats(),
		Pages:      stats.TotalPages,
		Chunks:     len(chunks),
		Retrieved:  retrieved,
	}

	if deps.Store != nil {
		record := &models.ReviewRecord{
			DocumentID: result.DocumentID,
			Mode:       req.Mode,
			Query:      req.CustomQuery,
			Critique:   critiqueText,
			Findings:   findings,
			Stats:      result.Stats,
			CreatedAt:  time.Now().UTC(),
		}
		reviewID, err := deps.Store.SaveReview(ctx, record)
		if err != nil {
			return nil, fmt.Errorf("failed to persist review: %w", err)
		}
		result.ReviewID = reviewID
	}

	return result, nil
}

// AnnotateOptions controls the overlay produced by AnnotateDocument.
type AnnotateOptions struct {
	Legend         bool
	PrependSummary bool
	SummaryTitle   string
	Synopsis       string
}

// AnnotateDocument lays findings onto the original document and returns
// the annotated bytes. The document passes the same validation gate as
// review. Placement failures for individual findings are reflected in the
// stats, not returned as errors; only validation, opening, and serializing
// the document can fail.
func AnnotateDocument(ctx context.Context, deps Deps, original []byte, findings models.Findings, opts AnnotateOptions) ([]byte, models.AnnotationStats, error) {
	limits := extract.Limits{
		MaxBytes: deps.Config.MaxDocumentBytes,
		MaxPages: deps.Config.MaxDocumentPages,
	}
	if err := extract.Validate(original, limits); err != nil {
		return nil, models.AnnotationStats{}, err
	}

	doc, err := render.Open(original)
	if err != nil {
		return nil, models.AnnotationStats{}, fmt.Errorf("failed to open document: %w", err)
	}

	engine := annotate.NewEngine(deps.Log)
	stats := engine.Annotate(doc, findings, annotate.Options{Legend: opts.Legend})

	out, err := doc.Bytes()
	if err != nil {
		return nil, stats, fmt.Errorf("failed to serialize annotations: %w", err)
	}

	if opts.PrependSummary {
		title := opts.SummaryTitle
		if title == "" {
			title = "Document Review Summary"
		}
		out, err = render.PrependSummaryPage(out, title, len(findings.Issues), opts.Synopsis)
		if err != nil {
			return nil, stats, fmt.Errorf("failed to prepend summary page: %w", err)
		}
	}

	return out, stats, nil
}
