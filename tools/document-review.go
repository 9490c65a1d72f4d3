package tools

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/margin-review/margin/internal/operations"
	"github.com/margin-review/margin/models"
)

type DocumentReviewQuery struct {
	ZoteroID    string `json:"zotero_id,omitempty"`
	URL         string `json:"url,omitempty"`
	RawData     []byte `json:"raw_data,omitempty"`
	Mode        string `json:"mode,omitempty"`
	CustomQuery string `json:"custom_query,omitempty"`
	TopK        int    `json:"top_k,omitempty"`
}

type DocumentReviewResponse struct {
	DocumentID       string                     `json:"document_id"`
	ReviewID         string                     `json:"review_id,omitempty"`
	Mode             models.ReviewMode          `json:"mode"`
	Critique         string                     `json:"critique"`
	Issues           []models.Issue             `json:"issues,omitempty"`
	Rewrites         []models.RewriteSuggestion `json:"rewrites,omitempty"`
	SectionSummaries []models.SectionSummary    `json:"section_summaries,omitempty"`
	Stats            models.ReviewStats         `json:"stats"`
	PageCount        int                        `json:"page_count"`
	ChunkCount       int                        `json:"chunk_count"`
}

func DocumentReviewTool() *mcp.Tool {
	inputschema, err := jsonschema.For[DocumentReviewQuery](nil)
	if err != nil {
		panic(err)
	}
	return &mcp.Tool{
		Name:        "document-review",
		Description: "Review a PDF document and produce a structured critique. The document is supplied by Zotero item ID, URL, or inline base64 data (raw_data). Modes: full_review, methodology, writing_quality, citation_check, consistency_check, alignment_check, custom (custom requires custom_query). Returns the critique text plus extracted issues, rewrite suggestions, section summaries, and counts.",
		InputSchema: inputschema,
	}
}

func DocumentReviewToolHandler(ctx context.Context, req *mcp.CallToolRequest, query DocumentReviewQuery, deps operations.Deps) (*mcp.CallToolResult, *DocumentReviewResponse, error) {
	deps.Log.Info("document-review tool called (mode=%s)", query.Mode)

	result, err := operations.ReviewDocument(ctx, deps, operations.ReviewRequest{
		ZoteroID:    query.ZoteroID,
		URL:         query.URL,
		RawData:     query.RawData,
		Mode:        models.ReviewMode(query.Mode),
		CustomQuery: query.CustomQuery,
		TopK:        query.TopK,
	})
	if err != nil {
		deps.Log.Error("document-review tool failed: %v", err)
		return nil, nil, err
	}

	responseData := &DocumentReviewResponse{
		DocumentID:       result.DocumentID,
		ReviewID:         result.ReviewID,
		Mode:             result.Mode,
		Critique:         result.Critique,
		Issues:           result.Findings.Issues,
		Rewrites:         result.Findings.Rewrites,
		SectionSummaries: result.Findings.SectionSummaries,
		Stats:            result.Stats,
		PageCount:        result.Pages,
		ChunkCount:       result.Chunks,
	}

	return nil, responseData, nil
}
