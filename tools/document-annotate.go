package tools

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/margin-review/margin/internal/critique"
	"github.com/margin-review/margin/internal/extract"
	"github.com/margin-review/margin/internal/operations"
	"github.com/margin-review/margin/models"
)

type DocumentAnnotateQuery struct {
	ZoteroID string `json:"zotero_id,omitempty"`
	URL      string `json:"url,omitempty"`
	RawData  []byte `json:"raw_data,omitempty"`

	// ReviewID selects a stored review; Critique supplies one inline.
	// Exactly one of the two must be set.
	ReviewID string `json:"review_id,omitempty"`
	Critique string `json:"critique,omitempty"`

	IncludeLegend      bool   `json:"include_legend,omitempty"`
	IncludeSummaryPage bool   `json:"include_summary_page,omitempty"`
	SummaryTitle       string `json:"summary_title,omitempty"`
	OutputPath         string `json:"output_path,omitempty"`
}

type DocumentAnnotateResponse struct {
	DocumentID    string                 `json:"document_id,omitempty"`
	OutputPath    string                 `json:"output_path,omitempty"`
	AnnotatedData []byte                 `json:"annotated_data,omitempty"`
	Stats         models.AnnotationStats `json:"stats"`
}

func DocumentAnnotateTool() *mcp.Tool {
	inputschema, err := jsonschema.For[DocumentAnnotateQuery](nil)
	if err != nil {
		panic(err)
	}
	return &mcp.Tool{
		Name:        "document-annotate",
		Description: "Annotate a PDF document with review findings: severity-colored highlights, margin comments, rewrite call-outs, and section summary boxes. Findings come from a stored review (review_id) or from critique text passed inline. If output_path is set the annotated PDF is written there; otherwise the bytes are returned base64-encoded. Placement failures are counted in stats.skipped, not treated as errors.",
		InputSchema: inputschema,
	}
}

func DocumentAnnotateToolHandler(ctx context.Context, req *mcp.CallToolRequest, query DocumentAnnotateQuery, deps operations.Deps) (*mcp.CallToolResult, *DocumentAnnotateResponse, error) {
	deps.Log.Info("document-annotate tool called")

	findings, critiqueText, err := resolveFindings(ctx, deps, query)
	if err != nil {
		deps.Log.Error("document-annotate tool failed: %v", err)
		return nil, nil, err
	}

	source := models.SourceInfo{ZoteroID: query.ZoteroID, URL: query.URL}
	data := query.RawData
	if data == nil {
		data, err = extract.FetchSource(ctx, source)
		if err != nil {
			deps.Log.Error("document-annotate tool failed: %v", err)
			return nil, nil, fmt.Errorf("failed to fetch document: %w", err)
		}
	}

	annotated, stats, err := operations.AnnotateDocument(ctx, deps, data, findings, operations.AnnotateOptions{
		Legend:         query.IncludeLegend,
		PrependSummary: query.IncludeSummaryPage,
		SummaryTitle:   query.SummaryTitle,
		Synopsis:       critiqueText,
	})
	if err != nil {
		deps.Log.Error("document-annotate tool failed: %v", err)
		return nil, nil, err
	}

	responseData := &DocumentAnnotateResponse{Stats: stats}
	if query.OutputPath != "" {
		if err := os.WriteFile(query.OutputPath, annotated, 0644); err != nil {
			return nil, nil, fmt.Errorf("failed to write annotated document: %w", err)
		}
		responseData.OutputPath = query.OutputPath
	} else {
		responseData.AnnotatedData = annotated
	}

	return nil, responseData, nil
}

// resolveFindings loads findings from the store or parses them from inline
// critique text. The critique text is also returned for the summary page.
func resolveFindings(ctx context.Context, deps operations.Deps, query DocumentAnnotateQuery) (models.Findings, string, error) {
	switch {
	case query.ReviewID != "" && query.Critique != "":
		return models.Findings{}, "", errors.New("set either review_id or critique, not both")
	case query.ReviewID != "":
		if deps.Store == nil {
			return models.Findings{}, "", errors.New("no review store configured")
		}
		record, err := deps.Store.GetReview(ctx, query.ReviewID)
		if err != nil {
			return models.Findings{}, "", fmt.Errorf("failed to load review: %w", err)
		}
		return record.Findings, record.Critique, nil
	case query.Critique != "":
		return critique.Parse(query.Critique), query.Critique, nil
	default:
		return models.Findings{}, "", errors.New("set review_id or critique to supply findings")
	}
}
