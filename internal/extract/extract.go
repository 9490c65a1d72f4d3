// Package extract pulls page-scoped, positioned text out of a PDF and
// guards the pipeline with the document validation gate.
package extract

import (
	"bytes"
	"fmt"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/margin-review/margin/models"
)

// Limits are the hard ceilings checked before any extraction work.
type Limits struct {
	MaxBytes int64
	MaxPages int
}

// DefaultLimits returns the standard validation gate: 10MB, 50 pages.
func DefaultLimits() Limits {
	return Limits{
		MaxBytes: 10 * 1024 * 1024,
		MaxPages: 50,
	}
}

// InvalidDocumentError reports a document rejected by the validation gate.
type InvalidDocumentError struct {
	Reason string
	Err    error
}

func (e *InvalidDocumentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid document: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid document: %s", e.Reason)
}

func (e *InvalidDocumentError) Unwrap() error { return e.Err }

// Validate checks the document against the limits and rejects anything
// unparseable, empty, oversized, or over the page ceiling. It runs before
// extraction so oversized input fails before any real work.
func Validate(data []byte, limits Limits) error {
	if limits.MaxBytes > 0 && int64(len(data)) > limits.MaxBytes {
		sizeMB := float64(len(data)) / (1024 * 1024)
		return &InvalidDocumentError{
			Reason: fmt.Sprintf("file too large (%.1fMB), maximum %dMB allowed",
				sizeMB, limits.MaxBytes/(1024*1024)),
		}
	}

	conf := model.NewDefaultConfiguration()
	pdfContext, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return &InvalidDocumentError{Reason: "unparseable or corrupted PDF", Err: err}
	}

	pageCount := pdfContext.PageCount
	if pageCount == 0 {
		return &InvalidDocumentError{Reason: "document has no pages"}
	}
	if limits.MaxPages > 0 && pageCount > limits.MaxPages {
		return &InvalidDocumentError{
			Reason: fmt.Sprintf("too many pages (%d), maximum %d", pageCount, limits.MaxPages),
		}
	}

	return nil
}

// Extract returns one PageText per page in document order. Text blocks are
// one visual row each, preserving the renderer's top-to-bottom drawing
// order; whitespace-only rows are discarded. Empty pages yield a PageText
// with no blocks and empty raw text.
func Extract(data []byte) ([]models.PageText, models.ExtractStats, error) {
	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, models.ExtractStats{}, &InvalidDocumentError{Reason: "unparseable PDF", Err: err}
	}

	numPages := reader.NumPage()
	pages := make([]models.PageText, 0, numPages)
	var fullText []string

	for pageNum := 1; pageNum <= numPages; pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			pages = append(pages, models.PageText{PageNumber: pageNum})
			continue
		}
		blocks := extractRows(page)
		pageText := assemblePageText(pageNum, blocks)
		pages = append(pages, pageText)
		fullText = append(fullText, pageText.RawText)
	}

	combined := strings.Join(fullText, "\n\n")
	stats := models.ExtractStats{
		TotalPages: len(pages),
		TotalChars: len(combined),
	}
	return pages, stats, nil
}

// extractRows reads the page's positioned text rows and converts each into
// a TextBlock with a bounding box. Row order follows the underlying reader
// (top of page first).
func extractRows(page pdflib.Page) []models.TextBlock {
	rows, err := page.GetTextByRow()
	if err != nil {
		return nil
	}

	var blocks []models.TextBlock
	for _, row := range rows {
		if row == nil || len(row.Content) == 0 {
			continue
		}
		var sb strings.Builder
		llx, urx := row.Content[0].X, row.Content[0].X
		lly, ury := row.Content[0].Y, row.Content[0].Y
		for _, txt := range row.Content {
			sb.WriteString(txt.S)
			if txt.X < llx {
				llx = txt.X
			}
			if right := txt.X + txt.W; right > urx {
				urx = right
			}
			if txt.Y < lly {
				lly = txt.Y
			}
			if top := txt.Y + txt.FontSize; top > ury {
				ury = top
			}
		}
		text := strings.TrimSpace(sb.String())
		if text == "" {
			continue
		}
		blocks = append(blocks, models.TextBlock{
			BBox: models.Rect{LLx: llx, LLy: lly, URx: urx, URy: ury},
			Text: text,
		})
	}
	return blocks
}

// assemblePageText joins block texts into the page's raw text, one block
// per line, matching how the chunker consumes it.
func assemblePageText(pageNum int, blocks []models.TextBlock) models.PageText {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		parts = append(parts, b.Text)
	}
	return models.PageText{
		PageNumber: pageNum,
		RawText:    strings.Join(parts, "\n"),
		Blocks:     blocks,
	}
}
