package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// A4 in points
const (
	summaryPageWidth  = 595.0
	summaryPageHeight = 842.0
)

const synopsisLimit = 1000

var black = Color{}

// PrependSummaryPage inserts a review summary page in front of the
// document: a title, the total issue count, and the synopsis truncated to
// 1000 characters and wrapped onto the page. The rest of the document is
// untouched.
func PrependSummaryPage(data []byte, title string, issueCount int, synopsis string) ([]byte, error) {
	var inserted bytes.Buffer
	conf := model.NewDefaultConfiguration()
	if err := api.InsertPages(bytes.NewReader(data), &inserted, []string{"1"}, true, nil, conf); err != nil {
		return nil, fmt.Errorf("insert summary page: %w", err)
	}

	out := inserted.Bytes()
	stamp := func(text string, x, y, size float64) error {
		next, err := applyTextOp(out, overlayOp{
			kind: opText, page: 1, text: text,
			from: Point{X: x, Y: y}, fontSize: size, color: black,
		})
		if err == nil {
			out = next
		}
		return err
	}

	if err := stamp(title, 200, summaryPageHeight-70, 18); err != nil {
		return nil, err
	}
	if err := stamp(fmt.Sprintf("Total Issues Found: %d", issueCount), 50, summaryPageHeight-130, 12); err != nil {
		return nil, err
	}

	if runes := []rune(synopsis); len(runes) > synopsisLimit {
		synopsis = string(runes[:synopsisLimit]) + "..."
	}
	y := summaryPageHeight - 170
	lines := strings.Split(synopsis, "\n")
	if len(lines) > 50 {
		lines = lines[:50]
	}
	for _, line := range lines {
		if y < summaryPageHeight-750 {
			break
		}
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			if runes := []rune(trimmed); len(runes) > 100 {
				trimmed = string(runes[:100])
			}
			if err := stamp(trimmed, 50, y, 10); err != nil {
				return nil, err
			}
		}
		y -= 12
	}

	return out, nil
}
