package annotate

import (
	"fmt"
	"strings"

	"github.com/margin-review/margin/internal/render"
	"github.com/margin-review/margin/models"
)

// annotateRewrite underlines the original phrasing on the hinted page and
// attaches a call-out box with the replacement, plus a sticky note holding
// the full untruncated texts. Rewrites without a usable page are skipped.
func (e *Engine) annotateRewrite(p *pass, rewrite models.RewriteSuggestion) {
	if rewrite.Page == nil {
		p.stats.Skipped++
		return
	}
	pageNum := *rewrite.Page
	if pageNum < 1 || pageNum > p.doc.PageCount() {
		p.stats.Skipped++
		return
	}

	rect, ok := p.doc.FindText(pageNum, prefix(rewrite.Original, searchPrefix))
	if !ok {
		e.rewriteFallback(p, pageNum, rewrite)
		return
	}

	if err := p.doc.Underline(pageNum, rect, calloutBlue, "REWRITE: "+rewrite.Suggested); err != nil {
		e.log.Warn("Rewrite underline failed on page %d: %v", pageNum, err)
		p.stats.Skipped++
		return
	}

	width, _ := p.doc.PageSize(pageNum)

	top := rect.URy
	if top-100 < 10 {
		top = 110
	}
	box := render.Rect{LLx: width - 200, LLy: top - 100, URx: width - 10, URy: top}

	body := fmt.Sprintf("REWRITE SUGGESTION\n\nOriginal:\n%s...\n\nSuggested:\n%s...",
		prefix(rewrite.Original, 60), prefix(rewrite.Suggested, 60))

	err := p.doc.DrawBox(pageNum, box, calloutBlue, &lightBlue, 1.5, 0.3)
	if err == nil {
		err = e.drawWrapped(p, pageNum, box, body, 7, 40, 10)
	}
	if err == nil {
		from := render.Point{X: rect.URx, Y: rect.LLy + rect.Height()/2}
		to := render.Point{X: box.LLx, Y: box.LLy + box.Height()/2}
		err = p.doc.DrawLine(pageNum, from, to, calloutBlue, 1, true)
	}
	if err == nil {
		note := fmt.Sprintf("REWRITE SUGGESTION\n\n=== ORIGINAL ===\n%s\n\n=== SUGGESTED ===\n%s\n\n=== REASON ===\n%s",
			rewrite.Original, rewrite.Suggested, rewrite.Explanation)
		err = p.doc.StickyNote(pageNum, render.Point{X: rect.URx + 2, Y: rect.URy}, note, "Note")
	}
	if err != nil {
		e.log.Warn("Rewrite call-out failed on page %d: %v", pageNum, err)
		p.stats.Skipped++
		return
	}
	p.stats.Rewrites++
}

// rewriteFallback places a sticky note listing the replacement when the
// original phrasing cannot be located on the hinted page.
func (e *Engine) rewriteFallback(p *pass, pageNum int, rewrite models.RewriteSuggestion) {
	_, height := p.doc.PageSize(pageNum)
	note := fmt.Sprintf("REWRITE:\n'%s'\n\n-> '%s'\n\n%s", rewrite.Original, rewrite.Suggested, rewrite.Explanation)
	if err := p.doc.StickyNote(pageNum, render.Point{X: 50, Y: height - 50}, note, "Insert"); err != nil {
		e.log.Warn("Rewrite fallback note failed on page %d: %v", pageNum, err)
		p.stats.Skipped++
		return
	}
	p.stats.StickyNotes++
	p.stats.Rewrites++
}

// annotateSectionSummary draws a framed verdict box near the top of the
// section's page with the score and up to two bullets per list.
func (e *Engine) annotateSectionSummary(p *pass, summary models.SectionSummary) {
	if summary.Page == nil {
		p.stats.Skipped++
		return
	}
	pageNum := *summary.Page
	if pageNum < 1 || pageNum > p.doc.PageCount() {
		p.stats.Skipped++
		return
	}

	width, height := p.doc.PageSize(pageNum)
	boxHeight := min(200.0, height*0.25)
	box := render.Rect{LLx: 50, LLy: height - 50 - boxHeight, URx: width - 50, URy: height - 50}

	var b strings.Builder
	fmt.Fprintf(&b, "%s REVIEW (Score: %d/10)\n\n", strings.ToUpper(summary.Section), summary.Score)
	writeBullets := func(label string, items []string) {
		if len(items) == 0 {
			return
		}
		b.WriteString(label + ":\n")
		for _, item := range items[:min(2, len(items))] {
			fmt.Fprintf(&b, "  - %s\n", prefix(item, 60))
		}
		b.WriteString("\n")
	}
	writeBullets("Strengths", summary.Strengths)
	writeBullets("Issues", summary.Issues)
	writeBullets("Suggestions", summary.Suggestions)

	err := p.doc.DrawBox(pageNum, box, calloutBlue, &lightBlue, 1, 0.3)
	if err == nil {
		err = e.drawSummaryText(p, pageNum, box, b.String())
	}
	if err != nil {
		e.log.Warn("Section summary box failed on page %d: %v", pageNum, err)
		p.stats.Skipped++
		return
	}
	p.stats.SummaryBoxes++
}

func (e *Engine) drawSummaryText(p *pass, pageNum int, box render.Rect, text string) error {
	lines := strings.Split(text, "\n")
	if len(lines) > 20 {
		lines = lines[:20]
	}

	y := box.URy - 15
	for _, line := range lines {
		if y < box.LLy+10 {
			break
		}
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			if err := p.doc.DrawText(pageNum, render.Point{X: box.LLx + 8, Y: y}, prefix(line, 80), 8, black); err != nil {
				return err
			}
		}
		y -= 10
	}
	return nil
}

// drawLegend puts the severity color key in the top right corner of the
// first page.
func (e *Engine) drawLegend(p *pass) {
	width, height := p.doc.PageSize(1)

	box := render.Rect{LLx: width - 210, LLy: height - 130, URx: width - 10, URy: height - 10}

	err := p.doc.DrawBox(1, box, black, &white, 1, 0.9)
	if err == nil {
		err = p.doc.DrawText(1, render.Point{X: box.LLx + 50, Y: box.URy - 15}, "ANNOTATION LEGEND", 9, black)
	}
	if err != nil {
		e.log.Warn("Legend failed: %v", err)
		p.stats.Skipped++
		return
	}

	entries := []struct {
		label    string
		severity models.Severity
	}{
		{"Critical Issues", models.SeverityCritical},
		{"Major Issues", models.SeverityMajor},
		{"Minor Issues", models.SeverityMinor},
		{"Suggestions", models.SeveritySuggestion},
		{"Strengths", models.SeverityStrength},
	}

	offset := 25.0
	for _, entry := range entries {
		color := severityColor(entry.severity)
		sample := render.Rect{
			LLx: box.LLx + 10,
			LLy: box.URy - offset - 12,
			URx: box.LLx + 30,
			URy: box.URy - offset,
		}
		if err := p.doc.DrawBox(1, sample, color, &color, 0.5, highlightOpacity); err != nil {
			e.log.Warn("Legend sample failed: %v", err)
			p.stats.Skipped++
			return
		}
		if err := p.doc.DrawText(1, render.Point{X: box.LLx + 35, Y: box.URy - offset - 9}, entry.label, 7, black); err != nil {
			e.log.Warn("Legend label failed: %v", err)
			p.stats.Skipped++
			return
		}
		offset += 16
	}
}
