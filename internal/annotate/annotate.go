// Package annotate lays review findings onto a rendered document:
// severity-colored highlights with numbered margin comments, inline
// rewrite call-outs, section summary boxes, and a color legend.
package annotate

import (
	"fmt"
	"strings"

	"github.com/margin-review/margin/internal/logger"
	"github.com/margin-review/margin/internal/render"
	"github.com/margin-review/margin/models"
)

// severityColors is the highlight color scheme keyed by severity.
var severityColors = map[models.Severity]render.Color{
	models.SeverityCritical:   {R: 1},
	models.SeverityMajor:      {R: 1, G: 0.5},
	models.SeverityMinor:      {R: 1, G: 1},
	models.SeveritySuggestion: {B: 1, G: 0.5},
	models.SeverityStrength:   {G: 1},
}

const highlightOpacity = 0.3

var (
	connectorGray = render.Color{R: 0.5, G: 0.5, B: 0.5}
	calloutBlue   = render.Color{G: 0.5, B: 1}
	lightBlue     = render.Color{R: 0.9, G: 0.95, B: 1}
	black         = render.Color{}
	white         = render.Color{R: 1, G: 1, B: 1}
)

// How many leading characters of a snippet are used for geometric search.
const searchPrefix = 50

// Pages scanned when an issue carries no page hint.
const unhintedPageScan = 20

// Options controls optional overlay elements.
type Options struct {
	Legend bool
}

// Engine annotates documents. Safe to share; all run state lives in the
// per-call pass.
type Engine struct {
	log logger.Logger
}

func NewEngine(log logger.Logger) *Engine {
	return &Engine{log: log}
}

// pass is the state of one annotation run: the sequential comment number
// and the set of snippets already highlighted.
type pass struct {
	doc            render.Document
	stats          models.AnnotationStats
	commentCounter int
	highlighted    map[string]bool
}

// Annotate applies all findings to the document. Individual drawing
// failures are counted as skipped and never abort the run.
func (e *Engine) Annotate(doc render.Document, findings models.Findings, opts Options) models.AnnotationStats {
	p := &pass{
		doc:            doc,
		commentCounter: 1,
		highlighted:    make(map[string]bool),
	}

	if opts.Legend && doc.PageCount() > 0 {
		e.drawLegend(p)
	}

	for _, issue := range findings.Issues {
		e.annotateIssue(p, issue)
	}
	for _, summary := range findings.SectionSummaries {
		e.annotateSectionSummary(p, summary)
	}
	for _, rewrite := range findings.Rewrites {
		e.annotateRewrite(p, rewrite)
	}

	e.log.Info("Annotation pass complete: %d highlights, %d margin notes, %d sticky notes, %d rewrites, %d summary boxes, %d skipped",
		p.stats.Highlights, p.stats.MarginNotes, p.stats.StickyNotes, p.stats.Rewrites, p.stats.SummaryBoxes, p.stats.Skipped)
	return p.stats
}

// issueStrategy attempts to place one issue. Returns true when the issue
// was placed (or deliberately consumed) so later strategies are skipped.
type issueStrategy func(e *Engine, p *pass, issue models.Issue) bool

var issueStrategies = []issueStrategy{
	(*Engine).geometricMatch,
	(*Engine).pageHintFallback,
}

func (e *Engine) annotateIssue(p *pass, issue models.Issue) {
	if p.highlighted[issue.Snippet] {
		return
	}
	for _, strategy := range issueStrategies {
		if strategy(e, p, issue) {
			return
		}
	}
	p.stats.Skipped++
}

// searchPages returns the 1-indexed pages to scan for an issue: a window
// around the page hint when present, otherwise the document's first pages.
func searchPages(issue models.Issue, pageCount int) []int {
	var first, last int
	if issue.PageHint != nil {
		first = max(1, *issue.PageHint-2)
		last = min(pageCount, *issue.PageHint)
	} else {
		first = 1
		last = min(pageCount, unhintedPageScan)
	}

	var pages []int
	for p := first; p <= last; p++ {
		pages = append(pages, p)
	}
	return pages
}

// geometricMatch finds the snippet's text on a nearby page, highlights it
// in the severity color, and attaches a numbered margin comment connected
// by a dashed line.
func (e *Engine) geometricMatch(p *pass, issue models.Issue) bool {
	needle := prefix(issue.Snippet, searchPrefix)

	for _, pageNum := range searchPages(issue, p.doc.PageCount()) {
		rect, ok := p.doc.FindText(pageNum, needle)
		if !ok {
			continue
		}

		color := severityColor(issue.Severity)
		if err := p.doc.Highlight(pageNum, rect, color, highlightOpacity); err != nil {
			e.log.Warn("Highlight failed on page %d: %v", pageNum, err)
			p.stats.Skipped++
			return true
		}
		p.stats.Highlights++

		e.drawMarginComment(p, pageNum, rect, issue)

		p.highlighted[issue.Snippet] = true
		p.commentCounter++
		return true
	}
	return false
}

// pageHintFallback drops a sticky note on the hinted page when the
// snippet's geometry could not be recovered.
func (e *Engine) pageHintFallback(p *pass, issue models.Issue) bool {
	if issue.PageHint == nil {
		return false
	}
	pageNum := *issue.PageHint
	if pageNum < 1 || pageNum > p.doc.PageCount() {
		return false
	}

	_, height := p.doc.PageSize(pageNum)
	note := fmt.Sprintf("[%d] %s\n\n%s", p.commentCounter, strings.ToUpper(string(issue.Category)), issue.Suggestion)
	if err := p.doc.StickyNote(pageNum, render.Point{X: 50, Y: height - 50}, note, "Help"); err != nil {
		e.log.Warn("Sticky note failed on page %d: %v", pageNum, err)
		p.stats.Skipped++
		return true
	}
	p.stats.StickyNotes++
	p.commentCounter++
	return true
}

// drawMarginComment places a numbered comment box in the right margin at
// the height of the highlighted text and connects the two with a dashed
// line. Drawing failures degrade to a bare sticky note.
func (e *Engine) drawMarginComment(p *pass, pageNum int, textRect render.Rect, issue models.Issue) {
	width, _ := p.doc.PageSize(pageNum)

	box := render.Rect{
		LLx: width - 180,
		LLy: textRect.URy - 80,
		URx: width - 10,
		URy: textRect.URy,
	}

	color := severityColor(issue.Severity)
	header := fmt.Sprintf("[%d] %s", p.commentCounter, strings.ToUpper(string(issue.Category)))
	body := prefix(issue.Suggestion, 120)

	err := p.doc.DrawBox(pageNum, box, color, &color, 0.5, 0.1)
	if err == nil {
		err = e.drawWrapped(p, pageNum, box, header+"\n\n"+body, 7, 35, 8)
	}
	if err == nil {
		from := render.Point{X: textRect.URx, Y: textRect.LLy + textRect.Height()/2}
		to := render.Point{X: box.LLx, Y: box.LLy + box.Height()/2}
		err = p.doc.DrawLine(pageNum, from, to, connectorGray, 0.5, true)
	}
	if err != nil {
		e.log.Warn("Margin comment failed on page %d, falling back to sticky note: %v", pageNum, err)
		note := fmt.Sprintf("[%d] %s", p.commentCounter, issue.Suggestion)
		if nerr := p.doc.StickyNote(pageNum, render.Point{X: textRect.URx, Y: textRect.URy}, note, "Note"); nerr != nil {
			p.stats.Skipped++
			return
		}
		p.stats.StickyNotes++
		return
	}
	p.stats.MarginNotes++
}

// drawWrapped writes up to maxLines lines of text inside a box, each line
// truncated to maxChars characters, stepping down from the top edge.
func (e *Engine) drawWrapped(p *pass, pageNum int, box render.Rect, text string, fontSize float64, maxChars, maxLines int) error {
	lines := strings.Split(text, "\n")
	if len(lines) > maxLines {
		lines = lines[:maxLines]
	}

	y := box.URy - 10
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			if err := p.doc.DrawText(pageNum, render.Point{X: box.LLx + 3, Y: y}, prefix(trimmed, maxChars), fontSize, black); err != nil {
				return err
			}
		}
		y -= 9
	}
	return nil
}

func severityColor(s models.Severity) render.Color {
	if c, ok := severityColors[s]; ok {
		return c
	}
	return severityColors[models.SeverityMajor]
}

func prefix(s string, n int) string {
	runes := []rune(s)
	if len(runes) > n {
		return string(runes[:n])
	}
	return s
}
