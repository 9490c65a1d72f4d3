package models

import "time"

// Rect is an axis-aligned rectangle in PDF user space (origin bottom-left,
// units in points).
type Rect struct {
	LLx float64 `json:"llx"`
	LLy float64 `json:"lly"`
	URx float64 `json:"urx"`
	URy float64 `json:"ury"`
}

// Width returns the horizontal extent of the rectangle.
func (r Rect) Width() float64 { return r.URx - r.LLx }

// Height returns the vertical extent of the rectangle.
func (r Rect) Height() float64 { return r.URy - r.LLy }

// TextBlock is one positioned run of text on a page, in drawing order.
type TextBlock struct {
	BBox Rect   `json:"bbox"`
	Text string `json:"text"`
}

// PageText holds the extracted text of a single source page. Produced once
// during extraction and never mutated afterward.
type PageText struct {
	PageNumber int         `json:"page_number"` // 1-indexed
	RawText    string      `json:"raw_text"`
	Blocks     []TextBlock `json:"blocks,omitempty"`
}

// ExtractStats aggregates counts over a full extraction run.
type ExtractStats struct {
	TotalPages int `json:"total_pages"`
	TotalChars int `json:"total_chars"`
}

// Chunk is a retrieval unit. IDs increase monotonically across the whole
// document. Char offsets are advisory: the overlap arithmetic makes them
// approximate and nothing downstream indexes with them.
type Chunk struct {
	ID          int    `json:"chunk_id"`
	Text        string `json:"text"`
	SourcePage  int    `json:"page_number"`
	StartOffset int    `json:"start_offset"`
	EndOffset   int    `json:"end_offset"`
}

// RetrievalResult is one ranked hit from a similarity query. Ephemeral,
// never persisted.
type RetrievalResult struct {
	ChunkID    int     `json:"chunk_id"`
	Text       string  `json:"text"`
	SourcePage int     `json:"page_number"`
	Distance   float64 `json:"distance"`
}

// Severity classifies how serious a finding is, ordered by visual weight.
type Severity string

const (
	SeverityCritical   Severity = "critical"
	SeverityMajor      Severity = "major"
	SeverityMinor      Severity = "minor"
	SeveritySuggestion Severity = "suggestion"
	SeverityStrength   Severity = "strength"
)

// Weight returns the ordering rank of a severity: critical > major > minor >
// suggestion > strength.
func (s Severity) Weight() int {
	switch s {
	case SeverityCritical:
		return 5
	case SeverityMajor:
		return 4
	case SeverityMinor:
		return 3
	case SeveritySuggestion:
		return 2
	case SeverityStrength:
		return 1
	default:
		return 0
	}
}

// Category classifies what kind of finding an issue is.
type Category string

const (
	CategoryGrammar     Category = "grammar"
	CategoryLogic       Category = "logic"
	CategoryMethodology Category = "methodology"
	CategoryClarity     Category = "clarity"
	CategoryStrength    Category = "strength"
	CategoryGeneral     Category = "general"
)

// Issue is a single parsed critique finding anchored to a quoted snippet.
type Issue struct {
	Category   Category `json:"category"`
	Severity   Severity `json:"severity"`
	Snippet    string   `json:"snippet"`    // verbatim from model output, <=150 chars, never empty
	Suggestion string   `json:"suggestion"` // <=200 chars
	PageHint   *int     `json:"page_hint,omitempty"` // 1-indexed
}

// RewriteSuggestion is an inline "original" -> "suggested" replacement.
type RewriteSuggestion struct {
	Original    string `json:"original"`  // <=100 chars
	Suggested   string `json:"suggested"` // <=100 chars
	Explanation string `json:"explanation"`
	Page        *int   `json:"page_number,omitempty"` // 1-indexed
}

// SectionNames is the fixed vocabulary of document sections recognized by
// the critique parser and the annotation engine.
var SectionNames = []string{
	"abstract", "introduction", "literature review",
	"methodology", "results", "discussion", "conclusion",
}

// SectionSummary is a per-section verdict extracted from the critique.
type SectionSummary struct {
	Section     string   `json:"section"`
	Page        *int     `json:"page_number,omitempty"`
	Strengths   []string `json:"strengths,omitempty"`   // <=3
	Issues      []string `json:"issues,omitempty"`      // <=3
	Suggestions []string `json:"suggestions,omitempty"` // <=3
	Score       int      `json:"score"`                 // clamped to [1,10]
}

// Findings bundles the three structured record types parsed from one
// critique.
type Findings struct {
	Issues           []Issue             `json:"issues,omitempty"`
	Rewrites         []RewriteSuggestion `json:"rewrites,omitempty"`
	SectionSummaries []SectionSummary    `json:"section_summaries,omitempty"`
}

// Stats returns display counts for the findings.
func (f Findings) Stats() ReviewStats {
	critical := 0
	for _, issue := range f.Issues {
		if issue.Severity == SeverityCritical {
			critical++
		}
	}
	return ReviewStats{
		Issues:           len(f.Issues),
		Rewrites:         len(f.Rewrites),
		SectionSummaries: len(f.SectionSummaries),
		CriticalIssues:   critical,
	}
}

// ReviewStats are the structured counts surfaced to the caller.
type ReviewStats struct {
	Issues           int `json:"issues"`
	Rewrites         int `json:"rewrites"`
	SectionSummaries int `json:"section_summaries"`
	CriticalIssues   int `json:"critical_issues"`
}

// AnnotationStats counts what the annotation engine managed to place.
// Skipped placements are not errors: critiques frequently paraphrase rather
// than quote, so anchors legitimately go missing.
type AnnotationStats struct {
	Highlights   int `json:"highlights"`
	MarginNotes  int `json:"margin_notes"`
	StickyNotes  int `json:"sticky_notes"`
	Rewrites     int `json:"rewrites"`
	SummaryBoxes int `json:"summary_boxes"`
	Skipped      int `json:"skipped"`
}

// ReviewMode selects the retrieval seed query and the prompt template.
type ReviewMode string

const (
	ModeFullReview       ReviewMode = "full_review"
	ModeMethodology      ReviewMode = "methodology"
	ModeWritingQuality   ReviewMode = "writing_quality"
	ModeCitationCheck    ReviewMode = "citation_check"
	ModeConsistencyCheck ReviewMode = "consistency_check"
	ModeAlignmentCheck   ReviewMode = "alignment_check"
	ModeCustom           ReviewMode = "custom"
)

// ReviewModes lists every supported mode.
var ReviewModes = []ReviewMode{
	ModeFullReview, ModeMethodology, ModeWritingQuality, ModeCitationCheck,
	ModeConsistencyCheck, ModeAlignmentCheck, ModeCustom,
}

// Valid reports whether m is a known review mode.
func (m ReviewMode) Valid() bool {
	for _, known := range ReviewModes {
		if m == known {
			return true
		}
	}
	return false
}

// SourceInfo identifies where the document came from.
type SourceInfo struct {
	ZoteroID string `json:"zotero_id,omitempty"`
	URL      string `json:"url,omitempty"`
}

// ReviewRecord is a persisted review: the critique plus its findings and
// counts, keyed by document ID.
type ReviewRecord struct {
	ReviewID   string      `json:"review_id"`
	DocumentID string      `json:"document_id"`
	Mode       ReviewMode  `json:"mode"`
	Query      string      `json:"query,omitempty"`
	Critique   string      `json:"critique"`
	Findings   Findings    `json:"findings"`
	Stats      ReviewStats `json:"stats"`
	CreatedAt  time.Time   `json:"created_at"`
}

// ReviewInfo is a listing row for stored reviews.
type ReviewInfo struct {
	ReviewID   string      `json:"review_id"`
	DocumentID string      `json:"document_id"`
	Mode       ReviewMode  `json:"mode"`
	Stats      ReviewStats `json:"stats"`
	CreatedAt  time.Time   `json:"created_at"`
}
