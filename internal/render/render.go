// Package render provides the drawing surface for the annotation engine.
// The Document interface exposes page geometry, positioned text search,
// and overlay primitives; the pdfcpu-backed implementation serializes the
// accumulated overlay into the output PDF.
package render

// Point is a position in PDF user space, origin at the lower left.
type Point struct {
	X, Y float64
}

// Rect is an axis-aligned rectangle in PDF user space.
type Rect struct {
	LLx, LLy, URx, URy float64
}

func (r Rect) Width() float64  { return r.URx - r.LLx }
func (r Rect) Height() float64 { return r.URy - r.LLy }

// Color is an RGB color with components in [0, 1].
type Color struct {
	R, G, B float64
}

// Document is a mutable annotated view over a PDF. Implementations are not
// safe for concurrent use; each annotation run owns its document.
type Document interface {
	// PageCount returns the number of pages.
	PageCount() int

	// PageSize returns the width and height of a 1-indexed page.
	PageSize(page int) (width, height float64)

	// FindText searches a 1-indexed page for needle, ignoring case and
	// whitespace differences, and returns the bounding rect of the first
	// text row containing it.
	FindText(page int, needle string) (Rect, bool)

	// Highlight adds a translucent text highlight.
	Highlight(page int, r Rect, c Color, opacity float64) error

	// Underline adds an underline annotation carrying a note.
	Underline(page int, r Rect, c Color, note string) error

	// StickyNote adds a popup text annotation at the given position.
	StickyNote(page int, at Point, text, icon string) error

	// DrawBox draws a bordered box, optionally filled at the given opacity.
	DrawBox(page int, r Rect, border Color, fill *Color, borderWidth, fillOpacity float64) error

	// DrawLine draws a straight line, dashed when requested.
	DrawLine(page int, from, to Point, c Color, width float64, dashed bool) error

	// DrawText places a line of text with its baseline at the given point.
	DrawText(page int, at Point, text string, fontSize float64, c Color) error

	// Bytes serializes the document with all accumulated overlay marks.
	Bytes() ([]byte, error)
}
