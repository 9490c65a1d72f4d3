package render

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/margin-review/margin/internal/extract"
	"github.com/margin-review/margin/models"
)

// letter-size fallback when a page carries no usable MediaBox
const (
	defaultPageWidth  = 612.0
	defaultPageHeight = 792.0
)

// PDFDocument implements Document over a parsed PDF. Overlay calls
// accumulate operations; Bytes applies them all onto the original bytes.
type PDFDocument struct {
	original []byte
	pages    []models.PageText
	sizes    []pageSize
	ops      []overlayOp
}

type pageSize struct {
	width, height float64
}

// Open parses the PDF's positioned text and page geometry. The data is
// expected to have passed validation already; Open still fails cleanly on
// documents the layout pass cannot read.
func Open(data []byte) (*PDFDocument, error) {
	pages, _, err := extract.Extract(data)
	if err != nil {
		return nil, fmt.Errorf("layout pass: %w", err)
	}

	sizes, err := readPageSizes(data, len(pages))
	if err != nil {
		return nil, fmt.Errorf("page geometry: %w", err)
	}

	return &PDFDocument{
		original: append([]byte(nil), data...),
		pages:    pages,
		sizes:    sizes,
	}, nil
}

func readPageSizes(data []byte, pageCount int) ([]pageSize, error) {
	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	sizes := make([]pageSize, pageCount)
	for i := 1; i <= pageCount; i++ {
		sizes[i-1] = pageSize{width: defaultPageWidth, height: defaultPageHeight}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		box := page.V.Key("MediaBox")
		if box.IsNull() || box.Len() < 4 {
			continue
		}
		w := box.Index(2).Float64() - box.Index(0).Float64()
		h := box.Index(3).Float64() - box.Index(1).Float64()
		if w > 0 && h > 0 {
			sizes[i-1] = pageSize{width: w, height: h}
		}
	}
	return sizes, nil
}

func (d *PDFDocument) PageCount() int { return len(d.pages) }

func (d *PDFDocument) PageSize(page int) (float64, float64) {
	if page < 1 || page > len(d.sizes) {
		return defaultPageWidth, defaultPageHeight
	}
	s := d.sizes[page-1]
	return s.width, s.height
}

// normalizeText lowercases and collapses all whitespace runs to single
// spaces so layout line breaks do not defeat the search.
func normalizeText(s string) string {
	var b strings.Builder
	space := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}

func (d *PDFDocument) FindText(page int, needle string) (Rect, bool) {
	if page < 1 || page > len(d.pages) {
		return Rect{}, false
	}
	target := normalizeText(needle)
	if target == "" {
		return Rect{}, false
	}
	for _, block := range d.pages[page-1].Blocks {
		if strings.Contains(normalizeText(block.Text), target) {
			return Rect{
				LLx: block.BBox.LLx,
				LLy: block.BBox.LLy,
				URx: block.BBox.URx,
				URy: block.BBox.URy,
			}, true
		}
	}
	return Rect{}, false
}

type opKind int

const (
	opHighlight opKind = iota
	opUnderline
	opStickyNote
	opBox
	opLine
	opText
)

type overlayOp struct {
	kind        opKind
	page        int
	rect        Rect
	from, to    Point
	color       Color
	fill        *Color
	opacity     float64
	width       float64
	dashed      bool
	text        string
	icon        string
	fontSize    float64
}

func (d *PDFDocument) checkPage(page int) error {
	if page < 1 || page > len(d.pages) {
		return fmt.Errorf("page %d out of range 1..%d", page, len(d.pages))
	}
	return nil
}

func (d *PDFDocument) Highlight(page int, r Rect, c Color, opacity float64) error {
	if err := d.checkPage(page); err != nil {
		return err
	}
	d.ops = append(d.ops, overlayOp{kind: opHighlight, page: page, rect: r, color: c, opacity: opacity})
	return nil
}

func (d *PDFDocument) Underline(page int, r Rect, c Color, note string) error {
	if err := d.checkPage(page); err != nil {
		return err
	}
	d.ops = append(d.ops, overlayOp{kind: opUnderline, page: page, rect: r, color: c, text: note})
	return nil
}

func (d *PDFDocument) StickyNote(page int, at Point, text, icon string) error {
	if err := d.checkPage(page); err != nil {
		return err
	}
	d.ops = append(d.ops, overlayOp{kind: opStickyNote, page: page, from: at, text: text, icon: icon})
	return nil
}

func (d *PDFDocument) DrawBox(page int, r Rect, border Color, fill *Color, borderWidth, fillOpacity float64) error {
	if err := d.checkPage(page); err != nil {
		return err
	}
	d.ops = append(d.ops, overlayOp{
		kind: opBox, page: page, rect: r, color: border, fill: fill,
		width: borderWidth, opacity: fillOpacity,
	})
	return nil
}

func (d *PDFDocument) DrawLine(page int, from, to Point, c Color, width float64, dashed bool) error {
	if err := d.checkPage(page); err != nil {
		return err
	}
	d.ops = append(d.ops, overlayOp{kind: opLine, page: page, from: from, to: to, color: c, width: width, dashed: dashed})
	return nil
}

func (d *PDFDocument) DrawText(page int, at Point, text string, fontSize float64, c Color) error {
	if err := d.checkPage(page); err != nil {
		return err
	}
	d.ops = append(d.ops, overlayOp{kind: opText, page: page, from: at, text: text, fontSize: fontSize, color: c})
	return nil
}

// Bytes serializes the original document with every accumulated overlay
// operation applied in order.
func (d *PDFDocument) Bytes() ([]byte, error) {
	data := d.original
	for i, op := range d.ops {
		out, err := applyOp(data, op)
		if err != nil {
			return nil, fmt.Errorf("apply overlay op %d: %w", i, err)
		}
		data = out
	}
	return data, nil
}

func pageSelector(page int) []string {
	return []string{strconv.Itoa(page)}
}
