package render

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/color"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// annotationAuthor appears as the title of every annotation popup.
const annotationAuthor = "Margin Review"

func simpleColor(c Color) color.SimpleColor {
	return color.SimpleColor{R: float32(c.R), G: float32(c.G), B: float32(c.B)}
}

func hexColor(c Color) string {
	clamp := func(v float64) int {
		if v < 0 {
			return 0
		}
		if v > 1 {
			return 255
		}
		return int(v * 255)
	}
	return fmt.Sprintf("#%02x%02x%02x", clamp(c.R), clamp(c.G), clamp(c.B))
}

// applyOp renders one overlay operation onto the document bytes. All
// pdfcpu calls live here so the rest of the package stays geometry only.
func applyOp(data []byte, op overlayOp) ([]byte, error) {
	if op.kind == opText {
		return applyTextOp(data, op)
	}

	ann, err := annotationFor(op)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	conf := model.NewDefaultConfiguration()
	if err := api.AddAnnotations(bytes.NewReader(data), &buf, pageSelector(op.page), ann, conf); err != nil {
		return nil, fmt.Errorf("add annotation: %w", err)
	}
	return buf.Bytes(), nil
}

func annotationFor(op overlayOp) (model.AnnotationRenderer, error) {
	rect := types.NewRectangle(op.rect.LLx, op.rect.LLy, op.rect.URx, op.rect.URy)
	col := simpleColor(op.color)

	switch op.kind {
	case opHighlight:
		ca := op.opacity
		quad := types.QuadPoints{*types.NewQuadLiteralForRect(rect)}
		ann := model.NewHighlightAnnotation(*rect, 0, op.text, "", "", 0, &col,
			0, 0, 0, annotationAuthor, nil, &ca, "", "", quad)
		return ann, nil

	case opUnderline:
		quad := types.QuadPoints{*types.NewQuadLiteralForRect(rect)}
		ann := model.NewUnderlineAnnotation(*rect, 0, op.text, "", "", 0, &col,
			0, 0, 0, annotationAuthor, nil, nil, "", "", quad)
		return ann, nil

	case opStickyNote:
		noteRect := types.NewRectangle(op.from.X, op.from.Y-20, op.from.X+20, op.from.Y)
		ann := model.NewTextAnnotation(*noteRect, 0, op.text, "", "", 0, &col,
			annotationAuthor, nil, nil, "", "", 0, 0, 0, false, op.icon)
		return ann, nil

	case opBox:
		var fillCol *color.SimpleColor
		if op.fill != nil {
			f := simpleColor(*op.fill)
			fillCol = &f
		}
		ca := op.opacity
		ann := model.NewSquareAnnotation(*rect, 0, op.text, "", "", 0, &col,
			annotationAuthor, nil, &ca, "", "",
			fillCol, 0, 0, 0, 0, op.width, model.BSSolid, false, 0)
		return ann, nil

	case opLine:
		lineRect := types.NewRectangle(
			min(op.from.X, op.to.X), min(op.from.Y, op.to.Y),
			max(op.from.X, op.to.X), max(op.from.Y, op.to.Y),
		)
		style := model.BSSolid
		if op.dashed {
			style = model.BSDashed
		}
		p1 := types.Point{X: op.from.X, Y: op.from.Y}
		p2 := types.Point{X: op.to.X, Y: op.to.Y}
		ann := model.NewLineAnnotation(*lineRect, 0, op.text, "", "", 0, &col,
			annotationAuthor, nil, nil, "", "",
			p1, p2, nil, nil, 0, 0, 0, nil, nil,
			false, false, 0, 0, nil, op.width, style)
		return ann, nil
	}

	return nil, fmt.Errorf("unknown overlay op kind %d", op.kind)
}

// applyTextOp stamps a line of text at an absolute page position.
func applyTextOp(data []byte, op overlayOp) ([]byte, error) {
	desc := fmt.Sprintf(
		"fontname:Helvetica, points:%d, scalefactor:1 abs, position:bl, offset:%.1f %.1f, fillcolor:%s, rotation:0, opacity:1",
		int(op.fontSize), op.from.X, op.from.Y, hexColor(op.color),
	)
	wm, err := api.TextWatermark(op.text, desc, true, false, types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("text stamp: %w", err)
	}

	var buf bytes.Buffer
	conf := model.NewDefaultConfiguration()
	m := map[int]*model.Watermark{op.page: wm}
	if err := api.AddWatermarksMap(bytes.NewReader(data), &buf, m, conf); err != nil {
		return nil, fmt.Errorf("stamp text: %w", err)
	}
	return buf.Bytes(), nil
}
