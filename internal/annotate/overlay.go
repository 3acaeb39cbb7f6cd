package annotate

import (
	"bytes"
	"fmt"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/color"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Quad is one highlight quadrilateral in PDF user space, corners in the
// P1..P4 order highlight annotations expect.
type Quad struct {
	X1, Y1 float64
	X2, Y2 float64
	X3, Y3 float64
	X4, Y4 float64
}

// QuadFromBBox builds an axis-aligned quad from a [x0 y0 x1 y1] bounding
// box. Issues without a four-value box cannot be highlighted.
func QuadFromBBox(bbox []float64) (Quad, bool) {
	if len(bbox) != 4 {
		return Quad{}, false
	}
	x0, y0, x1, y1 := bbox[0], bbox[1], bbox[2], bbox[3]
	return Quad{
		X1: x0, Y1: y1,
		X2: x1, Y2: y1,
		X3: x0, Y3: y0,
		X4: x1, Y4: y0,
	}, true
}

// Color is an RGB highlight tint, components in [0,1].
type Color struct {
	R, G, B float32
}

var (
	// ColorIssue is the default tint for issue highlights.
	ColorIssue = Color{R: 1, G: 0.92, B: 0.23}
	// ColorSelection marks the currently selected issue.
	ColorSelection = Color{R: 0.96, G: 0.26, B: 0.21}
)

// DefaultOpacity is applied when the caller passes an opacity outside (0,1].
const DefaultOpacity = 0.5

// Highlight is one live annotation managed by the overlay.
type Highlight struct {
	ID      string
	Page    int
	Quad    Quad
	Color   Color
	Opacity float64
}

// Overlay owns the annotated rendering of a document. The pristine bytes
// are kept as loaded; every mutation re-serializes the full document from
// them, so Bytes always reflects exactly the current highlight set.
type Overlay struct {
	base       []byte
	buf        []byte
	highlights []Highlight
}

// NewOverlay wraps a loaded PDF and produces the initial rendering. The
// initial pass stamps a zero-area placeholder so the annotation layer
// exists even before the first issue arrives; viewers refresh off it.
func NewOverlay(doc []byte) (*Overlay, error) {
	o := &Overlay{base: doc}
	if err := o.render(); err != nil {
		return nil, fmt.Errorf("annotating document: %w", err)
	}
	return o, nil
}

// Add places a highlight on a 1-based page and returns its handle. The
// document is re-rendered before Add returns.
func (o *Overlay) Add(page int, quad Quad, col Color, opacity float64) (string, error) {
	if page < 1 {
		return "", fmt.Errorf("invalid page number %d", page)
	}
	if opacity <= 0 || opacity > 1 {
		opacity = DefaultOpacity
	}
	h := Highlight{
		ID:      uuid.NewString(),
		Page:    page,
		Quad:    quad,
		Color:   col,
		Opacity: opacity,
	}
	o.highlights = append(o.highlights, h)
	if err := o.render(); err != nil {
		o.highlights = o.highlights[:len(o.highlights)-1]
		return "", err
	}
	return h.ID, nil
}

// Delete removes the highlight with the given handle and re-renders.
func (o *Overlay) Delete(id string) error {
	for i := range o.highlights {
		if o.highlights[i].ID == id {
			o.highlights = append(o.highlights[:i], o.highlights[i+1:]...)
			return o.render()
		}
	}
	return fmt.Errorf("unknown highlight %q", id)
}

// Highlights returns the live highlights in insertion order.
func (o *Overlay) Highlights() []Highlight {
	out := make([]Highlight, len(o.highlights))
	copy(out, o.highlights)
	return out
}

// Bytes returns the current annotated document.
func (o *Overlay) Bytes() []byte {
	return o.buf
}

func (o *Overlay) render() error {
	anns := map[int][]model.AnnotationRenderer{
		1: {placeholderAnnotation()},
	}
	for _, h := range o.highlights {
		anns[h.Page] = append(anns[h.Page], highlightAnnotation(h))
	}

	var out bytes.Buffer
	if err := api.AddAnnotationsMap(bytes.NewReader(o.base), &out, anns, nil); err != nil {
		return err
	}
	o.buf = out.Bytes()
	return nil
}

// highlightAnnotation is the single place the pdfcpu annotation model is
// touched; everything above it deals in Highlight values only.
func highlightAnnotation(h Highlight) model.AnnotationRenderer {
	xs := []float64{h.Quad.X1, h.Quad.X2, h.Quad.X3, h.Quad.X4}
	ys := []float64{h.Quad.Y1, h.Quad.Y2, h.Quad.Y3, h.Quad.Y4}
	rect := types.NewRectangle(minOf(xs), minOf(ys), maxOf(xs), maxOf(ys))

	ql := types.QuadLiteral{
		P1: types.Point{X: h.Quad.X1, Y: h.Quad.Y1},
		P2: types.Point{X: h.Quad.X2, Y: h.Quad.Y2},
		P3: types.Point{X: h.Quad.X3, Y: h.Quad.Y3},
		P4: types.Point{X: h.Quad.X4, Y: h.Quad.Y4},
	}
	col := color.SimpleColor{R: h.Color.R, G: h.Color.G, B: h.Color.B}
	opacity := h.Opacity

	ann := model.NewHighlightAnnotation(
		*rect,
		"",       // contents
		h.ID,     // id
		"",       // modDate
		0,        // flags
		&col,
		0, 0, 0,  // border radii and width
		"",       // title
		nil,      // popup
		&opacity, // ca
		"",       // rc
		"",       // subject
		types.QuadPoints{ql},
	)
	return ann
}

func placeholderAnnotation() model.AnnotationRenderer {
	return highlightAnnotation(Highlight{
		ID:      "placeholder",
		Page:    1,
		Opacity: DefaultOpacity,
	})
}

func minOf(vals []float64) float64 {
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func maxOf(vals []float64) float64 {
	m := vals[0]
	for _, v := range vals[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
