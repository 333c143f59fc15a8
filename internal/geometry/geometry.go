// Package geometry converts boxes between raster pixel space (origin at the
// top-left, y growing down) and PDF point space (origin at the bottom-left,
// y growing up).
package geometry

import "sort"

// PointsPerInch is the PDF user-space unit density
const PointsPerInch = 72.0

// DefaultDPI is the raster density pages are rendered at for detection
const DefaultDPI = 200.0

// PixelBox is an axis-aligned box in pixel space; Y is measured down from the top
type PixelBox struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// PointBox is an axis-aligned box in point space; Y is measured up from the bottom
type PointBox struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Expand grows the box by d pixels on every side
func (b PixelBox) Expand(d int) PixelBox {
	return PixelBox{X: b.X - d, Y: b.Y - d, W: b.W + 2*d, H: b.H + 2*d}
}

// Intersects reports whether both the x-ranges and the y-ranges overlap
func (b PixelBox) Intersects(o PixelBox) bool {
	return b.X < o.X+o.W && o.X < b.X+b.W &&
		b.Y < o.Y+o.H && o.Y < b.Y+b.H
}

// IntersectsWithin reports whether b, expanded by tolerance, intersects o
func (b PixelBox) IntersectsWithin(o PixelBox, tolerance int) bool {
	return b.Expand(tolerance).Intersects(o)
}

// Area returns W*H
func (b PixelBox) Area() int {
	return b.W * b.H
}

// SortTopToBottom orders boxes by Y, then X
func SortTopToBottom(boxes []PixelBox) {
	sort.SliceStable(boxes, func(i, j int) bool {
		if boxes[i].Y != boxes[j].Y {
			return boxes[i].Y < boxes[j].Y
		}
		return boxes[i].X < boxes[j].X
	})
}

// ToPoints maps a pixel box on a page pageHeightPx pixels tall, rendered at
// dpi, into point space. The returned Y is the flipped top edge of the box.
func ToPoints(b PixelBox, pageHeightPx int, dpi float64) PointBox {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	// multiply before dividing so whole-point results stay exact
	scale := func(v int) float64 { return float64(v) * PointsPerInch / dpi }
	return PointBox{
		X: scale(b.X),
		Y: scale(pageHeightPx - b.Y),
		W: scale(b.W),
		H: scale(b.H),
	}
}

// Mapper converts detector output for one rendered page into field anchors
type Mapper struct {
	PageHeightPx int
	DPI          float64
}

// NewMapper creates a mapper for a page of the given pixel height
func NewMapper(pageHeightPx int, dpi float64) Mapper {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return Mapper{PageHeightPx: pageHeightPx, DPI: dpi}
}

// Box maps a pixel box to point space
func (m Mapper) Box(b PixelBox) PointBox {
	return ToPoints(b, m.PageHeightPx, m.DPI)
}

// TextAnchor returns the lower-left anchor and width for a text field sitting
// on a detected rule line
func (m Mapper) TextAnchor(b PixelBox) (x, y, width float64) {
	p := m.Box(b)
	return p.X, p.Y, p.W
}

// CheckBoxAnchor returns the lower-left anchor and glyph size for a checkbox.
// The detector reports the top-left corner, so y drops by the box height;
// x moves a quarter of the width right to center the smaller glyph. The glyph
// is the box height, capped so it ends inside the box on narrow boxes.
func (m Mapper) CheckBoxAnchor(b PixelBox) (x, y, size float64) {
	p := m.Box(b)
	return p.X + p.W/4, p.Y - p.H, min(p.H, p.W*3/4)
}
