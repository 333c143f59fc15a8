package detect

import (
	"image"
	"sort"

	"github.com/a3tai/mcp-pdf-fields/internal/geometry"
)

// checkBoxes traces rectangles built from short horizontal and vertical
// strokes and keeps the ones shaped like checkboxes
func (d *Detector) checkBoxes(bin *mask) ([]CheckBox, []geometry.PixelBox) {
	c := d.cfg.CheckBox

	kh := int(0.9 * float64(c.MinWidth))
	kv := int(0.9 * float64(c.MinHeight))
	outlines := bin.open(kh, horizontal, 1).or(bin.open(kv, vertical, 1))
	for i := 0; i < c.Dilation; i++ {
		outlines = outlines.morph(3, horizontal, false).morph(3, vertical, false)
	}

	var candidates []geometry.PixelBox
	for _, b := range boundingBoxes(outlines) {
		if c.accepts(b) {
			candidates = append(candidates, b)
		}
	}
	candidates = dropNested(candidates)
	geometry.SortTopToBottom(candidates)

	boxes := make([]CheckBox, len(candidates))
	for i, b := range candidates {
		boxes[i] = CheckBox{PixelBox: b, Filled: fillRatio(bin, b) > c.FillThreshold}
	}
	return boxes, c.groups(candidates)
}

// accepts reports whether b fits the configured size and aspect ranges
func (c CheckBoxConfig) accepts(b geometry.PixelBox) bool {
	if b.W < c.MinWidth || b.W > c.MaxWidth || b.H < c.MinHeight || b.H > c.MaxHeight {
		return false
	}
	aspect := float64(b.W) / float64(b.H)
	return aspect >= c.MinAspect && aspect <= c.MaxAspect
}

// dropNested removes boxes that lie inside another box, such as the inner
// outline of a thick-bordered checkbox
func dropNested(boxes []geometry.PixelBox) []geometry.PixelBox {
	out := make([]geometry.PixelBox, 0, len(boxes))
	for i, b := range boxes {
		nested := false
		for j, o := range boxes {
			if i == j || !contains(o, b) {
				continue
			}
			// identical boxes: keep the first
			if o == b && j > i {
				continue
			}
			nested = true
			break
		}
		if !nested {
			out = append(out, b)
		}
	}
	return out
}

func contains(outer, inner geometry.PixelBox) bool {
	return inner.X >= outer.X && inner.Y >= outer.Y &&
		inner.X+inner.W <= outer.X+outer.W && inner.Y+inner.H <= outer.Y+outer.H
}

// fillRatio is the ink fraction of the box interior, ignoring the outline
func fillRatio(bin *mask, b geometry.PixelBox) float64 {
	inset := b.W
	if b.H < inset {
		inset = b.H
	}
	inset /= 6
	if inset < 2 {
		inset = 2
	}
	r := image.Rect(b.X+inset, b.Y+inset, b.X+b.W-inset, b.Y+b.H-inset)
	if r.Empty() {
		return 0
	}
	return float64(bin.count(r)) / float64(r.Dx()*r.Dy())
}

// groups joins boxes into rows of neighbours and returns the bounding box of
// every row whose size lies within the group range
func (c CheckBoxConfig) groups(boxes []geometry.PixelBox) []geometry.PixelBox {
	if len(boxes) == 0 {
		return nil
	}

	used := make([]bool, len(boxes))
	var out []geometry.PixelBox
	for i := range boxes {
		if used[i] {
			continue
		}
		used[i] = true
		row := []geometry.PixelBox{boxes[i]}
		for j := i + 1; j < len(boxes); j++ {
			if !used[j] && sameRow(boxes[i], boxes[j]) {
				used[j] = true
				row = append(row, boxes[j])
			}
		}
		sort.Slice(row, func(a, b int) bool { return row[a].X < row[b].X })

		start := 0
		for k := 1; k <= len(row); k++ {
			if k < len(row) {
				prev := row[k-1]
				gap := row[k].X - (prev.X + prev.W)
				if float64(gap) <= c.GapMultiplier*float64(prev.W) {
					continue
				}
			}
			if n := k - start; n >= c.MinGroup && n <= c.MaxGroup {
				out = append(out, union(row[start:k]))
			}
			start = k
		}
	}
	return out
}

func sameRow(a, b geometry.PixelBox) bool {
	ca := 2*a.Y + a.H
	cb := 2*b.Y + b.H
	diff := ca - cb
	if diff < 0 {
		diff = -diff
	}
	tallest := a.H
	if b.H > tallest {
		tallest = b.H
	}
	// centers closer than half the taller box
	return diff <= tallest
}

func union(boxes []geometry.PixelBox) geometry.PixelBox {
	minX, minY := boxes[0].X, boxes[0].Y
	maxX, maxY := boxes[0].X+boxes[0].W, boxes[0].Y+boxes[0].H
	for _, b := range boxes[1:] {
		if b.X < minX {
			minX = b.X
		}
		if b.Y < minY {
			minY = b.Y
		}
		if b.X+b.W > maxX {
			maxX = b.X + b.W
		}
		if b.Y+b.H > maxY {
			maxY = b.Y + b.H
		}
	}
	return geometry.PixelBox{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}
