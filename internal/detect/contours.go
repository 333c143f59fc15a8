package detect

import (
	"github.com/a3tai/mcp-pdf-fields/internal/geometry"
)

// boundingBoxes returns the boxes of every outer contour (8-connected
// foreground component) and every inner contour (4-connected background
// region enclosed by foreground) of m. An inner box is grown by one pixel so
// it spans the foreground pixels that trace the hole, the way a border
// follower reports it.
func boundingBoxes(m *mask) []geometry.PixelBox {
	boxes := components(m, true, 8)
	for _, hole := range components(m, false, 4) {
		if hole.X == 0 || hole.Y == 0 || hole.X+hole.W == m.w || hole.Y+hole.H == m.h {
			// touches the border, so it is outside every shape
			continue
		}
		boxes = append(boxes, hole.Expand(1))
	}
	return boxes
}

// components labels the connected regions whose pixels equal value and
// returns their bounding boxes in scan order
func components(m *mask, value bool, connectivity int) []geometry.PixelBox {
	seen := make([]bool, len(m.pix))
	var boxes []geometry.PixelBox
	var stack []int

	for start := range m.pix {
		if seen[start] || m.pix[start] != value {
			continue
		}
		seen[start] = true
		stack = append(stack[:0], start)
		minX, minY := start%m.w, start/m.w
		maxX, maxY := minX, minY

		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x, y := p%m.w, p/m.w
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}

			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					if dx == 0 && dy == 0 {
						continue
					}
					if connectivity == 4 && dx != 0 && dy != 0 {
						continue
					}
					nx, ny := x+dx, y+dy
					if nx < 0 || ny < 0 || nx >= m.w || ny >= m.h {
						continue
					}
					q := ny*m.w + nx
					if !seen[q] && m.pix[q] == value {
						seen[q] = true
						stack = append(stack, q)
					}
				}
			}
		}
		boxes = append(boxes, geometry.PixelBox{X: minX, Y: minY, W: maxX - minX + 1, H: maxY - minY + 1})
	}
	return boxes
}
