package detect

import (
	"image"

	"golang.org/x/image/draw"
)

// mask is a binary image; true marks foreground (ink)
type mask struct {
	w, h int
	pix  []bool
}

func newMask(w, h int) *mask {
	return &mask{w: w, h: h, pix: make([]bool, w*h)}
}

func (m *mask) at(x, y int) bool {
	return m.pix[y*m.w+x]
}

func (m *mask) set(x, y int, v bool) {
	m.pix[y*m.w+x] = v
}

func (m *mask) clone() *mask {
	c := newMask(m.w, m.h)
	copy(c.pix, m.pix)
	return c
}

// or returns the union of m and o, which must have the same size
func (m *mask) or(o *mask) *mask {
	out := newMask(m.w, m.h)
	for i := range m.pix {
		out.pix[i] = m.pix[i] || o.pix[i]
	}
	return out
}

// count returns the number of foreground pixels inside r
func (m *mask) count(r image.Rectangle) int {
	r = r.Intersect(image.Rect(0, 0, m.w, m.h))
	n := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if m.at(x, y) {
				n++
			}
		}
	}
	return n
}

// grayscale converts img to 8-bit luma with its origin moved to (0, 0)
func grayscale(img image.Image) *image.Gray {
	b := img.Bounds()
	g := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(g, g.Bounds(), img, b.Min, draw.Src)
	return g
}

// otsuThreshold returns the level that maximizes the between-class variance
// of the histogram, which is the same as minimizing intra-class variance
func otsuThreshold(g *image.Gray) uint8 {
	var hist [256]int
	b := g.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := g.Pix[(y-b.Min.Y)*g.Stride:]
		for x := 0; x < b.Dx(); x++ {
			hist[row[x]]++
		}
	}

	total := float64(b.Dx() * b.Dy())
	var sum float64
	for i, c := range hist {
		sum += float64(i * c)
	}

	var sumB, wB float64
	best := -1.0
	var level uint8
	for i := 0; i < 256; i++ {
		wB += float64(hist[i])
		if wB == 0 {
			continue
		}
		wF := total - wB
		if wF == 0 {
			break
		}
		sumB += float64(i * hist[i])
		mB := sumB / wB
		mF := (sum - sumB) / wF
		between := wB * wF * (mB - mF) * (mB - mF)
		if between > best {
			best = between
			level = uint8(i)
		}
	}
	return level
}

// binarizeInverted marks every pixel at or below level as foreground, so
// dark strokes on a light page become the structure
func binarizeInverted(g *image.Gray, level uint8) *mask {
	b := g.Bounds()
	m := newMask(b.Dx(), b.Dy())
	for y := 0; y < m.h; y++ {
		row := g.Pix[y*g.Stride:]
		for x := 0; x < m.w; x++ {
			m.pix[y*m.w+x] = row[x] <= level
		}
	}
	return m
}

type axis int

const (
	horizontal axis = iota
	vertical
)

// morph applies one erosion (or dilation) with a 1-pixel-thin line of length
// k along the given axis. The line is anchored at its center. Pixels outside
// the image never change the result.
func (m *mask) morph(k int, dir axis, erode bool) *mask {
	if k <= 1 {
		return m.clone()
	}
	out := newMask(m.w, m.h)
	anchor := k / 2

	n, lines := m.w, m.h
	if dir == vertical {
		n, lines = m.h, m.w
	}
	idx := func(line, i int) int {
		if dir == horizontal {
			return line*m.w + i
		}
		return i*m.w + line
	}

	prefix := make([]int, n+1)
	for line := 0; line < lines; line++ {
		for i := 0; i < n; i++ {
			prefix[i+1] = prefix[i]
			if m.pix[idx(line, i)] {
				prefix[i+1]++
			}
		}
		for i := 0; i < n; i++ {
			lo := i - anchor
			hi := lo + k - 1
			if lo < 0 {
				lo = 0
			}
			if hi > n-1 {
				hi = n - 1
			}
			cnt := prefix[hi+1] - prefix[lo]
			if erode {
				out.pix[idx(line, i)] = cnt == hi-lo+1
			} else {
				out.pix[idx(line, i)] = cnt > 0
			}
		}
	}
	return out
}

// open erodes then dilates iterations times each
func (m *mask) open(k int, dir axis, iterations int) *mask {
	out := m
	for i := 0; i < iterations; i++ {
		out = out.morph(k, dir, true)
	}
	for i := 0; i < iterations; i++ {
		out = out.morph(k, dir, false)
	}
	if out == m {
		return m.clone()
	}
	return out
}
