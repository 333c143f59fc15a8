// Package detect proposes form field geometry from a rendered page image:
// blank rule lines become text field candidates and small square outlines
// become checkbox candidates. All coordinates are in pixels with the origin
// at the top-left of the image.
package detect

import (
	"bytes"
	"image"
	_ "image/gif"  // register GIF decoding
	_ "image/jpeg" // register JPEG decoding
	_ "image/png"  // register PNG decoding
	"log"

	_ "golang.org/x/image/bmp"  // register BMP decoding
	_ "golang.org/x/image/tiff" // register TIFF decoding
	_ "golang.org/x/image/webp" // register WebP decoding

	"github.com/a3tai/mcp-pdf-fields/internal/geometry"
	pdferrors "github.com/a3tai/mcp-pdf-fields/internal/pdf/errors"
)

// Config holds the tuning constants of the detector. The defaults are tuned
// for pages rendered at 200 DPI.
type Config struct {
	// KernelDivisor sets the rule-line structuring element length to
	// image width / KernelDivisor
	KernelDivisor int
	// Iterations is the number of erosions, then dilations, per opening
	Iterations int
	// Tolerance grows each horizontal box before testing it against the
	// vertical boxes
	Tolerance int
	CheckBox  CheckBoxConfig
}

// CheckBoxConfig constrains the box-shape detector
type CheckBoxConfig struct {
	MinWidth  int
	MaxWidth  int
	MinHeight int
	MaxHeight int
	MinAspect float64
	MaxAspect float64
	// MinGroup and MaxGroup bound the number of boxes reported as one
	// horizontal group
	MinGroup int
	MaxGroup int
	// GapMultiplier is the largest gap between grouped neighbours, as a
	// multiple of the box width
	GapMultiplier float64
	// Dilation thickens the outlines before they are traced
	Dilation int
	// FillThreshold is the interior ink fraction above which a box counts
	// as filled
	FillThreshold float64
}

// DefaultConfig returns the detector defaults
func DefaultConfig() Config {
	return Config{
		KernelDivisor: 40,
		Iterations:    3,
		Tolerance:     2,
		CheckBox: CheckBoxConfig{
			MinWidth:      32,
			MaxWidth:      65,
			MinHeight:     25,
			MaxHeight:     40,
			MinAspect:     0.6,
			MaxAspect:     2.2,
			MinGroup:      2,
			MaxGroup:      100,
			GapMultiplier: 2,
			Dilation:      0,
			FillThreshold: 0.1,
		},
	}
}

// CheckBox is a detected checkbox outline
type CheckBox struct {
	geometry.PixelBox
	// Filled reports whether the interior carries enough ink to look ticked
	Filled bool `json:"filled"`
}

// Detection is the result for one page image
type Detection struct {
	Width      int                 `json:"width"`
	Height     int                 `json:"height"`
	TextFields []geometry.PixelBox `json:"text_fields"`
	CheckBoxes []CheckBox          `json:"checkboxes"`
	// Groups are the bounding boxes of rows of adjacent checkboxes
	Groups []geometry.PixelBox `json:"groups,omitempty"`
	// Lines are the boxes of every rule line found, before filtering
	Lines []geometry.PixelBox `json:"lines,omitempty"`
}

// Detector finds candidate field boxes in page images. A Detector holds no
// mutable state and is safe for concurrent use.
type Detector struct {
	cfg   Config
	debug bool
}

// NewDetector creates a detector. A zero Config means DefaultConfig; otherwise
// a zero kernel divisor, iteration count or checkbox section takes its default.
func NewDetector(cfg Config, debug bool) *Detector {
	def := DefaultConfig()
	if cfg == (Config{}) {
		cfg = def
	}
	if cfg.KernelDivisor <= 0 {
		cfg.KernelDivisor = def.KernelDivisor
	}
	if cfg.Iterations <= 0 {
		cfg.Iterations = def.Iterations
	}
	if cfg.Tolerance < 0 {
		cfg.Tolerance = def.Tolerance
	}
	if cfg.CheckBox == (CheckBoxConfig{}) {
		cfg.CheckBox = def.CheckBox
	}
	return &Detector{cfg: cfg, debug: debug}
}

// Config returns the detector's configuration
func (d *Detector) Config() Config {
	return d.cfg
}

// DetectFieldsFromBytes decodes an encoded page image (PNG, JPEG, GIF, TIFF,
// BMP or WebP) and runs DetectFields on it
func (d *Detector) DetectFieldsFromBytes(data []byte) (*Detection, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		pe := pdferrors.WrapError(pdferrors.ErrorTypeImageDecode, err)
		pe.Message = "failed to decode page image"
		return nil, pe
	}
	if d.debug {
		log.Printf("Decoded %s page image %dx%d", format, img.Bounds().Dx(), img.Bounds().Dy())
	}
	return d.DetectFields(img)
}

// DetectFields finds text field and checkbox candidates in img. An image
// without any structure yields an empty detection, not an error.
func (d *Detector) DetectFields(img image.Image) (*Detection, error) {
	if img == nil {
		return nil, pdferrors.NewPDFError(pdferrors.ErrorTypeImageDecode, "no page image")
	}
	b := img.Bounds()
	det := &Detection{Width: b.Dx(), Height: b.Dy()}
	if b.Empty() {
		return det, nil
	}

	gray := grayscale(img)
	bin := binarizeInverted(gray, otsuThreshold(gray))

	det.TextFields, det.Lines = d.textFields(bin)
	det.CheckBoxes, det.Groups = d.checkBoxes(bin)

	if d.debug {
		log.Printf("Detected %d text fields, %d checkboxes (%d lines, %d groups) in %dx%d image",
			len(det.TextFields), len(det.CheckBoxes), len(det.Lines), len(det.Groups), det.Width, det.Height)
	}
	return det, nil
}

// textFields isolates long horizontal and vertical strokes and keeps the
// horizontal ones that do not touch any vertical one; rules that are part of
// a table or box border are dropped
func (d *Detector) textFields(bin *mask) (fields, lines []geometry.PixelBox) {
	k := bin.w / d.cfg.KernelDivisor
	if k < 1 {
		k = 1
	}

	hMask := bin.open(k, horizontal, d.cfg.Iterations)
	vMask := bin.open(k, vertical, d.cfg.Iterations)

	// the equal-weight blend of two binary masks is non-zero wherever either is
	lines = boundingBoxes(hMask.or(vMask))
	geometry.SortTopToBottom(lines)

	hBoxes := boundingBoxes(hMask)
	vBoxes := boundingBoxes(vMask)
	geometry.SortTopToBottom(hBoxes)

	fields = filterIntersecting(hBoxes, vBoxes, d.cfg.Tolerance)
	return fields, lines
}

// filterIntersecting returns the horizontal boxes that, grown by tolerance,
// intersect none of the vertical boxes
func filterIntersecting(hBoxes, vBoxes []geometry.PixelBox, tolerance int) []geometry.PixelBox {
	out := make([]geometry.PixelBox, 0, len(hBoxes))
	for _, h := range hBoxes {
		hit := false
		for _, v := range vBoxes {
			if h.IntersectsWithin(v, tolerance) {
				hit = true
				break
			}
		}
		if !hit {
			out = append(out, h)
		}
	}
	return out
}

// DetectRadios always returns no boxes; radio buttons are not detected from
// page images
func (d *Detector) DetectRadios(img image.Image) ([]geometry.PixelBox, error) {
	return []geometry.PixelBox{}, nil
}
