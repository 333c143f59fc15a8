// Package pipeline adds detected form fields to an existing PDF: page images
// go through the detector, the boxes are mapped to points and named, and the
// synthesized fields are grafted onto a fresh copy of the input.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"runtime"

	"github.com/sourcegraph/conc/iter"
	"go.uber.org/multierr"

	"github.com/a3tai/mcp-pdf-fields/internal/detect"
	"github.com/a3tai/mcp-pdf-fields/internal/geometry"
	pdferrors "github.com/a3tai/mcp-pdf-fields/internal/pdf/errors"
	"github.com/a3tai/mcp-pdf-fields/internal/pdf/forms"
	"github.com/a3tai/mcp-pdf-fields/internal/pdf/graph"
)

// Options configures a Driver
type Options struct {
	// DPI is the density the page images were rendered at
	DPI float64
	// Workers bounds the pages analyzed at once; zero means one per CPU
	Workers int
	Debug   bool
}

// Driver runs the detect, map, synthesize and graft stages
type Driver struct {
	detector *detect.Detector
	raster   Rasterizer
	dpi      float64
	workers  int
	debug    bool
}

// NewDriver creates a driver. A nil detector uses the default configuration.
func NewDriver(detector *detect.Detector, raster Rasterizer, opts Options) *Driver {
	if detector == nil {
		detector = detect.NewDetector(detect.Config{}, opts.Debug)
	}
	if opts.DPI <= 0 {
		opts.DPI = geometry.DefaultDPI
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	return &Driver{
		detector: detector,
		raster:   raster,
		dpi:      opts.DPI,
		workers:  opts.Workers,
		debug:    opts.Debug,
	}
}

// PageResult is what was found on one page
type PageResult struct {
	Page      int                `json:"page"`
	Detection *detect.Detection  `json:"detection,omitempty"`
	Fields    forms.PageFieldSet `json:"-"`
	Err       error              `json:"-"`
}

// Result is the outcome of AutoAddFields
type Result struct {
	// Document is the input with the detected fields added
	Document *graph.Document
	Pages    []PageResult
	// PageErrors combines the errors of pages that could not be analyzed;
	// those pages contribute no fields
	PageErrors error
}

// FieldCount returns the number of fields added over all pages
func (r *Result) FieldCount() int {
	n := 0
	for _, p := range r.Pages {
		n += len(p.Fields)
	}
	return n
}

// FieldSets returns the per-page field sets in page order
func (r *Result) FieldSets() []forms.PageFieldSet {
	sets := make([]forms.PageFieldSet, len(r.Pages))
	for i, p := range r.Pages {
		sets[i] = p.Fields
	}
	return sets
}

// AutoAddFields detects fields on every page of input and returns a new
// document holding the input plus the fields. input is never modified.
func (d *Driver) AutoAddFields(ctx context.Context, input []byte) (*Result, error) {
	if d.raster == nil {
		return nil, pdferrors.Configuration("no rasterizer configured")
	}

	target, err := graph.Read(bytes.NewReader(input))
	if err != nil {
		return nil, fmt.Errorf("failed to read input PDF: %w", err)
	}

	images, err := d.raster.Rasterize(ctx, input, d.dpi)
	if err != nil {
		return nil, fmt.Errorf("failed to rasterize input PDF: %w", err)
	}
	if d.debug && len(images) != target.PageCount() {
		log.Printf("Rasterizer returned %d images for %d pages", len(images), target.PageCount())
	}

	pages, pageErrs := d.Analyze(ctx, images)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &Result{Pages: pages, PageErrors: pageErrs}
	source, err := forms.Synthesize(result.FieldSets())
	if err != nil {
		return nil, fmt.Errorf("failed to synthesize fields: %w", err)
	}
	if result.Document, err = forms.Graft(target, source); err != nil {
		return nil, err
	}

	if d.debug {
		log.Printf("Added %d fields over %d pages (%d page errors)",
			result.FieldCount(), len(pages), len(multierr.Errors(pageErrs)))
	}
	return result, nil
}

// Analyze runs detection and mapping on every page image in parallel. The
// results are in page order; a page that fails yields an empty field set and
// its error is combined into the returned error.
func (d *Driver) Analyze(ctx context.Context, images [][]byte) ([]PageResult, error) {
	indexed := make([]int, len(images))
	for i := range indexed {
		indexed[i] = i
	}

	mapper := iter.Mapper[int, PageResult]{MaxGoroutines: d.workers}
	results := mapper.Map(indexed, func(i *int) PageResult {
		if err := ctx.Err(); err != nil {
			return PageResult{Page: *i, Err: err}
		}
		return d.page(*i, images[*i])
	})

	var errs error
	for _, r := range results {
		if r.Err != nil {
			errs = multierr.Append(errs, r.Err)
		}
	}
	return results, errs
}

func (d *Driver) page(i int, img []byte) PageResult {
	det, err := d.detector.DetectFieldsFromBytes(img)
	if err != nil {
		if pe, ok := err.(*pdferrors.PDFError); ok {
			err = pe.WithPage(i + 1)
		}
		return PageResult{Page: i, Err: err}
	}
	fields, err := PageFields(i, det, geometry.NewMapper(det.Height, d.dpi))
	if err != nil {
		return PageResult{Page: i, Detection: det, Err: err}
	}
	if d.debug {
		log.Printf("Page %d: %d text fields, %d checkboxes", i, len(det.TextFields), len(det.CheckBoxes))
	}
	return PageResult{Page: i, Detection: det, Fields: fields}
}

// PageFields turns the detection for page i (0-based) into named field specs.
// Text fields are named page_<i>_field_<j> and checkboxes page_<i>_check_<j>.
func PageFields(i int, det *detect.Detection, m geometry.Mapper) (forms.PageFieldSet, error) {
	set := make(forms.PageFieldSet, 0, len(det.TextFields)+len(det.CheckBoxes))
	for j, box := range det.TextFields {
		x, y, w := m.TextAnchor(box)
		fs, err := forms.NewFieldSpec(fmt.Sprintf("page_%d_field_%d", i, j), "text", x, y, "",
			map[string]interface{}{"width": w})
		if err != nil {
			return nil, err
		}
		set = append(set, fs)
	}
	for j, cb := range det.CheckBoxes {
		x, y, size := m.CheckBoxAnchor(cb.PixelBox)
		fs, err := forms.NewFieldSpec(fmt.Sprintf("page_%d_check_%d", i, j), "checkbox", x, y, "",
			map[string]interface{}{"size": size})
		if err != nil {
			return nil, err
		}
		set = append(set, fs)
	}
	return set, nil
}
