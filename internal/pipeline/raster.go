package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/a3tai/mcp-pdf-fields/internal/geometry"
)

// Rasterizer renders every page of a PDF to an encoded image
type Rasterizer interface {
	// Rasterize returns one encoded image per page, in page order
	Rasterize(ctx context.Context, input []byte, dpi float64) ([][]byte, error)
}

// Images is a Rasterizer over page images already held in memory
type Images [][]byte

// Rasterize implements Rasterizer
func (im Images) Rasterize(_ context.Context, _ []byte, _ float64) ([][]byte, error) {
	return im, nil
}

// ImageFiles is a Rasterizer over page images rendered ahead of time, one
// file per page in page order
type ImageFiles []string

// Rasterize implements Rasterizer
func (f ImageFiles) Rasterize(ctx context.Context, _ []byte, _ float64) ([][]byte, error) {
	out := make([][]byte, len(f))
	for i, path := range f {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read image for page %d: %w", i+1, err)
		}
		out[i] = data
	}
	return out, nil
}

// Pdftoppm renders pages with the poppler pdftoppm tool
type Pdftoppm struct {
	// Binary is the executable to run; empty means "pdftoppm" on PATH
	Binary string
}

// Rasterize implements Rasterizer
func (p Pdftoppm) Rasterize(ctx context.Context, input []byte, dpi float64) ([][]byte, error) {
	bin := p.Binary
	if bin == "" {
		bin = "pdftoppm"
	}
	if dpi <= 0 {
		dpi = geometry.DefaultDPI
	}

	dir, err := os.MkdirTemp("", "pdf-fields-raster-")
	if err != nil {
		return nil, fmt.Errorf("failed to create raster directory: %w", err)
	}
	defer os.RemoveAll(dir)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, "-r", strconv.FormatFloat(dpi, 'f', -1, 64), "-png", "-", filepath.Join(dir, "page"))
	cmd.Stdin = bytes.NewReader(input)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s failed: %w: %s", bin, err, bytes.TrimSpace(stderr.Bytes()))
	}

	// pdftoppm zero-pads page numbers to the width of the page count
	paths, err := filepath.Glob(filepath.Join(dir, "page-*.png"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return ImageFiles(paths).Rasterize(ctx, input, dpi)
}
