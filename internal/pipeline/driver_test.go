package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"golang.org/x/image/draw"

	"github.com/a3tai/mcp-pdf-fields/internal/detect"
	"github.com/a3tai/mcp-pdf-fields/internal/geometry"
	pdferrors "github.com/a3tai/mcp-pdf-fields/internal/pdf/errors"
	"github.com/a3tai/mcp-pdf-fields/internal/pdf/forms"
	"github.com/a3tai/mcp-pdf-fields/internal/pdf/graph"
)

// blankPDF serializes a document with n letter pages and no form
func blankPDF(t *testing.T, n int) []byte {
	t.Helper()
	doc := graph.New()
	tree := doc.Reserve()
	kids := graph.Array{}
	for i := 0; i < n; i++ {
		kids = append(kids, doc.Add(graph.Dict{
			"Type":     graph.Name("Page"),
			"Parent":   tree,
			"MediaBox": graph.Rect(0, 0, 612, 792),
		}))
	}
	require.NoError(t, doc.Set(tree, graph.Dict{"Type": graph.Name("Pages"), "Kids": kids, "Count": graph.Integer(n)}))
	require.NoError(t, doc.SetRoot(doc.Add(graph.Dict{"Type": graph.Name("Catalog"), "Pages": tree})))
	data, err := doc.Bytes()
	require.NoError(t, err)
	return data
}

// formPage renders a 100 DPI letter page with one rule line and one checkbox
func formPage(t *testing.T) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 850, 1100))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	black := image.NewUniform(color.Black)
	draw.Draw(img, image.Rect(100, 500, 600, 502), black, image.Point{}, draw.Src)
	for _, r := range []image.Rectangle{
		image.Rect(100, 700, 140, 702), image.Rect(100, 728, 140, 730),
		image.Rect(100, 700, 102, 730), image.Rect(138, 700, 140, 730),
	} {
		draw.Draw(img, r, black, image.Point{}, draw.Src)
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func blankPage(t *testing.T) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 85, 110))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestAutoAddFields(t *testing.T) {
	input := blankPDF(t, 2)
	original := append([]byte(nil), input...)

	d := NewDriver(nil, Images{formPage(t), blankPage(t)}, Options{DPI: 100, Workers: 2})
	res, err := d.AutoAddFields(context.Background(), input)
	require.NoError(t, err)
	require.NoError(t, res.PageErrors)
	assert.Equal(t, original, input)

	require.Len(t, res.Pages, 2)
	assert.Len(t, res.Pages[0].Fields, 2)
	assert.Empty(t, res.Pages[1].Fields)
	assert.Equal(t, 2, res.FieldCount())

	infos, err := forms.Inspect(res.Document)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	byName := map[string]forms.FieldInfo{}
	for _, info := range infos {
		byName[info.Name] = info
	}
	require.Contains(t, byName, "page_0_field_0")
	require.Contains(t, byName, "page_0_check_0")
	assert.Equal(t, "text", byName["page_0_field_0"].Type)
	assert.Equal(t, "checkbox", byName["page_0_check_0"].Type)
	assert.Equal(t, 1, byName["page_0_field_0"].Page)
	require.NoError(t, forms.VerifyReachability(res.Document))

	// the text field sits on the rule line: 1100-500 px at 100 DPI
	assert.InDelta(t, 432, byName["page_0_field_0"].Rect[1], 0.01)

	out, err := res.Document.Bytes()
	require.NoError(t, err)
	reread, err := graph.Read(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 2, reread.PageCount())
}

func TestAutoAddFields_BadPageDoesNotAbort(t *testing.T) {
	d := NewDriver(nil, Images{[]byte("garbage"), formPage(t)}, Options{DPI: 100})
	res, err := d.AutoAddFields(context.Background(), blankPDF(t, 2))
	require.NoError(t, err)

	require.Error(t, res.PageErrors)
	assert.True(t, errors.Is(res.PageErrors, pdferrors.ErrImageDecode))
	assert.Len(t, multierr.Errors(res.PageErrors), 1)
	assert.Contains(t, res.PageErrors.Error(), "(page 1)")

	assert.Empty(t, res.Pages[0].Fields)
	assert.Len(t, res.Pages[1].Fields, 2)
	assert.Equal(t, "page_1_field_0", res.Pages[1].Fields[0].Name)
}

func TestAutoAddFields_ExistingFormConflicts(t *testing.T) {
	fs, err := forms.NewFieldSpec("a", "text", 10, 10, "", nil)
	require.NoError(t, err)
	withForm, err := forms.Synthesize([]forms.PageFieldSet{{fs}})
	require.NoError(t, err)
	input, err := withForm.Bytes()
	require.NoError(t, err)

	d := NewDriver(nil, Images{formPage(t)}, Options{DPI: 100})
	_, err = d.AutoAddFields(context.Background(), input)
	require.Error(t, err)
	assert.True(t, errors.Is(err, pdferrors.ErrConflict))
}

func TestAutoAddFields_Errors(t *testing.T) {
	_, err := NewDriver(nil, nil, Options{}).AutoAddFields(context.Background(), blankPDF(t, 1))
	assert.True(t, errors.Is(err, pdferrors.ErrConfiguration))

	_, err = NewDriver(nil, Images{}, Options{}).AutoAddFields(context.Background(), []byte("not a pdf"))
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewDriver(nil, Images{blankPage(t)}, Options{}).AutoAddFields(ctx, blankPDF(t, 1))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyze_KeepsPageOrder(t *testing.T) {
	images := make([][]byte, 8)
	for i := range images {
		images[i] = blankPage(t)
	}
	images[3] = formPage(t)

	d := NewDriver(detect.NewDetector(detect.Config{}, false), nil, Options{DPI: 100, Workers: 4})
	pages, err := d.Analyze(context.Background(), images)
	require.NoError(t, err)
	require.Len(t, pages, 8)
	for i, p := range pages {
		assert.Equal(t, i, p.Page)
	}
	assert.Len(t, pages[3].Fields, 2)
	assert.Equal(t, "page_3_check_0", pages[3].Fields[1].Name)
}

func TestPageFields(t *testing.T) {
	box := geometry.PixelBox{X: 100, Y: 50, W: 40, H: 20}
	det := &detect.Detection{
		Width:      500,
		Height:     1000,
		TextFields: []geometry.PixelBox{box},
		CheckBoxes: []detect.CheckBox{{PixelBox: box}},
	}

	set, err := PageFields(2, det, geometry.NewMapper(1000, 200))
	require.NoError(t, err)
	require.Len(t, set, 2)

	text := set[0]
	assert.Equal(t, "page_2_field_0", text.Name)
	assert.Equal(t, forms.KindText, text.Kind)
	assert.InDelta(t, 36, text.X, 1e-9)
	assert.InDelta(t, 342, text.Y, 1e-9)
	require.IsType(t, &forms.TextOptions{}, text.Options)
	assert.InDelta(t, 14.4, text.Options.(*forms.TextOptions).Width, 1e-9)

	check := set[1]
	assert.Equal(t, "page_2_check_0", check.Name)
	assert.Equal(t, forms.KindCheckBox, check.Kind)
	assert.InDelta(t, 39.6, check.X, 1e-9)
	assert.InDelta(t, 334.8, check.Y, 1e-9)
	require.IsType(t, &forms.CheckBoxOptions{}, check.Options)
	assert.InDelta(t, 7.2, check.Options.(*forms.CheckBoxOptions).Size, 1e-9)
}

func TestImageFiles(t *testing.T) {
	dir := t.TempDir()
	p1 := filepath.Join(dir, "page-1.png")
	require.NoError(t, os.WriteFile(p1, blankPage(t), 0o600))

	images, err := ImageFiles{p1}.Rasterize(context.Background(), nil, 200)
	require.NoError(t, err)
	require.Len(t, images, 1)

	_, err = ImageFiles{filepath.Join(dir, "missing.png")}.Rasterize(context.Background(), nil, 200)
	assert.Error(t, err)
}

func TestPdftoppm_PassesFractionalDPI(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses a shell script as the pdftoppm binary")
	}
	dir := t.TempDir()
	page := filepath.Join(dir, "blank.png")
	require.NoError(t, os.WriteFile(page, blankPage(t), 0o600))
	args := filepath.Join(dir, "args")

	// arguments are: -r <dpi> -png - <prefix>
	script := filepath.Join(dir, "pdftoppm")
	require.NoError(t, os.WriteFile(script, []byte(fmt.Sprintf(
		"#!/bin/sh\necho \"$2\" > %q\ncp %q \"$5-1.png\"\n", args, page)), 0o700))

	images, err := Pdftoppm{Binary: script}.Rasterize(context.Background(), []byte("%PDF-1.7"), 150.5)
	require.NoError(t, err)
	require.Len(t, images, 1)

	got, err := os.ReadFile(args)
	require.NoError(t, err)
	assert.Equal(t, "150.5", strings.TrimSpace(string(got)))
}
