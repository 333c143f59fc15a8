package pdf

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/a3tai/mcp-pdf-fields/internal/detect"
	"github.com/a3tai/mcp-pdf-fields/internal/geometry"
	"github.com/a3tai/mcp-pdf-fields/internal/naming"
	pdferrors "github.com/a3tai/mcp-pdf-fields/internal/pdf/errors"
	"github.com/a3tai/mcp-pdf-fields/internal/pdf/forms"
	"github.com/a3tai/mcp-pdf-fields/internal/pdf/graph"
	"github.com/a3tai/mcp-pdf-fields/internal/pdf/security"
	"github.com/a3tai/mcp-pdf-fields/internal/pipeline"
	"go.uber.org/multierr"
)

// ServiceConfig holds the settings of a Service
type ServiceConfig struct {
	MaxFileSize int64
	Directory   string
	DPI         float64
	Tolerance   int
	Workers     int
	// Namer derives field names from labels; nil means naming.Local
	Namer naming.Namer
	// Rasterizer renders pages when a request carries no page images; nil
	// means the pdftoppm tool
	Rasterizer pipeline.Rasterizer
	Debug      bool
}

// Service handles PDF form operations by orchestrating the form, detection
// and pipeline components
type Service struct {
	maxFileSize   int64
	dpi           float64
	workers       int
	debug         bool
	validator     *Validator
	files         *Files
	detector      *detect.Detector
	namer         naming.Namer
	raster        pipeline.Rasterizer
	pathValidator *security.PathValidator
}

// NewService creates a new PDF service with all components
func NewService(cfg ServiceConfig) (*Service, error) {
	pathValidator, err := security.NewPathValidator(cfg.Directory)
	if err != nil {
		return nil, fmt.Errorf("failed to create path validator: %w", err)
	}
	if cfg.DPI <= 0 {
		cfg.DPI = geometry.DefaultDPI
	}
	if cfg.Namer == nil {
		cfg.Namer = naming.Local{}
	}
	if cfg.Rasterizer == nil {
		cfg.Rasterizer = pipeline.Pdftoppm{}
	}

	dc := detect.DefaultConfig()
	dc.Tolerance = cfg.Tolerance

	return &Service{
		maxFileSize:   cfg.MaxFileSize,
		dpi:           cfg.DPI,
		workers:       cfg.Workers,
		debug:         cfg.Debug,
		validator:     NewValidator(cfg.MaxFileSize),
		files:         NewFiles(cfg.MaxFileSize),
		detector:      detect.NewDetector(dc, cfg.Debug),
		namer:         cfg.Namer,
		raster:        cfg.Rasterizer,
		pathValidator: pathValidator,
	}, nil
}

// PDFAddFields adds the requested fields to a PDF file and writes the result.
// With no pages given nothing is written. A file that already has a form is
// refused and left as it is.
func (s *Service) PDFAddFields(ctx context.Context, req PDFAddFieldsRequest) (*PDFAddFieldsResult, error) {
	if err := s.checkInput(req.Path); err != nil {
		return nil, err
	}

	var pages []forms.PageFieldSet
	var err error
	switch {
	case req.LayoutPath != "" && len(req.Pages) > 0:
		return nil, pdferrors.Configuration("give either pages or layout_path, not both")
	case req.LayoutPath != "":
		pages, err = s.loadLayout(req.LayoutPath)
	default:
		pages, err = specsFromRequests(req.Pages)
	}
	if err != nil {
		return nil, err
	}

	result := &PDFAddFieldsResult{Path: req.Path, Fields: []string{}}
	if len(pages) == 0 {
		result.Message = "no pages given; nothing written"
		return result, nil
	}

	if err := s.assignNames(ctx, pages); err != nil {
		return nil, err
	}

	out := s.outputPath(req.Path, req.OutputPath)
	if err := s.pathValidator.ValidatePath(out); err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}

	n, err := SetFields(req.Path, out, pages)
	if err != nil {
		return nil, err
	}

	result.OutputPath = out
	result.Pages = n
	result.FieldCount = forms.CountFields(pages)
	for _, set := range pages {
		for _, fs := range set {
			result.Fields = append(result.Fields, fs.Name)
		}
	}
	if s.debug {
		log.Printf("Added %d fields to %s, wrote %s", result.FieldCount, req.Path, out)
	}
	return result, nil
}

// SetFields adds pages of fields to the PDF at in and writes the result to
// out. It returns the page count of the output. A file that already has form
// fields is refused even when pages holds no fields. Nothing is written on
// error.
func SetFields(in, out string, pages []forms.PageFieldSet) (int, error) {
	target, err := graph.ReadFile(in)
	if err != nil {
		return 0, err
	}
	source, err := forms.Synthesize(pages)
	if err != nil {
		return 0, err
	}
	if _, err := forms.Graft(target, source); err != nil {
		var pe *pdferrors.PDFError
		if errors.As(err, &pe) {
			return 0, pe.WithFile(in)
		}
		return 0, err
	}
	return target.PageCount(), WriteDocument(target, out)
}

// PDFDetectFields proposes field boxes for every page
func (s *Service) PDFDetectFields(ctx context.Context, req PDFDetectFieldsRequest) (*PDFDetectFieldsResult, error) {
	images, err := s.pageImages(ctx, req.Path, req.Images)
	if err != nil {
		return nil, err
	}

	driver := pipeline.NewDriver(s.detector, nil, pipeline.Options{DPI: s.dpi, Workers: s.workers, Debug: s.debug})
	pages, _ := driver.Analyze(ctx, images)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &PDFDetectFieldsResult{Path: req.Path, DPI: s.dpi, Pages: make([]PageDetection, len(pages))}
	for i, p := range pages {
		result.Pages[i] = s.pageDetection(p)
	}
	return result, nil
}

func (s *Service) pageDetection(p pipeline.PageResult) PageDetection {
	pd := PageDetection{Page: p.Page + 1, TextFields: []DetectedBox{}, CheckBoxes: []DetectedBox{}}
	if p.Err != nil {
		pd.Error = p.Err.Error()
	}
	if p.Detection == nil {
		return pd
	}

	det := p.Detection
	m := geometry.NewMapper(det.Height, s.dpi)
	pd.Width, pd.Height, pd.Groups = det.Width, det.Height, len(det.Groups)
	for j, b := range det.TextFields {
		pd.TextFields = append(pd.TextFields, DetectedBox{
			Name:   fmt.Sprintf("page_%d_field_%d", p.Page, j),
			Pixels: b,
			Points: m.Box(b),
		})
	}
	for j, cb := range det.CheckBoxes {
		pd.CheckBoxes = append(pd.CheckBoxes, DetectedBox{
			Name:   fmt.Sprintf("page_%d_check_%d", p.Page, j),
			Pixels: cb.PixelBox,
			Points: m.Box(cb.PixelBox),
			Filled: cb.Filled,
		})
	}
	return pd
}

// PDFAutoAddFields detects fields on every page and adds them to the file
func (s *Service) PDFAutoAddFields(ctx context.Context, req PDFAutoAddFieldsRequest) (*PDFAutoAddFieldsResult, error) {
	if err := s.checkInput(req.Path); err != nil {
		return nil, err
	}
	raster := s.raster
	if len(req.Images) > 0 {
		if err := s.checkImages(req.Images); err != nil {
			return nil, err
		}
		raster = pipeline.ImageFiles(req.Images)
	}
	out := s.outputPath(req.Path, req.OutputPath)
	if err := s.pathValidator.ValidatePath(out); err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}

	input, err := os.ReadFile(req.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF file: %w", err)
	}

	driver := pipeline.NewDriver(s.detector, raster, pipeline.Options{DPI: s.dpi, Workers: s.workers, Debug: s.debug})
	res, err := driver.AutoAddFields(ctx, input)
	if err != nil {
		return nil, err
	}
	if err := WriteDocument(res.Document, out); err != nil {
		return nil, err
	}

	result := &PDFAutoAddFieldsResult{
		Path:       req.Path,
		OutputPath: out,
		Pages:      res.Document.PageCount(),
		FieldCount: res.FieldCount(),
		Fields:     []string{},
	}
	for _, set := range res.FieldSets() {
		for _, fs := range set {
			result.Fields = append(result.Fields, fs.Name)
		}
	}
	for _, err := range multierr.Errors(res.PageErrors) {
		result.PageErrors = append(result.PageErrors, err.Error())
	}
	return result, nil
}

// PDFListFields lists the form fields of a PDF file
func (s *Service) PDFListFields(req PDFListFieldsRequest) (*PDFListFieldsResult, error) {
	if err := s.checkInput(req.Path); err != nil {
		return nil, err
	}
	doc, err := graph.ReadFile(req.Path)
	if err != nil {
		return nil, err
	}
	fields, err := forms.Inspect(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect form: %w", err)
	}
	if fields == nil {
		fields = []forms.FieldInfo{}
	}
	return &PDFListFieldsResult{
		Path:       req.Path,
		Pages:      doc.PageCount(),
		FieldCount: len(fields),
		Fields:     fields,
	}, nil
}

// PDFValidateFile performs validation on a PDF file
func (s *Service) PDFValidateFile(req PDFValidateFileRequest) (*PDFValidateFileResult, error) {
	if err := s.pathValidator.ValidatePath(req.Path); err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}
	return s.validator.ValidateFile(req)
}

// GetMaxFileSize returns the maximum file size limit
func (s *Service) GetMaxFileSize() int64 {
	return s.maxFileSize
}

// checkInput validates that path is inside the sandbox and a readable PDF
func (s *Service) checkInput(path string) error {
	if err := s.pathValidator.ValidatePath(path); err != nil {
		return fmt.Errorf("security validation failed: %w", err)
	}
	if err := s.validator.validatePDFFile(path); err != nil {
		return fmt.Errorf("invalid input: %w", err)
	}
	return nil
}

func (s *Service) checkImages(paths []string) error {
	for _, p := range paths {
		if err := s.pathValidator.ValidatePath(p); err != nil {
			return fmt.Errorf("security validation failed: %w", err)
		}
	}
	return nil
}

// pageImages returns the given page images, or rasterizes path
func (s *Service) pageImages(ctx context.Context, path string, images []string) ([][]byte, error) {
	if len(images) > 0 {
		if err := s.checkImages(images); err != nil {
			return nil, err
		}
		return pipeline.ImageFiles(images).Rasterize(ctx, nil, s.dpi)
	}
	if path == "" {
		return nil, pdferrors.Configuration("either path or images is required")
	}
	if err := s.checkInput(path); err != nil {
		return nil, err
	}
	input, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF file: %w", err)
	}
	return s.raster.Rasterize(ctx, input, s.dpi)
}

func (s *Service) loadLayout(path string) ([]forms.PageFieldSet, error) {
	if err := s.pathValidator.ValidatePath(path); err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open field layout: %w", err)
	}
	defer f.Close()
	return forms.LoadSpecs(f)
}

// assignNames fills empty field names from their labels through the namer.
// Generated names never collide with given ones; radio buttons sharing a
// label join one group.
func (s *Service) assignNames(ctx context.Context, pages []forms.PageFieldSet) error {
	var taken []string
	for _, set := range pages {
		for _, fs := range set {
			if fs.Name != "" {
				taken = append(taken, fs.Name)
			}
		}
	}
	registry := naming.NewRegistry(taken...)
	radios := make(map[string]string)

	for i, set := range pages {
		for j := range set {
			fs := &set[j]
			if fs.Name != "" {
				continue
			}
			if fs.Kind == forms.KindRadio {
				if name, ok := radios[fs.UserLabel]; ok {
					fs.Name = name
					continue
				}
			}
			suggestion, err := s.namer.Normalize(ctx, fs.UserLabel)
			if err != nil {
				return fmt.Errorf("page %d field %d: failed to name %q: %w", i+1, j+1, fs.UserLabel, err)
			}
			fs.Name = registry.Claim(suggestion.Name)
			if fs.Kind == forms.KindRadio {
				radios[fs.UserLabel] = fs.Name
			}
			if s.debug {
				log.Printf("Named field %q as %s (%s, %.2f)", fs.UserLabel, fs.Name, suggestion.Source, suggestion.Confidence)
			}
		}
	}
	return nil
}

// outputPath defaults to <name>_fields.pdf next to the input
func (s *Service) outputPath(in, out string) string {
	if out != "" {
		return out
	}
	ext := filepath.Ext(in)
	return strings.TrimSuffix(in, ext) + "_fields" + ext
}

func specsFromRequests(pages [][]FieldRequest) ([]forms.PageFieldSet, error) {
	sets := make([]forms.PageFieldSet, len(pages))
	for i, reqs := range pages {
		set := make(forms.PageFieldSet, 0, len(reqs))
		for j, r := range reqs {
			fs, err := forms.NewFieldSpec(r.Name, r.Kind, r.X, r.Y, r.Label, r.Options)
			if err != nil {
				return nil, fmt.Errorf("page %d field %d: %w", i+1, j+1, err)
			}
			set = append(set, fs)
		}
		sets[i] = set
	}
	return sets, nil
}

// WriteDocument serializes doc to path through a temporary file in the same
// directory, so a failed write never leaves a partial file behind
func WriteDocument(doc *graph.Document, path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".pdf-fields-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := doc.WriteTo(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	return nil
}
