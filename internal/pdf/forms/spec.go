package forms

import (
	"fmt"
	"io"
	"math"

	"gopkg.in/yaml.v3"

	pdferrors "github.com/a3tai/mcp-pdf-fields/internal/pdf/errors"
)

// FieldSpec describes one field to synthesize. X and Y are the lower-left
// corner of the widget in PDF points.
type FieldSpec struct {
	Name      string
	Kind      Kind
	X         float64
	Y         float64
	UserLabel string
	// Options holds the kind's typed settings; nil means the kind's defaults
	Options Options
}

// PageFieldSet is the ordered list of fields placed on one page
type PageFieldSet []FieldSpec

// NewFieldSpec builds a FieldSpec from a kind name and an open option map.
// The kind is matched case-insensitively and the options are merged over the
// kind's defaults.
func NewFieldSpec(name, kind string, x, y float64, userLabel string, options map[string]interface{}) (FieldSpec, error) {
	k, err := ParseKind(kind)
	if err != nil {
		return FieldSpec{}, err
	}
	opts, err := DecodeOptions(k, options)
	if err != nil {
		if pe, ok := err.(*pdferrors.PDFError); ok {
			return FieldSpec{}, pe.WithField(name)
		}
		return FieldSpec{}, err
	}
	return FieldSpec{
		Name:      name,
		Kind:      k,
		X:         x,
		Y:         y,
		UserLabel: userLabel,
		Options:   opts,
	}, nil
}

// ResolvedOptions returns the spec's options, falling back to the kind's
// defaults, after checking that they are valid for the spec's kind
func (fs FieldSpec) ResolvedOptions() (Options, error) {
	if !fs.Kind.Valid() {
		return nil, pdferrors.NewPDFErrorWithContext(pdferrors.ErrorTypeUnknownFieldKind,
			"unknown field kind", fs.Kind.String()).WithField(fs.Name)
	}
	opts := fs.Options
	if opts == nil {
		var err error
		if opts, err = DefaultOptions(fs.Kind); err != nil {
			return nil, err
		}
	}
	if opts.Kind() != fs.Kind {
		return nil, pdferrors.Configuration("%s options given for a %s field", opts.Kind(), fs.Kind).WithField(fs.Name)
	}
	if err := opts.Validate(); err != nil {
		if pe, ok := err.(*pdferrors.PDFError); ok {
			return nil, pe.WithField(fs.Name)
		}
		return nil, err
	}
	return opts, nil
}

// Validate checks the spec without building anything
func (fs FieldSpec) Validate() error {
	_, err := fs.checked()
	return err
}

// checked validates the spec and returns its resolved options
func (fs FieldSpec) checked() (Options, error) {
	if fs.Name == "" {
		return nil, pdferrors.Configuration("field name must not be empty")
	}
	if math.IsNaN(fs.X) || math.IsInf(fs.X, 0) || math.IsNaN(fs.Y) || math.IsInf(fs.Y, 0) {
		return nil, pdferrors.Configuration("field position must be finite").WithField(fs.Name)
	}
	return fs.ResolvedOptions()
}

// specFile is the on-disk shape of a field layout:
//
//	pages:
//	  - - name: full_name
//	      kind: text
//	      x: 72
//	      y: 700
//	      label: Full name
//	      options: {width: 200}
//	  - []
type specFile struct {
	Pages [][]specEntry `yaml:"pages"`
}

type specEntry struct {
	Name    string                 `yaml:"name"`
	Kind    string                 `yaml:"kind"`
	X       float64                `yaml:"x"`
	Y       float64                `yaml:"y"`
	Label   string                 `yaml:"label"`
	Options map[string]interface{} `yaml:"options"`
}

// ParseSpecs decodes a YAML or JSON field layout into page field sets
func ParseSpecs(data []byte) ([]PageFieldSet, error) {
	var f specFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, pdferrors.Configuration("invalid field layout").WithContext(err.Error())
	}

	pages := make([]PageFieldSet, len(f.Pages))
	for i, entries := range f.Pages {
		set := make(PageFieldSet, 0, len(entries))
		for j, e := range entries {
			fs, err := NewFieldSpec(e.Name, e.Kind, e.X, e.Y, e.Label, e.Options)
			if err != nil {
				return nil, fmt.Errorf("page %d field %d: %w", i+1, j+1, err)
			}
			set = append(set, fs)
		}
		pages[i] = set
	}
	return pages, nil
}

// LoadSpecs reads a field layout from r
func LoadSpecs(r io.Reader) ([]PageFieldSet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read field layout: %w", err)
	}
	return ParseSpecs(data)
}

// CountFields returns the total number of specs across pages
func CountFields(pages []PageFieldSet) int {
	n := 0
	for _, p := range pages {
		n += len(p)
	}
	return n
}
