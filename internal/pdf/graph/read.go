package graph

import (
	"fmt"
	"io"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	pdferrors "github.com/a3tai/mcp-pdf-fields/internal/pdf/errors"
)

// ReadFile parses the PDF at path into a new document
func ReadFile(path string) (*Document, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF file: %w", err)
	}
	defer file.Close()

	doc, err := Read(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return doc, nil
}

// Read parses a PDF with pdfcpu and imports every object reachable from the
// trailer's root and info entries into a new arena
func Read(rs io.ReadSeeker) (*Document, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(rs, conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}

	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to ensure page count: %w", err)
	}

	if ctx.Encrypt != nil {
		return nil, pdferrors.NewPDFError(pdferrors.ErrorTypeUnsupportedFeature, "encrypted documents are not supported")
	}
	if ctx.Root == nil {
		return nil, pdferrors.NewPDFError(pdferrors.ErrorTypeInvalidStructure, "trailer has no root")
	}

	imp := &importer{
		ctx:  ctx,
		doc:  New(),
		memo: make(map[int]Ref),
	}

	root, err := imp.ref(*ctx.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to import catalog: %w", err)
	}
	if err := imp.doc.SetRoot(root); err != nil {
		return nil, err
	}

	if ctx.Info != nil {
		info, err := imp.ref(*ctx.Info)
		if err != nil {
			return nil, fmt.Errorf("failed to import info dictionary: %w", err)
		}
		if err := imp.doc.SetInfo(info); err != nil {
			return nil, err
		}
	}

	return imp.doc, nil
}

// importer converts pdfcpu objects into arena objects. Object numbers of the
// parsed file are translated to fresh handles exactly once.
type importer struct {
	ctx  *model.Context
	doc  *Document
	memo map[int]Ref
}

func (imp *importer) ref(ir types.IndirectRef) (Ref, error) {
	nr := int(ir.ObjectNumber)
	if r, ok := imp.memo[nr]; ok {
		return r, nil
	}

	r := imp.doc.Reserve()
	imp.memo[nr] = r

	obj, err := imp.ctx.Dereference(ir)
	if err != nil {
		return Ref{}, fmt.Errorf("failed to dereference object %d: %w", nr, err)
	}
	conv, err := imp.convert(obj)
	if err != nil {
		return Ref{}, fmt.Errorf("object %d: %w", nr, err)
	}
	if err := imp.doc.Set(r, conv); err != nil {
		return Ref{}, err
	}
	return r, nil
}

func (imp *importer) convert(o types.Object) (Object, error) {
	switch v := o.(type) {
	case nil:
		return Null{}, nil
	case types.Boolean:
		return Bool(v), nil
	case types.Integer:
		return Integer(v), nil
	case types.Float:
		return Real(v), nil
	case types.Name:
		return Name(v), nil
	case types.StringLiteral:
		return Literal(v), nil
	case types.HexLiteral:
		return HexString(v), nil
	case types.IndirectRef:
		return imp.ref(v)
	case types.Array:
		out := make(Array, len(v))
		for i, item := range v {
			conv, err := imp.convert(item)
			if err != nil {
				return nil, err
			}
			out[i] = conv
		}
		return out, nil
	case types.Dict:
		return imp.dict(v)
	case types.StreamDict:
		return imp.stream(v)
	default:
		return nil, pdferrors.NewPDFErrorWithContext(pdferrors.ErrorTypeUnsupportedFeature,
			"unsupported object", fmt.Sprintf("%T", o))
	}
}

func (imp *importer) dict(d types.Dict) (Dict, error) {
	out := make(Dict, len(d))
	for k, v := range d {
		conv, err := imp.convert(v)
		if err != nil {
			return nil, fmt.Errorf("key %s: %w", k, err)
		}
		out[k] = conv
	}
	return out, nil
}

func (imp *importer) stream(sd types.StreamDict) (*Stream, error) {
	d, err := imp.dict(sd.Dict)
	if err != nil {
		return nil, err
	}
	// Length is recomputed on write and may point at a separate object
	delete(d, "Length")

	data := sd.Raw
	if data == nil && sd.Content != nil {
		// only the decoded form survived parsing
		data = sd.Content
		delete(d, "Filter")
		delete(d, "DecodeParms")
	}
	return &Stream{Dict: d, Data: append([]byte(nil), data...)}, nil
}
