package graph

import (
	"fmt"
	"sync/atomic"

	pdferrors "github.com/a3tai/mcp-pdf-fields/internal/pdf/errors"
)

// DefaultVersion is the header version written for new documents
const DefaultVersion = "1.7"

var arenaSeq atomic.Uint64

// Document is an arena of PDF objects rooted at a catalog.
// A Document is not safe for concurrent mutation.
type Document struct {
	id      uint64
	objects map[int]Object
	next    int
	root    Ref
	info    Ref

	// Version is the PDF header version, e.g. "1.7"
	Version string
}

// New creates an empty document with its own arena
func New() *Document {
	return &Document{
		id:      arenaSeq.Add(1),
		objects: make(map[int]Object),
		next:    1,
		Version: DefaultVersion,
	}
}

// Add stores o as a new indirect object and returns its handle
func (d *Document) Add(o Object) Ref {
	r := d.Reserve()
	d.objects[r.id] = o
	return r
}

// Reserve allocates a handle whose object is set later with Set.
// Until then the handle resolves to null.
func (d *Document) Reserve() Ref {
	r := Ref{arena: d.id, id: d.next}
	d.next++
	d.objects[r.id] = Null{}
	return r
}

// Owns reports whether r was issued by this document
func (d *Document) Owns(r Ref) bool {
	if r.arena != d.id {
		return false
	}
	_, ok := d.objects[r.id]
	return ok
}

// Set replaces the object behind r
func (d *Document) Set(r Ref, o Object) error {
	if err := d.check(r); err != nil {
		return err
	}
	d.objects[r.id] = o
	return nil
}

// Get returns the object behind r
func (d *Document) Get(r Ref) (Object, error) {
	if err := d.check(r); err != nil {
		return nil, err
	}
	return d.objects[r.id], nil
}

// Len returns the number of objects in the arena, reachable or not
func (d *Document) Len() int {
	return len(d.objects)
}

func (d *Document) check(r Ref) error {
	if r.arena != d.id {
		return pdferrors.NewPDFErrorWithContext(pdferrors.ErrorTypeForeignHandle,
			"reference belongs to another document", r.String())
	}
	if _, ok := d.objects[r.id]; !ok {
		return pdferrors.NewPDFErrorWithContext(pdferrors.ErrorTypeMissingObject,
			"reference does not exist", r.String())
	}
	return nil
}

// Resolve follows references until a direct object is reached
func (d *Document) Resolve(o Object) (Object, error) {
	for hops := 0; ; hops++ {
		r, ok := o.(Ref)
		if !ok {
			if o == nil {
				return Null{}, nil
			}
			return o, nil
		}
		if hops > 32 {
			return nil, pdferrors.NewPDFErrorWithContext(pdferrors.ErrorTypeInvalidStructure,
				"reference chain too long", r.String())
		}
		next, err := d.Get(r)
		if err != nil {
			return nil, err
		}
		o = next
	}
}

// ResolveDict resolves o and returns it as a dictionary. The dictionary of a
// stream is returned for streams. The returned map is the stored one, so
// changes to it are changes to the document.
func (d *Document) ResolveDict(o Object) (Dict, error) {
	v, err := d.Resolve(o)
	if err != nil {
		return nil, err
	}
	switch t := v.(type) {
	case Dict:
		return t, nil
	case *Stream:
		return t.Dict, nil
	case Null:
		return nil, nil
	default:
		return nil, pdferrors.NewPDFErrorWithContext(pdferrors.ErrorTypeInvalidStructure,
			"expected dictionary", fmt.Sprintf("%T", v))
	}
}

// ResolveArray resolves o and returns it as an array; null yields nil
func (d *Document) ResolveArray(o Object) (Array, error) {
	v, err := d.Resolve(o)
	if err != nil {
		return nil, err
	}
	switch t := v.(type) {
	case Array:
		return t, nil
	case Null:
		return nil, nil
	default:
		return nil, pdferrors.NewPDFErrorWithContext(pdferrors.ErrorTypeInvalidStructure,
			"expected array", fmt.Sprintf("%T", v))
	}
}

// Root returns the catalog reference
func (d *Document) Root() Ref {
	return d.root
}

// SetRoot sets the catalog reference
func (d *Document) SetRoot(r Ref) error {
	if err := d.check(r); err != nil {
		return err
	}
	d.root = r
	return nil
}

// Info returns the document information dictionary reference, if any
func (d *Document) Info() Ref {
	return d.info
}

// SetInfo sets the document information dictionary reference
func (d *Document) SetInfo(r Ref) error {
	if err := d.check(r); err != nil {
		return err
	}
	d.info = r
	return nil
}

// Catalog returns the root dictionary
func (d *Document) Catalog() (Dict, error) {
	if d.root.IsZero() {
		return nil, pdferrors.NewPDFError(pdferrors.ErrorTypeInvalidStructure, "document has no root")
	}
	cat, err := d.ResolveDict(d.root)
	if err != nil {
		return nil, err
	}
	if cat == nil {
		return nil, pdferrors.NewPDFError(pdferrors.ErrorTypeInvalidStructure, "root is null")
	}
	return cat, nil
}

// Pages returns the page dictionaries in document order
func (d *Document) Pages() ([]Ref, error) {
	cat, err := d.Catalog()
	if err != nil {
		return nil, err
	}
	root, ok := cat["Pages"].(Ref)
	if !ok {
		return nil, pdferrors.NewPDFError(pdferrors.ErrorTypeInvalidStructure, "catalog has no page tree reference")
	}

	var pages []Ref
	visited := make(map[Ref]bool)
	var walk func(r Ref) error
	walk = func(r Ref) error {
		if visited[r] {
			return pdferrors.NewPDFErrorWithContext(pdferrors.ErrorTypeInvalidStructure,
				"cycle in page tree", r.String())
		}
		visited[r] = true

		node, err := d.ResolveDict(r)
		if err != nil {
			return err
		}
		if node == nil {
			return nil
		}
		kids, hasKids := node["Kids"]
		if t, _ := node.Name("Type"); t == "Page" || !hasKids {
			pages = append(pages, r)
			return nil
		}
		arr, err := d.ResolveArray(kids)
		if err != nil {
			return err
		}
		for _, kid := range arr {
			kr, ok := kid.(Ref)
			if !ok {
				return pdferrors.NewPDFError(pdferrors.ErrorTypeInvalidStructure, "page tree kid is not a reference")
			}
			if err := walk(kr); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(root); err != nil {
		return nil, err
	}
	return pages, nil
}

// PageCount returns the number of pages, or 0 if the page tree is unreadable
func (d *Document) PageCount() int {
	pages, err := d.Pages()
	if err != nil {
		return 0
	}
	return len(pages)
}
