package graph

import (
	pdferrors "github.com/a3tai/mcp-pdf-fields/internal/pdf/errors"
)

// Copier imports object subtrees from a source document into a destination
// document. Every source reference is copied at most once per Copier, so
// shared and cyclic structures keep their shape in the destination.
type Copier struct {
	dst  *Document
	src  *Document
	memo map[Ref]Object
}

// NewCopier creates a copy session from src into dst
func NewCopier(dst, src *Document) *Copier {
	return &Copier{
		dst:  dst,
		src:  src,
		memo: make(map[Ref]Object),
	}
}

// Map declares that srcRef must be represented by o in the destination
// instead of being copied. o is usually a destination Ref or Null.
func (c *Copier) Map(srcRef Ref, o Object) error {
	if !c.src.Owns(srcRef) {
		return pdferrors.NewPDFErrorWithContext(pdferrors.ErrorTypeForeignHandle,
			"mapped reference does not belong to the source document", srcRef.String())
	}
	if r, ok := o.(Ref); ok && !c.dst.Owns(r) {
		return pdferrors.NewPDFErrorWithContext(pdferrors.ErrorTypeForeignHandle,
			"mapping target does not belong to the destination document", r.String())
	}
	c.memo[srcRef] = o
	return nil
}

// Lookup returns the destination object that srcRef was copied or mapped to
func (c *Copier) Lookup(srcRef Ref) (Object, bool) {
	o, ok := c.memo[srcRef]
	return o, ok
}

// Copy deep-copies o from the source into the destination. References in the
// result are valid only in the destination document.
func (c *Copier) Copy(o Object) (Object, error) {
	switch v := o.(type) {
	case nil:
		return Null{}, nil
	case Ref:
		return c.copyRef(v)
	case Dict:
		return c.copyDict(v)
	case Array:
		out := make(Array, len(v))
		for i, item := range v {
			cp, err := c.Copy(item)
			if err != nil {
				return nil, err
			}
			out[i] = cp
		}
		return out, nil
	case *Stream:
		d, err := c.copyDict(v.Dict)
		if err != nil {
			return nil, err
		}
		data := make([]byte, len(v.Data))
		copy(data, v.Data)
		return &Stream{Dict: d, Data: data}, nil
	default:
		// scalars are immutable values
		return o, nil
	}
}

func (c *Copier) copyRef(r Ref) (Object, error) {
	if done, ok := c.memo[r]; ok {
		return done, nil
	}
	obj, err := c.src.Get(r)
	if err != nil {
		return nil, err
	}
	// reserve before recursing so cycles resolve to the same handle
	nr := c.dst.Reserve()
	c.memo[r] = nr
	cp, err := c.Copy(obj)
	if err != nil {
		return nil, err
	}
	if err := c.dst.Set(nr, cp); err != nil {
		return nil, err
	}
	return nr, nil
}

func (c *Copier) copyDict(d Dict) (Dict, error) {
	if d == nil {
		return nil, nil
	}
	out := make(Dict, len(d))
	for k, v := range d {
		cp, err := c.Copy(v)
		if err != nil {
			return nil, err
		}
		out[k] = cp
	}
	return out, nil
}

// ForeignCopy deep-copies o, which belongs to src, into d
func (d *Document) ForeignCopy(src *Document, o Object) (Object, error) {
	return NewCopier(d, src).Copy(o)
}
