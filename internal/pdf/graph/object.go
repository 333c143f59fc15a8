// Package graph models a PDF document as an arena of objects addressed by
// document-local handles. Handles from one Document are meaningless in another;
// moving objects between documents always goes through a Copier.
package graph

import "fmt"

// Object is any PDF object value
type Object interface {
	pdfObject()
}

// Null is the PDF null object
type Null struct{}

// Bool is a PDF boolean
type Bool bool

// Integer is a PDF integer
type Integer int64

// Real is a PDF real number
type Real float64

// Name is a PDF name without the leading slash
type Name string

// String is a PDF string holding raw, unescaped bytes
type String string

// Literal is the body of a literal string exactly as it appeared in a parsed
// file, escapes included. It is written back verbatim between parentheses.
type Literal string

// HexString holds the hex digits of a hexadecimal string as read from a file
type HexString string

// Array is a PDF array
type Array []Object

// Dict is a PDF dictionary keyed by name (without the leading slash)
type Dict map[string]Object

// Stream is a PDF stream. Data is stored encoded according to Dict's /Filter;
// /Length is computed when the document is written.
type Stream struct {
	Dict Dict
	Data []byte
}

// Ref is an indirect reference into the arena of exactly one Document
type Ref struct {
	arena uint64
	id    int
}

func (Null) pdfObject()      {}
func (Bool) pdfObject()      {}
func (Integer) pdfObject()   {}
func (Real) pdfObject()      {}
func (Name) pdfObject()      {}
func (String) pdfObject()    {}
func (Literal) pdfObject()   {}
func (HexString) pdfObject() {}
func (Array) pdfObject()     {}
func (Dict) pdfObject()      {}
func (*Stream) pdfObject()   {}
func (Ref) pdfObject()       {}

// IsZero reports whether r is the zero Ref, which refers to nothing
func (r Ref) IsZero() bool {
	return r.arena == 0 && r.id == 0
}

// String returns a debugging representation of the reference
func (r Ref) String() string {
	return fmt.Sprintf("ref(%d:%d)", r.arena, r.id)
}

// Name returns the name stored under key, if any
func (d Dict) Name(key string) (Name, bool) {
	n, ok := d[key].(Name)
	return n, ok
}

// Has reports whether key is present and not null
func (d Dict) Has(key string) bool {
	o, ok := d[key]
	if !ok {
		return false
	}
	_, isNull := o.(Null)
	return !isNull
}

// Number converts an Integer or Real into a float64
func Number(o Object) (float64, bool) {
	switch v := o.(type) {
	case Integer:
		return float64(v), true
	case Real:
		return float64(v), true
	default:
		return 0, false
	}
}

// Text returns the textual content of a String, Literal or HexString.
// Literal escapes are decoded; hex digits are converted to bytes.
func Text(o Object) (string, bool) {
	switch v := o.(type) {
	case String:
		return string(v), true
	case Literal:
		return unescapeLiteral(string(v)), true
	case HexString:
		return decodeHex(string(v)), true
	default:
		return "", false
	}
}

// Rect builds a rectangle array [llx lly urx ury]
func Rect(llx, lly, urx, ury float64) Array {
	return Array{Real(llx), Real(lly), Real(urx), Real(ury)}
}

func unescapeLiteral(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			out = append(out, c)
			continue
		}
		i++
		switch c = s[i]; c {
		case 'n':
			out = append(out, '\n')
		case 'r':
			out = append(out, '\r')
		case 't':
			out = append(out, '\t')
		case 'b':
			out = append(out, '\b')
		case 'f':
			out = append(out, '\f')
		case '\r', '\n':
			// line continuation
			if c == '\r' && i+1 < len(s) && s[i+1] == '\n' {
				i++
			}
		case '0', '1', '2', '3', '4', '5', '6', '7':
			v := int(c - '0')
			for n := 1; n < 3 && i+1 < len(s) && s[i+1] >= '0' && s[i+1] <= '7'; n++ {
				i++
				v = v*8 + int(s[i]-'0')
			}
			out = append(out, byte(v))
		default:
			out = append(out, c)
		}
	}
	return string(out)
}

func decodeHex(s string) string {
	out := make([]byte, 0, len(s)/2+1)
	var hi byte
	odd := false
	for i := 0; i < len(s); i++ {
		v, ok := hexValue(s[i])
		if !ok {
			continue
		}
		if !odd {
			hi = v
			odd = true
			continue
		}
		out = append(out, hi<<4|v)
		odd = false
	}
	if odd {
		out = append(out, hi<<4)
	}
	return string(out)
}

func hexValue(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	default:
		return 0, false
	}
}
