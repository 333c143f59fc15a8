package graph

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"

	pdferrors "github.com/a3tai/mcp-pdf-fields/internal/pdf/errors"
)

// WriteTo serializes the objects reachable from the root (and the info
// dictionary) as a PDF file with a classic cross-reference table.
// Objects are renumbered densely; unreachable objects are dropped.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	if d.root.IsZero() {
		return 0, pdferrors.NewPDFError(pdferrors.ErrorTypeInvalidStructure, "document has no root")
	}

	order, numbers, err := d.reachable()
	if err != nil {
		return 0, err
	}

	cw := &countingWriter{w: bufio.NewWriter(w)}
	s := &serializer{doc: d, numbers: numbers}

	version := d.Version
	if version == "" {
		version = DefaultVersion
	}
	fmt.Fprintf(cw, "%%PDF-%s\n", version)
	cw.Write([]byte{'%', 0xE2, 0xE3, 0xCF, 0xD3, '\n'})

	offsets := make([]int64, len(order)+1)
	for i, r := range order {
		offsets[i+1] = cw.n
		var buf bytes.Buffer
		fmt.Fprintf(&buf, "%d 0 obj\n", i+1)
		if err := s.writeIndirect(&buf, d.objects[r.id]); err != nil {
			return cw.n, err
		}
		buf.WriteString("\nendobj\n")
		cw.Write(buf.Bytes())
	}

	xrefPos := cw.n
	fmt.Fprintf(cw, "xref\n0 %d\n", len(order)+1)
	fmt.Fprintf(cw, "%010d %05d f \n", 0, 65535)
	for i := 1; i <= len(order); i++ {
		fmt.Fprintf(cw, "%010d %05d n \n", offsets[i], 0)
	}

	fmt.Fprintf(cw, "trailer\n<< /Size %d /Root %d 0 R", len(order)+1, numbers[d.root])
	if !d.info.IsZero() {
		if n, ok := numbers[d.info]; ok {
			fmt.Fprintf(cw, " /Info %d 0 R", n)
		}
	}
	fmt.Fprintf(cw, " >>\nstartxref\n%d\n%%%%EOF\n", xrefPos)

	if cw.err != nil {
		return cw.n, cw.err
	}
	if err := cw.w.Flush(); err != nil {
		return cw.n, err
	}
	return cw.n, nil
}

// Bytes returns the serialized document
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := d.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// reachable returns the reachable references in breadth-first order along
// with their output object numbers
func (d *Document) reachable() ([]Ref, map[Ref]int, error) {
	numbers := make(map[Ref]int)
	var order []Ref
	queue := []Ref{d.root}
	if !d.info.IsZero() {
		queue = append(queue, d.info)
	}

	enqueue := func(r Ref) error {
		if err := d.check(r); err != nil {
			return err
		}
		if _, seen := numbers[r]; !seen {
			order = append(order, r)
			numbers[r] = len(order)
			queue = append(queue, r)
		}
		return nil
	}

	seeds := queue
	queue = nil
	for _, r := range seeds {
		if err := enqueue(r); err != nil {
			return nil, nil, err
		}
	}

	for len(queue) > 0 {
		r := queue[0]
		queue = queue[1:]
		var visit func(o Object) error
		visit = func(o Object) error {
			switch v := o.(type) {
			case Ref:
				return enqueue(v)
			case Array:
				for _, item := range v {
					if err := visit(item); err != nil {
						return err
					}
				}
			case Dict:
				for _, k := range sortedKeys(v) {
					if err := visit(v[k]); err != nil {
						return err
					}
				}
			case *Stream:
				return visit(v.Dict)
			}
			return nil
		}
		if err := visit(d.objects[r.id]); err != nil {
			return nil, nil, err
		}
	}
	return order, numbers, nil
}

type serializer struct {
	doc     *Document
	numbers map[Ref]int
}

func (s *serializer) writeIndirect(buf *bytes.Buffer, o Object) error {
	st, ok := o.(*Stream)
	if !ok {
		return s.write(buf, o)
	}
	dict := make(Dict, len(st.Dict)+1)
	for k, v := range st.Dict {
		dict[k] = v
	}
	dict["Length"] = Integer(len(st.Data))
	if err := s.write(buf, dict); err != nil {
		return err
	}
	buf.WriteString("\nstream\n")
	buf.Write(st.Data)
	buf.WriteString("\nendstream")
	return nil
}

func (s *serializer) write(buf *bytes.Buffer, o Object) error {
	switch v := o.(type) {
	case nil, Null:
		buf.WriteString("null")
	case Bool:
		buf.WriteString(strconv.FormatBool(bool(v)))
	case Integer:
		buf.WriteString(strconv.FormatInt(int64(v), 10))
	case Real:
		buf.WriteString(FormatReal(float64(v)))
	case Name:
		writeName(buf, string(v))
	case String:
		writeString(buf, string(v))
	case Literal:
		buf.WriteByte('(')
		buf.WriteString(string(v))
		buf.WriteByte(')')
	case HexString:
		buf.WriteByte('<')
		buf.WriteString(string(v))
		buf.WriteByte('>')
	case Ref:
		n, ok := s.numbers[v]
		if !ok {
			return pdferrors.NewPDFErrorWithContext(pdferrors.ErrorTypeForeignHandle,
				"reference not owned by the written document", v.String())
		}
		fmt.Fprintf(buf, "%d 0 R", n)
	case Array:
		buf.WriteByte('[')
		for i, item := range v {
			if i > 0 {
				buf.WriteByte(' ')
			}
			if err := s.write(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case Dict:
		buf.WriteString("<<")
		for _, k := range sortedKeys(v) {
			buf.WriteByte(' ')
			writeName(buf, k)
			buf.WriteByte(' ')
			if err := s.write(buf, v[k]); err != nil {
				return err
			}
		}
		buf.WriteString(" >>")
	case *Stream:
		return pdferrors.NewPDFError(pdferrors.ErrorTypeInvalidStructure, "stream must be an indirect object")
	default:
		return pdferrors.NewPDFErrorWithContext(pdferrors.ErrorTypeUnsupportedFeature,
			"unsupported object type", fmt.Sprintf("%T", o))
	}
	return nil
}

func sortedKeys(d Dict) []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FormatReal formats f in fixed-point notation with at most four decimals,
// as reals are written in files and content streams
func FormatReal(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "0"
	}
	s := strconv.FormatFloat(f, 'f', 4, 64)
	// trim trailing zeros; PDF readers reject exponent notation so 'f' is required
	for len(s) > 1 && s[len(s)-1] == '0' {
		s = s[:len(s)-1]
	}
	s = trimSuffixByte(s, '.')
	if s == "-0" {
		return "0"
	}
	return s
}

func trimSuffixByte(s string, b byte) string {
	if len(s) > 0 && s[len(s)-1] == b {
		return s[:len(s)-1]
	}
	return s
}

func writeName(buf *bytes.Buffer, name string) {
	buf.WriteByte('/')
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c < 0x21 || c > 0x7E || isDelimiter(c) || c == '#' {
			fmt.Fprintf(buf, "#%02X", c)
			continue
		}
		buf.WriteByte(c)
	}
}

func isDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func writeString(buf *bytes.Buffer, s string) {
	buf.WriteByte('(')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\\', '(', ')':
			buf.WriteByte('\\')
			buf.WriteByte(c)
		case '\n':
			buf.WriteString("\\n")
		case '\r':
			buf.WriteString("\\r")
		case '\t':
			buf.WriteString("\\t")
		default:
			if c < 0x20 || c > 0x7E {
				fmt.Fprintf(buf, "\\%03o", c)
				continue
			}
			buf.WriteByte(c)
		}
	}
	buf.WriteByte(')')
}

type countingWriter struct {
	w   *bufio.Writer
	n   int64
	err error
}

func (c *countingWriter) Write(p []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	n, err := c.w.Write(p)
	c.n += int64(n)
	c.err = err
	return n, err
}
