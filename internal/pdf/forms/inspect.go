package forms

import (
	"fmt"
	"strings"

	"github.com/a3tai/mcp-pdf-fields/internal/pdf/graph"
	pdferrors "github.com/a3tai/mcp-pdf-fields/internal/pdf/errors"
)

// FieldInfo describes one terminal field of a document's form
type FieldInfo struct {
	Name    string     `json:"name"`
	Type    string     `json:"type"`
	Page    int        `json:"page"`
	Rect    [4]float64 `json:"rect"`
	Value   string     `json:"value,omitempty"`
	Label   string     `json:"label,omitempty"`
	Flags   FieldFlags `json:"flags,omitempty"`
	Widgets int        `json:"widgets"`
}

// fieldNode carries the inheritable attributes down the field tree
type fieldNode struct {
	name  string
	ft    string
	flags FieldFlags
	value graph.Object
}

// Inspect lists the terminal fields of doc in field-tree order. Page numbers
// are 1-based; 0 means the field's first widget is on no page.
func Inspect(doc *graph.Document) ([]FieldInfo, error) {
	cat, err := doc.Catalog()
	if err != nil {
		return nil, err
	}
	fields, err := formFields(doc, cat)
	if err != nil {
		return nil, err
	}

	pageOf, err := widgetPages(doc)
	if err != nil {
		return nil, err
	}

	var out []FieldInfo
	var walk func(o graph.Object, parent fieldNode, depth int) error
	walk = func(o graph.Object, parent fieldNode, depth int) error {
		if depth > maxFieldDepth {
			return pdferrors.NewPDFError(pdferrors.ErrorTypeInvalidStructure, "field tree too deep")
		}
		d, err := doc.ResolveDict(o)
		if err != nil || d == nil {
			return err
		}

		node := parent
		if t, ok := graph.Text(d["T"]); ok {
			if node.name != "" {
				node.name += "." + t
			} else {
				node.name = t
			}
		}
		if ft, ok := d.Name("FT"); ok {
			node.ft = string(ft)
		}
		if ff, ok := graph.Number(d["Ff"]); ok {
			node.flags = FieldFlags(uint32(ff))
		}
		if d.Has("V") {
			node.value = d["V"]
		}

		kids, err := doc.ResolveArray(d["Kids"])
		if err != nil {
			return err
		}

		var widgets graph.Array
		var subfields graph.Array
		for _, k := range kids {
			kd, err := doc.ResolveDict(k)
			if err != nil {
				return err
			}
			if kd != nil && !kd.Has("T") && isWidget(kd) {
				widgets = append(widgets, k)
			} else {
				subfields = append(subfields, k)
			}
		}
		if len(kids) == 0 && isWidget(d) {
			widgets = graph.Array{o}
		}

		if len(subfields) == 0 {
			info := FieldInfo{
				Name:    node.name,
				Type:    fieldType(node.ft, node.flags),
				Value:   valueText(node.value),
				Flags:   node.flags,
				Widgets: len(widgets),
			}
			if tu, ok := graph.Text(d["TU"]); ok {
				info.Label = tu
			}
			if len(widgets) > 0 {
				wd, err := doc.ResolveDict(widgets[0])
				if err != nil {
					return err
				}
				info.Rect = rectOf(wd)
				if r, ok := widgets[0].(graph.Ref); ok {
					info.Page = pageOf[r]
				}
			}
			out = append(out, info)
			return nil
		}

		for _, k := range subfields {
			if err := walk(k, node, depth+1); err != nil {
				return err
			}
		}
		return nil
	}

	for _, f := range fields {
		if err := walk(f, fieldNode{}, 0); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// fieldType maps FT and Ff onto the kind names used by FieldSpec, plus
// pushbutton and signature for kinds that are never synthesized
func fieldType(ft string, flags FieldFlags) string {
	switch ft {
	case "Tx":
		return KindText.String()
	case "Btn":
		switch {
		case flags.Has(FlagPushButton):
			return "pushbutton"
		case flags.Has(FlagRadio):
			return KindRadio.String()
		default:
			return KindCheckBox.String()
		}
	case "Ch":
		if flags.Has(FlagCombo) {
			return KindChoice.String()
		}
		return KindListBox.String()
	case "Sig":
		return "signature"
	default:
		return "unknown"
	}
}

func valueText(o graph.Object) string {
	switch v := o.(type) {
	case nil:
		return ""
	case graph.Name:
		return string(v)
	case graph.Array:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, valueText(item))
		}
		return strings.Join(parts, ", ")
	default:
		if s, ok := graph.Text(v); ok {
			return s
		}
		return ""
	}
}

func rectOf(d graph.Dict) [4]float64 {
	var r [4]float64
	arr, ok := d["Rect"].(graph.Array)
	if !ok || len(arr) != 4 {
		return r
	}
	for i, v := range arr {
		r[i], _ = graph.Number(v)
	}
	return r
}

// widgetPages maps every annotation reference to the 1-based number of the
// page listing it
func widgetPages(doc *graph.Document) (map[graph.Ref]int, error) {
	pages, err := doc.Pages()
	if err != nil {
		return nil, err
	}
	out := make(map[graph.Ref]int)
	for i, p := range pages {
		annots, err := pageAnnotations(doc, p)
		if err != nil {
			return nil, err
		}
		for _, a := range annots {
			if r, ok := a.(graph.Ref); ok {
				if _, seen := out[r]; !seen {
					out[r] = i + 1
				}
			}
		}
	}
	return out, nil
}

// VerifyReachability checks that every widget in the field tree is listed
// on exactly the page its /P names, and that every widget annotation on a
// page is reachable from the field tree
func VerifyReachability(doc *graph.Document) error {
	cat, err := doc.Catalog()
	if err != nil {
		return err
	}
	fields, err := formFields(doc, cat)
	if err != nil {
		return err
	}

	inTree := make(map[graph.Ref]bool)
	var walk func(o graph.Object, depth int) error
	walk = func(o graph.Object, depth int) error {
		if depth > maxFieldDepth {
			return pdferrors.NewPDFError(pdferrors.ErrorTypeInvalidStructure, "field tree too deep")
		}
		d, err := doc.ResolveDict(o)
		if err != nil || d == nil {
			return err
		}
		if r, ok := o.(graph.Ref); ok && isWidget(d) {
			inTree[r] = true
		}
		kids, err := doc.ResolveArray(d["Kids"])
		if err != nil {
			return err
		}
		for _, k := range kids {
			if err := walk(k, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	for _, f := range fields {
		if err := walk(f, 0); err != nil {
			return err
		}
	}

	pages, err := doc.Pages()
	if err != nil {
		return err
	}
	onPage := make(map[graph.Ref]bool)
	for i, p := range pages {
		annots, err := pageAnnotations(doc, p)
		if err != nil {
			return err
		}
		for _, a := range annots {
			r, ok := a.(graph.Ref)
			if !ok {
				continue
			}
			d, err := doc.ResolveDict(r)
			if err != nil {
				return err
			}
			if d == nil || !isWidget(d) {
				continue
			}
			onPage[r] = true
			if pr, ok := d["P"].(graph.Ref); ok && pr != p {
				return pdferrors.NewPDFErrorWithContext(pdferrors.ErrorTypeInvalidStructure,
					"widget /P does not name its page", r.String()).WithPage(i + 1)
			}
			if !inTree[r] {
				return pdferrors.NewPDFErrorWithContext(pdferrors.ErrorTypeInvalidStructure,
					"widget on page is not reachable from the field tree", r.String()).WithPage(i + 1)
			}
		}
	}

	for r := range inTree {
		if !onPage[r] {
			return pdferrors.NewPDFErrorWithContext(pdferrors.ErrorTypeInvalidStructure,
				"widget in field tree is not on any page", fmt.Sprint(r))
		}
	}
	return nil
}
