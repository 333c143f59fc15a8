package forms

import (
	"fmt"
	"strings"

	"github.com/a3tai/mcp-pdf-fields/internal/pdf/graph"
	pdferrors "github.com/a3tai/mcp-pdf-fields/internal/pdf/errors"
)

// A4 page size in points; synthesized pages only carry the widgets, the
// target document's own pages are what the fields end up on
const (
	PageWidth  = 595.2756
	PageHeight = 841.8898
)

// Producer is written into the info dictionary of synthesized documents
const Producer = "mcp-pdf-fields"

// placed is a validated spec with its resolved options
type placed struct {
	spec FieldSpec
	opts Options
}

// radioGroup collects the buttons sharing one radio field name
type radioGroup struct {
	name    string
	label   string
	flags   FieldFlags
	members []*placed
	parent  graph.Ref
	kids    graph.Array
}

// plan is the fully validated input of Synthesize
type plan struct {
	pages  [][]*placed
	groups map[string]*radioGroup
	order  []string
}

// Synthesize builds a fields-only document with one blank page per set,
// empty sets included. Every spec is validated before any object is
// created, so an error never leaves a partial document behind.
func Synthesize(pages []PageFieldSet) (*graph.Document, error) {
	p, err := validatePages(pages)
	if err != nil {
		return nil, err
	}

	s := &synthesizer{doc: graph.New()}
	s.fonts = newFontTable(s.doc)
	return s.build(p)
}

func validatePages(pages []PageFieldSet) (*plan, error) {
	p := &plan{
		pages:  make([][]*placed, len(pages)),
		groups: make(map[string]*radioGroup),
	}
	names := make(map[string]Kind)

	for i, set := range pages {
		for _, fs := range set {
			opts, err := fs.checked()
			if err != nil {
				return nil, withPage(err, i+1)
			}
			pl := &placed{spec: fs, opts: opts}

			if prev, seen := names[fs.Name]; seen && (prev != KindRadio || fs.Kind != KindRadio) {
				return nil, pdferrors.Configuration("duplicate field name %q", fs.Name).WithField(fs.Name).WithPage(i + 1)
			}
			names[fs.Name] = fs.Kind

			if fs.Kind == KindRadio {
				if err := p.addRadio(pl); err != nil {
					return nil, withPage(err, i+1)
				}
			}
			p.pages[i] = append(p.pages[i], pl)
		}
	}
	return p, nil
}

func (p *plan) addRadio(pl *placed) error {
	ro := pl.opts.(*RadioOptions)
	g, ok := p.groups[pl.spec.Name]
	if !ok {
		g = &radioGroup{name: pl.spec.Name}
		p.groups[pl.spec.Name] = g
		p.order = append(p.order, pl.spec.Name)
	}
	for _, m := range g.members {
		mo := m.opts.(*RadioOptions)
		if mo.Value == ro.Value {
			return pdferrors.Configuration("radio group %q has duplicate value %q", g.name, ro.Value).WithField(g.name)
		}
		if mo.Selected && ro.Selected {
			return pdferrors.Configuration("radio group %q has more than one selected button", g.name).WithField(g.name)
		}
	}
	if g.label == "" {
		g.label = pl.spec.UserLabel
	}
	g.flags |= ro.FieldFlags
	g.members = append(g.members, pl)
	return nil
}

func withPage(err error, page int) error {
	if pe, ok := err.(*pdferrors.PDFError); ok {
		return pe.WithPage(page)
	}
	return err
}

type synthesizer struct {
	doc    *graph.Document
	fonts  *fontTable
	fields graph.Array
}

func (s *synthesizer) build(p *plan) (*graph.Document, error) {
	doc := s.doc
	pagesRef := doc.Reserve()

	kids := make(graph.Array, 0, len(p.pages))
	for _, fields := range p.pages {
		pageRef := doc.Reserve()
		var annots graph.Array
		for _, pl := range fields {
			w, err := s.widget(pl, pageRef, p.groups)
			if err != nil {
				return nil, err
			}
			annots = append(annots, w)
		}

		page := graph.Dict{
			"Type":      graph.Name("Page"),
			"Parent":    pagesRef,
			"MediaBox":  graph.Rect(0, 0, PageWidth, PageHeight),
			"Resources": graph.Dict{},
		}
		if len(annots) > 0 {
			page["Annots"] = annots
		}
		if err := doc.Set(pageRef, page); err != nil {
			return nil, err
		}
		kids = append(kids, pageRef)
	}

	if err := doc.Set(pagesRef, graph.Dict{
		"Type":  graph.Name("Pages"),
		"Kids":  kids,
		"Count": graph.Integer(len(kids)),
	}); err != nil {
		return nil, err
	}

	for _, name := range p.order {
		if err := s.radioParent(p.groups[name]); err != nil {
			return nil, err
		}
	}

	acroForm := doc.Add(graph.Dict{
		"Fields":          s.fields,
		"NeedAppearances": graph.Bool(true),
		"DA":              graph.String("/Helv 0 Tf 0 g"),
		"DR":              graph.Dict{"Font": s.fonts.fonts},
	})

	root := doc.Add(graph.Dict{
		"Type":     graph.Name("Catalog"),
		"Pages":    pagesRef,
		"AcroForm": acroForm,
	})
	if err := doc.SetRoot(root); err != nil {
		return nil, err
	}
	info := doc.Add(graph.Dict{"Producer": graph.String(Producer)})
	if err := doc.SetInfo(info); err != nil {
		return nil, err
	}
	return doc, nil
}

// widget adds the annotation for one spec and returns its reference.
// Non-radio fields are merged field/widget dictionaries listed directly in
// /Fields; radio buttons become kids of their group's parent field.
func (s *synthesizer) widget(pl *placed, page graph.Ref, groups map[string]*radioGroup) (graph.Ref, error) {
	fs := pl.spec
	d := graph.Dict{
		"Type":    graph.Name("Annot"),
		"Subtype": graph.Name("Widget"),
		"F":       graph.Integer(4),
		"P":       page,
	}

	switch o := pl.opts.(type) {
	case *TextOptions:
		s.fieldEntries(d, fs, "Tx", o.FieldFlags)
		d["Rect"] = graph.Rect(fs.X, fs.Y, fs.X+o.Width, fs.Y+o.Height)
		s.decorate(d, o.Appearance, "")
		if o.Value != "" {
			d["V"] = graph.String(o.Value)
		}
		if o.MaxLen > 0 {
			d["MaxLen"] = graph.Integer(o.MaxLen)
		}

	case *CheckBoxOptions:
		s.fieldEntries(d, fs, "Btn", o.FieldFlags)
		d["Rect"] = graph.Rect(fs.X, fs.Y, fs.X+o.Size, fs.Y+o.Size)
		glyph := buttonStyles[strings.ToLower(o.ButtonStyle)]
		s.decorate(d, o.Appearance, glyph)
		d["DA"] = graph.String(defaultAppearanceString("ZaDb", 0, o.TextColor))
		ap := buttonStreams(s.doc, s.fonts, o.Appearance, o.Size, o.ButtonStyle)
		d["AP"] = graph.Dict{"N": graph.Dict{"Yes": ap.on, "Off": ap.off}}
		state := graph.Name("Off")
		if o.Checked {
			state = "Yes"
		}
		d["V"] = state
		d["AS"] = state

	case *ChoiceOptions:
		s.fieldEntries(d, fs, "Ch", o.FieldFlags)
		s.choiceEntries(d, fs, o)

	case *ListBoxOptions:
		s.fieldEntries(d, fs, "Ch", o.FieldFlags)
		s.choiceEntries(d, fs, &o.ChoiceOptions)

	case *RadioOptions:
		g := groups[fs.Name]
		if g.parent.IsZero() {
			g.parent = s.doc.Reserve()
			s.fields = append(s.fields, g.parent)
		}
		d["Parent"] = g.parent
		d["Rect"] = graph.Rect(fs.X, fs.Y, fs.X+o.Size, fs.Y+o.Size)
		glyph := buttonStyles[strings.ToLower(o.ButtonStyle)]
		s.decorate(d, o.Appearance, glyph)
		d["DA"] = graph.String(defaultAppearanceString("ZaDb", 0, o.TextColor))
		ap := buttonStreams(s.doc, s.fonts, o.Appearance, o.Size, o.ButtonStyle)
		d["AP"] = graph.Dict{"N": graph.Dict{o.Value: ap.on, "Off": ap.off}}
		d["AS"] = graph.Name("Off")
		if o.Selected {
			d["AS"] = graph.Name(o.Value)
		}
		ref := s.doc.Add(d)
		g.kids = append(g.kids, ref)
		return ref, nil

	default:
		return graph.Ref{}, pdferrors.NewPDFErrorWithContext(pdferrors.ErrorTypeUnknownFieldKind,
			"unsupported options", fmt.Sprintf("%T", pl.opts)).WithField(fs.Name)
	}

	ref := s.doc.Add(d)
	s.fields = append(s.fields, ref)
	return ref, nil
}

func (s *synthesizer) fieldEntries(d graph.Dict, fs FieldSpec, ft string, flags FieldFlags) {
	d["FT"] = graph.Name(ft)
	d["T"] = graph.String(fs.Name)
	if fs.UserLabel != "" {
		d["TU"] = graph.String(fs.UserLabel)
	}
	if flags != 0 {
		d["Ff"] = graph.Integer(flags)
	}
}

func (s *synthesizer) decorate(d graph.Dict, a Appearance, caption string) {
	d["MK"] = characteristics(a, caption)
	d["BS"] = borderStyle(a)
	d["DA"] = graph.String(defaultAppearanceString(s.fonts.resource(a.FontName), a.FontSize, a.TextColor))
}

func (s *synthesizer) choiceEntries(d graph.Dict, fs FieldSpec, o *ChoiceOptions) {
	d["Rect"] = graph.Rect(fs.X, fs.Y, fs.X+o.Width, fs.Y+o.Height)
	s.decorate(d, o.Appearance, "")

	opt := make(graph.Array, len(o.Options))
	for i, c := range o.Options {
		if c.Label == "" || c.Label == c.Value {
			opt[i] = graph.String(c.Value)
			continue
		}
		opt[i] = graph.Array{graph.String(c.Value), graph.String(c.Label)}
	}
	d["Opt"] = opt

	if o.Value != "" {
		for _, c := range o.Options {
			if c.Value == o.Value || c.Label == o.Value {
				d["V"] = graph.String(c.Value)
				break
			}
		}
		if _, ok := d["V"]; !ok {
			d["V"] = graph.String(o.Value)
		}
	}
}

// radioParent writes the group field that owns the radio kids
func (s *synthesizer) radioParent(g *radioGroup) error {
	value := graph.Name("Off")
	for _, m := range g.members {
		if ro := m.opts.(*RadioOptions); ro.Selected {
			value = graph.Name(ro.Value)
		}
	}

	parent := graph.Dict{
		"FT":   graph.Name("Btn"),
		"T":    graph.String(g.name),
		"Ff":   graph.Integer(g.flags | FlagRadio | FlagNoToggleToOff),
		"Kids": g.kids,
		"V":    value,
	}
	if g.label != "" {
		parent["TU"] = graph.String(g.label)
	}
	return s.doc.Set(g.parent, parent)
}
