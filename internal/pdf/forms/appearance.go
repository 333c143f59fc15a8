package forms

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/a3tai/mcp-pdf-fields/internal/pdf/graph"
)

// standardFonts maps the base-14 font names to their conventional AcroForm
// resource names
var standardFonts = map[string]string{
	"Helvetica":             "Helv",
	"Helvetica-Bold":        "HeBo",
	"Helvetica-Oblique":     "HeOb",
	"Helvetica-BoldOblique": "HeBO",
	"Times-Roman":           "TiRo",
	"Times-Bold":            "TiBo",
	"Times-Italic":          "TiIt",
	"Times-BoldItalic":      "TiBI",
	"Courier":               "Cour",
	"Courier-Bold":          "CoBo",
	"Courier-Oblique":       "CoOb",
	"Courier-BoldOblique":   "CoBO",
	"Symbol":                "Symb",
	"ZapfDingbats":          "ZaDb",
}

// canonicalFont returns the base-14 spelling of name
func canonicalFont(name string) (string, bool) {
	for base := range standardFonts {
		if strings.EqualFold(base, name) {
			return base, true
		}
	}
	return "", false
}

// fontTable creates font dictionaries on first use and records them for
// the AcroForm default resources
type fontTable struct {
	doc   *graph.Document
	fonts graph.Dict
}

func newFontTable(doc *graph.Document) *fontTable {
	t := &fontTable{doc: doc, fonts: graph.Dict{}}
	t.resource("Helvetica")
	t.resource("ZapfDingbats")
	return t
}

// resource returns the resource name of a base-14 font, adding it if needed
func (t *fontTable) resource(baseFont string) string {
	base, ok := canonicalFont(baseFont)
	if !ok {
		base = "Helvetica"
	}
	name := standardFonts[base]
	if _, ok := t.fonts[name]; ok {
		return name
	}

	font := graph.Dict{
		"Type":     graph.Name("Font"),
		"Subtype":  graph.Name("Type1"),
		"BaseFont": graph.Name(base),
		"Name":     graph.Name(name),
	}
	if base != "Symbol" && base != "ZapfDingbats" {
		font["Encoding"] = graph.Name("WinAnsiEncoding")
	}
	t.fonts[name] = t.doc.Add(font)
	return name
}

// ref returns the font reference registered under a resource name
func (t *fontTable) ref(name string) graph.Object {
	return t.fonts[name]
}

// defaultAppearanceString builds a /DA entry such as "/Helv 12 Tf 0 0 0 rg"
func defaultAppearanceString(font string, size float64, c *Color) string {
	color := "0 g"
	if c != nil {
		color = c.operator("rg")
	}
	return fmt.Sprintf("/%s %s Tf %s", font, fmtNum(size), color)
}

// characteristics builds the /MK dictionary of a widget
func characteristics(a Appearance, caption string) graph.Dict {
	mk := graph.Dict{}
	if a.BorderColor != nil {
		mk["BC"] = a.BorderColor.array()
	}
	if a.FillColor != nil {
		mk["BG"] = a.FillColor.array()
	}
	if caption != "" {
		mk["CA"] = graph.String(caption)
	}
	return mk
}

// borderStyle builds the /BS dictionary of a widget
func borderStyle(a Appearance) graph.Dict {
	width := a.BorderWidth
	if a.BorderColor == nil && !a.ForceBorder {
		width = 0
	}
	return graph.Dict{
		"W": graph.Real(width),
		"S": graph.Name(borderStyles[strings.ToLower(a.BorderStyle)]),
	}
}

// buttonAppearance holds the on and off appearance streams of a checkbox or
// radio widget
type buttonAppearance struct {
	on  graph.Ref
	off graph.Ref
}

// buttonStreams draws the on and off states of a size x size button. The
// on state carries the style's ZapfDingbats glyph; the circle style is
// drawn round.
func buttonStreams(doc *graph.Document, fonts *fontTable, a Appearance, size float64, style string) buttonAppearance {
	zadb := fonts.resource("ZapfDingbats")
	resources := graph.Dict{
		"Font": graph.Dict{zadb: fonts.ref(zadb)},
	}

	frame := buttonFrame(a, size, strings.EqualFold(style, "circle"))

	var on bytes.Buffer
	on.WriteString(frame)
	glyph := buttonStyles[strings.ToLower(style)]
	fontSize := size * 0.75
	textColor := Color{}
	if a.TextColor != nil {
		textColor = *a.TextColor
	}
	fmt.Fprintf(&on, "q\nBT\n/%s %s Tf\n%s\n%s %s Td\n(%s) Tj\nET\nQ\n",
		zadb, fmtNum(fontSize), textColor.operator("rg"),
		fmtNum((size-fontSize*0.7)/2), fmtNum((size-fontSize*0.7)/2), glyph)

	formXObject := func(content string) graph.Ref {
		return doc.Add(&graph.Stream{
			Dict: graph.Dict{
				"Type":      graph.Name("XObject"),
				"Subtype":   graph.Name("Form"),
				"BBox":      graph.Rect(0, 0, size, size),
				"Resources": resources,
			},
			Data: []byte(content),
		})
	}

	return buttonAppearance{
		on:  formXObject(on.String()),
		off: formXObject(frame),
	}
}

// buttonFrame paints the background and border of a button
func buttonFrame(a Appearance, size float64, round bool) string {
	var b bytes.Buffer
	half := size / 2
	if a.FillColor != nil {
		b.WriteString("q\n" + a.FillColor.operator("rg") + "\n")
		if round {
			circle(&b, half, half, half)
		} else {
			fmt.Fprintf(&b, "0 0 %s %s re\n", fmtNum(size), fmtNum(size))
		}
		b.WriteString("f\nQ\n")
	}
	if (a.BorderColor != nil || a.ForceBorder) && a.BorderWidth > 0 {
		border := Color{}
		if a.BorderColor != nil {
			border = *a.BorderColor
		}
		w := a.BorderWidth
		fmt.Fprintf(&b, "q\n%s\n%s w\n", border.operator("RG"), fmtNum(w))
		if round {
			circle(&b, half, half, half-w/2)
		} else {
			fmt.Fprintf(&b, "%s %s %s %s re\n", fmtNum(w/2), fmtNum(w/2), fmtNum(size-w), fmtNum(size-w))
		}
		b.WriteString("S\nQ\n")
	}
	return b.String()
}

// circle appends a closed four-segment Bezier approximation of a circle
func circle(b *bytes.Buffer, cx, cy, r float64) {
	const kappa = 0.5523
	k := r * kappa
	fmt.Fprintf(b, "%s %s m\n", fmtNum(cx+r), fmtNum(cy))
	fmt.Fprintf(b, "%s %s %s %s %s %s c\n", fmtNum(cx+r), fmtNum(cy+k), fmtNum(cx+k), fmtNum(cy+r), fmtNum(cx), fmtNum(cy+r))
	fmt.Fprintf(b, "%s %s %s %s %s %s c\n", fmtNum(cx-k), fmtNum(cy+r), fmtNum(cx-r), fmtNum(cy+k), fmtNum(cx-r), fmtNum(cy))
	fmt.Fprintf(b, "%s %s %s %s %s %s c\n", fmtNum(cx-r), fmtNum(cy-k), fmtNum(cx-k), fmtNum(cy-r), fmtNum(cx), fmtNum(cy-r))
	fmt.Fprintf(b, "%s %s %s %s %s %s c\n", fmtNum(cx+k), fmtNum(cy-r), fmtNum(cx+r), fmtNum(cy-k), fmtNum(cx+r), fmtNum(cy))
	b.WriteString("h\n")
}
