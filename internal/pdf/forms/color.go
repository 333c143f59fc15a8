package forms

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/a3tai/mcp-pdf-fields/internal/pdf/graph"
	pdferrors "github.com/a3tai/mcp-pdf-fields/internal/pdf/errors"
)

// Color is an RGB color with components in [0, 1]
type Color struct {
	R float64
	G float64
	B float64
}

var namedColors = map[string]Color{
	"black":     {0, 0, 0},
	"white":     {1, 1, 1},
	"red":       {1, 0, 0},
	"green":     {0, 0.501961, 0},
	"blue":      {0, 0, 1},
	"yellow":    {1, 1, 0},
	"cyan":      {0, 1, 1},
	"magenta":   {1, 0, 1},
	"pink":      {1, 0.752941, 0.796078},
	"orange":    {1, 0.647059, 0},
	"gray":      {0.501961, 0.501961, 0.501961},
	"grey":      {0.501961, 0.501961, 0.501961},
	"lightgrey": {0.827451, 0.827451, 0.827451},
	"navy":      {0, 0, 0.501961},
}

// ParseColor accepts a color name or a #rgb / #rrggbb hex value
func ParseColor(s string) (Color, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if c, ok := namedColors[v]; ok {
		return c, nil
	}

	hex := strings.TrimPrefix(v, "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 && len(hex) != len(v) {
		n, err := strconv.ParseUint(hex, 16, 32)
		if err == nil {
			return Color{
				R: float64(n>>16&0xff) / 255,
				G: float64(n>>8&0xff) / 255,
				B: float64(n&0xff) / 255,
			}, nil
		}
	}
	return Color{}, pdferrors.Configuration("unknown color %q", s)
}

// Validate checks that every component lies in [0, 1]
func (c Color) Validate() error {
	for _, v := range []float64{c.R, c.G, c.B} {
		if v < 0 || v > 1 {
			return pdferrors.Configuration("color component %g out of range [0, 1]", v)
		}
	}
	return nil
}

// array returns the color as a PDF DeviceRGB array
func (c Color) array() graph.Array {
	return graph.Array{graph.Real(c.R), graph.Real(c.G), graph.Real(c.B)}
}

// operator returns the content-stream operator that sets c as the fill
// (rg) or stroke (RG) color
func (c Color) operator(op string) string {
	return fmt.Sprintf("%s %s %s %s", fmtNum(c.R), fmtNum(c.G), fmtNum(c.B), op)
}

func fmtNum(f float64) string {
	return graph.FormatReal(f)
}
