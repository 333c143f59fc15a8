package forms

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-viper/mapstructure/v2"

	pdferrors "github.com/a3tai/mcp-pdf-fields/internal/pdf/errors"
)

// Options is the typed configuration of one field kind.
//
// Options are built by DecodeOptions with a fixed merge order: the kind's
// defaults first, then every key of the caller's map overrides the matching
// setting. Keys are matched case-insensitively; unknown keys are rejected.
type Options interface {
	Kind() Kind
	Validate() error
}

// Appearance holds the visual settings shared by all widget kinds
type Appearance struct {
	BorderColor *Color  `mapstructure:"borderColor"`
	FillColor   *Color  `mapstructure:"fillColor"`
	TextColor   *Color  `mapstructure:"textColor"`
	BorderWidth float64 `mapstructure:"borderWidth"`
	BorderStyle string  `mapstructure:"borderStyle"`
	ForceBorder bool    `mapstructure:"forceBorder"`
	FontName    string  `mapstructure:"fontName"`
	FontSize    float64 `mapstructure:"fontSize"`
}

// TextOptions configures a text field
type TextOptions struct {
	Appearance `mapstructure:",squash"`
	Width      float64    `mapstructure:"width"`
	Height     float64    `mapstructure:"height"`
	Value      string     `mapstructure:"value"`
	MaxLen     int        `mapstructure:"maxlen"`
	FieldFlags FieldFlags `mapstructure:"fieldFlags"`
}

// CheckBoxOptions configures a checkbox
type CheckBoxOptions struct {
	Appearance  `mapstructure:",squash"`
	Size        float64    `mapstructure:"size"`
	ButtonStyle string     `mapstructure:"buttonStyle"`
	Checked     bool       `mapstructure:"checked"`
	FieldFlags  FieldFlags `mapstructure:"fieldFlags"`
}

// ChoiceOption is one entry of a list box or combo box
type ChoiceOption struct {
	Value string `mapstructure:"value"`
	Label string `mapstructure:"label"`
}

// ChoiceOptions configures a single-selection drop-down (combo box)
type ChoiceOptions struct {
	Appearance `mapstructure:",squash"`
	Width      float64        `mapstructure:"width"`
	Height     float64        `mapstructure:"height"`
	Value      string         `mapstructure:"value"`
	Options    []ChoiceOption `mapstructure:"options"`
	FieldFlags FieldFlags     `mapstructure:"fieldFlags"`
}

// ListBoxOptions configures a scrolling list that allows multiple selection
type ListBoxOptions struct {
	ChoiceOptions `mapstructure:",squash"`
}

// RadioOptions configures one button of a radio group
type RadioOptions struct {
	Appearance  `mapstructure:",squash"`
	Size        float64    `mapstructure:"size"`
	ButtonStyle string     `mapstructure:"buttonStyle"`
	Value       string     `mapstructure:"value"`
	Selected    bool       `mapstructure:"selected"`
	FieldFlags  FieldFlags `mapstructure:"fieldFlags"`
}

// Kind implements Options
func (*TextOptions) Kind() Kind { return KindText }

// Kind implements Options
func (*CheckBoxOptions) Kind() Kind { return KindCheckBox }

// Kind implements Options
func (*ChoiceOptions) Kind() Kind { return KindChoice }

// Kind implements Options
func (*ListBoxOptions) Kind() Kind { return KindListBox }

// Kind implements Options
func (*RadioOptions) Kind() Kind { return KindRadio }

var (
	black   = Color{0, 0, 0}
	magenta = Color{1, 0, 1}
	pink    = Color{1, 0.752941, 0.796078}
	blue    = Color{0, 0, 1}
)

func colorPtr(c Color) *Color { return &c }

func defaultAppearance() Appearance {
	return Appearance{
		BorderColor: colorPtr(black),
		TextColor:   colorPtr(black),
		BorderWidth: 1,
		BorderStyle: "solid",
		FontName:    "Helvetica",
		FontSize:    12,
	}
}

// NewTextOptions returns the text field defaults
func NewTextOptions() *TextOptions {
	return &TextOptions{
		Appearance: defaultAppearance(),
		Width:      120,
		Height:     36,
		FieldFlags: FlagDoNotScroll,
	}
}

// NewCheckBoxOptions returns the checkbox defaults
func NewCheckBoxOptions() *CheckBoxOptions {
	a := defaultAppearance()
	a.BorderColor = colorPtr(magenta)
	a.FillColor = colorPtr(pink)
	a.TextColor = colorPtr(blue)
	a.ForceBorder = true
	return &CheckBoxOptions{
		Appearance:  a,
		Size:        20,
		ButtonStyle: "check",
	}
}

// NewChoiceOptions returns the drop-down defaults
func NewChoiceOptions() *ChoiceOptions {
	return &ChoiceOptions{
		Appearance: defaultAppearance(),
		Width:      120,
		Height:     36,
		FieldFlags: FlagCombo,
	}
}

// NewListBoxOptions returns the list box defaults
func NewListBoxOptions() *ListBoxOptions {
	c := NewChoiceOptions()
	c.FieldFlags = FlagMultiSelect
	return &ListBoxOptions{ChoiceOptions: *c}
}

// NewRadioOptions returns the radio button defaults
func NewRadioOptions() *RadioOptions {
	return &RadioOptions{
		Appearance:  defaultAppearance(),
		Size:        20,
		ButtonStyle: "circle",
	}
}

// DefaultOptions returns the defaults for kind
func DefaultOptions(kind Kind) (Options, error) {
	switch kind {
	case KindText:
		return NewTextOptions(), nil
	case KindCheckBox:
		return NewCheckBoxOptions(), nil
	case KindListBox:
		return NewListBoxOptions(), nil
	case KindChoice:
		return NewChoiceOptions(), nil
	case KindRadio:
		return NewRadioOptions(), nil
	default:
		return nil, pdferrors.NewPDFErrorWithContext(pdferrors.ErrorTypeUnknownFieldKind,
			"unknown field kind", kind.String())
	}
}

// DecodeOptions merges raw over the defaults of kind and validates the result
func DecodeOptions(kind Kind, raw map[string]interface{}) (Options, error) {
	opts, err := DefaultOptions(kind)
	if err != nil {
		return nil, err
	}

	if len(raw) > 0 {
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           opts,
			ErrorUnused:      true,
			WeaklyTypedInput: true,
			DecodeHook:       optionHook,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create option decoder: %w", err)
		}
		if err := dec.Decode(raw); err != nil {
			return nil, pdferrors.Configuration("invalid %s options", kind).WithContext(err.Error())
		}
	}

	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return opts, nil
}

var (
	colorType        = reflect.TypeOf(Color{})
	flagsType        = reflect.TypeOf(FieldFlags(0))
	choiceOptionType = reflect.TypeOf(ChoiceOption{})
)

// optionHook converts the loose shapes accepted in option maps
func optionHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	switch to {
	case colorType:
		return decodeColor(data)
	case flagsType:
		if s, ok := data.(string); ok {
			return ParseFieldFlags(s)
		}
	case choiceOptionType:
		return decodeChoiceOption(data)
	}
	return data, nil
}

func decodeColor(data interface{}) (interface{}, error) {
	switch v := data.(type) {
	case string:
		return ParseColor(v)
	case []interface{}:
		if len(v) != 3 {
			return nil, fmt.Errorf("color needs 3 components, got %d", len(v))
		}
		var c [3]float64
		for i, comp := range v {
			f, err := toFloat(comp)
			if err != nil {
				return nil, err
			}
			c[i] = f
		}
		return Color{c[0], c[1], c[2]}, nil
	case []float64:
		if len(v) != 3 {
			return nil, fmt.Errorf("color needs 3 components, got %d", len(v))
		}
		return Color{v[0], v[1], v[2]}, nil
	}
	return data, nil
}

// decodeChoiceOption accepts "value" or [export, display]
func decodeChoiceOption(data interface{}) (interface{}, error) {
	switch v := data.(type) {
	case string:
		return ChoiceOption{Value: v, Label: v}, nil
	case []string:
		if len(v) != 2 {
			return nil, fmt.Errorf("option pair needs 2 entries, got %d", len(v))
		}
		return ChoiceOption{Value: v[0], Label: v[1]}, nil
	case []interface{}:
		if len(v) != 2 {
			return nil, fmt.Errorf("option pair needs 2 entries, got %d", len(v))
		}
		return ChoiceOption{Value: fmt.Sprint(v[0]), Label: fmt.Sprint(v[1])}, nil
	}
	return data, nil
}

func toFloat(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		return strconv.ParseFloat(n, 64)
	default:
		return 0, fmt.Errorf("not a number: %v", v)
	}
}

var buttonStyles = map[string]string{
	"check":    "4",
	"cross":    "8",
	"circle":   "l",
	"star":     "H",
	"diamond":  "u",
	"square":   "n",
	"checkbox": "4",
}

// Validate implements Options
func (o *TextOptions) Validate() error {
	if o.Width <= 0 || o.Height <= 0 {
		return pdferrors.Configuration("text field needs positive width and height, got %gx%g", o.Width, o.Height)
	}
	if o.MaxLen < 0 {
		return pdferrors.Configuration("maxlen must not be negative")
	}
	return o.Appearance.validate()
}

// Validate implements Options
func (o *CheckBoxOptions) Validate() error {
	if o.Size <= 0 {
		return pdferrors.Configuration("checkbox needs a positive size, got %g", o.Size)
	}
	if _, ok := buttonStyles[strings.ToLower(o.ButtonStyle)]; !ok {
		return pdferrors.Configuration("unknown button style %q", o.ButtonStyle)
	}
	return o.Appearance.validate()
}

// Validate implements Options
func (o *ChoiceOptions) Validate() error {
	if err := o.validateList("choice"); err != nil {
		return err
	}
	if !o.hasValue(o.Value) {
		return pdferrors.Configuration("choice value %q is not one of its options", o.Value)
	}
	return nil
}

// Validate implements Options
func (o *ListBoxOptions) Validate() error {
	return o.validateList("listbox")
}

func (o *ChoiceOptions) validateList(kind string) error {
	if len(o.Options) == 0 {
		return pdferrors.Configuration("%s needs a non-empty options list", kind)
	}
	if o.Width <= 0 || o.Height <= 0 {
		return pdferrors.Configuration("%s needs positive width and height, got %gx%g", kind, o.Width, o.Height)
	}
	return o.Appearance.validate()
}

func (o *ChoiceOptions) hasValue(v string) bool {
	for _, opt := range o.Options {
		if opt.Value == v || opt.Label == v {
			return true
		}
	}
	return false
}

// Validate implements Options
func (o *RadioOptions) Validate() error {
	if o.Value == "" {
		return pdferrors.Configuration("radio button needs a value")
	}
	if o.Size <= 0 {
		return pdferrors.Configuration("radio button needs a positive size, got %g", o.Size)
	}
	if _, ok := buttonStyles[strings.ToLower(o.ButtonStyle)]; !ok {
		return pdferrors.Configuration("unknown button style %q", o.ButtonStyle)
	}
	return o.Appearance.validate()
}

var borderStyles = map[string]string{
	"solid":      "S",
	"dashed":     "D",
	"bevelled":   "B",
	"inset":      "I",
	"underlined": "U",
}

func (a *Appearance) validate() error {
	if a.BorderWidth < 0 {
		return pdferrors.Configuration("border width must not be negative")
	}
	if _, ok := borderStyles[strings.ToLower(a.BorderStyle)]; !ok {
		return pdferrors.Configuration("unknown border style %q", a.BorderStyle)
	}
	if a.FontSize < 0 {
		return pdferrors.Configuration("font size must not be negative")
	}
	if _, ok := canonicalFont(a.FontName); !ok {
		return pdferrors.Configuration("font %q is not a standard font", a.FontName)
	}
	for _, c := range []*Color{a.BorderColor, a.FillColor, a.TextColor} {
		if c == nil {
			continue
		}
		if err := c.Validate(); err != nil {
			return err
		}
	}
	return nil
}
