package forms

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pdferrors "github.com/a3tai/mcp-pdf-fields/internal/pdf/errors"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{in: "text", want: KindText},
		{in: "TEXT", want: KindText},
		{in: " CheckBox ", want: KindCheckBox},
		{in: "listbox", want: KindListBox},
		{in: "Choice", want: KindChoice},
		{in: "radio", want: KindRadio},
		{in: "signature", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKind(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, pdferrors.ErrUnknownFieldKind))
				assert.True(t, errors.Is(err, pdferrors.ErrConfiguration), "unknown kind is a configuration error")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKind_TextRoundTrip(t *testing.T) {
	var k Kind
	require.NoError(t, k.UnmarshalText([]byte("Radio")))
	assert.Equal(t, KindRadio, k)

	b, err := k.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "radio", string(b))

	_, err = Kind(42).MarshalText()
	assert.Error(t, err)
}

func TestDefaultOptions(t *testing.T) {
	text, err := DecodeOptions(KindText, nil)
	require.NoError(t, err)
	to := text.(*TextOptions)
	assert.Equal(t, 120.0, to.Width)
	assert.Equal(t, 36.0, to.Height)
	assert.Equal(t, FlagDoNotScroll, to.FieldFlags)
	assert.Equal(t, "Helvetica", to.FontName)

	cb, err := DecodeOptions(KindCheckBox, nil)
	require.NoError(t, err)
	co := cb.(*CheckBoxOptions)
	assert.Equal(t, 20.0, co.Size)
	assert.Equal(t, "check", co.ButtonStyle)
	assert.True(t, co.ForceBorder)
	assert.Equal(t, Color{1, 0, 1}, *co.BorderColor)
	assert.Equal(t, Color{1, 0.752941, 0.796078}, *co.FillColor)
	assert.Equal(t, Color{0, 0, 1}, *co.TextColor)

	lb := NewListBoxOptions()
	assert.Equal(t, FlagMultiSelect, lb.FieldFlags)
	assert.Equal(t, FlagCombo, NewChoiceOptions().FieldFlags)
	assert.Equal(t, "circle", NewRadioOptions().ButtonStyle)
}

func TestDefaultsAreNotShared(t *testing.T) {
	a := NewCheckBoxOptions()
	a.BorderColor.R = 0

	b := NewCheckBoxOptions()
	assert.Equal(t, 1.0, b.BorderColor.R)
}

func TestDecodeOptions_Overrides(t *testing.T) {
	tests := []struct {
		name  string
		kind  Kind
		raw   map[string]interface{}
		check func(t *testing.T, o Options)
	}{
		{
			name: "explicit width keeps default height",
			kind: KindText,
			raw:  map[string]interface{}{"width": 200},
			check: func(t *testing.T, o Options) {
				to := o.(*TextOptions)
				assert.Equal(t, 200.0, to.Width)
				assert.Equal(t, 36.0, to.Height)
			},
		},
		{
			name: "numeric strings are accepted",
			kind: KindText,
			raw:  map[string]interface{}{"width": "150.5"},
			check: func(t *testing.T, o Options) {
				assert.Equal(t, 150.5, o.(*TextOptions).Width)
			},
		},
		{
			name: "keys match case-insensitively",
			kind: KindText,
			raw:  map[string]interface{}{"Width": 90, "FONTSIZE": 9},
			check: func(t *testing.T, o Options) {
				to := o.(*TextOptions)
				assert.Equal(t, 90.0, to.Width)
				assert.Equal(t, 9.0, to.FontSize)
			},
		},
		{
			name: "flag names replace the default flags",
			kind: KindText,
			raw:  map[string]interface{}{"fieldFlags": "required multiline"},
			check: func(t *testing.T, o Options) {
				assert.Equal(t, FlagRequired|FlagMultiline, o.(*TextOptions).FieldFlags)
			},
		},
		{
			name: "flags as a number",
			kind: KindText,
			raw:  map[string]interface{}{"fieldFlags": 2},
			check: func(t *testing.T, o Options) {
				assert.Equal(t, FlagRequired, o.(*TextOptions).FieldFlags)
			},
		},
		{
			name: "color by name",
			kind: KindCheckBox,
			raw:  map[string]interface{}{"borderColor": "red"},
			check: func(t *testing.T, o Options) {
				co := o.(*CheckBoxOptions)
				assert.Equal(t, Color{1, 0, 0}, *co.BorderColor)
				assert.Equal(t, Color{1, 0.752941, 0.796078}, *co.FillColor, "unspecified colors keep defaults")
			},
		},
		{
			name: "color by hex",
			kind: KindCheckBox,
			raw:  map[string]interface{}{"fillColor": "#00ff00"},
			check: func(t *testing.T, o Options) {
				assert.Equal(t, Color{0, 1, 0}, *o.(*CheckBoxOptions).FillColor)
			},
		},
		{
			name: "color by components",
			kind: KindText,
			raw:  map[string]interface{}{"textColor": []interface{}{0.5, 0, 1}},
			check: func(t *testing.T, o Options) {
				assert.Equal(t, Color{0.5, 0, 1}, *o.(*TextOptions).TextColor)
			},
		},
		{
			name: "checkbox size from detection",
			kind: KindCheckBox,
			raw:  map[string]interface{}{"size": 11.52, "checked": true},
			check: func(t *testing.T, o Options) {
				co := o.(*CheckBoxOptions)
				assert.Equal(t, 11.52, co.Size)
				assert.True(t, co.Checked)
			},
		},
		{
			name: "choice options as strings and pairs",
			kind: KindChoice,
			raw: map[string]interface{}{
				"options": []interface{}{"a", []interface{}{"b", "Bee"}},
				"value":   "Bee",
			},
			check: func(t *testing.T, o Options) {
				co := o.(*ChoiceOptions)
				assert.Equal(t, []ChoiceOption{{Value: "a", Label: "a"}, {Value: "b", Label: "Bee"}}, co.Options)
				assert.Equal(t, FlagCombo, co.FieldFlags)
			},
		},
		{
			name: "listbox options as maps",
			kind: KindListBox,
			raw: map[string]interface{}{
				"options": []interface{}{map[string]interface{}{"value": "x", "label": "Ex"}},
			},
			check: func(t *testing.T, o Options) {
				lo := o.(*ListBoxOptions)
				assert.Equal(t, []ChoiceOption{{Value: "x", Label: "Ex"}}, lo.Options)
				assert.Equal(t, FlagMultiSelect, lo.FieldFlags)
			},
		},
		{
			name: "radio value",
			kind: KindRadio,
			raw:  map[string]interface{}{"value": "yes", "selected": true},
			check: func(t *testing.T, o Options) {
				ro := o.(*RadioOptions)
				assert.Equal(t, "yes", ro.Value)
				assert.True(t, ro.Selected)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := DecodeOptions(tt.kind, tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, o.Kind())
			tt.check(t, o)
		})
	}
}

func TestDecodeOptions_Errors(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
		raw  map[string]interface{}
	}{
		{name: "unknown key", kind: KindText, raw: map[string]interface{}{"colour": "red"}},
		{name: "choice without options", kind: KindChoice, raw: map[string]interface{}{"value": "a"}},
		{name: "choice with empty options", kind: KindChoice, raw: map[string]interface{}{"options": []interface{}{}}},
		{name: "choice value not an option", kind: KindChoice, raw: map[string]interface{}{"options": []interface{}{"a", "b"}, "value": "c"}},
		{name: "listbox without options", kind: KindListBox, raw: nil},
		{name: "radio without value", kind: KindRadio, raw: nil},
		{name: "negative width", kind: KindText, raw: map[string]interface{}{"width": -1}},
		{name: "zero checkbox size", kind: KindCheckBox, raw: map[string]interface{}{"size": 0}},
		{name: "unknown color", kind: KindText, raw: map[string]interface{}{"borderColor": "chartreuse-ish"}},
		{name: "color out of range", kind: KindText, raw: map[string]interface{}{"fillColor": []interface{}{2, 0, 0}}},
		{name: "unknown flag", kind: KindText, raw: map[string]interface{}{"fieldFlags": "flying"}},
		{name: "unknown button style", kind: KindCheckBox, raw: map[string]interface{}{"buttonStyle": "triangle"}},
		{name: "unknown border style", kind: KindText, raw: map[string]interface{}{"borderStyle": "wavy"}},
		{name: "non standard font", kind: KindText, raw: map[string]interface{}{"fontName": "Comic Sans"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeOptions(tt.kind, tt.raw)
			require.Error(t, err)
			assert.True(t, errors.Is(err, pdferrors.ErrConfiguration), "got %v", err)
		})
	}
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#f00")
	require.NoError(t, err)
	assert.Equal(t, Color{1, 0, 0}, c)

	c, err = ParseColor("Magenta")
	require.NoError(t, err)
	assert.Equal(t, Color{1, 0, 1}, c)

	_, err = ParseColor("ff0000")
	assert.Error(t, err, "hex needs a leading #")
}

func TestParseFieldFlags(t *testing.T) {
	f, err := ParseFieldFlags("doNotScroll|required, readOnly")
	require.NoError(t, err)
	assert.Equal(t, FlagDoNotScroll|FlagRequired|FlagReadOnly, f)
	assert.Equal(t, "readonly required donotscroll", f.String())

	f, err = ParseFieldFlags("")
	require.NoError(t, err)
	assert.Zero(t, f)
}

func TestNewFieldSpec(t *testing.T) {
	fs, err := NewFieldSpec("name", "TeXt", 10, 20, "Your name", map[string]interface{}{"width": 50})
	require.NoError(t, err)
	assert.Equal(t, KindText, fs.Kind)
	assert.Equal(t, "Your name", fs.UserLabel)
	assert.Equal(t, 50.0, fs.Options.(*TextOptions).Width)

	_, err = NewFieldSpec("x", "slider", 0, 0, "", nil)
	assert.True(t, errors.Is(err, pdferrors.ErrUnknownFieldKind))
}

func TestFieldSpec_ResolvedOptions(t *testing.T) {
	fs := FieldSpec{Name: "a", Kind: KindText}
	o, err := fs.ResolvedOptions()
	require.NoError(t, err)
	assert.Equal(t, 120.0, o.(*TextOptions).Width)

	mismatch := FieldSpec{Name: "a", Kind: KindText, Options: NewCheckBoxOptions()}
	_, err = mismatch.ResolvedOptions()
	assert.True(t, errors.Is(err, pdferrors.ErrConfiguration))
}

func TestParseSpecs(t *testing.T) {
	layout := `
pages:
  - - name: full_name
      kind: text
      x: 72
      y: 700
      label: Full name
      options:
        width: 200
    - name: agree
      kind: CheckBox
      x: 72
      y: 650
  - []
  - - name: color
      kind: choice
      x: 72
      y: 600
      options:
        options: [red, [grn, Green]]
        value: Green
`
	pages, err := ParseSpecs([]byte(layout))
	require.NoError(t, err)
	require.Len(t, pages, 3)
	assert.Len(t, pages[0], 2)
	assert.Empty(t, pages[1])
	assert.Equal(t, 3, CountFields(pages))

	assert.Equal(t, "full_name", pages[0][0].Name)
	assert.Equal(t, 200.0, pages[0][0].Options.(*TextOptions).Width)
	assert.Equal(t, KindCheckBox, pages[0][1].Kind)
	assert.Equal(t, "grn", pages[2][0].Options.(*ChoiceOptions).Options[1].Value)

	json := `{"pages": [[{"name": "a", "kind": "text", "x": 1, "y": 2}]]}`
	pages, err = ParseSpecs([]byte(json))
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, "a", pages[0][0].Name)

	_, err = ParseSpecs([]byte(`pages: [[{name: a, kind: dial}]]`))
	assert.True(t, errors.Is(err, pdferrors.ErrUnknownFieldKind))
}
