// Package forms synthesizes AcroForm fields into a fields-only document and
// grafts the field graph of one document onto another.
package forms

import (
	"fmt"
	"strings"

	pdferrors "github.com/a3tai/mcp-pdf-fields/internal/pdf/errors"
)

// Kind is the type of a form field
type Kind int

const (
	KindText Kind = iota + 1
	KindCheckBox
	KindListBox
	KindChoice
	KindRadio
)

var kindNames = map[Kind]string{
	KindText:     "text",
	KindCheckBox: "checkbox",
	KindListBox:  "listbox",
	KindChoice:   "choice",
	KindRadio:    "radio",
}

// Kinds returns every supported kind in declaration order
func Kinds() []Kind {
	return []Kind{KindText, KindCheckBox, KindListBox, KindChoice, KindRadio}
}

// ParseKind matches a kind name case-insensitively
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, pdferrors.NewPDFErrorWithContext(pdferrors.ErrorTypeUnknownFieldKind,
		"unknown field kind", fmt.Sprintf("%q (want one of text, checkbox, listbox, choice, radio)", s))
}

// String returns the lower-case kind name
func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Valid reports whether k is one of the supported kinds
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// MarshalText implements encoding.TextMarshaler
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, pdferrors.NewPDFErrorWithContext(pdferrors.ErrorTypeUnknownFieldKind,
			"unknown field kind", k.String())
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
