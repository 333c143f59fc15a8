package forms

import (
	"sort"
	"strconv"
	"strings"

	pdferrors "github.com/a3tai/mcp-pdf-fields/internal/pdf/errors"
)

// FieldFlags is the /Ff bit set of a field
type FieldFlags uint32

const (
	FlagReadOnly          FieldFlags = 1 << 0
	FlagRequired          FieldFlags = 1 << 1
	FlagNoExport          FieldFlags = 1 << 2
	FlagMultiline         FieldFlags = 1 << 12
	FlagPassword          FieldFlags = 1 << 13
	FlagNoToggleToOff     FieldFlags = 1 << 14
	FlagRadio             FieldFlags = 1 << 15
	FlagPushButton        FieldFlags = 1 << 16
	FlagCombo             FieldFlags = 1 << 17
	FlagEdit              FieldFlags = 1 << 18
	FlagSort              FieldFlags = 1 << 19
	FlagFileSelect        FieldFlags = 1 << 20
	FlagMultiSelect       FieldFlags = 1 << 21
	FlagDoNotSpellCheck   FieldFlags = 1 << 22
	FlagDoNotScroll       FieldFlags = 1 << 23
	FlagComb              FieldFlags = 1 << 24
	FlagRadiosInUnison    FieldFlags = 1 << 25
	FlagCommitOnSelChange FieldFlags = 1 << 26
)

var flagNames = map[string]FieldFlags{
	"readonly":          FlagReadOnly,
	"required":          FlagRequired,
	"noexport":          FlagNoExport,
	"multiline":         FlagMultiline,
	"password":          FlagPassword,
	"notoggletooff":     FlagNoToggleToOff,
	"radio":             FlagRadio,
	"pushbutton":        FlagPushButton,
	"combo":             FlagCombo,
	"edit":              FlagEdit,
	"sort":              FlagSort,
	"fileselect":        FlagFileSelect,
	"multiselect":       FlagMultiSelect,
	"donotspellcheck":   FlagDoNotSpellCheck,
	"donotscroll":       FlagDoNotScroll,
	"comb":              FlagComb,
	"radiosinunison":    FlagRadiosInUnison,
	"commitonselchange": FlagCommitOnSelChange,
}

// ParseFieldFlags parses a space, comma or pipe separated list of flag
// names such as "doNotScroll required", or a decimal bit set
func ParseFieldFlags(s string) (FieldFlags, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.ParseUint(s, 10, 32); err == nil {
		return FieldFlags(n), nil
	}

	var flags FieldFlags
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == ',' || r == '|'
	})
	for _, p := range parts {
		f, ok := flagNames[strings.ToLower(p)]
		if !ok {
			return 0, pdferrors.Configuration("unknown field flag %q", p)
		}
		flags |= f
	}
	return flags, nil
}

// Has reports whether every bit of f is set
func (ff FieldFlags) Has(f FieldFlags) bool {
	return ff&f == f
}

// String lists the set flag names in bit order
func (ff FieldFlags) String() string {
	type named struct {
		name string
		bit  FieldFlags
	}
	var set []named
	for name, bit := range flagNames {
		if ff.Has(bit) {
			set = append(set, named{name, bit})
		}
	}
	sort.Slice(set, func(i, j int) bool { return set[i].bit < set[j].bit })

	names := make([]string, len(set))
	for i, n := range set {
		names[i] = n.name
	}
	return strings.Join(names, " ")
}
