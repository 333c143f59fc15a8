package security

// Permissions is the user access flag word stored in the P entry of a
// standard security handler's encryption dictionary. Bit numbers below are
// counted from 1 as in the PDF reference.
type Permissions int32

const (
	PermPrint            Permissions = 1 << 2  // bit 3
	PermModify           Permissions = 1 << 3  // bit 4
	PermCopy             Permissions = 1 << 4  // bit 5
	PermAnnotate         Permissions = 1 << 5  // bit 6
	PermFillForms        Permissions = 1 << 8  // bit 9
	PermExtract          Permissions = 1 << 9  // bit 10
	PermAssemble         Permissions = 1 << 10 // bit 11
	PermPrintHighQuality Permissions = 1 << 11 // bit 12
)

var permissionNames = []struct {
	bit  Permissions
	name string
}{
	{PermPrint, "print"},
	{PermModify, "modify"},
	{PermCopy, "copy"},
	{PermAnnotate, "annotate"},
	{PermFillForms, "fill_forms"},
	{PermExtract, "extract"},
	{PermAssemble, "assemble"},
	{PermPrintHighQuality, "print_high_quality"},
}

// AllPermissions grants every operation
const AllPermissions Permissions = -1

// Has reports whether every bit in perm is granted
func (p Permissions) Has(perm Permissions) bool {
	return p&perm == perm
}

// Allowed lists the granted operations in bit order
func (p Permissions) Allowed() []string {
	var names []string
	for _, n := range permissionNames {
		if p.Has(n.bit) {
			names = append(names, n.name)
		}
	}
	return names
}

// Denied lists the withheld operations in bit order
func (p Permissions) Denied() []string {
	var names []string
	for _, n := range permissionNames {
		if !p.Has(n.bit) {
			names = append(names, n.name)
		}
	}
	return names
}

// CanAddFields reports whether interactive form fields may be created.
// Bit 6 only covers creating fields when bit 4 is set as well.
func (p Permissions) CanAddFields() bool {
	return p.Has(PermModify | PermAnnotate)
}
