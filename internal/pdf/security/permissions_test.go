package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPermissions_Allowed(t *testing.T) {
	tests := []struct {
		name    string
		perms   Permissions
		allowed []string
		denied  []string
	}{
		{
			name:    "all granted",
			perms:   AllPermissions,
			allowed: []string{"print", "modify", "copy", "annotate", "fill_forms", "extract", "assemble", "print_high_quality"},
		},
		{
			name:   "nothing granted",
			perms:  0,
			denied: []string{"print", "modify", "copy", "annotate", "fill_forms", "extract", "assemble", "print_high_quality"},
		},
		{
			name:    "print only",
			perms:   PermPrint | PermPrintHighQuality,
			allowed: []string{"print", "print_high_quality"},
			denied:  []string{"modify", "copy", "annotate", "fill_forms", "extract", "assemble"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.perms.Allowed())
			assert.Equal(t, tt.denied, tt.perms.Denied())
		})
	}
}

func TestPermissions_CanAddFields(t *testing.T) {
	tests := []struct {
		name  string
		perms Permissions
		want  bool
	}{
		{"all granted", AllPermissions, true},
		{"modify and annotate", PermModify | PermAnnotate, true},
		{"annotate only", PermAnnotate | PermFillForms, false},
		{"modify only", PermModify, false},
		{"fill forms only", PermFillForms, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.perms.CanAddFields())
		})
	}
}

func TestPermissions_Has(t *testing.T) {
	p := PermPrint | PermCopy
	assert.True(t, p.Has(PermPrint))
	assert.True(t, p.Has(PermPrint|PermCopy))
	assert.False(t, p.Has(PermPrint|PermModify))
}
