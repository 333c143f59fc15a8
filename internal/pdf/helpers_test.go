package pdf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/a3tai/mcp-pdf-fields/internal/pdf/forms"
	"github.com/a3tai/mcp-pdf-fields/internal/pdf/graph"
)

// writeBlankPDF writes an n-page letter-size PDF without a form
func writeBlankPDF(t *testing.T, dir, name string, n int) string {
	t.Helper()
	doc := graph.New()
	tree := doc.Reserve()
	kids := graph.Array{}
	for i := 0; i < n; i++ {
		kids = append(kids, doc.Add(graph.Dict{
			"Type":     graph.Name("Page"),
			"Parent":   tree,
			"MediaBox": graph.Rect(0, 0, 612, 792),
		}))
	}
	if err := doc.Set(tree, graph.Dict{"Type": graph.Name("Pages"), "Kids": kids, "Count": graph.Integer(n)}); err != nil {
		t.Fatalf("failed to build page tree: %v", err)
	}
	if err := doc.SetRoot(doc.Add(graph.Dict{"Type": graph.Name("Catalog"), "Pages": tree})); err != nil {
		t.Fatalf("failed to set catalog: %v", err)
	}
	data, err := doc.Bytes()
	if err != nil {
		t.Fatalf("failed to serialize PDF: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write PDF: %v", err)
	}
	return path
}

// writeFormPDF writes a one-page PDF holding a single text field
func writeFormPDF(t *testing.T, dir, name string) string {
	t.Helper()
	blank := writeBlankPDF(t, dir, "blank_"+name, 1)
	fs, err := forms.NewFieldSpec("full_name", "text", 72, 700, "", nil)
	if err != nil {
		t.Fatalf("failed to build field: %v", err)
	}
	path := filepath.Join(dir, name)
	if _, err := SetFields(blank, path, []forms.PageFieldSet{{fs}}); err != nil {
		t.Fatalf("failed to add field: %v", err)
	}
	return path
}
