package forms

import (
	"fmt"

	"github.com/a3tai/mcp-pdf-fields/internal/pdf/graph"
	pdferrors "github.com/a3tai/mcp-pdf-fields/internal/pdf/errors"
)

// Graft moves the interactive form of source onto target and returns target.
//
// Pages are paired by position up to the shorter document. Each paired
// source page's annotations are copied onto the matching target page,
// appended after any annotations it already has, with their /P entry pointing
// at the target page. Fields whose widgets sit only on unpaired source pages
// are left out so that every widget in the field tree is placed on a page.
//
// A target whose form already has fields is refused with a conflict error
// and left unchanged. A source without fields is a no-op. All objects move
// through one copy session, so anything shared between the field tree and
// the page annotations is copied once.
func Graft(target, source *graph.Document) (*graph.Document, error) {
	tcat, err := target.Catalog()
	if err != nil {
		return nil, fmt.Errorf("failed to read target catalog: %w", err)
	}
	existing, err := formFields(target, tcat)
	if err != nil {
		return nil, fmt.Errorf("failed to read target form: %w", err)
	}
	if len(existing) > 0 {
		return nil, pdferrors.NewPDFErrorWithContext(pdferrors.ErrorTypeConflict,
			"target document already has form fields", fmt.Sprintf("%d fields", len(existing)))
	}

	scat, err := source.Catalog()
	if err != nil {
		return nil, fmt.Errorf("failed to read source catalog: %w", err)
	}
	sfields, err := formFields(source, scat)
	if err != nil {
		return nil, fmt.Errorf("failed to read source form: %w", err)
	}
	if len(sfields) == 0 {
		return target, nil
	}

	tpages, err := target.Pages()
	if err != nil {
		return nil, fmt.Errorf("failed to read target pages: %w", err)
	}
	spages, err := source.Pages()
	if err != nil {
		return nil, fmt.Errorf("failed to read source pages: %w", err)
	}
	paired := len(spages)
	if len(tpages) < paired {
		paired = len(tpages)
	}

	// copy everything first; nothing reachable from the target changes
	// until all copies have succeeded
	c := graph.NewCopier(target, source)
	for i, sp := range spages {
		var to graph.Object = graph.Null{}
		if i < paired {
			to = tpages[i]
		}
		if err := c.Map(sp, to); err != nil {
			return nil, err
		}
	}

	pageAnnots := make([]graph.Array, paired)
	placed := make(map[graph.Ref]bool)
	for i := 0; i < paired; i++ {
		annots, err := pageAnnotations(source, spages[i])
		if err != nil {
			return nil, fmt.Errorf("failed to read annotations of source page %d: %w", i+1, err)
		}
		for _, a := range annots {
			cp, err := c.Copy(a)
			if err != nil {
				return nil, fmt.Errorf("failed to copy annotation on page %d: %w", i+1, err)
			}
			if r, ok := cp.(graph.Ref); ok {
				placed[r] = true
				annot, err := target.ResolveDict(r)
				if err != nil {
					return nil, err
				}
				if annot != nil {
					annot["P"] = tpages[i]
				}
			}
			pageAnnots[i] = append(pageAnnots[i], cp)
		}
	}

	sform, err := source.ResolveDict(scat["AcroForm"])
	if err != nil {
		return nil, err
	}
	formCopy, err := c.Copy(sform)
	if err != nil {
		return nil, fmt.Errorf("failed to copy form: %w", err)
	}
	form := formCopy.(graph.Dict)

	copiedFields, err := target.ResolveArray(form["Fields"])
	if err != nil {
		return nil, err
	}
	fields, err := pruneUnplaced(target, copiedFields, placed)
	if err != nil {
		return nil, err
	}
	form["Fields"] = fields

	// resolve every target /Annots before touching the catalog so a
	// malformed page leaves the target as it was
	installs := make([]annotInstall, 0, paired)
	for i, annots := range pageAnnots {
		if len(annots) == 0 {
			continue
		}
		in, err := prepareAnnotations(target, tpages[i], annots)
		if err != nil {
			return nil, fmt.Errorf("failed to read annotations of target page %d: %w", i+1, err)
		}
		installs = append(installs, in)
	}

	// install
	tcat["AcroForm"] = target.Add(form)
	for _, in := range installs {
		in.apply(target)
	}
	return target, nil
}

// formFields returns the /Fields array of the catalog's form, or nil
func formFields(doc *graph.Document, cat graph.Dict) (graph.Array, error) {
	form, err := doc.ResolveDict(cat["AcroForm"])
	if err != nil || form == nil {
		return nil, err
	}
	return doc.ResolveArray(form["Fields"])
}

func pageAnnotations(doc *graph.Document, page graph.Ref) (graph.Array, error) {
	d, err := doc.ResolveDict(page)
	if err != nil || d == nil {
		return nil, err
	}
	return doc.ResolveArray(d["Annots"])
}

// annotInstall is a page's merged annotation list, ready to be stored
type annotInstall struct {
	page   graph.Dict
	ref    graph.Ref // set when /Annots is an indirect array
	merged graph.Array
}

// prepareAnnotations merges annots after the page's existing annotations
// without storing the result
func prepareAnnotations(doc *graph.Document, page graph.Ref, annots graph.Array) (annotInstall, error) {
	d, err := doc.ResolveDict(page)
	if err != nil {
		return annotInstall{}, err
	}
	if d == nil {
		return annotInstall{}, pdferrors.NewPDFErrorWithContext(pdferrors.ErrorTypeInvalidStructure, "page is null", page.String())
	}

	current, err := doc.ResolveArray(d["Annots"])
	if err != nil {
		return annotInstall{}, err
	}
	merged := make(graph.Array, 0, len(current)+len(annots))
	merged = append(merged, current...)
	merged = append(merged, annots...)

	in := annotInstall{page: d, merged: merged}
	if r, ok := d["Annots"].(graph.Ref); ok && doc.Owns(r) {
		in.ref = r
	}
	return in, nil
}

// apply stores the merged list. An indirect /Annots array is updated in place.
func (in annotInstall) apply(doc *graph.Document) {
	if !in.ref.IsZero() {
		_ = doc.Set(in.ref, in.merged)
		return
	}
	in.page["Annots"] = in.merged
}

// pruneUnplaced drops widgets that are not in placed from a copied field
// tree, and any field left without widgets
func pruneUnplaced(doc *graph.Document, fields graph.Array, placed map[graph.Ref]bool) (graph.Array, error) {
	out := make(graph.Array, 0, len(fields))
	for _, f := range fields {
		keep, err := pruneField(doc, f, placed, 0)
		if err != nil {
			return nil, err
		}
		if keep {
			out = append(out, f)
		}
	}
	return out, nil
}

func pruneField(doc *graph.Document, f graph.Object, placed map[graph.Ref]bool, depth int) (bool, error) {
	if depth > maxFieldDepth {
		return false, pdferrors.NewPDFError(pdferrors.ErrorTypeInvalidStructure, "field tree too deep")
	}
	d, err := doc.ResolveDict(f)
	if err != nil {
		return false, err
	}
	if d == nil {
		return false, nil
	}

	if _, hasKids := d["Kids"]; !hasKids {
		if !isWidget(d) {
			// a field without widgets has nothing to place
			return true, nil
		}
		r, ok := f.(graph.Ref)
		return ok && placed[r], nil
	}

	kids, err := doc.ResolveArray(d["Kids"])
	if err != nil {
		return false, err
	}
	kept := make(graph.Array, 0, len(kids))
	for _, k := range kids {
		keep, err := pruneField(doc, k, placed, depth+1)
		if err != nil {
			return false, err
		}
		if keep {
			kept = append(kept, k)
		}
	}
	if len(kept) == 0 && len(kids) > 0 {
		return false, nil
	}
	if r, ok := d["Kids"].(graph.Ref); ok {
		return true, doc.Set(r, kept)
	}
	d["Kids"] = kept
	return true, nil
}

const maxFieldDepth = 32

func isWidget(d graph.Dict) bool {
	st, _ := d.Name("Subtype")
	return st == "Widget"
}
