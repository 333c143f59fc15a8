package graph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pdferrors "github.com/a3tai/mcp-pdf-fields/internal/pdf/errors"
)

// twoPageDoc builds a catalog, a page tree and two pages
func twoPageDoc(t *testing.T) (*Document, []Ref) {
	t.Helper()
	d := New()
	tree := d.Reserve()
	p1 := d.Add(Dict{"Type": Name("Page"), "Parent": tree})
	p2 := d.Add(Dict{"Type": Name("Page"), "Parent": tree})
	require.NoError(t, d.Set(tree, Dict{
		"Type":  Name("Pages"),
		"Kids":  Array{p1, p2},
		"Count": Integer(2),
	}))
	require.NoError(t, d.SetRoot(d.Add(Dict{"Type": Name("Catalog"), "Pages": tree})))
	return d, []Ref{p1, p2}
}

func TestDocument_AddGetSet(t *testing.T) {
	d := New()
	r := d.Add(Integer(7))

	got, err := d.Get(r)
	require.NoError(t, err)
	assert.Equal(t, Integer(7), got)

	require.NoError(t, d.Set(r, Name("x")))
	got, err = d.Get(r)
	require.NoError(t, err)
	assert.Equal(t, Name("x"), got)
	assert.Equal(t, 1, d.Len())
}

func TestDocument_ReserveResolvesToNull(t *testing.T) {
	d := New()
	r := d.Reserve()

	got, err := d.Resolve(r)
	require.NoError(t, err)
	assert.Equal(t, Null{}, got)

	dict, err := d.ResolveDict(r)
	require.NoError(t, err)
	assert.Nil(t, dict)
}

func TestDocument_ForeignHandleIsRejected(t *testing.T) {
	a := New()
	b := New()
	r := a.Add(Integer(1))

	assert.True(t, a.Owns(r))
	assert.False(t, b.Owns(r))

	_, err := b.Get(r)
	require.Error(t, err)
	assert.True(t, errors.Is(err, pdferrors.ErrForeignHandle))

	err = b.Set(r, Integer(2))
	assert.True(t, errors.Is(err, pdferrors.ErrForeignHandle))

	// a handle from b that happens to share the id is still foreign to a
	other := b.Add(Integer(3))
	_, err = a.Get(other)
	assert.True(t, errors.Is(err, pdferrors.ErrForeignHandle))
}

func TestDocument_ResolveFollowsChains(t *testing.T) {
	d := New()
	leaf := d.Add(Integer(42))
	mid := d.Add(leaf)
	top := d.Add(mid)

	got, err := d.Resolve(top)
	require.NoError(t, err)
	assert.Equal(t, Integer(42), got)

	loop := d.Reserve()
	require.NoError(t, d.Set(loop, loop))
	_, err = d.Resolve(loop)
	assert.True(t, errors.Is(err, pdferrors.ErrInvalidStructure))
}

func TestDocument_ResolveDictWrongType(t *testing.T) {
	d := New()
	r := d.Add(Integer(1))
	_, err := d.ResolveDict(r)
	assert.True(t, errors.Is(err, pdferrors.ErrInvalidStructure))

	_, err = d.ResolveArray(r)
	assert.True(t, errors.Is(err, pdferrors.ErrInvalidStructure))
}

func TestDocument_ResolveDictReturnsStoredMap(t *testing.T) {
	d := New()
	r := d.Add(Dict{"A": Integer(1)})

	dict, err := d.ResolveDict(r)
	require.NoError(t, err)
	dict["B"] = Integer(2)

	again, err := d.ResolveDict(r)
	require.NoError(t, err)
	assert.Equal(t, Integer(2), again["B"])
}

func TestDocument_Pages(t *testing.T) {
	d, pages := twoPageDoc(t)

	got, err := d.Pages()
	require.NoError(t, err)
	assert.Equal(t, pages, got)
	assert.Equal(t, 2, d.PageCount())
}

func TestDocument_PagesNestedTree(t *testing.T) {
	d := New()
	root := d.Reserve()
	inner := d.Reserve()
	p1 := d.Add(Dict{"Type": Name("Page"), "Parent": inner})
	p2 := d.Add(Dict{"Type": Name("Page"), "Parent": inner})
	p3 := d.Add(Dict{"Type": Name("Page"), "Parent": root})
	require.NoError(t, d.Set(inner, Dict{"Type": Name("Pages"), "Kids": Array{p1, p2}, "Parent": root}))
	require.NoError(t, d.Set(root, Dict{"Type": Name("Pages"), "Kids": Array{inner, p3}}))
	require.NoError(t, d.SetRoot(d.Add(Dict{"Type": Name("Catalog"), "Pages": root})))

	got, err := d.Pages()
	require.NoError(t, err)
	assert.Equal(t, []Ref{p1, p2, p3}, got)
}

func TestDocument_PagesCycle(t *testing.T) {
	d := New()
	root := d.Reserve()
	require.NoError(t, d.Set(root, Dict{"Type": Name("Pages"), "Kids": Array{root}}))
	require.NoError(t, d.SetRoot(d.Add(Dict{"Type": Name("Catalog"), "Pages": root})))

	_, err := d.Pages()
	assert.True(t, errors.Is(err, pdferrors.ErrInvalidStructure))
	assert.Equal(t, 0, d.PageCount())
}

func TestDocument_CatalogMissing(t *testing.T) {
	_, err := New().Catalog()
	assert.True(t, errors.Is(err, pdferrors.ErrInvalidStructure))
}

func TestText(t *testing.T) {
	tests := []struct {
		name string
		in   Object
		want string
	}{
		{name: "string", in: String("a(b)"), want: "a(b)"},
		{name: "literal escapes", in: Literal(`a\(b\)\n\101`), want: "a(b)\nA"},
		{name: "literal continuation", in: Literal("ab\\\ncd"), want: "abcd"},
		{name: "hex", in: HexString("48 69"), want: "Hi"},
		{name: "odd hex pads with zero", in: HexString("414"), want: "A@"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Text(tt.in)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := Text(Integer(1))
	assert.False(t, ok)
}
