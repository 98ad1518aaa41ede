package erf

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTree_Nesting(t *testing.T) {
	t.Parallel()

	tree := &Tree{}
	tree.Field(Field{Name: "a", Depth: 0})
	tree.Field(Field{Name: "a.1", Depth: 1})
	tree.Field(Field{Name: "a.1.1", Depth: 2})
	tree.Field(Field{Name: "a.2", Depth: 1})
	// skipped levels attach to the deepest node
	tree.Field(Field{Name: "a.2.1", Depth: 5})
	tree.Field(Field{Name: "b", Depth: 0})

	require.Len(t, tree.Roots, 2)
	a := tree.Roots[0]
	require.Len(t, a.Children, 2)
	assert.Equal(t, "a.1.1", a.Children[0].Children[0].Name)
	assert.Equal(t, "a.2.1", a.Children[1].Children[0].Name)
	assert.Equal(t, "b", tree.Roots[1].Name)
}

func TestTree_Diagnostics(t *testing.T) {
	t.Parallel()

	tree := &Tree{}
	tree.Field(Field{Name: "root"})
	tree.Field(Field{Name: "child", Display: "1", Depth: 1})
	tree.Diagnostic(Diagnostic{Kind: DiagZeroLengthTag, Depth: 1})
	tree.Diagnostic(Diagnostic{Kind: DiagTruncatedRecord, Detail: "3 bytes left over", Depth: -1})

	child := tree.Roots[0].Children[0]
	require.Len(t, child.Diagnostics, 1)
	assert.Len(t, tree.Diagnostics, 2)
	assert.True(t, tree.HasDiagnostic(DiagTruncatedRecord))
	assert.False(t, tree.HasDiagnostic(DiagRxError))

	lines := strings.Split(strings.TrimSpace(tree.String()), "\n")
	assert.Equal(t, []string{
		"root",
		"    child: 1",
		"        [note] Provenance zero length tag",
		"[error] Provenance truncated record: 3 bytes left over",
	}, lines)

	tree.Reset()
	assert.Empty(t, tree.Roots)
	assert.Empty(t, tree.String())
}

func TestTree_MarshalJSON(t *testing.T) {
	t.Parallel()

	tree := &Tree{}
	tree.Field(Field{Abbrev: "erf.rlen", Name: "Record length", Value: uint64(32), Display: "32", Offset: 10, Length: 2})

	b, err := json.Marshal(tree)
	require.NoError(t, err)
	assert.JSONEq(t, `{"fields":[{"abbrev":"erf.rlen","name":"Record length","value":32,"display":"32","offset":10,"length":2}]}`, string(b))
}

func TestMultiSink(t *testing.T) {
	t.Parallel()

	a, b := &Tree{}, &Tree{}
	s := MultiSink(a, b, DiscardSink)
	s.Field(Field{Name: "x"})
	s.Diagnostic(Diagnostic{Kind: DiagRxError})

	assert.Len(t, a.Roots, 1)
	assert.Len(t, b.Roots, 1)
	assert.Len(t, a.Diagnostics, 1)
	assert.Len(t, b.Diagnostics, 1)
}

func TestDepthSink(t *testing.T) {
	t.Parallel()

	tree := &Tree{}
	tree.Field(Field{Name: "root"})
	s := depthSink{Sink: tree, shift: 1}
	s.Field(Field{Name: "shifted"})
	s.Diagnostic(Diagnostic{Kind: DiagRxError, Depth: 0})
	s.Diagnostic(Diagnostic{Kind: DiagTruncatedRecord, Depth: -1})

	require.Len(t, tree.Roots, 1)
	shifted := tree.Roots[0].Children[0]
	assert.Equal(t, "shifted", shifted.Name)
	assert.Len(t, shifted.Diagnostics, 1)
	assert.Empty(t, tree.Roots[0].Diagnostics)
}
