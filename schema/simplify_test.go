package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func childNames(s *Simple) []string {
	names := make([]string, 0, len(s.Children))
	for _, p := range s.Children {
		names = append(names, p.Name)
	}
	return names
}

func TestSimplifyObjectKeepsFieldOrder(t *testing.T) {
	n := Object(
		F("zeta", String()),
		F("alpha", Number()),
		F("mid", Boolean()),
		F("last", Array(String())),
	)
	got := Simplify(n)
	require.Equal(t, TypeObject, got.Type)
	assert.Equal(t, []string{"zeta", "alpha", "mid", "last"}, childNames(got))

	last, ok := got.Child("last")
	require.True(t, ok)
	assert.Equal(t, TypeArray, last.Type)
	assert.Equal(t, TypeString, last.Element.Type)
}

func TestSimplifyOptionalDefaultString(t *testing.T) {
	plain := Simplify(WithDefault(String(), "hello"))
	wrapped := Simplify(Optional(WithDefault(String(), "hello")))

	assert.Equal(t, TypeString, wrapped.Type)
	assert.True(t, wrapped.Optional)
	assert.True(t, wrapped.HasDefault)
	assert.Equal(t, "hello", wrapped.Default)

	plain.Optional = true
	assert.Equal(t, plain, wrapped)
}

func TestSimplifyStringLiteralUnion(t *testing.T) {
	got := Simplify(Union(Literal("a"), Literal("b"), Literal("c")))
	require.Equal(t, TypeUnion, got.Type)
	assert.False(t, got.Optional)
	require.Len(t, got.Options, 3)
	for i, want := range []string{"a", "b", "c"} {
		assert.Equal(t, TypeLiteral, got.Options[i].Type)
		assert.Equal(t, ValueString, got.Options[i].ValueType)
		assert.Equal(t, want, got.Options[i].Value)
	}
}

func TestSimplifyUnionWithUndefinedIsOptional(t *testing.T) {
	got := Simplify(Union(Literal("a"), Literal("b"), Literal("c"), Undefined()))
	require.Equal(t, TypeUnion, got.Type)
	assert.True(t, got.Optional)
	require.Len(t, got.Options, 4)
	assert.True(t, got.Options[3].IsUndefined())
}

func TestSimplifyNullableNumber(t *testing.T) {
	got := Simplify(Nullable(Number()))
	require.Equal(t, TypeUnion, got.Type)
	assert.False(t, got.Optional)
	require.Len(t, got.Options, 2)
	assert.Equal(t, &Simple{Type: TypeNumber}, got.Options[0])
	assert.Equal(t, &Simple{Type: TypeNull}, got.Options[1])
}

func TestSimplifyIntersectionMergesObjects(t *testing.T) {
	got := Simplify(Intersection(
		Object(F("a", String())),
		Object(F("b", Number())),
	))
	require.Equal(t, TypeObject, got.Type)
	assert.Equal(t, []string{"a", "b"}, childNames(got))
	a, _ := got.Child("a")
	b, _ := got.Child("b")
	assert.Equal(t, TypeString, a.Type)
	assert.Equal(t, TypeNumber, b.Type)
}

func TestSimplifyIntersectionRightWins(t *testing.T) {
	got := Simplify(Intersection(
		Object(F("a", String()), F("x", Boolean())),
		Object(F("a", Number())),
	))
	require.Equal(t, TypeObject, got.Type)
	assert.Equal(t, []string{"a", "x"}, childNames(got))
	a, _ := got.Child("a")
	assert.Equal(t, &Simple{Type: TypeNumber}, a)
}

func TestSimplifyIntersectionOfNonObjectsIsOther(t *testing.T) {
	got := Simplify(Intersection(String(), Object(F("a", String()))))
	assert.Equal(t, TypeOther, got.Type)
	assert.Equal(t, KindIntersection, got.Kind)
}

func TestSimplifyEnumBecomesLiteralUnion(t *testing.T) {
	got := Simplify(Enum("json", "pretty"))
	require.Equal(t, TypeUnion, got.Type)
	require.Len(t, got.Options, 2)
	assert.Equal(t, "json", got.Options[0].Value)
	assert.Equal(t, ValueString, got.Options[1].ValueType)
}

func TestSimplifyNativeEnumIsNumber(t *testing.T) {
	assert.Equal(t, TypeNumber, Simplify(NativeEnum()).Type)
}

func TestSimplifyTransparentWrappers(t *testing.T) {
	for _, n := range []*Node{
		Catch(String()),
		Branded("UserID", String()),
		Pipeline(String()),
		Effects(String()),
	} {
		got := Simplify(n)
		assert.Equal(t, TypeString, got.Type, "kind %s", n.Kind)
	}
}

func TestSimplifyReadonlyIsOther(t *testing.T) {
	got := Simplify(Readonly(String()).Describe("frozen"))
	assert.Equal(t, &Simple{Type: TypeOther, Kind: KindReadonly, Description: "frozen"}, got)
}

func TestSimplifySetIsArray(t *testing.T) {
	got := Simplify(Set(Number()))
	require.Equal(t, TypeArray, got.Type)
	assert.Equal(t, TypeNumber, got.Element.Type)
}

func TestSimplifyCopiesChecks(t *testing.T) {
	checks := []Check{{Kind: "min", Value: 1}}
	got := Simplify(String(checks...))
	assert.Equal(t, checks, got.Checks)
	assert.Nil(t, Simplify(String()).Checks)

	checks[0].Value = 2
	assert.Equal(t, 1, got.Checks[0].Value)
}

func TestSimplifyLiteralValueTypes(t *testing.T) {
	cases := map[ValueType]any{
		ValueString:  "x",
		ValueNumber:  3.5,
		ValueBoolean: true,
		ValueNull:    nil,
		ValueOther:   struct{}{},
	}
	for want, v := range cases {
		assert.Equal(t, want, Simplify(Literal(v)).ValueType)
	}
	assert.Equal(t, ValueNumber, Simplify(Literal(int64(7))).ValueType)
}

func TestSimplifyDescriptions(t *testing.T) {
	got := Simplify(Optional(String().Describe("inner")).Describe("outer"))
	assert.Equal(t, "inner", got.Description)

	got = Simplify(Optional(String()).Describe("outer"))
	assert.Equal(t, "outer", got.Description)

	got = Simplify(Nullable(String().Describe("inner")).Describe("outer"))
	assert.Equal(t, "outer", got.Description)
	assert.Equal(t, "inner", got.Options[0].Description)
}

func TestSimplifyUnknownKindIsOther(t *testing.T) {
	got := Simplify(&Node{Kind: "templateLiteral"})
	assert.Equal(t, &Simple{Type: TypeOther, Kind: "templateLiteral"}, got)

	b, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"other","optional":false,"kind":"templateLiteral"}`, string(b))
}

func TestSimplifyEveryKindIsTotal(t *testing.T) {
	for _, k := range Kinds {
		assert.NotPanics(t, func() { Simplify(&Node{Kind: k}) }, "kind %s", k)
	}
	assert.NotPanics(t, func() { Simplify(nil) })
}

func TestSimplifyLazyIsNotExpanded(t *testing.T) {
	var tree *Node
	tree = Object(
		F("name", String()),
		F("children", Array(LazyOf(func() *Node { return tree }))),
	)
	got := Simplify(tree)
	children, ok := got.Child("children")
	require.True(t, ok)
	assert.Equal(t, TypeOther, children.Element.Type)
	assert.Equal(t, KindLazy, children.Element.Kind)
}

func TestSimplifyCycleFallsBackToOther(t *testing.T) {
	n := Object(F("name", String()))
	n.Fields = append(n.Fields, F("self", Optional(n)))

	got := Simplify(n)
	self, ok := got.Child("self")
	require.True(t, ok)
	assert.Equal(t, TypeOther, self.Type)
	assert.Equal(t, KindObject, self.Kind)
	assert.True(t, self.Optional)
}

func TestSimplifyDepthLimit(t *testing.T) {
	n := String()
	for range MaxDepth * 2 {
		n = Optional(n)
	}
	got := Simplify(n)
	assert.Equal(t, TypeOther, got.Type)
	assert.Equal(t, KindOptional, got.Kind)
}

func TestSimplifyIsDeterministic(t *testing.T) {
	n := Object(F("q", WithDefault(String(), "x")), F("n", Optional(Number())))
	first, err := json.Marshal(Simplify(n))
	require.NoError(t, err)
	second, err := json.Marshal(Simplify(n))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSimpleMarshalKeepsChildOrder(t *testing.T) {
	got := Simplify(Object(F("b", String()), F("a", WithDefault(Number(), 5))))
	b, err := json.Marshal(got)
	require.NoError(t, err)
	assert.Equal(t,
		`{"type":"object","optional":false,"children":{"b":{"type":"string","optional":false},"a":{"type":"number","optional":false,"default":5}}}`,
		string(b))
}

func TestSimpleMarshalEscapesKeysAndReportsErrors(t *testing.T) {
	got := Simplify(Object(F(`say "hi"`, Literal("<b>"))))
	b, err := got.MarshalJSON()
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Contains(t, decoded["children"], `say "hi"`)

	bad := &Simple{Type: TypeString, HasDefault: true, Default: make(chan int)}
	_, err = bad.MarshalJSON()
	assert.Error(t, err)

	nested := &Simple{Type: TypeObject, Children: []Property{{Name: "x", Schema: bad}}}
	_, err = nested.MarshalJSON()
	assert.Error(t, err)
}
