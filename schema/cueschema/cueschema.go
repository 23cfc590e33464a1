// Package cueschema converts CUE values into schema nodes.
//
// Mapping:
//
//	struct                 object (fields in declaration order, foo? wraps in optional)
//	struct with only [string]: T   record
//	[...T]                 array, or set with @set()
//	closed list            tuple
//	a | b                  union
//	*d | T                 default wrapping T
//	concrete scalar        literal (null becomes null)
//	string, bytes, bool, int, float, number
//	_ and _|_              any and never
//
// Field attributes refine the result: @date() turns a string into a date,
// @brand(Name) wraps in a branded node and @transform() in an effects node.
// Doc comments become descriptions.
package cueschema

import (
	"slices"
	"strconv"
	"strings"

	"cuelang.org/go/cue"

	"github.com/callumgare/media-finder-cli/schema"
)

// MaxDepth bounds the conversion of recursive definitions. Deeper values
// become lazy nodes.
const MaxDepth = 32

// FromValue converts v into a schema node.
func FromValue(v cue.Value) *schema.Node {
	return convert(v, 0)
}

func convert(v cue.Value, depth int) *schema.Node {
	if depth > MaxDepth {
		return schema.Other(schema.KindLazy)
	}
	n := shape(v, depth)
	n = applyAttributes(v, n)
	if doc := docText(v); doc != "" && n.Description == "" {
		n.Description = doc
	}
	return n
}

func shape(v cue.Value, depth int) *schema.Node {
	if d, ok := v.Default(); ok && d.IsConcrete() && !v.IsConcrete() {
		return schema.WithDefault(withoutDefault(v, d, depth), literalValue(d))
	}
	return structural(v, depth)
}

// withoutDefault returns the shape of v ignoring the default disjunct d.
func withoutDefault(v, d cue.Value, depth int) *schema.Node {
	alts := alternatives(v, 0)
	if len(alts) < 2 {
		return byKind(v, depth)
	}
	open := false
	for _, a := range alts {
		if !a.IsConcrete() {
			open = true
		}
	}
	kept := make([]cue.Value, 0, len(alts))
	for _, a := range alts {
		if open && a.IsConcrete() && a.Equals(d) {
			continue
		}
		kept = append(kept, a)
	}
	if len(kept) == 1 {
		return structural(kept[0], depth)
	}
	return union(kept, depth)
}

func structural(v cue.Value, depth int) *schema.Node {
	if v.IncompleteKind() == cue.BottomKind {
		return schema.Other(schema.KindNever)
	}
	if alts := alternatives(v, 0); len(alts) > 1 {
		return union(alts, depth)
	}
	if v.IsConcrete() {
		switch v.Kind() {
		case cue.NullKind:
			return schema.Null()
		case cue.StringKind, cue.IntKind, cue.FloatKind, cue.BoolKind:
			return schema.Literal(literalValue(v))
		}
	}
	return byKind(v, depth)
}

func union(alts []cue.Value, depth int) *schema.Node {
	opts := make([]*schema.Node, 0, len(alts))
	for _, a := range alts {
		opts = append(opts, convert(a, depth+1))
	}
	return schema.Union(opts...)
}

// alternatives flattens the disjuncts of v, dropping duplicates.
func alternatives(v cue.Value, level int) []cue.Value {
	op, args := v.Expr()
	if op != cue.OrOp || level > 8 {
		return []cue.Value{v}
	}
	var out []cue.Value
	for _, a := range args {
		for _, alt := range alternatives(a, level+1) {
			if !slices.ContainsFunc(out, func(x cue.Value) bool { return x.IsConcrete() && alt.IsConcrete() && x.Equals(alt) }) {
				out = append(out, alt)
			}
		}
	}
	return out
}

func byKind(v cue.Value, depth int) *schema.Node {
	switch k := v.IncompleteKind(); k {
	case cue.StructKind:
		return object(v, depth)
	case cue.ListKind:
		elem := v.LookupPath(cue.MakePath(cue.AnyIndex))
		if !elem.Exists() {
			return schema.Other(schema.KindTuple)
		}
		return schema.Array(convert(elem, depth+1))
	case cue.StringKind:
		return schema.String(checks(v)...)
	case cue.IntKind:
		return schema.Number(append([]schema.Check{{Kind: "int"}}, checks(v)...)...)
	case cue.FloatKind, cue.NumberKind:
		return schema.Number(checks(v)...)
	case cue.BoolKind:
		return schema.Boolean()
	case cue.NullKind:
		return schema.Null()
	case cue.TopKind:
		return schema.Other(schema.KindAny)
	case cue.BottomKind:
		return schema.Other(schema.KindNever)
	default:
		return schema.Other(schema.KindUnknown)
	}
}

func object(v cue.Value, depth int) *schema.Node {
	iter, err := v.Fields(cue.All())
	if err != nil {
		return schema.Other(schema.KindUnknown)
	}
	var fields []schema.Field
	for iter.Next() {
		raw := iter.Selector().String()
		if strings.HasPrefix(raw, "#") || strings.HasPrefix(raw, "_") {
			continue
		}
		fn := convert(iter.Value(), depth+1)
		if iter.IsOptional() {
			fn = schema.Optional(fn)
		}
		fields = append(fields, schema.F(fieldName(raw), fn))
	}
	if len(fields) == 0 && v.LookupPath(cue.MakePath(cue.AnyString)).Exists() {
		return schema.Other(schema.KindRecord)
	}
	return schema.Object(fields...)
}

var boundOps = map[cue.Op]string{
	cue.GreaterThanOp:      ">",
	cue.GreaterThanEqualOp: ">=",
	cue.LessThanOp:         "<",
	cue.LessThanEqualOp:    "<=",
	cue.NotEqualOp:         "!=",
	cue.RegexMatchOp:       "=~",
	cue.NotRegexMatchOp:    "!~",
}

func checks(v cue.Value) []schema.Check {
	var out []schema.Check
	collectChecks(v, &out, 0)
	return out
}

func collectChecks(v cue.Value, out *[]schema.Check, level int) {
	op, args := v.Expr()
	if kind, ok := boundOps[op]; ok && len(args) == 1 {
		*out = append(*out, schema.Check{Kind: kind, Value: literalValue(args[0])})
		return
	}
	if op != cue.AndOp || level > 8 {
		return
	}
	for _, a := range args {
		collectChecks(a, out, level+1)
	}
}

func applyAttributes(v cue.Value, n *schema.Node) *schema.Node {
	if a := v.Attribute("date"); a.Err() == nil && n.Kind == schema.KindString {
		n = schema.Date(n.Checks...)
	}
	if a := v.Attribute("set"); a.Err() == nil && n.Kind == schema.KindArray {
		n = schema.Set(n.Element)
	}
	if a := v.Attribute("transform"); a.Err() == nil {
		n = schema.Effects(n)
	}
	if a := v.Attribute("brand"); a.Err() == nil {
		brand, _ := a.String(0)
		n = schema.Branded(brand, n)
	}
	return n
}

func literalValue(v cue.Value) any {
	switch v.Kind() {
	case cue.StringKind:
		s, _ := v.String()
		return s
	case cue.IntKind:
		i, _ := v.Int64()
		return i
	case cue.FloatKind:
		f, _ := v.Float64()
		return f
	case cue.BoolKind:
		b, _ := v.Bool()
		return b
	case cue.NullKind:
		return nil
	}
	var x any
	_ = v.Decode(&x)
	return x
}

func docText(v cue.Value) string {
	var parts []string
	for _, cg := range v.Doc() {
		if t := strings.TrimSpace(cg.Text()); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n")
}

func fieldName(raw string) string {
	s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSuffix(raw, "?"), "!"))
	if unq, err := strconv.Unquote(s); err == nil {
		return unq
	}
	return s
}
