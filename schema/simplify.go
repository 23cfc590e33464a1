package schema

import "slices"

// MaxDepth bounds how deep Simplify descends before giving up on a branch.
const MaxDepth = 64

// Simplify projects n onto the simplified shape vocabulary.
//
// Simplify is total: nodes it has no dedicated shape for, cycles and
// branches nested deeper than MaxDepth all become an "other" shape that
// keeps the source kind.
func Simplify(n *Node) *Simple {
	s := simplifier{path: make(map[*Node]struct{})}
	return s.simplify(n, 0)
}

type simplifier struct {
	path map[*Node]struct{}
}

func (s *simplifier) simplify(n *Node, depth int) *Simple {
	if n == nil {
		return &Simple{Type: TypeOther, Kind: KindUndefined}
	}
	if _, cyclic := s.path[n]; cyclic || depth > MaxDepth {
		return other(n)
	}
	s.path[n] = struct{}{}
	defer delete(s.path, n)
	return s.project(n, depth+1)
}

func (s *simplifier) project(n *Node, depth int) *Simple {
	switch n.Kind {
	case KindString:
		return scalar(n, TypeString)
	case KindNumber:
		return scalar(n, TypeNumber)
	case KindDate:
		return scalar(n, TypeDate)
	case KindBigInt:
		if len(n.Checks) == 0 {
			return other(n)
		}
		return scalar(n, TypeNumber)
	case KindBoolean:
		return &Simple{Type: TypeBoolean, Description: n.Description}
	case KindNull:
		return &Simple{Type: TypeNull, Description: n.Description}

	case KindLiteral:
		return &Simple{
			Type:        TypeLiteral,
			Description: n.Description,
			Value:       n.Value,
			ValueType:   literalValueType(n.Value),
		}

	case KindObject:
		out := &Simple{Type: TypeObject, Description: n.Description, Children: make([]Property, 0, len(n.Fields))}
		for _, f := range n.Fields {
			out.Children = append(out.Children, Property{Name: f.Name, Schema: s.simplify(f.Node, depth)})
		}
		return out

	case KindIntersection:
		left := s.simplify(n.Left, depth)
		right := s.simplify(n.Right, depth)
		if left.Type != TypeObject || right.Type != TypeObject {
			return other(n)
		}
		return &Simple{
			Type:        TypeObject,
			Description: n.Description,
			Children:    mergeChildren(left.Children, right.Children),
		}

	case KindArray, KindSet:
		return &Simple{Type: TypeArray, Description: n.Description, Element: s.simplify(n.Element, depth)}

	case KindUnion, KindDiscriminatedUnion:
		out := &Simple{Type: TypeUnion, Description: n.Description, Options: make([]*Simple, 0, len(n.Options))}
		for _, opt := range n.Options {
			so := s.simplify(opt, depth)
			if so.IsUndefined() {
				out.Optional = true
			}
			out.Options = append(out.Options, so)
		}
		return out

	case KindOptional:
		inner := withDescription(s.simplify(n.Inner, depth), n)
		inner.Optional = true
		return inner

	case KindNullable:
		return &Simple{
			Type:        TypeUnion,
			Description: n.Description,
			Options:     []*Simple{s.simplify(n.Inner, depth), {Type: TypeNull}},
		}

	case KindDefault:
		inner := withDescription(s.simplify(n.Inner, depth), n)
		if n.Default != nil {
			inner.Default = n.Default()
			inner.HasDefault = true
		}
		return inner

	case KindCatch, KindBranded, KindPipeline, KindEffects:
		return withDescription(s.simplify(n.Inner, depth), n)

	case KindEnum:
		out := &Simple{Type: TypeUnion, Description: n.Description, Options: make([]*Simple, 0, len(n.Values))}
		for _, v := range n.Values {
			out.Options = append(out.Options, &Simple{Type: TypeLiteral, Value: v, ValueType: ValueString})
		}
		return out

	case KindNativeEnum:
		return &Simple{Type: TypeNumber, Description: n.Description}

	case KindUndefined, KindAny, KindUnknown, KindNever, KindVoid, KindTuple, KindRecord,
		KindMap, KindFunction, KindLazy, KindPromise, KindReadonly, KindSymbol, KindNaN:
		return other(n)
	}
	return other(n)
}

func scalar(n *Node, t Type) *Simple {
	out := &Simple{Type: t, Description: n.Description}
	if len(n.Checks) > 0 {
		out.Checks = slices.Clone(n.Checks)
	}
	return out
}

func other(n *Node) *Simple {
	return &Simple{Type: TypeOther, Kind: n.Kind, Description: n.Description}
}

// withDescription gives a wrapper's description to its projected inner
// shape unless the inner node described itself.
func withDescription(inner *Simple, wrapper *Node) *Simple {
	if inner.Description == "" {
		inner.Description = wrapper.Description
	}
	return inner
}

// mergeChildren overlays right onto left. A key present in both keeps the
// position it had in left and takes the value from right.
func mergeChildren(left, right []Property) []Property {
	out := slices.Clone(left)
	for _, p := range right {
		i := slices.IndexFunc(out, func(q Property) bool { return q.Name == p.Name })
		if i >= 0 {
			out[i] = p
			continue
		}
		out = append(out, p)
	}
	return out
}

func literalValueType(v any) ValueType {
	switch v.(type) {
	case string:
		return ValueString
	case bool:
		return ValueBoolean
	case nil:
		return ValueNull
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return ValueNumber
	}
	return ValueOther
}
