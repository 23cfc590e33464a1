package schema

// Builders for constructing schemas in Go.

func String(checks ...Check) *Node  { return &Node{Kind: KindString, Checks: checks} }
func Number(checks ...Check) *Node  { return &Node{Kind: KindNumber, Checks: checks} }
func BigInt(checks ...Check) *Node  { return &Node{Kind: KindBigInt, Checks: checks} }
func Boolean() *Node                { return &Node{Kind: KindBoolean} }
func Date(checks ...Check) *Node    { return &Node{Kind: KindDate, Checks: checks} }
func Null() *Node                   { return &Node{Kind: KindNull} }
func Undefined() *Node              { return &Node{Kind: KindUndefined} }
func Literal(v any) *Node           { return &Node{Kind: KindLiteral, Value: v} }
func Enum(values ...string) *Node   { return &Node{Kind: KindEnum, Values: values} }
func NativeEnum() *Node             { return &Node{Kind: KindNativeEnum} }
func Array(element *Node) *Node     { return &Node{Kind: KindArray, Element: element} }
func Set(element *Node) *Node       { return &Node{Kind: KindSet, Element: element} }
func Union(options ...*Node) *Node  { return &Node{Kind: KindUnion, Options: options} }
func Optional(inner *Node) *Node    { return &Node{Kind: KindOptional, Inner: inner} }
func Nullable(inner *Node) *Node    { return &Node{Kind: KindNullable, Inner: inner} }
func Catch(inner *Node) *Node       { return &Node{Kind: KindCatch, Inner: inner} }
func Pipeline(input *Node) *Node    { return &Node{Kind: KindPipeline, Inner: input} }
func Effects(inner *Node) *Node     { return &Node{Kind: KindEffects, Inner: inner} }
func Readonly(inner *Node) *Node    { return &Node{Kind: KindReadonly, Inner: inner} }
func Other(kind Kind) *Node         { return &Node{Kind: kind} }
func Intersection(l, r *Node) *Node { return &Node{Kind: KindIntersection, Left: l, Right: r} }

// Object builds an object node; fields keep the given order.
func Object(fields ...Field) *Node { return &Node{Kind: KindObject, Fields: fields} }

// F is shorthand for a Field.
func F(name string, n *Node) Field { return Field{Name: name, Node: n} }

// DiscriminatedUnion builds a union tagged by the field named key.
func DiscriminatedUnion(key string, options ...*Node) *Node {
	return &Node{Kind: KindDiscriminatedUnion, Discriminator: key, Options: options}
}

// Branded wraps inner with a nominal brand.
func Branded(brand string, inner *Node) *Node {
	return &Node{Kind: KindBranded, Brand: brand, Inner: inner}
}

// WithDefault wraps inner so that v is used when the value is absent.
func WithDefault(inner *Node, v any) *Node {
	return &Node{Kind: KindDefault, Inner: inner, Default: func() any { return v }}
}

// LazyOf defers construction of the node to get, allowing self reference.
func LazyOf(get func() *Node) *Node { return &Node{Kind: KindLazy, Lazy: get} }

// Describe sets the description on n and returns it.
func (n *Node) Describe(description string) *Node {
	n.Description = description
	return n
}
