// Package schema defines the request-schema vocabulary media finder sources
// are described with, and the simplified projection of it that drives CLI
// flags, MCP tool inputs and the web UI.
//
// A Node is produced once by an adapter (see schema/cueschema) and is never
// re-discriminated by inspecting foreign types.
package schema

// Kind is the discriminant of a Node.
type Kind string

const (
	KindString             Kind = "string"
	KindNumber             Kind = "number"
	KindBigInt             Kind = "bigint"
	KindBoolean            Kind = "boolean"
	KindDate               Kind = "date"
	KindNull               Kind = "null"
	KindUndefined          Kind = "undefined"
	KindLiteral            Kind = "literal"
	KindObject             Kind = "object"
	KindArray              Kind = "array"
	KindSet                Kind = "set"
	KindUnion              Kind = "union"
	KindDiscriminatedUnion Kind = "discriminatedUnion"
	KindIntersection       Kind = "intersection"
	KindOptional           Kind = "optional"
	KindNullable           Kind = "nullable"
	KindDefault            Kind = "default"
	KindCatch              Kind = "catch"
	KindBranded            Kind = "branded"
	KindPipeline           Kind = "pipeline"
	KindEffects            Kind = "effects"
	KindEnum               Kind = "enum"
	KindNativeEnum         Kind = "nativeEnum"

	// Kinds below have no dedicated simplified shape.
	KindAny      Kind = "any"
	KindUnknown  Kind = "unknown"
	KindNever    Kind = "never"
	KindVoid     Kind = "void"
	KindTuple    Kind = "tuple"
	KindRecord   Kind = "record"
	KindMap      Kind = "map"
	KindFunction Kind = "function"
	KindLazy     Kind = "lazy"
	KindPromise  Kind = "promise"
	KindReadonly Kind = "readonly"
	KindSymbol   Kind = "symbol"
	KindNaN      Kind = "nan"
)

// Kinds lists every Kind the simplifier knows about.
var Kinds = []Kind{
	KindString, KindNumber, KindBigInt, KindBoolean, KindDate, KindNull, KindUndefined,
	KindLiteral, KindObject, KindArray, KindSet, KindUnion, KindDiscriminatedUnion,
	KindIntersection, KindOptional, KindNullable, KindDefault, KindCatch, KindBranded,
	KindPipeline, KindEffects, KindEnum, KindNativeEnum,
	KindAny, KindUnknown, KindNever, KindVoid, KindTuple, KindRecord, KindMap,
	KindFunction, KindLazy, KindPromise, KindReadonly, KindSymbol, KindNaN,
}

// Node is one node of a request schema.
//
// Which payload fields are meaningful depends on Kind:
//
//	object                     Fields
//	array, set                 Element
//	union, discriminatedUnion  Options
//	intersection               Left, Right
//	optional, nullable, default, catch, branded,
//	pipeline (input side), effects, readonly  Inner
//	lazy                       Lazy
//	literal                    Value
//	enum                       Values
//	default                    Default
//	string, number, bigint, date  Checks
type Node struct {
	Kind        Kind
	Description string

	Fields  []Field
	Element *Node
	Options []*Node
	Left    *Node
	Right   *Node
	Inner   *Node
	Lazy    func() *Node

	Value   any
	Values  []string
	Default func() any
	Checks  []Check

	// Discriminator names the tag field of a discriminated union.
	Discriminator string
	// Brand is the nominal name of a branded node.
	Brand string
}

// Field is a named child of an object node.
type Field struct {
	Name string
	Node *Node
}

// Check is a validation constraint carried by scalar nodes.
type Check struct {
	Kind    string `json:"kind" yaml:"kind"`
	Value   any    `json:"value,omitempty" yaml:"value,omitempty"`
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
}

// Field returns the child named name.
func (n *Node) Field(name string) (*Node, bool) {
	if n == nil {
		return nil, false
	}
	for _, f := range n.Fields {
		if f.Name == name {
			return f.Node, true
		}
	}
	return nil, false
}
