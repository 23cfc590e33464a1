package schema

import (
	"bytes"

	json "github.com/goccy/go-json"
)

// Type is the discriminant of a Simple.
type Type string

const (
	TypeString  Type = "string"
	TypeNumber  Type = "number"
	TypeBoolean Type = "boolean"
	TypeDate    Type = "date"
	TypeNull    Type = "null"
	TypeObject  Type = "object"
	TypeArray   Type = "array"
	TypeLiteral Type = "literal"
	TypeUnion   Type = "union"
	TypeOther   Type = "other"
)

// ValueType is the coarse type of a literal value.
type ValueType string

const (
	ValueString  ValueType = "string"
	ValueNumber  ValueType = "number"
	ValueBoolean ValueType = "boolean"
	ValueNull    ValueType = "null"
	ValueOther   ValueType = "other"
)

// Simple is the simplified projection of a Node.
type Simple struct {
	Type        Type
	Optional    bool
	Description string

	Default    any
	HasDefault bool
	Checks     []Check

	// Children holds object properties in declaration order.
	Children []Property
	// Element is the array element schema.
	Element *Simple
	// Options are the alternatives of a union.
	Options []*Simple

	Value     any
	ValueType ValueType

	// Kind keeps the source kind of an "other" shape.
	Kind Kind
}

// Property is one named child of an object shape.
type Property struct {
	Name   string
	Schema *Simple
}

// Child returns the object property named name.
func (s *Simple) Child(name string) (*Simple, bool) {
	if s == nil {
		return nil, false
	}
	for _, p := range s.Children {
		if p.Name == name {
			return p.Schema, true
		}
	}
	return nil, false
}

// IsUndefined reports whether s is the projection of an undefined node.
func (s *Simple) IsUndefined() bool {
	return s != nil && s.Type == TypeOther && s.Kind == KindUndefined
}

// MarshalJSON writes s with object children in declaration order.
func (s *Simple) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	w := objectWriter{buf: &buf}
	w.field("type", s.Type)
	w.field("optional", s.Optional)
	if s.Description != "" {
		w.field("description", s.Description)
	}
	if s.HasDefault {
		w.field("default", s.Default)
	}
	if len(s.Checks) > 0 {
		w.field("checks", s.Checks)
	}
	switch s.Type {
	case TypeObject:
		w.key("children")
		buf.WriteByte('{')
		cw := objectWriter{buf: &buf}
		for _, p := range s.Children {
			cw.field(p.Name, p.Schema)
		}
		if cw.err != nil {
			return nil, cw.err
		}
		buf.WriteByte('}')
	case TypeArray:
		w.field("element", s.Element)
	case TypeUnion:
		w.field("options", s.Options)
	case TypeLiteral:
		w.field("value", s.Value)
		w.field("valueType", s.ValueType)
	case TypeOther:
		w.field("kind", s.Kind)
	}
	if w.err != nil {
		return nil, w.err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

type objectWriter struct {
	buf   *bytes.Buffer
	count int
	err   error
}

func (w *objectWriter) key(k string) {
	if w.err != nil {
		return
	}
	kb, err := json.Marshal(k)
	if err != nil {
		w.err = err
		return
	}
	if w.count > 0 {
		w.buf.WriteByte(',')
	}
	w.count++
	w.buf.Write(kb)
	w.buf.WriteByte(':')
}

func (w *objectWriter) field(k string, v any) {
	w.key(k)
	if w.err != nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		w.err = err
		return
	}
	w.buf.Write(b)
}
