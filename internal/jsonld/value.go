// Package jsonld holds a typed representation of arbitrary JSON documents and
// the traversal helpers the audit rules use to search structured data.
package jsonld

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind identifies the concrete type stored in a Value.
type Kind int

const (
	Null Kind = iota
	Bool
	Number
	String
	Array
	Object
)

var (
	errEmptyValue     = errors.New("jsonld: empty json value")
	errTrailingData   = errors.New("jsonld: trailing data after json value")
	errUnexpectedKind = errors.New("jsonld: unexpected decoded type")
)

// Value is one JSON value of any kind. Only the field matching Kind is set.
// Numbers keep their literal text.
type Value struct {
	Kind   Kind
	Bool   bool
	Number json.Number
	String string
	Array  []Value
	Object map[string]Value
}

// Parse decodes a complete JSON document.
func Parse(data []byte) (Value, error) {
	var v Value
	if err := v.UnmarshalJSON(data); err != nil {
		return Value{}, err
	}
	return v, nil
}

// UnmarshalJSON decodes raw JSON into the typed representation in a single
// pass over the input.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyValue
		}
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errTrailingData
	}

	out, err := fromAny(raw)
	if err != nil {
		return err
	}
	*v = out
	return nil
}

func fromAny(raw any) (Value, error) {
	switch x := raw.(type) {
	case nil:
		return Value{Kind: Null}, nil
	case bool:
		return Value{Kind: Bool, Bool: x}, nil
	case json.Number:
		return Value{Kind: Number, Number: x}, nil
	case string:
		return Value{Kind: String, String: x}, nil
	case []any:
		arr := make([]Value, 0, len(x))
		for _, item := range x {
			child, err := fromAny(item)
			if err != nil {
				return Value{}, err
			}
			arr = append(arr, child)
		}
		return Value{Kind: Array, Array: arr}, nil
	case map[string]any:
		obj := make(map[string]Value, len(x))
		for key, item := range x {
			child, err := fromAny(item)
			if err != nil {
				return Value{}, err
			}
			obj[key] = child
		}
		return Value{Kind: Object, Object: obj}, nil
	default:
		return Value{}, fmt.Errorf("%w: %T", errUnexpectedKind, raw)
	}
}

// MarshalJSON encodes the value back to JSON. Object keys come out sorted.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// MarshalYAML lets YAML reports embed structured data in its JSON shape.
// Numbers are written as their original literals.
func (v Value) MarshalYAML() (any, error) {
	switch v.Kind {
	case Object:
		out := make(map[string]any, len(v.Object))
		for key, child := range v.Object {
			out[key], _ = child.MarshalYAML()
		}
		return out, nil
	case Array:
		out := make([]any, 0, len(v.Array))
		for _, child := range v.Array {
			item, _ := child.MarshalYAML()
			out = append(out, item)
		}
		return out, nil
	case Number:
		tag := "!!int"
		if strings.ContainsAny(string(v.Number), ".eE") {
			tag = "!!float"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: v.Number.String()}, nil
	default:
		return v.Interface(), nil
	}
}

// Interface converts the value into the standard encoding/json shapes,
// with numbers as json.Number.
func (v Value) Interface() any {
	switch v.Kind {
	case Object:
		out := make(map[string]any, len(v.Object))
		for key, child := range v.Object {
			out[key] = child.Interface()
		}
		return out
	case Array:
		out := make([]any, 0, len(v.Array))
		for _, child := range v.Array {
			out = append(out, child.Interface())
		}
		return out
	case String:
		return v.String
	case Number:
		return v.Number
	case Bool:
		return v.Bool
	default:
		return nil
	}
}

// Text renders the value as plain text: strings verbatim, scalars in their
// literal form and composites as compact JSON.
func (v Value) Text() string {
	switch v.Kind {
	case String:
		return v.String
	case Number:
		return v.Number.String()
	case Bool:
		return strconv.FormatBool(v.Bool)
	case Null:
		return "null"
	default:
		b, err := v.MarshalJSON()
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// IsObject reports whether the value is a JSON object.
func (v Value) IsObject() bool { return v.Kind == Object }

// IsArray reports whether the value is a JSON array.
func (v Value) IsArray() bool { return v.Kind == Array }

// Get returns the member stored under key when v is an object.
func (v Value) Get(key string) (Value, bool) {
	if v.Kind != Object {
		return Value{}, false
	}
	child, ok := v.Object[key]
	return child, ok
}

// StringValue returns the string when the value is a string.
func (v Value) StringValue() (string, bool) {
	if v.Kind != String {
		return "", false
	}
	return v.String, true
}

// Str builds a string value.
func Str(s string) Value { return Value{Kind: String, String: s} }

// Obj builds an object value from key/value pairs.
func Obj(members map[string]Value) Value { return Value{Kind: Object, Object: members} }

// Arr builds an array value.
func Arr(items ...Value) Value { return Value{Kind: Array, Array: items} }
