package openapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/erraggy/oastools/oaserrors"
	"github.com/speakeasy-api/openapi/sequencedmap"
	"gopkg.in/yaml.v3"
)

// Map is an ordered mapping node of the generic document tree. Key order is
// the declaration order in the source text.
type Map = sequencedmap.Map[string, any]

// Format identifies which parser produced a Document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Document is a parsed OpenAPI document exposed as a generic tree of
// *Map, []any, string, int64, float64, bool and nil values.
// It is not modified after Parse returns.
type Document struct {
	root   *Map
	format Format
	source string
}

// NewDocument wraps an already-built tree.
func NewDocument(root *Map) *Document {
	if root == nil {
		root = sequencedmap.New[string, any]()
	}
	return &Document{root: root, format: FormatYAML}
}

// Parse decodes data as JSON and falls back to YAML when that fails.
// source is only used in error messages.
func Parse(data []byte, source string) (*Document, error) {
	root, jsonErr := decodeJSON(data)
	if jsonErr == nil {
		return &Document{root: root, format: FormatJSON, source: source}, nil
	}

	root, yamlErr := decodeYAML(data)
	if yamlErr != nil {
		return nil, &oaserrors.ParseError{
			Path:    source,
			Message: "document is neither valid JSON nor valid YAML",
			Cause:   errors.Join(jsonErr, yamlErr),
		}
	}
	return &Document{root: root, format: FormatYAML, source: source}, nil
}

// Root returns the top-level mapping.
func (d *Document) Root() *Map { return d.root }

// Format returns the syntax the document was parsed from.
func (d *Document) Format() Format { return d.format }

// Source returns the path or URL the document was read from, if known.
func (d *Document) Source() string { return d.source }

// Version returns the value of the top-level "openapi" field.
func (d *Document) Version() string { return StringValue(d.root, "openapi") }

// Info returns the "info" stanza, or nil.
func (d *Document) Info() *Map { return MapValue(d.root, "info") }

// Paths returns the "paths" stanza, or nil.
func (d *Document) Paths() *Map { return MapValue(d.root, "paths") }

// Components returns the "components" stanza, or nil.
func (d *Document) Components() *Map { return MapValue(d.root, "components") }

// Servers returns the declared server URLs in order.
func (d *Document) Servers() []string {
	var out []string
	for _, s := range ListValue(d.root, "servers") {
		if u := StringValue(AsMap(s), "url"); u != "" {
			out = append(out, u)
		}
	}
	return out
}

// AsMap returns v as a mapping node, or nil.
func AsMap(v any) *Map {
	m, _ := v.(*Map)
	return m
}

// MapValue returns m[key] as a mapping node, or nil.
func MapValue(m *Map, key string) *Map {
	v, ok := m.Get(key)
	if !ok {
		return nil
	}
	return AsMap(v)
}

// StringValue returns m[key] when it is a string.
func StringValue(m *Map, key string) string {
	v, ok := m.Get(key)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// BoolValue returns m[key] when it is a bool.
func BoolValue(m *Map, key string) bool {
	v, ok := m.Get(key)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// ListValue returns m[key] when it is a sequence.
func ListValue(m *Map, key string) []any {
	v, ok := m.Get(key)
	if !ok {
		return nil
	}
	l, _ := v.([]any)
	return l
}

// StringList returns the string members of m[key].
func StringList(m *Map, key string) []string {
	var out []string
	for _, v := range ListValue(m, key) {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Ref returns the "$ref" of a node.
func Ref(m *Map) (string, bool) {
	ref := StringValue(m, "$ref")
	return ref, ref != ""
}

// FirstEntry returns the first key/value of a mapping in declaration order.
func FirstEntry(m *Map) (string, any, bool) {
	for k, v := range m.All() {
		return k, v, true
	}
	return "", nil, false
}

// setValue stores key, replacing an earlier duplicate instead of appending a
// second element for it.
func setValue(m *Map, key string, value any) {
	if m.Has(key) {
		m.Delete(key)
	}
	m.Set(key, value)
}

func decodeJSON(data []byte) (*Map, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeJSONValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unexpected data after top-level JSON value")
	}
	root, ok := v.(*Map)
	if !ok {
		return nil, fmt.Errorf("document root must be an object, got %T", v)
	}
	return root, nil
}

func decodeJSONValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			m := sequencedmap.New[string, any]()
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := kt.(string)
				if !ok {
					return nil, fmt.Errorf("object key must be a string, got %T", kt)
				}
				val, err := decodeJSONValue(dec)
				if err != nil {
					return nil, err
				}
				setValue(m, key, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return m, nil
		case '[':
			list := []any{}
			for dec.More() {
				val, err := decodeJSONValue(dec)
				if err != nil {
					return nil, err
				}
				list = append(list, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return list, nil
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", t)
		}
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i, nil
		}
		return t.Float64()
	default:
		return t, nil
	}
}

func decodeYAML(data []byte) (*Map, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	v, err := convertYAMLNode(&node)
	if err != nil {
		return nil, err
	}
	root, ok := v.(*Map)
	if !ok {
		return nil, fmt.Errorf("document root must be a mapping, got %T", v)
	}
	return root, nil
}

func convertYAMLNode(node *yaml.Node) (any, error) {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return nil, errors.New("empty YAML document")
		}
		return convertYAMLNode(node.Content[0])
	case yaml.MappingNode:
		m := sequencedmap.New[string, any]()
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, val := node.Content[i], node.Content[i+1]
			if key.Value == "<<" && (key.Tag == "!!merge" || key.Tag == "") {
				if err := mergeYAMLNode(m, val); err != nil {
					return nil, err
				}
				continue
			}
			v, err := convertYAMLNode(val)
			if err != nil {
				return nil, err
			}
			setValue(m, key.Value, v)
		}
		return m, nil
	case yaml.SequenceNode:
		list := make([]any, 0, len(node.Content))
		for _, item := range node.Content {
			v, err := convertYAMLNode(item)
			if err != nil {
				return nil, err
			}
			list = append(list, v)
		}
		return list, nil
	case yaml.AliasNode:
		return convertYAMLNode(node.Alias)
	case yaml.ScalarNode:
		var v any
		if err := node.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: %w", node.Line, err)
		}
		if i, ok := v.(int); ok {
			return int64(i), nil
		}
		return v, nil
	default:
		return nil, fmt.Errorf("line %d: unsupported YAML node kind %d", node.Line, node.Kind)
	}
}

func mergeYAMLNode(dst *Map, val *yaml.Node) error {
	sources := []*yaml.Node{val}
	if val.Kind == yaml.SequenceNode {
		sources = val.Content
	}
	for _, src := range sources {
		v, err := convertYAMLNode(src)
		if err != nil {
			return err
		}
		merged := AsMap(v)
		if merged == nil {
			return fmt.Errorf("line %d: merge value must be a mapping", src.Line)
		}
		for k, mv := range merged.All() {
			if !dst.Has(k) {
				dst.Set(k, mv)
			}
		}
	}
	return nil
}
