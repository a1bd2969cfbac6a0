package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Entry is one key/value pair of a RawConfig.
type Entry struct {
	Key   string
	Value any
}

// RawConfig is an ordered mapping from PascalCase option names to values as
// they appear in the configuration document. Values are scalars (string,
// int, float64, bool, nil), lists ([]any) or mappings (map[string]any).
//
// A RawConfig is never mutated after construction; every transformation
// returns a new value.
type RawConfig struct {
	keys   []string
	values map[string]any
}

// NewRawConfig builds a RawConfig from entries in order. A repeated key
// keeps its first position and takes the last value.
func NewRawConfig(entries ...Entry) *RawConfig {
	c := &RawConfig{values: make(map[string]any, len(entries))}
	for _, e := range entries {
		if _, ok := c.values[e.Key]; !ok {
			c.keys = append(c.keys, e.Key)
		}
		c.values[e.Key] = normalize(e.Value)
	}
	return c
}

// ParseRaw decodes a YAML (or JSON) mapping document, preserving key order.
// An empty document yields an empty RawConfig.
func ParseRaw(data []byte) (*RawConfig, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if doc.Kind == 0 || len(doc.Content) == 0 {
		return NewRawConfig(), nil
	}

	root := doc.Content[0]
	if root.Kind == yaml.ScalarNode && root.Tag == "!!null" {
		return NewRawConfig(), nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("config document must be a mapping, got %s", nodeKind(root))
	}

	c := &RawConfig{values: make(map[string]any, len(root.Content)/2)}
	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode, valueNode := root.Content[i], root.Content[i+1]
		if keyNode.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: config keys must be scalars", keyNode.Line)
		}
		key := keyNode.Value
		if _, dup := c.values[key]; dup {
			return nil, fmt.Errorf("line %d: duplicate key %q", keyNode.Line, key)
		}

		var value any
		if err := valueNode.Decode(&value); err != nil {
			return nil, fmt.Errorf("line %d: failed to decode %s: %w", valueNode.Line, key, err)
		}

		c.keys = append(c.keys, key)
		c.values[key] = normalize(value)
	}

	return c, nil
}

// LoadRawFile reads and parses a configuration file.
func LoadRawFile(path string) (*RawConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseRaw(data)
}

// Keys returns the option names in document order.
func (c *RawConfig) Keys() []string {
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

// Len returns the number of options.
func (c *RawConfig) Len() int {
	return len(c.keys)
}

// Get returns the value stored under key.
func (c *RawConfig) Get(key string) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Has reports whether key is present, even with a null value.
func (c *RawConfig) Has(key string) bool {
	_, ok := c.values[key]
	return ok
}

// Entries returns all pairs in document order.
func (c *RawConfig) Entries() []Entry {
	out := make([]Entry, 0, len(c.keys))
	for _, k := range c.keys {
		out = append(out, Entry{Key: k, Value: c.values[k]})
	}
	return out
}

// With returns a copy of c with key set to value. A new key is appended.
func (c *RawConfig) With(key string, value any) *RawConfig {
	return NewRawConfig(append(c.Entries(), Entry{Key: key, Value: value})...)
}

// Map returns a copy of c whose values are produced by fn, in key order.
// The first error aborts the transformation.
func (c *RawConfig) Map(fn func(key string, value any) (any, error)) (*RawConfig, error) {
	out := &RawConfig{
		keys:   make([]string, len(c.keys)),
		values: make(map[string]any, len(c.keys)),
	}
	copy(out.keys, c.keys)
	for _, k := range c.keys {
		v, err := fn(k, c.values[k])
		if err != nil {
			return nil, err
		}
		out.values[k] = normalize(v)
	}
	return out, nil
}

// MarshalYAML emits the mapping in document order.
func (c *RawConfig) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, k := range c.keys {
		var value yaml.Node
		if err := value.Encode(c.values[k]); err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", k, err)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
			&value,
		)
	}
	return node, nil
}

// MarshalJSON emits the mapping as a JSON object in document order.
func (c *RawConfig) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range c.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(c.values[k])
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", k, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// normalize converts decoded YAML values to the canonical RawConfig shapes.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	case []string:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = val
		}
		return out
	case map[string]string:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = val
		}
		return out
	case int64:
		return int(t)
	case int32:
		return int(t)
	case uint64:
		return int(t)
	case float32:
		return float64(t)
	default:
		return v
	}
}

func nodeKind(n *yaml.Node) string {
	switch n.Kind {
	case yaml.SequenceNode:
		return "a sequence"
	case yaml.ScalarNode:
		return "a scalar"
	case yaml.AliasNode:
		return "an alias"
	default:
		return "an unknown node"
	}
}
