package domain

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// MetadataEntry is one -metadata key=value pair.
type MetadataEntry struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// Metadata keeps container tags in insertion order so generated commands
// are reproducible. It encodes as a JSON/YAML object.
type Metadata []MetadataEntry

// Get returns the value stored for key.
func (m Metadata) Get(key string) (string, bool) {
	for _, entry := range m {
		if entry.Key == key {
			return entry.Value, true
		}
	}
	return "", false
}

// With returns a copy with key set; an existing key keeps its position.
func (m Metadata) With(key, value string) Metadata {
	out := make(Metadata, 0, len(m)+1)
	replaced := false
	for _, entry := range m {
		if entry.Key == key {
			entry.Value = value
			replaced = true
		}
		out = append(out, entry)
	}
	if !replaced {
		out = append(out, MetadataEntry{Key: key, Value: value})
	}
	return out
}

// Without returns a copy with key removed.
func (m Metadata) Without(key string) Metadata {
	out := make(Metadata, 0, len(m))
	for _, entry := range m {
		if entry.Key != key {
			out = append(out, entry)
		}
	}
	return out
}

// MarshalJSON writes the entries as an object in insertion order.
func (m Metadata) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, entry := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(entry.Key)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(entry.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts an object (document order is kept) or an array of
// {key, value} entries.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*m = Metadata{}
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var entries []MetadataEntry
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return fmt.Errorf("decode metadata entries: %w", err)
		}
		out := Metadata{}
		for _, entry := range entries {
			out = out.With(entry.Key, entry.Value)
		}
		*m = out
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("decode metadata: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("decode metadata: expected object, got %v", tok)
	}

	out := Metadata{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("decode metadata key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("decode metadata: unexpected key %v", keyTok)
		}
		var raw any
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("decode metadata value for %q: %w", key, err)
		}
		out = out.With(key, scalarString(raw))
	}
	*m = out
	return nil
}

// MarshalYAML writes the entries as an ordered mapping node.
func (m Metadata) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, entry := range m {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: entry.Key},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: entry.Value},
		)
	}
	return node, nil
}

// UnmarshalYAML reads a mapping node keeping document order.
func (m *Metadata) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.MappingNode:
		out := Metadata{}
		for i := 0; i+1 < len(node.Content); i += 2 {
			out = out.With(node.Content[i].Value, node.Content[i+1].Value)
		}
		*m = out
		return nil
	case yaml.SequenceNode:
		var entries []MetadataEntry
		if err := node.Decode(&entries); err != nil {
			return fmt.Errorf("decode metadata entries: %w", err)
		}
		out := Metadata{}
		for _, entry := range entries {
			out = out.With(entry.Key, entry.Value)
		}
		*m = out
		return nil
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			*m = Metadata{}
			return nil
		}
	}
	return fmt.Errorf("decode metadata: line %d: expected mapping", node.Line)
}

func scalarString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64, bool:
		return fmt.Sprint(val)
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(data)
	}
}
