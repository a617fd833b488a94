package fs

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/slotbook/pkg/core"
	"gopkg.in/yaml.v3"
)

// Serializer converts the whole store document to and from bytes.
type Serializer interface {
	Decode(data []byte) (core.Document, error)
	Encode(doc core.Document) ([]byte, error)
	// Name is the format name reported by introspection.
	Name() string
}

// SerializerFor picks the format from the file extension. Anything that is
// not YAML is treated as JSON.
func SerializerFor(path string) Serializer {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAMLSerializer{}
	default:
		return JSONSerializer{}
	}
}

// --- JSON Serializer ---

// JSONSerializer writes the document pretty-printed with two-space
// indentation. Numbers are decoded exactly, so ids stay integral.
type JSONSerializer struct{}

func (JSONSerializer) Name() string { return "json" }

func (JSONSerializer) Decode(data []byte) (core.Document, error) {
	var payload map[string]any
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	if err := decoder.Decode(&payload); err != nil {
		return nil, fmt.Errorf("invalid json: %w", err)
	}
	// A second value would be silently dropped on the next write.
	if err := decoder.Decode(new(any)); !errors.Is(err, io.EOF) {
		return nil, errors.New("invalid json: trailing data")
	}
	if payload == nil {
		return nil, fmt.Errorf("invalid json: top level must be an object")
	}
	return toDocument(payload)
}

func (JSONSerializer) Encode(doc core.Document) ([]byte, error) {
	if doc == nil {
		doc = core.Document{}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// --- YAML Serializer ---

// YAMLSerializer stores the same structure as YAML.
type YAMLSerializer struct{}

func (YAMLSerializer) Name() string { return "yaml" }

func (YAMLSerializer) Decode(data []byte) (core.Document, error) {
	var payload map[string]any
	if err := yaml.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("invalid yaml: %w", err)
	}
	if payload == nil {
		return nil, fmt.Errorf("invalid yaml: top level must be a mapping")
	}
	return toDocument(payload)
}

func (YAMLSerializer) Encode(doc core.Document) ([]byte, error) {
	if doc == nil {
		doc = core.Document{}
	}
	// yaml.v3 does not know core.Record; hand it plain maps.
	plain := make(map[string][]map[string]any, len(doc))
	for name, items := range doc {
		list := make([]map[string]any, 0, len(items))
		for _, item := range items {
			list = append(list, map[string]any(item))
		}
		plain[name] = list
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(plain); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// toDocument validates the decoded shape: every top-level value must be a
// list of objects.
func toDocument(payload map[string]any) (core.Document, error) {
	doc := make(core.Document, len(payload))
	for name, raw := range payload {
		if raw == nil {
			doc[name] = []core.Record{}
			continue
		}
		list, ok := raw.([]any)
		if !ok {
			return nil, fmt.Errorf("collection %q: expected a list, got %T", name, raw)
		}
		items := make([]core.Record, 0, len(list))
		for i, entry := range list {
			m, ok := entry.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("collection %q[%d]: expected an object, got %T", name, i, entry)
			}
			items = append(items, core.Record(normalize(m).(map[string]any)))
		}
		doc[name] = items
	}
	return doc, nil
}

// normalize maps decoder-specific scalar types onto int64, float64 and
// string so records look the same whatever format they came from.
func normalize(val any) any {
	switch v := val.(type) {
	case map[string]any:
		for k, inner := range v {
			v[k] = normalize(inner)
		}
		return v
	case []any:
		for i, inner := range v {
			v[i] = normalize(inner)
		}
		return v
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i
		}
		if f, err := v.Float64(); err == nil {
			return f
		}
		return v.String()
	case int:
		return int64(v)
	case uint64:
		return float64(v)
	case time.Time:
		return v.UTC().Format(core.TimestampLayout)
	default:
		return v
	}
}
