// Package manifest loads the tutorial manifest (learning-api.conf.yaml) into typed records.
//
// Every entry must carry all fields with the declared YAML type. There is no coercion and
// no defaulting: a single bad entry fails the whole load so that authoring mistakes surface
// in CI instead of producing half-published previews.
package manifest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tutorial is one manifest entry describing a tutorial's catalog metadata.
type Tutorial struct {
	// Title is the human-readable tutorial title.
	Title string `yaml:"title"`
	// ShortDescription is the summary shown in catalog listings.
	ShortDescription string `yaml:"short_description"`
	// Slug is the globally unique URL identifier.
	Slug string `yaml:"slug"`
	// Status is the catalog status, e.g. "published".
	Status string `yaml:"status"`
	// LocalPath is the repository-relative directory holding the tutorial.
	LocalPath string `yaml:"local_path"`
	// Category names a tutorials_categories entry.
	Category string `yaml:"category"`
	// Topics names tutorials_topics entries, in order.
	Topics []string `yaml:"topics"`
	// ReadingTime is the estimated reading time in minutes.
	ReadingTime int `yaml:"reading_time"`
	// CatalogFeatured marks the tutorial as featured in the catalog.
	CatalogFeatured bool `yaml:"catalog_featured"`
}

type fieldKind int

const (
	kindString fieldKind = iota
	kindStringList
	kindInt
	kindBool
)

func (k fieldKind) String() string {
	switch k {
	case kindStringList:
		return "list of strings"
	case kindInt:
		return "integer"
	case kindBool:
		return "boolean"
	default:
		return "string"
	}
}

// schema lists the required fields in the order they are checked.
var schema = []struct {
	name string
	kind fieldKind
}{
	{"title", kindString},
	{"short_description", kindString},
	{"slug", kindString},
	{"status", kindString},
	{"local_path", kindString},
	{"category", kindString},
	{"topics", kindStringList},
	{"reading_time", kindInt},
	{"catalog_featured", kindBool},
}

// Load reads the manifest at path and returns its validated entries in manifest order.
func Load(path string) ([]Tutorial, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}
	return Parse(path, raw)
}

// Parse validates manifest bytes. name is only used in error messages.
func Parse(name string, data []byte) ([]Tutorial, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ReadError{Path: name, Err: err}
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return []Tutorial{}, nil
	}

	root := resolve(doc.Content[0])
	if root.Kind == yaml.ScalarNode && root.ShortTag() == "!!null" {
		return []Tutorial{}, nil
	}
	if root.Kind != yaml.SequenceNode {
		return nil, &ValidationError{File: name, Index: -1, Entry: dump(root), Expected: "sequence of mappings"}
	}

	out := make([]Tutorial, 0, len(root.Content))
	for i, item := range root.Content {
		t, err := parseEntry(name, i, resolve(item))
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func parseEntry(name string, index int, item *yaml.Node) (Tutorial, error) {
	if item.Kind != yaml.MappingNode {
		return Tutorial{}, &ValidationError{File: name, Index: index, Entry: dump(item), Expected: "mapping"}
	}

	fields := mappingFields(item)

	for _, f := range schema {
		if !hasKind(fields[f.name], f.kind) {
			return Tutorial{}, &ValidationError{
				File:     name,
				Index:    index,
				Entry:    dump(item),
				Field:    f.name,
				Expected: f.kind.String(),
			}
		}
	}

	var t Tutorial
	if err := item.Decode(&t); err != nil {
		return Tutorial{}, fmt.Errorf("decode manifest entry %d: %w", index, err)
	}
	return t, nil
}

// mappingFields indexes a mapping by key. Fields pulled in through "<<" merge keys
// are overridden by explicit keys; among merged mappings the earlier one wins.
func mappingFields(m *yaml.Node) map[string]*yaml.Node {
	fields := make(map[string]*yaml.Node, len(m.Content)/2)
	var merged []*yaml.Node
	for i := 0; i+1 < len(m.Content); i += 2 {
		key, value := m.Content[i], resolve(m.Content[i+1])
		if key.Kind == yaml.ScalarNode && key.ShortTag() == "!!merge" {
			if value.Kind == yaml.SequenceNode {
				for _, el := range value.Content {
					merged = append(merged, resolve(el))
				}
			} else {
				merged = append(merged, value)
			}
			continue
		}
		fields[key.Value] = value
	}
	for _, src := range merged {
		if src == nil || src.Kind != yaml.MappingNode {
			continue
		}
		for k, v := range mappingFields(src) {
			if _, ok := fields[k]; !ok {
				fields[k] = v
			}
		}
	}
	return fields
}

func hasKind(n *yaml.Node, kind fieldKind) bool {
	if n == nil {
		return false
	}
	switch kind {
	case kindStringList:
		if n.Kind != yaml.SequenceNode {
			return false
		}
		for _, el := range n.Content {
			if !hasKind(resolve(el), kindString) {
				return false
			}
		}
		return true
	case kindInt:
		return n.Kind == yaml.ScalarNode && n.ShortTag() == "!!int"
	case kindBool:
		return n.Kind == yaml.ScalarNode && n.ShortTag() == "!!bool"
	default:
		return n.Kind == yaml.ScalarNode && n.ShortTag() == "!!str"
	}
}

func resolve(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

func dump(n *yaml.Node) string {
	out, err := yaml.Marshal(n)
	if err != nil {
		return fmt.Sprintf("<unprintable entry: %v>", err)
	}
	return string(out)
}
