package bank

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ParseYAML decodes either a top-level list of items or a document with an
// "items" list.
func ParseYAML(data []byte) ([]Record, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if len(node.Content) == 0 {
		return nil, nil
	}

	var records []Record
	switch root := node.Content[0]; root.Kind {
	case yaml.SequenceNode:
		if err := root.Decode(&records); err != nil {
			return nil, fmt.Errorf("decode items: %w", err)
		}
	case yaml.MappingNode:
		var doc struct {
			Items []Record `yaml:"items"`
		}
		if err := root.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode items: %w", err)
		}
		records = doc.Items
	default:
		return nil, fmt.Errorf("expected a list of items or an items: key")
	}
	return records, nil
}
