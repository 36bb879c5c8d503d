package topicgraph

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

type file struct {
	Topics []Topic `yaml:"topics"`
}

// Default returns the built-in topic graph.
func Default() *Graph {
	g, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("built-in topic graph is invalid: %v", err))
	}
	return g
}

// Parse builds a graph from a YAML document with a top-level "topics" list.
func Parse(data []byte) (*Graph, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse topics: %w", err)
	}
	return New(f.Topics)
}

// Load reads topics from a YAML file, or from every .yaml/.yml file under
// a directory, and builds one graph from all of them.
func Load(path string) (*Graph, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat topics: %w", err)
	}
	if !info.IsDir() {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read topics: %w", err)
		}
		return Parse(data)
	}

	var topics []Topic
	err = filepath.Walk(path, func(p string, fi os.FileInfo, err error) error {
		if err != nil || fi.IsDir() {
			return err
		}
		if !strings.HasSuffix(p, ".yaml") && !strings.HasSuffix(p, ".yml") {
			return nil
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("read %s: %w", p, err)
		}
		var f file
		if err := yaml.Unmarshal(data, &f); err != nil {
			return fmt.Errorf("parse %s: %w", p, err)
		}
		topics = append(topics, f.Topics...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return New(topics)
}
