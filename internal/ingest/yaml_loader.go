package ingest

import (
	"fmt"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"gopkg.in/yaml.v3"

	"github.com/agentic-research/arbor/api"
)

// ParseYAML decodes a YAML document and selects its records with the same
// JSONPath selectors used for JSON.
func ParseYAML(data []byte, selector string) ([]api.Item, error) {
	var root any
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return SelectRecords(root, selector)
}

// LoadYAML reads a YAML file from fs and selects its records.
func LoadYAML(fs billy.Filesystem, path, selector string) ([]api.Item, error) {
	data, err := util.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return ParseYAML(data, selector)
}
