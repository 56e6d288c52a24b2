package ingest

import (
	"fmt"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"

	"github.com/agentic-research/arbor/api"
)

// SelectRecords runs a JSONPath selector against a decoded document and
// converts every match into an item. Matches must be objects.
func SelectRecords(root any, selector string) ([]api.Item, error) {
	x, err := jp.ParseString(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid jsonpath '%s': %w", selector, err)
	}
	return api.ItemsFromMaps(x.Get(root))
}

// ParseJSON decodes a JSON document and selects its records.
func ParseJSON(data []byte, selector string) ([]api.Item, error) {
	root, err := oj.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	return SelectRecords(root, selector)
}

// LoadJSON reads a JSON file from fs and selects its records.
func LoadJSON(fs billy.Filesystem, path, selector string) ([]api.Item, error) {
	data, err := util.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return ParseJSON(data, selector)
}
