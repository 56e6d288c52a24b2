// Package config loads arbor settings from an optional HCL file.
//
//	ignore_duplicates = false
//	ignore_root       = false
//	ignore_id_type    = false
//
//	source {
//	  kind     = "json"
//	  path     = "records.json"
//	  selector = "$.items[*]"
//	}
package config

import (
	"fmt"
	"log/slog"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/hashicorp/hcl/v2/hclsimple"

	"github.com/agentic-research/arbor/internal/graph"
	"github.com/agentic-research/arbor/internal/ingest"
)

// Config is the decoded configuration file.
type Config struct {
	IgnoreDuplicates bool `hcl:"ignore_duplicates,optional"`
	IgnoreRoot       bool `hcl:"ignore_root,optional"`
	IgnoreIDType     bool `hcl:"ignore_id_type,optional"`

	Source *SourceBlock `hcl:"source,block"`

	// Serve configures `arbor serve`.
	Serve *ServeBlock `hcl:"serve,block"`
}

// SourceBlock mirrors ingest.Source.
type SourceBlock struct {
	Kind     string `hcl:"kind,optional"`
	Path     string `hcl:"path,optional"`
	Selector string `hcl:"selector,optional"`
	Table    string `hcl:"table,optional"`
}

// ServeBlock holds NFS server settings.
type ServeBlock struct {
	Addr string `hcl:"addr,optional"`
}

// Default returns a configuration with every validation enabled and no
// source.
func Default() Config {
	return Config{}
}

// Load reads and decodes an HCL (or HCL-JSON, by extension) file from fs.
func Load(fs billy.Filesystem, path string) (Config, error) {
	src, err := util.ReadFile(fs, path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(path, src)
}

// Parse decodes src. filename selects the syntax: .hcl or .json.
func Parse(filename string, src []byte) (Config, error) {
	cfg := Default()
	if err := hclsimple.Decode(filename, src, nil, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config %s: %w", filename, err)
	}
	return cfg, nil
}

// StoreConfig converts the validation flags into a graph.Config.
func (c Config) StoreConfig(logger *slog.Logger) graph.Config {
	return graph.Config{
		IgnoreDuplicates: c.IgnoreDuplicates,
		IgnoreRoot:       c.IgnoreRoot,
		IgnoreIDType:     c.IgnoreIDType,
		Logger:           logger,
	}
}

// IngestSource returns the configured source, or the zero Source.
func (c Config) IngestSource() ingest.Source {
	if c.Source == nil {
		return ingest.Source{}
	}
	return ingest.Source{
		Kind:     c.Source.Kind,
		Path:     c.Source.Path,
		Selector: c.Source.Selector,
		Table:    c.Source.Table,
	}
}

// ServeAddr returns the configured NFS listen address, or "".
func (c Config) ServeAddr() string {
	if c.Serve == nil {
		return ""
	}
	return c.Serve.Addr
}
