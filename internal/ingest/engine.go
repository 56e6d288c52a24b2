// Package ingest loads record collections from files, SQLite databases and
// DynamoDB tables into []api.Item for indexing.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	billy "github.com/go-git/go-billy/v5"
	"github.com/google/uuid"

	"github.com/agentic-research/arbor/api"
)

// Source kinds.
const (
	KindJSON     = "json"
	KindYAML     = "yaml"
	KindSQLite   = "sqlite"
	KindDynamoDB = "dynamodb"
)

// DefaultSelector selects every element of a top-level array.
const DefaultSelector = "$[*]"

var (
	// ErrUnsupportedKind is returned for an unknown or undetectable source kind.
	ErrUnsupportedKind = errors.New("unsupported source kind")

	// ErrNoDynamoClient is returned when a dynamodb source is loaded without a client.
	ErrNoDynamoClient = errors.New("dynamodb source requires a client")
)

// Source describes where a record collection comes from.
type Source struct {
	// Kind is one of json, yaml, sqlite or dynamodb. Empty means detect
	// from the Path extension.
	Kind string `json:"kind"`
	// Path is the file or database path (json, yaml, sqlite).
	Path string `json:"path,omitempty"`
	// Selector is a JSONPath expression locating the records inside a
	// json or yaml document. Default: $[*]
	Selector string `json:"selector,omitempty"`
	// Table is the DynamoDB table name.
	Table string `json:"table,omitempty"`
}

func (s Source) String() string {
	if s.Kind == KindDynamoDB {
		return "dynamodb:" + s.Table
	}
	return s.Kind + ":" + s.Path
}

// DetectKind maps a file extension to a source kind.
func DetectKind(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return KindJSON, nil
	case ".yaml", ".yml":
		return KindYAML, nil
	case ".db", ".sqlite", ".sqlite3":
		return KindSQLite, nil
	default:
		return "", fmt.Errorf("%w: cannot detect kind of %q", ErrUnsupportedKind, path)
	}
}

// Snapshot is one loaded record collection.
type Snapshot struct {
	ID       uuid.UUID
	Source   Source
	LoadedAt time.Time
	Items    []api.Item
}

// Info returns a JSON-friendly summary of the snapshot.
func (s *Snapshot) Info() SnapshotInfo {
	return SnapshotInfo{
		ID:       s.ID.String(),
		Source:   s.Source.String(),
		LoadedAt: s.LoadedAt.UTC().Format(time.RFC3339),
		Records:  len(s.Items),
	}
}

// SnapshotInfo summarises a Snapshot.
type SnapshotInfo struct {
	ID       string `json:"id"`
	Source   string `json:"source"`
	LoadedAt string `json:"loaded_at"`
	Records  int    `json:"records"`
}

// Loader drives loading for every source kind.
type Loader struct {
	// FS serves json and yaml files.
	FS billy.Filesystem
	// Dynamo is used for dynamodb sources.
	Dynamo dynamodb.ScanAPIClient
	Logger *slog.Logger
}

func NewLoader(fs billy.Filesystem, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{FS: fs, Logger: logger}
}

// Load reads the records described by src.
func (l *Loader) Load(ctx context.Context, src Source) (*Snapshot, error) {
	if src.Kind == "" {
		kind, err := DetectKind(src.Path)
		if err != nil {
			return nil, err
		}
		src.Kind = kind
	}
	if src.Selector == "" && (src.Kind == KindJSON || src.Kind == KindYAML) {
		src.Selector = DefaultSelector
	}

	start := time.Now()
	var (
		items []api.Item
		err   error
	)
	switch src.Kind {
	case KindJSON:
		items, err = LoadJSON(l.FS, src.Path, src.Selector)
	case KindYAML:
		items, err = LoadYAML(l.FS, src.Path, src.Selector)
	case KindSQLite:
		items, err = LoadSQLite(l.sqlitePath(src.Path))
	case KindDynamoDB:
		if l.Dynamo == nil {
			return nil, ErrNoDynamoClient
		}
		items, err = LoadDynamoDB(ctx, l.Dynamo, src.Table)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedKind, src.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", src, err)
	}

	snap := &Snapshot{
		ID:       uuid.New(),
		Source:   src,
		LoadedAt: time.Now(),
		Items:    items,
	}
	l.Logger.Debug("loaded records",
		"snapshot", snap.ID.String(),
		"source", src.String(),
		"records", len(items),
		"elapsed", time.Since(start),
	)
	return snap, nil
}

// sqlitePath resolves a database path against the loader's filesystem root.
// SQLite opens files itself, so the path must be a real OS path.
func (l *Loader) sqlitePath(path string) string {
	if filepath.IsAbs(path) || l.FS == nil {
		return path
	}
	return filepath.Join(l.FS.Root(), path)
}
