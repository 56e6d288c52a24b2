// Package cmd implements the arbor command line.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/agentic-research/arbor/api"
	"github.com/agentic-research/arbor/internal/config"
	"github.com/agentic-research/arbor/internal/graph"
	"github.com/agentic-research/arbor/internal/ingest"
)

// Version is stamped at build time.
var Version = "dev"

// options holds the global flags shared by every subcommand.
type options struct {
	configPath string
	dataPath   string
	kind       string
	selector   string
	table      string

	ignoreDuplicates bool
	ignoreRoot       bool
	ignoreIDType     bool
	stringIDs        bool
	verbose          bool

	cfg    config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "arbor",
		Short:         "Index a flat record collection as a tree and query it",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
	}

	f := root.PersistentFlags()
	f.StringVarP(&opts.configPath, "config", "c", "", "Path to an HCL config file")
	f.StringVarP(&opts.dataPath, "data", "d", "", "Path to the record source")
	f.StringVar(&opts.kind, "kind", "", "Source kind: json, yaml, sqlite or dynamodb (default: by extension)")
	f.StringVar(&opts.selector, "selector", "", "JSONPath locating records in a json or yaml document (default $[*])")
	f.StringVar(&opts.table, "table", "", "DynamoDB table name")
	f.BoolVar(&opts.ignoreDuplicates, "ignore-duplicates", false, "Warn instead of failing on duplicate ids")
	f.BoolVar(&opts.ignoreRoot, "ignore-root", false, "Warn instead of failing on records using the root id")
	f.BoolVar(&opts.ignoreIDType, "ignore-id-type", false, "Accept ids that are neither integers nor strings")
	f.BoolVar(&opts.stringIDs, "string-ids", false, "Treat numeric id arguments as string ids")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		newAllCmd(opts),
		newGetCmd(opts),
		newChildrenCmd(opts),
		newDescendantsCmd(opts),
		newAncestorsCmd(opts),
		newBuildCmd(opts),
		newServeCmd(opts),
		newMCPCmd(opts),
	)
	return root
}

// Execute runs the root command.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup installs the logger and merges the config file with flags.
// Flags that were set explicitly win over file values.
func (o *options) setup(cmd *cobra.Command) error {
	level := slog.LevelInfo
	if o.verbose {
		level = slog.LevelDebug
	}
	o.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	o.cfg = config.Default()
	if o.configPath != "" {
		path, err := filepath.Abs(o.configPath)
		if err != nil {
			return err
		}
		cfg, err := config.Load(osfs.New("/"), path)
		if err != nil {
			return err
		}
		o.cfg = cfg
	}

	flags := cmd.Flags()
	if flags.Changed("ignore-duplicates") {
		o.cfg.IgnoreDuplicates = o.ignoreDuplicates
	}
	if flags.Changed("ignore-root") {
		o.cfg.IgnoreRoot = o.ignoreRoot
	}
	if flags.Changed("ignore-id-type") {
		o.cfg.IgnoreIDType = o.ignoreIDType
	}
	return nil
}

// source returns the record source from flags, falling back to the config
// file. Relative paths are resolved against the working directory.
func (o *options) source() (ingest.Source, error) {
	src := o.cfg.IngestSource()
	if o.dataPath != "" {
		src.Path = o.dataPath
	}
	if o.kind != "" {
		src.Kind = o.kind
	}
	if o.selector != "" {
		src.Selector = o.selector
	}
	if o.table != "" {
		src.Table = o.table
	}

	if src.Kind == ingest.KindDynamoDB {
		if src.Table == "" {
			return src, fmt.Errorf("dynamodb source needs --table")
		}
		return src, nil
	}
	if src.Path == "" {
		return src, fmt.Errorf("no record source: use --data or a config file source block")
	}
	abs, err := filepath.Abs(src.Path)
	if err != nil {
		return src, err
	}
	src.Path = abs
	return src, nil
}

// loader builds an ingest.Loader over the host filesystem. A DynamoDB
// client is only created for dynamodb sources.
func (o *options) loader(ctx context.Context, src ingest.Source) (*ingest.Loader, error) {
	l := ingest.NewLoader(osfs.New("/"), o.logger)
	if src.Kind == ingest.KindDynamoDB {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		l.Dynamo = dynamodb.NewFromConfig(awsCfg)
	}
	return l, nil
}

// loadSnapshot reads the configured source.
func (o *options) loadSnapshot(ctx context.Context) (*ingest.Snapshot, error) {
	src, err := o.source()
	if err != nil {
		return nil, err
	}
	l, err := o.loader(ctx, src)
	if err != nil {
		return nil, err
	}
	return l.Load(ctx, src)
}

// loadTree reads the configured source and indexes it.
func (o *options) loadTree(ctx context.Context) (*graph.TreeStore, *ingest.Snapshot, error) {
	snap, err := o.loadSnapshot(ctx)
	if err != nil {
		return nil, nil, err
	}
	store, err := graph.New(snap.Items, o.cfg.StoreConfig(o.logger))
	if err != nil {
		return nil, nil, fmt.Errorf("index %s: %w", snap.Source, err)
	}
	return store, snap, nil
}

func (o *options) parseID(arg string) api.ID {
	return api.ParseArg(arg, o.stringIDs)
}
