package cmd

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/agentic-research/arbor/api"
	"github.com/agentic-research/arbor/internal/graph"
)

func newAllCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "all",
		Short: "Print every record in source order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := opts.loadTree(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), store.All())
		},
	}
}

func newGetCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Print one record, or null when it does not exist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := opts.loadTree(cmd.Context())
			if err != nil {
				return err
			}
			item, found, err := store.Item(opts.parseID(args[0]))
			if err != nil {
				return err
			}
			if !found {
				return printJSON(cmd.OutOrStdout(), nil)
			}
			return printJSON(cmd.OutOrStdout(), item)
		},
	}
}

func newChildrenCmd(opts *options) *cobra.Command {
	return listCmd(opts, "children ID", "Print the direct children of a record",
		func(t graph.Tree) func(any) ([]api.Item, error) { return t.Children })
}

func newDescendantsCmd(opts *options) *cobra.Command {
	return listCmd(opts, "descendants ID", "Print every descendant of a record, level by level",
		func(t graph.Tree) func(any) ([]api.Item, error) { return t.AllChildren })
}

func newAncestorsCmd(opts *options) *cobra.Command {
	return listCmd(opts, "ancestors ID", "Print the ancestors of a record, nearest first",
		func(t graph.Tree) func(any) ([]api.Item, error) { return t.AllParents })
}

func listCmd(opts *options, use, short string, pick func(graph.Tree) func(any) ([]api.Item, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := opts.loadTree(cmd.Context())
			if err != nil {
				return err
			}
			items, err := pick(store)(opts.parseID(args[0]))
			if err != nil {
				return err
			}
			if items == nil {
				items = []api.Item{}
			}
			return printJSON(cmd.OutOrStdout(), items)
		},
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
