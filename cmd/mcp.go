package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/agentic-research/arbor/internal/graph"
	"github.com/agentic-research/arbor/internal/mcpserver"
)

func newMCPCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve tree queries as MCP tools over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := opts.loadTree(cmd.Context())
			if err != nil {
				return err
			}
			tree := graph.NewHotSwapTree(store)

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			go opts.watchReload(ctx, tree, nil)

			return mcpserver.New(tree, Version).ServeStdio()
		},
	}
}
