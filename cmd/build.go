package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentic-research/arbor/internal/ingest"
)

func newBuildCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "build SOURCE OUTPUT.db",
		Short: "Load records from a source and write them into a SQLite database",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.dataPath = args[0]
			output := args[1]

			start := time.Now()
			// A collection that fails to index is never written.
			store, snap, err := opts.loadTree(cmd.Context())
			if err != nil {
				return err
			}

			if err := ingest.WriteSQLite(output, store.All()); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			opts.logger.Info("built database",
				"source", snap.Source.String(),
				"output", output,
				"records", len(snap.Items),
				"elapsed", time.Since(start),
			)
			return nil
		},
	}
}
