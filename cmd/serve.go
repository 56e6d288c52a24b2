package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"github.com/agentic-research/arbor/internal/graph"
	"github.com/agentic-research/arbor/internal/ingest"
	"github.com/agentic-research/arbor/internal/nfsmount"
)

func newServeCmd(opts *options) *cobra.Command {
	var (
		addr    string
		noMount bool
	)
	cmd := &cobra.Command{
		Use:   "serve [MOUNTPOINT]",
		Short: "Serve the tree as a read-only NFS filesystem",
		Long: `Serve the tree over NFS and mount it at MOUNTPOINT.

Every record is a directory named by its id holding item.json and one
subdirectory per child. SIGHUP reloads the source; SIGINT or SIGTERM stops
the server and unmounts.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !noMount && len(args) == 0 {
				return fmt.Errorf("serve needs a mountpoint unless --no-mount is set")
			}
			if !cmd.Flags().Changed("addr") && opts.cfg.ServeAddr() != "" {
				addr = opts.cfg.ServeAddr()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), unix.SIGINT, unix.SIGTERM)
			defer stop()

			store, snap, err := opts.loadTree(ctx)
			if err != nil {
				return err
			}
			tree := graph.NewHotSwapTree(store)
			treeFS := nfsmount.NewTreeFS(tree, snap.Info())

			srv, err := nfsmount.NewServer(treeFS, addr, opts.logger)
			if err != nil {
				return err
			}
			defer func() { _ = srv.Close() }()
			opts.logger.Info("serving tree", "port", srv.Port(), "records", store.Len())

			if !noMount {
				mountpoint := args[0]
				if err := nfsmount.Mount(srv.Port(), mountpoint); err != nil {
					return err
				}
				opts.logger.Info("mounted", "mountpoint", mountpoint)
				defer func() {
					if err := nfsmount.Unmount(mountpoint); err != nil {
						opts.logger.Error("unmount failed", "mountpoint", mountpoint, "error", err)
					}
				}()
			}

			opts.watchReload(ctx, tree, func(snap *ingest.Snapshot) {
				treeFS.SetSnapshot(snap.Info())
			})
			opts.logger.Info("shutting down")
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", nfsmount.DefaultAddr, "NFS listen address")
	cmd.Flags().BoolVar(&noMount, "no-mount", false, "Only run the NFS server, do not mount it")
	return cmd
}

// watchReload reloads the source into tree on every SIGHUP until ctx is
// done. A failed reload keeps the current tree.
func (o *options) watchReload(ctx context.Context, tree *graph.HotSwapTree, onSwap func(*ingest.Snapshot)) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, unix.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := o.reload(ctx, tree, onSwap); err != nil {
				o.logger.Error("reload failed, keeping current tree", "error", err)
			}
		}
	}
}

func (o *options) reload(ctx context.Context, tree *graph.HotSwapTree, onSwap func(*ingest.Snapshot)) error {
	store, snap, err := o.loadTree(ctx)
	if err != nil {
		return err
	}
	tree.Swap(store)
	if onSwap != nil {
		onSwap(snap)
	}
	o.logger.Info("reloaded tree", "snapshot", snap.ID.String(), "records", store.Len())
	return nil
}
