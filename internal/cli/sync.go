package cli

import (
	"errors"
	"fmt"
	"net"

	"github.com/spf13/cobra"

	"github.com/roach88/chronicle/internal/remote"
	"github.com/roach88/chronicle/internal/replica"
	"github.com/roach88/chronicle/internal/store"
)

// SyncOptions holds flags for the sync command.
type SyncOptions struct {
	*RootOptions
	Push bool
}

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SyncOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sync <address>",
		Short: "Synchronize the local database with a remote replica",
		Long: `Synchronize the local database with a remote replica.

By default changes are pulled from the remote into the local database.
With --push the direction reverses and local changes are shipped to the
remote. Either way the receiving side's history must be a prefix of the
sender's; diverged histories abort without touching anything.

Example:
  chronicle sync blog.example.com:7070
  chronicle sync --push blog.example.com:7070`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, opts, args[0])
		},
	}

	cmd.Flags().BoolVar(&opts.Push, "push", false, "push local changes to the remote instead of pulling")

	return cmd
}

func runSync(cmd *cobra.Command, opts *SyncOptions, addr string) error {
	local, err := openStore(opts.RootOptions)
	if err != nil {
		return err
	}
	defer local.Close()

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return WrapExitError(ExitCommandError, "connect to remote", err)
	}
	defer conn.Close()
	peer := remote.NewClient(conn)

	var src, dst store.Storage = peer, local
	if opts.Push {
		src, dst = local, peer
	}

	delta, err := replica.Synchronize(cmd.Context(), src, dst)
	if err != nil {
		if errors.Is(err, replica.ErrDivergedHistory) {
			return WrapExitError(ExitFailure, "synchronize", err)
		}
		return WrapExitError(ExitCommandError, "synchronize", err)
	}

	if delta.Empty() {
		fmt.Fprintln(cmd.OutOrStdout(), "Already up to date.")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(),
		"Synchronized %d commits: %d posts added, %d posts deleted, %d resources added, %d resources deleted.\n",
		len(delta.Commits),
		len(delta.AddedPosts), len(delta.DeletedPostSlugs),
		len(delta.AddedResources), len(delta.DeletedResourceIDs))
	return nil
}
