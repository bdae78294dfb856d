package cli

import (
	"context"
	"errors"
	"net"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/chronicle/internal/remote"
)

// ReplicateOptions holds flags for the replicate command.
type ReplicateOptions struct {
	*RootOptions
	Listen string
}

// NewReplicateCommand creates the replicate command.
func NewReplicateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplicateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replicate",
		Short: "Serve the content database to replicas over TCP",
		Long: `Serve the content database to replicas over TCP.

Peers connect with 'chronicle sync' to pull changes from (or push
changes to) this database.

Example:
  chronicle replicate --database blog.db --listen :7070`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplicate(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Listen, "listen", ":7070", "address to listen on")

	return cmd
}

func runReplicate(cmd *cobra.Command, opts *ReplicateOptions) error {
	s, err := openStore(opts.RootOptions)
	if err != nil {
		return err
	}
	defer s.Close()

	logger, err := newLogger(opts.RootOptions)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	listener, err := net.Listen("tcp", opts.Listen)
	if err != nil {
		return WrapExitError(ExitCommandError, "listen", err)
	}
	go func() {
		<-ctx.Done()
		listener.Close()
	}()
	logger.Info("replication server listening", zap.String("addr", opts.Listen))

	srv := remote.NewServer(s, logger)
	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return WrapExitError(ExitFailure, "accept connection", err)
		}

		go func(conn net.Conn) {
			defer conn.Close()
			logger.Info("replica connected", zap.String("peer", conn.RemoteAddr().String()))
			if err := srv.Serve(ctx, conn); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("replica session ended", zap.Error(err))
				return
			}
			logger.Info("replica disconnected", zap.String("peer", conn.RemoteAddr().String()))
		}(conn)
	}
}
