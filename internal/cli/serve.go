package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/chronicle/internal/server"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Listen string
	Site   string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the site's JSON API and RSS feed over HTTP",
		Long: `Serve the site's JSON API and RSS feed over HTTP.

The server is read-only: content changes go through 'chronicle post',
'chronicle resource' and replication.

Example:
  chronicle serve --database blog.db --site site.yaml --listen :8080`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Listen, "listen", ":8080", "address to listen on")
	cmd.Flags().StringVar(&opts.Site, "site", "site.yaml", "path to the site configuration file")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	site, err := server.LoadSiteConfig(opts.Site)
	if err != nil {
		return WrapExitError(ExitCommandError, "load site config", err)
	}

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

	return server.New(s, site, logger).Run(ctx, opts.Listen)
}
