// Package cli implements the chronicle command line interface: serving
// the site, replicating the database, and managing posts and resources.
package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/chronicle/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Database string
	Verbose  bool
}

// NewRootCommand creates the root command for the chronicle CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "chronicle",
		Short: "Chronicle - a replicated personal blog engine",
		Long: `Chronicle stores blog posts and their resources in a SQLite database
paired with a hash-chained commit log, serves them over HTTP, and
replicates them between machines.`,
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&opts.Database, "database", "chronicle.db", "path to the content database")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	// Add subcommands
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewReplicateCommand(opts))
	cmd.AddCommand(NewSyncCommand(opts))
	cmd.AddCommand(NewPostCommand(opts))
	cmd.AddCommand(NewResourceCommand(opts))
	cmd.AddCommand(NewLogCommand(opts))

	return cmd
}

// openStore opens the content database named by the global flag.
func openStore(opts *RootOptions) (*store.Store, error) {
	s, err := store.Open(opts.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "open database", err)
	}
	return s, nil
}

// newLogger builds the process logger. Verbose mode switches to the
// human-oriented development encoding with debug level.
func newLogger(opts *RootOptions) (*zap.Logger, error) {
	if opts.Verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.DisableStacktrace = true
	return cfg.Build()
}
