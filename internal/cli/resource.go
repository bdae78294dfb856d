package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// NewResourceCommand creates the resource command group.
func NewResourceCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resource",
		Short: "Manage free-standing resources",
	}

	cmd.AddCommand(newResourceAddCommand(rootOpts))
	cmd.AddCommand(newResourceRmCommand(rootOpts))
	cmd.AddCommand(newResourceLsCommand(rootOpts))

	return cmd
}

// ResourceAddOptions holds flags for the resource add command.
type ResourceAddOptions struct {
	*RootOptions
	Name string
	Type string
}

func newResourceAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ResourceAddOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add <file>",
		Short: "Add a free-standing resource from a file",
		Long: `Add a free-standing resource from a file.

The resource gets a fresh UUID and lives independently of any post.
Name and MIME type default to the file's name and extension.

Example:
  chronicle resource add avatar.png --type image/png`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResourceAdd(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "resource name (defaults to the file name)")
	cmd.Flags().StringVar(&opts.Type, "type", "", "MIME type (defaults by file extension)")

	return cmd
}

func runResourceAdd(cmd *cobra.Command, opts *ResourceAddOptions, path string) error {
	res, err := resourceFromFile(path, opts.Name, opts.Type)
	if err != nil {
		return WrapExitError(ExitCommandError, "read resource file", err)
	}

	s, err := openStore(opts.RootOptions)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.InsertResource(cmd.Context(), res); err != nil {
		return WrapExitError(ExitFailure, "add resource", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added resource %s (%s, %d bytes).\n", res.ID, res.Type, len(res.Data))
	return nil
}

func newResourceRmCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "rm <id>",
		Short:         "Remove a free-standing resource",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "parse resource id", err)
			}

			s, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.DeleteResource(cmd.Context(), id); err != nil {
				return WrapExitError(ExitFailure, "remove resource", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed resource %s.\n", id)
			return nil
		},
	}
	return cmd
}

func newResourceLsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "ls",
		Short:         "List resources in the database",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			resources, err := s.ListResources(cmd.Context())
			if err != nil {
				return WrapExitError(ExitFailure, "list resources", err)
			}

			out := cmd.OutOrStdout()
			for _, res := range resources {
				owner := res.PostSlug
				if owner == "" {
					owner = "-"
				}
				fmt.Fprintf(out, "%s  %-24s  %-20s  %s\n", res.ID, res.Name, res.Type, owner)
			}
			return nil
		},
	}
	return cmd
}
