package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/roach88/chronicle/internal/model"
	"github.com/roach88/chronicle/internal/store"
)

// NewPostCommand creates the post command group.
func NewPostCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "post",
		Short: "Manage blog posts",
	}

	cmd.AddCommand(newPostImportCommand(rootOpts))
	cmd.AddCommand(newPostDeleteCommand(rootOpts))
	cmd.AddCommand(newPostListCommand(rootOpts))

	return cmd
}

// PostImportOptions holds flags for the post import command.
type PostImportOptions struct {
	*RootOptions
	Attach  []string
	Replace bool
}

func newPostImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PostImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <post.json>",
		Short: "Import a post document into the database",
		Long: `Import a post document into the database.

The document is a JSON object with the post's title, author, category,
tags and content. A missing slug is derived from the title. Attached
files become post resources and are deleted together with the post.

Example:
  chronicle post import hello.json --attach cover.png --attach diagram.svg`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPostImport(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringArrayVar(&opts.Attach, "attach", nil, "file to attach to the post (repeatable)")
	cmd.Flags().BoolVar(&opts.Replace, "replace", false, "replace the post if it already exists")

	return cmd
}

func runPostImport(cmd *cobra.Command, opts *PostImportOptions, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "read post document", err)
	}

	var post model.Post
	if err := json.Unmarshal(data, &post); err != nil {
		return WrapExitError(ExitCommandError, "parse post document", err)
	}
	if post.Slug == "" {
		post.Slug = model.Slugify(post.Title)
	}
	if post.Slug == "" {
		return WrapExitError(ExitCommandError, "post document has neither slug nor title", nil)
	}

	resources := make([]model.Resource, 0, len(opts.Attach))
	for _, file := range opts.Attach {
		res, err := resourceFromFile(file, "", "")
		if err != nil {
			return WrapExitError(ExitCommandError, "attach resource", err)
		}
		resources = append(resources, *res)
	}

	s, err := openStore(opts.RootOptions)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	err = s.InsertPost(ctx, &post, resources)
	if errors.Is(err, store.ErrConflict) && opts.Replace {
		err = s.UpdatePost(ctx, &post, resources)
	}
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return WrapExitError(ExitFailure, fmt.Sprintf("post %q already exists (use --replace)", post.Slug), err)
		}
		return WrapExitError(ExitFailure, "import post", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Imported post %q with %d attached resources.\n", post.Slug, len(resources))
	return nil
}

func newPostDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "delete <slug>",
		Short:         "Delete a post and its attached resources",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.DeletePost(cmd.Context(), args[0]); err != nil {
				return WrapExitError(ExitFailure, "delete post", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted post %q.\n", args[0])
			return nil
		},
	}
	return cmd
}

func newPostListCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List posts in the database",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			out := cmd.OutOrStdout()
			for pageNum := 1; ; pageNum++ {
				page, err := store.NewPagination(pageNum, 100)
				if err != nil {
					return WrapExitError(ExitFailure, "list posts", err)
				}
				posts, err := s.ListPosts(cmd.Context(), page)
				if err != nil {
					return WrapExitError(ExitFailure, "list posts", err)
				}
				for _, p := range posts.Posts {
					created := time.Unix(p.CreateTimestamp, 0).UTC().Format("2006-01-02")
					fmt.Fprintf(out, "%s  %-30s  %s\n", created, p.Slug, p.Title)
				}
				if pageNum*100 >= posts.TotalCount {
					return nil
				}
			}
		},
	}
	return cmd
}

// resourceFromFile builds a resource from a file on disk. Empty name
// and mime type are derived from the file path.
func resourceFromFile(path, name, mimeType string) (*model.Resource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = filepath.Base(path)
	}
	if mimeType == "" {
		mimeType = mime.TypeByExtension(filepath.Ext(path))
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}
	}
	return &model.Resource{
		ID:   uuid.New(),
		Name: name,
		Type: mimeType,
		Data: data,
	}, nil
}
