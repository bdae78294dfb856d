package cli

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/chronicle/internal/model"
)

// LogOptions holds flags for the log command.
type LogOptions struct {
	*RootOptions
	Verify bool
}

// NewLogCommand creates the log command.
func NewLogCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LogOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Print the commit chain",
		Long: `Print the commit chain, oldest first.

With --verify, every commit's identifier is recomputed from its stored
fields and checked against the chain's parent links.

Example:
  chronicle log --database blog.db --verify`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLog(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Verify, "verify", false, "verify commit identifiers and parent links")

	return cmd
}

func runLog(cmd *cobra.Command, opts *LogOptions) error {
	s, err := openStore(opts.RootOptions)
	if err != nil {
		return err
	}
	defer s.Close()

	commits, err := s.CommitsSince(cmd.Context(), 0)
	if err != nil {
		return WrapExitError(ExitFailure, "read commit log", err)
	}

	out := cmd.OutOrStdout()
	broken := 0
	for i, c := range commits {
		when := time.Unix(c.Timestamp, 0).UTC().Format(time.RFC3339)
		fmt.Fprintf(out, "%s  %s  %-15s  %s\n",
			shortID(c.ID), when, c.Payload.Kind(), describePayload(c.Payload))

		if !opts.Verify {
			continue
		}
		id, err := c.RecomputeID()
		if err != nil {
			return WrapExitError(ExitFailure, "recompute commit id", err)
		}
		if !bytes.Equal(id, c.ID) {
			fmt.Fprintf(out, "  !! stored id does not match its contents\n")
			broken++
		}
		if i > 0 && !c.ChainsTo(commits[i-1]) {
			fmt.Fprintf(out, "  !! parent link does not match the previous commit\n")
			broken++
		}
	}

	if opts.Verify {
		if broken > 0 {
			return WrapExitError(ExitFailure, fmt.Sprintf("%d broken commits", broken), nil)
		}
		fmt.Fprintf(out, "%d commits verified.\n", len(commits))
	}
	return nil
}

func shortID(id []byte) string {
	const n = 6
	if len(id) < n {
		return hex.EncodeToString(id)
	}
	return hex.EncodeToString(id[:n])
}

func describePayload(p model.CommitPayload) string {
	switch v := p.(type) {
	case model.CreatePostPayload:
		return v.Slug
	case model.UpdatePostPayload:
		return v.Slug
	case model.DeletePostPayload:
		return v.Slug
	case model.CreateResourcePayload:
		return v.ID.String()
	case model.DeleteResourcePayload:
		return v.ID.String()
	default:
		return ""
	}
}
