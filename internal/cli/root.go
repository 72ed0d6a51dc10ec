package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/matzehuels/depview/pkg/buildinfo"
)

// SetVersion overrides the build information shown by --version and sent in
// the User-Agent. Empty values keep the ldflags defaults. Call it before
// building the command tree.
func SetVersion(v, c, d string) {
	if v != "" {
		buildinfo.Version = v
	}
	if c != "" {
		buildinfo.Commit = c
	}
	if d != "" {
		buildinfo.Date = d
	}
}

// Execute runs the depview command tree with args. Logs go to stderr,
// command output to stdout.
//
// The persistent --verbose (-v) flag switches logging to debug after the
// configuration has been applied, so it wins over log_level in the config
// file.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var verbose bool

	c := New(stderr, LogInfo)
	defer c.Close()

	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	setup := root.PersistentPreRunE
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if setup != nil {
			if err := setup(cmd, args); err != nil {
				return err
			}
		}
		if verbose {
			c.SetLogLevel(LogDebug)
		}
		return nil
	}

	return root.ExecuteContext(ctx)
}
