package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/depview/pkg/lifecycle"
	"github.com/matzehuels/depview/pkg/view"
	"github.com/matzehuels/depview/pkg/view/graph"
)

func (c *CLI) exportCommand() *cobra.Command {
	var (
		output string
		format string
	)

	cmd := &cobra.Command{
		Use:   "export <url>",
		Short: "Export the dependency graph of a repository",
		Long: `Analyze a repository and write its dependency graph to a file.

PNG uses the image the analysis service produced when there is one. SVG and
DOT are drawn from the dependency list with Graphviz. Without --format the
format follows the output file extension.`,
		Example: `  depview export github.com/acme/widget -o widget.svg
  depview export github.com/acme/widget -o graph.dot --format dot`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := graph.FormatFromPath(output)
			if cmd.Flags().Changed("format") {
				var err error
				if f, err = graph.ParseFormat(format); err != nil {
					return err
				}
			}
			return c.runExport(cmd, args[0], output, f)
		},
	}

	formats := make([]string, len(graph.Formats))
	for i, f := range graph.Formats {
		formats[i] = string(f)
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (required)")
	cmd.Flags().StringVar(&format, "format", "", "output format: "+strings.Join(formats, ", "))
	_ = cmd.MarkFlagRequired("output")
	_ = cmd.RegisterFlagCompletionFunc("format", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return formats, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func (c *CLI) runExport(cmd *cobra.Command, raw, output string, format graph.Format) error {
	ctx := cmd.Context()
	ctrl, sess, err := c.newController(cmd)
	if err != nil {
		return err
	}

	st := ctrl.Run(ctx, raw, &plainSink{ctx: ctx, labels: sess})
	if st.Phase != lifecycle.Success {
		return ErrSilent
	}

	prog := newProgress(loggerFromContext(ctx))
	data, err := graph.Export(ctx, format, st.Ref, view.Render(st.Result, sess))
	if err != nil {
		return err
	}
	if err := graph.WriteFile(output, data); err != nil {
		return err
	}
	prog.done("Exported " + string(format))
	printFile(output)
	return nil
}
