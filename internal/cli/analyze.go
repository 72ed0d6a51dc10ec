package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/matzehuels/depview/pkg/analysis"
	"github.com/matzehuels/depview/pkg/i18n"
	"github.com/matzehuels/depview/pkg/lifecycle"
	"github.com/matzehuels/depview/pkg/repo"
	"github.com/matzehuels/depview/pkg/view"
	"github.com/matzehuels/depview/pkg/view/graph"
)

// previewCols is the graph preview width in plain output.
const previewCols = 72

type analyzeOptions struct {
	json      bool
	saveGraph string
	preview   bool
}

func (c *CLI) analyzeCommand() *cobra.Command {
	var opts analyzeOptions

	cmd := &cobra.Command{
		Use:   "analyze <url>",
		Short: "Analyze a repository and print the report",
		Long: `Analyze a GitHub repository and print the report without the interactive view.

The exit status is 1 when the URL is invalid or the analysis fails.`,
		Example: `  depview analyze https://github.com/acme/widget
  depview analyze github.com/acme/widget --json
  depview analyze git@github.com:acme/widget.git --save-graph widget.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runAnalyze(cmd, args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.json, "json", false, "print the raw analysis result as JSON")
	cmd.Flags().StringVar(&opts.saveGraph, "save-graph", "", "write the dependency graph PNG to this file")
	cmd.Flags().BoolVar(&opts.preview, "preview", false, "draw the graph image in the terminal")

	return cmd
}

func (c *CLI) runAnalyze(cmd *cobra.Command, raw string, opts analyzeOptions) error {
	ctx := cmd.Context()
	ctrl, sess, err := c.newController(cmd)
	if err != nil {
		return err
	}

	sink := &plainSink{ctx: ctx, labels: sess}
	st := ctrl.Run(ctx, raw, sink)
	if st.Phase != lifecycle.Success {
		return ErrSilent
	}

	out := cmd.OutOrStdout()
	if opts.json {
		if err := writeJSON(out, st.Result); err != nil {
			return err
		}
	} else {
		v := view.Render(st.Result, sess)
		if v.Heading == "" {
			v.Heading = st.Ref.String()
		}
		r := report{view: v, values: finalValues(v)}
		if opts.preview && v.Graph.Available {
			if p, err := graph.Preview(v.Graph.PNG, previewCols); err == nil {
				r.preview = p
			} else {
				printWarning("graph preview: %v", err)
			}
		}
		fmt.Fprintln(out, r.String())
	}

	if opts.saveGraph != "" {
		return c.saveGraph(ctx, opts.saveGraph, st.Ref, st.Result, sess)
	}
	return nil
}

// saveGraph writes the service image, or a Graphviz rendering of the
// dependency list when the service sent none.
func (c *CLI) saveGraph(ctx context.Context, path string, ref repo.Reference, res *analysis.Result, labels i18n.Labeler) error {
	v := view.Render(res, labels)
	prog := newProgress(loggerFromContext(ctx))

	data, err := graph.Export(ctx, graph.FormatPNG, ref, v)
	if err != nil {
		return err
	}
	if err := graph.WriteFile(path, data); err != nil {
		return err
	}
	prog.done("Wrote " + path)
	printSuccess("%s", labels.Label(i18n.KeyGraphSaved))
	printFile(path)
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// plainSink applies lifecycle effects to a line-oriented terminal.
type plainSink struct {
	ctx     context.Context
	labels  i18n.Labeler
	spinner *Spinner
}

func (s *plainSink) Apply(e lifecycle.Effect) {
	switch e := e.(type) {
	case lifecycle.ShowLoading:
		s.spinner = newSpinner(s.ctx, s.labels.Label(i18n.KeyAnalyzingText))
		s.spinner.Start()
	case lifecycle.HideLoading:
		if s.spinner != nil {
			s.spinner.Stop()
			s.spinner = nil
		}
	case lifecycle.ShowError:
		printError("%s", e.Message)
	case lifecycle.ShowSuccess:
		printSuccess("%s", e.Message)
	}
}
