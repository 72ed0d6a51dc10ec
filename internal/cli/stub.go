package cli

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/depview/pkg/analysis"
	"github.com/matzehuels/depview/pkg/analysis/analysistest"
	"github.com/matzehuels/depview/pkg/i18n"
	"github.com/matzehuels/depview/pkg/repo"
	"github.com/matzehuels/depview/pkg/view"
	"github.com/matzehuels/depview/pkg/view/graph"
)

type stubOptions struct {
	addr    string
	fixture string
	status  int
	message string
	delay   time.Duration
	noGraph bool
}

func (c *CLI) stubCommand() *cobra.Command {
	var opts stubOptions

	cmd := &cobra.Command{
		Use:   "stub",
		Short: "Run a local fake analysis service",
		Long: `Run a fake analysis service that answers POST /analyze.

Without --fixture it answers with a small generated report for whatever
repository is requested, including a Graphviz-drawn graph image. A status
other than 200 makes every call fail with --message as the error.`,
		Example: `  depview stub
  depview stub --fixture testdata/report.json --delay 2s
  depview stub --status 429 --message "rate limited"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runStub(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "127.0.0.1:8765", "listen address")
	cmd.Flags().StringVar(&opts.fixture, "fixture", "", "answer with the contents of this JSON file")
	cmd.Flags().IntVar(&opts.status, "status", http.StatusOK, "HTTP status of every answer")
	cmd.Flags().StringVar(&opts.message, "message", "analysis failed", "error message for non-200 answers")
	cmd.Flags().DurationVar(&opts.delay, "delay", 0, "wait this long before answering")
	cmd.Flags().BoolVar(&opts.noGraph, "no-graph", false, "omit the graph image from generated reports")

	return cmd
}

func (c *CLI) runStub(ctx context.Context, opts stubOptions) error {
	respond, err := c.stubResponder(ctx, opts)
	if err != nil {
		return err
	}

	svc := analysistest.NewService(respond,
		analysistest.WithLogger(c.Logger),
		analysistest.WithDelay(opts.delay),
	)

	ln, err := net.Listen("tcp", opts.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", opts.addr, err)
	}
	srv := &http.Server{Handler: svc.Handler(), ReadHeaderTimeout: 10 * time.Second}

	url := "http://" + ln.Addr().String()
	printInfo("Fake analysis service listening on %s", StyleLink.Render(url))
	printNextStep("Try it", appName+" --service "+url+" github.com/acme/widget")

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		c.Logger.Info("fake service stopped", "calls", len(svc.Calls()))
		return nil
	}
}

func (c *CLI) stubResponder(ctx context.Context, opts stubOptions) (analysistest.Responder, error) {
	switch {
	case opts.fixture != "":
		return analysistest.FromFile(opts.fixture, opts.status)
	case opts.status < 200 || opts.status > 299:
		return analysistest.Fail(opts.status, opts.message), nil
	}
	labels := i18n.NewSession(c.table, i18n.DefaultLanguage)
	return func(call analysistest.Call) (int, any) {
		return opts.status, c.demoResult(ctx, call, labels, !opts.noGraph)
	}, nil
}

// demoResult builds a plausible report for the requested repository.
func (c *CLI) demoResult(ctx context.Context, call analysistest.Call, labels i18n.Labeler, withGraph bool) *analysis.Result {
	ref := repo.Reference{Owner: call.Owner, Repo: call.Repo}
	res := &analysis.Result{
		RepoName:           call.Repo,
		ProjectDescription: ptr("Demo report for " + ref.String() + " served by " + appName + " stub."),
		ReadmePreview: ptr(strings.Join([]string{
			"# " + call.Repo,
			"",
			"Generated by the fake analysis service.",
			view.ReadmeSentinel,
			"Everything below the rule is trimmed from previews.",
		}, "\n")),
		Dependencies: []analysis.Node{
			{Name: "left-pad", Type: "npm", Version: ptr("1.3.0"), License: ptr("WTFPL"), Dependencies: ptr(0)},
			{Name: "lodash", Type: "npm", Version: ptr("4.17.20"), License: ptr("MIT"), Vulnerabilities: ptr(2), Dependencies: ptr(0)},
			{Name: "requests", Type: "python", Version: ptr("2.31.0"), License: ptr("Apache-2.0"), Dependencies: ptr(4)},
			{Name: "junit", Type: "maven", Version: ptr("4.13.2"), License: ptr("EPL-1.0"), Dependencies: ptr(1)},
			{Name: ref.Owner + "/shared", Type: "repo", Dependencies: ptr(3)},
		},
	}
	res.Stats = analysis.Stats{
		TotalDependencies:      len(res.Dependencies) + 8,
		DirectDependencies:     len(res.Dependencies),
		TransitiveDependencies: 8,
		Vulnerabilities:        2,
	}

	if withGraph {
		v := view.Render(res, labels)
		png, err := graph.RenderPNG(ctx, graph.ToDOT(ref, v.Nodes.Items))
		if err != nil {
			c.Logger.Warn("render demo graph", "err", err)
		} else {
			res.GraphImage = ptr(base64.StdEncoding.EncodeToString(png))
		}
	}
	return res
}

func ptr[T any](v T) *T { return &v }
