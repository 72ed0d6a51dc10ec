// Package cli implements the depview command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/depview/internal/config"
	"github.com/matzehuels/depview/pkg/analysis"
	"github.com/matzehuels/depview/pkg/buildinfo"
	"github.com/matzehuels/depview/pkg/i18n"
	"github.com/matzehuels/depview/pkg/lifecycle"
	"github.com/matzehuels/depview/pkg/observability"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "depview"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// ErrSilent is returned when a command already reported its failure to the
// user. The caller should exit non-zero without printing it again.
var ErrSilent = errors.New("silent failure")

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	flags   globalFlags
	cfg     config.Config
	table   *i18n.Table
	logFile *os.File
}

type globalFlags struct {
	configPath string
	service    string
	lang       string
	timeout    time.Duration
	logFile    string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
// Running the root command with no subcommand opens the interactive view.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "depview [url]",
		Short: "depview analyzes the dependencies of GitHub repositories",
		Long: `depview sends a GitHub repository to a dependency analysis service and shows
the report: dependency counters, the dependency graph, every dependency with
its version and license, the README excerpt and the project description.`,
		Version:           buildinfo.Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		Args:              cobra.MaximumNArgs(1),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return c.setup(cmd) },
		RunE:              c.runTUI,
	}

	root.SetVersionTemplate(buildinfo.Template())

	pf := root.PersistentFlags()
	pf.StringVar(&c.flags.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/depview/config.toml)")
	pf.StringVarP(&c.flags.service, "service", "s", "", "analysis service URL (default "+config.DefaultServiceURL+")")
	pf.StringVarP(&c.flags.lang, "lang", "l", "", "interface language (en, ru, es, fr, de)")
	pf.DurationVar(&c.flags.timeout, "timeout", 0, "client-side timeout for the analysis call (0: none)")
	pf.StringVar(&c.flags.logFile, "log-file", "", "append logs to this file")

	root.AddCommand(c.tuiCommand())
	root.AddCommand(c.analyzeCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.languagesCommand())
	root.AddCommand(c.stubCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// Close releases resources opened during setup.
func (c *CLI) Close() error {
	if c.logFile != nil {
		return c.logFile.Close()
	}
	return nil
}

// =============================================================================
// Setup
// =============================================================================

// setup loads the configuration, applies flag overrides and prepares the
// logger and the localization table.
func (c *CLI) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(c.flags.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("service") {
		cfg.ServiceURL = c.flags.service
	}
	if flags.Changed("lang") {
		cfg.Language = c.flags.lang
	}
	if flags.Changed("timeout") {
		cfg.Timeout = c.flags.timeout
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.cfg = cfg

	level, _ := cfg.Level()
	c.SetLogLevel(level)
	if c.flags.logFile != "" {
		f, err := os.OpenFile(c.flags.logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		c.logFile = f
		c.Logger.SetOutput(f)
	}

	c.table, err = i18n.Load()
	if err != nil {
		return err
	}
	if cfg.LocalesDir != "" {
		if err := c.table.LoadDir(cfg.LocalesDir); err != nil {
			return fmt.Errorf("load locales from %s: %w", cfg.LocalesDir, err)
		}
	}

	hooks := logHooks{logger: c.Logger}
	observability.SetHTTPHooks(hooks)
	observability.SetLifecycleHooks(hooks)

	cmd.SetContext(withLogger(cmd.Context(), c.Logger))
	c.Logger.Debug("config loaded", "service", cfg.ServiceURL, "lang", cfg.Language, "timeout", cfg.Timeout)
	return nil
}

// =============================================================================
// Factories
// =============================================================================

// newSession returns a language session. An explicit --lang must be
// supported; a configured language that is not falls back to English.
func (c *CLI) newSession(explicit bool) (*i18n.Session, error) {
	sess := i18n.NewSession(c.table, i18n.DefaultLanguage)
	if err := sess.SetLanguage(c.cfg.Language); err != nil {
		if explicit {
			return nil, err
		}
		c.Logger.Warn("unsupported language, using English", "lang", c.cfg.Language)
	}
	return sess, nil
}

func (c *CLI) newClient() *analysis.Client {
	opts := []analysis.Option{}
	if c.cfg.Timeout > 0 {
		opts = append(opts, analysis.WithTimeout(c.cfg.Timeout))
	}
	return analysis.NewClient(c.cfg.ServiceURL, opts...)
}

// newController wires a controller to the configured service.
func (c *CLI) newController(cmd *cobra.Command) (*lifecycle.Controller, *i18n.Session, error) {
	sess, err := c.newSession(cmd.Flags().Changed("lang"))
	if err != nil {
		return nil, nil, err
	}
	ctrl := lifecycle.NewController(c.newClient(), sess, lifecycle.WithLogger(c.Logger))
	return ctrl, sess, nil
}
