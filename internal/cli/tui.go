package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/depview/pkg/analysis"
	"github.com/matzehuels/depview/pkg/i18n"
	"github.com/matzehuels/depview/pkg/lifecycle"
	"github.com/matzehuels/depview/pkg/repo"
	"github.com/matzehuels/depview/pkg/view"
	"github.com/matzehuels/depview/pkg/view/graph"
)

// maxPreviewCols bounds the graph preview width in the interactive view.
const maxPreviewCols = 100

var (
	styleButton         = lipgloss.NewStyle().Bold(true).Foreground(colorWhite).Background(colorCyan).Padding(0, 2)
	styleButtonDisabled = lipgloss.NewStyle().Foreground(colorGray).Background(colorDim).Padding(0, 2)
	styleBannerError    = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	styleBannerSuccess  = lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
	styleHelp           = lipgloss.NewStyle().Foreground(colorDim)
)

func (c *CLI) tuiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tui [url]",
		Short: "Open the interactive view",
		Long: `Open the interactive view. A URL given as argument is analyzed right away.

Keys:
  enter        analyze the URL in the input field
  tab, ctrl+l  switch the interface language
  ctrl+s       save the graph as PNG in the current directory
  ctrl+e       export the graph as SVG in the current directory
  pgup, pgdown scroll the report
  esc, ctrl+c  quit`,
		Args: cobra.MaximumNArgs(1),
		RunE: c.runTUI,
	}
}

func (c *CLI) runTUI(cmd *cobra.Command, args []string) error {
	// The alt screen owns the terminal; logs only go to an explicit file.
	if c.logFile == nil {
		c.Logger.SetOutput(io.Discard)
	}

	ctrl, sess, err := c.newController(cmd)
	if err != nil {
		return err
	}

	initial := ""
	if len(args) > 0 {
		initial = args[0]
	}

	ctx := cmd.Context()
	p := tea.NewProgram(newModel(ctx, ctrl, sess, initial), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()
	return err
}

// =============================================================================
// Messages
// =============================================================================

type (
	// submitMsg analyzes the URL given on the command line.
	submitMsg struct{ raw string }
	// resolvedMsg carries the outcome of the analysis call.
	resolvedMsg struct{ ev lifecycle.Event }
	// counterTickMsg advances counter idx of render generation gen.
	counterTickMsg struct{ idx, gen int }
	// spinnerTickMsg advances the loading indicator of loading generation gen.
	spinnerTickMsg struct{ gen int }
	// exportedMsg reports a finished graph export.
	exportedMsg struct {
		path string
		err  error
	}
)

// =============================================================================
// Model
// =============================================================================

// model is the interactive view. All fields are owned by the Bubble Tea
// event loop; the controller is only touched from Update and from the
// analysis command.
type model struct {
	ctx     context.Context
	ctrl    *lifecycle.Controller
	sess    *i18n.Session
	input   textinput.Model
	initial string

	state  lifecycle.State
	result *analysis.Result
	ref    repo.Reference // repository of result
	view   *view.View

	anims  []*view.Animation
	values []int
	gen    int // bumped on every render; stale counter ticks are dropped

	loading bool
	spinGen int
	frame   int

	notice    string
	noticeErr bool

	preview string
	width   int
	height  int
	scroll  int
}

func newModel(ctx context.Context, ctrl *lifecycle.Controller, sess *i18n.Session, initial string) model {
	in := textinput.New()
	in.Prompt = "› "
	in.Placeholder = sess.Label(i18n.KeyURLPlaceholder)
	in.CharLimit = 512
	in.Width = 60
	in.SetValue(initial)
	in.Focus()

	return model{
		ctx:     ctx,
		ctrl:    ctrl,
		sess:    sess,
		input:   in,
		initial: initial,
		state:   ctrl.State(),
	}
}

func (m model) Init() tea.Cmd {
	if m.initial == "" {
		return textinput.Blink
	}
	raw := m.initial
	return tea.Batch(textinput.Blink, func() tea.Msg { return submitMsg{raw: raw} })
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.Width = max(20, min(80, msg.Width-lipgloss.Width(m.button())-6))
		m.refreshPreview()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			return m.submit(m.input.Value())
		case "tab", "ctrl+l":
			m.switchLanguage()
			return m, nil
		case "ctrl+s", "ctrl+e":
			format := graph.FormatPNG
			if msg.String() == "ctrl+e" {
				format = graph.FormatSVG
			}
			cmd := m.export(format)
			return m, cmd
		case "pgup":
			m.scroll = max(0, m.scroll-m.page())
			return m, nil
		case "pgdown":
			m.scroll = min(m.scroll+m.page(), strings.Count(m.body(), "\n"))
			return m, nil
		}

	case submitMsg:
		return m.submit(msg.raw)

	case resolvedMsg:
		cmd := m.apply(m.ctrl.Handle(m.ctx, msg.ev))
		m.state = m.ctrl.State()
		return m, cmd

	case counterTickMsg:
		if msg.gen != m.gen || msg.idx >= len(m.anims) {
			return m, nil
		}
		value, done := m.anims[msg.idx].Step()
		m.values[msg.idx] = value
		if done {
			return m, nil
		}
		return m, counterTick(msg.idx, msg.gen)

	case spinnerTickMsg:
		if !m.loading || msg.gen != m.spinGen {
			return m, nil
		}
		m.frame = (m.frame + 1) % len(spinnerFrames)
		return m, spinnerTick(m.spinGen)

	case exportedMsg:
		if msg.err != nil {
			m.notice, m.noticeErr = msg.err.Error(), true
		} else {
			m.notice, m.noticeErr = m.sess.Label(i18n.KeyGraphSaved)+": "+msg.path, false
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit hands the input to the controller. A submission while loading is
// ignored by the controller and yields no effects.
func (m model) submit(raw string) (tea.Model, tea.Cmd) {
	cmd := m.apply(m.ctrl.Submit(m.ctx, raw))
	m.state = m.ctrl.State()
	return m, cmd
}

// apply performs lifecycle effects in order and returns the commands they
// start.
func (m *model) apply(effects []lifecycle.Effect) tea.Cmd {
	var cmds []tea.Cmd
	for _, e := range effects {
		switch e := e.(type) {
		case lifecycle.Validate:
			m.notice = ""
		case lifecycle.ShowLoading:
			m.loading = true
			m.spinGen++
			m.frame = 0
			cmds = append(cmds, spinnerTick(m.spinGen))
		case lifecycle.HideLoading:
			m.loading = false
		case lifecycle.Dispatch:
			ctx, ctrl, req := m.ctx, m.ctrl, e.Request
			cmds = append(cmds, func() tea.Msg {
				return resolvedMsg{ev: ctrl.Call(ctx, req)}
			})
		case lifecycle.Render:
			cmds = append(cmds, m.render(e.Result))
		case lifecycle.DisableTrigger, lifecycle.EnableTrigger, lifecycle.ClearBanners,
			lifecycle.ShowError, lifecycle.ShowSuccess:
			// Read from the controller state in View.
		}
	}
	return tea.Batch(cmds...)
}

// render shows a new result and starts one animation chain per counter.
func (m *model) render(res *analysis.Result) tea.Cmd {
	v := view.Render(res, m.sess)
	m.result = res
	m.ref = m.ctrl.State().Ref
	m.view = &v
	m.scroll = 0
	m.gen++

	counters := append(v.Counters[:], v.Extra...)
	m.anims = make([]*view.Animation, len(counters))
	m.values = make([]int, len(counters))
	cmds := make([]tea.Cmd, len(counters))
	for i, c := range counters {
		m.anims[i] = c.Animation()
		cmds[i] = counterTick(i, m.gen)
	}
	m.refreshPreview()
	return tea.Batch(cmds...)
}

// switchLanguage cycles the session language and re-renders every label.
// Counter animations keep running; banners keep the text they were shown
// with.
func (m *model) switchLanguage() {
	m.sess.Next()
	m.input.Placeholder = m.sess.Label(i18n.KeyURLPlaceholder)
	if m.result != nil {
		v := view.Render(m.result, m.sess)
		m.view = &v
	}
}

func (m *model) refreshPreview() {
	m.preview = ""
	if m.view == nil || !m.view.Graph.Available {
		return
	}
	cols := maxPreviewCols
	if m.width > 0 {
		cols = min(cols, m.width-4)
	}
	if p, err := graph.Preview(m.view.Graph.PNG, cols); err == nil {
		m.preview = p
	}
}

// export writes the graph of the shown result to <owner>-<repo>-graph.<ext>.
func (m *model) export(format graph.Format) tea.Cmd {
	if m.view == nil {
		m.notice, m.noticeErr = m.sess.Label(i18n.KeyNoGraph), true
		return nil
	}
	ctx, ref, v := m.ctx, m.ref, *m.view
	path := fmt.Sprintf("%s-%s-graph.%s", ref.Owner, ref.Repo, format)
	return func() tea.Msg {
		data, err := graph.Export(ctx, format, ref, v)
		if err == nil {
			err = graph.WriteFile(path, data)
		}
		return exportedMsg{path: path, err: err}
	}
}

func counterTick(idx, gen int) tea.Cmd {
	return tea.Tick(view.TickInterval, func(time.Time) tea.Msg {
		return counterTickMsg{idx: idx, gen: gen}
	})
}

func spinnerTick(gen int) tea.Cmd {
	return tea.Tick(spinnerInterval, func(time.Time) tea.Msg {
		return spinnerTickMsg{gen: gen}
	})
}

// =============================================================================
// View
// =============================================================================

func (m model) View() string {
	head := m.header()
	body := m.body()
	help := styleHelp.Render(fmt.Sprintf(
		"enter analyze · tab %s (%s) · ctrl+s PNG · ctrl+e SVG · pgup/pgdn scroll · esc quit",
		strings.ToLower(m.sess.Label(i18n.KeyLanguage)), strings.ToUpper(m.sess.Language())))

	if m.height <= 0 {
		return head + "\n\n" + body + "\n\n" + help
	}

	// Fit the body between header and help, honoring the scroll offset.
	avail := max(1, m.height-lipgloss.Height(head)-lipgloss.Height(help)-2)
	lines := strings.Split(body, "\n")
	start := min(m.scroll, max(0, len(lines)-avail))
	end := min(len(lines), start+avail)
	return head + "\n\n" + strings.Join(lines[start:end], "\n") + "\n" + help
}

func (m model) header() string {
	var b strings.Builder
	b.WriteString(StyleTitle.Render(m.sess.Label(i18n.KeyTitle)))
	b.WriteString("  ")
	b.WriteString(StyleDim.Render(m.sess.Label(i18n.KeySubtitle)))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Center, m.input.View(), "  ", m.button()))

	switch {
	case m.loading:
		b.WriteString("\n\n")
		b.WriteString(styleIconSpinner.Render(spinnerFrames[m.frame]) + " " + m.sess.Label(i18n.KeyAnalyzingText))
	case m.state.Banner.Kind == lifecycle.ErrorBanner:
		b.WriteString("\n\n")
		b.WriteString(styleBannerError.Render(iconError + " " + m.state.Banner.Message))
	case m.state.Banner.Kind == lifecycle.SuccessBanner:
		b.WriteString("\n\n")
		b.WriteString(styleBannerSuccess.Render(iconSuccess + " " + m.state.Banner.Message))
	}

	if m.notice != "" {
		b.WriteString("\n")
		if m.noticeErr {
			b.WriteString(StyleWarning.Render(iconWarning + " " + m.notice))
		} else {
			b.WriteString(StyleDim.Render(iconArrow + " " + m.notice))
		}
	}
	return b.String()
}

func (m model) button() string {
	label := m.sess.Label(i18n.KeyAnalyzeBtn)
	if !m.state.TriggerEnabled() {
		return styleButtonDisabled.Render(label)
	}
	return styleButton.Render(label)
}

func (m model) body() string {
	if m.view == nil {
		return ""
	}
	return report{view: *m.view, values: m.values, preview: m.preview, width: m.width}.String()
}

func (m model) page() int {
	return max(1, m.height/2)
}
