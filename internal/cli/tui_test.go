package cli

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/depview/pkg/analysis"
	"github.com/matzehuels/depview/pkg/analysis/analysistest"
	"github.com/matzehuels/depview/pkg/i18n"
	"github.com/matzehuels/depview/pkg/lifecycle"
)

func widgetResult() *analysis.Result {
	return &analysis.Result{
		RepoName: "widget",
		Stats: analysis.Stats{
			TotalDependencies:      12,
			DirectDependencies:     5,
			TransitiveDependencies: 7,
		},
		Dependencies: []analysis.Node{
			{Name: "left-pad", Type: "npm", Version: ptr("1.3.0"), License: ptr("MIT")},
			{Name: "requests", Type: "python"},
		},
		ProjectDescription: ptr("Widgets for everyone"),
	}
}

func newTestModel(t *testing.T, respond analysistest.Responder) (model, *analysistest.Service) {
	t.Helper()
	svc := analysistest.NewService(respond)
	srv := httptest.NewServer(svc.Handler())
	t.Cleanup(srv.Close)

	sess := i18n.NewSession(i18n.MustLoad(), i18n.DefaultLanguage)
	ctrl := lifecycle.NewController(analysis.NewClient(srv.URL), sess)
	return newModel(context.Background(), ctrl, sess, ""), svc
}

// runCmd executes cmd and returns the messages it produced, expanding batches.
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, runCmd(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func update(t *testing.T, m model, msg tea.Msg) (model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(model)
	if !ok {
		t.Fatalf("Update returned %T, want model", next)
	}
	return nm, cmd
}

// submitAndResolve types url, presses enter and feeds the analysis outcome
// back into the model.
func submitAndResolve(t *testing.T, m model, url string) (model, tea.Cmd) {
	t.Helper()
	m.input.SetValue(url)
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	var resolved *resolvedMsg
	for _, msg := range runCmd(cmd) {
		if r, ok := msg.(resolvedMsg); ok {
			resolved = &r
		}
	}
	if resolved == nil {
		return m, nil
	}
	return update(t, m, *resolved)
}

// finishCounters drives every counter animation of the current render to the end.
func finishCounters(t *testing.T, m model) model {
	t.Helper()
	for i := 0; i < 100; i++ {
		for idx := range m.anims {
			m, _ = update(t, m, counterTickMsg{idx: idx, gen: m.gen})
		}
	}
	return m
}

func TestModelSuccess(t *testing.T) {
	m, svc := newTestModel(t, analysistest.Fixed(http.StatusOK, widgetResult()))

	m, cmd := submitAndResolve(t, m, "https://github.com/acme/widget")
	if cmd == nil {
		t.Fatal("render should start counter animations")
	}
	if m.state.Phase != lifecycle.Success {
		t.Fatalf("phase = %v, want success", m.state.Phase)
	}
	if m.loading {
		t.Error("loading indicator still shown")
	}
	if m.view == nil || m.view.Heading != "widget" {
		t.Fatalf("view = %+v", m.view)
	}
	if m.ref.String() != "acme/widget" {
		t.Errorf("ref = %q", m.ref)
	}
	if got := len(svc.Calls()); got != 1 {
		t.Errorf("service calls = %d, want 1", got)
	}

	for i, v := range m.values {
		if v != 0 {
			t.Errorf("counter %d starts at %d, want 0", i, v)
		}
	}
	m = finishCounters(t, m)
	want := []int{12, 5, 7, 0}
	for i, w := range want {
		if m.values[i] != w {
			t.Errorf("counter %d = %d, want %d", i, m.values[i], w)
		}
	}

	out := m.View()
	for _, s := range []string{"Repository analyzed successfully!", "left-pad", "Widgets for everyone"} {
		if !strings.Contains(out, s) {
			t.Errorf("View() missing %q", s)
		}
	}
}

func TestModelServiceError(t *testing.T) {
	m, _ := newTestModel(t, analysistest.Fail(http.StatusTooManyRequests, "rate limited"))

	m, _ = submitAndResolve(t, m, "github.com/acme/widget")
	if m.state.Phase != lifecycle.Error {
		t.Fatalf("phase = %v, want error", m.state.Phase)
	}
	if !m.state.TriggerEnabled() {
		t.Error("trigger should be enabled after an error")
	}
	if !strings.Contains(m.View(), "rate limited") {
		t.Error("error banner should show the service message")
	}
}

func TestModelInvalidURL(t *testing.T) {
	m, svc := newTestModel(t, analysistest.Fixed(http.StatusOK, widgetResult()))

	m.input.SetValue("https://gitlab.com/acme/widget")
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Error("invalid input should start no command")
	}
	if m.state.Phase != lifecycle.Error {
		t.Fatalf("phase = %v, want error", m.state.Phase)
	}
	if len(svc.Calls()) != 0 {
		t.Error("service should not be called for invalid input")
	}
	if !strings.Contains(m.View(), "Please enter a valid GitHub repository URL") {
		t.Error("View() should show the validation message")
	}
}

func TestModelSubmitWhileLoading(t *testing.T) {
	m, _ := newTestModel(t, analysistest.Fixed(http.StatusOK, widgetResult()))

	m.input.SetValue("github.com/acme/widget")
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil || !m.loading {
		t.Fatal("first submit should start loading")
	}
	if m.state.TriggerEnabled() {
		t.Error("trigger should be disabled while loading")
	}

	m, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Error("submit while loading should be ignored")
	}
	if m.state.Phase != lifecycle.Loading {
		t.Errorf("phase = %v, want loading", m.state.Phase)
	}
}

func TestModelLanguageSwitch(t *testing.T) {
	m, _ := newTestModel(t, analysistest.Fixed(http.StatusOK, widgetResult()))
	m, _ = submitAndResolve(t, m, "github.com/acme/widget")
	m = finishCounters(t, m)
	banner := m.state.Banner.Message

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if got := m.sess.Language(); got == i18n.DefaultLanguage {
		t.Fatalf("language still %q after tab", got)
	}
	if got, want := m.view.Counters[0].Label, m.sess.Label(i18n.KeyTotalDeps); got != want {
		t.Errorf("counter label = %q, want %q", got, want)
	}
	if m.input.Placeholder != m.sess.Label(i18n.KeyURLPlaceholder) {
		t.Error("placeholder not re-rendered")
	}
	if m.values[0] != 12 {
		t.Errorf("counter value = %d after switch, want 12", m.values[0])
	}
	if m.state.Banner.Message != banner {
		t.Error("banner text should keep the language it was shown in")
	}
}

func TestModelStaleCounterTicks(t *testing.T) {
	m, _ := newTestModel(t, analysistest.Fixed(http.StatusOK, widgetResult()))
	m, _ = submitAndResolve(t, m, "github.com/acme/widget")
	oldGen := m.gen

	m, _ = submitAndResolve(t, m, "github.com/acme/widget")
	m, cmd := update(t, m, counterTickMsg{idx: 0, gen: oldGen})
	if cmd != nil {
		t.Error("stale tick should not continue its chain")
	}
	if m.values[0] != 0 {
		t.Errorf("stale tick advanced counter to %d", m.values[0])
	}
}

func TestModelSpinner(t *testing.T) {
	m, _ := newTestModel(t, analysistest.Fixed(http.StatusOK, widgetResult()))
	m.input.SetValue("github.com/acme/widget")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	m, cmd := update(t, m, spinnerTickMsg{gen: m.spinGen})
	if cmd == nil || m.frame != 1 {
		t.Errorf("spinner tick: frame = %d, cmd nil = %v", m.frame, cmd == nil)
	}
	if !strings.Contains(m.View(), "Analyzing") {
		t.Error("View() should show the analyzing text while loading")
	}

	m.loading = false
	if _, cmd := update(t, m, spinnerTickMsg{gen: m.spinGen}); cmd != nil {
		t.Error("spinner should stop once loading ends")
	}
}

func TestModelExport(t *testing.T) {
	t.Chdir(t.TempDir())

	m, _ := newTestModel(t, analysistest.Fixed(http.StatusOK, widgetResult()))

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	if cmd != nil {
		t.Error("export without a result should start no command")
	}
	if !m.noticeErr {
		t.Error("export without a result should show a notice")
	}

	m, _ = submitAndResolve(t, m, "github.com/acme/widget")
	m, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlE})
	msgs := runCmd(cmd)
	if len(msgs) != 1 {
		t.Fatalf("export produced %d messages", len(msgs))
	}
	exp, ok := msgs[0].(exportedMsg)
	if !ok {
		t.Fatalf("export produced %T", msgs[0])
	}
	if exp.err != nil {
		t.Fatalf("export error: %v", exp.err)
	}
	if exp.path != "acme-widget-graph.svg" {
		t.Errorf("path = %q", exp.path)
	}

	m, _ = update(t, m, exp)
	if m.noticeErr || !strings.Contains(m.notice, exp.path) {
		t.Errorf("notice = %q", m.notice)
	}
}

func TestModelScrollAndResize(t *testing.T) {
	m, _ := newTestModel(t, analysistest.Fixed(http.StatusOK, widgetResult()))
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 20})
	m, _ = submitAndResolve(t, m, "github.com/acme/widget")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyPgDown})
	if m.scroll == 0 {
		t.Error("pgdown should scroll")
	}
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyPgUp})
	if m.scroll != 0 {
		t.Errorf("scroll = %d after pgup, want 0", m.scroll)
	}
	if got := strings.Count(m.View(), "\n") + 1; got > 20 {
		t.Errorf("View() has %d lines, want at most 20", got)
	}
}

func TestModelQuit(t *testing.T) {
	m, _ := newTestModel(t, analysistest.Fixed(http.StatusOK, widgetResult()))
	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatal("esc should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("esc should produce tea.QuitMsg")
	}
}

func TestModelInitialURL(t *testing.T) {
	m, _ := newTestModel(t, analysistest.Fixed(http.StatusOK, widgetResult()))
	m.initial = "github.com/acme/widget"

	var submitted bool
	for _, msg := range runCmd(m.Init()) {
		if s, ok := msg.(submitMsg); ok && s.raw == m.initial {
			submitted = true
		}
	}
	if !submitted {
		t.Error("Init should submit the initial URL")
	}
}
