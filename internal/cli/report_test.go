package cli

import (
	"fmt"
	"strings"
	"testing"

	"github.com/matzehuels/depview/pkg/analysis"
	"github.com/matzehuels/depview/pkg/i18n"
	"github.com/matzehuels/depview/pkg/view"
)

func renderWidget(t *testing.T, mutate func(*analysis.Result)) view.View {
	t.Helper()
	res := widgetResult()
	if mutate != nil {
		mutate(res)
	}
	return view.Render(res, i18n.NewSession(i18n.MustLoad(), i18n.DefaultLanguage))
}

func TestReportFinalValues(t *testing.T) {
	v := renderWidget(t, func(r *analysis.Result) { r.Stats.TotalFiles = ptr(40) })
	got := finalValues(v)
	want := []int{12, 5, 7, 0, 40}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("finalValues() = %v, want %v", got, want)
	}
}

func TestReportAnimatedValues(t *testing.T) {
	v := renderWidget(t, nil)
	out := report{view: v, values: []int{3, 1, 2, 0}}.String()
	if strings.Contains(out, "12") {
		t.Error("report should show the animated value, not the target")
	}
	if !strings.Contains(out, "3") {
		t.Error("report should show the animated value")
	}
}

func TestReportSections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*analysis.Result)
		want    []string
		notWant []string
	}{
		{
			name: "description and nodes",
			want: []string{"Project Description", "Widgets for everyone", "left-pad", "requests"},
		},
		{
			name:    "no description",
			mutate:  func(r *analysis.Result) { r.ProjectDescription = nil },
			notWant: []string{"Project Description"},
		},
		{
			name:   "no dependencies",
			mutate: func(r *analysis.Result) { r.Dependencies = nil },
			want:   []string{"(0)"},
		},
		{
			name:    "readme sentinel",
			mutate:  func(r *analysis.Result) { r.ReadmePreview = ptr(view.ReadmeSentinel) },
			notWant: []string{view.ReadmeSentinel},
		},
		{
			name:   "readme",
			mutate: func(r *analysis.Result) { r.ReadmePreview = ptr("# widget\nUsage notes") },
			want:   []string{"Usage notes"},
		},
		{
			name: "vulnerable node",
			mutate: func(r *analysis.Result) {
				r.Dependencies[0].Vulnerabilities = ptr(2)
			},
			want: []string{"2 vulnerabilities detected"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := renderWidget(t, tt.mutate)
			out := report{view: v, values: finalValues(v)}.String()
			for _, s := range tt.want {
				if !strings.Contains(out, s) {
					t.Errorf("report missing %q:\n%s", s, out)
				}
			}
			for _, s := range tt.notWant {
				if strings.Contains(out, s) {
					t.Errorf("report should not contain %q", s)
				}
			}
		})
	}
}

func TestReportReadmeTruncated(t *testing.T) {
	lines := make([]string, maxReadmeLines+10)
	for i := range lines {
		lines[i] = fmt.Sprintf("line-%02d", i)
	}
	v := renderWidget(t, func(r *analysis.Result) { r.ReadmePreview = ptr(strings.Join(lines, "\n")) })
	out := report{view: v, values: finalValues(v)}.String()

	if !strings.Contains(out, fmt.Sprintf("line-%02d", maxReadmeLines-1)) {
		t.Error("last kept README line missing")
	}
	if strings.Contains(out, fmt.Sprintf("line-%02d", maxReadmeLines)) {
		t.Error("README should be truncated")
	}
}

func TestReportWrapsCounters(t *testing.T) {
	v := renderWidget(t, nil)
	wide := report{view: v, values: finalValues(v)}.counters()
	narrow := report{view: v, values: finalValues(v), width: 30}.counters()

	if strings.Count(narrow, "\n") <= strings.Count(wide, "\n") {
		t.Error("narrow report should wrap counters onto more rows")
	}
}

func TestLanguageTable(t *testing.T) {
	out := languageTable(i18n.MustLoad(), "es")
	for _, s := range []string{"Español", "Deutsch", iconSuccess} {
		if !strings.Contains(out, s) {
			t.Errorf("table missing %q", s)
		}
	}
}
