package view

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"reflect"
	"testing"

	"github.com/matzehuels/depview/pkg/analysis"
	"github.com/matzehuels/depview/pkg/i18n"
)

func ptr[T any](v T) *T { return &v }

func english() i18n.Labeler {
	return i18n.NewSession(i18n.MustLoad(), "en")
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func widgetResult() *analysis.Result {
	return &analysis.Result{
		Stats: analysis.Stats{TotalDependencies: 12, DirectDependencies: 5, TransitiveDependencies: 7},
		Dependencies: []analysis.Node{
			{Name: "lodash", Type: "npm", Version: ptr("4.17.21")},
		},
	}
}

func TestRenderWidget(t *testing.T) {
	v := Render(widgetResult(), english())

	want := []int{12, 5, 7, 0}
	for i, c := range v.Counters {
		if c.Target != want[i] {
			t.Errorf("counter %s = %d, want %d", c.Key, c.Target, want[i])
		}
	}
	if v.Counters[0].Label != "Total Dependencies" {
		t.Errorf("label = %q", v.Counters[0].Label)
	}

	if len(v.Nodes.Items) != 1 {
		t.Fatalf("items = %+v", v.Nodes.Items)
	}
	item := v.Nodes.Items[0]
	if item.Name != "lodash" || item.Type != "npm" || item.Category != analysis.NodeNPM || item.Icon != "⬢" {
		t.Errorf("item = %+v", item)
	}
	if item.License != "Unknown" || item.Version != "4.17.21" {
		t.Errorf("version/license = %q/%q", item.Version, item.License)
	}
	if item.Warning != "" || item.Outgoing != "" {
		t.Errorf("unexpected notices: %+v", item)
	}
	if v.Nodes.Placeholder != "" {
		t.Errorf("placeholder = %q, want empty", v.Nodes.Placeholder)
	}

	if v.Readme.Visible || v.Description.Visible || v.Graph.Available {
		t.Errorf("optional panels should be hidden: %+v", v)
	}
	if v.Graph.Placeholder != "No graph data available for this repository." {
		t.Errorf("graph placeholder = %q", v.Graph.Placeholder)
	}
	if len(v.Extra) != 0 {
		t.Errorf("extra = %+v", v.Extra)
	}
}

func TestRenderIdempotent(t *testing.T) {
	img := base64.StdEncoding.EncodeToString(testPNG(t, 4, 3))
	res := widgetResult()
	res.GraphImage = &img
	res.ReadmePreview = ptr("# Widget")
	res.Stats.TotalFiles = ptr(40)
	labels := english()

	a := Render(res, labels)
	b := Render(res, labels)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("Render is not idempotent:\n%+v\n%+v", a, b)
	}
}

func TestRenderNil(t *testing.T) {
	v := Render(nil, english())
	if v.Nodes.Placeholder == "" || v.Graph.Available {
		t.Errorf("nil result view = %+v", v)
	}
}

func TestRenderEmptyDependencies(t *testing.T) {
	for _, deps := range [][]analysis.Node{nil, {}} {
		v := Render(&analysis.Result{Dependencies: deps}, english())
		if len(v.Nodes.Items) != 0 {
			t.Errorf("items = %+v", v.Nodes.Items)
		}
		if v.Nodes.Placeholder != "No dependencies found in this repository." {
			t.Errorf("placeholder = %q", v.Nodes.Placeholder)
		}
	}
}

func TestRenderReadme(t *testing.T) {
	tests := []struct {
		name    string
		preview *string
		visible bool
	}{
		{"missing", nil, false},
		{"empty", ptr(""), false},
		{"sentinel", ptr(ReadmeSentinel), false},
		{"sentinel with extra dash", ptr(ReadmeSentinel + "-"), true},
		{"text", ptr("  # Title\n\nbody  "), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Render(&analysis.Result{ReadmePreview: tt.preview}, english()).Readme
			if r.Visible != tt.visible {
				t.Fatalf("Visible = %v, want %v", r.Visible, tt.visible)
			}
			if tt.visible && r.Text != *tt.preview {
				t.Errorf("Text = %q, want verbatim %q", r.Text, *tt.preview)
			}
			if r.Title != "README" {
				t.Errorf("Title = %q", r.Title)
			}
		})
	}
}

func TestRenderGraph(t *testing.T) {
	raw := testPNG(t, 8, 5)
	enc := base64.StdEncoding.EncodeToString(raw)

	tests := []struct {
		name      string
		image     *string
		available bool
	}{
		{"absent", nil, false},
		{"empty", ptr(""), false},
		{"plain base64", ptr(enc), true},
		{"data url", ptr("data:image/png;base64," + enc), true},
		{"wrapped lines", ptr(enc[:10] + "\n" + enc[10:]), true},
		{"not base64", ptr("%%%"), false},
		{"base64 but not png", ptr(base64.StdEncoding.EncodeToString([]byte("hello"))), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := Render(&analysis.Result{GraphImage: tt.image}, english()).Graph
			if g.Available != tt.available {
				t.Fatalf("Available = %v, want %v", g.Available, tt.available)
			}
			if !tt.available {
				if g.Placeholder == "" || g.PNG != nil {
					t.Errorf("unavailable graph = %+v", g)
				}
				return
			}
			if !bytes.Equal(g.PNG, raw) || g.Width != 8 || g.Height != 5 {
				t.Errorf("graph = %dx%d, %d bytes", g.Width, g.Height, len(g.PNG))
			}
		})
	}
}

func TestRenderNodes(t *testing.T) {
	res := &analysis.Result{Dependencies: []analysis.Node{
		{Name: "requests", Type: "python", Version: ptr("2.31"), License: ptr("Apache-2.0"), Vulnerabilities: ptr(2)},
		{Name: "junit", Type: "maven", Vulnerabilities: ptr(0), Dependencies: ptr(3)},
		{Name: "acme/core", Type: "repo", Version: ptr("")},
		{Name: "serde", Type: "cargo"},
		{Name: "mystery"},
	}}
	items := Render(res, english()).Nodes.Items

	want := []NodeItem{
		{Name: "requests", Type: "python", Category: analysis.NodePython, Icon: "🐍",
			Version: "2.31", License: "Apache-2.0", Warning: "2 vulnerabilities detected"},
		{Name: "junit", Type: "maven", Category: analysis.NodeMaven, Icon: "☕",
			Version: "Unknown", License: "Unknown", Outgoing: "3 imports"},
		{Name: "acme/core", Type: "repo", Category: analysis.NodeRepo, Icon: "⎇",
			Version: "Unknown", License: "Unknown"},
		{Name: "serde", Type: "cargo", Category: analysis.NodeOther, Icon: "▣",
			Version: "Unknown", License: "Unknown"},
		{Name: "mystery", Type: "Unknown", Category: analysis.NodeOther, Icon: "▣",
			Version: "Unknown", License: "Unknown"},
	}
	if !reflect.DeepEqual(items, want) {
		t.Errorf("items =\n%+v\nwant\n%+v", items, want)
	}
}

func TestRenderDescriptionAndHeading(t *testing.T) {
	v := Render(&analysis.Result{ProjectDescription: ptr("A widget"), RepoName: " widget "}, english())
	if !v.Description.Visible || v.Description.Text != "A widget" || v.Description.Title != "Project Description" {
		t.Errorf("description = %+v", v.Description)
	}
	if v.Heading != "widget" {
		t.Errorf("heading = %q", v.Heading)
	}

	v = Render(&analysis.Result{ProjectDescription: ptr("   ")}, english())
	if v.Description.Visible {
		t.Error("blank description should be hidden")
	}
}

func TestRenderExtraCounters(t *testing.T) {
	res := &analysis.Result{Stats: analysis.Stats{TotalFiles: ptr(40), StandardLibraries: ptr(3)}}
	extra := Render(res, english()).Extra
	want := []Counter{
		{Key: i18n.KeyTotalFiles, Label: "Files Scanned", Target: 40},
		{Key: i18n.KeyStandardLibraries, Label: "Standard Libraries", Target: 3},
	}
	if !reflect.DeepEqual(extra, want) {
		t.Errorf("extra = %+v, want %+v", extra, want)
	}
}

func TestRenderFollowsLanguage(t *testing.T) {
	sess := i18n.NewSession(i18n.MustLoad(), "en")
	en := Render(widgetResult(), sess)
	if err := sess.SetLanguage("ru"); err != nil {
		t.Fatal(err)
	}
	ru := Render(widgetResult(), sess)
	if en.Counters[0].Label == ru.Counters[0].Label {
		t.Errorf("counter label not localized: %q", ru.Counters[0].Label)
	}
	if en.Counters[0].Target != ru.Counters[0].Target {
		t.Error("targets changed with language")
	}
}

func TestIcon(t *testing.T) {
	if Icon("bogus") != "▣" {
		t.Errorf("Icon(bogus) = %q", Icon("bogus"))
	}
}
