// Package view maps an analysis result to the fragments a user interface
// displays.
//
// [Render] is a pure function of the result and the active labels: calling it
// twice with the same inputs yields equal views, and it never fails. Missing
// optional data turns into hidden sections or localized placeholders rather
// than errors. Shells (the interactive TUI, the plain analyze command) only
// decide how fragments are drawn.
package view

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"
	"strings"

	"github.com/matzehuels/depview/pkg/analysis"
	"github.com/matzehuels/depview/pkg/i18n"
)

// ReadmeSentinel is the preview value the service sends when a repository
// has no README.
const ReadmeSentinel = "--------------------"

// View is the rendered form of one result.
type View struct {
	Heading     string // repository name reported by the service, if any
	Counters    [4]Counter
	Extra       []Counter // extended counters, only those the service reported
	Description Description
	Readme      Readme
	Graph       Graph
	Nodes       Nodes
}

// Description is the project description panel.
type Description struct {
	Visible bool
	Title   string
	Text    string
}

// Readme is the README excerpt panel.
type Readme struct {
	Visible bool
	Title   string
	Text    string
}

// Graph is the dependency graph panel.
type Graph struct {
	Available   bool
	Title       string
	PNG         []byte // decoded image, nil when unavailable
	Width       int
	Height      int
	Placeholder string // shown when unavailable
}

// Nodes is the dependency list panel.
type Nodes struct {
	Title       string
	Headers     NodeHeaders
	Items       []NodeItem
	Placeholder string // shown when Items is empty
}

// NodeHeaders are the localized field names of a node line.
type NodeHeaders struct {
	Type    string
	Version string
	License string
}

// NodeItem is one dependency line.
type NodeItem struct {
	Name     string
	Type     string // the service's type, verbatim
	Category analysis.NodeType
	Icon     string
	Version  string
	License  string
	Warning  string // vulnerability notice, empty when none
	Outgoing string // outgoing edge count notice, empty when not reported
}

// Icons per node category.
var icons = map[analysis.NodeType]string{
	analysis.NodeNPM:    "⬢",
	analysis.NodePython: "🐍",
	analysis.NodeMaven:  "☕",
	analysis.NodeRepo:   "⎇",
	analysis.NodeOther:  "▣",
}

// Icon returns the glyph for a node category.
func Icon(t analysis.NodeType) string {
	if s, ok := icons[t]; ok {
		return s
	}
	return icons[analysis.NodeOther]
}

// Render builds the view of res. A nil result renders as an empty report.
func Render(res *analysis.Result, labels i18n.Labeler) View {
	if res == nil {
		res = &analysis.Result{}
	}
	s := res.Stats

	v := View{
		Heading: strings.TrimSpace(res.RepoName),
		Counters: [4]Counter{
			counter(labels, i18n.KeyTotalDeps, s.TotalDependencies),
			counter(labels, i18n.KeyDirectDeps, s.DirectDependencies),
			counter(labels, i18n.KeyTransitiveDeps, s.TransitiveDependencies),
			counter(labels, i18n.KeyVulnerabilities, s.Vulnerabilities),
		},
		Description: renderDescription(res.ProjectDescription, labels),
		Readme:      renderReadme(res.ReadmePreview, labels),
		Graph:       renderGraph(res.GraphImage, labels),
		Nodes:       renderNodes(res.Dependencies, labels),
	}

	for _, opt := range []struct {
		key string
		val *int
	}{
		{i18n.KeyTotalFiles, s.TotalFiles},
		{i18n.KeyExternalPackages, s.ExternalPackages},
		{i18n.KeyStandardLibraries, s.StandardLibraries},
	} {
		if opt.val != nil {
			v.Extra = append(v.Extra, counter(labels, opt.key, *opt.val))
		}
	}
	return v
}

func counter(labels i18n.Labeler, key string, target int) Counter {
	return Counter{Key: key, Label: labels.Label(key), Target: max(target, 0)}
}

func renderDescription(desc *string, labels i18n.Labeler) Description {
	d := Description{Title: labels.Label(i18n.KeyProjectDescription)}
	if desc != nil && strings.TrimSpace(*desc) != "" {
		d.Visible, d.Text = true, *desc
	}
	return d
}

func renderReadme(preview *string, labels i18n.Labeler) Readme {
	r := Readme{Title: labels.Label(i18n.KeyReadme)}
	if preview != nil && *preview != "" && *preview != ReadmeSentinel {
		r.Visible, r.Text = true, *preview
	}
	return r
}

func renderGraph(image *string, labels i18n.Labeler) Graph {
	g := Graph{Title: labels.Label(i18n.KeyDependencyGraph)}
	if image != nil {
		if data, err := DecodeImage(*image); err == nil {
			if cfg, err := png.DecodeConfig(bytes.NewReader(data)); err == nil {
				g.Available = true
				g.PNG = data
				g.Width, g.Height = cfg.Width, cfg.Height
				return g
			}
		}
	}
	g.Placeholder = labels.Label(i18n.KeyNoGraph)
	return g
}

// DecodeImage decodes a base64 image payload. A data URL prefix such as
// "data:image/png;base64," and embedded whitespace are tolerated.
func DecodeImage(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		if i := strings.Index(s, ","); i >= 0 {
			s = s[i+1:]
		}
	}
	s = strings.Join(strings.Fields(s), "")
	if s == "" {
		return nil, fmt.Errorf("empty image payload")
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		if raw, rawErr := base64.RawStdEncoding.DecodeString(s); rawErr == nil {
			return raw, nil
		}
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return data, nil
}

func renderNodes(deps []analysis.Node, labels i18n.Labeler) Nodes {
	n := Nodes{
		Title: labels.Label(i18n.KeyDependencyDetails),
		Headers: NodeHeaders{
			Type:    labels.Label(i18n.KeyType),
			Version: labels.Label(i18n.KeyVersion),
			License: labels.Label(i18n.KeyLicense),
		},
	}
	if len(deps) == 0 {
		n.Placeholder = labels.Label(i18n.KeyNoDependencies)
		return n
	}

	unknown := labels.Label(i18n.KeyUnknown)
	n.Items = make([]NodeItem, 0, len(deps))
	for _, d := range deps {
		cat := d.Category()
		item := NodeItem{
			Name:     d.Name,
			Type:     orDefault(&d.Type, unknown),
			Category: cat,
			Icon:     Icon(cat),
			Version:  orDefault(d.Version, unknown),
			License:  orDefault(d.License, unknown),
		}
		if d.Vulnerabilities != nil && *d.Vulnerabilities > 0 {
			item.Warning = fmt.Sprintf("%d %s", *d.Vulnerabilities, labels.Label(i18n.KeyVulnerabilitiesDetected))
		}
		if d.Dependencies != nil {
			item.Outgoing = fmt.Sprintf("%d %s", *d.Dependencies, labels.Label(i18n.KeyOutgoing))
		}
		n.Items = append(n.Items, item)
	}
	return n
}

func orDefault(s *string, def string) string {
	if s == nil || *s == "" {
		return def
	}
	return *s
}
