package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/depview/pkg/view"
)

// maxReadmeLines bounds the README excerpt shown in a report.
const maxReadmeLines = 20

// report draws a rendered view as terminal text. Counter values are passed
// separately so the interactive view can animate them.
type report struct {
	view    view.View
	values  []int  // displayed counter values: the four headline counters, then the extras
	preview string // graph preview, empty to show only the image size
	width   int
}

// finalValues returns the counter targets, for output without animation.
func finalValues(v view.View) []int {
	vals := make([]int, 0, len(v.Counters)+len(v.Extra))
	for _, c := range v.Counters {
		vals = append(vals, c.Target)
	}
	for _, c := range v.Extra {
		vals = append(vals, c.Target)
	}
	return vals
}

func (r report) String() string {
	var sections []string

	if r.view.Heading != "" {
		sections = append(sections, StyleTitle.Render(r.view.Heading))
	}
	sections = append(sections, r.counters())

	if d := r.view.Description; d.Visible {
		sections = append(sections, r.panel(d.Title, d.Text))
	}

	g := r.view.Graph
	switch {
	case g.Available && r.preview != "":
		sections = append(sections, r.panel(g.Title, r.preview))
	case g.Available:
		sections = append(sections, r.panel(g.Title, StyleDim.Render(fmt.Sprintf("PNG %d×%d", g.Width, g.Height))))
	default:
		sections = append(sections, r.panel(g.Title, StyleDim.Render(g.Placeholder)))
	}

	sections = append(sections, r.nodes())

	if rd := r.view.Readme; rd.Visible {
		sections = append(sections, r.panel(rd.Title, truncateLines(rd.Text, maxReadmeLines)))
	}

	return strings.Join(sections, "\n\n")
}

func (r report) counters() string {
	all := append(r.view.Counters[:], r.view.Extra...)
	boxes := make([]string, len(all))
	for i, c := range all {
		val := c.Target
		if i < len(r.values) {
			val = r.values[i]
		}
		body := StyleNumber.Render(strconv.Itoa(val)) + "\n" + StyleDim.Render(c.Label)
		boxes[i] = styleCounter.Render(body)
	}

	// Wrap the boxes into rows that fit the width.
	var rows []string
	var row []string
	rowWidth := 0
	for _, b := range boxes {
		w := lipgloss.Width(b)
		if len(row) > 0 && r.width > 0 && rowWidth+w > r.width {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
			row, rowWidth = nil, 0
		}
		row = append(row, b)
		rowWidth += w
	}
	if len(row) > 0 {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (r report) panel(title, body string) string {
	p := stylePanel
	if r.width > 4 {
		p = p.Width(r.width - 2)
	}
	return styleSection.Render(title) + "\n" + p.Render(body)
}

func (r report) nodes() string {
	n := r.view.Nodes
	title := styleSection.Render(fmt.Sprintf("%s (%d)", n.Title, len(n.Items)))
	if len(n.Items) == 0 {
		return title + "\n" + StyleDim.Render(n.Placeholder)
	}

	rows := make([][]string, len(n.Items))
	for i, it := range n.Items {
		name := it.Name
		if it.Warning != "" {
			name += "\n" + StyleError.Render(iconWarning+" "+it.Warning)
		}
		if it.Outgoing != "" {
			name += "\n" + StyleDim.Render(it.Outgoing)
		}
		rows[i] = []string{categoryStyle(it.Category).Render(it.Icon), name, it.Type, it.Version, it.License}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "", n.Headers.Type, n.Headers.Version, n.Headers.License).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			base := lipgloss.NewStyle().Padding(0, 1)
			if col >= 3 {
				return base.Foreground(colorGray)
			}
			return base
		})
	return title + "\n" + t.Render()
}

func truncateLines(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return s
	}
	return strings.Join(lines[:n], "\n") + "\n" + StyleDim.Render("…")
}
