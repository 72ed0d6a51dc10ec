// Package graph exports and previews the dependency graph of a report.
//
// The service sends a ready-made PNG. When it does not, or when a vector
// format is wanted, the dependency list is drawn as a Graphviz star graph
// (repository in the middle, one edge per dependency) with [ToDOT] and
// rendered with [RenderSVG] or [RenderPNG].
package graph

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/depview/pkg/analysis"
	"github.com/matzehuels/depview/pkg/repo"
	"github.com/matzehuels/depview/pkg/view"
)

// Fill colors per node category.
var categoryFill = map[analysis.NodeType]string{
	analysis.NodeNPM:    "#fde2e1",
	analysis.NodePython: "#dbe8f6",
	analysis.NodeMaven:  "#fdebd3",
	analysis.NodeRepo:   "#e7e0f2",
	analysis.NodeOther:  "#edf2f7",
}

const (
	rootFill     = "#667eea"
	warningColor = "#e53e3e"
)

// ToDOT converts a dependency list to Graphviz DOT format. The repository is
// the root node; every item becomes a leaf connected to it, in list order.
func ToDOT(ref repo.Reference, items []view.NodeItem) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontname=\"Helvetica\", fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [color=\"#a0aec0\"];\n")
	buf.WriteString("  ranksep=1.2;\n")
	buf.WriteString("  nodesep=0.2;\n")
	buf.WriteString("\n")

	root := ref.String()
	fmt.Fprintf(&buf, "  %q [label=%q, fillcolor=%q, fontcolor=white];\n", root, root, rootFill)

	var leaves []view.NodeItem
	seen := map[string]bool{root: true}
	for _, it := range items {
		if !seen[it.Name] {
			seen[it.Name] = true
			leaves = append(leaves, it)
		}
	}

	for _, it := range leaves {
		fmt.Fprintf(&buf, "  %q [%s];\n", it.Name, strings.Join(fmtAttrs(it), ", "))
	}
	buf.WriteString("\n")
	for _, it := range leaves {
		fmt.Fprintf(&buf, "  %q -> %q;\n", root, it.Name)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtAttrs(it view.NodeItem) []string {
	label := it.Name
	if it.Version != "" {
		label += "\n" + it.Version
	}
	fill, ok := categoryFill[it.Category]
	if !ok {
		fill = categoryFill[analysis.NodeOther]
	}
	attrs := []string{fmt.Sprintf("label=%q", label), fmt.Sprintf("fillcolor=%q", fill)}
	if it.Warning != "" {
		attrs = append(attrs, fmt.Sprintf("color=%q", warningColor), "penwidth=2", fmt.Sprintf("tooltip=%q", it.Warning))
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	out, err := render(ctx, dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(out), nil
}

// RenderPNG renders a DOT graph to PNG using Graphviz.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return render(ctx, dot, graphviz.PNG)
}

func render(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's pt-sized root element with one that
// scales to its container.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
