package graph

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/depview/pkg/errors"
	"github.com/matzehuels/depview/pkg/repo"
	"github.com/matzehuels/depview/pkg/view"
)

// Format is an export file format.
type Format string

const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
	FormatDOT Format = "dot"
)

// Formats lists the supported export formats.
var Formats = []Format{FormatPNG, FormatSVG, FormatDOT}

// ParseFormat validates a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FormatPNG, FormatSVG, FormatDOT:
		return f, nil
	}
	return "", errors.New(errors.ErrCodeInvalidInput, "unsupported format %q (use png, svg or dot)", s)
}

// FormatFromPath infers the format from a file extension, defaulting to PNG.
func FormatFromPath(path string) Format {
	if f, err := ParseFormat(strings.TrimPrefix(filepath.Ext(path), ".")); err == nil {
		return f
	}
	return FormatPNG
}

// Export produces the graph of a rendered report in the given format. PNG
// prefers the image the service sent and falls back to drawing the
// dependency list; SVG and DOT are always drawn from the list.
func Export(ctx context.Context, format Format, ref repo.Reference, v view.View) ([]byte, error) {
	switch format {
	case FormatPNG:
		if v.Graph.Available {
			return v.Graph.PNG, nil
		}
		return RenderPNG(ctx, ToDOT(ref, v.Nodes.Items))
	case FormatSVG:
		return RenderSVG(ctx, ToDOT(ref, v.Nodes.Items))
	case FormatDOT:
		return []byte(ToDOT(ref, v.Nodes.Items)), nil
	}
	return nil, errors.New(errors.ErrCodeInvalidInput, "unsupported format %q", format)
}

// SavePNG writes the image the service sent to path.
func SavePNG(path string, g view.Graph) error {
	if !g.Available {
		return errors.New(errors.ErrCodeInvalidInput, "no graph image to save")
	}
	return WriteFile(path, g.PNG)
}

// WriteFile validates path and writes data to it, creating parent
// directories as needed.
func WriteFile(path string, data []byte) error {
	if err := errors.ValidateOutputPath(path); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", dir)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "write %s", path)
	}
	return nil
}
