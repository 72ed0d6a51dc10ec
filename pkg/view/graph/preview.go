package graph

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/image/draw"
)

// upperHalf is drawn with the top pixel as foreground and the bottom pixel
// as background, packing two image rows into one terminal row.
const upperHalf = "▀"

// Preview draws a PNG as colored half-block characters at most cols wide.
// Transparent areas are composited onto white. The image is never scaled up.
func Preview(data []byte, cols int) (string, error) {
	if cols <= 0 {
		return "", fmt.Errorf("preview width must be positive, got %d", cols)
	}
	src, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decode graph image: %w", err)
	}

	sb := src.Bounds()
	if sb.Dx() == 0 || sb.Dy() == 0 {
		return "", nil
	}
	w := min(cols, sb.Dx())
	h := max(sb.Dy()*w/sb.Dx(), 1)
	if h%2 == 1 {
		h++
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, sb, draw.Over, nil)

	var out strings.Builder
	for y := 0; y < h; y += 2 {
		if y > 0 {
			out.WriteByte('\n')
		}
		for x := 0; x < w; x++ {
			style := lipgloss.NewStyle().
				Foreground(hex(dst.RGBAAt(x, y))).
				Background(hex(dst.RGBAAt(x, y+1)))
			out.WriteString(style.Render(upperHalf))
		}
	}
	return out.String(), nil
}

func hex(c color.RGBA) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B))
}
