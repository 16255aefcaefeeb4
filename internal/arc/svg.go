package arc

import (
	"bufio"
	"fmt"
	"html"
	"io"
)

// SVG styling for the standalone gauge document.
const (
	svgEndLabelColor = "#B0B0B0"
	svgEndLabelSize  = 18
	svgLabelColor    = "#0057B8"
	svgLabelSize     = 32
	svgTreeRatio     = 0.6 // tree image size relative to the diameter
)

// AssetPath returns the image path for a tier asset key.
func AssetPath(asset string) string {
	return "assets/images/" + asset + ".png"
}

// WriteSVG writes f as a standalone SVG document.
func WriteSVG(w io.Writer, f Frame) error {
	bw := bufio.NewWriter(w)

	d := num(f.Diameter)
	fmt.Fprintf(bw, `<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s">`+"\n", d, d, d, d)
	fmt.Fprintf(bw, `  <path d="%s" stroke="%s" stroke-width="%s" fill="transparent" stroke-linecap="round"/>`+"\n",
		f.TrackPath, f.Palette.Track, num(f.StrokeWidth))

	if f.Indicator != nil {
		fmt.Fprintf(bw, `  <circle cx="%s" cy="%s" r="%s" fill="%s"/>`+"\n",
			num(f.Indicator.X), num(f.Indicator.Y), num(f.StrokeWidth/2), f.Palette.Stroke)
	}

	writeText(bw, f.MinLabel, "%0", svgEndLabelColor, svgEndLabelSize)
	writeText(bw, f.MaxLabel, "%100", svgEndLabelColor, svgEndLabelSize)

	tree := f.Diameter * svgTreeRatio
	fmt.Fprintf(bw, `  <image href="%s" x="%s" y="%s" width="%s" height="%s" data-tier="%d"/>`+"\n",
		html.EscapeString(AssetPath(f.Tier.Asset)),
		num(f.Center.X-tree/2), num(f.Center.Y-tree/2), num(tree), num(tree), f.Tier.Index)

	labelPos := Point{X: f.Center.X, Y: f.Diameter - svgLabelSize/2}
	writeText(bw, labelPos, f.Label, svgLabelColor, svgLabelSize)

	bw.WriteString("</svg>\n")
	return bw.Flush()
}

func writeText(w *bufio.Writer, p Point, text, color string, size int) {
	fmt.Fprintf(w, `  <text x="%s" y="%s" font-size="%d" font-weight="bold" fill="%s" text-anchor="middle">%s</text>`+"\n",
		num(p.X), num(p.Y+8), size, color, html.EscapeString(text))
}
