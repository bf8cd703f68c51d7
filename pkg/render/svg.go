// Package render draws a canvas Frame as SVG or PNG.
package render

import (
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/ha1tch/nodegraph/pkg/canvas"
)

// SVGOptions controls SVG rendering.
type SVGOptions struct {
	Width    int    // surface width in pixels
	Height   int    // surface height in pixels
	FontSize int    // node title size; port titles use FontSize-3
	Title    string // optional caption drawn unscaled at the top
}

// DefaultSVGOptions returns sensible defaults.
func DefaultSVGOptions() SVGOptions {
	return SVGOptions{
		Width:    1024,
		Height:   640,
		FontSize: 14,
	}
}

// Palette shared by the SVG and PNG renderers.
const (
	hexBackground = "#1a1a2e"
	hexConnector  = "#64ffda"
	hexNodeFill   = "#2d3748"
	hexNodeStroke = "#4a5568"
	hexDragStroke = "#64ffda"
	hexText       = "#e2e8f0"
	hexPortIn     = "#f6ad55"
	hexPortOut    = "#63b3ed"
)

// SVG writes f as a standalone SVG document.
func SVG(w io.Writer, f canvas.Frame, opts SVGOptions) error {
	_, err := io.WriteString(w, SVGString(f, opts))
	return err
}

// SVGString renders f to a string.
func SVGString(f canvas.Frame, opts SVGOptions) string {
	if opts.Width == 0 {
		opts.Width = 1024
	}
	if opts.Height == 0 {
		opts.Height = 640
	}
	if opts.FontSize == 0 {
		opts.FontSize = 14
	}
	portSize := opts.FontSize - 3
	if portSize < 8 {
		portSize = 8
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<defs>
  <marker id="arrowhead" markerWidth="10" markerHeight="10" refX="9" refY="3" orient="auto">
    <polygon points="0 0, 10 3, 0 6" fill="%s"/>
  </marker>
</defs>
<style>
  .node { fill: %s; stroke: %s; stroke-width: 1.5; }
  .node-dragging { fill: %s; stroke: %s; stroke-width: 2; }
  .node-label { font-family: sans-serif; font-size: %dpx; fill: %s; text-anchor: middle; }
  .port-in { fill: %s; }
  .port-out { fill: %s; }
  .port-label { font-family: sans-serif; font-size: %dpx; fill: %s; dominant-baseline: middle; }
  .connector { fill: none; stroke: %s; stroke-width: 2; }
  .pending { fill: none; stroke: %s; stroke-width: 2; }
  .title { font-family: sans-serif; font-size: %dpx; fill: %s; font-weight: bold; }
</style>
<rect width="%d" height="%d" fill="%s"/>
`, opts.Width, opts.Height, opts.Width, opts.Height,
		hexConnector,
		hexNodeFill, hexNodeStroke,
		hexNodeFill, hexDragStroke,
		opts.FontSize, hexText,
		hexPortIn, hexPortOut,
		portSize, hexText,
		hexConnector, hexConnector,
		opts.FontSize+4, hexText,
		opts.Width, opts.Height, hexBackground))

	// Zoom about the surface centre.
	s := f.Scale
	if s == 0 {
		s = 1
	}
	tx := float64(opts.Width) / 2 * (1 - s)
	ty := float64(opts.Height) / 2 * (1 - s)
	sb.WriteString(fmt.Sprintf(`<g class="surface" transform="translate(%.1f %.1f) scale(%g)" data-margin="%g">
`, tx, ty, s, f.Margin))

	// Connectors under nodes.
	for _, c := range f.Connectors {
		sb.WriteString(fmt.Sprintf(`<path d="%s" class="connector" marker-end="url(#arrowhead)" data-from="%s" data-to="%s"/>
`, c.Curve.D(), c.Connection.From, c.Connection.To))
	}
	if f.Pending != nil {
		sb.WriteString(fmt.Sprintf(`<path d="%s" class="pending" stroke-dasharray="5,5" opacity="0.5"/>
`, f.Pending.D()))
	}

	for _, n := range f.Nodes {
		h := f.Layout.NodeHeight(n)
		class := "node"
		if f.Dragging != nil && *f.Dragging == n.ID {
			class = "node-dragging"
		}
		sb.WriteString(fmt.Sprintf(`<g class="node-group" data-id="%d">
<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="6" class="%s"/>
<text x="%.1f" y="%.1f" class="node-label">%s</text>
`, n.ID, n.X, n.Y, n.Width, h, class, n.X+n.Width/2, n.Y+22, html.EscapeString(n.Label)))

		for _, p := range n.Inputs {
			a := f.Layout.InputPort(n, p.Index)
			sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="5" class="port-in"><title>%s</title></circle>
<text x="%.1f" y="%.1f" class="port-label">%s</text>
`, a.X, a.Y, html.EscapeString(p.Title), n.X+8, a.Y, html.EscapeString(p.Title)))
		}
		for _, p := range n.Outputs {
			a := f.Layout.OutputPort(n, p.Index)
			sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="5" class="port-out"><title>%s</title></circle>
<text x="%.1f" y="%.1f" class="port-label" text-anchor="end">%s</text>
`, a.X, a.Y, html.EscapeString(p.Title), n.X+n.Width-8, a.Y, html.EscapeString(p.Title)))
		}
		sb.WriteString("</g>\n")
	}
	sb.WriteString("</g>\n")

	if opts.Title != "" {
		sb.WriteString(fmt.Sprintf(`<text x="12" y="24" class="title">%s</text>
`, html.EscapeString(opts.Title)))
	}

	sb.WriteString("</svg>\n")
	return sb.String()
}
