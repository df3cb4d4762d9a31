package diagram

import (
	"bytes"
	"fmt"
	"html"
	"io"
)

// RenderError reports a failure to serialize a diagram to SVG. Rendering
// failures never produce a partial image.
type RenderError struct {
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("diagram render failed: %v", e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// Helper to escape strings for SVG text content
func escapeSVGText(s string) string {
	return html.EscapeString(s)
}

// WriteSVG serializes the diagram as a self contained SVG document. The
// output declares an explicit opaque background so the image stays legible
// when embedded over a dark host page, and contains nothing that varies
// between runs - equal diagrams serialize byte for byte identically.
func (d *Diagram) WriteSVG(w io.Writer) error {
	var svg bytes.Buffer

	fontSize := 14.0
	lineHeight := fontSize * 1.2

	svg.WriteString(fmt.Sprintf("<svg width=\"%d\" height=\"%d\" xmlns=\"http://www.w3.org/2000/svg\">\n", d.Width, d.Height))
	svg.WriteString("  <style>\n")
	svg.WriteString("    .block-rect { stroke: #333; stroke-width: 1.5px; fill: #f8f9fa; }\n")
	svg.WriteString(fmt.Sprintf("    .block-text { font-family: Arial, sans-serif; font-size: %.1fpx; fill: #212529; text-anchor: middle; }\n", fontSize))
	svg.WriteString("    .wire-line { stroke: #333; stroke-width: 1.5px; fill: none; }\n")
	svg.WriteString("  </style>\n")
	svg.WriteString("  <defs>\n")
	svg.WriteString("    <marker id=\"arrowhead\" markerWidth=\"10\" markerHeight=\"7\" refX=\"10\" refY=\"3.5\" orient=\"auto\">\n")
	svg.WriteString("      <polygon points=\"0 0, 10 3.5, 0 7\" fill=\"#333\" />\n")
	svg.WriteString("    </marker>\n")
	svg.WriteString("  </defs>\n")

	// Opaque background, before any boxes
	svg.WriteString(fmt.Sprintf("  <rect x=\"0\" y=\"0\" width=\"%d\" height=\"%d\" fill=\"#ffffff\" />\n", d.Width, d.Height))

	for _, box := range d.Boxes {
		centerX := box.X + box.W/2
		centerY := box.Y + box.H/2

		svg.WriteString(fmt.Sprintf("  <rect x=\"%.1f\" y=\"%.1f\" width=\"%.1f\" height=\"%.1f\" rx=\"5\" ry=\"5\" class=\"block-rect\" />\n",
			box.X, box.Y, box.W, box.H))

		// Two text lines: kind above value, both centered in the box
		textY1 := centerY - lineHeight/2 + fontSize/2.5
		textY2 := centerY + lineHeight/2 + fontSize/2.5

		svg.WriteString(fmt.Sprintf("  <text x=\"%.1f\" y=\"%.1f\" class=\"block-text\">%s</text>\n",
			centerX, textY1, escapeSVGText(box.Kind)))
		svg.WriteString(fmt.Sprintf("  <text x=\"%.1f\" y=\"%.1f\" class=\"block-text\" style=\"fill: #555;\">%s</text>\n",
			centerX, textY2, escapeSVGText(box.Value)))
	}

	for _, c := range d.Connectors {
		svg.WriteString(fmt.Sprintf("  <line x1=\"%.1f\" y1=\"%.1f\" x2=\"%.1f\" y2=\"%.1f\" class=\"wire-line\" marker-end=\"url(#arrowhead)\" />\n",
			c.X1, c.Y1, c.X2, c.Y2))
	}

	svg.WriteString("</svg>\n")

	if _, err := w.Write(svg.Bytes()); err != nil {
		return &RenderError{Err: err}
	}
	return nil
}

// SVG returns the serialized diagram as a string.
func (d *Diagram) SVG() (string, error) {
	var buf bytes.Buffer
	if err := d.WriteSVG(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
