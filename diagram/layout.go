// Package diagram turns an ordered component list into a left-to-right
// block diagram: one fixed size box per component on a single row, with a
// directional arrow between each adjacent pair. The layout is a visual
// placeholder for sequence, not a netlist - no semantic wiring is inferred.
package diagram

import (
	"github.com/voltlab/circuitforge/circuit"
)

// Layout constants. StepX is strictly greater than BoxWidth so adjacent
// boxes never overlap and the connecting arrows stay visible.
const (
	BoxWidth  = 160.0
	BoxHeight = 80.0
	StepX     = 220.0
	PadX      = 30.0
	PadY      = 40.0

	minCanvasWidth  = 220
	minCanvasHeight = 160
)

// Box is a placed component with a two line label.
type Box struct {
	X, Y, W, H float64
	Kind       string
	Value      string
}

// Label returns the two line box label, kind over value.
func (b Box) Label() string {
	return b.Kind + "\n" + b.Value
}

// Connector is a directional link between two adjacent boxes. The arrowhead
// sits at (X2, Y2).
type Connector struct {
	X1, Y1, X2, Y2 float64
}

// Diagram is the placed form of a component list. It is recomputed from
// scratch on every request and never stored.
type Diagram struct {
	Width  int
	Height int

	Boxes      []Box
	Connectors []Connector
}

// Layout places each component on a single horizontal baseline at a uniform
// step and connects consecutive boxes right edge to left edge. It is a pure
// function of its input: equal component lists produce structurally equal
// diagrams. An empty list yields an empty diagram, not an error.
func Layout(components []circuit.Component) *Diagram {
	d := &Diagram{
		Width:  minCanvasWidth,
		Height: minCanvasHeight,
	}

	for i, comp := range components {
		x := PadX + float64(i)*StepX
		d.Boxes = append(d.Boxes, Box{
			X:     x,
			Y:     PadY,
			W:     BoxWidth,
			H:     BoxHeight,
			Kind:  comp.Kind,
			Value: comp.Value,
		})

		if i > 0 {
			prev := d.Boxes[i-1]
			cur := d.Boxes[i]
			midY := PadY + BoxHeight/2
			d.Connectors = append(d.Connectors, Connector{
				X1: prev.X + prev.W,
				Y1: midY,
				X2: cur.X,
				Y2: midY,
			})
		}
	}

	if n := len(components); n > 0 {
		width := int(PadX*2 + float64(n-1)*StepX + BoxWidth)
		if width > d.Width {
			d.Width = width
		}
	}
	return d
}
