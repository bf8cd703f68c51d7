// Connector geometry: port anchor coordinates and the cubic curves drawn
// between them.

package canvas

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/ha1tch/nodegraph/pkg/graph"
)

// Point represents a 2D canvas coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Layout holds the constants that place ports relative to their node.
type Layout struct {
	PortBase     float64 `json:"portBase"`     // vertical offset of port 0 from node top
	PortRow      float64 `json:"portRow"`      // vertical distance between ports
	OutputOffset float64 `json:"outputOffset"` // output anchor distance right of the node edge
	InputOffset  float64 `json:"inputOffset"`  // input anchor distance left of the node edge
	PortRadius   float64 `json:"portRadius"`   // hit radius around an anchor
}

// DefaultLayout returns the standard port layout.
func DefaultLayout() Layout {
	return Layout{
		PortBase:     50,
		PortRow:      24,
		OutputOffset: 15,
		InputOffset:  5,
		PortRadius:   8,
	}
}

// OutputPort returns the anchor of output port i of n.
func (l Layout) OutputPort(n graph.Node, i int) Point {
	return Point{
		X: n.X + n.Width + l.OutputOffset,
		Y: n.Y + l.PortBase + float64(i)*l.PortRow,
	}
}

// InputPort returns the anchor of input port i of n.
func (l Layout) InputPort(n graph.Node, i int) Point {
	return Point{
		X: n.X - l.InputOffset,
		Y: n.Y + l.PortBase + float64(i)*l.PortRow,
	}
}

// NodeHeight returns the rendered height of n: the title band plus one row
// per port on its longer side.
func (l Layout) NodeHeight(n graph.Node) float64 {
	rows := len(n.Inputs)
	if len(n.Outputs) > rows {
		rows = len(n.Outputs)
	}
	if rows < 1 {
		rows = 1
	}
	return l.PortBase + float64(rows)*l.PortRow
}

// Curve is a cubic Bézier segment P0..P3.
type Curve struct {
	P0, P1, P2, P3 Point
}

// CurveBetween returns the connector curve from (x1,y1) to (x2,y2). Control
// points are pushed horizontally by half the horizontal distance, which gives
// an S-curve whichever side the target is on.
func CurveBetween(x1, y1, x2, y2 float64) Curve {
	dx := math.Abs(x2-x1) * 0.5
	return Curve{
		P0: Point{x1, y1},
		P1: Point{x1 + dx, y1},
		P2: Point{x2 - dx, y2},
		P3: Point{x2, y2},
	}
}

// CurveFrom is CurveBetween for two points.
func CurveFrom(a, b Point) Curve {
	return CurveBetween(a.X, a.Y, b.X, b.Y)
}

// D returns the SVG path data of the curve.
func (c Curve) D() string {
	return fmt.Sprintf("M %s %s C %s %s, %s %s, %s %s",
		num(c.P0.X), num(c.P0.Y),
		num(c.P1.X), num(c.P1.Y),
		num(c.P2.X), num(c.P2.Y),
		num(c.P3.X), num(c.P3.Y))
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// At evaluates the curve at t in [0,1].
func (c Curve) At(t float64) Point {
	mt := 1 - t
	mt2 := mt * mt
	mt3 := mt2 * mt
	t2 := t * t
	t3 := t2 * t

	return Point{
		X: mt3*c.P0.X + 3*mt2*t*c.P1.X + 3*mt*t2*c.P2.X + t3*c.P3.X,
		Y: mt3*c.P0.Y + 3*mt2*t*c.P1.Y + 3*mt*t2*c.P2.Y + t3*c.P3.Y,
	}
}

// Tangent returns the derivative of the curve at t.
func (c Curve) Tangent(t float64) Point {
	mt := 1 - t
	mt2 := mt * mt
	t2 := t * t

	return Point{
		X: 3*mt2*(c.P1.X-c.P0.X) + 6*mt*t*(c.P2.X-c.P1.X) + 3*t2*(c.P3.X-c.P2.X),
		Y: 3*mt2*(c.P1.Y-c.P0.Y) + 6*mt*t*(c.P2.Y-c.P1.Y) + 3*t2*(c.P3.Y-c.P2.Y),
	}
}

// Points samples the curve at n+1 evenly spaced parameter values.
func (c Curve) Points(n int) []Point {
	if n < 1 {
		n = 1
	}
	pts := make([]Point, 0, n+1)
	for i := 0; i <= n; i++ {
		pts = append(pts, c.At(float64(i)/float64(n)))
	}
	return pts
}

// Length approximates the arc length by sampling.
func (c Curve) Length() float64 {
	pts := c.Points(100)
	length := 0.0
	for i := 1; i < len(pts); i++ {
		dx := pts[i].X - pts[i-1].X
		dy := pts[i].Y - pts[i-1].Y
		length += math.Sqrt(dx*dx + dy*dy)
	}
	return length
}

// MarshalJSON encodes the curve as its control points and path data.
func (c Curve) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Points [4]Point `json:"points"`
		D      string   `json:"d"`
	}{[4]Point{c.P0, c.P1, c.P2, c.P3}, c.D()})
}
