// Package canvas implements the interaction engine of the node-graph editor:
// the zoom viewport, connector geometry, the pointer state machine and the
// per-pass Frame handed to a rendering host.
//
// The engine is single-threaded. Hosts deliver events one at a time, in
// order, and read a Frame between events.
package canvas

import (
	"io"
	"log/slog"

	"github.com/ha1tch/nodegraph/pkg/graph"
)

// Options configures a Canvas.
type Options struct {
	Seed   []graph.NodeSpec // nil means graph.DefaultSeed()
	Layout *Layout          // nil means DefaultLayout()
	Logger *slog.Logger
}

// Canvas owns the registry, the connection set, the viewport and the
// controller, and hands them to whichever host needs them.
type Canvas struct {
	Nodes       *graph.Registry
	Connections *graph.ConnectionSet
	Viewport    *Viewport
	Controller  *Controller

	layout Layout
	paths  *PathCache
	log    *slog.Logger
}

// New builds a canvas from opts.
func New(opts Options) *Canvas {
	seed := opts.Seed
	if seed == nil {
		seed = graph.DefaultSeed()
	}
	layout := DefaultLayout()
	if opts.Layout != nil {
		layout = *opts.Layout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	nodes := graph.NewRegistry(seed...)
	conns := graph.NewConnectionSet()
	vp := NewViewport()

	return &Canvas{
		Nodes:       nodes,
		Connections: conns,
		Viewport:    vp,
		Controller:  NewController(nodes, conns, vp, logger),
		layout:      layout,
		paths:       NewPathCache(nodes, conns, layout),
		log:         logger,
	}
}

// Layout returns the port layout in use.
func (c *Canvas) Layout() Layout { return c.layout }

// Handle passes an event to the controller.
func (c *Canvas) Handle(ev Event) { c.Controller.Handle(ev) }

// CreateNode adds a node with one input and one output port at the
// position derived from its id, and returns the id.
func (c *Canvas) CreateNode() int {
	id := c.Nodes.Add(graph.PlacementFor(c.Nodes.NextID()))
	c.log.Info("node created", "id", id)
	return id
}

// RemoveNode deletes a node together with its connections. A gesture on the
// node is abandoned.
func (c *Canvas) RemoveNode(id int) bool {
	if !c.Nodes.Has(id) {
		return false
	}
	c.Controller.Forget(id)
	dropped := c.Connections.RemoveNode(id)
	c.Nodes.Remove(id)
	c.log.Info("node removed", "id", id, "connections", dropped)
	return true
}

// HitTest reports what lies under canvas point (x, y). Ports take priority
// over node bodies, and nodes added later take priority over earlier ones.
func (c *Canvas) HitTest(x, y float64) Target {
	nodes := c.Nodes.All()
	r2 := c.layout.PortRadius * c.layout.PortRadius

	for i := len(nodes) - 1; i >= 0; i-- {
		n := nodes[i]
		for _, p := range n.Outputs {
			a := c.layout.OutputPort(n, p.Index)
			if dist2(a, x, y) <= r2 {
				return Target{Kind: TargetOutput, NodeID: n.ID, Port: p.Index}
			}
		}
		for _, p := range n.Inputs {
			a := c.layout.InputPort(n, p.Index)
			if dist2(a, x, y) <= r2 {
				return Target{Kind: TargetInput, NodeID: n.ID, Port: p.Index}
			}
		}
	}
	for i := len(nodes) - 1; i >= 0; i-- {
		n := nodes[i]
		if x >= n.X && x <= n.X+n.Width && y >= n.Y && y <= n.Y+c.layout.NodeHeight(n) {
			return Target{Kind: TargetNode, NodeID: n.ID}
		}
	}
	return Target{Kind: TargetCanvas}
}

func dist2(p Point, x, y float64) float64 {
	dx, dy := p.X-x, p.Y-y
	return dx*dx + dy*dy
}

// Frame is everything a host needs for one render pass.
type Frame struct {
	Nodes      []graph.Node `json:"nodes"`
	Connectors []Connector  `json:"connectors"`
	Pending    *Curve       `json:"pending,omitempty"`
	Scale      float64      `json:"scale"`
	Margin     float64      `json:"margin"` // percent, both axes
	Layout     Layout       `json:"layout"`
	Dragging   *int         `json:"dragging,omitempty"` // id of the node being dragged
}

// Paths returns the path data of the finalized connectors in order.
func (f Frame) Paths() []string {
	out := make([]string, len(f.Connectors))
	for i, c := range f.Connectors {
		out[i] = c.Curve.D()
	}
	return out
}

// Frame computes the current render pass. Connector curves are reused unless
// an endpoint node changed since the previous pass.
func (c *Canvas) Frame() Frame {
	f := Frame{
		Nodes:      c.Nodes.All(),
		Connectors: c.paths.Connectors(),
		Scale:      c.Viewport.Scale(),
		Margin:     c.Viewport.Margin(),
		Layout:     c.layout,
	}
	switch s := c.Controller.State().(type) {
	case Connecting:
		if s.End != nil {
			if curve, ok := c.paths.Pending(s.From, *s.End); ok {
				f.Pending = &curve
			}
		}
	case Dragging:
		id := s.NodeID
		f.Dragging = &id
	}
	return f
}

// Recomputed returns how many connector curves have been computed. Hosts
// may log it; tests use it to check that unrelated moves cost nothing.
func (c *Canvas) Recomputed() int { return c.paths.Recomputed() }
