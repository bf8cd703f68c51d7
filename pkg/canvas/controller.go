package canvas

import (
	"io"
	"log/slog"

	"github.com/ha1tch/nodegraph/pkg/graph"
)

// State is the interaction state: exactly one of Idle, Dragging or
// Connecting.
type State interface {
	isState()
}

// Idle means no gesture is in progress.
type Idle struct{}

// Dragging moves NodeID with the pointer. The offset between pointer and node
// origin is fixed at gesture start so the node does not jump.
type Dragging struct {
	NodeID  int
	OffsetX float64
	OffsetY float64
}

// Connecting is a pending connection from an output port. End is nil until
// the pointer first moves.
type Connecting struct {
	From graph.Endpoint
	End  *Point
}

func (Idle) isState()       {}
func (Dragging) isState()   {}
func (Connecting) isState() {}

// Controller turns pointer, wheel and focus events into mutations of the
// registry, the connection set and the viewport. Every event is total: one
// that matches no transition is ignored.
type Controller struct {
	nodes    *graph.Registry
	conns    *graph.ConnectionSet
	viewport *Viewport
	state    State
	log      *slog.Logger
}

// NewController wires a controller to the state it mutates. A nil logger
// discards output.
func NewController(nodes *graph.Registry, conns *graph.ConnectionSet, viewport *Viewport, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Controller{
		nodes:    nodes,
		conns:    conns,
		viewport: viewport,
		state:    Idle{},
		log:      logger,
	}
}

// State returns the current interaction state.
func (c *Controller) State() State { return c.state }

// Handle dispatches one event.
func (c *Controller) Handle(ev Event) {
	switch ev.Kind {
	case EventPointerDown:
		c.PointerDown(ev.Target, ev.X, ev.Y)
	case EventPointerMove:
		c.PointerMove(ev.X, ev.Y)
	case EventPointerUp:
		c.PointerUp(ev.Target)
	case EventWheel:
		c.Wheel(ev.DeltaY)
	case EventFocusOut, EventPointerLeave:
		c.Reset()
	default:
		c.log.Debug("ignored event", "kind", ev.Kind)
	}
}

// PointerDown starts a drag on a node body or a connection on an output port.
// A press on an output port never also starts a drag.
func (c *Controller) PointerDown(t Target, x, y float64) {
	switch t.Kind {
	case TargetOutput:
		if !c.nodes.Has(t.NodeID) {
			return
		}
		from := graph.Endpoint{NodeID: t.NodeID, Port: t.Port}
		c.state = Connecting{From: from}
		c.log.Debug("connect start", "from", from.String())

	case TargetNode:
		if _, idle := c.state.(Idle); !idle {
			return
		}
		n, ok := c.nodes.Get(t.NodeID)
		if !ok {
			return
		}
		c.state = Dragging{NodeID: n.ID, OffsetX: x - n.X, OffsetY: y - n.Y}
		c.log.Debug("drag start", "node", n.ID, "offset_x", x-n.X, "offset_y", y-n.Y)
	}
}

// PointerMove moves the dragged node or the pending connection's end.
func (c *Controller) PointerMove(x, y float64) {
	switch s := c.state.(type) {
	case Dragging:
		c.nodes.SetPosition(s.NodeID, x-s.OffsetX, y-s.OffsetY)
	case Connecting:
		s.End = &Point{X: x, Y: y}
		c.state = s
	}
}

// PointerUp finishes the gesture. Releasing on an input port of another node
// while connecting appends a connection; every release returns to Idle.
func (c *Controller) PointerUp(t Target) {
	if s, ok := c.state.(Connecting); ok && t.Kind == TargetInput {
		to := graph.Endpoint{NodeID: t.NodeID, Port: t.Port}
		if c.conns.Add(s.From, to) {
			c.log.Debug("connected", "from", s.From.String(), "to", to.String())
		} else {
			c.log.Debug("connection rejected", "from", s.From.String(), "to", to.String())
		}
	}
	c.Reset()
}

// Wheel zooms the viewport. It does not affect gestures.
func (c *Controller) Wheel(deltaY float64) {
	c.viewport.OnScroll(deltaY)
}

// Reset abandons any gesture. Hosts call it on focus loss or when the pointer
// leaves the surface, where a release may never arrive.
func (c *Controller) Reset() {
	if _, idle := c.state.(Idle); idle {
		return
	}
	c.log.Debug("gesture reset", "state", stateName(c.state))
	c.state = Idle{}
}

// Forget abandons the gesture if it refers to node id.
func (c *Controller) Forget(id int) {
	switch s := c.state.(type) {
	case Dragging:
		if s.NodeID == id {
			c.Reset()
		}
	case Connecting:
		if s.From.NodeID == id {
			c.Reset()
		}
	}
}

func stateName(s State) string {
	switch s.(type) {
	case Dragging:
		return "dragging"
	case Connecting:
		return "connecting"
	}
	return "idle"
}
