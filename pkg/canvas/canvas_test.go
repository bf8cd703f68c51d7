package canvas

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ha1tch/nodegraph/pkg/graph"
)

func connect(c *Canvas, from, to graph.Endpoint) {
	c.Handle(Event{Kind: EventPointerDown, Target: Target{Kind: TargetOutput, NodeID: from.NodeID, Port: from.Port}})
	c.Handle(Event{Kind: EventPointerUp, Target: Target{Kind: TargetInput, NodeID: to.NodeID, Port: to.Port}})
}

func drag(c *Canvas, id int, dx, dy float64) {
	n, _ := c.Nodes.Get(id)
	c.Handle(Event{Kind: EventPointerDown, Target: Target{Kind: TargetNode, NodeID: id}, X: n.X + 10, Y: n.Y + 10})
	c.Handle(Event{Kind: EventPointerMove, X: n.X + 10 + dx, Y: n.Y + 10 + dy})
	c.Handle(Event{Kind: EventPointerUp})
}

func TestCanvasCreateNodeScenario(t *testing.T) {
	c := New(Options{})
	f := c.Frame()
	require.Len(t, f.Nodes, 3)
	assert.Empty(t, f.Connectors)

	id := c.CreateNode()
	assert.Equal(t, 3, id)
	n, ok := c.Nodes.Get(id)
	require.True(t, ok)
	assert.Equal(t, 350.0, n.X)
	assert.Equal(t, 290.0, n.Y)

	id = c.CreateNode()
	n, _ = c.Nodes.Get(id)
	assert.Equal(t, 4, id)
	assert.Equal(t, 400.0, n.X)
	assert.Equal(t, 320.0, n.Y)
}

func TestCanvasFrameConnectorPath(t *testing.T) {
	c := New(Options{})
	connect(c, graph.Endpoint{NodeID: 0}, graph.Endpoint{NodeID: 1})

	f := c.Frame()
	require.Len(t, f.Connectors, 1)
	assert.Equal(t, []string{"M 265 150 C 330 150, 330 200, 395 200"}, f.Paths())
	assert.Nil(t, f.Pending)
	assert.Equal(t, 1.0, f.Scale)
	assert.Equal(t, 0.0, f.Margin)
}

func TestCanvasConnectorsTrackMovingNodes(t *testing.T) {
	c := New(Options{})
	connect(c, graph.Endpoint{NodeID: 0}, graph.Endpoint{NodeID: 1})
	connect(c, graph.Endpoint{NodeID: 1}, graph.Endpoint{NodeID: 2})

	for _, step := range []struct {
		id     int
		dx, dy float64
	}{{0, 30, -20}, {2, -400, 250}, {1, 5, 5}} {
		drag(c, step.id, step.dx, step.dy)
		f := c.Frame()
		require.Len(t, f.Connectors, 2)
		for _, conn := range f.Connectors {
			from, _ := c.Nodes.Get(conn.Connection.From.NodeID)
			to, _ := c.Nodes.Get(conn.Connection.To.NodeID)
			assert.Equal(t, c.Layout().OutputPort(from, conn.Connection.From.Port), conn.Curve.P0)
			assert.Equal(t, c.Layout().InputPort(to, conn.Connection.To.Port), conn.Curve.P3)
		}
	}
}

func TestCanvasOnlyTouchedCurvesRecomputed(t *testing.T) {
	c := New(Options{})
	connect(c, graph.Endpoint{NodeID: 0}, graph.Endpoint{NodeID: 1})
	connect(c, graph.Endpoint{NodeID: 1}, graph.Endpoint{NodeID: 2})

	c.Frame()
	assert.Equal(t, 2, c.Recomputed())

	c.Frame()
	assert.Equal(t, 2, c.Recomputed(), "unchanged frame recomputed curves")

	drag(c, 2, 10, 10)
	c.Frame()
	assert.Equal(t, 3, c.Recomputed())

	c.Nodes.SetPosition(0, 0, 0)
	c.Frame()
	assert.Equal(t, 4, c.Recomputed())

	c.CreateNode()
	drag(c, 3, 50, 50)
	c.Frame()
	assert.Equal(t, 4, c.Recomputed(), "moving an unconnected node recomputed curves")

	drag(c, 1, 10, 10)
	c.Frame()
	assert.Equal(t, 6, c.Recomputed())
}

func TestCanvasPendingCurve(t *testing.T) {
	c := New(Options{})
	c.Handle(Event{Kind: EventPointerDown, Target: Target{Kind: TargetOutput, NodeID: 0}})
	assert.Nil(t, c.Frame().Pending, "pending curve before the pointer moved")

	c.Handle(Event{Kind: EventPointerMove, X: 500, Y: 500})
	f := c.Frame()
	require.NotNil(t, f.Pending)
	assert.Equal(t, Point{265, 150}, f.Pending.P0)
	assert.Equal(t, Point{500, 500}, f.Pending.P3)

	c.Handle(Event{Kind: EventFocusOut})
	assert.Nil(t, c.Frame().Pending)
}

func TestCanvasFrameDragging(t *testing.T) {
	c := New(Options{})
	c.Handle(Event{Kind: EventPointerDown, Target: Target{Kind: TargetNode, NodeID: 1}, X: 410, Y: 160})

	f := c.Frame()
	require.NotNil(t, f.Dragging)
	assert.Equal(t, 1, *f.Dragging)
}

func TestCanvasRemoveNode(t *testing.T) {
	c := New(Options{})
	connect(c, graph.Endpoint{NodeID: 0}, graph.Endpoint{NodeID: 1})
	connect(c, graph.Endpoint{NodeID: 1}, graph.Endpoint{NodeID: 2})
	c.Frame()

	c.Handle(Event{Kind: EventPointerDown, Target: Target{Kind: TargetNode, NodeID: 1}, X: 410, Y: 160})
	require.True(t, c.RemoveNode(1))
	assert.Equal(t, Idle{}, c.Controller.State())

	f := c.Frame()
	assert.Len(t, f.Nodes, 2)
	assert.Empty(t, f.Connectors)
	assert.Zero(t, c.Connections.Len())
	assert.Zero(t, c.Nodes.Subscribers(0))
	assert.Zero(t, c.Nodes.Subscribers(2))

	assert.False(t, c.RemoveNode(1))
	assert.Equal(t, 3, c.CreateNode(), "ids are not reused")
}

func TestCanvasHitTest(t *testing.T) {
	c := New(Options{})

	tests := []struct {
		name string
		x, y float64
		want Target
	}{
		{"output port", 265, 150, Target{Kind: TargetOutput, NodeID: 0}},
		{"near output port", 270, 155, Target{Kind: TargetOutput, NodeID: 0}},
		{"input port", 95, 150, Target{Kind: TargetInput, NodeID: 0}},
		{"node body", 150, 120, Target{Kind: TargetNode, NodeID: 0}},
		{"second node body", 450, 160, Target{Kind: TargetNode, NodeID: 1}},
		{"empty canvas", 50, 50, Target{Kind: TargetCanvas}},
		{"below node", 150, 300, Target{Kind: TargetCanvas}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.HitTest(tt.x, tt.y))
		})
	}
}

func TestCanvasHitTestTopmostWins(t *testing.T) {
	c := New(Options{})
	id := c.Nodes.Add(graph.NodeSpec{X: 100, Y: 100, Label: "over"})
	assert.Equal(t, Target{Kind: TargetNode, NodeID: id}, c.HitTest(150, 120))
}

func TestCanvasGestureThroughHitTest(t *testing.T) {
	c := New(Options{})

	press := c.HitTest(265, 150)
	c.Handle(Event{Kind: EventPointerDown, Target: press, X: 265, Y: 150})
	c.Handle(Event{Kind: EventPointerMove, X: 390, Y: 198})
	release := c.HitTest(395, 200)
	c.Handle(Event{Kind: EventPointerUp, Target: release, X: 395, Y: 200})

	assert.Equal(t, []graph.Connection{{From: graph.Endpoint{NodeID: 0}, To: graph.Endpoint{NodeID: 1}}}, c.Connections.List())
}

func TestFrameJSON(t *testing.T) {
	c := New(Options{})
	connect(c, graph.Endpoint{NodeID: 0}, graph.Endpoint{NodeID: 1})

	data, err := json.Marshal(c.Frame())
	require.NoError(t, err)

	var decoded struct {
		Nodes      []graph.Node `json:"nodes"`
		Connectors []struct {
			Curve struct {
				D string `json:"d"`
			} `json:"curve"`
		} `json:"connectors"`
		Scale float64 `json:"scale"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Len(t, decoded.Nodes, 3)
	require.Len(t, decoded.Connectors, 1)
	assert.Equal(t, "M 265 150 C 330 150, 330 200, 395 200", decoded.Connectors[0].Curve.D)
	assert.Equal(t, 1.0, decoded.Scale)
}
