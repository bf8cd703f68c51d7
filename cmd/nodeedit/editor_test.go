package main

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ha1tch/nodegraph/internal/config"
	"github.com/ha1tch/nodegraph/pkg/canvas"
)

// newTestEditor returns an editor on a 100x40 simulation screen, so the
// canvas area is 100x38 cells of 10x20 world units.
func newTestEditor(t *testing.T) *Editor {
	t.Helper()
	screen := tcell.NewSimulationScreen("")
	require.NoError(t, screen.Init())
	screen.SetSize(100, 40)
	t.Cleanup(screen.Fini)

	return newEditor(screen, config.Default(), nil)
}

func press(ed *Editor, x, y int)   { ed.handleMouse(tcell.NewEventMouse(x, y, tcell.Button1, tcell.ModNone)) }
func release(ed *Editor, x, y int) { ed.handleMouse(tcell.NewEventMouse(x, y, tcell.ButtonNone, tcell.ModNone)) }

func rowText(ed *Editor, y int) string {
	w, _ := ed.screen.Size()
	var sb strings.Builder
	for x := 0; x < w; x++ {
		r, _, _, _ := ed.screen.GetContent(x, y)
		sb.WriteRune(r)
	}
	return sb.String()
}

func TestCellMapping(t *testing.T) {
	ed := newTestEditor(t)

	// At scale 1 with no pan a cell centre is its world position.
	assert.Equal(t, canvas.Point{X: 265, Y: 150}, ed.toWorld(26, 7))
	x, y := ed.toCell(canvas.Point{X: 265, Y: 150})
	assert.Equal(t, 26, x)
	assert.Equal(t, 7, y)

	ed.canvas.Viewport.SetScale(1.5)
	ed.offX, ed.offY = 40, -60
	for _, c := range [][2]int{{0, 0}, {26, 7}, {99, 37}} {
		x, y := ed.toCell(ed.toWorld(c[0], c[1]))
		assert.Equal(t, c[0], x)
		assert.Equal(t, c[1], y)
	}
}

func TestMouseConnect(t *testing.T) {
	ed := newTestEditor(t)

	press(ed, 26, 7) // Input.out1 at (265,150)
	require.IsType(t, canvas.Connecting{}, ed.canvas.Controller.State())
	press(ed, 33, 9)
	require.NotNil(t, ed.canvas.Frame().Pending)

	release(ed, 39, 10) // Process.in1 at (395,200)
	assert.IsType(t, canvas.Idle{}, ed.canvas.Controller.State())
	require.Equal(t, 1, ed.canvas.Connections.Len())
	assert.Equal(t, "(0,0)->(1,0)", ed.canvas.Connections.List()[0].String())
}

func TestMouseDrag(t *testing.T) {
	ed := newTestEditor(t)

	press(ed, 45, 9) // Process body at (455,190)
	require.IsType(t, canvas.Dragging{}, ed.canvas.Controller.State())
	assert.Equal(t, "MOVE node 1", ed.modeString())

	press(ed, 55, 12)
	release(ed, 55, 12)
	n, ok := ed.canvas.Nodes.Get(1)
	require.True(t, ok)
	assert.Equal(t, 500.0, n.X)
	assert.Equal(t, 210.0, n.Y)
	assert.Equal(t, "", ed.modeString())
}

func TestLeavingCanvasCancels(t *testing.T) {
	ed := newTestEditor(t)

	press(ed, 26, 7)
	require.IsType(t, canvas.Connecting{}, ed.canvas.Controller.State())

	press(ed, 30, 39) // status bar
	assert.IsType(t, canvas.Idle{}, ed.canvas.Controller.State())

	// Coming back with the button held does not resume the gesture.
	press(ed, 35, 9)
	release(ed, 39, 10)
	assert.Equal(t, 0, ed.canvas.Connections.Len())
}

func TestFocusLossCancels(t *testing.T) {
	ed := newTestEditor(t)

	press(ed, 45, 9)
	require.IsType(t, canvas.Dragging{}, ed.canvas.Controller.State())

	assert.False(t, ed.handleEvent(tcell.NewEventFocus(false)))
	assert.IsType(t, canvas.Idle{}, ed.canvas.Controller.State())
	assert.False(t, ed.leftDown)
}

func TestWheelZooms(t *testing.T) {
	ed := newTestEditor(t)

	ed.handleMouse(tcell.NewEventMouse(10, 10, tcell.WheelUp, tcell.ModNone))
	assert.InDelta(t, 1.1, ed.canvas.Viewport.Scale(), 1e-9)
	ed.handleMouse(tcell.NewEventMouse(10, 10, tcell.WheelDown, tcell.ModNone))
	ed.handleMouse(tcell.NewEventMouse(10, 10, tcell.WheelDown, tcell.ModNone))
	assert.Equal(t, canvas.MinScale, ed.canvas.Viewport.Scale())
}

func TestKeys(t *testing.T) {
	ed := newTestEditor(t)
	key := func(r rune) bool { return ed.handleKey(tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone)) }

	assert.False(t, key('n'))
	assert.Equal(t, 4, ed.canvas.Nodes.Len())
	assert.Equal(t, "Added Node 3", ed.message)

	// Hover the Process body, then remove it.
	release(ed, 45, 9)
	assert.Equal(t, canvas.Target{Kind: canvas.TargetNode, NodeID: 1}, ed.hover)
	assert.False(t, key('x'))
	assert.False(t, ed.canvas.Nodes.Has(1))

	// Nothing hovered.
	release(ed, 2, 30)
	assert.False(t, ed.handleKey(tcell.NewEventKey(tcell.KeyDelete, 0, tcell.ModNone)))
	assert.Equal(t, 3, ed.canvas.Nodes.Len())

	ed.handleKey(tcell.NewEventKey(tcell.KeyRight, 0, tcell.ModNone))
	assert.Equal(t, 40.0, ed.offX)
	ed.canvas.Viewport.SetScale(2)
	key('0')
	assert.Equal(t, 0.0, ed.offX)
	assert.Equal(t, 1.0, ed.canvas.Viewport.Scale())

	press(ed, 26, 7)
	ed.handleKey(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone))
	assert.IsType(t, canvas.Idle{}, ed.canvas.Controller.State())

	assert.True(t, key('q'))
	assert.True(t, ed.handleKey(tcell.NewEventKey(tcell.KeyCtrlC, 0, tcell.ModCtrl)))
}

func TestExport(t *testing.T) {
	ed := newTestEditor(t)
	ed.exportDir = t.TempDir()

	ed.handleKey(tcell.NewEventKey(tcell.KeyRune, 'e', tcell.ModNone))
	assert.Equal(t, MsgSuccess, ed.messageType)

	data, err := os.ReadFile(filepath.Join(ed.exportDir, "nodegraph.svg"))
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(string(data), `class="node-group"`))
}

func TestExportUpperCaseFormat(t *testing.T) {
	ed := newTestEditor(t)
	ed.exportDir = t.TempDir()
	ed.cfg.Render.Format = "PNG"
	ed.cfg.Render.Width, ed.cfg.Render.Height = 200, 120
	ed.cfg.Render.Supersample = 1

	ed.export()
	assert.Equal(t, MsgSuccess, ed.messageType, ed.message)

	data, err := os.ReadFile(filepath.Join(ed.exportDir, "nodegraph.png"))
	require.NoError(t, err)
	_, err = png.Decode(bytes.NewReader(data))
	assert.NoError(t, err)
}

func TestRefreshWakesLoopAndStops(t *testing.T) {
	ed := newTestEditor(t)
	ed.showMessage("Saved", MsgSuccess)
	_, ok := ed.screen.PollEvent().(*tcell.EventInterrupt)
	require.True(t, ok)

	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		ed.refresh(done, time.Millisecond)
		close(stopped)
	}()

	_, ok = ed.screen.PollEvent().(*tcell.EventInterrupt)
	assert.True(t, ok)

	close(done)
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("refresh did not stop after done was closed")
	}
}

func TestRunQuitsOnKey(t *testing.T) {
	ed := newTestEditor(t)
	ed.screen.PostEvent(tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone))

	finished := make(chan struct{})
	go func() {
		ed.run()
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("run did not return on q")
	}
}

func TestDraw(t *testing.T) {
	ed := newTestEditor(t)
	press(ed, 26, 7)
	release(ed, 39, 10)
	ed.draw()

	// Input node box at (100,100) starts in cell (10,5).
	r, _, _, _ := ed.screen.GetContent(10, 5)
	assert.Equal(t, '┌', r)
	assert.Contains(t, rowText(ed, 5), "Input")

	r, _, _, _ = ed.screen.GetContent(26, 7)
	assert.Equal(t, '●', r)

	// The connector runs between the two ports.
	assert.Contains(t, rowText(ed, 8), "·")

	assert.Contains(t, rowText(ed, 39), "3 nodes  1 links  100%")
	assert.Contains(t, rowText(ed, 38), "Wheel:Zoom")
}

func TestDrawClipsToCanvas(t *testing.T) {
	ed := newTestEditor(t)
	ed.offY = -600 // push nodes down over the bars
	ed.draw()

	// Node 0 now ends on row 38, which belongs to the help bar.
	r, _, _, _ := ed.screen.GetContent(10, 37)
	assert.Equal(t, '│', r)
	r, _, _, _ = ed.screen.GetContent(10, 38)
	assert.NotEqual(t, '└', r)
}

// TestFlashPhaseCalculation verifies the phase logic for message flashing
func TestFlashPhaseCalculation(t *testing.T) {
	tests := []struct {
		elapsed      int64
		wantInverted bool
	}{
		{-1, false},
		{0, false},
		{124, false},
		{125, true},
		{249, true},
		{250, false},
		{374, false},
		{375, true},
		{499, true},
		{500, false},
		{1000, false},
	}
	for _, tt := range tests {
		if got := flashInverted(tt.elapsed); got != tt.wantInverted {
			t.Errorf("elapsed=%d: got inverted=%v, want %v", tt.elapsed, got, tt.wantInverted)
		}
	}
}

func TestFlashMessageTypes(t *testing.T) {
	if flashes(MsgInfo) {
		t.Error("info messages should not flash")
	}
	if !flashes(MsgError) || !flashes(MsgSuccess) {
		t.Error("error and success messages should flash")
	}
}

func TestArrowRune(t *testing.T) {
	tests := []struct {
		d    canvas.Point
		want rune
	}{
		{canvas.Point{X: 1}, '▸'},
		{canvas.Point{X: -1}, '◂'},
		{canvas.Point{Y: 1}, '▾'},
		{canvas.Point{Y: -1}, '▴'},
		{canvas.Point{X: 3, Y: 2}, '▸'},
	}
	for _, tt := range tests {
		if got := arrowRune(tt.d); got != tt.want {
			t.Errorf("arrowRune(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		s    string
		max  int
		want string
	}{
		{"Input", 10, "Input"},
		{"Process", 5, "Pr..."},
		{"Output", 2, "Ou"},
		{"Output", 0, ""},
	}
	for _, tt := range tests {
		if got := truncate(tt.s, tt.max); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.s, tt.max, got, tt.want)
		}
	}
}
