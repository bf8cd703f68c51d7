package main

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/ha1tch/nodegraph/internal/config"
	"github.com/ha1tch/nodegraph/pkg/canvas"
	"github.com/ha1tch/nodegraph/pkg/graph"
	"github.com/ha1tch/nodegraph/pkg/render"
)

// wheelStep is the wheel delta sent per notch; 20 moves the scale by 0.1.
const wheelStep = 20.0

// MessageType for status messages
type MessageType int

const (
	MsgInfo    MessageType = iota // Informative, no flash
	MsgError                      // Errors, flash
	MsgSuccess                    // State changes, flash
)

// Editor is the terminal host. All canvas calls happen on the PollEvent
// loop goroutine.
type Editor struct {
	screen tcell.Screen
	canvas *canvas.Canvas
	cfg    *config.Config
	log    *slog.Logger

	cellW, cellH float64 // world units per cell at scale 1
	offX, offY   float64 // pan offset in world units

	// Left-button tracking; tcell reports button state, not transitions.
	leftDown bool
	hover    canvas.Target

	exportDir string // where E writes; empty means the working directory

	message     string
	messageType MessageType
	// Unix millis of the last message; also read by the refresh goroutine.
	messageFlashStart atomic.Int64
}

// flashPeriod is how long after a message the screen keeps redrawing.
const flashPeriod = 700

func newEditor(screen tcell.Screen, cfg *config.Config, logger *slog.Logger) *Editor {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	var seed []graph.NodeSpec
	if !cfg.Editor.Seed {
		seed = []graph.NodeSpec{}
	}
	layout := canvas.DefaultLayout()
	// A click lands on a cell centre, up to half a cell from the anchor.
	layout.PortRadius = math.Max(layout.PortRadius, math.Max(cfg.Editor.CellWidth, cfg.Editor.CellHeight)*0.6)

	screen.EnableMouse()
	screen.EnableFocus()
	screen.Clear()

	return &Editor{
		screen: screen,
		canvas: canvas.New(canvas.Options{Seed: seed, Layout: &layout, Logger: logger}),
		cfg:    cfg,
		log:    logger,
		cellW:  cfg.Editor.CellWidth,
		cellH:  cfg.Editor.CellHeight,
	}
}

func (ed *Editor) run() {
	done := make(chan struct{})
	defer close(done)
	go ed.refresh(done, 50*time.Millisecond)

	for {
		ed.draw()
		ed.screen.Show()

		ev := ed.screen.PollEvent()
		if ev == nil {
			return
		}
		if ed.handleEvent(ev) {
			return
		}
	}
}

// refresh wakes the event loop every interval while a message is flashing,
// until done is closed.
func (ed *Editor) refresh(done <-chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			start := ed.messageFlashStart.Load()
			if start == 0 {
				continue
			}
			if elapsed := time.Now().UnixMilli() - start; elapsed >= 0 && elapsed < flashPeriod {
				ed.screen.PostEvent(tcell.NewEventInterrupt(nil))
			}
		}
	}
}

// handleEvent processes one terminal event and reports whether to quit.
func (ed *Editor) handleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		ed.screen.Sync()
	case *tcell.EventKey:
		return ed.handleKey(ev)
	case *tcell.EventMouse:
		ed.handleMouse(ev)
	case *tcell.EventFocus:
		if !ev.Focused {
			ed.leftDown = false
			ed.canvas.Handle(canvas.Event{Kind: canvas.EventFocusOut})
		}
	case *tcell.EventInterrupt:
		// redraw only
	}
	return false
}

// canvasSize returns the drawable area in cells; the bottom two rows hold
// the help and status bars.
func (ed *Editor) canvasSize() (int, int) {
	w, h := ed.screen.Size()
	return w, h - 2
}

// origin is the zoom anchor: the centre of the canvas area in world units.
func (ed *Editor) origin() canvas.Point {
	w, h := ed.canvasSize()
	return canvas.Point{X: float64(w) * ed.cellW / 2, Y: float64(h) * ed.cellH / 2}
}

// toWorld maps the centre of cell (cx, cy) to canvas coordinates.
func (ed *Editor) toWorld(cx, cy int) canvas.Point {
	s := canvas.Point{X: (float64(cx) + 0.5) * ed.cellW, Y: (float64(cy) + 0.5) * ed.cellH}
	p := ed.canvas.Viewport.ToWorld(s, ed.origin())
	return canvas.Point{X: p.X + ed.offX, Y: p.Y + ed.offY}
}

// toCell maps a canvas point to the cell containing it.
func (ed *Editor) toCell(p canvas.Point) (int, int) {
	s := ed.canvas.Viewport.ToScreen(canvas.Point{X: p.X - ed.offX, Y: p.Y - ed.offY}, ed.origin())
	return int(math.Floor(s.X / ed.cellW)), int(math.Floor(s.Y / ed.cellH))
}

func (ed *Editor) handleMouse(ev *tcell.EventMouse) {
	x, y := ev.Position()
	buttons := ev.Buttons()
	w, h := ed.canvasSize()
	inside := x >= 0 && x < w && y >= 0 && y < h

	if buttons&tcell.WheelUp != 0 {
		ed.canvas.Handle(canvas.Event{Kind: canvas.EventWheel, DeltaY: -wheelStep})
		return
	}
	if buttons&tcell.WheelDown != 0 {
		ed.canvas.Handle(canvas.Event{Kind: canvas.EventWheel, DeltaY: wheelStep})
		return
	}

	pressed := buttons&tcell.Button1 != 0
	if !inside {
		// Moving onto the bars leaves the surface.
		ed.leftDown = pressed
		ed.hover = canvas.Target{}
		ed.canvas.Handle(canvas.Event{Kind: canvas.EventPointerLeave})
		return
	}

	p := ed.toWorld(x, y)
	switch {
	case pressed && !ed.leftDown:
		ed.leftDown = true
		ed.canvas.Handle(canvas.Event{Kind: canvas.EventPointerDown, Target: ed.canvas.HitTest(p.X, p.Y), X: p.X, Y: p.Y})
	case pressed:
		ed.canvas.Handle(canvas.Event{Kind: canvas.EventPointerMove, X: p.X, Y: p.Y})
	case ed.leftDown:
		ed.leftDown = false
		ed.canvas.Handle(canvas.Event{Kind: canvas.EventPointerUp, Target: ed.canvas.HitTest(p.X, p.Y), X: p.X, Y: p.Y})
	default:
		ed.canvas.Handle(canvas.Event{Kind: canvas.EventPointerMove, X: p.X, Y: p.Y})
	}
	ed.hover = ed.canvas.HitTest(p.X, p.Y)
}

func (ed *Editor) handleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyCtrlC:
		return true
	case tcell.KeyEscape:
		ed.leftDown = false
		ed.canvas.Controller.Reset()
		return false
	case tcell.KeyDelete, tcell.KeyBackspace, tcell.KeyBackspace2:
		ed.removeHovered()
		return false
	case tcell.KeyLeft:
		ed.offX -= 4 * ed.cellW
		return false
	case tcell.KeyRight:
		ed.offX += 4 * ed.cellW
		return false
	case tcell.KeyUp:
		ed.offY -= 2 * ed.cellH
		return false
	case tcell.KeyDown:
		ed.offY += 2 * ed.cellH
		return false
	case tcell.KeyRune:
	default:
		return false
	}

	switch ev.Rune() {
	case 'q', 'Q':
		return true
	case 'n', '+':
		id := ed.canvas.CreateNode()
		ed.showMessage(fmt.Sprintf("Added Node %d", id), MsgSuccess)
	case 'x':
		ed.removeHovered()
	case '0':
		ed.canvas.Viewport.SetScale(canvas.MinScale)
		ed.offX, ed.offY = 0, 0
	case 'e':
		ed.export()
	}
	return false
}

func (ed *Editor) removeHovered() {
	if ed.hover.Kind == canvas.TargetCanvas {
		ed.showMessage("Hover over a node to remove it", MsgInfo)
		return
	}
	id := ed.hover.NodeID
	if ed.canvas.RemoveNode(id) {
		ed.hover = canvas.Target{}
		ed.showMessage(fmt.Sprintf("Removed node %d", id), MsgSuccess)
	}
}

// export writes the current frame to nodegraph.svg or nodegraph.png,
// per render.format.
func (ed *Editor) export() {
	format := strings.ToLower(ed.cfg.Render.Format)
	name := filepath.Join(ed.exportDir, "nodegraph."+format)
	f, err := os.Create(name)
	if err != nil {
		ed.showMessage("Export error: "+err.Error(), MsgError)
		return
	}
	defer f.Close()

	frame := ed.canvas.Frame()
	switch format {
	case "png":
		opts := render.DefaultPNGOptions()
		opts.Width, opts.Height = ed.cfg.Render.Width, ed.cfg.Render.Height
		opts.FontSize, opts.Supersample = ed.cfg.Render.FontSize, ed.cfg.Render.Supersample
		err = render.PNG(f, frame, opts)
	default:
		opts := render.DefaultSVGOptions()
		opts.Width, opts.Height = ed.cfg.Render.Width, ed.cfg.Render.Height
		opts.FontSize = ed.cfg.Render.FontSize
		err = render.SVG(f, frame, opts)
	}
	if err != nil {
		ed.showMessage("Export error: "+err.Error(), MsgError)
		return
	}
	ed.log.Info("exported", "file", name)
	ed.showMessage("Exported "+name, MsgSuccess)
}

func (ed *Editor) showMessage(msg string, msgType MessageType) {
	ed.message = msg
	ed.messageType = msgType
	ed.messageFlashStart.Store(time.Now().UnixMilli())
	if ed.screen != nil {
		ed.screen.PostEvent(tcell.NewEventInterrupt(nil))
	}
}
