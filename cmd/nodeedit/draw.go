package main

import (
	"fmt"
	"math"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/ha1tch/nodegraph/pkg/canvas"
	"github.com/ha1tch/nodegraph/pkg/graph"
)

// Styles
var (
	styleDefault    = tcell.StyleDefault
	styleNode       = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	styleNodeTitle  = tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
	styleDragging   = tcell.StyleDefault.Background(tcell.ColorPurple).Foreground(tcell.ColorWhite)
	stylePortIn     = tcell.StyleDefault.Foreground(tcell.ColorOrange)
	stylePortOut    = tcell.StyleDefault.Foreground(tcell.ColorDodgerBlue)
	styleConnector  = tcell.StyleDefault.Foreground(tcell.ColorTeal)
	stylePending    = tcell.StyleDefault.Foreground(tcell.NewRGBColor(200, 162, 200)) // Lilac
	styleStatus     = tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorNavy)
	styleMsgInfo    = tcell.StyleDefault.Foreground(tcell.ColorSilver).Background(tcell.ColorNavy)
	styleMsgError   = tcell.StyleDefault.Foreground(tcell.ColorRed).Background(tcell.ColorNavy).Bold(true)
	styleMsgSuccess = tcell.StyleDefault.Foreground(tcell.ColorSilver).Background(tcell.ColorNavy)
	styleHelp       = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleBorder     = tcell.StyleDefault.Foreground(tcell.ColorGray)
)

func (ed *Editor) draw() {
	ed.screen.Clear()
	w, h := ed.screen.Size()
	cw, ch := ed.canvasSize()

	f := ed.canvas.Frame()

	// Connectors first so nodes render on top.
	for _, c := range f.Connectors {
		ed.drawCurve(c.Curve, '·', styleConnector, true, cw, ch)
	}
	if f.Pending != nil {
		ed.drawCurve(*f.Pending, '┄', stylePending, false, cw, ch)
	}
	for _, n := range f.Nodes {
		dragging := f.Dragging != nil && *f.Dragging == n.ID
		ed.drawNode(n, f.Layout, dragging, cw, ch)
	}

	ed.drawStatusBar(w, h, f)
}

// drawCurve plots a connector by sampling it roughly once per cell.
func (ed *Editor) drawCurve(c canvas.Curve, r rune, style tcell.Style, arrow bool, cw, ch int) {
	steps := int(c.Length()*ed.canvas.Viewport.Scale()/math.Min(ed.cellW, ed.cellH)) * 2
	if steps < 2 {
		steps = 2
	}
	for _, p := range c.Points(steps) {
		x, y := ed.toCell(p)
		ed.setCell(x, y, r, style, cw, ch)
	}
	if arrow {
		x, y := ed.toCell(c.P3)
		ed.setCell(x, y, arrowRune(c.Tangent(1)), style, cw, ch)
	}
}

// arrowRune picks the glyph closest to direction d.
func arrowRune(d canvas.Point) rune {
	if math.Abs(d.X) >= math.Abs(d.Y) {
		if d.X < 0 {
			return '◂'
		}
		return '▸'
	}
	if d.Y < 0 {
		return '▴'
	}
	return '▾'
}

func (ed *Editor) drawNode(n graph.Node, l canvas.Layout, dragging bool, cw, ch int) {
	x0, y0 := ed.toCell(canvas.Point{X: n.X, Y: n.Y})
	x1, y1 := ed.toCell(canvas.Point{X: n.X + n.Width, Y: n.Y + l.NodeHeight(n)})
	if x1-x0 < 2 {
		x1 = x0 + 2
	}
	if y1-y0 < 2 {
		y1 = y0 + 2
	}

	style := styleNode
	if dragging {
		style = styleDragging
	}
	ed.drawBox(x0, y0, x1-x0+1, y1-y0+1, style, cw, ch)

	title := truncate(n.Label, x1-x0-1)
	ed.drawString(x0+(x1-x0+1-len([]rune(title)))/2, y0, title, styleNodeTitle, cw, ch)

	inner := x1 - x0 - 2
	for _, p := range n.Inputs {
		x, y := ed.toCell(l.InputPort(n, p.Index))
		ed.setCell(x, y, '●', stylePortIn, cw, ch)
		ed.drawString(x0+1, y, truncate(p.Title, inner/2), style, cw, ch)
	}
	for _, p := range n.Outputs {
		x, y := ed.toCell(l.OutputPort(n, p.Index))
		ed.setCell(x, y, '●', stylePortOut, cw, ch)
		t := truncate(p.Title, inner/2)
		ed.drawString(x1-len([]rune(t)), y, t, style, cw, ch)
	}
}

func (ed *Editor) drawBox(x, y, w, h int, style tcell.Style, cw, ch int) {
	// Corners
	ed.setCell(x, y, '┌', style, cw, ch)
	ed.setCell(x+w-1, y, '┐', style, cw, ch)
	ed.setCell(x, y+h-1, '└', style, cw, ch)
	ed.setCell(x+w-1, y+h-1, '┘', style, cw, ch)

	// Horizontal borders
	for i := x + 1; i < x+w-1; i++ {
		ed.setCell(i, y, '─', style, cw, ch)
		ed.setCell(i, y+h-1, '─', style, cw, ch)
	}

	// Vertical borders
	for i := y + 1; i < y+h-1; i++ {
		ed.setCell(x, i, '│', style, cw, ch)
		ed.setCell(x+w-1, i, '│', style, cw, ch)
	}

	// Fill
	for row := y + 1; row < y+h-1; row++ {
		for col := x + 1; col < x+w-1; col++ {
			ed.setCell(col, row, ' ', style, cw, ch)
		}
	}
}

// setCell draws r if (x, y) lies inside the canvas area.
func (ed *Editor) setCell(x, y int, r rune, style tcell.Style, cw, ch int) {
	if x < 0 || y < 0 || x >= cw || y >= ch {
		return
	}
	ed.screen.SetContent(x, y, r, nil, style)
}

func (ed *Editor) drawString(x, y int, s string, style tcell.Style, cw, ch int) {
	i := 0
	for _, r := range s {
		ed.setCell(x+i, y, r, style, cw, ch)
		i++
	}
}

func (ed *Editor) drawStatusBar(w, h int, f canvas.Frame) {
	y := h - 1

	// Background
	for x := 0; x < w; x++ {
		ed.screen.SetContent(x, y, ' ', nil, styleStatus)
	}

	info := fmt.Sprintf("%d nodes  %d links  %d%%", len(f.Nodes), len(f.Connectors), int(math.Round(f.Scale*100)))
	ed.putString(1, y, info, styleStatus)

	mode := ed.modeString()
	ed.putString(w/2-len(mode)/2, y, mode, styleStatus)

	if ed.message != "" {
		style := styleMsgInfo
		switch ed.messageType {
		case MsgError:
			style = styleMsgError
		case MsgSuccess:
			style = styleMsgSuccess
		}
		if flashes(ed.messageType) && flashInverted(time.Now().UnixMilli()-ed.messageFlashStart.Load()) {
			style = style.Reverse(true)
		}
		ed.putString(w-len([]rune(ed.message))-2, y, ed.message, style)
	}

	// Help bar
	y = h - 2
	for x := 0; x < w; x++ {
		ed.screen.SetContent(x, y, ' ', nil, styleDefault)
	}
	ed.putString(1, y, helpString, styleHelp)
}

// putString draws outside the canvas clip, for the bars.
func (ed *Editor) putString(x, y int, s string, style tcell.Style) {
	i := 0
	for _, r := range s {
		ed.screen.SetContent(x+i, y, r, nil, style)
		i++
	}
}

func (ed *Editor) modeString() string {
	switch s := ed.canvas.Controller.State().(type) {
	case canvas.Dragging:
		return fmt.Sprintf("MOVE node %d", s.NodeID)
	case canvas.Connecting:
		return fmt.Sprintf("CONNECT from %s", s.From)
	}
	return ""
}

const helpString = "Drag:Move  Drag port:Connect  Wheel:Zoom  N:Add  X/Del:Remove  Arrows:Pan  0:Reset view  E:Export  Esc:Cancel  Q:Quit"

// flashInverted reports whether a flashing message is drawn inverted
// elapsed ms after it appeared: two blinks of 125ms over the first 500ms.
func flashInverted(elapsed int64) bool {
	if elapsed < 0 || elapsed >= 500 {
		return false
	}
	phase := elapsed / 125
	return phase == 1 || phase == 3
}

// flashes reports whether messages of type t blink.
func flashes(t MessageType) bool {
	return t != MsgInfo
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 0 {
		return ""
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
