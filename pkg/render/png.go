// Native PNG rendering of a canvas Frame.
// Mirrors the SVG renderer output using Go's image packages.

package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/ha1tch/nodegraph/pkg/canvas"
)

// PNGOptions configures PNG rendering.
type PNGOptions struct {
	Width       int
	Height      int
	FontSize    int
	Supersample int // render at this multiple and downscale; 0 means 4
	Title       string
}

// DefaultPNGOptions returns sensible defaults for PNG rendering.
func DefaultPNGOptions() PNGOptions {
	return PNGOptions{
		Width:       1024,
		Height:      640,
		FontSize:    14,
		Supersample: 4,
	}
}

var (
	colorBackground = color.RGBA{26, 26, 46, 255}    // #1a1a2e
	colorConnector  = color.RGBA{100, 255, 218, 255} // #64ffda
	colorPending    = color.RGBA{63, 141, 132, 255}  // connector at half opacity over background
	colorNodeFill   = color.RGBA{45, 55, 72, 255}    // #2d3748
	colorNodeStroke = color.RGBA{74, 85, 104, 255}   // #4a5568
	colorText       = color.RGBA{226, 232, 240, 255} // #e2e8f0
	colorPortIn     = color.RGBA{246, 173, 85, 255}  // #f6ad55
	colorPortOut    = color.RGBA{99, 179, 237, 255}  // #63b3ed
)

// renderContext maps world coordinates onto the oversized image.
type renderContext struct {
	img       *image.RGBA
	ss        float64 // supersample factor
	zoom      float64 // viewport scale
	tx, ty    float64 // zoom-about-centre translation in output pixels
	lineWidth float64
	face      font.Face
	small     font.Face
}

func newRenderContext(img *image.RGBA, f canvas.Frame, opts PNGOptions, ss int) (*renderContext, error) {
	fnt, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	zoom := f.Scale
	if zoom == 0 {
		zoom = 1
	}
	face, err := opentype.NewFace(fnt, &opentype.FaceOptions{
		Size:    float64(opts.FontSize) * float64(ss) * zoom,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("font face: %w", err)
	}
	smallSize := opts.FontSize - 3
	if smallSize < 8 {
		smallSize = 8
	}
	small, err := opentype.NewFace(fnt, &opentype.FaceOptions{
		Size:    float64(smallSize) * float64(ss) * zoom,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("font face: %w", err)
	}
	return &renderContext{
		img:       img,
		ss:        float64(ss),
		zoom:      zoom,
		tx:        float64(opts.Width) / 2 * (1 - zoom),
		ty:        float64(opts.Height) / 2 * (1 - zoom),
		lineWidth: float64(ss) * 2 * zoom,
		face:      face,
		small:     small,
	}, nil
}

// pt converts a world point to image pixels.
func (ctx *renderContext) pt(p canvas.Point) (float64, float64) {
	return (p.X*ctx.zoom + ctx.tx) * ctx.ss, (p.Y*ctx.zoom + ctx.ty) * ctx.ss
}

// size converts a world length to image pixels.
func (ctx *renderContext) size(v float64) float64 {
	return v * ctx.zoom * ctx.ss
}

// PNG renders f as a PNG image. The scene is drawn at Supersample times the
// output size and downscaled for smoother edges.
func PNG(w io.Writer, f canvas.Frame, opts PNGOptions) error {
	img, err := Image(f, opts)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

// Image renders f to an in-memory image of opts.Width by opts.Height.
func Image(f canvas.Frame, opts PNGOptions) (*image.RGBA, error) {
	def := DefaultPNGOptions()
	if opts.Width <= 0 {
		opts.Width = def.Width
	}
	if opts.Height <= 0 {
		opts.Height = def.Height
	}
	if opts.FontSize <= 0 {
		opts.FontSize = def.FontSize
	}
	ss := opts.Supersample
	if ss <= 0 {
		ss = def.Supersample
	}

	large := image.NewRGBA(image.Rect(0, 0, opts.Width*ss, opts.Height*ss))
	ctx, err := newRenderContext(large, f, opts, ss)
	if err != nil {
		return nil, err
	}
	drawScene(ctx, f, opts)

	if ss == 1 {
		return large, nil
	}
	final := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	draw.CatmullRom.Scale(final, final.Bounds(), large, large.Bounds(), draw.Over, nil)
	return final, nil
}

func drawScene(ctx *renderContext, f canvas.Frame, opts PNGOptions) {
	draw.Draw(ctx.img, ctx.img.Bounds(), image.NewUniform(colorBackground), image.Point{}, draw.Src)

	for _, c := range f.Connectors {
		drawCurve(ctx, c.Curve, colorConnector, false)
	}
	if f.Pending != nil {
		drawCurve(ctx, *f.Pending, colorPending, true)
	}

	for _, n := range f.Nodes {
		x0, y0 := ctx.pt(canvas.Point{X: n.X, Y: n.Y})
		wpx := ctx.size(n.Width)
		hpx := ctx.size(f.Layout.NodeHeight(n))
		stroke := colorNodeStroke
		if f.Dragging != nil && *f.Dragging == n.ID {
			stroke = colorConnector
		}
		fillRect(ctx, x0, y0, wpx, hpx, colorNodeFill)
		strokeRect(ctx, x0, y0, wpx, hpx, stroke)
		drawTextCentered(ctx, ctx.face, int(x0+wpx/2), int(y0+ctx.size(18)), n.Label, colorText)

		for _, p := range n.Inputs {
			cx, cy := ctx.pt(f.Layout.InputPort(n, p.Index))
			fillCircle(ctx, cx, cy, ctx.size(5), colorPortIn)
			drawText(ctx, ctx.small, int(x0+ctx.size(8)), int(cy), p.Title, colorText)
		}
		for _, p := range n.Outputs {
			cx, cy := ctx.pt(f.Layout.OutputPort(n, p.Index))
			fillCircle(ctx, cx, cy, ctx.size(5), colorPortOut)
			width := font.MeasureString(ctx.small, p.Title).Ceil()
			drawText(ctx, ctx.small, int(x0+wpx-ctx.size(8))-width, int(cy), p.Title, colorText)
		}
	}

	if opts.Title != "" {
		drawText(ctx, ctx.face, int(12*ctx.ss), int(24*ctx.ss), opts.Title, colorText)
	}
}

// drawCurve samples c into line segments and finishes with an arrowhead
// along the end tangent. Dashed curves alternate 5px on, 5px off and carry
// no arrowhead.
func drawCurve(ctx *renderContext, c canvas.Curve, col color.Color, dashed bool) {
	pts := c.Points(100)
	dash := ctx.size(5)
	run := 0.0
	on := true
	px, py := ctx.pt(pts[0])
	for _, p := range pts[1:] {
		x, y := ctx.pt(p)
		if on || !dashed {
			drawLine(ctx, px, py, x, y, col)
		}
		if dashed {
			run += math.Hypot(x-px, y-py)
			if run >= dash {
				run = 0
				on = !on
			}
		}
		px, py = x, y
	}
	if dashed {
		return
	}
	t := c.Tangent(1)
	if t.X == 0 && t.Y == 0 {
		return
	}
	drawArrowhead(ctx, px, py, t.X, t.Y, col)
}

// drawLine draws a line between two points with thickness from context.
func drawLine(ctx *renderContext, x1, y1, x2, y2 float64, c color.Color) {
	img := ctx.img
	halfThick := ctx.lineWidth / 2

	dx := x2 - x1
	dy := y2 - y1
	dist := math.Sqrt(dx*dx + dy*dy)
	if dist < 1 {
		for ty := -halfThick; ty <= halfThick; ty++ {
			for tx := -halfThick; tx <= halfThick; tx++ {
				img.Set(int(x1+tx), int(y1+ty), c)
			}
		}
		return
	}

	steps := math.Max(math.Abs(dx), math.Abs(dy))
	perpX := -dy / dist
	perpY := dx / dist
	for i := 0.0; i <= steps; i++ {
		t := i / steps
		cx := x1 + dx*t
		cy := y1 + dy*t
		for offset := -halfThick; offset <= halfThick; offset += 0.5 {
			img.Set(int(cx+perpX*offset), int(cy+perpY*offset), c)
		}
	}
}

// drawArrowhead fills a triangle at (x,y) pointing along (dx,dy).
func drawArrowhead(ctx *renderContext, x, y, dx, dy float64, c color.Color) {
	dist := math.Sqrt(dx*dx + dy*dy)
	nx := dx / dist
	ny := dy / dist

	arrowLen := ctx.size(9)
	arrowWidth := ctx.size(3)

	ax1 := x - nx*arrowLen + ny*arrowWidth
	ay1 := y - ny*arrowLen - nx*arrowWidth
	ax2 := x - nx*arrowLen - ny*arrowWidth
	ay2 := y - ny*arrowLen + nx*arrowWidth

	for t := 0.0; t <= 1.0; t += 0.05 {
		mx := ax1 + (ax2-ax1)*t
		my := ay1 + (ay2-ay1)*t
		drawLine(ctx, x, y, mx, my, c)
	}
}

func fillRect(ctx *renderContext, x, y, w, h float64, c color.Color) {
	r := image.Rect(int(x), int(y), int(x+w), int(y+h))
	draw.Draw(ctx.img, r, image.NewUniform(c), image.Point{}, draw.Src)
}

func strokeRect(ctx *renderContext, x, y, w, h float64, c color.Color) {
	drawLine(ctx, x, y, x+w, y, c)
	drawLine(ctx, x+w, y, x+w, y+h, c)
	drawLine(ctx, x+w, y+h, x, y+h, c)
	drawLine(ctx, x, y+h, x, y, c)
}

func fillCircle(ctx *renderContext, cx, cy, r float64, c color.Color) {
	for dy := -r; dy <= r; dy++ {
		xExtent := math.Sqrt(r*r - dy*dy)
		for dx := -xExtent; dx <= xExtent; dx++ {
			ctx.img.Set(int(cx+dx), int(cy+dy), c)
		}
	}
}

// drawText draws text with its left edge at x, vertically centred on y.
func drawText(ctx *renderContext, face font.Face, x, y int, text string, c color.Color) {
	ascent := face.Metrics().Ascent.Ceil()
	d := &font.Drawer{
		Dst:  ctx.img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y + int(float64(ascent)*0.35))},
	}
	d.DrawString(text)
}

// drawTextCentered draws text horizontally centred on x.
func drawTextCentered(ctx *renderContext, face font.Face, x, y int, text string, c color.Color) {
	width := font.MeasureString(face, text).Ceil()
	drawText(ctx, face, x-width/2, y, text, c)
}
