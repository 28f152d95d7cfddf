package main

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"

	"github.com/thatisuday/commando"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/npillmayer/opentext/textlayout"
)

func runViewCommand(args map[string]commando.ArgValue, flags map[string]commando.FlagValue) {
	_, face := openFace(args, flags)
	input := inputText(args, flags)
	width, height := intFlag(flags, "width"), intFlag(flags, "height")
	if width <= 0 || height <= 0 {
		fatalf("image size must be positive, is %dx%d", width, height)
	}
	opts := textlayout.DefaultOptions()
	opts.Font = face
	opts.PointSize = float32(intFlag(flags, "size"))
	opts.WrapLength = fixed.I(width - 2*margin)
	opts.Shaper = textlayout.DefaultShaper()
	dir, err := parseDirection(stringFlag(flags, "direction"))
	if err != nil {
		fatalf("%v", err)
	}
	opts.Direction = directionFor(dir)
	if boolFlag(flags, "underline") {
		opts.Runs = []textlayout.TextRun{{Start: 0, End: len([]rune(input)), Decorations: textlayout.Underline}}
	}
	img, err := renderText(input, opts, width, height, boolFlag(flags, "show-bboxes"))
	if err != nil {
		fatalf("%v", err)
	}
	output := stringFlag(flags, "output")
	if err := writePNG(output, img); err != nil {
		fatalf("%v", err)
	}
	fmt.Printf("wrote %s (%dx%d)\n", output, width, height)
}

// margin is the distance of the text from the borders of an image, in pixels.
const margin = 10

// renderText lays out text and draws it black on white into an image.
func renderText(text string, opts *textlayout.Options, width, height int, bboxes bool) (*image.RGBA, error) {
	lines, err := textlayout.LayoutLines(text, opts)
	if err != nil {
		return nil, err
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	r := newPNGRenderer(img, fixed.P(margin, margin))
	textlayout.Render(lines, r)
	if bboxes {
		for _, l := range lines {
			for _, g := range l.Glyphs {
				r.strokeBox(g.BoxLocation)
			}
		}
	}
	return img, nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return f.Close()
}

// pngRenderer rasterizes glyph outlines into an RGBA image. Every glyph is
// filled separately with the current color.
type pngRenderer struct {
	img    *image.RGBA
	origin fixed.Point26_6
	ras    *vector.Rasterizer
	color  color.Color
}

var _ textlayout.GlyphRenderer = (*pngRenderer)(nil)
var _ textlayout.ColorGlyphRenderer = (*pngRenderer)(nil)
var _ textlayout.DecorationRenderer = (*pngRenderer)(nil)

func newPNGRenderer(img *image.RGBA, origin fixed.Point26_6) *pngRenderer {
	b := img.Bounds()
	return &pngRenderer{
		img:    img,
		origin: origin,
		ras:    vector.NewRasterizer(b.Dx(), b.Dy()),
		color:  color.Black,
	}
}

func (r *pngRenderer) pt(p fixed.Point26_6) (float32, float32) {
	p = p.Add(r.origin)
	return float32(p.X) / 64, float32(p.Y) / 64
}

func (r *pngRenderer) BeginText(bounds fixed.Rectangle26_6) {}

func (r *pngRenderer) BeginGlyph(g textlayout.GlyphLayout) {
	r.color = color.Black
	b := r.img.Bounds()
	r.ras.Reset(b.Dx(), b.Dy())
}

func (r *pngRenderer) BeginFigure() {}

func (r *pngRenderer) MoveTo(p fixed.Point26_6) {
	r.ras.MoveTo(r.pt(p))
}

func (r *pngRenderer) LineTo(p fixed.Point26_6) {
	r.ras.LineTo(r.pt(p))
}

func (r *pngRenderer) QuadTo(c, p fixed.Point26_6) {
	cx, cy := r.pt(c)
	x, y := r.pt(p)
	r.ras.QuadTo(cx, cy, x, y)
}

func (r *pngRenderer) CubicTo(c1, c2, p fixed.Point26_6) {
	c1x, c1y := r.pt(c1)
	c2x, c2y := r.pt(c2)
	x, y := r.pt(p)
	r.ras.CubeTo(c1x, c1y, c2x, c2y, x, y)
}

func (r *pngRenderer) EndFigure() {
	r.ras.ClosePath()
}

func (r *pngRenderer) EndGlyph() {
	r.fill()
}

func (r *pngRenderer) EndText() {}

// SetColor fills the layers painted so far and switches to the color of the
// next layer of a color glyph.
func (r *pngRenderer) SetColor(c color.NRGBA, foreground bool) {
	r.fill()
	if foreground {
		r.color = color.Black
	} else {
		r.color = c
	}
}

func (r *pngRenderer) fill() {
	r.ras.Draw(r.img, r.img.Bounds(), image.NewUniform(r.color), image.Point{})
	b := r.img.Bounds()
	r.ras.Reset(b.Dx(), b.Dy())
}

// DrawDecoration fills a rectangle of the decoration's thickness, centered
// on its line.
func (r *pngRenderer) DrawDecoration(d textlayout.DecorationLine) {
	half := d.Thickness / 2
	r.color = color.Black
	r.fillRect(fixed.Rectangle26_6{
		Min: fixed.Point26_6{X: d.From.X, Y: d.From.Y - half},
		Max: fixed.Point26_6{X: d.To.X, Y: d.To.Y + d.Thickness - half},
	})
}

func (r *pngRenderer) fillRect(rect fixed.Rectangle26_6) {
	r.MoveTo(rect.Min)
	r.LineTo(fixed.Point26_6{X: rect.Max.X, Y: rect.Min.Y})
	r.LineTo(rect.Max)
	r.LineTo(fixed.Point26_6{X: rect.Min.X, Y: rect.Max.Y})
	r.EndFigure()
	r.fill()
}

// strokeBox draws the outline of a box one pixel wide in red.
func (r *pngRenderer) strokeBox(box fixed.Rectangle26_6) {
	if box.Empty() {
		return
	}
	r.color = color.RGBA{R: 0xff, A: 0xff}
	one := fixed.I(1)
	lo, hi := box.Min, box.Max
	r.fillRect(fixed.Rectangle26_6{Min: lo, Max: fixed.Point26_6{X: hi.X, Y: lo.Y + one}})
	r.fillRect(fixed.Rectangle26_6{Min: fixed.Point26_6{X: lo.X, Y: hi.Y - one}, Max: hi})
	r.fillRect(fixed.Rectangle26_6{Min: lo, Max: fixed.Point26_6{X: lo.X + one, Y: hi.Y}})
	r.fillRect(fixed.Rectangle26_6{Min: fixed.Point26_6{X: hi.X - one, Y: lo.Y}, Max: hi})
}
