package textlayout

import (
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/math/fixed"
)

type recorder struct {
	glyphs, figures, lines, open int
	moves                        []fixed.Point26_6
	decorations                  []DecorationLine
	begun, ended                 bool
}

func (r *recorder) BeginText(fixed.Rectangle26_6) { r.begun = true }
func (r *recorder) BeginGlyph(GlyphLayout)        { r.glyphs++ }
func (r *recorder) BeginFigure()                  { r.figures++; r.open++ }
func (r *recorder) MoveTo(p fixed.Point26_6)      { r.moves = append(r.moves, p) }
func (r *recorder) LineTo(fixed.Point26_6)        { r.lines++ }
func (r *recorder) QuadTo(_, _ fixed.Point26_6)   {}
func (r *recorder) CubicTo(_, _, _ fixed.Point26_6) {}
func (r *recorder) EndFigure()                      { r.open-- }
func (r *recorder) EndGlyph()                       {}
func (r *recorder) EndText()                        { r.ended = true }
func (r *recorder) DrawDecoration(d DecorationLine) { r.decorations = append(r.decorations, d) }

func TestRender(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "text.layout")
	defer teardown()
	//
	face, _ := latinFace(t)
	lines, err := LayoutLines("ab c", unitOptions(face))
	require.NoError(t, err)
	r := &recorder{}
	Render(lines, r)
	assert.True(t, r.begun)
	assert.True(t, r.ended)
	assert.Equal(t, 3, r.glyphs) // the space is not drawn
	assert.Equal(t, 3, r.figures)
	assert.Equal(t, 0, r.open)
	// rectangles start at the glyph origin, y pointing down
	assert.Equal(t, fixed.Point26_6{X: 0, Y: fixed.I(800)}, r.moves[0])
	assert.Equal(t, fixed.Point26_6{X: fixed.I(110), Y: fixed.I(800)}, r.moves[2])
}

func TestDecorations(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "text.layout")
	defer teardown()
	//
	face, _ := latinFace(t)
	opts := unitOptions(face)
	opts.Runs = []TextRun{{Start: 1, End: 3, Decorations: Underline | Strikeout}}
	lines, err := LayoutLines("abcd", opts)
	require.NoError(t, err)
	decos := lines[0].Decorations()
	require.Len(t, decos, 2)
	u := decos[0]
	assert.Equal(t, Underline, u.Kind)
	assert.Equal(t, fixed.I(50), u.From.X)
	assert.Equal(t, fixed.I(150), u.To.X)
	assert.Equal(t, fixed.I(900), u.From.Y) // underline position -100
	assert.Equal(t, fixed.I(50), u.Thickness)
	assert.Equal(t, Strikeout, decos[1].Kind)
	assert.Equal(t, fixed.I(500), decos[1].From.Y)
	r := &recorder{}
	Render(lines, r)
	assert.Len(t, r.decorations, 2)
}
