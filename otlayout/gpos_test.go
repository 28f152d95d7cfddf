package otlayout

import (
	"testing"

	"github.com/npillmayer/opentext/internal/fontbuild"
	"github.com/npillmayer/opentext/ot"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gposFont builds a font with a GPOS table with all lookups in feature 'test'.
// gsub may add lookups of a GSUB feature 'test', too.
func gposFont(t *testing.T, lookups func(g glyphs) []fontbuild.Lookup,
	gsub func(g glyphs) []fontbuild.Lookup) (*ot.Font, glyphs) {
	//
	feature := func(lu []fontbuild.Lookup) []fontbuild.Feature {
		indices := make([]uint16, len(lu))
		for i := range lu {
			indices[i] = uint16(i)
		}
		return []fontbuild.Feature{{Tag: "test", Lookups: indices}}
	}
	return layoutFont(t, func(b *fontbuild.Builder, g glyphs) {
		lu := lookups(g)
		b.Table("GPOS", fontbuild.LayoutTable(nil, feature(lu), lu))
		if gsub != nil {
			lu = gsub(g)
			b.Table("GSUB", fontbuild.LayoutTable(nil, feature(lu), lu))
		}
	})
}

// position applies feature 'test' of GSUB, if present, and GPOS.
func position(t *testing.T, otf *ot.Font, coll *SubstitutionCollection, rtl bool) {
	t.Helper()
	req := []FeatureRequest{{Tag: ot.T("test"), Mask: GlobalMask}}
	if otf.Layout.GSub != nil {
		steps := CollectLookups(otf, GSubFeatureType, 0, 0, req)
		require.NoError(t, ApplyLookups(otf, GSubFeatureType, coll, steps, Options{}))
	}
	steps := CollectLookups(otf, GPosFeatureType, 0, 0, req)
	require.NotEmpty(t, steps)
	require.NoError(t, ApplyLookups(otf, GPosFeatureType, coll, steps, Options{RightToLeft: rtl}))
}

func TestSinglePositioning(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.layout")
	defer teardown()
	//
	otf, _ := gposFont(t, func(g glyphs) []fontbuild.Lookup {
		return []fontbuild.Lookup{{Type: fontbuild.GPosSingle, Subtables: [][]byte{
			fontbuild.SinglePos([]uint16{g.a}, fontbuild.Value{XPlacement: 5, XAdvance: 10}),
		}}}
	}, nil)
	coll := collect(otf, "ba")
	position(t, otf, coll, false)
	assert.Equal(t, Position{}, coll.At(0).Pos)
	assert.Equal(t, Position{XAdvance: 10, XOffset: 5}, coll.At(1).Pos)
	assert.NotZero(t, coll.At(1).Flags&FlagPositioned)
}

func TestPairPositioning(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.layout")
	defer teardown()
	//
	otf, _ := gposFont(t, func(g glyphs) []fontbuild.Lookup {
		return []fontbuild.Lookup{
			{Type: fontbuild.GPosPair, Flag: fontbuild.FlagIgnoreMarks, Subtables: [][]byte{
				fontbuild.PairPos(map[[2]uint16]fontbuild.Value{{g.a, g.b}: {XAdvance: -40}}),
				fontbuild.PairPosClasses([]uint16{g.a, g.c},
					map[uint16]uint16{g.a: 1, g.c: 1}, map[uint16]uint16{g.b: 1},
					[][]fontbuild.Value{{{}, {}}, {{}, {XAdvance: -25}}}),
			}},
		}
	}, nil)
	coll := collect(otf, "abcba\u0301b")
	position(t, otf, coll, false)
	adv := make([]int32, coll.Len())
	for i, g := range coll.Glyphs() {
		adv[i] = g.Pos.XAdvance
	}
	assert.Equal(t, []int32{-40, 0, -25, 0, -40, 0, 0}, adv, "pairs by glyph and by class, marks skipped")
}

func TestMarkToBase(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.layout")
	defer teardown()
	//
	otf, _ := gposFont(t, func(g glyphs) []fontbuild.Lookup {
		return []fontbuild.Lookup{{Type: fontbuild.GPosMarkToBase, Subtables: [][]byte{
			fontbuild.MarkAttachPos(
				map[uint16]fontbuild.Mark{
					g.acute: {Class: 0, Anchor: fontbuild.Anchor{X: 50, Y: 600}},
					g.grave: {Class: 1, Anchor: fontbuild.Anchor{X: 60, Y: 600}},
				},
				map[uint16][]*fontbuild.Anchor{g.a: {{X: 250, Y: 700}, {X: 200, Y: 650}}}),
		}}}
	}, nil)
	coll := collect(otf, "ba\u0301\u0300")
	position(t, otf, coll, false)
	acute, grave := coll.At(2), coll.At(3)
	assert.Equal(t, Attachment{Kind: AttachMarkToBase, To: 1}, acute.Attach)
	assert.Equal(t, int32(200), acute.Pos.XOffset)
	assert.Equal(t, int32(100), acute.Pos.YOffset)
	assert.Equal(t, Attachment{Kind: AttachMarkToBase, To: 1}, grave.Attach, "marks in between are skipped")
	assert.Equal(t, int32(140), grave.Pos.XOffset)
	assert.Equal(t, int32(50), grave.Pos.YOffset)
	//
	coll = collect(otf, "b\u0301")
	position(t, otf, coll, false)
	assert.Equal(t, AttachNone, coll.At(1).Attach.Kind, "b is no base of this lookup")
	coll = collect(otf, "\u0301a")
	position(t, otf, coll, false)
	assert.Equal(t, AttachNone, coll.At(0).Attach.Kind, "no base before mark")
}

func TestMarkToLigature(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.layout")
	defer teardown()
	//
	otf, g := gposFont(t, func(g glyphs) []fontbuild.Lookup {
		return []fontbuild.Lookup{{Type: fontbuild.GPosMarkToLig, Subtables: [][]byte{
			fontbuild.MarkLigPos(
				map[uint16]fontbuild.Mark{g.acute: {Class: 0, Anchor: fontbuild.Anchor{X: 50, Y: 600}}},
				map[uint16][][]*fontbuild.Anchor{g.fi: {{{X: 100, Y: 700}}, {{X: 400, Y: 700}}}}),
		}}}
	}, func(g glyphs) []fontbuild.Lookup {
		return []fontbuild.Lookup{{Type: fontbuild.GSubLigature, Flag: fontbuild.FlagIgnoreMarks,
			Subtables: [][]byte{fontbuild.LigatureSubst([]fontbuild.Ligature{
				{Components: []uint16{g.f, g.i}, Glyph: g.fi},
			})},
		}}
	})
	coll := collect(otf, "f\u0301i\u0301")
	position(t, otf, coll, false)
	require.Equal(t, ids(g.fi, g.acute, g.acute), coll.GlyphIndices())
	first, second := coll.At(1), coll.At(2)
	assert.Equal(t, Attachment{Kind: AttachMarkToLigature, To: 0}, first.Attach)
	assert.Equal(t, int32(50), first.Pos.XOffset, "attached to first component")
	assert.Equal(t, int32(350), second.Pos.XOffset, "attached to second component")
	assert.Equal(t, int32(100), second.Pos.YOffset)
}

func TestMarkToMark(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.layout")
	defer teardown()
	//
	otf, _ := gposFont(t, func(g glyphs) []fontbuild.Lookup {
		return []fontbuild.Lookup{{Type: fontbuild.GPosMarkToMark, Subtables: [][]byte{
			fontbuild.MarkAttachPos(
				map[uint16]fontbuild.Mark{g.grave: {Class: 0, Anchor: fontbuild.Anchor{X: 0, Y: 0}}},
				map[uint16][]*fontbuild.Anchor{g.acute: {{X: 10, Y: 800}}}),
		}}}
	}, nil)
	coll := collect(otf, "a\u0301\u0300")
	position(t, otf, coll, false)
	grave := coll.At(2)
	assert.Equal(t, Attachment{Kind: AttachMarkToMark, To: 1}, grave.Attach)
	assert.Equal(t, Position{XOffset: 10, YOffset: 800}, grave.Pos)
	//
	coll = collect(otf, "a\u0300")
	position(t, otf, coll, false)
	assert.Equal(t, AttachNone, coll.At(1).Attach.Kind, "no preceding mark")
}

func TestCursiveAttachment(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.layout")
	defer teardown()
	//
	lookups := func(flag uint16) func(g glyphs) []fontbuild.Lookup {
		return func(g glyphs) []fontbuild.Lookup {
			return []fontbuild.Lookup{{Type: fontbuild.GPosCursive, Flag: flag, Subtables: [][]byte{
				fontbuild.CursivePos(map[uint16]fontbuild.EntryExit{
					g.a: {Entry: &fontbuild.Anchor{X: 0, Y: 100}, Exit: &fontbuild.Anchor{X: 500, Y: 200}},
					g.b: {Entry: &fontbuild.Anchor{X: 20, Y: 50}, Exit: &fontbuild.Anchor{X: 480, Y: 300}},
				}),
			}}}
		}
	}
	otf, _ := gposFont(t, lookups(0), nil)
	coll := collect(otf, "ab")
	position(t, otf, coll, false)
	a, b := coll.At(0), coll.At(1)
	assert.Equal(t, int32(0), a.Pos.XAdvance, "exit anchor at the advance of a")
	assert.Equal(t, int32(-20), b.Pos.XAdvance)
	assert.Equal(t, int32(-20), b.Pos.XOffset)
	assert.Equal(t, Attachment{Kind: AttachCursive, To: 0}, b.Attach)
	assert.Equal(t, int32(150), b.Pos.YOffset, "entry of b aligned to exit of a")
	assert.Equal(t, AttachNone, a.Attach.Kind)
	//
	otf, _ = gposFont(t, lookups(fontbuild.FlagRightToLeft), nil)
	coll = collect(otf, "ab")
	position(t, otf, coll, true)
	a, b = coll.At(0), coll.At(1)
	assert.Equal(t, int32(-500), a.Pos.XAdvance)
	assert.Equal(t, int32(-500), a.Pos.XOffset)
	assert.Equal(t, int32(20-500), b.Pos.XAdvance)
	assert.Equal(t, Attachment{Kind: AttachCursive, To: 1}, a.Attach, "preceding glyph is the child")
	assert.Equal(t, int32(-150), a.Pos.YOffset)
}

func TestContextPositioning(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.layout")
	defer teardown()
	//
	otf, _ := layoutFont(t, func(b *fontbuild.Builder, g glyphs) {
		b.Table("GPOS", fontbuild.LayoutTable(nil,
			[]fontbuild.Feature{{Tag: "test", Lookups: []uint16{0}}},
			[]fontbuild.Lookup{
				{Type: fontbuild.GPosChaining, Subtables: [][]byte{
					fontbuild.ChainContextFormat3([][]uint16{{g.c}}, [][]uint16{{g.a}, {g.b}}, nil,
						[]fontbuild.SeqLookup{{SequenceIndex: 1, LookupIndex: 1}}),
				}},
				{Type: fontbuild.GPosSingle, Subtables: [][]byte{
					fontbuild.SinglePos([]uint16{g.b}, fontbuild.Value{YPlacement: 30}),
				}},
			}))
	})
	coll := collect(otf, "cabab")
	position(t, otf, coll, false)
	assert.Equal(t, int32(30), coll.At(2).Pos.YOffset)
	assert.Equal(t, int32(0), coll.At(4).Pos.YOffset, "no backtrack match")
}
