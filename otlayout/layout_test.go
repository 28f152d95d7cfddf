package otlayout

import (
	"testing"

	"github.com/npillmayer/opentext/internal/fontbuild"
	"github.com/npillmayer/opentext/ot"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// glyphs of the test fonts
type glyphs struct {
	f, i, l, fi, ffi, fl  uint16
	a, b, c, alt1, alt2   uint16
	x1, x2                uint16
	acute, grave, cedilla uint16
}

// layoutFont builds a font with latin test glyphs and a GDEF table. Layout tables
// are added by setup.
func layoutFont(t *testing.T, setup func(b *fontbuild.Builder, g glyphs)) (*ot.Font, glyphs) {
	t.Helper()
	b := fontbuild.New()
	b.FamilyName = "Layouttest"
	glyph := func(name string, adv uint16) uint16 {
		return b.AddGlyph(fontbuild.Glyph{Name: name, Advance: adv, Contours: fontbuild.Rect(10, 0, int16(adv)-10, 500)})
	}
	mark := func(name string) uint16 {
		return b.AddGlyph(fontbuild.Glyph{Name: name, Contours: fontbuild.Rect(-200, 600, -100, 700)})
	}
	g := glyphs{
		f: glyph("f", 300), i: glyph("i", 250), l: glyph("l", 250),
		fi: glyph("fi", 520), ffi: glyph("ffi", 800), fl: glyph("fl", 520),
		a: glyph("a", 500), b: glyph("b", 500), c: glyph("c", 450),
		alt1: glyph("a.alt1", 500), alt2: glyph("a.alt2", 500),
		x1: glyph("x1", 400), x2: glyph("x2", 400),
		acute: mark("acutecomb"), grave: mark("gravecomb"), cedilla: mark("cedillacomb"),
	}
	for r, gid := range map[rune]uint16{'f': g.f, 'i': g.i, 'l': g.l, 'a': g.a, 'b': g.b, 'c': g.c,
		'x': g.x1, 0x301: g.acute, 0x300: g.grave, 0x327: g.cedilla} {
		b.Map(r, gid)
	}
	classes := map[uint16]uint16{g.fi: 2, g.ffi: 2, g.fl: 2, g.acute: 3, g.grave: 3, g.cedilla: 3}
	for _, gid := range []uint16{g.f, g.i, g.l, g.a, g.b, g.c, g.alt1, g.alt2, g.x1, g.x2} {
		classes[gid] = 1
	}
	b.Table("GDEF", fontbuild.GDEF(classes,
		map[uint16]uint16{g.acute: 1, g.grave: 1, g.cedilla: 2},
		[][]uint16{{g.acute}}))
	setup(b, g)
	otf, err := ot.Parse(b.Build())
	require.NoError(t, err)
	return otf, g
}

// gsubFont builds a font with a GSUB table with lookups for a single feature 'test'.
// The feature references the lookups of feature, or all lookups if feature is nil.
func gsubFont(t *testing.T, feature []uint16, lookups func(g glyphs) []fontbuild.Lookup) (*ot.Font, glyphs) {
	return layoutFont(t, func(b *fontbuild.Builder, g glyphs) {
		lu := lookups(g)
		if feature == nil {
			for i := range lu {
				feature = append(feature, uint16(i))
			}
		}
		b.Table("GSUB", fontbuild.LayoutTable(nil,
			[]fontbuild.Feature{{Tag: "test", Lookups: feature}}, lu))
	})
}

// collect creates a collection for a string.
func collect(otf *ot.Font, s string) *SubstitutionCollection {
	rs := []rune(s)
	coll := NewSubstitutionCollection(len(rs))
	for i, r := range rs {
		coll.Append(otf.CMap.Lookup(r), i, r)
	}
	return coll
}

func ids(gids ...uint16) []ot.GlyphIndex {
	r := make([]ot.GlyphIndex, len(gids))
	for i, g := range gids {
		r[i] = ot.GlyphIndex(g)
	}
	return r
}

// applyTest applies feature 'test' of the GSUB table to all glyphs.
func applyTest(t *testing.T, otf *ot.Font, coll *SubstitutionCollection) {
	t.Helper()
	steps := CollectLookups(otf, GSubFeatureType, 0, 0, []FeatureRequest{{Tag: ot.T("test"), Mask: GlobalMask}})
	require.NotEmpty(t, steps)
	require.NoError(t, ApplyLookups(otf, GSubFeatureType, coll, steps, Options{}))
}

// --- Feature selection -----------------------------------------------------

func TestIdentifyFeatureTag(t *testing.T) {
	assert.Equal(t, GSubFeatureType, IdentifyFeatureTag(ot.T("liga")))
	assert.Equal(t, GPosFeatureType, IdentifyFeatureTag(ot.T("kern")))
	assert.Equal(t, BothFeatureTypes, IdentifyFeatureTag(ot.T("case")))
	assert.Equal(t, GSubFeatureType, IdentifyFeatureTag(ot.T("ss07")))
	assert.Equal(t, GSubFeatureType, IdentifyFeatureTag(ot.T("cv42")))
	assert.Equal(t, LayoutTagType(0), IdentifyFeatureTag(ot.T("ss21")))
	assert.Equal(t, LayoutTagType(0), IdentifyFeatureTag(ot.T("xyzw")))
}

func TestFontFeatures(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.layout")
	defer teardown()
	//
	otf, _ := layoutFont(t, func(b *fontbuild.Builder, g glyphs) {
		single := fontbuild.Lookup{Type: fontbuild.GSubSingle,
			Subtables: [][]byte{fontbuild.SingleSubst(map[uint16]uint16{g.a: g.b})}}
		b.Table("GSUB", fontbuild.LayoutTable(
			[]fontbuild.Script{
				{Tag: "DFLT"},
				{Tag: "arab", Required: 2, Languages: map[string][]uint16{"URD ": {0}}},
			},
			[]fontbuild.Feature{{Tag: "liga", Lookups: []uint16{0}}, {Tag: "ccmp", Lookups: []uint16{0}}},
			[]fontbuild.Lookup{single}))
		b.Table("GPOS", fontbuild.LayoutTable(nil,
			[]fontbuild.Feature{{Tag: "kern", Lookups: []uint16{0}}},
			[]fontbuild.Lookup{{Type: fontbuild.GPosSingle,
				Subtables: [][]byte{fontbuild.SinglePos([]uint16{g.a}, fontbuild.Value{XAdvance: 10})}}}))
	})
	gsub, gpos, err := FontFeatures(otf, ot.T("arab"), ot.T("URD "))
	require.NoError(t, err)
	require.Len(t, gsub, 2)
	require.NotNil(t, gsub[0], "required feature")
	assert.Equal(t, ot.T("ccmp"), gsub[0].Tag())
	assert.Equal(t, ot.T("liga"), gsub[1].Tag())
	assert.Equal(t, GSubFeatureType, gsub[1].Type())
	require.Len(t, gpos, 2)
	assert.Nil(t, gpos[0])
	assert.Equal(t, ot.T("kern"), gpos[1].Tag(), "GPOS falls back to DFLT")
	assert.Equal(t, 1, gpos[1].LookupCount())
	assert.Equal(t, 0, gpos[1].LookupIndex(0))
	assert.Equal(t, -1, gpos[1].LookupIndex(1))
	//
	gsub, _, err = FontFeatures(otf, ot.T("arab"), ot.T("FAR "))
	require.NoError(t, err)
	assert.Len(t, gsub, 3, "default language system of arab")
	gsub, _, err = FontFeatures(otf, ot.T("grek"), 0)
	require.NoError(t, err)
	assert.Len(t, gsub, 3, "unknown script falls back to DFLT")
	assert.Nil(t, gsub[0])
	//
	assert.Equal(t, []ot.Tag{ot.T("ccmp"), ot.T("liga")}, FeatureTags(otf, GSubFeatureType))
}

func TestFontFeaturesWithoutLayout(t *testing.T) {
	b := fontbuild.New()
	otf, err := ot.Parse(b.Build())
	require.NoError(t, err)
	_, _, err = FontFeatures(otf, ot.T("latn"), 0)
	assert.Error(t, err)
	assert.Nil(t, CollectLookups(otf, GSubFeatureType, 0, 0, nil))
	coll := collect(otf, "a")
	err = ApplyLookups(otf, GPosFeatureType, coll, []LookupStep{{Index: 0, Mask: AllFeatures}}, Options{})
	assert.Error(t, err)
}

func TestCollectLookups(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.layout")
	defer teardown()
	//
	otf, _ := layoutFont(t, func(b *fontbuild.Builder, g glyphs) {
		single := fontbuild.Lookup{Type: fontbuild.GSubSingle,
			Subtables: [][]byte{fontbuild.SingleSubst(map[uint16]uint16{g.a: g.b})}}
		b.Table("GSUB", fontbuild.LayoutTable(nil,
			[]fontbuild.Feature{
				{Tag: "init", Lookups: []uint16{2, 0}},
				{Tag: "fina", Lookups: []uint16{1, 2}},
				{Tag: "salt", Lookups: []uint16{3}},
			},
			[]fontbuild.Lookup{single, single, single, single}))
	})
	steps := CollectLookups(otf, GSubFeatureType, ot.T("latn"), 0, []FeatureRequest{
		{Tag: ot.T("init"), Mask: 2},
		{Tag: ot.T("fina"), Mask: 4},
		{Tag: ot.T("zzzz"), Mask: 8},
	})
	require.Len(t, steps, 3)
	assert.Equal(t, []LookupStep{
		{Index: 0, Mask: 2, Feature: ot.T("init")},
		{Index: 1, Mask: 4, Feature: ot.T("fina")},
		{Index: 2, Mask: 6, Feature: ot.T("init")},
	}, steps, "lookup-list order, shared lookup scheduled once")
}

func TestFeatureMasks(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.layout")
	defer teardown()
	//
	otf, g := gsubFont(t, nil, func(g glyphs) []fontbuild.Lookup {
		return []fontbuild.Lookup{{Type: fontbuild.GSubSingle,
			Subtables: [][]byte{fontbuild.SingleSubst(map[uint16]uint16{g.a: g.b})}}}
	})
	coll := collect(otf, "aaa")
	coll.SetMask(1, 2, 2, 2)
	steps := CollectLookups(otf, GSubFeatureType, 0, 0, []FeatureRequest{{Tag: ot.T("test"), Mask: 2}})
	require.NoError(t, ApplyLookups(otf, GSubFeatureType, coll, steps, Options{}))
	assert.Equal(t, ids(g.a, g.b, g.a), coll.GlyphIndices(), "only the glyph with mask bit set")
	assert.Equal(t, []ot.Tag{ot.T("test")}, coll.At(1).Features)
	assert.Nil(t, coll.At(0).Features)
}

func TestApplyFeature(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.layout")
	defer teardown()
	//
	otf, g := gsubFont(t, nil, func(g glyphs) []fontbuild.Lookup {
		return []fontbuild.Lookup{{Type: fontbuild.GSubSingle,
			Subtables: [][]byte{fontbuild.SingleSubst(map[uint16]uint16{g.a: g.b})}}}
	})
	gsub, _, err := FontFeatures(otf, ot.DFLT, 0)
	require.NoError(t, err)
	require.Len(t, gsub, 2)
	coll := collect(otf, "cab")
	applied, err := ApplyFeature(otf, gsub[1], coll, 0)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, ids(g.c, g.b, g.b), coll.GlyphIndices())
	applied, err = ApplyFeature(otf, gsub[0], coll, 0)
	assert.NoError(t, err)
	assert.False(t, applied, "empty required feature slot")
}
