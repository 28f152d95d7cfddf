package otlayout

import (
	"errors"
	"strings"
	"testing"

	"github.com/npillmayer/opentext/internal/fontbuild"
	"github.com/npillmayer/opentext/ot"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func single(m map[uint16]uint16) fontbuild.Lookup {
	return fontbuild.Lookup{Type: fontbuild.GSubSingle, Subtables: [][]byte{fontbuild.SingleSubst(m)}}
}

func TestSingleSubstitution(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.layout")
	defer teardown()
	//
	otf, g := gsubFont(t, nil, func(g glyphs) []fontbuild.Lookup {
		return []fontbuild.Lookup{
			{Type: fontbuild.GSubSingle, Subtables: [][]byte{
				fontbuild.SingleSubstDelta([]uint16{g.a}, int16(g.alt1)-int16(g.a)),
			}},
			single(map[uint16]uint16{g.b: g.c}),
		}
	})
	coll := collect(otf, "abc")
	applyTest(t, otf, coll)
	assert.Equal(t, ids(g.alt1, g.c, g.c), coll.GlyphIndices())
	assert.Equal(t, FlagSubstituted|FlagDirty, coll.At(0).Flags)
	assert.Equal(t, GlyphFlags(0), coll.At(2).Flags)
	assert.Equal(t, []rune{'a'}, coll.At(0).CodePoints, "code-points are kept")
	assert.Equal(t, ot.BaseGlyph, coll.At(0).Class)
}

func TestMultipleSubstitution(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.layout")
	defer teardown()
	//
	otf, g := gsubFont(t, nil, func(g glyphs) []fontbuild.Lookup {
		return []fontbuild.Lookup{{Type: fontbuild.GSubMultiple, Subtables: [][]byte{
			fontbuild.MultipleSubst(map[uint16][]uint16{g.a: {g.x1, g.x2}}),
		}}}
	})
	coll := collect(otf, "bab")
	applyTest(t, otf, coll)
	require.Equal(t, ids(g.b, g.x1, g.x2, g.b), coll.GlyphIndices())
	offsets := make([]int, coll.Len())
	for i, gsd := range coll.Glyphs() {
		offsets[i] = gsd.Offset
	}
	assert.Equal(t, []int{0, 1, 1, 2}, offsets, "results share the offset of the input glyph")
	assert.Equal(t, []rune{'a'}, coll.At(1).CodePoints)
	assert.Nil(t, coll.At(2).CodePoints)
	assert.NotZero(t, coll.At(2).Flags&FlagMultiplied)
	assert.True(t, coll.Sorted())
}

func TestAlternateSubstitution(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.layout")
	defer teardown()
	//
	otf, g := gsubFont(t, nil, func(g glyphs) []fontbuild.Lookup {
		return []fontbuild.Lookup{{Type: fontbuild.GSubAlternate, Subtables: [][]byte{
			fontbuild.AlternateSubst(map[uint16][]uint16{g.a: {g.alt1, g.alt2}}),
		}}}
	})
	for alt, expected := range map[int]uint16{0: g.alt1, 1: g.alt2, 7: g.alt2, -1: g.alt1} {
		coll := collect(otf, "a")
		steps := CollectLookups(otf, GSubFeatureType, 0, 0, []FeatureRequest{
			{Tag: ot.T("test"), Mask: GlobalMask, Alternate: alt},
		})
		require.NoError(t, ApplyLookups(otf, GSubFeatureType, coll, steps, Options{}))
		assert.Equal(t, ids(expected), coll.GlyphIndices(), "alternate %d", alt)
	}
}

func TestLigatureSubstitution(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.layout")
	defer teardown()
	//
	otf, g := gsubFont(t, nil, func(g glyphs) []fontbuild.Lookup {
		return []fontbuild.Lookup{{Type: fontbuild.GSubLigature, Subtables: [][]byte{
			fontbuild.LigatureSubst([]fontbuild.Ligature{
				{Components: []uint16{g.f, g.i}, Glyph: g.fi},
				{Components: []uint16{g.f, g.f, g.i}, Glyph: g.ffi},
				{Components: []uint16{g.f, g.l}, Glyph: g.fl},
			}),
		}}}
	})
	coll := collect(otf, "affi")
	applyTest(t, otf, coll)
	require.Equal(t, ids(g.a, g.ffi), coll.GlyphIndices(), "longest ligature wins")
	lig := coll.At(1)
	assert.Equal(t, []rune("ffi"), lig.CodePoints)
	assert.Equal(t, 1, lig.Offset)
	assert.Equal(t, uint16(3), lig.LigComponents)
	assert.NotZero(t, lig.LigatureID)
	assert.Equal(t, ot.LigatureGlyph, lig.Class)
	assert.NotZero(t, lig.Flags&FlagLigated)
	//
	coll = collect(otf, "fflfi")
	applyTest(t, otf, coll)
	assert.Equal(t, ids(g.f, g.fl, g.fi), coll.GlyphIndices())
	assert.Equal(t, 3, coll.At(2).Offset)
	assert.True(t, coll.Sorted())
}

func TestPerSyllableLigature(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.layout")
	defer teardown()
	//
	otf, g := gsubFont(t, nil, func(g glyphs) []fontbuild.Lookup {
		return []fontbuild.Lookup{{Type: fontbuild.GSubLigature, Subtables: [][]byte{
			fontbuild.LigatureSubst([]fontbuild.Ligature{{Components: []uint16{g.f, g.i}, Glyph: g.fi}}),
		}}}
	})
	coll := collect(otf, "fifi")
	for i, syl := range []uint16{1, 2, 3, 3} {
		coll.At(i).Syllable = syl
	}
	steps := CollectLookups(otf, GSubFeatureType, 0, 0, []FeatureRequest{
		{Tag: ot.T("test"), Mask: GlobalMask, PerSyllable: true},
	})
	require.Len(t, steps, 1)
	require.NoError(t, ApplyLookups(otf, GSubFeatureType, coll, steps, Options{}))
	assert.Equal(t, ids(g.f, g.i, g.fi), coll.GlyphIndices(), "no ligature across syllables")
	//
	assert.True(t, WouldSubstitute(otf, ot.T("test"), 0, 0, ids(g.f, g.i)))
	assert.False(t, WouldSubstitute(otf, ot.T("test"), 0, 0, ids(g.i, g.f)))
	assert.False(t, WouldSubstitute(otf, ot.T("liga"), 0, 0, ids(g.f, g.i)))
}

func TestLigatureWithMarks(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.layout")
	defer teardown()
	//
	lookup := func(flag, set uint16) func(g glyphs) []fontbuild.Lookup {
		return func(g glyphs) []fontbuild.Lookup {
			return []fontbuild.Lookup{{Type: fontbuild.GSubLigature, Flag: flag, MarkFilteringSet: set,
				Subtables: [][]byte{fontbuild.LigatureSubst([]fontbuild.Ligature{
					{Components: []uint16{g.f, g.i}, Glyph: g.fi},
				})},
			}}
		}
	}
	otf, g := gsubFont(t, nil, lookup(fontbuild.FlagIgnoreMarks, 0))
	coll := collect(otf, "f\u0301i\u0300")
	applyTest(t, otf, coll)
	require.Equal(t, ids(g.fi, g.acute, g.grave), coll.GlyphIndices())
	lig, m1, m2 := coll.At(0), coll.At(1), coll.At(2)
	assert.Equal(t, lig.LigatureID, m1.LigatureID, "skipped mark belongs to ligature")
	assert.Equal(t, uint16(1), m1.LigComponent)
	assert.Equal(t, lig.LigatureID, m2.LigatureID)
	assert.Equal(t, uint16(2), m2.LigComponent, "trailing mark belongs to last component")
	assert.Equal(t, 1, m1.Offset, "skipped mark keeps its offset")
	//
	otf, g = gsubFont(t, nil, func(g glyphs) []fontbuild.Lookup {
		return lookup(0, 0)(g)
	})
	coll = collect(otf, "f\u0301i")
	applyTest(t, otf, coll)
	assert.Equal(t, ids(g.f, g.acute, g.i), coll.GlyphIndices(), "marks not ignored")
	//
	otf, g = gsubFont(t, nil, lookup(fontbuild.FlagUseMarkFilter, 0))
	coll = collect(otf, "f\u0300i")
	applyTest(t, otf, coll)
	assert.Equal(t, ids(g.fi, g.grave), coll.GlyphIndices(), "grave not in mark filtering set")
	coll = collect(otf, "f\u0301i")
	applyTest(t, otf, coll)
	assert.Equal(t, ids(g.f, g.acute, g.i), coll.GlyphIndices(), "acute in mark filtering set")
	//
	otf, g = gsubFont(t, nil, lookup(0x0100, 0)) // mark attachment type 1
	coll = collect(otf, "f\u0327i")
	applyTest(t, otf, coll)
	assert.Equal(t, ids(g.fi, g.cedilla), coll.GlyphIndices(), "cedilla of attachment class 2 skipped")
	coll = collect(otf, "f\u0301i")
	applyTest(t, otf, coll)
	assert.Equal(t, ids(g.f, g.acute, g.i), coll.GlyphIndices())
}

func TestContextSubstitution(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.layout")
	defer teardown()
	//
	otf, g := gsubFont(t, []uint16{0}, func(g glyphs) []fontbuild.Lookup {
		return []fontbuild.Lookup{
			{Type: fontbuild.GSubContext, Subtables: [][]byte{
				fontbuild.ContextFormat1(map[uint16][]uint16{g.a: {g.b}},
					[]fontbuild.SeqLookup{{SequenceIndex: 0, LookupIndex: 1}, {SequenceIndex: 1, LookupIndex: 2}}),
			}},
			single(map[uint16]uint16{g.a: g.alt1}),
			single(map[uint16]uint16{g.b: g.c}),
		}
	})
	coll := collect(otf, "abbab")
	applyTest(t, otf, coll)
	assert.Equal(t, ids(g.alt1, g.c, g.b, g.alt1, g.c), coll.GlyphIndices())
	assert.Equal(t, []ot.Tag{ot.T("test")}, coll.At(1).Features)
}

func TestContextWithMultipleSubstitution(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.layout")
	defer teardown()
	//
	otf, g := gsubFont(t, []uint16{0}, func(g glyphs) []fontbuild.Lookup {
		return []fontbuild.Lookup{
			{Type: fontbuild.GSubContext, Subtables: [][]byte{
				fontbuild.ContextFormat3([][]uint16{{g.a}, {g.b}, {g.c}},
					[]fontbuild.SeqLookup{{SequenceIndex: 0, LookupIndex: 1}, {SequenceIndex: 3, LookupIndex: 2}}),
			}},
			{Type: fontbuild.GSubMultiple, Subtables: [][]byte{
				fontbuild.MultipleSubst(map[uint16][]uint16{g.a: {g.x1, g.x2}}),
			}},
			single(map[uint16]uint16{g.c: g.alt1}),
		}
	})
	coll := collect(otf, "abcc")
	applyTest(t, otf, coll)
	assert.Equal(t, ids(g.x1, g.x2, g.b, g.alt1, g.c), coll.GlyphIndices(),
		"sequence indices refer to the sequence after insertion")
}

func TestChainedContextSubstitution(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.layout")
	defer teardown()
	//
	otf, g := gsubFont(t, []uint16{0}, func(g glyphs) []fontbuild.Lookup {
		return []fontbuild.Lookup{
			{Type: fontbuild.GSubChaining, Flag: fontbuild.FlagIgnoreMarks, Subtables: [][]byte{
				fontbuild.ChainContextFormat3([][]uint16{{g.b}}, [][]uint16{{g.a}}, [][]uint16{{g.c}},
					[]fontbuild.SeqLookup{{SequenceIndex: 0, LookupIndex: 1}}),
			}},
			single(map[uint16]uint16{g.a: g.alt1}),
		}
	})
	for input, expected := range map[string][]uint16{
		"bac":             {g.b, g.alt1, g.c},
		"bab":             {g.b, g.a, g.b},
		"cac":             {g.c, g.a, g.c},
		"b\u0301a\u0300c": {g.b, g.acute, g.alt1, g.grave, g.c},
	} {
		coll := collect(otf, input)
		applyTest(t, otf, coll)
		assert.Equal(t, ids(expected...), coll.GlyphIndices(), "input %q", input)
	}
}

func TestReverseChainingSubstitution(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.layout")
	defer teardown()
	//
	otf, g := gsubFont(t, nil, func(g glyphs) []fontbuild.Lookup {
		return []fontbuild.Lookup{{Type: fontbuild.GSubReverse, Subtables: [][]byte{
			fontbuild.ReverseChainSubst([]uint16{g.a}, nil, [][]uint16{{g.alt1, g.b}}, []uint16{g.alt1}),
		}}}
	})
	coll := collect(otf, "aaab")
	applyTest(t, otf, coll)
	assert.Equal(t, ids(g.alt1, g.alt1, g.alt1, g.b), coll.GlyphIndices(), "applied from the end")
}

func TestExtensionSubstitution(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.layout")
	defer teardown()
	//
	otf, g := gsubFont(t, nil, func(g glyphs) []fontbuild.Lookup {
		return []fontbuild.Lookup{{Type: fontbuild.GSubExtension, Subtables: [][]byte{
			fontbuild.Extension(fontbuild.GSubSingle, fontbuild.SingleSubst(map[uint16]uint16{g.c: g.a})),
		}}}
	})
	coll := collect(otf, "cc")
	applyTest(t, otf, coll)
	assert.Equal(t, ids(g.a, g.a), coll.GlyphIndices())
}

func TestRecursiveLookupIsBounded(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.layout")
	defer teardown()
	tracing.Select("opentype.layout").SetTraceLevel(tracing.LevelError)
	//
	otf, _ := gsubFont(t, nil, func(g glyphs) []fontbuild.Lookup {
		return []fontbuild.Lookup{{Type: fontbuild.GSubContext, Subtables: [][]byte{
			fontbuild.ContextFormat3([][]uint16{{g.a}}, []fontbuild.SeqLookup{{SequenceIndex: 0, LookupIndex: 0}}),
		}}}
	})
	coll := collect(otf, strings.Repeat("a", 1000))
	steps := CollectLookups(otf, GSubFeatureType, 0, 0, []FeatureRequest{{Tag: ot.T("test"), Mask: GlobalMask}})
	err := ApplyLookups(otf, GSubFeatureType, coll, steps, Options{})
	assert.True(t, errors.Is(err, ErrShapingLimit), "error is %v", err)
	assert.True(t, errors.Is(coll.Err(), ErrShapingLimit))
	assert.Equal(t, 1000, coll.Len())
}

func TestGrowthIsBounded(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.layout")
	defer teardown()
	tracing.Select("opentype.layout").SetTraceLevel(tracing.LevelError)
	//
	otf, _ := gsubFont(t, nil, func(g glyphs) []fontbuild.Lookup {
		double := fontbuild.Lookup{Type: fontbuild.GSubMultiple, Subtables: [][]byte{
			fontbuild.MultipleSubst(map[uint16][]uint16{g.a: {g.a, g.a}}),
		}}
		return []fontbuild.Lookup{double, double, double, double, double, double}
	})
	coll := collect(otf, strings.Repeat("a", 300))
	steps := CollectLookups(otf, GSubFeatureType, 0, 0, []FeatureRequest{{Tag: ot.T("test"), Mask: GlobalMask}})
	require.Len(t, steps, 6)
	err := ApplyLookups(otf, GSubFeatureType, coll, steps, Options{})
	assert.True(t, errors.Is(err, ErrShapingLimit), "error is %v", err)
	assert.LessOrEqual(t, coll.Len(), MaxLength(300))
	assert.True(t, coll.Sorted())
}
