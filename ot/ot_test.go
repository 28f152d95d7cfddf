package ot

import (
	"errors"
	"testing"

	"github.com/npillmayer/opentext/internal/fontbuild"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testGlyphs are the glyph indices of the font built by buildTestFont.
type testGlyphs struct {
	A, B, F, I, FI, Acute, Space uint16
}

// buildTestFont creates a small TrueType font with a ligature and a pair kerning
// feature. It returns the builder, so tests may add tables before calling Build.
func buildTestFont() (*fontbuild.Builder, testGlyphs) {
	b := fontbuild.New()
	var g testGlyphs
	g.A = b.AddGlyph(fontbuild.Glyph{Name: "A", Advance: 600, Contours: fontbuild.Rect(50, 0, 550, 700)})
	g.B = b.AddGlyph(fontbuild.Glyph{Name: "B", Advance: 550, Contours: fontbuild.Rect(60, 0, 500, 700)})
	g.F = b.AddGlyph(fontbuild.Glyph{Name: "f", Advance: 300, Contours: fontbuild.Rect(30, 0, 280, 720)})
	g.I = b.AddGlyph(fontbuild.Glyph{Name: "i", Advance: 250, Contours: fontbuild.Rect(40, 0, 210, 680)})
	g.FI = b.AddGlyph(fontbuild.Glyph{Name: "fi", Advance: 520, Contours: fontbuild.Rect(30, 0, 490, 720)})
	g.Acute = b.AddGlyph(fontbuild.Glyph{Name: "acutecomb", Advance: 0, Contours: fontbuild.Rect(-150, 750, -50, 850)})
	g.Space = b.AddGlyph(fontbuild.Glyph{Name: "space", Advance: 250})
	b.Map('A', g.A)
	b.Map('B', g.B)
	b.Map('f', g.F)
	b.Map('i', g.I)
	b.Map(0x301, g.Acute)
	b.Map(' ', g.Space)
	b.Table("GSUB", fontbuild.LayoutTable(
		[]fontbuild.Script{{Tag: "DFLT"}, {Tag: "latn", Languages: map[string][]uint16{"TRK ": {}}}},
		[]fontbuild.Feature{{Tag: "liga", Lookups: []uint16{0}}},
		[]fontbuild.Lookup{{
			Type:      fontbuild.GSubLigature,
			Subtables: [][]byte{fontbuild.LigatureSubst([]fontbuild.Ligature{{Components: []uint16{g.F, g.I}, Glyph: g.FI}})},
		}},
	))
	b.Table("GPOS", fontbuild.LayoutTable(nil,
		[]fontbuild.Feature{{Tag: "kern", Lookups: []uint16{0}}},
		[]fontbuild.Lookup{{
			Type:      fontbuild.GPosPair,
			Subtables: [][]byte{fontbuild.PairPos(map[[2]uint16]fontbuild.Value{{g.A, g.B}: {XAdvance: -40}})},
		}},
	))
	b.Table("GDEF", fontbuild.GDEF(map[uint16]uint16{
		g.A: 1, g.B: 1, g.F: 1, g.I: 1, g.FI: 2, g.Acute: 3,
	}, nil, nil))
	return b, g
}

func parseTestFont(t *testing.T) (*Font, testGlyphs) {
	b, g := buildTestFont()
	otf, err := Parse(b.Build())
	require.NoError(t, err)
	return otf, g
}

func TestLookupTypeString(t *testing.T) {
	assert.Equal(t, "Chaining", GSubLookupTypeChainingContext.GSubString())
	assert.Equal(t, "Reverse", GSubLookupTypeReverseChaining.GSubString())
	assert.Equal(t, "MarkToLigature", GPosLookupTypeMarkToLigature.GPosString())
}

func TestTags(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	tag := Tag(0x636d6170)
	if tag.String() != "cmap" {
		t.Errorf("expected tag 0x636d6170 to be 'cmap', is %s", tag.String())
	}
	if tag = MakeTag([]byte("cmap")); tag.String() != "cmap" {
		t.Errorf("expected tag MakeTag(cmap) to be 'cmap', is %s", tag.String())
	}
	if T("cmap") != tag {
		t.Errorf("expected T(cmap) to equal MakeTag(cmap)")
	}
	if T("CFF").String() != "CFF " {
		t.Errorf("expected short tag to be padded with spaces, is %q", T("CFF").String())
	}
}

func TestErrorSeverity(t *testing.T) {
	tests := []struct {
		severity ErrorSeverity
		expected string
	}{
		{SeverityCritical, "CRITICAL"},
		{SeverityMajor, "MAJOR"},
		{SeverityMinor, "MINOR"},
		{ErrorSeverity(999), "UNKNOWN"},
	}
	for _, tt := range tests {
		if result := tt.severity.String(); result != tt.expected {
			t.Errorf("ErrorSeverity(%d).String() = %q; want %q", tt.severity, result, tt.expected)
		}
	}
}

func TestFontErrorFormat(t *testing.T) {
	err := FontError{Table: T("GSUB"), Section: "LookupType6", Issue: "Buffer too small",
		Severity: SeverityCritical, Offset: 1234}
	assert.Equal(t, "[CRITICAL] GSUB/LookupType6 at offset 1234: Buffer too small", err.Error())
	assert.True(t, errors.Is(err, ErrInvalidFont))
	minor := FontError{Table: T("GDEF"), Section: "GlyphClassDef", Issue: "x", Severity: SeverityMinor}
	assert.Equal(t, "[MINOR] GDEF/GlyphClassDef: x", minor.Error())
	assert.False(t, errors.Is(minor, ErrInvalidFont))
	w := FontWarning{Table: T("loca"), Issue: "odd"}
	assert.Equal(t, "[WARNING] loca: odd", w.String())
}

func TestParseSyntheticFont(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	otf, g := parseTestFont(t)
	assert.Equal(t, SFNTVersionTrueType, otf.Header.FontType)
	assert.False(t, otf.Header.IsCFF())
	assert.True(t, otf.HasTrueTypeOutlines())
	assert.False(t, otf.IsVariable())
	assert.Equal(t, 8, otf.NumGlyphs())
	assert.Equal(t, uint16(1000), otf.Head.UnitsPerEm)
	assert.Equal(t, int16(800), otf.HHea.Ascender)
	assert.Equal(t, int16(-200), otf.HHea.Descender)
	require.NotNil(t, otf.OS2)
	assert.Equal(t, uint16(400), otf.OS2.WeightClass)
	assert.Equal(t, int16(500), otf.OS2.XHeight)
	assert.Equal(t, int16(700), otf.OS2.CapHeight)
	for i := 1; i < len(otf.Directory); i++ {
		assert.LessOrEqual(t, otf.Directory[i-1].Offset, otf.Directory[i].Offset, "directory sorted by offset")
	}
	adv, _, ok := otf.HMtx.HMetrics(GlyphIndex(g.A))
	assert.True(t, ok)
	assert.Equal(t, uint16(600), adv)
	_, _, ok = otf.HMtx.HMetrics(GlyphIndex(otf.NumGlyphs()))
	assert.False(t, ok, "metrics beyond glyph count")
	require.NotNil(t, otf.Layout.GSub)
	require.NotNil(t, otf.Layout.GPos)
	require.NotNil(t, otf.Layout.GDef)
	assert.NotNil(t, otf.Table(T("GSUB")).Self().AsGSub())
	assert.Nil(t, otf.Table(T("GSUB")).Self().AsGPos())
	assert.Nil(t, otf.Table(T("SVG ")))
	assert.Contains(t, otf.TableTags(), T("hmtx"))
	assert.Empty(t, otf.Errors())
}

func TestParseIsDeterministic(t *testing.T) {
	b, _ := buildTestFont()
	data := b.Build()
	f1, err := Parse(data)
	require.NoError(t, err)
	f2, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, f1.TableTags(), f2.TableTags())
	assert.Equal(t, f1.Directory, f2.Directory)
	for r := rune(0); r < 0x400; r++ {
		assert.Equal(t, f1.CMap.Lookup(r), f2.CMap.Lookup(r))
	}
}

func TestParseMissingRequiredTable(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	b, _ := buildTestFont()
	otf, err := Parse(b.Build())
	require.NoError(t, err)
	tables := make(map[string][]byte)
	for _, rec := range otf.Directory {
		if rec.Tag == T("hmtx") {
			continue
		}
		tables[rec.Tag.String()] = otf.Binary[rec.Offset : rec.Offset+rec.Length]
	}
	_, err = Parse(fontbuild.Assemble(SFNTVersionTrueType, tables))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidFont), "error should be ErrInvalidFont, is %v", err)
}

func TestParseTruncated(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	b, _ := buildTestFont()
	data := b.Build()
	for _, n := range []int{0, 3, 11, 30, len(data) / 2} {
		_, err := Parse(data[:n])
		require.Error(t, err, "truncated to %d bytes", n)
		assert.True(t, errors.Is(err, ErrInvalidFont), "truncated to %d bytes: %v", n, err)
	}
	_, err := Parse([]byte("this is not a font at all"))
	assert.True(t, errors.Is(err, ErrInvalidFont))
}

func TestParseWithTables(t *testing.T) {
	b, _ := buildTestFont()
	otf, err := Parse(b.Build(), WithTables(T("GPOS")))
	require.NoError(t, err)
	assert.Nil(t, otf.Layout.GSub)
	assert.NotNil(t, otf.Layout.GPos)
	assert.NotNil(t, otf.Glyf, "outline tables are always loaded")
	assert.Nil(t, otf.Post)
}

func TestParseCollection(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	b1, _ := buildTestFont()
	b2 := fontbuild.New()
	b2.FamilyName = "Second"
	b2.CFF = true
	x := b2.AddGlyph(fontbuild.Glyph{Name: "x", Advance: 500, Contours: fontbuild.Rect(0, 0, 500, 500)})
	b2.Map('x', x)
	data := fontbuild.Collection(b1.Build(), b2.Build())
	assert.True(t, IsCollection(data))
	n, err := CollectionSize(data)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	fonts, err := ParseCollection(data)
	require.NoError(t, err)
	require.Len(t, fonts, 2)
	assert.Equal(t, "Synthetic", fonts[0].Name.Name(NameFontFamily))
	assert.Equal(t, "Second", fonts[1].Name.Name(NameFontFamily))
	assert.True(t, fonts[1].Header.IsCFF())
	second, err := ParseAt(data, 1)
	require.NoError(t, err)
	assert.Equal(t, GlyphIndex(x), second.CMap.Lookup('x'))
	first, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, "Synthetic", first.Name.Name(NameFontFamily))
	_, err = ParseAt(data, 2)
	assert.Error(t, err)
	single, err := ParseCollection(b1.Build())
	require.NoError(t, err)
	assert.Len(t, single, 1)
}
