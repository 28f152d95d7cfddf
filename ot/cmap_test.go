package ot

import (
	"testing"

	"github.com/npillmayer/opentext/internal/fontbuild"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCMapLookup(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	otf, g := parseTestFont(t)
	assert.Equal(t, GlyphIndex(g.A), otf.CMap.Lookup('A'))
	assert.Equal(t, GlyphIndex(g.Acute), otf.CMap.Lookup(0x301))
	assert.Equal(t, GlyphIndex(0), otf.CMap.Lookup('Z'), "unmapped codepoint must map to .notdef")
	assert.Equal(t, GlyphIndex(0), otf.CMap.Lookup(0x10FFFF))
	assert.Equal(t, GlyphIndex(0), otf.CMap.Lookup(-1))
}

func TestCMapSupplementaryPlane(t *testing.T) {
	b := fontbuild.New()
	emoji := b.AddGlyph(fontbuild.Glyph{Name: "smile", Advance: 1000, Contours: fontbuild.Rect(0, 0, 1000, 1000)})
	b.Map(0x1F600, emoji)
	otf, err := Parse(b.Build())
	require.NoError(t, err)
	assert.Equal(t, GlyphIndex(emoji), otf.CMap.Lookup(0x1F600))
	assert.Equal(t, GlyphIndex(0), otf.CMap.Lookup(0x1F601))
}

func TestCMapVariationSequences(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	b := fontbuild.New()
	text := b.AddGlyph(fontbuild.Glyph{Name: "heart", Advance: 800, Contours: fontbuild.Rect(0, 0, 800, 700)})
	emoji := b.AddGlyph(fontbuild.Glyph{Name: "heart.emoji", Advance: 1000, Contours: fontbuild.Rect(0, 0, 1000, 900)})
	b.Map(0x2764, text)
	b.DefaultVariant(0x2764, 0xFE0E)
	b.MapVariant(0x2764, 0xFE0F, emoji)
	otf, err := Parse(b.Build())
	require.NoError(t, err)
	require.NotNil(t, otf.CMap.Variations)
	gid, found := otf.CMap.LookupVariant(0x2764, 0xFE0F)
	assert.True(t, found)
	assert.Equal(t, GlyphIndex(emoji), gid)
	gid, found = otf.CMap.LookupVariant(0x2764, 0xFE0E)
	assert.True(t, found)
	assert.Equal(t, GlyphIndex(text), gid, "default variation maps to base glyph")
	_, found = otf.CMap.LookupVariant(0x2764, 0xFE00)
	assert.False(t, found)
	_, found = otf.CMap.LookupVariant('A', 0xFE0F)
	assert.False(t, found)
}

func TestIsVariationSelector(t *testing.T) {
	for _, r := range []rune{0xFE00, 0xFE0F, 0xE0100, 0xE01EF, 0x180B} {
		assert.True(t, IsVariationSelector(r), "%U", r)
	}
	for _, r := range []rune{'A', 0xFDFF, 0xFE10, 0xE01F0} {
		assert.False(t, IsVariationSelector(r), "%U", r)
	}
}
