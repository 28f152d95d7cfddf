package otarabic

import (
	"testing"

	"github.com/npillmayer/opentext/ot"
	"github.com/stretchr/testify/assert"
)

func TestReorderMarksMovesMCMToFront(t *testing.T) {
	// FATHA (30), HAMZA ABOVE (MCM, 230), SMALL HIGH DOTLESS HEAD OF KHAH (230)
	run := newTestRun([]ot.GlyphIndex{1, 2, 3}, []rune{0x064E, 0x0654, 0x06E1})
	run.glyphs[0].Offset, run.glyphs[1].Offset, run.glyphs[2].Offset = 3, 4, 5
	var s Shaper
	s.ReorderMarks(run, 0, run.Len())
	assert.Equal(t, []rune{0x0654, 0x064E, 0x06E1}, run.codepoints())
	assert.Equal(t, run.glyphs[0].Offset, run.glyphs[1].Offset, "moved marks share a cluster")
	assert.Equal(t, 5, run.glyphs[2].Offset)
}

func TestReorderMarksNoopWhenBucketStartsNonMCM(t *testing.T) {
	run := newTestRun([]ot.GlyphIndex{1, 2, 3}, []rune{0x064E, 0x06E1, 0x0654})
	var s Shaper
	s.ReorderMarks(run, 0, run.Len())
	assert.Equal(t, []rune{0x064E, 0x06E1, 0x0654}, run.codepoints())
	assert.Equal(t, []ot.GlyphIndex{1, 2, 3}, run.glyphIDs())
}
