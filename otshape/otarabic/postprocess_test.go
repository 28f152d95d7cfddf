package otarabic

import (
	"testing"

	"github.com/npillmayer/opentext/ot"
	"github.com/npillmayer/opentext/otlayout"
	"github.com/npillmayer/opentext/otshape"
	"github.com/stretchr/testify/assert"
)

func TestFormGlyphsMapExtendedForms(t *testing.T) {
	table := map[rune]formGlyphs{
		'\u0628': {formIsol: 11, formFina: 12, formMedi: 13, formInit: 14},
		'\u0627': {formIsol: 21},
	}
	gid, ok := table['\u0628'].glyph(formFin2)
	assert.True(t, ok)
	assert.Equal(t, ot.GlyphIndex(12), gid)
	gid, _ = table['\u0628'].glyph(formMed2)
	assert.Equal(t, ot.GlyphIndex(13), gid)
	gid, _ = table['\u0628'].glyph(formNone)
	assert.Equal(t, ot.GlyphIndex(11), gid)
	gid, _ = table['\u0627'].glyph(formFina)
	assert.Equal(t, ot.GlyphIndex(21), gid, "isolated form as last resort")
	_, ok = table['\u062C'].glyph(formFina)
	assert.False(t, ok)
}

func fallbackShaper(forms []int) *Shaper {
	return &Shaper{
		plan: arabicPlan{
			fallback: true,
			presentation: map[rune]formGlyphs{
				'\u0628': {formInit: 41, formMedi: 42, formFina: 43, formIsol: 44},
			},
		},
		forms: forms,
	}
}

func TestPostprocessRunAppliesFallbackGlyphsForNotdef(t *testing.T) {
	s := fallbackShaper([]int{formInit, formMedi, formFina})
	run := newTestRun([]ot.GlyphIndex{0, 0, 0}, []rune{'\u0628', '\u0628', '\u0628'})
	s.PostprocessRun(run)
	assert.Equal(t, []ot.GlyphIndex{41, 42, 43}, run.glyphIDs())
	assert.Empty(t, s.forms, "prepared forms are cleared after postprocessing")
}

func TestPostprocessRunReplacesUnshapedForms(t *testing.T) {
	s := fallbackShaper([]int{formInit, formFina})
	s.plan.emulated[formInit] = true
	run := newTestRun([]ot.GlyphIndex{99, 98}, []rune{'\u0628', '\u0628'})
	s.PostprocessRun(run)
	assert.Equal(t, []ot.GlyphIndex{41, 98}, run.glyphIDs(), "font has 'fina'")
	//
	s = fallbackShaper([]int{formInit})
	s.plan.emulated[formInit] = true
	run = newTestRun([]ot.GlyphIndex{99}, []rune{'\u0628'})
	run.glyphs[0].Flags |= otlayout.FlagSubstituted
	s.PostprocessRun(run)
	assert.Equal(t, []ot.GlyphIndex{99}, run.glyphIDs(), "substituted glyphs are kept")
}

func TestPostprocessRunWithoutFallback(t *testing.T) {
	s := fallbackShaper([]int{formInit})
	s.plan.fallback = false
	run := newTestRun([]ot.GlyphIndex{0}, []rune{'\u0628'})
	s.PostprocessRun(run)
	assert.Equal(t, []ot.GlyphIndex{otshape.NOTDEF}, run.glyphIDs())
	//
	s = fallbackShaper([]int{formFina})
	run = newTestRun([]ot.GlyphIndex{0}, []rune{'\u062C'})
	s.PostprocessRun(run)
	assert.Equal(t, []ot.GlyphIndex{otshape.NOTDEF}, run.glyphIDs(), "no presentation form for jeem")
}

type fallbackPlanProbe struct {
	fallback map[ot.Tag]bool
}

func (p fallbackPlanProbe) Font() *ot.Font                              { return nil }
func (p fallbackPlanProbe) Selection() otshape.SelectionContext         { return otshape.SelectionContext{} }
func (p fallbackPlanProbe) FeatureMask(tag ot.Tag) otlayout.FeatureMask { return 0 }
func (p fallbackPlanProbe) FeatureNeedsFallback(tag ot.Tag) bool        { return p.fallback[tag] }

func TestPlanNeedsArabicFallback(t *testing.T) {
	for _, tc := range []struct {
		name string
		fb   map[ot.Tag]bool
		want bool
	}{
		{name: "none", fb: map[ot.Tag]bool{}, want: false},
		{name: "rlig", fb: map[ot.Tag]bool{tagRlig: true}, want: true},
		{name: "form", fb: map[ot.Tag]bool{tagInit: true}, want: true},
	} {
		assert.Equal(t, tc.want, planNeedsArabicFallback(fallbackPlanProbe{fallback: tc.fb}), tc.name)
	}
}

func TestExpandTatweelForStch(t *testing.T) {
	run := newTestRun([]ot.GlyphIndex{10, 42, 20}, []rune{'a', '\u0640', 'b'})
	run.glyphs[1].Mask = 0x4
	assert.Equal(t, 1, expandTatweelForStch(run, 42, 0x4))
	assert.Equal(t, []ot.GlyphIndex{10, 42, 42, 20}, run.glyphIDs())
	assert.Equal(t, otlayout.FeatureMask(0x4), run.glyphs[2].Mask)
	//
	run = newTestRun([]ot.GlyphIndex{42}, []rune{'\u0640'})
	run.glyphs[0].Mask = 0
	assert.Zero(t, expandTatweelForStch(run, 42, 0x4), "not subject to stch")
	assert.Equal(t, 1, run.Len())
}
