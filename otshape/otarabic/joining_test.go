package otarabic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveJoiningForms(t *testing.T) {
	for _, tc := range []struct {
		name string
		text []rune
		want []int
	}{
		{"beh beh beh", []rune{'\u0628', '\u0628', '\u0628'}, []int{formInit, formMedi, formFina}},
		{"beh alef", []rune{'\u0628', '\u0627'}, []int{formInit, formFina}},
		{"alef beh", []rune{'\u0627', '\u0628'}, []int{formIsol, formIsol}},
		{"transparent mark", []rune{'\u0628', '\u064E', '\u0628'}, []int{formInit, formNone, formFina}},
		{"zwnj", []rune{'\u0628', '\u200C', '\u0628'}, []int{formIsol, formNone, formIsol}},
		{"tatweel", []rune{'\u0628', '\u0640'}, []int{formInit, formNone}},
		{"latin", []rune{'A', 'B'}, []int{formNone, formNone}},
		{"alaph after dalath", []rune{'\u0715', '\u0710'}, []int{formIsol, formFin3}},
		{"alaph after beth", []rune{'\u0712', '\u0710'}, []int{formInit, formFina}},
		{"alaph after waw", []rune{'\u0718', '\u0710'}, []int{formIsol, formFin2}},
		{"alaph between", []rune{'\u0718', '\u0710', '\u0712'}, []int{formIsol, formIsol, formIsol}},
		{"alaph medial", []rune{'\u0712', '\u0710', '\u0712'}, []int{formInit, formMed2, formIsol}},
	} {
		assert.Equal(t, tc.want, resolveJoiningForms(tc.text), tc.name)
	}
}

func TestPresentationForms(t *testing.T) {
	forms := presentationForms()
	beh := forms['\u0628']
	assert.Equal(t, rune(0xFE8F), beh[formIsol])
	assert.Equal(t, rune(0xFE90), beh[formFina])
	assert.Equal(t, rune(0xFE91), beh[formInit])
	assert.Equal(t, rune(0xFE92), beh[formMedi])
	hamza := forms['\u0623']
	assert.Equal(t, rune(0xFE84), hamza[formFina], "alef with hamza above is a letter of its own")
	assert.Zero(t, presentationBaseRune(0xFEFB), "lam-alef is a ligature")
}
