package otshape

import (
	"testing"

	"github.com/npillmayer/opentext/internal/fontbuild"
	"github.com/npillmayer/opentext/ot"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/suite"
	"golang.org/x/text/language"
)

// --- Test Suite Preparation ------------------------------------------------

type LanguageTestEnviron struct {
	suite.Suite
	oldIndic *ot.Font
	newIndic *ot.Font
}

// listen for 'go test' command --> run test methods
func TestLanguageFunctions(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.shaper")
	defer teardown()
	suite.Run(t, new(LanguageTestEnviron))
}

// run once, before test suite methods
func (env *LanguageTestEnviron) SetupSuite() {
	env.T().Log("Setting up test suite")
	tracing.Select("opentype.shaper").SetTraceLevel(tracing.LevelError)
	face, _ := testFace(env.T(), fontSetup{gsub: true, scripts: []fontbuild.Script{{Tag: "deva"}, {Tag: "latn"}}})
	env.oldIndic = face.Font()
	face, _ = testFace(env.T(), fontSetup{gsub: true, scripts: []fontbuild.Script{{Tag: "dev2"}, {Tag: "deva"}}})
	env.newIndic = face.Font()
	tracing.Select("opentype.shaper").SetTraceLevel(tracing.LevelInfo)
}

// run once, after test suite methods
func (env *LanguageTestEnviron) TearDownSuite() {
	env.T().Log("Tearing down test suite")
}

// --- Tests -----------------------------------------------------------------

func (env *LanguageTestEnviron) TestLanguageTagForLanguage() {
	langs := []struct {
		in  string
		out string
	}{
		{"DE", "DEU"},
		{"DE_de", "DEU"},
		{"DE_ch", "DEU"},
		{"EN_us", "ENG"},
		{"es", "ESP"},
		{"tr", "TRK"},
		{"zh-Hant", "ZHT"},
		{"zh-HK", "ZHH"},
		{"zh", "ZHS"},
	}
	for _, pair := range langs {
		tag := LanguageTagForLanguage(language.Make(pair.in), language.High)
		env.Equal(ot.T(pair.out).String(), tag.String(), "expected language match %s", pair.out)
	}
	env.Equal(ot.Tag(0), LanguageTagForLanguage(language.Und, language.High))
}

func (env *LanguageTestEnviron) TestScriptTagForScript() {
	scripts := []struct {
		in  string
		out ot.Tag
	}{
		{"Latn", ot.T("latn")},
		{"Arab", ot.T("arab")},
		{"Deva", ot.T("dev2")},
		{"Hira", ot.T("kana")},
		{"Laoo", ot.T("lao ")},
		{"Zyyy", ot.DFLT},
	}
	for _, pair := range scripts {
		tag := ScriptTagForScript(language.MustParseScript(pair.in))
		env.Equal(pair.out, tag, "script %s", pair.in)
	}
}

func (env *LanguageTestEnviron) TestScriptTagForFont() {
	deva := language.MustParseScript("Deva")
	env.Equal(ot.T("deva"), scriptTagForFont(env.oldIndic, deva), "old shaping model")
	env.Equal(ot.T("dev2"), scriptTagForFont(env.newIndic, deva), "new shaping model")
	env.Equal(ot.T("latn"), scriptTagForFont(env.newIndic, language.MustParseScript("Latn")))
}
