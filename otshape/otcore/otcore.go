package otcore

import (
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/bidi"

	"github.com/npillmayer/opentext/otshape"
)

// Shaper is the core engine. It applies the default features of the
// shaping plan and nothing else.
type Shaper struct{}

var _ otshape.ShapingEngine = Shaper{}
var _ otshape.ShapingEnginePolicy = Shaper{}

// simpleScripts are scripts which need no reordering or contextual forms
// beyond what the font's lookups do on their own. The core engine is the
// preferred engine for these.
var simpleScripts = map[language.Script]bool{}

func init() {
	for _, s := range []string{"Latn", "Grek", "Cyrl", "Armn", "Geor", "Hani", "Hira", "Kana", "Zyyy", "Zinh"} {
		simpleScripts[language.MustParseScript(s)] = true
	}
}

// New returns the core shaping engine.
func New() otshape.ShapingEngine {
	return Shaper{}
}

func (Shaper) Name() string {
	return "core"
}

// Match is highly confident for simple scripts and makes a low bid for all
// other runs, for engines with script knowledge to outvote it. Runs of mixed
// direction are not shaped.
func (Shaper) Match(ctx otshape.SelectionContext) otshape.ShaperConfidence {
	switch {
	case ctx.Direction == bidi.Mixed:
		return otshape.ShaperConfidenceNone
	case simpleScripts[ctx.Script]:
		return otshape.ShaperConfidenceHigh
	}
	return otshape.ShaperConfidenceLow
}

func (Shaper) New() otshape.ShapingEngine {
	return Shaper{}
}

func (Shaper) NormalizationPreference() otshape.NormalizationMode {
	return otshape.NormalizationAuto
}

func (Shaper) ApplyGPOS() bool {
	return true
}
