package otindic

import (
	"github.com/npillmayer/opentext/otshape"
	"github.com/npillmayer/opentext/otshape/internal/syllable"
)

// Syllable types.
const (
	consonantSyllable uint8 = iota
	vowelSyllable
	standaloneCluster
	symbolCluster
	brokenCluster
	nonIndicCluster
)

var machine = newMachine()

func newMachine() *syllable.Machine {
	cat, seq, alt := syllable.Cat, syllable.Seq, syllable.Alt
	opt, star := syllable.Opt, syllable.Star
	c := cat(catC, catRa)
	n := seq(opt(seq(opt(cat(catZWNJ)), cat(catRS))), opt(seq(cat(catN), opt(cat(catN)))))
	z := cat(catZWJ, catZWNJ)
	reph := alt(seq(cat(catRa), cat(catH)), cat(catRepha))
	sm := cat(catSM, catSMPst)
	cn := seq(c, opt(cat(catZWJ)), opt(n))
	symbol := seq(cat(catSymbol), opt(cat(catN)))
	matraGroup := seq(star(z), alt(cat(catM), seq(opt(sm), cat(catMPst))), opt(cat(catN)), opt(cat(catH)))
	syllableTail := seq(opt(seq(opt(z), sm, opt(sm), opt(cat(catZWNJ)))), star(cat(catA)))
	halantGroup := seq(opt(z), cat(catH), opt(seq(cat(catZWJ), opt(cat(catN)))))
	finalHalantGroup := alt(halantGroup, seq(cat(catH), cat(catZWNJ)))
	medialGroup := opt(cat(catCM))
	halantOrMatraGroup := alt(finalHalantGroup, star(matraGroup))
	tail := seq(star(seq(halantGroup, cn)), medialGroup, halantOrMatraGroup, syllableTail)
	return &syllable.Machine{
		Rules: []syllable.Rule{
			{Type: consonantSyllable, Pattern: seq(opt(cat(catRepha, catCS)), cn, tail)},
			{Type: vowelSyllable, Pattern: seq(opt(reph), cat(catV), opt(n), alt(cat(catZWJ), tail))},
			{Type: standaloneCluster, Pattern: seq(
				alt(seq(opt(cat(catRepha, catCS)), cat(catPlaceholder)), seq(opt(reph), cat(catDottedCircle))),
				opt(n), tail)},
			{Type: symbolCluster, Pattern: seq(symbol, syllableTail)},
			{Type: brokenCluster, Pattern: seq(opt(reph), opt(n), tail)},
		},
		Fallback: nonIndicCluster,
	}
}

// findSyllables stores the syllable serial numbers of a run.
func findSyllables(run otshape.RunContext) {
	cats := make([]uint8, run.Len())
	index := make([]int, run.Len())
	for i := range cats {
		cats[i], index[i] = run.Info(i).Category, i
	}
	machine.Assign(run, cats, index)
}
