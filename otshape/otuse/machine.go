package otuse

import (
	"github.com/npillmayer/opentext/otshape"
	"github.com/npillmayer/opentext/otshape/internal/syllable"
)

// Cluster types.
const (
	viramaTerminatedCluster uint8 = iota
	sakotTerminatedCluster
	standardCluster
	numberJoinerTerminatedCluster
	numeralCluster
	symbolCluster
	brokenCluster
	nonCluster
)

var machine = newMachine()

func newMachine() *syllable.Machine {
	cat, seq, alt := syllable.Cat, syllable.Seq, syllable.Alt
	opt, star, plus := syllable.Opt, syllable.Star, syllable.Plus
	h := cat(catH, catHVM, catIS, catSk)
	consonantModifiers := seq(star(cat(catCMAbv)), star(cat(catCMBlw)),
		star(seq(alt(seq(h, cat(catB)), cat(catSUB)), star(cat(catCMAbv)), star(cat(catCMBlw)))))
	medialConsonants := seq(opt(cat(catMPre)), opt(cat(catMAbv)), opt(cat(catMBlw)), opt(cat(catMPst)))
	vowels := seq(star(cat(catVPre)), star(cat(catVAbv)), star(cat(catVBlw)), star(cat(catVPst)))
	dependentVowels := alt(seq(opt(cat(catZWNJ)), vowels), cat(catH))
	vowelModifiers := seq(opt(cat(catHVM)), star(cat(catVMPre)), star(cat(catVMAbv)), star(cat(catVMBlw)), star(cat(catVMPst)))
	finalConsonants := seq(star(cat(catFAbv)), star(cat(catFBlw)), star(cat(catFPst)))
	finalModifiers := alt(seq(star(cat(catFMAbv)), star(cat(catFMBlw))), opt(cat(catFMPst)))

	start := seq(opt(cat(catR, catCS)), cat(catB, catGB))
	middle := seq(consonantModifiers, medialConsonants, dependentVowels, vowelModifiers,
		star(seq(cat(catSk), cat(catB))))
	tail := seq(middle, finalConsonants, finalModifiers)
	// a ZWNJ of its own is no broken cluster
	brokenTail := seq(consonantModifiers, medialConsonants, alt(vowels, cat(catH)), vowelModifiers,
		star(seq(cat(catSk), cat(catB))), finalConsonants, finalModifiers)
	numberJoinerTail := seq(star(seq(cat(catHN), cat(catN))), cat(catHN))
	numeralTail := plus(seq(cat(catHN), cat(catN)))
	symbolTail := alt(seq(plus(cat(catSMAbv)), star(cat(catSMBlw))), plus(cat(catSMBlw)))
	viramaTail := seq(consonantModifiers, cat(catIS))
	sakotTail := seq(middle, cat(catSk))

	return &syllable.Machine{
		Rules: []syllable.Rule{
			{Type: viramaTerminatedCluster, Pattern: seq(start, viramaTail)},
			{Type: sakotTerminatedCluster, Pattern: seq(start, sakotTail)},
			{Type: standardCluster, Pattern: seq(start, tail)},
			{Type: numberJoinerTerminatedCluster, Pattern: seq(cat(catN), numberJoinerTail)},
			{Type: numeralCluster, Pattern: seq(cat(catN), opt(numeralTail))},
			{Type: symbolCluster, Pattern: seq(cat(catO, catGB), opt(symbolTail))},
			{Type: brokenCluster, Pattern: seq(opt(cat(catR)),
				alt(brokenTail, sakotTail, symbolTail, viramaTail, numberJoinerTail, numeralTail))},
		},
		Fallback: nonCluster,
	}
}

// findSyllables stores the cluster serial numbers of a run. Joiners are
// invisible to the grammar and belong to the cluster before them.
func findSyllables(run otshape.RunContext) {
	var cats []uint8
	var index []int
	for i := 0; i < run.Len(); i++ {
		if c := run.Info(i).Category; c != catCGJ {
			cats = append(cats, c)
			index = append(index, i)
		}
	}
	machine.Assign(run, cats, index)
}
