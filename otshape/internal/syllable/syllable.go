/*
Package syllable splits runs of character categories into syllables.

Script shapers describe the syllable structure of a script as patterns over
category sets, comparable to regular expressions. A Machine matches its rules
at every position of a run and selects the longest match; rules listed first
win ties. Positions not matched by any rule form single-character syllables of
a fallback type.

Categories are small integers below 64, chosen by the script shaper.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package syllable

import "slices"

// Set is a set of categories.
type Set uint64

// Of returns the set of the given categories.
func Of(cats ...uint8) Set {
	var s Set
	for _, c := range cats {
		s |= 1 << (c & 63)
	}
	return s
}

// Has checks if category c is in s.
func (s Set) Has(c uint8) bool {
	return c < 64 && s&(1<<c) != 0
}

// Pattern matches sequences of categories.
type Pattern interface {
	// step returns the positions reachable from the positions in from.
	step(cats []uint8, from []int) []int
}

type one Set

// One matches a single category of set s.
func One(s Set) Pattern {
	return one(s)
}

// Cat matches a single category of cats.
func Cat(cats ...uint8) Pattern {
	return one(Of(cats...))
}

func (p one) step(cats []uint8, from []int) []int {
	var to []int
	for _, pos := range from {
		if pos < len(cats) && Set(p).Has(cats[pos]) {
			to = add(to, pos+1)
		}
	}
	return to
}

type seq []Pattern

// Seq matches patterns one after another.
func Seq(ps ...Pattern) Pattern {
	return seq(ps)
}

func (p seq) step(cats []uint8, from []int) []int {
	for _, q := range p {
		if len(from) == 0 {
			return nil
		}
		from = q.step(cats, from)
	}
	return from
}

type alt []Pattern

// Alt matches any of the patterns.
func Alt(ps ...Pattern) Pattern {
	return alt(ps)
}

func (p alt) step(cats []uint8, from []int) []int {
	var to []int
	for _, q := range p {
		for _, pos := range q.step(cats, from) {
			to = add(to, pos)
		}
	}
	return to
}

type opt struct{ p Pattern }

// Opt matches p or nothing.
func Opt(p Pattern) Pattern {
	return opt{p}
}

func (o opt) step(cats []uint8, from []int) []int {
	to := slices.Clone(from)
	for _, pos := range o.p.step(cats, from) {
		to = add(to, pos)
	}
	return to
}

type star struct{ p Pattern }

// Star matches any number of repetitions of p.
func Star(p Pattern) Pattern {
	return star{p}
}

func (s star) step(cats []uint8, from []int) []int {
	to := slices.Clone(from)
	frontier := from
	for len(frontier) > 0 {
		var next []int
		for _, pos := range s.p.step(cats, frontier) {
			if !slices.Contains(to, pos) {
				to = append(to, pos)
				next = append(next, pos)
			}
		}
		frontier = next
	}
	return to
}

// Plus matches one or more repetitions of p.
func Plus(p Pattern) Pattern {
	return Seq(p, Star(p))
}

func add(set []int, pos int) []int {
	if slices.Contains(set, pos) {
		return set
	}
	return append(set, pos)
}

// Rule is a syllable pattern with the type of syllables it matches.
type Rule struct {
	Type    uint8
	Pattern Pattern
}

// Machine finds syllables with a list of rules.
type Machine struct {
	Rules    []Rule
	Fallback uint8 // type of unmatched characters
}

// Syllable is a syllable [Start, End) of a run.
type Syllable struct {
	Start, End int
	Type       uint8
}

// Find splits cats into syllables, which cover the run without gaps.
func (m *Machine) Find(cats []uint8) []Syllable {
	var syls []Syllable
	for pos := 0; pos < len(cats); {
		end, typ := pos, m.Fallback
		for _, r := range m.Rules {
			for _, e := range r.Pattern.step(cats, []int{pos}) {
				if e > end {
					end, typ = e, r.Type
				}
			}
		}
		if end == pos {
			end = pos + 1
		}
		syls = append(syls, Syllable{Start: pos, End: end, Type: typ})
		pos = end
	}
	return syls
}

// Serial encodes the type of syllable #n into a syllable number. Neighbouring
// syllables get different numbers. Serial numbers start at 1.
func Serial(n int, typ uint8) uint16 {
	return uint16((n%0xfff)+1)<<4 | uint16(typ&0x0f)
}

// Type extracts the syllable type from a syllable number.
func Type(serial uint16) uint8 {
	return uint8(serial & 0x0f)
}
