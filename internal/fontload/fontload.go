/*
Package fontload reads font files and describes their member fonts.

Describing a font reads its name table only. Member fonts are parsed in full
when a client asks for their typographic data, not at load time.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package fontload

import (
	"errors"
	"fmt"
	"os"

	"github.com/npillmayer/opentext/ot"
	"github.com/npillmayer/schuko/tracing"
	"golang.org/x/image/font/sfnt"
)

// tracer writes to trace with key 'font.opentype'
func tracer() tracing.Trace {
	return tracing.Select("font.opentype")
}

// Member describes one font of a font file.
type Member struct {
	Index     int // index within a collection, 0 for plain sfnt files
	Family    string
	Subfamily string
	FullName  string
}

// Source holds the bytes of a font file, which may be a collection.
type Source struct {
	Path    string // empty for fonts not loaded from a file
	Data    []byte
	Members []Member
}

// ReadFile loads a font file (TTF, OTF, TTC or OTC).
func ReadFile(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	src, err := FromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("font file %s: %w", path, err)
	}
	src.Path = path
	return src, nil
}

// FromBytes describes the fonts contained in data. Data must not change
// afterwards.
func FromBytes(data []byte) (*Source, error) {
	n, err := ot.CollectionSize(data)
	if err != nil {
		return nil, err
	}
	src := &Source{Data: data, Members: make([]Member, n)}
	coll, err := sfnt.ParseCollection(data)
	if err != nil {
		tracer().Infof("sfnt cannot read font names: %v", err)
		coll = nil
	}
	for i := range src.Members {
		m := &src.Members[i]
		m.Index = i
		if coll != nil {
			if f, err := coll.Font(i); err == nil {
				sfntNames(f, m)
			}
		}
		if m.Family == "" {
			if err := otNames(data, m); err != nil {
				return nil, err
			}
		}
	}
	return src, nil
}

// sfntNames reads the names of a member, preferring typographic names over
// the legacy family names.
func sfntNames(f *sfnt.Font, m *Member) {
	var buf sfnt.Buffer
	name := func(ids ...sfnt.NameID) string {
		for _, id := range ids {
			s, err := f.Name(&buf, id)
			if err == nil && s != "" {
				return s
			}
			if err != nil && !errors.Is(err, sfnt.ErrNotFound) {
				tracer().Debugf("name %d: %v", id, err)
			}
		}
		return ""
	}
	m.Family = name(sfnt.NameIDTypographicFamily, sfnt.NameIDFamily)
	m.Subfamily = name(sfnt.NameIDTypographicSubfamily, sfnt.NameIDSubfamily)
	m.FullName = name(sfnt.NameIDFull)
}

// otNames reads the names of a member with a full parse, for fonts which
// package sfnt rejects.
func otNames(data []byte, m *Member) error {
	otf, err := ot.ParseAt(data, m.Index)
	if err != nil {
		return err
	}
	first := func(ids ...ot.NameID) string {
		for _, id := range ids {
			if s := otf.Name.Name(id); s != "" {
				return s
			}
		}
		return ""
	}
	m.Family = first(ot.NameTypographicFamily, ot.NameFontFamily)
	m.Subfamily = first(ot.NameTypographicSubfam, ot.NameFontSubfamily)
	m.FullName = first(ot.NameFull)
	return nil
}
