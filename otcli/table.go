package main

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/pterm/pterm"

	"github.com/npillmayer/opentext/ot"
	"github.com/npillmayer/opentext/otquery"
)

func tablesOp(intp *Intp, op *Op) (error, bool) {
	otf := intp.face.Font()
	data := [][]string{{"Tag", "Offset", "Length", "Checksum"}}
	for _, rec := range otf.Directory {
		data = append(data, []string{
			rec.Tag.String(),
			fmt.Sprintf("%d", rec.Offset),
			fmt.Sprintf("%d", rec.Length),
			fmt.Sprintf("%08x", rec.Checksum),
		})
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	for _, e := range otf.Errors() {
		pterm.Error.Println(e)
	}
	for _, w := range otf.Warnings() {
		pterm.Warning.Println(w)
	}
	return nil, false
}

// tableOp selects GSUB or GPOS as the current layout table.
func tableOp(intp *Intp, op *Op) (error, bool) {
	tag := ot.T(strings.ToUpper(op.arg))
	if _, err := layoutTable(intp.face.Font(), tag); err != nil {
		return err, false
	}
	intp.table = tag
	tracer().Infof("setting table: %v", tag)
	return nil, false
}

var errNoTable = errors.New("no layout table set, use 'table GSUB' or 'table GPOS'")

// layoutTable returns the GSUB or GPOS table of a font.
func layoutTable(otf *ot.Font, tag ot.Tag) (*ot.LayoutTable, error) {
	switch tag {
	case 0:
		return nil, errNoTable
	case ot.T("GSUB"):
		if otf.Layout.GSub != nil {
			return &otf.Layout.GSub.LayoutTable, nil
		}
	case ot.T("GPOS"):
		if otf.Layout.GPos != nil {
			return &otf.Layout.GPos.LayoutTable, nil
		}
	default:
		return nil, fmt.Errorf("not a layout table: %s", tag)
	}
	return nil, fmt.Errorf("table %s not found in font", tag)
}

func (intp *Intp) currentTable() (*ot.LayoutTable, error) {
	return layoutTable(intp.face.Font(), intp.table)
}

// scriptsOp lists the scripts of the current table, or the language
// systems of a script.
func scriptsOp(intp *Intp, op *Op) (err error, stop bool) {
	if intp.table == 0 {
		scripts := otquery.Scripts(intp.face.Font())
		for _, scr := range slices.Sorted(maps.Keys(scripts)) {
			pterm.Printf("%s: %v\n", scr, scripts[scr])
		}
		return nil, false
	}
	var lyt *ot.LayoutTable
	if lyt, err = intp.currentTable(); err != nil {
		return
	}
	if op.arg == "" {
		pterm.Printf("ScriptList keys: %v\n", lyt.Scripts.Tags())
		return
	}
	scr := lyt.Scripts.Script(ot.T(op.arg))
	if scr == nil {
		return fmt.Errorf("script [%s] not found", ot.T(op.arg)), false
	}
	data := [][]string{{"Language", "Required", "Features"}}
	row := func(name string, ls *ot.LangSys) {
		if ls == nil {
			return
		}
		req := "-"
		if ls.RequiredFeature >= 0 {
			req = lyt.Features.At(ls.RequiredFeature).Tag.String()
		}
		tags := make([]string, 0, len(ls.FeatureIndices))
		for _, inx := range ls.FeatureIndices {
			if f := lyt.Features.At(int(inx)); f != nil {
				tags = append(tags, f.Tag.String())
			}
		}
		data = append(data, []string{name, req, strings.Join(tags, " ")})
	}
	row("default", scr.DefaultLangSys)
	for _, lang := range scr.LanguageTags() {
		row(lang.String(), scr.LangSys(lang))
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	return
}

// featuresOp lists the features of the current table, or the lookups of
// feature #i.
func featuresOp(intp *Intp, op *Op) (err error, stop bool) {
	var lyt *ot.LayoutTable
	if lyt, err = intp.currentTable(); err != nil {
		return
	}
	features := lyt.Features
	if op.arg == "" {
		data := [][]string{{"Index", "Tag", "Lookups"}}
		for i, f := range features.Range() {
			data = append(data, []string{fmt.Sprintf("%d", i), f.Tag.String(), fmt.Sprintf("%v", f.LookupIndices)})
		}
		pterm.Printf("%s FeatureList has %d entries\n", intp.table, features.Len())
		pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	} else if i, err := strconv.Atoi(op.arg); err == nil {
		f := features.At(i)
		if f == nil {
			return fmt.Errorf("feature index out of range: %d", i), false
		}
		pterm.Printf("feature %d = %s, lookups %v\n", i, f.Tag, f.LookupIndices)
	} else {
		tag := ot.T(op.arg)
		pterm.Printf("feature %s at indices %v\n", tag, features.Indices(tag))
	}
	return
}

func lookupsOp(intp *Intp, op *Op) (err error, stop bool) {
	var lyt *ot.LayoutTable
	if lyt, err = intp.currentTable(); err != nil {
		return
	}
	isGPos := intp.table == ot.T("GPOS")
	if op.arg == "" {
		printLookupList(intp.table, lyt, isGPos)
	} else if i, err := strconv.Atoi(op.arg); err == nil {
		printLookup(lyt, i, isGPos)
	} else {
		return fmt.Errorf("lookup index not numeric: %v", op.arg), false
	}
	return
}
