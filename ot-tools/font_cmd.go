package main

import (
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/thatisuday/commando"

	"github.com/npillmayer/opentext/ot"
	"github.com/npillmayer/opentext/otquery"
)

func runFontCommand(args map[string]commando.ArgValue, flags map[string]commando.FlagValue) {
	fontPath, face := openFace(args, flags)
	fmt.Printf("Path: %s\n", fontPath)
	printFontInfo(os.Stdout, face.Font(), args["tables"].Value, boolFlag(flags, "errors"))
	if boolFlag(flags, "names") {
		printNames(os.Stdout, face.Font())
	}
}

func printNames(w io.Writer, otf *ot.Font) {
	for id, name := range otquery.NamesRange(otf) {
		fmt.Fprintf(w, "name %d: %s\n", id, name)
	}
}

func printFontInfo(w io.Writer, otf *ot.Font, tables string, showIssues bool) {
	fmt.Fprintf(w, "Type: %s\n", otquery.FontType(otf))
	names := otquery.NameInfo(otf, 0)
	if family := names["family"]; family != "" {
		fmt.Fprintf(w, "Family: %s\n", family)
	}
	if sub := names["subfamily"]; sub != "" {
		fmt.Fprintf(w, "Subfamily: %s\n", sub)
	}
	if version := names["version"]; version != "" {
		fmt.Fprintf(w, "Version: %s\n", version)
	}
	if maxp, ok := otquery.MaxPInfo(otf); ok {
		fmt.Fprintf(w, "Glyphs: %d\n", maxp.NumGlyphs)
	}

	tags := otf.TableTags()
	slices.Sort(tags)
	fmt.Fprintf(w, "Tables (%d):", len(tags))
	for _, tag := range tags {
		fmt.Fprintf(w, " %s", tag.String())
	}
	fmt.Fprintln(w)

	layoutTables := otquery.LayoutTables(otf)
	fmt.Fprintf(w, "Layout: %s\n", strings.Join(layoutTables, ","))
	scripts := otquery.Scripts(otf)
	for _, scr := range slices.Sorted(maps.Keys(scripts)) {
		fmt.Fprintf(w, "Script %s: %v\n", scr, scripts[scr])
	}

	errs := otf.Errors()
	warns := otf.Warnings()
	fmt.Fprintf(w, "Issues: errors=%d warnings=%d\n", len(errs), len(warns))

	if len(tables) > 0 {
		printSelectedTables(w, otf, tables)
	}
	if showIssues {
		for _, e := range errs {
			fmt.Fprintf(w, "error: %s\n", e.Error())
		}
		for _, warn := range warns {
			fmt.Fprintf(w, "warning: %s\n", warn.String())
		}
	}
}

func printSelectedTables(w io.Writer, otf *ot.Font, raw string) {
	for _, t := range fields(raw) {
		tagName := strings.TrimSpace(t)
		if tagName == "" {
			continue
		}
		table := otf.Table(ot.T(tagName))
		if table == nil {
			fmt.Fprintf(w, "table %s: missing\n", tagName)
			continue
		}
		off, size := table.Extent()
		fmt.Fprintf(w, "table %s: offset=%d size=%d\n", tagName, off, size)
	}
}
