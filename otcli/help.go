package main

import (
	"strings"

	"github.com/pterm/pterm"
)

func helpOp(intp *Intp, op *Op) (error, bool) {
	help(op.arg)
	return nil, false
}

func help(topic string) {
	tracer().Debugf("help %v", topic)
	t := strings.ToLower(topic)
	switch t {
	case "script", "scripts", "scriptlist":
		pterm.Info.Println("ScriptList / Script")
		pterm.Println(`
	ScriptList is a property of GSUB and GPOS.
	It consists of ScriptRecords:
	+------------+----------------+
	| Script Tag | Link to Script |
	+------------+----------------+
	A Script table links to a default LangSys entry, and contains a list of LangSys records:
	+--------------+-----------------+
	| Language Tag | Link to LangSys |
	+--------------+-----------------+
	'scripts' without a table set lists scripts and languages of GSUB and GPOS.
	'scripts <tag>' lists the language systems of a script of the current table.
	`)
	case "lang", "langsys", "langs", "language":
		pterm.Info.Println("LangSys")
		pterm.Println(`
	LangSys is pointed to from a Script Record.
	It links a language with features to activate. It does so using an index into the feature table.
	+-----------------------------------+
	| Index of required feature or null |
	+-----------------------------------+
	| Index of feature 1                |
	+-----------------------------------+
	| ...                               |
	+-----------------------------------+
	`)
	case "shape", "layout", "features":
		pterm.Info.Println("Shaping")
		pterm.Println(`
	shape [+feat|-feat ...] <text>     shape text as a single run, e.g. 'shape -liga office'
	layout [width] <text>              lay out text at 12pt, wrapping at width points;
	                                   \n and \t are replaced by line feed and tab
	features [index|tag]               list the features of the current table
	`)
	default:
		pterm.Info.Println("Commands")
		pterm.Println(`
	font [path]             load a font file, or list the loaded fonts
	info                    names and metrics of the font
	tables                  table directory of the font
	table GSUB|GPOS         select a layout table
	scripts [tag]           scripts and language systems
	features [index|tag]    features of the current table
	lookups [index]         lookups of the current table
	map <char|U+XXXX> ...   map code-points to glyphs
	outline <gid|char>      dump the outline of a glyph
	shape <text>            shape text
	layout [width] <text>   lay out text
	help [topic]            help on scripts, langsys, shape
	quit                    leave
	`)
	}
}
