/*
Command otcli is an interactive inspector for OpenType fonts.

It loads a font file and accepts commands to list the tables of the font,
to look into its layout tables, to map code-points to glyphs and to shape and
lay out text. Type "help" at the prompt for a list of commands.

	otcli -font /Library/Fonts/Georgia.ttf -trace Debug

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/npillmayer/schuko/schukonf/testconfig"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/npillmayer/schuko/tracing/trace2go"
	"github.com/pterm/pterm"

	"github.com/npillmayer/opentext"
	"github.com/npillmayer/opentext/ot"
	"github.com/npillmayer/opentext/otface"
)

// tracer traces with key 'font.opentype'
func tracer() tracing.Trace {
	return tracing.Select("font.opentype")
}

// trace keys of the packages of this module
var traceKeys = []string{"font.opentype", "opentype.layout", "opentype.shaper", "text.layout"}

func main() {
	initDisplay()

	// set up logging
	tracing.RegisterTraceAdapter("go", gologadapter.GetAdapter(), false)
	conf := testconfig.Conf{"tracing.adapter": "go"}
	for _, key := range traceKeys {
		conf["trace."+key] = "Error"
	}
	if err := trace2go.ConfigureRoot(conf, "trace", trace2go.ReplaceTracers(true)); err != nil {
		fmt.Printf("error configuring tracing")
		os.Exit(1)
	}
	tracing.SetTraceSelector(trace2go.Selector())

	// command line flags
	tlevel := flag.String("trace", "Info", "Trace level [Debug|Info|Error]")
	fontname := flag.String("font", "", "Font file to load")
	index := flag.Int("index", 0, "Index of the font within a collection")
	flag.Parse()
	pterm.Info.Println("Welcome to OpenType CLI") // colored welcome message
	level, err := traceLevel(*tlevel)
	if err != nil {
		pterm.Error.Println(err)
		os.Exit(5)
	}
	for _, key := range traceKeys {
		tracing.Select(key).SetTraceLevel(level)
	}
	//
	// set up REPL
	repl, err := readline.New("ot > ")
	if err != nil {
		tracer().Errorf(err.Error())
		os.Exit(3)
	}
	intp := &Intp{repl: repl, fonts: opentext.NewFontCollection()}
	//
	// load font to use
	if *fontname != "" {
		if err := intp.loadFont(*fontname, *index); err != nil { // font name provided by flag
			pterm.Error.Println(err)
			os.Exit(4)
		}
	}
	//
	// start receiving commands
	pterm.Info.Println("Quit with <ctrl>D") // inform user how to stop the CLI
	tracer().Infof("Trace level is %s", *tlevel)
	intp.REPL() // go into interactive mode
}

func traceLevel(name string) (tracing.TraceLevel, error) {
	switch name {
	case "Debug":
		return tracing.LevelDebug, nil
	case "Info":
		return tracing.LevelInfo, nil
	case "Error":
		return tracing.LevelError, nil
	}
	return tracing.LevelError, fmt.Errorf("invalid trace level: %s", name)
}

// We use pterm for moderately fancy output.
func initDisplay() {
	pterm.EnableDebugMessages()
	pterm.Info.Prefix = pterm.Prefix{
		Text:  " !  ",
		Style: pterm.NewStyle(pterm.BgCyan, pterm.FgBlack),
	}
	pterm.Error.Prefix = pterm.Prefix{
		Text:  " Error",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}
}

// Intp is our interpreter object
type Intp struct {
	fonts *opentext.FontCollection
	font  *opentext.Font
	face  *otface.Face
	repl  *readline.Instance
	table ot.Tag // current layout table, GSUB or GPOS
}

func (intp *Intp) String() string {
	if intp == nil || intp.font == nil {
		return "( no font )"
	}
	s := fmt.Sprintf("( font=%s", intp.font)
	if intp.table != 0 {
		s += fmt.Sprintf(" table=%s", intp.table)
	}
	return s + " )"
}

// REPL starts interactive mode.
func (intp *Intp) REPL() {
	for {
		pterm.Println(intp.String())
		line, err := intp.repl.Readline()
		if err != nil { // io.EOF
			break
		}
		if line = strings.TrimSpace(line); line == "" {
			continue
		}
		cmd := parseCommand(line)
		err, quit := intp.execute(cmd)
		if err != nil {
			pterm.Error.Println(err)
			continue
		}
		if quit {
			break
		}
	}
	pterm.Info.Println("Good bye!")
}

// Op is a command with its argument, which is the remainder of the input
// line.
type Op struct {
	code int
	arg  string
}

const (
	QUIT int = iota
	HELP
	FONT
	INFO
	TABLES
	TABLE
	SCRIPTS
	FEATURES
	LOOKUPS
	MAP
	OUTLINE
	SHAPE
	LAYOUT
)

var opMap = map[string]int{
	"quit":     QUIT,
	"help":     HELP,
	"font":     FONT,
	"info":     INFO,
	"tables":   TABLES,
	"table":    TABLE,
	"scripts":  SCRIPTS,
	"features": FEATURES,
	"lookups":  LOOKUPS,
	"map":      MAP,
	"outline":  OUTLINE,
	"shape":    SHAPE,
	"layout":   LAYOUT,
}

var opNames = []string{
	"quit",
	"help",
	"font",
	"info",
	"tables",
	"table",
	"scripts",
	"features",
	"lookups",
	"map",
	"outline",
	"shape",
	"layout",
}

// parseCommand splits an input line into command and argument. Unknown
// commands show the help text.
func parseCommand(line string) Op {
	word, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	code, ok := opMap[strings.ToLower(word)]
	if !ok {
		return Op{code: HELP}
	}
	op := Op{code: code, arg: strings.TrimSpace(arg)}
	tracer().Debugf("parsed command: %s '%s'", opNames[code], op.arg)
	return op
}

var commandFn map[int]func(*Intp, *Op) (error, bool)

func init() {
	commandFn = map[int]func(*Intp, *Op) (error, bool){
		QUIT:     quitOp,
		HELP:     helpOp,
		FONT:     fontOp,
		INFO:     infoOp,
		TABLES:   tablesOp,
		TABLE:    tableOp,
		SCRIPTS:  scriptsOp,
		FEATURES: featuresOp,
		LOOKUPS:  lookupsOp,
		MAP:      mapOp,
		OUTLINE:  outlineOp,
		SHAPE:    shapeOp,
		LAYOUT:   layoutOp,
	}
}

func (intp *Intp) execute(op Op) (err error, stop bool) {
	f, ok := commandFn[op.code]
	if !ok {
		return fmt.Errorf("unknown command code: %d", op.code), false
	}
	if op.code > FONT && intp.face == nil {
		return errNoFont, false
	}
	return f(intp, &op)
}

func quitOp(intp *Intp, op *Op) (error, bool) {
	pterm.Println("Goodbye!")
	return nil, true
}

// --- Font Loading -----------------------------------------------------

var errNoFont = errors.New("no font loaded")

func fontOp(intp *Intp, op *Op) (error, bool) {
	if op.arg == "" {
		for _, fam := range intp.fonts.Families() {
			f, _ := intp.fonts.Family(fam)
			for _, font := range f.Fonts() {
				pterm.Printf("%-30s %-20s %s\n", fam, font.Subfamily, font.Path)
			}
		}
		return nil, false
	}
	return intp.loadFont(op.arg, 0), false
}

// loadFont registers a font file and selects member index of it.
func (intp *Intp) loadFont(path string, index int) error {
	fonts, err := intp.fonts.AddFile(path)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(fonts) {
		return fmt.Errorf("font index %d out of range, file has %d fonts", index, len(fonts))
	}
	return intp.selectFont(fonts[index])
}

func (intp *Intp) selectFont(font *opentext.Font) error {
	face, err := font.Face()
	if err != nil {
		return err
	}
	intp.font, intp.face, intp.table = font, face, 0
	tracer().Infof("loaded font %s", font)
	pterm.Printf("font tables: %v\n", face.Font().TableTags())
	return nil
}
