package opentext

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/npillmayer/opentext/internal/fontload"
	"github.com/npillmayer/opentext/ot"
	"github.com/npillmayer/opentext/otface"
)

// Weight classes of fonts, as in OS/2 usWeightClass.
const (
	WeightThin       uint16 = 100
	WeightExtraLight uint16 = 200
	WeightLight      uint16 = 300
	WeightRegular    uint16 = 400
	WeightMedium     uint16 = 500
	WeightSemiBold   uint16 = 600
	WeightBold       uint16 = 700
	WeightExtraBold  uint16 = 800
	WeightBlack      uint16 = 900
)

// Style is the weight and slant of a font.
type Style struct {
	Weight uint16
	Italic bool
}

func (s Style) String() string {
	str := fmt.Sprintf("w%d", s.Weight)
	if s.Italic {
		str += " italic"
	}
	return str
}

var weightNames = []struct {
	name   string
	weight uint16
}{ // longer names first
	{"extralight", WeightExtraLight}, {"ultralight", WeightExtraLight},
	{"extrabold", WeightExtraBold}, {"ultrabold", WeightExtraBold},
	{"semibold", WeightSemiBold}, {"demibold", WeightSemiBold},
	{"hairline", WeightThin}, {"thin", WeightThin},
	{"light", WeightLight},
	{"medium", WeightMedium},
	{"bold", WeightBold},
	{"black", WeightBlack}, {"heavy", WeightBlack},
}

// styleFromName derives a style from a subfamily name like "Semi Bold
// Italic".
func styleFromName(subfamily string) Style {
	s := strings.ToLower(strings.NewReplacer(" ", "", "-", "", "_", "").Replace(subfamily))
	style := Style{Weight: WeightRegular}
	for _, w := range weightNames {
		if strings.Contains(s, w.name) {
			style.Weight = w.weight
			break
		}
	}
	style.Italic = strings.Contains(s, "italic") || strings.Contains(s, "oblique")
	return style
}

// Font is a font of a collection. Its face is parsed on first use.
type Font struct {
	Family    string
	Subfamily string
	FullName  string
	Style     Style
	Path      string // empty if not loaded from a file
	index     int
	data      []byte
	opts      []otface.Option
	once      sync.Once
	face      *otface.Face
	err       error
	loaded    atomic.Bool
}

func newFont(src *fontload.Source, m fontload.Member, opts []otface.Option) *Font {
	return &Font{
		Family:    m.Family,
		Subfamily: m.Subfamily,
		FullName:  m.FullName,
		Style:     styleFromName(m.Subfamily),
		Path:      src.Path,
		index:     m.Index,
		data:      src.Data,
		opts:      opts,
	}
}

// Face returns the face of f, parsing the font on first call. Errors are
// sticky.
func (f *Font) Face() (*otface.Face, error) {
	f.once.Do(func() {
		var otf *ot.Font
		if otf, f.err = ot.ParseAt(f.data, f.index); f.err != nil {
			f.err = fmt.Errorf("font %q: %w", f.FullName, f.err)
			return
		}
		for _, w := range otf.Warnings() {
			tracer().Debugf("font %q: %v", f.FullName, w)
		}
		if f.face, f.err = otface.New(otf, f.opts...); f.err != nil {
			f.err = fmt.Errorf("font %q: %w", f.FullName, f.err)
			return
		}
		f.loaded.Store(true)
		tracer().Debugf("loaded face of font %q", f.FullName)
	})
	return f.face, f.err
}

// Loaded reports whether the face of f has been parsed.
func (f *Font) Loaded() bool {
	return f.loaded.Load()
}

func (f *Font) String() string {
	if f.FullName != "" {
		return f.FullName
	}
	return f.Family + " " + f.Subfamily
}
