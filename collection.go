package opentext

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/npillmayer/opentext/internal/fontload"
	"github.com/npillmayer/opentext/otface"
)

// ErrFontNotFound is returned if no font of a collection matches a request.
var ErrFontNotFound = errors.New("font not found")

// FontCollection is a registry of fonts, grouped into families. Family names
// are case-insensitive. A FontCollection is safe for concurrent use.
type FontCollection struct {
	mu       sync.RWMutex
	families map[string]*FontFamily
	order    []string // keys in order of registration
	opts     []otface.Option
}

// FontFamily is a family of fonts of a collection.
type FontFamily struct {
	Name  string
	mu    *sync.RWMutex
	fonts []*Font
}

// NewFontCollection creates an empty collection. Faces of the fonts will be
// created with opts.
func NewFontCollection(opts ...otface.Option) *FontCollection {
	return &FontCollection{
		families: make(map[string]*FontFamily),
		opts:     opts,
	}
}

func familyKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// AddFile registers the fonts of a font file. Collections (TTC/OTC) add
// all of their members.
func (fc *FontCollection) AddFile(path string) ([]*Font, error) {
	src, err := fontload.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return fc.add(src), nil
}

// AddBytes registers the fonts contained in data. Data must not change
// afterwards.
func (fc *FontCollection) AddBytes(data []byte) ([]*Font, error) {
	src, err := fontload.FromBytes(data)
	if err != nil {
		return nil, err
	}
	return fc.add(src), nil
}

var fontExtensions = []string{".ttf", ".otf", ".ttc", ".otc"}

// AddDir registers all font files below directory dir and returns the
// number of fonts added. Files which cannot be read as fonts are skipped.
func (fc *FontCollection) AddDir(dir string) (int, error) {
	count := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		ext := strings.ToLower(filepath.Ext(path))
		if d.IsDir() || !slices.Contains(fontExtensions, ext) {
			return nil
		}
		fonts, err := fc.AddFile(path)
		if err != nil {
			tracer().Infof("skipping font file: %v", err)
			return nil
		}
		count += len(fonts)
		return nil
	})
	return count, err
}

func (fc *FontCollection) add(src *fontload.Source) []*Font {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fonts := make([]*Font, 0, len(src.Members))
	for _, m := range src.Members {
		f := newFont(src, m, fc.opts)
		key := familyKey(f.Family)
		fam, ok := fc.families[key]
		if !ok {
			fam = &FontFamily{Name: f.Family, mu: &fc.mu}
			fc.families[key] = fam
			fc.order = append(fc.order, key)
		}
		fam.fonts = append(fam.fonts, f)
		fonts = append(fonts, f)
		tracer().Debugf("registered font %q (%s)", f.String(), f.Style)
	}
	return fonts
}

// Family returns the family with the given name.
func (fc *FontCollection) Family(name string) (*FontFamily, bool) {
	fc.mu.RLock()
	defer fc.mu.RUnlock()
	fam, ok := fc.families[familyKey(name)]
	return fam, ok
}

// Families returns the names of all families in order of registration.
func (fc *FontCollection) Families() []string {
	fc.mu.RLock()
	defer fc.mu.RUnlock()
	names := make([]string, len(fc.order))
	for i, key := range fc.order {
		names[i] = fc.families[key].Name
	}
	return names
}

// Match returns the font of a family which best matches style.
func (fc *FontCollection) Match(family string, style Style) (*Font, error) {
	fam, ok := fc.Family(family)
	if !ok {
		return nil, fmt.Errorf("family %q: %w", family, ErrFontNotFound)
	}
	return fam.Match(style), nil
}

// Fonts returns the fonts of a family in order of registration.
func (fam *FontFamily) Fonts() []*Font {
	fam.mu.RLock()
	defer fam.mu.RUnlock()
	return slices.Clone(fam.fonts)
}

// Match returns the font of the family which best matches style. The
// slant has to match first, if possible. Among fonts of the right slant
// the one with the nearest weight wins; on ties, lighter fonts win for
// requests up to regular weight and heavier fonts otherwise. Fonts registered
// earlier win over equivalent ones registered later.
func (fam *FontFamily) Match(style Style) *Font {
	fonts := fam.Fonts()
	if len(fonts) == 0 {
		return nil
	}
	candidates := make([]*Font, 0, len(fonts))
	for _, f := range fonts {
		if f.Style.Italic == style.Italic {
			candidates = append(candidates, f)
		}
	}
	if len(candidates) == 0 {
		candidates = fonts
	}
	best := candidates[0]
	for _, f := range candidates[1:] {
		if betterWeight(f.Style.Weight, best.Style.Weight, style.Weight) {
			best = f
		}
	}
	return best
}

func betterWeight(w, best, want uint16) bool {
	dist := func(x uint16) int {
		d := int(x) - int(want)
		if d < 0 {
			return -d
		}
		return d
	}
	if dist(w) != dist(best) {
		return dist(w) < dist(best)
	}
	if w == best {
		return false
	}
	if want <= WeightRegular {
		return w < best
	}
	return w > best
}
