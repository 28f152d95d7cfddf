package otlayout

import (
	"fmt"
	"sort"

	"github.com/npillmayer/opentext/ot"
)

// LayoutTagType denotes the layout table a feature lives in.
type LayoutTagType uint8

const (
	GSubFeatureType LayoutTagType = 1 << iota // feature of table GSUB
	GPosFeatureType                           // feature of table GPOS
	// some registered features have a GSUB and a GPOS part
	BothFeatureTypes = GSubFeatureType | GPosFeatureType
)

func (t LayoutTagType) String() string {
	switch t {
	case GSubFeatureType:
		return "GSUB"
	case GPosFeatureType:
		return "GPOS"
	case BothFeatureTypes:
		return "GSUB+GPOS"
	}
	return "?"
}

// RegisteredFeatureTags maps the tags of registered OpenType features to the
// layout tables they use
// (see https://docs.microsoft.com/en-us/typography/opentype/spec/featuretags).
// Character variants cv01–cv99 and stylistic sets ss01–ss20 are GSUB features
// and are handled by IdentifyFeatureTag.
var RegisteredFeatureTags = map[ot.Tag]LayoutTagType{
	ot.T("aalt"): GSubFeatureType,
	ot.T("abvf"): GSubFeatureType,
	ot.T("abvm"): GPosFeatureType,
	ot.T("abvs"): GSubFeatureType,
	ot.T("afrc"): GSubFeatureType,
	ot.T("akhn"): GSubFeatureType,
	ot.T("blwf"): GSubFeatureType,
	ot.T("blwm"): GPosFeatureType,
	ot.T("blws"): GSubFeatureType,
	ot.T("calt"): GSubFeatureType,
	ot.T("case"): BothFeatureTypes,
	ot.T("ccmp"): GSubFeatureType,
	ot.T("cfar"): GSubFeatureType,
	ot.T("chws"): GPosFeatureType,
	ot.T("cjct"): GSubFeatureType,
	ot.T("clig"): GSubFeatureType,
	ot.T("cpct"): GPosFeatureType,
	ot.T("cpsp"): GPosFeatureType,
	ot.T("cswh"): GSubFeatureType,
	ot.T("curs"): GPosFeatureType,
	ot.T("c2pc"): GSubFeatureType,
	ot.T("c2sc"): GSubFeatureType,
	ot.T("dist"): GPosFeatureType,
	ot.T("dlig"): GSubFeatureType,
	ot.T("dnom"): GSubFeatureType,
	ot.T("dtls"): GSubFeatureType,
	ot.T("expt"): GSubFeatureType,
	ot.T("falt"): GSubFeatureType,
	ot.T("fin2"): GSubFeatureType,
	ot.T("fin3"): GSubFeatureType,
	ot.T("fina"): GSubFeatureType,
	ot.T("flac"): GSubFeatureType,
	ot.T("frac"): GSubFeatureType,
	ot.T("fwid"): BothFeatureTypes,
	ot.T("half"): GSubFeatureType,
	ot.T("haln"): GSubFeatureType,
	ot.T("halt"): GPosFeatureType,
	ot.T("hist"): GSubFeatureType,
	ot.T("hkna"): GSubFeatureType,
	ot.T("hlig"): GSubFeatureType,
	ot.T("hngl"): GSubFeatureType,
	ot.T("hojo"): GSubFeatureType,
	ot.T("hwid"): BothFeatureTypes,
	ot.T("init"): GSubFeatureType,
	ot.T("isol"): GSubFeatureType,
	ot.T("ital"): GSubFeatureType,
	ot.T("jalt"): GSubFeatureType,
	ot.T("jp78"): GSubFeatureType,
	ot.T("jp83"): GSubFeatureType,
	ot.T("jp90"): GSubFeatureType,
	ot.T("jp04"): GSubFeatureType,
	ot.T("kern"): GPosFeatureType,
	ot.T("lfbd"): GPosFeatureType,
	ot.T("liga"): GSubFeatureType,
	ot.T("ljmo"): GSubFeatureType,
	ot.T("lnum"): GSubFeatureType,
	ot.T("locl"): GSubFeatureType,
	ot.T("ltra"): GSubFeatureType,
	ot.T("ltrm"): GSubFeatureType,
	ot.T("mark"): GPosFeatureType,
	ot.T("med2"): GSubFeatureType,
	ot.T("medi"): GSubFeatureType,
	ot.T("mgrk"): GSubFeatureType,
	ot.T("mkmk"): GPosFeatureType,
	ot.T("mset"): GSubFeatureType,
	ot.T("nalt"): GSubFeatureType,
	ot.T("nlck"): GSubFeatureType,
	ot.T("nukt"): GSubFeatureType,
	ot.T("numr"): GSubFeatureType,
	ot.T("onum"): GSubFeatureType,
	ot.T("opbd"): GPosFeatureType,
	ot.T("ordn"): GSubFeatureType,
	ot.T("ornm"): GSubFeatureType,
	ot.T("palt"): GPosFeatureType,
	ot.T("pcap"): GSubFeatureType,
	ot.T("pkna"): GSubFeatureType,
	ot.T("pnum"): GSubFeatureType,
	ot.T("pref"): GSubFeatureType,
	ot.T("pres"): GSubFeatureType,
	ot.T("pstf"): GSubFeatureType,
	ot.T("psts"): GSubFeatureType,
	ot.T("pwid"): GSubFeatureType,
	ot.T("qwid"): GSubFeatureType,
	ot.T("rand"): GSubFeatureType,
	ot.T("rclt"): GSubFeatureType,
	ot.T("rkrf"): GSubFeatureType,
	ot.T("rlig"): GSubFeatureType,
	ot.T("rphf"): GSubFeatureType,
	ot.T("rtbd"): GPosFeatureType,
	ot.T("rtla"): GSubFeatureType,
	ot.T("rtlm"): GSubFeatureType,
	ot.T("ruby"): GSubFeatureType,
	ot.T("rvrn"): GSubFeatureType,
	ot.T("salt"): GSubFeatureType,
	ot.T("sinf"): GSubFeatureType,
	ot.T("size"): GPosFeatureType,
	ot.T("smcp"): GSubFeatureType,
	ot.T("smpl"): GSubFeatureType,
	ot.T("ssty"): GSubFeatureType,
	ot.T("stch"): GSubFeatureType,
	ot.T("subs"): GSubFeatureType,
	ot.T("sups"): GSubFeatureType,
	ot.T("swsh"): GSubFeatureType,
	ot.T("titl"): GSubFeatureType,
	ot.T("tjmo"): GSubFeatureType,
	ot.T("tnam"): GSubFeatureType,
	ot.T("tnum"): GSubFeatureType,
	ot.T("trad"): GSubFeatureType,
	ot.T("twid"): GSubFeatureType,
	ot.T("unic"): GSubFeatureType,
	ot.T("valt"): GPosFeatureType,
	ot.T("vatu"): GSubFeatureType,
	ot.T("vchw"): GPosFeatureType,
	ot.T("vert"): GSubFeatureType,
	ot.T("vhal"): GPosFeatureType,
	ot.T("vjmo"): GSubFeatureType,
	ot.T("vkna"): GSubFeatureType,
	ot.T("vkrn"): GPosFeatureType,
	ot.T("vpal"): GPosFeatureType,
	ot.T("vrt2"): GSubFeatureType,
	ot.T("vrtr"): GSubFeatureType,
	ot.T("zero"): GSubFeatureType,
}

// IdentifyFeatureTag returns the layout table type of a registered feature tag.
// It returns 0 for unregistered tags.
func IdentifyFeatureTag(tag ot.Tag) LayoutTagType {
	if t, ok := RegisteredFeatureTags[tag]; ok {
		return t
	}
	s := tag.String()
	if len(s) == 4 && (s[:2] == "cv" || s[:2] == "ss") && isDigit(s[2]) && isDigit(s[3]) {
		if s[:2] == "ss" && (s > "ss20" || s == "ss00") {
			return 0
		}
		return GSubFeatureType
	}
	return 0
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// layoutTable returns the GSUB or GPOS layout table of a font, or nil.
func layoutTable(otf *ot.Font, typ LayoutTagType) *ot.LayoutTable {
	if otf == nil {
		return nil
	}
	switch typ {
	case GSubFeatureType:
		if otf.Layout.GSub != nil {
			return &otf.Layout.GSub.LayoutTable
		}
	case GPosFeatureType:
		if otf.Layout.GPos != nil {
			return &otf.Layout.GPos.LayoutTable
		}
	}
	return nil
}

// get GSUB and GPOS from a font safely
func getLayoutTables(otf *ot.Font) ([]*ot.LayoutTable, error) {
	lytt := []*ot.LayoutTable{
		layoutTable(otf, GSubFeatureType),
		layoutTable(otf, GPosFeatureType),
	}
	if lytt[0] == nil && lytt[1] == nil {
		return nil, errFontFormat(fmt.Sprintf("font %s has neither GSUB nor GPOS table", fontName(otf)))
	}
	return lytt, nil
}

func fontName(otf *ot.Font) string {
	if otf == nil || otf.Name == nil {
		return "<unnamed>"
	}
	if n := otf.Name.Name(ot.NameFull); n != "" {
		return n
	}
	return otf.Name.Name(ot.NameFontFamily)
}

// FeatureTags returns the sorted tags of all features of a layout table type
// a font provides, for any script.
func FeatureTags(otf *ot.Font, typ LayoutTagType) []ot.Tag {
	lyt := layoutTable(otf, typ)
	if lyt == nil || lyt.Features == nil {
		return nil
	}
	seen := make(map[ot.Tag]struct{})
	for _, f := range lyt.Features.Range() {
		seen[f.Tag] = struct{}{}
	}
	tags := make([]ot.Tag, 0, len(seen))
	for t := range seen {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}
