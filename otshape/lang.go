package otshape

import (
	"strings"

	"golang.org/x/text/language"

	"github.com/npillmayer/opentext/ot"
	"github.com/npillmayer/opentext/otquery"
)

// OpenType script tags deviating from the lower-cased ISO 15924 code.
var scriptTagExceptions = map[string]ot.Tag{
	"Hira": ot.T("kana"),
	"Hrkt": ot.T("kana"),
	"Laoo": ot.T("lao "),
	"Yiii": ot.T("yi  "),
	"Nkoo": ot.T("nko "),
	"Vaii": ot.T("vai "),
	"Zmth": ot.T("math"),
	"Zinh": ot.DFLT,
	"Zyyy": ot.DFLT,
	"Zzzz": ot.DFLT,
}

// Indic scripts have been revised by OpenType; fonts may implement the new
// (…2) or the old shaping model.
var indicScriptTags = map[string][]ot.Tag{
	"Beng": {ot.T("bng2"), ot.T("beng")},
	"Deva": {ot.T("dev2"), ot.T("deva")},
	"Gujr": {ot.T("gjr2"), ot.T("gujr")},
	"Guru": {ot.T("gur2"), ot.T("guru")},
	"Knda": {ot.T("knd2"), ot.T("knda")},
	"Mlym": {ot.T("mlm2"), ot.T("mlym")},
	"Orya": {ot.T("ory2"), ot.T("orya")},
	"Taml": {ot.T("tml2"), ot.T("taml")},
	"Telu": {ot.T("tel2"), ot.T("telu")},
	"Mymr": {ot.T("mym2"), ot.T("mymr")},
}

// ScriptTagForScript returns the OpenType script tag for a script.
// Scripts without a tag of their own map to DFLT. For Indic scripts the tag
// of the current shaping model is returned.
func ScriptTagForScript(script language.Script) ot.Tag {
	return scriptTags(script)[0]
}

func scriptTags(script language.Script) []ot.Tag {
	code := script.String()
	if tags, ok := indicScriptTags[code]; ok {
		return tags
	}
	if tag, ok := scriptTagExceptions[code]; ok {
		return []ot.Tag{tag}
	}
	if len(code) != 4 {
		return []ot.Tag{ot.DFLT}
	}
	return []ot.Tag{ot.T(strings.ToLower(code))}
}

// scriptTagForFont selects the script tag the layout tables of a font use for
// a script, preferring new Indic tags over old ones. If the font does not
// know the script, the first candidate is returned and lookups fall back to
// the DFLT script.
func scriptTagForFont(otf *ot.Font, script language.Script) ot.Tag {
	tags := scriptTags(script)
	for _, tag := range tags {
		if scr, _ := otquery.FontSupportsScript(otf, tag, ot.DFLT); scr == tag {
			return tag
		}
	}
	return tags[0]
}

// OpenType language system tags deviating from the upper-cased ISO 639-3 code.
var languageTagExceptions = map[string]string{
	"afr": "AFK", "amh": "AMH", "bod": "TIB", "ces": "CSY", "cym": "WEL",
	"ell": "ELL", "epo": "NTO", "est": "ETI", "eus": "EUQ", "fas": "FAR",
	"gle": "IRI", "glg": "GAL", "heb": "IWR", "jpn": "JAN", "kat": "KAT",
	"khm": "KHM", "lit": "LTH", "lav": "LVI", "mal": "MAL", "mon": "MNG",
	"msa": "MLY", "mya": "BRM", "nob": "NOR", "nno": "NYN", "nor": "NOR",
	"pol": "PLK", "por": "PTG", "pus": "PAS", "ron": "ROM", "sin": "SNH",
	"slk": "SKY", "spa": "ESP", "sqi": "SQI", "swa": "SWK", "swe": "SVE",
	"tur": "TRK", "uig": "UYG", "vie": "VIT", "yid": "JII", "bel": "BEL",
	"bul": "BGR", "hye": "HYE", "isl": "ISL", "mkd": "MKD", "srp": "SRB",
}

// LanguageTagForLanguage returns the OpenType language system tag for a
// language. If the base language of lang is not known with at least
// confidence c, 0 is returned, selecting the default language system.
func LanguageTagForLanguage(lang language.Tag, c language.Confidence) ot.Tag {
	base, conf := lang.Base()
	if conf < c {
		return 0
	}
	iso := base.ISO3()
	if iso == "zho" {
		return chineseLanguageTag(lang)
	}
	if tag, ok := languageTagExceptions[iso]; ok {
		return ot.T(tag)
	}
	if len(iso) != 3 || iso == "und" {
		return 0
	}
	return ot.T(strings.ToUpper(iso))
}

func chineseLanguageTag(lang language.Tag) ot.Tag {
	if region, _ := lang.Region(); region.String() == "HK" {
		return ot.T("ZHH")
	}
	if script, _ := lang.Script(); script.String() == "Hant" {
		return ot.T("ZHT")
	}
	return ot.T("ZHS")
}
