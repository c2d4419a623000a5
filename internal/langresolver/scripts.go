// Package langresolver implements the Language Resolver component: primary
// and alternate BCP-47 language selection from context signals and
// per-channel/per-user histories, plus post-recognition script detection.
package langresolver

import (
	"regexp"
	"strings"
)

// Unicode script ranges, matching the detection table.
var (
	thaiRange       = regexp.MustCompile(`[\x{0E00}-\x{0E7F}]`)
	japaneseRange   = regexp.MustCompile(`[\x{3040}-\x{30FF}\x{31F0}-\x{31FF}\x{FF66}-\x{FF9F}]`)
	cjkRange        = regexp.MustCompile(`[\x{4E00}-\x{9FFF}]`)
	koreanRange     = regexp.MustCompile(`[\x{AC00}-\x{D7AF}]`)
	cyrillicRange   = regexp.MustCompile(`[\x{0400}-\x{04FF}]`)
	khmerRange      = regexp.MustCompile(`[\x{1780}-\x{17FF}\x{19E0}-\x{19FF}]`)
	myanmarRange    = regexp.MustCompile(`[\x{1000}-\x{109F}]`)
	devanagariRange = regexp.MustCompile(`[\x{0900}-\x{097F}]`)
	arabicRange     = regexp.MustCompile(`[\x{0600}-\x{06FF}\x{0750}-\x{077F}\x{08A0}-\x{08FF}]`)
)

// ukrainianSpecialLetters are the Cyrillic letters found only in Ukrainian,
// used to re-bias ambiguous Cyrillic text away from ru-RU.
const ukrainianSpecialLetters = "ҐЄІЇґєії"

func hasThai(s string) bool       { return thaiRange.MatchString(s) }
func hasJapanese(s string) bool   { return japaneseRange.MatchString(s) }
func hasChinese(s string) bool    { return cjkRange.MatchString(s) }
func hasKorean(s string) bool     { return koreanRange.MatchString(s) }
func hasCyrillic(s string) bool   { return cyrillicRange.MatchString(s) }
func hasKhmer(s string) bool      { return khmerRange.MatchString(s) }
func hasMyanmar(s string) bool    { return myanmarRange.MatchString(s) }
func hasDevanagari(s string) bool { return devanagariRange.MatchString(s) }
func hasArabic(s string) bool     { return arabicRange.MatchString(s) }

func hasUkrainianSpecial(s string) bool {
	return strings.ContainsAny(s, ukrainianSpecialLetters)
}

// latinHints are short closed sets of frequent words per Latin-script
// language, matched case-insensitively as substrings.
var latinHints = map[string][]string{
	"vi-VN":  {"anh", "em", "và", "của", "không", "được", "cảm", "ơn", "tôi", "bạn"},
	"id-ID":  {"terima", "kasih", "apa", "kabar", "tidak", "ya", "saya", "kamu", "anda", "bagus"},
	"fil-PH": {"salamat", "maganda", "mahal", "kita", "bakit", "saan", "paano", "ito", "iyan", "iyon", "wala", "meron", "opo", "po", "oo", "hindi", "kami", "kayo", "sila", "ikaw", "ako", "mga", "ang", "ng", "sa"},
	"fr-FR":  {"et", "merci", "non", "oui", "avec", "être", "c'est", "pas", "une", "des", "aux", "bonjour", "au revoir"},
	"de-DE":  {"und", "nicht", "danke", "nein", "ja", "ich", "über", "straße", "eine", "einen", "gibt", "bitte"},
	"es-ES":  {"gracias", "hola", "buenos", "no", "sí", "por", "favor", "porque", "pero", "muy", "adiós"},
	"it-IT":  {"grazie", "ciao", "non", "sì", "per", "favore", "sono", "sei", "bene"},
	"pt-PT":  {"obrigado", "olá", "não", "sim", "por", "favor", "você", "está", "tudo", "bom"},
	"pl-PL":  {"dziękuję", "cześć", "nie", "tak", "proszę", "bardzo", "dobrze", "jestem", "jesteś"},
}

// latinHintOrder fixes the order in which Latin-hint bonuses are applied so
// scoring is deterministic.
var latinHintOrder = []string{"vi-VN", "id-ID", "fil-PH", "fr-FR", "de-DE", "es-ES", "it-IT", "pt-PT", "pl-PL"}

var latinHintBonus = map[string]float64{
	"vi-VN":  1.6,
	"id-ID":  1.4,
	"fil-PH": 1.6,
	"fr-FR":  1.2,
	"de-DE":  1.2,
	"es-ES":  1.2,
	"it-IT":  1.0,
	"pt-PT":  1.0,
	"pl-PL":  1.0,
}

func looksLike(lang, text string) bool {
	lower := strings.ToLower(text)
	for _, w := range latinHints[lang] {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}
