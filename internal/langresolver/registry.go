package langresolver

// FallbackAltsOrder is the default alternate-language pool, used to top up
// an alternates list that scored too few positive-weight candidates. Order
// matters: earlier entries are preferred fill-ins.
var FallbackAltsOrder = []string{
	"en-US",
	"th-TH", "ja-JP", "cmn-Hans-CN", "cmn-Hant-TW", "yue-Hant-HK", "ko-KR",
	"vi-VN", "id-ID", "tl-PH", "fil-PH",
	"km-KH", "my-MM",
	"hi-IN", "ar-SA",
	"ru-RU", "uk-UA",
	"fr-FR", "de-DE", "es-ES", "it-IT", "pt-PT",
	"pl-PL",
}

// primaryCandidates is the fixed candidate set for primary-language
// selection.
var primaryCandidates = []string{"th-TH", "ja-JP", "cmn-Hans-CN", "ko-KR", "ru-RU", "vi-VN", "en-US"}

// codeSwitchInsuranceBase identifies base languages (by BCP-47 primary
// subtag) whose alternates must always include en-US, since users of these
// languages frequently code-switch to English mid-utterance.
var codeSwitchInsuranceBase = map[string]bool{
	"th": true,
	"km": true,
	"my": true,
}

// NormalizeLang applies the alias table used by the bot's other recognition
// entry points (`jp`→`ja-JP`, `zh`→`cmn-Hans-CN`, `kh`→`km-KH`, …) so a short
// user-supplied code resolves to the canonical BCP-47 tag this package uses
// everywhere else. Unknown codes pass through unchanged.
func NormalizeLang(code string) string {
	if canonical, ok := langAliases[code]; ok {
		return canonical
	}
	return code
}

var langAliases = map[string]string{
	"jp": "ja-JP",
	"kr": "ko-KR",
	"zh": "cmn-Hans-CN",
	"cn": "cmn-Hans-CN",
	"tw": "cmn-Hant-TW",
	"hk": "yue-Hant-HK",
	"kh": "km-KH",
	"mm": "my-MM",
	"vn": "vi-VN",
	"id": "id-ID",
	"ph": "fil-PH",
	"in": "hi-IN",
	"sa": "ar-SA",
	"ru": "ru-RU",
	"ua": "uk-UA",
	"fr": "fr-FR",
	"de": "de-DE",
	"es": "es-ES",
	"it": "it-IT",
	"pt": "pt-PT",
	"pl": "pl-PL",
	"th": "th-TH",
	"us": "en-US",
	"en": "en-US",
}

// baseSubtag returns the ISO 639 subtag preceding the first hyphen, e.g.
// "th" for "th-TH".
func baseSubtag(bcp47 string) string {
	for i, r := range bcp47 {
		if r == '-' {
			return bcp47[:i]
		}
	}
	return bcp47
}
