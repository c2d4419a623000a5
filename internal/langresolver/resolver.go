package langresolver

import (
	"context"

	"github.com/nopparoot15/saltybot/pkg/sro"
)

// seedScores returns the scoring baseline: every pool language starts at
// 0.1, en-US is boosted to 0.4 as an unconditional fallback, and th-TH is
// pinned to 0.0 since the base deployment skews Thai-heavy.
func seedScores() map[string]float64 {
	scores := make(map[string]float64, len(FallbackAltsOrder))
	for _, lang := range FallbackAltsOrder {
		scores[lang] = 0.1
	}
	scores["en-US"] = 0.4
	scores["th-TH"] = 0.0
	return scores
}

// contextBias scores every pool language from the free-text context blob
// (username + channel name + caption), per the script/Latin-hint weight
// table.
func contextBias(username, channelName, caption string) map[string]float64 {
	scores := seedScores()
	blob := username + " " + channelName + " " + caption

	if hasThai(blob) {
		scores["th-TH"] += 2.0
	}
	if hasJapanese(blob) {
		scores["ja-JP"] += 2.0
	}
	if hasChinese(blob) {
		scores["cmn-Hans-CN"] += 1.4
		scores["cmn-Hant-TW"] += 1.0
		scores["yue-Hant-HK"] += 0.6
	}
	if hasKorean(blob) {
		scores["ko-KR"] += 2.0
	}
	if hasCyrillic(blob) {
		scores["ru-RU"] += 2.0
	}
	if hasUkrainianSpecial(blob) {
		scores["uk-UA"] += 2.2
		scores["ru-RU"] *= 0.6
	}
	if hasKhmer(blob) {
		scores["km-KH"] += 2.0
	}
	if hasMyanmar(blob) {
		scores["my-MM"] += 2.0
	}
	if hasDevanagari(blob) {
		scores["hi-IN"] += 2.0
	}
	if hasArabic(blob) {
		scores["ar-SA"] += 2.0
	}
	for _, lang := range latinHintOrder {
		if looksLike(lang, blob) {
			scores[lang] += latinHintBonus[lang]
		}
	}
	return scores
}

// Options configures optional tunables flagged as implementer-visible in
// the open questions.
type Options struct {
	DampJPWhenUncertain bool
	JPMinWeight         float64
}

// Resolver implements [sro.LanguageResolver]. Histograms, when non-nil,
// persists per-channel and per-user language counts beyond one request.
type Resolver struct {
	Histograms                HistogramStore
	DefaultPrimaryLanguage    string
	StrictConfidenceThreshold float64
	Options                   Options
}

var _ sro.LanguageResolver = (*Resolver)(nil)

// HistogramStore persists language counts keyed by channel or user scope.
// Implemented by internal/histogram against Redis.
type HistogramStore interface {
	Increment(ctx context.Context, scopeKind, id, lang string)
}

// New returns a [Resolver] with the given defaults.
func New(histograms HistogramStore, defaultPrimary string, strictThreshold float64) *Resolver {
	return &Resolver{
		Histograms:                histograms,
		DefaultPrimaryLanguage:    defaultPrimary,
		StrictConfidenceThreshold: strictThreshold,
	}
}

// Resolve implements primary and alternate selection per the scoring and
// two-round policy.
func (r *Resolver) Resolve(ctx context.Context, in sro.LanguageResolveInput) sro.LanguageHints {
	blob := in.UserName + " " + in.ChannelName + " " + in.Caption

	var primary string
	if hasJapanese(blob) {
		// Filename/caption containing Japanese script forces ja-JP.
		primary = "ja-JP"
	} else {
		primary = r.primary(contextBias(in.UserName, in.ChannelName, in.Caption), in.ChannelHistogram, in.UserHistogram)
	}
	return r.AlternatesFor(ctx, primary, in)
}

// AlternatesFor computes alternates (round 1, round 2) for an explicit
// primary, independent of how primary was chosen — alternates computation is
// unconditional, so a caller-supplied primary override still gets a full
// two-round alternates list rather than none.
func (r *Resolver) AlternatesFor(ctx context.Context, primary string, in sro.LanguageResolveInput) sro.LanguageHints {
	bias := contextBias(in.UserName, in.ChannelName, in.Caption)
	alts := r.alternates(primary, bias, in.ChannelHistogram, in.UserHistogram)
	round1, round2 := r.twoRounds(primary, alts, bias)
	return sro.LanguageHints{Primary: primary, AlternatesRound1: round1, AlternatesRound2: round2}
}

// primary picks the maximum of context_bias + 1.4*user_hist + 0.8*channel_hist
// over the fixed candidate set, falling back to the configured default when
// the maximum is below 1.0.
func (r *Resolver) primary(bias map[string]float64, channelHist, userHist map[string]int) string {
	best := ""
	bestScore := 0.0
	for _, lang := range primaryCandidates {
		score := bias[lang] + 1.4*float64(userHist[lang]) + 0.8*float64(channelHist[lang])
		if best == "" || score > bestScore {
			best = lang
			bestScore = score
		}
	}
	if bestScore < 1.0 {
		return r.defaultPrimary()
	}
	return best
}

func (r *Resolver) defaultPrimary() string {
	if r.DefaultPrimaryLanguage != "" {
		return r.DefaultPrimaryLanguage
	}
	return "th-TH"
}

// alternates ranks the full fallback pool (minus primary) by weighted
// histogram + context score, returns up to 3 positive-weight entries, tops
// up from the fallback order if short, and guarantees en-US for
// code-switch-prone base languages.
func (r *Resolver) alternates(primary string, bias map[string]float64, channelHist, userHist map[string]int) []string {
	weights := make(map[string]float64, len(FallbackAltsOrder))
	for _, lang := range FallbackAltsOrder {
		weights[lang] = 0.0
	}
	for lang, v := range channelHist {
		if _, ok := weights[lang]; ok {
			weights[lang] += 0.8 * float64(v)
		}
	}
	for lang, v := range userHist {
		if _, ok := weights[lang]; ok {
			weights[lang] += 1.4 * float64(v)
		}
	}
	for lang, v := range bias {
		if _, ok := weights[lang]; ok {
			weights[lang] += 1.0 * v
		}
	}

	if r.Options.DampJPWhenUncertain {
		if w, ok := weights["ja-JP"]; ok {
			minWeight := r.Options.JPMinWeight
			if minWeight == 0 {
				minWeight = 2.0
			}
			if userHist["ja-JP"] < 2 && w < minWeight {
				weights["ja-JP"] *= 0.4
			}
		}
	}

	delete(weights, primary)

	ranked := rankDescending(weights)
	const maxAlts = 3
	alts := make([]string, 0, maxAlts)
	for _, lang := range ranked {
		if weights[lang] <= 0 {
			break
		}
		alts = append(alts, lang)
		if len(alts) >= maxAlts {
			break
		}
	}

	if len(alts) < maxAlts {
		seen := make(map[string]bool, len(alts))
		for _, a := range alts {
			seen[a] = true
		}
		for _, lang := range FallbackAltsOrder {
			if lang == primary || seen[lang] {
				continue
			}
			alts = append(alts, lang)
			seen[lang] = true
			if len(alts) >= maxAlts {
				break
			}
		}
	}

	if codeSwitchInsuranceBase[baseSubtag(primary)] {
		alts = ensureContains(alts, "en-US", maxAlts)
	}
	return alts
}

// twoRounds splits alts into a strict-skip-eligible round 1 and a
// disjoint round 2, per the two-round policy.
func (r *Resolver) twoRounds(primary string, alts []string, bias map[string]float64) ([]string, []string) {
	const perRound = 3
	threshold := r.StrictConfidenceThreshold
	if threshold == 0 {
		threshold = 2.0
	}

	var round1 []string
	if bias[primary] > threshold {
		round1 = nil
	} else if len(alts) > 0 {
		round1 = firstN(alts, perRound)
	}

	rest := alts
	if len(round1) > 0 && len(rest) >= len(round1) {
		rest = rest[len(round1):]
	} else if round1 != nil {
		rest = nil
	}
	round2 := firstN(rest, perRound)
	if round2 == nil && round1 == nil && len(alts) > 0 {
		round2 = firstN(alts, perRound)
	}
	return round1, round2
}

// ObserveScript classifies recognized text by dominant Unicode script.
func (r *Resolver) ObserveScript(text string) string {
	switch {
	case hasThai(text):
		return "th-TH"
	case hasJapanese(text):
		return "ja-JP"
	case hasKorean(text):
		return "ko-KR"
	case hasChinese(text):
		return "cmn-Hans-CN"
	case hasKhmer(text):
		return "km-KH"
	case hasMyanmar(text):
		return "my-MM"
	case hasDevanagari(text):
		return "hi-IN"
	case hasArabic(text):
		return "ar-SA"
	case hasCyrillic(text):
		if hasUkrainianSpecial(text) {
			return "uk-UA"
		}
		return "ru-RU"
	}
	lower := text
	for _, lang := range latinHintOrder {
		if looksLike(lang, lower) {
			return lang
		}
	}
	return "en-US"
}

// RecordHistogram increments both the channel and user histograms for lang.
func (r *Resolver) RecordHistogram(ctx context.Context, channelID, userID, lang string) {
	if r.Histograms == nil {
		return
	}
	r.Histograms.Increment(ctx, "channel", channelID, lang)
	r.Histograms.Increment(ctx, "user", userID, lang)
}

func rankDescending(weights map[string]float64) []string {
	langs := make([]string, 0, len(weights))
	for lang := range weights {
		langs = append(langs, lang)
	}
	// Simple insertion sort: the pool is small (~20 entries) and determinism
	// across equal weights matters more than asymptotic performance here.
	for i := 1; i < len(langs); i++ {
		for j := i; j > 0 && weights[langs[j]] > weights[langs[j-1]]; j-- {
			langs[j], langs[j-1] = langs[j-1], langs[j]
		}
	}
	return langs
}

func firstN(s []string, n int) []string {
	if len(s) == 0 {
		return nil
	}
	if len(s) > n {
		return s[:n]
	}
	return s
}

func ensureContains(alts []string, lang string, maxLen int) []string {
	for _, a := range alts {
		if a == lang {
			return alts
		}
	}
	if len(alts) < maxLen {
		return append(alts, lang)
	}
	out := make([]string, len(alts))
	copy(out, alts)
	out[len(out)-1] = lang
	return out
}
