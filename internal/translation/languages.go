package translation

import (
	"github.com/tanmayk15/AutoTranscriber/internal/language"
)

// supported lists the language codes the translation model family accepts.
var supported = map[string]struct{}{
	"en": {}, "es": {}, "fr": {}, "de": {}, "it": {}, "pt": {}, "ru": {},
	"ja": {}, "ko": {}, "zh": {}, "ar": {}, "hi": {}, "tr": {}, "pl": {},
	"nl": {}, "sv": {}, "da": {}, "no": {}, "fi": {}, "cs": {}, "hu": {},
	"ro": {}, "bg": {}, "hr": {}, "sk": {}, "sl": {}, "et": {}, "lv": {},
	"lt": {}, "mt": {}, "cy": {}, "ga": {}, "eu": {}, "ca": {}, "gl": {},
}

// DefaultFallback is used when no fallback language is configured.
const DefaultFallback = "en"

// Resolve maps code onto a supported language. Unsupported or unparsable
// codes resolve to fallback, and remapped reports that a substitution
// happened.
func Resolve(code, fallback string) (resolved string, remapped bool) {
	normalized := normalizeCode(code)
	if _, ok := supported[normalized]; ok {
		return normalized, false
	}
	fb := normalizeCode(fallback)
	if _, ok := supported[fb]; !ok {
		fb = DefaultFallback
	}
	return fb, true
}

func normalizeCode(code string) string {
	normalized := language.Normalize(code)
	// x/text canonicalises Norwegian Bokmål to "nb"; the model family uses "no".
	if normalized == "nb" || normalized == "nn" {
		return "no"
	}
	return normalized
}
