package language

import (
	"strings"

	"golang.org/x/text/cases"
	xlang "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Auto requests automatic source-language detection.
const Auto = "auto"

// Normalize returns the lower-case ISO 639-1 base code for a tag such as
// "EN", "pt_BR", "zh-Hant", or "spa". Unknown input yields an empty string.
func Normalize(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	tag, err := xlang.Parse(code)
	if err != nil {
		return ""
	}
	base, confidence := tag.Base()
	if confidence == xlang.No {
		return ""
	}
	return strings.ToLower(base.String())
}

// IsValid reports whether code parses as a language tag.
func IsValid(code string) bool {
	return Normalize(code) != ""
}

// Equal compares two codes case-insensitively after normalization. Codes that
// fail to parse are compared as trimmed lower-case strings.
func Equal(a, b string) bool {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
	}
	return na == nb
}

// DisplayName returns the English name for code, e.g. "es" -> "Spanish".
func DisplayName(code string) string {
	normalized := Normalize(code)
	if normalized == "" {
		return cases.Title(xlang.English).String(strings.TrimSpace(code))
	}
	name := display.English.Languages().Name(xlang.Make(normalized))
	if name == "" {
		return strings.ToUpper(normalized)
	}
	return name
}
