package ffmpeg

import "strings"

// Option values inside a filter description are escaped twice: once for the
// filter's own key=value parser and once for the filtergraph parser.
var (
	optionEscaper = strings.NewReplacer(`\`, `\\`, `:`, `\:`, `'`, `\'`)
	graphEscaper  = strings.NewReplacer(`\`, `\\`, `'`, `\'`, `[`, `\[`, `]`, `\]`, `,`, `\,`, `;`, `\;`)
)

// EscapeFilterValue escapes value for use as a filter option inside -vf.
func EscapeFilterValue(value string) string {
	return graphEscaper.Replace(optionEscaper.Replace(value))
}

// SubtitleFilter builds the subtitles filter for burn-in. Windows separators
// are normalized to forward slashes first.
func SubtitleFilter(srtPath, style string) string {
	path := strings.ReplaceAll(srtPath, `\`, "/")
	filter := "subtitles=filename=" + EscapeFilterValue(path)
	if style = strings.TrimSpace(style); style != "" {
		filter += ":force_style=" + EscapeFilterValue(style)
	}
	return filter
}
