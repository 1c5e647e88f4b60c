package pipeline

import (
	"path/filepath"
	"strings"
)

// baseName strips directory and extension from a video path.
func baseName(video string) string {
	base := filepath.Base(video)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// SubtitleName returns the sidecar filename for lang. An empty lang yields
// the unsuffixed name used for the source-language file.
func SubtitleName(video, lang string) string {
	if lang == "" {
		return baseName(video) + ".srt"
	}
	return baseName(video) + "." + lang + ".srt"
}

// SubtitledVideoPath returns where the burned-in video is written. When the
// natural name would overwrite the input itself, a _subtitled suffix is used.
func SubtitledVideoPath(video, outputDir string) string {
	dest := filepath.Join(outputDir, baseName(video)+".mp4")
	if samePath(dest, video) {
		dest = filepath.Join(outputDir, baseName(video)+"_subtitled.mp4")
	}
	return dest
}

// DubbedVideoPath returns where the dubbed video is written.
func DubbedVideoPath(video, outputDir string) string {
	return filepath.Join(outputDir, baseName(video)+"_dubbed.mp4")
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
