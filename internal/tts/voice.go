package tts

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tanmayk15/AutoTranscriber/internal/language"
)

// GenericVoice is the reference used when no per-language voice exists.
const GenericVoice = "voice_01.wav"

var languageVoices = map[string]string{
	"en": "voice_01.wav",
	"zh": "voice_07.wav",
	"es": "voice_10.wav",
	"fr": "voice_12.wav",
}

// VoiceResolver picks a reference audio file for the speaker's voice.
type VoiceResolver struct {
	dir string
}

// NewVoiceResolver looks for bundled references under dir.
func NewVoiceResolver(dir string) *VoiceResolver {
	return &VoiceResolver{dir: dir}
}

// Resolve returns the reference for voice and lang. Order: voice as a file
// path, voice as a name inside the voices directory, the per-language
// default, the generic default, then any *.wav in the directory. ok is false
// when nothing exists.
func (r *VoiceResolver) Resolve(voice, lang string) (path string, ok bool) {
	voice = strings.TrimSpace(voice)
	if voice != "" && isFile(voice) {
		return voice, true
	}
	if r == nil || strings.TrimSpace(r.dir) == "" {
		return "", false
	}
	if voice != "" && voice != "default" && !strings.ContainsRune(voice, os.PathSeparator) {
		for _, name := range []string{voice, voice + ".wav"} {
			if candidate := filepath.Join(r.dir, name); isFile(candidate) {
				return candidate, true
			}
		}
	}
	if name, found := languageVoices[language.Normalize(lang)]; found {
		if candidate := filepath.Join(r.dir, name); isFile(candidate) {
			return candidate, true
		}
	}
	if candidate := filepath.Join(r.dir, GenericVoice); isFile(candidate) {
		return candidate, true
	}
	matches, _ := filepath.Glob(filepath.Join(r.dir, "*.wav"))
	sort.Strings(matches)
	for _, candidate := range matches {
		if isFile(candidate) {
			return candidate, true
		}
	}
	return "", false
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
