package subtitles

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	arrow        = "-->"
	escapedArrow = "->"
)

// CueText prepares segment text for an SRT text line: surrounding whitespace
// is trimmed and literal arrows are shortened so the line cannot be mistaken
// for a timing line.
func CueText(text string) string {
	return strings.ReplaceAll(strings.TrimSpace(text), arrow, escapedArrow)
}

// WriteSRT renders segs as SubRip entries: a 1-based index, the timing line,
// the text, and a blank separator.
func WriteSRT(w io.Writer, segs []Segment) error {
	if err := ValidateSegments(segs); err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	for i, seg := range segs {
		start, err := FormatTimestamp(seg.Start, true)
		if err != nil {
			return fmt.Errorf("segment %d start: %w", i, err)
		}
		end, err := FormatTimestamp(seg.End, true)
		if err != nil {
			return fmt.Errorf("segment %d end: %w", i, err)
		}
		if _, err := fmt.Fprintf(bw, "%d\n%s %s %s\n%s\n\n", i+1, start, arrow, end, CueText(seg.Text)); err != nil {
			return fmt.Errorf("write srt entry %d: %w", i+1, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush srt: %w", err)
	}
	return nil
}

// WriteSRTFile writes segs to path through a temporary file in the same
// directory so readers never observe a partial file.
func WriteSRTFile(path string, segs []Segment) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure subtitle dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp srt: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := WriteSRT(tmp, segs); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp srt: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("finalize srt: %w", err)
	}
	return nil
}

// Cue is one parsed SubRip entry.
type Cue struct {
	Index   int
	StartMS int64
	EndMS   int64
	Text    string
}

// ReadSRT parses SubRip content. Multi-line cue text is joined with newlines.
func ReadSRT(r io.Reader) ([]Cue, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read srt: %w", err)
	}
	content := strings.TrimSpace(strings.ReplaceAll(string(data), "\r\n", "\n"))
	if content == "" {
		return nil, nil
	}
	blocks := strings.Split(content, "\n\n")
	cues := make([]Cue, 0, len(blocks))
	for _, block := range blocks {
		block = strings.Trim(block, "\n")
		if strings.TrimSpace(block) == "" {
			continue
		}
		lines := strings.Split(block, "\n")
		if len(lines) < 2 {
			return nil, fmt.Errorf("%w: incomplete cue %q", ErrMalformedSegment, block)
		}
		index, err := strconv.Atoi(strings.TrimSpace(lines[0]))
		if err != nil {
			return nil, fmt.Errorf("%w: cue index %q", ErrMalformedSegment, lines[0])
		}
		startText, endText, ok := strings.Cut(lines[1], arrow)
		if !ok {
			return nil, fmt.Errorf("%w: cue %d timing line %q", ErrMalformedSegment, index, lines[1])
		}
		start, err := ParseTimestampMillis(startText)
		if err != nil {
			return nil, fmt.Errorf("cue %d start: %w", index, err)
		}
		end, err := ParseTimestampMillis(endText)
		if err != nil {
			return nil, fmt.Errorf("cue %d end: %w", index, err)
		}
		cues = append(cues, Cue{
			Index:   index,
			StartMS: start,
			EndMS:   end,
			Text:    strings.Join(lines[2:], "\n"),
		})
	}
	return cues, nil
}

// ReadSRTFile parses the SubRip file at path.
func ReadSRTFile(path string) ([]Cue, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open srt: %w", err)
	}
	defer file.Close()
	return ReadSRT(file)
}

// ValidateSRTContent checks an SRT file for format issues.
// Returns a list of issues found; empty slice means validation passed.
func ValidateSRTContent(path string, videoSeconds float64) []string {
	var issues []string

	cues, err := ReadSRTFile(path)
	if err != nil {
		return append(issues, fmt.Sprintf("parse_error: %v", err))
	}
	if len(cues) == 0 {
		return append(issues, "empty_subtitle_file")
	}

	for i, cue := range cues {
		if cue.Index != i+1 {
			issues = append(issues, fmt.Sprintf("index_gap: cue %d numbered %d", i+1, cue.Index))
			break
		}
	}
	for _, cue := range cues {
		if cue.EndMS < cue.StartMS {
			issues = append(issues, fmt.Sprintf("inverted_timing: cue %d", cue.Index))
		}
	}

	if videoSeconds > 0 {
		last := cues[len(cues)-1]
		limit := int64(videoSeconds*1000) + 1000
		if last.EndMS > limit {
			issues = append(issues, fmt.Sprintf("ends_after_video: last cue ends %.1fs, video %.1fs", float64(last.EndMS)/1000, videoSeconds))
		}
	}
	return issues
}
