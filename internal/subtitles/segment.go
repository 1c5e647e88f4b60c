package subtitles

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

var (
	// ErrInvalidTimestamp reports a negative or non-finite offset.
	ErrInvalidTimestamp = errors.New("invalid timestamp")
	// ErrMalformedSegment reports a segment missing a field or with end < start.
	ErrMalformedSegment = errors.New("malformed segment")
)

// Segment is a timed span of transcript text. Offsets are seconds from the
// start of the media.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Validate checks the timing invariants.
func (s Segment) Validate() error {
	if !validOffset(s.Start) || !validOffset(s.End) {
		return fmt.Errorf("%w: start=%v end=%v", ErrMalformedSegment, s.Start, s.End)
	}
	if s.End < s.Start {
		return fmt.Errorf("%w: end %.3f precedes start %.3f", ErrMalformedSegment, s.End, s.Start)
	}
	return nil
}

func validOffset(v float64) bool {
	return v >= 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Transcript is an ordered sequence of segments sharing one language.
type Transcript struct {
	Language string
	Segments []Segment
}

// Len returns the number of segments.
func (t Transcript) Len() int {
	return len(t.Segments)
}

// RawSegment mirrors a segment as decoded from an external tool, where any
// field may be absent.
type RawSegment struct {
	Start *float64 `json:"start"`
	End   *float64 `json:"end"`
	Text  *string  `json:"text"`
}

// Segment converts the raw record, failing with ErrMalformedSegment when a
// required field is missing or the timing is inconsistent.
func (r RawSegment) Segment(index int) (Segment, error) {
	var missing []string
	if r.Start == nil {
		missing = append(missing, "start")
	}
	if r.End == nil {
		missing = append(missing, "end")
	}
	if r.Text == nil {
		missing = append(missing, "text")
	}
	if len(missing) > 0 {
		return Segment{}, fmt.Errorf("%w: segment %d missing %v", ErrMalformedSegment, index, missing)
	}
	seg := Segment{Start: *r.Start, End: *r.End, Text: *r.Text}
	if err := seg.Validate(); err != nil {
		return Segment{}, fmt.Errorf("segment %d: %w", index, err)
	}
	return seg, nil
}

// NewTranscript validates raw segments and orders them by start time.
func NewTranscript(language string, raw []RawSegment) (Transcript, error) {
	segs := make([]Segment, 0, len(raw))
	for i, r := range raw {
		seg, err := r.Segment(i)
		if err != nil {
			return Transcript{}, err
		}
		segs = append(segs, seg)
	}
	slices.SortStableFunc(segs, func(a, b Segment) int {
		switch {
		case a.Start < b.Start:
			return -1
		case a.Start > b.Start:
			return 1
		default:
			return 0
		}
	})
	return Transcript{Language: language, Segments: segs}, nil
}

// ValidateSegments checks every segment in order and reports the first
// violation with its index.
func ValidateSegments(segs []Segment) error {
	for i, seg := range segs {
		if err := seg.Validate(); err != nil {
			return fmt.Errorf("segment %d: %w", i, err)
		}
	}
	return nil
}
