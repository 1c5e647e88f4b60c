package subtitles

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	msPerSecond = int64(1000)
	msPerMinute = 60 * msPerSecond
	msPerHour   = 60 * msPerMinute
)

// Milliseconds rounds seconds to the nearest millisecond. Exact halves round
// to even, so 0.0025 becomes 2 and 3661.2345 becomes 3661234.
func Milliseconds(seconds float64) (int64, error) {
	if !validOffset(seconds) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidTimestamp, seconds)
	}
	return int64(math.RoundToEven(seconds * 1000.0)), nil
}

// FormatTimestamp renders seconds as HH:MM:SS,mmm. The hours field is omitted
// when zero unless forceHours is set; SRT files always force it.
func FormatTimestamp(seconds float64, forceHours bool) (string, error) {
	ms, err := Milliseconds(seconds)
	if err != nil {
		return "", err
	}

	hours := ms / msPerHour
	ms -= hours * msPerHour
	minutes := ms / msPerMinute
	ms -= minutes * msPerMinute
	secs := ms / msPerSecond
	ms -= secs * msPerSecond

	var b strings.Builder
	if forceHours || hours > 0 {
		fmt.Fprintf(&b, "%02d:", hours)
	}
	fmt.Fprintf(&b, "%02d:%02d,%03d", minutes, secs, ms)
	return b.String(), nil
}

// ParseTimestampMillis parses HH:MM:SS,mmm (or MM:SS,mmm) into milliseconds.
// A period is accepted in place of the comma.
func ParseTimestampMillis(value string) (int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidTimestamp)
	}
	value = strings.ReplaceAll(value, ".", ",")
	clock, fraction, ok := strings.Cut(value, ",")
	if !ok || len(fraction) != 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimestamp, value)
	}
	fields := strings.Split(clock, ":")
	if len(fields) == 2 {
		fields = append([]string{"0"}, fields...)
	}
	if len(fields) != 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimestamp, value)
	}
	hours, errH := strconv.ParseInt(fields[0], 10, 64)
	minutes, errM := strconv.ParseInt(fields[1], 10, 64)
	seconds, errS := strconv.ParseInt(fields[2], 10, 64)
	millis, errMS := strconv.ParseInt(fraction, 10, 64)
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimestamp, value)
	}
	if hours < 0 || minutes < 0 || minutes > 59 || seconds < 0 || seconds > 59 || millis < 0 {
		return 0, fmt.Errorf("%w: %q out of range", ErrInvalidTimestamp, value)
	}
	return hours*msPerHour + minutes*msPerMinute + seconds*msPerSecond + millis, nil
}

// ParseTimestamp parses an SRT timestamp into seconds.
func ParseTimestamp(value string) (float64, error) {
	ms, err := ParseTimestampMillis(value)
	if err != nil {
		return 0, err
	}
	return float64(ms) / 1000, nil
}
