package ffprobe

import (
	"context"
	"errors"
	"math"
	"slices"
	"testing"
)

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video"},
			{CodecType: "audio"},
			{CodecType: "audio"},
		},
		Format: Format{Duration: "123.45"},
	}
	if result.VideoStreamCount() != 1 {
		t.Fatalf("expected 1 video stream, got %d", result.VideoStreamCount())
	}
	if result.AudioStreamCount() != 2 {
		t.Fatalf("expected 2 audio streams, got %d", result.AudioStreamCount())
	}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	if result.MediaDuration() != 123.45 {
		t.Fatalf("unexpected media duration: %v", result.MediaDuration())
	}
}

func TestMediaDurationFallsBackToStreams(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video", Duration: "9.5"},
			{CodecType: "audio", Duration: "10.02"},
		},
		Format: Format{Duration: "N/A"},
	}
	if got := result.MediaDuration(); got != 10.02 {
		t.Fatalf("expected stream fallback 10.02, got %v", got)
	}

	invalid := Result{Format: Format{Duration: "bad"}}
	if !math.IsNaN(invalid.DurationSeconds()) {
		t.Fatalf("expected NaN, got %v", invalid.DurationSeconds())
	}
	if invalid.MediaDuration() != 0 {
		t.Fatalf("expected 0 when nothing usable, got %v", invalid.MediaDuration())
	}
}

func TestProberInspect(t *testing.T) {
	var gotArgs []string
	runner := func(_ context.Context, name string, args ...string) ([]byte, error) {
		if name != "ffprobe" {
			t.Fatalf("unexpected binary %q", name)
		}
		gotArgs = args
		return []byte(`{"streams":[{"index":0,"codec_type":"video"},{"index":1,"codec_type":"audio","duration":"10.000"}],"format":{"duration":"10.000000"}}`), nil
	}
	prober := NewProber("", WithOutputRunner(runner))

	result, err := prober.Inspect(context.Background(), "/videos/clip.mp4")
	if err != nil {
		t.Fatalf("Inspect returned error: %v", err)
	}
	if duration := result.MediaDuration(); duration != 10 {
		t.Fatalf("expected 10s, got %v", duration)
	}
	if gotArgs[len(gotArgs)-1] != "/videos/clip.mp4" || !slices.Contains(gotArgs, "-show_streams") {
		t.Fatalf("unexpected args: %v", gotArgs)
	}
}

func TestProberPropagatesErrors(t *testing.T) {
	boom := errors.New("exit status 1")
	prober := NewProber("ffprobe", WithOutputRunner(func(context.Context, string, ...string) ([]byte, error) {
		return nil, boom
	}))
	if _, err := prober.Inspect(context.Background(), "missing.mp4"); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped runner error, got %v", err)
	}
	if _, err := prober.Inspect(context.Background(), " "); err == nil {
		t.Fatal("expected error for empty path")
	}
}
