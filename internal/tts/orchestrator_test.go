package tts

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"

	"github.com/tanmayk15/AutoTranscriber/internal/services"
	"github.com/tanmayk15/AutoTranscriber/internal/subtitles"
)

func writeWAV(t *testing.T, path string, samples int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create wav: %v", err)
	}
	defer f.Close()
	format := beep.Format{SampleRate: 16000, NumChannels: 1, Precision: 2}
	if err := wav.Encode(f, beep.Silence(samples), format); err != nil {
		t.Fatalf("encode wav: %v", err)
	}
}

type fakeSynth struct {
	t     *testing.T
	mu    sync.Mutex
	reqs  []Request
	block map[string]bool
	fail  map[string]bool
}

func (f *fakeSynth) Synthesize(ctx context.Context, req Request) error {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	f.mu.Unlock()
	if f.block[req.Text] {
		<-ctx.Done()
		return ctx.Err()
	}
	if f.fail[req.Text] {
		return errors.New("exit status 1")
	}
	writeWAV(f.t, req.OutputPath, 8000)
	return nil
}

func TestSynthesizeEmptyTextProducesNothing(t *testing.T) {
	synth := &fakeSynth{t: t}
	orch := NewOrchestrator(synth)
	artifacts, err := orch.Synthesize(context.Background(), []subtitles.Segment{{Start: 0, End: 1, Text: "   "}}, "es", "", t.TempDir())
	if err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}
	if len(artifacts) != 0 || len(synth.reqs) != 0 {
		t.Fatalf("expected no artifacts and no calls, got %d artifacts %d calls", len(artifacts), len(synth.reqs))
	}
}

func TestSynthesizeTimeoutSkipsOnlyThatSegment(t *testing.T) {
	synth := &fakeSynth{t: t, block: map[string]bool{"dos": true}}
	orch := NewOrchestrator(synth, WithTimeout(20*time.Millisecond))
	dir := t.TempDir()
	segs := []subtitles.Segment{
		{Start: 0, End: 1, Text: "uno"},
		{Start: 1, End: 2, Text: "dos"},
		{Start: 2, End: 3, Text: "tres"},
	}
	artifacts, err := orch.Synthesize(context.Background(), segs, "es", "", dir)
	if err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}
	if len(artifacts) != 2 {
		t.Fatalf("expected 2 artifacts, got %+v", artifacts)
	}
	if artifacts[0].SegmentIndex != 0 || artifacts[1].SegmentIndex != 2 {
		t.Fatalf("unexpected indices %+v", artifacts)
	}
	if filepath.Base(artifacts[1].AudioPath) != "segment_0002.wav" {
		t.Fatalf("unexpected clip name %s", artifacts[1].AudioPath)
	}
	if artifacts[0].Duration != 0.5 {
		t.Fatalf("duration = %v, want 0.5", artifacts[0].Duration)
	}
	if _, err := os.Stat(filepath.Join(dir, "segment_0001.wav")); !os.IsNotExist(err) {
		t.Fatalf("timed out clip should not exist: %v", err)
	}
}

func TestSynthesizeFailureContinues(t *testing.T) {
	synth := &fakeSynth{t: t, fail: map[string]bool{"a": true}}
	artifacts, err := NewOrchestrator(synth, WithEmotion("calm")).Synthesize(context.Background(), []subtitles.Segment{
		{Start: 0, End: 1, Text: "a"},
		{Start: 1, End: 2, Text: "b"},
	}, "en", "", t.TempDir())
	if err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}
	if len(artifacts) != 1 || artifacts[0].SegmentIndex != 1 {
		t.Fatalf("unexpected artifacts %+v", artifacts)
	}
	if synth.reqs[1].Emotion != "calm" {
		t.Fatalf("emotion not forwarded: %+v", synth.reqs[1])
	}
}

func TestSynthesizeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewOrchestrator(&fakeSynth{t: t}).Synthesize(ctx, []subtitles.Segment{{Text: "x", End: 1}}, "en", "", t.TempDir())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestProcessSynthesizerArgsAndExitCheck(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, ClipName(3))
	var gotName string
	var gotArgs []string
	synth := NewProcessSynthesizer("python", []string{"indextts_wrapper.py"}, WithCommandRunner(func(_ context.Context, name string, args ...string) error {
		gotName, gotArgs = name, args
		return nil
	}))
	req := Request{Text: "hola", OutputPath: out, Language: "es", VoicePath: "/v.wav", Emotion: "happy"}
	err := synth.Synthesize(context.Background(), req)
	if err == nil {
		t.Fatal("expected error when output file is missing")
	}
	want := []string{"indextts_wrapper.py", "--text", "hola", "--output", out, "--language", "es", "--voice", "/v.wav", "--emotion", "happy"}
	if gotName != "python" || len(gotArgs) != len(want) {
		t.Fatalf("unexpected invocation %s %v", gotName, gotArgs)
	}
	for i := range want {
		if gotArgs[i] != want[i] {
			t.Fatalf("arg %d = %q, want %q", i, gotArgs[i], want[i])
		}
	}

	writeWAV(t, out, 10)
	if err := synth.Synthesize(context.Background(), req); err != nil {
		t.Fatalf("expected success once file exists: %v", err)
	}
}

func TestProcessSynthesizerTimeoutKillsHelperProcesses(t *testing.T) {
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}
	// The wrapper leaves a background child holding its output pipe.
	synth := NewProcessSynthesizer(sh, []string{"-c", "sleep 5 & wait", "tts"})
	orch := NewOrchestrator(synth, WithTimeout(300*time.Millisecond))

	start := time.Now()
	artifacts, err := orch.Synthesize(context.Background(), []subtitles.Segment{{Start: 0, End: 1, Text: "hola"}}, "es", "", t.TempDir())
	elapsed := time.Since(start)
	if err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}
	if len(artifacts) != 0 {
		t.Fatalf("expected no artifacts, got %+v", artifacts)
	}
	if elapsed >= commandWaitDelay {
		t.Fatalf("timed out segment took %s; helper processes outlived the timeout", elapsed)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	err = synth.Synthesize(ctx, Request{Text: "hola", OutputPath: filepath.Join(t.TempDir(), ClipName(0))})
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestVoiceResolverFallbackChain(t *testing.T) {
	dir := t.TempDir()
	r := NewVoiceResolver(dir)
	if _, ok := r.Resolve("", "es"); ok {
		t.Fatal("expected no voice in empty dir")
	}

	other := filepath.Join(dir, "narrator.wav")
	writeWAV(t, other, 10)
	if got, _ := r.Resolve("", "es"); got != other {
		t.Fatalf("expected any wav fallback, got %q", got)
	}

	generic := filepath.Join(dir, GenericVoice)
	writeWAV(t, generic, 10)
	if got, _ := r.Resolve("default", "es"); got != generic {
		t.Fatalf("expected generic voice, got %q", got)
	}

	spanish := filepath.Join(dir, "voice_10.wav")
	writeWAV(t, spanish, 10)
	if got, _ := r.Resolve("", "es-MX"); got != spanish {
		t.Fatalf("expected spanish voice, got %q", got)
	}
	if got, _ := r.Resolve("narrator", "es"); got != other {
		t.Fatalf("expected named voice, got %q", got)
	}

	explicit := filepath.Join(t.TempDir(), "me.wav")
	writeWAV(t, explicit, 10)
	if got, _ := r.Resolve(explicit, "es"); got != explicit {
		t.Fatalf("expected explicit file, got %q", got)
	}
}
