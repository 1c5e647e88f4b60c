package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tanmayk15/AutoTranscriber/internal/dubbing"
	"github.com/tanmayk15/AutoTranscriber/internal/logging"
	"github.com/tanmayk15/AutoTranscriber/internal/media/ffmpeg"
	"github.com/tanmayk15/AutoTranscriber/internal/runlog"
	"github.com/tanmayk15/AutoTranscriber/internal/services"
	"github.com/tanmayk15/AutoTranscriber/internal/subtitles"
	"github.com/tanmayk15/AutoTranscriber/internal/translation"
	"github.com/tanmayk15/AutoTranscriber/internal/tts"
)

type fakeMedia struct {
	extractErr map[string]error
	burnErr    map[string]error
	burned     []string
	burnSRT    []string
}

func (f *fakeMedia) ExtractAudio(_ context.Context, source, dest string) error {
	if err := f.extractErr[filepath.Base(source)]; err != nil {
		return err
	}
	return os.WriteFile(dest, []byte("pcm"), 0o644)
}

func (f *fakeMedia) BurnSubtitles(_ context.Context, source, srtPath, dest, _ string) error {
	if err := f.burnErr[filepath.Base(source)]; err != nil {
		return err
	}
	if _, err := os.Stat(srtPath); err != nil {
		return err
	}
	f.burned = append(f.burned, dest)
	f.burnSRT = append(f.burnSRT, filepath.Base(srtPath))
	return os.WriteFile(dest, []byte("video"), 0o644)
}

type fakeTranscriber struct {
	transcript subtitles.Transcript
}

func (f fakeTranscriber) Transcribe(_ context.Context, audioPath, _, _ string) (subtitles.Transcript, error) {
	if _, err := os.Stat(audioPath); err != nil {
		return subtitles.Transcript{}, err
	}
	return f.transcript, nil
}

type spanishBackend struct {
	fail bool
}

func (b spanishBackend) TranslateBatch(_ context.Context, texts []string, _, _ string) ([]string, error) {
	if b.fail {
		return nil, errors.New("model offline")
	}
	dict := map[string]string{"Hello": "Hola", "How are you?": "¿Cómo estás?", "Goodbye": "Adiós"}
	out := make([]string, len(texts))
	for i, text := range texts {
		out[i] = dict[text]
	}
	return out, nil
}

type fakeSynth struct {
	artifacts []tts.Artifact
	err       error
}

func (f fakeSynth) Synthesize(context.Context, []subtitles.Segment, string, string, string) ([]tts.Artifact, error) {
	return f.artifacts, f.err
}

type fakeDubber struct {
	calls int
	err   error
}

func (f *fakeDubber) Dub(_ context.Context, req dubbing.Request) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(req.Output, []byte("dub"), 0o644)
}

func englishTranscript() subtitles.Transcript {
	return subtitles.Transcript{Language: "en", Segments: []subtitles.Segment{
		{Start: 0, End: 1.2, Text: "Hello"},
		{Start: 1.5, End: 3.0, Text: "How are you?"},
		{Start: 3.25, End: 4.5, Text: "Goodbye"},
	}}
}

type fixture struct {
	out, work, video string
	media            *fakeMedia
	dubber           *fakeDubber
	deps             Collaborators
	opts             Options
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	f := &fixture{
		out:    filepath.Join(root, "out"),
		work:   filepath.Join(root, "work"),
		video:  filepath.Join(root, "talk.mp4"),
		media:  &fakeMedia{},
		dubber: &fakeDubber{},
	}
	if err := os.WriteFile(f.video, []byte("src"), 0o644); err != nil {
		t.Fatalf("write video: %v", err)
	}
	f.deps = Collaborators{
		Extractor:   f.media,
		Transcriber: fakeTranscriber{transcript: englishTranscript()},
		Burner:      f.media,
		Dubber:      f.dubber,
	}
	f.opts = Options{OutputDir: f.out, WorkDir: f.work, SourceLanguage: "auto", OutputSRT: true}
	return f
}

func (f *fixture) driver(t *testing.T) *Driver {
	t.Helper()
	d, err := NewDriver(f.deps, f.opts, nil)
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}
	return d
}

func withTranslator(f *fixture, backend translation.Backend) {
	f.deps.Translator = translation.NewTranslator(translation.NewModelCache(), "fake", func() (translation.Backend, error) {
		return backend, nil
	})
}

func readCues(t *testing.T, path string) []subtitles.Cue {
	t.Helper()
	cues, err := subtitles.ReadSRTFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return cues
}

func TestProcessKeepOriginalWritesBothSidecars(t *testing.T) {
	f := newFixture(t)
	f.opts.TargetLanguage = "es"
	f.opts.KeepOriginal = true
	withTranslator(f, spanishBackend{})

	report := f.driver(t).Process(context.Background(), f.video)
	if report.State != StateDone || !report.Translated {
		t.Fatalf("unexpected report %+v", report)
	}
	original := readCues(t, filepath.Join(f.out, "talk.srt"))
	spanish := readCues(t, filepath.Join(f.out, "talk.es.srt"))
	if len(original) != 3 || len(spanish) != 3 {
		t.Fatalf("expected 3 cues each, got %d and %d", len(original), len(spanish))
	}
	for i := range original {
		if original[i].StartMS != spanish[i].StartMS || original[i].EndMS != spanish[i].EndMS {
			t.Fatalf("cue %d timing differs: %+v vs %+v", i, original[i], spanish[i])
		}
	}
	if original[0].Text != "Hello" || spanish[0].Text != "Hola" {
		t.Fatalf("unexpected texts %q / %q", original[0].Text, spanish[0].Text)
	}
	if len(f.media.burnSRT) != 1 || f.media.burnSRT[0] != "talk.es.srt" {
		t.Fatalf("expected translated sidecar to be burned, got %v", f.media.burnSRT)
	}
	if _, err := os.Stat(filepath.Join(f.out, "talk.mp4")); err != nil {
		t.Fatalf("subtitled video missing: %v", err)
	}
}

func TestProcessUntranslatedUsesPlainName(t *testing.T) {
	f := newFixture(t)
	f.opts.TargetLanguage = "en"
	withTranslator(f, spanishBackend{fail: true})

	report := f.driver(t).Process(context.Background(), f.video)
	if report.Translated || len(report.Degradations) != 0 {
		t.Fatalf("same-language target should not translate: %+v", report)
	}
	if _, err := os.Stat(filepath.Join(f.out, "talk.srt")); err != nil {
		t.Fatalf("talk.srt missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(f.out, "talk.en.srt")); !os.IsNotExist(err) {
		t.Fatalf("talk.en.srt should not exist: %v", err)
	}
}

func TestProcessTranslationFailureDegrades(t *testing.T) {
	f := newFixture(t)
	f.opts.TargetLanguage = "es"
	f.opts.TTS = true
	f.deps.Synthesizer = fakeSynth{}
	withTranslator(f, spanishBackend{fail: true})

	report := f.driver(t).Process(context.Background(), f.video)
	if report.State != StateDone || report.Translated {
		t.Fatalf("unexpected report %+v", report)
	}
	if len(report.Degradations) != 1 || !errors.Is(report.Degradations[0].Err, translation.ErrTranslationUnavailable) {
		t.Fatalf("expected translation degradation, got %+v", report.Degradations)
	}
	cues := readCues(t, filepath.Join(f.out, "talk.srt"))
	if cues[1].Text != "How are you?" {
		t.Fatalf("expected original text, got %q", cues[1].Text)
	}
	if f.dubber.calls != 0 {
		t.Fatal("dubbing must not run without a translation")
	}
}

func TestProcessZeroArtifactsStillBurns(t *testing.T) {
	f := newFixture(t)
	f.opts.TargetLanguage = "es"
	f.opts.TTS = true
	f.deps.Synthesizer = fakeSynth{}
	withTranslator(f, spanishBackend{})

	report := f.driver(t).Process(context.Background(), f.video)
	if report.State != StateDone {
		t.Fatalf("unexpected state %s: %v", report.State, report.Err)
	}
	if len(report.Degradations) != 1 || !errors.Is(report.Degradations[0].Err, dubbing.ErrNoAudioToComposite) {
		t.Fatalf("expected composite degradation, got %+v", report.Degradations)
	}
	if f.dubber.calls != 0 {
		t.Fatal("dubber should not be called without artifacts")
	}
	if _, err := os.Stat(filepath.Join(f.out, "talk_dubbed.mp4")); !os.IsNotExist(err) {
		t.Fatalf("dubbed video should not exist: %v", err)
	}
	if _, err := os.Stat(filepath.Join(f.out, "talk.mp4")); err != nil {
		t.Fatalf("subtitled video missing: %v", err)
	}
}

func TestProcessWritesDubbedVideo(t *testing.T) {
	f := newFixture(t)
	f.opts.TargetLanguage = "es"
	f.opts.TTS = true
	f.deps.Synthesizer = fakeSynth{artifacts: []tts.Artifact{{SegmentIndex: 0, AudioPath: "a.wav"}, {SegmentIndex: 2, AudioPath: "c.wav"}}}
	withTranslator(f, spanishBackend{})

	report := f.driver(t).Process(context.Background(), f.video)
	if report.State != StateDone || report.Artifacts != 2 || len(report.Degradations) != 0 {
		t.Fatalf("unexpected report %+v", report)
	}
	want := []string{"talk.es.srt", "talk_dubbed.mp4", "talk.mp4"}
	if len(report.Outputs) != len(want) {
		t.Fatalf("outputs = %v", report.Outputs)
	}
	for i, name := range want {
		if filepath.Base(report.Outputs[i]) != name {
			t.Fatalf("output %d = %s, want %s", i, report.Outputs[i], name)
		}
	}
}

func TestProcessDubFailureIsSoft(t *testing.T) {
	f := newFixture(t)
	f.opts.TargetLanguage = "es"
	f.opts.TTS = true
	f.deps.Synthesizer = fakeSynth{artifacts: []tts.Artifact{{SegmentIndex: 0, AudioPath: "a.wav"}}}
	f.dubber.err = services.Wrap(ffmpeg.ErrMuxFailure, "dub", "ffmpeg", "", errors.New("exit 1"))
	withTranslator(f, spanishBackend{})

	report := f.driver(t).Process(context.Background(), f.video)
	if report.State != StateDone || len(report.Degradations) != 1 || report.Degradations[0].Stage != StageCompositeAudio {
		t.Fatalf("unexpected report %+v", report)
	}
	if err := report.Degradations[0].Err; !services.IsSoft(err) || !errors.Is(err, ffmpeg.ErrMuxFailure) {
		t.Fatalf("expected soft mux degradation, got %v", err)
	}
}

func TestProcessHardTTSErrorDegradesAndLogsError(t *testing.T) {
	f := newFixture(t)
	f.opts.TargetLanguage = "es"
	f.opts.TTS = true
	hard := services.Wrap(services.ErrConfiguration, "tts", "prepare", "clip dir", errors.New("permission denied"))
	f.deps.Synthesizer = fakeSynth{err: hard}
	withTranslator(f, spanishBackend{})

	var logs bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Format: "json", Console: &logs})
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}
	d, err := NewDriver(f.deps, f.opts, logger)
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}

	report := d.Process(context.Background(), f.video)
	if report.State != StateDone {
		t.Fatalf("unexpected state %s: %v", report.State, report.Err)
	}
	if len(report.Degradations) != 1 || report.Degradations[0].Stage != StageSynthesizeTTS {
		t.Fatalf("unexpected degradations %+v", report.Degradations)
	}
	if err := report.Degradations[0].Err; !services.IsSoft(err) || !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected hard error recorded as soft degradation, got %v", err)
	}
	if f.dubber.calls != 0 || len(f.media.burned) != 1 {
		t.Fatalf("expected burn without dub, dub calls=%d burned=%v", f.dubber.calls, f.media.burned)
	}
	found := false
	for _, line := range strings.Split(logs.String(), "\n") {
		if strings.Contains(line, `"event_type":"synthesize_tts_failed"`) && strings.Contains(line, `"level":"error"`) {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected error-level synthesize_tts_failed log, got:\n%s", logs.String())
	}
}

func TestProcessSRTOnlySkipsVideo(t *testing.T) {
	f := newFixture(t)
	f.opts.SRTOnly = true
	f.opts.OutputSRT = false
	f.deps.Burner = nil

	report := f.driver(t).Process(context.Background(), f.video)
	if report.State != StateDone || len(f.media.burned) != 0 {
		t.Fatalf("unexpected report %+v burned=%v", report, f.media.burned)
	}
	if len(report.Outputs) != 1 || filepath.Base(report.Outputs[0]) != "talk.srt" {
		t.Fatalf("unexpected outputs %v", report.Outputs)
	}
}

func TestProcessWithoutOutputSRTKeepsSidecarInScratch(t *testing.T) {
	f := newFixture(t)
	f.opts.OutputSRT = false

	report := f.driver(t).Process(context.Background(), f.video)
	if report.State != StateDone {
		t.Fatalf("unexpected state %s", report.State)
	}
	if _, err := os.Stat(filepath.Join(f.out, "talk.srt")); !os.IsNotExist(err) {
		t.Fatalf("sidecar should not be in output dir: %v", err)
	}
	entries, _ := os.ReadDir(f.work)
	if len(entries) != 0 {
		t.Fatalf("scratch not cleaned: %v", entries)
	}
}

func TestProcessExtractFailureIsPartial(t *testing.T) {
	f := newFixture(t)
	f.media.extractErr = map[string]error{"talk.mp4": errors.New("no audio stream")}

	report := f.driver(t).Process(context.Background(), f.video)
	if report.State != StatePartialFailure || report.FailedStage != StageExtractAudio {
		t.Fatalf("unexpected report %+v", report)
	}
}

type memoryLedger struct {
	runs     map[string]runlog.RunStatus
	videos   []runlog.Video
	failures int
}

func (m *memoryLedger) BeginRun(_ context.Context, run runlog.Run) error {
	if m.runs == nil {
		m.runs = map[string]runlog.RunStatus{}
	}
	m.runs[run.ID] = runlog.RunRunning
	return nil
}

func (m *memoryLedger) RecordVideo(_ context.Context, v runlog.Video) (int64, error) {
	m.videos = append(m.videos, v)
	return int64(len(m.videos)), nil
}

func (m *memoryLedger) FinishRun(_ context.Context, id string, status runlog.RunStatus, failures int, _ time.Time) error {
	m.runs[id] = status
	m.failures = failures
	return nil
}

func TestBatchContinuesAfterBurnFailure(t *testing.T) {
	f := newFixture(t)
	second := filepath.Join(filepath.Dir(f.video), "second.mp4")
	if err := os.WriteFile(second, []byte("src"), 0o644); err != nil {
		t.Fatalf("write video: %v", err)
	}
	f.media.burnErr = map[string]error{"talk.mp4": ffmpeg.ErrMuxFailure}
	ledger := &memoryLedger{}

	summary, err := NewBatch(f.driver(t), ledger, nil).Run(context.Background(), []string{f.video, second})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(summary.Reports) != 2 || summary.Failures() != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if summary.Reports[0].FailedStage != StageBurnSubtitles || summary.Reports[1].State != StateDone {
		t.Fatalf("unexpected reports %+v", summary.Reports)
	}
	if _, err := os.Stat(filepath.Join(f.out, "talk.srt")); err != nil {
		t.Fatalf("sidecar from failed video should remain: %v", err)
	}
	if ledger.runs[summary.RunID] != runlog.RunPartial || ledger.failures != 1 || len(ledger.videos) != 2 {
		t.Fatalf("unexpected ledger state %+v", ledger)
	}
	if ledger.videos[0].Status != runlog.VideoPartialFailure || !strings.Contains(ledger.videos[0].ErrorMessage, "burn_subtitles") {
		t.Fatalf("unexpected ledger video %+v", ledger.videos[0])
	}
}

func TestBatchCancelledSkipsRemaining(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	summary, err := NewBatch(f.driver(t), nil, nil).Run(ctx, []string{f.video, f.video})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(summary.Reports) != 0 || len(summary.Skipped) != 2 {
		t.Fatalf("unexpected summary %+v", summary)
	}
}

func TestSubtitledVideoPathAvoidsOverwritingInput(t *testing.T) {
	dir := t.TempDir()
	video := filepath.Join(dir, "clip.mp4")
	if got := SubtitledVideoPath(video, dir); filepath.Base(got) != "clip_subtitled.mp4" {
		t.Fatalf("unexpected path %s", got)
	}
	if got := SubtitledVideoPath(filepath.Join(dir, "clip.mkv"), dir); filepath.Base(got) != "clip.mp4" {
		t.Fatalf("unexpected path %s", got)
	}
	if got := SubtitleName("/videos/clip.final.mp4", "es"); got != "clip.final.es.srt" {
		t.Fatalf("unexpected subtitle name %s", got)
	}
}
