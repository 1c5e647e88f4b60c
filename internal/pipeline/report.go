package pipeline

import (
	"time"
)

// Stage names the steps of the per-video state machine.
type Stage string

const (
	StageExtractAudio   Stage = "extract_audio"
	StageTranscribe     Stage = "transcribe"
	StageTranslate      Stage = "translate"
	StageWriteSubtitles Stage = "write_subtitles"
	StageSynthesizeTTS  Stage = "synthesize_tts"
	StageCompositeAudio Stage = "composite_audio"
	StageBurnSubtitles  Stage = "burn_subtitles"
)

// State is the terminal state of one video.
type State string

const (
	StateDone           State = "done"
	StatePartialFailure State = "partial_failure"
)

// Degradation records an optional stage that did not contribute output.
type Degradation struct {
	Stage Stage
	Err   error
}

func (d Degradation) String() string {
	if d.Err == nil {
		return string(d.Stage)
	}
	return string(d.Stage) + ": " + d.Err.Error()
}

// Report is the outcome of processing one video.
type Report struct {
	Video          string
	State          State
	SourceLanguage string
	TargetLanguage string
	Translated     bool
	Segments       int
	Artifacts      int
	// Outputs lists files written, in creation order.
	Outputs      []string
	Degradations []Degradation
	// FailedStage and Err are set only for StatePartialFailure.
	FailedStage Stage
	Err         error
	Started     time.Time
	Finished    time.Time
}

// Elapsed returns processing wall time.
func (r Report) Elapsed() time.Duration {
	return r.Finished.Sub(r.Started)
}

func (r *Report) degrade(stage Stage, err error) {
	r.Degradations = append(r.Degradations, Degradation{Stage: stage, Err: err})
}

func (r *Report) fail(stage Stage, err error) {
	r.State = StatePartialFailure
	r.FailedStage = stage
	r.Err = err
}

// Summary aggregates one batch.
type Summary struct {
	RunID   string
	Reports []Report
	// Skipped lists videos not attempted because the batch was cancelled.
	Skipped []string
}

// Failures counts videos that ended in partial failure.
func (s Summary) Failures() int {
	n := 0
	for _, r := range s.Reports {
		if r.State == StatePartialFailure {
			n++
		}
	}
	return n
}
