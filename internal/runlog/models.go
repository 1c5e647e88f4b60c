package runlog

import "time"

// RunStatus is the lifecycle state of a batch run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	// RunPartial means at least one video ended in partial failure.
	RunPartial RunStatus = "partial"
	// RunAborted means the run stopped before every video was attempted.
	RunAborted RunStatus = "aborted"
)

// VideoStatus is the terminal state of one video.
type VideoStatus string

const (
	VideoDone           VideoStatus = "done"
	VideoPartialFailure VideoStatus = "partial_failure"
)

// Run is one batch invocation.
type Run struct {
	ID             string
	Status         RunStatus
	StartedAt      time.Time
	FinishedAt     time.Time
	VideoCount     int
	FailureCount   int
	TargetLanguage string
	TTSEnabled     bool
}

// Video is the recorded outcome for one input.
type Video struct {
	ID             int64
	RunID          string
	SourcePath     string
	Status         VideoStatus
	SourceLanguage string
	Translated     bool
	SegmentCount   int
	ArtifactCount  int
	Outputs        []string
	Degradations   []string
	ErrorMessage   string
	StartedAt      time.Time
	FinishedAt     time.Time
}

// Elapsed is the wall time spent on the video.
func (v Video) Elapsed() time.Duration {
	if v.FinishedAt.IsZero() || v.StartedAt.IsZero() {
		return 0
	}
	return v.FinishedAt.Sub(v.StartedAt)
}
